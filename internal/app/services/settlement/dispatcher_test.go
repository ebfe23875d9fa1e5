package settlement

import (
	"context"
	"math"
	"math/rand"
	"regexp"
	"testing"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/merchant"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/settlement"
)

func testDispatcher(cfg DispatcherConfig) *Dispatcher {
	return NewDispatcher(cfg, rand.New(rand.NewSource(1)), nil)
}

func TestDispatcherUPIReceipt(t *testing.T) {
	d := testDispatcher(DispatcherConfig{})
	rec := settlement.Record{MerchantID: "m-1", Amount: 1000, Method: settlement.MethodUPI, Status: settlement.StatusPending}

	status, details, err := d.Execute(context.Background(), rec, merchant.Account{VPA: "shop@upi"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if status != settlement.StatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
	utr, _ := details["utr"].(string)
	if !regexp.MustCompile(`^UTR\d{12}$`).MatchString(utr) {
		t.Fatalf("malformed utr %q", utr)
	}
	if details["vpa"] != "shop@upi" {
		t.Fatalf("expected registered vpa, got %v", details["vpa"])
	}
}

func TestDispatcherUPIFallbackVPA(t *testing.T) {
	d := testDispatcher(DispatcherConfig{})
	rec := settlement.Record{MerchantID: "m-42", Amount: 500, Method: settlement.MethodUPI}

	_, details, err := d.Execute(context.Background(), rec, merchant.Account{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if details["vpa"] != "m-42@utp" {
		t.Fatalf("expected synthesized vpa, got %v", details["vpa"])
	}
}

func TestDispatcherNEFTAsyncVsSync(t *testing.T) {
	rec := settlement.Record{MerchantID: "m-1", Amount: 5000, Method: settlement.MethodNEFT}
	account := merchant.Account{BankAccount: "1234567890", IFSC: "HDFC0000001"}

	status, details, err := testDispatcher(DispatcherConfig{NEFTAsync: true}).Execute(context.Background(), rec, account)
	if err != nil {
		t.Fatalf("execute async: %v", err)
	}
	if status != settlement.StatusProcessing {
		t.Fatalf("async NEFT must stay processing, got %s", status)
	}
	ref, _ := details["reference_number"].(string)
	if !regexp.MustCompile(`^NEFT\d{10}$`).MatchString(ref) {
		t.Fatalf("malformed reference %q", ref)
	}
	if details["ifsc"] != "HDFC0000001" {
		t.Fatalf("expected ifsc in receipt, got %v", details["ifsc"])
	}

	status, _, err = testDispatcher(DispatcherConfig{}).Execute(context.Background(), rec, account)
	if err != nil {
		t.Fatalf("execute sync: %v", err)
	}
	if status != settlement.StatusCompleted {
		t.Fatalf("sync NEFT must complete, got %s", status)
	}
}

func TestDispatcherTokenTransferReceipt(t *testing.T) {
	d := testDispatcher(DispatcherConfig{})
	rec := settlement.Record{MerchantID: "m-1", Amount: 100, Method: settlement.MethodBINR}

	status, details, err := d.Execute(context.Background(), rec, merchant.Account{WalletAddress: "0xabc"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if status != settlement.StatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}
	hash, _ := details["tx_hash"].(string)
	if !regexp.MustCompile(`^0x[0-9a-f]{64}$`).MatchString(hash) {
		t.Fatalf("malformed tx hash %q", hash)
	}
	block, _ := details["block_number"].(int64)
	if block < 1_000_000 || block >= 10_000_000 {
		t.Fatalf("block number %d out of range", block)
	}
	if details["network"] != "binr" {
		t.Fatalf("unexpected network %v", details["network"])
	}
}

func TestDispatcherMixedSplit(t *testing.T) {
	d := testDispatcher(DispatcherConfig{MixedSplitINR: 0.70})
	rec := settlement.Record{
		MerchantID: "m-1",
		Amount:     1000,
		Method:     settlement.MethodMixed,
		NetAmount:  999.056,
	}

	status, details, err := d.Execute(context.Background(), rec, merchant.Account{VPA: "shop@upi", WalletAddress: "0xabc"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if status != settlement.StatusCompleted {
		t.Fatalf("expected completed, got %s", status)
	}

	legs, ok := details["legs"].([]map[string]any)
	if !ok || len(legs) != 2 {
		t.Fatalf("expected two legs, got %v", details["legs"])
	}
	inr, _ := legs[0]["amount"].(float64)
	token, _ := legs[1]["amount"].(float64)
	if math.Abs(inr-rec.NetAmount*0.70) > 1e-9 {
		t.Fatalf("inr leg %v is not 70%% of net", inr)
	}
	if math.Abs(inr+token-rec.NetAmount) > 1e-9 {
		t.Fatalf("legs %v + %v do not sum to net %v", inr, token, rec.NetAmount)
	}
}

func TestDispatcherMixedSplitDefaultsOutOfRange(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{MixedSplitINR: 1.5}, rand.New(rand.NewSource(1)), nil)
	if d.cfg.MixedSplitINR != 0.70 {
		t.Fatalf("expected split clamped to default, got %v", d.cfg.MixedSplitINR)
	}
}

func TestDispatcherRejectsOutOfRangeAmount(t *testing.T) {
	d := testDispatcher(DispatcherConfig{})
	rec := settlement.Record{MerchantID: "m-1", Amount: 200000, Method: settlement.MethodUPI, Status: settlement.StatusPending}

	status, _, err := d.Execute(context.Background(), rec, merchant.Account{})
	if !apierror.IsCode(err, apierror.CodeAmountOutOfRange) {
		t.Fatalf("expected AMOUNT_OUT_OF_RANGE, got %v", err)
	}
	if status != settlement.StatusPending {
		t.Fatalf("rejected settlement must keep its status, got %s", status)
	}
}

func TestDispatcherHonoursCancelledContext(t *testing.T) {
	d := testDispatcher(DispatcherConfig{})
	rec := settlement.Record{MerchantID: "m-1", Amount: 1000, Method: settlement.MethodUPI}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := d.Execute(ctx, rec, merchant.Account{}); err == nil {
		t.Fatalf("expected context error")
	}
}
