package settlement

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/UTP-Network/payment_gateway/internal/app/domain/merchant"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/settlement"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// DispatcherConfig fixes the divergent execution constants as explicit
// policy rather than code forks.
type DispatcherConfig struct {
	// MixedSplitINR is the fraction of the net amount paid out over UPI in a
	// mixed settlement; the remainder moves as a BINR token transfer.
	MixedSplitINR float64
	// NEFTAsync leaves NEFT settlements in processing instead of completing
	// them immediately.
	NEFTAsync bool
}

// Dispatcher routes a settlement to its method-specific execution routine and
// produces a synthetic transaction receipt. The routines simulate the payment
// rails; no real transfer happens.
type Dispatcher struct {
	cfg DispatcherConfig
	log *logger.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewDispatcher constructs a dispatcher. A nil rnd gets a time-seeded
// generator; a zero split defaults to 70% INR.
func NewDispatcher(cfg DispatcherConfig, rnd *rand.Rand, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewDefault("settlement-dispatcher")
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.MixedSplitINR <= 0 || cfg.MixedSplitINR >= 1 {
		cfg.MixedSplitINR = 0.70
	}
	return &Dispatcher{cfg: cfg, rnd: rnd, log: log}
}

// Execute validates the amount against the method limits and runs the
// matching routine. It returns the terminal (or, for async NEFT, in-flight)
// status and the receipt details.
func (d *Dispatcher) Execute(ctx context.Context, rec settlement.Record, account merchant.Account) (settlement.Status, map[string]any, error) {
	if err := ValidateAmount(rec.Amount, rec.Method); err != nil {
		return rec.Status, nil, err
	}
	if err := ctx.Err(); err != nil {
		return rec.Status, nil, err
	}

	switch rec.Method {
	case settlement.MethodUPI:
		return d.executeUPI(rec, account)
	case settlement.MethodNEFT:
		return d.executeNEFT(rec, account)
	case settlement.MethodBINR:
		return d.executeTokenTransfer(rec, account, "binr")
	case settlement.MethodBGT:
		return d.executeTokenTransfer(rec, account, "bgt")
	case settlement.MethodMixed:
		return d.executeMixed(rec, account)
	default:
		return rec.Status, nil, fmt.Errorf("no execution routine for method %s", rec.Method)
	}
}

func (d *Dispatcher) executeUPI(rec settlement.Record, account merchant.Account) (settlement.Status, map[string]any, error) {
	vpa := account.VPA
	if vpa == "" {
		vpa = rec.MerchantID + "@utp"
	}
	details := map[string]any{
		"utr":             d.syntheticUTR(),
		"vpa":             vpa,
		"typical_latency": "< 2s",
	}
	return settlement.StatusCompleted, details, nil
}

func (d *Dispatcher) executeNEFT(rec settlement.Record, account merchant.Account) (settlement.Status, map[string]any, error) {
	details := map[string]any{
		"reference_number": d.syntheticReference("NEFT"),
		"bank_account":     account.BankAccount,
		"ifsc":             account.IFSC,
		"typical_latency":  "< 24h",
	}
	status := settlement.StatusCompleted
	if d.cfg.NEFTAsync {
		status = settlement.StatusProcessing
	}
	return status, details, nil
}

func (d *Dispatcher) executeTokenTransfer(rec settlement.Record, account merchant.Account, network string) (settlement.Status, map[string]any, error) {
	details := map[string]any{
		"tx_hash":         d.syntheticTxHash(),
		"block_number":    d.syntheticBlockNumber(),
		"network":         network,
		"wallet_address":  account.WalletAddress,
		"typical_latency": "5-10s",
	}
	return settlement.StatusCompleted, details, nil
}

func (d *Dispatcher) executeMixed(rec settlement.Record, account merchant.Account) (settlement.Status, map[string]any, error) {
	inrAmount := rec.NetAmount * d.cfg.MixedSplitINR
	tokenAmount := rec.NetAmount - inrAmount

	vpa := account.VPA
	if vpa == "" {
		vpa = rec.MerchantID + "@utp"
	}

	details := map[string]any{
		"split_inr": d.cfg.MixedSplitINR,
		"legs": []map[string]any{
			{
				"method": string(settlement.MethodUPI),
				"amount": inrAmount,
				"utr":    d.syntheticUTR(),
				"vpa":    vpa,
			},
			{
				"method":       string(settlement.MethodBINR),
				"amount":       tokenAmount,
				"tx_hash":      d.syntheticTxHash(),
				"block_number": d.syntheticBlockNumber(),
				"network":      "binr",
			},
		},
		"typical_latency": "< 60s",
	}
	return settlement.StatusCompleted, details, nil
}

func (d *Dispatcher) syntheticUTR() string {
	d.mu.Lock()
	n := d.rnd.Int63n(1e12)
	d.mu.Unlock()
	return fmt.Sprintf("UTR%012d", n)
}

func (d *Dispatcher) syntheticReference(prefix string) string {
	d.mu.Lock()
	n := d.rnd.Int63n(1e10)
	d.mu.Unlock()
	return fmt.Sprintf("%s%010d", prefix, n)
}

func (d *Dispatcher) syntheticTxHash() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 64)
	d.mu.Lock()
	for i := range buf {
		buf[i] = hexDigits[d.rnd.Intn(len(hexDigits))]
	}
	d.mu.Unlock()
	return "0x" + string(buf)
}

func (d *Dispatcher) syntheticBlockNumber() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return 1_000_000 + d.rnd.Int63n(9_000_000)
}
