package conversion

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/asset"
	"github.com/UTP-Network/payment_gateway/internal/app/storage/memory"
)

type staticPrices map[asset.Code]asset.Quote

func (p staticPrices) GetPrice(_ context.Context, code asset.Code) (asset.Quote, error) {
	q, ok := p[code]
	if !ok {
		return asset.Quote{}, apierror.InvalidAsset(string(code))
	}
	return q, nil
}

func fixedQuotes() staticPrices {
	now := time.Now().UTC()
	return staticPrices{
		asset.BGT:  {Asset: asset.BGT, Price: 5650, Currency: "INR", Source: asset.SourceLive, ObservedAt: now, Volatility: asset.VolatilityLow, Confidence: 0.95},
		asset.BINR: {Asset: asset.BINR, Price: 1, Currency: "INR", Source: asset.SourceLive, ObservedAt: now, Volatility: asset.VolatilityMinimal, Confidence: 0.95},
		asset.BPT:  {Asset: asset.BPT, Price: 3200, Currency: "INR", Source: asset.SourceLive, ObservedAt: now, Volatility: asset.VolatilityHigh, Confidence: 0.95},
	}
}

func TestConvertWithoutSlippage(t *testing.T) {
	store := memory.New()
	svc := New(fixedQuotes(), store, Config{}, rand.New(rand.NewSource(1)), nil)

	res, err := svc.Convert(context.Background(), asset.BGT, asset.BINR, 1000, &Options{DisableSlippageProtection: true})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if res.OriginalRate != 5650 || res.Rate != 5650 {
		t.Fatalf("expected rate 5650, got original=%v adjusted=%v", res.OriginalRate, res.Rate)
	}
	// Fee is computed on the source amount: 1000 * 0.0005 = 0.5.
	if res.Fees.ConversionFee != 0.5 {
		t.Fatalf("expected fee 0.5, got %v", res.Fees.ConversionFee)
	}
	if res.Fees.Slippage != 0 {
		t.Fatalf("expected zero slippage, got %v", res.Fees.Slippage)
	}
	if res.Fees.TotalFee != 0.5 {
		t.Fatalf("expected total fee 0.5, got %v", res.Fees.TotalFee)
	}
	if res.ToAmount != 5649999.5 {
		t.Fatalf("expected net 5649999.5, got %v", res.ToAmount)
	}
	if !res.ValidUntil.Equal(res.ComputedAt.Add(QuoteValidity)) {
		t.Fatalf("valid_until must be computed_at + %s", QuoteValidity)
	}
	if res.ID == "" {
		t.Fatalf("expected conversion id assigned")
	}
}

func TestConvertSlippageBounds(t *testing.T) {
	svc := New(fixedQuotes(), memory.New(), Config{}, rand.New(rand.NewSource(9)), nil)

	for i := 0; i < 50; i++ {
		res, err := svc.Convert(context.Background(), asset.BPT, asset.BINR, 1000, nil)
		if err != nil {
			t.Fatalf("convert: %v", err)
		}
		if res.Rate > res.OriginalRate {
			t.Fatalf("adjusted rate %v above base rate %v", res.Rate, res.OriginalRate)
		}
		// High volatility caps the haircut at max_slippage * 1.5 * 0.5.
		maxFraction := DefaultMaxSlippage * 1.5 * 0.5
		if res.Fees.Slippage > 1000*maxFraction {
			t.Fatalf("slippage %v above cap %v", res.Fees.Slippage, 1000*maxFraction)
		}
		if res.Fees.TotalFee < res.Fees.ConversionFee {
			t.Fatalf("total fee %v below conversion fee %v", res.Fees.TotalFee, res.Fees.ConversionFee)
		}
	}
}

func TestConvertCustomFeeRate(t *testing.T) {
	svc := New(fixedQuotes(), memory.New(), Config{}, rand.New(rand.NewSource(1)), nil)

	feeRate := 0.01
	res, err := svc.Convert(context.Background(), asset.BGT, asset.BINR, 1000,
		&Options{FeeRate: &feeRate, DisableSlippageProtection: true})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Fees.ConversionFee != 10 {
		t.Fatalf("expected fee 10, got %v", res.Fees.ConversionFee)
	}
}

func TestConvertSameAssetPassthrough(t *testing.T) {
	svc := New(fixedQuotes(), memory.New(), Config{}, rand.New(rand.NewSource(1)), nil)

	res, err := svc.Convert(context.Background(), asset.BGT, asset.BGT, 250.75, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.ToAmount != res.FromAmount {
		t.Fatalf("passthrough must preserve the amount: %v != %v", res.ToAmount, res.FromAmount)
	}
	if res.Rate != 1 || res.OriginalRate != 1 {
		t.Fatalf("passthrough rate must be 1, got %v", res.Rate)
	}
	if res.Fees.TotalFee != 0 {
		t.Fatalf("passthrough must be fee-free, got %v", res.Fees.TotalFee)
	}
}

func TestConvertSameAssetRejectPolicy(t *testing.T) {
	svc := New(fixedQuotes(), memory.New(), Config{SameAssetPolicy: SameAssetReject}, rand.New(rand.NewSource(1)), nil)

	_, err := svc.Convert(context.Background(), asset.BGT, asset.BGT, 100, nil)
	if !apierror.IsCode(err, apierror.CodeSameAsset) {
		t.Fatalf("expected SAME_ASSET_CONVERSION, got %v", err)
	}
}

func TestConvertRejectsInvalidInput(t *testing.T) {
	svc := New(fixedQuotes(), memory.New(), Config{}, rand.New(rand.NewSource(1)), nil)

	if _, err := svc.Convert(context.Background(), asset.Code("doge"), asset.BINR, 100, nil); !apierror.IsCode(err, apierror.CodeInvalidAsset) {
		t.Fatalf("expected INVALID_ASSET for from_asset, got %v", err)
	}
	if _, err := svc.Convert(context.Background(), asset.BGT, asset.Code("doge"), 100, nil); !apierror.IsCode(err, apierror.CodeInvalidAsset) {
		t.Fatalf("expected INVALID_ASSET for to_asset, got %v", err)
	}
	if _, err := svc.Convert(context.Background(), asset.BGT, asset.BINR, 0, nil); !apierror.IsCode(err, apierror.CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT, got %v", err)
	}
}

func TestConvertMarketImpactClassification(t *testing.T) {
	svc := New(fixedQuotes(), memory.New(), Config{}, rand.New(rand.NewSource(1)), nil)

	small, err := svc.Convert(context.Background(), asset.BGT, asset.BINR, 10, &Options{DisableSlippageProtection: true})
	if err != nil {
		t.Fatalf("convert small: %v", err)
	}
	wantSmall := 0.0001 + math.Log10(11)*0.00005
	if math.Abs(small.Impact.Percentage-wantSmall) > 1e-12 {
		t.Fatalf("impact pct: want %v, got %v", wantSmall, small.Impact.Percentage)
	}
	if small.Impact.Level != "minimal" {
		t.Fatalf("expected minimal impact for small order, got %s", small.Impact.Level)
	}

	large, err := svc.Convert(context.Background(), asset.BGT, asset.BINR, 1e9, &Options{DisableSlippageProtection: true})
	if err != nil {
		t.Fatalf("convert large: %v", err)
	}
	if large.Impact.Level != "low" {
		t.Fatalf("expected low impact for 1e9 order, got %s", large.Impact.Level)
	}
}

func TestConvertAppendsToHistory(t *testing.T) {
	store := memory.New()
	svc := New(fixedQuotes(), store, Config{}, rand.New(rand.NewSource(1)), nil)

	first, err := svc.Convert(context.Background(), asset.BGT, asset.BINR, 100, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	second, err := svc.Convert(context.Background(), asset.BPT, asset.BINR, 200, nil)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	history, err := svc.History(context.Background(), 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Fatalf("expected most recent first")
	}

	got, err := svc.Get(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("unexpected conversion %s", got.ID)
	}
}
