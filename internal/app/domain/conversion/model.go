// Package conversion holds the immutable result of a price conversion.
package conversion

import (
	"time"

	"github.com/UTP-Network/payment_gateway/internal/app/domain/asset"
)

// FeeBreakdown itemizes the cost of a conversion.
type FeeBreakdown struct {
	ConversionFee float64 `json:"conversion_fee"`
	Slippage      float64 `json:"slippage"`
	TotalFee      float64 `json:"total_fee"`
}

// ImpactLevel classifies the estimated market impact of an order.
type ImpactLevel string

const (
	ImpactMinimal ImpactLevel = "minimal"
	ImpactLow     ImpactLevel = "low"
	ImpactMedium  ImpactLevel = "medium"
	ImpactHigh    ImpactLevel = "high"
)

// MarketImpact is informational only; it is never applied to the amount.
type MarketImpact struct {
	Percentage float64     `json:"percentage"`
	Absolute   float64     `json:"absolute"`
	Level      ImpactLevel `json:"level"`
}

// Result is the record of a single conversion. It is never mutated after
// creation; rates must not be honored past ValidUntil.
type Result struct {
	ID           string       `json:"conversion_id"`
	FromAsset    asset.Code   `json:"from_asset"`
	ToAsset      asset.Code   `json:"to_asset"`
	FromAmount   float64      `json:"from_amount"`
	ToAmount     float64      `json:"to_amount"`
	Rate         float64      `json:"conversion_rate"`
	OriginalRate float64      `json:"original_rate"`
	Fees         FeeBreakdown `json:"fee_breakdown"`
	Impact       MarketImpact `json:"market_impact"`
	ComputedAt   time.Time    `json:"computed_at"`
	ValidUntil   time.Time    `json:"valid_until"`
}
