// Package settlement defines payout methods and settlement records.
package settlement

import "time"

// Method identifies a payout channel.
type Method string

const (
	MethodUPI   Method = "inr_upi"
	MethodNEFT  Method = "inr_neft"
	MethodBINR  Method = "binr_transfer"
	MethodBGT   Method = "bgt_transfer"
	MethodMixed Method = "mixed_settlement"
)

// Status tracks a settlement through its lifecycle. Completed and failed are
// terminal; a failed settlement is retried by creating a new one.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Fees itemizes settlement charges. TotalFee is always SettlementFee + Tax.
type Fees struct {
	SettlementFee float64 `json:"settlement_fee"`
	Tax           float64 `json:"tax"`
	TotalFee      float64 `json:"total_fee"`
}

// MethodConfig is the static profile of a payout channel.
type MethodConfig struct {
	Code           Method  `json:"code"`
	DisplayName    string  `json:"display_name"`
	Currency       string  `json:"currency"`
	FeeRate        float64 `json:"fee_rate"`
	MinAmount      float64 `json:"min_amount"`
	MaxAmount      float64 `json:"max_amount"`
	TypicalLatency string  `json:"typical_latency"`
}

var methodConfigs = map[Method]MethodConfig{
	MethodUPI: {
		Code:           MethodUPI,
		DisplayName:    "UPI Instant Transfer",
		Currency:       "INR",
		FeeRate:        0.001,
		MinAmount:      1,
		MaxAmount:      100000,
		TypicalLatency: "< 2s",
	},
	MethodNEFT: {
		Code:           MethodNEFT,
		DisplayName:    "NEFT Bank Transfer",
		Currency:       "INR",
		FeeRate:        0.0005,
		MinAmount:      1,
		MaxAmount:      1000000,
		TypicalLatency: "< 24h",
	},
	MethodBINR: {
		Code:           MethodBINR,
		DisplayName:    "BINR Token Transfer",
		Currency:       "BINR",
		FeeRate:        0.0002,
		MinAmount:      1,
		MaxAmount:      10000000,
		TypicalLatency: "5-10s",
	},
	MethodBGT: {
		Code:           MethodBGT,
		DisplayName:    "BGT Token Transfer",
		Currency:       "BGT",
		FeeRate:        0.0002,
		MinAmount:      0.001,
		MaxAmount:      1000,
		TypicalLatency: "5-10s",
	},
	MethodMixed: {
		Code:           MethodMixed,
		DisplayName:    "Mixed INR/BINR Settlement",
		Currency:       "INR",
		FeeRate:        0.0008,
		MinAmount:      100,
		MaxAmount:      5000000,
		TypicalLatency: "< 60s",
	},
}

// Config returns the static profile for a method.
func Config(m Method) (MethodConfig, bool) {
	cfg, ok := methodConfigs[m]
	return cfg, ok
}

// Methods returns all configured payout channels.
func Methods() []MethodConfig {
	out := make([]MethodConfig, 0, len(methodConfigs))
	for _, m := range []Method{MethodUPI, MethodNEFT, MethodBINR, MethodBGT, MethodMixed} {
		out = append(out, methodConfigs[m])
	}
	return out
}

// Record is a settlement in flight or at rest. Details carries the
// method-specific receipt produced by the dispatcher.
type Record struct {
	ID           string         `json:"settlement_id"`
	PaymentID    string         `json:"payment_id"`
	MerchantID   string         `json:"merchant_id"`
	Amount       float64        `json:"amount"`
	Currency     string         `json:"currency"`
	Method       Method         `json:"settlement_method"`
	Status       Status         `json:"status"`
	Fees         Fees           `json:"fees"`
	NetAmount    float64        `json:"net_amount"`
	Details      map[string]any `json:"transaction_details,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
