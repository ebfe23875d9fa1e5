package settlement

import (
	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/settlement"
)

// GSTRate is the fixed tax rate applied to the settlement fee.
const GSTRate = 0.18

// FeeQuote is the deterministic fee computation for a settlement amount.
type FeeQuote struct {
	Fees      settlement.Fees `json:"fees"`
	NetAmount float64         `json:"net_amount"`
	FeeRate   float64         `json:"fee_rate"`
}

// CalculateFees computes settlement fee, GST and net payable amount for a
// method. Pure: no I/O, no randomness, identical inputs yield identical
// outputs.
func CalculateFees(amount float64, method settlement.Method) (FeeQuote, error) {
	cfg, ok := settlement.Config(method)
	if !ok {
		return FeeQuote{}, apierror.UnsupportedMethod(string(method))
	}

	fee := amount * cfg.FeeRate
	tax := fee * GSTRate
	total := fee + tax

	return FeeQuote{
		Fees: settlement.Fees{
			SettlementFee: fee,
			Tax:           tax,
			TotalFee:      total,
		},
		NetAmount: amount - total,
		FeeRate:   cfg.FeeRate,
	}, nil
}

// ValidateAmount checks an amount against the method's limits before any
// state is created.
func ValidateAmount(amount float64, method settlement.Method) error {
	cfg, ok := settlement.Config(method)
	if !ok {
		return apierror.UnsupportedMethod(string(method))
	}
	if amount < cfg.MinAmount || amount > cfg.MaxAmount {
		return apierror.AmountOutOfRange(string(method), amount, cfg.MinAmount, cfg.MaxAmount)
	}
	return nil
}
