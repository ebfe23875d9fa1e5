// Package settlement executes merchant payouts: deterministic fee
// computation, method dispatch to simulated payment rails, and bounded
// record keeping.
package settlement

import (
	"context"
	"strings"
	"time"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/merchant"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/settlement"
	"github.com/UTP-Network/payment_gateway/internal/app/metrics"
	"github.com/UTP-Network/payment_gateway/internal/app/storage"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// ExecuteRequest is the settlement execution contract consumed from the HTTP
// layer.
type ExecuteRequest struct {
	PaymentID  string
	MerchantID string
	Amount     float64
	Currency   string
	Method     settlement.Method
	// Account overrides the merchant's registered payout destinations when
	// non-zero.
	Account *merchant.Account
}

// Service owns the settlement lifecycle. Validation failures reject the
// request before any record exists; execution failures leave a failed record
// behind for audit and re-surface the error.
type Service struct {
	merchants  storage.MerchantStore
	store      storage.SettlementStore
	dispatcher *Dispatcher
	log        *logger.Logger
}

// New constructs a settlement service. A nil dispatcher gets default policy.
func New(merchants storage.MerchantStore, store storage.SettlementStore, dispatcher *Dispatcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("settlement")
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher(DispatcherConfig{}, nil, log)
	}
	return &Service{
		merchants:  merchants,
		store:      store,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Execute runs the full settlement flow for a payment.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (settlement.Record, error) {
	start := time.Now()
	rec, err := s.execute(ctx, req)
	status := string(rec.Status)
	if err != nil && rec.ID == "" {
		status = "rejected"
	}
	metrics.RecordSettlement(string(req.Method), status, time.Since(start))
	return rec, err
}

func (s *Service) execute(ctx context.Context, req ExecuteRequest) (settlement.Record, error) {
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.MerchantID = strings.TrimSpace(req.MerchantID)
	if req.PaymentID == "" {
		return settlement.Record{}, apierror.Validation("payment_id is required")
	}
	if req.MerchantID == "" {
		return settlement.Record{}, apierror.Validation("merchant_id is required")
	}
	cfg, ok := settlement.Config(req.Method)
	if !ok {
		return settlement.Record{}, apierror.UnsupportedMethod(string(req.Method))
	}
	if req.Amount <= 0 {
		return settlement.Record{}, apierror.InvalidAmount(req.Amount)
	}
	if err := ValidateAmount(req.Amount, req.Method); err != nil {
		return settlement.Record{}, err
	}

	account := merchant.Account{}
	if s.merchants != nil {
		m, err := s.merchants.GetMerchant(ctx, req.MerchantID)
		if err != nil {
			return settlement.Record{}, err
		}
		account = m.Account
	}
	if req.Account != nil {
		account = *req.Account
	}

	quote, err := CalculateFees(req.Amount, req.Method)
	if err != nil {
		return settlement.Record{}, err
	}

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = cfg.Currency
	}

	rec := settlement.Record{
		PaymentID:  req.PaymentID,
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		Currency:   currency,
		Method:     req.Method,
		Status:     settlement.StatusPending,
		Fees:       quote.Fees,
		NetAmount:  quote.NetAmount,
	}
	rec, err = s.store.CreateSettlement(ctx, rec)
	if err != nil {
		return settlement.Record{}, err
	}

	status, details, err := s.dispatcher.Execute(ctx, rec, account)
	if err != nil {
		rec.Status = settlement.StatusFailed
		rec.ErrorMessage = err.Error()
		if failed, updateErr := s.store.UpdateSettlement(ctx, rec); updateErr == nil {
			rec = failed
		} else {
			s.log.WithError(updateErr).
				WithField("settlement_id", rec.ID).
				Warn("persist failed settlement state")
		}
		s.log.WithError(err).
			WithField("settlement_id", rec.ID).
			WithField("method", rec.Method).
			Warn("settlement execution failed")
		return rec, apierror.SettlementFailed(err)
	}

	rec.Status = status
	rec.Details = details
	rec, err = s.store.UpdateSettlement(ctx, rec)
	if err != nil {
		return rec, err
	}

	s.log.WithField("settlement_id", rec.ID).
		WithField("merchant_id", rec.MerchantID).
		WithField("method", rec.Method).
		WithField("status", rec.Status).
		Info("settlement executed")
	return rec, nil
}

// Get retrieves a settlement by id.
func (s *Service) Get(ctx context.Context, id string) (settlement.Record, error) {
	return s.store.GetSettlement(ctx, id)
}

// List returns settlements, optionally filtered by merchant, oldest first.
func (s *Service) List(ctx context.Context, merchantID string) ([]settlement.Record, error) {
	return s.store.ListSettlements(ctx, merchantID)
}

// Quote exposes the deterministic fee computation without executing anything.
func (s *Service) Quote(_ context.Context, amount float64, method settlement.Method) (FeeQuote, error) {
	if amount <= 0 {
		return FeeQuote{}, apierror.InvalidAmount(amount)
	}
	return CalculateFees(amount, method)
}
