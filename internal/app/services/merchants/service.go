// Package merchants manages merchant registration. Settlements validate
// against this registry before paying out.
package merchants

import (
	"context"
	"strings"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/merchant"
	"github.com/UTP-Network/payment_gateway/internal/app/storage"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// Service manages merchant records.
type Service struct {
	store storage.MerchantStore
	log   *logger.Logger
}

// New constructs a merchant service.
func New(store storage.MerchantStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("merchants")
	}
	return &Service{store: store, log: log}
}

// Register creates a merchant. At least one payout destination is required so
// settlements have somewhere to land.
func (s *Service) Register(ctx context.Context, name, email string, account merchant.Account) (merchant.Merchant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return merchant.Merchant{}, apierror.Validation("name is required")
	}
	if account.VPA == "" && account.BankAccount == "" && account.WalletAddress == "" {
		return merchant.Merchant{}, apierror.Validation("at least one settlement account detail is required")
	}
	if account.BankAccount != "" && account.IFSC == "" {
		return merchant.Merchant{}, apierror.Validation("ifsc is required with bank_account")
	}

	m := merchant.Merchant{
		Name:    name,
		Email:   strings.TrimSpace(email),
		Account: account,
	}
	m, err := s.store.CreateMerchant(ctx, m)
	if err != nil {
		return merchant.Merchant{}, err
	}

	s.log.WithField("merchant_id", m.ID).
		WithField("name", m.Name).
		Info("merchant registered")
	return m, nil
}

// Get retrieves a merchant by id.
func (s *Service) Get(ctx context.Context, id string) (merchant.Merchant, error) {
	return s.store.GetMerchant(ctx, id)
}

// List returns all registered merchants.
func (s *Service) List(ctx context.Context) ([]merchant.Merchant, error) {
	return s.store.ListMerchants(ctx)
}
