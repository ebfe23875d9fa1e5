// Package storage declares the persistence interfaces consumed by the
// gateway services. The in-memory implementation lives in storage/memory.
package storage

import (
	"context"

	"github.com/UTP-Network/payment_gateway/internal/app/domain/conversion"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/merchant"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/settlement"
)

// ConversionStore is an append-only, bounded log of conversion results.
type ConversionStore interface {
	AppendConversion(ctx context.Context, res conversion.Result) (conversion.Result, error)
	GetConversion(ctx context.Context, id string) (conversion.Result, error)
	// ListConversions returns results most recent first. A non-positive limit
	// returns everything retained.
	ListConversions(ctx context.Context, limit int) ([]conversion.Result, error)
	ConversionCount(ctx context.Context) (int, error)
}

// SettlementStore persists settlement records, bounded with FIFO eviction by
// insertion order.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, rec settlement.Record) (settlement.Record, error)
	UpdateSettlement(ctx context.Context, rec settlement.Record) (settlement.Record, error)
	GetSettlement(ctx context.Context, id string) (settlement.Record, error)
	ListSettlements(ctx context.Context, merchantID string) ([]settlement.Record, error)
}

// MerchantStore persists merchant registrations.
type MerchantStore interface {
	CreateMerchant(ctx context.Context, m merchant.Merchant) (merchant.Merchant, error)
	GetMerchant(ctx context.Context, id string) (merchant.Merchant, error)
	ListMerchants(ctx context.Context) ([]merchant.Merchant, error)
}
