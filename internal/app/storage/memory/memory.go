package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/conversion"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/merchant"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/settlement"
	"github.com/UTP-Network/payment_gateway/internal/app/storage"
)

// DefaultCapacity bounds the conversion log and settlement map when no
// explicit capacity is configured.
const DefaultCapacity = 10000

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use; both bounded collections evict their oldest entry by
// insertion order once the capacity is exceeded.
type Store struct {
	mu sync.RWMutex

	conversionCap   int
	conversions     map[string]conversion.Result
	conversionOrder []string

	settlementCap   int
	settlements     map[string]settlement.Record
	settlementOrder []string

	merchants     map[string]merchant.Merchant
	merchantOrder []string
}

var _ storage.ConversionStore = (*Store)(nil)
var _ storage.SettlementStore = (*Store)(nil)
var _ storage.MerchantStore = (*Store)(nil)

// New creates an empty store with default capacities.
func New() *Store {
	return NewWithCapacity(DefaultCapacity, DefaultCapacity)
}

// NewWithCapacity creates an empty store with explicit bounds. Non-positive
// capacities fall back to the default.
func NewWithCapacity(conversionCap, settlementCap int) *Store {
	if conversionCap <= 0 {
		conversionCap = DefaultCapacity
	}
	if settlementCap <= 0 {
		settlementCap = DefaultCapacity
	}
	return &Store{
		conversionCap: conversionCap,
		conversions:   make(map[string]conversion.Result),
		settlementCap: settlementCap,
		settlements:   make(map[string]settlement.Record),
		merchants:     make(map[string]merchant.Merchant),
	}
}

// ConversionStore implementation ----------------------------------------------

func (s *Store) AppendConversion(_ context.Context, res conversion.Result) (conversion.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.ID == "" {
		res.ID = uuid.NewString()
	} else if _, exists := s.conversions[res.ID]; exists {
		return conversion.Result{}, apierror.Newf(apierror.CodeValidation, 400, "conversion %s already recorded", res.ID)
	}

	s.conversions[res.ID] = res
	s.conversionOrder = append(s.conversionOrder, res.ID)
	for len(s.conversionOrder) > s.conversionCap {
		oldest := s.conversionOrder[0]
		s.conversionOrder = s.conversionOrder[1:]
		delete(s.conversions, oldest)
	}
	return res, nil
}

func (s *Store) GetConversion(_ context.Context, id string) (conversion.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.conversions[id]
	if !ok {
		return conversion.Result{}, apierror.ConversionNotFound(id)
	}
	return res, nil
}

func (s *Store) ListConversions(_ context.Context, limit int) ([]conversion.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.conversionOrder) {
		limit = len(s.conversionOrder)
	}
	result := make([]conversion.Result, 0, limit)
	for i := len(s.conversionOrder) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.conversions[s.conversionOrder[i]])
	}
	return result, nil
}

func (s *Store) ConversionCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversionOrder), nil
}

// SettlementStore implementation ----------------------------------------------

func (s *Store) CreateSettlement(_ context.Context, rec settlement.Record) (settlement.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, exists := s.settlements[rec.ID]; exists {
		return settlement.Record{}, apierror.Newf(apierror.CodeValidation, 400, "settlement %s already exists", rec.ID)
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Details = cloneDetails(rec.Details)

	s.settlements[rec.ID] = rec
	s.settlementOrder = append(s.settlementOrder, rec.ID)
	for len(s.settlementOrder) > s.settlementCap {
		oldest := s.settlementOrder[0]
		s.settlementOrder = s.settlementOrder[1:]
		delete(s.settlements, oldest)
	}
	return cloneRecord(rec), nil
}

func (s *Store) UpdateSettlement(_ context.Context, rec settlement.Record) (settlement.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.settlements[rec.ID]
	if !ok {
		return settlement.Record{}, apierror.SettlementNotFound(rec.ID)
	}

	rec.CreatedAt = original.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	rec.Details = cloneDetails(rec.Details)

	s.settlements[rec.ID] = rec
	return cloneRecord(rec), nil
}

func (s *Store) GetSettlement(_ context.Context, id string) (settlement.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.settlements[id]
	if !ok {
		return settlement.Record{}, apierror.SettlementNotFound(id)
	}
	return cloneRecord(rec), nil
}

func (s *Store) ListSettlements(_ context.Context, merchantID string) ([]settlement.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]settlement.Record, 0)
	for _, id := range s.settlementOrder {
		rec := s.settlements[id]
		if merchantID == "" || rec.MerchantID == merchantID {
			result = append(result, cloneRecord(rec))
		}
	}
	return result, nil
}

// MerchantStore implementation ------------------------------------------------

func (s *Store) CreateMerchant(_ context.Context, m merchant.Merchant) (merchant.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	} else if _, exists := s.merchants[m.ID]; exists {
		return merchant.Merchant{}, apierror.Newf(apierror.CodeValidation, 400, "merchant %s already exists", m.ID)
	}

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	s.merchants[m.ID] = m
	s.merchantOrder = append(s.merchantOrder, m.ID)
	return m, nil
}

func (s *Store) GetMerchant(_ context.Context, id string) (merchant.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.merchants[id]
	if !ok {
		return merchant.Merchant{}, apierror.MerchantNotFound(id)
	}
	return m, nil
}

func (s *Store) ListMerchants(_ context.Context) ([]merchant.Merchant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]merchant.Merchant, 0, len(s.merchantOrder))
	for _, id := range s.merchantOrder {
		result = append(result, s.merchants[id])
	}
	return result, nil
}

func cloneRecord(rec settlement.Record) settlement.Record {
	rec.Details = cloneDetails(rec.Details)
	return rec
}

func cloneDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}
