// Package oracle serves asset price quotes from a time-windowed cache backed
// by a pluggable fetcher, degrading to static fallback prices when the
// fetcher fails.
package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/asset"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// DefaultCacheTTL is the freshness window for cached quotes.
const DefaultCacheTTL = 30 * time.Second

const fallbackConfidence = 0.50

// Service answers price lookups. Fetch failures never reach the caller; the
// only signal of degradation is the quote's Source and Confidence fields.
type Service struct {
	fetcher Fetcher
	ttl     time.Duration
	log     *logger.Logger

	mu    sync.RWMutex
	cache map[asset.Code]asset.Quote
}

// New constructs a price oracle. A nil fetcher gets the simulated table
// fetcher; a non-positive ttl gets the default freshness window.
func New(fetcher Fetcher, ttl time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("oracle")
	}
	if fetcher == nil {
		fetcher = NewTableFetcher(nil, log)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		fetcher: fetcher,
		ttl:     ttl,
		log:     log,
		cache:   make(map[asset.Code]asset.Quote),
	}
}

// GetPrice returns a quote for the asset. Cached quotes inside the freshness
// window are returned tagged source=cache; otherwise a live fetch runs and
// replaces the cache entry. A failed fetch degrades to the static fallback
// price and is only logged.
func (s *Service) GetPrice(ctx context.Context, code asset.Code) (asset.Quote, error) {
	if !asset.Valid(code) {
		return asset.Quote{}, apierror.InvalidAsset(string(code))
	}

	s.mu.RLock()
	cached, ok := s.cache[code]
	s.mu.RUnlock()
	if ok && time.Since(cached.ObservedAt) < s.ttl {
		cached.Source = asset.SourceCache
		return cached, nil
	}

	quote, err := s.fetcher.Fetch(ctx, code)
	if err != nil {
		s.log.WithError(err).
			WithField("asset", code).
			Warn("price fetch failed, serving fallback quote")
		return s.fallback(code), nil
	}

	s.mu.Lock()
	s.cache[code] = quote
	s.mu.Unlock()
	return quote, nil
}

// Refresh forces a live fetch for every supported asset, replacing cache
// entries for the fetches that succeed. Used by the background refresher.
func (s *Service) Refresh(ctx context.Context) {
	for _, code := range asset.Supported() {
		quote, err := s.fetcher.Fetch(ctx, code)
		if err != nil {
			s.log.WithError(err).
				WithField("asset", code).
				Warn("cache refresh fetch failed")
			continue
		}
		s.mu.Lock()
		s.cache[code] = quote
		s.mu.Unlock()
	}
}

func (s *Service) fallback(code asset.Code) asset.Quote {
	price, _ := BasePrice(code)
	return asset.Quote{
		Asset:      code,
		Price:      price,
		Currency:   "INR",
		Source:     asset.SourceFallback,
		ObservedAt: time.Now().UTC(),
		Volatility: VolatilityOf(code),
		Confidence: fallbackConfidence,
	}
}
