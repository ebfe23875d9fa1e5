// Package conversion implements the rate derivation, fee composition and
// slippage-adjusted pricing pipeline between supported assets.
package conversion

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/UTP-Network/payment_gateway/internal/app/apierror"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/asset"
	"github.com/UTP-Network/payment_gateway/internal/app/domain/conversion"
	"github.com/UTP-Network/payment_gateway/internal/app/metrics"
	"github.com/UTP-Network/payment_gateway/internal/app/storage"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// PriceSource supplies quotes to the calculator.
type PriceSource interface {
	GetPrice(ctx context.Context, code asset.Code) (asset.Quote, error)
}

// SameAssetPolicy controls how a conversion between identical assets is
// handled.
type SameAssetPolicy string

const (
	// SameAssetPassthrough returns the amount unchanged at rate 1 with zero
	// fees.
	SameAssetPassthrough SameAssetPolicy = "passthrough"
	// SameAssetReject fails the conversion with SAME_ASSET_CONVERSION.
	SameAssetReject SameAssetPolicy = "reject"
)

const (
	// DefaultFeeRate is the conversion fee applied to the source amount.
	DefaultFeeRate = 0.0005
	// DefaultMaxSlippage caps the protective rate haircut before volatility
	// scaling.
	DefaultMaxSlippage = 0.002
	// QuoteValidity is how long a returned rate may be honored.
	QuoteValidity = 5 * time.Second

	slippageDamping = 0.5
)

// Options tunes a single conversion call.
type Options struct {
	// FeeRate overrides the default conversion fee rate when non-nil.
	FeeRate *float64
	// DisableSlippageProtection skips the protective rate haircut.
	DisableSlippageProtection bool
}

// Config fixes the calculator-wide policy knobs.
type Config struct {
	FeeRate         float64
	MaxSlippage     float64
	SameAssetPolicy SameAssetPolicy
}

// Service computes conversions and appends them to the bounded history log.
type Service struct {
	prices PriceSource
	store  storage.ConversionStore
	log    *logger.Logger
	cfg    Config

	mu  sync.Mutex
	rnd *rand.Rand
}

// New constructs a conversion calculator. A nil rnd gets a time-seeded
// generator; zero config fields fall back to the defaults.
func New(prices PriceSource, store storage.ConversionStore, cfg Config, rnd *rand.Rand, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("conversion")
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.FeeRate <= 0 {
		cfg.FeeRate = DefaultFeeRate
	}
	if cfg.MaxSlippage <= 0 {
		cfg.MaxSlippage = DefaultMaxSlippage
	}
	if cfg.SameAssetPolicy == "" {
		cfg.SameAssetPolicy = SameAssetPassthrough
	}
	return &Service{
		prices: prices,
		store:  store,
		log:    log,
		cfg:    cfg,
		rnd:    rnd,
	}
}

var volatilityMultipliers = map[asset.Volatility]float64{
	asset.VolatilityMinimal: 0.5,
	asset.VolatilityLow:     0.5,
	asset.VolatilityMedium:  1.0,
	asset.VolatilityHigh:    1.5,
	asset.VolatilityUnknown: 1.0,
}

// Convert computes a conversion between two supported assets and records the
// result. Rates in the result must not be honored past ValidUntil.
func (s *Service) Convert(ctx context.Context, from, to asset.Code, amount float64, opts *Options) (conversion.Result, error) {
	start := time.Now()
	res, err := s.convert(ctx, from, to, amount, opts)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordConversion(status, time.Since(start))
	return res, err
}

func (s *Service) convert(ctx context.Context, from, to asset.Code, amount float64, opts *Options) (conversion.Result, error) {
	if !asset.Valid(from) {
		return conversion.Result{}, apierror.InvalidAsset(string(from))
	}
	if !asset.Valid(to) {
		return conversion.Result{}, apierror.InvalidAsset(string(to))
	}
	if amount <= 0 {
		return conversion.Result{}, apierror.InvalidAmount(amount)
	}
	if from == to {
		if s.cfg.SameAssetPolicy == SameAssetReject {
			return conversion.Result{}, apierror.SameAsset(string(from))
		}
		return s.record(ctx, s.passthrough(from, amount))
	}

	fromQuote, err := s.prices.GetPrice(ctx, from)
	if err != nil {
		return conversion.Result{}, apierror.ConversionFailed(err)
	}
	toQuote, err := s.prices.GetPrice(ctx, to)
	if err != nil {
		return conversion.Result{}, apierror.ConversionFailed(err)
	}

	baseRate := fromQuote.Price / toQuote.Price

	feeRate := s.cfg.FeeRate
	if opts != nil && opts.FeeRate != nil {
		feeRate = *opts.FeeRate
	}
	fee := amount * feeRate

	slippageFraction := 0.0
	if opts == nil || !opts.DisableSlippageProtection {
		slippageFraction = s.slippageFraction(fromQuote.Volatility)
	}
	adjustedRate := baseRate * (1 - slippageFraction)
	slippageAmount := amount * slippageFraction

	grossConverted := amount * adjustedRate
	netAmount := grossConverted - fee
	totalFee := fee + slippageAmount

	now := time.Now().UTC()
	res := conversion.Result{
		ID:           uuid.NewString(),
		FromAsset:    from,
		ToAsset:      to,
		FromAmount:   round2(amount),
		ToAmount:     round2(netAmount),
		Rate:         round5(adjustedRate),
		OriginalRate: round5(baseRate),
		Fees: conversion.FeeBreakdown{
			ConversionFee: round2(fee),
			Slippage:      round2(slippageAmount),
			TotalFee:      round2(totalFee),
		},
		Impact:     marketImpact(amount),
		ComputedAt: now,
		ValidUntil: now.Add(QuoteValidity),
	}
	return s.record(ctx, res)
}

func (s *Service) passthrough(code asset.Code, amount float64) conversion.Result {
	now := time.Now().UTC()
	return conversion.Result{
		ID:           uuid.NewString(),
		FromAsset:    code,
		ToAsset:      code,
		FromAmount:   round2(amount),
		ToAmount:     round2(amount),
		Rate:         1,
		OriginalRate: 1,
		Impact:       marketImpact(amount),
		ComputedAt:   now,
		ValidUntil:   now.Add(QuoteValidity),
	}
}

func (s *Service) record(ctx context.Context, res conversion.Result) (conversion.Result, error) {
	if s.store == nil {
		return res, nil
	}
	stored, err := s.store.AppendConversion(ctx, res)
	if err != nil {
		return conversion.Result{}, apierror.ConversionFailed(err)
	}
	s.log.WithField("conversion_id", stored.ID).
		WithField("pair", string(stored.FromAsset)+"/"+string(stored.ToAsset)).
		WithField("rate", stored.Rate).
		Debug("conversion recorded")
	return stored, nil
}

// slippageFraction draws a protective haircut in
// [0, maxSlippage * volatilityMultiplier * damping).
func (s *Service) slippageFraction(vol asset.Volatility) float64 {
	multiplier, ok := volatilityMultipliers[vol]
	if !ok {
		multiplier = volatilityMultipliers[asset.VolatilityUnknown]
	}
	s.mu.Lock()
	u := s.rnd.Float64()
	s.mu.Unlock()
	return u * s.cfg.MaxSlippage * multiplier * slippageDamping
}

func marketImpact(amount float64) conversion.MarketImpact {
	pct := 0.0001 + math.Log10(amount+1)*0.00005
	level := conversion.ImpactHigh
	switch {
	case pct < 0.0005:
		level = conversion.ImpactMinimal
	case pct < 0.001:
		level = conversion.ImpactLow
	case pct < 0.002:
		level = conversion.ImpactMedium
	}
	return conversion.MarketImpact{
		Percentage: pct,
		Absolute:   round2(amount * pct),
		Level:      level,
	}
}

// History returns recent conversions, most recent first.
func (s *Service) History(ctx context.Context, limit int) ([]conversion.Result, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListConversions(ctx, limit)
}

// Get retrieves a single recorded conversion.
func (s *Service) Get(ctx context.Context, id string) (conversion.Result, error) {
	if s.store == nil {
		return conversion.Result{}, apierror.ConversionNotFound(id)
	}
	return s.store.GetConversion(ctx, id)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
