package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/UTP-Network/payment_gateway/internal/app/services/conversion"
	"github.com/UTP-Network/payment_gateway/internal/app/services/merchants"
	"github.com/UTP-Network/payment_gateway/internal/app/services/oracle"
	settlementsvc "github.com/UTP-Network/payment_gateway/internal/app/services/settlement"
	"github.com/UTP-Network/payment_gateway/internal/app/storage"
	"github.com/UTP-Network/payment_gateway/internal/app/storage/memory"
	"github.com/UTP-Network/payment_gateway/internal/app/system"
	"github.com/UTP-Network/payment_gateway/internal/config"
	"github.com/UTP-Network/payment_gateway/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation bounded by the configured capacities.
type Stores struct {
	Conversions storage.ConversionStore
	Settlements storage.SettlementStore
	Merchants   storage.MerchantStore
}

// Application ties the gateway services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Oracle      *oracle.Service
	Conversions *conversion.Service
	Settlements *settlementsvc.Service
	Merchants   *merchants.Service
}

// New builds a fully initialised application with the provided stores.
func New(cfg *config.Config, stores Stores, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.NewWithCapacity(cfg.Stores.ConversionCapacity, cfg.Stores.SettlementCapacity)
	if stores.Conversions == nil {
		stores.Conversions = mem
	}
	if stores.Settlements == nil {
		stores.Settlements = mem
	}
	if stores.Merchants == nil {
		stores.Merchants = mem
	}

	manager := system.NewManager()

	var fetcher oracle.Fetcher
	if cfg.Oracle.FetchURL != "" {
		httpClient := &http.Client{Timeout: 10 * time.Second}
		httpFetcher, err := oracle.NewHTTPFetcher(httpClient, cfg.Oracle.FetchURL, cfg.Oracle.FetchKey, cfg.Oracle.PricePath, log)
		if err != nil {
			log.WithError(err).Warn("configure HTTP price fetcher, falling back to table fetcher")
		} else {
			fetcher = httpFetcher
		}
	}
	oracleService := oracle.New(fetcher, cfg.Oracle.CacheTTL.Std(), log)

	conversionService := conversion.New(oracleService, stores.Conversions, conversion.Config{
		FeeRate:         cfg.Engine.FeeRate,
		MaxSlippage:     cfg.Engine.MaxSlippage,
		SameAssetPolicy: conversion.SameAssetPolicy(cfg.Engine.SameAssetPolicy),
	}, nil, log)

	dispatcher := settlementsvc.NewDispatcher(settlementsvc.DispatcherConfig{
		MixedSplitINR: cfg.Engine.MixedSplitINR,
		NEFTAsync:     cfg.Engine.NEFTAsync,
	}, nil, log)
	settlementService := settlementsvc.New(stores.Merchants, stores.Settlements, dispatcher, log)

	merchantService := merchants.New(stores.Merchants, log)

	if cfg.Oracle.RefreshSchedule != "" {
		refresher, err := oracle.NewRefresher(oracleService, cfg.Oracle.RefreshSchedule, log)
		if err != nil {
			return nil, fmt.Errorf("configure oracle refresher: %w", err)
		}
		if err := manager.Register(refresher); err != nil {
			return nil, fmt.Errorf("register %s: %w", refresher.Name(), err)
		}
	}

	return &Application{
		manager:     manager,
		log:         log,
		Oracle:      oracleService,
		Conversions: conversionService,
		Settlements: settlementService,
		Merchants:   merchantService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
