// Package app assembles the engine, audit stores, price feed, and HTTP API
// from configuration and runs them as one unit.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"papertrade/internal/config"
	"papertrade/internal/engine"
	"papertrade/internal/logger"
	"papertrade/internal/market"
	"papertrade/internal/store"
	"papertrade/internal/store/equity"
	"papertrade/internal/store/ledger"
	httpapi "papertrade/internal/transport/http"
)

type App struct {
	cfg      *config.Config
	engine   *engine.Engine
	recorder *store.Recorder
	ledger   *ledger.Store
	equity   *equity.Store
	feed     market.Source
	server   *httpapi.Server
}

// New builds the application object without starting anything.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	eng := engine.New(engine.Config{
		InitialBalance:  cfg.Account.InitialBalance,
		Leverage:        cfg.Account.Leverage,
		CommissionRate:  cfg.Account.CommissionRate,
		MarginCallLevel: cfg.Account.MarginCallLevel,
		MaxLeverage:     cfg.Account.MaxLeverage,
	})

	a := &App{cfg: cfg, engine: eng}

	if cfg.Store.Dir != "" {
		ledgerStore, err := ledger.Open(cfg.Store.Dir + "/ledger.db")
		if err != nil {
			return nil, fmt.Errorf("opening ledger store failed: %w", err)
		}
		equityStore, err := equity.Open(cfg.Store.Dir)
		if err != nil {
			ledgerStore.Close()
			return nil, fmt.Errorf("opening equity store failed: %w", err)
		}
		a.ledger = ledgerStore
		a.equity = equityStore
		a.recorder = store.NewRecorder(ledgerStore, equityStore)
		eng.SetRecorder(a.recorder)
	}

	feed, err := buildFeed(cfg.Feed)
	if err != nil {
		return nil, err
	}
	a.feed = feed

	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:   cfg.App.HTTPAddr,
		Router: httpapi.NewRouter(eng, a.equity),
	})
	if err != nil {
		return nil, err
	}
	a.server = server
	return a, nil
}

func buildFeed(cfg config.FeedConfig) (market.Source, error) {
	interval := time.Duration(cfg.IntervalMs) * time.Millisecond
	switch cfg.Mode {
	case "synthetic":
		return market.NewSyntheticSource(cfg.NormalizedSymbols(), interval, cfg.Seed), nil
	case "binance":
		return market.NewBinanceSource(market.BinanceConfig{
			RESTBaseURL: cfg.Binance.RESTBaseURL,
			HTTPTimeout: time.Duration(cfg.Binance.TimeoutSeconds) * time.Second,
			Symbols:     cfg.NormalizedSymbols(),
			Interval:    interval,
		})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown feed mode %q", cfg.Mode)
	}
}

// Engine exposes the account aggregate (for tests and replay harnesses).
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Run serves HTTP and streams the feed until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if a.feed != nil {
		group.Go(func() error {
			err := a.feed.Run(ctx, a.engine.UpdateMarketPrice)
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("price feed error: %w", err)
			}
			return nil
		})
	}
	return group.Wait()
}

func (a *App) close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			logger.Warnf("app: ledger close failed: %v", err)
		}
	}
	if a.equity != nil {
		if err := a.equity.Close(); err != nil {
			logger.Warnf("app: equity store close failed: %v", err)
		}
	}
}
