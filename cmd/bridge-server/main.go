package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tradebridge/internal/bridge"
	"tradebridge/internal/broker"
	"tradebridge/internal/config"
	"tradebridge/internal/domain"
	"tradebridge/internal/httpapi"
	"tradebridge/internal/store"
	"tradebridge/internal/util"
)

const paperBaseURL = "https://paper-api.alpaca.markets"

func main() {
	cfgPath := "config/tradebridge.yaml"
	if p := os.Getenv("TRADEBRIDGE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	bars, closeBars, err := newBarStore(cfg)
	if err != nil {
		log.Fatalf("failed to open bar store: %v", err)
	}
	if closeBars != nil {
		defer closeBars()
	}

	client, err := newBrokerClient(cfg)
	if err != nil {
		log.Fatalf("failed to create broker client: %v", err)
	}

	b := bridge.New(client, bridge.Options{
		Bars:        bars,
		CallTimeout: time.Duration(cfg.Bridge.CallTimeoutSec) * time.Second,
		Logger:      logger,
	})
	b.Connect()
	defer b.Disconnect()

	srv := httpapi.NewBridgeServer(b, bars, cfg.Bridge.EventBuffer, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("bridge-server listening", "addr", httpServer.Addr, "brokerage", client.Name())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.Bridge.RefreshIntervalSec > 0 {
		interval := time.Duration(cfg.Bridge.RefreshIntervalSec) * time.Second
		g.Go(func() error {
			runMirrorLoop(gctx, b, interval, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// runMirrorLoop periodically refreshes the account summary and positions
// while the market is open. Refresh failures are logged inside the bridge
// and retried on the next tick.
func runMirrorLoop(ctx context.Context, b *bridge.Bridge, interval time.Duration, logger *slog.Logger) {
	cal := util.NewTradingCalendar(domain.MarketUS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			if !cal.IsMarketOpen(now) {
				logger.Debug("market closed, skipping mirror refresh",
					"next_open", cal.NextOpen(now))
				continue
			}
			b.RefreshAccountSummary(ctx)
			b.RefreshPositions(ctx)
		}
	}
}

// newBarStore builds the configured bar persistence backend. The returned
// close func is nil for backends without one.
func newBarStore(cfg *config.Config) (store.BarStore, func() error, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	case "parquet":
		return store.NewParquetStore(cfg.Storage.DataDir), nil, nil
	case "":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newBrokerClient builds the configured broker client.
func newBrokerClient(cfg *config.Config) (broker.Client, error) {
	switch cfg.Bridge.Brokerage {
	case "alpaca":
		baseURL := cfg.Alpaca.BaseURL
		if baseURL == "" && cfg.Bridge.PaperMode {
			baseURL = paperBaseURL
		}
		return broker.NewAlpacaClient(broker.AlpacaOpts{
			APIKey:            cfg.Alpaca.APIKey,
			APISecret:         cfg.Alpaca.APISecret,
			BaseURL:           baseURL,
			DataURL:           cfg.Alpaca.DataURL,
			HistoryDays:       cfg.Bridge.HistoryDays,
			HistoryRatePerMin: cfg.Bridge.HistoryRatePerMin,
		}), nil
	case "simulator":
		return broker.NewSimulatorClient(100000.00, 100000.00), nil
	default:
		return nil, fmt.Errorf("unknown brokerage %q", cfg.Bridge.Brokerage)
	}
}
