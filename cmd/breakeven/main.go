package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"breakeven/internal/backend"
	"breakeven/internal/cache"
	"breakeven/internal/cli"
	apphttp "breakeven/internal/http"
	"breakeven/internal/services"
	"breakeven/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger.Logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger)
	res, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger.Logger)
	if res.PDFCache != nil {
		cacheManager.Register("pdf_reports", res.PDFCache)
		cacheManager.StartCleanup(time.Minute)
	}

	// Without a broker nobody else archives saved records, so poll in-process.
	var syncProcessor *services.SyncProcessor
	if res.AMQP == nil && cfg.SheetsEnabled() {
		tracker, ok := res.Store.(storage.SyncTracker)
		if !ok {
			logger.Warn("Store does not track sync status, Google Sheets archive disabled", "backend", cfg.DataBackend)
		} else {
			archiver, err := factory.CreateArchiver(context.Background(), backendConfig)
			if err != nil {
				logger.Error("Failed to initialize Google Sheets archive", "error", err)
				os.Exit(1)
			}
			syncProcessor = services.NewSyncProcessor(tracker, services.NewRecordSyncer(res.Store, tracker, archiver), services.SyncProcessorConfig{
				PollInterval: cfg.SyncInterval,
				BatchSize:    cfg.SyncBatchSize,
			})
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, res.Service, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})

	ctx, done := cli.GracefulShutdown(context.Background(), logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if syncProcessor != nil {
			if err := syncProcessor.Stop(ctx); err != nil {
				logger.Error("Sync processor shutdown error", "error", err)
			}
		}
		cacheManager.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting breakeven server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if syncProcessor != nil {
		g.Go(func() error {
			if err := syncProcessor.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
