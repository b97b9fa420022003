package main

import (
	"context"
	"errors"
	"os"
	"time"

	"breakeven/internal/backend"
	"breakeven/internal/cli"
	applog "breakeven/internal/log"
	"breakeven/internal/mailer"
	"breakeven/internal/services"
	"breakeven/internal/storage"
	"breakeven/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger.Logger)
	logger = cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentWorker)

	logger.Info("Starting breakeven-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	// The worker delivers mail itself; re-queueing would loop.
	backendConfig.Mailer = backend.LogMailer

	factory := backend.NewFactory(logger.Logger)
	res, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	if res.AMQP == nil {
		logger.Error("AMQP broker unavailable", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		os.Exit(1)
	}

	var (
		syncer        *services.RecordSyncer
		syncProcessor *services.SyncProcessor
	)
	if tracker, ok := res.Store.(storage.SyncTracker); ok && cfg.SheetsEnabled() {
		archiver, err := factory.CreateArchiver(context.Background(), backendConfig)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets archive", "error", err)
			os.Exit(1)
		}
		syncer = services.NewRecordSyncer(res.Store, tracker, archiver)
		syncProcessor = services.NewSyncProcessor(tracker, syncer, services.SyncProcessorConfig{
			PollInterval: cfg.SyncInterval,
			BatchSize:    cfg.SyncBatchSize,
		})
	} else {
		logger.Info("Google Sheets archive disabled, sync messages will be dropped")
	}

	w := worker.New(res.Renderer, mailer.NewLogMailer(cfg.MailerDelay, logger.Logger), syncer)

	parent, stop := context.WithCancel(context.Background())
	defer stop()

	ctx, done := cli.GracefulShutdown(parent, logger.Logger, 30*time.Second, func(ctx context.Context) {
		if syncProcessor != nil {
			if err := syncProcessor.Stop(ctx); err != nil {
				logger.Error("Sync processor shutdown error", "error", err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	// The processor also picks up records whose sync message was lost
	// while the worker was down.
	if syncProcessor != nil {
		if err := syncProcessor.Start(ctx); err != nil {
			logger.Error("Failed to start sync processor", "error", err)
		}
	}

	if err := res.AMQP.ConsumeWithRetry(ctx, w.Handlers()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		stop()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
