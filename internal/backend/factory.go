package backend

import (
	"context"
	"fmt"
	"log/slog"

	"breakeven/internal/amqp"
	"breakeven/internal/cache"
	"breakeven/internal/mailer"
	"breakeven/internal/report"
	"breakeven/internal/services"
	"breakeven/internal/sheets"
	gsheet "breakeven/internal/sheets/google"
	"breakeven/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	// AMQP is optional unless the queue mailer needs it
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			if config.Mailer == QueueMailer {
				_ = store.Close()
				return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
			}
			f.logger.Warn("Failed to initialize AMQP client, continuing without queue", "error", err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	renderer := config.Renderer
	if renderer == nil {
		renderer = report.NewRenderer(nil)
	}

	var m mailer.Mailer
	switch {
	case config.Mailer == QueueMailer && amqpClient != nil:
		m = mailer.NewQueueMailer(amqpClient)
	default:
		m = mailer.NewLogMailer(config.MailerDelay, f.logger)
	}

	var pdfCache *cache.LRUCache[[]byte]
	if config.ReportCacheSize > 0 && config.ReportCacheTTL > 0 {
		pdfCache = cache.NewLRUCache[[]byte](config.ReportCacheSize, config.ReportCacheTTL)
	}

	// A nil *amqp.Client must not become a non-nil interface
	var publisher services.SyncPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	svc := services.NewCalculationService(store, renderer, m, publisher, pdfCache)

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"mailer", config.Mailer,
		"amqp_enabled", amqpClient != nil,
		"report_cache", pdfCache != nil)

	return &BackendResult{
		Service:  svc,
		Store:    store,
		Renderer: renderer,
		AMQP:     amqpClient,
		PDFCache: pdfCache,
		Cleanup:  svc.Close,
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.CalculationStore, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CreateArchiver implements Factory.CreateArchiver
func (f *DefaultFactory) CreateArchiver(ctx context.Context, config Config) (sheets.RecordArchiver, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Info("Google Sheets archive disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil, nil
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		f.logger.Warn("Could not verify sheet header", "error", err)
	}

	f.logger.Info("Initialized Google Sheets archive", "spreadsheet_id", config.GoogleSpreadsheetID)
	return client, nil
}
