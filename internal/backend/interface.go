package backend

import (
	"context"
	"time"

	"breakeven/internal/amqp"
	"breakeven/internal/cache"
	"breakeven/internal/report"
	"breakeven/internal/services"
	"breakeven/internal/sheets"
	"breakeven/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the wired service and the pieces callers may need
// directly. AMQP is nil when no broker is configured.
type BackendResult struct {
	Service  *services.CalculationService
	Store    storage.CalculationStore
	Renderer *report.Renderer
	AMQP     *amqp.Client
	PDFCache *cache.LRUCache[[]byte]
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the calculation service and its dependencies
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateArchiver returns nil when no spreadsheet is configured
	CreateArchiver(ctx context.Context, config Config) (sheets.RecordArchiver, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Email delivery
	Mailer      MailerType
	MailerDelay time.Duration

	// Report rendering
	Renderer        *report.Renderer
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	// Google Sheets archive
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// MailerType selects how email reports are delivered
type MailerType string

const (
	// LogMailer renders and logs the message in-process
	LogMailer MailerType = "log"
	// QueueMailer publishes the job for the worker
	QueueMailer MailerType = "queue"
)

func (mt MailerType) IsValid() bool {
	return mt == LogMailer || mt == QueueMailer
}
