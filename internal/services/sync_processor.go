package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"breakeven/internal/sheets"
	"breakeven/internal/storage"
)

// RecordSyncer copies one stored calculation to the archive and records the
// outcome on the store.
type RecordSyncer struct {
	store    storage.CalculationStore
	tracker  storage.SyncTracker
	archiver sheets.RecordArchiver
}

func NewRecordSyncer(store storage.CalculationStore, tracker storage.SyncTracker, archiver sheets.RecordArchiver) *RecordSyncer {
	return &RecordSyncer{store: store, tracker: tracker, archiver: archiver}
}

// Sync archives record id. Unknown ids are skipped without error so that a
// message for a record in another store is not retried forever. With a
// tracker the record is claimed first; a record already claimed by the queue
// consumer or the poll loop is left to that caller.
func (s *RecordSyncer) Sync(ctx context.Context, id int64) error {
	if s.archiver == nil {
		slog.WarnContext(ctx, "No archiver configured, skipping sync", "id", id)
		return nil
	}

	if s.tracker != nil {
		claimed, err := s.tracker.ClaimSync(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Calculation not found, skipping sync", "id", id)
			return nil
		}
		if err != nil {
			return fmt.Errorf("claim calculation %d: %w", id, err)
		}
		if !claimed {
			slog.DebugContext(ctx, "Calculation already synced or in flight, skipping", "id", id)
			return nil
		}
	}

	rec, err := s.store.GetCalculation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Calculation not found, skipping sync", "id", id)
		return nil
	}
	if err != nil {
		s.markError(ctx, id)
		return fmt.Errorf("get calculation %d: %w", id, err)
	}

	ref, err := s.archiver.AppendRecord(ctx, rec)
	if err != nil {
		s.markError(ctx, id)
		return fmt.Errorf("append to sheets: %w", err)
	}

	if s.tracker != nil {
		if err := s.tracker.MarkSynced(ctx, id); err != nil {
			// The row was written; a retry would duplicate it.
			slog.WarnContext(ctx, "Failed to mark calculation as synced", "id", id, "error", err)
		}
	}

	slog.InfoContext(ctx, "Synced calculation to Google Sheets", "id", id, "sheets_ref", ref)
	return nil
}

func (s *RecordSyncer) markError(ctx context.Context, id int64) {
	if s.tracker == nil {
		return
	}
	if err := s.tracker.MarkSyncError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", err)
	}
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending records (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of records to process per poll cycle (default: 10)
	BatchSize int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
	}
}

// SyncProcessor polls the store for records that have not been archived yet.
// It covers records whose sync message was lost or never published.
type SyncProcessor struct {
	tracker storage.SyncTracker
	syncer  *RecordSyncer
	config  SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(tracker storage.SyncTracker, syncer *RecordSyncer, config SyncProcessorConfig) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSyncProcessorConfig().BatchSize
	}
	return &SyncProcessor{
		tracker: tracker,
		syncer:  syncer,
		config:  config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	// Process immediately on startup
	p.ProcessBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch archives up to BatchSize pending records and returns how many
// were synced.
func (p *SyncProcessor) ProcessBatch(ctx context.Context) int {
	ids, err := p.tracker.PendingSync(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load pending calculations", "error", err)
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	slog.DebugContext(ctx, "Processing sync batch", "count", len(ids))

	synced := 0
	for _, id := range ids {
		select {
		case <-p.stopCh:
			return synced
		case <-ctx.Done():
			return synced
		default:
		}

		if err := p.syncer.Sync(ctx, id); err != nil {
			slog.WarnContext(ctx, "Sync processing failed", "id", id, "error", err)
			continue
		}
		synced++
	}
	return synced
}
