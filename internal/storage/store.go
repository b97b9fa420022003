package storage

import (
	"context"
	"errors"

	"breakeven/internal/core"
)

var ErrNotFound = errors.New("calculation not found")

// CalculationStore persists calculation records. Records are append-only:
// there is no update or delete.
type CalculationStore interface {
	// CreateCalculation assigns an id and createdAt and returns the stored record.
	CreateCalculation(ctx context.Context, rec core.CalculationRecord) (core.CalculationRecord, error)
	// GetCalculation returns ErrNotFound for unknown ids.
	GetCalculation(ctx context.Context, id int64) (core.CalculationRecord, error)
	Close() error
}

// SyncTracker is implemented by stores that remember which records have been
// archived downstream.
type SyncTracker interface {
	PendingSync(ctx context.Context, limit int) ([]int64, error)
	// ClaimSync moves a pending record to processing. It reports false when
	// the record is not pending, so only one caller archives it.
	ClaimSync(ctx context.Context, id int64) (bool, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}
