package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"breakeven/internal/core"

	_ "modernc.org/sqlite"
)

const (
	syncPending    = "pending"
	syncProcessing = "processing"
	syncDone       = "synced"
	syncError      = "error"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ CalculationStore = (*SQLiteRepository)(nil)
	_ SyncTracker      = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const insertCalculation = `
INSERT INTO calculations (
    work_days, rent, supplies, insurance, marketing, taxes, education, miscellaneous,
    total_monthly, daily_break_even, created_at, sync_status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateCalculation implements CalculationStore.
func (r *SQLiteRepository) CreateCalculation(ctx context.Context, rec core.CalculationRecord) (core.CalculationRecord, error) {
	rec.CreatedAt = r.now().UTC()

	res, err := r.db.ExecContext(ctx, insertCalculation,
		rec.WorkDays, rec.Rent, rec.Supplies, rec.Insurance, rec.Marketing,
		rec.Taxes, rec.Education, rec.Miscellaneous,
		rec.TotalMonthly, rec.DailyBreakEven,
		rec.CreatedAt.Format(time.RFC3339Nano), syncPending)
	if err != nil {
		return core.CalculationRecord{}, fmt.Errorf("insert calculation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CalculationRecord{}, fmt.Errorf("read inserted id: %w", err)
	}
	rec.ID = id

	slog.InfoContext(ctx, "Calculation saved to SQLite",
		"id", rec.ID,
		"work_days", rec.WorkDays,
		"total_monthly", rec.TotalMonthly)

	return rec, nil
}

const selectCalculation = `
SELECT id, work_days, rent, supplies, insurance, marketing, taxes, education, miscellaneous,
       total_monthly, daily_break_even, created_at
FROM calculations WHERE id = ?`

// GetCalculation implements CalculationStore.
func (r *SQLiteRepository) GetCalculation(ctx context.Context, id int64) (core.CalculationRecord, error) {
	var (
		rec       core.CalculationRecord
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, selectCalculation, id).Scan(
		&rec.ID, &rec.WorkDays, &rec.Rent, &rec.Supplies, &rec.Insurance, &rec.Marketing,
		&rec.Taxes, &rec.Education, &rec.Miscellaneous,
		&rec.TotalMonthly, &rec.DailyBreakEven, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CalculationRecord{}, fmt.Errorf("get calculation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.CalculationRecord{}, fmt.Errorf("get calculation %d: %w", id, err)
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.CalculationRecord{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return rec, nil
}

// PendingSync returns ids of records not yet archived, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM calculations WHERE sync_status = ? ORDER BY id LIMIT ?`, syncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync calculations: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClaimSync atomically moves a pending record to processing.
func (r *SQLiteRepository) ClaimSync(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE calculations SET sync_status = ? WHERE id = ? AND sync_status = ?`, syncProcessing, id, syncPending)
	if err != nil {
		return false, fmt.Errorf("claim calculation sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim calculation sync: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM calculations WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("claim calculation sync %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("claim calculation sync: %w", err)
	}
	return false, nil
}

// MarkSynced marks a record as archived.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, syncDone); err != nil {
		return fmt.Errorf("mark calculation synced: %w", err)
	}
	slog.InfoContext(ctx, "Calculation marked as synced", "id", id)
	return nil
}

// MarkSyncError parks a record that failed to archive so the periodic sweep skips it.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, syncError); err != nil {
		return fmt.Errorf("mark calculation sync error: %w", err)
	}
	slog.WarnContext(ctx, "Calculation marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status string) error {
	var syncedAt any
	if status == syncDone {
		syncedAt = r.now().UTC().Format(time.RFC3339Nano)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE calculations SET sync_status = ?, synced_at = ? WHERE id = ?`, status, syncedAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
