package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"breakeven/internal/cache"
	"breakeven/internal/core"
	"breakeven/internal/mailer"
	"breakeven/internal/report"
	"breakeven/internal/storage"
)

// centTolerance is how far a client-supplied total may drift before it is logged.
const centTolerance = 0.01

// SyncPublisher announces stored records for downstream archiving.
type SyncPublisher interface {
	PublishCalculationSync(ctx context.Context, id int64) error
}

// ClientTotals are the totals a client computed on its side. Nil fields were
// not supplied.
type ClientTotals struct {
	TotalMonthly   *float64
	DailyBreakEven *float64
}

// CalculationService orchestrates calculation, rendering, delivery and
// persistence. Totals are always recomputed here; client values are only
// compared and logged.
type CalculationService struct {
	store     storage.CalculationStore
	renderer  *report.Renderer
	mailer    mailer.Mailer
	publisher SyncPublisher
	pdfCache  *cache.LRUCache[[]byte]
	pdfOpts   report.PDFOptions
}

// NewCalculationService wires the service. publisher and pdfCache may be nil.
func NewCalculationService(
	store storage.CalculationStore,
	renderer *report.Renderer,
	m mailer.Mailer,
	publisher SyncPublisher,
	pdfCache *cache.LRUCache[[]byte],
) *CalculationService {
	if renderer == nil {
		renderer = report.NewRenderer(nil)
	}
	return &CalculationService{
		store:     store,
		renderer:  renderer,
		mailer:    m,
		publisher: publisher,
		pdfCache:  pdfCache,
		pdfOpts:   report.DefaultPDFOptions(),
	}
}

// Renderer returns the report renderer in use.
func (s *CalculationService) Renderer() *report.Renderer {
	return s.renderer
}

// Calculate validates inputs and computes the result. Insufficient input
// returns core.ErrInsufficientExpenses.
func (s *CalculationService) Calculate(ctx context.Context, expenses core.ExpenseMap, workDays int) (core.CalculationResult, error) {
	result, err := core.Calculate(expenses, workDays)
	if err != nil {
		return core.CalculationResult{}, err
	}
	if err := core.RequireSufficient(expenses); err != nil {
		return core.CalculationResult{}, err
	}
	slog.DebugContext(ctx, "Calculated break-even",
		"work_days", workDays,
		"categories", expenses.Len(),
		"total_monthly", result.TotalMonthly,
		"daily_break_even", result.DailyBreakEven)
	return result, nil
}

// Reconcile recomputes the result and logs when the client totals disagree.
// The server result is authoritative.
func (s *CalculationService) Reconcile(ctx context.Context, expenses core.ExpenseMap, workDays int, claimed ClientTotals) (core.CalculationResult, error) {
	result, err := core.Calculate(expenses, workDays)
	if err != nil {
		return core.CalculationResult{}, err
	}
	s.logMismatch(ctx, result, claimed)
	return result, nil
}

func (s *CalculationService) logMismatch(ctx context.Context, result core.CalculationResult, claimed ClientTotals) {
	if claimed.TotalMonthly != nil && math.Abs(*claimed.TotalMonthly-result.TotalMonthly) > centTolerance {
		slog.WarnContext(ctx, "Client total differs from server total",
			"client_total", *claimed.TotalMonthly,
			"server_total", result.TotalMonthly)
	}
	if claimed.DailyBreakEven != nil && math.Abs(*claimed.DailyBreakEven-result.DailyBreakEven) > centTolerance {
		slog.WarnContext(ctx, "Client daily break-even differs from server value",
			"client_daily", *claimed.DailyBreakEven,
			"server_daily", result.DailyBreakEven)
	}
}

// RenderPDF returns the PDF for result, served from cache when the same
// inputs were rendered recently.
func (s *CalculationService) RenderPDF(ctx context.Context, result core.CalculationResult) ([]byte, error) {
	key, err := fingerprint(result)
	if err != nil {
		return nil, err
	}
	if s.pdfCache != nil {
		if pdf, ok := s.pdfCache.Get(key); ok {
			slog.DebugContext(ctx, "PDF cache hit", "key", key[:12])
			return pdf, nil
		}
	}

	pdf, err := report.PDF(s.renderer.Render(result), s.pdfOpts)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	if s.pdfCache != nil {
		s.pdfCache.Set(key, pdf)
	}
	return pdf, nil
}

// EmailReport validates the address and hands the rendered report to the mailer.
func (s *CalculationService) EmailReport(ctx context.Context, address string, result core.CalculationResult) error {
	if err := core.ValidateEmail(address); err != nil {
		return err
	}
	if s.mailer == nil {
		return fmt.Errorf("%w: no mailer configured", mailer.ErrDeliveryFailed)
	}
	if err := s.mailer.Send(ctx, address, result, s.renderer.Render(result)); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	slog.InfoContext(ctx, "Report emailed", "work_days", result.WorkDays)
	return nil
}

// Save stores a record with totals recomputed from its categories, then
// announces it for archiving. A publish failure is logged, not returned.
func (s *CalculationService) Save(ctx context.Context, rec core.CalculationRecord) (core.CalculationRecord, error) {
	claimed := ClientTotals{TotalMonthly: &rec.TotalMonthly, DailyBreakEven: &rec.DailyBreakEven}
	result, err := s.Reconcile(ctx, rec.Expenses(), rec.WorkDays, claimed)
	if err != nil {
		return core.CalculationRecord{}, err
	}
	rec.TotalMonthly = result.TotalMonthly
	rec.DailyBreakEven = result.DailyBreakEven

	stored, err := s.store.CreateCalculation(ctx, rec)
	if err != nil {
		return core.CalculationRecord{}, fmt.Errorf("save calculation: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishCalculationSync(ctx, stored.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message", "id", stored.ID, "error", err)
		}
	}
	return stored, nil
}

// Get returns a stored record; storage.ErrNotFound when absent.
func (s *CalculationService) Get(ctx context.Context, id int64) (core.CalculationRecord, error) {
	return s.store.GetCalculation(ctx, id)
}

// Ping checks the store when it supports it.
func (s *CalculationService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// CacheStats reports PDF cache usage; zero when caching is off.
func (s *CalculationService) CacheStats() cache.Stats {
	if s.pdfCache == nil {
		return cache.Stats{}
	}
	return s.pdfCache.Stats()
}

// Close closes the store and, when it supports it, the publisher.
func (s *CalculationService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close calculation service: %w", errors.Join(errs...))
	}
	return nil
}

func fingerprint(result core.CalculationResult) (string, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("fingerprint result: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
