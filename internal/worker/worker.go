// Package worker handles queue messages published by the web server.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"breakeven/internal/amqp"
	"breakeven/internal/core"
	"breakeven/internal/mailer"
	"breakeven/internal/report"
	"breakeven/internal/services"
)

// Worker renders queued email reports and archives saved calculations.
type Worker struct {
	renderer *report.Renderer
	mailer   mailer.Mailer
	syncer   *services.RecordSyncer
}

// New creates a worker. syncer may be nil when archiving is disabled; sync
// messages are then acknowledged and dropped.
func New(renderer *report.Renderer, m mailer.Mailer, syncer *services.RecordSyncer) *Worker {
	if renderer == nil {
		renderer = report.NewRenderer(nil)
	}
	return &Worker{renderer: renderer, mailer: m, syncer: syncer}
}

// Handlers maps message types to their handler, for amqp.Client.Consume.
func (w *Worker) Handlers() map[string]amqp.Handler {
	return map[string]amqp.Handler{
		amqp.TypeEmailReport:     w.HandleEmailReport,
		amqp.TypeCalculationSync: w.HandleCalculationSync,
	}
}

// HandleEmailReport recalculates from the message inputs and mails the
// report. Invalid input is logged and dropped; delivery errors are returned
// so the message is redelivered once.
func (w *Worker) HandleEmailReport(ctx context.Context, env *amqp.Envelope) error {
	var msg amqp.EmailReportMessage
	if err := env.Decode(&msg); err != nil {
		slog.ErrorContext(ctx, "Dropping undecodable email message", "message_id", env.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Processing email message",
		"message_id", env.ID,
		"work_days", msg.WorkDays)

	if err := core.ValidateEmail(msg.Email); err != nil {
		slog.WarnContext(ctx, "Dropping email message with invalid address", "message_id", env.ID, "error", err)
		return nil
	}
	result, err := core.Calculate(msg.Expenses, msg.WorkDays)
	if err != nil {
		slog.WarnContext(ctx, "Dropping email message with invalid inputs", "message_id", env.ID, "error", err)
		return nil
	}

	if w.mailer == nil {
		return fmt.Errorf("%w: no mailer configured", mailer.ErrDeliveryFailed)
	}
	if err := w.mailer.Send(ctx, msg.Email, result, w.renderer.Render(result)); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

// HandleCalculationSync archives the record named in the message.
func (w *Worker) HandleCalculationSync(ctx context.Context, env *amqp.Envelope) error {
	var msg amqp.CalculationSyncMessage
	if err := env.Decode(&msg); err != nil {
		slog.ErrorContext(ctx, "Dropping undecodable sync message", "message_id", env.ID, "error", err)
		return nil
	}
	if msg.ID <= 0 {
		slog.WarnContext(ctx, "Dropping sync message without id", "message_id", env.ID)
		return nil
	}

	slog.InfoContext(ctx, "Processing sync message", "message_id", env.ID, "id", msg.ID)

	if w.syncer == nil {
		slog.InfoContext(ctx, "Archiving disabled, skipping sync", "id", msg.ID)
		return nil
	}
	if err := w.syncer.Sync(ctx, msg.ID); err != nil {
		return fmt.Errorf("sync calculation %d: %w", msg.ID, err)
	}
	return nil
}
