// Package mailer delivers rendered reports by email. Delivery is best effort:
// callers report failure to the user but never retry on their behalf.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"breakeven/internal/amqp"
	"breakeven/internal/core"
	"breakeven/internal/report"
)

var ErrDeliveryFailed = errors.New("email delivery failed")

// Mailer sends a report document to an address.
type Mailer interface {
	Send(ctx context.Context, address string, result core.CalculationResult, doc report.Document) error
}

// LogMailer simulates delivery: it waits for Delay, then logs the message
// that would have been sent.
type LogMailer struct {
	Delay  time.Duration
	Logger *slog.Logger
}

func NewLogMailer(delay time.Duration, logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{Delay: delay, Logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, address string, result core.CalculationResult, doc report.Document) error {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
		case <-time.After(m.Delay):
		}
	}

	pdf, err := report.PDF(doc, report.DefaultPDFOptions())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	m.Logger.InfoContext(ctx, "Email sent",
		"to", address,
		"subject", report.Title,
		"attachment", report.Filename,
		"attachment_bytes", len(pdf),
		"body_bytes", len(report.Text(doc)))
	return nil
}

// QueueMailer hands delivery to the worker over AMQP. Only the inputs travel;
// the worker recalculates and renders.
type QueueMailer struct {
	publisher Publisher
}

// Publisher is the subset of the AMQP client used for email jobs.
type Publisher interface {
	PublishEmailReport(ctx context.Context, msg amqp.EmailReportMessage) error
}

func NewQueueMailer(p Publisher) *QueueMailer {
	return &QueueMailer{publisher: p}
}

func (m *QueueMailer) Send(ctx context.Context, address string, result core.CalculationResult, _ report.Document) error {
	err := m.publisher.PublishEmailReport(ctx, amqp.EmailReportMessage{
		Email:    address,
		WorkDays: result.WorkDays,
		Expenses: result.Expenses,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
