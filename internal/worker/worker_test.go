package worker

import (
	"context"
	"errors"
	"testing"

	"breakeven/internal/amqp"
	"breakeven/internal/core"
	"breakeven/internal/mailer"
	"breakeven/internal/report"
	"breakeven/internal/services"
	"breakeven/internal/sheets/memory"
	"breakeven/internal/storage"
)

type recordingMailer struct {
	address string
	result  core.CalculationResult
	err     error
	calls   int
}

func (m *recordingMailer) Send(_ context.Context, address string, result core.CalculationResult, _ report.Document) error {
	m.calls++
	m.address = address
	m.result = result
	return m.err
}

func envelope(t *testing.T, msgType string, payload any) *amqp.Envelope {
	t.Helper()
	env, err := amqp.NewEnvelope(msgType, payload)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	return env
}

func TestHandlers(t *testing.T) {
	h := New(nil, nil, nil).Handlers()
	for _, typ := range []string{amqp.TypeEmailReport, amqp.TypeCalculationSync} {
		if h[typ] == nil {
			t.Errorf("no handler for %s", typ)
		}
	}
}

func TestHandleEmailReport(t *testing.T) {
	m := &recordingMailer{}
	w := New(nil, m, nil)

	env := envelope(t, amqp.TypeEmailReport, amqp.EmailReportMessage{
		Email:    "owner@salon.com",
		WorkDays: 5,
		Expenses: core.NewExpenseMap().With(core.Rent, 800).With(core.Supplies, 200),
	})
	if err := w.HandleEmailReport(context.Background(), env); err != nil {
		t.Fatalf("HandleEmailReport: %v", err)
	}
	if m.calls != 1 || m.address != "owner@salon.com" {
		t.Fatalf("mailer calls=%d address=%q", m.calls, m.address)
	}
	if m.result.TotalMonthly != 1000 {
		t.Fatalf("worker must recalculate, total = %v", m.result.TotalMonthly)
	}
}

func TestHandleEmailReport_DropsInvalid(t *testing.T) {
	m := &recordingMailer{}
	w := New(nil, m, nil)

	cases := []amqp.EmailReportMessage{
		{Email: "nope", WorkDays: 5, Expenses: core.NewExpenseMap().With(core.Rent, 1)},
		{Email: "a@b.co", WorkDays: 0, Expenses: core.NewExpenseMap().With(core.Rent, 1)},
	}
	for _, msg := range cases {
		if err := w.HandleEmailReport(context.Background(), envelope(t, amqp.TypeEmailReport, msg)); err != nil {
			t.Fatalf("invalid input should be dropped, got %v", err)
		}
	}
	if m.calls != 0 {
		t.Fatalf("mailer called %d times for invalid input", m.calls)
	}
}

func TestHandleEmailReport_DeliveryErrorReturned(t *testing.T) {
	m := &recordingMailer{err: mailer.ErrDeliveryFailed}
	w := New(nil, m, nil)

	env := envelope(t, amqp.TypeEmailReport, amqp.EmailReportMessage{
		Email: "a@b.co", WorkDays: 3, Expenses: core.NewExpenseMap().With(core.Rent, 10),
	})
	if err := w.HandleEmailReport(context.Background(), env); !errors.Is(err, mailer.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestHandleCalculationSync(t *testing.T) {
	store := storage.NewMemoryStore()
	archive := memory.New()
	rec, err := store.CreateCalculation(context.Background(), core.CalculationRecord{WorkDays: 5, Rent: 100, TotalMonthly: 100})
	if err != nil {
		t.Fatal(err)
	}

	w := New(nil, nil, services.NewRecordSyncer(store, store, archive))
	env := envelope(t, amqp.TypeCalculationSync, amqp.CalculationSyncMessage{ID: rec.ID})
	if err := w.HandleCalculationSync(context.Background(), env); err != nil {
		t.Fatalf("HandleCalculationSync: %v", err)
	}
	if got := archive.Records(); len(got) != 1 || got[0].ID != rec.ID {
		t.Fatalf("archived = %+v", got)
	}
}

func TestHandleCalculationSync_NoSyncer(t *testing.T) {
	w := New(nil, nil, nil)
	env := envelope(t, amqp.TypeCalculationSync, amqp.CalculationSyncMessage{ID: 3})
	if err := w.HandleCalculationSync(context.Background(), env); err != nil {
		t.Fatalf("expected message to be dropped, got %v", err)
	}
}
