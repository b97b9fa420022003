package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"breakeven/internal/core"
)

// Message types routed through the work queue.
const (
	TypeEmailReport     = "email.report"
	TypeCalculationSync = "calculation.sync"
)

// Envelope wraps every message on the queue. Payload is decoded by the
// handler registered for Type.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// EmailReportMessage asks the worker to render and mail a report.
// Totals are recomputed by the worker from Expenses and WorkDays.
type EmailReportMessage struct {
	Email    string          `json:"email"`
	WorkDays int             `json:"workDays"`
	Expenses core.ExpenseMap `json:"expenses"`
}

// CalculationSyncMessage carries only the record id; the worker reads the
// record back from the database.
type CalculationSyncMessage struct {
	ID int64 `json:"id"`
}

// NewEnvelope marshals payload under a fresh message id.
func NewEnvelope(msgType string, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   body,
	}, nil
}

// ToJSON converts the envelope to JSON bytes
func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON decodes an envelope and checks it carries a type.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Type == "" {
		return nil, fmt.Errorf("message %q has no type", env.ID)
	}
	return &env, nil
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
