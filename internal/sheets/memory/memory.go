package memory

import (
	"context"
	"fmt"
	"sync"

	"breakeven/internal/core"
	ports "breakeven/internal/sheets"
)

// Archive keeps archived rows in memory, for local runs and tests.
type Archive struct {
	mu   sync.Mutex
	rows []core.CalculationRecord
}

var _ ports.RecordArchiver = (*Archive)(nil)

func New() *Archive {
	return &Archive{}
}

// AppendRecord stores the record and returns a synthetic row reference.
func (a *Archive) AppendRecord(_ context.Context, rec core.CalculationRecord) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, rec)
	return fmt.Sprintf("mem:%d", len(a.rows)), nil
}

// Records returns a copy of the archived rows in append order.
func (a *Archive) Records() []core.CalculationRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]core.CalculationRecord(nil), a.rows...)
}
