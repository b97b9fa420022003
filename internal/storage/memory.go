package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"breakeven/internal/core"
)

// MemoryStore keeps records in process memory. Ids start at 1.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[int64]core.CalculationRecord
	status map[int64]string
	nextID int64
	now    func() time.Time
}

var (
	_ CalculationStore = (*MemoryStore)(nil)
	_ SyncTracker      = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[int64]core.CalculationRecord),
		status: make(map[int64]string),
		nextID: 1,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *MemoryStore) CreateCalculation(_ context.Context, rec core.CalculationRecord) (core.CalculationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	rec.CreatedAt = s.now().UTC()
	s.items[rec.ID] = rec
	s.status[rec.ID] = syncPending
	s.nextID++
	return rec, nil
}

func (s *MemoryStore) GetCalculation(_ context.Context, id int64) (core.CalculationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[id]
	if !ok {
		return core.CalculationRecord{}, fmt.Errorf("get calculation %d: %w", id, ErrNotFound)
	}
	return rec, nil
}

func (s *MemoryStore) PendingSync(_ context.Context, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for id := int64(1); id < s.nextID && len(ids) < limit; id++ {
		if s.status[id] == syncPending {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) ClaimSync(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, fmt.Errorf("claim sync %d: %w", id, ErrNotFound)
	}
	if s.status[id] != syncPending {
		return false, nil
	}
	s.status[id] = syncProcessing
	return true, nil
}

func (s *MemoryStore) MarkSynced(_ context.Context, id int64) error {
	return s.setStatus(id, syncDone)
}

func (s *MemoryStore) MarkSyncError(_ context.Context, id int64) error {
	return s.setStatus(id, syncError)
}

func (s *MemoryStore) setStatus(id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("set sync status %d: %w", id, ErrNotFound)
	}
	s.status[id] = status
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *MemoryStore) Close() error { return nil }
