package memory

import (
	"context"
	"testing"

	"breakeven/internal/core"
)

func TestArchiveAppend(t *testing.T) {
	a := New()
	ref, err := a.AppendRecord(context.Background(), core.CalculationRecord{ID: 1, WorkDays: 5})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, _ = a.AppendRecord(context.Background(), core.CalculationRecord{ID: 2, WorkDays: 3})
	if ref != "mem:2" {
		t.Fatalf("ref = %q", ref)
	}

	recs := a.Records()
	if len(recs) != 2 || recs[0].ID != 1 || recs[1].ID != 2 {
		t.Fatalf("records = %+v", recs)
	}
	recs[0].ID = 99
	if a.Records()[0].ID != 1 {
		t.Fatal("Records must return a copy")
	}
}
