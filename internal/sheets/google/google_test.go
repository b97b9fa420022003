package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"breakeven/internal/core"

	goption "google.golang.org/api/option"
)

type fakeSheetsAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
	header   bool
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, ":append"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-1",
			"updates":       map[string]any{"updatedRange": "Calculations!A2:L2", "updatedRows": 1},
		})
	case r.Method == http.MethodGet:
		values := [][]any{}
		if f.header {
			values = append(values, []any{"ID"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Calculations!A1:L1", "values": values})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": "Calculations!A1:L1"})
	}
}

func newTestClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestAppendRecord(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api)

	rec := core.MustCalculate(core.NewExpenseMap().With(core.Rent, 800).With(core.Supplies, 200), 5).Record()
	rec.ID = 7
	rec.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	ref, err := c.AppendRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("AppendRecord: %v", err)
	}
	if ref != "Calculations!A2:L2" {
		t.Fatalf("ref = %q", ref)
	}
	if len(api.requests) != 1 || !strings.Contains(api.requests[0], ":append") {
		t.Fatalf("requests = %v", api.requests)
	}
	for _, want := range []string{`"2026-01-02 03:04:05"`, `"1000.00"`, `800`} {
		if !strings.Contains(api.bodies[0], want) {
			t.Fatalf("append body missing %s: %s", want, api.bodies[0])
		}
	}
}

func TestEnsureHeader(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api)
	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if len(api.requests) != 2 || !strings.HasPrefix(api.requests[1], http.MethodPut) {
		t.Fatalf("expected read then write, got %v", api.requests)
	}

	api = &fakeSheetsAPI{header: true}
	c = newTestClient(t, api)
	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if len(api.requests) != 1 {
		t.Fatalf("header present, expected a single read, got %v", api.requests)
	}
}
