package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"breakeven/internal/core"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}
	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&value=100"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_StripsControlCharacters(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("rent=%00%2012%07"))
	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatal(err)
	}
	if got := parser.Get("rent"); got != "12" {
		t.Fatalf("Get('rent') = %q, want '12'", got)
	}
}

func TestParseCalculationForm(t *testing.T) {
	money := core.NewFormatter(core.DefaultCurrencyFormat())

	tests := []struct {
		name      string
		body      string
		wantErr   error
		wantDays  int
		wantTotal float64
	}{
		{
			name:      "lenient amounts",
			body:      "workDays=5&rent=%241%2C200&supplies=150.50&insurance=abc",
			wantDays:  5,
			wantTotal: 1350.50,
		},
		{
			name:      "missing categories read as zero",
			body:      "workDays=3&taxes=100",
			wantDays:  3,
			wantTotal: 100,
		},
		{
			name:    "non-numeric work days",
			body:    "workDays=five&rent=100",
			wantErr: core.ErrInvalidWorkDays,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/ui/calculate", strings.NewReader(tt.body))
			got, err := ParseCalculationForm(NewRequestBodyParser(httptest.NewRecorder(), req), money)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCalculationForm: %v", err)
			}
			if got.WorkDays != tt.wantDays {
				t.Errorf("WorkDays = %d, want %d", got.WorkDays, tt.wantDays)
			}
			if got.Expenses.Sum() != tt.wantTotal {
				t.Errorf("total = %v, want %v", got.Expenses.Sum(), tt.wantTotal)
			}
			if cats := got.Expenses.Categories(); len(cats) != len(core.Categories) || cats[0] != core.Rent {
				t.Errorf("categories = %v, want form order", cats)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("keeps expense order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"workDays":4,"expenses":{"taxes":10,"rent":"$20"}}`))
		var got CalculationRequest
		if err := DecodeJSON(httptest.NewRecorder(), req, &got); err != nil {
			t.Fatalf("DecodeJSON: %v", err)
		}
		cats := got.Expenses.Categories()
		if len(cats) != 2 || cats[0] != core.Taxes || cats[1] != core.Rent {
			t.Fatalf("categories = %v", cats)
		}
		if got.Expenses.Amount(core.Rent) != 20 {
			t.Fatalf("rent = %v", got.Expenses.Amount(core.Rent))
		}
		if got.TotalMonthly != nil {
			t.Fatal("absent totals must stay nil")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"workDays":`))
		var got CalculationRequest
		if err := DecodeJSON(httptest.NewRecorder(), req, &got); !errors.Is(err, ErrBadRequest) {
			t.Fatalf("error = %v, want ErrBadRequest", err)
		}
	})

	t.Run("trailing data", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"workDays":1}{"workDays":2}`))
		var got CalculationRequest
		if err := DecodeJSON(httptest.NewRecorder(), req, &got); !errors.Is(err, ErrBadRequest) {
			t.Fatalf("error = %v, want ErrBadRequest", err)
		}
	})

	t.Run("invalid amount type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"workDays":1,"expenses":{"rent":true}}`))
		var got CalculationRequest
		if err := DecodeJSON(httptest.NewRecorder(), req, &got); !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("error = %v, want ErrInvalidAmount", err)
		}
	})
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/calculations/"+tt.raw, nil)
			req.SetPathValue("id", tt.raw)
			got, err := ParseID(req)
			if tt.wantErr {
				if !errors.Is(err, ErrBadRequest) {
					t.Fatalf("error = %v, want ErrBadRequest", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseID = %d, %v", got, err)
			}
		})
	}
}
