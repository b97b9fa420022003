package ctl

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"breakeven/internal/config"
	"breakeven/internal/core"
)

// run executes the command tree with a private draft directory.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.ConfigFileEnv, "")
	t.Setenv("CURRENCY_LOCALE", "en-US")
	t.Setenv("CURRENCY_CODE", "USD")
	t.Setenv("CURRENCY_SYMBOL", "$")
	t.Setenv("CURRENCY_FRACTION_DIGITS", "2")

	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(append([]string{"--draft-dir", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCalc(t *testing.T) {
	out, err := run(t, t.TempDir(), "calc", "rent=800", "supplies=$200")
	if err != nil {
		t.Fatalf("calc: %v", err)
	}

	for _, want := range []string{
		"Break-Even Calculator Results",
		"Total Monthly Expenses: $1,000.00",
		"Minimum Daily Earnings: $46.19",
		"Rent/Booth Fee: $800.00 (80.0%)",
		"Supplies/Backbar: $200.00 (20.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Rent/Booth Fee") > strings.Index(out, "Supplies/Backbar") {
		t.Error("breakdown should follow argument order")
	}
}

func TestCalc_Days(t *testing.T) {
	out, err := run(t, t.TempDir(), "calc", "-d", "4", "rent=433")
	if err != nil {
		t.Fatalf("calc: %v", err)
	}
	if !strings.Contains(out, "Minimum Daily Earnings: $25.00") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCalc_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "all zero",
			args:    []string{"calc", "rent=0"},
			wantErr: core.ErrInsufficientExpenses,
			wantMsg: core.InsufficientMessage,
		},
		{
			name:    "days out of range",
			args:    []string{"calc", "--days", "8", "rent=100"},
			wantErr: core.ErrInvalidWorkDays,
		},
		{
			name:    "typo gets a suggestion",
			args:    []string{"calc", "rnet=100"},
			wantMsg: `did you mean "rent"?`,
		},
		{
			name:    "unrelated name lists categories",
			args:    []string{"calc", "electricity=100"},
			wantMsg: "known categories: rent, supplies",
		},
		{
			name:    "missing equals",
			args:    []string{"calc", "rent"},
			wantMsg: "expected category=amount",
		},
		{
			name:    "no draft to fall back on",
			args:    []string{"calc"},
			wantMsg: "no saved draft",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, t.TempDir(), tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestSuggestCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   core.Category
		wantOK bool
	}{
		{"rnet", core.Rent, true},
		{"Suplies", core.Supplies, true},
		{"insurence", core.Insurance, true},
		{"tax", core.Taxes, true},
		{"electricity", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := SuggestCategory(tt.in)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Fatalf("SuggestCategory(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDraftLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "draft", "show")
	if err != nil || !strings.Contains(out, "No saved draft.") {
		t.Fatalf("show before save = %q, %v", out, err)
	}

	if _, err := run(t, dir, "draft", "set", "rent=800", "supplies=150"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := run(t, dir, "draft", "set", "supplies=200"); err != nil {
		t.Fatalf("second set: %v", err)
	}
	if _, err := run(t, dir, "draft", "days", "5"); err != nil {
		t.Fatalf("days: %v", err)
	}
	if _, err := run(t, dir, "draft", "days", "0"); !errors.Is(err, core.ErrInvalidWorkDays) {
		t.Fatalf("days 0 error = %v", err)
	}

	out, err = run(t, dir, "draft", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"Work Days per Week: 5", "Rent/Booth Fee: $800.00", "Supplies/Backbar: $200.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("show missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, dir, "calc")
	if err != nil {
		t.Fatalf("calc from draft: %v", err)
	}
	if !strings.Contains(out, "Minimum Daily Earnings: $46.19") {
		t.Fatalf("calc from draft:\n%s", out)
	}

	if _, err := run(t, dir, "draft", "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "beauticianCalculator.toml")); !os.IsNotExist(err) {
		t.Fatalf("draft file still present: %v", err)
	}
}

func TestReport_PDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")

	out, err := run(t, dir, "report", "-o", path, "rent=1200", "taxes=300")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "Report written to "+path) {
		t.Errorf("output = %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("report does not start with a PDF header: %q", data[:min(len(data), 8)])
	}
}

func TestReport_Text(t *testing.T) {
	out, err := run(t, t.TempDir(), "report", "--format", "text", "rent=1000")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"Summary\n-------", "Expense Breakdown", "Methodology", "Rent/Booth Fee: $1,000.00 (100.0%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestReport_UnknownFormat(t *testing.T) {
	_, err := run(t, t.TempDir(), "report", "--format", "docx", "rent=10")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("error = %v", err)
	}
}
