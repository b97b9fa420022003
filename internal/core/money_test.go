package core

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestFormatter_Format(t *testing.T) {
	f := NewFormatter(DefaultCurrencyFormat())
	cases := []struct {
		in   float64
		want string
	}{
		{1234.5, "$1,234.50"},
		{0, "$0.00"},
		{46.18937644341801, "$46.19"},
		{0.005, "$0.01"},
		{1000000, "$1,000,000.00"},
		{999.999, "$1,000.00"},
		{-5, "-$5.00"},
	}
	for _, tc := range cases {
		if got := f.Format(tc.in); got != tc.want {
			t.Fatalf("Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatter_FormatNonFinite(t *testing.T) {
	f := NewFormatter(DefaultCurrencyFormat())
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := f.Format(v); got == "" {
			t.Fatalf("Format(%v) returned empty string", v)
		}
	}
}

func TestFormatter_Fixed(t *testing.T) {
	f := NewFormatter(DefaultCurrencyFormat())
	if got := f.Fixed(1000); got != "$1000.00" {
		t.Fatalf("Fixed(1000) = %q", got)
	}
	if got := f.Fixed(46.18937644341801); got != "$46.19" {
		t.Fatalf("Fixed(46.189...) = %q", got)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"$1,234.56", 1234.56},
		{"abc", 0},
		{"", 0},
		{".", 0},
		{"  800 ", 800},
		{".5", 0.5},
		{"12.", 12},
		{"1.2.3", 1.2},
		{"-50", 50},
		{"$0.00", 0},
		{"USD 2,500", 2500},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.want {
			t.Fatalf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseAmount_NeverNonFinite(t *testing.T) {
	huge := "1"
	for i := 0; i < 400; i++ {
		huge += "0"
	}
	for _, in := range []string{huge, "∞", "NaN", "1e400"} {
		got := ParseAmount(in)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("ParseAmount(%q) = %v, want finite", in, got)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	f := NewFormatter(DefaultCurrencyFormat())
	for _, v := range []float64{0, 0.01, 1, 12.345, 1234.5, 99999.99, 1234567.891} {
		got := f.Parse(f.Format(v))
		if math.Abs(got-v) > 0.005+1e-9 {
			t.Fatalf("Parse(Format(%v)) = %v, off by more than half a cent", v, got)
		}
	}
}

func TestFormatParseRoundTrip_Random(t *testing.T) {
	f := NewFormatter(DefaultCurrencyFormat())
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		v := rng.Float64() * math.Pow10(rng.Intn(10))
		shown := f.Format(v)
		if got := f.Parse(shown); math.Abs(got-v) > 0.005+1e-6 {
			t.Fatalf("Parse(%q) = %v, want %v within half a cent", shown, got, v)
		}
	}
}

func TestNewCurrencyFormat(t *testing.T) {
	cf, err := NewCurrencyFormat("en-US", "USD", "$", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := NewFormatter(cf).Format(1234.5); got != "$1,234.50" {
		t.Fatalf("Format = %q", got)
	}

	cf, err = NewCurrencyFormat("en-GB", "EUR", "", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cf.Symbol != "EUR " {
		t.Fatalf("symbol = %q, want ISO fallback", cf.Symbol)
	}

	if _, err := NewCurrencyFormat("en-US", "XYZW", "$", 2); err == nil {
		t.Fatal("expected error for unknown currency")
	}
	if _, err := NewCurrencyFormat("en-US", "USD", "$", 9); err == nil {
		t.Fatal("expected error for fraction digits")
	}
}

func TestNewCurrencyFormat_RejectsUnparsableOutput(t *testing.T) {
	cases := []struct {
		locale, code, symbol string
	}{
		{"de-DE", "EUR", "€"},
		{"fr-FR", "EUR", "€"},
		{"pt-BR", "BRL", "R$"},
		{"en-IN", "INR", "Rs."},
		{"en-US", "USD", "US1$"},
	}
	for _, tc := range cases {
		t.Run(tc.locale+"/"+tc.symbol, func(t *testing.T) {
			_, err := NewCurrencyFormat(tc.locale, tc.code, tc.symbol, 2)
			if !errors.Is(err, ErrUnparsableFormat) {
				t.Fatalf("expected ErrUnparsableFormat, got %v", err)
			}
		})
	}
}

func TestFormatParseRoundTrip_AcceptedLocales(t *testing.T) {
	cases := []struct {
		locale, code, symbol string
		digits               int
	}{
		{"en-US", "USD", "$", 2},
		{"en-GB", "GBP", "£", 2},
		{"en-IN", "INR", "₹", 2},
		{"ja-JP", "JPY", "¥", 0},
		{"zh-CN", "CNY", "¥", 2},
		{"en-US", "EUR", "", 2},
	}
	values := []float64{0, 0.01, 0.5, 12.345, 999.999, 1234.5, 99999.99, 1234567.891, 98765432.1}

	for _, tc := range cases {
		t.Run(tc.locale+"/"+tc.code, func(t *testing.T) {
			cf, err := NewCurrencyFormat(tc.locale, tc.code, tc.symbol, tc.digits)
			if err != nil {
				t.Fatalf("NewCurrencyFormat: %v", err)
			}
			f := NewFormatter(cf)
			tolerance := 0.5*math.Pow10(-tc.digits) + 1e-9
			for _, v := range values {
				shown := f.Format(v)
				if got := f.Parse(shown); math.Abs(got-v) > tolerance {
					t.Errorf("Parse(%q) = %v, want %v within %v", shown, got, v, tolerance)
				}
			}
		})
	}
}
