// Package core provides the break-even domain: expense categories, the
// calculator, input validation and currency formatting.
//
// This file holds the currency convention and the lenient amount parser.
package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyFormat is the single display convention used for amounts.
type CurrencyFormat struct {
	Locale         language.Tag
	Currency       currency.Unit
	Symbol         string
	FractionDigits int
}

// DefaultCurrencyFormat returns en-US dollars with two fraction digits.
func DefaultCurrencyFormat() CurrencyFormat {
	return CurrencyFormat{
		Locale:         language.AmericanEnglish,
		Currency:       currency.USD,
		Symbol:         "$",
		FractionDigits: 2,
	}
}

// NewCurrencyFormat builds a format from configuration values. An empty
// symbol falls back to the ISO code followed by a space.
//
// ParseAmount reads '.' as the decimal point, so locales that format
// amounts differently (de-DE, fr-FR, ...) and symbols containing digits or
// '.' are rejected: what users see must parse back to the same amount.
func NewCurrencyFormat(locale, code, symbol string, fractionDigits int) (CurrencyFormat, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return CurrencyFormat{}, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return CurrencyFormat{}, fmt.Errorf("parse currency %q: %w", code, err)
	}
	if fractionDigits < 0 || fractionDigits > 4 {
		return CurrencyFormat{}, fmt.Errorf("invalid fraction digits %d: must be between 0 and 4", fractionDigits)
	}
	if symbol == "" {
		symbol = unit.String() + " "
	}
	cf := CurrencyFormat{
		Locale:         tag,
		Currency:       unit,
		Symbol:         symbol,
		FractionDigits: fractionDigits,
	}
	if err := checkRoundTrip(cf); err != nil {
		return CurrencyFormat{}, err
	}
	return cf, nil
}

// roundTripSample has grouping and fraction digits and is exact in binary.
const roundTripSample = 1234567.25

func checkRoundTrip(cf CurrencyFormat) error {
	f := NewFormatter(CurrencyFormat{Locale: cf.Locale, Currency: cf.Currency, Symbol: cf.Symbol, FractionDigits: 2})
	shown := f.Format(roundTripSample)
	if got := ParseAmount(shown); got != roundTripSample {
		return fmt.Errorf("%w: %s with symbol %q shows %v as %q, which parses back as %v",
			ErrUnparsableFormat, cf.Locale, cf.Symbol, roundTripSample, shown, got)
	}
	return nil
}

// ErrUnparsableFormat marks a currency convention whose output ParseAmount
// cannot read back.
var ErrUnparsableFormat = errors.New("currency format does not parse back")

// Formatter renders and parses amounts for one CurrencyFormat.
// It holds no mutable state and is safe for concurrent use.
type Formatter struct {
	format CurrencyFormat
}

func NewFormatter(format CurrencyFormat) *Formatter {
	return &Formatter{format: format}
}

// Format returns the amount with symbol, grouping separators and exactly the
// configured fraction digits, rounding half away from zero.
func (f *Formatter) Format(amount float64) string {
	if s, ok := f.nonFinite(amount); ok {
		return s
	}
	d := decimal.NewFromFloat(amount).Round(int32(f.format.FractionDigits))
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	p := message.NewPrinter(f.format.Locale)
	body := p.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(f.format.FractionDigits)))
	return sign + f.format.Symbol + body
}

// Fixed returns the amount with symbol and fixed fraction digits but without
// grouping separators.
func (f *Formatter) Fixed(amount float64) string {
	if s, ok := f.nonFinite(amount); ok {
		return s
	}
	d := decimal.NewFromFloat(amount)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + f.format.Symbol + d.StringFixed(int32(f.format.FractionDigits))
}

// Parse is the lenient inverse of Format. See ParseAmount.
func (f *Formatter) Parse(text string) float64 {
	return ParseAmount(text)
}

// CurrencyFormat returns the underlying convention.
func (f *Formatter) CurrencyFormat() CurrencyFormat {
	return f.format
}

func (f *Formatter) nonFinite(amount float64) (string, bool) {
	switch {
	case math.IsNaN(amount):
		return f.format.Symbol + "NaN", true
	case math.IsInf(amount, 1):
		return f.format.Symbol + "∞", true
	case math.IsInf(amount, -1):
		return "-" + f.format.Symbol + "∞", true
	}
	return "", false
}

var (
	nonNumeric    = regexp.MustCompile(`[^\d.]`)
	leadingNumber = regexp.MustCompile(`^\d*(\.\d*)?`)
)

// ParseAmount strips every character that is not a digit or '.', then reads
// the longest leading decimal. It never fails: empty, malformed or
// out-of-range input yields 0.
//
//	ParseAmount("$1,234.56") -> 1234.56
//	ParseAmount("1.2.3")     -> 1.2
//	ParseAmount("abc")       -> 0
func ParseAmount(text string) float64 {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	num := strings.TrimSuffix(leadingNumber.FindString(cleaned), ".")
	if num == "" {
		return 0
	}
	if strings.HasPrefix(num, ".") {
		num = "0" + num
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}
