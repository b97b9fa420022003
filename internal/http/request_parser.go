// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// JSON endpoints and the HTML form share the same calculation input shape.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"breakeven/internal/core"
	"breakeven/internal/services"
)

// maxBodyBytes caps request bodies; a calculation is a handful of numbers.
const maxBodyBytes = 64 << 10

// ErrBadRequest marks bodies that could not be decoded at all.
var ErrBadRequest = errors.New("malformed request")

// CalculationRequest is the calculation payload posted by the page and API
// clients. Totals are optional and only compared against the server result.
type CalculationRequest struct {
	WorkDays       int             `json:"workDays"`
	Expenses       core.ExpenseMap `json:"expenses"`
	TotalMonthly   *float64        `json:"totalMonthly,omitempty"`
	DailyBreakEven *float64        `json:"dailyBreakEven,omitempty"`
}

// ClientTotals returns the totals the client claims to have computed.
func (c CalculationRequest) ClientTotals() services.ClientTotals {
	return services.ClientTotals{TotalMonthly: c.TotalMonthly, DailyBreakEven: c.DailyBreakEven}
}

// EmailRequest is the body of POST /api/email-results.
type EmailRequest struct {
	Email           string             `json:"email"`
	CalculationData CalculationRequest `json:"calculationData"`
}

// DecodeJSON reads a size-limited JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", ErrBadRequest)
	}
	return nil
}

// ParseCalculationForm builds a calculation request from the calculator form.
// Every known category is read in form order; amounts are parsed leniently
// so "$1,200" and "1200" are equivalent and unparseable text counts as zero.
func ParseCalculationForm(p *RequestBodyParser, money *core.Formatter) (CalculationRequest, error) {
	if err := p.Parse(); err != nil {
		return CalculationRequest{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	days := p.Get("workDays")
	workDays, err := strconv.Atoi(days)
	if err != nil {
		return CalculationRequest{}, fmt.Errorf("%w: %q is not a whole number", core.ErrInvalidWorkDays, days)
	}

	expenses := core.NewExpenseMap()
	for _, c := range core.Categories {
		expenses = expenses.With(c, money.Parse(p.Get(string(c))))
	}
	return CalculationRequest{WorkDays: workDays, Expenses: expenses}, nil
}

// ParseID reads the positive {id} path value.
func ParseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrBadRequest, raw)
	}
	return id, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
