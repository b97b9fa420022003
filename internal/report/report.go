// Package report turns a calculation result into an ordered, format-neutral
// document that can be serialized to PDF or plain text.
package report

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"breakeven/internal/core"
)

// SectionKind tags each section of a Document.
type SectionKind string

const (
	KindTitle       SectionKind = "title"
	KindSummary     SectionKind = "summary"
	KindBreakdown   SectionKind = "breakdown"
	KindMethodology SectionKind = "methodology"
)

const (
	Title              = "Break-Even Calculator Results"
	HeadingSummary     = "Summary"
	HeadingBreakdown   = "Expense Breakdown"
	HeadingMethodology = "Methodology"
	Formula            = "Daily Break-Even = Monthly Expenses ÷ (Work Days per Week × 4.33 weeks)"

	Filename    = "break-even-calculation.pdf"
	ContentType = "application/pdf"
)

type (
	Section struct {
		Kind     SectionKind `json:"kind"`
		Heading  string      `json:"heading,omitempty"`
		Lines    []string    `json:"lines"`
		Centered bool        `json:"centered,omitempty"`
	}

	// Document is an ordered list of sections. Renderers never reorder it.
	Document struct {
		Sections []Section `json:"sections"`
	}

	// BreakdownLine is one category's share of the monthly total.
	BreakdownLine struct {
		Category   core.Category `json:"category"`
		Label      string        `json:"label"`
		Amount     float64       `json:"amount"`
		Percentage float64       `json:"percentage"`
	}
)

// Section returns the first section of the given kind.
func (d Document) Section(kind SectionKind) (Section, bool) {
	for _, s := range d.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}

// Renderer builds documents using one currency convention.
type Renderer struct {
	money *core.Formatter
}

func NewRenderer(money *core.Formatter) *Renderer {
	if money == nil {
		money = core.NewFormatter(core.DefaultCurrencyFormat())
	}
	return &Renderer{money: money}
}

// Formatter returns the currency formatter used by the renderer.
func (r *Renderer) Formatter() *core.Formatter {
	return r.money
}

// Render produces Title, Summary, Expense Breakdown and Methodology in that order.
func (r *Renderer) Render(result core.CalculationResult) Document {
	summary := Section{
		Kind:    KindSummary,
		Heading: HeadingSummary,
		Lines: []string{
			fmt.Sprintf("Work Days per Week: %d", result.WorkDays),
			"Total Monthly Expenses: " + r.money.Format(result.TotalMonthly),
			"Minimum Daily Earnings: " + r.money.Format(result.DailyBreakEven),
		},
	}

	lines := Breakdown(result)
	breakdown := Section{Kind: KindBreakdown, Heading: HeadingBreakdown, Lines: make([]string, 0, len(lines))}
	for _, l := range lines {
		breakdown.Lines = append(breakdown.Lines, r.BreakdownText(l))
	}

	methodology := Section{
		Kind:    KindMethodology,
		Heading: HeadingMethodology,
		Lines: []string{
			Formula,
			fmt.Sprintf("%s = %s ÷ (%d × %.2f)",
				r.money.Fixed(result.DailyBreakEven),
				r.money.Fixed(result.TotalMonthly),
				result.WorkDays,
				core.WeeksPerMonth),
		},
	}

	return Document{Sections: []Section{
		{Kind: KindTitle, Lines: []string{Title}, Centered: true},
		summary,
		breakdown,
		methodology,
	}}
}

// BreakdownText formats a line as "<label>: <amount> (<pct>%)".
func (r *Renderer) BreakdownText(l BreakdownLine) string {
	return fmt.Sprintf("%s: %s (%s%%)", l.Label, r.money.Format(l.Amount), FormatPercent(l.Percentage))
}

// Breakdown lists categories with a positive amount in map order.
func Breakdown(result core.CalculationResult) []BreakdownLine {
	var out []BreakdownLine
	result.Expenses.Each(func(c core.Category, amount float64) {
		if amount <= 0 {
			return
		}
		out = append(out, BreakdownLine{
			Category:   c,
			Label:      c.Label(),
			Amount:     amount,
			Percentage: Percentage(amount, result.TotalMonthly),
		})
	})
	return out
}

// Percentage returns part as a share of total in percent, 0 when total is 0.
func Percentage(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

// FormatPercent renders a percentage with one decimal place. Rounding looks at
// the exact binary value and takes the larger neighbour on a true tie, so
// 0.15 (stored just below) gives "0.1" and 0.25 gives "0.3".
func FormatPercent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "0.0"
	}
	// 30 places separate any float64 percentage from a one-place tie.
	d, err := decimal.NewFromString(strconv.FormatFloat(p, 'f', 30, 64))
	if err != nil {
		return "0.0"
	}
	return d.StringFixed(1)
}
