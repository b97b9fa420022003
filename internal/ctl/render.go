package ctl

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"breakeven/internal/core"
	"breakeven/internal/draft"
	"breakeven/internal/report"
)

var (
	colorBorder = lipgloss.Color("#D8D0DD")
	colorAccent = lipgloss.Color("#B0447E")
	colorMuted  = lipgloss.Color("#6F6678")
	colorGreen  = lipgloss.Color("#2E7D32")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	highlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen)
)

// renderDocument lays out a report for the terminal in document order.
func renderDocument(doc report.Document) string {
	var b strings.Builder
	for _, s := range doc.Sections {
		switch s.Kind {
		case report.KindTitle:
			b.WriteString(titleStyle.Render(strings.Join(s.Lines, "\n")))
			b.WriteString("\n")
			continue
		case report.KindMethodology:
			b.WriteString("\n" + headerStyle.Render(s.Heading) + "\n")
			for _, l := range s.Lines {
				b.WriteString("  " + mutedStyle.Render(l) + "\n")
			}
			continue
		}

		b.WriteString("\n" + headerStyle.Render(s.Heading) + "\n")
		if len(s.Lines) == 0 {
			b.WriteString("  " + mutedStyle.Render("(none)") + "\n")
		}
		for _, l := range s.Lines {
			if strings.HasPrefix(l, "Minimum Daily Earnings") {
				l = highlightStyle.Render(l)
			}
			b.WriteString("  " + l + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderDraft lists the saved inputs in entry order.
func renderDraft(d draft.Draft, money *core.Formatter) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Saved draft") + "\n")
	b.WriteString(fmt.Sprintf("  Work Days per Week: %d\n", d.WorkDays))
	if d.Expenses.Len() == 0 {
		b.WriteString("  " + mutedStyle.Render("No expenses entered.") + "\n")
	}
	d.Expenses.Each(func(c core.Category, amount float64) {
		b.WriteString(fmt.Sprintf("  %s: %s\n", c.Label(), money.Format(amount)))
	})
	if !d.SavedAt.IsZero() {
		b.WriteString("  " + mutedStyle.Render("saved "+d.SavedAt.Local().Format("2006-01-02 15:04")) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
