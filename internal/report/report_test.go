package report

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"breakeven/internal/core"
)

func sampleResult(t *testing.T) core.CalculationResult {
	t.Helper()
	exp := core.NewExpenseMap().
		With(core.Rent, 800).
		With(core.Supplies, 150).
		With(core.Marketing, 0).
		With(core.Insurance, 50)
	r, err := core.Calculate(exp, 5)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	return r
}

func TestRender_SectionOrder(t *testing.T) {
	doc := NewRenderer(nil).Render(sampleResult(t))

	want := []SectionKind{KindTitle, KindSummary, KindBreakdown, KindMethodology}
	if len(doc.Sections) != len(want) {
		t.Fatalf("got %d sections, want %d", len(doc.Sections), len(want))
	}
	for i, k := range want {
		if doc.Sections[i].Kind != k {
			t.Fatalf("section %d = %s, want %s", i, doc.Sections[i].Kind, k)
		}
	}
	title := doc.Sections[0]
	if !title.Centered || len(title.Lines) != 1 || title.Lines[0] != Title {
		t.Fatalf("title section = %+v", title)
	}
}

func TestRender_SummaryAndMethodology(t *testing.T) {
	doc := NewRenderer(nil).Render(sampleResult(t))

	summary, _ := doc.Section(KindSummary)
	wantSummary := []string{
		"Work Days per Week: 5",
		"Total Monthly Expenses: $1,000.00",
		"Minimum Daily Earnings: $46.19",
	}
	for i, l := range wantSummary {
		if summary.Lines[i] != l {
			t.Fatalf("summary[%d] = %q, want %q", i, summary.Lines[i], l)
		}
	}

	m, _ := doc.Section(KindMethodology)
	if m.Lines[0] != Formula {
		t.Fatalf("formula = %q", m.Lines[0])
	}
	if m.Lines[1] != "$46.19 = $1000.00 ÷ (5 × 4.33)" {
		t.Fatalf("worked example = %q", m.Lines[1])
	}
}

func TestRender_BreakdownCompleteness(t *testing.T) {
	doc := NewRenderer(nil).Render(sampleResult(t))
	b, _ := doc.Section(KindBreakdown)

	want := []string{
		"Rent/Booth Fee: $800.00 (80.0%)",
		"Supplies/Backbar: $150.00 (15.0%)",
		"Insurance/Licenses: $50.00 (5.0%)",
	}
	if len(b.Lines) != len(want) {
		t.Fatalf("breakdown = %v", b.Lines)
	}
	for i := range want {
		if b.Lines[i] != want[i] {
			t.Fatalf("breakdown[%d] = %q, want %q", i, b.Lines[i], want[i])
		}
	}
}

func TestBreakdown_PercentagesSumTo100(t *testing.T) {
	exp := core.NewExpenseMap().
		With(core.Rent, 333.33).
		With(core.Taxes, 333.33).
		With(core.Education, 333.34).
		With("pets", 12.5)
	r := core.MustCalculate(exp, 3)

	var sum float64
	for _, l := range Breakdown(r) {
		sum += l.Percentage
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages sum to %v", sum)
	}
}

// randomExpenses builds a map over a random subset of categories, in random
// order, with some zero amounts.
func randomExpenses(rng *rand.Rand) core.ExpenseMap {
	m := core.NewExpenseMap()
	for _, i := range rng.Perm(len(core.Categories))[:1+rng.Intn(len(core.Categories))] {
		amount := 0.0
		if rng.Intn(4) > 0 {
			amount = math.Round(rng.Float64()*math.Pow10(rng.Intn(7))*100) / 100
		}
		m = m.With(core.Categories[i], amount)
	}
	return m
}

func TestBreakdown_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(20240611))

	for i := 0; i < 500; i++ {
		exp := randomExpenses(rng)
		r := core.MustCalculate(exp, 1+rng.Intn(7))
		lines := Breakdown(r)

		positive := 0
		exp.Each(func(_ core.Category, amount float64) {
			if amount > 0 {
				positive++
			}
		})
		if len(lines) != positive {
			t.Fatalf("case %d: %d lines for %d positive amounts", i, len(lines), positive)
		}

		if !core.IsSufficient(exp) {
			continue
		}
		var sum float64
		for j, l := range lines {
			if l.Percentage <= 0 || l.Percentage > 100+1e-9 {
				t.Fatalf("case %d: percentage %v out of range", i, l.Percentage)
			}
			if j > 0 && indexOf(exp.Categories(), l.Category) < indexOf(exp.Categories(), lines[j-1].Category) {
				t.Fatalf("case %d: breakdown out of map order", i)
			}
			sum += l.Percentage
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Fatalf("case %d: percentages sum to %v", i, sum)
		}
	}
}

func indexOf(cats []core.Category, c core.Category) int {
	for i, x := range cats {
		if x == c {
			return i
		}
	}
	return -1
}

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{80, "80.0"},
		{100, "100.0"},
		{0, "0.0"},
		{100.0 / 3, "33.3"},
		{0.15, "0.1"},
		{0.25, "0.3"},
		{0.35, "0.3"},
		{0.45, "0.5"},
		{1.45, "1.4"},
		{99.95, "100.0"},
	}
	for _, tc := range cases {
		if got := FormatPercent(tc.in); got != tc.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBreakdown_UnknownCategoryUsesKey(t *testing.T) {
	r := core.MustCalculate(core.NewExpenseMap().With("pets", 40), 2)
	lines := Breakdown(r)
	if len(lines) != 1 || lines[0].Label != "pets" {
		t.Fatalf("lines = %+v", lines)
	}
}

func TestBreakdown_EmptyWhenAllZero(t *testing.T) {
	r := core.MustCalculate(core.NewExpenseMap().With(core.Rent, 0), 5)
	if lines := Breakdown(r); len(lines) != 0 {
		t.Fatalf("expected no lines, got %+v", lines)
	}
}

func TestWritePDF(t *testing.T) {
	doc := NewRenderer(nil).Render(sampleResult(t))
	var buf bytes.Buffer
	if err := WritePDF(&buf, doc, DefaultPDFOptions()); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF: %q", buf.Bytes()[:8])
	}
}

func TestText(t *testing.T) {
	out := Text(NewRenderer(nil).Render(sampleResult(t)))
	for _, want := range []string{Title, "Summary\n-------", "Expense Breakdown", "Minimum Daily Earnings: $46.19"} {
		if !strings.Contains(out, want) {
			t.Fatalf("text report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Summary") > strings.Index(out, "Methodology") {
		t.Fatal("sections out of order")
	}
}
