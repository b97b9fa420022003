package core

import (
	"errors"
	"time"
)

// Category identifies a monthly expense bucket.
type Category string

const (
	Rent          Category = "rent"
	Supplies      Category = "supplies"
	Insurance     Category = "insurance"
	Marketing     Category = "marketing"
	Taxes         Category = "taxes"
	Education     Category = "education"
	Miscellaneous Category = "miscellaneous"
)

// Categories lists the known categories in form order.
var Categories = []Category{Rent, Supplies, Insurance, Marketing, Taxes, Education, Miscellaneous}

var categoryLabels = map[Category]string{
	Rent:          "Rent/Booth Fee",
	Supplies:      "Supplies/Backbar",
	Insurance:     "Insurance/Licenses",
	Marketing:     "Marketing/Admin",
	Taxes:         "Taxes Savings",
	Education:     "Education/Tools",
	Miscellaneous: "Miscellaneous",
}

// Label returns the display label, or the raw key for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Known reports whether c is one of the fixed categories.
func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) String() string { return string(c) }

const (
	// WeeksPerMonth is the average number of weeks in a month.
	WeeksPerMonth = 4.33

	MinWorkDays = 1
	MaxWorkDays = 7
)

type (
	// CalculationResult is the output of Calculate. It is never mutated after creation.
	CalculationResult struct {
		WorkDays       int        `json:"workDays"`
		Expenses       ExpenseMap `json:"expenses"`
		TotalMonthly   float64    `json:"totalMonthly"`
		DailyBreakEven float64    `json:"dailyBreakEven"`
	}

	// CalculationRecord is the flattened, persisted form of a calculation.
	CalculationRecord struct {
		ID             int64     `json:"id"`
		WorkDays       int       `json:"workDays"`
		Rent           float64   `json:"rent"`
		Supplies       float64   `json:"supplies"`
		Insurance      float64   `json:"insurance"`
		Marketing      float64   `json:"marketing"`
		Taxes          float64   `json:"taxes"`
		Education      float64   `json:"education"`
		Miscellaneous  float64   `json:"miscellaneous"`
		TotalMonthly   float64   `json:"totalMonthly"`
		DailyBreakEven float64   `json:"dailyBreakEven"`
		CreatedAt      time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidWorkDays      = errors.New("invalid work days")
	ErrInsufficientExpenses = errors.New("insufficient expenses")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrInvalidAmount        = errors.New("invalid amount")
)

// Record flattens a result into its persisted shape. ID and CreatedAt are left
// for the store to assign. Unknown categories only contribute to the total.
func (r CalculationResult) Record() CalculationRecord {
	e := r.Expenses
	return CalculationRecord{
		WorkDays:       r.WorkDays,
		Rent:           e.Amount(Rent),
		Supplies:       e.Amount(Supplies),
		Insurance:      e.Amount(Insurance),
		Marketing:      e.Amount(Marketing),
		Taxes:          e.Amount(Taxes),
		Education:      e.Amount(Education),
		Miscellaneous:  e.Amount(Miscellaneous),
		TotalMonthly:   r.TotalMonthly,
		DailyBreakEven: r.DailyBreakEven,
	}
}

// Expenses rebuilds the category map of a stored record in form order.
func (r CalculationRecord) Expenses() ExpenseMap {
	return NewExpenseMap().
		With(Rent, r.Rent).
		With(Supplies, r.Supplies).
		With(Insurance, r.Insurance).
		With(Marketing, r.Marketing).
		With(Taxes, r.Taxes).
		With(Education, r.Education).
		With(Miscellaneous, r.Miscellaneous)
}
