package core

import (
	"fmt"
	"math"
)

// Calculate derives the monthly total and the daily break-even figure.
//
//	total          = sum of all amounts
//	workDaysMonth  = workDays * WeeksPerMonth
//	dailyBreakEven = total / workDaysMonth
//
// workDays outside [MinWorkDays, MaxWorkDays] returns ErrInvalidWorkDays and
// negative or non-finite amounts, or amounts whose sum overflows, return
// ErrInvalidAmount, so the result never carries Inf or NaN.
func Calculate(expenses ExpenseMap, workDays int) (CalculationResult, error) {
	if err := ValidateWorkDays(workDays); err != nil {
		return CalculationResult{}, err
	}
	if err := expenses.Validate(); err != nil {
		return CalculationResult{}, err
	}

	total := expenses.Sum()
	if math.IsInf(total, 0) {
		return CalculationResult{}, fmt.Errorf("%w: total overflows", ErrInvalidAmount)
	}
	workDaysPerMonth := float64(workDays) * WeeksPerMonth

	return CalculationResult{
		WorkDays:       workDays,
		Expenses:       expenses,
		TotalMonthly:   total,
		DailyBreakEven: total / workDaysPerMonth,
	}, nil
}

// MustCalculate is Calculate for inputs already validated by the caller.
func MustCalculate(expenses ExpenseMap, workDays int) CalculationResult {
	r, err := Calculate(expenses, workDays)
	if err != nil {
		panic(fmt.Sprintf("core: %v", err))
	}
	return r
}
