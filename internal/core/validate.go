package core

import (
	"fmt"
	"net/mail"
	"strings"
)

// InsufficientMessage is shown when no expense amount has been entered.
const InsufficientMessage = "Please enter at least one expense amount to calculate your break-even point."

// IsSufficient reports whether the expenses sum to a positive total.
// An empty map is insufficient.
func IsSufficient(expenses ExpenseMap) bool {
	return expenses.Sum() > 0
}

// RequireSufficient is IsSufficient as an error for callers that gate on it.
func RequireSufficient(expenses ExpenseMap) error {
	if !IsSufficient(expenses) {
		return ErrInsufficientExpenses
	}
	return nil
}

// ValidateWorkDays checks the days-per-week range.
func ValidateWorkDays(workDays int) error {
	if workDays < MinWorkDays || workDays > MaxWorkDays {
		return fmt.Errorf("%w: %d must be between %d and %d", ErrInvalidWorkDays, workDays, MinWorkDays, MaxWorkDays)
	}
	return nil
}

// ValidateEmail accepts a bare address like "a@b.co".
func ValidateEmail(addr string) error {
	addr = strings.TrimSpace(addr)
	if !strings.Contains(addr, "@") {
		return fmt.Errorf("%w: missing @", ErrInvalidEmail)
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}
	if parsed.Address != addr {
		return fmt.Errorf("%w: expected a bare address", ErrInvalidEmail)
	}
	return nil
}
