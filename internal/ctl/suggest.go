package ctl

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"breakeven/internal/core"
)

// maxSuggestDistance is the largest edit distance still offered as a guess.
const maxSuggestDistance = 3

// SuggestCategory returns the known category closest to input, comparing
// against both keys and labels. ok is false when nothing is close enough.
func SuggestCategory(input string) (core.Category, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	best, bestDist := core.Category(""), maxSuggestDistance+1
	for _, c := range core.Categories {
		for _, candidate := range []string{string(c), strings.ToLower(c.Label())} {
			if d := levenshtein.ComputeDistance(in, candidate); d < bestDist {
				best, bestDist = c, d
			}
		}
	}
	return best, bestDist <= maxSuggestDistance
}

// ParseAssignments reads "category=amount" arguments in order. Amounts are
// parsed leniently; unknown categories are rejected with a suggestion.
func ParseAssignments(args []string, money *core.Formatter) (core.ExpenseMap, error) {
	expenses := core.NewExpenseMap()
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return core.ExpenseMap{}, fmt.Errorf("expected category=amount, got %q", arg)
		}
		c := core.Category(strings.ToLower(strings.TrimSpace(key)))
		if !c.Known() {
			if guess, ok := SuggestCategory(key); ok {
				return core.ExpenseMap{}, fmt.Errorf("unknown category %q, did you mean %q?", key, guess)
			}
			return core.ExpenseMap{}, fmt.Errorf("unknown category %q; known categories: %s", key, knownCategories())
		}
		expenses = expenses.With(c, money.Parse(value))
	}
	return expenses, nil
}

func knownCategories() string {
	names := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
