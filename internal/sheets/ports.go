package sheets

import (
	"context"
	"fmt"

	"breakeven/internal/core"
)

// RecordArchiver appends stored calculations to an external spreadsheet.
type RecordArchiver interface {
	AppendRecord(ctx context.Context, rec core.CalculationRecord) (rowRef string, err error)
}

// Header is the column layout written by archivers.
var Header = []any{
	"ID", "Created At", "Work Days",
	"Rent", "Supplies", "Insurance", "Marketing", "Taxes", "Education", "Miscellaneous",
	"Total Monthly", "Daily Break-Even",
}

// Row converts a record into spreadsheet cells in Header order.
func Row(rec core.CalculationRecord) []any {
	return []any{
		rec.ID,
		rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		rec.WorkDays,
		rec.Rent, rec.Supplies, rec.Insurance, rec.Marketing, rec.Taxes, rec.Education, rec.Miscellaneous,
		round2(rec.TotalMonthly),
		round2(rec.DailyBreakEven),
	}
}

func round2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
