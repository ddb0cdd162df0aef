package expense

import (
	"fmt"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
)

const (
	MIN_SUMMARY_YEAR = 1
	MAX_SUMMARY_YEAR = 9999
)

// MonthWindow returns the first and the last millisecond of the month in loc.
// Both ends are inclusive.
func MonthWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}

func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

var errSummaryOverflow = appErrors.ErrorResponse{
	Code:    appErrors.ErrInternal,
	Message: "Monthly total is too large to compute.",
}

// Summarize totals expenses per category in the order categories first
// appear. The overall total is the sum of the category totals. A sum that
// does not fit in int64 cents fails instead of wrapping.
func Summarize(label string, expenses []Expense) (MonthlySummary, error) {
	summary := MonthlySummary{
		Month:      label,
		Categories: []CategoryTotal{},
	}

	index := make(map[string]int)
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(summary.Categories)
			index[e.Category] = i
			summary.Categories = append(summary.Categories, CategoryTotal{Category: e.Category})
		}
		total, err := summary.Categories[i].Total.CheckedAdd(e.Amount)
		if err != nil {
			return MonthlySummary{}, fmt.Errorf("%w: category %q", errSummaryOverflow, e.Category)
		}
		summary.Categories[i].Total = total
	}

	for _, c := range summary.Categories {
		total, err := summary.TotalSpent.CheckedAdd(c.Total)
		if err != nil {
			return MonthlySummary{}, errSummaryOverflow
		}
		summary.TotalSpent = total
	}
	return summary, nil
}

// resolvePeriod fills in the current year and month where they are missing
// and validates the result.
func resolvePeriod(now time.Time, year, month *int) (int, time.Month, error) {
	y, m := now.Year(), now.Month()
	if year != nil {
		y = *year
	}
	if month != nil {
		if *month < 1 || *month > 12 {
			return 0, 0, appErrors.ErrorResponse{
				Code:    appErrors.ErrInvalidInput,
				Message: "Month must be between 1 and 12.",
			}
		}
		m = time.Month(*month)
	}
	if y < MIN_SUMMARY_YEAR || y > MAX_SUMMARY_YEAR {
		return 0, 0, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Year must be between %d and %d.", MIN_SUMMARY_YEAR, MAX_SUMMARY_YEAR),
		}
	}
	return y, m, nil
}
