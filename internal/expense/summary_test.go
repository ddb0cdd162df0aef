package expense

import (
	"math"
	"testing"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		year    int
		month   time.Month
		lastDay int
	}{
		{2025, time.January, 31},
		{2025, time.February, 28},
		{2024, time.February, 29},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}

	for _, tt := range tests {
		t.Run(MonthLabel(tt.year, tt.month), func(t *testing.T) {
			start, end := MonthWindow(tt.year, tt.month, time.UTC)
			assert.Equal(t, time.Date(tt.year, tt.month, 1, 0, 0, 0, 0, time.UTC), start)
			assert.Equal(t, time.Date(tt.year, tt.month, tt.lastDay, 23, 59, 59, 999_000_000, time.UTC), end)
		})
	}
}

func TestMonthWindowInLocation(t *testing.T) {
	baku := time.FixedZone("UTC+4", 4*60*60)
	start, end := MonthWindow(2025, time.March, baku)

	assert.Equal(t, time.Date(2025, 2, 28, 20, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2025, 3, 31, 19, 59, 59, 999_000_000, time.UTC), end.UTC())
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "2025-01", MonthLabel(2025, time.January))
	assert.Equal(t, "0099-12", MonthLabel(99, time.December))
}

func TestSummarizeKeepsFirstSeenOrder(t *testing.T) {
	expenses := []Expense{
		{Category: "Transportation", Amount: money.FromCents(12000)},
		{Category: "Food", Amount: money.FromCents(4550)},
		{Category: "Transportation", Amount: money.FromCents(250)},
		{Category: "Bills", Amount: money.FromCents(9999)},
		{Category: "Food", Amount: money.FromCents(1)},
	}

	summary, err := Summarize("2025-01", expenses)
	require.NoError(t, err)

	require.Len(t, summary.Categories, 3)
	assert.Equal(t, []CategoryTotal{
		{Category: "Transportation", Total: money.FromCents(12250)},
		{Category: "Food", Total: money.FromCents(4551)},
		{Category: "Bills", Total: money.FromCents(9999)},
	}, summary.Categories)
	assert.Equal(t, money.FromCents(26800), summary.TotalSpent)
}

func TestSummarizeTotalEqualsSumOfCategories(t *testing.T) {
	categories := []string{"Food", "Rent", "Fun", "Travel", "Gifts"}
	var expenses []Expense
	var want int64
	for i := 0; i < 1000; i++ {
		cents := int64(i%97 + 1)
		want += cents
		expenses = append(expenses, Expense{Category: categories[i%len(categories)], Amount: money.FromCents(cents)})
	}

	summary, err := Summarize("2025-01", expenses)
	require.NoError(t, err)

	var sum money.Money
	for _, c := range summary.Categories {
		sum = sum.Add(c.Total)
	}
	assert.Equal(t, summary.TotalSpent, sum)
	assert.Equal(t, want, summary.TotalSpent.Cents)
	assert.Len(t, summary.Categories, len(categories))
}

func TestSummarizeEmpty(t *testing.T) {
	summary, err := Summarize("2025-02", nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-02", summary.Month)
	assert.Equal(t, money.Money{}, summary.TotalSpent)
	assert.NotNil(t, summary.Categories)
	assert.Empty(t, summary.Categories)
}

func TestSummarizeOverflowFails(t *testing.T) {
	expenses := []Expense{
		{Category: "Food", Amount: money.FromCents(math.MaxInt64 / 2)},
		{Category: "Food", Amount: money.FromCents(math.MaxInt64 / 2)},
		{Category: "Food", Amount: money.FromCents(10)},
	}
	_, err := Summarize("2025-01", expenses)
	assert.Equal(t, appErrors.ErrInternal, appErrors.CodeOf(err))

	// Each category fits, the grand total does not.
	expenses = []Expense{
		{Category: "Food", Amount: money.FromCents(math.MaxInt64 - 1)},
		{Category: "Rent", Amount: money.FromCents(2)},
	}
	_, err = Summarize("2025-01", expenses)
	assert.Equal(t, appErrors.ErrInternal, appErrors.CodeOf(err))
}

func TestSummarizeLargeValidAmounts(t *testing.T) {
	expenses := []Expense{
		{Category: "Food", Amount: money.FromCents(money.MAX_CENTS)},
		{Category: "Food", Amount: money.FromCents(money.MAX_CENTS)},
	}
	summary, err := Summarize("2025-01", expenses)
	require.NoError(t, err)
	assert.Equal(t, 2*money.MAX_CENTS, summary.TotalSpent.Cents)
	assert.True(t, summary.TotalSpent.IsPositive())
}

func TestAuthorize(t *testing.T) {
	owner := auth.Principal{UserID: "alice"}
	other := auth.Principal{UserID: "bob"}
	e := &Expense{ID: "e1", OwnerID: "alice"}

	assert.NoError(t, Authorize(e, owner))
	assert.Equal(t, appErrors.ErrAccessDenied, appErrors.CodeOf(Authorize(e, other)))
	assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(Authorize(nil, owner)))
	assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(Authorize(nil, other)))
}

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)

	y, m, err := resolvePeriod(now, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.July, m)

	year, month := 2024, 2
	y, m, err = resolvePeriod(now, &year, &month)
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.February, m)

	bad := 0
	_, _, err = resolvePeriod(now, &bad, nil)
	assert.Equal(t, appErrors.ErrInvalidInput, appErrors.CodeOf(err))
}
