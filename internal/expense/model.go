package expense

import (
	"time"

	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/money"
)

// REQUESTS START:
type CreateExpenseRequest struct {
	Amount   money.Money
	Date     time.Time
	Category string
	Note     string
}

// UpdateExpenseRequest is a partial update; nil fields are left as stored.
type UpdateExpenseRequest struct {
	Amount   *money.Money
	Date     *time.Time
	Category *string
	Note     *string
}

type ListExpensesRequest struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
}

// REQUESTS END:

// MODELS:

type Expense struct {
	ID        string
	Amount    money.Money
	Date      time.Time
	Category  string
	Note      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter narrows ListExpensesForUser. Start and End are inclusive.
type ListFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
	Ascending bool
	Limit     int
}

// RESPONSES:

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      auth.User
}

type CategoryTotal struct {
	Category string
	Total    money.Money
}

type MonthlySummary struct {
	Month      string
	TotalSpent money.Money
	Categories []CategoryTotal
}
