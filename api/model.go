package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
	"github.com/fatali-fataliyev/expense_tracker/internal/money"
)

const (
	dateOnlyLayout = "2006-01-02"
	localLayout    = "2006-01-02T15:04:05"
)

// REQUESTS START:
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateExpenseRequest struct {
	Amount   money.Money `json:"amount"`
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Note     string      `json:"note"`
}

// UpdateExpenseRequest leaves absent fields untouched.
type UpdateExpenseRequest struct {
	Amount   *money.Money `json:"amount"`
	Date     *string      `json:"date"`
	Category *string      `json:"category"`
	Note     *string      `json:"note"`
}

//REQUESTS END:

//RESPONSES:

type UserItem struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type AuthResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expiresAt"`
	User      UserItem `json:"user"`
}

type ExpenseItem struct {
	ID        string      `json:"id"`
	Amount    money.Money `json:"amount"`
	Date      string      `json:"date"`
	Category  string      `json:"category"`
	Note      string      `json:"note"`
	UserID    string      `json:"userId"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
}

type CategoryTotalItem struct {
	Category string      `json:"category"`
	Total    money.Money `json:"total"`
}

type MonthlySummaryResponse struct {
	Month      string              `json:"month"`
	TotalSpent money.Money         `json:"totalSpent"`
	Categories []CategoryTotalItem `json:"categories"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func httpStatusFromError(err error) int {
	switch appErrors.CodeOf(err) {
	case appErrors.ErrNotFound:
		return 404 // not found
	case appErrors.ErrInvalidInput:
		return 400 // bad request
	case appErrors.ErrAuth:
		return 401 // unauthorized
	case appErrors.ErrAccessDenied:
		return 403 // access denied
	case appErrors.ErrConflict:
		return 409 // conflict
	default:
		return 500 //internal error
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func UserToHttp(user auth.User) UserItem {
	return UserItem{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

func AuthResultToHttp(result expense.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     result.Token,
		ExpiresAt: formatTime(result.ExpiresAt),
		User:      UserToHttp(result.User),
	}
}

func ExpenseToHttp(e expense.Expense) ExpenseItem {
	return ExpenseItem{
		ID:        e.ID,
		Amount:    e.Amount,
		Date:      formatTime(e.Date),
		Category:  e.Category,
		Note:      e.Note,
		UserID:    e.OwnerID,
		CreatedAt: formatTime(e.CreatedAt),
		UpdatedAt: formatTime(e.UpdatedAt),
	}
}

func ExpensesToHttp(expenses []expense.Expense) []ExpenseItem {
	items := make([]ExpenseItem, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, ExpenseToHttp(e))
	}
	return items
}

func SummaryToHttp(summary expense.MonthlySummary) MonthlySummaryResponse {
	categories := make([]CategoryTotalItem, 0, len(summary.Categories))
	for _, c := range summary.Categories {
		categories = append(categories, CategoryTotalItem{Category: c.Category, Total: c.Total})
	}
	return MonthlySummaryResponse{
		Month:      summary.Month,
		TotalSpent: summary.TotalSpent,
		Categories: categories,
	}
}

// parseDate accepts RFC 3339 timestamps, a zone-less local timestamp
// (read as UTC), or a bare date. dateOnly reports the last form.
func parseDate(field string, value string) (t time.Time, dateOnly bool, err error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation(localLayout, value, time.UTC); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, value, time.UTC); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, appErrors.ErrorResponse{
		Code:    appErrors.ErrInvalidInput,
		Message: field + " must be a date (YYYY-MM-DD) or an RFC 3339 timestamp.",
	}
}

func (req CreateExpenseRequest) toDomain() (expense.CreateExpenseRequest, error) {
	if strings.TrimSpace(req.Date) == "" {
		return expense.CreateExpenseRequest{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "date is required.",
		}
	}
	date, _, err := parseDate("date", req.Date)
	if err != nil {
		return expense.CreateExpenseRequest{}, err
	}
	return expense.CreateExpenseRequest{
		Amount:   req.Amount,
		Date:     date,
		Category: req.Category,
		Note:     req.Note,
	}, nil
}

func (req UpdateExpenseRequest) toDomain() (expense.UpdateExpenseRequest, error) {
	update := expense.UpdateExpenseRequest{
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
	}
	if req.Date != nil {
		date, _, err := parseDate("date", *req.Date)
		if err != nil {
			return expense.UpdateExpenseRequest{}, err
		}
		update.Date = &date
	}
	return update, nil
}

// parseListQuery reads startDate, endDate and category. A bare endDate
// covers that whole day.
func parseListQuery(query url.Values) (expense.ListExpensesRequest, error) {
	var req expense.ListExpensesRequest

	if raw := query.Get("startDate"); raw != "" {
		start, _, err := parseDate("startDate", raw)
		if err != nil {
			return expense.ListExpensesRequest{}, err
		}
		req.StartDate = &start
	}
	if raw := query.Get("endDate"); raw != "" {
		end, dateOnly, err := parseDate("endDate", raw)
		if err != nil {
			return expense.ListExpensesRequest{}, err
		}
		if dateOnly {
			end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
		req.EndDate = &end
	}
	req.Category = strings.TrimSpace(query.Get("category"))
	return req, nil
}

func parseSummaryQuery(query url.Values) (year *int, month *int, err error) {
	year, err = optionalInt(query, "year")
	if err != nil {
		return nil, nil, err
	}
	month, err = optionalInt(query, "month")
	if err != nil {
		return nil, nil, err
	}
	return year, month, nil
}

func optionalInt(query url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: key + " must be an integer.",
		}
	}
	return &n, nil
}
