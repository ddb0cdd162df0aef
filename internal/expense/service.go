package expense

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/expense_tracker/internal/money"
	"github.com/fatali-fataliyev/expense_tracker/logging"
	"github.com/google/uuid"
)

const (
	MAX_EXPENSE_CATEGORY_LENGTH = 255
	MAX_EXPENSE_NOTE_LENGTH     = 1000
	RECENT_EXPENSES_LIMIT       = 5
)

var ErrInvalidCredentials = appErrors.ErrorResponse{
	Code:    appErrors.ErrAuth,
	Message: "Invalid credentials.",
}

type Storage interface {
	FindUserByEmail(ctx context.Context, email string) (auth.User, error)
	FindUserByID(ctx context.Context, userID string) (auth.User, error)
	CreateUser(ctx context.Context, user auth.User) error
	FindExpenseByID(ctx context.Context, expenseID string) (Expense, error)
	ListExpensesForUser(ctx context.Context, ownerID string, filter ListFilter) ([]Expense, error)
	CreateExpense(ctx context.Context, expense Expense) error
	UpdateExpense(ctx context.Context, expense Expense) error
	DeleteExpense(ctx context.Context, ownerID string, expenseID string) error
	GetStorageType() string
}

// pinger is implemented by stores that can report their connection health.
type pinger interface {
	Ping(ctx context.Context) error
}

var ErrStorageUnavailable = appErrors.ErrorResponse{
	Code:    appErrors.ErrInternal,
	Message: "Storage is unavailable.",
}

type Options struct {
	Hasher   *auth.PasswordHasher
	Codec    *auth.TokenCodec
	Location *time.Location
	Now      func() time.Time
}

type ExpenseTracker struct {
	storage     Storage
	StorageType string
	hasher      *auth.PasswordHasher
	codec       *auth.TokenCodec
	gate        auth.Gate
	location    *time.Location
	now         func() time.Time
}

func NewExpenseTracker(s Storage, opts Options) *ExpenseTracker {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ExpenseTracker{
		storage:     s,
		StorageType: s.GetStorageType(),
		hasher:      opts.Hasher,
		codec:       opts.Codec,
		gate:        auth.NewGate(opts.Codec),
		location:    opts.Location,
		now:         opts.Now,
	}
}

// Register creates the account and signs the new user in.
func (et *ExpenseTracker) Register(ctx context.Context, newUser auth.NewUser) (AuthResult, error) {
	if err := newUser.ValidateUserFields(); err != nil {
		return AuthResult{}, err
	}

	_, err := et.storage.FindUserByEmail(ctx, newUser.Email)
	if err == nil {
		return AuthResult{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrConflict,
			Message: fmt.Sprintf("this '%s' email address already taken, try to register with another email.", newUser.Email),
		}
	}
	if !appErrors.IsCode(err, appErrors.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("failed to check email availability: %w", err)
	}

	hashedPassword, err := et.hasher.Hash(newUser.PasswordPlain)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := auth.User{
		ID:             uuid.New().String(),
		Email:          newUser.Email,
		Name:           CapitalizeFullName(newUser.Name),
		PasswordHashed: hashedPassword,
		CreatedAt:      et.timestamp(),
	}
	if err := et.storage.CreateUser(ctx, user); err != nil {
		return AuthResult{}, fmt.Errorf("failed to registration: %w", err)
	}

	return et.issue(user)
}

// Login never tells the caller whether the email or the password was wrong.
func (et *ExpenseTracker) Login(ctx context.Context, credentials auth.UserCredentialsPure) (AuthResult, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	if err := credentials.Validate(); err != nil {
		return AuthResult{}, err
	}

	user, err := et.storage.FindUserByEmail(ctx, credentials.Email)
	if err != nil {
		if appErrors.IsCode(err, appErrors.ErrNotFound) {
			et.hasher.CompareDummy(credentials.PasswordPlain)
			logging.Logger.Debugf("[TraceID=%s] | login for unknown email", traceID)
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("failed to find user: %w", err)
	}

	if !et.hasher.Compare(user.PasswordHashed, credentials.PasswordPlain) {
		logging.Logger.Debugf("[TraceID=%s] | login with wrong password for user %s", traceID, user.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	return et.issue(user)
}

// CheckStorage pings the store if it supports it.
func (et *ExpenseTracker) CheckStorage(ctx context.Context) error {
	p, ok := et.storage.(pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Errorf("[TraceID=%s] | storage ping failed | Error: %v", traceID, err)
		return ErrStorageUnavailable
	}
	return nil
}

func (et *ExpenseTracker) Authenticate(authorizationHeader string) (auth.Principal, error) {
	return et.gate.Authenticate(authorizationHeader)
}

func (et *ExpenseTracker) Profile(ctx context.Context, principal auth.Principal) (auth.User, error) {
	user, err := et.storage.FindUserByID(ctx, principal.UserID)
	if err != nil {
		return auth.User{}, fmt.Errorf("failed to get user profile: %w", err)
	}
	return user, nil
}

func (et *ExpenseTracker) CreateExpense(ctx context.Context, principal auth.Principal, req CreateExpenseRequest) (Expense, error) {
	req.Category = strings.TrimSpace(req.Category)
	if err := validateAmount(req.Amount); err != nil {
		return Expense{}, err
	}
	if req.Date.IsZero() {
		return Expense{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Date is required.",
		}
	}
	if err := validateCategory(req.Category); err != nil {
		return Expense{}, err
	}
	if err := validateNote(req.Note); err != nil {
		return Expense{}, err
	}

	now := et.timestamp()
	expense := Expense{
		ID:        uuid.New().String(),
		Amount:    req.Amount,
		Date:      normalizeTime(req.Date),
		Category:  req.Category,
		Note:      req.Note,
		OwnerID:   principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := et.storage.CreateExpense(ctx, expense); err != nil {
		return Expense{}, fmt.Errorf("failed to save expense: %w", err)
	}
	return expense, nil
}

// ListExpenses returns the principal's expenses, newest first.
func (et *ExpenseTracker) ListExpenses(ctx context.Context, principal auth.Principal, req ListExpensesRequest) ([]Expense, error) {
	filter := ListFilter{Category: strings.TrimSpace(req.Category)}
	if req.StartDate != nil {
		start := normalizeTime(*req.StartDate)
		filter.StartDate = &start
	}
	if req.EndDate != nil {
		end := normalizeTime(*req.EndDate)
		filter.EndDate = &end
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Start date cannot be after end date.",
		}
	}

	expenses, err := et.storage.ListExpensesForUser(ctx, principal.UserID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	return expenses, nil
}

func (et *ExpenseTracker) RecentExpenses(ctx context.Context, principal auth.Principal) ([]Expense, error) {
	expenses, err := et.storage.ListExpensesForUser(ctx, principal.UserID, ListFilter{Limit: RECENT_EXPENSES_LIMIT})
	if err != nil {
		return nil, fmt.Errorf("failed to get recent expenses: %w", err)
	}
	return expenses, nil
}

func (et *ExpenseTracker) GetExpense(ctx context.Context, principal auth.Principal, expenseID string) (Expense, error) {
	return et.ownedExpense(ctx, principal, expenseID)
}

func (et *ExpenseTracker) UpdateExpense(ctx context.Context, principal auth.Principal, expenseID string, req UpdateExpenseRequest) (Expense, error) {
	if req.Amount != nil {
		if err := validateAmount(*req.Amount); err != nil {
			return Expense{}, err
		}
	}
	if req.Date != nil && req.Date.IsZero() {
		return Expense{}, appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Date cannot be empty.",
		}
	}
	if req.Category != nil {
		trimmed := strings.TrimSpace(*req.Category)
		if err := validateCategory(trimmed); err != nil {
			return Expense{}, err
		}
		req.Category = &trimmed
	}
	if req.Note != nil {
		if err := validateNote(*req.Note); err != nil {
			return Expense{}, err
		}
	}

	expense, err := et.ownedExpense(ctx, principal, expenseID)
	if err != nil {
		return Expense{}, err
	}

	if req.Amount != nil {
		expense.Amount = *req.Amount
	}
	if req.Date != nil {
		expense.Date = normalizeTime(*req.Date)
	}
	if req.Category != nil {
		expense.Category = *req.Category
	}
	if req.Note != nil {
		expense.Note = *req.Note
	}
	expense.UpdatedAt = et.timestamp()

	if err := et.storage.UpdateExpense(ctx, expense); err != nil {
		return Expense{}, fmt.Errorf("failed to update expense: %w", err)
	}
	return expense, nil
}

func (et *ExpenseTracker) DeleteExpense(ctx context.Context, principal auth.Principal, expenseID string) error {
	if _, err := et.ownedExpense(ctx, principal, expenseID); err != nil {
		return err
	}
	if err := et.storage.DeleteExpense(ctx, principal.UserID, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// MonthlySummary aggregates the principal's expenses for one calendar month.
// A nil year or month means the current one in the configured location.
func (et *ExpenseTracker) MonthlySummary(ctx context.Context, principal auth.Principal, year, month *int) (MonthlySummary, error) {
	y, m, err := resolvePeriod(et.now().In(et.location), year, month)
	if err != nil {
		return MonthlySummary{}, err
	}

	start, end := MonthWindow(y, m, et.location)
	start, end = start.UTC(), end.UTC()

	expenses, err := et.storage.ListExpensesForUser(ctx, principal.UserID, ListFilter{
		StartDate: &start,
		EndDate:   &end,
		Ascending: true,
	})
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("failed to get expenses for summary: %w", err)
	}

	summary, err := Summarize(MonthLabel(y, m), expenses)
	if err != nil {
		traceID := contextutil.TraceIDFromContext(ctx)
		logging.Logger.Errorf("[TraceID=%s] | failed to summarize %d expenses for user %s | Error: %v", traceID, len(expenses), principal.UserID, err)
		return MonthlySummary{}, err
	}
	return summary, nil
}

func (et *ExpenseTracker) ownedExpense(ctx context.Context, principal auth.Principal, expenseID string) (Expense, error) {
	expense, err := et.storage.FindExpenseByID(ctx, strings.TrimSpace(expenseID))
	if err != nil {
		if appErrors.IsCode(err, appErrors.ErrNotFound) {
			return Expense{}, Authorize(nil, principal)
		}
		return Expense{}, fmt.Errorf("failed to get expense: %w", err)
	}
	if err := Authorize(&expense, principal); err != nil {
		return Expense{}, err
	}
	return expense, nil
}

func (et *ExpenseTracker) issue(user auth.User) (AuthResult, error) {
	token, expiresAt, err := et.codec.Issue(auth.Principal{UserID: user.ID, Email: user.Email})
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to generate session: %w", err)
	}
	return AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func (et *ExpenseTracker) timestamp() time.Time {
	return normalizeTime(et.now())
}

// normalizeTime is the precision every store keeps.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func validateAmount(amount money.Money) error {
	if !amount.IsPositive() {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Amount must be greater than 0.",
		}
	}
	if amount.IsAboveMax() {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Amount cannot exceed %s.", money.FromCents(money.MAX_CENTS)),
		}
	}
	return nil
}

func validateCategory(category string) error {
	if category == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Category is required.",
		}
	}
	if len(category) > MAX_EXPENSE_CATEGORY_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Category so long, maximum length is %d", MAX_EXPENSE_CATEGORY_LENGTH),
		}
	}
	return nil
}

func validateNote(note string) error {
	if len(note) > MAX_EXPENSE_NOTE_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Note so long, maximum allowed length is: %d", MAX_EXPENSE_NOTE_LENGTH),
		}
	}
	return nil
}

func CapitalizeFullName(name string) string {
	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
