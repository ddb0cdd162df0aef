package expense

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mocks
type MockStorage struct {
	lastOwner  string
	lastFilter ListFilter
	listResult []Expense
	listErr    error
}

func (m *MockStorage) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	return auth.User{}, appErrors.ErrorResponse{Code: appErrors.ErrNotFound, Message: "user not found"}
}

func (m *MockStorage) FindUserByID(ctx context.Context, userID string) (auth.User, error) {
	return auth.User{ID: userID, Email: "john.doe@gmail.com"}, nil
}

func (m *MockStorage) CreateUser(ctx context.Context, user auth.User) error {
	return nil
}

func (m *MockStorage) FindExpenseByID(ctx context.Context, expenseID string) (Expense, error) {
	return Expense{}, errors.New("connection reset by peer")
}

func (m *MockStorage) ListExpensesForUser(ctx context.Context, ownerID string, filter ListFilter) ([]Expense, error) {
	m.lastOwner = ownerID
	m.lastFilter = filter
	return m.listResult, m.listErr
}

func (m *MockStorage) CreateExpense(ctx context.Context, expense Expense) error {
	return nil
}

func (m *MockStorage) UpdateExpense(ctx context.Context, expense Expense) error {
	return nil
}

func (m *MockStorage) DeleteExpense(ctx context.Context, ownerID string, expenseID string) error {
	return nil
}

func (m *MockStorage) GetStorageType() string {
	return "mock"
}

func newMockTracker(t *testing.T, s *MockStorage, loc *time.Location) *ExpenseTracker {
	t.Helper()
	now := func() time.Time { return time.Date(2025, 3, 1, 1, 30, 0, 0, time.UTC) }
	codec, err := auth.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour, now)
	require.NoError(t, err)
	return NewExpenseTracker(s, Options{Codec: codec, Location: loc, Now: now})
}

func TestMonthlySummaryQueriesWindowAscending(t *testing.T) {
	s := &MockStorage{
		listResult: []Expense{
			{Amount: money.FromCents(500), Category: "Rent"},
			{Amount: money.FromCents(250), Category: "Food"},
			{Amount: money.FromCents(250), Category: "Rent"},
		},
	}
	et := newMockTracker(t, s, time.UTC)
	principal := auth.Principal{UserID: "user-1"}
	year, month := 2024, 2

	summary, err := et.MonthlySummary(context.Background(), principal, &year, &month)
	require.NoError(t, err)

	assert.Equal(t, "user-1", s.lastOwner)
	assert.True(t, s.lastFilter.Ascending)
	require.NotNil(t, s.lastFilter.StartDate)
	require.NotNil(t, s.lastFilter.EndDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *s.lastFilter.StartDate)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999_000_000, time.UTC), *s.lastFilter.EndDate)

	assert.Equal(t, "2024-02", summary.Month)
	assert.Equal(t, int64(1000), summary.TotalSpent.Cents)
	assert.Equal(t, []CategoryTotal{
		{Category: "Rent", Total: money.FromCents(750)},
		{Category: "Food", Total: money.FromCents(250)},
	}, summary.Categories)
}

func TestMonthlySummaryUsesConfiguredLocation(t *testing.T) {
	baku, err := time.LoadLocation("Asia/Baku")
	require.NoError(t, err)
	s := &MockStorage{}
	et := newMockTracker(t, s, baku)

	// 01:30 UTC on March 1st is already 05:30 in Baku, still March there.
	summary, err := et.MonthlySummary(context.Background(), auth.Principal{UserID: "user-1"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", summary.Month)
	assert.Equal(t, time.Date(2025, 2, 28, 20, 0, 0, 0, time.UTC), *s.lastFilter.StartDate)
	assert.Equal(t, time.UTC, s.lastFilter.StartDate.Location())
}

func TestStorageFailuresSurfaceAsInternal(t *testing.T) {
	s := &MockStorage{listErr: appErrors.ErrorResponse{Code: appErrors.ErrInternal, Message: "Failed to get expenses, try again later."}}
	et := newMockTracker(t, s, time.UTC)
	principal := auth.Principal{UserID: "user-1"}

	_, err := et.MonthlySummary(context.Background(), principal, nil, nil)
	assert.Equal(t, appErrors.ErrInternal, appErrors.CodeOf(err))

	_, err = et.RecentExpenses(context.Background(), principal)
	assert.Equal(t, appErrors.ErrInternal, appErrors.CodeOf(err))
	assert.Equal(t, RECENT_EXPENSES_LIMIT, s.lastFilter.Limit)
	assert.False(t, s.lastFilter.Ascending)

	_, err = et.GetExpense(context.Background(), principal, "expense-1")
	assert.Equal(t, appErrors.ErrInternal, appErrors.CodeOf(err))
}

func TestAuthResultExpiryMatchesToken(t *testing.T) {
	codecNow := time.Date(2025, 1, 15, 12, 0, 0, 600_000_000, time.UTC)
	codec, err := auth.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour, func() time.Time { return codecNow })
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(4)
	require.NoError(t, err)
	et := NewExpenseTracker(&MockStorage{}, Options{
		Hasher: hasher,
		Codec:  codec,
		Now:    func() time.Time { return time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC) },
	})

	result, err := et.Register(context.Background(), auth.NewUser{Email: "john.doe@gmail.com", PasswordPlain: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC), result.ExpiresAt)
}

type unreachableStorage struct {
	MockStorage
}

func (u *unreachableStorage) Ping(ctx context.Context) error {
	return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

func TestCheckStorage(t *testing.T) {
	et := NewExpenseTracker(&MockStorage{}, Options{})
	assert.NoError(t, et.CheckStorage(context.Background()))

	et = NewExpenseTracker(&unreachableStorage{}, Options{})
	err := et.CheckStorage(context.Background())
	assert.Equal(t, appErrors.ErrInternal, appErrors.CodeOf(err))
	assert.Equal(t, ErrStorageUnavailable, err)
}
