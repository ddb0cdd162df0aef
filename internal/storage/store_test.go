package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
	"github.com/fatali-fataliyev/expense_tracker/internal/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreSuite runs the same behaviour checks against every backend that can
// run without an external server.
type StoreSuite struct {
	suite.Suite
	open  func(t *testing.T) Backend
	store Backend
	ctx   context.Context
}

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) Backend {
		return NewInMemoryStorage()
	}})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) Backend {
		store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "expenses.db"))
		require.NoError(t, err)
		return store
	}})
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.open(s.T())
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
}

func (s *StoreSuite) newUser(email string) auth.User {
	user := auth.User{
		ID:             uuid.New().String(),
		Email:          email,
		Name:           "John Doe",
		PasswordHashed: "$2a$04$placeholder",
		CreatedAt:      time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.store.CreateUser(s.ctx, user))
	return user
}

func (s *StoreSuite) newExpense(owner string, cents int64, category string, date time.Time) expense.Expense {
	e := expense.Expense{
		ID:        uuid.New().String(),
		Amount:    money.FromCents(cents),
		Date:      date,
		Category:  category,
		Note:      "note",
		OwnerID:   owner,
		CreatedAt: date,
		UpdatedAt: date,
	}
	s.Require().NoError(s.store.CreateExpense(s.ctx, e))
	return e
}

func (s *StoreSuite) TestUserRoundTrip() {
	user := s.newUser("john.doe@gmail.com")

	byEmail, err := s.store.FindUserByEmail(s.ctx, "john.doe@gmail.com")
	s.Require().NoError(err)
	s.Equal(user, byEmail)

	byID, err := s.store.FindUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user, byID)
}

func (s *StoreSuite) TestUserNotFound() {
	_, err := s.store.FindUserByEmail(s.ctx, "nobody@gmail.com")
	s.Equal(appErrors.ErrNotFound, appErrors.CodeOf(err))

	_, err = s.store.FindUserByID(s.ctx, uuid.New().String())
	s.Equal(appErrors.ErrNotFound, appErrors.CodeOf(err))
}

func (s *StoreSuite) TestDuplicateEmailIsConflict() {
	s.newUser("john.doe@gmail.com")

	err := s.store.CreateUser(s.ctx, auth.User{
		ID:             uuid.New().String(),
		Email:          "john.doe@gmail.com",
		PasswordHashed: "x",
		CreatedAt:      time.Now().UTC(),
	})
	s.Equal(appErrors.ErrConflict, appErrors.CodeOf(err))
}

func (s *StoreSuite) TestEmailIsCaseSensitive() {
	s.newUser("john.doe@gmail.com")

	_, err := s.store.FindUserByEmail(s.ctx, "John.Doe@gmail.com")
	s.Equal(appErrors.ErrNotFound, appErrors.CodeOf(err))
}

func (s *StoreSuite) TestExpenseRoundTrip() {
	user := s.newUser("john.doe@gmail.com")
	created := s.newExpense(user.ID, 4550, "Food", time.Date(2025, 1, 15, 10, 30, 0, 123_000_000, time.UTC))

	found, err := s.store.FindExpenseByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created, found)
}

func (s *StoreSuite) TestExpenseNotFound() {
	_, err := s.store.FindExpenseByID(s.ctx, uuid.New().String())
	s.Equal(appErrors.ErrNotFound, appErrors.CodeOf(err))
}

func (s *StoreSuite) TestCreateExpenseForMissingOwner() {
	err := s.store.CreateExpense(s.ctx, expense.Expense{
		ID:        uuid.New().String(),
		Amount:    money.FromCents(100),
		Date:      time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		Category:  "Food",
		OwnerID:   uuid.New().String(),
		CreatedAt: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	})
	s.Equal(appErrors.ErrInvalidInput, appErrors.CodeOf(err))
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.Error(s.store.Ping(ctx))
}

func (s *StoreSuite) TestListOrderingAndFilters() {
	alice := s.newUser("alice@gmail.com")
	bob := s.newUser("bob@gmail.com")

	jan10 := s.newExpense(alice.ID, 1000, "Food", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	jan20 := s.newExpense(alice.ID, 2000, "Transportation", time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC))
	feb01 := s.newExpense(alice.ID, 3000, "Food", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	s.newExpense(bob.ID, 9999, "Food", time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC))

	all, err := s.store.ListExpensesForUser(s.ctx, alice.ID, expense.ListFilter{})
	s.Require().NoError(err)
	s.Equal([]string{feb01.ID, jan20.ID, jan10.ID}, ids(all))

	asc, err := s.store.ListExpensesForUser(s.ctx, alice.ID, expense.ListFilter{Ascending: true})
	s.Require().NoError(err)
	s.Equal([]string{jan10.ID, jan20.ID, feb01.ID}, ids(asc))

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 59, 59, 999_000_000, time.UTC)
	january, err := s.store.ListExpensesForUser(s.ctx, alice.ID, expense.ListFilter{StartDate: &start, EndDate: &end})
	s.Require().NoError(err)
	s.Equal([]string{jan20.ID, jan10.ID}, ids(january))

	food, err := s.store.ListExpensesForUser(s.ctx, alice.ID, expense.ListFilter{Category: "Food"})
	s.Require().NoError(err)
	s.Equal([]string{feb01.ID, jan10.ID}, ids(food))

	limited, err := s.store.ListExpensesForUser(s.ctx, alice.ID, expense.ListFilter{Limit: 2})
	s.Require().NoError(err)
	s.Equal([]string{feb01.ID, jan20.ID}, ids(limited))

	none, err := s.store.ListExpensesForUser(s.ctx, uuid.New().String(), expense.ListFilter{})
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *StoreSuite) TestWindowBoundsAreInclusive() {
	user := s.newUser("john.doe@gmail.com")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 59, 59, 999_000_000, time.UTC)

	first := s.newExpense(user.ID, 100, "Food", start)
	last := s.newExpense(user.ID, 200, "Food", end)
	s.newExpense(user.ID, 300, "Food", start.Add(-time.Millisecond))
	s.newExpense(user.ID, 400, "Food", end.Add(time.Millisecond))

	got, err := s.store.ListExpensesForUser(s.ctx, user.ID, expense.ListFilter{StartDate: &start, EndDate: &end, Ascending: true})
	s.Require().NoError(err)
	s.Equal([]string{first.ID, last.ID}, ids(got))
}

func (s *StoreSuite) TestUpdateExpense() {
	user := s.newUser("john.doe@gmail.com")
	e := s.newExpense(user.ID, 1000, "Food", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))

	e.Amount = money.FromCents(1234)
	e.Category = "Groceries"
	e.Note = ""
	e.UpdatedAt = time.Date(2025, 1, 11, 8, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.UpdateExpense(s.ctx, e))

	found, err := s.store.FindExpenseByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e, found)
}

func (s *StoreSuite) TestUpdateAndDeleteAreOwnerScoped() {
	alice := s.newUser("alice@gmail.com")
	bob := s.newUser("bob@gmail.com")
	e := s.newExpense(alice.ID, 1000, "Food", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))

	hijacked := e
	hijacked.OwnerID = bob.ID
	hijacked.Amount = money.FromCents(1)
	s.Equal(appErrors.ErrNotFound, appErrors.CodeOf(s.store.UpdateExpense(s.ctx, hijacked)))
	s.Equal(appErrors.ErrNotFound, appErrors.CodeOf(s.store.DeleteExpense(s.ctx, bob.ID, e.ID)))

	found, err := s.store.FindExpenseByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e, found)
}

func (s *StoreSuite) TestDeleteExpense() {
	user := s.newUser("john.doe@gmail.com")
	e := s.newExpense(user.ID, 1000, "Food", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))

	s.Require().NoError(s.store.DeleteExpense(s.ctx, user.ID, e.ID))

	_, err := s.store.FindExpenseByID(s.ctx, e.ID)
	s.Equal(appErrors.ErrNotFound, appErrors.CodeOf(err))
	s.Equal(appErrors.ErrNotFound, appErrors.CodeOf(s.store.DeleteExpense(s.ctx, user.ID, e.ID)))
}

func (s *StoreSuite) TestCancelledContextWritesNothing() {
	user := s.newUser("john.doe@gmail.com")

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	err := s.store.CreateExpense(ctx, expense.Expense{
		ID:        uuid.New().String(),
		Amount:    money.FromCents(100),
		Date:      time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		Category:  "Food",
		OwnerID:   user.ID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	s.Error(err)

	all, err := s.store.ListExpensesForUser(s.ctx, user.ID, expense.ListFilter{})
	s.Require().NoError(err)
	s.Empty(all)
}

func ids(expenses []expense.Expense) []string {
	out := make([]string, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, e.ID)
	}
	return out
}
