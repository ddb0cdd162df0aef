package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
	"github.com/fatali-fataliyev/expense_tracker/logging"
)

const (
	StorageTypeMySQL  = "mysql"
	StorageTypeSQLite = "sqlite"
)

const (
	userColumns    = "id, email, name, password_hash, created_at"
	expenseColumns = "id, user_id, amount_cents, spent_at, category, note, created_at, updated_at"
)

// SQLStorage serves MySQL and SQLite through database/sql. Both accept "?"
// placeholders, so the only dialect difference is how constraint violations
// are reported.
type SQLStorage struct {
	db                    *sql.DB
	storageType           string
	isUniqueViolation     func(error) bool
	isForeignKeyViolation func(error) bool
}

func (s *SQLStorage) GetStorageType() string {
	return s.storageType
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStorage) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.findUser(ctx, "FindUserByEmail", "email", email)
}

func (s *SQLStorage) FindUserByID(ctx context.Context, userID string) (auth.User, error) {
	return s.findUser(ctx, "FindUserByID", "id", userID)
}

func (s *SQLStorage) findUser(ctx context.Context, caller string, column string, value string) (auth.User, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = ?;"
	var u dbUser
	err := s.db.QueryRowContext(ctx, query, value).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, errUserNotFound
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to get user in Storage.%s() function | Error: %v", traceID, caller, err)
		return auth.User{}, internalError("Failed to get user, try again later.")
	}
	return u.toUser(), nil
}

func (s *SQLStorage) CreateUser(ctx context.Context, user auth.User) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to start SQL transaction in Storage.CreateUser() function | Error: %v", traceID, err)
		return internalError("Registration failed, try again later.")
	}
	defer tx.Rollback()

	query := "INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?);"
	_, err = tx.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.PasswordHashed, dbTime{user.CreatedAt})
	if err != nil {
		if s.isUniqueViolation(err) {
			return errEmailTaken
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save user Storage.CreateUser(), Error: %v", traceID, err)
		return internalError("Registration failed, try again later.")
	}

	if err := tx.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit SQL transaction in Storage.CreateUser() function | Error: %v", traceID, err)
		return internalError("Registration failed, try again later.")
	}
	return nil
}

func (s *SQLStorage) FindExpenseByID(ctx context.Context, expenseID string) (expense.Expense, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT " + expenseColumns + " FROM expenses WHERE id = ?;"
	row := s.db.QueryRowContext(ctx, query, expenseID)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return expense.Expense{}, errExpenseNotFound
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to scan row in Storage.FindExpenseByID() function | Error: %v", traceID, err)
		return expense.Expense{}, internalError("Failed to get expense, try again later.")
	}
	return e, nil
}

func (s *SQLStorage) ListExpensesForUser(ctx context.Context, ownerID string, filter expense.ListFilter) ([]expense.Expense, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query, args := buildListQuery(ownerID, filter, questionMarkDialect)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get expenses from Storage.ListExpensesForUser() function | Error: %v", traceID, err)
		return nil, internalError("Failed to get expenses, try again later.")
	}
	defer rows.Close()

	expenses := []expense.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			logging.Logger.Errorf("[TraceID=%s] | failed to scan row in Storage.ListExpensesForUser() | Error: %v", traceID, err)
			return nil, internalError("Failed to process expenses, try again later.")
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to iterate rows in Storage.ListExpensesForUser() | Error: %v", traceID, err)
		return nil, internalError("Failed to process expenses, try again later.")
	}
	return expenses, nil
}

func (s *SQLStorage) CreateExpense(ctx context.Context, e expense.Expense) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to start SQL transaction in Storage.CreateExpense() function | Error: %v", traceID, err)
		return internalError("Failed to save expense, try again later.")
	}
	defer tx.Rollback()

	query := "INSERT INTO expenses (" + expenseColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?);"
	_, err = tx.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.Amount.Cents, dbTime{e.Date}, e.Category, e.Note, dbTime{e.CreatedAt}, dbTime{e.UpdatedAt})
	if err != nil {
		if s.isForeignKeyViolation(err) {
			return errOwnerNotFound
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save expense in Storage.CreateExpense() function | Error: %v", traceID, err)
		return internalError("Failed to save expense, try again later.")
	}

	if err := tx.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit SQL transaction in Storage.CreateExpense() function | Error: %v", traceID, err)
		return internalError("Failed to save expense, try again later.")
	}
	return nil
}

func (s *SQLStorage) UpdateExpense(ctx context.Context, e expense.Expense) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to start SQL transaction in Storage.UpdateExpense() function | Error: %v", traceID, err)
		return internalError("Failed to update expense, try again later.")
	}
	defer tx.Rollback()

	query := "UPDATE expenses SET amount_cents = ?, spent_at = ?, category = ?, note = ?, updated_at = ? WHERE id = ? AND user_id = ?;"
	result, err := tx.ExecContext(ctx, query,
		e.Amount.Cents, dbTime{e.Date}, e.Category, e.Note, dbTime{e.UpdatedAt}, e.ID, e.OwnerID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to update expense in Storage.UpdateExpense() function | Error: %v", traceID, err)
		return internalError("Failed to update expense, try again later.")
	}
	if err := s.requireOneRow(traceID, "UpdateExpense", result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit SQL transaction in Storage.UpdateExpense() function | Error: %v", traceID, err)
		return internalError("Failed to update expense, try again later.")
	}
	return nil
}

func (s *SQLStorage) DeleteExpense(ctx context.Context, ownerID string, expenseID string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to start SQL transaction in Storage.DeleteExpense() function | Error: %v", traceID, err)
		return internalError("Failed to delete expense, try again later.")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?;", expenseID, ownerID)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to delete expense in Storage.DeleteExpense() function | Error: %v", traceID, err)
		return internalError("Failed to delete expense, try again later.")
	}
	if err := s.requireOneRow(traceID, "DeleteExpense", result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to commit SQL transaction in Storage.DeleteExpense() function | Error: %v", traceID, err)
		return internalError("Failed to delete expense, try again later.")
	}
	return nil
}

func (s *SQLStorage) requireOneRow(traceID string, caller string, result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to check affected rows in Storage.%s() function | Error: %v", traceID, caller, err)
		return internalError("Failed to save changes, try again later.")
	}
	if rowsAffected == 0 {
		return errExpenseNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (expense.Expense, error) {
	var e dbExpense
	err := row.Scan(&e.ID, &e.OwnerID, &e.AmountCents, &e.SpentAt, &e.Category, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return expense.Expense{}, err
	}
	return e.toExpense(), nil
}

// queryDialect is what differs between the drivers when rendering a query.
type queryDialect struct {
	// placeholder returns the bind marker for the n-th argument (1-based).
	placeholder func(n int) string
	timeValue   func(t time.Time) any
}

var questionMarkDialect = queryDialect{
	placeholder: func(int) string { return "?" },
	timeValue:   func(t time.Time) any { return dbTime{t} },
}

func buildListQuery(ownerID string, filter expense.ListFilter, d queryDialect) (string, []any) {
	var b strings.Builder
	args := []any{ownerID}

	b.WriteString("SELECT " + expenseColumns + " FROM expenses WHERE user_id = " + d.placeholder(1))

	bind := func(clause string, arg any) {
		args = append(args, arg)
		b.WriteString(clause + d.placeholder(len(args)))
	}
	if filter.StartDate != nil {
		bind(" AND spent_at >= ", d.timeValue(*filter.StartDate))
	}
	if filter.EndDate != nil {
		bind(" AND spent_at <= ", d.timeValue(*filter.EndDate))
	}
	if filter.Category != "" {
		bind(" AND category = ", filter.Category)
	}

	if filter.Ascending {
		b.WriteString(" ORDER BY spent_at ASC, created_at ASC, id ASC")
	} else {
		b.WriteString(" ORDER BY spent_at DESC, created_at DESC, id DESC")
	}
	if filter.Limit > 0 {
		bind(" LIMIT ", filter.Limit)
	}
	return b.String(), args
}
