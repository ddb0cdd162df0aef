package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fatali-fataliyev/expense_tracker/internal/auth"
	"github.com/fatali-fataliyev/expense_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/expense_tracker/internal/expense"
	"github.com/fatali-fataliyev/expense_tracker/internal/money"
	"github.com/fatali-fataliyev/expense_tracker/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	StorageTypePostgres = "postgres"
	pgUniqueViolation   = "23505"
	pgForeignKeyMissing = "23503"
)

var dollarDialect = queryDialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	timeValue:   func(t time.Time) any { return t.UTC() },
}

// PostgresStorage runs on a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// OpenPostgres applies migrations, then connects the pool.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStorage, error) {
	logging.Logger.Info("Running migrations...")
	if err := RunMigrations(StorageTypePostgres, dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logging.Logger.Info("Connected to database successfully")

	return NewPostgresStorage(pool), nil
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (pg *PostgresStorage) GetStorageType() string {
	return StorageTypePostgres
}

func (pg *PostgresStorage) Close() error {
	pg.pool.Close()
	return nil
}

func (pg *PostgresStorage) Ping(ctx context.Context) error {
	return pg.pool.Ping(ctx)
}

func (pg *PostgresStorage) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	return pg.findUser(ctx, "FindUserByEmail", "email", email)
}

func (pg *PostgresStorage) FindUserByID(ctx context.Context, userID string) (auth.User, error) {
	return pg.findUser(ctx, "FindUserByID", "id", userID)
}

func (pg *PostgresStorage) findUser(ctx context.Context, caller string, column string, value string) (auth.User, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = $1"
	var user auth.User
	err := pg.pool.QueryRow(ctx, query, value).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHashed, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, errUserNotFound
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to get user in Storage.%s() function | Error: %v", traceID, caller, err)
		return auth.User{}, internalError("Failed to get user, try again later.")
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (pg *PostgresStorage) CreateUser(ctx context.Context, user auth.User) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	err := pgx.BeginFunc(ctx, pg.pool, func(tx pgx.Tx) error {
		query := "INSERT INTO users (" + userColumns + ") VALUES ($1, $2, $3, $4, $5)"
		_, err := tx.Exec(ctx, query, user.ID, user.Email, user.Name, user.PasswordHashed, user.CreatedAt.UTC())
		return err
	})
	if err != nil {
		if isPgUnique(err) {
			return errEmailTaken
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save user Storage.CreateUser(), Error: %v", traceID, err)
		return internalError("Registration failed, try again later.")
	}
	return nil
}

func (pg *PostgresStorage) FindExpenseByID(ctx context.Context, expenseID string) (expense.Expense, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query := "SELECT " + expenseColumns + " FROM expenses WHERE id = $1"
	e, err := scanPgExpense(pg.pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return expense.Expense{}, errExpenseNotFound
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to scan row in Storage.FindExpenseByID() function | Error: %v", traceID, err)
		return expense.Expense{}, internalError("Failed to get expense, try again later.")
	}
	return e, nil
}

func (pg *PostgresStorage) ListExpensesForUser(ctx context.Context, ownerID string, filter expense.ListFilter) ([]expense.Expense, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	query, args := buildListQuery(ownerID, filter, dollarDialect)
	rows, err := pg.pool.Query(ctx, query, args...)
	if err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to get expenses from Storage.ListExpensesForUser() function | Error: %v", traceID, err)
		return nil, internalError("Failed to get expenses, try again later.")
	}
	defer rows.Close()

	expenses := []expense.Expense{}
	for rows.Next() {
		e, err := scanPgExpense(rows)
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

func (pg *PostgresStorage) CreateExpense(ctx context.Context, e expense.Expense) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	err := pgx.BeginFunc(ctx, pg.pool, func(tx pgx.Tx) error {
		query := "INSERT INTO expenses (" + expenseColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
		_, err := tx.Exec(ctx, query,
			e.ID, e.OwnerID, e.Amount.Cents, e.Date.UTC(), e.Category, e.Note, e.CreatedAt.UTC(), e.UpdatedAt.UTC())
		return err
	})
	if err != nil {
		if isPgCode(err, pgForeignKeyMissing) {
			return errOwnerNotFound
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to save expense in Storage.CreateExpense() function | Error: %v", traceID, err)
		return internalError("Failed to save expense, try again later.")
	}
	return nil
}

func (pg *PostgresStorage) UpdateExpense(ctx context.Context, e expense.Expense) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	err := pgx.BeginFunc(ctx, pg.pool, func(tx pgx.Tx) error {
		query := "UPDATE expenses SET amount_cents = $1, spent_at = $2, category = $3, note = $4, updated_at = $5 WHERE id = $6 AND user_id = $7"
		tag, err := tx.Exec(ctx, query, e.Amount.Cents, e.Date.UTC(), e.Category, e.Note, e.UpdatedAt.UTC(), e.ID, e.OwnerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errExpenseNotFound
		}
		return nil
	})
	return pg.mutationError(traceID, "UpdateExpense", "Failed to update expense, try again later.", err)
}

func (pg *PostgresStorage) DeleteExpense(ctx context.Context, ownerID string, expenseID string) error {
	traceID := contextutil.TraceIDFromContext(ctx)

	err := pgx.BeginFunc(ctx, pg.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM expenses WHERE id = $1 AND user_id = $2", expenseID, ownerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errExpenseNotFound
		}
		return nil
	})
	return pg.mutationError(traceID, "DeleteExpense", "Failed to delete expense, try again later.", err)
}

func (pg *PostgresStorage) mutationError(traceID string, caller string, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errExpenseNotFound) {
		return errExpenseNotFound
	}
	logging.Logger.Errorf("[TraceID=%s] | failed in Storage.%s() function | Error: %v", traceID, caller, err)
	return internalError(message)
}

func scanPgExpense(row pgx.Row) (expense.Expense, error) {
	var e expense.Expense
	var cents int64
	err := row.Scan(&e.ID, &e.OwnerID, &cents, &e.Date, &e.Category, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return expense.Expense{}, err
	}
	e.Amount = money.FromCents(cents)
	e.Date = e.Date.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func isPgUnique(err error) bool {
	return isPgCode(err, pgUniqueViolation)
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
