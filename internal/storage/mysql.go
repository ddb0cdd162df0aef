package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fatali-fataliyev/expense_tracker/logging"
	"github.com/go-sql-driver/mysql"
)

const (
	DEFAULT_MYSQL_DATABASE = "expense_tracker"
	mysqlDuplicateEntry    = 1062
	mysqlNoReferencedRow   = 1452
	pingAttempts           = 15
	pingInterval           = 3 * time.Second
)

// OpenMySQL creates the database if it is missing, waits for the server,
// applies migrations and returns a ready store.
func OpenMySQL(ctx context.Context, dsn string) (*SQLStorage, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		cfg.DBName = DEFAULT_MYSQL_DATABASE
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true

	if err := ensureMySQLDatabase(ctx, *cfg); err != nil {
		return nil, err
	}

	finalDsn := cfg.FormatDSN()
	logging.Logger.Info("Connecting to database...")
	db, err := sql.Open("mysql", finalDsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logging.Logger.Info("Connected to database successfully")

	logging.Logger.Info("Running migrations...")
	if err := RunMigrations(StorageTypeMySQL, finalDsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewMySQLStorage(db), nil
}

func NewMySQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{
		db:                    db,
		storageType:           StorageTypeMySQL,
		isUniqueViolation:     isMySQLDuplicate,
		isForeignKeyViolation: isMySQLMissingParent,
	}
}

func isMySQLDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func isMySQLMissingParent(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlNoReferencedRow
}

func ensureMySQLDatabase(ctx context.Context, cfg mysql.Config) error {
	dbname := cfg.DBName
	cfg.DBName = ""

	logging.Logger.Info("Connecting to MySQL server for initialization...")
	adminDb, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open admin mysql handle: %w", err)
	}
	defer adminDb.Close()

	if err := waitForDatabase(ctx, adminDb); err != nil {
		return err
	}

	var dbnameExistence string
	checkDbnameExistQuery := "SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?"
	err = adminDb.QueryRowContext(ctx, checkDbnameExistQuery, dbname).Scan(&dbnameExistence)
	if errors.Is(err, sql.ErrNoRows) {
		logging.Logger.Infof("Database '%s' does not exist, creating...", dbname)
		createDbSql := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_bin;", dbname)
		if _, err := adminDb.ExecContext(ctx, createDbSql); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	return nil
}

func waitForDatabase(ctx context.Context, db *sql.DB) error {
	for i := 0; i < pingAttempts; i++ {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		logging.Logger.Warnf("Database not ready, retrying... (%d/%d)", i+1, pingAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingInterval):
		}
	}
	return fmt.Errorf("database unreachable after multiple attempts")
}
