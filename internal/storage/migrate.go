package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/fatali-fataliyev/expense_tracker/logging"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// sqlDriverNames maps a storage type to its database/sql driver.
var sqlDriverNames = map[string]string{
	StorageTypeMySQL:    "mysql",
	StorageTypeSQLite:   "sqlite",
	StorageTypePostgres: "pgx",
}

// RunMigrations applies every pending migration for the dialect. It opens its
// own connection because closing the migrator closes the handle it was given.
func RunMigrations(dialect string, dsn string) error {
	driverName, ok := sqlDriverNames[dialect]
	if !ok {
		return fmt.Errorf("no migrations for storage type %q", dialect)
	}

	migrateDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	var driver database.Driver
	switch dialect {
	case StorageTypeMySQL:
		driver, err = migratemysql.WithInstance(migrateDB, &migratemysql.Config{})
	case StorageTypeSQLite:
		driver, err = migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	case StorageTypePostgres:
		driver, err = migratepgx.WithInstance(migrateDB, &migratepgx.Config{})
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", dialect, err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logging.Logger.Info("no new migration")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	version, _, _ := m.Version()
	logging.Logger.Infof("all migrations applied successfully, schema version %d", version)
	return nil
}
