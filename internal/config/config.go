// Package config reads process configuration from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/subosito/gotenv"
	"golang.org/x/crypto/bcrypt"
)

const MIN_JWT_SECRET_LENGTH = 32

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string `env:"APP_PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"LOG_DIR"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN   string `env:"DB_DSN"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"./data/expenses.db"`

	JWTSecret  string        `env:"JWT_SECRET"`
	JWTTTL     time.Duration `env:"JWT_TTL" envDefault:"24h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	SummaryTimezone string        `env:"SUMMARY_TIMEZONE" envDefault:"UTC"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	location *time.Location
}

// Load reads .env (if any) into the process environment, parses the
// variables and validates the result.
func Load() (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv is Load without the .env step.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []error

	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	switch c.StorageDriver {
	case DriverMySQL, DriverPostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			problems = append(problems, fmt.Errorf("DB_DSN is required for STORAGE_DRIVER=%s", c.StorageDriver))
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			problems = append(problems, errors.New("SQLITE_PATH cannot be empty"))
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if len(c.JWTSecret) < MIN_JWT_SECRET_LENGTH {
		problems = append(problems, fmt.Errorf("JWT_SECRET must be at least %d bytes", MIN_JWT_SECRET_LENGTH))
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, errors.New("JWT_TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if strings.TrimSpace(c.Port) == "" {
		problems = append(problems, errors.New("APP_PORT cannot be empty"))
	}

	loc, err := time.LoadLocation(c.SummaryTimezone)
	if err != nil {
		problems = append(problems, fmt.Errorf("invalid SUMMARY_TIMEZONE %q: %w", c.SummaryTimezone, err))
	} else {
		c.location = loc
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
	}
	return nil
}

// Location is the zone monthly summaries are computed in. It is UTC until
// Validate has succeeded.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
