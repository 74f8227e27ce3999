package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Pool holds connection pool limits. Zero values fall back to defaults.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

func (p Pool) withDefaults() Pool {
	if p.MaxOpen == 0 {
		p.MaxOpen = 25
	}
	if p.MaxIdle == 0 {
		p.MaxIdle = 5
	}
	if p.MaxLifetime == 0 {
		p.MaxLifetime = 5 * time.Minute
	}
	return p
}

// NormalizeDriver maps user-facing driver names onto registered sql drivers.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return DriverPostgres
	case "", "sqlite", "sqlite3":
		return DriverSQLite
	default:
		return driver
	}
}

func Init(ctx context.Context, driver, connection string, pool Pool) (*sqlx.DB, error) {
	driver = NormalizeDriver(driver)

	// SQLite: create data directory if needed
	if driver == DriverSQLite && !strings.HasPrefix(connection, ":memory:") {
		dir := filepath.Dir(strings.TrimPrefix(connection, "file:"))
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Open(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pool = pool.withDefaults()
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = db.PingContext(pingCtx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected", "driver", driver, "max_open_conns", pool.MaxOpen)
	return db, nil
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
