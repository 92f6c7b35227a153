package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/josh-kwaku/audit-validator/internal/logging"
)

type PoolConfig struct {
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetimeS int
	ConnMaxIdleTimeS int

	// ConnectAttempts bounds how many one-second pings are tried before the
	// database is considered unreachable.
	ConnectAttempts int
}

// NewPostgresDB opens a pool against databaseURL and waits for the server to
// answer a ping.
func NewPostgresDB(ctx context.Context, databaseURL string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresDB: open: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeS) * time.Second)

	if err := waitForPing(ctx, db, max(pool.ConnectAttempts, 1)); err != nil {
		db.Close()
		return nil, fmt.Errorf("NewPostgresDB: %w", err)
	}
	return db, nil
}

func waitForPing(ctx context.Context, db *sql.DB, attempts int) error {
	log := logging.FromContext(ctx)

	var err error
	for i := range attempts {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		log.Info("waiting for database", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("waitForPing: %w", ctx.Err())
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("waitForPing: gave up after %d attempts: %w", attempts, err)
}
