package db

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 10
	cfg.MinConns = 0
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func Migrate(databaseURL, migrationsDir string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// WithDateLock serialises concurrent planning runs for the same date
// (spec.md §5: "concurrent runs for the same date are not supported and
// must be serialised by an external advisory lock keyed on the plan
// date"). namespace lets callers pick the lock's key family
// (config.PlanningAdvisoryLockKey); the date is folded into the key so
// distinct dates never contend.
func WithDateLock(ctx context.Context, pool *pgxpool.Pool, namespace int64, date time.Time, fn func(ctx context.Context) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn for advisory lock: %w", err)
	}
	defer conn.Release()

	key := dateLockKey(namespace, date)
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, key); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, key)
	}()

	return fn(ctx)
}

func dateLockKey(namespace int64, date time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(date.Format("2006-01-02")))
	// Fold the namespace into the high bits of the date hash so the same
	// date maps to a different key under a different namespace.
	return int64(h.Sum64()>>1) ^ (namespace << 40)
}
