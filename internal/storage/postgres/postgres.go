// Package postgres implements the item and snapshot stores on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ge-price-lab/internal/observability"
	"ge-price-lab/internal/storage"
)

// Pool is the pgx pool shared by the item and snapshot stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool opens a pool for dsn and pings it. maxConns <= 0 keeps the pgx default.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

const pgErrUniqueViolation = "23505"

// mapError translates driver errors into storage sentinels and wraps the rest
// with the failing operation.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation:
		return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, pgErr.ConstraintName)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// observe records query duration and errors for one store operation.
func observe(store, operation string, start time.Time, err error) {
	observability.RecordDBQuery("postgres_"+store, operation, time.Since(start).Seconds(), err)
}
