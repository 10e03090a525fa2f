package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Runner abstracts transaction execution so services can be exercised with
// fakes. The pool-backed implementation is PoolRunner.
type Runner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// WithTx executes fn within a RepeatableRead transaction. Any error rolls the
// whole unit back; the registration approval side effects rely on this
// all-or-nothing boundary.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// PoolRunner is the production Runner over a pgx pool.
type PoolRunner struct {
	Pool *pgxpool.Pool
}

// WithTx implements Runner.
func (r PoolRunner) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return WithTx(ctx, r.Pool, fn)
}
