// Package postgres is the pgx-backed fulfillment.Store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Spok95/batchflow/internal/fulfillment"
)

const (
	pgErrUniqueViolation      = "23505"
	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"
)

type Store struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

var _ fulfillment.Store = (*Store)(nil)

func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx fulfillment.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}, fn)
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx fulfillment.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx fulfillment.Tx) error) error {
	t, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = t.Rollback(ctx) }()

	if err := fn(ctx, &tx{q: t}); err != nil {
		return classify(err)
	}
	return classify(t.Commit(ctx))
}

// classify maps Postgres error codes onto the store contract's sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlockDetected:
		if errors.Is(err, fulfillment.ErrSerialization) {
			return err
		}
		return fmt.Errorf("%w: %w", fulfillment.ErrSerialization, err)
	case pgErrUniqueViolation:
		if errors.Is(err, fulfillment.ErrUniqueViolation) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", fulfillment.ErrUniqueViolation, pgErr.ConstraintName, err)
	}
	return err
}

type tx struct{ q pgx.Tx }

var _ fulfillment.Tx = (*tx)(nil)

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullDecimal binds d as text so NUMERIC keeps its exact scale.
func nullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}
