package tx

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Manager wraps transactional boundaries for multi-adapter operations.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

type ctxKey struct{}

// Q returns the transaction bound to ctx, or fallback when none is active.
// Adapters call this so the same code runs inside and outside a boundary.
func Q(ctx context.Context, fallback Querier) Querier {
	if t, ok := ctx.Value(ctxKey{}).(*sql.Tx); ok {
		return t
	}
	return fallback
}

// SQLiteManager scopes a *sql.Tx to the context so every adapter touched by
// fn shares one transaction. Nested Within calls join the outer transaction.
type SQLiteManager struct {
	db *sql.DB
}

func NewSQLiteManager(db *sql.DB) *SQLiteManager {
	return &SQLiteManager{db: db}
}

func (m *SQLiteManager) Within(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(ctxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	t, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, ctxKey{}, t)); err != nil {
		_ = t.Rollback()
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
