// Package tx carries a SQL transaction through the context so stores can
// join a caller's unit of work without changing their signatures.
package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type ctxKey struct{}

var txKey = ctxKey{}

// Execer is the write surface shared by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Exec returns the transaction in ctx, or db when there is none.
func Exec(ctx context.Context, db *sql.DB) Execer {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// Run executes fn inside a transaction, committing when fn returns nil.
// A transaction already present in ctx is reused and left for its owner to
// commit.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) (err error) {
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()
	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
