package database

import (
	"context"
	"database/sql"
	"fmt"
)

// WithTx runs fn inside a transaction scoped to the call.  The
// transaction is rolled back on any error or panic and committed
// otherwise, so every seat/hold/booking transition either applies
// completely or not at all.  Handlers and services must never manage
// commit/rollback by hand; this helper is the single unit-of-work
// primitive for the whole state machine.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// Runner adapts a *sql.DB to the transaction-runner interface the
// service layer depends on, keeping *sql.DB out of its signature so
// tests can substitute a fake.
type Runner struct {
	DB *sql.DB
}

func (r Runner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return WithTx(ctx, r.DB, fn)
}
