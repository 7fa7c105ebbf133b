// Package repository implements all database queries for the check-in console.
// It uses pgx directly (no ORM) for transparency and performance.
//
// Every write that touches an event's counters runs inside one transaction
// together with the attendee change that causes it. Locks are always taken
// event row first, attendee rows second, so concurrent check-ins, deletes
// and registrations on the same event serialise instead of deadlocking.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnavailable marks failures to reach the backing store. The caller may
// retry the whole operation.
var ErrUnavailable = errors.New("store unavailable")

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// storeErr wraps err with op. Errors that did not come back from the
// server (dial failures, broken connections) are additionally marked
// ErrUnavailable.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case errors.As(err, &pgErr),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
}

// inTx runs fn inside a transaction and commits when fn returns nil.
func inTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

// lockEvent takes the row lock that serialises counter updates for one event.
func lockEvent(ctx context.Context, tx pgx.Tx, eventID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&id)
	if err != nil {
		return storeErr("lock event row", err)
	}
	return nil
}
