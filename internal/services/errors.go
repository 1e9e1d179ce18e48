package services

import (
	"context"
	"database/sql"
	"errors"
)

// Sentinel errors returned (wrapped) by the services. Anything else is a
// server error.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
)

// queryer is satisfied by both *sql.DB and *sql.Tx so that store helpers
// can run inside or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Notifier pushes live updates to a user's connected clients.
type Notifier interface {
	NotifyUser(userID, action string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(string, string, interface{}) {}

// withTx runs fn inside a transaction, rolling back on error.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
