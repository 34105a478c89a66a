// Package postgres implements the storage port on Postgres via sqlx.
// Every method is a single statement (or a single implicit transaction),
// matching the port's per-call atomicity contract.
package postgres

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/exchangebot/internal/storage"
)

// Store implements storage.Store.
type Store struct {
	db *sqlx.DB
}

// New wraps an open connection pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// notFound converts sql.ErrNoRows into the port's sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

var _ storage.Store = (*Store)(nil)
