// Package store provides database access methods for all solarlead
// entities. Each store struct wraps a *sql.DB and exposes typed query
// methods; mutations with side effects (timeline events, account
// provisioning) run inside a single transaction.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is returned when a unique constraint is violated, e.g.
// creating a role or permission with a name that already exists.
var ErrConflict = errors.New("conflict: name already exists")

// ErrNotFound is returned by mutations that target a missing row. Lookups
// return (nil, nil) instead.
var ErrNotFound = errors.New("not found")

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
