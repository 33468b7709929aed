package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist, or exists but is
// not owned by the caller. The two cases are deliberately
// indistinguishable so owner-scoped reads never leak existence.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// ErrReferenceNotFound is returned when a referenced entity is missing.
var ErrReferenceNotFound = errors.New("referenced entity not found")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translateError maps Postgres constraint violations onto the store's
// sentinel errors. The unique constraint is the authoritative backstop
// for optimistic pre-checks racing under concurrent writes.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrDuplicate
		case pqForeignKeyViolation:
			return ErrReferenceNotFound
		}
	}
	return err
}
