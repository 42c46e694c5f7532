package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// DuplicateError reports a unique constraint violation on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// translate maps driver errors onto the repository error vocabulary.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		field := "username"
		if strings.Contains(pgErr.ConstraintName, "email") {
			field = "email"
		}
		return &DuplicateError{Field: field}
	case foreignKeyViolation:
		// The referenced user was deleted concurrently.
		return ErrNotFound
	}
	return err
}
