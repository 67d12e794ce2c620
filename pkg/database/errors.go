package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// uniqueViolation is the SQLSTATE postgres reports for unique index conflicts.
const uniqueViolation = "23505"

// MapError translates driver errors into the package sentinels so callers
// never need to import the driver. Other errors are wrapped as "db error".
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return fmt.Errorf("db error: %w", err)
}
