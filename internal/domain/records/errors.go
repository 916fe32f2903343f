package records

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownEntity = errors.New("unknown entity")
	ErrUnknownColumn = errors.New("unknown column")
	ErrEmptyBody     = errors.New("empty body")
	ErrNotFound      = errors.New("record not found")
	// ErrConflict is a foreign-key violation: the row is still referenced, or
	// references a row that does not exist.
	ErrConflict = errors.New("record is referenced by other records")
	// ErrConstraint is a check or not-null violation.
	ErrConstraint = errors.New("constraint violation")
)
