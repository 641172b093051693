package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaValidation = errors.New("schema validation failed")
	ErrInvalidDate      = errors.New("invalid canonical date (must be YYYY/MM/DD)")
	ErrEntryNotFound    = errors.New("no progress entry for this date")
	ErrInvalidRange     = errors.New("range start cannot be after range end")
	ErrRangeTooLarge    = errors.New("date range too large, max 1 year allowed")
)

// SchemaValidationError reports upstream or persisted data that no longer
// matches the expected shape. It is never recovered by the core.
type SchemaValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Reason)
}

func (e *SchemaValidationError) Unwrap() error {
	return ErrSchemaValidation
}

func schemaError(entity, field, format string, args ...any) error {
	return &SchemaValidationError{
		Entity: entity,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}
