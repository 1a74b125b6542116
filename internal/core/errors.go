package core

import (
	"errors"
	"fmt"
	"reflect"
)

// Error categories. Every error returned by the engine wraps exactly one of
// these so callers can branch with errors.Is.
var (
	// ErrConfiguration is returned when a model type or its table binding is
	// declared incorrectly. Never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrNoKeyColumn is returned by operations that need a key column when the
	// model has none. It also matches ErrConfiguration.
	ErrNoKeyColumn = fmt.Errorf("%w: no key column", ErrConfiguration)

	// ErrMissingTable is returned when the named table is not in the container.
	ErrMissingTable = errors.New("missing table")

	// ErrMissingColumn is returned when a declared column name or position
	// does not exist in the live table.
	ErrMissingColumn = errors.New("missing column")

	// ErrMissingRow is returned for row positions outside the table body.
	ErrMissingRow = errors.New("missing row")

	// ErrConversion is returned when a raw cell value cannot be coerced into
	// the declared property type.
	ErrConversion = errors.New("conversion error")

	// ErrUnsupportedType is returned for declared property types that have no
	// coercion rule. This is a programming error, not a data error.
	ErrUnsupportedType = errors.New("conversion not supported")

	// ErrInteractionTimeout is returned when the host could not be switched to
	// non-interactive mode within the interaction policy timeout.
	ErrInteractionTimeout = errors.New("host interaction mode could not be suppressed")

	// ErrBusy is returned when all operation slots are occupied and the wait
	// timeout expires. Clients should retry after a short delay.
	ErrBusy = errors.New("workbook busy, please try again later")

	// ErrUnknownTable is returned when a registry key has no table definition.
	ErrUnknownTable = errors.New("unknown table")
)

// ColumnError reports a declared column that does not resolve against the
// live table.
type ColumnError struct {
	Table  string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("missing column %s in table %s", e.Column, e.Table)
}

func (e *ColumnError) Unwrap() error {
	return ErrMissingColumn
}

// ConversionError reports a raw value that could not be coerced.
// Column is filled in by the row translator.
type ConversionError struct {
	Column string
	Value  any
	Target reflect.Type
	Err    error
}

func (e *ConversionError) Error() string {
	target := "number"
	if !isNumericTarget(e.Target) {
		target = e.Target.String()
	}
	msg := fmt.Sprintf("cannot convert value %q to %s", fmt.Sprint(e.Value), target)
	if e.Column != "" {
		msg = fmt.Sprintf("column %q: %s", e.Column, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
