package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound = errors.New("resource not found")

	// Schema errors
	ErrSchema         = errors.New("schema mismatch")
	ErrMissingColumns = fmt.Errorf("%w: missing required columns", ErrSchema)
	ErrBadCell        = fmt.Errorf("%w: unparseable value", ErrSchema)

	// Validation errors
	ErrInvalidList  = errors.New("malformed numeric list")
	ErrInvalidParam = errors.New("invalid parameter")
	ErrEmptyGrid    = errors.New("empty policy grid")
)

// Error constructors with context
func NewNotFoundError(resource string, path string, producer string) error {
	if producer == "" {
		return fmt.Errorf("%w: %s at %s", ErrNotFound, resource, path)
	}
	return fmt.Errorf("%w: %s at %s (run %s first)", ErrNotFound, resource, path, producer)
}

// NewMissingColumnsError names the full set of absent columns, sorted for stable messages.
func NewMissingColumnsError(source string, missing []string) error {
	cols := append([]string(nil), missing...)
	sort.Strings(cols)
	return fmt.Errorf("%w in %s: {%s}", ErrMissingColumns, source, strings.Join(cols, ", "))
}

func NewBadCellError(source string, row int, column, raw string) error {
	return fmt.Errorf("%w in %s row %d column %s: %q", ErrBadCell, source, row, column, raw)
}

func NewInvalidListError(param, raw string) error {
	return fmt.Errorf("%w for %s: %q", ErrInvalidList, param, raw)
}

func NewInvalidParamError(param string, value interface{}, reason string) error {
	return fmt.Errorf("%w %s=%v: %s", ErrInvalidParam, param, value, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidList) ||
		errors.Is(err, ErrInvalidParam) ||
		errors.Is(err, ErrEmptyGrid)
}
