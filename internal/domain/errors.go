package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGranularity marks a granularity selector outside {Daily, Hourly}.
	// It indicates a caller bug, never bad user data.
	ErrInvalidGranularity = errors.New("invalid granularity")

	// ErrMalformedRow marks a row whose values break the source schema:
	// out-of-range normalized fields, bad flags, or cnt != casual + registered.
	ErrMalformedRow = errors.New("malformed row")
)

// LoadError reports a failure to load one source table. Line is 0 when the
// failure is not tied to a row (missing file, bad header).
type LoadError struct {
	Source string
	Line   int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ParseError reports an unparseable date field.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnknownCategoryError reports a category code outside the fixed enumeration.
type UnknownCategoryError struct {
	Granularity Granularity
	Category    Category
	Code        int
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s code %d for %s data", e.Category, e.Code, e.Granularity)
}
