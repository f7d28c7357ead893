package optima

import (
	"errors"
	"fmt"

	"github.com/iliesw/OptimaDB/logger"
)

var (
	// ErrRecordNotFound record not found error
	ErrRecordNotFound = logger.ErrRecordNotFound
	// ErrNestedBatch batches cannot be opened inside a running batch
	ErrNestedBatch = errors.New("nested batch not supported")
	// ErrUnknownTable table was never declared on this registry
	ErrUnknownTable = errors.New("unknown table")
)

// SchemaError reports a violation of the declared schema: a missing
// required column on insert, an explicit null into a not-null column,
// or an unknown extend relation.
type SchemaError struct {
	Table  string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("table %s, field %s: %s", e.Table, e.Field, e.Reason)
	}
	return fmt.Sprintf("table %s: %s", e.Table, e.Reason)
}

// ValidationError reports a value rejected before any SQL was
// dispatched: declared type mismatch, enum miss, or a failed custom
// check.
type ValidationError struct {
	Table string
	Field string
	Value interface{}
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("table %s, field %s, value %v: %v", e.Table, e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// CompileError reports a malformed filter expression. Unknown
// operators and unknown columns are compile errors, never a silent
// fallback.
type CompileError struct {
	Table  string
	Column string
	Reason string
}

func (e *CompileError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("compiling filter for table %s, column %s: %s", e.Table, e.Column, e.Reason)
	}
	return fmt.Sprintf("compiling filter for table %s: %s", e.Table, e.Reason)
}
