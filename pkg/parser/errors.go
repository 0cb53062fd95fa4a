package parser

import "fmt"

// InvalidFormatError reports an unrecognized format selector.
type InvalidFormatError struct {
	Format string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format: %s (supported: csv, mt940, camt053)", e.Format)
}

// MissingFieldError reports a structurally required field that was still
// absent after a full decode pass.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

// InvalidFieldValueError reports a field that was present but unparseable.
type InvalidFieldValueError struct {
	Field string
	Value string
}

func (e *InvalidFieldValueError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q", e.Value, e.Field)
}

// CSVError is a CSV structural error with a human-readable diagnostic.
type CSVError struct {
	Msg string
}

func (e *CSVError) Error() string {
	return "CSV error: " + e.Msg
}

// MT940Error is an MT940 structural error with a human-readable diagnostic.
type MT940Error struct {
	Msg string
}

func (e *MT940Error) Error() string {
	return "MT940 error: " + e.Msg
}

// CAMT053Error is a CAMT.053 structural error with a human-readable diagnostic.
type CAMT053Error struct {
	Msg string
}

func (e *CAMT053Error) Error() string {
	return "CAMT.053 error: " + e.Msg
}

// IOError wraps a failure of the underlying source or sink.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return "I/O error: " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func csvErrorf(format string, args ...any) error {
	return &CSVError{Msg: fmt.Sprintf(format, args...)}
}

func mt940Errorf(format string, args ...any) error {
	return &MT940Error{Msg: fmt.Sprintf(format, args...)}
}

func camt053Errorf(format string, args ...any) error {
	return &CAMT053Error{Msg: fmt.Sprintf(format, args...)}
}
