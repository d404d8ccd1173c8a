// Package errors provides the structured error taxonomy used across the
// sensorcast pipeline. Every constructor attaches a stacktrace via
// cockroachdb/errors, and every type knows how to marshal itself as a
// structured zerolog object.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Dataset errors
//
// ===========================================================================

// ColumnNotFoundError is returned when a dataset operation names a column
// that does not exist in the dataset.
type ColumnNotFoundError struct {
	Op     string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("sensorcast: %s: column %q not found", e.Op, e.Column)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ColumnNotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Str("type", "ColumnNotFoundError")
}

// NewColumnNotFoundError creates a ColumnNotFoundError with a stacktrace.
func NewColumnNotFoundError(op, column string) error {
	err := &ColumnNotFoundError{Op: op, Column: column}
	return errors.WithStack(err)
}

// LengthMismatchError is returned when a column-wise operation receives a
// value sequence whose length differs from the dataset's row count.
type LengthMismatchError struct {
	Op       string
	Expected int
	Got      int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("sensorcast: %s: length mismatch. Expected %d values, got %d", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *LengthMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("type", "LengthMismatchError")
}

// NewLengthMismatchError creates a LengthMismatchError with a stacktrace.
func NewLengthMismatchError(op string, expected, got int) error {
	err := &LengthMismatchError{Op: op, Expected: expected, Got: got}
	return errors.WithStack(err)
}

// TimestampParseError is returned when the timestamp column holds a value
// that cannot be parsed. The whole extraction fails; rows are never dropped
// silently.
type TimestampParseError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("sensorcast: cannot parse timestamp %q in column %q at row %d: %v", e.Value, e.Column, e.Row, e.Err)
}

func (e *TimestampParseError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *TimestampParseError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Int("row", e.Row).
		Str("value", e.Value).
		Str("type", "TimestampParseError")
}

// NewTimestampParseError creates a TimestampParseError with a stacktrace.
func NewTimestampParseError(column string, row int, value string, err error) error {
	parseErr := &TimestampParseError{Column: column, Row: row, Value: value, Err: err}
	return errors.WithStack(parseErr)
}

// ===========================================================================
//
//	Argument and shape errors
//
// ===========================================================================

// ValidationError is returned when an input parameter fails validation, for
// example a holdout fraction outside (0, 1).
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sensorcast: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stacktrace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// EmptyDataError is returned when an operation that needs at least one row
// or value receives none.
type EmptyDataError struct {
	Op string
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("sensorcast: %s: empty data", e.Op)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *EmptyDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("type", "EmptyDataError")
}

// NewEmptyDataError creates an EmptyDataError with a stacktrace.
func NewEmptyDataError(op string) error {
	err := &EmptyDataError{Op: op}
	return errors.WithStack(err)
}

// DimensionError is returned when the dimensions of two inputs disagree,
// for example a feature matrix with more rows than the label vector.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("sensorcast: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stacktrace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Training errors
//
// ===========================================================================

// ModelFitError wraps any failure inside the boosting trainer, carrying the
// label whose model could not be fitted. A single ModelFitError aborts the
// whole pipeline run.
type ModelFitError struct {
	Label string
	Err   error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("sensorcast: model fit failed for label %q: %v", e.Label, e.Err)
}

func (e *ModelFitError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ModelFitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("label", e.Label).
		Str("type", "ModelFitError")
}

// NewModelFitError creates a ModelFitError with a stacktrace.
func NewModelFitError(label string, err error) error {
	fitErr := &ModelFitError{Label: label, Err: err}
	return errors.WithStack(fitErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stacktrace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stacktrace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stacktrace.
func WithStack(err error) error {
	return errors.WithStack(err)
}
