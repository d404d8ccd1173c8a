package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError represents an error created from a recovered panic. It keeps
// the original panic value and the stack trace at the time of panic.
type PanicError struct {
	PanicValue interface{}
	StackTrace string
	Operation  string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String provides detailed information including the stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a PanicError for the given operation and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into an error. Use with defer and a pointer to
// the function's error return value:
//
//	func Fit() (err error) {
//	    defer errors.Recover(&err, "Trainer.Fit")
//	    ...
//	}
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		panicErr := NewPanicError(operation, r)
		if *err != nil {
			*err = Wrapf(*err, "additionally, a panic occurred: %v", panicErr)
			return
		}
		*err = WithStack(panicErr)
	}
}
