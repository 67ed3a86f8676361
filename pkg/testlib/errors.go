package testlib

import (
	"errors"
	"fmt"
)

// PreparationName tags errors raised before any test-set method was called.
const PreparationName = "preparation"

var (
	// ErrNoMatchingCluster is wrapped by the preparation error returned when no
	// cluster of the pool satisfies the requirements of a test-set.
	ErrNoMatchingCluster = errors.New("failed to find a cluster that fits test requirements")
	// ErrUnknownTest is returned when a requested test is not provided by the test-set.
	ErrUnknownTest = errors.New("unknown test")
	// ErrPanic wraps a value recovered from a panicking test-set method.
	ErrPanic = errors.New("panic")
)

// TestError attributes a failure to the call that produced it.
type TestError struct {
	// Name is the qualified name of the failing call, or PreparationName.
	Name string
	// Err is the failure itself.
	Err error
	// Stack is the goroutine stack captured when the failure was converted.
	Stack []byte
}

// Error implements the error interface.
func (e *TestError) Error() string {
	if e == nil {
		return ""
	}

	if e.Err == nil {
		return e.Name
	}

	return e.Name + ": " + e.Err.Error()
}

// Unwrap exposes the underlying failure for errors.Is/errors.As consumers.
func (e *TestError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func newPreparationError(req Requirements) *TestError {
	return &TestError{
		Name: PreparationName,
		Err:  fmt.Errorf("%w (%s)", ErrNoMatchingCluster, req),
	}
}

// panicError converts a recovered value into an error, keeping errors intact.
func panicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("%w: %w", ErrPanic, err)
	}

	return fmt.Errorf("%w: %v", ErrPanic, recovered)
}
