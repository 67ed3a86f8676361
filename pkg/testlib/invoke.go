package testlib

import "runtime/debug"

// Call identifies a call made through Invoke.
type Call struct {
	// Testset is the name of the test-set the call belongs to.
	Testset string
	// Name is the qualified name used to attribute failures.
	Name string
	// Verbose calls publish CallStarted and CallSucceeded in addition to CallFailed.
	Verbose bool
}

// Invoke calls fn and converts any failure into a *TestError instead of
// propagating it. Both returned errors and panics are converted, and the stack
// at the point of conversion is kept on the error. Invoke itself never panics.
//
//nolint:nonamedreturns // Named returns let the deferred recover set the result.
func Invoke[T any](sink EventSink, call Call, fn func() (T, error)) (result T, failure *TestError) {
	if call.Verbose {
		publish(sink, Event{Type: CallStarted, Testset: call.Testset, Name: call.Name, Verbose: true})
	}

	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}

		var zero T

		result = zero
		failure = &TestError{
			Name:  call.Name,
			Err:   panicError(recovered),
			Stack: debug.Stack(),
		}

		publishFailure(sink, call, failure)
	}()

	value, err := fn()
	if err != nil {
		var zero T

		failure = &TestError{Name: call.Name, Err: err, Stack: debug.Stack()}
		publishFailure(sink, call, failure)

		return zero, failure
	}

	if call.Verbose {
		publish(sink, Event{Type: CallSucceeded, Testset: call.Testset, Name: call.Name, Verbose: true})
	}

	return value, nil
}

// InvokeErr is Invoke for functions that only return an error.
func InvokeErr(sink EventSink, call Call, fn func() error) *TestError {
	_, failure := Invoke(sink, call, func() (struct{}, error) {
		return struct{}{}, fn()
	})

	return failure
}

func publishFailure(sink EventSink, call Call, failure *TestError) {
	publish(sink, Event{
		Type:    CallFailed,
		Testset: call.Testset,
		Name:    call.Name,
		Verbose: call.Verbose,
		Err:     failure,
	})
}
