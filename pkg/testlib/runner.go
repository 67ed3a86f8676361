package testlib

import (
	"context"
	"errors"
	"fmt"
)

const (
	requirementsMethod = "requirements"
	setupMethod        = "setup"
	teardownMethod     = "teardown"
)

var errNoRequirements = errors.New("test-set does not declare requirements")

// Runner drives test-sets through their lifecycle, one at a time.
type Runner struct {
	sink EventSink
}

// NewRunner creates a Runner publishing progress to sink. A nil sink discards events.
func NewRunner(sink EventSink) *Runner {
	if sink == nil {
		sink = NopSink{}
	}

	return &Runner{sink: sink}
}

// Run executes the named tests of a test-set against the first cluster of the
// pool that fits its requirements.
//
// A failing requirements query, a missing cluster or a failing setup abort the
// run with a single error and no executed tests. Otherwise every name in
// testNames is attempted in order and teardown runs exactly once.
//
// Run does not isolate panics raised by def.New: they propagate to the caller.
// The context is handed to test-set code; Run itself never cancels or times out.
func (r *Runner) Run(ctx context.Context, def Definition, testNames []string, pool []Cluster) Outcome {
	publish(r.sink, Event{Type: TestsetStarted, Testset: def.Name})

	outcome := r.run(ctx, def, testNames, pool)

	publish(r.sink, Event{Type: TestsetFinished, Testset: def.Name, Outcome: &outcome})

	return outcome
}

//nolint:nonamedreturns // The deferred teardown appends to the outcome.
func (r *Runner) run(
	ctx context.Context,
	def Definition,
	testNames []string,
	pool []Cluster,
) (outcome Outcome) {
	outcome.Testset = def.Name

	req, failure := Invoke(r.sink, r.call(def.Name, requirementsMethod, false),
		func() (Requirements, error) {
			if def.Requirements == nil {
				return Requirements{}, errNoRequirements
			}

			return def.Requirements()
		})
	if failure != nil {
		outcome.Errors = []*TestError{failure}

		return outcome
	}

	cluster, found := SelectCluster(pool, req)
	if !found {
		failure = newPreparationError(req)
		publish(r.sink, Event{Type: PreparationFailed, Testset: def.Name, Name: PreparationName, Err: failure})
		outcome.Errors = []*TestError{failure}

		return outcome
	}

	instance := def.New()

	failure = InvokeErr(r.sink, r.call(def.Name, setupMethod, false), func() error {
		return instance.Setup(ctx, cluster)
	})
	if failure != nil {
		outcome.Errors = []*TestError{failure}

		return outcome
	}

	defer func() {
		teardownFailure := InvokeErr(r.sink, r.call(def.Name, teardownMethod, false), func() error {
			return instance.Teardown(ctx, cluster)
		})
		if teardownFailure != nil {
			outcome.Errors = append(outcome.Errors, teardownFailure)
		}
	}()

	for _, name := range testNames {
		outcome.Executed++

		failure := InvokeErr(r.sink, r.call(def.Name, name, true), func() error {
			test := instance.Tests()[name]
			if test == nil {
				return fmt.Errorf("%w: %s", ErrUnknownTest, name)
			}

			return test(ctx, cluster)
		})
		if failure != nil {
			outcome.Errors = append(outcome.Errors, failure)
		}
	}

	return outcome
}

func (r *Runner) call(testset, method string, verbose bool) Call {
	return Call{
		Testset: testset,
		Name:    QualifiedName(testset, method),
		Verbose: verbose,
	}
}
