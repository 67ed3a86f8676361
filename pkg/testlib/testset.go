package testlib

import (
	"context"
	"slices"
)

// TestFunc is a single test. It returns an error (or panics) on failure.
type TestFunc func(ctx context.Context, cluster Cluster) error

// TestSet is one instance of a test-set. Instances are created by
// [Definition.New] once per run and discarded after teardown.
type TestSet interface {
	// Setup prepares the fixtures used by the tests.
	Setup(ctx context.Context, cluster Cluster) error
	// Teardown releases whatever Setup established. It only runs when Setup succeeded.
	Teardown(ctx context.Context, cluster Cluster) error
	// Tests returns the tests of the set by name.
	Tests() map[string]TestFunc
}

// Definition registers a test-set with the runner.
type Definition struct {
	// Name identifies the test-set on the command line and in every qualified
	// call name.
	Name string
	// Tests lists the tests the set provides. Selection works on these names
	// so no instance is needed before the run; names missing from the
	// instance are reported as unknown tests when they run.
	Tests []string
	// Requirements returns the cluster shape the test-set needs. It is called
	// before any instance exists.
	Requirements func() (Requirements, error)
	// New creates a fresh instance. Only the runner calls it, once per run.
	// A panic here is not isolated by the runner.
	New func() TestSet
}

// TestNames returns the declared test names, sorted.
func (d Definition) TestNames() []string {
	return slices.Sorted(slices.Values(d.Tests))
}

// QualifiedName joins a test-set name and a method name.
func QualifiedName(testset, method string) string {
	return testset + "." + method
}
