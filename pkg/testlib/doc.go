// Package testlib drives API test-sets against running clusters.
//
// A test-set is described by a [Definition]: its declared test names, a static
// requirements query and a constructor for the instance implementing [TestSet].
// Only the runner constructs instances, one per run.
// [Runner.Run] drives one test-set through its lifecycle:
//
//   - requirements are queried before any instance exists
//   - the first cluster of the pool satisfying them is selected ([SelectCluster])
//   - setup runs once, then every requested test in order, then teardown
//
// Every call into test-set code goes through [Invoke], which converts returned
// errors and panics into [TestError] values so one failing test never aborts
// its siblings or the teardown. Progress is published as [Event] values to an
// [EventSink]; rendering them is left to the caller.
package testlib
