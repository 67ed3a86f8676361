package testlib

import "errors"

// Outcome is the result of running one test-set.
type Outcome struct {
	// Testset is the name of the test-set.
	Testset string
	// Executed counts the tests that were attempted, failed or not.
	Executed int
	// Errors lists failures in the order they happened. Teardown failures come last.
	Errors []*TestError
}

// Failed reports whether the run produced any error.
func (o Outcome) Failed() bool {
	return len(o.Errors) > 0
}

// Summary aggregates outcomes of several test-set runs.
type Summary struct {
	Outcomes []Outcome
}

// Add records an outcome.
func (s *Summary) Add(outcome Outcome) {
	s.Outcomes = append(s.Outcomes, outcome)
}

// Executed returns the total number of attempted tests.
func (s *Summary) Executed() int {
	total := 0
	for _, outcome := range s.Outcomes {
		total += outcome.Executed
	}

	return total
}

// Errors returns every collected error, in run order.
func (s *Summary) Errors() []*TestError {
	var all []*TestError
	for _, outcome := range s.Outcomes {
		all = append(all, outcome.Errors...)
	}

	return all
}

// Err joins every collected error, or returns nil when all runs passed.
func (s *Summary) Err() error {
	failures := s.Errors()
	if len(failures) == 0 {
		return nil
	}

	errs := make([]error, 0, len(failures))
	for _, failure := range failures {
		errs = append(errs, failure)
	}

	return errors.Join(errs...)
}
