package testlib

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
)

// ErrNoMatch is returned when a pattern selects nothing.
var ErrNoMatch = errors.New("pattern matches no test-set")

// Selection is a test-set together with the tests to run, in run order.
type Selection struct {
	Definition Definition
	Tests      []string
}

// Plan resolves patterns into the ordered list of test-sets and tests to run.
//
// A pattern is either "<testset>" or "<testset>.<test>"; both parts accept
// path.Match wildcards. Without patterns every test of every test-set is
// selected. Test-sets keep registry order; tests keep their sorted order, and a
// test named explicitly but not provided by the set is kept so the run reports it.
func Plan(registry *Registry, patterns []string) ([]Selection, error) {
	defs := registry.Definitions()

	if len(patterns) == 0 {
		selections := make([]Selection, 0, len(defs))
		for _, def := range defs {
			selections = append(selections, Selection{Definition: def, Tests: def.TestNames()})
		}

		return selections, nil
	}

	chosen := map[string][]string{}

	for _, pattern := range patterns {
		setPattern, testPattern, hasTest := strings.Cut(pattern, ".")
		matched := false

		for _, def := range defs {
			ok, err := path.Match(setPattern, def.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}

			if !ok {
				continue
			}

			matched = true

			chosen[def.Name], err = appendTests(chosen[def.Name], def, testPattern, hasTest)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
		}

		if !matched {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
		}
	}

	selections := make([]Selection, 0, len(chosen))

	for _, def := range defs {
		tests, ok := chosen[def.Name]
		if !ok {
			continue
		}

		selections = append(selections, Selection{Definition: def, Tests: tests})
	}

	return selections, nil
}

// appendTests adds the declared tests matching testPattern to current.
func appendTests(current []string, def Definition, testPattern string, hasTest bool) ([]string, error) {
	if hasTest && !strings.ContainsAny(testPattern, `*?[\`) {
		return mergeNames(current, []string{testPattern}), nil
	}

	available := def.TestNames()

	if !hasTest {
		return mergeNames(current, available), nil
	}

	var picked []string

	for _, name := range available {
		ok, err := path.Match(testPattern, name)
		if err != nil {
			return nil, err
		}

		if ok {
			picked = append(picked, name)
		}
	}

	return mergeNames(current, picked), nil
}

func mergeNames(current, extra []string) []string {
	for _, name := range extra {
		if !slices.Contains(current, name) {
			current = append(current, name)
		}
	}

	return current
}
