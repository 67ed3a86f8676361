// Package envvar provides utilities for working with environment variables.
package envvar

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// ErrMissingVariable is returned when a ${VAR} placeholder names an unset
// variable and carries no default.
var ErrMissingVariable = errors.New("environment variable not set")

// pattern matches ${VAR_NAME} and ${VAR_NAME:-default} placeholders.
// Groups: 1 = variable name, 2 = ":-" marker, 3 = default value.
var pattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)(:-([^}]*))?\}`)

// LookupFunc resolves a variable name, like os.LookupEnv.
type LookupFunc func(string) (string, bool)

// Expand replaces ${VAR_NAME} and ${VAR_NAME:-default} placeholders with
// values from the process environment.
func Expand(value string) (string, error) {
	return ExpandWith(value, os.LookupEnv)
}

// ExpandWith is Expand with an explicit lookup. A variable that is unset and
// has no default is an error, so credentials never silently become empty.
// Every missing variable is reported.
func ExpandWith(value string, lookup LookupFunc) (string, error) {
	if value == "" {
		return value, nil
	}

	var missing []error

	expanded := pattern.ReplaceAllStringFunc(value, func(match string) string {
		groups := pattern.FindStringSubmatch(match)
		name := groups[1]

		resolved, ok := lookup(name)
		if ok {
			return resolved
		}

		if groups[2] != "" {
			return groups[3]
		}

		missing = append(missing, fmt.Errorf("%w: %s", ErrMissingVariable, name))

		return match
	})

	if len(missing) > 0 {
		return "", errors.Join(missing...)
	}

	return expanded, nil
}
