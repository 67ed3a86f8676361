package v1alpha1

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

var (
	// ErrNoClusters is returned when the environment declares no cluster.
	ErrNoClusters = errors.New("environment declares no clusters")
	// ErrClusterNameInvalid is returned for names that are not DNS-1123 labels.
	ErrClusterNameInvalid = errors.New("invalid cluster name")
	// ErrDuplicateCluster is returned when two clusters share a name.
	ErrDuplicateCluster = errors.New("duplicate cluster name")
	// ErrNoURLs is returned for clusters without nodes.
	ErrNoURLs = errors.New("cluster declares no node URLs")
	// ErrInvalidURL is returned for node URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid node URL")
	// ErrNoCommand is returned for processes without a command.
	ErrNoCommand = errors.New("process declares no command")
	// ErrInvalidReadiness is returned for negative readiness durations.
	ErrInvalidReadiness = errors.New("invalid readiness probe")
)

// clusterNameRegex matches DNS-1123 labels.
var clusterNameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Validate reports every problem found in the environment.
func (e *Environment) Validate() error {
	if len(e.Spec.Clusters) == 0 {
		return ErrNoClusters
	}

	var errs []error

	seen := map[string]bool{}

	for i, cluster := range e.Spec.Clusters {
		if seen[cluster.Name] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateCluster, cluster.Name))
		}

		seen[cluster.Name] = true

		err := cluster.Validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("clusters[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// Validate reports every problem found in the cluster.
func (c ClusterSpec) Validate() error {
	var errs []error

	if !clusterNameRegex.MatchString(c.Name) {
		errs = append(errs, fmt.Errorf("%w: %q must be a DNS-1123 label", ErrClusterNameInvalid, c.Name))
	}

	if len(c.URLs) == 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrNoURLs, c.Name))
	}

	for _, raw := range c.URLs {
		parsed, err := url.Parse(raw)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidURL, raw))
		}
	}

	for i, process := range c.Processes {
		if process.Command == "" {
			errs = append(errs, fmt.Errorf("%w: processes[%d]", ErrNoCommand, i))
		}
	}

	if c.Readiness.Timeout.Duration < 0 || c.Readiness.Interval.Duration < 0 {
		errs = append(errs, fmt.Errorf("%w: durations must not be negative", ErrInvalidReadiness))
	}

	return errors.Join(errs...)
}
