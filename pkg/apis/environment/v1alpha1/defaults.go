package v1alpha1

import "time"

const (
	// DefaultUsername is the administrator user of a freshly started cluster.
	DefaultUsername = "Administrator"
	// DefaultReadinessPath is probed on every node before a cluster is offered.
	DefaultReadinessPath = "/pools"
	// DefaultReadinessTimeout bounds the wait for a cluster to come up.
	DefaultReadinessTimeout = 2 * time.Minute
	// DefaultReadinessInterval is the pause between two readiness probes.
	DefaultReadinessInterval = time.Second
)

// NewEnvironment returns an empty environment with type metadata set.
func NewEnvironment() *Environment {
	return &Environment{APIVersion: APIVersion, Kind: Kind}
}

// SetDefaults fills unset fields. Cluster readiness falls back to the
// environment readiness, which falls back to the package defaults.
func (e *Environment) SetDefaults() {
	if e.APIVersion == "" {
		e.APIVersion = APIVersion
	}

	if e.Kind == "" {
		e.Kind = Kind
	}

	e.Spec.Readiness = e.Spec.Readiness.withDefaults(ReadinessSpec{
		Path:     DefaultReadinessPath,
		Timeout:  Duration{DefaultReadinessTimeout},
		Interval: Duration{DefaultReadinessInterval},
	})

	for i := range e.Spec.Clusters {
		cluster := &e.Spec.Clusters[i]

		if cluster.Auth.Username == "" {
			cluster.Auth.Username = DefaultUsername
		}

		cluster.Readiness = cluster.Readiness.withDefaults(e.Spec.Readiness)
	}
}

func (r ReadinessSpec) withDefaults(fallback ReadinessSpec) ReadinessSpec {
	if r.Path == "" {
		r.Path = fallback.Path
	}

	if r.Timeout.Duration == 0 {
		r.Timeout = fallback.Timeout
	}

	if r.Interval.Duration == 0 {
		r.Interval = fallback.Interval
	}

	return r
}
