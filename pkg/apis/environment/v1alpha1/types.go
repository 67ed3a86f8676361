package v1alpha1

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// Group is the API group for apitest configuration.
	Group = "apitest.devantler.tech"
	// Version is the API version.
	Version = "v1alpha1"
	// Kind is the kind of the environment configuration.
	Kind = "Environment"
	// APIVersion is the full API version.
	APIVersion = Group + "/" + Version
)

// Environment describes the pool of clusters available to test-sets.
type Environment struct {
	APIVersion string          `json:"apiVersion,omitzero" mapstructure:"apiVersion"`
	Kind       string          `json:"kind,omitzero"       mapstructure:"kind"`
	Spec       EnvironmentSpec `json:"spec"                mapstructure:"spec"`
}

// EnvironmentSpec lists the clusters of the pool, in selection order.
type EnvironmentSpec struct {
	// Clusters are offered to test-sets in this order.
	Clusters []ClusterSpec `json:"clusters" mapstructure:"clusters"`
	// Readiness is the default readiness probe for clusters that do not set one.
	Readiness ReadinessSpec `json:"readiness,omitzero" mapstructure:"readiness"`
}

// ClusterSpec describes one cluster.
type ClusterSpec struct {
	Name string `json:"name" mapstructure:"name"`
	// URLs holds the base URL of every node, in node order.
	URLs []string `json:"urls" mapstructure:"urls"`
	Auth AuthSpec `json:"auth,omitzero" mapstructure:"auth"`
	// Processes are started before the cluster is offered and stopped after every run.
	Processes []ProcessSpec `json:"processes,omitempty" mapstructure:"processes"`
	// Readiness overrides the environment readiness probe.
	Readiness ReadinessSpec `json:"readiness,omitzero" mapstructure:"readiness"`
}

// AuthSpec holds cluster credentials. ${VAR} placeholders are expanded from
// the environment when the configuration is loaded.
type AuthSpec struct {
	Username string `json:"username,omitzero" mapstructure:"username"`
	Password string `json:"password,omitzero" mapstructure:"password"`
}

// ProcessSpec describes a node process managed by apitest.
type ProcessSpec struct {
	Name    string   `json:"name,omitzero"    mapstructure:"name"`
	Command string   `json:"command"          mapstructure:"command"`
	Args    []string `json:"args,omitempty"   mapstructure:"args"`
	Dir     string   `json:"dir,omitzero"     mapstructure:"dir"`
	Env     []string `json:"env,omitempty"    mapstructure:"env"`
}

// ReadinessSpec describes how to wait until every node answers.
type ReadinessSpec struct {
	// Path is requested on every node; any non-5xx answer means the node is up.
	Path     string   `json:"path,omitzero"     mapstructure:"path"`
	Timeout  Duration `json:"timeout,omitzero"  mapstructure:"timeout"`
	Interval Duration `json:"interval,omitzero" mapstructure:"interval"`
}

// Duration is a time.Duration that reads and writes as a Go duration string.
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(d.String())
	if err != nil {
		return nil, fmt.Errorf("marshal duration: %w", err)
	}

	return data, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("unmarshal duration: %w", err)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}

	d.Duration = parsed

	return nil
}
