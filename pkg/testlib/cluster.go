package testlib

import (
	"fmt"
	"slices"
)

// Process is a handle to a node process. The environment layer that started the
// process owns it; the runner never starts or stops processes.
type Process interface {
	Pid() int
}

// Auth holds the credentials used to talk to a cluster.
type Auth struct {
	Username string
	Password string
}

// Cluster describes a reachable cluster: one base URL per node, the processes
// backing it and the credentials to use. It is immutable once constructed.
type Cluster struct {
	name      string
	urls      []string
	processes []Process
	auth      Auth
}

// NewCluster creates a cluster descriptor. The slices are copied.
func NewCluster(name string, urls []string, auth Auth, processes ...Process) Cluster {
	return Cluster{
		name:      name,
		urls:      slices.Clone(urls),
		processes: slices.Clone(processes),
		auth:      auth,
	}
}

// Name returns the name the environment gave to the cluster.
func (c Cluster) Name() string {
	return c.name
}

// URLs returns the base URL of every node, in node order.
func (c Cluster) URLs() []string {
	return slices.Clone(c.urls)
}

// Processes returns the handles of the processes backing the cluster.
func (c Cluster) Processes() []Process {
	return slices.Clone(c.processes)
}

// Auth returns the cluster credentials.
func (c Cluster) Auth() Auth {
	return c.auth
}

// NodeCount returns the number of nodes in the cluster.
func (c Cluster) NodeCount() int {
	return len(c.urls)
}

// String implements fmt.Stringer.
func (c Cluster) String() string {
	return fmt.Sprintf("%s %v", c.name, c.urls)
}

// Requirements describes the cluster shape a test-set needs.
type Requirements struct {
	NodeCount int
}

// String implements fmt.Stringer.
func (r Requirements) String() string {
	return fmt.Sprintf("node count: %d", r.NodeCount)
}

// Matches reports whether the cluster satisfies the requirements.
// New requirement dimensions are added here as extra clauses.
func Matches(cluster Cluster, req Requirements) bool {
	return req.NodeCount == cluster.NodeCount()
}

// SelectCluster returns the first cluster of the pool that matches the
// requirements, in pool order.
func SelectCluster(pool []Cluster, req Requirements) (Cluster, bool) {
	for _, cluster := range pool {
		if Matches(cluster, req) {
			return cluster, true
		}
	}

	return Cluster{}, false
}
