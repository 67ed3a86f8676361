package testsets

import (
	"errors"
	"fmt"

	"github.com/devantler-tech/apitest/pkg/testlib"
)

var (
	// ErrMissingVersion is returned when /pools does not report a version.
	ErrMissingVersion = errors.New("pools response carries no implementation version")
	// ErrInvalidVersion is returned when the reported version is not a semantic version.
	ErrInvalidVersion = errors.New("pools response carries an invalid version")
	// ErrNodeMismatch is returned when nodes disagree about cluster membership.
	ErrNodeMismatch = errors.New("nodes disagree about cluster membership")
	// ErrUnhealthyNode is returned when a node reports a status other than healthy.
	ErrUnhealthyNode = errors.New("node is not healthy")
	// ErrNotSetUp is returned by a test called before setup ran.
	ErrNotSetUp = errors.New("test-set is not set up")
)

// Definitions returns the built-in test-sets.
func Definitions() []testlib.Definition {
	return []testlib.Definition{
		PoolsDefinition(),
		ClusterNodesDefinition(),
	}
}

// Register adds the built-in test-sets to registry.
func Register(registry *testlib.Registry) error {
	for _, def := range Definitions() {
		err := registry.Register(def)
		if err != nil {
			return fmt.Errorf("register %s: %w", def.Name, err)
		}
	}

	return nil
}

// node is the part of a /pools/default node entry the test-sets read.
type node struct {
	Hostname string `json:"hostname"`
	Status   string `json:"status"`
}

type defaultPool struct {
	Nodes []node `json:"nodes"`
}
