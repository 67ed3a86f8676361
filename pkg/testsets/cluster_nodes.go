package testsets

import (
	"context"
	"fmt"
	"slices"

	"github.com/devantler-tech/apitest/pkg/client/httpclient"
	"github.com/devantler-tech/apitest/pkg/testlib"
)

const (
	nodesAgreeTest   = "nodes_agree"
	nodesHealthyTest = "nodes_healthy"
)

// ClusterNodesTestSet checks that the nodes of a two node cluster agree on
// membership.
type ClusterNodesTestSet struct {
	clients []*httpclient.Client
}

// ClusterNodesDefinition describes ClusterNodesTestSet.
func ClusterNodesDefinition() testlib.Definition {
	return testlib.Definition{
		Name:  "ClusterNodesTestSet",
		Tests: []string{nodesAgreeTest, nodesHealthyTest},
		Requirements: func() (testlib.Requirements, error) {
			return testlib.Requirements{NodeCount: 2}, nil
		},
		New: func() testlib.TestSet { return &ClusterNodesTestSet{} },
	}
}

// Setup creates one client per node.
func (s *ClusterNodesTestSet) Setup(_ context.Context, cluster testlib.Cluster) error {
	s.clients = httpclient.ForCluster(cluster)

	return nil
}

// Teardown drops the clients.
func (s *ClusterNodesTestSet) Teardown(context.Context, testlib.Cluster) error {
	s.clients = nil

	return nil
}

// Tests returns the test methods.
func (s *ClusterNodesTestSet) Tests() map[string]testlib.TestFunc {
	return map[string]testlib.TestFunc{
		nodesAgreeTest:   s.nodesAgree,
		nodesHealthyTest: s.nodesHealthy,
	}
}

func (s *ClusterNodesTestSet) nodesAgree(ctx context.Context, cluster testlib.Cluster) error {
	if len(s.clients) == 0 {
		return ErrNotSetUp
	}

	var reference []string

	for i, client := range s.clients {
		nodes, err := s.nodes(ctx, client)
		if err != nil {
			return err
		}

		hostnames := make([]string, 0, len(nodes))
		for _, n := range nodes {
			hostnames = append(hostnames, n.Hostname)
		}

		slices.Sort(hostnames)

		if len(hostnames) != cluster.NodeCount() {
			return fmt.Errorf("%w: %s reports %d nodes, want %d",
				ErrNodeMismatch, client.BaseURL(), len(hostnames), cluster.NodeCount())
		}

		if i == 0 {
			reference = hostnames

			continue
		}

		if !slices.Equal(reference, hostnames) {
			return fmt.Errorf("%w: %s reports %v, %s reports %v",
				ErrNodeMismatch, s.clients[0].BaseURL(), reference, client.BaseURL(), hostnames)
		}
	}

	return nil
}

func (s *ClusterNodesTestSet) nodesHealthy(ctx context.Context, _ testlib.Cluster) error {
	if len(s.clients) == 0 {
		return ErrNotSetUp
	}

	nodes, err := s.nodes(ctx, s.clients[0])
	if err != nil {
		return err
	}

	for _, n := range nodes {
		if n.Status != "healthy" {
			return fmt.Errorf("%w: %s is %q", ErrUnhealthyNode, n.Hostname, n.Status)
		}
	}

	return nil
}

func (s *ClusterNodesTestSet) nodes(ctx context.Context, client *httpclient.Client) ([]node, error) {
	var pool defaultPool

	err := client.GetJSON(ctx, "/pools/default", &pool)
	if err != nil {
		return nil, fmt.Errorf("get default pool from %s: %w", client.BaseURL(), err)
	}

	return pool.Nodes, nil
}
