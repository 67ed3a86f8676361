package testsets_test

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/devantler-tech/apitest/pkg/testsets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "Administrator"
	testPassword = "password"
)

type fakeNode struct {
	version string
	nodes   []map[string]string
}

func (n fakeNode) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pools", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"implementationVersion": n.version})
	})
	mux.HandleFunc("GET /pools/default", func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok || user != testUser || password != testPassword {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		writeJSON(t, w, map[string]any{"nodes": n.nodes})
	})

	return mux
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(payload))
}

func startCluster(t *testing.T, name string, nodes ...fakeNode) testlib.Cluster {
	t.Helper()

	urls := make([]string, 0, len(nodes))

	for _, n := range nodes {
		server := httptest.NewServer(n.handler(t))
		t.Cleanup(server.Close)

		urls = append(urls, server.URL)
	}

	return testlib.NewCluster(name, urls, testlib.Auth{Username: testUser, Password: testPassword})
}

func runAll(t *testing.T, def testlib.Definition, pool ...testlib.Cluster) testlib.Outcome {
	t.Helper()

	return testlib.NewRunner(nil).Run(context.Background(), def, def.TestNames(), pool)
}

func errorNames(outcome testlib.Outcome) []string {
	names := make([]string, 0, len(outcome.Errors))
	for _, testErr := range outcome.Errors {
		names = append(names, testErr.Name)
	}

	return names
}

func healthyNodes(hosts ...string) []map[string]string {
	nodes := make([]map[string]string, 0, len(hosts))
	for _, host := range hosts {
		nodes = append(nodes, map[string]string{"hostname": host, "status": "healthy"})
	}

	return nodes
}

func TestRegister(t *testing.T) {
	t.Parallel()

	registry := testlib.NewRegistry()
	require.NoError(t, testsets.Register(registry))

	defs := registry.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "ClusterNodesTestSet", defs[0].Name)
	assert.Equal(t, "PoolsTestSet", defs[1].Name)

	err := testsets.Register(registry)
	require.ErrorIs(t, err, testlib.ErrDuplicateTestset)
}

func TestDefinitionsDeclareEveryTest(t *testing.T) {
	t.Parallel()

	for _, def := range testsets.Definitions() {
		provided := slices.Sorted(maps.Keys(def.New().Tests()))

		assert.Equal(t, provided, def.TestNames(), def.Name)
	}
}

func TestPoolsTestSetPasses(t *testing.T) {
	t.Parallel()

	cluster := startCluster(t, "single", fakeNode{version: "7.6.0-1234"})

	outcome := runAll(t, testsets.PoolsDefinition(), cluster)

	assert.Equal(t, 2, outcome.Executed)
	assert.Empty(t, outcome.Errors)
}

func TestPoolsTestSetReportsMissingVersion(t *testing.T) {
	t.Parallel()

	cluster := startCluster(t, "single", fakeNode{})

	outcome := runAll(t, testsets.PoolsDefinition(), cluster)

	assert.Equal(t, 2, outcome.Executed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "PoolsTestSet.pools_version", outcome.Errors[0].Name)
	require.ErrorIs(t, outcome.Errors[0], testsets.ErrMissingVersion)
}

func TestPoolsTestSetReportsInvalidVersion(t *testing.T) {
	t.Parallel()

	cluster := startCluster(t, "single", fakeNode{version: "banana"})

	outcome := runAll(t, testsets.PoolsDefinition(), cluster)

	assert.Equal(t, []string{"PoolsTestSet.pools_version"}, errorNames(outcome))
	require.ErrorIs(t, outcome.Errors[0], testsets.ErrInvalidVersion)
	assert.Contains(t, outcome.Errors[0].Error(), `"banana"`)
}

func TestPoolsTestSetNeedsSingleNode(t *testing.T) {
	t.Parallel()

	cluster := startCluster(t, "pair", fakeNode{}, fakeNode{})

	outcome := runAll(t, testsets.PoolsDefinition(), cluster)

	assert.Equal(t, 0, outcome.Executed)
	assert.Equal(t, []string{testlib.PreparationName}, errorNames(outcome))
	require.ErrorIs(t, outcome.Errors[0], testlib.ErrNoMatchingCluster)
}

func TestClusterNodesTestSetPasses(t *testing.T) {
	t.Parallel()

	nodes := healthyNodes("10.0.0.2:8091", "10.0.0.1:8091")
	cluster := startCluster(t, "pair",
		fakeNode{version: "7.6.0", nodes: nodes},
		fakeNode{version: "7.6.0", nodes: []map[string]string{nodes[1], nodes[0]}},
	)

	outcome := runAll(t, testsets.ClusterNodesDefinition(), cluster)

	assert.Equal(t, 2, outcome.Executed)
	assert.Empty(t, outcome.Errors)
}

func TestClusterNodesTestSetDetectsDisagreement(t *testing.T) {
	t.Parallel()

	cluster := startCluster(t, "pair",
		fakeNode{nodes: healthyNodes("10.0.0.1:8091", "10.0.0.2:8091")},
		fakeNode{nodes: healthyNodes("10.0.0.1:8091", "10.0.0.3:8091")},
	)

	outcome := runAll(t, testsets.ClusterNodesDefinition(), cluster)

	require.Equal(t, []string{"ClusterNodesTestSet.nodes_agree"}, errorNames(outcome))
	require.ErrorIs(t, outcome.Errors[0], testsets.ErrNodeMismatch)
	assert.True(t, strings.Contains(outcome.Errors[0].Error(), "10.0.0.3:8091"))
}

func TestClusterNodesTestSetDetectsUnhealthyNode(t *testing.T) {
	t.Parallel()

	nodes := []map[string]string{
		{"hostname": "10.0.0.1:8091", "status": "healthy"},
		{"hostname": "10.0.0.2:8091", "status": "warmup"},
	}
	cluster := startCluster(t, "pair", fakeNode{nodes: nodes}, fakeNode{nodes: nodes})

	outcome := runAll(t, testsets.ClusterNodesDefinition(), cluster)

	require.Equal(t, []string{"ClusterNodesTestSet.nodes_healthy"}, errorNames(outcome))
	require.ErrorIs(t, outcome.Errors[0], testsets.ErrUnhealthyNode)
}

func TestTestsFailBeforeSetup(t *testing.T) {
	t.Parallel()

	for _, def := range testsets.Definitions() {
		instance := def.New()

		for name, test := range instance.Tests() {
			err := test(context.Background(), testlib.Cluster{})
			require.ErrorIs(t, err, testsets.ErrNotSetUp, "%s.%s", def.Name, name)
		}
	}
}
