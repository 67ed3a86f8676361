package cmd_test

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/devantler-tech/apitest/pkg/apis/environment/v1alpha1"
	"github.com/devantler-tech/apitest/pkg/cli/cmd"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func TestMain(m *testing.M) {
	exitCode := m.Run()

	_, err := snaps.Clean(m, snaps.CleanOpts{Sort: true})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to clean snapshots: " + err.Error() + "\n")

		os.Exit(1)
	}

	os.Exit(exitCode)
}

func TestListTestsets(t *testing.T) {
	t.Parallel()

	h := newHarness()

	require.NoError(t, h.execute("list", "testsets"))

	assert.Equal(t,
		"Alpha (node count: 1)\n  Alpha.fails\n  Alpha.ok\nPair (node count: 2)\n  Pair.ok\n",
		h.out.String())
}

func TestListTestsetsNeverConstructsTestsets(t *testing.T) {
	t.Parallel()

	registry := testlib.NewRegistry()
	registry.MustRegister(testlib.Definition{
		Name:  "Broken",
		Tests: []string{"still_listed"},
		Requirements: func() (testlib.Requirements, error) {
			panic("no requirements today")
		},
		New: func() testlib.TestSet { panic("no instance today") },
	})

	var out bytes.Buffer

	require.NotPanics(t, func() { cmd.HandleListTestsets(&out, registry) })

	assert.Contains(t, out.String(), "Broken (requirements unavailable: ")
	assert.Contains(t, out.String(), "no requirements today")
	assert.Contains(t, out.String(), "  Broken.still_listed\n")
}

func TestListClustersYAML(t *testing.T) {
	t.Parallel()

	h := newHarness()
	config := writeConfig(t, twoClusterConfig)

	require.NoError(t, h.execute("list", "clusters", "--config", config))

	var rendered v1alpha1.Environment
	require.NoError(t, yaml.Unmarshal(h.out.Bytes(), &rendered))

	require.Len(t, rendered.Spec.Clusters, 2)
	assert.Equal(t, "single", rendered.Spec.Clusters[0].Name)
	assert.Equal(t, v1alpha1.DefaultUsername, rendered.Spec.Clusters[0].Auth.Username)
	assert.Equal(t, "********", rendered.Spec.Clusters[0].Auth.Password)
	assert.Equal(t, v1alpha1.DefaultReadinessTimeout, rendered.Spec.Clusters[1].Readiness.Timeout.Duration)
	assert.NotContains(t, h.out.String(), "secret")
	snaps.MatchSnapshot(t, h.out.String())
}

func TestListClustersJSON(t *testing.T) {
	t.Parallel()

	h := newHarness()
	config := writeConfig(t, twoClusterConfig)

	require.NoError(t, h.execute("list", "clusters", "--config", config, "-o", "json"))

	var rendered v1alpha1.Environment
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &rendered))
	assert.Equal(t, "pair", rendered.Spec.Clusters[1].Name)
	assert.Equal(t, "admin", rendered.Spec.Clusters[1].Auth.Username)
	snaps.MatchSnapshot(t, h.out.String())
}

func TestHandleListClustersRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	config := v1alpha1.NewEnvironment()

	err := cmd.HandleListClusters(&bytes.Buffer{}, config, "xml")
	require.ErrorIs(t, err, cmd.ErrInvalidOutputFormat)
}

func TestHandleListClustersDoesNotMutateConfig(t *testing.T) {
	t.Parallel()

	config := v1alpha1.NewEnvironment()
	config.Spec.Clusters = []v1alpha1.ClusterSpec{{
		Name: "local",
		URLs: []string{"http://127.0.0.1:9000"},
		Auth: v1alpha1.AuthSpec{Username: "Administrator", Password: "secret"},
	}}

	require.NoError(t, cmd.HandleListClusters(&bytes.Buffer{}, config, "yaml"))
	assert.Equal(t, "secret", config.Spec.Clusters[0].Auth.Password)
}
