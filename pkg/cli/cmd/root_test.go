package cmd_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/devantler-tech/apitest/pkg/apis/environment/v1alpha1"
	"github.com/devantler-tech/apitest/pkg/cli/cmd"
	"github.com/devantler-tech/apitest/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/apitest/pkg/di"
	"github.com/devantler-tech/apitest/pkg/svc/environment"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTestFailed = errors.New("boom")
	errStop       = errors.New("stop failed")
)

// Alpha needs one node.
type Alpha struct{}

func (*Alpha) Setup(context.Context, testlib.Cluster) error    { return nil }
func (*Alpha) Teardown(context.Context, testlib.Cluster) error { return nil }

func (*Alpha) Tests() map[string]testlib.TestFunc {
	return map[string]testlib.TestFunc{
		"ok":    func(context.Context, testlib.Cluster) error { return nil },
		"fails": func(context.Context, testlib.Cluster) error { return errTestFailed },
	}
}

// Pair needs two nodes.
type Pair struct{}

func (*Pair) Setup(context.Context, testlib.Cluster) error    { return nil }
func (*Pair) Teardown(context.Context, testlib.Cluster) error { return nil }

func (*Pair) Tests() map[string]testlib.TestFunc {
	return map[string]testlib.TestFunc{
		"ok": func(context.Context, testlib.Cluster) error { return nil },
	}
}

func fixtureRegistry() *testlib.Registry {
	registry := testlib.NewRegistry()
	registry.MustRegister(
		testlib.Definition{
			Name:         "Alpha",
			Tests:        []string{"fails", "ok"},
			Requirements: func() (testlib.Requirements, error) { return testlib.Requirements{NodeCount: 1}, nil },
			New:          func() testlib.TestSet { return &Alpha{} },
		},
		testlib.Definition{
			Name:         "Pair",
			Tests:        []string{"ok"},
			Requirements: func() (testlib.Requirements, error) { return testlib.Requirements{NodeCount: 2}, nil },
			New:          func() testlib.TestSet { return &Pair{} },
		},
	)

	return registry
}

type fakeEnvironment struct {
	pool     []testlib.Cluster
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (e *fakeEnvironment) Start(context.Context) ([]testlib.Cluster, error) {
	e.started = true

	return e.pool, e.startErr
}

func (e *fakeEnvironment) Stop(context.Context) error {
	e.stopped = true

	return e.stopErr
}

type fakeFactory struct {
	env    *fakeEnvironment
	config *v1alpha1.Environment
}

func (f *fakeFactory) Create(config *v1alpha1.Environment) environment.Service {
	f.config = config
	f.env.pool = environment.Pool(config)

	return f.env
}

type harness struct {
	factory *fakeFactory
	out     bytes.Buffer
}

func newHarness() *harness {
	return &harness{factory: &fakeFactory{env: &fakeEnvironment{}}}
}

func (h *harness) execute(args ...string) error {
	runtime := di.NewRuntime(di.WithRegistry(fixtureRegistry()), di.WithEnvironmentFactory(h.factory))

	root := cmd.NewRootCmdWithRuntime("", "", "", runtime)
	root.SetArgs(args)
	root.SetOut(&h.out)
	root.SetErr(&h.out)

	return cmd.Execute(root)
}

func TestNewRootCmdVersionFormatting(t *testing.T) {
	t.Parallel()

	version := "1.2.3"
	commit := "abc123"
	date := "2025-08-17"
	cmd := cmd.NewRootCmd(version, commit, date)

	expectedVersion := version + " (Built on " + date + " from Git SHA " + commit + ")"
	assert.Equal(t, expectedVersion, cmd.Version)
}

func TestExecuteShowsHelp(t *testing.T) {
	t.Parallel()

	h := newHarness()

	require.NoError(t, h.execute())

	output := h.out.String()
	assert.Contains(t, output, "apitest runs named test-sets")
	assert.Contains(t, output, "run")
	assert.Contains(t, output, "list")
	assert.Contains(t, output, "--log-level")
}

func TestExecuteRejectsUnknownLogLevel(t *testing.T) {
	t.Parallel()

	h := newHarness()

	err := h.execute("list", "testsets", "--log-level", "chatty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-level")
}

func TestExecuteWrapsUnknownCommand(t *testing.T) {
	t.Parallel()

	h := newHarness()

	err := h.execute("explode")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "command execution failed"))
}

func TestExecutePointsUnknownFlagsAtSubcommandHelp(t *testing.T) {
	t.Parallel()

	h := newHarness()

	err := h.execute("run", "--bogus")
	require.Error(t, err)

	var cmdErr *errorhandler.CommandError

	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "apitest run", cmdErr.Command)
	assert.Contains(t, err.Error(), "unknown flag: --bogus")
	assert.Contains(t, err.Error(), "Run 'apitest run --help' for usage.")
	assert.False(t, h.factory.env.started, "nothing runs on a usage error")
}
