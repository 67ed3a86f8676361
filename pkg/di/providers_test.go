package di_test

import (
	"testing"

	"github.com/devantler-tech/apitest/pkg/di"
	"github.com/devantler-tech/apitest/pkg/svc/environment"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuntime_ProvidesTimer(t *testing.T) {
	t.Parallel()

	rt := di.NewRuntime()

	err := rt.Invoke(func(injector di.Injector) error {
		tmr, resolveErr := di.ResolveTimer(injector)
		require.NoError(t, resolveErr, "expected timer to be resolved")
		require.NotNil(t, tmr, "expected timer to be non-nil")

		return nil
	})

	require.NoError(t, err, "expected invoke to succeed")
}

func TestNewRuntime_ProvidesBuiltinTestsets(t *testing.T) {
	t.Parallel()

	rt := di.NewRuntime()

	err := rt.Invoke(func(injector di.Injector) error {
		registry, resolveErr := di.ResolveRegistry(injector)
		require.NoError(t, resolveErr)

		_, lookupErr := registry.Lookup("PoolsTestSet")
		require.NoError(t, lookupErr)

		_, lookupErr = registry.Lookup("ClusterNodesTestSet")
		require.NoError(t, lookupErr)

		return nil
	})

	require.NoError(t, err)
}

func TestNewRuntime_ProvidesEnvironmentFactory(t *testing.T) {
	t.Parallel()

	rt := di.NewRuntime()

	err := rt.Invoke(func(injector di.Injector) error {
		factory, resolveErr := di.ResolveEnvironmentFactory(injector)
		require.NoError(t, resolveErr)
		assert.IsType(t, environment.DefaultFactory{}, factory)

		return nil
	})

	require.NoError(t, err)
}

func TestOverrides(t *testing.T) {
	t.Parallel()

	registry := testlib.NewRegistry()
	factory := &environment.DefaultFactory{}

	err := di.NewRuntime().Invoke(func(injector di.Injector) error {
		resolvedRegistry, resolveErr := di.ResolveRegistry(injector)
		require.NoError(t, resolveErr)
		assert.Same(t, registry, resolvedRegistry)

		resolvedFactory, resolveErr := di.ResolveEnvironmentFactory(injector)
		require.NoError(t, resolveErr)
		assert.Same(t, factory, resolvedFactory)

		return nil
	}, di.WithRegistry(registry), di.WithEnvironmentFactory(factory))

	require.NoError(t, err)
}

func TestNewRuntime_AppliesOverrides(t *testing.T) {
	t.Parallel()

	registry := testlib.NewRegistry()

	err := di.NewRuntime(di.WithRegistry(registry)).Invoke(func(injector di.Injector) error {
		resolved, resolveErr := di.ResolveRegistry(injector)
		require.NoError(t, resolveErr)
		assert.Same(t, registry, resolved)

		return nil
	})

	require.NoError(t, err)
}
