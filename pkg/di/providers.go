package di

import (
	"github.com/devantler-tech/apitest/pkg/svc/environment"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/devantler-tech/apitest/pkg/testsets"
	"github.com/devantler-tech/apitest/pkg/utils/timer"
	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"
)

// Dependency providers.

// NewRuntime constructs the shared runtime container used by root command and tests.
// It registers default implementations for timer, test-set registry and
// environment factory, then applies overrides.
func NewRuntime(overrides ...Module) *Runtime {
	modules := []Module{
		provideTimer,
		provideRegistry,
		provideEnvironmentFactory,
	}

	return New(append(modules, overrides...)...)
}

// provideTimer registers the timer dependency with the injector.
func provideTimer(i Injector) error {
	do.Provide(i, func(Injector) (timer.Timer, error) {
		return timer.New(), nil
	})

	return nil
}

// provideRegistry registers the registry holding the built-in test-sets.
func provideRegistry(i Injector) error {
	do.Provide(i, func(Injector) (*testlib.Registry, error) {
		registry := testlib.NewRegistry()

		err := testsets.Register(registry)
		if err != nil {
			return nil, err
		}

		return registry, nil
	})

	return nil
}

// provideEnvironmentFactory registers the environment factory dependency.
func provideEnvironmentFactory(i Injector) error {
	do.Provide(i, func(Injector) (environment.Factory, error) {
		return environment.DefaultFactory{Logger: logrus.NewEntry(logrus.StandardLogger())}, nil
	})

	return nil
}

// WithEnvironmentFactory overrides the environment factory, for tests.
func WithEnvironmentFactory(factory environment.Factory) Module {
	return func(i Injector) error {
		do.Override(i, func(Injector) (environment.Factory, error) {
			return factory, nil
		})

		return nil
	}
}

// WithRegistry overrides the test-set registry, for tests.
func WithRegistry(registry *testlib.Registry) Module {
	return func(i Injector) error {
		do.Override(i, func(Injector) (*testlib.Registry, error) {
			return registry, nil
		})

		return nil
	}
}
