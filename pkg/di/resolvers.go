package di

import (
	"fmt"

	"github.com/devantler-tech/apitest/pkg/svc/environment"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/devantler-tech/apitest/pkg/utils/timer"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// Dependency resolvers.

// ResolveTimer retrieves the timer dependency from the injector with consistent error handling.
func ResolveTimer(injector Injector) (timer.Timer, error) {
	tmr, err := do.Invoke[timer.Timer](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve timer dependency: %w", err)
	}

	return tmr, nil
}

// ResolveRegistry retrieves the test-set registry.
func ResolveRegistry(injector Injector) (*testlib.Registry, error) {
	registry, err := do.Invoke[*testlib.Registry](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve registry dependency: %w", err)
	}

	return registry, nil
}

// ResolveEnvironmentFactory retrieves the environment factory dependency.
func ResolveEnvironmentFactory(injector Injector) (environment.Factory, error) {
	factory, err := do.Invoke[environment.Factory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve environment factory dependency: %w", err)
	}

	return factory, nil
}

// Handler decorators.

// WithTimer decorates a handler to automatically resolve the timer dependency.
func WithTimer(
	handler func(cmd *cobra.Command, injector Injector, tmr timer.Timer) error,
) func(cmd *cobra.Command, injector Injector) error {
	return func(cmd *cobra.Command, injector Injector) error {
		tmr, err := ResolveTimer(injector)
		if err != nil {
			return err
		}

		return handler(cmd, injector, tmr)
	}
}
