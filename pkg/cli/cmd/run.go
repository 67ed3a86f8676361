package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/devantler-tech/apitest/pkg/cli/helpers"
	"github.com/devantler-tech/apitest/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/apitest/pkg/cli/ui/reporter"
	"github.com/devantler-tech/apitest/pkg/di"
	"github.com/devantler-tech/apitest/pkg/io/configmanager"
	"github.com/devantler-tech/apitest/pkg/svc/environment"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/devantler-tech/apitest/pkg/utils/notify"
	"github.com/devantler-tech/apitest/pkg/utils/timer"
	"github.com/spf13/cobra"
)

// ErrTestsFailed is returned when at least one test, setup, teardown or
// preparation step failed.
var ErrTestsFailed = errors.New("tests failed")

const runLongDesc = `Run test-sets against the cluster pool.

Patterns select what to run: "<testset>" runs a whole test-set and
"<testset>.<test>" a single test. Both parts accept shell wildcards.
Without patterns every registered test-set runs.

Examples:
  # Run everything against the configured pool
  apitest run

  # Run one test-set against an already running node
  apitest run PoolsTestSet --url http://127.0.0.1:9000 --password secret

  # Run matching tests only
  apitest run 'ClusterNodesTestSet.nodes_*'`

// RunOptions holds the run command flags.
type RunOptions struct {
	URLs     []string
	Username string
	Password string
	NoStacks bool
}

// NewRunCmd creates the run command.
func NewRunCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var opts RunOptions

	cmd := &cobra.Command{
		Use:          "run [patterns...]",
		Short:        "Run test-sets",
		Long:         runLongDesc,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := di.WithTimer(func(cmd *cobra.Command, injector di.Injector, tmr timer.Timer) error {
				return HandleRunRunE(cmd, injector, tmr, args, opts)
			})

			return runtimeContainer.Invoke(func(injector di.Injector) error {
				return handler(cmd, injector)
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.URLs, "url", nil,
		"Node URLs of a single running cluster; replaces the configured pool")
	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "Cluster username")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "Cluster password")
	cmd.Flags().BoolVar(&opts.NoStacks, "no-stacks", false, "Do not print the stack traces of failures")

	return cmd
}

// HandleRunRunE plans the run, loads the environment, runs every selected
// test-set and prints the summary.
// Exported for testing purposes.
func HandleRunRunE(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	patterns []string,
	opts RunOptions,
) error {
	tmr.Start()

	registry, err := di.ResolveRegistry(injector)
	if err != nil {
		return err
	}

	selections, err := testlib.Plan(registry, patterns)
	if err != nil {
		return fmt.Errorf("select test-sets: %w", err)
	}

	cfgManager := configmanager.NewConfigManager(cmd.OutOrStdout(), helpers.ConfigFile(cmd))
	cfgManager.Overrides = configmanager.Overrides{
		URLs:     opts.URLs,
		Username: opts.Username,
		Password: opts.Password,
	}

	outputTimer := helpers.MaybeTimer(cmd, tmr)

	config, err := cfgManager.LoadConfig(outputTimer)
	if err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	factory, err := di.ResolveEnvironmentFactory(injector)
	if err != nil {
		return err
	}

	return runSelections(cmd, factory.Create(config), selections, outputTimer, opts)
}

//nolint:nonamedreturns // The deferred environment shutdown joins its error.
func runSelections(
	cmd *cobra.Command,
	env environment.Service,
	selections []testlib.Selection,
	tmr timer.Timer,
	opts RunOptions,
) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()

	defer func() {
		stopErr := env.Stop(context.WithoutCancel(ctx))
		if stopErr != nil {
			notify.Warningf(out, "failed to stop environment: %v", stopErr)

			err = errors.Join(err, stopErr)
		}
	}()

	if tmr != nil {
		tmr.NewStage()
	}

	notify.Activityf(out, "starting environment")

	pool, err := env.Start(ctx)
	if err != nil {
		return fmt.Errorf("start environment: %w", err)
	}

	if tmr != nil {
		notify.SuccessWithTimerf(out, tmr, "%d clusters ready", len(pool))
	} else {
		notify.Successf(out, "%d clusters ready", len(pool))
	}

	console := reporter.NewConsole(out, reporter.WithTimer(tmr), reporter.WithStacks(!opts.NoStacks))
	runner := testlib.NewRunner(console)

	var summary testlib.Summary

	for _, selection := range selections {
		summary.Add(runner.Run(ctx, selection.Definition, selection.Tests, pool))
	}

	reporter.PrintSummary(out, &summary)

	summaryErr := summary.Err()
	if summaryErr != nil {
		return errorhandler.Reported(fmt.Errorf("%w: %w", ErrTestsFailed, summaryErr))
	}

	return nil
}
