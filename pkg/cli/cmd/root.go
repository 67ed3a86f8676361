package cmd

import (
	"fmt"

	"github.com/devantler-tech/apitest/pkg/cli/helpers"
	"github.com/devantler-tech/apitest/pkg/cli/ui/errorhandler"
	"github.com/devantler-tech/apitest/pkg/di"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	return NewRootCmdWithRuntime(version, commit, date, di.NewRuntime())
}

// NewRootCmdWithRuntime is NewRootCmd with an explicit runtime container.
func NewRootCmdWithRuntime(version, commit, date string, runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apitest",
		Short: "apitest runs REST API test-sets against database clusters",
		Long: "apitest runs named test-sets against a pool of clusters, picking for each " +
			"test-set the first cluster that satisfies its requirements.",
		RunE:         handleRootRunE,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return helpers.ConfigureLogging(cmd)
		},
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)
	cmd.SetFlagErrorFunc(errorhandler.FlagErrorFunc)

	cmd.PersistentFlags().Bool(
		helpers.TimingFlagName,
		false,
		"Show per-activity timing output",
	)
	cmd.PersistentFlags().StringP(
		helpers.ConfigFlagName, "c",
		"",
		"Path to the environment configuration (default: ./apitest.yaml or ~/.config/apitest/apitest.yaml)",
	)
	cmd.PersistentFlags().String(
		helpers.LogLevelFlagName,
		helpers.DefaultLogLevel,
		"Diagnostic log level (trace, debug, info, warning, error)",
	)

	cmd.AddCommand(NewRunCmd(runtimeContainer))
	cmd.AddCommand(NewListCmd(runtimeContainer))

	return cmd
}

// Execute runs the provided root command and handles errors.
func Execute(cmd *cobra.Command) error {
	executor := errorhandler.NewExecutor()

	err := executor.Execute(cmd)
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

// --- internals ---

// handleRootRunE handles the root command.
func handleRootRunE(
	cmd *cobra.Command,
	_ []string,
) error {
	// The err can safely be ignored, as it can never fail at runtime.
	_ = cmd.Help()

	return nil
}
