package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/devantler-tech/apitest/pkg/apis/environment/v1alpha1"
	"github.com/devantler-tech/apitest/pkg/cli/helpers"
	"github.com/devantler-tech/apitest/pkg/di"
	"github.com/devantler-tech/apitest/pkg/io/configmanager"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var (
	// ErrInvalidOutputFormat is returned for an unsupported --output value.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	errNoRequirements = errors.New("no requirements")
)

const (
	outputYAML = "yaml"
	outputJSON = "json"

	maskedPassword = "********"
)

// NewListCmd creates the list command group.
func NewListCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List test-sets or clusters",
		SilenceUsage: true,
		RunE:         handleRootRunE,
	}

	cmd.AddCommand(newListTestsetsCmd(runtimeContainer))
	cmd.AddCommand(newListClustersCmd())

	return cmd
}

func newListTestsetsCmd(runtimeContainer *di.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:          "testsets",
		Short:        "List registered test-sets, their requirements and tests",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
			registry, err := di.ResolveRegistry(injector)
			if err != nil {
				return err
			}

			HandleListTestsets(cmd.OutOrStdout(), registry)

			return nil
		}),
	}
}

// HandleListTestsets prints every test-set with its requirements and declared
// test names. A failing requirements query is printed in place of the
// requirements. No test-set is instantiated.
func HandleListTestsets(writer io.Writer, registry *testlib.Registry) {
	for _, def := range registry.Definitions() {
		req, failure := testlib.Invoke(testlib.NopSink{}, testlib.Call{Testset: def.Name, Name: def.Name},
			func() (testlib.Requirements, error) {
				if def.Requirements == nil {
					return testlib.Requirements{}, errNoRequirements
				}

				return def.Requirements()
			})
		if failure != nil {
			_, _ = fmt.Fprintf(writer, "%s (requirements unavailable: %v)\n", def.Name, failure.Err)
		} else {
			_, _ = fmt.Fprintf(writer, "%s (%s)\n", def.Name, req)
		}

		for _, name := range def.TestNames() {
			_, _ = fmt.Fprintf(writer, "  %s\n", testlib.QualifiedName(def.Name, name))
		}
	}
}

func newListClustersCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:          "clusters",
		Short:        "Print the configured cluster pool",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgManager := configmanager.NewConfigManager(cmd.OutOrStdout(), helpers.ConfigFile(cmd))

			config, err := cfgManager.LoadConfigSilent()
			if err != nil {
				return fmt.Errorf("load environment: %w", err)
			}

			return HandleListClusters(cmd.OutOrStdout(), config, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "Output format (yaml, json)")

	return cmd
}

// HandleListClusters renders the loaded environment with passwords masked.
func HandleListClusters(writer io.Writer, config *v1alpha1.Environment, output string) error {
	masked := *config
	masked.Spec.Clusters = make([]v1alpha1.ClusterSpec, len(config.Spec.Clusters))

	for i, cluster := range config.Spec.Clusters {
		if cluster.Auth.Password != "" {
			cluster.Auth.Password = maskedPassword
		}

		masked.Spec.Clusters[i] = cluster
	}

	var (
		data []byte
		err  error
	)

	switch strings.ToLower(output) {
	case outputYAML:
		data, err = yaml.Marshal(masked)
	case outputJSON:
		data, err = json.MarshalIndent(masked, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	default:
		return fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidOutputFormat, output, outputYAML, outputJSON)
	}

	if err != nil {
		return fmt.Errorf("render clusters: %w", err)
	}

	_, err = writer.Write(data)
	if err != nil {
		return fmt.Errorf("write clusters: %w", err)
	}

	return nil
}
