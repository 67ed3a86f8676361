package configmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/devantler-tech/apitest/pkg/apis/environment/v1alpha1"
	"github.com/devantler-tech/apitest/pkg/utils/envvar"
	"github.com/devantler-tech/apitest/pkg/utils/notify"
	"github.com/devantler-tech/apitest/pkg/utils/timer"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables overriding configuration keys.
	EnvPrefix = "APITEST"
	// ConfigName is the base name of the configuration file.
	ConfigName = "apitest"
	// AdhocClusterName names the cluster built from command-line URLs.
	AdhocClusterName = "adhoc"
)

// Overrides are values given on the command line. They win over the config file.
type Overrides struct {
	// URLs replaces the configured pool with a single cluster of these nodes.
	URLs     []string
	Username string
	Password string
}

// ConfigManager loads the environment configuration with Viper.
type ConfigManager struct {
	Viper     *viper.Viper
	Writer    io.Writer
	Overrides Overrides
	// LookupEnv resolves ${VAR} placeholders. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	config          *v1alpha1.Environment
	configFileFound bool
}

// NewConfigManager creates a manager reading configFile, or searching the
// default locations when configFile is empty.
func NewConfigManager(writer io.Writer, configFile string) *ConfigManager {
	return &ConfigManager{
		Viper:     InitializeViper(configFile),
		Writer:    writer,
		LookupEnv: os.LookupEnv,
	}
}

// InitializeViper creates a Viper instance for the apitest configuration.
func InitializeViper(configFile string) *viper.Viper {
	viperInstance := viper.New()

	if configFile != "" {
		viperInstance.SetConfigFile(configFile)
	} else {
		viperInstance.SetConfigName(ConfigName)
		viperInstance.SetConfigType("yaml")
		viperInstance.AddConfigPath(".")
		viperInstance.AddConfigPath("$HOME/.config/apitest")
	}

	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	return viperInstance
}

// LoadConfig loads, defaults and validates the configuration, reporting progress
// to the writer. The result is cached.
func (m *ConfigManager) LoadConfig(tmr timer.Timer) (*v1alpha1.Environment, error) {
	return m.load(tmr, false)
}

// LoadConfigSilent is LoadConfig without notifications.
func (m *ConfigManager) LoadConfigSilent() (*v1alpha1.Environment, error) {
	return m.load(nil, true)
}

// ConfigFileFound reports whether the last load read a configuration file.
func (m *ConfigManager) ConfigFileFound() bool {
	return m.configFileFound
}

func (m *ConfigManager) load(tmr timer.Timer, silent bool) (*v1alpha1.Environment, error) {
	if m.config != nil {
		return m.config, nil
	}

	if !silent {
		notify.Activityf(m.Writer, "loading environment configuration")
	}

	env := v1alpha1.NewEnvironment()

	if len(m.Overrides.URLs) == 0 {
		err := m.readConfig(silent)
		if err != nil {
			return nil, err
		}

		err = m.Viper.Unmarshal(env, func(dc *mapstructure.DecoderConfig) {
			dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
				durationDecodeHook(),
				mapstructure.StringToSliceHookFunc(","),
			)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to decode configuration: %w", err)
		}
	}

	m.applyOverrides(env)
	env.SetDefaults()

	err := m.expandPlaceholders(env)
	if err != nil {
		return nil, err
	}

	err = env.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid environment configuration: %w", err)
	}

	if !silent {
		if tmr != nil {
			notify.SuccessWithTimerf(m.Writer, tmr, "environment with %d clusters loaded", len(env.Spec.Clusters))
		} else {
			notify.Successf(m.Writer, "environment with %d clusters loaded", len(env.Spec.Clusters))
		}
	}

	m.config = env

	return env, nil
}

func (m *ConfigManager) readConfig(silent bool) error {
	err := m.Viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		m.configFileFound = false

		if !silent {
			notify.Warningf(m.Writer, "no %s.yaml found, using environment variables only", ConfigName)
		}

		return nil
	}

	m.configFileFound = true

	if !silent {
		notify.Infof(m.Writer, "using config file %s", m.Viper.ConfigFileUsed())
	}

	return nil
}

func (m *ConfigManager) applyOverrides(env *v1alpha1.Environment) {
	if len(m.Overrides.URLs) > 0 {
		env.Spec.Clusters = []v1alpha1.ClusterSpec{{
			Name: AdhocClusterName,
			URLs: append([]string(nil), m.Overrides.URLs...),
		}}
	}

	for i := range env.Spec.Clusters {
		if m.Overrides.Username != "" {
			env.Spec.Clusters[i].Auth.Username = m.Overrides.Username
		}

		if m.Overrides.Password != "" {
			env.Spec.Clusters[i].Auth.Password = m.Overrides.Password
		}
	}
}

func (m *ConfigManager) expandPlaceholders(env *v1alpha1.Environment) error {
	var errs []error

	expand := func(field *string) {
		expanded, err := envvar.ExpandWith(*field, m.LookupEnv)
		if err != nil {
			errs = append(errs, err)

			return
		}

		*field = expanded
	}

	for i := range env.Spec.Clusters {
		cluster := &env.Spec.Clusters[i]

		expand(&cluster.Auth.Username)
		expand(&cluster.Auth.Password)

		for j := range cluster.URLs {
			expand(&cluster.URLs[j])
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		return fmt.Errorf("failed to expand configuration: %w", err)
	}

	return nil
}

// durationDecodeHook decodes Go duration strings and integer nanoseconds into v1alpha1.Duration.
func durationDecodeHook() mapstructure.DecodeHookFuncType {
	target := reflect.TypeFor[v1alpha1.Duration]()

	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != target {
			return data, nil
		}

		switch value := data.(type) {
		case string:
			if value == "" {
				return v1alpha1.Duration{}, nil
			}

			parsed, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("parse duration %q: %w", value, err)
			}

			return v1alpha1.Duration{Duration: parsed}, nil
		case int:
			return v1alpha1.Duration{Duration: time.Duration(value)}, nil
		case int64:
			return v1alpha1.Duration{Duration: time.Duration(value)}, nil
		case time.Duration:
			return v1alpha1.Duration{Duration: value}, nil
		default:
			return data, nil
		}
	}
}
