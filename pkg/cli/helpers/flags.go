package helpers

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/devantler-tech/apitest/pkg/utils/timer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// TimingFlagName enables per-activity timing output.
	TimingFlagName = "timing"
	// ConfigFlagName points at an explicit configuration file.
	ConfigFlagName = "config"
	// LogLevelFlagName sets the logrus level of diagnostic output.
	LogLevelFlagName = "log-level"
	// DefaultLogLevel keeps diagnostic output quiet unless asked for.
	DefaultLogLevel = "warning"
)

var (
	// ErrNilCommand is returned when a helper receives a nil command.
	ErrNilCommand = errors.New("command is nil")
	// ErrFlagNotFound is returned when a command does not define a flag.
	ErrFlagNotFound = errors.New("flag not found")
)

//nolint:gochecknoglobals // logrus is process-wide and configured exactly once.
var logrusConfigOnce sync.Once

// IsTimingEnabled reports whether the timing flag is set on cmd or one of its parents.
func IsTimingEnabled(cmd *cobra.Command) (bool, error) {
	if cmd == nil {
		return false, ErrNilCommand
	}

	flag := lookupFlag(cmd, TimingFlagName)
	if flag == nil {
		return false, fmt.Errorf("%w: %s", ErrFlagNotFound, TimingFlagName)
	}

	enabled, err := strconv.ParseBool(flag.Value.String())
	if err != nil {
		return false, fmt.Errorf("get %s flag: %w", TimingFlagName, err)
	}

	return enabled, nil
}

// MaybeTimer returns tmr when timing is enabled, nil otherwise.
func MaybeTimer(cmd *cobra.Command, tmr timer.Timer) timer.Timer {
	if tmr == nil {
		return nil
	}

	enabled, err := IsTimingEnabled(cmd)
	if err != nil || !enabled {
		return nil
	}

	return tmr
}

// ConfigFile returns the value of the config flag, or "" when it is unset.
func ConfigFile(cmd *cobra.Command) string {
	if cmd == nil {
		return ""
	}

	flag := lookupFlag(cmd, ConfigFlagName)
	if flag == nil {
		return ""
	}

	return flag.Value.String()
}

// ConfigureLogging sets up logrus for diagnostic output on stderr and applies
// the level given by the log level flag.
func ConfigureLogging(cmd *cobra.Command) error {
	if cmd == nil {
		return ErrNilCommand
	}

	raw := DefaultLogLevel
	if flag := lookupFlag(cmd, LogLevelFlagName); flag != nil {
		raw = flag.Value.String()
	}

	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", LogLevelFlagName, err)
	}

	logrusConfigOnce.Do(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: false,
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02T15:04:05Z07:00",
		})
	})

	logrus.SetLevel(level)

	return nil
}

// lookupFlag finds name among the local, persistent and inherited flags of cmd,
// so it works before cobra has merged them.
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag
	}

	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag
	}

	return cmd.InheritedFlags().Lookup(name)
}
