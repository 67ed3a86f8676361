package errorhandler

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	errorPrefix = "Error: "
	usageHeader = "Usage:"
	helpHint    = " --help' for usage."
)

// Executor runs a command tree and turns what cobra writes to stderr into a
// single error that main can print once.
type Executor struct{}

// NewExecutor constructs an Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs cmd with cobra's error stream captured.
//
// It returns nil on success. Errors marked with Reported are returned as is,
// since the command has already presented them. Any other failure becomes a
// *CommandError naming the subcommand that failed, with the captured output
// reduced to its error lines. Usage errors also point at that subcommand's
// help.
func (e *Executor) Execute(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	var errBuf bytes.Buffer

	originalErrWriter := cmd.ErrOrStderr()

	cmd.SetErr(&errBuf)
	defer cmd.SetErr(originalErrWriter)

	failed, err := cmd.ExecuteC()
	if err == nil {
		return nil
	}

	if IsReported(err) {
		return err
	}

	command := cmd.CommandPath()
	if failed != nil {
		command = failed.CommandPath()
	}

	raw := errBuf.String()
	message := Normalize(raw)

	var usageErr *UsageError
	if errors.As(err, &usageErr) || strings.Contains(raw, usageHeader) {
		message = withHelpHint(message, command)
	}

	return &CommandError{
		Command: command,
		message: message,
		cause:   err,
	}
}

// CommandError is a failed command together with the cleaned up text cobra
// printed for it.
type CommandError struct {
	// Command is the full path of the command that failed, e.g. "apitest run".
	Command string

	message string
	cause   error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return e.message
	case e.message == "":
		return e.cause.Error()
	case strings.Contains(e.message, e.cause.Error()):
		return e.message
	default:
		return e.message + ": " + e.cause.Error()
	}
}

// Unwrap exposes the underlying cause for errors.Is/errors.As consumers.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// ReportedError marks a failure the command has already presented to the user,
// such as failed tests listed in the run summary. It still fails the process.
type ReportedError struct {
	cause error
}

// Reported wraps err as a ReportedError. A nil err stays nil.
func Reported(err error) error {
	if err == nil {
		return nil
	}

	return &ReportedError{cause: err}
}

// Error implements the error interface.
func (e *ReportedError) Error() string {
	if e == nil || e.cause == nil {
		return ""
	}

	return e.cause.Error()
}

// Unwrap exposes the underlying cause.
func (e *ReportedError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// IsReported reports whether err, or any error it wraps, was already
// presented to the user.
func IsReported(err error) bool {
	var reported *ReportedError

	return errors.As(err, &reported)
}

// UsageError is a failure caused by how a command was invoked, such as an
// unknown flag or a malformed flag value.
type UsageError struct {
	cause error
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e == nil || e.cause == nil {
		return ""
	}

	return e.cause.Error()
}

// Unwrap exposes the underlying cause.
func (e *UsageError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// FlagErrorFunc marks flag parsing failures as usage errors. Install it on the
// root command; subcommands inherit it.
func FlagErrorFunc(_ *cobra.Command, err error) error {
	if err == nil {
		return nil
	}

	return &UsageError{cause: err}
}

// Normalize reduces cobra's stderr output to its error lines. "Error: "
// prefixes and blank lines are dropped, and so is everything from a "Usage:"
// header on.
func Normalize(raw string) string {
	var kept []string

	for line := range strings.Lines(raw) {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, usageHeader) {
			break
		}

		if line == "" {
			continue
		}

		kept = append(kept, strings.TrimPrefix(line, errorPrefix))
	}

	return strings.Join(kept, "\n")
}

func withHelpHint(message, command string) string {
	if command == "" || strings.Contains(message, helpHint) {
		return message
	}

	hint := fmt.Sprintf("Run '%s%s", command, helpHint)
	if message == "" {
		return hint
	}

	return message + "\n" + hint
}
