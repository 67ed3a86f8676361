// Package reporter renders test-set runner events as console output.
package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/devantler-tech/apitest/pkg/utils/notify"
	"github.com/devantler-tech/apitest/pkg/utils/timer"
	fcolor "github.com/fatih/color"
)

const (
	testsetEmoji = "🧪"
	callIndent   = "  "
	stackIndent  = 4
)

// Console prints runner events as they happen.
//
// Verbose calls print "  <name>... " when they start and complete the line
// with "succ" or "failed (<message>)". Failing non-verbose calls print a whole
// "  <name> failed (<message>)" line. The stack captured with the failure
// follows the failure line unless stacks are disabled.
type Console struct {
	writer     io.Writer
	timer      timer.Timer
	showStacks bool

	mu sync.Mutex
}

// Option configures a Console.
type Option func(*Console)

// WithTimer prints per test-set timing after every finished run.
func WithTimer(tmr timer.Timer) Option {
	return func(c *Console) {
		c.timer = tmr
	}
}

// WithStacks controls whether the stacks captured with failures are printed.
func WithStacks(show bool) Option {
	return func(c *Console) {
		c.showStacks = show
	}
}

// NewConsole creates a Console writing to writer.
func NewConsole(writer io.Writer, opts ...Option) *Console {
	console := &Console{writer: writer, showStacks: true}
	for _, opt := range opts {
		opt(console)
	}

	return console
}

// Publish implements testlib.EventSink.
func (c *Console) Publish(event testlib.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case testlib.TestsetStarted:
		c.testsetStarted(event)
	case testlib.CallStarted:
		c.plain(callIndent+event.Name+"... ", fcolor.Reset, true)
	case testlib.CallSucceeded:
		c.plain("succ", fcolor.FgGreen, false)
	case testlib.CallFailed:
		c.callFailed(event)
	case testlib.PreparationFailed:
		notify.Errorf(c.writer, "%s", failureMessage(event.Err))
	case testlib.TestsetFinished:
		c.testsetFinished(event)
	}
}

func (c *Console) testsetStarted(event testlib.Event) {
	if c.timer != nil {
		c.timer.NewStage()
	}

	_, _ = fmt.Fprintln(c.writer)
	notify.Titlef(c.writer, testsetEmoji, "Starting testset: %s...", event.Testset)
}

func (c *Console) callFailed(event testlib.Event) {
	message := "failed (" + failureMessage(event.Err) + ")"

	if event.Verbose {
		c.plain(message, fcolor.FgRed, false)
	} else {
		c.plain(callIndent+event.Name+" "+message, fcolor.FgRed, false)
	}

	if c.showStacks && event.Err != nil && len(event.Err.Stack) > 0 {
		stack := strings.TrimRight(string(event.Err.Stack), "\n")
		_, _ = fmt.Fprintln(c.writer, strings.Repeat(" ", stackIndent)+notify.IndentLines(stack, stackIndent))
	}
}

func (c *Console) testsetFinished(event testlib.Event) {
	outcome := event.Outcome
	if outcome == nil {
		return
	}

	if outcome.Failed() {
		notify.Errorf(c.writer, "%s: %d executed, %d errors", outcome.Testset, outcome.Executed, len(outcome.Errors))

		return
	}

	if c.timer != nil {
		notify.SuccessWithTimerf(c.writer, c.timer, "%s: %d executed", outcome.Testset, outcome.Executed)

		return
	}

	notify.Successf(c.writer, "%s: %d executed", outcome.Testset, outcome.Executed)
}

func (c *Console) plain(content string, color fcolor.Attribute, noNewline bool) {
	notify.WriteMessage(notify.Message{
		Type:      notify.PlainType,
		Content:   content,
		Color:     color,
		NoNewline: noNewline,
		Writer:    c.writer,
	})
}

// PrintSummary writes the totals of a whole session and lists every error.
func PrintSummary(writer io.Writer, summary *testlib.Summary) {
	failures := summary.Errors()

	_, _ = fmt.Fprintln(writer)

	if len(failures) == 0 {
		notify.Successf(writer, "%d tests executed, no errors", summary.Executed())

		return
	}

	lines := make([]string, 0, len(failures))
	for _, failure := range failures {
		lines = append(lines, callIndent+failure.Name+": "+failureMessage(failure))
	}

	notify.Errorf(writer, "%d tests executed, %d errors:\n%s",
		summary.Executed(), len(failures), strings.Join(lines, "\n"))
}

func failureMessage(failure *testlib.TestError) string {
	if failure == nil || failure.Err == nil {
		return "unknown error"
	}

	return failure.Err.Error()
}
