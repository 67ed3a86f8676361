package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devantler-tech/apitest/pkg/utils/timer"
	fcolor "github.com/fatih/color"
	"golang.org/x/term"
)

// Message type constants.
const (
	// ErrorType represents an error message (red, with ✗ symbol).
	ErrorType MessageType = iota
	// WarningType represents a warning message (yellow, with ⚠ symbol).
	WarningType
	// ActivityType represents an activity message (default color, with ► symbol).
	ActivityType
	// SuccessType represents a success message (green, with ✔ symbol).
	SuccessType
	// InfoType represents an informational message (blue, with ℹ symbol).
	InfoType
	// TitleType represents a title (bold, with an emoji).
	TitleType
	// PlainType writes the content without symbol, only colored.
	PlainType
)

// MessageType defines the type of notification message.
type MessageType int

// Message represents a notification message to be displayed to the user.
type Message struct {
	// Type determines the message styling (color, symbol).
	Type MessageType
	// Content is the message text. It is a format string when Args is set.
	Content string
	// Args are format arguments for Content.
	Args []any
	// Timer is optional. Success messages print its timing after the message.
	Timer timer.Timer
	// Emoji is used only for TitleType messages.
	Emoji string
	// Color overrides the type color for PlainType messages.
	Color fcolor.Attribute
	// NoNewline suppresses the trailing newline, for lines completed by a later write.
	NoNewline bool
	// Writer is the output destination. If nil, defaults to os.Stdout.
	Writer io.Writer
}

// Errorf writes an error message to the writer.
func Errorf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ErrorType, Content: format, Args: args, Writer: writer})
}

// Warningf writes a warning message to the writer.
func Warningf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: WarningType, Content: format, Args: args, Writer: writer})
}

// Activityf writes an activity message to the writer.
func Activityf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ActivityType, Content: format, Args: args, Writer: writer})
}

// Successf writes a success message to the writer.
func Successf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: SuccessType, Content: format, Args: args, Writer: writer})
}

// SuccessWithTimerf writes a success message followed by timing information.
func SuccessWithTimerf(writer io.Writer, tmr timer.Timer, format string, args ...any) {
	WriteMessage(Message{Type: SuccessType, Content: format, Args: args, Timer: tmr, Writer: writer})
}

// Infof writes an informational message to the writer.
func Infof(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: InfoType, Content: format, Args: args, Writer: writer})
}

// Titlef writes a title message with an emoji to the writer.
func Titlef(writer io.Writer, emoji, format string, args ...any) {
	WriteMessage(Message{
		Type:    TitleType,
		Content: fmt.Sprintf(format, args...),
		Emoji:   emoji,
		Writer:  writer,
	})
}

// WriteMessage writes a formatted message based on the message configuration.
func WriteMessage(msg Message) {
	if msg.Writer == nil {
		msg.Writer = os.Stdout
	}

	content := msg.Content
	if len(msg.Args) > 0 {
		content = fmt.Sprintf(msg.Content, msg.Args...)
	}

	config := getMessageConfig(msg)
	applyColorMode(config.color, msg.Writer)

	newline := "\n"
	if msg.NoNewline {
		newline = ""
	}

	if msg.Type == TitleType {
		emoji := msg.Emoji
		if emoji == "" {
			emoji = "ℹ️"
		}

		_, err := config.color.Fprintf(msg.Writer, "%s %s%s", emoji, content, newline)
		handleNotifyError(err)

		return
	}

	content = IndentLines(content, len([]rune(config.symbol)))

	_, err := config.color.Fprintf(msg.Writer, "%s%s%s", config.symbol, content, newline)
	handleNotifyError(err)

	if msg.Type == SuccessType && msg.Timer != nil {
		total, stage := msg.Timer.GetTiming()

		_, err = config.color.Fprintf(msg.Writer, "⏲ current: %s\n", stage.String())
		handleNotifyError(err)
		_, err = config.color.Fprintf(msg.Writer, "  total:  %s\n", total.String())
		handleNotifyError(err)
	}
}

// IsTerminal reports whether the writer is an interactive terminal.
func IsTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(file.Fd()))
}

// IndentLines indents every line after the first by width spaces. Empty lines stay empty.
func IndentLines(content string, width int) string {
	if width == 0 || !strings.Contains(content, "\n") {
		return content
	}

	indent := strings.Repeat(" ", width)
	lines := strings.Split(content, "\n")

	for i := 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}

		lines[i] = indent + lines[i]
	}

	return strings.Join(lines, "\n")
}

type messageConfig struct {
	symbol string
	color  *fcolor.Color
}

func getMessageConfig(msg Message) messageConfig {
	switch msg.Type {
	case ErrorType:
		return messageConfig{symbol: "✗ ", color: fcolor.New(fcolor.FgRed)}
	case WarningType:
		return messageConfig{symbol: "⚠ ", color: fcolor.New(fcolor.FgYellow)}
	case ActivityType:
		return messageConfig{symbol: "► ", color: fcolor.New(fcolor.Reset)}
	case SuccessType:
		return messageConfig{symbol: "✔ ", color: fcolor.New(fcolor.FgGreen)}
	case InfoType:
		return messageConfig{symbol: "ℹ ", color: fcolor.New(fcolor.FgBlue)}
	case TitleType:
		return messageConfig{symbol: "", color: fcolor.New(fcolor.Reset, fcolor.Bold)}
	case PlainType:
		attr := msg.Color
		if attr == 0 {
			attr = fcolor.Reset
		}

		return messageConfig{symbol: "", color: fcolor.New(attr)}
	default:
		return messageConfig{symbol: "", color: fcolor.New(fcolor.Reset)}
	}
}

// applyColorMode enables colors only for terminals, independent of the global
// fatih/color setting which only looks at stdout.
func applyColorMode(color *fcolor.Color, writer io.Writer) {
	if IsTerminal(writer) && !fcolor.NoColor {
		color.EnableColor()

		return
	}

	color.DisableColor()
}

// handleNotifyError logs printing failures to stderr instead of returning them.
func handleNotifyError(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "notify: failed to print message: %v\n", err)
	}
}
