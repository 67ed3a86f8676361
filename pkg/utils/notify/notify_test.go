package notify_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/devantler-tech/apitest/pkg/utils/notify"
	"github.com/devantler-tech/apitest/pkg/utils/timer"
	fcolor "github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestWriteMessageTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		write func(buf *bytes.Buffer)
		want  string
	}{
		{
			name:  "error",
			write: func(buf *bytes.Buffer) { notify.Errorf(buf, "test error") },
			want:  "✗ test error\n",
		},
		{
			name:  "error with formatting",
			write: func(buf *bytes.Buffer) { notify.Errorf(buf, "error: %s (%d)", "failed", 42) },
			want:  "✗ error: failed (42)\n",
		},
		{
			name:  "warning",
			write: func(buf *bytes.Buffer) { notify.Warningf(buf, "test warning") },
			want:  "⚠ test warning\n",
		},
		{
			name:  "activity",
			write: func(buf *bytes.Buffer) { notify.Activityf(buf, "starting %s", "node") },
			want:  "► starting node\n",
		},
		{
			name:  "success",
			write: func(buf *bytes.Buffer) { notify.Successf(buf, "test success") },
			want:  "✔ test success\n",
		},
		{
			name:  "info",
			write: func(buf *bytes.Buffer) { notify.Infof(buf, "test info") },
			want:  "ℹ test info\n",
		},
		{
			name:  "title",
			write: func(buf *bytes.Buffer) { notify.Titlef(buf, "🧪", "Starting testset: %s...", "Pools") },
			want:  "🧪 Starting testset: Pools...\n",
		},
		{
			name: "plain without newline",
			write: func(buf *bytes.Buffer) {
				notify.WriteMessage(notify.Message{
					Type:      notify.PlainType,
					Content:   "  Pools.test... ",
					Color:     fcolor.FgGreen,
					NoNewline: true,
					Writer:    buf,
				})
			},
			want: "  Pools.test... ",
		},
		{
			name:  "multi-line content is indented",
			write: func(buf *bytes.Buffer) { notify.Successf(buf, "first line\nsecond line\n\nthird line") },
			want:  "✔ first line\n  second line\n\n  third line\n",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer

			testCase.write(&out)

			assert.Equal(t, testCase.want, out.String())
		})
	}
}

type fixedTimer struct{}

func (fixedTimer) Start()    {}
func (fixedTimer) NewStage() {}
func (fixedTimer) GetTiming() (time.Duration, time.Duration) {
	return 3 * time.Second, time.Second
}

var _ timer.Timer = fixedTimer{}

func TestSuccessWithTimerPrintsTiming(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	notify.SuccessWithTimerf(&out, fixedTimer{}, "done")

	assert.Equal(t, "✔ done\n⏲ current: 1s\n  total:  3s\n", out.String())
}

func TestIsTerminalFalseForBuffers(t *testing.T) {
	t.Parallel()

	assert.False(t, notify.IsTerminal(&bytes.Buffer{}))
}

func TestIndentLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a\n    b", notify.IndentLines("a\nb", 4))
	assert.Equal(t, "single", notify.IndentLines("single", 4))
	assert.Equal(t, "a\nb", notify.IndentLines("a\nb", 0))
}
