package environment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/devantler-tech/apitest/pkg/apis/environment/v1alpha1"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/sirupsen/logrus"
)

// DefaultStopTimeout is how long a process may take to exit after SIGTERM
// before it is killed.
const DefaultStopTimeout = 10 * time.Second

// ErrProcessExited is returned when a node process exits before it is stopped.
var ErrProcessExited = errors.New("process exited unexpectedly")

// ManagedProcess is a node process started for a cluster.
type ManagedProcess interface {
	testlib.Process
	Name() string
	// Exited is closed once the process has terminated.
	Exited() <-chan struct{}
	Stop(ctx context.Context) error
}

// Starter starts node processes.
type Starter interface {
	Start(ctx context.Context, cluster string, spec v1alpha1.ProcessSpec) (ManagedProcess, error)
}

// ExecStarter starts processes on the local host. Process output is logged
// at debug level.
type ExecStarter struct {
	Logger      *logrus.Entry
	StopTimeout time.Duration
}

// NewExecStarter returns an ExecStarter logging to logger.
func NewExecStarter(logger *logrus.Entry) *ExecStarter {
	return &ExecStarter{Logger: logger, StopTimeout: DefaultStopTimeout}
}

// Start launches the process described by spec. The process is not bound to
// ctx and keeps running until Stop is called.
func (s *ExecStarter) Start(
	_ context.Context,
	cluster string,
	spec v1alpha1.ProcessSpec,
) (ManagedProcess, error) {
	name := spec.Name
	if name == "" {
		name = filepath.Base(spec.Command)
	}

	logger := s.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	logger = logger.WithFields(logrus.Fields{"cluster": cluster, "process": name})

	stdout := logger.WriterLevel(logrus.DebugLevel)
	stderr := logger.WriterLevel(logrus.WarnLevel)

	cmd := exec.Command(spec.Command, spec.Args...) //nolint:gosec // commands come from the user's configuration
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	err := cmd.Start()
	if err != nil {
		closeAll(stdout, stderr)

		return nil, fmt.Errorf("start process %s for cluster %s: %w", name, cluster, err)
	}

	stopTimeout := s.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}

	proc := &execProcess{
		name:        name,
		cmd:         cmd,
		logger:      logger,
		stopTimeout: stopTimeout,
		done:        make(chan struct{}),
	}

	go func() {
		proc.waitErr = cmd.Wait()

		closeAll(stdout, stderr)
		close(proc.done)
		logger.WithField("pid", cmd.Process.Pid).Debug("process exited")
	}()

	logger.WithField("pid", cmd.Process.Pid).Info("process started")

	return proc, nil
}

type execProcess struct {
	name        string
	cmd         *exec.Cmd
	logger      *logrus.Entry
	stopTimeout time.Duration

	done    chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Name() string {
	return p.name
}

func (p *execProcess) Exited() <-chan struct{} {
	return p.done
}

// Stop sends SIGTERM and kills the process if it has not exited within the
// stop timeout or before ctx is done. A process that had already exited on
// its own reports ErrProcessExited.
func (p *execProcess) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.stopErr = p.stop(ctx)
	})

	return p.stopErr
}

func (p *execProcess) stop(ctx context.Context) error {
	select {
	case <-p.done:
		return fmt.Errorf("%w: %s: %w", ErrProcessExited, p.name, exitCause(p.waitErr))
	default:
	}

	signalErr := p.cmd.Process.Signal(syscall.SIGTERM)
	if signalErr != nil && !errors.Is(signalErr, os.ErrProcessDone) {
		p.logger.WithError(signalErr).Warn("failed to signal process")
	}

	timer := time.NewTimer(p.stopTimeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	p.logger.Warn("process did not exit in time, killing it")

	killErr := p.cmd.Process.Kill()
	if killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
		return fmt.Errorf("kill process %s: %w", p.name, killErr)
	}

	<-p.done

	return nil
}

func exitCause(err error) error {
	if err == nil {
		return errors.New("exit status 0")
	}

	return err
}

func closeAll(closers ...io.Closer) {
	for _, closer := range closers {
		_ = closer.Close()
	}
}
