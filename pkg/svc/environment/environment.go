package environment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/devantler-tech/apitest/pkg/apis/environment/v1alpha1"
	"github.com/devantler-tech/apitest/pkg/cli/parallel"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/sirupsen/logrus"
)

// ErrNilConfig is returned when an environment is started without configuration.
var ErrNilConfig = errors.New("environment configuration is nil")

// Environment owns the cluster pool of a run.
type Environment struct {
	config   *v1alpha1.Environment
	starter  Starter
	prober   Prober
	executor *parallel.Executor
	logger   *logrus.Entry

	mu        sync.Mutex
	processes []ManagedProcess
}

// Option configures an Environment.
type Option func(*Environment)

// WithStarter replaces the process starter.
func WithStarter(starter Starter) Option {
	return func(e *Environment) {
		e.starter = starter
	}
}

// WithProber replaces the readiness prober.
func WithProber(prober Prober) Option {
	return func(e *Environment) {
		e.prober = prober
	}
}

// WithExecutor replaces the executor used to stop processes.
func WithExecutor(executor *parallel.Executor) Option {
	return func(e *Environment) {
		e.executor = executor
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(e *Environment) {
		e.logger = logger
	}
}

// New creates an environment for config.
func New(config *v1alpha1.Environment, opts ...Option) *Environment {
	env := &Environment{
		config:   config,
		executor: parallel.NewExecutor(0),
		logger:   logrus.NewEntry(logrus.StandardLogger()),
	}

	for _, opt := range opts {
		opt(env)
	}

	if env.starter == nil {
		env.starter = NewExecStarter(env.logger)
	}

	if env.prober == nil {
		env.prober = NewHTTPProber(env.logger)
	}

	return env
}

// Pool returns the configured clusters without starting anything.
func Pool(config *v1alpha1.Environment) []testlib.Cluster {
	if config == nil {
		return nil
	}

	pool := make([]testlib.Cluster, 0, len(config.Spec.Clusters))
	for _, spec := range config.Spec.Clusters {
		pool = append(pool, newCluster(spec))
	}

	return pool
}

// Start launches the processes of every cluster, waits until all nodes are
// ready and returns the pool in configuration order. Stop must be called even
// when Start fails, so that processes started so far are cleaned up.
func (e *Environment) Start(ctx context.Context) ([]testlib.Cluster, error) {
	if e.config == nil {
		return nil, ErrNilConfig
	}

	pool := make([]testlib.Cluster, 0, len(e.config.Spec.Clusters))

	for _, spec := range e.config.Spec.Clusters {
		cluster, err := e.startCluster(ctx, spec)
		if err != nil {
			return nil, err
		}

		pool = append(pool, cluster)
	}

	return pool, nil
}

func (e *Environment) startCluster(ctx context.Context, spec v1alpha1.ClusterSpec) (testlib.Cluster, error) {
	logger := e.logger.WithField("cluster", spec.Name)

	processes := make([]testlib.Process, 0, len(spec.Processes))
	managed := make([]ManagedProcess, 0, len(spec.Processes))

	for _, processSpec := range spec.Processes {
		proc, err := e.starter.Start(ctx, spec.Name, processSpec)
		if err != nil {
			return testlib.Cluster{}, fmt.Errorf("start cluster %s: %w", spec.Name, err)
		}

		e.track(proc)
		processes = append(processes, proc)
		managed = append(managed, proc)
	}

	logger.WithField("nodes", len(spec.URLs)).Info("waiting for cluster")

	err := e.waitReady(ctx, spec, managed)
	if err != nil {
		return testlib.Cluster{}, err
	}

	logger.Info("cluster ready")

	return newClusterWithProcesses(spec, processes), nil
}

// waitReady fails early when one of the cluster processes dies while the
// nodes are being probed.
func (e *Environment) waitReady(ctx context.Context, spec v1alpha1.ClusterSpec, managed []ManagedProcess) error {
	probeCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	for _, proc := range managed {
		go func() {
			select {
			case <-proc.Exited():
				cancel(fmt.Errorf("%w: %s", ErrProcessExited, proc.Name()))
			case <-probeCtx.Done():
			}
		}()
	}

	err := e.prober.WaitReady(probeCtx, spec)
	if err == nil {
		return nil
	}

	cause := context.Cause(probeCtx)
	if errors.Is(cause, ErrProcessExited) {
		return fmt.Errorf("cluster %s: %w", spec.Name, cause)
	}

	return fmt.Errorf("cluster %s not ready: %w", spec.Name, err)
}

// Stop stops every started process concurrently and joins their errors.
// It is safe to call more than once.
func (e *Environment) Stop(ctx context.Context) error {
	e.mu.Lock()
	processes := slices.Clone(e.processes)
	e.processes = nil
	e.mu.Unlock()

	if len(processes) == 0 {
		return nil
	}

	tasks := make([]parallel.Task, 0, len(processes))
	for _, proc := range processes {
		tasks = append(tasks, proc.Stop)
	}

	err := e.executor.ExecuteAll(ctx, tasks...)
	if err != nil {
		return fmt.Errorf("stop environment: %w", err)
	}

	e.logger.WithField("processes", len(processes)).Info("environment stopped")

	return nil
}

func (e *Environment) track(proc ManagedProcess) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.processes = append(e.processes, proc)
}

func newCluster(spec v1alpha1.ClusterSpec) testlib.Cluster {
	return newClusterWithProcesses(spec, nil)
}

func newClusterWithProcesses(spec v1alpha1.ClusterSpec, processes []testlib.Process) testlib.Cluster {
	auth := testlib.Auth{Username: spec.Auth.Username, Password: spec.Auth.Password}

	return testlib.NewCluster(spec.Name, spec.URLs, auth, processes...)
}
