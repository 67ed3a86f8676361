package parallel_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devantler-tech/apitest/pkg/cli/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errFirst  = errors.New("first")
	errSecond = errors.New("second")
)

func TestDefaultMaxConcurrencyBounds(t *testing.T) {
	t.Parallel()

	got := parallel.DefaultMaxConcurrency()
	assert.GreaterOrEqual(t, got, int64(2))
	assert.LessOrEqual(t, got, int64(8))
}

func TestExecuteRunsAllTasks(t *testing.T) {
	t.Parallel()

	var count atomic.Int32

	task := func(context.Context) error {
		count.Add(1)

		return nil
	}

	err := parallel.NewExecutor(2).Execute(context.Background(), task, task, task, task)
	require.NoError(t, err)
	assert.Equal(t, int32(4), count.Load())

	require.NoError(t, parallel.NewExecutor(0).Execute(context.Background()))
}

func TestExecuteReturnsFirstErrorAndCancels(t *testing.T) {
	t.Parallel()

	failing := func(context.Context) error { return errFirst }
	waiting := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	}

	err := parallel.NewExecutor(4).Execute(context.Background(), failing, waiting)
	require.ErrorIs(t, err, errFirst)
}

func TestExecuteAllJoinsEveryError(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32

	tasks := []parallel.Task{
		func(context.Context) error { ran.Add(1); return errFirst },
		func(context.Context) error { ran.Add(1); return nil },
		func(context.Context) error { ran.Add(1); return errSecond },
	}

	err := parallel.NewExecutor(1).ExecuteAll(context.Background(), tasks...)
	require.ErrorIs(t, err, errFirst)
	require.ErrorIs(t, err, errSecond)
	assert.Equal(t, int32(3), ran.Load())

	require.NoError(t, parallel.NewExecutor(1).ExecuteAll(context.Background()))
}
