package environment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/devantler-tech/apitest/pkg/apis/environment/v1alpha1"
	"github.com/devantler-tech/apitest/pkg/cli/parallel"
	"github.com/devantler-tech/apitest/pkg/client/httpclient"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/siderolabs/go-retry/retry"
	"github.com/sirupsen/logrus"
)

// ErrNotReady is returned while a node answers with a server error.
var ErrNotReady = errors.New("node not ready")

// Prober waits until every node of a cluster answers.
type Prober interface {
	WaitReady(ctx context.Context, cluster v1alpha1.ClusterSpec) error
}

// HTTPProber polls the readiness path of every node. Any answer below 500
// means the node is up, since an unauthenticated request may be refused.
type HTTPProber struct {
	HTTPClient *http.Client
	Executor   *parallel.Executor
	Logger     *logrus.Entry
}

// NewHTTPProber returns a prober that checks the nodes of a cluster in parallel.
func NewHTTPProber(logger *logrus.Entry) *HTTPProber {
	return &HTTPProber{Executor: parallel.NewExecutor(0), Logger: logger}
}

// WaitReady blocks until every node is ready, the readiness timeout expires
// or ctx is done.
func (p *HTTPProber) WaitReady(ctx context.Context, cluster v1alpha1.ClusterSpec) error {
	executor := p.Executor
	if executor == nil {
		executor = parallel.NewExecutor(0)
	}

	tasks := make([]parallel.Task, 0, len(cluster.URLs))

	for _, nodeURL := range cluster.URLs {
		tasks = append(tasks, func(ctx context.Context) error {
			return p.waitNode(ctx, nodeURL, cluster.Readiness)
		})
	}

	err := executor.Execute(ctx, tasks...)
	if err != nil {
		return fmt.Errorf("cluster %s: %w", cluster.Name, err)
	}

	return nil
}

func (p *HTTPProber) waitNode(ctx context.Context, nodeURL string, readiness v1alpha1.ReadinessSpec) error {
	opts := []httpclient.Option{httpclient.WithRetry(0, 0)}
	if p.HTTPClient != nil {
		opts = append(opts, httpclient.WithHTTPClient(p.HTTPClient))
	}

	client := httpclient.New(nodeURL, testlib.Auth{}, opts...).Anonymous()

	err := retry.Constant(readiness.Timeout.Duration, retry.WithUnits(readiness.Interval.Duration)).
		RetryWithContext(ctx, func(ctx context.Context) error {
			resp, err := client.Get(ctx, readiness.Path)
			if err != nil {
				return retry.ExpectedError(err)
			}

			if resp.StatusCode >= http.StatusInternalServerError {
				return retry.ExpectedError(fmt.Errorf("%w: %s answered %d", ErrNotReady, nodeURL, resp.StatusCode))
			}

			return nil
		})
	if err != nil {
		return fmt.Errorf("wait for node %s: %w", nodeURL, err)
	}

	if p.Logger != nil {
		p.Logger.WithField("node", nodeURL).Debug("node ready")
	}

	return nil
}
