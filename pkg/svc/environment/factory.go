package environment

import (
	"context"

	"github.com/devantler-tech/apitest/pkg/apis/environment/v1alpha1"
	"github.com/devantler-tech/apitest/pkg/testlib"
	"github.com/sirupsen/logrus"
)

// Service starts and stops the cluster pool of a run.
type Service interface {
	Start(ctx context.Context) ([]testlib.Cluster, error)
	Stop(ctx context.Context) error
}

// Factory creates the Service for a loaded configuration.
type Factory interface {
	Create(config *v1alpha1.Environment) Service
}

// DefaultFactory creates environments that run processes on the local host.
type DefaultFactory struct {
	Logger *logrus.Entry
}

// Create returns an Environment for config.
func (f DefaultFactory) Create(config *v1alpha1.Environment) Service {
	opts := []Option{}
	if f.Logger != nil {
		opts = append(opts, WithLogger(f.Logger))
	}

	return New(config, opts...)
}
