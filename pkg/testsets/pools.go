package testsets

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Masterminds/semver/v3"
	"github.com/devantler-tech/apitest/pkg/client/httpclient"
	"github.com/devantler-tech/apitest/pkg/testlib"
)

const (
	poolsVersionTest            = "pools_version"
	defaultPoolRequiresAuthTest = "default_pool_requires_auth"
)

// PoolsTestSet checks the pools endpoints of a single node.
type PoolsTestSet struct {
	client *httpclient.Client
}

// PoolsDefinition describes PoolsTestSet.
func PoolsDefinition() testlib.Definition {
	return testlib.Definition{
		Name:  "PoolsTestSet",
		Tests: []string{poolsVersionTest, defaultPoolRequiresAuthTest},
		Requirements: func() (testlib.Requirements, error) {
			return testlib.Requirements{NodeCount: 1}, nil
		},
		New: func() testlib.TestSet { return &PoolsTestSet{} },
	}
}

// Setup binds the test-set to the first node.
func (s *PoolsTestSet) Setup(_ context.Context, cluster testlib.Cluster) error {
	client, err := httpclient.ForNode(cluster, 0)
	if err != nil {
		return fmt.Errorf("connect to node: %w", err)
	}

	s.client = client

	return nil
}

// Teardown has nothing to clean up.
func (s *PoolsTestSet) Teardown(context.Context, testlib.Cluster) error {
	return nil
}

// Tests returns the test methods.
func (s *PoolsTestSet) Tests() map[string]testlib.TestFunc {
	return map[string]testlib.TestFunc{
		poolsVersionTest:            s.poolsVersion,
		defaultPoolRequiresAuthTest: s.defaultPoolRequiresAuth,
	}
}

func (s *PoolsTestSet) poolsVersion(ctx context.Context, _ testlib.Cluster) error {
	if s.client == nil {
		return ErrNotSetUp
	}

	var pools struct {
		ImplementationVersion string `json:"implementationVersion"`
	}

	err := s.client.GetJSON(ctx, "/pools", &pools)
	if err != nil {
		return fmt.Errorf("get pools: %w", err)
	}

	if pools.ImplementationVersion == "" {
		return ErrMissingVersion
	}

	_, err = semver.NewVersion(pools.ImplementationVersion)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidVersion, pools.ImplementationVersion, err)
	}

	return nil
}

func (s *PoolsTestSet) defaultPoolRequiresAuth(ctx context.Context, _ testlib.Cluster) error {
	if s.client == nil {
		return ErrNotSetUp
	}

	resp, err := s.client.Anonymous().Get(ctx, "/pools/default")
	if err != nil {
		return fmt.Errorf("get default pool: %w", err)
	}

	return resp.ExpectStatus(http.StatusUnauthorized)
}
