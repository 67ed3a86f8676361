// Package v1alpha1 contains the configuration types describing the cluster
// environments apitest runs test-sets against.
package v1alpha1
