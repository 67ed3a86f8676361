// Package testsets holds the built-in test-sets run against the REST API of a
// cluster.
package testsets
