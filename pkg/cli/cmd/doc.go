// Package cmd provides the apitest command tree: running test-sets and
// listing test-sets and clusters.
package cmd
