// Package httpclient provides the HTTP client test-sets use to exercise the
// REST API of a cluster node.
//
// A [Client] is bound to one node base URL and the cluster credentials.
// Requests that fail with a transient network error or a retryable status
// are retried with a constant backoff until the retry timeout elapses.
package httpclient
