// Package client provides the HTTP client test-sets use to talk to cluster nodes.
//
//   - httpclient: per-node REST client with basic auth, JSON helpers and retries
//   - netretry: classification of transient network errors and statuses
package client
