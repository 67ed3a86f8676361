// Package svc provides service layer components for apitest.
//
// Subpackages:
//   - environment: cluster pool lifecycle (node processes, readiness, shutdown)
package svc
