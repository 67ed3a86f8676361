// Package cli provides reusable helpers for command wiring and execution.
//
// This package is organized into subpackages for different functionality:
//
//   - cli/cmd: the apitest command tree
//   - cli/helpers: flag handling, config file resolution and logging setup
//   - cli/parallel: parallel task execution with controlled concurrency
//   - cli/ui: user interface components (errorhandler, reporter)
package cli
