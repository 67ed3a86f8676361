// Package helpers provides common CLI utilities for command handling.
//
// Key functionality:
//   - Flag handling utilities including timing detection
//   - Config file flag resolution
//   - One-time logrus setup driven by the log level flag
package helpers
