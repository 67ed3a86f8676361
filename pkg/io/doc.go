// Package io provides input and output operations related to configuration management.
//
// Subpackages:
//   - configmanager: environment configuration loading and validation
package io
