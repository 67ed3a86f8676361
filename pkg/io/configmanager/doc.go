// Package configmanager loads the apitest environment configuration.
//
// Configuration priority: defaults < config file < APITEST_* environment
// variables (for keys present in the file) < explicit overrides (node URLs and
// credentials given on the command line).
package configmanager
