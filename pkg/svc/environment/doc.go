// Package environment turns the loaded configuration into the cluster pool.
//
// It starts the node processes a configuration asks for, waits until every
// node answers over HTTP and stops the processes again once the run is over.
package environment
