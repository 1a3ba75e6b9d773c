//go:build !cgo

package main

import "github.com/dusk-indust/curate/internal/graph"

// openGraph returns an in-memory agreement graph; KuzuDB needs cgo, so
// nothing is persisted at path.
func openGraph(_ string) (graph.Store, error) {
	return graph.NewMemStore(), nil
}
