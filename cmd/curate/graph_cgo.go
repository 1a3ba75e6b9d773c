//go:build cgo

package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/curate/internal/graph"
)

// openGraph opens the persistent KuzuDB agreement graph at path.
func openGraph(path string) (graph.Store, error) {
	store, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	if err := store.InitSchema(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("init graph schema: %w", err)
	}
	return store, nil
}
