package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/export"
	"github.com/dusk-indust/curate/internal/graph"
	"github.com/dusk-indust/curate/internal/layer"
)

// runDiagram prints the agreement graph of one document, or of all of
// them. When the graph holds nothing for the request, the current
// annotations are diffed and recorded first. Curations are never saved.
func runDiagram(ctx context.Context, w io.Writer, proj *project, args []string) error {
	document := ""
	if len(args) > 0 {
		document = args[0]
	}

	positions, err := proj.graph.GetPositions(ctx, document)
	if err != nil {
		return fmt.Errorf("read graph: %w", err)
	}
	if len(positions) == 0 {
		if err := proj.record(ctx, document); err != nil {
			return fmt.Errorf("record graph: %w", err)
		}
	}

	mermaid, err := export.GenerateMermaid(ctx, proj.graph, document)
	if err != nil {
		return err
	}

	fmt.Fprint(w, mermaid)
	return nil
}

// record diffs document, or every document when it is empty, and records
// the result with the project strategy's decisions.
func (p *project) record(ctx context.Context, document string) error {
	docs := []string{document}
	if document == "" {
		var err error
		if docs, err = p.store.ListDocuments(ctx); err != nil {
			return err
		}
	}

	layers := layer.Index(p.cfg.Layers)
	accept := func(set *diff.ConfigurationSet) []*diff.Configuration {
		return p.strategy.Choose(set, layers[set.Position().Type].Overlap())
	}

	p.graphMu.Lock()
	defer p.graphMu.Unlock()
	for _, doc := range docs {
		colls, err := p.store.LoadAnnotations(ctx, doc)
		if err != nil {
			return err
		}
		if err := graph.Record(ctx, p.graph, doc, p.differ.Diff(colls), accept); err != nil {
			return err
		}
	}
	return nil
}
