package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/curate/internal/graph"
	"github.com/dusk-indust/curate/internal/status"
)

func runDiff(ctx context.Context, w io.Writer, proj *project, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: curate diff <document>")
	}
	document := args[0]

	colls, err := proj.store.LoadAnnotations(ctx, document)
	if err != nil {
		return err
	}
	result := proj.differ.Diff(colls)
	ds := status.Summarize(document, result)

	fmt.Fprintf(w, "Document: %s\n", document)
	fmt.Fprintf(w, "  annotators: %s\n", strings.Join(ds.Annotators, ", "))
	fmt.Fprintf(w, "  positions: %d  agreed: %d  incomplete: %d  disputed: %d\n",
		ds.Positions, ds.Agreed, ds.Incomplete, ds.Disputed)

	for _, set := range result.ConfigurationSets() {
		st := graph.StatusOf(set)
		if st == graph.StatusAgreed {
			continue
		}
		pos := set.Position()
		fmt.Fprintf(w, "\n  %s  [%s]\n", pos, st)
		for _, cfg := range set.Configurations() {
			fmt.Fprintf(w, "    %-30s %s\n", cfg.Value(), strings.Join(cfg.Annotators(), ", "))
		}
		if missing := set.Missing(); len(missing) > 0 {
			fmt.Fprintf(w, "    %-30s %s\n", "(missing)", strings.Join(missing, ", "))
		}
	}

	for _, d := range result.Diagnostics() {
		fmt.Fprintf(w, "\n  skipped: %s\n", d)
	}
	return nil
}
