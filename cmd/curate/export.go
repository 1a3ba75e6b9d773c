package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dusk-indust/curate/internal/export"
)

func runExport(ctx context.Context, w io.Writer, proj *project, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: curate export <document>")
	}
	document := args[0]

	data, err := export.ExportDocument(ctx, proj.store, proj.cfg.Layers, proj.strategy, document)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	_, err = w.Write(append(out, '\n'))
	return err
}
