package main

import (
	"context"
	"io"

	"github.com/dusk-indust/curate/internal/status"
)

func runStatus(ctx context.Context, w io.Writer, proj *project, args []string) error {
	if len(args) > 0 {
		ds, err := status.GetDocumentStatus(ctx, proj.store, proj.differ, args[0])
		if err != nil {
			return err
		}
		status.Print(w, []status.DocumentStatus{ds})
		return nil
	}

	all, err := status.ListDocuments(ctx, proj.store, proj.differ)
	if err != nil {
		return err
	}
	status.Print(w, all)
	return nil
}
