package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/graph"
	"github.com/dusk-indust/curate/internal/store"
)

// TypeSummary counts positions of one annotation type by status.
type TypeSummary struct {
	Type       string `json:"type"`
	Positions  int    `json:"positions"`
	Agreed     int    `json:"agreed"`
	Incomplete int    `json:"incomplete"`
	Disputed   int    `json:"disputed"`
}

// DocumentStatus describes how far annotators agree on one document.
type DocumentStatus struct {
	Document    string        `json:"document"`
	Annotators  []string      `json:"annotators"`
	Positions   int           `json:"positions"`
	Agreed      int           `json:"agreed"`
	Incomplete  int           `json:"incomplete"`
	Disputed    int           `json:"disputed"`
	Diagnostics int           `json:"diagnostics"`
	Types       []TypeSummary `json:"types"`
	Curated     bool          `json:"curated"` // a curated collection has been saved
}

// AgreementRate is the fraction of positions every annotator agreed on.
// An empty document has rate 1.
func (s DocumentStatus) AgreementRate() float64 {
	if s.Positions == 0 {
		return 1
	}
	return float64(s.Agreed) / float64(s.Positions)
}

// Summarize counts the configuration sets of r by status.
func Summarize(document string, r *diff.Result) DocumentStatus {
	ds := DocumentStatus{
		Document:    document,
		Annotators:  r.Annotators(),
		Diagnostics: len(r.Diagnostics()),
	}
	byType := make(map[string]*TypeSummary)
	for _, set := range r.ConfigurationSets() {
		typ := set.Position().Type
		ts, ok := byType[typ]
		if !ok {
			ts = &TypeSummary{Type: typ}
			byType[typ] = ts
		}
		ts.Positions++
		ds.Positions++
		switch graph.StatusOf(set) {
		case graph.StatusAgreed:
			ts.Agreed++
			ds.Agreed++
		case graph.StatusIncomplete:
			ts.Incomplete++
			ds.Incomplete++
		case graph.StatusDisputed:
			ts.Disputed++
			ds.Disputed++
		}
	}
	for _, ts := range byType {
		ds.Types = append(ds.Types, *ts)
	}
	sort.Slice(ds.Types, func(i, j int) bool { return ds.Types[i].Type < ds.Types[j].Type })
	return ds
}

// GetDocumentStatus diffs one stored document and reports its status.
func GetDocumentStatus(ctx context.Context, st store.Store, d *diff.Differ, document string) (DocumentStatus, error) {
	colls, err := st.LoadAnnotations(ctx, document)
	if err != nil {
		return DocumentStatus{}, err
	}
	ds := Summarize(document, d.Diff(colls))
	_, err = st.LoadCuration(ctx, document)
	switch {
	case err == nil:
		ds.Curated = true
	case !errors.Is(err, store.ErrNotFound):
		return DocumentStatus{}, err
	}
	return ds, nil
}

// ListDocuments reports the status of every stored document.
func ListDocuments(ctx context.Context, st store.Store, d *diff.Differ) ([]DocumentStatus, error) {
	docs, err := st.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentStatus, 0, len(docs))
	for _, name := range docs {
		ds, err := GetDocumentStatus(ctx, st, d, name)
		if err != nil {
			return nil, fmt.Errorf("status: %s: %w", name, err)
		}
		out = append(out, ds)
	}
	return out, nil
}

// Print writes a status table for each document.
func Print(w io.Writer, statuses []DocumentStatus) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No documents found.")
		fmt.Fprintln(w, "Add annotator files under <data-dir>/<document>/annotators/.")
		return
	}
	for i, ds := range statuses {
		if i > 0 {
			fmt.Fprintln(w)
		}
		label := "pending"
		if ds.Curated {
			label = "curated"
		}
		fmt.Fprintf(w, "Document: %s  [%s]\n", ds.Document, label)
		fmt.Fprintf(w, "  annotators: %d  positions: %d  agreement: %.0f%%\n",
			len(ds.Annotators), ds.Positions, ds.AgreementRate()*100)
		for _, ts := range ds.Types {
			fmt.Fprintf(w, "  %-20s agreed %4d  incomplete %4d  disputed %4d\n",
				ts.Type, ts.Agreed, ts.Incomplete, ts.Disputed)
		}
		if ds.Diagnostics > 0 {
			fmt.Fprintf(w, "  %d malformed annotation(s) skipped\n", ds.Diagnostics)
		}
	}
}
