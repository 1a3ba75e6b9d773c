package export

import (
	"context"
	"time"

	"github.com/dusk-indust/curate/internal/curation"
	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/graph"
	"github.com/dusk-indust/curate/internal/layer"
	"github.com/dusk-indust/curate/internal/merge"
	"github.com/dusk-indust/curate/internal/status"
	"github.com/dusk-indust/curate/internal/store"
)

// CurationReport is the top-level JSON export structure.
type CurationReport struct {
	Document   string                `json:"document"`
	ExportedAt string                `json:"exportedAt"`
	Strategy   string                `json:"strategy"`
	Status     status.DocumentStatus `json:"status"`
	Positions  []PositionExport      `json:"positions"`
	Skipped    []string              `json:"skipped,omitempty"` // malformed annotations
}

// PositionExport describes one compared position.
type PositionExport struct {
	ID             string                `json:"id"`
	Kind           string                `json:"kind"`
	Type           string                `json:"type"`
	Begin          int                   `json:"begin"`
	End            int                   `json:"end"`
	Text           string                `json:"text,omitempty"`
	Feature        string                `json:"feature,omitempty"`
	Status         graph.Status          `json:"status"`
	Missing        []string              `json:"missing,omitempty"`
	Decisions      []curation.Entry      `json:"decisions"`
	Configurations []ConfigurationExport `json:"configurations"`
}

// ConfigurationExport describes one value observed at a position.
type ConfigurationExport struct {
	Value      string   `json:"value"`
	Votes      int      `json:"votes"`
	Annotators []string `json:"annotators"`
	Accepted   bool     `json:"accepted"`
}

// BuildReport assembles a report from a diff result and the merge log of
// the same result.
func BuildReport(document, strategy string, result *diff.Result, mlog *curation.Log) *CurationReport {
	byPosition := make(map[string][]curation.Entry)
	accepted := make(map[string]bool)
	for _, e := range mlog.Entries {
		byPosition[e.ID] = append(byPosition[e.ID], e)
		if e.Decision == curation.DecisionAccepted {
			accepted[e.ID+"\x00"+e.Value] = true
		}
	}

	report := &CurationReport{
		Document:   document,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Strategy:   strategy,
		Status:     status.Summarize(document, result),
		Positions:  []PositionExport{},
	}
	for _, d := range result.Diagnostics() {
		report.Skipped = append(report.Skipped, d.String())
	}

	for _, set := range result.ConfigurationSets() {
		pos := set.Position()
		id := pos.ID()
		pe := PositionExport{
			ID:        id,
			Kind:      string(pos.Kind),
			Type:      pos.Type,
			Begin:     pos.Begin,
			End:       pos.End,
			Text:      pos.Text,
			Feature:   pos.Feature,
			Status:    graph.StatusOf(set),
			Missing:   set.Missing(),
			Decisions: byPosition[id],
		}
		for _, cfg := range set.Configurations() {
			value := cfg.Value().String()
			pe.Configurations = append(pe.Configurations, ConfigurationExport{
				Value:      value,
				Votes:      cfg.Votes(),
				Annotators: cfg.Annotators(),
				Accepted:   accepted[id+"\x00"+value],
			})
		}
		report.Positions = append(report.Positions, pe)
	}
	return report
}

// ExportDocument diffs and merges a stored document without saving anything
// and returns its report.
func ExportDocument(ctx context.Context, st store.Store, layers []layer.Layer, strategy merge.Strategy, document string) (*CurationReport, error) {
	colls, err := st.LoadAnnotations(ctx, document)
	if err != nil {
		return nil, err
	}
	differ, err := diff.New(layers, diff.WithoutLogging())
	if err != nil {
		return nil, err
	}
	result := differ.Diff(colls)
	_, mlog := curation.NewMerger(layers, strategy).Merge(result)
	return BuildReport(document, strategy.Name(), result, mlog), nil
}
