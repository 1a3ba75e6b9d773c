package mcptools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/curate/internal/curation"
	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/export"
	"github.com/dusk-indust/curate/internal/graph"
	"github.com/dusk-indust/curate/internal/layer"
	"github.com/dusk-indust/curate/internal/merge"
	"github.com/dusk-indust/curate/internal/status"
	"github.com/dusk-indust/curate/internal/store"
)

// DefaultDisputeLimit caps list_disputes when no limit is given.
const DefaultDisputeLimit = 50

// CurationService holds the stores and project defaults used by MCP tool
// handlers.
type CurationService struct {
	store    store.Store
	graph    graph.Store // may be nil
	layers   []layer.Layer
	traits   merge.Traits
	registry *merge.Registry
	differ   *diff.Differ
	runner   *curation.Runner
	opts     []curation.Option

	graphMu sync.Mutex // shared by every runner recording into graph
}

// NewCurationService creates a CurationService. The default runner is built
// from traits; opts are applied to it and to every runner built for a
// strategy override or a dry run. Dry runs never record into g.
func NewCurationService(st store.Store, g graph.Store, layers []layer.Layer, traits merge.Traits, opts ...curation.Option) (*CurationService, error) {
	differ, err := diff.New(layers, diff.WithoutLogging())
	if err != nil {
		return nil, err
	}
	s := &CurationService{
		store:    st,
		graph:    g,
		layers:   layers,
		traits:   traits,
		registry: merge.NewRegistry(),
		differ:   differ,
	}
	if g != nil {
		opts = append([]curation.Option{curation.WithGraph(g), curation.WithGraphLock(&s.graphMu)}, opts...)
	}
	s.opts = opts

	runner, err := s.newRunner(traits, false)
	if err != nil {
		return nil, err
	}
	s.runner = runner
	return s, nil
}

func (s *CurationService) newRunner(traits merge.Traits, dryRun bool) (*curation.Runner, error) {
	strategy, err := s.registry.Build(traits)
	if err != nil {
		return nil, err
	}
	return curation.NewRunner(s.store, curation.Config{
		Layers:   s.layers,
		Strategy: strategy,
		Workers:  1,
		DryRun:   dryRun,
	}, s.opts...)
}

// DiffDocument compares the annotators of a document and returns the
// positions they did not fully agree on.
func (s *CurationService) DiffDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DiffDocumentInput,
) (*mcp.CallToolResult, DiffDocumentOutput, error) {
	if input.Document == "" {
		return nil, DiffDocumentOutput{}, fmt.Errorf("document is required")
	}

	colls, err := s.store.LoadAnnotations(ctx, input.Document)
	if err != nil {
		return nil, DiffDocumentOutput{}, fmt.Errorf("load annotations: %w", err)
	}
	result := s.differ.Diff(colls)
	report := export.BuildReport(input.Document, "", result, &curation.Log{})

	out := DiffDocumentOutput{
		Status:    report.Status,
		Positions: []export.PositionExport{},
		Skipped:   report.Skipped,
	}
	for _, p := range report.Positions {
		if p.Status == graph.StatusAgreed && !input.IncludeAgreed {
			continue
		}
		p.Decisions = nil
		out.Positions = append(out.Positions, p)
	}
	return nil, out, nil
}

// MergeDocument runs the merge strategy over a document and saves the
// curated collection unless DryRun is set.
func (s *CurationService) MergeDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MergeDocumentInput,
) (*mcp.CallToolResult, MergeDocumentOutput, error) {
	if input.Document == "" {
		return nil, MergeDocumentOutput{}, fmt.Errorf("document is required")
	}

	runner := s.runner
	traits := s.traits
	if input.Strategy != nil || input.DryRun {
		if input.Strategy != nil {
			traits = *input.Strategy
		}
		r, err := s.newRunner(traits, input.DryRun)
		if err != nil {
			return nil, MergeDocumentOutput{}, fmt.Errorf("build strategy: %w", err)
		}
		runner = r
	}

	out, err := runner.Process(ctx, input.Document)
	if err != nil {
		return nil, MergeDocumentOutput{}, fmt.Errorf("merge %s: %w", input.Document, err)
	}

	name := traits.Name
	if name == "" {
		name = merge.NameCompleteAgreement
	}
	return nil, MergeDocumentOutput{
		Document:    input.Document,
		RunID:       out.RunID,
		Strategy:    name,
		Accepted:    out.Log.Count(curation.DecisionAccepted),
		Disputed:    out.Log.Count(curation.DecisionDisputed),
		Rejected:    out.Log.Count(curation.DecisionRejected),
		Annotations: len(out.Curated.Annotations),
		Saved:       !input.DryRun,
		Cached:      out.Cached,
	}, nil
}

// AgreementStatus reports agreement counts for one document or all of them.
func (s *CurationService) AgreementStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AgreementStatusInput,
) (*mcp.CallToolResult, AgreementStatusOutput, error) {
	if input.Document != "" {
		ds, err := status.GetDocumentStatus(ctx, s.store, s.differ, input.Document)
		if err != nil {
			return nil, AgreementStatusOutput{}, fmt.Errorf("status %s: %w", input.Document, err)
		}
		return nil, AgreementStatusOutput{Documents: []status.DocumentStatus{ds}}, nil
	}

	all, err := status.ListDocuments(ctx, s.store, s.differ)
	if err != nil {
		return nil, AgreementStatusOutput{}, err
	}
	return nil, AgreementStatusOutput{Documents: all}, nil
}

// ListDisputes returns disputed positions recorded in the agreement graph
// together with their configurations and voters.
func (s *CurationService) ListDisputes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDisputesInput,
) (*mcp.CallToolResult, ListDisputesOutput, error) {
	if s.graph == nil {
		return nil, ListDisputesOutput{}, errors.New("no agreement graph configured")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultDisputeLimit
	}

	positions, err := s.graph.Disputed(ctx, input.Document, limit)
	if err != nil {
		return nil, ListDisputesOutput{}, fmt.Errorf("get disputed positions: %w", err)
	}

	out := ListDisputesOutput{Disputes: make([]Dispute, 0, len(positions))}
	for _, p := range positions {
		configs, err := s.graph.GetConfigurations(ctx, p.ID)
		if err != nil {
			return nil, ListDisputesOutput{}, fmt.Errorf("get configurations: %w", err)
		}
		d := Dispute{Position: p, Configurations: make([]DisputedValue, 0, len(configs))}
		for _, c := range configs {
			voters, err := s.graph.GetVoters(ctx, c.ID)
			if err != nil {
				return nil, ListDisputesOutput{}, fmt.Errorf("get voters: %w", err)
			}
			d.Configurations = append(d.Configurations, DisputedValue{
				Value:      c.Value,
				Votes:      c.Votes,
				Annotators: voters,
				Accepted:   c.Accepted,
			})
		}
		out.Disputes = append(out.Disputes, d)
	}
	return nil, out, nil
}
