package curation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/curate/internal/annotation"
	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/graph"
	"github.com/dusk-indust/curate/internal/layer"
	"github.com/dusk-indust/curate/internal/merge"
	"github.com/dusk-indust/curate/internal/store"
)

const tracerName = "github.com/dusk-indust/curate/internal/curation"

// DefaultWorkers is the document parallelism used when Config.Workers is unset.
const DefaultWorkers = 4

// Config controls a Runner.
type Config struct {
	// Layers are the annotation types to diff and merge.
	Layers []layer.Layer
	// Strategy decides what is accepted. Nil means complete agreement.
	Strategy merge.Strategy
	// Workers bounds the number of documents processed in parallel.
	Workers int
	// CacheSize is the number of document outcomes kept in memory. Zero
	// disables the cache.
	CacheSize int
	// DryRun skips saving curated collections and recording into the
	// graph, so a dry run leaves no trace in either store.
	DryRun bool
}

// Outcome is the result of processing one document.
type Outcome struct {
	RunID       string
	Document    string
	Fingerprint string
	Result      *diff.Result
	Curated     *annotation.Collection
	Log         *Log
	Cached      bool
}

// Report summarizes one Run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Outcomes []*Outcome // in document order
}

// Count sums the entries with decision d over every outcome.
func (r *Report) Count(d Decision) int {
	n := 0
	for _, o := range r.Outcomes {
		if o != nil {
			n += o.Log.Count(d)
		}
	}
	return n
}

// Runner diffs and merges the documents of a store in parallel.
type Runner struct {
	store      store.Store
	graph      graph.Store
	cfg        Config
	differ     *diff.Differ
	merger     *Merger
	layers     map[string]layer.Layer
	metrics    *Metrics
	tracer     trace.Tracer
	cache      *lru.Cache[string, *Outcome]
	onProgress func(ProgressEvent)
	quiet      bool

	graphMu *sync.Mutex // serializes Record calls; a document reset must not interleave
}

// Option configures a Runner.
type Option func(*Runner)

// WithGraph records every processed document into g.
func WithGraph(g graph.Store) Option {
	return func(r *Runner) { r.graph = g }
}

// WithGraphLock shares mu with other runners recording into the same graph.
// Each runner has its own lock by default.
func WithGraphLock(mu *sync.Mutex) Option {
	return func(r *Runner) { r.graphMu = mu }
}

// WithMetrics counts outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracerProvider sets the provider spans are created from. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) { r.tracer = tp.Tracer(tracerName) }
}

// WithProgress registers a callback invoked from worker goroutines.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// WithoutLogging silences run summaries and malformed-annotation warnings.
func WithoutLogging() Option {
	return func(r *Runner) { r.quiet = true }
}

// NewRunner validates cfg and builds a Runner reading from st.
func NewRunner(st store.Store, cfg Config, opts ...Option) (*Runner, error) {
	if st == nil {
		return nil, errors.New("curation: store is required")
	}
	if len(cfg.Layers) == 0 {
		return nil, errors.New("curation: at least one layer is required")
	}
	for _, l := range cfg.Layers {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("curation: %w", err)
		}
	}
	if cfg.Strategy == nil {
		cfg.Strategy = merge.CompleteAgreement{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	r := &Runner{
		store:  st,
		cfg:    cfg,
		merger: NewMerger(cfg.Layers, cfg.Strategy),
		layers: layer.Index(cfg.Layers),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.graphMu == nil {
		r.graphMu = new(sync.Mutex)
	}

	var diffOpts []diff.Option
	if r.quiet {
		diffOpts = append(diffOpts, diff.WithoutLogging())
	}
	differ, err := diff.New(cfg.Layers, diffOpts...)
	if err != nil {
		return nil, fmt.Errorf("curation: %w", err)
	}
	r.differ = differ

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *Outcome](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("curation: create cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Run processes documents in parallel, or every document of the store when
// none are given. The first failure cancels the remaining documents; the
// report holds the outcomes that completed.
func (r *Runner) Run(ctx context.Context, documents ...string) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}

	if len(documents) == 0 {
		docs, err := r.store.ListDocuments(ctx)
		if err != nil {
			return report, fmt.Errorf("curation: list documents: %w", err)
		}
		documents = docs
	}

	report.Outcomes = make([]*Outcome, len(documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, doc := range documents {
		r.emit(ProgressEvent{RunID: report.RunID, Document: doc, Status: ProgressPending})
	}
	for i, doc := range documents {
		g.Go(func() error {
			out, err := r.process(gctx, report.RunID, doc)
			if err != nil {
				r.emit(ProgressEvent{RunID: report.RunID, Document: doc, Status: ProgressFailed, Message: err.Error()})
				return fmt.Errorf("curation: %s: %w", doc, err)
			}
			report.Outcomes[i] = out
			return nil
		})
	}

	err := g.Wait()
	report.Duration = time.Since(report.Started)
	if !r.quiet {
		log.Printf("curation: run=%s documents=%d accepted=%d disputed=%d rejected=%d duration=%s",
			report.RunID, len(documents), report.Count(DecisionAccepted),
			report.Count(DecisionDisputed), report.Count(DecisionRejected), report.Duration.Round(time.Millisecond))
	}
	return report, err
}

// Process diffs and merges a single document.
func (r *Runner) Process(ctx context.Context, document string) (*Outcome, error) {
	return r.process(ctx, uuid.NewString(), document)
}

func (r *Runner) process(ctx context.Context, runID, document string) (out *Outcome, err error) {
	ctx, span := r.tracer.Start(ctx, "curation.document", trace.WithAttributes(
		attribute.String("curation.run_id", runID),
		attribute.String("curation.document", document),
		attribute.String("curation.strategy", r.cfg.Strategy.Name()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	if r.metrics != nil {
		r.metrics.ActiveDocuments.Inc()
		defer func() {
			r.metrics.ActiveDocuments.Dec()
			r.metrics.DocumentDuration.Observe(time.Since(start).Seconds())
			outcome := "complete"
			switch {
			case err != nil:
				outcome = "failed"
			case out.Cached:
				outcome = "cached"
			}
			r.metrics.DocumentsTotal.WithLabelValues(outcome).Inc()
		}()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.emit(ProgressEvent{RunID: runID, Document: document, Status: ProgressWorking})

	colls, err := r.store.LoadAnnotations(ctx, document)
	if err != nil {
		return nil, err
	}
	fp, err := r.fingerprint(document, colls)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if hit, ok := r.cache.Get(fp); ok {
			cached := *hit
			cached.RunID = runID
			cached.Cached = true
			span.SetAttributes(attribute.Bool("curation.cached", true))
			r.emit(ProgressEvent{RunID: runID, Document: document, Status: ProgressCached})
			return &cached, nil
		}
	}

	result := r.differ.Diff(colls)
	curated, mlog := r.merger.Merge(result)

	if r.graph != nil && !r.cfg.DryRun {
		r.graphMu.Lock()
		err = graph.Record(ctx, r.graph, document, result, r.accept)
		r.graphMu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	if !r.cfg.DryRun {
		if err := r.store.SaveCuration(ctx, document, curated); err != nil {
			return nil, err
		}
	}

	out = &Outcome{
		RunID:       runID,
		Document:    document,
		Fingerprint: fp,
		Result:      result,
		Curated:     curated,
		Log:         mlog,
	}
	if r.cache != nil {
		r.cache.Add(fp, out)
	}
	r.metrics.observe(mlog, len(result.Diagnostics()))

	span.SetAttributes(
		attribute.Int("curation.positions", result.Len()),
		attribute.Int("curation.accepted", mlog.Count(DecisionAccepted)),
		attribute.Int("curation.disputed", mlog.Count(DecisionDisputed)),
	)
	r.emit(ProgressEvent{
		RunID:    runID,
		Document: document,
		Status:   ProgressComplete,
		Message:  fmt.Sprintf("%d accepted, %d disputed", mlog.Count(DecisionAccepted), mlog.Count(DecisionDisputed)),
	})
	return out, nil
}

// accept applies the strategy with the layer's overlap mode.
func (r *Runner) accept(set *diff.ConfigurationSet) []*diff.Configuration {
	return r.cfg.Strategy.Choose(set, r.layers[set.Position().Type].Overlap())
}

// fingerprint hashes everything that determines an Outcome.
func (r *Runner) fingerprint(document string, colls map[string]*annotation.Collection) (string, error) {
	names := make([]string, 0, len(colls))
	for name := range colls {
		names = append(names, name)
	}
	sort.Strings(names)

	type annotated struct {
		Name       string                 `json:"name"`
		Collection *annotation.Collection `json:"collection"`
	}
	input := struct {
		Document   string        `json:"document"`
		Strategy   string        `json:"strategy"`
		Layers     []layer.Layer `json:"layers"`
		Annotators []annotated   `json:"annotators"`
	}{
		Document: document,
		Strategy: fmt.Sprintf("%s/%v", r.cfg.Strategy.Name(), r.cfg.Strategy),
		Layers:   r.cfg.Layers,
	}
	for _, name := range names {
		input.Annotators = append(input.Annotators, annotated{Name: name, Collection: colls[name]})
	}

	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// emit sends a progress event if a callback is registered.
func (r *Runner) emit(ev ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(ev)
	}
}
