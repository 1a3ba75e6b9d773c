package main

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dusk-indust/curate/internal/config"
	"github.com/dusk-indust/curate/internal/curation"
	"github.com/dusk-indust/curate/internal/diff"
	"github.com/dusk-indust/curate/internal/graph"
	"github.com/dusk-indust/curate/internal/merge"
	"github.com/dusk-indust/curate/internal/store"
)

// project is a loaded curate.yml with its stores opened.
type project struct {
	cfg      *config.ProjectConfig
	store    *store.FileStore
	graph    graph.Store
	strategy merge.Strategy
	differ   *diff.Differ
	registry *prometheus.Registry
	metrics  *curation.Metrics
	verbose  bool

	graphMu sync.Mutex // shared by every runner recording into graph
}

// openProject loads the project config, applies flag overrides and opens
// the annotation store and agreement graph.
func openProject(flags cliFlags) (*project, error) {
	root, err := filepath.Abs(flags.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(root, "data")
	}
	if cfg.GraphPath == "" {
		cfg.GraphPath = filepath.Join(root, ".curate", "graph")
	}
	if flags.Strategy != "" {
		cfg.Strategy.Name = flags.Strategy
	}
	if flags.Workers > 0 {
		cfg.Workers = flags.Workers
	}
	cfg.Verbose = cfg.Verbose || flags.Verbose

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := merge.NewRegistry().Build(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	var diffOpts []diff.Option
	if !cfg.Verbose {
		diffOpts = append(diffOpts, diff.WithoutLogging())
	}
	differ, err := diff.New(cfg.Layers, diffOpts...)
	if err != nil {
		return nil, err
	}

	g, err := openGraph(cfg.GraphPath)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	return &project{
		cfg:      cfg,
		store:    store.NewFileStore(cfg.DataDir),
		graph:    g,
		strategy: strategy,
		differ:   differ,
		registry: reg,
		metrics:  curation.NewMetrics(reg),
		verbose:  cfg.Verbose,
	}, nil
}

// Close releases the agreement graph.
func (p *project) Close() error {
	return p.graph.Close()
}

// runner builds a Runner recording into the project graph. Dry runs save
// nothing and record nothing.
func (p *project) runner(dryRun bool, opts ...curation.Option) (*curation.Runner, error) {
	opts = append([]curation.Option{
		curation.WithGraph(p.graph),
		curation.WithGraphLock(&p.graphMu),
		curation.WithMetrics(p.metrics),
	}, opts...)
	if !p.verbose {
		opts = append(opts, curation.WithoutLogging())
	}
	return curation.NewRunner(p.store, curation.Config{
		Layers:    p.cfg.Layers,
		Strategy:  p.strategy,
		Workers:   p.cfg.Workers,
		CacheSize: p.cfg.CacheSize,
		DryRun:    dryRun,
	}, opts...)
}

// curationOptions are the runner options shared with the MCP service.
func (p *project) curationOptions() []curation.Option {
	opts := []curation.Option{curation.WithMetrics(p.metrics)}
	if !p.verbose {
		opts = append(opts, curation.WithoutLogging())
	}
	return opts
}
