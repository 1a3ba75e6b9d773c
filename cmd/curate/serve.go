package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dusk-indust/curate/internal/mcptools"
)

// runServe exposes the curation tools over MCP until ctx is cancelled.
func runServe(ctx context.Context, proj *project, flags cliFlags) error {
	svc, err := mcptools.NewCurationService(proj.store, proj.graph, proj.cfg.Layers, proj.cfg.Strategy, proj.curationOptions()...)
	if err != nil {
		return err
	}

	if flags.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(proj.registry, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{Addr: flags.MetricsAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			metricsServer.Shutdown(context.Background())
		}()
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics: %v", err)
			}
		}()
	}

	if flags.Addr != "" {
		log.Printf("mcp: serving curation tools on %s", flags.Addr)
		return mcptools.RunMCPServer(ctx, svc, flags.Addr)
	}
	return mcptools.RunMCPServerStdio(ctx, svc)
}
