package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dusk-indust/curate/internal/curation"
)

func runMerge(ctx context.Context, w io.Writer, proj *project, flags cliFlags, documents []string) error {
	var opts []curation.Option
	var done chan struct{}
	if proj.verbose {
		reporter := curation.NewProgressReporter()
		opts = append(opts, curation.WithProgress(reporter.Emit))
		done = make(chan struct{})
		go func() {
			defer close(done)
			for ev := range reporter.Subscribe() {
				fmt.Fprintln(os.Stderr, curation.FormatProgress(ev))
			}
		}()
		defer func() {
			reporter.Close()
			<-done
		}()
	}

	runner, err := proj.runner(flags.DryRun, opts...)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, documents...)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %s  strategy: %s\n", report.RunID, proj.strategy.Name())
	for _, out := range report.Outcomes {
		note := ""
		if out.Cached {
			note = "  (cached)"
		}
		fmt.Fprintf(w, "  %-24s accepted %4d  disputed %4d  rejected %4d  annotations %4d%s\n",
			out.Document,
			out.Log.Count(curation.DecisionAccepted),
			out.Log.Count(curation.DecisionDisputed),
			out.Log.Count(curation.DecisionRejected),
			len(out.Curated.Annotations),
			note)
	}
	action := "saved"
	if flags.DryRun {
		action = "not saved (dry run)"
	}
	fmt.Fprintf(w, "%d document(s) merged in %s, curations %s\n",
		len(report.Outcomes), report.Duration.Round(time.Millisecond), action)
	return nil
}
