package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot string
	DataDir     string
	Strategy    string
	Workers     int
	DryRun      bool
	Force       bool
	Verbose     bool
	ServeMCP    bool
	Addr        string
	MetricsAddr string
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: curate [flags] <command> [args]

commands:
  init                  write a starter curate.yml and example document
  status [document]     show agreement per document
  diff <document>       list the positions annotators disagree on
  merge [document...]   merge annotators into curated collections
  export <document>     print a JSON curation report
  diagram [document]    print a Mermaid diagram of the agreement graph`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var flags cliFlags

	fs := flag.NewFlagSet("curate", flag.ContinueOnError)
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "directory holding curate.yml")
	fs.StringVar(&flags.DataDir, "data-dir", "", "annotation data directory (overrides dataDir)")
	fs.StringVar(&flags.Strategy, "strategy", "", "merge strategy name (overrides strategy.name)")
	fs.IntVar(&flags.Workers, "workers", 0, "documents merged in parallel (overrides workers)")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "merge without saving curated collections")
	fs.BoolVar(&flags.Force, "force", false, "overwrite existing files on init")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server over stdio, or HTTP when --addr is set")
	fs.StringVar(&flags.Addr, "addr", "", "HTTP listen address for --serve-mcp")
	fs.StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while serving MCP")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fmt.Fprintln(fs.Output(), "\nflags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)
		return nil
	}

	command, rest := fs.Arg(0), fs.Args()
	if len(rest) > 0 {
		rest = rest[1:]
	}

	if command == "init" {
		return runInit(stdout, flags.ProjectRoot, flags.Force)
	}
	if command == "" && !flags.ServeMCP {
		fs.Usage()
		return errors.New("no command given")
	}

	proj, err := openProject(flags)
	if err != nil {
		return err
	}
	defer proj.Close()

	if flags.ServeMCP {
		return runServe(ctx, proj, flags)
	}

	switch command {
	case "status":
		return runStatus(ctx, stdout, proj, rest)
	case "diff":
		return runDiff(ctx, stdout, proj, rest)
	case "merge":
		return runMerge(ctx, stdout, proj, flags, rest)
	case "export":
		return runExport(ctx, stdout, proj, rest)
	case "diagram":
		return runDiagram(ctx, stdout, proj, rest)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}
