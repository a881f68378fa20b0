package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/codellm-devkit/codeanalyzer-c/internal/cfront"
	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
	"github.com/codellm-devkit/codeanalyzer-c/internal/output"
)

const version = "1.0.0"

type config struct {
	// Flag principali
	project   string
	entry     string
	entryFunc string
	outputDir string

	// Output
	render      []string
	noRender    bool
	focus       []string
	format      string
	includeBody bool
	metricsFile string
	dotBin      string

	// Analisi
	jobs          int
	merge         string
	excludeDirs   []string
	onlyFiles     []string
	maxErrorRatio float64

	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
}

// configError distingue gli errori di configurazione (exit code 2) da quelli
// di analisi (exit code 1).
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run esegue la CLI e ritorna l'exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var ce *configError
		if errors.As(err, &ce) {
			fmt.Fprintf(stderr, "[error] configuration error: %v\n", ce.err)
			return 2
		}
		fmt.Fprintf(stderr, "[error] analysis error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg := config{}
	cmd := &cobra.Command{
		Use:   "codeanalyzer-c",
		Short: "Build the call graph of a C project from an entry point",
		Long: `codeanalyzer-c parses the translation units listed in a compilation
database, classifies every call site by its control-flow context and writes the
call graph reachable from an entry point as Graphviz DOT, images and a JSON report.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfigFile(cmd, &cfg); err != nil {
				return &configError{err}
			}
			if err := validateConfig(&cfg); err != nil {
				return &configError{err}
			}
			log := newLogger(stderr, cfg)
			slog.SetDefault(log)

			res, err := runAnalysis(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			if !cfg.quiet {
				printSummary(stdout, res, !cfg.noColor)
			}
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &configError{err}
	})

	f := cmd.Flags()
	f.StringVarP(&cfg.project, "project", "p", "", "Project directory containing compile_commands.json (or build/compile_commands.json)")
	f.StringVarP(&cfg.entry, "entry", "e", "", "Entry point: a function name, or the path of the file defining it")
	f.StringVar(&cfg.entryFunc, "entry-func", "main", "Function to use when --entry is a file path")
	f.StringVarP(&cfg.outputDir, "output", "o", "callgraph_output", "Output directory for DOT files, images and analysis.json")
	f.StringSliceVar(&cfg.render, "render", []string{"png", "svg"}, "Image formats rendered with Graphviz: png,svg,pdf,jpg")
	f.BoolVar(&cfg.noRender, "no-render", false, "Write DOT files only, do not call Graphviz")
	f.StringArrayVar(&cfg.focus, "focus", nil, "Also write a focused view of this function (repeatable)")
	f.StringVarP(&cfg.format, "format", "f", string(output.FormatJSON), "Report format: json|compact")
	f.BoolVar(&cfg.includeBody, "include-body", false, "Include function bodies in the report")
	f.StringVar(&cfg.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	f.StringVar(&cfg.dotBin, "dot-bin", "", "Graphviz dot executable (default: dot in PATH)")
	f.IntVarP(&cfg.jobs, "jobs", "j", 1, "Translation units parsed in parallel")
	f.StringVar(&cfg.merge, "merge", funcdb.PolicyExtern, "Duplicate definitions across files: first|last|extern")
	f.StringSliceVar(&cfg.excludeDirs, "exclude-dirs", nil, "Comma-separated directory basenames to exclude (vendor, .git and testdata are always excluded)")
	f.StringSliceVar(&cfg.onlyFiles, "only-files", nil, "Comma-separated path filters (substring match on the relative path)")
	f.Float64Var(&cfg.maxErrorRatio, "max-error-ratio", cfront.DefaultOptions().MaxErrorRatio, "Maximum share of a file covered by syntax errors before it counts as a parse failure")
	f.StringVar(&cfg.configFile, "config", "", "YAML config file (default: <project>/"+defaultConfigFile+" if present)")
	f.BoolVarP(&cfg.verbose, "verbose", "v", false, "Enable debug logging to stderr")
	f.BoolVarP(&cfg.quiet, "quiet", "q", false, "Suppress all non-error output")
	f.BoolVar(&cfg.noColor, "no-color", false, "Disable colors in the summary")
	return cmd
}

// newLogger crea il logger su stderr: -v abilita il debug, -q solo errori.
func newLogger(w io.Writer, cfg config) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case cfg.quiet:
		level = slog.LevelError
	case cfg.verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
