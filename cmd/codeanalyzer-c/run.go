package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codellm-devkit/codeanalyzer-c/internal/callgraph"
	"github.com/codellm-devkit/codeanalyzer-c/internal/cfront"
	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
	"github.com/codellm-devkit/codeanalyzer-c/internal/loader"
	"github.com/codellm-devkit/codeanalyzer-c/internal/metrics"
	"github.com/codellm-devkit/codeanalyzer-c/internal/output"
	"github.com/codellm-devkit/codeanalyzer-c/internal/symbols"
	"github.com/codellm-devkit/codeanalyzer-c/pkg/schema"
)

// result è ciò che serve al riepilogo finale.
type result struct {
	Analysis *schema.CLDKAnalysis
	Summary  callgraph.Summary
	Files    map[symbols.Status]int
	Outputs  []string
}

func runAnalysis(ctx context.Context, cfg config, log *slog.Logger) (*result, error) {
	startTime := time.Now()
	run := metrics.New()

	log.Debug("starting analysis",
		"project", cfg.project, "entry", cfg.entry, "jobs", cfg.jobs, "go", runtime.Version())

	// Carica il progetto dal compilation database
	project, err := loader.LoadWithOptions(cfg.project, loader.Options{
		ExcludeDirs: cfg.excludeDirs,
		OnlyFiles:   cfg.onlyFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	entry, err := project.ResolveEntry(cfg.entry, cfg.entryFunc)
	if err != nil {
		return nil, fmt.Errorf("resolve entry: %w", err)
	}
	log.Debug("project loaded", "compdb", project.DB.Path, "files", len(project.Files), "entry", entry.Function)

	// Estrai le definizioni
	resolve, err := funcdb.ResolverFor(cfg.merge)
	if err != nil {
		return nil, err
	}
	files := map[symbols.Status]int{}
	extracted, err := symbols.Extract(ctx, project.DB, project.Files, symbols.ExtractConfig{
		Root:    project.Root,
		Jobs:    cfg.jobs,
		Resolve: resolve,
		Parser:  cfront.NewParser(cfront.WithMaxErrorRatio(cfg.maxErrorRatio)),
		Logger:  log,
		OnFile: func(r symbols.FileResult) {
			files[r.Status]++
			run.ObserveFile(r.Status.String())
		},
	})
	if err != nil {
		return nil, err
	}
	log.Debug("definitions extracted", "functions", extracted.DB.Len())

	// Costruisci il call graph
	g := callgraph.Build(extracted.DB, entry.Function)
	issues := append([]schema.Issue{}, extracted.Issues...)
	if n, _ := g.Node(entry.Function); n.IsExternal() {
		log.Warn("entry point has no definition", "entry", entry.Function)
		issues = append(issues, schema.Warning(schema.CodeEntryExternal, "",
			fmt.Sprintf("entry point %s has no definition in the analyzed files", entry.Function)))
	}

	order := g.TopologicalOrder()
	unordered := g.Unordered(order)
	if len(unordered) > 0 {
		issues = append(issues, schema.Warning(schema.CodeTopoIncomplete, "",
			fmt.Sprintf("%d reachable functions missing from the topological order: %s",
				len(unordered), strings.Join(unordered, ", "))))
	}
	cycles := g.Cycles()
	for _, c := range cycles {
		issues = append(issues, schema.Issue{
			Severity: schema.SeverityInfo,
			Code:     schema.CodeCycle,
			Message:  "recursive cycle: " + strings.Join(c, ", "),
		})
	}
	sum := g.Summary()
	log.Debug("call graph built", "nodes", sum.Nodes, "edges", sum.Edges, "cycles", len(cycles))

	// Scrivi DOT e immagini
	exp := &output.Exporter{Dir: cfg.outputDir, Formats: cfg.render, Logger: log}
	if !cfg.noRender {
		exp.Renderer = output.GraphvizRenderer{Binary: cfg.dotBin}
	}
	exported, err := exp.Export(ctx, g, cfg.focus)
	if err != nil {
		return nil, fmt.Errorf("export graph: %w", err)
	}
	issues = append(issues, exported.Issues...)

	analysis := &schema.CLDKAnalysis{
		Metadata: schema.Metadata{
			Analyzer:      "codeanalyzer-c",
			Version:       version,
			Language:      "c",
			RunID:         uuid.NewString(),
			Timestamp:     startTime.UTC().Format(time.RFC3339),
			ProjectPath:   project.Root,
			CompilationDB: project.DB.Path,
			EntryPoint:    entry.Function,
			FilesAnalyzed: files[symbols.StatusParsed] + files[symbols.StatusFallback],
		},
		Functions: g.Functions(project.Root, cfg.includeBody),
		CallGraph: g.ToSchema(project.Root),
		Order:     order,
		Cycles:    cycles,
		Unordered: unordered,
		Issues:    issues,
	}
	if analysis.Cycles == nil {
		analysis.Cycles = [][]string{}
	}
	if analysis.Unordered == nil {
		analysis.Unordered = []string{}
	}

	// Calcola durata
	elapsed := time.Since(startTime)
	analysis.Metadata.AnalysisDurationMs = elapsed.Milliseconds()
	run.ObserveGraph(extracted.DB.Len(), sum.Nodes, sum.Edges)
	run.ObserveDuration(elapsed)

	format, _ := output.ParseFormat(cfg.format)
	report, err := output.Write(analysis, output.Config{OutputDir: cfg.outputDir, Format: format, Indent: true})
	if err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	outputs := append(exported.Files, report)

	if cfg.metricsFile != "" {
		if err := run.WriteToTextfile(cfg.metricsFile); err != nil {
			return nil, err
		}
		outputs = append(outputs, cfg.metricsFile)
	}

	log.Debug("analysis completed", "duration_ms", analysis.Metadata.AnalysisDurationMs)
	return &result{Analysis: analysis, Summary: sum, Files: files, Outputs: outputs}, nil
}
