// Package symbols estrae le definizioni di funzione C dalle translation unit
// e popola il Function Database.
package symbols

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/codellm-devkit/codeanalyzer-c/internal/astx"
	"github.com/codellm-devkit/codeanalyzer-c/internal/cfront"
	"github.com/codellm-devkit/codeanalyzer-c/internal/compdb"
	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
	"github.com/codellm-devkit/codeanalyzer-c/internal/tracker"
	"github.com/codellm-devkit/codeanalyzer-c/pkg/schema"
)

// Status è l'esito dell'analisi di un file.
type Status int

const (
	StatusParsed   Status = iota // analizzato con i flag del compile command
	StatusFallback               // analizzato con il set minimo di flag
	StatusSkipped                // saltato
)

func (s Status) String() string {
	switch s {
	case StatusParsed:
		return "parsed"
	case StatusFallback:
		return "fallback"
	default:
		return "skipped"
	}
}

// FileResult descrive l'esito di un file.
type FileResult struct {
	File        string
	Status      Status
	Definitions int
	// Err è l'errore del primo tentativo per StatusFallback e dell'ultimo
	// per StatusSkipped.
	Err error
}

// ExtractConfig configura l'estrazione dei simboli.
type ExtractConfig struct {
	Root    string          // radice del progetto, per i path relativi negli issue
	Jobs    int             // file analizzati in parallelo; <= 1 sequenziale
	Resolve funcdb.Resolver // politica tra file; nil = PreferExternalLinkage
	Parser  *cfront.Parser  // nil = cfront.NewParser()
	Logger  *slog.Logger    // nil = slog.Default()
	OnFile  func(FileResult)
}

// Result è il risultato dell'estrazione su un progetto.
type Result struct {
	DB     *funcdb.Database
	Files  []FileResult
	Issues []schema.Issue
}

// Definition converte una funzione del front end in una Definition con la
// lista di chiamate già classificata.
func Definition(fn astx.Function) *funcdb.Definition {
	params := make([]funcdb.Parameter, 0, len(fn.Params()))
	for _, p := range fn.Params() {
		params = append(params, funcdb.Parameter{Name: p.Name, Type: p.Type})
	}
	src := fn.Location().File
	if src == "" {
		src = funcdb.UnknownSource
	}
	def := &funcdb.Definition{
		Signature: funcdb.Signature{
			Name:       fn.Name(),
			ReturnType: fn.ResultType(),
			Params:     params,
			Variadic:   fn.IsVariadic(),
		},
		SourceFile: src,
		Static:     fn.StorageClass() == astx.StorageStatic,
	}
	if body := fn.Body(); body != nil {
		def.Body = body.Text()
		def.Calls = tracker.Track(body)
	}
	return def
}

// FromUnit costruisce il database di una singola translation unit. Più
// definizioni con lo stesso nome: vince l'ultima.
func FromUnit(u *cfront.Unit) *funcdb.Database {
	db := funcdb.New()
	for _, fn := range u.Functions() {
		db.Add(Definition(fn))
	}
	return db
}

// ExtractFile analizza un file con i flag -D/-I del suo compile command; se
// il parsing fallisce riprova senza flag, e se fallisce anche così il file
// viene saltato.
func ExtractFile(ctx context.Context, p *cfront.Parser, cmd compdb.CompileCommand) (*funcdb.Database, FileResult) {
	file := cmd.Path()
	res := FileResult{File: file}

	flags, ferr := cmd.Flags()
	var firstErr error
	if ferr == nil {
		u, err := p.ParseFile(ctx, file, flags)
		if err == nil {
			db := FromUnit(u)
			res.Status, res.Definitions = StatusParsed, db.Len()
			return db, res
		}
		firstErr = err
		if flags.Empty() {
			res.Status, res.Err = StatusSkipped, err
			return nil, res
		}
	} else {
		firstErr = ferr
	}

	u, err := p.ParseFile(ctx, file, compdb.Flags{})
	if err != nil {
		res.Status, res.Err = StatusSkipped, err
		return nil, res
	}
	db := FromUnit(u)
	res.Status, res.Definitions, res.Err = StatusFallback, db.Len(), firstErr
	return db, res
}

// Extract analizza i file indicati e unisce i database per-file nell'ordine
// di files, indipendentemente da Jobs. Ritorna un errore solo se ctx viene
// cancellato; i fallimenti dei singoli file diventano Issue.
func Extract(ctx context.Context, db *compdb.Database, files []string, cfg ExtractConfig) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	parser := cfg.Parser
	if parser == nil {
		parser = cfront.NewParser()
	}
	resolve := cfg.Resolve
	if resolve == nil {
		resolve = funcdb.PreferExternalLinkage
	}

	type outcome struct {
		db  *funcdb.Database
		res FileResult
	}
	outcomes := make([]outcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Jobs > 1 {
		g.SetLimit(cfg.Jobs)
	} else {
		g.SetLimit(1)
	}
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cmd, err := db.Lookup(file)
			if err != nil {
				outcomes[i] = outcome{res: FileResult{File: file, Status: StatusSkipped, Err: err}}
				return nil
			}
			fdb, res := ExtractFile(gctx, parser, cmd)
			outcomes[i] = outcome{db: fdb, res: res}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract definitions: %w", err)
	}

	out := &Result{DB: funcdb.New(), Files: make([]FileResult, 0, len(files))}
	for _, o := range outcomes {
		res := o.res
		rel := relPath(cfg.Root, res.File)
		switch res.Status {
		case StatusParsed:
			log.Debug("parsed", "file", rel, "definitions", res.Definitions)
		case StatusFallback:
			log.Warn("parse failed with compile flags, retried with minimal flags", "file", rel, "err", res.Err)
			out.Issues = append(out.Issues, schema.Warning(schema.CodeParseFallback, rel,
				fmt.Sprintf("parsed with minimal flags after: %v", res.Err)))
		case StatusSkipped:
			log.Warn("file skipped", "file", rel, "err", res.Err)
			out.Issues = append(out.Issues, schema.Warning(schema.CodeParseSkipped, rel,
				fmt.Sprintf("file skipped: %v", res.Err)))
		}
		if o.db != nil {
			out.DB.Merge(o.db, resolve)
		}
		out.Files = append(out.Files, res)
		if cfg.OnFile != nil {
			cfg.OnFile(res)
		}
	}
	return out, nil
}

// relPath rende path relativo a root quando possibile.
func relPath(root, path string) string {
	if root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
