package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/codellm-devkit/codeanalyzer-c/internal/callgraph"
	"github.com/codellm-devkit/codeanalyzer-c/internal/dot"
	"github.com/codellm-devkit/codeanalyzer-c/pkg/schema"
)

// GraphFile è il nome del DOT del grafo completo.
const GraphFile = "callgraph.dot"

// ErrRendererUnavailable indica che l'eseguibile di Graphviz non è stato
// trovato.
var ErrRendererUnavailable = errors.New("graph renderer unavailable")

// ImageFormats sono i formati accettati da --render.
var ImageFormats = []string{"png", "svg", "pdf", "jpg"}

// ValidImageFormat riporta se f è un formato supportato.
func ValidImageFormat(f string) bool {
	for _, v := range ImageFormats {
		if f == v {
			return true
		}
	}
	return false
}

// Renderer trasforma un file DOT in un'immagine.
type Renderer interface {
	Render(ctx context.Context, dotFile, outFile, format string) error
}

// GraphvizRenderer invoca `dot -T<format> -o <out> <in>`.
type GraphvizRenderer struct {
	Binary string // default: "dot" cercato nel PATH
}

// Render implementa Renderer.
func (r GraphvizRenderer) Render(ctx context.Context, dotFile, outFile, format string) error {
	name := r.Binary
	if name == "" {
		name = "dot"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRendererUnavailable, err)
	}
	cmd := exec.CommandContext(ctx, bin, "-T"+format, "-o", outFile, dotFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("render %s: %w", format, err)
		}
		return fmt.Errorf("render %s: %w: %s", format, err, msg)
	}
	return nil
}

// Exporter scrive i file DOT del grafo e, se c'è un Renderer, le immagini.
// Un rendering fallito diventa un Issue e non annulla i file già scritti.
type Exporter struct {
	Dir      string
	Formats  []string // es. png, svg
	Renderer Renderer // nil = nessun rendering
	DOT      dot.Options
	Logger   *slog.Logger
}

// ExportResult elenca i file prodotti e i problemi non fatali.
type ExportResult struct {
	Files  []string
	Issues []schema.Issue
}

// Export scrive callgraph.dot, focus_<id>.dot per ogni nome in focus e le
// relative immagini. Ritorna un errore solo se non riesce a scrivere un DOT.
func (e *Exporter) Export(ctx context.Context, g *callgraph.Graph, focus []string) (*ExportResult, error) {
	log := e.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	res := &ExportResult{}
	path, err := e.SaveDOT(g, GraphFile)
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, path)
	e.render(ctx, log, res, path)

	for _, name := range focus {
		if !g.Has(name) {
			log.Warn("focus function not reachable from entry", "function", name)
			res.Issues = append(res.Issues, schema.Warning(schema.CodeFocusUnknown, "",
				fmt.Sprintf("focus function %s is not reachable from %s", name, g.Entry)))
			continue
		}
		p := filepath.Join(e.Dir, "focus_"+dot.NodeID(name)+".dot")
		err := writeFile(p, func(w io.Writer) error { return dot.Focus(w, g, name, e.DOT) })
		if err != nil {
			return nil, err
		}
		log.Debug("focus graph written", "function", name, "path", p)
		res.Files = append(res.Files, p)
		e.render(ctx, log, res, p)
	}
	return res, nil
}

// SaveDOT scrive il grafo completo in Dir/name.
func (e *Exporter) SaveDOT(g *callgraph.Graph, name string) (string, error) {
	p := filepath.Join(e.Dir, name)
	if err := writeFile(p, func(w io.Writer) error { return dot.Write(w, g, e.DOT) }); err != nil {
		return "", err
	}
	return p, nil
}

// render produce un'immagine per formato accanto a dotFile.
func (e *Exporter) render(ctx context.Context, log *slog.Logger, res *ExportResult, dotFile string) {
	if e.Renderer == nil {
		return
	}
	base := strings.TrimSuffix(dotFile, filepath.Ext(dotFile))
	for _, format := range e.Formats {
		out := base + "." + format
		if err := e.Renderer.Render(ctx, dotFile, out, format); err != nil {
			log.Warn("render failed", "file", filepath.Base(dotFile), "format", format, "err", err)
			res.Issues = append(res.Issues, schema.Warning(schema.CodeRenderFailed, filepath.Base(out),
				fmt.Sprintf("failed to generate %s: %v", strings.ToUpper(format), err)))
			continue
		}
		res.Files = append(res.Files, out)
	}
}
