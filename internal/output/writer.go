// Package output gestisce la scrittura dell'output: report JSON, file DOT e
// immagini prodotte da Graphviz.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/codellm-devkit/codeanalyzer-c/pkg/schema"
)

// ReportFile è il nome del report JSON nella directory di output.
const ReportFile = "analysis.json"

// Format rappresenta il formato del report.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCompact Format = "compact" // formato compatto per LLM
)

// ParseFormat valida il nome di un formato; vuoto = json.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCompact:
		return FormatCompact, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Config configura il writer del report.
type Config struct {
	OutputDir string // directory output (vuoto = stdout)
	Format    Format // json|compact (default: json)
	Indent    bool   // indentazione JSON
}

// Write scrive il report nel formato specificato e ritorna il path scritto
// ("" per stdout).
func Write(analysis *schema.CLDKAnalysis, cfg Config) (string, error) {
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}

	switch cfg.Format {
	case FormatJSON:
		return writeJSONGeneric(analysis, cfg)
	case FormatCompact:
		// il compatto è sempre indentato per leggibilità
		cfg.Indent = true
		return writeJSONGeneric(schema.ToCompact(analysis), cfg)
	default:
		return "", fmt.Errorf("unsupported format: %s", cfg.Format)
	}
}

// writeJSONGeneric scrive qualsiasi struttura in formato JSON.
func writeJSONGeneric(data any, cfg Config) (string, error) {
	if cfg.OutputDir == "" {
		return "", Encode(os.Stdout, data, cfg.Indent)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(cfg.OutputDir, ReportFile)
	err := writeFile(outPath, func(w io.Writer) error {
		return Encode(w, data, cfg.Indent)
	})
	return outPath, err
}

// Encode scrive data come JSON senza escape HTML.
func Encode(w io.Writer, data any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	// Assicura che i caratteri speciali non siano escaped
	enc.SetEscapeHTML(false)

	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// writeFile crea path e ci scrive con fn, riportando anche l'errore di Close.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := fn(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
