package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
	"github.com/codellm-devkit/codeanalyzer-c/internal/output"
)

// defaultConfigFile viene letto dalla root del progetto se --config manca.
const defaultConfigFile = ".codeanalyzer-c.yaml"

// fileConfig è il formato del file YAML. I flag espliciti hanno la
// precedenza sui valori del file.
type fileConfig struct {
	Entry         string   `yaml:"entry"`
	EntryFunc     string   `yaml:"entry_func"`
	Output        string   `yaml:"output"`
	Render        []string `yaml:"render"`
	NoRender      *bool    `yaml:"no_render"`
	Focus         []string `yaml:"focus"`
	Format        string   `yaml:"format"`
	IncludeBody   *bool    `yaml:"include_body"`
	MetricsFile   string   `yaml:"metrics_file"`
	DotBin        string   `yaml:"dot_bin"`
	Jobs          int      `yaml:"jobs"`
	Merge         string   `yaml:"merge"`
	ExcludeDirs   []string `yaml:"exclude_dirs"`
	OnlyFiles     []string `yaml:"only_files"`
	MaxErrorRatio *float64 `yaml:"max_error_ratio"`
}

// loadConfigFile legge il file di configurazione, se presente, e lo applica
// ai flag non impostati sulla riga di comando.
func loadConfigFile(cmd *cobra.Command, cfg *config) error {
	path := cfg.configFile
	explicit := path != ""
	if !explicit {
		if cfg.project == "" {
			return nil
		}
		path = filepath.Join(cfg.project, defaultConfigFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	fc, err := parseFileConfig(data)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	applyFileConfig(cfg, fc, cmd.Flags().Changed)
	return nil
}

func parseFileConfig(data []byte) (fileConfig, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, err
	}
	return fc, nil
}

// applyFileConfig copia in cfg i valori del file per i flag non cambiati.
func applyFileConfig(cfg *config, fc fileConfig, changed func(string) bool) {
	setString := func(flag string, dst *string, v string) {
		if v != "" && !changed(flag) {
			*dst = v
		}
	}
	setList := func(flag string, dst *[]string, v []string) {
		if len(v) > 0 && !changed(flag) {
			*dst = v
		}
	}
	setBool := func(flag string, dst *bool, v *bool) {
		if v != nil && !changed(flag) {
			*dst = *v
		}
	}

	setString("entry", &cfg.entry, fc.Entry)
	setString("entry-func", &cfg.entryFunc, fc.EntryFunc)
	setString("output", &cfg.outputDir, fc.Output)
	setList("render", &cfg.render, fc.Render)
	setBool("no-render", &cfg.noRender, fc.NoRender)
	setList("focus", &cfg.focus, fc.Focus)
	setString("format", &cfg.format, fc.Format)
	setBool("include-body", &cfg.includeBody, fc.IncludeBody)
	setString("metrics-file", &cfg.metricsFile, fc.MetricsFile)
	setString("dot-bin", &cfg.dotBin, fc.DotBin)
	setString("merge", &cfg.merge, fc.Merge)
	setList("exclude-dirs", &cfg.excludeDirs, fc.ExcludeDirs)
	setList("only-files", &cfg.onlyFiles, fc.OnlyFiles)
	if fc.Jobs != 0 && !changed("jobs") {
		cfg.jobs = fc.Jobs
	}
	if fc.MaxErrorRatio != nil && !changed("max-error-ratio") {
		cfg.maxErrorRatio = *fc.MaxErrorRatio
	}
}

func validateConfig(cfg *config) error {
	if strings.TrimSpace(cfg.project) == "" {
		return errors.New("--project is required")
	}
	// Valida project path
	absProject, err := filepath.Abs(cfg.project)
	if err != nil {
		return fmt.Errorf("invalid project path: %w", err)
	}
	cfg.project = absProject
	if st, err := os.Stat(cfg.project); err != nil || !st.IsDir() {
		return fmt.Errorf("project directory does not exist: %s", cfg.project)
	}

	cfg.entry = strings.TrimSpace(cfg.entry)
	if cfg.entry == "" {
		return errors.New("--entry is required")
	}

	if cfg.outputDir == "" {
		return errors.New("--output must not be empty")
	}

	if _, err := output.ParseFormat(cfg.format); err != nil {
		return fmt.Errorf("invalid format: %s (valid: json, compact)", cfg.format)
	}

	if _, err := funcdb.ResolverFor(cfg.merge); err != nil {
		return err
	}

	formats := make([]string, 0, len(cfg.render))
	for _, f := range cfg.render {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if !output.ValidImageFormat(f) {
			return fmt.Errorf("invalid render format: %s (valid: %s)", f, strings.Join(output.ImageFormats, ", "))
		}
		formats = append(formats, f)
	}
	cfg.render = formats

	if cfg.jobs < 1 {
		return fmt.Errorf("invalid jobs: %d (must be >= 1)", cfg.jobs)
	}
	if cfg.maxErrorRatio < 0 || cfg.maxErrorRatio > 1 {
		return fmt.Errorf("invalid max-error-ratio: %v (must be in [0, 1])", cfg.maxErrorRatio)
	}
	if cfg.verbose && cfg.quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}
	return nil
}
