package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codellm-devkit/codeanalyzer-c/internal/compdb"
)

// ErrEntryNotFound is returned when --entry names a file that does not exist.
var ErrEntryNotFound = errors.New("entry point not found")

// DefaultEntryFunction is the function analyzed when the entry is a file.
const DefaultEntryFunction = "main"

// Project is a C project described by a compilation database.
type Project struct {
	Root  string
	DB    *compdb.Database
	Files []string // absolute paths, in compilation-database order
}

// Options controlla il comportamento del loader.
type Options struct {
	ExcludeDirs []string // basenames da escludere
	OnlyFiles   []string // filtra per sottostringa nel path relativo
}

// Entry is the resolved entry point of the analysis.
type Entry struct {
	Function string
	// File is set when the entry was given as a path.
	File string
}

// Load reads the compilation database of root and lists its source files,
// excluding vendor/.git/testdata and hidden directories.
func Load(root string) (*Project, error) {
	return LoadWithOptions(root, Options{})
}

// LoadWithOptions carica il progetto e filtra i file secondo le opzioni.
func LoadWithOptions(root string, opts Options) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root %s: %w", root, err)
	}
	db, err := compdb.Load(abs)
	if err != nil {
		return nil, err
	}

	ex := map[string]struct{}{
		"vendor":   {},
		".git":     {},
		"testdata": {},
	}
	for _, d := range opts.ExcludeDirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		ex[d] = struct{}{}
	}

	p := &Project{Root: abs, DB: db}
	for _, file := range db.Files() {
		rel := file
		if rp, err := filepath.Rel(abs, file); err == nil {
			rel = filepath.ToSlash(rp)
		}
		if excluded(rel, ex) {
			continue
		}
		// only-files: filtro su path relativo
		if len(opts.OnlyFiles) > 0 && !containsAny(rel, opts.OnlyFiles) {
			continue
		}
		p.Files = append(p.Files, file)
	}
	return p, nil
}

// excluded reports whether a directory component of rel is excluded or
// hidden. Paths outside the root are never excluded.
func excluded(rel string, ex map[string]struct{}) bool {
	if strings.HasPrefix(rel, "../") {
		return false
	}
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, skip := ex[dir]; skip || (strings.HasPrefix(dir, ".") && dir != ".") {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		sub = strings.TrimSpace(sub)
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ResolveEntry interprets the --entry argument. A C identifier is a function
// name. Anything else is a path, relative to the working directory or to the
// project root: it must exist and have a compile command, and entryFunc
// (default main) is the function analyzed. A path entry is added to Files
// if the filters had removed it.
func (p *Project) ResolveEntry(entry, entryFunc string) (Entry, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return Entry{}, fmt.Errorf("%w: empty entry", ErrEntryNotFound)
	}
	if isIdent(entry) {
		return Entry{Function: entry}, nil
	}

	file, ok := p.findFile(entry)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}
	if _, err := p.DB.Lookup(file); err != nil {
		return Entry{}, err
	}
	if entryFunc = strings.TrimSpace(entryFunc); entryFunc == "" {
		entryFunc = DefaultEntryFunction
	}
	found := false
	for _, f := range p.Files {
		if f == file {
			found = true
			break
		}
	}
	if !found {
		p.Files = append(p.Files, file)
	}
	return Entry{Function: entryFunc, File: file}, nil
}

func (p *Project) findFile(entry string) (string, bool) {
	candidates := []string{entry}
	if !filepath.IsAbs(entry) {
		candidates = append(candidates, filepath.Join(p.Root, entry))
	}
	for _, c := range candidates {
		abs, err := filepath.Abs(c)
		if err != nil {
			continue
		}
		if st, err := os.Stat(abs); err == nil && !st.IsDir() {
			return filepath.Clean(abs), true
		}
	}
	return "", false
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return s != ""
}
