// Package compdb reads a clang JSON compilation database
// (compile_commands.json) and extracts the flags the C front end needs.
package compdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
)

// FileName is the conventional name of a compilation database.
const FileName = "compile_commands.json"

var (
	// ErrNotFound is returned when no compilation database exists in the
	// searched directories.
	ErrNotFound = errors.New("compilation database not found")
	// ErrNoCommand is returned when a file has no entry in the database.
	ErrNoCommand = errors.New("no compile command for file")
)

// searchDirs are the locations, relative to a project root, probed by Locate.
var searchDirs = []string{".", "build"}

// CompileCommand is one record of the database as written by CMake or bear.
// Exactly one of Arguments and Command is normally set.
type CompileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// Path returns the absolute, cleaned source path of the record.
func (c CompileCommand) Path() string {
	p := c.File
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.Directory, p)
	}
	return filepath.Clean(p)
}

// Args returns the argument vector, splitting Command with shell quoting
// rules when Arguments is empty.
func (c CompileCommand) Args() ([]string, error) {
	if len(c.Arguments) > 0 {
		return c.Arguments, nil
	}
	if strings.TrimSpace(c.Command) == "" {
		return nil, nil
	}
	args, err := shlex.Split(c.Command)
	if err != nil {
		return nil, fmt.Errorf("split command for %s: %w", c.File, err)
	}
	return args, nil
}

// Flags is the subset of a compile command forwarded to the front end.
type Flags struct {
	// Defines holds -D values, in command-line order, as NAME or NAME=VALUE.
	Defines []string
	// IncludeDirs holds absolute -I directories in command-line order.
	IncludeDirs []string
}

// Empty reports whether f carries no flags.
func (f Flags) Empty() bool {
	return len(f.Defines) == 0 && len(f.IncludeDirs) == 0
}

// Args renders f back into joined-form compiler arguments.
func (f Flags) Args() []string {
	out := make([]string, 0, len(f.Defines)+len(f.IncludeDirs))
	for _, d := range f.Defines {
		out = append(out, "-D"+d)
	}
	for _, i := range f.IncludeDirs {
		out = append(out, "-I"+i)
	}
	return out
}

// Flags keeps only -D and -I from the command, accepting both the joined
// (-DFOO) and separate (-D FOO) forms. Relative include directories are
// resolved against the record's working directory.
func (c CompileCommand) Flags() (Flags, error) {
	args, err := c.Args()
	if err != nil {
		return Flags{}, err
	}
	var f Flags
	for i := 0; i < len(args); i++ {
		a := args[i]
		var flag, val string
		switch {
		case a == "-D" || a == "-I":
			if i+1 >= len(args) {
				continue
			}
			flag, val = a, args[i+1]
			i++
		case strings.HasPrefix(a, "-D"), strings.HasPrefix(a, "-I"):
			flag, val = a[:2], a[2:]
		default:
			continue
		}
		if val == "" {
			continue
		}
		if flag == "-D" {
			f.Defines = append(f.Defines, val)
			continue
		}
		if !filepath.IsAbs(val) {
			val = filepath.Join(c.Directory, val)
		}
		f.IncludeDirs = append(f.IncludeDirs, filepath.Clean(val))
	}
	return f, nil
}

// Database is a loaded compilation database.
type Database struct {
	// Path is the file the database was read from.
	Path     string
	Commands []CompileCommand
	byFile   map[string]int
}

// Locate returns the path of the compilation database for a project root,
// checking the root itself and then build/.
func Locate(root string) (string, error) {
	for _, d := range searchDirs {
		p := filepath.Join(root, d, FileName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return filepath.Clean(p), nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNotFound, root)
}

// Load locates and reads the compilation database of a project root.
func Load(root string) (*Database, error) {
	p, err := Locate(root)
	if err != nil {
		return nil, err
	}
	return Read(p)
}

// Read reads a compilation database file.
func Read(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	db, err := parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	db.Path = path
	return db, nil
}

// Parse decodes a compilation database. When a file appears more than once
// the first record wins, matching clang tooling.
func Parse(data []byte) (*Database, error) {
	return parse(data, "")
}

// parse resolves relative record directories against base when base is set.
func parse(data []byte, base string) (*Database, error) {
	var cmds []CompileCommand
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, err
	}
	db := &Database{byFile: make(map[string]int, len(cmds))}
	for _, c := range cmds {
		if c.File == "" {
			continue
		}
		if base != "" && !filepath.IsAbs(c.Directory) {
			c.Directory = filepath.Join(base, c.Directory)
		}
		p := c.Path()
		if _, dup := db.byFile[p]; dup {
			continue
		}
		db.byFile[p] = len(db.Commands)
		db.Commands = append(db.Commands, c)
	}
	return db, nil
}

// Files returns the absolute source paths of the database in record order.
func (db *Database) Files() []string {
	out := make([]string, len(db.Commands))
	for i, c := range db.Commands {
		out[i] = c.Path()
	}
	return out
}

// Lookup returns the compile command of a source file.
func (db *Database) Lookup(file string) (CompileCommand, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return CompileCommand{}, fmt.Errorf("resolve %s: %w", file, err)
	}
	i, ok := db.byFile[filepath.Clean(abs)]
	if !ok {
		return CompileCommand{}, fmt.Errorf("%w: %s", ErrNoCommand, file)
	}
	return db.Commands[i], nil
}
