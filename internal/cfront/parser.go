// Package cfront is a tree-sitter based C front end. It turns one translation
// unit into an astx tree: function definitions with their signatures and
// bodies, and inside bodies the statements the call-context tracker cares
// about.
//
// tree-sitter does not preprocess. The front end compensates where it matters
// for call graphs: conditional regions (#if, #ifdef, #elif, #else) are
// reduced to the branch selected by the -D defines and the #defines seen so
// far, and headers reachable through -I are scanned for macro and variable
// names so that calls to function-like macros and through function-pointer
// variables are not mistaken for function calls.
package cfront

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/codellm-devkit/codeanalyzer-c/internal/astx"
	"github.com/codellm-devkit/codeanalyzer-c/internal/compdb"
)

var (
	// ErrFileTooLarge is returned for sources above Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
	// ErrInvalidContent is returned for sources that are not valid UTF-8.
	ErrInvalidContent = errors.New("file content is not valid UTF-8")
	// ErrTooManyErrors is returned when syntax errors cover more of the
	// active source than Options.MaxErrorRatio allows.
	ErrTooManyErrors = errors.New("too many syntax errors")
)

// Options configures a Parser.
type Options struct {
	// MaxFileSize is the maximum source size in bytes. Default: 10MB
	MaxFileSize int
	// MaxErrorRatio is the largest tolerated share of source bytes inside
	// ERROR nodes. Default: 0.5
	MaxErrorRatio float64
	// MaxIncludeDepth bounds header recursion. Default: 16
	MaxIncludeDepth int
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:     10 * 1024 * 1024,
		MaxErrorRatio:   0.5,
		MaxIncludeDepth: 16,
	}
}

// Option is a functional option for configuring a Parser.
type Option func(*Options)

// WithMaxFileSize sets the maximum source size.
func WithMaxFileSize(size int) Option {
	return func(o *Options) { o.MaxFileSize = size }
}

// WithMaxErrorRatio sets the tolerated syntax-error ratio. Values outside
// (0, 1] keep the default.
func WithMaxErrorRatio(r float64) Option {
	return func(o *Options) {
		if r > 0 && r <= 1 {
			o.MaxErrorRatio = r
		}
	}
}

// WithMaxIncludeDepth sets the header recursion bound.
func WithMaxIncludeDepth(d int) Option {
	return func(o *Options) { o.MaxIncludeDepth = d }
}

// Parser parses C translation units.
//
// Parser is safe for concurrent use: each Parse call creates its own
// tree-sitter parser.
type Parser struct {
	options Options
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...Option) *Parser {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Parser{options: o}
}

// Unit is a parsed translation unit.
type Unit struct {
	File string
	// Root holds the unit's function definitions in source order.
	Root *astx.Element
	// Includes lists the headers that were resolved and scanned.
	Includes []string
	// ErrorRatio is the share of source bytes covered by syntax errors in
	// active regions.
	ErrorRatio float64
}

// Functions returns the function definitions of the unit.
func (u *Unit) Functions() []astx.Function {
	return astx.Functions(u.Root)
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(ctx context.Context, path string, flags compdb.Flags) (*Unit, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() > int64(p.options.MaxFileSize) {
		return nil, fmt.Errorf("%s: %w", path, ErrFileTooLarge)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.Parse(ctx, content, path, flags)
}

// Parse parses content as the translation unit filePath, using the -D and
// -I values of flags.
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string, flags compdb.Flags) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("c parse canceled before start: %w", err)
	}
	if len(content) > p.options.MaxFileSize {
		return nil, fmt.Errorf("%s: %w", filePath, ErrFileTooLarge)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: %w", filePath, ErrInvalidContent)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", filePath, err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("c parse canceled after tree-sitter: %w", err)
	}

	cv := newConverter(ctx, parser, p.options, flags)
	root := cv.translationUnit(tree.RootNode(), source{path: filePath, src: content})
	if cv.err != nil {
		return nil, cv.err
	}

	u := &Unit{
		File:     filePath,
		Root:     root,
		Includes: cv.includes,
	}
	if len(content) > 0 {
		u.ErrorRatio = float64(cv.errBytes) / float64(len(content))
	}
	if u.ErrorRatio > p.options.MaxErrorRatio {
		return nil, fmt.Errorf("%s: %w (%.0f%% of source)", filePath, ErrTooManyErrors, u.ErrorRatio*100)
	}
	return u, nil
}
