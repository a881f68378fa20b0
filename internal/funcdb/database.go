// Package funcdb holds parsed C function definitions keyed by name.
package funcdb

import (
	"fmt"
	"path/filepath"
	"sort"
)

// ExternReturnType marks a synthesized stand-in for a function whose
// definition is not available.
const ExternReturnType = "extern"

// UnknownSource is used when a definition has no source file.
const UnknownSource = "<unknown>"

// Parameter is one declared parameter. Name is empty when the declaration
// leaves it unnamed.
type Parameter struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

// Signature describes a function's interface.
type Signature struct {
	Name       string      `json:"name"`
	ReturnType string      `json:"return_type"`
	Params     []Parameter `json:"params"`
	Variadic   bool        `json:"variadic,omitempty"`
}

// Definition is a parsed function definition. A Definition is created once
// per definition in the input and shared by pointer afterwards; it must not
// be modified once added to a Database.
type Definition struct {
	Signature  Signature
	Body       string
	SourceFile string
	Static     bool
	Calls      []CallInfo
}

// Name returns the function name.
func (d *Definition) Name() string { return d.Signature.Name }

// IsExternal reports whether d is a stand-in for an unresolved callee.
func (d *Definition) IsExternal() bool {
	return d.Signature.ReturnType == ExternReturnType
}

// SourceBase returns the base name of the source file, or "?" when unknown.
func (d *Definition) SourceBase() string {
	if d.SourceFile == "" || d.SourceFile == UnknownSource {
		return "?"
	}
	return filepath.Base(d.SourceFile)
}

// External returns a stand-in definition for a callee with no body.
func External(name string) *Definition {
	return &Definition{
		Signature: Signature{Name: name, ReturnType: ExternReturnType},
	}
}

// Resolver chooses between two definitions of the same name during Merge.
// existing is the definition already in the receiver.
type Resolver func(existing, incoming *Definition) *Definition

// KeepFirst keeps the definition already present.
func KeepFirst(existing, _ *Definition) *Definition { return existing }

// KeepLast replaces the existing definition.
func KeepLast(_, incoming *Definition) *Definition { return incoming }

// PreferExternalLinkage keeps a non-static definition over a static one and
// otherwise keeps the existing definition. Two file-local functions with the
// same name in different translation units are distinct in C; only one of
// them can be represented by name.
func PreferExternalLinkage(existing, incoming *Definition) *Definition {
	if existing.Static && !incoming.Static {
		return incoming
	}
	return existing
}

// Database maps function names to definitions. At most one definition is
// stored per name. The zero value is not usable; call New.
type Database struct {
	functions map[string]*Definition
}

// New returns an empty database.
func New() *Database {
	return &Database{functions: make(map[string]*Definition)}
}

// Add stores def, replacing any definition with the same name.
func (db *Database) Add(def *Definition) {
	if def == nil || def.Name() == "" {
		return
	}
	db.functions[def.Name()] = def
}

// Lookup returns the definition of name.
func (db *Database) Lookup(name string) (*Definition, bool) {
	def, ok := db.functions[name]
	return def, ok
}

// Len returns the number of stored definitions.
func (db *Database) Len() int { return len(db.functions) }

// Names returns all function names in sorted order.
func (db *Database) Names() []string {
	names := make([]string, 0, len(db.functions))
	for name := range db.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all definitions sorted by name.
func (db *Database) Definitions() []*Definition {
	names := db.Names()
	out := make([]*Definition, len(names))
	for i, name := range names {
		out[i] = db.functions[name]
	}
	return out
}

// Merge adds every definition of other to db. When both hold a definition
// for the same name, resolve decides which one is kept; a nil resolve keeps
// the incoming one. other is left unchanged.
func (db *Database) Merge(other *Database, resolve Resolver) {
	if other == nil {
		return
	}
	if resolve == nil {
		resolve = KeepLast
	}
	for _, name := range other.Names() {
		incoming := other.functions[name]
		existing, ok := db.functions[name]
		if !ok {
			db.functions[name] = incoming
			continue
		}
		if chosen := resolve(existing, incoming); chosen != nil {
			db.functions[name] = chosen
		}
	}
}

// Merge policy names accepted by ResolverFor.
const (
	PolicyFirst  = "first"
	PolicyLast   = "last"
	PolicyExtern = "extern"
)

// ResolverFor returns the resolver for a merge policy name.
func ResolverFor(policy string) (Resolver, error) {
	switch policy {
	case PolicyFirst:
		return KeepFirst, nil
	case PolicyLast:
		return KeepLast, nil
	case PolicyExtern, "":
		return PreferExternalLinkage, nil
	default:
		return nil, fmt.Errorf("unknown merge policy %q (valid: first, last, extern)", policy)
	}
}
