// Package astx defines the syntax tree surface the analyzer consumes from a C
// front end.
//
// The call-context tracker and the definition extractor only see this
// interface. Package cfront implements it on top of tree-sitter; Element
// builds trees by hand in tests.
package astx

import "fmt"

// Kind classifies a syntax node.
type Kind int

const (
	KindOther Kind = iota
	KindFunctionDecl
	KindCallExpr
	KindIfStmt
	KindWhileStmt
	KindForStmt
	KindDoStmt
	KindSwitchStmt
	KindCaseStmt
	KindDefaultStmt
	KindCompoundStmt
)

var kindNames = [...]string{
	KindOther:        "Other",
	KindFunctionDecl: "FunctionDecl",
	KindCallExpr:     "CallExpr",
	KindIfStmt:       "IfStmt",
	KindWhileStmt:    "WhileStmt",
	KindForStmt:      "ForStmt",
	KindDoStmt:       "DoStmt",
	KindSwitchStmt:   "SwitchStmt",
	KindCaseStmt:     "CaseStmt",
	KindDefaultStmt:  "DefaultStmt",
	KindCompoundStmt: "CompoundStmt",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsLoop reports whether k is a while, for or do-while statement.
func (k Kind) IsLoop() bool {
	return k == KindWhileStmt || k == KindForStmt || k == KindDoStmt
}

// StorageClass is the storage class of a declaration.
type StorageClass int

const (
	StorageNone StorageClass = iota
	StorageAuto
	StorageRegister
	StorageStatic
	StorageExtern
)

func (s StorageClass) String() string {
	switch s {
	case StorageAuto:
		return "auto"
	case StorageRegister:
		return "register"
	case StorageStatic:
		return "static"
	case StorageExtern:
		return "extern"
	default:
		return "none"
	}
}

// Location is a position in a source file. Line and Column are 1-based.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Node is one node of a translation unit's syntax tree.
//
// Children ordering contract for structured statements:
//   - KindIfStmt: condition, then-branch, optional else-branch.
//   - KindSwitchStmt: controlling expression, body.
//   - KindWhileStmt, KindForStmt, KindDoStmt, KindCaseStmt, KindDefaultStmt:
//     any order, all children belong to the construct.
//
// Name returns the declared name for KindFunctionDecl and the resolved callee
// name for KindCallExpr. A call whose callee does not resolve to a function
// (function pointers, struct members, macros) returns "".
type Node interface {
	Kind() Kind
	Name() string
	IsDefinition() bool
	StorageClass() StorageClass
	Location() Location
	Children() []Node
	// Text returns the node's tokens joined by single spaces.
	Text() string
}

// Param is one declared function parameter. Name is empty for unnamed
// parameters.
type Param struct {
	Name string
	Type string
}

// Function is implemented by KindFunctionDecl nodes.
type Function interface {
	Node
	ResultType() string
	Params() []Param
	IsVariadic() bool
	// Body returns the function body, or nil for a declaration.
	Body() Node
}
