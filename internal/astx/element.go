package astx

// Element is a concrete, immutable-after-construction Node. The tree-sitter
// front end converts its trees into Elements; tests build them directly with
// the helper constructors below.
type Element struct {
	NodeKind   Kind
	Ident      string
	Definition bool
	Storage    StorageClass
	Loc        Location
	Kids       []Node
	Tokens     string

	// Function declarations only.
	Result     string
	Parameters []Param
	Variadic   bool
	BodyNode   Node
}

var (
	_ Node     = (*Element)(nil)
	_ Function = (*Element)(nil)
)

func (e *Element) Kind() Kind                 { return e.NodeKind }
func (e *Element) Name() string               { return e.Ident }
func (e *Element) IsDefinition() bool         { return e.Definition }
func (e *Element) StorageClass() StorageClass { return e.Storage }
func (e *Element) Location() Location         { return e.Loc }
func (e *Element) Children() []Node           { return e.Kids }
func (e *Element) Text() string               { return e.Tokens }
func (e *Element) ResultType() string         { return e.Result }
func (e *Element) Params() []Param            { return e.Parameters }
func (e *Element) IsVariadic() bool           { return e.Variadic }
func (e *Element) Body() Node                 { return e.BodyNode }

// Call returns a call expression to callee. An empty callee models an
// unresolved target such as a call through a function pointer.
func Call(callee string, args ...Node) *Element {
	return &Element{NodeKind: KindCallExpr, Ident: callee, Kids: args}
}

// CallAt is Call with a source location.
func CallAt(callee string, line, col int, args ...Node) *Element {
	c := Call(callee, args...)
	c.Loc = Location{Line: line, Column: col}
	return c
}

// Block returns a compound statement.
func Block(stmts ...Node) *Element {
	return &Element{NodeKind: KindCompoundStmt, Kids: stmts}
}

// Expr returns an opaque expression or statement wrapping children.
func Expr(kids ...Node) *Element {
	return &Element{NodeKind: KindOther, Kids: kids}
}

// If returns an if statement. els may be nil.
func If(cond, then, els Node) *Element {
	kids := []Node{cond, then}
	if els != nil {
		kids = append(kids, els)
	}
	return &Element{NodeKind: KindIfStmt, Kids: kids}
}

// While returns a while loop.
func While(cond, body Node) *Element {
	return &Element{NodeKind: KindWhileStmt, Kids: []Node{cond, body}}
}

// For returns a for loop; nil clauses are omitted.
func For(init, cond, step, body Node) *Element {
	var kids []Node
	for _, k := range []Node{init, cond, step, body} {
		if k != nil {
			kids = append(kids, k)
		}
	}
	return &Element{NodeKind: KindForStmt, Kids: kids}
}

// Do returns a do-while loop.
func Do(body, cond Node) *Element {
	return &Element{NodeKind: KindDoStmt, Kids: []Node{body, cond}}
}

// Switch returns a switch statement.
func Switch(cond, body Node) *Element {
	return &Element{NodeKind: KindSwitchStmt, Kids: []Node{cond, body}}
}

// Case returns a case label with the statements it governs.
func Case(stmts ...Node) *Element {
	return &Element{NodeKind: KindCaseStmt, Kids: stmts}
}

// Default returns a default label with the statements it governs.
func Default(stmts ...Node) *Element {
	return &Element{NodeKind: KindDefaultStmt, Kids: stmts}
}

// Func returns a function definition with the given body.
func Func(name string, body Node) *Element {
	fn := &Element{
		NodeKind: KindFunctionDecl,
		Ident:    name,
		Result:   "void",
	}
	if body != nil {
		fn.Definition = true
		fn.BodyNode = body
		fn.Kids = []Node{body}
	}
	return fn
}
