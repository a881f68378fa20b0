package cfront

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codellm-devkit/codeanalyzer-c/internal/astx"
	"github.com/codellm-devkit/codeanalyzer-c/internal/compdb"
)

// source is the file a tree was parsed from.
type source struct {
	path   string
	src    []byte
	header bool
}

// converter turns tree-sitter trees into astx Elements. It walks in document
// order so that #define, #undef and #include take effect where they appear.
type converter struct {
	ctx     context.Context
	parser  *sitter.Parser
	options Options
	flags   compdb.Flags

	macros  macros
	globals map[string]bool
	// scopes holds the block scopes of the current function, innermost
	// last. The first scope holds the parameters and the body's outer block.
	scopes []map[string]bool
	tu     *astx.Element

	visited  map[string]bool
	includes []string
	depth    int

	errBytes uint32
	inError  bool
	err      error
}

func newConverter(ctx context.Context, parser *sitter.Parser, opts Options, flags compdb.Flags) *converter {
	return &converter{
		ctx:     ctx,
		parser:  parser,
		options: opts,
		flags:   flags,
		macros:  newMacros(flags.Defines),
		globals: map[string]bool{},
		visited: map[string]bool{},
	}
}

func (cv *converter) translationUnit(root *sitter.Node, s source) *astx.Element {
	cv.visited[s.path] = true
	tu := &astx.Element{Loc: astx.Location{File: s.path, Line: 1, Column: 1}}
	cv.tu = tu
	cv.scan(root, s, tu)
	return tu
}

// scan walks file-scope items. Function definitions, including those of
// included headers, are appended to tu; a nil tu only collects names.
func (cv *converter) scan(n *sitter.Node, s source, tu *astx.Element) {
	if n == nil || cv.err != nil {
		return
	}
	if cv.directive(n, s) {
		return
	}
	switch t := n.Type(); {
	case t == "function_definition":
		if tu != nil {
			if fn := cv.function(n, s); fn != nil {
				tu.Kids = append(tu.Kids, fn)
			}
		}
	case t == "declaration":
		for _, name := range variableNames(n, s.src) {
			cv.globals[name] = true
		}
	case isConditional(t):
		for _, k := range cv.active(n, s) {
			cv.scan(k, s, tu)
		}
	case t == "ERROR":
		outer := cv.enterError(n, s)
		for _, k := range namedChildren(n) {
			cv.scan(k, s, tu)
		}
		cv.inError = outer
	case t == "translation_unit", t == "linkage_specification", t == "declaration_list":
		for _, k := range namedChildren(n) {
			cv.scan(k, s, tu)
		}
	}
}

// enterError counts the bytes of an outermost ERROR node of the main file
// and returns the previous nesting state.
func (cv *converter) enterError(n *sitter.Node, s source) bool {
	outer := cv.inError
	if !outer && !s.header {
		cv.errBytes += n.EndByte() - n.StartByte()
	}
	cv.inError = true
	return outer
}

// function converts a function_definition. It returns nil when no name can
// be found in the declarator.
func (cv *converter) function(n *sitter.Node, s source) *astx.Element {
	decl := n.ChildByFieldName("declarator")
	fd := funcDeclarator(decl)
	if fd == nil {
		return nil
	}
	nameNode := fd.ChildByFieldName("declarator")
	fn := &astx.Element{
		NodeKind:   astx.KindFunctionDecl,
		Ident:      content(nameNode, s.src),
		Definition: true,
		Storage:    storageClass(n, s.src),
		Loc:        location(nameNode, s.path),
		Result:     resultType(n, decl, s.src),
	}
	fn.Parameters, fn.Variadic = parameters(fd.ChildByFieldName("parameters"), s.src)

	cv.scopes = []map[string]bool{{}}
	for _, p := range fn.Parameters {
		cv.declare(p.Name)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		block := &astx.Element{
			NodeKind: astx.KindCompoundStmt,
			Loc:      location(body, s.path),
			Kids:     cv.stmts(namedChildren(body), s),
			Tokens:   bodyText(body, s.src),
		}
		fn.BodyNode = block
		fn.Kids = []astx.Node{block}
	}
	cv.scopes = nil
	return fn
}

func (cv *converter) pushScope() { cv.scopes = append(cv.scopes, map[string]bool{}) }

func (cv *converter) popScope() {
	if len(cv.scopes) > 0 {
		cv.scopes = cv.scopes[:len(cv.scopes)-1]
	}
}

func (cv *converter) declare(name string) {
	if name == "" || len(cv.scopes) == 0 {
		return
	}
	cv.scopes[len(cv.scopes)-1][name] = true
}

// local reports whether name is a variable in any open scope.
func (cv *converter) local(name string) bool {
	for i := len(cv.scopes) - 1; i >= 0; i-- {
		if cv.scopes[i][name] {
			return true
		}
	}
	return false
}

func (cv *converter) stmts(ns []*sitter.Node, s source) []astx.Node {
	var out []astx.Node
	for _, n := range ns {
		out = append(out, cv.stmt(n, s)...)
	}
	return out
}

// group wraps converted nodes so that structured statements always have a
// child in each slot.
func group(ns []astx.Node, at astx.Location) astx.Node {
	if len(ns) == 1 {
		return ns[0]
	}
	return &astx.Element{NodeKind: astx.KindOther, Loc: at, Kids: ns}
}

var loopKinds = map[string]astx.Kind{
	"while_statement": astx.KindWhileStmt,
	"for_statement":   astx.KindForStmt,
	"do_statement":    astx.KindDoStmt,
}

// stmt converts a node inside a function body. Wrappers that carry no
// control-flow meaning are flattened into their children.
func (cv *converter) stmt(n *sitter.Node, s source) []astx.Node {
	if n == nil || cv.directive(n, s) {
		return nil
	}
	loc := location(n, s.path)
	switch t := n.Type(); {
	case t == "comment":
		return nil
	case t == "compound_statement":
		cv.pushScope()
		defer cv.popScope()
		return []astx.Node{&astx.Element{NodeKind: astx.KindCompoundStmt, Loc: loc, Kids: cv.stmts(namedChildren(n), s)}}
	case t == "if_statement":
		kids := []astx.Node{
			group(cv.stmt(n.ChildByFieldName("condition"), s), loc),
			group(cv.stmt(n.ChildByFieldName("consequence"), s), loc),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			if alt.Type() == "else_clause" {
				kids = append(kids, group(cv.stmts(namedChildren(alt), s), location(alt, s.path)))
			} else {
				kids = append(kids, group(cv.stmt(alt, s), location(alt, s.path)))
			}
		}
		return []astx.Node{&astx.Element{NodeKind: astx.KindIfStmt, Loc: loc, Kids: kids}}
	case t == "while_statement", t == "for_statement", t == "do_statement":
		// for-init declarations live until the end of the loop.
		cv.pushScope()
		defer cv.popScope()
		return []astx.Node{&astx.Element{NodeKind: loopKinds[t], Loc: loc, Kids: cv.stmts(namedChildren(n), s)}}
	case t == "switch_statement":
		return []astx.Node{&astx.Element{
			NodeKind: astx.KindSwitchStmt,
			Loc:      loc,
			Kids: []astx.Node{
				group(cv.stmt(n.ChildByFieldName("condition"), s), loc),
				group(cv.stmt(n.ChildByFieldName("body"), s), loc),
			},
		}}
	case t == "case_statement":
		kind := astx.KindCaseStmt
		if first := n.Child(0); first != nil && first.Type() == "default" {
			kind = astx.KindDefaultStmt
		}
		body := namedChildren(n, n.ChildByFieldName("value"))
		return []astx.Node{&astx.Element{NodeKind: kind, Loc: loc, Kids: cv.stmts(body, s)}}
	case t == "call_expression":
		return []astx.Node{cv.call(n, s)}
	case t == "declaration":
		// Initializers are converted before the names come into scope.
		out := cv.stmts(namedChildren(n), s)
		for _, name := range variableNames(n, s.src) {
			cv.declare(name)
		}
		return out
	case isConditional(t):
		return cv.stmts(cv.active(n, s), s)
	case t == "ERROR":
		outer := cv.enterError(n, s)
		out := cv.stmts(namedChildren(n), s)
		cv.inError = outer
		return out
	default:
		return cv.stmts(namedChildren(n), s)
	}
}

// call converts a call_expression. The callee resolves to a name only when
// it is a plain identifier that is not a variable in scope and does not
// expand to a function-like macro.
func (cv *converter) call(n *sitter.Node, s source) astx.Node {
	callee := n.ChildByFieldName("function")
	e := &astx.Element{NodeKind: astx.KindCallExpr, Loc: location(n, s.path)}
	if callee != nil && callee.Type() == "identifier" {
		e.Ident = cv.resolve(content(callee, s.src))
	} else {
		e.Kids = cv.stmt(callee, s)
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		e.Kids = append(e.Kids, cv.stmts(namedChildren(args), s)...)
	}
	return e
}

func (cv *converter) resolve(name string) string {
	name = cv.macros.resolveCallee(name)
	if name == "" || cv.local(name) || cv.globals[name] {
		return ""
	}
	return name
}

// funcDeclarator finds the function_declarator that declares a function
// name, looking through pointer and parenthesized declarators. It returns
// nil for declarators of function-pointer variables.
func funcDeclarator(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			inner := d.ChildByFieldName("declarator")
			if inner != nil && inner.Type() == "identifier" {
				return d
			}
			d = inner
		case "pointer_declarator", "init_declarator":
			d = d.ChildByFieldName("declarator")
		case "parenthesized_declarator", "attributed_declarator":
			d = d.NamedChild(0)
		default:
			return nil
		}
	}
	return nil
}

// declaredName returns the identifier introduced by a declarator, and
// whether the declarator declares a function rather than an object.
func declaredName(d *sitter.Node, src []byte) (string, bool) {
	if funcDeclarator(d) != nil {
		return "", true
	}
	for d != nil {
		switch d.Type() {
		case "identifier":
			return content(d, src), false
		case "pointer_declarator", "init_declarator", "array_declarator", "function_declarator":
			d = d.ChildByFieldName("declarator")
		case "parenthesized_declarator", "attributed_declarator":
			d = d.NamedChild(0)
		default:
			return "", false
		}
	}
	return "", false
}

// variableNames returns the object names declared by a declaration;
// function prototypes are skipped.
func variableNames(n *sitter.Node, src []byte) []string {
	var names []string
	typ := n.ChildByFieldName("type")
	for _, k := range namedChildren(n, typ) {
		switch k.Type() {
		case "identifier", "init_declarator", "pointer_declarator", "array_declarator",
			"function_declarator", "parenthesized_declarator", "attributed_declarator":
			if name, isFunc := declaredName(k, src); !isFunc && name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// storageClass reports static or extern linkage from the specifiers of a
// definition.
func storageClass(n *sitter.Node, src []byte) astx.StorageClass {
	sc := astx.StorageNone
	for _, k := range namedChildren(n) {
		if k.Type() != "storage_class_specifier" {
			continue
		}
		switch content(k, src) {
		case "static":
			return astx.StorageStatic
		case "extern":
			sc = astx.StorageExtern
		}
	}
	return sc
}

// resultType spells the return type: qualifiers and type specifier as
// written, followed by one '*' per pointer declarator around the name.
func resultType(n, decl *sitter.Node, src []byte) string {
	var parts []string
	for i := 0; i < int(n.ChildCount()); i++ {
		k := n.Child(i)
		if k == nil || sameNode(k, decl) {
			break
		}
		switch t := k.Type(); {
		case t == "storage_class_specifier", t == "comment",
			strings.HasPrefix(t, "attribute"), strings.HasPrefix(t, "ms_"):
			continue
		}
		parts = append(parts, content(k, src))
	}
	stars := 0
	for d := decl; d != nil && d.Type() == "pointer_declarator"; d = d.ChildByFieldName("declarator") {
		stars++
	}
	rt := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if rt == "" {
		rt = "int"
	}
	if stars > 0 {
		rt += " " + strings.Repeat("*", stars)
	}
	return rt
}

// parameters converts a parameter_list. "(void)" yields no parameters.
func parameters(list *sitter.Node, src []byte) ([]astx.Param, bool) {
	if list == nil {
		return nil, false
	}
	var params []astx.Param
	variadic := false
	for i := 0; i < int(list.ChildCount()); i++ {
		k := list.Child(i)
		if k == nil {
			continue
		}
		switch k.Type() {
		case "variadic_parameter", "...":
			variadic = true
		case "parameter_declaration":
			d := k.ChildByFieldName("declarator")
			name, _ := declaredName(d, src)
			if name == "" && d != nil {
				// Function-pointer parameters: int (*cb)(int).
				name = firstIdentifier(d, src)
			}
			params = append(params, astx.Param{Name: name, Type: typeText(k, name, d, src)})
		}
	}
	if len(params) == 1 && params[0].Name == "" && params[0].Type == "void" {
		params = nil
	}
	return params, variadic
}

// typeText spells a parameter's type by removing its name from the
// declaration text.
func typeText(p *sitter.Node, name string, d *sitter.Node, src []byte) string {
	txt := content(p, src)
	if name != "" && d != nil {
		if id := findIdentifier(d, name, src); id != nil {
			start := id.StartByte() - p.StartByte()
			end := id.EndByte() - p.StartByte()
			txt = txt[:start] + txt[end:]
		}
	}
	txt = strings.Join(strings.Fields(txt), " ")
	txt = strings.ReplaceAll(txt, "* )", "*)")
	txt = strings.ReplaceAll(txt, "( *", "(*")
	return strings.TrimSpace(txt)
}

func firstIdentifier(n *sitter.Node, src []byte) string {
	if n.Type() == "identifier" {
		return content(n, src)
	}
	for _, k := range namedChildren(n) {
		if k.Type() == "parameter_list" {
			continue
		}
		if name := firstIdentifier(k, src); name != "" {
			return name
		}
	}
	return ""
}

func findIdentifier(n *sitter.Node, name string, src []byte) *sitter.Node {
	if n.Type() == "identifier" && content(n, src) == name {
		return n
	}
	for _, k := range namedChildren(n) {
		if k.Type() == "parameter_list" {
			continue
		}
		if id := findIdentifier(k, name, src); id != nil {
			return id
		}
	}
	return nil
}

// atomicTokens are nodes whose children are pieces of a single token.
var atomicTokens = map[string]bool{
	"string_literal": true,
	"char_literal":   true,
}

// bodyText returns the tokens of a function body joined by single spaces.
// Comments are not tokens.
func bodyText(body *sitter.Node, src []byte) string {
	var toks []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "comment" {
			return
		}
		if n.ChildCount() == 0 || atomicTokens[n.Type()] {
			if tok := strings.TrimSpace(content(n, src)); tok != "" {
				toks = append(toks, tok)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if k := n.Child(i); k != nil {
				walk(k)
			}
		}
	}
	walk(body)
	return strings.Join(toks, " ")
}

// namedChildren returns the named children of n except those equal to one of
// skip.
func namedChildren(n *sitter.Node, skip ...*sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
next:
	for i := 0; i < int(n.NamedChildCount()); i++ {
		k := n.NamedChild(i)
		if k == nil {
			continue
		}
		for _, sk := range skip {
			if sameNode(k, sk) {
				continue next
			}
		}
		out = append(out, k)
	}
	return out
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil &&
		a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func content(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

func location(n *sitter.Node, file string) astx.Location {
	if n == nil {
		return astx.Location{File: file}
	}
	p := n.StartPoint()
	return astx.Location{File: file, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}
