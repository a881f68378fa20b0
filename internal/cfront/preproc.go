package cfront

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type macro struct {
	value    string
	function bool
}

// macros is the preprocessor symbol table of one translation unit.
type macros map[string]macro

func newMacros(defines []string) macros {
	m := macros{}
	for _, d := range defines {
		name, value, ok := strings.Cut(d, "=")
		if !ok {
			value = "1"
		}
		if name = strings.TrimSpace(name); name != "" {
			m[name] = macro{value: strings.TrimSpace(value)}
		}
	}
	return m
}

func (m macros) defined(name string) bool {
	_, ok := m[name]
	return ok
}

// maxExpansion bounds macro-to-macro substitution.
const maxExpansion = 8

// isIdent reports whether s is a C identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// resolveCallee maps a callee identifier through object-like macros. It
// returns "" when the name is a function-like macro or expands to something
// other than a single identifier.
func (m macros) resolveCallee(name string) string {
	for i := 0; i < maxExpansion; i++ {
		mac, ok := m[name]
		if !ok {
			return name
		}
		if mac.function || !isIdent(mac.value) {
			return ""
		}
		name = mac.value
	}
	return ""
}

// directive applies #define, #undef and #include nodes. It reports whether n
// was a directive.
func (cv *converter) directive(n *sitter.Node, s source) bool {
	switch n.Type() {
	case "preproc_def":
		name := content(n.ChildByFieldName("name"), s.src)
		value := ""
		if v := n.ChildByFieldName("value"); v != nil {
			value = strings.TrimSpace(content(v, s.src))
		}
		if name != "" {
			cv.macros[name] = macro{value: value}
		}
	case "preproc_function_def":
		if name := content(n.ChildByFieldName("name"), s.src); name != "" {
			cv.macros[name] = macro{function: true}
		}
	case "preproc_call":
		if strings.TrimSpace(content(n.ChildByFieldName("directive"), s.src)) == "#undef" {
			delete(cv.macros, strings.TrimSpace(content(n.ChildByFieldName("argument"), s.src)))
		}
	case "preproc_include":
		cv.include(n, s)
	default:
		return false
	}
	return true
}

// active returns the items of the branch of a conditional region selected
// by the current macro table. n is one of preproc_if, preproc_ifdef,
// preproc_elif, preproc_elifdef or preproc_else.
func (cv *converter) active(n *sitter.Node, s source) []*sitter.Node {
	var taken bool
	var skip []*sitter.Node
	switch n.Type() {
	case "preproc_else":
		return namedChildren(n)
	case "preproc_if", "preproc_elif":
		cond := n.ChildByFieldName("condition")
		taken = cv.eval(cond, s, 0) != 0
		skip = append(skip, cond)
	case "preproc_ifdef", "preproc_elifdef":
		name := n.ChildByFieldName("name")
		taken = cv.macros.defined(content(name, s.src))
		if d := n.Child(0); d != nil && strings.HasSuffix(d.Type(), "ndef") {
			taken = !taken
		}
		skip = append(skip, name)
	default:
		return nil
	}
	alt := n.ChildByFieldName("alternative")
	if !taken {
		if alt == nil {
			return nil
		}
		return cv.active(alt, s)
	}
	return namedChildren(n, append(skip, alt)...)
}

func isConditional(t string) bool {
	switch t {
	case "preproc_if", "preproc_ifdef", "preproc_elif", "preproc_elifdef", "preproc_else":
		return true
	}
	return false
}

// eval evaluates a #if expression. Undefined identifiers are 0.
func (cv *converter) eval(n *sitter.Node, s source, depth int) int64 {
	if n == nil || depth > maxExpansion {
		return 0
	}
	switch n.Type() {
	case "number_literal":
		return parseNumber(content(n, s.src))
	case "char_literal":
		txt := strings.Trim(content(n, s.src), "'")
		if len(txt) == 1 {
			return int64(txt[0])
		}
		return 0
	case "true":
		return 1
	case "identifier":
		return cv.evalMacro(content(n, s.src), depth)
	case "preproc_defined":
		for _, k := range namedChildren(n) {
			if k.Type() == "identifier" && cv.macros.defined(content(k, s.src)) {
				return 1
			}
		}
		return 0
	case "parenthesized_expression":
		if k := n.NamedChild(0); k != nil {
			return cv.eval(k, s, depth)
		}
		return 0
	case "unary_expression":
		x := cv.eval(n.ChildByFieldName("argument"), s, depth)
		switch operator(n) {
		case "!":
			return b2i(x == 0)
		case "-":
			return -x
		case "~":
			return ^x
		default:
			return x
		}
	case "binary_expression":
		return cv.evalBinary(n, s, depth)
	case "conditional_expression":
		if cv.eval(n.ChildByFieldName("condition"), s, depth) != 0 {
			return cv.eval(n.ChildByFieldName("consequence"), s, depth)
		}
		return cv.eval(n.ChildByFieldName("alternative"), s, depth)
	default:
		return 0
	}
}

func (cv *converter) evalBinary(n *sitter.Node, s source, depth int) int64 {
	op := operator(n)
	l := cv.eval(n.ChildByFieldName("left"), s, depth)
	switch op {
	case "&&":
		if l == 0 {
			return 0
		}
		return b2i(cv.eval(n.ChildByFieldName("right"), s, depth) != 0)
	case "||":
		if l != 0 {
			return 1
		}
		return b2i(cv.eval(n.ChildByFieldName("right"), s, depth) != 0)
	}
	r := cv.eval(n.ChildByFieldName("right"), s, depth)
	switch op {
	case "==":
		return b2i(l == r)
	case "!=":
		return b2i(l != r)
	case "<":
		return b2i(l < r)
	case ">":
		return b2i(l > r)
	case "<=":
		return b2i(l <= r)
	case ">=":
		return b2i(l >= r)
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		if r == 0 {
			return 0
		}
		return l / r
	case "%":
		if r == 0 {
			return 0
		}
		return l % r
	case "<<":
		return l << uint64(r&63)
	case ">>":
		return l >> uint64(r&63)
	case "&":
		return l & r
	case "|":
		return l | r
	case "^":
		return l ^ r
	default:
		return 0
	}
}

// evalMacro evaluates an identifier through the macro table. Values that are
// neither numbers nor identifiers evaluate to 0.
func (cv *converter) evalMacro(name string, depth int) int64 {
	mac, ok := cv.macros[name]
	if !ok || mac.function || depth > maxExpansion {
		return 0
	}
	v := strings.TrimSpace(mac.value)
	if isIdent(v) {
		return cv.evalMacro(v, depth+1)
	}
	return parseNumber(strings.Trim(v, "()"))
}

func parseNumber(txt string) int64 {
	txt = strings.TrimRight(strings.ToLower(strings.TrimSpace(txt)), "ul")
	if txt == "" {
		return 0
	}
	v, err := strconv.ParseInt(txt, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(txt, 0, 64)
		if uerr != nil {
			return 0
		}
		return int64(u)
	}
	return v
}

func operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// include resolves an #include and scans the header for macros, file-scope
// variables and function definitions. Quoted includes are searched next to the including
// file first, then in the -I directories; angle includes only in the -I
// directories. Headers that cannot be found are ignored.
func (cv *converter) include(n *sitter.Node, s source) {
	path := n.ChildByFieldName("path")
	if path == nil {
		return
	}
	var name string
	var dirs []string
	switch path.Type() {
	case "string_literal":
		name = strings.Trim(content(path, s.src), `"`)
		dirs = append([]string{filepath.Dir(s.path)}, cv.flags.IncludeDirs...)
	case "system_lib_string":
		name = strings.Trim(content(path, s.src), "<>")
		dirs = cv.flags.IncludeDirs
	default:
		return
	}
	for _, d := range dirs {
		p := filepath.Join(d, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			cv.header(p)
			return
		}
	}
}

func (cv *converter) header(path string) {
	if cv.err != nil || cv.visited[path] || cv.depth >= cv.options.MaxIncludeDepth {
		return
	}
	if err := cv.ctx.Err(); err != nil {
		cv.err = fmt.Errorf("c parse canceled in %s: %w", path, err)
		return
	}
	cv.visited[path] = true
	src, err := os.ReadFile(path)
	if err != nil {
		cv.err = fmt.Errorf("read include %s: %w", path, err)
		return
	}
	tree, err := cv.parser.ParseCtx(cv.ctx, nil, src)
	if err != nil {
		cv.err = fmt.Errorf("tree-sitter parse failed for %s: %w", path, err)
		return
	}
	defer tree.Close()

	cv.includes = append(cv.includes, path)
	cv.depth++
	tu := cv.tu
	if cv.scopes != nil {
		// #include inside a function body: names only.
		tu = nil
	}
	cv.scan(tree.RootNode(), source{path: path, src: src, header: true}, tu)
	cv.depth--
}
