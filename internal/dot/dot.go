// Package dot serializes call graphs to Graphviz DOT text.
package dot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/codellm-devkit/codeanalyzer-c/internal/callgraph"
	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
)

// GraphName is the name of the full call graph.
const GraphName = "CallGraph"

// ErrUnknownFunction is returned by Focus for a name outside the graph.
var ErrUnknownFunction = errors.New("function not in call graph")

// Theme holds the colors and layout settings of the rendered graph.
type Theme struct {
	FontName string
	NodeSep  float64
	RankSep  float64

	Entry    string
	External string
	Static   string
	Internal string

	Sequential  string
	Conditional string
	Loop        string
	Switch      string
}

// DefaultTheme returns the stock palette.
func DefaultTheme() Theme {
	return Theme{
		FontName:    "Helvetica",
		NodeSep:     0.8,
		RankSep:     0.8,
		Entry:       "#90EE90",
		External:    "#D3D3D3",
		Static:      "#FFFACD",
		Internal:    "#E6F3FF",
		Sequential:  "#333333",
		Conditional: "#FF6B6B",
		Loop:        "#4ECDC4",
		Switch:      "#9B59B6",
	}
}

// Options configures serialization. A zero Theme means DefaultTheme.
type Options struct {
	Theme Theme
}

func (o Options) theme() Theme {
	if o.Theme == (Theme{}) {
		return DefaultTheme()
	}
	return o.Theme
}

// NodeStyle is the rendering of one node.
type NodeStyle struct {
	Label     string // already escaped for a quoted DOT string
	FillColor string
	Style     string
}

// EdgeStyle is the rendering of one call edge. Style is empty for solid
// edges.
type EdgeStyle struct {
	Label string
	Color string
	Style string
}

// Node styles n. The entry point takes precedence over the external and
// static classifications.
func (t Theme) Node(g *callgraph.Graph, n *callgraph.Node) NodeStyle {
	var s NodeStyle
	if n.IsExternal() {
		s.Label = escape(n.Name()) + `\n(external)`
	} else {
		s.Label = escape(n.Name()) + `\n` + escape(n.Def.SourceBase())
	}
	switch {
	case g.IsEntry(n):
		s.FillColor, s.Style = t.Entry, "filled"
	case n.IsExternal():
		s.FillColor, s.Style = t.External, "filled,dashed"
	case n.IsStatic():
		s.FillColor, s.Style = t.Static, "filled"
	default:
		s.FillColor, s.Style = t.Internal, "filled"
	}
	return s
}

// Edge styles a call by its context.
func (t Theme) Edge(c funcdb.CallInfo) EdgeStyle {
	s := EdgeStyle{Label: strconv.Itoa(c.Order)}
	if tag := c.Context.Tag(); tag != "" {
		s.Label += ":" + tag
	}
	switch c.Context.Kind {
	case funcdb.Conditional:
		s.Color, s.Style = t.Conditional, "dashed"
	case funcdb.Loop:
		s.Color, s.Style = t.Loop, "bold"
	case funcdb.Switch:
		s.Color = t.Switch
	default:
		s.Color = t.Sequential
	}
	return s
}

// NodeID turns a function name into a DOT identifier: every character that
// is not a letter, digit or underscore becomes an underscore.
func NodeID(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}

// keywords are the reserved words of the DOT language, matched without
// regard to case.
var keywords = map[string]bool{
	"node": true, "edge": true, "graph": true,
	"digraph": true, "subgraph": true, "strict": true,
}

// ref returns the statement form of a node id: keywords are quoted.
func ref(id string) string {
	if keywords[strings.ToLower(id)] {
		return `"` + id + `"`
	}
	return id
}

// Write serializes the whole graph. Nodes are sorted by name and edges by
// (caller, order), so the output is deterministic.
func Write(w io.Writer, g *callgraph.Graph, opts Options) error {
	t := opts.theme()
	var b bytes.Buffer
	header(&b, GraphName, t)

	for _, n := range g.Nodes() {
		writeNode(&b, ref(NodeID(n.Name())), t.Node(g, n))
	}
	for _, e := range g.Edges() {
		writeEdge(&b, ref(NodeID(e.From)), ref(NodeID(e.To)), t.Edge(e.Call))
	}
	b.WriteString("}\n")

	_, err := w.Write(b.Bytes())
	return err
}

// String returns the serialized graph.
func String(g *callgraph.Graph, opts Options) string {
	var b strings.Builder
	_ = Write(&b, g, opts)
	return b.String()
}

func header(b *bytes.Buffer, name string, t Theme) {
	fmt.Fprintf(b, "digraph %s {\n", name)
	fmt.Fprintf(b, "    rankdir=TB; splines=ortho; nodesep=%s; ranksep=%s; fontname=%q;\n",
		num(t.NodeSep), num(t.RankSep), t.FontName)
	fmt.Fprintf(b, "    node [shape=box, fontname=%q, fontsize=10];\n", t.FontName)
	b.WriteString("    edge [fontsize=8];\n")
}

func writeNode(b *bytes.Buffer, id string, s NodeStyle) {
	fmt.Fprintf(b, "    %s [label=\"%s\", fillcolor=\"%s\", style=%s];\n", id, s.Label, s.FillColor, attr(s.Style))
}

func writeEdge(b *bytes.Buffer, from, to string, s EdgeStyle) {
	fmt.Fprintf(b, "    %s -> %s [label=\"%s\", color=\"%s\"", from, to, s.Label, s.Color)
	if s.Style != "" {
		fmt.Fprintf(b, ", style=%s", attr(s.Style))
	}
	b.WriteString("];\n")
}

// attr quotes a value only when it is not a bare DOT identifier.
func attr(v string) string {
	if v != "" && NodeID(v) == v {
		return v
	}
	return `"` + escape(v) + `"`
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const idPattern = `(?:[\p{L}\p{N}_]+|"(?:[^"\\]|\\.)*")`

var (
	nodeDecl = regexp.MustCompile(`^(` + idPattern + `) \[`)
	edgeDecl = regexp.MustCompile(`^` + idPattern + ` -> ` + idPattern + ` \[`)
)

// Count returns the number of node and edge declaration lines in DOT text.
// Default attribute statements (node, edge, graph) are not counted; quoted
// ids always are.
func Count(text string) (nodes, edges int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case edgeDecl.MatchString(line):
			edges++
		case nodeDecl.MatchString(line):
			if !keywords[strings.ToLower(nodeDecl.FindStringSubmatch(line)[1])] {
				nodes++
			}
		}
	}
	return nodes, edges
}
