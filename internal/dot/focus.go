package dot

import (
	"bytes"
	"fmt"
	"io"

	"github.com/codellm-devkit/codeanalyzer-c/internal/callgraph"
	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
)

// Focus serializes the calls of a single function. Each call site becomes
// its own node named call_<order>. Call sites are grouped into one cluster
// per branch, one per case and a single cluster for every loop call;
// sequential calls stay outside any cluster. The function node is then
// chained through all call sites in order.
func Focus(w io.Writer, g *callgraph.Graph, name string, opts Options) error {
	n, ok := g.Node(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	t := opts.theme()
	var b bytes.Buffer
	header(&b, "Focus_"+NodeID(name), t)
	fmt.Fprintf(&b, "    label=\"%s\"; labelloc=t;\n", escape(name))

	root := "fn_" + NodeID(name)
	writeNode(&b, root, t.Node(g, n))

	var (
		clusters []string
		members  = map[string][]funcdb.CallInfo{}
	)
	for _, c := range n.Calls {
		key := clusterKey(c.Context)
		if key == "" {
			writeNode(&b, siteID(c), t.site(g, c))
			continue
		}
		if _, seen := members[key]; !seen {
			clusters = append(clusters, key)
		}
		members[key] = append(members[key], c)
	}
	for _, key := range clusters {
		calls := members[key]
		color := t.Edge(calls[0]).Color
		fmt.Fprintf(&b, "    subgraph cluster_%s {\n", key)
		fmt.Fprintf(&b, "        label=\"%s\"; style=rounded; color=\"%s\";\n", key, color)
		for _, c := range calls {
			b.WriteString("    ")
			writeNode(&b, siteID(c), t.site(g, c))
		}
		b.WriteString("    }\n")
	}

	prev := root
	for _, c := range n.Calls {
		id := siteID(c)
		writeEdge(&b, prev, id, t.Edge(c))
		prev = id
	}
	b.WriteString("}\n")

	_, err := w.Write(b.Bytes())
	return err
}

// clusterKey names the cluster of a context; sequential calls have none.
func clusterKey(ctx funcdb.CallContext) string {
	if ctx.Kind == funcdb.Sequential {
		return ""
	}
	return ctx.Tag()
}

func siteID(c funcdb.CallInfo) string {
	return fmt.Sprintf("call_%d", c.Order)
}

// site styles a call-site node like the callee's node in the full graph.
func (t Theme) site(g *callgraph.Graph, c funcdb.CallInfo) NodeStyle {
	label := fmt.Sprintf("%d: %s", c.Order, escape(c.Callee))
	callee, ok := g.Node(c.Callee)
	if !ok {
		return NodeStyle{Label: label, FillColor: t.External, Style: "filled,dashed"}
	}
	s := t.Node(g, callee)
	s.Label = label
	return s
}
