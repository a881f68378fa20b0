package callgraph

import (
	"path/filepath"

	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
	"github.com/codellm-devkit/codeanalyzer-c/pkg/schema"
)

// Kind dei nodi nel report.
const (
	KindEntry    = "entry"
	KindExternal = "external"
	KindStatic   = "static"
	KindFunction = "function"
)

// Kind classifica un nodo; l'entry point ha la precedenza.
func (g *Graph) Kind(n *Node) string {
	switch {
	case g.IsEntry(n):
		return KindEntry
	case n.IsExternal():
		return KindExternal
	case n.IsStatic():
		return KindStatic
	default:
		return KindFunction
	}
}

// ToSchema converte il grafo nel formato CLDK. I path sono resi relativi a
// root quando possibile.
func (g *Graph) ToSchema(root string) *schema.CLDKCallGraph {
	out := &schema.CLDKCallGraph{
		Entry: g.Entry,
		Nodes: []schema.CLDKCGNode{},
		Edges: []schema.CLDKCGEdge{},
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, schema.CLDKCGNode{
			ID:   n.Name(),
			Name: n.Name(),
			Kind: g.Kind(n),
			File: relFile(root, n.Def),
		})
	}
	for _, e := range g.Edges() {
		from := g.nodes[e.From]
		out.Edges = append(out.Edges, schema.CLDKCGEdge{
			Source:   e.From,
			Target:   e.To,
			Order:    e.Call.Order,
			Context:  e.Call.Context.Kind.String(),
			Label:    e.Label(),
			CallSite: position(relFile(root, from.Def), e.Call),
		})
	}
	return out
}

// Functions converte i nodi raggiungibili in CLDKFunction, stub esterni
// compresi. Il corpo viene incluso solo se withBody.
func (g *Graph) Functions(root string, withBody bool) map[string]*schema.CLDKFunction {
	out := make(map[string]*schema.CLDKFunction, len(g.nodes))
	for name, n := range g.nodes {
		if n.IsExternal() {
			out[name] = &schema.CLDKFunction{
				Name:       name,
				Signature:  name + "()",
				ReturnType: funcdb.ExternReturnType,
				Parameters: []schema.CLDKParameter{},
				External:   true,
				CallSites:  []schema.CLDKCallSite{},
			}
			continue
		}

		sig := n.Def.Signature
		params := make([]schema.CLDKParameter, 0, len(sig.Params))
		for _, p := range sig.Params {
			params = append(params, schema.CLDKParameter{Name: p.Name, Type: p.Type})
		}
		file := relFile(root, n.Def)
		fn := &schema.CLDKFunction{
			Name:       name,
			ReturnType: sig.ReturnType,
			Parameters: params,
			Variadic:   sig.Variadic,
			Static:     n.Def.Static,
			File:       file,
			CallSites:  make([]schema.CLDKCallSite, 0, len(n.Calls)),
		}
		fn.Signature = schema.FormatSignature(name, sig.ReturnType, params, sig.Variadic)
		if n.Def.Static {
			fn.Signature = "static " + fn.Signature
		}
		if withBody {
			fn.Body = n.Def.Body
		}
		for _, c := range n.Calls {
			cs := schema.CLDKCallSite{
				Target:   c.Callee,
				Position: position(file, c),
				Order:    c.Order,
				Context:  c.Context.Kind.String(),
				Depth:    c.Depth,
			}
			if id, ok := c.Context.BranchID(); ok {
				cs.BranchID = id
			}
			if id, ok := c.Context.CaseID(); ok {
				cs.CaseID = id
			}
			fn.CallSites = append(fn.CallSites, cs)
		}
		out[name] = fn
	}
	return out
}

func position(file string, c funcdb.CallInfo) *schema.CLDKPosition {
	if c.Line == 0 {
		return nil
	}
	return &schema.CLDKPosition{File: file, StartLine: c.Line, StartColumn: c.Column}
}

// relFile rende il path della definizione relativo a root.
func relFile(root string, def *funcdb.Definition) string {
	file := def.SourceFile
	if file == "" || file == funcdb.UnknownSource {
		return ""
	}
	if root == "" {
		return file
	}
	if rel, err := filepath.Rel(root, file); err == nil {
		return filepath.ToSlash(rel)
	}
	return file
}
