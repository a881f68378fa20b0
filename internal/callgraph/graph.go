// Package callgraph costruisce il call graph raggiungibile da un entry point
// a partire dal Function Database.
package callgraph

import (
	"sort"
	"strconv"

	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
)

// Node è un nodo del call graph. Def è condivisa con il database; per i
// callee non risolti è uno stub esterno sintetizzato.
type Node struct {
	Def   *funcdb.Definition
	Calls []funcdb.CallInfo
}

// Name ritorna il nome della funzione.
func (n *Node) Name() string { return n.Def.Name() }

// IsExternal è vero per gli stub senza definizione.
func (n *Node) IsExternal() bool { return n.Def.IsExternal() }

// IsStatic è vero per le definizioni interne con storage class static.
func (n *Node) IsStatic() bool { return !n.IsExternal() && n.Def.Static }

// Graph è il call graph: l'entry point e i soli nodi raggiungibili.
type Graph struct {
	Entry string
	nodes map[string]*Node
}

// Edge è una singola chiamata: due chiamate allo stesso callee sono due
// archi distinti.
type Edge struct {
	From string
	To   string
	Call funcdb.CallInfo
}

// Label ritorna l'etichetta dell'arco: "N" oppure "N:<tag>".
func (e Edge) Label() string {
	if tag := e.Call.Context.Tag(); tag != "" {
		return strconv.Itoa(e.Call.Order) + ":" + tag
	}
	return strconv.Itoa(e.Call.Order)
}

// Build visita in ampiezza il database a partire da entry. Le funzioni non
// presenti nel database diventano foglie esterne, entry compreso.
func Build(db *funcdb.Database, entry string) *Graph {
	g := &Graph{Entry: entry, nodes: make(map[string]*Node)}
	visited := map[string]bool{}
	queue := []string{entry}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true

		def, ok := db.Lookup(name)
		if !ok {
			g.nodes[name] = &Node{Def: funcdb.External(name)}
			continue
		}
		for _, c := range def.Calls {
			if !visited[c.Callee] {
				queue = append(queue, c.Callee)
			}
		}
		g.nodes[name] = &Node{Def: def, Calls: def.Calls}
	}
	return g
}

// Node ritorna il nodo con il nome dato.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Has riporta se name è raggiungibile dall'entry point.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// IsEntry riporta se n è l'entry point.
func (g *Graph) IsEntry(n *Node) bool { return n.Name() == g.Entry }

// NodeCount ritorna il numero di nodi.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount ritorna il numero di archi, con molteplicità.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, node := range g.nodes {
		n += len(node.Calls)
	}
	return n
}

// Nodes ritorna i nodi ordinati per nome.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Edges ritorna tutti gli archi ordinati per (from, order).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.EdgeCount())
	for _, n := range g.Nodes() {
		for _, c := range n.Calls {
			out = append(out, Edge{From: n.Name(), To: c.Callee, Call: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From == out[j].From {
			return out[i].Call.Order < out[j].Call.Order
		}
		return out[i].From < out[j].From
	})
	return out
}

// Summary riassume il grafo.
type Summary struct {
	Entry    string
	Nodes    int
	Edges    int
	External int
	Static   int
}

// Summary calcola i conteggi del grafo.
func (g *Graph) Summary() Summary {
	s := Summary{Entry: g.Entry, Nodes: g.NodeCount(), Edges: g.EdgeCount()}
	for _, n := range g.nodes {
		switch {
		case n.IsExternal():
			s.External++
		case n.IsStatic():
			s.Static++
		}
	}
	return s
}
