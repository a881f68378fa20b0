package callgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// TopologicalOrder ritorna i nodi in ordine caller-prima-dei-callee, con
// l'entry point per primo. Un arco verso un nodo ancora sullo stack della
// visita chiude un ciclo e viene ignorato.
func (g *Graph) TopologicalOrder() []string {
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var out []string

	var visit func(name string)
	visit = func(name string) {
		if visited[name] || onStack[name] {
			return
		}
		n, ok := g.nodes[name]
		if !ok {
			return
		}
		onStack[name] = true
		for _, c := range n.Calls {
			visit(c.Callee)
		}
		delete(onStack, name)
		visited[name] = true
		out = append(out, name)
	}
	visit(g.Entry)

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Unordered ritorna, ordinati, i nodi raggiungibili assenti da order.
func (g *Graph) Unordered(order []string) []string {
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		seen[name] = true
	}
	var out []string
	for name := range g.nodes {
		if !seen[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Cycles ritorna le componenti fortemente connesse con più di un nodo o con
// un self-loop. Ogni componente è ordinata per nome, e la lista per primo
// elemento.
func (g *Graph) Cycles() [][]string {
	nodes := g.Nodes()
	ids := make(map[string]int64, len(nodes))
	dg := simple.NewDirectedGraph()
	for i, n := range nodes {
		ids[n.Name()] = int64(i)
		dg.AddNode(simple.Node(i))
	}

	selfLoop := map[int64]bool{}
	for _, n := range nodes {
		from := ids[n.Name()]
		for _, c := range n.Calls {
			to, ok := ids[c.Callee]
			if !ok {
				continue
			}
			// simple.DirectedGraph non ammette self-loop
			if to == from {
				selfLoop[from] = true
				continue
			}
			dg.SetEdge(dg.NewEdge(simple.Node(from), simple.Node(to)))
		}
	}

	var out [][]string
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) == 1 && !selfLoop[scc[0].ID()] {
			continue
		}
		names := make([]string, 0, len(scc))
		for _, n := range scc {
			names = append(names, nodes[n.ID()].Name())
		}
		sort.Strings(names)
		out = append(out, names)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
