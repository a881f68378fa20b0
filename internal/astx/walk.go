package astx

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. If f returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range n.Children() {
		Inspect(c, f)
	}
}

// Functions returns every function definition in the tree rooted at n, in
// source order. Declarations without a body are skipped.
func Functions(n Node) []Function {
	var out []Function
	Inspect(n, func(x Node) bool {
		if x.Kind() != KindFunctionDecl {
			return true
		}
		if fn, ok := x.(Function); ok && x.IsDefinition() && x.Name() != "" {
			out = append(out, fn)
		}
		return false
	})
	return out
}
