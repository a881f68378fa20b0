// Package tracker classifies the call sites of one function body by the
// control-flow construct that encloses them.
package tracker

import (
	"github.com/codellm-devkit/codeanalyzer-c/internal/astx"
	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
)

// Tracker walks one function body. Counters are scoped to the tracker, so a
// new Tracker is needed per function.
type Tracker struct {
	stack  []funcdb.CallContext
	order  int
	branch int
	cases  int
	calls  []funcdb.CallInfo
}

// Track returns the ordered call list of a function body.
func Track(body astx.Node) []funcdb.CallInfo {
	t := &Tracker{}
	t.Visit(body)
	return t.Calls()
}

// Calls returns the calls recorded so far.
func (t *Tracker) Calls() []funcdb.CallInfo {
	return t.calls
}

// Visit walks n and its subtree, recording named call sites.
func (t *Tracker) Visit(n astx.Node) {
	if n == nil {
		return
	}
	switch k := n.Kind(); {
	case k == astx.KindIfStmt:
		t.visitIf(n)
	case k.IsLoop():
		t.push(funcdb.LoopContext())
		t.visitChildren(n)
		t.pop()
	case k == astx.KindCaseStmt || k == astx.KindDefaultStmt:
		t.cases++
		t.push(funcdb.SwitchContext(t.cases))
		t.visitChildren(n)
		t.pop()
	case k == astx.KindCallExpr:
		t.record(n)
		t.visitChildren(n)
	default:
		// Switch statements fall through here: the controlling expression
		// stays in the current context and each case pushes its own frame.
		t.visitChildren(n)
	}
}

// visitIf visits the condition in the current context, then gives each
// present branch its own Conditional frame.
func (t *Tracker) visitIf(n astx.Node) {
	kids := n.Children()
	if len(kids) == 0 {
		return
	}
	t.Visit(kids[0])
	for _, branch := range kids[1:] {
		if branch == nil {
			continue
		}
		t.branch++
		t.push(funcdb.ConditionalContext(t.branch))
		t.Visit(branch)
		t.pop()
	}
}

func (t *Tracker) visitChildren(n astx.Node) {
	for _, c := range n.Children() {
		t.Visit(c)
	}
}

// record appends a CallInfo for n. Unresolved callees are dropped without
// consuming an order number.
func (t *Tracker) record(n astx.Node) {
	name := n.Name()
	if name == "" {
		return
	}
	t.order++
	loc := n.Location()
	t.calls = append(t.calls, funcdb.CallInfo{
		Callee:  name,
		Line:    loc.Line,
		Column:  loc.Column,
		Order:   t.order,
		Context: t.current(),
		Depth:   len(t.stack),
	})
}

func (t *Tracker) current() funcdb.CallContext {
	if len(t.stack) == 0 {
		return funcdb.SequentialContext()
	}
	return t.stack[len(t.stack)-1]
}

func (t *Tracker) push(c funcdb.CallContext) {
	t.stack = append(t.stack, c)
}

func (t *Tracker) pop() {
	t.stack = t.stack[:len(t.stack)-1]
}
