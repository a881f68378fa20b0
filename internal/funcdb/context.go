package funcdb

import "fmt"

// ContextKind is the control-flow construct enclosing a call site.
type ContextKind int

const (
	Sequential ContextKind = iota
	Conditional
	Loop
	Switch
)

func (k ContextKind) String() string {
	switch k {
	case Sequential:
		return "sequential"
	case Conditional:
		return "conditional"
	case Loop:
		return "loop"
	case Switch:
		return "switch"
	default:
		return fmt.Sprintf("ContextKind(%d)", int(k))
	}
}

// CallContext is a closed variant: Sequential, Conditional{branch id},
// Loop, Switch{case id}. ID is zero for Sequential and Loop.
type CallContext struct {
	Kind ContextKind
	ID   int
}

// SequentialContext returns the straight-line context.
func SequentialContext() CallContext { return CallContext{Kind: Sequential} }

// ConditionalContext returns the context of an if/else branch.
func ConditionalContext(branchID int) CallContext {
	return CallContext{Kind: Conditional, ID: branchID}
}

// LoopContext returns the context of a loop body. Loops carry no id.
func LoopContext() CallContext { return CallContext{Kind: Loop} }

// SwitchContext returns the context of a case or default body.
func SwitchContext(caseID int) CallContext {
	return CallContext{Kind: Switch, ID: caseID}
}

// BranchID returns the branch id of a Conditional context.
func (c CallContext) BranchID() (int, bool) {
	return c.ID, c.Kind == Conditional
}

// CaseID returns the case id of a Switch context.
func (c CallContext) CaseID() (int, bool) {
	return c.ID, c.Kind == Switch
}

// Tag is the short edge-label suffix: "", "if<N>", "loop" or "case<N>".
func (c CallContext) Tag() string {
	switch c.Kind {
	case Conditional:
		return fmt.Sprintf("if%d", c.ID)
	case Loop:
		return "loop"
	case Switch:
		return fmt.Sprintf("case%d", c.ID)
	default:
		return ""
	}
}

func (c CallContext) String() string {
	switch c.Kind {
	case Conditional:
		return fmt.Sprintf("Conditional{branch_id=%d}", c.ID)
	case Switch:
		return fmt.Sprintf("Switch{case_id=%d}", c.ID)
	default:
		return c.Kind.String()
	}
}

// CallInfo is one named call site inside a function body.
type CallInfo struct {
	// Callee is the function name as written at the call site.
	Callee string
	Line   int
	Column int
	// Order is 1-based and follows depth-first syntax-tree visitation.
	Order   int
	Context CallContext
	// Depth is the number of enclosing Conditional/Loop/Switch frames.
	Depth int
}
