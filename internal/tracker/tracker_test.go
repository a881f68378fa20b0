package tracker

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/codellm-devkit/codeanalyzer-c/internal/astx"
	"github.com/codellm-devkit/codeanalyzer-c/internal/funcdb"
)

type call struct {
	Callee string
	Order  int
	Ctx    string
	Depth  int
}

func flatten(calls []funcdb.CallInfo) []call {
	out := make([]call, len(calls))
	for i, c := range calls {
		out[i] = call{Callee: c.Callee, Order: c.Order, Ctx: c.Context.String(), Depth: c.Depth}
	}
	return out
}

func TestTrack_SequentialCalls(t *testing.T) {
	body := Block(
		CallAt("init", 3, 5),
		Expr(CallAt("run", 4, 5, CallAt("config", 4, 9))),
	)

	calls := Track(body)
	require.Len(t, calls, 3)

	want := []call{
		{"init", 1, "sequential", 0},
		{"run", 2, "sequential", 0},
		{"config", 3, "sequential", 0},
	}
	if diff := cmp.Diff(want, flatten(calls)); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, calls[2].Line)
	assert.Equal(t, 9, calls[2].Column)
}

func TestTrack_IfElseBranchesGetDistinctIDs(t *testing.T) {
	body := Block(
		If(Call("check"),
			Block(Call("on_true")),
			Block(Call("on_false")),
		),
		If(Call("again"), Call("second_then"), nil),
	)

	want := []call{
		{"check", 1, "sequential", 0},
		{"on_true", 2, "Conditional{branch_id=1}", 1},
		{"on_false", 3, "Conditional{branch_id=2}", 1},
		{"again", 4, "sequential", 0},
		{"second_then", 5, "Conditional{branch_id=3}", 1},
	}
	if diff := cmp.Diff(want, flatten(Track(body))); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTrack_ElseIfChainNestsConditionals(t *testing.T) {
	// if (a()) x(); else if (b()) y(); else z();
	body := Block(
		If(Call("a"), Call("x"),
			If(Call("b"), Call("y"), Call("z")),
		),
	)

	want := []call{
		{"a", 1, "sequential", 0},
		{"x", 2, "Conditional{branch_id=1}", 1},
		{"b", 3, "Conditional{branch_id=2}", 1},
		{"y", 4, "Conditional{branch_id=3}", 2},
		{"z", 5, "Conditional{branch_id=4}", 2},
	}
	if diff := cmp.Diff(want, flatten(Track(body))); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTrack_LoopsIncludeConditionAndNest(t *testing.T) {
	body := Block(
		While(Call("more"),
			Block(
				Call("step"),
				For(nil, Call("inner_cond"), nil, Block(Call("inner"))),
			),
		),
		Do(Block(Call("once")), Call("again")),
	)

	want := []call{
		{"more", 1, "loop", 1},
		{"step", 2, "loop", 1},
		{"inner_cond", 3, "loop", 2},
		{"inner", 4, "loop", 2},
		{"once", 5, "loop", 1},
		{"again", 6, "loop", 1},
	}
	if diff := cmp.Diff(want, flatten(Track(body))); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTrack_SwitchCases(t *testing.T) {
	body := Block(
		Switch(Call("mode"),
			Block(
				Case(Call("first"), Call("first_more")),
				Case(If(Call("cond"), Call("nested"), nil)),
				Default(Call("fallback")),
			),
		),
	)

	want := []call{
		{"mode", 1, "sequential", 0},
		{"first", 2, "Switch{case_id=1}", 1},
		{"first_more", 3, "Switch{case_id=1}", 1},
		{"cond", 4, "Switch{case_id=2}", 1},
		{"nested", 5, "Conditional{branch_id=1}", 2},
		{"fallback", 6, "Switch{case_id=3}", 1},
	}
	if diff := cmp.Diff(want, flatten(Track(body))); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTrack_UnresolvedCalleeIsDropped(t *testing.T) {
	body := Block(
		Call("before"),
		Call("", Call("arg_call")), // (*fp)(arg_call())
		Call(""),
		Call("after"),
	)

	calls := Track(body)
	want := []call{
		{"before", 1, "sequential", 0},
		{"arg_call", 2, "sequential", 0},
		{"after", 3, "sequential", 0},
	}
	if diff := cmp.Diff(want, flatten(calls)); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestTrack_FunctionPointerOnlyBodyIsEmpty(t *testing.T) {
	assert.Empty(t, Track(Block(Call(""))))
	assert.Empty(t, Track(nil))
}

// Orders are contiguous from 1, depth matches the number of enclosing
// frames, and branch/case ids are never reused.
func TestTrack_Invariants(t *testing.T) {
	body := Block(
		Call("a"),
		If(Call("b"),
			While(Call("c"), Block(
				Switch(Call("d"), Block(
					Case(Call("e")),
					Case(If(Call("f"), Call("g"), Call("h"))),
				)),
			)),
			Do(Call("i"), Call("j")),
		),
		If(Call("k"), Call("l"), Call("m")),
	)

	calls := Track(body)
	require.Len(t, calls, 13)

	seenBranch := map[int]bool{}
	seenCase := map[int]bool{}
	for i, c := range calls {
		assert.Equal(t, i+1, c.Order, "order of %s", c.Callee)
		if id, ok := c.Context.BranchID(); ok {
			seenBranch[id] = true
		}
		if id, ok := c.Context.CaseID(); ok {
			seenCase[id] = true
		}
	}
	// Branches 1 and 4 only hold loops, so their calls carry Loop frames.
	assert.Equal(t, map[int]bool{2: true, 3: true, 5: true, 6: true}, seenBranch)
	assert.Equal(t, map[int]bool{1: true, 2: true}, seenCase)

	depth := map[string]int{}
	for _, c := range calls {
		depth[c.Callee] = c.Depth
	}
	assert.Equal(t, map[string]int{
		"a": 0, "b": 0, "c": 2, "d": 2, "e": 3, "f": 3, "g": 4, "h": 4,
		"i": 2, "j": 2, "k": 0, "l": 1, "m": 1,
	}, depth)
}
