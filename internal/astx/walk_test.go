package astx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctions_SkipsDeclarations(t *testing.T) {
	unit := Expr(
		Func("proto", nil),
		Func("main", Block(Call("helper"))),
		Expr(Func("helper", Block())),
	)

	fns := Functions(unit)
	require.Len(t, fns, 2)
	assert.Equal(t, "main", fns[0].Name())
	assert.Equal(t, "helper", fns[1].Name())
	assert.NotNil(t, fns[0].Body())
}

func TestInspect_PrunesChildren(t *testing.T) {
	tree := Block(
		Call("a"),
		If(Call("cond"), Block(Call("b")), nil),
	)

	var seen []string
	Inspect(tree, func(n Node) bool {
		if n.Kind() == KindCallExpr {
			seen = append(seen, n.Name())
		}
		return n.Kind() != KindIfStmt
	})
	assert.Equal(t, []string{"a"}, seen)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "SwitchStmt", KindSwitchStmt.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
	assert.True(t, KindDoStmt.IsLoop())
	assert.False(t, KindIfStmt.IsLoop())
}
