package funcdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func def(name string, static bool, file string) *Definition {
	return &Definition{
		Signature:  Signature{Name: name, ReturnType: "int"},
		SourceFile: file,
		Static:     static,
	}
}

func TestDatabase_AddIsLastWriteWins(t *testing.T) {
	db := New()
	first := def("foo", false, "a.c")
	second := def("foo", false, "b.c")
	db.Add(first)
	db.Add(second)
	db.Add(nil)
	db.Add(&Definition{})

	got, ok := db.Lookup("foo")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, db.Len())

	_, ok = db.Lookup("bar")
	assert.False(t, ok)
}

func TestDatabase_NamesAndDefinitionsAreSorted(t *testing.T) {
	db := New()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		db.Add(def(n, false, n+".c"))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, db.Names())

	defs := db.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].Name())
	assert.Equal(t, "zeta", defs[2].Name())
}

func TestDatabase_Merge(t *testing.T) {
	tests := []struct {
		name     string
		resolve  Resolver
		existing *Definition
		incoming *Definition
		wantFile string
	}{
		{"nil resolver keeps incoming", nil, def("f", false, "a.c"), def("f", false, "b.c"), "b.c"},
		{"keep first", KeepFirst, def("f", false, "a.c"), def("f", false, "b.c"), "a.c"},
		{"keep last", KeepLast, def("f", false, "a.c"), def("f", false, "b.c"), "b.c"},
		{"extern beats static", PreferExternalLinkage, def("f", true, "a.c"), def("f", false, "b.c"), "b.c"},
		{"static never replaces extern", PreferExternalLinkage, def("f", false, "a.c"), def("f", true, "b.c"), "a.c"},
		{"tie keeps existing", PreferExternalLinkage, def("f", true, "a.c"), def("f", true, "b.c"), "a.c"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := New()
			db.Add(tc.existing)
			db.Add(def("only_left", false, "a.c"))

			other := New()
			other.Add(tc.incoming)
			other.Add(def("only_right", false, "b.c"))

			db.Merge(other, tc.resolve)

			got, ok := db.Lookup("f")
			require.True(t, ok)
			assert.Equal(t, tc.wantFile, got.SourceFile)
			assert.Equal(t, []string{"f", "only_left", "only_right"}, db.Names())
			assert.Equal(t, 2, other.Len(), "merge must not modify its argument")
		})
	}
}

func TestDatabase_MergeSharesDefinitions(t *testing.T) {
	shared := def("g", false, "g.c")
	other := New()
	other.Add(shared)

	db := New()
	db.Merge(other, nil)
	got, _ := db.Lookup("g")
	assert.Same(t, shared, got)

	db.Merge(nil, nil)
	assert.Equal(t, 1, db.Len())
}

func TestResolverFor(t *testing.T) {
	for _, p := range []string{PolicyFirst, PolicyLast, PolicyExtern, ""} {
		r, err := ResolverFor(p)
		require.NoError(t, err, p)
		assert.NotNil(t, r)
	}
	_, err := ResolverFor("random")
	assert.ErrorContains(t, err, "unknown merge policy")
}

func TestDefinition_ExternalAndSourceBase(t *testing.T) {
	ext := External("printf")
	assert.True(t, ext.IsExternal())
	assert.Empty(t, ext.Calls)
	assert.Empty(t, ext.Body)
	assert.False(t, ext.Static)
	assert.Equal(t, "?", ext.SourceBase())

	d := def("main", false, "/src/app/main.c")
	assert.False(t, d.IsExternal())
	assert.Equal(t, "main.c", d.SourceBase())
	assert.Equal(t, "?", def("x", false, UnknownSource).SourceBase())
}

func TestCallContext_Tags(t *testing.T) {
	assert.Equal(t, "", SequentialContext().Tag())
	assert.Equal(t, "if3", ConditionalContext(3).Tag())
	assert.Equal(t, "loop", LoopContext().Tag())
	assert.Equal(t, "case2", SwitchContext(2).Tag())

	id, ok := ConditionalContext(7).BranchID()
	assert.True(t, ok)
	assert.Equal(t, 7, id)
	_, ok = LoopContext().CaseID()
	assert.False(t, ok)

	assert.Equal(t, "Switch{case_id=4}", SwitchContext(4).String())
	assert.Equal(t, "loop", LoopContext().String())
}
