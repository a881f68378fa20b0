package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSignature(t *testing.T) {
	tests := []struct {
		name     string
		ret      string
		params   []CLDKParameter
		variadic bool
		want     string
	}{
		{"main", "int", nil, false, "int main(void)"},
		{"sum", "int", []CLDKParameter{{Name: "n", Type: "int"}}, true, "int sum(int n, ...)"},
		{"name_of", "const char *", []CLDKParameter{{Name: "id", Type: "int"}}, false, "const char *name_of(int id)"},
		{"put", "void", []CLDKParameter{{Name: "s", Type: "char *"}, {Type: "int"}}, false, "void put(char *s, int)"},
		{"run", "int", []CLDKParameter{{Name: "cb", Type: "void (*)(int)"}}, false, "int run(void (*cb)(int))"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatSignature(tc.name, tc.ret, tc.params, tc.variadic))
		})
	}
}

func TestCallLabel(t *testing.T) {
	assert.Equal(t, "1", CallLabel(1, "sequential", 0, 0))
	assert.Equal(t, "2:if3", CallLabel(2, "conditional", 3, 0))
	assert.Equal(t, "4:loop", CallLabel(4, "loop", 0, 0))
	assert.Equal(t, "5:case1", CallLabel(5, "switch", 0, 1))
}

func TestToCompact(t *testing.T) {
	full := &CLDKAnalysis{
		Metadata: Metadata{Version: "1.0.0", Language: "c", EntryPoint: "main", AnalysisDurationMs: 12},
		Functions: map[string]*CLDKFunction{
			"main": {
				Name: "main", Signature: "int main(void)", File: "/src/main.c",
				CallSites: []CLDKCallSite{
					{Target: "helper", Order: 1, Context: "sequential"},
					{Target: "printf", Order: 2, Context: "conditional", BranchID: 1},
				},
			},
			"helper": {Name: "helper", Signature: "static void helper(void)", Static: true, File: "/src/util.c"},
			"printf": {Name: "printf", Signature: "printf()", External: true},
		},
		CallGraph: &CLDKCallGraph{
			Entry: "main",
			Edges: []CLDKCGEdge{
				{Source: "main", Target: "helper", Label: "1"},
				{Source: "main", Target: "printf", Label: "2:if1"},
			},
		},
		Issues: []Issue{Warning(CodeParseSkipped, "/src/bad.c", "skipped")},
	}

	c := ToCompact(full)
	assert.Equal(t, "main", c.Meta.Entry)
	assert.Equal(t, int64(12), c.Meta.Dur)
	assert.Equal(t, []string{}, c.Order)

	require.Contains(t, c.Funcs, "main")
	assert.Equal(t, "main.c", c.Funcs["main"].File)
	assert.Equal(t, []string{"helper@1", "printf@2:if1"}, c.Funcs["main"].Calls)
	assert.Equal(t, "s", c.Funcs["helper"].Kind)
	assert.Equal(t, "x", c.Funcs["printf"].Kind)
	assert.Empty(t, c.Funcs["main"].Kind)

	require.NotNil(t, c.CG)
	assert.Equal(t, [][3]string{{"main", "helper", "1"}, {"main", "printf", "2:if1"}}, c.CG.Edges)

	require.Len(t, c.Iss, 1)
	assert.Equal(t, "/src/bad.c", c.Iss[0].Loc)
	assert.Equal(t, SeverityWarning, c.Iss[0].Sev)
}
