package cfront

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/codellm-devkit/codeanalyzer-c/internal/astx"
	"github.com/codellm-devkit/codeanalyzer-c/internal/compdb"
	"github.com/codellm-devkit/codeanalyzer-c/internal/tracker"
)

func extract(t *testing.T, archive string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		p := filepath.Join(root, f.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, f.Data, 0o644))
	}
	return root
}

const runProject = `
-- include/util.h --
#define UTIL_MACRO(x) (x)
extern int (*util_hook)(void);
int helper(void);
-- run.c --
#include <util.h>
#define MAX(a, b) ((a) > (b) ? (a) : (b))
#define LOG_FN trace

static int counter;
extern void (*hook)(int);

static const char *name_of(int id) { return id ? "x" : "y"; }

int sum(int n, ...) { return n; }

void trace(const char *msg) {}

int run(void (*cb)(int), int x) {
    int (*local)(void) = helper;
    cb(x);
    local();
    hook(x);
    int m = MAX(x, 2);
    LOG_FN("run");
    util_hook();
    UTIL_MACRO(1);
#ifdef DEBUG
    debug_only();
#else
    release_only();
#endif
    if (x > 0) {
        helper();
    } else if (x < 0) {
        trace("neg");
    }
    while (check(x)) { step(); }
    switch (x) {
    case 1: one(); break;
    default: other(); break;
    }
    return sum(x, 1, 2);
}

int main(void) {
    return run(0, 1);
}
`

type call struct {
	Callee string
	Order  int
	Ctx    string
	Depth  int
}

func callsOf(fn astx.Function) []call {
	var out []call
	for _, c := range tracker.Track(fn.Body()) {
		out = append(out, call{c.Callee, c.Order, c.Context.String(), c.Depth})
	}
	return out
}

func parseRun(t *testing.T, flags compdb.Flags) (*Unit, map[string]astx.Function) {
	t.Helper()
	root := extract(t, runProject)
	for i, d := range flags.IncludeDirs {
		flags.IncludeDirs[i] = filepath.Join(root, d)
	}
	u, err := NewParser().ParseFile(context.Background(), filepath.Join(root, "run.c"), flags)
	require.NoError(t, err)
	byName := map[string]astx.Function{}
	for _, fn := range u.Functions() {
		byName[fn.Name()] = fn
	}
	return u, byName
}

func TestParse_Signatures(t *testing.T) {
	u, fns := parseRun(t, compdb.Flags{})
	assert.Zero(t, u.ErrorRatio)

	var names []string
	for _, fn := range u.Functions() {
		names = append(names, fn.Name())
	}
	assert.Equal(t, []string{"name_of", "sum", "trace", "run", "main"}, names)

	nameOf := fns["name_of"]
	assert.Equal(t, astx.StorageStatic, nameOf.StorageClass())
	assert.Equal(t, "const char *", nameOf.ResultType())
	assert.Equal(t, []astx.Param{{Name: "id", Type: "int"}}, nameOf.Params())
	assert.Equal(t, 8, nameOf.Location().Line)

	sum := fns["sum"]
	assert.True(t, sum.IsVariadic())
	assert.Equal(t, []astx.Param{{Name: "n", Type: "int"}}, sum.Params())
	assert.Equal(t, astx.StorageNone, sum.StorageClass())

	assert.Equal(t, []astx.Param{{Name: "msg", Type: "const char *"}}, fns["trace"].Params())
	assert.Equal(t, "{ }", fns["trace"].Body().Text())

	assert.Equal(t, []astx.Param{
		{Name: "cb", Type: "void (*)(int)"},
		{Name: "x", Type: "int"},
	}, fns["run"].Params())

	assert.Empty(t, fns["main"].Params())
	assert.False(t, fns["main"].IsVariadic())
	assert.Equal(t, "int", fns["main"].ResultType())
	assert.Equal(t, "{ return run ( 0 , 1 ) ; }", fns["main"].Body().Text())
	assert.Equal(t, `{ return id ? "x" : "y" ; }`, nameOf.Body().Text())
}

func TestParse_CallsAreClassified(t *testing.T) {
	u, fns := parseRun(t, compdb.Flags{IncludeDirs: []string{"include"}})
	require.Len(t, u.Includes, 1)

	want := []call{
		{"trace", 1, "sequential", 0},
		{"release_only", 2, "sequential", 0},
		{"helper", 3, "Conditional{branch_id=1}", 1},
		{"trace", 4, "Conditional{branch_id=3}", 2},
		{"check", 5, "loop", 1},
		{"step", 6, "loop", 1},
		{"one", 7, "Switch{case_id=1}", 1},
		{"other", 8, "Switch{case_id=2}", 1},
		{"sum", 9, "sequential", 0},
	}
	if diff := cmp.Diff(want, callsOf(fns["run"])); diff != "" {
		t.Fatalf("run calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []call{{"run", 1, "sequential", 0}}, callsOf(fns["main"]))
}

func TestParse_DefineSelectsBranch(t *testing.T) {
	_, fns := parseRun(t, compdb.Flags{Defines: []string{"DEBUG"}, IncludeDirs: []string{"include"}})
	calls := callsOf(fns["run"])
	require.Greater(t, len(calls), 2)
	assert.Equal(t, "debug_only", calls[1].Callee)
}

func TestParse_WithoutIncludeDirsHeaderNamesAreUnknown(t *testing.T) {
	_, fns := parseRun(t, compdb.Flags{})
	var callees []string
	for _, c := range callsOf(fns["run"]) {
		callees = append(callees, c.Callee)
	}
	assert.Contains(t, callees, "util_hook")
	assert.Contains(t, callees, "UTIL_MACRO")
	assert.NotContains(t, callees, "hook")
	assert.NotContains(t, callees, "MAX")
}

const conditionals = `
#define LEVEL 2
#if LEVEL > 1 && !defined(NO_EXTRA)
void extra(void) { a(); }
#elif defined(FOO)
void extra(void) { b(); }
#else
void extra(void) { c(); }
#endif
#undef LEVEL
#if LEVEL
void gone(void) {}
#endif
#ifndef LEVEL
void back(void) { d(); }
#endif
`

func TestParse_ConditionalRegions(t *testing.T) {
	tests := []struct {
		name    string
		defines []string
		want    map[string]string
	}{
		{"default", nil, map[string]string{"extra": "a", "back": "d"}},
		{"elif", []string{"NO_EXTRA", "FOO"}, map[string]string{"extra": "b", "back": "d"}},
		{"else", []string{"NO_EXTRA"}, map[string]string{"extra": "c", "back": "d"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := NewParser().Parse(context.Background(), []byte(conditionals), "cond.c", compdb.Flags{Defines: tc.defines})
			require.NoError(t, err)
			got := map[string]string{}
			for _, fn := range u.Functions() {
				calls := tracker.Track(fn.Body())
				require.Len(t, calls, 1, fn.Name())
				got[fn.Name()] = calls[0].Callee
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewParser(WithMaxFileSize(4)).Parse(ctx, []byte("int main(void) { return 0; }"), "big.c", compdb.Flags{})
	assert.True(t, errors.Is(err, ErrFileTooLarge))

	_, err = NewParser().Parse(ctx, []byte{0xff, 0xfe, 0x00}, "bin.c", compdb.Flags{})
	assert.True(t, errors.Is(err, ErrInvalidContent))

	garbage := []byte("@@@@ @@@@ @@@@ @@@@ @@@@ @@@@ @@@@ @@@@\n")
	_, err = NewParser().Parse(ctx, garbage, "junk.c", compdb.Flags{})
	assert.True(t, errors.Is(err, ErrTooManyErrors), "got %v", err)

	_, err = NewParser().ParseFile(ctx, filepath.Join(t.TempDir(), "missing.c"), compdb.Flags{})
	assert.Error(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewParser().Parse(canceled, []byte("int x;"), "x.c", compdb.Flags{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_UnresolvedIncludesAreIgnored(t *testing.T) {
	root := extract(t, `
-- inc/sub/.keep --
-- a.c --
#include "missing.h"
#include <sub>
void f(void) { g(); }
`)
	u, err := NewParser().ParseFile(context.Background(), filepath.Join(root, "a.c"), compdb.Flags{
		IncludeDirs: []string{filepath.Join(root, "inc")},
	})
	require.NoError(t, err)
	assert.Empty(t, u.Includes)
	require.Len(t, u.Functions(), 1)
	assert.Equal(t, "g", tracker.Track(u.Functions()[0].Body())[0].Callee)
}

func TestMacros_ResolveCallee(t *testing.T) {
	m := newMacros([]string{"A=B", "B=real", "FN", "LOOP=LOOP", "EXPR=x+1"})
	m["CALL"] = macro{function: true}

	assert.Equal(t, "real", m.resolveCallee("A"))
	assert.Equal(t, "plain", m.resolveCallee("plain"))
	assert.Equal(t, "", m.resolveCallee("CALL"))
	assert.Equal(t, "", m.resolveCallee("EXPR"))
	assert.Equal(t, "", m.resolveCallee("FN"), "FN expands to 1")
	assert.Equal(t, "", m.resolveCallee("LOOP"))
}

func TestParse_BlockScopedLocalsDoNotHideFunctions(t *testing.T) {
	src := `
void f(int x) {
    if (x) { int emit = 1; (void)emit; }
    emit(2);
    for (int step = 0; step < x; step++) { step += 1; }
    step(3);
    {
        int (*done)(void) = 0;
        done();
    }
    done();
}
`
	u, err := NewParser().Parse(context.Background(), []byte(src), "scope.c", compdb.Flags{})
	require.NoError(t, err)
	require.Len(t, u.Functions(), 1)

	want := []call{
		{"emit", 1, "sequential", 0},
		{"step", 2, "sequential", 0},
		{"done", 3, "sequential", 0},
	}
	if diff := cmp.Diff(want, callsOf(u.Functions()[0])); diff != "" {
		t.Fatalf("f calls mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_HeaderDefinitions(t *testing.T) {
	root := extract(t, `
-- inc/fast.h --
static inline int clamp(int v) { return bound(v); }
void setup(void) {}
-- a.c --
#include <fast.h>
int clamp(int v) { return v; }
int main(void) { return clamp(1); }
`)
	u, err := NewParser().ParseFile(context.Background(), filepath.Join(root, "a.c"), compdb.Flags{
		IncludeDirs: []string{filepath.Join(root, "inc")},
	})
	require.NoError(t, err)

	var names []string
	for _, fn := range u.Functions() {
		names = append(names, fn.Name())
	}
	assert.Equal(t, []string{"clamp", "setup", "clamp", "main"}, names)

	header := u.Functions()[0]
	assert.Equal(t, filepath.Join(root, "inc", "fast.h"), header.Location().File)
	assert.Equal(t, astx.StorageStatic, header.StorageClass())
	assert.Equal(t, "bound", tracker.Track(header.Body())[0].Callee)
}
