package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Counters(t *testing.T) {
	r := New()
	r.ObserveFile(ResultParsed)
	r.ObserveFile(ResultParsed)
	r.ObserveFile(ResultSkipped)
	r.ObserveGraph(12, 7, 9)
	r.ObserveDuration(1500 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.FilesTotal.WithLabelValues(ResultParsed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.FilesTotal.WithLabelValues(ResultFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FilesTotal.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.DefinitionsTotal))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.GraphNodes))
	assert.Equal(t, 9.0, testutil.ToFloat64(r.GraphEdges))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.AnalysisDuration))
}

func TestRun_RegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveFile(ResultParsed)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FilesTotal.WithLabelValues(ResultParsed)))
}

func TestRun_WriteToTextfile(t *testing.T) {
	r := New()
	r.ObserveFile(ResultFallback)
	r.ObserveGraph(3, 2, 1)

	path := filepath.Join(t.TempDir(), "codeanalyzer.prom")
	require.NoError(t, r.WriteToTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `codeanalyzer_files_total{result="fallback"} 1`)
	assert.Contains(t, s, "codeanalyzer_graph_nodes 2")
	assert.Contains(t, s, "# TYPE codeanalyzer_definitions_total counter")

	err = r.WriteToTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
