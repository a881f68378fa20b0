// Package metrics records run counters for one analysis in a private
// Prometheus registry. The registry can be dumped in the text exposition
// format for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "codeanalyzer"

// File results, used as the "result" label of FilesTotal.
const (
	ResultParsed   = "parsed"
	ResultFallback = "fallback"
	ResultSkipped  = "skipped"
)

// Run holds the metrics of a single analysis run.
type Run struct {
	Registry *prometheus.Registry

	// FilesTotal counts translation units by result (parsed, fallback, skipped).
	FilesTotal *prometheus.CounterVec
	// DefinitionsTotal counts definitions in the merged function database.
	DefinitionsTotal prometheus.Counter
	GraphNodes       prometheus.Gauge
	GraphEdges       prometheus.Gauge
	// AnalysisDuration is the wall time of the whole run.
	AnalysisDuration prometheus.Gauge
}

// New registers the run metrics in a fresh registry.
func New() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Run{
		Registry: reg,
		FilesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Translation units processed, by parse result.",
		}, []string{"result"}),
		DefinitionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "definitions_total",
			Help:      "Function definitions in the merged database.",
		}),
		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes reachable from the entry point.",
		}),
		GraphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Call edges reachable from the entry point.",
		}),
		AnalysisDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of the analysis run.",
		}),
	}
}

// ObserveFile counts one file result.
func (r *Run) ObserveFile(result string) {
	r.FilesTotal.WithLabelValues(result).Inc()
}

// ObserveGraph records the database and graph sizes.
func (r *Run) ObserveGraph(definitions, nodes, edges int) {
	r.DefinitionsTotal.Add(float64(definitions))
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// ObserveDuration records the run duration.
func (r *Run) ObserveDuration(d time.Duration) {
	r.AnalysisDuration.Set(d.Seconds())
}

// WriteToTextfile writes the registry to path atomically.
func (r *Run) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
