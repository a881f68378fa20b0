package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/codellm-devkit/codeanalyzer-c/internal/symbols"
	"github.com/codellm-devkit/codeanalyzer-c/pkg/schema"
)

// Palette del riepilogo.
var (
	colorTitle   = lipgloss.Color("#2CD7C7")
	colorMuted   = lipgloss.Color("#2C4A54")
	colorWarning = lipgloss.Color("#F4D03F")
)

type summaryStyles struct {
	title, label, value, warning, muted lipgloss.Style
}

func newSummaryStyles(w io.Writer, color bool) summaryStyles {
	r := lipgloss.NewRenderer(w)
	s := summaryStyles{
		title:   r.NewStyle().Bold(true),
		label:   r.NewStyle().Width(22),
		value:   r.NewStyle().Bold(true),
		warning: r.NewStyle(),
		muted:   r.NewStyle(),
	}
	if color {
		s.title = s.title.Foreground(colorTitle)
		s.warning = s.warning.Foreground(colorWarning)
		s.muted = s.muted.Foreground(colorMuted)
	}
	return s
}

// printSummary stampa il riepilogo del call graph su w.
func printSummary(w io.Writer, res *result, color bool) {
	st := newSummaryStyles(w, color)
	line := func(label string, v any) {
		fmt.Fprintf(w, "  %s%s\n", st.label.Render(label+":"), st.value.Render(fmt.Sprint(v)))
	}

	sum := res.Summary
	fmt.Fprintln(w, st.title.Render("Call Graph Summary:"))
	line("Entry point", sum.Entry)
	line("Total nodes", sum.Nodes)
	line("Total edges", sum.Edges)
	line("External functions", sum.External)
	line("Static functions", sum.Static)
	line("Files parsed", res.Files[symbols.StatusParsed])
	if n := res.Files[symbols.StatusFallback]; n > 0 {
		line("Files with fallback", n)
	}
	if n := res.Files[symbols.StatusSkipped]; n > 0 {
		line("Files skipped", n)
	}

	warnings := 0
	for _, iss := range res.Analysis.Issues {
		if iss.Severity == schema.SeverityWarning {
			warnings++
		}
	}
	if warnings > 0 {
		fmt.Fprintln(w, st.warning.Render(fmt.Sprintf("  %d warning(s), see analysis.json", warnings)))
	}
	for _, p := range res.Outputs {
		fmt.Fprintln(w, st.muted.Render("  wrote "+p))
	}
}
