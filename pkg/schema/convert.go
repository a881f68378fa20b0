package schema

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ToCompact converte CLDKAnalysis in CompactAnalysis per output LLM.
func ToCompact(full *CLDKAnalysis) *CompactAnalysis {
	compact := &CompactAnalysis{
		Meta: &CompactMeta{
			Ver:   full.Metadata.Version,
			Lang:  full.Metadata.Language,
			Entry: full.Metadata.EntryPoint,
			Dur:   full.Metadata.AnalysisDurationMs,
		},
		Order: full.Order,
		Cyc:   full.Cycles,
		Iss:   convertIssues(full.Issues),
	}
	if compact.Order == nil {
		compact.Order = []string{}
	}

	// Converti funzioni
	if len(full.Functions) > 0 {
		compact.Funcs = make(map[string]*CompactFunc, len(full.Functions))
		for name, fn := range full.Functions {
			compact.Funcs[name] = convertFunction(fn)
		}
	}

	// Converti call graph
	if full.CallGraph != nil {
		compact.CG = convertCallGraph(full.CallGraph)
	}

	return compact
}

// convertIssues converte gli Issue in CompactIssue.
func convertIssues(issues []Issue) []CompactIssue {
	if len(issues) == 0 {
		return []CompactIssue{}
	}
	result := make([]CompactIssue, 0, len(issues))
	for _, iss := range issues {
		ci := CompactIssue{
			Sev: iss.Severity,
			Msg: iss.Message,
		}
		if iss.Position != nil {
			ci.Loc = iss.Position.File
		}
		result = append(result, ci)
	}
	return result
}

// convertFunction converte una CLDKFunction in CompactFunc.
func convertFunction(fn *CLDKFunction) *CompactFunc {
	cf := &CompactFunc{Sig: fn.Signature}
	switch {
	case fn.External:
		cf.Kind = "x"
	case fn.Static:
		cf.Kind = "s"
	}
	if fn.File != "" {
		cf.File = filepath.Base(fn.File)
	}
	if len(fn.CallSites) > 0 {
		cf.Calls = make([]string, 0, len(fn.CallSites))
		for _, cs := range fn.CallSites {
			cf.Calls = append(cf.Calls, fmt.Sprintf("%s@%s", cs.Target, CallLabel(cs.Order, cs.Context, cs.BranchID, cs.CaseID)))
		}
	}
	return cf
}

// convertCallGraph converte CLDKCallGraph in CompactCallGraph.
func convertCallGraph(cg *CLDKCallGraph) *CompactCallGraph {
	ccg := &CompactCallGraph{
		Entry: cg.Entry,
		Edges: make([][3]string, 0, len(cg.Edges)),
	}
	for _, edge := range cg.Edges {
		ccg.Edges = append(ccg.Edges, [3]string{edge.Source, edge.Target, edge.Label})
	}
	return ccg
}

// CallLabel compone l'etichetta di una chiamata: "N", "N:ifB", "N:loop" o
// "N:caseC".
func CallLabel(order int, context string, branchID, caseID int) string {
	switch strings.ToLower(context) {
	case "conditional":
		return fmt.Sprintf("%d:if%d", order, branchID)
	case "loop":
		return fmt.Sprintf("%d:loop", order)
	case "switch":
		return fmt.Sprintf("%d:case%d", order, caseID)
	default:
		return fmt.Sprintf("%d", order)
	}
}

// FormatSignature compone la firma C di una funzione, es.
// "int sum(int n, ...)".
func FormatSignature(name, returnType string, params []CLDKParameter, variadic bool) string {
	parts := make([]string, 0, len(params)+1)
	for _, p := range params {
		switch {
		case p.Name == "":
			parts = append(parts, p.Type)
		case strings.Contains(p.Type, "(*)"):
			// puntatore a funzione: il nome va dentro le parentesi
			parts = append(parts, strings.Replace(p.Type, "(*)", "(*"+p.Name+")", 1))
		default:
			sep := " "
			if strings.HasSuffix(p.Type, "*") {
				sep = ""
			}
			parts = append(parts, p.Type+sep+p.Name)
		}
	}
	if variadic {
		parts = append(parts, "...")
	}
	if len(parts) == 0 {
		parts = append(parts, "void")
	}
	sep := " "
	if strings.HasSuffix(returnType, "*") {
		sep = ""
	}
	return fmt.Sprintf("%s%s%s(%s)", returnType, sep, name, strings.Join(parts, ", "))
}
