// Package schema definisce i tipi CLDK per l'output dell'analyzer C.
package schema

// ============================================================================
// Struttura Principale
// ============================================================================

// CLDKAnalysis è la struttura root dell'output dell'analyzer.
type CLDKAnalysis struct {
	Metadata  Metadata                 `json:"metadata"`
	Functions map[string]*CLDKFunction `json:"functions"`
	CallGraph *CLDKCallGraph           `json:"call_graph,omitempty"`
	// Order è l'ordinamento topologico (caller prima dei callee), best effort.
	Order []string `json:"topological_order"`
	// Cycles elenca le componenti fortemente connesse non banali.
	Cycles [][]string `json:"cycles"`
	// Unordered elenca le funzioni raggiungibili assenti da Order.
	Unordered []string `json:"unordered"`
	Issues    []Issue  `json:"issues"`
}

// Metadata contiene informazioni sull'analisi eseguita.
type Metadata struct {
	Analyzer           string `json:"analyzer"`
	Version            string `json:"version"`
	Language           string `json:"language"`
	RunID              string `json:"run_id"`
	Timestamp          string `json:"timestamp"`
	ProjectPath        string `json:"project_path"`
	CompilationDB      string `json:"compilation_database"`
	EntryPoint         string `json:"entry_point"`
	FilesAnalyzed      int    `json:"files_analyzed"`
	AnalysisDurationMs int64  `json:"analysis_duration_ms"`
}

// ============================================================================
// Functions
// ============================================================================

// CLDKFunction rappresenta una definizione di funzione C raggiungibile
// dall'entry point, oppure uno stub esterno.
type CLDKFunction struct {
	Name       string          `json:"name"`
	Signature  string          `json:"signature"`
	ReturnType string          `json:"return_type"`
	Parameters []CLDKParameter `json:"parameters"`
	Variadic   bool            `json:"variadic,omitempty"`
	Static     bool            `json:"static"`
	External   bool            `json:"external"`
	File       string          `json:"file,omitempty"`
	Body       string          `json:"body,omitempty"`
	CallSites  []CLDKCallSite  `json:"call_sites"`
}

// CLDKParameter rappresenta un parametro.
type CLDKParameter struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

// CLDKCallSite rappresenta una chiamata a funzione nel corpo, con il suo
// contesto di controllo.
type CLDKCallSite struct {
	Target   string        `json:"target"`
	Position *CLDKPosition `json:"position,omitempty"`
	Order    int           `json:"order"`
	Context  string        `json:"context"` // sequential|conditional|loop|switch
	BranchID int           `json:"branch_id,omitempty"`
	CaseID   int           `json:"case_id,omitempty"`
	Depth    int           `json:"context_depth"`
}

// ============================================================================
// Call Graph
// ============================================================================

// CLDKCallGraph rappresenta il call graph raggiungibile dall'entry point.
type CLDKCallGraph struct {
	Entry string       `json:"entry"`
	Nodes []CLDKCGNode `json:"nodes"`
	Edges []CLDKCGEdge `json:"edges"`
}

// CLDKCGNode rappresenta un nodo del call graph.
type CLDKCGNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"` // entry|external|static|function
	File string `json:"file,omitempty"`
}

// CLDKCGEdge rappresenta un arco del call graph. Due chiamate allo stesso
// callee producono due archi distinti.
type CLDKCGEdge struct {
	Source   string        `json:"source"`
	Target   string        `json:"target"`
	Order    int           `json:"order"`
	Context  string        `json:"context"`
	Label    string        `json:"label"`
	CallSite *CLDKPosition `json:"call_site,omitempty"`
}
