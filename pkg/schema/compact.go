package schema

// ============================================================================
// Schema Compatto per LLM
// ============================================================================
// Questo schema riduce la dimensione dell'output mantenendo la
// comprensibilità semantica per gli LLM: niente corpi, niente posizioni,
// archi come tuple.

// CompactAnalysis è la struttura root dell'output compatto per LLM.
type CompactAnalysis struct {
	Meta  *CompactMeta            `json:"m"`
	Funcs map[string]*CompactFunc `json:"fn,omitempty"`
	CG    *CompactCallGraph       `json:"cg,omitempty"`
	Order []string                `json:"o"`            // ordine topologico
	Cyc   [][]string              `json:"cy,omitempty"` // cicli
	Iss   []CompactIssue          `json:"iss"`          // issues/warnings
}

// CompactIssue rappresenta un problema rilevato durante l'analisi.
type CompactIssue struct {
	Sev string `json:"s"`           // severity: error|warning|info
	Msg string `json:"m"`           // message
	Loc string `json:"l,omitempty"` // location (file)
}

// CompactMeta contiene metadata minimali.
type CompactMeta struct {
	Ver   string `json:"v"` // analyzer version
	Lang  string `json:"l"` // language
	Entry string `json:"e"` // entry point
	Dur   int64  `json:"d"` // duration_ms
}

// ============================================================================
// Functions
// ============================================================================

// CompactFunc rappresenta una funzione in formato compatto.
type CompactFunc struct {
	Sig   string   `json:"s"`           // signature completa
	File  string   `json:"f,omitempty"` // basename del file
	Kind  string   `json:"k,omitempty"` // "x" esterna, "s" static, omesso altrimenti
	Calls []string `json:"c,omitempty"` // "callee@order[:tag]"
}

// ============================================================================
// Call Graph
// ============================================================================

// CompactCallGraph rappresenta il call graph in formato compatto.
type CompactCallGraph struct {
	Entry string      `json:"r"` // entry point (root)
	Edges [][3]string `json:"e"` // [[source, target, label], ...]
}
