package schema

// ============================================================================
// Issues
// ============================================================================

// Severità degli Issue.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Codici degli Issue.
const (
	CodeParseFallback  = "PARSE_FALLBACK"
	CodeParseSkipped   = "PARSE_SKIPPED"
	CodeEntryExternal  = "ENTRY_EXTERNAL"
	CodeRenderFailed   = "RENDER_FAILED"
	CodeFocusUnknown   = "FOCUS_UNKNOWN"
	CodeTopoIncomplete = "TOPO_INCOMPLETE"
	CodeCycle          = "CYCLE"
)

// Issue rappresenta un problema rilevato durante l'analisi.
type Issue struct {
	Severity string        `json:"severity"` // error|warning|info
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Position *CLDKPosition `json:"position,omitempty"`
}

// Warning crea un Issue di severità warning; file può essere vuoto.
func Warning(code, file, msg string) Issue {
	iss := Issue{Severity: SeverityWarning, Code: code, Message: msg}
	if file != "" {
		iss.Position = &CLDKPosition{File: file}
	}
	return iss
}

// ============================================================================
// Position
// ============================================================================

// CLDKPosition rappresenta una posizione nel codice sorgente.
type CLDKPosition struct {
	File        string `json:"file"`
	StartLine   int    `json:"start_line,omitempty"`
	StartColumn int    `json:"start_column,omitempty"`
}
