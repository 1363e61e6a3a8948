package graph

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// DiagnosticKind names the structural condition a diagnostic reports.
type DiagnosticKind string

const (
	DiagParseWarning        DiagnosticKind = "parse-warning"
	DiagDuplicateID         DiagnosticKind = "duplicate-id"
	DiagBrokenReference     DiagnosticKind = "broken-reference"
	DiagSuppressedReference DiagnosticKind = "suppressed-reference"
	DiagCycle               DiagnosticKind = "cycle"
	DiagOrphan              DiagnosticKind = "orphan"
	DiagInvalidRelationship DiagnosticKind = "invalid-relationship"
)

// Diagnostic is one entry in the stream returned alongside a built graph.
// Callers decide which severities block their workflow.
type Diagnostic struct {
	Severity Severity        `json:"severity"`
	Kind     DiagnosticKind  `json:"kind"`
	Message  string          `json:"message"`
	IDs      []string        `json:"ids,omitempty"`
	Loc      *SourceLocation `json:"loc,omitempty"`
}

// String renders the diagnostic for log or console output.
func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] %s", d.Severity, d.Kind, d.Message)
	if len(d.IDs) > 0 {
		fmt.Fprintf(&sb, " (%s)", strings.Join(d.IDs, ", "))
	}
	if d.Loc != nil {
		fmt.Fprintf(&sb, " at %s", d.Loc)
	}
	return sb.String()
}

// Diagnostics accumulates parse and build diagnostics.
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (ds *Diagnostics) Add(d Diagnostic) {
	*ds = append(*ds, d)
}

// BySeverity returns the subset with the given severity.
func (ds Diagnostics) BySeverity(sev Severity) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// ByKind returns the subset with the given kind.
func (ds Diagnostics) ByKind(kind DiagnosticKind) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any diagnostic is an error.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
