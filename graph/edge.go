package graph

import (
	"fmt"
	"strings"
)

// EdgeKind is the relationship type between two nodes.
type EdgeKind string

const (
	// EdgeImplements claims satisfaction of a parent requirement.
	EdgeImplements EdgeKind = "implements"

	// EdgeRefines adds detail without claiming satisfaction.
	EdgeRefines EdgeKind = "refines"

	// EdgeValidates connects a test to the requirement or assertion it exercises.
	EdgeValidates EdgeKind = "validates"

	// EdgeAddresses connects supporting material (e.g. a test result) to its subject.
	EdgeAddresses EdgeKind = "addresses"

	// EdgeContains connects a structural parent to its lexical children.
	// Created solely by the builder, never by reference resolution.
	EdgeContains EdgeKind = "contains"
)

// Valid reports whether k is a known edge kind.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeImplements, EdgeRefines, EdgeValidates, EdgeAddresses, EdgeContains:
		return true
	}
	return false
}

// ParseEdgeKind maps a keyword from source text to an edge kind.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "implements":
		return EdgeImplements, nil
	case "refines":
		return EdgeRefines, nil
	case "validates":
		return EdgeValidates, nil
	case "addresses":
		return EdgeAddresses, nil
	case "contains":
		return EdgeContains, nil
	default:
		return "", fmt.Errorf("unknown relationship keyword: %q", s)
	}
}

// ResolutionState tracks how a cross-reference edge came to exist.
type ResolutionState string

const (
	// StateResolved means the target was found during resolution.
	StateResolved ResolutionState = "resolved"

	// StateBroken means the target was missing and a warning was emitted.
	StateBroken ResolutionState = "broken"

	// StateSuppressed means the target was missing but an
	// expected-broken-links marker downgraded the diagnostic.
	StateSuppressed ResolutionState = "suppressed"
)

// Edge is a directed relationship. Edges are plain (source, target, kind)
// data resolved through the graph's id index; they never hold node
// pointers, so deletion and undo cannot leave dangling structure.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`

	// AssertionLabels narrows the edge to specific assertions of the
	// target when the reference carried a label suffix.
	AssertionLabels []string `json:"assertion_labels,omitempty"`

	// State records the resolution outcome for cross-reference edges.
	// Contains edges are always resolved.
	State ResolutionState `json:"state,omitempty"`
}

// key identifies an edge for lookup and dedup.
func (e *Edge) key() string {
	return e.Source + "\x00" + e.Target + "\x00" + string(e.Kind)
}

// clone returns a copy for mutation-log before-state.
func (e *Edge) clone() *Edge {
	c := *e
	if e.AssertionLabels != nil {
		c.AssertionLabels = append([]string(nil), e.AssertionLabels...)
	}
	return &c
}

// PendingLink is an unresolved cross-reference captured during parsing.
// It is consumed exactly once during the resolution pass and becomes a
// resolved edge, a broken-reference warning, or a suppressed info message.
type PendingLink struct {
	// SourceID is the node the reference was parsed from.
	SourceID string `json:"source_id"`

	// RawTarget is the reference text exactly as written.
	RawTarget string `json:"raw_target"`

	// Kind is the relationship the reference asked for.
	Kind EdgeKind `json:"kind"`

	// Labels are assertion suffixes split off the raw target (-A-B-C).
	Labels []string `json:"labels,omitempty"`

	// Loc is the keyword line the reference came from.
	Loc *SourceLocation `json:"loc,omitempty"`
}
