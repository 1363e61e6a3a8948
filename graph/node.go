package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// NodeKind discriminates the entity types stored in the graph.
type NodeKind string

const (
	KindRequirement NodeKind = "requirement"
	KindAssertion   NodeKind = "assertion"
	KindCode        NodeKind = "code"
	KindTest        NodeKind = "test"
	KindTestResult  NodeKind = "test-result"
	KindUserJourney NodeKind = "user-journey"
	KindRemainder   NodeKind = "remainder"
)

// Valid reports whether k is a known node kind.
func (k NodeKind) Valid() bool {
	switch k {
	case KindRequirement, KindAssertion, KindCode, KindTest,
		KindTestResult, KindUserJourney, KindRemainder:
		return true
	}
	return false
}

// Status is the lifecycle state of a requirement.
type Status string

const (
	StatusActive     Status = "active"
	StatusDraft      Status = "draft"
	StatusDeprecated Status = "deprecated"
	StatusSuperseded Status = "superseded"
)

// ResultOutcome is the recorded outcome of a test result node.
type ResultOutcome string

const (
	OutcomePass ResultOutcome = "pass"
	OutcomeFail ResultOutcome = "fail"
	OutcomeSkip ResultOutcome = "skip"
)

// Classification is assigned by the builder after resolution.
type Classification string

const (
	ClassUnclassified Classification = ""
	ClassRoot         Classification = "root"
	ClassOrphan       Classification = "orphan"
	ClassChild        Classification = "child"
)

// SourceLocation points a node back at the text it was parsed from.
type SourceLocation struct {
	// File is the source unit path.
	File string `json:"file"`

	// StartLine and EndLine are 1-based and inclusive.
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// String renders the location in file:line form.
func (l *SourceLocation) String() string {
	if l == nil {
		return ""
	}
	if l.StartLine == l.EndLine {
		return fmt.Sprintf("%s:%d", l.File, l.StartLine)
	}
	return fmt.Sprintf("%s:%d-%d", l.File, l.StartLine, l.EndLine)
}

// Node is one entity in the traceability graph. The field set that is
// meaningful depends on Kind: requirements carry title/level/status/body,
// assertions carry label/text, tests carry a name, test results carry an
// outcome, remainders carry only body text. Metrics live in the graph's
// side table (Graph.Metrics), never on the node itself.
type Node struct {
	// ID is globally unique. Immutable except via Graph.RenameNode.
	ID string `json:"id"`

	// Kind selects which fields below are populated.
	Kind NodeKind `json:"kind"`

	// Title is the display name (requirements, user journeys, code, tests).
	Title string `json:"title,omitempty"`

	// Level is the hierarchy level name for requirements (product, design, ...).
	Level string `json:"level,omitempty"`

	// Status is the requirement lifecycle state.
	Status Status `json:"status,omitempty"`

	// Label is the assertion letter within its parent requirement.
	Label string `json:"label,omitempty"`

	// Body is the free text content.
	Body string `json:"body,omitempty"`

	// Hash fingerprints the body for change detection. Not cryptographic.
	Hash string `json:"hash,omitempty"`

	// Outcome is set on test-result nodes.
	Outcome ResultOutcome `json:"outcome,omitempty"`

	// Duration is the recorded test duration, verbatim from the result log.
	Duration string `json:"duration,omitempty"`

	// Loc is where the node was parsed from, when known.
	Loc *SourceLocation `json:"loc,omitempty"`

	// IsConflict marks a node retained under the duplicate-id policy.
	IsConflict bool `json:"is_conflict,omitempty"`

	// ConflictOf holds the original id when IsConflict is set.
	ConflictOf string `json:"conflict_of,omitempty"`

	// Class is the builder's root/orphan classification.
	Class Classification `json:"class,omitempty"`
}

// ConflictSuffix is appended to the id of a duplicate node that is retained
// instead of dropped.
const ConflictSuffix = "__conflict"

// Fingerprint returns the content hash for a body. sha256 is used for
// change detection only.
func Fingerprint(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// clone returns a deep copy, used for mutation-log before-state.
func (n *Node) clone() *Node {
	c := *n
	if n.Loc != nil {
		loc := *n.Loc
		c.Loc = &loc
	}
	return &c
}

// AssertionLabel extracts the label suffix position for ids of the form
// "<parent>-<label>". It returns the parent id and label for assertion
// node ids minted by the builder.
func AssertionLabel(id string) (parent, label string) {
	i := strings.LastIndex(id, "-")
	if i <= 0 || i == len(id)-1 {
		return id, ""
	}
	return id[:i], id[i+1:]
}

// AssertionID mints the node id for an assertion under a requirement.
func AssertionID(parentID, label string) string {
	return parentID + "-" + label
}
