// Package parser implements the claim pipeline: priority-ordered parser
// plugins that extract typed fragments from a unit's line sequence, with
// no line claimed twice. Unclaimed lines fold into remainder fragments.
package parser

import (
	"strings"

	"github.com/c360studio/tracegraph/graph"
)

// FragmentType tags the content a fragment carries.
type FragmentType string

const (
	FragmentRequirement FragmentType = "requirement"
	FragmentUserJourney FragmentType = "user-journey"
	FragmentCode        FragmentType = "code"
	FragmentTest        FragmentType = "test"
	FragmentResult      FragmentType = "test-result"
	FragmentFixture     FragmentType = "fixture"
	FragmentRemainder   FragmentType = "remainder"
)

// AssertionRecord is one labeled assertion clause inside a requirement.
type AssertionRecord struct {
	Label string
	Text  string
	Line  int
}

// SectionRecord is a section header inside a requirement block.
type SectionRecord struct {
	Title string
	Line  int
}

// LinkRecord is a cross-reference parsed from a keyword line. It becomes
// a PendingLink when the builder ingests the fragment.
type LinkRecord struct {
	Kind      graph.EdgeKind
	RawTarget string
	Line      int
}

// Fragment is one extracted piece of content. Lines are 1-based and may
// be non-contiguous (a requirement block with a fixture carved out of the
// middle).
type Fragment struct {
	Type FragmentType

	// ID is the declared identifier, when the fragment type has one.
	ID string

	Title  string
	Level  string
	Status string
	Body   string

	// Outcome and Duration are set on result fragments.
	Outcome  string
	Duration string

	// Unit is the source unit path.
	Unit string

	// Lines lists every claimed line, ascending.
	Lines []int

	Assertions []AssertionRecord
	Sections   []SectionRecord
	Links      []LinkRecord
}

// Span returns the first and last claimed line.
func (f *Fragment) Span() (start, end int) {
	if len(f.Lines) == 0 {
		return 0, 0
	}
	return f.Lines[0], f.Lines[len(f.Lines)-1]
}

// Location builds the node source location for this fragment.
func (f *Fragment) Location() *graph.SourceLocation {
	start, end := f.Span()
	if start == 0 {
		return nil
	}
	return &graph.SourceLocation{File: f.Unit, StartLine: start, EndLine: end}
}

// joinBody joins body lines, trimming leading and trailing blank lines
// but preserving interior blanks.
func joinBody(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
