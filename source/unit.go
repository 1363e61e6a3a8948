// Package source provides the source unit model plus corpus scanning and
// file watching. A unit is one text file's content with a context
// descriptor; all text is read before ingestion starts, so nothing
// downstream blocks on I/O.
package source

import (
	"regexp"
	"strconv"
	"strings"
)

// Domain tags a unit with the kind of content it holds. The pipeline uses
// it to decide which parsers apply.
type Domain string

const (
	DomainRequirements Domain = "requirements"
	DomainCode         Domain = "code"
	DomainTest         Domain = "test"
	DomainResults      Domain = "results"
)

// markerScanLines bounds the header scan for unit-level markers.
const markerScanLines = 20

// expectedBrokenPattern matches the suppression marker in a unit header,
// in plain, frontmatter, or comment form.
var expectedBrokenPattern = regexp.MustCompile(`(?i)expected-broken-links:?\s+(\d+)`)

// Unit is one source text unit: content plus its context descriptor.
type Unit struct {
	// Path identifies the unit; node source locations use it.
	Path string

	// Domain is the content classification from the scanner.
	Domain Domain

	// Content is the full text, read up front.
	Content string

	lines []string
}

// NewUnit creates a unit and splits its line sequence once.
func NewUnit(path string, domain Domain, content string) *Unit {
	return &Unit{
		Path:    path,
		Domain:  domain,
		Content: content,
		lines:   splitLines(content),
	}
}

// Lines returns the ordered line sequence (0-based slice, 1-based line
// numbers in locations).
func (u *Unit) Lines() []string {
	return u.lines
}

// ExpectedBrokenLinks returns N from an "expected-broken-links N" marker
// declared in the unit's first 20 lines, or 0 when absent. The builder
// downgrades the next N otherwise-broken references in file order.
func (u *Unit) ExpectedBrokenLinks() int {
	limit := len(u.lines)
	if limit > markerScanLines {
		limit = markerScanLines
	}
	for _, line := range u.lines[:limit] {
		if m := expectedBrokenPattern.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n >= 0 {
				return n
			}
		}
	}
	return 0
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	// A trailing newline yields one phantom empty line; drop it so line
	// counts match what an editor shows.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
