package parser

import (
	"strings"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
)

// TestParser extracts test annotations from comment blocks in test
// units. A block either declares its test explicitly (`Test: name`) or
// is associated with the Go test function that immediately follows it.
type TestParser struct{}

// NewTestParser creates the test annotation parser.
func NewTestParser() *TestParser {
	return &TestParser{}
}

func (p *TestParser) Name() string { return "test" }

// Priority sits between the fixture and comment parsers: test annotation
// blocks must be consumed before the generic comment claim.
func (p *TestParser) Priority() int { return 95 }

func (p *TestParser) Applies(u *source.Unit) bool {
	return u.Domain == source.DomainTest
}

func (p *TestParser) Parse(u *source.Unit, claims *Claims) ([]*Fragment, graph.Diagnostics) {
	blocks, diags := extractCommentBlocks(u)
	lines := u.Lines()

	var fragments []*Fragment
	for _, b := range blocks {
		if !b.unclaimed(claims) {
			continue
		}

		links := blockLinks(b)
		var id, title string
		for _, text := range b.text {
			if m := testDeclPattern.FindStringSubmatch(text); m != nil {
				id = m[1]
				title = strings.TrimSpace(m[2])
				break
			}
		}
		if id == "" {
			if len(links) == 0 {
				continue // not a test annotation; the comment parser claims it
			}
			if name := followingTestFunc(lines, b.lines[len(b.lines)-1]); name != "" {
				id = name
				title = name
			} else {
				continue
			}
		}

		claims.ClaimAll(b.lines)
		fragments = append(fragments, &Fragment{
			Type:  FragmentTest,
			ID:    id,
			Title: title,
			Body:  joinBody(b.text),
			Lines: append([]int(nil), b.lines...),
			Links: links,
		})
	}
	return fragments, diags
}

// followingTestFunc returns the name of the Go test function declared on
// the first non-blank line after the comment block, if any.
func followingTestFunc(lines []string, afterLine int) string {
	for n := afterLine + 1; n <= len(lines); n++ {
		text := strings.TrimSpace(lines[n-1])
		if text == "" {
			continue
		}
		if m := testFuncPattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
		return ""
	}
	return ""
}
