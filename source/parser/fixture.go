package parser

import (
	"regexp"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
)

var fencePattern = regexp.MustCompile("^\\s*```")

// FixtureParser claims fenced blocks in requirement documents so that a
// reference-like token inside mock data is never mistaken for a live
// cross-reference by later parsers. Each fenced block becomes one fixture
// fragment, preserved for document reconstruction.
type FixtureParser struct{}

// NewFixtureParser creates a fixture block parser.
func NewFixtureParser() *FixtureParser {
	return &FixtureParser{}
}

func (p *FixtureParser) Name() string { return "fixture" }

// Priority is the highest in the default pipeline: fixtures claim first.
func (p *FixtureParser) Priority() int { return 100 }

func (p *FixtureParser) Applies(u *source.Unit) bool {
	return u.Domain == source.DomainRequirements
}

// Parse claims every fenced block, fence lines included. An unterminated
// fence claims through end of file and warns.
func (p *FixtureParser) Parse(u *source.Unit, claims *Claims) ([]*Fragment, graph.Diagnostics) {
	lines := u.Lines()

	var fragments []*Fragment
	var diags graph.Diagnostics

	open := -1
	for i, line := range lines {
		n := i + 1
		if claims.IsClaimed(n) {
			continue
		}
		if !fencePattern.MatchString(line) {
			continue
		}
		if open < 0 {
			open = n
			continue
		}
		fragments = append(fragments, fixtureFragment(lines, open, n))
		open = -1
	}

	if open > 0 {
		diags.Add(parseWarning(u.Path, open, "unterminated fenced block"))
		fragments = append(fragments, fixtureFragment(lines, open, len(lines)))
	}

	return fragments, diags
}

func fixtureFragment(lines []string, start, end int) *Fragment {
	f := &Fragment{Type: FragmentFixture}
	var body []string
	for n := start; n <= end; n++ {
		f.Lines = append(f.Lines, n)
		if n > start && n < end {
			body = append(body, lines[n-1])
		}
	}
	f.Body = joinBody(body)
	return f
}
