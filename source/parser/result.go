package parser

import (
	"regexp"
	"strings"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
)

// resultLinePattern matches go-test style outcome lines:
//
//	--- PASS: TestTokenRefresh (0.01s)
var resultLinePattern = regexp.MustCompile(`^\s*---\s+(PASS|FAIL|SKIP):\s+(\S+)(?:\s+\(([^)]+)\))?\s*$`)

// ResultParser extracts test outcomes from result log units. Each
// outcome line becomes one test-result fragment addressing its test.
type ResultParser struct{}

// NewResultParser creates the result log parser.
func NewResultParser() *ResultParser {
	return &ResultParser{}
}

func (p *ResultParser) Name() string { return "result" }

func (p *ResultParser) Priority() int { return 70 }

func (p *ResultParser) Applies(u *source.Unit) bool {
	return u.Domain == source.DomainResults
}

func (p *ResultParser) Parse(u *source.Unit, claims *Claims) ([]*Fragment, graph.Diagnostics) {
	lines := u.Lines()

	var fragments []*Fragment
	seen := make(map[string]int)
	var diags graph.Diagnostics

	for i, line := range lines {
		n := i + 1
		if claims.IsClaimed(n) {
			continue
		}
		m := resultLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		outcome := strings.ToLower(m[1])
		testName := m[2]

		if prev, dup := seen[testName]; dup {
			diags.Add(parseWarning(u.Path, n,
				"duplicate result for %s (first at line %d)", testName, prev))
		}
		seen[testName] = n

		fragments = append(fragments, &Fragment{
			Type:     FragmentResult,
			ID:       ResultID(testName),
			Title:    testName,
			Outcome:  outcome,
			Duration: strings.TrimSpace(m[3]),
			Lines:    []int{n},
			Links: []LinkRecord{{
				Kind:      graph.EdgeAddresses,
				RawTarget: testName,
				Line:      n,
			}},
		})
	}
	return fragments, diags
}

// ResultID mints the node id for a test's recorded result.
func ResultID(testName string) string {
	return testName + "-result"
}
