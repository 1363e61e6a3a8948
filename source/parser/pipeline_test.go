package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
)

func runPipeline(t *testing.T, path string, domain source.Domain, content string) ([]*Fragment, graph.Diagnostics) {
	t.Helper()
	u := source.NewUnit(path, domain, content)
	return NewPipeline(nil).Run(u)
}

func byType(fragments []*Fragment, ft FragmentType) []*Fragment {
	var out []*Fragment
	for _, f := range fragments {
		if f.Type == ft {
			out = append(out, f)
		}
	}
	return out
}

func TestPipeline_RequirementDocument(t *testing.T) {
	content := `# Auth spec

### Requirement: REQ-p00001 — Login
Status: active
Level: product

The system shall authenticate users.

- A. Users can log in with a password.
- B. Sessions persist across restarts.

Refines: REQ-p00000
`
	fragments, diags := runPipeline(t, "specs/auth.md", source.DomainRequirements, content)
	assert.Empty(t, diags)

	reqs := byType(fragments, FragmentRequirement)
	require.Len(t, reqs, 1)
	f := reqs[0]

	assert.Equal(t, "REQ-p00001", f.ID)
	assert.Equal(t, "Login", f.Title)
	assert.Equal(t, "active", f.Status)
	assert.Equal(t, "product", f.Level)
	assert.Contains(t, f.Body, "The system shall authenticate users.")

	require.Len(t, f.Assertions, 2)
	assert.Equal(t, "A", f.Assertions[0].Label)
	assert.Equal(t, "Users can log in with a password.", f.Assertions[0].Text)
	assert.Equal(t, "B", f.Assertions[1].Label)

	require.Len(t, f.Links, 1)
	assert.Equal(t, graph.EdgeRefines, f.Links[0].Kind)
	assert.Equal(t, "REQ-p00000", f.Links[0].RawTarget)

	// The document title above the block is not part of any claimed
	// fragment, so it folds into a remainder.
	rems := byType(fragments, FragmentRemainder)
	require.NotEmpty(t, rems)
	assert.Contains(t, rems[0].Body, "# Auth spec")
}

func TestPipeline_FixtureCarveOut(t *testing.T) {
	content := "### Requirement: REQ-p00001 — Sample data\n" +
		"\n" +
		"Example payload:\n" +
		"\n" +
		"```\n" +
		"Implements: REQ-x99999\n" +
		"```\n" +
		"\n" +
		"Implements: REQ-p00000\n"

	fragments, diags := runPipeline(t, "specs/sample.md", source.DomainRequirements, content)
	assert.Empty(t, diags)

	fixtures := byType(fragments, FragmentFixture)
	require.Len(t, fixtures, 1)
	assert.Equal(t, "Implements: REQ-x99999", fixtures[0].Body)

	reqs := byType(fragments, FragmentRequirement)
	require.Len(t, reqs, 1)
	f := reqs[0]

	// The reference inside the fence never became a link.
	require.Len(t, f.Links, 1)
	assert.Equal(t, "REQ-p00000", f.Links[0].RawTarget)

	// Fence lines belong to the fixture, not the requirement block.
	for _, l := range f.Lines {
		assert.NotContains(t, fixtures[0].Lines, l, "line %d claimed twice", l)
	}
}

func TestPipeline_UnterminatedFence(t *testing.T) {
	content := "### Requirement: REQ-p00001 — Bad fence\n```\ndata\n"
	fragments, diags := runPipeline(t, "specs/bad.md", source.DomainRequirements, content)

	warnings := diags.BySeverity(graph.SeverityWarning)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].Message, "unterminated")

	fixtures := byType(fragments, FragmentFixture)
	require.Len(t, fixtures, 1)
	_, end := fixtures[0].Span()
	assert.Equal(t, 3, end, "claims through end of file")
}

func TestPipeline_DuplicateAssertionLabel(t *testing.T) {
	content := `### Requirement: REQ-p00001 — Dup
- A. First claim.
- A. Second claim under the same label.
`
	fragments, diags := runPipeline(t, "specs/dup.md", source.DomainRequirements, content)

	reqs := byType(fragments, FragmentRequirement)
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Assertions, 1)
	assert.Equal(t, "First claim.", reqs[0].Assertions[0].Text)

	require.Len(t, diags, 1)
	assert.Equal(t, graph.DiagParseWarning, diags[0].Kind)
	assert.Contains(t, diags[0].Message, "duplicate assertion label A")
}

func TestPipeline_MultipleBlocksAndJourney(t *testing.T) {
	content := `### Requirement: REQ-p00001 — First
- A. One.

### Journey: UJ-p00001 — Checkout
A user walks through checkout.

### Requirement: REQ-p00002 — Second
- A. Two.
`
	fragments, _ := runPipeline(t, "specs/multi.md", source.DomainRequirements, content)

	reqs := byType(fragments, FragmentRequirement)
	require.Len(t, reqs, 2)
	assert.Equal(t, "REQ-p00001", reqs[0].ID)
	assert.Equal(t, "REQ-p00002", reqs[1].ID)

	journeys := byType(fragments, FragmentUserJourney)
	require.Len(t, journeys, 1)
	assert.Equal(t, "UJ-p00001", journeys[0].ID)
	assert.Contains(t, journeys[0].Body, "walks through checkout")
}

func TestPipeline_ResultLog(t *testing.T) {
	content := `=== RUN   TestTokenRefresh
--- PASS: TestTokenRefresh (0.01s)
--- FAIL: TestSessionExpiry (1.20s)
--- SKIP: TestLegacyLogin
`
	fragments, diags := runPipeline(t, "test-results/run.txt", source.DomainResults, content)
	assert.Empty(t, diags)

	results := byType(fragments, FragmentResult)
	require.Len(t, results, 3)

	assert.Equal(t, ResultID("TestTokenRefresh"), results[0].ID)
	assert.Equal(t, "pass", results[0].Outcome)
	assert.Equal(t, "0.01s", results[0].Duration)
	require.Len(t, results[0].Links, 1)
	assert.Equal(t, graph.EdgeAddresses, results[0].Links[0].Kind)
	assert.Equal(t, "TestTokenRefresh", results[0].Links[0].RawTarget)

	assert.Equal(t, "fail", results[1].Outcome)
	assert.Equal(t, "skip", results[2].Outcome)
	assert.Empty(t, results[2].Duration)
}

func TestPipeline_DuplicateResult(t *testing.T) {
	content := "--- PASS: TestLogin (0.01s)\n--- FAIL: TestLogin (0.02s)\n"
	fragments, diags := runPipeline(t, "test-results/run.txt", source.DomainResults, content)

	assert.Len(t, byType(fragments, FragmentResult), 2)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "duplicate result for TestLogin")
}

func TestPipeline_CodeComments(t *testing.T) {
	content := `// Code: auth-module — Session handling
// Implements: REQ-d00001
package auth

// plain comment with no annotations
func Login() {}
`
	fragments, diags := runPipeline(t, "internal/auth.go", source.DomainCode, content)
	assert.Empty(t, diags)

	codes := byType(fragments, FragmentCode)
	require.Len(t, codes, 1)
	f := codes[0]
	assert.Equal(t, "auth-module", f.ID)
	assert.Equal(t, "Session handling", f.Title)
	require.Len(t, f.Links, 1)
	assert.Equal(t, graph.EdgeImplements, f.Links[0].Kind)
	assert.Equal(t, "REQ-d00001", f.Links[0].RawTarget)

	// Plain comments are claimed without producing fragments, and code
	// units never fold remainders into requirement nodes downstream, but
	// the unclaimed source lines still appear as remainder fragments.
	for _, r := range byType(fragments, FragmentRemainder) {
		assert.NotContains(t, r.Body, "plain comment")
	}
}

func TestPipeline_AnonymousCodeBlock(t *testing.T) {
	// A relationship keyword with no Code declaration still yields a
	// fragment, with a positional id.
	content := "# Implements: REQ-d00001\nx = 1\n"
	fragments, _ := runPipeline(t, "scripts/job.py", source.DomainCode, content)

	codes := byType(fragments, FragmentCode)
	require.Len(t, codes, 1)
	assert.True(t, strings.HasPrefix(codes[0].ID, "code:scripts/job.py:"), "got id %q", codes[0].ID)
}

func TestPipeline_TestAnnotations(t *testing.T) {
	content := `package auth

// Validates: REQ-d00001-A
func TestLogin(t *testing.T) {}

// Test: TestSuite — Named explicitly
// Validates: REQ-d00001
func helper() {}

// just a comment
func TestUnannotated(t *testing.T) {}
`
	fragments, diags := runPipeline(t, "internal/auth_test.go", source.DomainTest, content)
	assert.Empty(t, diags)

	tests := byType(fragments, FragmentTest)
	require.Len(t, tests, 2)

	assert.Equal(t, "TestLogin", tests[0].ID)
	require.Len(t, tests[0].Links, 1)
	assert.Equal(t, "REQ-d00001-A", tests[0].Links[0].RawTarget)

	assert.Equal(t, "TestSuite", tests[1].ID)
	assert.Equal(t, "Named explicitly", tests[1].Title)
}

func TestPipeline_RemainderRuns(t *testing.T) {
	content := `before

### Requirement: REQ-p00001 — Middle
- A. Claim.
`
	fragments, _ := runPipeline(t, "specs/runs.md", source.DomainRequirements, content)

	rems := byType(fragments, FragmentRemainder)
	require.Len(t, rems, 1)
	start, end := rems[0].Span()
	assert.Equal(t, 1, start)
	assert.Equal(t, 2, end)
	assert.Equal(t, "before", rems[0].Body)

	// Fragments come back ordered by first claimed line.
	var starts []int
	for _, f := range fragments {
		s, _ := f.Span()
		starts = append(starts, s)
	}
	for i := 1; i < len(starts); i++ {
		assert.LessOrEqual(t, starts[i-1], starts[i])
	}
}
