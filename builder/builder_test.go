package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
)

func build(t *testing.T, opts Options, units ...*source.Unit) (*graph.Graph, graph.Diagnostics) {
	t.Helper()
	return New(opts, nil).Build(units)
}

func labeledEdges(g *graph.Graph, src, dst string, kind graph.EdgeKind) []string {
	var labels []string
	for e := range g.Outgoing(src) {
		if e.Target != dst || e.Kind != kind || e.State != graph.StateResolved {
			continue
		}
		labels = append(labels, e.AssertionLabels...)
	}
	return labels
}

func TestBuild_AssertionSuffixExpansion(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — Product goal
- A. One.
- B. Two.
- C. Three.

### Requirement: REQ-d00001 — Design detail
Implements: REQ-p00001-A-B-C
`)
	g, diags := build(t, DefaultOptions(), doc)
	assert.Empty(t, diags.BySeverity(graph.SeverityWarning))
	assert.Empty(t, diags.BySeverity(graph.SeverityError))

	// One edge per assertion, each carrying exactly its own label.
	assert.Equal(t, []string{"A", "B", "C"}, labeledEdges(g, "REQ-d00001", "REQ-p00001", graph.EdgeImplements))

	p := mustNode(t, g, "REQ-p00001")
	assert.Equal(t, "product", p.Level)
	assert.Equal(t, graph.StatusActive, p.Status)
	assert.Equal(t, graph.ClassRoot, p.Class)

	d := mustNode(t, g, "REQ-d00001")
	assert.Equal(t, "design", d.Level)
	assert.Equal(t, graph.ClassChild, d.Class)

	var children []string
	for c := range g.Children("REQ-p00001") {
		children = append(children, c.Label)
	}
	assert.Equal(t, []string{"A", "B", "C"}, children)
}

func TestBuild_DirectAssertionReference(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — Product goal
- A. One.
`)
	tests := source.NewUnit("internal/auth_test.go", source.DomainTest, `package auth

// Validates: REQ-p00001-A
func TestLogin(t *testing.T) {}
`)
	g, diags := build(t, DefaultOptions(), doc, tests)
	assert.Empty(t, diags.ByKind(graph.DiagBrokenReference))

	// A direct assertion-id reference folds back to the parent plus label.
	assert.Equal(t, []string{"A"}, labeledEdges(g, "TestLogin", "REQ-p00001", graph.EdgeValidates))
	assert.Equal(t, graph.KindTest, mustNode(t, g, "TestLogin").Kind)
}

func TestBuild_DuplicateReferenceDedups(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — Product goal
- A. One.

### Requirement: REQ-d00001 — Design detail
Implements: REQ-p00001-A, REQ-p00001-A
Implements: REQ-p00001-A
`)
	g, _ := build(t, DefaultOptions(), doc)
	assert.Equal(t, []string{"A"}, labeledEdges(g, "REQ-d00001", "REQ-p00001", graph.EdgeImplements))
}

func TestBuild_ExpectedBrokenLinksBudget(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `expected-broken-links 2

### Requirement: REQ-p00001 — Product goal
Refines: REQ-x00001
Refines: REQ-x00002
Refines: REQ-x00003
`)
	g, diags := build(t, DefaultOptions(), doc)

	// Budget spent in file order: first two suppressed, third broken.
	suppressed := diags.ByKind(graph.DiagSuppressedReference)
	broken := diags.ByKind(graph.DiagBrokenReference)
	require.Len(t, suppressed, 2)
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0].Message, "REQ-x00003")
	assert.Equal(t, graph.SeverityInfo, suppressed[0].Severity)
	assert.Equal(t, graph.SeverityWarning, broken[0].Severity)

	// The dangling edges stay in the graph for visibility.
	states := make(map[string]graph.ResolutionState)
	for e := range g.Outgoing("REQ-p00001") {
		states[e.Target] = e.State
	}
	assert.Equal(t, graph.StateSuppressed, states["REQ-x00001"])
	assert.Equal(t, graph.StateSuppressed, states["REQ-x00002"])
	assert.Equal(t, graph.StateBroken, states["REQ-x00003"])
}

func TestBuild_DuplicateIDBecomesConflict(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — First declaration
- A. One.

### Requirement: REQ-p00001 — Second declaration
- A. Other.
`)
	g, diags := build(t, DefaultOptions(), doc)

	dups := diags.ByKind(graph.DiagDuplicateID)
	require.NotEmpty(t, dups)

	// First declaration wins the id; the duplicate is retained, flagged,
	// and pinned as an orphan.
	assert.Equal(t, "First declaration", mustNode(t, g, "REQ-p00001").Title)
	c := mustNode(t, g, "REQ-p00001"+graph.ConflictSuffix)
	assert.True(t, c.IsConflict)
	assert.Equal(t, "REQ-p00001", c.ConflictOf)
	assert.Equal(t, graph.ClassOrphan, c.Class)
}

func TestBuild_OrphanReclassifiedByImplementer(t *testing.T) {
	spec := `### Requirement: REQ-p00001 — Product goal
- A. One.
`
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, spec)
	g, diags := build(t, DefaultOptions(), doc)

	// Assertions alone never make a root.
	assert.Equal(t, graph.ClassOrphan, mustNode(t, g, "REQ-p00001").Class)
	require.Len(t, diags.ByKind(graph.DiagOrphan), 1)

	code := source.NewUnit("src/auth.c", source.DomainCode, `// Code: auth-core — Core auth module
// Implements: REQ-p00001
`)
	g, diags = build(t, DefaultOptions(), source.NewUnit("specs/core.md", source.DomainRequirements, spec), code)

	assert.Equal(t, graph.ClassRoot, mustNode(t, g, "REQ-p00001").Class)
	assert.Empty(t, diags.ByKind(graph.DiagOrphan))
}

func TestBuild_AllowOrphansDowngrades(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, "### Requirement: REQ-p00001 — Lone\n- A. One.\n")

	opts := DefaultOptions()
	opts.AllowOrphans = true
	_, diags := build(t, opts, doc)

	orphans := diags.ByKind(graph.DiagOrphan)
	require.Len(t, orphans, 1)
	assert.Equal(t, graph.SeverityInfo, orphans[0].Severity)
}

func TestBuild_CycleDetection(t *testing.T) {
	spec := `### Requirement: REQ-d00001 — One
Implements: REQ-d00002

### Requirement: REQ-d00002 — Two
Implements: REQ-d00001
`
	doc := source.NewUnit("specs/loop.md", source.DomainRequirements, spec)
	_, diags := build(t, DefaultOptions(), doc)

	cycles := diags.ByKind(graph.DiagCycle)
	require.Len(t, cycles, 1)
	assert.Equal(t, graph.SeverityError, cycles[0].Severity)
	assert.Contains(t, cycles[0].Message, "hierarchy cycle")
	assert.Len(t, cycles[0].IDs, 3, "full path including the closing node")

	opts := DefaultOptions()
	opts.AllowCycles = true
	_, diags = build(t, opts, source.NewUnit("specs/loop.md", source.DomainRequirements, spec))
	cycles = diags.ByKind(graph.DiagCycle)
	require.Len(t, cycles, 1)
	assert.Equal(t, graph.SeverityInfo, cycles[0].Severity)
}

func TestBuild_InvalidRelationshipStillLinks(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — Product goal
- A. One.
`)
	tests := source.NewUnit("internal/bad_test.go", source.DomainTest, `package auth

// Implements: REQ-p00001
func TestBad(t *testing.T) {}
`)
	g, diags := build(t, DefaultOptions(), doc, tests)

	invalid := diags.ByKind(graph.DiagInvalidRelationship)
	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].Message, "may not declare implements")

	// The edge exists anyway: visibility over silence.
	_, ok := g.FindEdge("TestBad", "REQ-p00001", graph.EdgeImplements)
	assert.True(t, ok)
}

func TestBuild_AllowedImplementsLevels(t *testing.T) {
	spec := `### Requirement: REQ-p00001 — Product goal
- A. One.

### Requirement: REQ-c00001 — Component detail
Implements: REQ-p00001
`
	opts := DefaultOptions()
	opts.AllowedImplements = map[string][]string{"component": {"design"}}
	_, diags := build(t, opts, source.NewUnit("specs/levels.md", source.DomainRequirements, spec))

	invalid := diags.ByKind(graph.DiagInvalidRelationship)
	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].Message, "component may not implement")
}

func TestBuild_TolerantReferenceMatching(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — Product goal
- A. One.

### Requirement: REQ-d00001 — Design detail
Refines: req_p00001.
`)
	g, diags := build(t, DefaultOptions(), doc)
	assert.Empty(t, diags.ByKind(graph.DiagBrokenReference))

	_, ok := g.FindEdge("REQ-d00001", "REQ-p00001", graph.EdgeRefines)
	assert.True(t, ok, "case, underscores, and trailing punctuation are tolerated")
}

func TestBuild_MissingAssertionBreaksOnlyItsLabel(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — Product goal
- A. One.

### Requirement: REQ-d00001 — Design detail
Implements: REQ-p00001-A-Z
`)
	g, diags := build(t, DefaultOptions(), doc)

	assert.Equal(t, []string{"A"}, labeledEdges(g, "REQ-d00001", "REQ-p00001", graph.EdgeImplements))

	broken := diags.ByKind(graph.DiagBrokenReference)
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0].Message, "REQ-p00001-Z")
}

func TestBuild_LowercaseSuffixPeels(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — Product goal
- A. One.

### Requirement: REQ-d00001 — Design detail
Implements: req-p00001-a-x
`)
	g, diags := build(t, DefaultOptions(), doc)

	// Lowercase suffixes fold to their canonical labels.
	assert.Equal(t, []string{"A"}, labeledEdges(g, "REQ-d00001", "REQ-p00001", graph.EdgeImplements))

	// The missing label is reported in parent+label form, not as the
	// raw unpeeled reference.
	broken := diags.ByKind(graph.DiagBrokenReference)
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0].Message, "REQ-p00001-X")
}

func TestBuild_RemainderNodesForRequirementDocs(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `# Corpus title

### Requirement: REQ-p00001 — Product goal
- A. One.
`)
	code := source.NewUnit("src/plain.c", source.DomainCode, "int main() { return 0; }\n")
	g, _ := build(t, DefaultOptions(), doc, code)

	// The document preamble materializes; unclaimed code lines do not.
	rem := mustNode(t, g, "text:specs/core.md:1")
	assert.Equal(t, graph.KindRemainder, rem.Kind)
	assert.Contains(t, rem.Body, "# Corpus title")

	for n := range g.NodesByKind(graph.KindRemainder) {
		assert.NotContains(t, n.ID, "plain.c")
	}
}

func TestBuild_ResultNodesAddressTests(t *testing.T) {
	doc := source.NewUnit("specs/core.md", source.DomainRequirements, `### Requirement: REQ-p00001 — Product goal
- A. One.
`)
	tests := source.NewUnit("internal/auth_test.go", source.DomainTest, `package auth

// Validates: REQ-p00001-A
func TestLogin(t *testing.T) {}
`)
	results := source.NewUnit("test-results/run.txt", source.DomainResults, "--- PASS: TestLogin (0.01s)\n")

	g, diags := build(t, DefaultOptions(), doc, tests, results)
	assert.Empty(t, diags.ByKind(graph.DiagBrokenReference))
	assert.Empty(t, diags.ByKind(graph.DiagInvalidRelationship))

	r := mustNode(t, g, "TestLogin-result")
	assert.Equal(t, graph.KindTestResult, r.Kind)
	assert.Equal(t, graph.OutcomePass, r.Outcome)
	assert.Equal(t, "0.01s", r.Duration)

	_, ok := g.FindEdge("TestLogin-result", "TestLogin", graph.EdgeAddresses)
	assert.True(t, ok)
}

func mustNode(t *testing.T, g *graph.Graph, id string) *graph.Node {
	t.Helper()
	n, err := g.Node(id)
	require.NoError(t, err, "node %s", id)
	return n
}
