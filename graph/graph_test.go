package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_CreateNode_Duplicate(t *testing.T) {
	g := New()

	require.NoError(t, g.CreateNode(&Node{ID: "REQ-p00001", Kind: KindRequirement}))
	err := g.CreateNode(&Node{ID: "REQ-p00001", Kind: KindRequirement})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, g.Len())
}

func TestGraph_CreateConflict(t *testing.T) {
	g := New()
	require.NoError(t, g.CreateNode(&Node{ID: "REQ-p00001", Kind: KindRequirement}))

	dup := &Node{ID: "REQ-p00001", Kind: KindRequirement, Title: "duplicate"}
	kept := g.CreateConflict(dup)

	assert.Equal(t, "REQ-p00001__conflict", kept.ID)
	assert.True(t, kept.IsConflict)
	assert.Equal(t, "REQ-p00001", kept.ConflictOf)
	assert.Equal(t, ClassOrphan, kept.Class)
	assert.Equal(t, 2, g.Len())

	// A third declaration still gets a unique id.
	third := g.CreateConflict(&Node{ID: "REQ-p00001", Kind: KindRequirement})
	assert.Equal(t, "REQ-p00001__conflict__conflict", third.ID)
}

func TestGraph_Link_NeverFails(t *testing.T) {
	g := New()

	// Neither endpoint exists yet; the reference is still captured.
	g.Link("REQ-d00001", "REQ-p00001", EdgeImplements, nil, nil)
	assert.Equal(t, 1, g.PendingCount())

	pending := g.TakePending()
	require.Len(t, pending, 1)
	assert.Equal(t, "REQ-d00001", pending[0].SourceID)
	assert.Equal(t, "REQ-p00001", pending[0].RawTarget)

	// Consumed exactly once.
	assert.Equal(t, 0, g.PendingCount())
	assert.Empty(t, g.TakePending())
}

func TestGraph_IterationOrder(t *testing.T) {
	g := New()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, g.CreateNode(&Node{ID: id, Kind: KindCode}))
	}

	var got []string
	for n := range g.Nodes() {
		got = append(got, n.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, got, "insertion order, not sorted")
}

func TestGraph_ChildrenDocumentOrder(t *testing.T) {
	g := New()
	require.NoError(t, g.CreateNode(&Node{ID: "REQ-p00001", Kind: KindRequirement}))
	for _, label := range []string{"A", "B", "C"} {
		id := AssertionID("REQ-p00001", label)
		require.NoError(t, g.CreateNode(&Node{ID: id, Kind: KindAssertion, Label: label}))
		g.InsertEdge(&Edge{Source: "REQ-p00001", Target: id, Kind: EdgeContains, State: StateResolved})
	}

	var labels []string
	for n := range g.Children("REQ-p00001") {
		labels = append(labels, n.Label)
	}
	assert.Equal(t, []string{"A", "B", "C"}, labels)
}

func TestGraph_ParentsAndImplementers(t *testing.T) {
	g := New()
	require.NoError(t, g.CreateNode(&Node{ID: "REQ-p00001", Kind: KindRequirement}))
	require.NoError(t, g.CreateNode(&Node{ID: "REQ-d00001", Kind: KindRequirement}))
	require.NoError(t, g.CreateNode(&Node{ID: "TestLogin", Kind: KindTest}))

	g.InsertEdge(&Edge{Source: "REQ-d00001", Target: "REQ-p00001", Kind: EdgeImplements, State: StateResolved})
	g.InsertEdge(&Edge{Source: "TestLogin", Target: "REQ-d00001", Kind: EdgeValidates, State: StateResolved})

	var parents []string
	for n := range g.Parents("REQ-d00001") {
		parents = append(parents, n.ID)
	}
	assert.Equal(t, []string{"REQ-p00001"}, parents)

	var implementers []string
	for n := range g.Implementers("REQ-p00001") {
		implementers = append(implementers, n.ID)
	}
	assert.Equal(t, []string{"REQ-d00001"}, implementers)

	// Validates is not a hierarchy edge.
	for range g.Implementers("REQ-d00001") {
		t.Fatal("validates edge must not appear as an implementer")
	}
}

func TestGraph_ContainerOf(t *testing.T) {
	g := New()
	require.NoError(t, g.CreateNode(&Node{ID: "REQ-p00001", Kind: KindRequirement}))
	require.NoError(t, g.CreateNode(&Node{ID: "REQ-p00001-A", Kind: KindAssertion, Label: "A"}))
	g.InsertEdge(&Edge{Source: "REQ-p00001", Target: "REQ-p00001-A", Kind: EdgeContains, State: StateResolved})

	parent, ok := g.ContainerOf("REQ-p00001-A")
	require.True(t, ok)
	assert.Equal(t, "REQ-p00001", parent.ID)

	_, ok = g.ContainerOf("REQ-p00001")
	assert.False(t, ok)
}

func TestAssertionIDRoundTrip(t *testing.T) {
	id := AssertionID("REQ-p00001", "B")
	assert.Equal(t, "REQ-p00001-B", id)

	parent, label := AssertionLabel(id)
	assert.Equal(t, "REQ-p00001", parent)
	assert.Equal(t, "B", label)
}

func TestFingerprint_Stable(t *testing.T) {
	assert.Equal(t, Fingerprint("body"), Fingerprint("body"))
	assert.NotEqual(t, Fingerprint("body"), Fingerprint("body2"))
}
