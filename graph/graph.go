// Package graph implements the traceability graph: typed nodes and edges,
// an id-indexed aggregate with a read-only iteration API, rollup metrics
// storage, and the audited mutation/undo engine.
//
// The graph is rebuilt from source text each run. It is owned by a single
// writer; nothing here spawns goroutines or blocks on I/O.
package graph

import (
	"iter"
)

// Graph is the one owned aggregate. It exclusively owns all nodes and
// edges; external consumers use the read-only iteration API or the
// mutation API, never direct structural access.
type Graph struct {
	nodes map[string]*Node
	order []string

	outgoing map[string][]*Edge
	incoming map[string][]*Edge

	pending []*PendingLink

	metrics map[string]*RollupMetrics

	log []*MutationEntry
	seq uint64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
		metrics:  make(map[string]*RollupMetrics),
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Has reports whether id is in the index.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node for id, or ErrNotFound.
func (g *Graph) Node(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// CreateNode inserts a node. It fails with ErrDuplicateID when the id is
// already taken; callers implementing the conflict policy use
// CreateConflict instead of dropping the duplicate.
func (g *Graph) CreateNode(n *Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return ErrDuplicateID
	}
	g.insertNode(n)
	return nil
}

// CreateConflict retains a duplicate node under id + "__conflict", flagged
// with a back-reference to the original and classified as an orphan so it
// never acquires hierarchy-derived edges. Visibility over silent loss.
func (g *Graph) CreateConflict(n *Node) *Node {
	original := n.ID
	n.ConflictOf = original
	n.IsConflict = true
	n.Class = ClassOrphan
	n.ID = original + ConflictSuffix
	for g.Has(n.ID) {
		n.ID += ConflictSuffix
	}
	g.insertNode(n)
	return n
}

func (g *Graph) insertNode(n *Node) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

func (g *Graph) removeNode(id string) {
	delete(g.nodes, id)
	delete(g.metrics, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Link records a cross-reference during ingestion. It never hard-fails on
// an unknown endpoint: the reference is captured as a PendingLink and
// consumed by the builder's resolution pass, tolerating forward references
// across files.
func (g *Graph) Link(sourceID, rawTarget string, kind EdgeKind, labels []string, loc *SourceLocation) *PendingLink {
	pl := &PendingLink{
		SourceID:  sourceID,
		RawTarget: rawTarget,
		Kind:      kind,
		Labels:    labels,
		Loc:       loc,
	}
	g.pending = append(g.pending, pl)
	return pl
}

// TakePending removes and returns all pending links, in ingestion order.
// Each link is consumed exactly once.
func (g *Graph) TakePending() []*PendingLink {
	p := g.pending
	g.pending = nil
	return p
}

// PendingCount returns the number of unconsumed pending links.
func (g *Graph) PendingCount() int { return len(g.pending) }

// InsertEdge adds a fully specified edge between existing endpoints.
// Builder use only; the mutation API wraps this with logging.
func (g *Graph) InsertEdge(e *Edge) {
	g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
	g.incoming[e.Target] = append(g.incoming[e.Target], e)
}

// RemoveEdge detaches e from both endpoint lists.
func (g *Graph) RemoveEdge(e *Edge) {
	g.outgoing[e.Source] = dropEdge(g.outgoing[e.Source], e)
	g.incoming[e.Target] = dropEdge(g.incoming[e.Target], e)
}

func dropEdge(edges []*Edge, e *Edge) []*Edge {
	for i, x := range edges {
		if x == e {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

// FindEdge returns the first edge matching (source, target, kind).
func (g *Graph) FindEdge(source, target string, kind EdgeKind) (*Edge, bool) {
	for _, e := range g.outgoing[source] {
		if e.Target == target && e.Kind == kind {
			return e, true
		}
	}
	return nil, false
}

// Nodes iterates all nodes in insertion order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, id := range g.order {
			if n, ok := g.nodes[id]; ok {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// NodesByKind iterates nodes of one kind in insertion order.
func (g *Graph) NodesByKind(kind NodeKind) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range g.Nodes() {
			if n.Kind == kind {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Roots iterates nodes the builder classified as roots.
func (g *Graph) Roots() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := range g.Nodes() {
			if n.Class == ClassRoot {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Outgoing iterates edges leaving id, in insertion order.
func (g *Graph) Outgoing(id string) iter.Seq[*Edge] {
	return func(yield func(*Edge) bool) {
		for _, e := range g.outgoing[id] {
			if !yield(e) {
				return
			}
		}
	}
}

// Incoming iterates edges arriving at id, in insertion order.
func (g *Graph) Incoming(id string) iter.Seq[*Edge] {
	return func(yield func(*Edge) bool) {
		for _, e := range g.incoming[id] {
			if !yield(e) {
				return
			}
		}
	}
}

// Children iterates the Contains-children of id in document order.
func (g *Graph) Children(id string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, e := range g.outgoing[id] {
			if e.Kind != EdgeContains {
				continue
			}
			if n, ok := g.nodes[e.Target]; ok {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Parents iterates the targets of outgoing Implements/Refines edges: the
// nodes this node claims to satisfy or refine.
func (g *Graph) Parents(id string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, e := range g.outgoing[id] {
			if e.Kind != EdgeImplements && e.Kind != EdgeRefines {
				continue
			}
			if n, ok := g.nodes[e.Target]; ok {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Implementers iterates the sources of incoming Implements/Refines
// edges: the hierarchy children of this node.
func (g *Graph) Implementers(id string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, e := range g.incoming[id] {
			if e.Kind != EdgeImplements && e.Kind != EdgeRefines {
				continue
			}
			if n, ok := g.nodes[e.Source]; ok {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// ContainerOf returns the Contains-parent of id, if any.
func (g *Graph) ContainerOf(id string) (*Node, bool) {
	for _, e := range g.incoming[id] {
		if e.Kind == EdgeContains {
			n, ok := g.nodes[e.Source]
			return n, ok
		}
	}
	return nil, false
}

// Metrics returns the rollup record for id, or nil before annotation.
func (g *Graph) Metrics(id string) *RollupMetrics {
	return g.metrics[id]
}

// SetMetrics writes the rollup record for id. Annotator use.
func (g *Graph) SetMetrics(id string, m *RollupMetrics) {
	g.metrics[id] = m
}

// ResetMetrics clears every rollup record so a recompute starts fresh.
func (g *Graph) ResetMetrics() {
	g.metrics = make(map[string]*RollupMetrics)
}
