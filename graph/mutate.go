package graph

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MutationKind names a structural mutation in the audit log.
type MutationKind string

const (
	MutRenameNode        MutationKind = "rename_node"
	MutUpdateField       MutationKind = "update_field"
	MutAddRequirement    MutationKind = "add_requirement"
	MutDeleteRequirement MutationKind = "delete_requirement"
	MutAddEdge           MutationKind = "add_edge"
	MutChangeEdgeKind    MutationKind = "change_edge_kind"
	MutDeleteEdge        MutationKind = "delete_edge"
	MutAddAssertion      MutationKind = "add_assertion"
	MutDeleteAssertion   MutationKind = "delete_assertion"
)

// MutationEntry is the immutable audit record appended on every
// structural mutation. It carries enough before-state to reverse the
// change exactly; undo consumes entries in strict reverse order.
type MutationEntry struct {
	Sequence    uint64       `json:"sequence"`
	EntryID     string       `json:"entry_id"`
	Kind        MutationKind `json:"kind"`
	AffectedIDs []string     `json:"affected_ids"`
	Timestamp   time.Time    `json:"timestamp"`

	before beforeState
}

// removedNode captures a deleted node and its position in insertion order.
type removedNode struct {
	node     *Node
	orderIdx int
}

// removedEdge captures a detached edge and its positions in both endpoint
// lists, so undo restores document order exactly.
type removedEdge struct {
	edge   *Edge
	outIdx int
	inIdx  int
}

// beforeState is the reversal payload. Only the fields relevant to the
// entry's kind are set.
type beforeState struct {
	oldID    string
	newID    string
	field    string
	oldValue string

	keptOut []*Edge
	keptIn  []*Edge

	addedNodeID string
	addedEdge   *Edge

	oldKind    EdgeKind
	newKind    EdgeKind
	changedSrc string
	changedDst string

	nodes []removedNode
	edges []removedEdge
}

func (g *Graph) appendLog(kind MutationKind, ids []string, before beforeState) *MutationEntry {
	g.seq++
	entry := &MutationEntry{
		Sequence:    g.seq,
		EntryID:     uuid.New().String(),
		Kind:        kind,
		AffectedIDs: ids,
		Timestamp:   time.Now(),
		before:      before,
	}
	g.log = append(g.log, entry)
	return entry
}

// Log returns a copy of the mutation log, oldest first.
func (g *Graph) Log() []*MutationEntry {
	return append([]*MutationEntry(nil), g.log...)
}

// RenameNode changes a node id and atomically rewrites every edge
// endpoint referencing it, so no stale edges exist after the call or its
// undo.
func (g *Graph) RenameNode(oldID, newID string) (*MutationEntry, error) {
	if _, ok := g.nodes[oldID]; !ok {
		return nil, fmt.Errorf("rename %q: %w", oldID, ErrUnknownNode)
	}
	if _, ok := g.nodes[newID]; ok {
		return nil, fmt.Errorf("rename to %q: %w", newID, ErrDuplicateID)
	}
	before := beforeState{
		oldID: oldID,
		newID: newID,
		// Broken or suppressed edges may already reference newID as a
		// missing target. They belong to newID, not to the renamed
		// node, and undo must leave them attached to it.
		keptOut: append([]*Edge(nil), g.outgoing[newID]...),
		keptIn:  append([]*Edge(nil), g.incoming[newID]...),
	}
	g.rewriteID(oldID, newID)
	return g.appendLog(MutRenameNode, []string{oldID, newID}, before), nil
}

// rewriteID performs the raw id rewrite across node, index, edges,
// metrics, and any pending links.
func (g *Graph) rewriteID(oldID, newID string) {
	n := g.nodes[oldID]
	n.ID = newID
	delete(g.nodes, oldID)
	g.nodes[newID] = n

	for i, id := range g.order {
		if id == oldID {
			g.order[i] = newID
		}
	}

	// Edges may already reference newID (broken references to a target
	// that is only now being created by the rename). Merge the moved
	// lists with any pre-existing entries instead of overwriting them.
	movedOut := g.outgoing[oldID]
	for _, e := range movedOut {
		e.Source = newID
	}
	g.outgoing[newID] = append(g.outgoing[newID], movedOut...)
	delete(g.outgoing, oldID)

	movedIn := g.incoming[oldID]
	for _, e := range movedIn {
		e.Target = newID
	}
	g.incoming[newID] = append(g.incoming[newID], movedIn...)
	delete(g.incoming, oldID)

	if m, ok := g.metrics[oldID]; ok {
		delete(g.metrics, oldID)
		g.metrics[newID] = m
	}

	for _, pl := range g.pending {
		if pl.SourceID == oldID {
			pl.SourceID = newID
		}
	}
}

// UpdateField sets one mutable field on a node. Updating body refreshes
// the content fingerprint.
func (g *Graph) UpdateField(id, field, value string) (*MutationEntry, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("update %q: %w", id, ErrUnknownNode)
	}
	old, err := getField(n, field)
	if err != nil {
		return nil, err
	}
	setField(n, field, value)
	return g.appendLog(MutUpdateField, []string{id}, beforeState{
		oldID:    id,
		field:    field,
		oldValue: old,
	}), nil
}

func getField(n *Node, field string) (string, error) {
	switch field {
	case "title":
		return n.Title, nil
	case "status":
		return string(n.Status), nil
	case "level":
		return n.Level, nil
	case "body":
		return n.Body, nil
	case "outcome":
		return string(n.Outcome), nil
	case "duration":
		return n.Duration, nil
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}

func setField(n *Node, field, value string) {
	switch field {
	case "title":
		n.Title = value
	case "status":
		n.Status = Status(value)
	case "level":
		n.Level = value
	case "body":
		n.Body = value
		n.Hash = Fingerprint(value)
	case "outcome":
		n.Outcome = ResultOutcome(value)
	case "duration":
		n.Duration = value
	}
}

// AddRequirement creates a new requirement node.
func (g *Graph) AddRequirement(n *Node) (*MutationEntry, error) {
	n.Kind = KindRequirement
	if n.Hash == "" && n.Body != "" {
		n.Hash = Fingerprint(n.Body)
	}
	if err := g.CreateNode(n); err != nil {
		return nil, fmt.Errorf("add requirement %q: %w", n.ID, err)
	}
	return g.appendLog(MutAddRequirement, []string{n.ID}, beforeState{addedNodeID: n.ID}), nil
}

// DeleteRequirement removes a requirement, its lexical children, and
// every edge touching any removed node. Destructive: requires confirm.
func (g *Graph) DeleteRequirement(id string, confirm bool) (*MutationEntry, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("delete %q: %w", id, ErrUnknownNode)
	}
	if n.Kind != KindRequirement && n.Kind != KindUserJourney {
		return nil, fmt.Errorf("delete %q: node is %s, not a requirement", id, n.Kind)
	}
	if !confirm {
		return nil, fmt.Errorf("delete %q: %w", id, ErrConfirmationRequired)
	}

	doomed := []string{id}
	for _, e := range g.outgoing[id] {
		if e.Kind == EdgeContains {
			doomed = append(doomed, e.Target)
		}
	}

	var before beforeState
	affected := append([]string(nil), doomed...)
	for _, did := range doomed {
		before.edges = append(before.edges, g.detachAllEdges(did)...)
	}
	for _, did := range doomed {
		if dn, ok := g.nodes[did]; ok {
			before.nodes = append(before.nodes, removedNode{node: dn.clone(), orderIdx: g.orderIndex(did)})
			g.removeNode(did)
		}
	}
	return g.appendLog(MutDeleteRequirement, affected, before), nil
}

// AddEdge creates a cross-reference edge between existing nodes. Unlike
// ingestion-time Link, unknown endpoints are a caller mistake here.
func (g *Graph) AddEdge(source, target string, kind EdgeKind, labels []string) (*MutationEntry, error) {
	if kind == EdgeContains {
		return nil, fmt.Errorf("add edge: contains edges are builder-only")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("add edge: invalid kind %q", kind)
	}
	if _, ok := g.nodes[source]; !ok {
		return nil, fmt.Errorf("add edge source %q: %w", source, ErrUnknownNode)
	}
	if _, ok := g.nodes[target]; !ok {
		return nil, fmt.Errorf("add edge target %q: %w", target, ErrUnknownNode)
	}
	e := &Edge{Source: source, Target: target, Kind: kind, AssertionLabels: labels, State: StateResolved}
	g.InsertEdge(e)
	return g.appendLog(MutAddEdge, []string{source, target}, beforeState{addedEdge: e}), nil
}

// ChangeEdgeKind rewrites the relationship kind of an existing edge.
func (g *Graph) ChangeEdgeKind(source, target string, kind, newKind EdgeKind) (*MutationEntry, error) {
	if kind == EdgeContains || newKind == EdgeContains {
		return nil, fmt.Errorf("change edge kind: contains edges are builder-only")
	}
	if !newKind.Valid() {
		return nil, fmt.Errorf("change edge kind: invalid kind %q", newKind)
	}
	e, ok := g.FindEdge(source, target, kind)
	if !ok {
		return nil, fmt.Errorf("change edge %s->%s (%s): %w", source, target, kind, ErrUnknownEdge)
	}
	e.Kind = newKind
	return g.appendLog(MutChangeEdgeKind, []string{source, target}, beforeState{
		changedSrc: source,
		changedDst: target,
		oldKind:    kind,
		newKind:    newKind,
	}), nil
}

// DeleteEdge removes a cross-reference edge. Destructive: requires confirm.
func (g *Graph) DeleteEdge(source, target string, kind EdgeKind, confirm bool) (*MutationEntry, error) {
	if kind == EdgeContains {
		return nil, fmt.Errorf("delete edge: contains edges are builder-only")
	}
	e, ok := g.FindEdge(source, target, kind)
	if !ok {
		return nil, fmt.Errorf("delete edge %s->%s (%s): %w", source, target, kind, ErrUnknownEdge)
	}
	if !confirm {
		return nil, fmt.Errorf("delete edge %s->%s: %w", source, target, ErrConfirmationRequired)
	}
	re := g.detachEdge(e)
	return g.appendLog(MutDeleteEdge, []string{source, target}, beforeState{edges: []removedEdge{re}}), nil
}

// AddAssertion appends a labeled assertion under a requirement, wiring the
// builder-style Contains edge.
func (g *Graph) AddAssertion(parentID, label, text string) (*MutationEntry, error) {
	parent, ok := g.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("add assertion to %q: %w", parentID, ErrUnknownNode)
	}
	if parent.Kind != KindRequirement && parent.Kind != KindUserJourney {
		return nil, fmt.Errorf("add assertion to %q: parent is %s, not a requirement", parentID, parent.Kind)
	}
	id := AssertionID(parentID, label)
	a := &Node{
		ID:    id,
		Kind:  KindAssertion,
		Label: label,
		Body:  text,
		Hash:  Fingerprint(text),
	}
	if err := g.CreateNode(a); err != nil {
		return nil, fmt.Errorf("add assertion %q: %w", id, err)
	}
	e := &Edge{Source: parentID, Target: id, Kind: EdgeContains, State: StateResolved}
	g.InsertEdge(e)
	return g.appendLog(MutAddAssertion, []string{parentID, id}, beforeState{
		addedNodeID: id,
		addedEdge:   e,
	}), nil
}

// DeleteAssertion removes an assertion and every edge touching it.
// Destructive: requires confirm.
func (g *Graph) DeleteAssertion(id string, confirm bool) (*MutationEntry, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("delete assertion %q: %w", id, ErrUnknownNode)
	}
	if n.Kind != KindAssertion {
		return nil, fmt.Errorf("delete assertion %q: node is %s", id, n.Kind)
	}
	if !confirm {
		return nil, fmt.Errorf("delete assertion %q: %w", id, ErrConfirmationRequired)
	}
	var before beforeState
	before.edges = g.detachAllEdges(id)
	before.nodes = []removedNode{{node: n.clone(), orderIdx: g.orderIndex(id)}}
	g.removeNode(id)
	return g.appendLog(MutDeleteAssertion, []string{id}, before), nil
}

func (g *Graph) orderIndex(id string) int {
	for i, oid := range g.order {
		if oid == id {
			return i
		}
	}
	return len(g.order)
}

// detachEdge removes e from both endpoint lists, recording positions for
// exact restoration.
func (g *Graph) detachEdge(e *Edge) removedEdge {
	re := removedEdge{edge: e, outIdx: -1, inIdx: -1}
	for i, x := range g.outgoing[e.Source] {
		if x == e {
			re.outIdx = i
			break
		}
	}
	for i, x := range g.incoming[e.Target] {
		if x == e {
			re.inIdx = i
			break
		}
	}
	g.RemoveEdge(e)
	return re
}

// detachAllEdges removes every edge touching id, outgoing then incoming.
func (g *Graph) detachAllEdges(id string) []removedEdge {
	var removed []removedEdge
	for len(g.outgoing[id]) > 0 {
		removed = append(removed, g.detachEdge(g.outgoing[id][0]))
	}
	for len(g.incoming[id]) > 0 {
		removed = append(removed, g.detachEdge(g.incoming[id][0]))
	}
	delete(g.outgoing, id)
	delete(g.incoming, id)
	return removed
}

// reattachEdge restores a detached edge at its recorded positions.
func (g *Graph) reattachEdge(re removedEdge) {
	e := re.edge
	g.outgoing[e.Source] = insertEdgeAt(g.outgoing[e.Source], e, re.outIdx)
	g.incoming[e.Target] = insertEdgeAt(g.incoming[e.Target], e, re.inIdx)
}

func insertEdgeAt(edges []*Edge, e *Edge, idx int) []*Edge {
	if idx < 0 || idx > len(edges) {
		return append(edges, e)
	}
	edges = append(edges, nil)
	copy(edges[idx+1:], edges[idx:])
	edges[idx] = e
	return edges
}
