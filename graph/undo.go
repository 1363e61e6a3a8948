package graph

import "fmt"

// UndoLast reverses the most recent mutation and returns its entry.
func (g *Graph) UndoLast() (*MutationEntry, error) {
	if len(g.log) == 0 {
		return nil, fmt.Errorf("undo: %w", ErrInvalidSequence)
	}
	entry := g.log[len(g.log)-1]
	g.reverse(entry)
	g.log = g.log[:len(g.log)-1]
	return entry, nil
}

// UndoTo reverses every entry back to and including the given sequence
// number, strictly newest-first. A sequence that is not in the log fails
// with ErrInvalidSequence before anything is reversed.
func (g *Graph) UndoTo(sequence uint64) ([]*MutationEntry, error) {
	found := false
	for _, e := range g.log {
		if e.Sequence == sequence {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("undo to %d: %w", sequence, ErrInvalidSequence)
	}

	var undone []*MutationEntry
	for {
		entry, err := g.UndoLast()
		if err != nil {
			return undone, err
		}
		undone = append(undone, entry)
		if entry.Sequence == sequence {
			return undone, nil
		}
	}
}

// reverse applies the inverse of one mutation entry. Entries are only ever
// reversed from the newest end of the log, so the graph state at reversal
// time equals the entry's post-state.
func (g *Graph) reverse(entry *MutationEntry) {
	b := entry.before
	switch entry.Kind {
	case MutRenameNode:
		g.rewriteID(b.newID, b.oldID)
		// Edges that referenced newID before the rename were never
		// part of it; the reverse rewrite dragged them along, so put
		// them back on newID.
		for _, e := range b.keptOut {
			e.Source = b.newID
			g.outgoing[b.oldID] = dropEdge(g.outgoing[b.oldID], e)
			g.outgoing[b.newID] = append(g.outgoing[b.newID], e)
		}
		for _, e := range b.keptIn {
			e.Target = b.newID
			g.incoming[b.oldID] = dropEdge(g.incoming[b.oldID], e)
			g.incoming[b.newID] = append(g.incoming[b.newID], e)
		}

	case MutUpdateField:
		if n, ok := g.nodes[b.oldID]; ok {
			setField(n, b.field, b.oldValue)
		}

	case MutAddRequirement:
		g.detachAllEdges(b.addedNodeID)
		g.removeNode(b.addedNodeID)

	case MutDeleteRequirement, MutDeleteAssertion:
		// Restore nodes first so edges reattach to present endpoints,
		// then edges in reverse removal order so positions line up.
		for i := len(b.nodes) - 1; i >= 0; i-- {
			rn := b.nodes[i]
			g.nodes[rn.node.ID] = rn.node
			g.order = insertIDAt(g.order, rn.node.ID, rn.orderIdx)
		}
		for i := len(b.edges) - 1; i >= 0; i-- {
			g.reattachEdge(b.edges[i])
		}

	case MutAddEdge:
		g.RemoveEdge(b.addedEdge)

	case MutChangeEdgeKind:
		if e, ok := g.FindEdge(b.changedSrc, b.changedDst, b.newKind); ok {
			e.Kind = b.oldKind
		}

	case MutDeleteEdge:
		for i := len(b.edges) - 1; i >= 0; i-- {
			g.reattachEdge(b.edges[i])
		}

	case MutAddAssertion:
		g.RemoveEdge(b.addedEdge)
		g.detachAllEdges(b.addedNodeID)
		g.removeNode(b.addedNodeID)
	}
}

func insertIDAt(ids []string, id string, idx int) []string {
	if idx < 0 || idx > len(ids) {
		return append(ids, id)
	}
	ids = append(ids, "")
	copy(ids[idx+1:], ids[idx:])
	ids[idx] = id
	return ids
}
