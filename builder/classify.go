package builder

import (
	"fmt"

	"github.com/c360studio/tracegraph/graph"
)

// classify assigns the hierarchy role of every requirement and user
// journey. A node with a resolved Implements/Refines parent is a child.
// A parentless node is a root only when at least one of its children
// (Contains-children plus implementer sources) has a kind outside the
// satellite set; otherwise it is an orphan. Assertions alone never make
// a root: a requirement nothing implements and nothing tests is a gap,
// not an apex.
func classify(g *graph.Graph, opts Options) graph.Diagnostics {
	var diags graph.Diagnostics

	for n := range g.Nodes() {
		if n.Kind != graph.KindRequirement && n.Kind != graph.KindUserJourney {
			continue
		}
		if n.IsConflict {
			continue // conflicts stay orphans
		}

		if hasResolvedParent(g, n.ID) {
			n.Class = graph.ClassChild
			continue
		}

		if hasSubstantialChild(g, n.ID, opts) {
			n.Class = graph.ClassRoot
			continue
		}

		n.Class = graph.ClassOrphan
		severity := graph.SeverityWarning
		if opts.AllowOrphans {
			severity = graph.SeverityInfo
		}
		diags.Add(graph.Diagnostic{
			Severity: severity,
			Kind:     graph.DiagOrphan,
			Message:  fmt.Sprintf("%s has no parent and no substantial children", n.ID),
			IDs:      []string{n.ID},
			Loc:      n.Loc,
		})
	}

	// Contained nodes inherit the child role.
	for n := range g.Nodes() {
		if n.Kind != graph.KindAssertion && n.Kind != graph.KindRemainder {
			continue
		}
		if _, ok := g.ContainerOf(n.ID); ok {
			n.Class = graph.ClassChild
		}
	}
	return diags
}

func hasResolvedParent(g *graph.Graph, id string) bool {
	for e := range g.Outgoing(id) {
		if e.State != graph.StateResolved {
			continue
		}
		if e.Kind == graph.EdgeImplements || e.Kind == graph.EdgeRefines {
			return true
		}
	}
	return false
}

func hasSubstantialChild(g *graph.Graph, id string, opts Options) bool {
	for n := range g.Children(id) {
		if !opts.isSatellite(n.Kind) {
			return true
		}
	}
	for n := range g.Implementers(id) {
		if !opts.isSatellite(n.Kind) {
			return true
		}
	}
	return false
}
