package builder

import (
	"fmt"
	"strings"

	"github.com/c360studio/tracegraph/graph"
)

// allowedRelationships lists the edge kinds each source kind may declare.
// A kind outside its row still produces an edge, plus a diagnostic: the
// reference is visible either way.
var allowedRelationships = map[graph.NodeKind][]graph.EdgeKind{
	graph.KindRequirement: {graph.EdgeImplements, graph.EdgeRefines, graph.EdgeAddresses},
	graph.KindUserJourney: {graph.EdgeImplements, graph.EdgeRefines, graph.EdgeAddresses},
	graph.KindCode:        {graph.EdgeImplements, graph.EdgeAddresses},
	graph.KindTest:        {graph.EdgeValidates, graph.EdgeAddresses},
	graph.KindTestResult:  {graph.EdgeAddresses},
}

// resolver consumes the graph's pending links exactly once, in ingestion
// order, turning each into a resolved edge, a broken-reference warning,
// or a suppressed info message when the unit declared an
// expected-broken-links budget.
type resolver struct {
	g    *graph.Graph
	opts Options

	// budgets holds the remaining expected-broken-links allowance per
	// unit path. Spent in file order.
	budgets map[string]int

	// index maps normalized ids to declared ids for tolerant lookup.
	index map[string]string
}

func newResolver(g *graph.Graph, opts Options, budgets map[string]int) *resolver {
	r := &resolver{g: g, opts: opts, budgets: budgets, index: make(map[string]string)}
	for n := range g.Nodes() {
		r.index[normalizeRef(n.ID)] = n.ID
	}
	return r
}

func (r *resolver) resolveAll() graph.Diagnostics {
	var diags graph.Diagnostics
	for _, pl := range r.g.TakePending() {
		diags = append(diags, r.resolve(pl)...)
	}
	return diags
}

func (r *resolver) resolve(pl *graph.PendingLink) graph.Diagnostics {
	var diags graph.Diagnostics

	target, labels, found := r.lookup(pl.RawTarget, pl.Labels)
	if !found {
		return r.unresolved(pl, pl.RawTarget)
	}

	r.checkKind(pl, target, &diags)

	if len(labels) == 0 {
		r.insertResolved(pl.SourceID, target, pl.Kind, "")
		return diags
	}

	// A suffixed reference expands to one edge per assertion, never one
	// composite edge. A missing assertion breaks only its own label.
	for _, label := range labels {
		aid := graph.AssertionID(target, label)
		if !r.g.Has(aid) {
			diags = append(diags, r.unresolved(pl, aid)...)
			continue
		}
		r.insertResolved(pl.SourceID, target, pl.Kind, label)
	}
	return diags
}

// lookup resolves a raw reference to a declared id, peeling single-letter
// assertion suffixes off the tail until the base matches a node. A match
// on an assertion node itself folds back to its parent requirement, so
// REQ-x-A and REQ-x with label A resolve identically.
func (r *resolver) lookup(raw string, labels []string) (string, []string, bool) {
	ref := strings.TrimSpace(raw)
	labels = append([]string(nil), labels...)
	for {
		if id, ok := r.index[normalizeRef(ref)]; ok {
			n, err := r.g.Node(id)
			if err == nil && n.Kind == graph.KindAssertion {
				parent, label := graph.AssertionLabel(id)
				return parent, append([]string{label}, labels...), true
			}
			return id, labels, true
		}
		base, label, ok := splitLabelSuffix(ref)
		if !ok {
			return "", nil, false
		}
		labels = append([]string{label}, labels...)
		ref = base
	}
}

// insertResolved adds the edge unless an identical one already exists.
// Expansion of A-B-C style references dedups per label.
func (r *resolver) insertResolved(src, dst string, kind graph.EdgeKind, label string) {
	for e := range r.g.Outgoing(src) {
		if e.Target != dst || e.Kind != kind {
			continue
		}
		if label == "" && len(e.AssertionLabels) == 0 {
			return
		}
		if len(e.AssertionLabels) == 1 && e.AssertionLabels[0] == label {
			return
		}
	}
	e := &graph.Edge{Source: src, Target: dst, Kind: kind, State: graph.StateResolved}
	if label != "" {
		e.AssertionLabels = []string{label}
	}
	r.g.InsertEdge(e)
}

// unresolved records a dangling reference: the edge is kept (state broken
// or suppressed) so the gap stays visible, and the diagnostic severity
// depends on the unit's remaining expected-broken-links budget.
func (r *resolver) unresolved(pl *graph.PendingLink, target string) graph.Diagnostics {
	var diags graph.Diagnostics
	state := graph.StateBroken
	unit := ""
	if pl.Loc != nil {
		unit = pl.Loc.File
	}
	if r.budgets[unit] > 0 {
		r.budgets[unit]--
		state = graph.StateSuppressed
		diags.Add(graph.Diagnostic{
			Severity: graph.SeverityInfo,
			Kind:     graph.DiagSuppressedReference,
			Message:  fmt.Sprintf("%s %s %s: target missing, suppressed by expected-broken-links", pl.SourceID, pl.Kind, target),
			IDs:      []string{pl.SourceID, target},
			Loc:      pl.Loc,
		})
	} else {
		diags.Add(graph.Diagnostic{
			Severity: graph.SeverityWarning,
			Kind:     graph.DiagBrokenReference,
			Message:  fmt.Sprintf("%s %s %s: target not found", pl.SourceID, pl.Kind, target),
			IDs:      []string{pl.SourceID, target},
			Loc:      pl.Loc,
		})
	}
	r.g.InsertEdge(&graph.Edge{Source: pl.SourceID, Target: target, Kind: pl.Kind, State: state})
	return diags
}

// checkKind validates the relationship kind against the source node's
// kind and, for requirement-to-requirement Implements, against the
// configured level table.
func (r *resolver) checkKind(pl *graph.PendingLink, target string, diags *graph.Diagnostics) {
	src, err := r.g.Node(pl.SourceID)
	if err != nil {
		return
	}
	if allowed, ok := allowedRelationships[src.Kind]; ok && !kindAllowed(allowed, pl.Kind) {
		diags.Add(graph.Diagnostic{
			Severity: graph.SeverityWarning,
			Kind:     graph.DiagInvalidRelationship,
			Message:  fmt.Sprintf("%s node %s may not declare %s", src.Kind, src.ID, pl.Kind),
			IDs:      []string{src.ID, target},
			Loc:      pl.Loc,
		})
	}

	if pl.Kind != graph.EdgeImplements || src.Kind != graph.KindRequirement {
		return
	}
	dst, err := r.g.Node(target)
	if err != nil || dst.Kind != graph.KindRequirement {
		return
	}
	levels, ok := r.opts.AllowedImplements[src.Level]
	if !ok {
		return
	}
	for _, l := range levels {
		if l == dst.Level {
			return
		}
	}
	diags.Add(graph.Diagnostic{
		Severity: graph.SeverityWarning,
		Kind:     graph.DiagInvalidRelationship,
		Message:  fmt.Sprintf("%s level %s may not implement %s level %s", src.ID, src.Level, dst.ID, dst.Level),
		IDs:      []string{src.ID, dst.ID},
		Loc:      pl.Loc,
	})
}

func kindAllowed(allowed []graph.EdgeKind, k graph.EdgeKind) bool {
	for _, a := range allowed {
		if a == k {
			return true
		}
	}
	return false
}

// normalizeRef makes reference matching tolerant of case, underscores,
// surrounding backticks, and trailing punctuation.
func normalizeRef(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimRight(s, ".,;:")
	s = strings.ReplaceAll(s, "_", "-")
	return strings.ToLower(s)
}

// splitLabelSuffix peels one trailing "-X" assertion label off a
// reference. Only single letters qualify; lowercase folds to upper, the
// same tolerance normalizeRef gives the base id.
func splitLabelSuffix(ref string) (base, label string, ok bool) {
	i := strings.LastIndex(ref, "-")
	if i <= 0 || i != len(ref)-2 {
		return "", "", false
	}
	c := ref[len(ref)-1]
	if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
		return "", "", false
	}
	return ref[:i], strings.ToUpper(string(c)), true
}
