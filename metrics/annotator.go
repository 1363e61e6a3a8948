// Package metrics computes the per-node coverage rollup: assertion
// coverage tiers, test outcome tallies, and derived percentages, written
// into the graph's metrics table in one post-order pass.
package metrics

import (
	"log/slog"

	"github.com/c360studio/tracegraph/graph"
)

// Options configures a rollup pass.
type Options struct {
	// ExcludedStatuses lists requirement statuses whose metrics never
	// fold into the parent.
	ExcludedStatuses []graph.Status

	// Strict excludes the inferred tier from covered-assertion counts, so
	// only direct and explicit coverage satisfies the percentage.
	Strict bool
}

// DefaultOptions returns the standard rollup configuration.
func DefaultOptions() Options {
	return Options{
		ExcludedStatuses: []graph.Status{
			graph.StatusDeprecated,
			graph.StatusSuperseded,
			graph.StatusDraft,
		},
	}
}

func (o Options) excluded(s graph.Status) bool {
	for _, x := range o.ExcludedStatuses {
		if x == s {
			return true
		}
	}
	return false
}

// Annotator writes rollup metrics for every node. Annotate is a full
// recompute: repeated runs on an unmodified graph produce identical
// values, and a run after any mutation reflects exactly the new
// structure.
type Annotator struct {
	opts   Options
	logger *slog.Logger
}

// New creates an annotator.
func New(opts Options, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{opts: opts, logger: logger}
}

// Annotate recomputes the metrics table from scratch.
func (a *Annotator) Annotate(g *graph.Graph) {
	g.ResetMetrics()
	r := &rollup{g: g, opts: a.opts, state: make(map[string]int)}
	for n := range g.Nodes() {
		r.compute(n)
	}
	a.logger.Debug("metrics annotated", slog.Int("nodes", g.Len()))
}

const (
	unvisited = 0
	visiting  = 1
	done      = 2
)

type rollup struct {
	g     *graph.Graph
	opts  Options
	state map[string]int
}

// compute memoizes one node's metrics, recursing into hierarchy children
// first. A cycle (when builds allow them) contributes zero rather than
// recursing forever.
func (r *rollup) compute(n *graph.Node) *graph.RollupMetrics {
	switch r.state[n.ID] {
	case done:
		return r.g.Metrics(n.ID)
	case visiting:
		return nil
	}
	r.state[n.ID] = visiting

	var m *graph.RollupMetrics
	switch n.Kind {
	case graph.KindAssertion:
		m = r.assertionMetrics(n)
	case graph.KindTest:
		m = r.testMetrics(n)
	case graph.KindRequirement, graph.KindUserJourney:
		m = r.requirementMetrics(n)
	default:
		m = &graph.RollupMetrics{}
	}
	m.Derive()

	r.g.SetMetrics(n.ID, m)
	r.state[n.ID] = done
	return m
}

// assertionMetrics classifies one assertion by its strongest coverage
// contribution. Labeled edges into the parent target this assertion
// specifically; whole-node edges cover it at the weaker tiers. Refines
// edges never contribute.
func (r *rollup) assertionMetrics(n *graph.Node) *graph.RollupMetrics {
	m := &graph.RollupMetrics{TotalAssertions: 1}

	parent, ok := r.g.ContainerOf(n.ID)
	if !ok {
		return m
	}

	var best graph.CoverageTier
	for e := range r.g.Incoming(parent.ID) {
		if e.State != graph.StateResolved {
			continue
		}
		tier := edgeTier(r.sourceKind(e), e, n.Label)
		if tier != "" && (best == "" || tier.Stronger(best)) {
			best = tier
		}
	}

	switch best {
	case graph.TierDirect:
		m.CoveredDirect = 1
		m.CoveredAssertions = 1
	case graph.TierExplicit:
		m.CoveredExplicit = 1
		m.CoveredAssertions = 1
	case graph.TierInferred:
		m.CoveredInferred = 1
		if !r.opts.Strict {
			m.CoveredAssertions = 1
		}
	case graph.TierIndirect:
		m.CoveredIndirect = 1
	}
	return m
}

func (r *rollup) sourceKind(e *graph.Edge) graph.NodeKind {
	n, err := r.g.Node(e.Source)
	if err != nil {
		return ""
	}
	return n.Kind
}

// edgeTier maps one incoming edge on the parent to the coverage tier it
// grants the assertion with the given label, or "" for no contribution.
// The tier depends on who makes the claim: direct and indirect require a
// Test source, explicit a Requirement; any other implementer lands at
// inferred.
func edgeTier(src graph.NodeKind, e *graph.Edge, label string) graph.CoverageTier {
	targeted := false
	for _, l := range e.AssertionLabels {
		if l == label {
			targeted = true
			break
		}
	}
	switch e.Kind {
	case graph.EdgeValidates:
		if src != graph.KindTest {
			return ""
		}
		if targeted {
			return graph.TierDirect
		}
		if len(e.AssertionLabels) == 0 {
			return graph.TierIndirect
		}
	case graph.EdgeImplements:
		if targeted {
			if src == graph.KindRequirement {
				return graph.TierExplicit
			}
			return graph.TierInferred
		}
		if len(e.AssertionLabels) == 0 {
			return graph.TierInferred
		}
	}
	return ""
}

// testMetrics counts the test itself plus the outcome of its linked
// result, when one was recorded.
func (r *rollup) testMetrics(n *graph.Node) *graph.RollupMetrics {
	m := &graph.RollupMetrics{TotalTests: 1}
	for e := range r.g.Incoming(n.ID) {
		if e.Kind != graph.EdgeAddresses || e.State != graph.StateResolved {
			continue
		}
		res, err := r.g.Node(e.Source)
		if err != nil || res.Kind != graph.KindTestResult {
			continue
		}
		switch res.Outcome {
		case graph.OutcomePass:
			m.PassedTests++
		case graph.OutcomeFail:
			m.FailedTests++
		case graph.OutcomeSkip:
			m.SkippedTests++
		}
	}
	return m
}

// requirementMetrics sums hierarchy children: contained assertions,
// implementing requirements, and validating tests, each counted once and
// skipped entirely when its status is excluded.
func (r *rollup) requirementMetrics(n *graph.Node) *graph.RollupMetrics {
	m := &graph.RollupMetrics{}
	counted := make(map[string]bool)

	fold := func(c *graph.Node) {
		if counted[c.ID] || r.opts.excluded(c.Status) {
			return
		}
		counted[c.ID] = true
		m.AddChild(r.compute(c))
	}

	for c := range r.g.Children(n.ID) {
		fold(c)
	}
	// Implements pulls the child subtree into the rollup; Refines adds
	// detail without contributing numbers.
	for e := range r.g.Incoming(n.ID) {
		if e.State != graph.StateResolved {
			continue
		}
		switch e.Kind {
		case graph.EdgeImplements:
			if c, err := r.g.Node(e.Source); err == nil {
				fold(c)
			}
		case graph.EdgeValidates:
			if t, err := r.g.Node(e.Source); err == nil && t.Kind == graph.KindTest {
				fold(t)
			}
		}
	}
	return m
}
