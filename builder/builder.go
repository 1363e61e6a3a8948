// Package builder assembles the traceability graph from parsed source
// units: a node pass that materializes fragments, a resolution pass that
// turns pending links into edges, cycle detection over the requirement
// hierarchy, and root/orphan classification.
package builder

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
	"github.com/c360studio/tracegraph/source/parser"
)

// defaultIDPattern accepts ids like REQ-p00001: a prefix, a level letter,
// and a numeric tail. The level letter is captured for level derivation.
var defaultIDPattern = regexp.MustCompile(`^[A-Za-z]+-([a-z])\d+$`)

// Options configures a build. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// IDPattern validates declared requirement ids. Its first capture
	// group, when present, is the level letter.
	IDPattern *regexp.Regexp

	// LevelNames maps a level letter from the id to a level name.
	LevelNames map[string]string

	// AllowedImplements restricts which level an Implements edge between
	// requirements may target, keyed by the source level name. A level
	// absent from the map is unrestricted.
	AllowedImplements map[string][]string

	// SatelliteKinds never make a parentless node a root on their own.
	SatelliteKinds []graph.NodeKind

	// AllowCycles downgrades hierarchy cycles from errors to info.
	AllowCycles bool

	// AllowOrphans downgrades orphan diagnostics from warnings to info.
	AllowOrphans bool
}

// DefaultOptions returns the standard build configuration.
func DefaultOptions() Options {
	return Options{
		IDPattern: defaultIDPattern,
		LevelNames: map[string]string{
			"p": "product",
			"d": "design",
			"c": "component",
		},
		SatelliteKinds: []graph.NodeKind{
			graph.KindAssertion,
			graph.KindTestResult,
			graph.KindRemainder,
		},
	}
}

func (o Options) isSatellite(k graph.NodeKind) bool {
	for _, s := range o.SatelliteKinds {
		if s == k {
			return true
		}
	}
	return false
}

// Builder turns scanned units into a fully resolved, classified graph.
type Builder struct {
	pipeline *parser.Pipeline
	opts     Options
	logger   *slog.Logger
}

// New creates a builder with the default parser pipeline.
func New(opts Options, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		pipeline: parser.NewPipeline(logger),
		opts:     opts,
		logger:   logger,
	}
}

// Build runs the full pass sequence over units, in unit order: parse,
// materialize nodes and pending links, resolve references, detect
// hierarchy cycles, classify roots and orphans. Problems surface as
// diagnostics; the graph is always returned.
func (b *Builder) Build(units []*source.Unit) (*graph.Graph, graph.Diagnostics) {
	g := graph.New()
	var diags graph.Diagnostics

	budgets := make(map[string]int)
	for _, u := range units {
		budgets[u.Path] = u.ExpectedBrokenLinks()

		fragments, ds := b.pipeline.Run(u)
		diags = append(diags, ds...)
		b.ingestUnit(g, u, fragments, &diags)
	}

	r := newResolver(g, b.opts, budgets)
	diags = append(diags, r.resolveAll()...)

	diags = append(diags, detectCycles(g, b.opts)...)
	diags = append(diags, classify(g, b.opts)...)

	b.logger.Info("graph built",
		slog.Int("units", len(units)),
		slog.Int("nodes", g.Len()),
		slog.Int("diagnostics", len(diags)))
	return g, diags
}

// ingestUnit materializes one unit's fragments. Requirement blocks gain
// their assertion and enclosed-content children as Contains edges in
// ascending source-line order.
func (b *Builder) ingestUnit(g *graph.Graph, u *source.Unit, fragments []*parser.Fragment, diags *graph.Diagnostics) {
	// Requirement headers first, so enclosed fixtures and remainders can
	// find their container regardless of fragment order. Contains edges
	// are deferred until all children exist, then inserted in ascending
	// source-line order.
	type child struct {
		id   string
		line int
	}
	type block struct {
		id         string
		start, end int
		conflict   bool
		children   []child
	}
	var blocks []*block

	for _, f := range fragments {
		switch f.Type {
		case parser.FragmentRequirement, parser.FragmentUserJourney:
			n := b.requirementNode(f)
			start, end := f.Span()
			blk := &block{id: n.ID, start: start, end: end}
			blocks = append(blocks, blk)
			if b.insert(g, n, diags) {
				blk.conflict = true
				continue
			}
			b.validateID(f, diags)

			for _, a := range f.Assertions {
				an := &graph.Node{
					ID:    graph.AssertionID(n.ID, a.Label),
					Kind:  graph.KindAssertion,
					Label: a.Label,
					Body:  a.Text,
					Hash:  graph.Fingerprint(a.Text),
					Loc:   &graph.SourceLocation{File: u.Path, StartLine: a.Line, EndLine: a.Line},
				}
				if b.insert(g, an, diags) {
					continue
				}
				blk.children = append(blk.children, child{id: an.ID, line: a.Line})
			}
			b.registerLinks(g, n.ID, u.Path, f.Links)

		case parser.FragmentCode, parser.FragmentTest:
			kind := graph.KindCode
			if f.Type == parser.FragmentTest {
				kind = graph.KindTest
			}
			n := &graph.Node{
				ID:    f.ID,
				Kind:  kind,
				Title: f.Title,
				Body:  f.Body,
				Hash:  graph.Fingerprint(f.Body),
				Loc:   f.Location(),
			}
			if b.insert(g, n, diags) {
				continue
			}
			b.registerLinks(g, n.ID, u.Path, f.Links)

		case parser.FragmentResult:
			n := &graph.Node{
				ID:       f.ID,
				Kind:     graph.KindTestResult,
				Title:    f.Title,
				Outcome:  graph.ResultOutcome(f.Outcome),
				Duration: f.Duration,
				Loc:      f.Location(),
			}
			if b.insert(g, n, diags) {
				continue
			}
			b.registerLinks(g, n.ID, u.Path, f.Links)
		}
	}

	// Second pass: fixtures and remainders. Only requirement documents
	// materialize narrative text; unclaimed code lines stay out of the
	// graph.
	if u.Domain == source.DomainRequirements {
		for _, f := range fragments {
			if f.Type != parser.FragmentFixture && f.Type != parser.FragmentRemainder {
				continue
			}
			start, end := f.Span()
			n := &graph.Node{
				ID:   fmt.Sprintf("text:%s:%d", u.Path, start),
				Kind: graph.KindRemainder,
				Body: f.Body,
				Hash: graph.Fingerprint(f.Body),
				Loc:  f.Location(),
			}
			if b.insert(g, n, diags) {
				continue
			}
			for _, blk := range blocks {
				if blk.conflict || start < blk.start || end > blk.end {
					continue
				}
				blk.children = append(blk.children, child{id: n.ID, line: start})
				break
			}
		}
	}

	for _, blk := range blocks {
		if blk.conflict {
			continue
		}
		sort.Slice(blk.children, func(i, j int) bool {
			return blk.children[i].line < blk.children[j].line
		})
		for _, c := range blk.children {
			g.InsertEdge(&graph.Edge{
				Source: blk.id, Target: c.id,
				Kind: graph.EdgeContains, State: graph.StateResolved,
			})
		}
	}
}

// insert applies the duplicate policy: the first declaration wins the id,
// the duplicate is retained as a conflict node and reported. Returns true
// when the node went in as a conflict.
func (b *Builder) insert(g *graph.Graph, n *graph.Node, diags *graph.Diagnostics) bool {
	if err := g.CreateNode(n); err == nil {
		return false
	}
	original, _ := g.Node(n.ID)
	id := n.ID
	g.CreateConflict(n)
	diags.Add(graph.Diagnostic{
		Severity: graph.SeverityWarning,
		Kind:     graph.DiagDuplicateID,
		Message: fmt.Sprintf("duplicate id %s: original at %s, duplicate retained as %s",
			id, original.Loc.String(), n.ID),
		IDs: []string{id, n.ID},
		Loc: n.Loc,
	})
	return true
}

func (b *Builder) requirementNode(f *parser.Fragment) *graph.Node {
	kind := graph.KindRequirement
	if f.Type == parser.FragmentUserJourney {
		kind = graph.KindUserJourney
	}
	status := graph.Status(f.Status)
	if status == "" {
		status = graph.StatusActive
	}
	return &graph.Node{
		ID:     f.ID,
		Kind:   kind,
		Title:  f.Title,
		Level:  b.levelOf(f),
		Status: status,
		Body:   f.Body,
		Hash:   graph.Fingerprint(f.Body),
		Loc:    f.Location(),
	}
}

// levelOf prefers the declared Level line, falling back to the level
// letter captured from the id.
func (b *Builder) levelOf(f *parser.Fragment) string {
	if f.Level != "" {
		return f.Level
	}
	if b.opts.IDPattern == nil {
		return ""
	}
	m := b.opts.IDPattern.FindStringSubmatch(f.ID)
	if len(m) < 2 {
		return ""
	}
	return b.opts.LevelNames[m[1]]
}

func (b *Builder) validateID(f *parser.Fragment, diags *graph.Diagnostics) {
	if b.opts.IDPattern == nil || b.opts.IDPattern.MatchString(f.ID) {
		return
	}
	diags.Add(graph.Diagnostic{
		Severity: graph.SeverityWarning,
		Kind:     graph.DiagParseWarning,
		Message:  fmt.Sprintf("id %s does not match the id grammar", f.ID),
		IDs:      []string{f.ID},
		Loc:      f.Location(),
	})
}

func (b *Builder) registerLinks(g *graph.Graph, sourceID, unit string, links []parser.LinkRecord) {
	for _, l := range links {
		g.Link(sourceID, l.RawTarget, l.Kind, nil,
			&graph.SourceLocation{File: unit, StartLine: l.Line, EndLine: l.Line})
	}
}
