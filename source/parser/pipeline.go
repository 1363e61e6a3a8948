package parser

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
)

// Claims is the shared claimed-lines set threaded through one pipeline
// run. Line numbers are 1-based. Once a line is claimed it is unavailable
// to every lower-priority parser.
type Claims struct {
	claimed []bool
}

// NewClaims creates a claim set for a unit with n lines.
func NewClaims(n int) *Claims {
	return &Claims{claimed: make([]bool, n+1)}
}

// IsClaimed reports whether line is already claimed.
func (c *Claims) IsClaimed(line int) bool {
	return line >= 1 && line < len(c.claimed) && c.claimed[line]
}

// Claim marks a single line as claimed.
func (c *Claims) Claim(line int) {
	if line >= 1 && line < len(c.claimed) {
		c.claimed[line] = true
	}
}

// ClaimAll marks a set of lines as claimed.
func (c *Claims) ClaimAll(lines []int) {
	for _, l := range lines {
		c.Claim(l)
	}
}

// Plugin is one registered parser. Parse scans only currently-unclaimed
// lines, claims what it matches, and emits fragments. A plugin that
// cannot make sense of a span emits a parse warning and continues; it
// never aborts the unit.
type Plugin interface {
	Name() string

	// Priority orders plugins, highest first.
	Priority() int

	// Applies reports whether this plugin runs for the unit at all.
	Applies(u *source.Unit) bool

	// Parse extracts fragments, claiming their lines.
	Parse(u *source.Unit, claims *Claims) ([]*Fragment, graph.Diagnostics)
}

// Pipeline runs registered plugins over one unit in descending priority,
// then folds unclaimed lines into remainder fragments.
type Pipeline struct {
	plugins []Plugin
	logger  *slog.Logger
}

// NewPipeline creates a pipeline with the default plugin set.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{logger: logger}
	p.Register(NewFixtureParser())
	p.Register(NewTestParser())
	p.Register(NewCommentParser())
	p.Register(NewRequirementParser())
	p.Register(NewResultParser())
	return p
}

// NewEmptyPipeline creates a pipeline with no plugins registered.
func NewEmptyPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger}
}

// Register adds a plugin, keeping descending priority order. Registration
// order breaks ties.
func (p *Pipeline) Register(plugin Plugin) {
	p.plugins = append(p.plugins, plugin)
	sort.SliceStable(p.plugins, func(i, j int) bool {
		return p.plugins[i].Priority() > p.plugins[j].Priority()
	})
}

// Run parses one unit. It always returns whatever fragments were
// extracted; parse problems surface as warning diagnostics, never as a
// failure of the unit.
func (p *Pipeline) Run(u *source.Unit) ([]*Fragment, graph.Diagnostics) {
	lines := u.Lines()
	claims := NewClaims(len(lines))

	var fragments []*Fragment
	var diags graph.Diagnostics

	for _, plugin := range p.plugins {
		if !plugin.Applies(u) {
			continue
		}
		frs, ds := plugin.Parse(u, claims)
		for _, f := range frs {
			f.Unit = u.Path
			sort.Ints(f.Lines)
			claims.ClaimAll(f.Lines)
		}
		fragments = append(fragments, frs...)
		diags = append(diags, ds...)
		p.logger.Debug("plugin ran",
			slog.String("plugin", plugin.Name()),
			slog.String("unit", u.Path),
			slog.Int("fragments", len(frs)))
	}

	fragments = append(fragments, foldRemainders(u, claims)...)

	sort.SliceStable(fragments, func(i, j int) bool {
		si, _ := fragments[i].Span()
		sj, _ := fragments[j].Span()
		return si < sj
	})
	return fragments, diags
}

// foldRemainders folds every unclaimed line into remainder fragments,
// one per maximal run of consecutive unclaimed lines. A file may yield
// many interleaved remainders.
func foldRemainders(u *source.Unit, claims *Claims) []*Fragment {
	lines := u.Lines()
	var out []*Fragment

	run := -1
	flush := func(end int) {
		if run < 0 {
			return
		}
		f := &Fragment{Type: FragmentRemainder, Unit: u.Path}
		var text []string
		for l := run; l <= end; l++ {
			f.Lines = append(f.Lines, l)
			text = append(text, lines[l-1])
		}
		f.Body = joinBody(text)
		out = append(out, f)
		run = -1
	}

	for l := 1; l <= len(lines); l++ {
		if claims.IsClaimed(l) {
			flush(l - 1)
			continue
		}
		if run < 0 {
			run = l
		}
	}
	flush(len(lines))
	return out
}

// parseWarning builds a parse-warning diagnostic for a unit line.
func parseWarning(unit string, line int, format string, args ...any) graph.Diagnostic {
	return graph.Diagnostic{
		Severity: graph.SeverityWarning,
		Kind:     graph.DiagParseWarning,
		Message:  fmt.Sprintf(format, args...),
		Loc:      &graph.SourceLocation{File: unit, StartLine: line, EndLine: line},
	}
}
