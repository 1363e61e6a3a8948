package builder

import (
	"fmt"
	"strings"

	"github.com/c360studio/tracegraph/graph"
)

// detectCycles walks the requirement hierarchy (resolved Implements and
// Refines edges only) and reports every cycle with its full path.
// Validates and Addresses edges never participate: a test naming its
// requirement is not a hierarchy loop.
func detectCycles(g *graph.Graph, opts Options) graph.Diagnostics {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var stack []string
	var diags graph.Diagnostics

	severity := graph.SeverityError
	if opts.AllowCycles {
		severity = graph.SeverityInfo
	}

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		for e := range g.Outgoing(id) {
			if e.State != graph.StateResolved {
				continue
			}
			if e.Kind != graph.EdgeImplements && e.Kind != graph.EdgeRefines {
				continue
			}
			switch color[e.Target] {
			case white:
				visit(e.Target)
			case gray:
				path := cyclePath(stack, e.Target)
				diags.Add(graph.Diagnostic{
					Severity: severity,
					Kind:     graph.DiagCycle,
					Message:  fmt.Sprintf("hierarchy cycle: %s", strings.Join(path, " -> ")),
					IDs:      path,
				})
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for n := range g.Nodes() {
		if color[n.ID] == white {
			visit(n.ID)
		}
	}
	return diags
}

// cyclePath slices the DFS stack from the back-edge target to the top,
// then closes the loop.
func cyclePath(stack []string, target string) []string {
	for i, id := range stack {
		if id == target {
			path := append([]string(nil), stack[i:]...)
			return append(path, target)
		}
	}
	return []string{target, target}
}
