package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/c360studio/tracegraph/builder"
	"github.com/c360studio/tracegraph/config"
	"github.com/c360studio/tracegraph/export"
	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/metrics"
	"github.com/c360studio/tracegraph/source"
)

// assemble runs the full scan-build-annotate sequence.
func assemble(cfg *config.Config) (*graph.Graph, graph.Diagnostics, error) {
	logger := slog.Default()

	scanner := source.NewScanner(cfg.Repo.Path, cfg.Scan, logger)
	units, err := scanner.Scan()
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", cfg.Repo.Path, err)
	}

	b := builder.New(cfg.BuildOptions(), logger)
	g, diags := b.Build(units)

	metrics.New(cfg.MetricsOptions(), logger).Annotate(g)
	return g, diags, nil
}

func printDiagnostics(diags graph.Diagnostics) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func buildCmd(env *environment) *cobra.Command {
	var failOnWarning bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the traceability graph and report diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			g, diags, err := assemble(cfg)
			if err != nil {
				return err
			}
			printDiagnostics(diags)

			kinds := make(map[graph.NodeKind]int)
			for n := range g.Nodes() {
				kinds[n.Kind]++
			}
			fmt.Printf("graph: %d nodes\n", g.Len())
			for _, k := range sortedKinds(kinds) {
				fmt.Printf("  %-12s %d\n", k, kinds[k])
			}

			if diags.HasErrors() {
				return fmt.Errorf("build completed with errors")
			}
			if failOnWarning && len(diags.BySeverity(graph.SeverityWarning)) > 0 {
				return fmt.Errorf("build completed with warnings")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnWarning, "fail-on-warning", false, "Exit non-zero when warnings were reported")
	return cmd
}

func sortedKinds(kinds map[graph.NodeKind]int) []graph.NodeKind {
	out := make([]graph.NodeKind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func reportCmd(env *environment) *cobra.Command {
	var rootsOnly bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the coverage rollup per requirement",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			g, diags, err := assemble(cfg)
			if err != nil {
				return err
			}
			printDiagnostics(diags)

			fmt.Printf("%-16s %-10s %10s %10s %10s %10s\n",
				"ID", "CLASS", "ASSERTS", "COVERED", "COV%", "PASS%")
			for n := range g.NodesByKind(graph.KindRequirement) {
				if rootsOnly && n.Class != graph.ClassRoot {
					continue
				}
				m := g.Metrics(n.ID)
				if m == nil {
					continue
				}
				fmt.Printf("%-16s %-10s %10d %10d %9.1f%% %9.1f%%\n",
					n.ID, n.Class, m.TotalAssertions, m.CoveredAssertions,
					m.CoveragePercent, m.PassPercent)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rootsOnly, "roots", false, "Only report root requirements")
	return cmd
}

func exportCmd(env *environment) *cobra.Command {
	var (
		format  string
		profile string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph as RDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			g, diags, err := assemble(cfg)
			if err != nil {
				return err
			}
			printDiagnostics(diags)

			out, err := export.NewExporter(export.Profile(profile)).Export(g, export.Format(format))
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				fmt.Print(out)
				return nil
			}
			return os.WriteFile(outPath, []byte(out), 0644)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatTurtle), "Output format (turtle, ntriples, jsonld)")
	cmd.Flags().StringVarP(&profile, "profile", "p", string(export.ProfileMinimal), "Ontology profile (minimal, bfo, cco)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "Output file (- for stdout)")
	return cmd
}
