package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/tracegraph/export"
	"github.com/c360studio/tracegraph/graph"
)

// editCmd applies structural mutations to a freshly built graph and
// optionally writes the result back out as RDF. The graph is in-memory,
// so an edit session is: build, mutate, export.
func editCmd(env *environment) *cobra.Command {
	var (
		confirm   bool
		outPath   string
		outFormat string
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply a structural mutation to the graph",
	}
	cmd.PersistentFlags().BoolVar(&confirm, "confirm", false, "Confirm destructive operations")
	cmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "Write the mutated graph as RDF to this file")
	cmd.PersistentFlags().StringVarP(&outFormat, "format", "f", string(export.FormatTurtle), "Output format (turtle, ntriples, jsonld)")

	// run builds the graph, applies one mutation, and reports the
	// audit entry.
	run := func(mutate func(g *graph.Graph) (*graph.MutationEntry, error)) error {
		cfg, err := env.loadConfig()
		if err != nil {
			return err
		}
		g, diags, err := assemble(cfg)
		if err != nil {
			return err
		}
		printDiagnostics(diags)

		entry, err := mutate(g)
		if err != nil {
			return err
		}
		fmt.Printf("applied %s (seq %d, entry %s): %s\n",
			entry.Kind, entry.Sequence, entry.EntryID, strings.Join(entry.AffectedIDs, ", "))

		if outPath != "" {
			out, err := export.NewExporter(export.ProfileMinimal).Export(g, export.Format(outFormat))
			if err != nil {
				return err
			}
			return os.WriteFile(outPath, []byte(out), 0644)
		}
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <old-id> <new-id>",
		Short: "Rename a node and rewire every referencing edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(g *graph.Graph) (*graph.MutationEntry, error) {
				return g.RenameNode(args[0], args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Update a node field (title, level, status, body)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(g *graph.Graph) (*graph.MutationEntry, error) {
				return g.UpdateField(args[0], args[1], args[2])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a requirement and its satellite children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(g *graph.Graph) (*graph.MutationEntry, error) {
				return g.DeleteRequirement(args[0], confirm)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-edge <source> <target> <kind>",
		Short: "Add an implements/refines/validates/addresses edge",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(g *graph.Graph) (*graph.MutationEntry, error) {
				return g.AddEdge(args[0], args[1], graph.EdgeKind(args[2]), nil)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-assertion <requirement-id> <label> <text>",
		Short: "Append an assertion to a requirement",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(g *graph.Graph) (*graph.MutationEntry, error) {
				return g.AddAssertion(args[0], args[1], args[2])
			})
		},
	})

	return cmd
}
