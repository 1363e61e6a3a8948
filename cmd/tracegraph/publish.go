package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/tracegraph/publish"
)

func publishCmd(env *environment) *cobra.Command {
	var natsURL string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Build the graph and publish it to NATS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			if natsURL != "" {
				cfg.Publish.URL = natsURL
			}
			if cfg.Publish.URL == "" {
				return fmt.Errorf("no NATS URL configured (set publish.url or --nats)")
			}

			g, diags, err := assemble(cfg)
			if err != nil {
				return err
			}
			printDiagnostics(diags)

			p, err := publish.Connect(cfg.Publish.URL, cfg.Publish.SubjectPrefix, nil)
			if err != nil {
				return err
			}
			defer p.Close()
			return p.PublishGraph(cmd.Context(), g)
		},
	}
	cmd.Flags().StringVar(&natsURL, "nats", "", "NATS server URL (overrides config)")
	return cmd
}
