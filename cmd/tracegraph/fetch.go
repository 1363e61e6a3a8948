package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/tracegraph/webdoc"
)

func fetchCmd(env *environment) *cobra.Command {
	var (
		outPath string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a remote requirement page as markdown",
		Long: `Fetch an HTTPS requirement page, extract the article content, and
convert it to markdown suitable for the requirements corpus. Private
addresses are blocked unless fetch.allow_private_hosts is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}

			ing := webdoc.NewIngester(timeout, cfg.Fetch.MaxBodyBytes, cfg.Fetch.AllowPrivateHosts, nil)
			unit, err := ing.Ingest(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				fmt.Print(unit.Content)
				return nil
			}
			return os.WriteFile(outPath, []byte(unit.Content), 0644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Fetch timeout")
	return cmd
}
