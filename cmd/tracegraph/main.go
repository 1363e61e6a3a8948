// Package main provides the tracegraph binary entry point.
// Tracegraph builds a requirements-traceability graph from a source
// tree: requirement documents, annotated code and tests, and test
// result logs.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/tracegraph/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "tracegraph"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		repoPath   string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "tracegraph",
		Short: "Requirements traceability graph engine",
		Long: `Tracegraph scans a repository for requirement documents, annotated
code and tests, and test result logs, and assembles them into a
traceability graph with coverage rollup.

It provides:
- Requirement/assertion parsing with cross-reference resolution
- Coverage metrics per requirement (direct, explicit, inferred, indirect)
- RDF export, NATS publication, and a watch mode with live rebuilds`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(logLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&repoPath, "repo", "", "Repository path to operate on")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	env := &environment{configPath: &configPath, repoPath: &repoPath}

	cmd.AddCommand(buildCmd(env))
	cmd.AddCommand(reportCmd(env))
	cmd.AddCommand(exportCmd(env))
	cmd.AddCommand(publishCmd(env))
	cmd.AddCommand(watchCmd(env))
	cmd.AddCommand(fetchCmd(env))
	cmd.AddCommand(editCmd(env))

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.NewLoader(slog.Default()).EnsureUserConfig()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// environment carries the persistent flag values into subcommands.
type environment struct {
	configPath *string
	repoPath   *string
}

// loadConfig applies the layered loader, then the command line overrides.
func (e *environment) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if *e.configPath != "" {
		cfg, err = config.LoadFromFile(*e.configPath)
	} else {
		cfg, err = config.NewLoader(slog.Default()).Load()
	}
	if err != nil {
		return nil, err
	}

	if *e.repoPath != "" {
		cfg.Repo.Path = *e.repoPath
	}
	if cfg.Repo.Path == "" {
		cfg.Repo.Path, _ = os.Getwd()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
