// Package config provides configuration loading and management for tracegraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/tracegraph/builder"
	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/metrics"
	"github.com/c360studio/tracegraph/source"
)

// Config represents the complete tracegraph configuration
type Config struct {
	Repo      RepoConfig         `yaml:"repo"`
	Scan      source.ScanRules   `yaml:"scan"`
	Watch     source.WatchConfig `yaml:"watch"`
	Build     BuildConfig        `yaml:"build"`
	Metrics   MetricsConfig      `yaml:"metrics"`
	Publish   PublishConfig      `yaml:"publish"`
	Telemetry TelemetryConfig    `yaml:"telemetry"`
	Fetch     FetchConfig        `yaml:"fetch"`
}

// RepoConfig configures the repository settings
type RepoConfig struct {
	// Path is the repository root path (auto-detected from git if empty)
	Path string `yaml:"path"`
}

// BuildConfig configures graph assembly.
type BuildConfig struct {
	// IDPattern validates declared requirement ids; the first capture
	// group is the level letter.
	IDPattern string `yaml:"id_pattern"`

	// Levels maps id level letters to level names.
	Levels map[string]string `yaml:"levels"`

	// AllowedImplements restricts Implements targets per source level.
	AllowedImplements map[string][]string `yaml:"allowed_implements"`

	// SatelliteKinds never make a parentless node a root on their own.
	SatelliteKinds []string `yaml:"satellite_kinds"`

	AllowCycles  bool `yaml:"allow_cycles"`
	AllowOrphans bool `yaml:"allow_orphans"`
}

// MetricsConfig configures the coverage rollup.
type MetricsConfig struct {
	// Strict excludes inferred coverage from the covered percentage.
	Strict bool `yaml:"strict"`

	// ExcludedStatuses lists statuses whose metrics never roll up.
	ExcludedStatuses []string `yaml:"excluded_statuses"`
}

// PublishConfig configures NATS entity publication.
type PublishConfig struct {
	// URL is the NATS server URL (empty = publication disabled)
	URL string `yaml:"url"`

	// SubjectPrefix prefixes every published subject.
	SubjectPrefix string `yaml:"subject_prefix"`
}

// TelemetryConfig configures the Prometheus endpoint in watch mode.
type TelemetryConfig struct {
	// Addr is the listen address for /metrics (empty = disabled).
	Addr string `yaml:"addr"`
}

// FetchConfig configures remote requirement-page ingestion.
type FetchConfig struct {
	// AllowPrivateHosts permits fetching from private address space.
	AllowPrivateHosts bool `yaml:"allow_private_hosts"`

	// MaxBodyBytes caps a fetched document's size.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Repo:  RepoConfig{Path: ""}, // Auto-detect
		Scan:  source.DefaultScanRules(),
		Watch: source.DefaultWatchConfig(),
		Build: BuildConfig{
			Levels: map[string]string{
				"p": "product",
				"d": "design",
				"c": "component",
			},
			SatelliteKinds: []string{
				string(graph.KindAssertion),
				string(graph.KindTestResult),
				string(graph.KindRemainder),
			},
		},
		Metrics: MetricsConfig{
			ExcludedStatuses: []string{
				string(graph.StatusDeprecated),
				string(graph.StatusSuperseded),
				string(graph.StatusDraft),
			},
		},
		Publish: PublishConfig{
			SubjectPrefix: "tracegraph",
		},
		Fetch: FetchConfig{
			MaxBodyBytes: 10 << 20,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Build.IDPattern != "" {
		if _, err := regexp.Compile(c.Build.IDPattern); err != nil {
			return fmt.Errorf("build.id_pattern is not a valid pattern: %w", err)
		}
	}
	if c.Watch.DebounceDelay != "" {
		if _, err := time.ParseDuration(c.Watch.DebounceDelay); err != nil {
			return fmt.Errorf("watch.debounce_delay is invalid: %w", err)
		}
	}
	for _, k := range c.Build.SatelliteKinds {
		if !graph.NodeKind(k).Valid() {
			return fmt.Errorf("build.satellite_kinds: unknown kind %q", k)
		}
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be positive")
	}
	return nil
}

// BuildOptions converts the build section into builder options.
func (c *Config) BuildOptions() builder.Options {
	opts := builder.DefaultOptions()
	if c.Build.IDPattern != "" {
		opts.IDPattern = regexp.MustCompile(c.Build.IDPattern)
	}
	if len(c.Build.Levels) > 0 {
		opts.LevelNames = c.Build.Levels
	}
	opts.AllowedImplements = c.Build.AllowedImplements
	if len(c.Build.SatelliteKinds) > 0 {
		opts.SatelliteKinds = nil
		for _, k := range c.Build.SatelliteKinds {
			opts.SatelliteKinds = append(opts.SatelliteKinds, graph.NodeKind(k))
		}
	}
	opts.AllowCycles = c.Build.AllowCycles
	opts.AllowOrphans = c.Build.AllowOrphans
	return opts
}

// MetricsOptions converts the metrics section into annotator options.
func (c *Config) MetricsOptions() metrics.Options {
	opts := metrics.DefaultOptions()
	opts.Strict = c.Metrics.Strict
	if len(c.Metrics.ExcludedStatuses) > 0 {
		opts.ExcludedStatuses = nil
		for _, s := range c.Metrics.ExcludedStatuses {
			opts.ExcludedStatuses = append(opts.ExcludedStatuses, graph.Status(s))
		}
	}
	return opts
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}

	if len(other.Scan.Requirements) > 0 {
		c.Scan.Requirements = other.Scan.Requirements
	}
	if len(other.Scan.Code) > 0 {
		c.Scan.Code = other.Scan.Code
	}
	if len(other.Scan.Tests) > 0 {
		c.Scan.Tests = other.Scan.Tests
	}
	if len(other.Scan.Results) > 0 {
		c.Scan.Results = other.Scan.Results
	}
	if len(other.Scan.Exclude) > 0 {
		c.Scan.Exclude = other.Scan.Exclude
	}

	if other.Watch.DebounceDelay != "" {
		c.Watch.DebounceDelay = other.Watch.DebounceDelay
	}
	if len(other.Watch.ExcludeDirs) > 0 {
		c.Watch.ExcludeDirs = other.Watch.ExcludeDirs
	}

	if other.Build.IDPattern != "" {
		c.Build.IDPattern = other.Build.IDPattern
	}
	if len(other.Build.Levels) > 0 {
		c.Build.Levels = other.Build.Levels
	}
	if len(other.Build.AllowedImplements) > 0 {
		c.Build.AllowedImplements = other.Build.AllowedImplements
	}
	if len(other.Build.SatelliteKinds) > 0 {
		c.Build.SatelliteKinds = other.Build.SatelliteKinds
	}
	if other.Build.AllowCycles {
		c.Build.AllowCycles = true
	}
	if other.Build.AllowOrphans {
		c.Build.AllowOrphans = true
	}

	if other.Metrics.Strict {
		c.Metrics.Strict = true
	}
	if len(other.Metrics.ExcludedStatuses) > 0 {
		c.Metrics.ExcludedStatuses = other.Metrics.ExcludedStatuses
	}

	if other.Publish.URL != "" {
		c.Publish.URL = other.Publish.URL
	}
	if other.Publish.SubjectPrefix != "" {
		c.Publish.SubjectPrefix = other.Publish.SubjectPrefix
	}

	if other.Telemetry.Addr != "" {
		c.Telemetry.Addr = other.Telemetry.Addr
	}

	if other.Fetch.AllowPrivateHosts {
		c.Fetch.AllowPrivateHosts = true
	}
	if other.Fetch.MaxBodyBytes != 0 {
		c.Fetch.MaxBodyBytes = other.Fetch.MaxBodyBytes
	}
}
