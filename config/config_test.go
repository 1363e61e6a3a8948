package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Build.Levels["p"] != "product" {
		t.Errorf("expected level p = product, got %s", cfg.Build.Levels["p"])
	}
	if cfg.Build.Levels["c"] != "component" {
		t.Errorf("expected level c = component, got %s", cfg.Build.Levels["c"])
	}
	if len(cfg.Build.SatelliteKinds) != 3 {
		t.Errorf("expected 3 satellite kinds, got %d", len(cfg.Build.SatelliteKinds))
	}
	if cfg.Publish.SubjectPrefix != "tracegraph" {
		t.Errorf("expected subject prefix tracegraph, got %s", cfg.Publish.SubjectPrefix)
	}
	if cfg.Fetch.MaxBodyBytes != 10<<20 {
		t.Errorf("expected 10MiB body cap, got %d", cfg.Fetch.MaxBodyBytes)
	}
	if len(cfg.Scan.Requirements) == 0 {
		t.Error("expected default requirement globs")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "custom id pattern",
			modify:  func(c *Config) { c.Build.IDPattern = `^SPEC-([a-z])\d{4}$` },
			wantErr: false,
		},
		{
			name:    "invalid id pattern",
			modify:  func(c *Config) { c.Build.IDPattern = "[" },
			wantErr: true,
		},
		{
			name:    "invalid debounce delay",
			modify:  func(c *Config) { c.Watch.DebounceDelay = "soon" },
			wantErr: true,
		},
		{
			name:    "unknown satellite kind",
			modify:  func(c *Config) { c.Build.SatelliteKinds = []string{"widget"} },
			wantErr: true,
		},
		{
			name:    "non-positive body cap",
			modify:  func(c *Config) { c.Fetch.MaxBodyBytes = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tracegraph.yaml")

	content := `
repo:
  path: "/test/path"
build:
  id_pattern: "^SPEC-([a-z])\\d{4}$"
  allow_orphans: true
  levels:
    p: platform
metrics:
  strict: true
  excluded_statuses:
    - deprecated
publish:
  url: "nats://test:4222"
telemetry:
  addr: ":9102"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Repo.Path != "/test/path" {
		t.Errorf("expected repo path /test/path, got %s", cfg.Repo.Path)
	}
	if cfg.Build.IDPattern != `^SPEC-([a-z])\d{4}$` {
		t.Errorf("unexpected id pattern %q", cfg.Build.IDPattern)
	}
	if !cfg.Build.AllowOrphans {
		t.Error("expected allow_orphans true")
	}
	if cfg.Build.Levels["p"] != "platform" {
		t.Errorf("expected level p = platform, got %s", cfg.Build.Levels["p"])
	}
	if !cfg.Metrics.Strict {
		t.Error("expected strict metrics")
	}
	if cfg.Publish.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.Publish.URL)
	}
	if cfg.Telemetry.Addr != ":9102" {
		t.Errorf("expected telemetry addr :9102, got %s", cfg.Telemetry.Addr)
	}
	// Unset sections keep their defaults.
	if cfg.Fetch.MaxBodyBytes != 10<<20 {
		t.Errorf("expected default body cap, got %d", cfg.Fetch.MaxBodyBytes)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Repo: RepoConfig{Path: "/override/path"},
		Build: BuildConfig{
			IDPattern:   `^REQ-([a-z])\d+$`,
			AllowCycles: true,
		},
		Publish: PublishConfig{URL: "nats://override:4222"},
	}

	base.Merge(override)

	if base.Repo.Path != "/override/path" {
		t.Errorf("expected repo path /override/path, got %s", base.Repo.Path)
	}
	if base.Build.IDPattern != `^REQ-([a-z])\d+$` {
		t.Errorf("unexpected id pattern %q", base.Build.IDPattern)
	}
	if !base.Build.AllowCycles {
		t.Error("expected allow_cycles true after merge")
	}
	if base.Publish.URL != "nats://override:4222" {
		t.Errorf("expected overridden NATS URL, got %s", base.Publish.URL)
	}
	// Fields the override did not set remain from base.
	if base.Publish.SubjectPrefix != "tracegraph" {
		t.Errorf("expected subject prefix to remain default, got %s", base.Publish.SubjectPrefix)
	}
	if base.Build.Levels["d"] != "design" {
		t.Errorf("expected levels to remain default, got %v", base.Build.Levels)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "tracegraph.yaml")

	cfg := DefaultConfig()
	cfg.Repo.Path = "/saved/path"
	cfg.Metrics.Strict = true

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Repo.Path != "/saved/path" {
		t.Errorf("expected repo path /saved/path, got %s", loaded.Repo.Path)
	}
	if !loaded.Metrics.Strict {
		t.Error("expected strict metrics to survive the round trip")
	}
}

func TestLoaderEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	envPath := filepath.Join(t.TempDir(), "ci.yaml")
	if err := os.WriteFile(envPath, []byte("build:\n  allow_cycles: true\n"), 0644); err != nil {
		t.Fatalf("failed to write env config: %v", err)
	}
	t.Setenv(EnvConfig, envPath)
	t.Setenv(EnvRepo, "/srv/corpus")

	cfg, err := NewLoader(nil).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Build.AllowCycles {
		t.Error("env config should merge on top of the discovered layers")
	}
	if cfg.Repo.Path != "/srv/corpus" {
		t.Errorf("expected repo path /srv/corpus, got %s", cfg.Repo.Path)
	}
}

func TestLoaderEnvConfigMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := NewLoader(nil).Load(); err == nil {
		t.Error("a pinned env config that cannot be read should fail Load")
	}
}
