package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ScanRules configures corpus discovery. Patterns are doublestar globs
// relative to the scan root; a file's domain comes from the first
// matching domain list, checked test → results → requirements → code so
// *_test.go lands in the test domain before the code globs see it.
type ScanRules struct {
	Requirements []string `yaml:"requirements"`
	Code         []string `yaml:"code"`
	Tests        []string `yaml:"tests"`
	Results      []string `yaml:"results"`
	Exclude      []string `yaml:"exclude"`
}

// DefaultScanRules returns the conventional layout.
func DefaultScanRules() ScanRules {
	return ScanRules{
		Requirements: []string{"specifications/**/*.md", "requirements/**/*.md"},
		Code:         []string{"**/*.go", "**/*.py", "**/*.ts", "**/*.js", "**/*.java", "**/*.rs", "**/*.c", "**/*.h"},
		Tests:        []string{"**/*_test.go", "**/test_*.py", "**/*_test.py", "**/*.test.ts", "**/*.spec.ts"},
		Results:      []string{"**/test-results/**/*.txt", "**/*.testlog"},
		Exclude:      []string{".git/**", "node_modules/**", "vendor/**", "**/.tracegraph/**"},
	}
}

// Scanner walks a corpus root and produces source units.
type Scanner struct {
	root   string
	rules  ScanRules
	logger *slog.Logger
}

// NewScanner creates a scanner rooted at dir.
func NewScanner(dir string, rules ScanRules, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{root: dir, rules: rules, logger: logger}
}

// Scan reads every matching file into a unit. All content is loaded here,
// before ingestion begins; a file that fails to read is logged and
// skipped, never fatal for the corpus.
func (s *Scanner) Scan() ([]*Unit, error) {
	fsys := os.DirFS(s.root)

	matched := make(map[string]Domain)
	for _, set := range []struct {
		patterns []string
		domain   Domain
	}{
		{s.rules.Tests, DomainTest},
		{s.rules.Results, DomainResults},
		{s.rules.Requirements, DomainRequirements},
		{s.rules.Code, DomainCode},
	} {
		for _, pattern := range set.patterns {
			paths, err := doublestar.Glob(fsys, pattern)
			if err != nil {
				return nil, fmt.Errorf("glob %q: %w", pattern, err)
			}
			for _, p := range paths {
				if _, seen := matched[p]; !seen && !s.excluded(p) {
					matched[p] = set.domain
				}
			}
		}
	}

	paths := make([]string, 0, len(matched))
	for p := range matched {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	units := make([]*Unit, 0, len(paths))
	for _, p := range paths {
		if !regularFile(fsys, p) {
			continue
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			s.logger.Warn("skipping unreadable file", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		units = append(units, NewUnit(p, matched[p], string(content)))
	}

	s.logger.Debug("scan complete",
		slog.String("root", s.root),
		slog.Int("units", len(units)))
	return units, nil
}

// excluded reports whether path matches any exclude pattern.
func (s *Scanner) excluded(path string) bool {
	for _, pattern := range s.rules.Exclude {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func regularFile(fsys fs.FS, path string) bool {
	info, err := fs.Stat(fsys, path)
	return err == nil && info.Mode().IsRegular()
}

// ReadUnit loads a single file as a unit with an explicit domain. Used by
// the watcher for incremental rebuild triggers.
func ReadUnit(root, rel string, domain Domain) (*Unit, error) {
	content, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return nil, fmt.Errorf("read unit %q: %w", rel, err)
	}
	return NewUnit(rel, domain, string(content)), nil
}
