package graph

// CoverageTier is the confidence classification of a coverage contribution.
type CoverageTier string

const (
	// TierDirect: a test validates the assertion specifically.
	TierDirect CoverageTier = "direct"

	// TierExplicit: a child requirement implements that specific assertion.
	TierExplicit CoverageTier = "explicit"

	// TierInferred: a child implements the whole parent requirement.
	TierInferred CoverageTier = "inferred"

	// TierIndirect: a test validates the whole parent with no assertion
	// target. Tracked as a separate percentage from strict coverage.
	TierIndirect CoverageTier = "indirect"
)

// rank orders tiers so an assertion counts only its strongest contribution.
func (t CoverageTier) rank() int {
	switch t {
	case TierDirect:
		return 4
	case TierExplicit:
		return 3
	case TierInferred:
		return 2
	case TierIndirect:
		return 1
	}
	return 0
}

// Stronger reports whether t outranks other.
func (t CoverageTier) Stronger(other CoverageTier) bool {
	return t.rank() > other.rank()
}

// RollupMetrics is the per-node aggregate record written by the annotator.
// It is always fully recomputed, never hand-patched; repeated runs on an
// unmodified graph produce identical values.
type RollupMetrics struct {
	TotalAssertions   int `json:"total_assertions"`
	CoveredDirect     int `json:"covered_direct"`
	CoveredExplicit   int `json:"covered_explicit"`
	CoveredInferred   int `json:"covered_inferred"`
	CoveredIndirect   int `json:"covered_indirect"`
	CoveredAssertions int `json:"covered_assertions"`

	TotalTests   int `json:"total_tests"`
	PassedTests  int `json:"passed_tests"`
	FailedTests  int `json:"failed_tests"`
	SkippedTests int `json:"skipped_tests"`

	CoveragePercent float64 `json:"coverage_percent"`
	IndirectPercent float64 `json:"indirect_percent"`
	PassPercent     float64 `json:"pass_percent"`
}

// AddChild folds a child's counters into the parent's.
func (m *RollupMetrics) AddChild(c *RollupMetrics) {
	if c == nil {
		return
	}
	m.TotalAssertions += c.TotalAssertions
	m.CoveredDirect += c.CoveredDirect
	m.CoveredExplicit += c.CoveredExplicit
	m.CoveredInferred += c.CoveredInferred
	m.CoveredIndirect += c.CoveredIndirect
	m.CoveredAssertions += c.CoveredAssertions
	m.TotalTests += c.TotalTests
	m.PassedTests += c.PassedTests
	m.FailedTests += c.FailedTests
	m.SkippedTests += c.SkippedTests
}

// Derive computes the percentage fields from the counters.
func (m *RollupMetrics) Derive() {
	m.CoveragePercent = percent(m.CoveredAssertions, m.TotalAssertions)
	m.IndirectPercent = percent(m.CoveredIndirect, m.TotalAssertions)
	m.PassPercent = percent(m.PassedTests, m.TotalTests)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
