// Package export renders the traceability graph as RDF with selectable
// ontology profiles and serialization formats.
package export

import (
	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/vocabulary/trace"
)

// Profile determines which ontology type assertions are included in the export.
type Profile string

const (
	// ProfileMinimal includes only PROV-O, Dublin Core, and tracegraph predicates.
	ProfileMinimal Profile = "minimal"

	// ProfileBFO includes BFO type assertions plus minimal profile.
	ProfileBFO Profile = "bfo"

	// ProfileCCO includes CCO type assertions plus BFO profile.
	ProfileCCO Profile = "cco"
)

// ProfileConfig contains configuration for an export profile.
type ProfileConfig struct {
	// Name is the profile identifier.
	Name Profile

	// Description describes the profile.
	Description string

	// IncludeBFO indicates whether to include BFO type assertions.
	IncludeBFO bool

	// IncludeCCO indicates whether to include CCO type assertions.
	IncludeCCO bool

	// IncludePROV indicates whether to include PROV-O type assertions.
	IncludePROV bool
}

// Profiles contains the configuration for all available export profiles.
var Profiles = map[Profile]ProfileConfig{
	ProfileMinimal: {
		Name:        ProfileMinimal,
		Description: "PROV-O, Dublin Core, and tracegraph predicates only",
		IncludePROV: true,
	},
	ProfileBFO: {
		Name:        ProfileBFO,
		Description: "BFO type assertions plus minimal profile",
		IncludeBFO:  true,
		IncludePROV: true,
	},
	ProfileCCO: {
		Name:        ProfileCCO,
		Description: "Full CCO/BFO/PROV-O alignment",
		IncludeBFO:  true,
		IncludeCCO:  true,
		IncludePROV: true,
	},
}

// GetProfileConfig returns the configuration for a profile.
func GetProfileConfig(profile Profile) ProfileConfig {
	if config, ok := Profiles[profile]; ok {
		return config
	}
	return Profiles[ProfileMinimal]
}

// TypeAsserter generates type assertions for nodes based on profile.
type TypeAsserter struct {
	profile ProfileConfig
}

// NewTypeAsserter creates a new type asserter for the given profile.
func NewTypeAsserter(profile Profile) *TypeAsserter {
	return &TypeAsserter{
		profile: GetProfileConfig(profile),
	}
}

// GetTypeIRIs returns all type IRIs for a node kind based on the profile.
// The tracegraph class is always included.
func (t *TypeAsserter) GetTypeIRIs(kind graph.NodeKind) []string {
	types := make([]string, 0, 4)

	if traceClass, ok := trace.TraceClassMap[kind]; ok {
		types = append(types, traceClass)
	}
	if t.profile.IncludePROV {
		if provClass, ok := trace.PROVClassMap[kind]; ok {
			types = append(types, provClass)
		}
	}
	if t.profile.IncludeBFO {
		if bfoClass, ok := trace.BFOClassMap[kind]; ok {
			types = append(types, bfoClass)
		}
	}
	if t.profile.IncludeCCO {
		if ccoClass, ok := trace.CCOClassMap[kind]; ok {
			types = append(types, ccoClass)
		}
	}
	return types
}

// TypeHierarchy represents the ontology type hierarchy for a node kind.
type TypeHierarchy struct {
	// TraceClass is the tracegraph-specific class.
	TraceClass string

	// PROVClass is the PROV-O class.
	PROVClass string

	// BFOClass is the BFO class.
	BFOClass string

	// CCOClass is the CCO class.
	CCOClass string
}

// GetTypeHierarchy returns the full type hierarchy for a node kind.
func GetTypeHierarchy(kind graph.NodeKind) TypeHierarchy {
	return TypeHierarchy{
		TraceClass: trace.TraceClassMap[kind],
		PROVClass:  trace.PROVClassMap[kind],
		BFOClass:   trace.BFOClassMap[kind],
		CCOClass:   trace.CCOClassMap[kind],
	}
}
