// Package trace defines the RDF vocabulary for traceability graph
// export: class and predicate IRIs in the tracegraph namespace, plus the
// PROV-O/BFO/CCO alignment maps the export profiles select from.
package trace

import (
	"github.com/c360studio/tracegraph/graph"
)

// Namespace is the tracegraph ontology namespace.
const Namespace = "https://tracegraph.dev/ns#"

// EntityNamespace is the base IRI for exported graph entities.
const EntityNamespace = "https://tracegraph.dev/entity/"

// Tracegraph class IRIs, one per node kind.
const (
	ClassRequirement = Namespace + "Requirement"
	ClassAssertion   = Namespace + "Assertion"
	ClassCode        = Namespace + "CodeUnit"
	ClassTest        = Namespace + "Test"
	ClassTestResult  = Namespace + "TestResult"
	ClassUserJourney = Namespace + "UserJourney"
	ClassRemainder   = Namespace + "Narrative"
)

// PROV-O IRIs used by the alignment maps.
const (
	ProvEntity   = "http://www.w3.org/ns/prov#Entity"
	ProvActivity = "http://www.w3.org/ns/prov#Activity"

	ProvWasDerivedFrom  = "http://www.w3.org/ns/prov#wasDerivedFrom"
	ProvWasGeneratedBy  = "http://www.w3.org/ns/prov#wasGeneratedBy"
	ProvGeneratedAtTime = "http://www.w3.org/ns/prov#generatedAtTime"
)

// BFO IRIs used by the alignment maps.
const (
	BFOGenericallyDependentContinuant = "http://purl.obolibrary.org/obo/BFO_0000031"
	BFOProcess                        = "http://purl.obolibrary.org/obo/BFO_0000015"
	BFOHasPart                        = "http://purl.obolibrary.org/obo/BFO_0000051"
)

// CCO IRIs used by the alignment maps.
const (
	CCORequirement        = "http://www.ontologyrepository.com/CommonCoreOntologies/Requirement"
	CCOSoftwareCode       = "http://www.ontologyrepository.com/CommonCoreOntologies/SoftwareCode"
	CCOSpecification      = "http://www.ontologyrepository.com/CommonCoreOntologies/Specification"
	CCOInformationContent = "http://www.ontologyrepository.com/CommonCoreOntologies/InformationContentEntity"
	CCOActOfProcessing    = "http://www.ontologyrepository.com/CommonCoreOntologies/ActOfArtifactProcessing"
)

// Dublin Core and SKOS IRIs.
const (
	DCTitle      = "http://purl.org/dc/terms/title"
	DCSource     = "http://purl.org/dc/terms/source"
	DCIdentifier = "http://purl.org/dc/terms/identifier"

	SkosBroader = "http://www.w3.org/2004/02/skos/core#broader"
)

// TraceClassMap maps node kinds to tracegraph class IRIs.
var TraceClassMap = map[graph.NodeKind]string{
	graph.KindRequirement: ClassRequirement,
	graph.KindAssertion:   ClassAssertion,
	graph.KindCode:        ClassCode,
	graph.KindTest:        ClassTest,
	graph.KindTestResult:  ClassTestResult,
	graph.KindUserJourney: ClassUserJourney,
	graph.KindRemainder:   ClassRemainder,
}

// PROVClassMap maps node kinds to PROV-O class IRIs. Test results are
// the product of an activity; everything else is an information entity.
var PROVClassMap = map[graph.NodeKind]string{
	graph.KindRequirement: ProvEntity,
	graph.KindAssertion:   ProvEntity,
	graph.KindCode:        ProvEntity,
	graph.KindTest:        ProvEntity,
	graph.KindTestResult:  ProvActivity,
	graph.KindUserJourney: ProvEntity,
	graph.KindRemainder:   ProvEntity,
}

// BFOClassMap maps node kinds to BFO class IRIs.
var BFOClassMap = map[graph.NodeKind]string{
	graph.KindRequirement: BFOGenericallyDependentContinuant,
	graph.KindAssertion:   BFOGenericallyDependentContinuant,
	graph.KindCode:        BFOGenericallyDependentContinuant,
	graph.KindTest:        BFOGenericallyDependentContinuant,
	graph.KindTestResult:  BFOProcess,
	graph.KindUserJourney: BFOGenericallyDependentContinuant,
	graph.KindRemainder:   BFOGenericallyDependentContinuant,
}

// CCOClassMap maps node kinds to CCO class IRIs.
var CCOClassMap = map[graph.NodeKind]string{
	graph.KindRequirement: CCORequirement,
	graph.KindAssertion:   CCORequirement,
	graph.KindCode:        CCOSoftwareCode,
	graph.KindTest:        CCOSpecification,
	graph.KindTestResult:  CCOActOfProcessing,
	graph.KindUserJourney: CCOInformationContent,
	graph.KindRemainder:   CCOInformationContent,
}

// EdgePredicateMap maps edge kinds to predicate IRIs.
var EdgePredicateMap = map[graph.EdgeKind]string{
	graph.EdgeImplements: Namespace + "implements",
	graph.EdgeRefines:    Namespace + "refines",
	graph.EdgeValidates:  Namespace + "validates",
	graph.EdgeAddresses:  Namespace + "addresses",
	graph.EdgeContains:   BFOHasPart,
}

// PredicateIRI returns the IRI for an edge kind, falling back to the
// tracegraph namespace for unmapped kinds.
func PredicateIRI(kind graph.EdgeKind) string {
	if iri, ok := EdgePredicateMap[kind]; ok {
		return iri
	}
	return Namespace + string(kind)
}
