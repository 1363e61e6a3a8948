package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/vocabulary/trace"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// Exporter renders a traceability graph as RDF. Only resolved edges are
// exported; broken and suppressed references are diagnostics, not facts.
type Exporter struct {
	profile  Profile
	asserter *TypeAsserter
	prefixes map[string]string
}

// NewExporter creates an exporter with the specified ontology profile.
func NewExporter(profile Profile) *Exporter {
	return &Exporter{
		profile:  profile,
		asserter: NewTypeAsserter(profile),
		prefixes: defaultPrefixes(),
	}
}

// defaultPrefixes returns the standard namespace prefixes for RDF export.
func defaultPrefixes() map[string]string {
	return map[string]string{
		"rdf":    "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs":   "http://www.w3.org/2000/01/rdf-schema#",
		"xsd":    "http://www.w3.org/2001/XMLSchema#",
		"dc":     "http://purl.org/dc/terms/",
		"skos":   "http://www.w3.org/2004/02/skos/core#",
		"prov":   "http://www.w3.org/ns/prov#",
		"bfo":    "http://purl.obolibrary.org/obo/",
		"cco":    "http://www.ontologyrepository.com/CommonCoreOntologies/",
		"trace":  trace.Namespace,
		"entity": trace.EntityNamespace,
	}
}

// Export serializes the graph in the requested format.
func (e *Exporter) Export(g *graph.Graph, format Format) (string, error) {
	switch format {
	case FormatTurtle:
		return e.toTurtle(g), nil
	case FormatNTriples:
		return e.toNTriples(g), nil
	case FormatJSONLD:
		return e.toJSONLD(g), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// nodeProperties collects the literal predicates for one node.
func nodeProperties(n *graph.Node) []property {
	var props []property
	props = append(props, property{trace.DCIdentifier, n.ID})
	if n.Title != "" {
		props = append(props, property{trace.DCTitle, n.Title})
	}
	if n.Level != "" {
		props = append(props, property{trace.Namespace + "level", n.Level})
	}
	if n.Status != "" {
		props = append(props, property{trace.Namespace + "status", string(n.Status)})
	}
	if n.Label != "" {
		props = append(props, property{trace.Namespace + "label", n.Label})
	}
	if n.Outcome != "" {
		props = append(props, property{trace.Namespace + "outcome", string(n.Outcome)})
	}
	if n.Loc != nil {
		props = append(props, property{trace.DCSource, n.Loc.String()})
	}
	return props
}

type property struct {
	predicate string
	object    any
}

// nodeEdges collects the resolved edge predicates leaving one node.
func nodeEdges(g *graph.Graph, id string) []property {
	var props []property
	for e := range g.Outgoing(id) {
		if e.State != graph.StateResolved {
			continue
		}
		props = append(props, property{trace.PredicateIRI(e.Kind), iriRef(NodeIRI(e.Target))})
	}
	return props
}

// iriRef marks an object as an IRI reference rather than a literal.
type iriRef string

func (e *Exporter) toTurtle(g *graph.Graph) string {
	w := NewTurtleWriter()
	w.WritePrefixes()

	for n := range g.Nodes() {
		types := e.asserter.GetTypeIRIs(n.Kind)
		props := append(nodeProperties(n), nodeEdges(g, n.ID)...)

		w.WriteSubject(NodeIRI(n.ID))
		for i, t := range types {
			w.WriteType(t, i == len(types)-1 && len(props) == 0)
		}
		for i, p := range props {
			w.WritePredicate(p.predicate, p.object, i == len(props)-1)
		}
		w.WriteBlank()
	}
	return w.String()
}

func (e *Exporter) toNTriples(g *graph.Graph) string {
	w := NewNTriplesWriter()
	for n := range g.Nodes() {
		iri := NodeIRI(n.ID)
		for _, t := range e.asserter.GetTypeIRIs(n.Kind) {
			w.WriteTypeTriple(iri, t)
		}
		for _, p := range nodeProperties(n) {
			w.WriteTriple(iri, p.predicate, p.object)
		}
		for _, p := range nodeEdges(g, n.ID) {
			w.WriteTriple(iri, p.predicate, p.object)
		}
	}
	return w.String()
}

func (e *Exporter) toJSONLD(g *graph.Graph) string {
	w := NewJSONLDWriter()
	w.SetContext(e.prefixes)

	for n := range g.Nodes() {
		props := make(map[string]any)
		for _, p := range nodeProperties(n) {
			props[p.predicate] = jsonObject(p.object)
		}
		for _, p := range nodeEdges(g, n.ID) {
			key := p.predicate
			obj := jsonObject(p.object)
			switch existing := props[key].(type) {
			case nil:
				props[key] = obj
			case []any:
				props[key] = append(existing, obj)
			default:
				props[key] = []any{existing, obj}
			}
		}
		w.AddNode(NodeIRI(n.ID), e.asserter.GetTypeIRIs(n.Kind), props)
	}
	return w.String()
}

func jsonObject(obj any) any {
	if ref, ok := obj.(iriRef); ok {
		return map[string]any{"@id": string(ref)}
	}
	return obj
}

// NodeIRI converts a node id to its entity IRI. Ids may contain path
// separators and colons (minted code and text ids), so each segment is
// escaped.
func NodeIRI(id string) string {
	parts := strings.Split(id, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return trace.EntityNamespace + strings.Join(parts, "/")
}
