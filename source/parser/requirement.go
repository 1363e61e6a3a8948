package parser

import (
	"regexp"
	"strings"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
)

// Regex patterns for requirement document parsing.
var (
	reqHeaderPattern     = regexp.MustCompile(`^###\s+Requirement:\s+(\S+)(?:\s*(?:—|:|-)\s*(.+))?$`)
	journeyHeaderPattern = regexp.MustCompile(`^###\s+Journey:\s+(\S+)(?:\s*(?:—|:|-)\s*(.+))?$`)
	statusLinePattern    = regexp.MustCompile(`(?i)^status:\s*(\S+)\s*$`)
	levelLinePattern     = regexp.MustCompile(`(?i)^level:\s*(\S+)\s*$`)
	assertionPattern     = regexp.MustCompile(`^\s*-\s+([A-Z])\.\s+(.+)$`)
	linkLinePattern      = regexp.MustCompile(`(?i)^(implements|refines|validates|addresses):\s*(.+)$`)
	sectionPattern       = regexp.MustCompile(`^##\s+([^#].*)$`)
)

// RequirementParser extracts requirement and user-journey blocks from
// requirement documents. A block starts at its header and extends to the
// next header or end of file; fixture lines inside the block were claimed
// earlier and stay out of the fragment.
type RequirementParser struct{}

// NewRequirementParser creates a requirement document parser.
func NewRequirementParser() *RequirementParser {
	return &RequirementParser{}
}

func (p *RequirementParser) Name() string { return "requirement" }

// Priority runs after the fixture parser so reference-like tokens inside
// fenced mock data are never live.
func (p *RequirementParser) Priority() int { return 80 }

func (p *RequirementParser) Applies(u *source.Unit) bool {
	return u.Domain == source.DomainRequirements
}

// Parse scans unclaimed lines for requirement/journey headers and builds
// one fragment per block.
func (p *RequirementParser) Parse(u *source.Unit, claims *Claims) ([]*Fragment, graph.Diagnostics) {
	lines := u.Lines()

	type header struct {
		line  int
		id    string
		title string
		kind  FragmentType
	}
	var headers []header
	for i, line := range lines {
		n := i + 1
		if claims.IsClaimed(n) {
			continue
		}
		if m := reqHeaderPattern.FindStringSubmatch(line); m != nil {
			headers = append(headers, header{line: n, id: m[1], title: strings.TrimSpace(m[2]), kind: FragmentRequirement})
		} else if m := journeyHeaderPattern.FindStringSubmatch(line); m != nil {
			headers = append(headers, header{line: n, id: m[1], title: strings.TrimSpace(m[2]), kind: FragmentUserJourney})
		}
	}
	if len(headers) == 0 {
		return nil, nil
	}

	var fragments []*Fragment
	var diags graph.Diagnostics

	for hi, h := range headers {
		blockEnd := len(lines)
		if hi < len(headers)-1 {
			blockEnd = headers[hi+1].line - 1
		}

		f := &Fragment{
			Type:  h.kind,
			ID:    h.id,
			Title: h.title,
			Lines: []int{h.line},
		}

		seenLabels := make(map[string]int)
		var bodyLines []string

		for n := h.line + 1; n <= blockEnd; n++ {
			if claims.IsClaimed(n) {
				continue
			}
			line := lines[n-1]
			f.Lines = append(f.Lines, n)

			switch {
			case statusLinePattern.MatchString(line):
				f.Status = strings.ToLower(statusLinePattern.FindStringSubmatch(line)[1])

			case levelLinePattern.MatchString(line):
				f.Level = strings.ToLower(levelLinePattern.FindStringSubmatch(line)[1])

			case assertionPattern.MatchString(line):
				m := assertionPattern.FindStringSubmatch(line)
				label := m[1]
				if prev, dup := seenLabels[label]; dup {
					diags.Add(parseWarning(u.Path, n,
						"duplicate assertion label %s in %s (first at line %d)", label, h.id, prev))
					continue
				}
				seenLabels[label] = n
				f.Assertions = append(f.Assertions, AssertionRecord{
					Label: label,
					Text:  strings.TrimSpace(m[2]),
					Line:  n,
				})

			case linkLinePattern.MatchString(line):
				m := linkLinePattern.FindStringSubmatch(line)
				kind, err := graph.ParseEdgeKind(m[1])
				if err != nil {
					diags.Add(parseWarning(u.Path, n, "unparseable relationship line: %v", err))
					continue
				}
				for _, target := range splitTargets(m[2]) {
					f.Links = append(f.Links, LinkRecord{Kind: kind, RawTarget: target, Line: n})
				}

			case sectionPattern.MatchString(line):
				m := sectionPattern.FindStringSubmatch(line)
				f.Sections = append(f.Sections, SectionRecord{Title: strings.TrimSpace(m[1]), Line: n})

			default:
				bodyLines = append(bodyLines, line)
			}
		}

		f.Body = joinBody(bodyLines)
		fragments = append(fragments, f)
		diags = append(diags, validateBlock(u.Path, f)...)
	}

	return fragments, diags
}

// validateBlock emits warnings for blocks the parser claimed but could
// not fully make sense of.
func validateBlock(unit string, f *Fragment) graph.Diagnostics {
	var diags graph.Diagnostics
	start, _ := f.Span()
	if f.ID == "" {
		diags.Add(parseWarning(unit, start, "requirement block without an identifier"))
	}
	if f.Title == "" {
		diags.Add(parseWarning(unit, start, "requirement %s has no title", f.ID))
	}
	return diags
}

// splitTargets splits a comma-separated reference list, dropping
// surrounding backticks and whitespace.
func splitTargets(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, "`")
		part = strings.TrimSuffix(part, ".")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
