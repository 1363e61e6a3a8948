package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/c360studio/tracegraph/graph"
	"github.com/c360studio/tracegraph/source"
)

// Annotation patterns recognized inside comment blocks, after the
// comment markers are stripped.
var (
	codeDeclPattern    = regexp.MustCompile(`(?i)^code:\s*(\S+)(?:\s*(?:—|:|-)\s*(.+))?$`)
	testDeclPattern    = regexp.MustCompile(`(?i)^test:\s*(\S+)(?:\s*(?:—|:|-)\s*(.+))?$`)
	lineCommentPattern = regexp.MustCompile(`^\s*(//|#|--|;)`)
	testFuncPattern    = regexp.MustCompile(`^func\s+(Test\w+)\s*\(`)
)

// commentBlock is one contiguous comment group: claimed lines plus the
// marker-stripped text per line.
type commentBlock struct {
	start int
	lines []int
	text  []string
}

// extractCommentBlocks dispatches on file extension: Go via go/ast,
// Python via tree-sitter, everything else via a line-comment scan. The
// fallback also covers files whose language parser rejects them.
func extractCommentBlocks(u *source.Unit) ([]commentBlock, graph.Diagnostics) {
	var diags graph.Diagnostics
	switch strings.ToLower(filepath.Ext(u.Path)) {
	case ".go":
		blocks, err := goCommentBlocks(u)
		if err == nil {
			return blocks, nil
		}
		diags.Add(parseWarning(u.Path, 1, "go parse failed, falling back to line scan: %v", err))
	case ".py":
		blocks, err := pythonCommentBlocks(u)
		if err == nil {
			return blocks, nil
		}
		diags.Add(parseWarning(u.Path, 1, "python parse failed, falling back to line scan: %v", err))
	}
	return genericCommentBlocks(u), diags
}

// genericCommentBlocks groups consecutive line-comment lines.
func genericCommentBlocks(u *source.Unit) []commentBlock {
	lines := u.Lines()
	var blocks []commentBlock
	var cur *commentBlock
	for i, line := range lines {
		n := i + 1
		if !lineCommentPattern.MatchString(line) {
			cur = nil
			continue
		}
		if cur == nil {
			blocks = append(blocks, commentBlock{start: n})
			cur = &blocks[len(blocks)-1]
		}
		cur.lines = append(cur.lines, n)
		cur.text = append(cur.text, stripCommentMarker(line))
	}
	return blocks
}

// stripCommentMarker removes the leading comment token and surrounding
// block-comment punctuation from one line.
func stripCommentMarker(line string) string {
	s := strings.TrimSpace(line)
	for _, marker := range []string{"//", "/*", "#", "--", ";"} {
		if strings.HasPrefix(s, marker) {
			s = s[len(marker):]
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "*/")
	s = strings.TrimPrefix(strings.TrimSpace(s), "* ")
	return strings.TrimSpace(s)
}

// blockLinks extracts relationship keyword lines from stripped comment
// text.
func blockLinks(b commentBlock) []LinkRecord {
	var links []LinkRecord
	for i, text := range b.text {
		m := linkLinePattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		kind, err := graph.ParseEdgeKind(m[1])
		if err != nil {
			continue
		}
		for _, target := range splitTargets(m[2]) {
			links = append(links, LinkRecord{Kind: kind, RawTarget: target, Line: b.lines[i]})
		}
	}
	return links
}

// unclaimed reports whether the block still has at least one unclaimed
// line; a block partially claimed by a higher-priority parser is spent.
func (b commentBlock) unclaimed(claims *Claims) bool {
	for _, l := range b.lines {
		if claims.IsClaimed(l) {
			return false
		}
	}
	return len(b.lines) > 0
}

// CommentParser claims every remaining comment block in code and test
// units. Blocks declaring a Code annotation, or carrying relationship
// keywords, become code fragments; all other comment blocks are claimed
// without a fragment so stray reference-like tokens never leak to later
// parsers.
type CommentParser struct{}

// NewCommentParser creates the code comment parser.
func NewCommentParser() *CommentParser {
	return &CommentParser{}
}

func (p *CommentParser) Name() string { return "comment" }

// Priority runs below the test parser so test annotations in test units
// are consumed first.
func (p *CommentParser) Priority() int { return 90 }

func (p *CommentParser) Applies(u *source.Unit) bool {
	return u.Domain == source.DomainCode || u.Domain == source.DomainTest
}

func (p *CommentParser) Parse(u *source.Unit, claims *Claims) ([]*Fragment, graph.Diagnostics) {
	blocks, diags := extractCommentBlocks(u)

	var fragments []*Fragment
	for _, b := range blocks {
		if !b.unclaimed(claims) {
			continue
		}
		claims.ClaimAll(b.lines)

		links := blockLinks(b)
		var id, title string
		for _, text := range b.text {
			if m := codeDeclPattern.FindStringSubmatch(text); m != nil {
				id = m[1]
				title = strings.TrimSpace(m[2])
				break
			}
		}
		if id == "" {
			if len(links) == 0 {
				continue // claim-only: plain comment text
			}
			id = fmt.Sprintf("code:%s:%d", u.Path, b.start)
		}

		fragments = append(fragments, &Fragment{
			Type:  FragmentCode,
			ID:    id,
			Title: title,
			Body:  joinBody(b.text),
			Lines: append([]int(nil), b.lines...),
			Links: links,
		})
	}
	return fragments, diags
}
