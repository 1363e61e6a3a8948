package parser

import (
	goparser "go/parser"
	"go/token"

	"github.com/c360studio/tracegraph/source"
)

// goCommentBlocks extracts comment groups from a Go source unit using the
// standard AST parser, so string literals that happen to contain
// reference-like tokens are never scanned.
func goCommentBlocks(u *source.Unit) ([]commentBlock, error) {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, u.Path, u.Content, goparser.ParseComments)
	if err != nil {
		return nil, err
	}

	lines := u.Lines()
	var blocks []commentBlock
	for _, group := range file.Comments {
		start := fset.Position(group.Pos()).Line
		end := fset.Position(group.End()).Line
		b := commentBlock{start: start}
		for n := start; n <= end && n <= len(lines); n++ {
			b.lines = append(b.lines, n)
			b.text = append(b.text, stripCommentMarker(lines[n-1]))
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
