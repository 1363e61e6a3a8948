package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/c360studio/tracegraph/source"
)

// pythonCommentBlocks extracts comment runs from a Python unit using
// tree-sitter, so hash characters inside strings are never treated as
// comments. Consecutive comment lines merge into one block.
func pythonCommentBlocks(u *source.Unit) ([]commentBlock, error) {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())

	tree, err := p.ParseCtx(context.Background(), nil, []byte(u.Content))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var commentLines []int
	collectComments(tree.RootNode(), &commentLines)

	lines := u.Lines()
	var blocks []commentBlock
	var cur *commentBlock
	for _, n := range commentLines {
		if n < 1 || n > len(lines) {
			continue
		}
		if cur != nil && n == cur.lines[len(cur.lines)-1]+1 {
			cur.lines = append(cur.lines, n)
			cur.text = append(cur.text, stripCommentMarker(lines[n-1]))
			continue
		}
		blocks = append(blocks, commentBlock{})
		cur = &blocks[len(blocks)-1]
		cur.start = n
		cur.lines = []int{n}
		cur.text = []string{stripCommentMarker(lines[n-1])}
	}
	return blocks, nil
}

// collectComments walks every node, extras included, gathering the
// 1-based start line of each comment.
func collectComments(node *sitter.Node, out *[]int) {
	if node == nil {
		return
	}
	if node.Type() == "comment" {
		*out = append(*out, int(node.StartPoint().Row)+1)
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectComments(node.Child(i), out)
	}
}
