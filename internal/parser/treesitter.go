//go:build cgo

package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/tree"
)

// TreeSitterParser parses JavaScript in-process with tree-sitter and converts
// the concrete syntax tree into ESTree node kinds and field names.
type TreeSitterParser struct {
	maxSourceBytes int
}

// NewTreeSitterParser creates a tree-sitter backed parser.
func NewTreeSitterParser(maxSourceBytes int) *TreeSitterParser {
	return &TreeSitterParser{maxSourceBytes: maxSourceBytes}
}

// TreeSitterAvailable reports whether the tree-sitter backend is compiled in.
func TreeSitterAvailable() bool {
	return true
}

// Name implements Parser.
func (p *TreeSitterParser) Name() string { return BackendTreeSitter }

// Parse implements Parser. Sources containing syntax errors are rejected.
func (p *TreeSitterParser) Parse(ctx context.Context, source []byte) (*tree.Node, error) {
	if err := validateSource(ctx, source, p.maxSourceBytes); err != nil {
		return nil, err
	}

	// sitter.Parser is not safe for concurrent use; one per call.
	sp := sitter.NewParser()
	sp.SetLanguage(javascript.GetLanguage())

	ts, err := sp.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.ParseFailure, "tree-sitter parse", err)
	}
	root := ts.RootNode()
	if root == nil {
		return nil, parseFailure("tree-sitter returned no root node")
	}
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			pos := bad.StartPoint()
			return nil, parseFailure("syntax error at line %d, column %d", pos.Row+1, pos.Column)
		}
		return nil, parseFailure("syntax error")
	}
	if err := ctx.Err(); err != nil {
		return nil, mberrors.Wrap(mberrors.ParseFailure, "parse cancelled", err)
	}

	c := &converter{source: source}
	out := c.convert(root)
	if out == nil {
		return nil, parseFailure("empty program")
	}
	return out, nil
}

// firstError finds the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func locOf(n *sitter.Node) *tree.Location {
	start, end := n.StartPoint(), n.EndPoint()
	return &tree.Location{
		Start: tree.Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:   tree.Position{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.source)
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// hasToken reports whether n has an anonymous child with the given text.
func hasToken(n *sitter.Node, token string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}

// firstToken returns the type of the first anonymous child in set.
func firstToken(n *sitter.Node, set ...string) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		for _, s := range set {
			if child.Type() == s {
				return s
			}
		}
	}
	return ""
}

func fieldOperator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}
