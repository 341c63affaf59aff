//go:build !cgo

package parser

import (
	"context"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/tree"
)

// TreeSitterParser is unavailable without cgo.
type TreeSitterParser struct{}

// NewTreeSitterParser returns nil when CGO is disabled.
func NewTreeSitterParser(maxSourceBytes int) *TreeSitterParser {
	return nil
}

// Name implements Parser.
func (p *TreeSitterParser) Name() string { return BackendTreeSitter }

// Parse always fails with ErrNoCGO.
func (p *TreeSitterParser) Parse(ctx context.Context, source []byte) (*tree.Node, error) {
	return nil, mberrors.Wrap(mberrors.ParseFailure, "treesitter backend unavailable", ErrNoCGO)
}

// TreeSitterAvailable returns false when CGO is disabled.
func TreeSitterAvailable() bool {
	return false
}
