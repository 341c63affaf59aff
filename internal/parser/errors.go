package parser

import "errors"

// ErrNoCGO is returned when the tree-sitter backend was compiled out.
var ErrNoCGO = errors.New("tree-sitter parsing requires CGO")
