// Package parser turns JavaScript source fragments into ESTree-shaped trees.
//
// Two backends exist: an in-process tree-sitter parser (cgo builds only) and
// an external command that prints esprima JSON. Either can be wrapped in a
// disk cache. Every failure is reported as a PARSE_FAILURE error.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/tree"
)

// Backend names.
const (
	BackendTreeSitter = "treesitter"
	BackendExternal   = "external"
)

// DefaultMaxSourceBytes bounds a single fragment.
const DefaultMaxSourceBytes = 1 << 20

// Parser parses one source fragment.
type Parser interface {
	Parse(ctx context.Context, source []byte) (*tree.Node, error)
	// Name identifies the backend; it is part of cache keys.
	Name() string
}

// Options selects and configures a backend.
type Options struct {
	Backend        string
	Command        []string
	Timeout        time.Duration
	MaxSourceBytes int
	CacheDir       string
}

// New builds the parser described by opts, wrapped in a disk cache when
// CacheDir is set.
func New(opts Options, logger *slog.Logger) (Parser, error) {
	if opts.MaxSourceBytes <= 0 {
		opts.MaxSourceBytes = DefaultMaxSourceBytes
	}

	var p Parser
	switch opts.Backend {
	case "", BackendTreeSitter:
		if !TreeSitterAvailable() {
			return nil, mberrors.Wrap(mberrors.InvalidInput,
				"treesitter backend unavailable in this build", ErrNoCGO)
		}
		p = NewTreeSitterParser(opts.MaxSourceBytes)
	case BackendExternal:
		ext, err := NewExternalParser(opts.Command, opts.Timeout, opts.MaxSourceBytes)
		if err != nil {
			return nil, err
		}
		p = ext
	default:
		return nil, mberrors.Newf(mberrors.InvalidInput, "unknown parser backend %q", opts.Backend)
	}

	if opts.CacheDir != "" {
		return NewCachingParser(p, opts.CacheDir, logger)
	}
	return p, nil
}

// validateSource checks limits shared by every backend.
func validateSource(ctx context.Context, source []byte, maxBytes int) error {
	if err := ctx.Err(); err != nil {
		return mberrors.Wrap(mberrors.ParseFailure, "parse cancelled", err)
	}
	if maxBytes > 0 && len(source) > maxBytes {
		return mberrors.Newf(mberrors.ParseFailure,
			"source is %d bytes, limit is %d", len(source), maxBytes)
	}
	if !utf8.Valid(source) {
		return mberrors.New(mberrors.ParseFailure, "source is not valid UTF-8")
	}
	return nil
}

func parseFailure(format string, args ...interface{}) error {
	return mberrors.New(mberrors.ParseFailure, fmt.Sprintf(format, args...))
}
