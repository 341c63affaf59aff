package parser

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/tree"
)

// DefaultExternalCommand runs the bundled esprima wrapper. The source file
// path is appended as the last argument.
var DefaultExternalCommand = []string{"node", "scripts/esprima_parse.js"}

// DefaultExternalTimeout bounds one external parse.
const DefaultExternalTimeout = 10 * time.Second

// ExternalParser runs a command that reads a JavaScript file and prints its
// ESTree JSON on stdout (esprima.parseScript with loc enabled, or any
// compatible tool).
type ExternalParser struct {
	command        []string
	timeout        time.Duration
	maxSourceBytes int
}

// NewExternalParser creates a parser around command. An empty command falls
// back to DefaultExternalCommand.
func NewExternalParser(command []string, timeout time.Duration, maxSourceBytes int) (*ExternalParser, error) {
	if len(command) == 0 {
		command = DefaultExternalCommand
	}
	if strings.TrimSpace(command[0]) == "" {
		return nil, mberrors.New(mberrors.InvalidInput, "external parser command is empty")
	}
	if timeout <= 0 {
		timeout = DefaultExternalTimeout
	}
	return &ExternalParser{
		command:        append([]string(nil), command...),
		timeout:        timeout,
		maxSourceBytes: maxSourceBytes,
	}, nil
}

// Name implements Parser.
func (p *ExternalParser) Name() string {
	return BackendExternal + ":" + strings.Join(p.command, " ")
}

// Parse implements Parser.
func (p *ExternalParser) Parse(ctx context.Context, source []byte) (*tree.Node, error) {
	if err := validateSource(ctx, source, p.maxSourceBytes); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "mbsearch-*.js")
	if err != nil {
		return nil, mberrors.Wrap(mberrors.InternalError, "create temp source file", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(source); err != nil {
		f.Close()
		return nil, mberrors.Wrap(mberrors.InternalError, "write temp source file", err)
	}
	if err := f.Close(); err != nil {
		return nil, mberrors.Wrap(mberrors.InternalError, "close temp source file", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string(nil), p.command[1:]...), f.Name())
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, parseFailure("%s timed out after %s", p.command[0], p.timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, mberrors.Wrap(mberrors.ParseFailure, p.command[0]+": "+firstLine(msg), err)
	}

	root, err := tree.DecodeJSON(stdout.Bytes(), tree.WithPositionFields("start", "end"))
	if err != nil {
		return nil, mberrors.Wrap(mberrors.ParseFailure, "decode parser output", err)
	}
	return root, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
