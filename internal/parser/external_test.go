package parser

import (
	"context"
	"os/exec"
	"testing"
	"time"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/tree"
)

// catParser echoes the source back, so a source that is already ESTree JSON
// parses to itself.
func catParser(t *testing.T) *ExternalParser {
	t.Helper()
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	p, err := NewExternalParser([]string{"cat"}, time.Second, 0)
	if err != nil {
		t.Fatalf("NewExternalParser: %v", err)
	}
	return p
}

func TestExternalParser_DecodesOutput(t *testing.T) {
	p := catParser(t)
	src := `{"type":"Program","sourceType":"script","body":[{"type":"EmptyStatement","range":[0,1],"start":0,"end":1}]}`

	root, err := p.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if root.Kind != tree.Program {
		t.Fatalf("root kind = %q", root.Kind)
	}
	stmt := root.Children("body")[0]
	for _, name := range []string{"range", "start", "end"} {
		if _, ok := stmt.Fields[name]; ok {
			t.Errorf("position field %q was kept", name)
		}
	}
}

func TestExternalParser_Failures(t *testing.T) {
	tests := []struct {
		name    string
		command []string
		source  string
	}{
		{"non-zero exit", []string{"false"}, "x"},
		{"invalid json", []string{"cat"}, "var x = 1;"},
		{"missing binary", []string{"mbsearch-no-such-parser"}, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.command[0] != "mbsearch-no-such-parser" {
				if _, err := exec.LookPath(tt.command[0]); err != nil {
					t.Skipf("%s not available", tt.command[0])
				}
			}
			p, err := NewExternalParser(tt.command, time.Second, 0)
			if err != nil {
				t.Fatalf("NewExternalParser: %v", err)
			}
			_, err = p.Parse(context.Background(), []byte(tt.source))
			if !mberrors.HasCode(err, mberrors.ParseFailure) {
				t.Errorf("Parse error = %v, want PARSE_FAILURE", err)
			}
		})
	}
}

func TestExternalParser_Timeout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	p, err := NewExternalParser([]string{"sh", "-c", "sleep 5"}, 50*time.Millisecond, 0)
	if err != nil {
		t.Fatalf("NewExternalParser: %v", err)
	}
	start := time.Now()
	_, err = p.Parse(context.Background(), []byte("x"))
	if !mberrors.HasCode(err, mberrors.ParseFailure) {
		t.Errorf("Parse error = %v, want PARSE_FAILURE", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestExternalParser_Limits(t *testing.T) {
	p, err := NewExternalParser([]string{"cat"}, time.Second, 4)
	if err != nil {
		t.Fatalf("NewExternalParser: %v", err)
	}
	if _, err := p.Parse(context.Background(), []byte("too long")); !mberrors.HasCode(err, mberrors.ParseFailure) {
		t.Errorf("oversized source: err = %v", err)
	}
	if _, err := p.Parse(context.Background(), []byte{0xff}); !mberrors.HasCode(err, mberrors.ParseFailure) {
		t.Errorf("invalid utf-8: err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Parse(ctx, []byte("{}")); !mberrors.HasCode(err, mberrors.ParseFailure) {
		t.Errorf("cancelled context: err = %v", err)
	}
}

func TestNewExternalParser_Defaults(t *testing.T) {
	p, err := NewExternalParser(nil, 0, 0)
	if err != nil {
		t.Fatalf("NewExternalParser: %v", err)
	}
	if p.timeout != DefaultExternalTimeout {
		t.Errorf("timeout = %v", p.timeout)
	}
	if p.command[0] != "node" {
		t.Errorf("command = %v", p.command)
	}
	if _, err := NewExternalParser([]string{" "}, 0, 0); err == nil {
		t.Error("blank command should be rejected")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(Options{Backend: "acorn"}, nil); !mberrors.HasCode(err, mberrors.InvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
