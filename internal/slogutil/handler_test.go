package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z \[info\] Pattern mined \| pair=7 status=mined attempts=2\n$`)

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("Pattern mined", "pair", "7", "status", "mined", "attempts", 2)

	if !linePattern.MatchString(buf.String()) {
		t.Errorf("unexpected line %q", buf.String())
	}
}

func TestLineHandler_Levels(t *testing.T) {
	emit := func(l *slog.Logger) {
		l.Debug("d")
		l.Info("i")
		l.Warn("w")
		l.Error("e")
	}
	tests := []struct {
		min  slog.Level
		want []string
		skip []string
	}{
		{slog.LevelDebug, []string{"[debug] d", "[info] i", "[warn] w", "[error] e"}, nil},
		{slog.LevelWarn, []string{"[warn] w", "[error] e"}, []string{"[debug]", "[info]"}},
		{slog.LevelError, []string{"[error] e"}, []string{"[warn]"}},
		{LevelSilent, nil, []string{"[error]"}},
	}
	for _, tt := range tests {
		t.Run(tt.min.String(), func(t *testing.T) {
			var buf bytes.Buffer
			emit(NewLogger(&buf, tt.min))
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in %q", w, out)
				}
			}
			for _, s := range tt.skip {
				if strings.Contains(out, s) {
					t.Errorf("unexpected %q in %q", s, out)
				}
			}
		})
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"trace":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := LevelFromString(in); got != want {
			t.Errorf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		v     int
		quiet bool
		want  slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{4, false, slog.LevelDebug},
		{0, true, LevelSilent},
		{3, true, LevelSilent},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.v, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.v, tt.quiet, got, tt.want)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	l := NewDiscardLogger()
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled")
	}
	l.Error("dropped", "pair", "1")
}

func TestTeeHandler(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(NewTeeHandler(
		NewLineHandler(&console, &HandlerOptions{Level: slog.LevelWarn}),
		NewLineHandler(&file, &HandlerOptions{Level: slog.LevelDebug}),
	)).With("run", "r9")

	logger.Debug("Parse cache hit")
	logger.Warn("Query generation failed")

	if strings.Contains(console.String(), "cache hit") {
		t.Errorf("console got debug record: %s", console.String())
	}
	if !strings.Contains(console.String(), "Query generation failed | run=r9") {
		t.Errorf("console missing warning: %s", console.String())
	}
	if strings.Count(file.String(), "run=r9") != 2 {
		t.Errorf("file should carry both records: %s", file.String())
	}
}

func TestLineHandler_Quoting(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"plain", "k=plain"},
		{"two words", `k="two words"`},
		{"", `k=""`},
		{`say "hi"`, `k="say \"hi\""`},
		{"a=b", `k="a=b"`},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		NewLogger(&buf, slog.LevelInfo).Info("m", "k", tt.value)
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("value %q: expected %s in %s", tt.value, tt.want, buf.String())
		}
	}
}

func TestLineHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("run", "r1").WithGroup("pair")
	logger.Info("mined", "id", "p1", slog.Group("loc", "line", 3))

	out := buf.String()
	for _, want := range []string{"run=r1", "pair.id=p1", "pair.loc={line=3}"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestLineHandler_NoAttrs(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("done")
	if strings.Contains(buf.String(), "|") {
		t.Errorf("separator without attrs: %s", buf.String())
	}
}
