package testutil

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// go test ./internal/query -run TestGenerate -update
var updateGolden = flag.Bool("update", false, "rewrite golden files from current output")

// ShouldUpdate reports whether -update was passed.
func ShouldUpdate() bool {
	return *updateGolden
}

// GoldenPath returns testdata/golden/<name>.
func GoldenPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testdataRoot(t), "golden", name)
}

// CompareGolden checks got against testdata/golden/<name> after normalizing
// CRLF line endings. With -update the file is rewritten instead.
func CompareGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	got = bytes.ReplaceAll(got, []byte("\r\n"), []byte("\n"))
	path := GoldenPath(t, name)

	if *updateGolden {
		UpdateGolden(t, name, got)
		t.Logf("golden updated: %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden %s does not exist; rerun %s with -update\n\ngot:\n%s", path, t.Name(), got)
	}
	if err != nil {
		t.Fatalf("read golden %s: %v", path, err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("output differs from %s (rerun with -update to accept):\n%s", name, unifiedDiff(string(want), string(got), name))
	}
}

// UpdateGolden writes data to testdata/golden/<name>.
func UpdateGolden(t *testing.T, name string, data []byte) {
	t.Helper()
	path := GoldenPath(t, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden %s: %v", path, err)
	}
}

// unifiedDiff renders want -> got as a single-hunk unified diff. Equal inputs
// produce only the file header.
func unifiedDiff(want, got, name string) string {
	a := strings.Split(want, "\n")
	b := strings.Split(got, "\n")

	fd := &godiff.FileDiff{OrigName: name + " (expected)", NewName: name + " (got)"}
	if body := lineDiff(a, b); body != nil {
		fd.Hunks = []*godiff.Hunk{{
			OrigStartLine: 1,
			OrigLines:     int32(len(a)),
			NewStartLine:  1,
			NewLines:      int32(len(b)),
			Body:          body,
		}}
	}

	out, err := godiff.PrintFileDiff(fd)
	if err != nil {
		return err.Error()
	}
	return string(out)
}

// lineDiff returns the hunk body for a longest-common-subsequence alignment
// of a and b, or nil when they are equal.
func lineDiff(a, b []string) []byte {
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var body bytes.Buffer
	changed := false
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			body.WriteString(" " + a[i] + "\n")
			i++
			j++
		case j < len(b) && (i == len(a) || lcs[i][j+1] >= lcs[i+1][j]):
			body.WriteString("+" + b[j] + "\n")
			changed = true
			j++
		default:
			body.WriteString("-" + a[i] + "\n")
			changed = true
			i++
		}
	}
	if !changed {
		return nil
	}
	return body.Bytes()
}
