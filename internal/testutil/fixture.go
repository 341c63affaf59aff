// Package testutil provides fixtures and golden-file helpers for tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"mbsearch/internal/tree"
)

// PairFixture is a slow/fast tree pair loaded from testdata/estree.
type PairFixture struct {
	// Name is the fixture stem, e.g. "new_string_in_loop"
	Name string

	Slow *tree.Node
	Fast *tree.Node
}

// LoadTree decodes testdata/estree/<name>.json, failing the test on error.
func LoadTree(t *testing.T, name string) *tree.Node {
	t.Helper()

	path := filepath.Join(testdataRoot(t), "estree", name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read tree fixture: %v", err)
	}
	root, err := tree.DecodeJSON(data)
	if err != nil {
		t.Fatalf("Failed to decode tree fixture %s: %v", path, err)
	}
	return root
}

// LoadPair loads the <name>.slow and <name>.fast tree fixtures.
func LoadPair(t *testing.T, name string) *PairFixture {
	t.Helper()

	return &PairFixture{
		Name: name,
		Slow: LoadTree(t, name+".slow"),
		Fast: LoadTree(t, name+".fast"),
	}
}

// AvailablePairs returns the stems of every slow/fast pair in testdata/estree.
func AvailablePairs(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(filepath.Join(testdataRoot(t), "estree"))
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if stem, ok := strings.CutSuffix(entry.Name(), ".slow.json"); ok {
			names = append(names, stem)
		}
	}
	sort.Strings(names)
	return names
}

// TestdataPath joins parts onto the repository testdata directory.
func TestdataPath(t *testing.T, parts ...string) string {
	t.Helper()
	return filepath.Join(append([]string{testdataRoot(t)}, parts...)...)
}

// testdataRoot returns the absolute path to testdata/.
func testdataRoot(t *testing.T) string {
	t.Helper()

	// Get the directory of this source file
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	root := filepath.Join(projectRoot, "testdata")

	if _, err := os.Stat(root); os.IsNotExist(err) {
		t.Fatalf("Testdata root not found: %s", root)
	}
	return root
}
