package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() {
		Version, Commit = origVersion, origCommit
	}()

	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"short commit", "1.0.0", "abc", "1.0.0"},
		{"exactly 7 chars", "2.0.0", "1234567", "2.0.0"},
		{"full hash", "1.0.0", "abc1234567890", "1.0.0 (abc1234)"},
		{"8 chars", "2.0.0", "12345678", "2.0.0 (1234567)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = tt.version, tt.commit
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	defer func() {
		Version, Commit, BuildDate = origVersion, origCommit, origDate
	}()

	Version, Commit, BuildDate = "0.9.0", "deadbeefcafe", "2026-01-02"
	got := Full()

	for _, want := range []string{
		"mbsearch version 0.9.0",
		"Commit: deadbeefcafe",
		"Built: 2026-01-02",
		"Go: " + runtime.Version(),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Full() missing %q:\n%s", want, got)
		}
	}
}

func TestFields(t *testing.T) {
	origCommit := Commit
	defer func() { Commit = origCommit }()
	Commit = "0123456789"

	f := Fields()
	for _, key := range []string{"version", "commit", "buildDate", "go"} {
		if _, ok := f[key]; !ok {
			t.Errorf("Fields() missing %q", key)
		}
	}
	if f["commit"] != "0123456789" {
		t.Errorf("commit = %q", f["commit"])
	}
}
