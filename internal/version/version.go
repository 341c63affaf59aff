// Package version holds build information for mbsearch.
package version

import (
	"runtime"
	"runtime/debug"
)

// Overridden at build time:
//
//	go build -ldflags "-X mbsearch/internal/version.Version=0.3.0 -X mbsearch/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when known.
func Info() string {
	commit := resolvedCommit()
	if len(commit) > 7 {
		return Version + " (" + commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line form printed by `mbsearch version`.
func Full() string {
	return "mbsearch version " + Version + "\n" +
		"Commit: " + resolvedCommit() + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}

// Fields returns the build information as a flat map for JSON output.
func Fields() map[string]string {
	return map[string]string{
		"version":   Version,
		"commit":    resolvedCommit(),
		"buildDate": BuildDate,
		"go":        runtime.Version(),
	}
}

// resolvedCommit falls back to the VCS stamp embedded by the go tool.
func resolvedCommit() string {
	if Commit != "unknown" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return Commit
}
