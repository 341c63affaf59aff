// Package paths locates the files mbsearch keeps inside a project.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirName is the per-project directory holding config, cache and history.
const DataDirName = ".mbsearch"

// Well-known file names inside the data directory.
const (
	ConfigFileName   = "config.toml"
	DatabaseFileName = "mbsearch.db"
	CacheDirName     = "cache"
)

// DataDir returns <root>/.mbsearch.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// ConfigPath returns the default config file location.
func ConfigPath(root string) string {
	return filepath.Join(DataDir(root), ConfigFileName)
}

// DatabasePath returns the default run history database location.
func DatabasePath(root string) string {
	return filepath.Join(DataDir(root), DatabaseFileName)
}

// ParseCacheDir returns the default parse cache directory.
func ParseCacheDir(root string) string {
	return filepath.Join(DataDir(root), CacheDirName, "parse")
}

// EnsureDataDir creates the data directory if needed and returns its path.
func EnsureDataDir(root string) (string, error) {
	dir := DataDir(root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// Resolve joins a relative path onto root. Absolute paths and empty
// strings are returned unchanged.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return JoinRootPath(root, p)
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// JoinRootPath joins root with a slash-separated relative path.
func JoinRootPath(root string, rel string) string {
	parts := strings.Split(NormalizePath(rel), "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

// IsWithinRoot reports whether path resolves inside root.
func IsWithinRoot(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}
