package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/pattern"
)

// EncodePatterns renders patterns as an indented JSON array.
func EncodePatterns(patterns []*pattern.Pattern) ([]byte, error) {
	if patterns == nil {
		patterns = []*pattern.Pattern{}
	}
	data, err := DeterministicEncodeIndented(patterns, "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WritePatterns writes the patterns file, creating parent directories.
func WritePatterns(path string, patterns []*pattern.Pattern) error {
	data, err := EncodePatterns(patterns)
	if err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}
	return writeFileAtomic(path, data)
}

// ReadPatterns loads a patterns file written by WritePatterns.
func ReadPatterns(path string) ([]*pattern.Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.InvalidInput, "read patterns file", err)
	}
	var patterns []*pattern.Pattern
	if err := json.Unmarshal(data, &patterns); err != nil {
		return nil, mberrors.Wrap(mberrors.InvalidInput, "decode patterns file "+path, err)
	}
	for i, p := range patterns {
		if p == nil || p.Name == "" {
			return nil, mberrors.Newf(mberrors.InvalidInput, "pattern %d in %s has no name", i, path)
		}
	}
	return patterns, nil
}

// QueryFileName is the file a pattern's query is written to: the lower-cased
// name with every character outside [a-z0-9._-] replaced by '-', so pair ids
// such as "src/app.js#1" stay inside the queries directory.
func QueryFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	base := strings.Trim(b.String(), ".")
	if base == "" {
		return ""
	}
	return base + ".ql"
}

// WriteQuery writes one query file into dir and returns its path.
func WriteQuery(dir, name, text string) (string, error) {
	file := QueryFileName(name)
	if file == "" {
		return "", mberrors.Newf(mberrors.InvalidInput, "invalid query name %q", name)
	}
	path := filepath.Join(dir, file)
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return "", mberrors.Wrap(mberrors.StorageFailure, "write query "+file, err)
	}
	return path, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
