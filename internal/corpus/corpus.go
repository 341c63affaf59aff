// Package corpus loads slow/fast source pairs for batch mining.
//
// Four formats are accepted, chosen by file extension:
//
//	.json        [{"id": 1, "slow": "...", "fast": "..."}, ...]
//	.yaml, .yml  the same records as a YAML sequence
//	.toml        [[pair]] tables with id, slow and fast keys
//	.diff/.patch a unified diff; every hunk becomes one pair
package corpus

import (
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	mberrors "mbsearch/internal/errors"
)

// Format names a corpus encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatPatch Format = "patch"
)

// Pair is one slow/fast fragment pair.
type Pair struct {
	ID   string `json:"id" yaml:"id" toml:"id"`
	Slow string `json:"slow" yaml:"slow" toml:"slow"`
	Fast string `json:"fast" yaml:"fast" toml:"fast"`
}

// Fingerprint identifies the pair's content independently of its id.
func (p Pair) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(p.Slow))
	h.Write([]byte{0})
	h.Write([]byte(p.Fast))
	return hex.EncodeToString(h.Sum(nil))
}

// FormatFor picks the format from a file name.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".diff", ".patch":
		return FormatPatch, nil
	}
	return "", mberrors.Newf(mberrors.InvalidInput, "unrecognized corpus extension %q", filepath.Ext(path))
}

// Load reads and validates the corpus at path.
func Load(path string) ([]Pair, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.InvalidInput, "read corpus "+path, err)
	}
	return Parse(data, format, filepath.Base(path))
}

// Parse decodes data in the given format. name prefixes the ids of pairs
// taken from a patch.
func Parse(data []byte, format Format, name string) ([]Pair, error) {
	var (
		pairs []Pair
		err   error
	)
	switch format {
	case FormatJSON:
		pairs, err = parseJSON(data)
	case FormatYAML:
		pairs, err = parseYAML(data)
	case FormatTOML:
		pairs, err = parseTOML(data)
	case FormatPatch:
		pairs, err = parsePatch(data, name)
	default:
		return nil, mberrors.Newf(mberrors.InvalidInput, "unknown corpus format %q", format)
	}
	if err != nil {
		return nil, mberrors.Wrap(mberrors.InvalidInput, fmt.Sprintf("parse %s corpus", format), err)
	}
	if err := validate(pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Limit returns the first n pairs; n <= 0 keeps all of them.
func Limit(pairs []Pair, n int) []Pair {
	if n <= 0 || n >= len(pairs) {
		return pairs
	}
	return pairs[:n]
}

func validate(pairs []Pair) error {
	seen := make(map[string]int, len(pairs))
	for i, p := range pairs {
		if p.ID == "" {
			return mberrors.Newf(mberrors.InvalidInput, "pair %d has no id", i)
		}
		if prev, dup := seen[p.ID]; dup {
			return mberrors.Newf(mberrors.InvalidInput, "duplicate pair id %q (entries %d and %d)", p.ID, prev, i)
		}
		seen[p.ID] = i
	}
	return nil
}

// record is the loosely typed entry shared by the JSON, YAML and TOML
// decoders; benchmark files use numeric ids as often as string ones.
type record struct {
	ID   interface{} `json:"id" yaml:"id" toml:"id"`
	Slow string      `json:"slow" yaml:"slow" toml:"slow"`
	Fast string      `json:"fast" yaml:"fast" toml:"fast"`
}

func (r record) pair(index int) (Pair, error) {
	id, err := normalizeID(r.ID)
	if err != nil {
		return Pair{}, fmt.Errorf("entry %d: %w", index, err)
	}
	return Pair{ID: id, Slow: r.Slow, Fast: r.Fast}, nil
}

func toPairs(records []record) ([]Pair, error) {
	pairs := make([]Pair, 0, len(records))
	for i, r := range records {
		p, err := r.pair(i)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

type stringer interface{ String() string }

func normalizeID(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", fmt.Errorf("missing id")
	case string:
		return strings.TrimSpace(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case stringer:
		return v.String(), nil
	}
	return "", fmt.Errorf("unsupported id type %T", raw)
}
