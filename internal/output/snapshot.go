package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// VolatileFields are dropped before comparing reports: they change between
// otherwise identical runs.
var VolatileFields = []string{
	"run.id",
	"run.startedAt",
	"run.finishedAt",
	"summary.durationMs",
	"results.*.durationNs",
}

// NormalizeForSnapshot removes volatile fields and re-encodes
// deterministically.
func NormalizeForSnapshot(data []byte) ([]byte, error) {
	var parsed interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, err
	}
	for _, field := range VolatileFields {
		removeField(parsed, strings.Split(field, "."))
	}
	return DeterministicEncode(parsed)
}

// CompareSnapshots reports whether two reports are equal once volatile
// fields are removed.
func CompareSnapshots(a, b []byte) (bool, string) {
	normalizedA, err := NormalizeForSnapshot(a)
	if err != nil {
		return false, "failed to normalize snapshot A: " + err.Error()
	}
	normalizedB, err := NormalizeForSnapshot(b)
	if err != nil {
		return false, "failed to normalize snapshot B: " + err.Error()
	}
	if !bytes.Equal(normalizedA, normalizedB) {
		return false, "snapshots differ"
	}
	return true, ""
}

// removeField deletes the field at path; "*" matches every array element.
func removeField(node interface{}, path []string) {
	if len(path) == 0 {
		return
	}
	switch v := node.(type) {
	case map[string]interface{}:
		if len(path) == 1 {
			delete(v, path[0])
			return
		}
		removeField(v[path[0]], path[1:])
	case []interface{}:
		if path[0] != "*" {
			return
		}
		for _, item := range v {
			removeField(item, path[1:])
		}
	}
}
