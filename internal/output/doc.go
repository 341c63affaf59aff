// Package output writes mining results to disk and renders them as
// deterministic JSON.
//
// Encoding rules:
//
//  1. Object keys are sorted alphabetically, struct fields included.
//  2. Nil fields are omitted; omitempty tags are honoured.
//  3. Values implementing json.Marshaler are encoded through their own
//     marshaler first, then normalized like any other value.
//  4. Numbers are written exactly; rounding is left to callers (RoundFloat).
//
// The same input always produces the same bytes, so pattern files can be
// diffed and checked into version control.
package output
