// Package tree is the language-neutral syntax tree shared by the parser,
// the diff engine and the pattern synthesizer.
//
// A Node mirrors an ESTree object: a kind (the ESTree "type"), a set of named
// fields and optional position metadata. Position metadata is kept out of
// Fields so that structural comparison never sees it.
package tree

import (
	"encoding/json"
	"sort"
)

// Position is a line/column pair. Lines are 1-based, columns 0-based.
type Position struct {
	Line   int `json:"line" msgpack:"line"`
	Column int `json:"column" msgpack:"column"`
}

// Location is the source span of a node.
type Location struct {
	Start Position `json:"start" msgpack:"start"`
	End   Position `json:"end" msgpack:"end"`
}

// Node is one syntax tree node. Nodes are treated as immutable once built.
type Node struct {
	Kind   string
	Fields map[string]Value
	Loc    *Location
}

// New creates a node of the given kind. A nil fields map is allowed.
func New(kind string, fields map[string]Value) *Node {
	if fields == nil {
		fields = map[string]Value{}
	}
	return &Node{Kind: kind, Fields: fields}
}

// WithLoc sets the node location and returns the node.
func (n *Node) WithLoc(loc *Location) *Node {
	n.Loc = loc
	return n
}

// FieldNames returns the node's field names in lexicographic order.
func (n *Node) FieldNames() []string {
	if n == nil {
		return nil
	}
	names := make([]string, 0, len(n.Fields))
	for name := range n.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field returns the value stored under name.
func (n *Node) Field(name string) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	v, ok := n.Fields[name]
	return v, ok
}

// Child returns the node stored under name, or nil if the field is missing
// or does not hold a node.
func (n *Node) Child(name string) *Node {
	v, ok := n.Field(name)
	if !ok {
		return nil
	}
	return v.Node()
}

// Children returns the list stored under name, or nil.
func (n *Node) Children(name string) []*Node {
	v, ok := n.Field(name)
	if !ok {
		return nil
	}
	return v.List()
}

// Scalar returns the scalar stored under name. The second result is false
// when the field is missing or holds a node or list.
func (n *Node) Scalar(name string) (interface{}, bool) {
	v, ok := n.Field(name)
	if !ok || !v.IsScalar() {
		return nil, false
	}
	return v.Scalar(), true
}

// Str returns the string scalar stored under name, or "".
func (n *Node) Str(name string) string {
	s, _ := n.Scalar(name)
	str, _ := s.(string)
	return str
}

// Is reports whether n is non-nil and of the given kind.
func (n *Node) Is(kind string) bool {
	return n != nil && n.Kind == kind
}

// MarshalJSON renders the node in ESTree shape: "type", the fields, and "loc".
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToGeneric(n))
}
