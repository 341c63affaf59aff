package tree

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Step is one hop of a Path: either a field name or a list index.
type Step struct {
	field   string
	index   int
	isIndex bool
}

// FieldStep selects the named field of a node.
func FieldStep(name string) Step { return Step{field: name} }

// IndexStep selects an element of a list.
func IndexStep(i int) Step { return Step{index: i, isIndex: true} }

// IsIndex reports whether the step is a list index.
func (s Step) IsIndex() bool { return s.isIndex }

// Field returns the field name of a field step.
func (s Step) Field() string { return s.field }

// Index returns the index of an index step.
func (s Step) Index() int { return s.index }

func (s Step) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.field
}

// Path addresses a node relative to a tree root.
type Path []Step

// ParsePath parses the String form of a path, e.g. "body[0].expression".
func ParsePath(s string) (Path, error) {
	var p Path
	if s == "" {
		return p, nil
	}
	for _, part := range strings.Split(s, ".") {
		name := part
		rest := ""
		if i := strings.IndexByte(part, '['); i >= 0 {
			name, rest = part[:i], part[i:]
		}
		if name != "" {
			p = append(p, FieldStep(name))
		}
		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, fmt.Errorf("malformed path segment %q", part)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("malformed index in %q", part)
			}
			p = append(p, IndexStep(idx))
			rest = rest[end+1:]
		}
	}
	return p, nil
}

// Append returns a new path with the steps added; p is never modified.
func (p Path) Append(steps ...Step) Path {
	out := make(Path, 0, len(p)+len(steps))
	out = append(out, p...)
	return append(out, steps...)
}

// Equal reports whether two paths select the same steps.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if !s.isIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// MarshalJSON encodes the path as a list of field names and indices.
func (p Path) MarshalJSON() ([]byte, error) {
	steps := make([]interface{}, len(p))
	for i, s := range p {
		if s.isIndex {
			steps[i] = s.index
		} else {
			steps[i] = s.field
		}
	}
	return json.Marshal(steps)
}

// UnmarshalJSON decodes the list form produced by MarshalJSON.
func (p *Path) UnmarshalJSON(data []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Path, 0, len(raw))
	for _, r := range raw {
		switch x := r.(type) {
		case string:
			out = append(out, FieldStep(x))
		case float64:
			out = append(out, IndexStep(int(x)))
		default:
			return fmt.Errorf("invalid path step %v", r)
		}
	}
	*p = out
	return nil
}

// Resolve walks path from root. It reports false when any step names a
// missing field, meets the wrong value shape, indexes out of range, or ends
// on anything other than a non-nil node. It never panics.
func Resolve(root *Node, path Path) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	cur := NodeOf(root)
	for _, s := range path {
		if s.isIndex {
			if !cur.IsList() || s.index < 0 || s.index >= len(cur.list) {
				return nil, false
			}
			cur = NodeOf(cur.list[s.index])
			continue
		}
		if !cur.IsNode() {
			return nil, false
		}
		v, ok := cur.node.Fields[s.field]
		if !ok {
			return nil, false
		}
		cur = v
	}
	if !cur.IsNode() {
		return nil, false
	}
	return cur.node, true
}
