package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LocField is the ESTree position metadata field.
const LocField = "loc"

// DecodeOption configures FromGeneric and DecodeJSON.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	skip map[string]bool
}

// WithPositionFields names extra position fields (besides "loc") that are
// dropped while decoding, e.g. "range", "start", "end".
func WithPositionFields(names ...string) DecodeOption {
	return func(c *decodeConfig) {
		for _, n := range names {
			c.skip[n] = true
		}
	}
}

func newDecodeConfig(opts []DecodeOption) *decodeConfig {
	c := &decodeConfig{skip: map[string]bool{"range": true}}
	for _, o := range opts {
		o(c)
	}
	return c
}

// DecodeJSON decodes an ESTree document into a tree.
func DecodeJSON(data []byte, opts ...DecodeOption) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode tree json: %w", err)
	}
	return FromGeneric(raw, opts...)
}

// FromGeneric converts a decoded JSON/msgpack document into a tree.
// Objects become nodes; an object without a string "type" becomes a
// kind-less record node.
func FromGeneric(raw interface{}, opts ...DecodeOption) (*Node, error) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, fmt.Errorf("tree root must be an object, got %T", raw)
	}
	return newDecodeConfig(opts).node(obj)
}

func (c *decodeConfig) node(obj map[string]interface{}) (*Node, error) {
	n := &Node{Fields: make(map[string]Value, len(obj))}
	for key, raw := range obj {
		switch {
		case key == "type":
			if s, ok := raw.(string); ok {
				n.Kind = s
				continue
			}
			return nil, fmt.Errorf("node type must be a string, got %T", raw)
		case key == LocField:
			n.Loc = decodeLoc(raw)
			continue
		case c.skip[key]:
			continue
		}
		v, err := c.value(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		n.Fields[key] = v
	}
	return n, nil
}

func (c *decodeConfig) value(raw interface{}) (Value, error) {
	if obj, ok := asObject(raw); ok {
		child, err := c.node(obj)
		if err != nil {
			return Value{}, err
		}
		return NodeOf(child), nil
	}
	if items, ok := raw.([]interface{}); ok {
		list := make([]*Node, len(items))
		for i, item := range items {
			if item == nil {
				continue
			}
			v, err := c.value(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			switch v.kind {
			case NodeValue:
				list[i] = v.node
			case ListValue:
				list[i] = New("", map[string]Value{"elements": v})
			default:
				list[i] = New("", map[string]Value{"value": v})
			}
		}
		return ListOf(list...), nil
	}
	s, err := decodeScalar(raw)
	if err != nil {
		return Value{}, err
	}
	return Value{scalar: s}, nil
}

func asObject(raw interface{}) (map[string]interface{}, bool) {
	switch m := raw.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

func decodeScalar(raw interface{}) (interface{}, error) {
	switch x := raw.(type) {
	case nil, string, bool, int64, float64:
		return x, nil
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if i, err := x.Int64(); err == nil {
				return i, nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", x.String())
		}
		return f, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case float32:
		return float64(x), nil
	}
	return nil, fmt.Errorf("unsupported scalar %T", raw)
}

func decodeLoc(raw interface{}) *Location {
	obj, ok := asObject(raw)
	if !ok {
		return nil
	}
	return &Location{Start: decodePos(obj["start"]), End: decodePos(obj["end"])}
}

func decodePos(raw interface{}) Position {
	obj, ok := asObject(raw)
	if !ok {
		return Position{}
	}
	return Position{Line: toInt(obj["line"]), Column: toInt(obj["column"])}
}

func toInt(raw interface{}) int {
	s, err := decodeScalar(raw)
	if err != nil {
		return 0
	}
	switch x := s.(type) {
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	return 0
}

// ToGeneric converts a tree back into plain maps and slices in ESTree shape.
func ToGeneric(n *Node) map[string]interface{} {
	if n == nil {
		return nil
	}
	out := make(map[string]interface{}, len(n.Fields)+2)
	if n.Kind != "" {
		out["type"] = n.Kind
	}
	for name, v := range n.Fields {
		out[name] = genericValue(v)
	}
	if n.Loc != nil {
		out[LocField] = map[string]interface{}{
			"start": map[string]interface{}{"line": n.Loc.Start.Line, "column": n.Loc.Start.Column},
			"end":   map[string]interface{}{"line": n.Loc.End.Line, "column": n.Loc.End.Column},
		}
	}
	return out
}

func genericValue(v Value) interface{} {
	switch v.kind {
	case NodeValue:
		return ToGeneric(v.node)
	case ListValue:
		items := make([]interface{}, len(v.list))
		for i, el := range v.list {
			if el != nil {
				items[i] = ToGeneric(el)
			}
		}
		return items
	default:
		return v.scalar
	}
}
