package tree

import "math"

// ValueKind discriminates the shapes a field value can take.
type ValueKind uint8

const (
	// ScalarValue holds a string, int64, float64, bool or nil (JSON null).
	ScalarValue ValueKind = iota
	// NodeValue holds a single child node.
	NodeValue
	// ListValue holds an ordered list of child nodes; nil entries are holes.
	ListValue
)

func (k ValueKind) String() string {
	switch k {
	case NodeValue:
		return "node"
	case ListValue:
		return "list"
	default:
		return "scalar"
	}
}

// Value is the tagged union stored in Node.Fields.
// The zero Value is the absent scalar (JSON null).
type Value struct {
	kind   ValueKind
	node   *Node
	list   []*Node
	scalar interface{}
}

// NodeOf wraps a child node. A nil node becomes the absent scalar.
func NodeOf(n *Node) Value {
	if n == nil {
		return Value{}
	}
	return Value{kind: NodeValue, node: n}
}

// ListOf wraps a list of child nodes. nil elements are kept as holes.
func ListOf(nodes ...*Node) Value {
	if nodes == nil {
		nodes = []*Node{}
	}
	return Value{kind: ListValue, list: nodes}
}

// ScalarOf wraps a primitive. Integer types are widened to int64 and
// float32 to float64; unsupported types panic.
func ScalarOf(v interface{}) Value {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return Value{scalar: x}
	case int:
		return Value{scalar: int64(x)}
	case int32:
		return Value{scalar: int64(x)}
	case float32:
		return Value{scalar: float64(x)}
	default:
		panic("tree: unsupported scalar type")
	}
}

// Absent is the JSON null value.
func Absent() Value { return Value{} }

// Kind returns the value's shape.
func (v Value) Kind() ValueKind { return v.kind }

// IsNode reports whether v holds a node.
func (v Value) IsNode() bool { return v.kind == NodeValue }

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.kind == ListValue }

// IsScalar reports whether v holds a primitive, including null.
func (v Value) IsScalar() bool { return v.kind == ScalarValue }

// IsAbsent reports whether v is the null scalar.
func (v Value) IsAbsent() bool { return v.kind == ScalarValue && v.scalar == nil }

// Node returns the held node or nil.
func (v Value) Node() *Node { return v.node }

// List returns the held list or nil.
func (v Value) List() []*Node { return v.list }

// Scalar returns the held primitive or nil.
func (v Value) Scalar() interface{} { return v.scalar }

// ScalarEqual compares two primitives. Numbers compare by value regardless
// of integer or float representation.
func ScalarEqual(a, b interface{}) bool {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum || bNum {
		if !aNum || !bNum {
			return false
		}
		ai, aInt := a.(int64)
		bi, bInt := b.(int64)
		if aInt && bInt {
			return ai == bi
		}
		return af == bf || (math.IsNaN(af) && math.IsNaN(bf))
	}
	return a == b
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
