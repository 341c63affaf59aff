// Package diff locates the first structural divergence between a slow and a
// fast syntax tree.
//
// The search is deliberately single-result: fields are visited in sorted
// order, lists element by element, and the first difference found wins.
// Only structure present in the slow tree can diverge; anything the fast tree
// adds is ignored.
package diff

import (
	"sort"

	"mbsearch/internal/tree"
)

// Divergence is the first point where the slow tree differs from the fast
// one. Node always belongs to the slow tree and Path resolves to it.
type Divergence struct {
	Node *tree.Node `json:"-"`
	Path tree.Path  `json:"path"`
}

// Kind returns the kind of the divergent node.
func (d *Divergence) Kind() string {
	if d == nil || d.Node == nil {
		return ""
	}
	return d.Node.Kind
}

// Diff returns the refined first divergence of slow relative to fast, or nil
// when the trees are structurally equal.
func Diff(slow, fast *tree.Node) *Divergence {
	return Refine(Find(slow, fast))
}

// Find returns the raw first divergence without refinement.
func Find(slow, fast *tree.Node) *Divergence {
	return compareNodes(slow, fast, nil)
}

func compareNodes(slow, fast *tree.Node, path tree.Path) *Divergence {
	if slow == nil || fast == nil {
		return nil
	}
	if slow.Kind != fast.Kind {
		return &Divergence{Node: slow, Path: path}
	}

	for _, name := range unionFieldNames(slow, fast) {
		sv, inSlow := slow.Fields[name]
		fv, inFast := fast.Fields[name]
		switch {
		case !inSlow:
			continue
		case !inFast:
			if d := slowOnly(slow, sv, path, name); d != nil {
				return d
			}
		default:
			if d := compareValues(slow, sv, fv, path, name); d != nil {
				return d
			}
		}
	}
	return nil
}

func compareValues(owner *tree.Node, sv, fv tree.Value, path tree.Path, name string) *Divergence {
	switch {
	case sv.IsList() && fv.IsList():
		return compareLists(sv.List(), fv.List(), path.Append(tree.FieldStep(name)))
	case sv.IsNode() && fv.IsNode():
		return compareNodes(sv.Node(), fv.Node(), path.Append(tree.FieldStep(name)))
	case sv.IsScalar() && fv.IsScalar():
		if !tree.ScalarEqual(sv.Scalar(), fv.Scalar()) {
			return &Divergence{Node: owner, Path: path}
		}
	}
	// Mixed shapes (node against null, list against node) are not comparable.
	return nil
}

func compareLists(slow, fast []*tree.Node, path tree.Path) *Divergence {
	common := len(slow)
	if len(fast) < common {
		common = len(fast)
	}
	for i := 0; i < common; i++ {
		if d := compareNodes(slow[i], fast[i], path.Append(tree.IndexStep(i))); d != nil {
			return d
		}
	}
	for i := common; i < len(slow); i++ {
		if slow[i] != nil {
			return &Divergence{Node: slow[i], Path: path.Append(tree.IndexStep(i))}
		}
	}
	return nil
}

// slowOnly reports a field that exists only in the slow node. A node value is
// the divergence itself; a list contributes its first non-nil element (none
// for an empty list); a scalar marks the owning node at the owner's path.
func slowOnly(owner *tree.Node, v tree.Value, path tree.Path, name string) *Divergence {
	switch v.Kind() {
	case tree.NodeValue:
		return &Divergence{Node: v.Node(), Path: path.Append(tree.FieldStep(name))}
	case tree.ListValue:
		for i, el := range v.List() {
			if el != nil {
				return &Divergence{Node: el, Path: path.Append(tree.FieldStep(name), tree.IndexStep(i))}
			}
		}
		return nil
	default:
		return &Divergence{Node: owner, Path: path}
	}
}

func unionFieldNames(a, b *tree.Node) []string {
	seen := make(map[string]struct{}, len(a.Fields)+len(b.Fields))
	names := make([]string, 0, len(a.Fields)+len(b.Fields))
	for _, n := range []*tree.Node{a, b} {
		for name := range n.Fields {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Refine re-anchors a divergence on the part a pattern should describe. Two
// rules apply once each, in order: an assignment whose right side is a call
// moves to the call, then an expression statement moves to its expression.
// A statement wrapping such an assignment therefore stops at the assignment.
func Refine(d *Divergence) *Divergence {
	if d == nil {
		return nil
	}
	if n := d.Node; n.Is(tree.AssignmentExpression) && n.Child("right").Is(tree.CallExpression) {
		d = &Divergence{Node: n.Child("right"), Path: d.Path.Append(tree.FieldStep("right"))}
	}
	if n := d.Node; n.Is(tree.ExpressionStatement) && n.Child("expression") != nil {
		d = &Divergence{Node: n.Child("expression"), Path: d.Path.Append(tree.FieldStep("expression"))}
	}
	return d
}
