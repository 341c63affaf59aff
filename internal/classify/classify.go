// Package classify reports which syntactic contexts enclose a tree position.
package classify

import "mbsearch/internal/tree"

// Flags is the set of contexts enclosing a node. Each flag is independent.
type Flags struct {
	InLoop        bool `json:"in_loop"`
	InFunction    bool `json:"in_function"`
	InConditional bool `json:"in_conditional"`
}

// Any reports whether at least one flag is set.
func (f Flags) Any() bool {
	return f.InLoop || f.InFunction || f.InConditional
}

// Classify computes the context flags of the node at path within root.
// Every strict ancestor (each proper prefix of path, the root included) is
// re-resolved from root; prefixes that fail to resolve are skipped.
func Classify(root *tree.Node, path tree.Path) Flags {
	return Flags{
		InLoop:        hasAncestor(root, path, IsLoop),
		InFunction:    hasAncestor(root, path, IsFunction),
		InConditional: hasAncestor(root, path, IsConditional),
	}
}

func hasAncestor(root *tree.Node, path tree.Path, match func(kind string) bool) bool {
	for i := len(path) - 1; i >= 0; i-- {
		n, ok := tree.Resolve(root, path[:i])
		if !ok {
			continue
		}
		if match(n.Kind) {
			return true
		}
	}
	return false
}

// IsLoop reports whether kind is a loop statement.
func IsLoop(kind string) bool {
	switch kind {
	case tree.ForStatement, tree.WhileStatement, tree.DoWhileStatement,
		tree.ForInStatement, tree.ForOfStatement:
		return true
	}
	return false
}

// IsFunction reports whether kind introduces a function body.
func IsFunction(kind string) bool {
	switch kind {
	case tree.FunctionDeclaration, tree.FunctionExpression, tree.ArrowFunctionExpression:
		return true
	}
	return false
}

// IsConditional reports whether kind is a conditional construct.
func IsConditional(kind string) bool {
	switch kind {
	case tree.IfStatement, tree.ConditionalExpression, tree.SwitchStatement:
		return true
	}
	return false
}
