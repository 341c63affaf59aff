//go:build cgo

package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"mbsearch/internal/tree"
)

// converter maps tree-sitter-javascript nodes onto ESTree (esprima) shapes.
type converter struct {
	source []byte
}

type fields = map[string]tree.Value

func (c *converter) mk(n *sitter.Node, kind string, f fields) *tree.Node {
	return tree.New(kind, f).WithLoc(locOf(n))
}

func (c *converter) val(n *sitter.Node) tree.Value {
	return tree.NodeOf(c.convert(n))
}

func (c *converter) list(nodes []*sitter.Node) tree.Value {
	out := make([]*tree.Node, 0, len(nodes))
	for _, n := range nodes {
		if conv := c.convert(n); conv != nil {
			out = append(out, conv)
		}
	}
	return tree.ListOf(out...)
}

func str(s string) tree.Value { return tree.ScalarOf(s) }
func flag(b bool) tree.Value  { return tree.ScalarOf(b) }
func null() tree.Value        { return tree.Absent() }

// convert translates n. It returns nil for nil input and comments.
func (c *converter) convert(n *sitter.Node) *tree.Node {
	if n == nil || n.Type() == "comment" {
		return nil
	}
	f := c.field
	switch n.Type() {
	case "program":
		return c.mk(n, tree.Program, fields{
			"body":       c.list(namedChildren(n)),
			"sourceType": str("script"),
		})

	case "hash_bang_line":
		return nil

	// statements

	case "expression_statement":
		return c.mk(n, tree.ExpressionStatement, fields{"expression": c.val(c.sole(n))})
	case "statement_block":
		return c.mk(n, tree.BlockStatement, fields{"body": c.list(namedChildren(n))})
	case "empty_statement":
		return c.mk(n, tree.EmptyStatement, fields{})
	case "variable_declaration", "lexical_declaration":
		kind := firstToken(n, "var", "let", "const")
		if kind == "" {
			kind = "var"
		}
		return c.mk(n, tree.VariableDeclaration, fields{
			"declarations": c.list(namedChildren(n)),
			"kind":         str(kind),
		})
	case "variable_declarator":
		return c.mk(n, tree.VariableDeclarator, fields{
			"id":   f(n, "name"),
			"init": f(n, "value"),
		})
	case "for_statement":
		return c.mk(n, tree.ForStatement, fields{
			"init":   c.forClause(n.ChildByFieldName("initializer")),
			"test":   c.forClause(n.ChildByFieldName("condition")),
			"update": f(n, "increment"),
			"body":   f(n, "body"),
		})
	case "for_in_statement":
		return c.forIn(n)
	case "while_statement":
		return c.mk(n, tree.WhileStatement, fields{
			"test": f(n, "condition"),
			"body": f(n, "body"),
		})
	case "do_statement":
		return c.mk(n, tree.DoWhileStatement, fields{
			"body": f(n, "body"),
			"test": f(n, "condition"),
		})
	case "if_statement":
		return c.mk(n, tree.IfStatement, fields{
			"test":       f(n, "condition"),
			"consequent": f(n, "consequence"),
			"alternate":  f(n, "alternative"),
		})
	case "else_clause":
		return c.convert(c.sole(n))
	case "switch_statement":
		var cases []*sitter.Node
		if body := n.ChildByFieldName("body"); body != nil {
			cases = namedChildren(body)
		}
		return c.mk(n, tree.SwitchStatement, fields{
			"discriminant": f(n, "value"),
			"cases":        c.list(cases),
		})
	case "switch_case", "switch_default":
		test := null()
		if n.Type() == "switch_case" {
			test = f(n, "value")
		}
		var body []*sitter.Node
		value := n.ChildByFieldName("value")
		for _, child := range namedChildren(n) {
			if value != nil && child.StartByte() == value.StartByte() && child.EndByte() == value.EndByte() {
				continue
			}
			body = append(body, child)
		}
		return c.mk(n, tree.SwitchCase, fields{"test": test, "consequent": c.list(body)})
	case "return_statement":
		return c.mk(n, tree.ReturnStatement, fields{"argument": c.val(c.sole(n))})
	case "throw_statement":
		return c.mk(n, tree.ThrowStatement, fields{"argument": c.val(c.sole(n))})
	case "break_statement":
		return c.mk(n, tree.BreakStatement, fields{"label": f(n, "label")})
	case "continue_statement":
		return c.mk(n, tree.ContinueStatement, fields{"label": f(n, "label")})
	case "try_statement":
		return c.mk(n, tree.TryStatement, fields{
			"block":     f(n, "body"),
			"handler":   f(n, "handler"),
			"finalizer": f(n, "finalizer"),
		})
	case "catch_clause":
		return c.mk(n, tree.CatchClause, fields{
			"param": f(n, "parameter"),
			"body":  f(n, "body"),
		})
	case "finally_clause":
		return c.convert(n.ChildByFieldName("body"))
	case "labeled_statement":
		return c.mk(n, tree.LabeledStatement, fields{
			"label": f(n, "label"),
			"body":  f(n, "body"),
		})

	// functions and classes

	case "function_declaration", "generator_function_declaration":
		return c.function(n, tree.FunctionDeclaration)
	case "function", "function_expression", "generator_function":
		return c.function(n, tree.FunctionExpression)
	case "arrow_function":
		return c.arrow(n)
	case "class_declaration", "class":
		kind := tree.ClassDeclaration
		if n.Type() == "class" {
			kind = "ClassExpression"
		}
		var super tree.Value
		if h := c.childOfType(n, "class_heritage"); h != nil {
			super = c.val(c.sole(h))
		}
		return c.mk(n, kind, fields{
			"id":         f(n, "name"),
			"superClass": super,
			"body":       f(n, "body"),
		})
	case "class_body":
		return c.mk(n, tree.ClassBody, fields{"body": c.list(namedChildren(n))})
	case "method_definition":
		return c.method(n)

	// expressions

	case "parenthesized_expression":
		return c.convert(c.sole(n))
	case "call_expression":
		args := n.ChildByFieldName("arguments")
		if args != nil && args.Type() == "template_string" {
			return c.mk(n, "TaggedTemplateExpression", fields{
				"tag":   f(n, "function"),
				"quasi": c.val(args),
			})
		}
		return c.mk(n, tree.CallExpression, fields{
			"callee":    f(n, "function"),
			"arguments": c.arguments(args),
		})
	case "new_expression":
		return c.mk(n, tree.NewExpression, fields{
			"callee":    f(n, "constructor"),
			"arguments": c.arguments(n.ChildByFieldName("arguments")),
		})
	case "member_expression":
		return c.mk(n, tree.MemberExpression, fields{
			"computed": flag(false),
			"object":   f(n, "object"),
			"property": f(n, "property"),
		})
	case "subscript_expression":
		return c.mk(n, tree.MemberExpression, fields{
			"computed": flag(true),
			"object":   f(n, "object"),
			"property": f(n, "index"),
		})
	case "assignment_expression":
		return c.mk(n, tree.AssignmentExpression, fields{
			"operator": str("="),
			"left":     f(n, "left"),
			"right":    f(n, "right"),
		})
	case "augmented_assignment_expression":
		return c.mk(n, tree.AssignmentExpression, fields{
			"operator": str(fieldOperator(n)),
			"left":     f(n, "left"),
			"right":    f(n, "right"),
		})
	case "binary_expression":
		op := fieldOperator(n)
		kind := tree.BinaryExpression
		if op == "&&" || op == "||" || op == "??" {
			kind = tree.LogicalExpression
		}
		return c.mk(n, kind, fields{
			"operator": str(op),
			"left":     f(n, "left"),
			"right":    f(n, "right"),
		})
	case "unary_expression":
		return c.mk(n, tree.UnaryExpression, fields{
			"operator": str(fieldOperator(n)),
			"argument": f(n, "argument"),
			"prefix":   flag(true),
		})
	case "update_expression":
		prefix := false
		if first := n.Child(0); first != nil && !first.IsNamed() {
			prefix = true
		}
		return c.mk(n, tree.UpdateExpression, fields{
			"operator": str(fieldOperator(n)),
			"argument": f(n, "argument"),
			"prefix":   flag(prefix),
		})
	case "ternary_expression":
		return c.mk(n, tree.ConditionalExpression, fields{
			"test":       f(n, "condition"),
			"consequent": f(n, "consequence"),
			"alternate":  f(n, "alternative"),
		})
	case "sequence_expression":
		return c.mk(n, tree.SequenceExpression, fields{"expressions": c.list(c.flattenSequence(n))})
	case "await_expression":
		return c.mk(n, tree.AwaitExpression, fields{"argument": c.val(c.sole(n))})
	case "yield_expression":
		return c.mk(n, "YieldExpression", fields{
			"argument": c.val(c.sole(n)),
			"delegate": flag(hasToken(n, "*")),
		})
	case "spread_element":
		return c.mk(n, tree.SpreadElement, fields{"argument": c.val(c.sole(n))})
	case "array":
		return c.mk(n, tree.ArrayExpression, fields{"elements": c.list(namedChildren(n))})
	case "object":
		return c.mk(n, tree.ObjectExpression, fields{"properties": c.list(namedChildren(n))})
	case "pair":
		key := n.ChildByFieldName("key")
		computed := key != nil && key.Type() == "computed_property_name"
		return c.mk(n, tree.Property, fields{
			"key":       c.val(key),
			"computed":  flag(computed),
			"value":     f(n, "value"),
			"kind":      str("init"),
			"method":    flag(false),
			"shorthand": flag(false),
		})
	case "shorthand_property_identifier":
		id := c.mk(n, tree.Identifier, fields{"name": str(c.text(n))})
		return c.mk(n, tree.Property, fields{
			"key":       tree.NodeOf(id),
			"computed":  flag(false),
			"value":     tree.NodeOf(id),
			"kind":      str("init"),
			"method":    flag(false),
			"shorthand": flag(true),
		})
	case "computed_property_name":
		return c.convert(c.sole(n))
	case "this":
		return c.mk(n, tree.ThisExpression, fields{})
	case "super":
		return c.mk(n, "Super", fields{})

	// leaves

	case "identifier", "property_identifier", "shorthand_property_identifier_pattern",
		"statement_identifier", "private_property_identifier":
		return c.mk(n, tree.Identifier, fields{"name": str(c.text(n))})
	case "undefined":
		return c.mk(n, tree.Identifier, fields{"name": str("undefined")})
	case "number":
		raw := c.text(n)
		v, ok := numberValue(raw)
		if !ok {
			return c.mk(n, tree.Literal, fields{"value": null(), "raw": str(raw)})
		}
		return c.mk(n, tree.Literal, fields{"value": tree.ScalarOf(v), "raw": str(raw)})
	case "string":
		raw := c.text(n)
		return c.mk(n, tree.Literal, fields{"value": str(stringValue(raw)), "raw": str(raw)})
	case "true", "false":
		return c.mk(n, tree.Literal, fields{"value": flag(n.Type() == "true"), "raw": str(n.Type())})
	case "null":
		return c.mk(n, tree.Literal, fields{"value": null(), "raw": str("null")})
	case "regex":
		raw := c.text(n)
		pattern, flags := splitRegex(raw)
		return c.mk(n, tree.Literal, fields{
			"value": tree.NodeOf(tree.New("", nil)),
			"raw":   str(raw),
			"regex": tree.NodeOf(tree.New("", fields{"pattern": str(pattern), "flags": str(flags)})),
		})
	case "template_string":
		return c.template(n)

	// patterns

	case "assignment_pattern":
		return c.mk(n, "AssignmentPattern", fields{
			"left":  f(n, "left"),
			"right": f(n, "right"),
		})
	case "rest_pattern":
		return c.mk(n, "RestElement", fields{"argument": c.val(c.sole(n))})
	case "array_pattern":
		return c.mk(n, "ArrayPattern", fields{"elements": c.list(namedChildren(n))})
	case "object_pattern":
		return c.mk(n, "ObjectPattern", fields{"properties": c.list(namedChildren(n))})
	case "pair_pattern":
		return c.mk(n, tree.Property, fields{
			"key":       f(n, "key"),
			"computed":  flag(false),
			"value":     f(n, "value"),
			"kind":      str("init"),
			"method":    flag(false),
			"shorthand": flag(false),
		})
	}

	return c.generic(n)
}

// field converts the named field of n; a missing field becomes null.
func (c *converter) field(n *sitter.Node, name string) tree.Value {
	child := n.ChildByFieldName(name)
	if child == nil {
		return null()
	}
	return c.val(child)
}

// sole returns the first named, non-comment child of n.
func (c *converter) sole(n *sitter.Node) *sitter.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func (c *converter) childOfType(n *sitter.Node, typ string) *sitter.Node {
	for _, child := range namedChildren(n) {
		if child.Type() == typ {
			return child
		}
	}
	return nil
}

// forClause unwraps the statement forms tree-sitter uses for the init and
// test positions of a for loop.
func (c *converter) forClause(n *sitter.Node) tree.Value {
	if n == nil {
		return null()
	}
	switch n.Type() {
	case "empty_statement", ";":
		return null()
	case "expression_statement":
		return c.val(c.sole(n))
	}
	return c.val(n)
}

func (c *converter) forIn(n *sitter.Node) *tree.Node {
	kind := tree.ForInStatement
	if op := n.ChildByFieldName("operator"); (op != nil && op.Type() == "of") || hasToken(n, "of") {
		kind = tree.ForOfStatement
	}

	left := c.field(n, "left")
	if declKind := firstToken(n, "var", "let", "const"); declKind != "" {
		at := n
		if leftNode := n.ChildByFieldName("left"); leftNode != nil {
			at = leftNode
		}
		decl := c.mk(at, tree.VariableDeclarator, fields{"id": left, "init": null()})
		left = tree.NodeOf(c.mk(at, tree.VariableDeclaration, fields{
			"declarations": tree.ListOf(decl),
			"kind":         str(declKind),
		}))
	}

	return c.mk(n, kind, fields{
		"left":  left,
		"right": c.field(n, "right"),
		"body":  c.field(n, "body"),
	})
}

func (c *converter) function(n *sitter.Node, kind string) *tree.Node {
	return c.mk(n, kind, fields{
		"id":         c.field(n, "name"),
		"params":     c.params(n.ChildByFieldName("parameters")),
		"body":       c.field(n, "body"),
		"generator":  flag(hasToken(n, "*")),
		"expression": flag(false),
		"async":      flag(hasToken(n, "async")),
	})
}

func (c *converter) arrow(n *sitter.Node) *tree.Node {
	params := c.params(n.ChildByFieldName("parameters"))
	if single := n.ChildByFieldName("parameter"); single != nil {
		params = c.list([]*sitter.Node{single})
	}
	body := n.ChildByFieldName("body")
	return c.mk(n, tree.ArrowFunctionExpression, fields{
		"id":         null(),
		"params":     params,
		"body":       c.val(body),
		"generator":  flag(false),
		"expression": flag(body != nil && body.Type() != "statement_block"),
		"async":      flag(hasToken(n, "async")),
	})
}

func (c *converter) method(n *sitter.Node) *tree.Node {
	kind := "method"
	name := n.ChildByFieldName("name")
	switch {
	case hasToken(n, "get"):
		kind = "get"
	case hasToken(n, "set"):
		kind = "set"
	case name != nil && c.text(name) == "constructor":
		kind = "constructor"
	}
	value := c.mk(n, tree.FunctionExpression, fields{
		"id":         null(),
		"params":     c.params(n.ChildByFieldName("parameters")),
		"body":       c.field(n, "body"),
		"generator":  flag(hasToken(n, "*")),
		"expression": flag(false),
		"async":      flag(hasToken(n, "async")),
	})
	return c.mk(n, tree.MethodDefinition, fields{
		"key":      c.val(name),
		"computed": flag(name != nil && name.Type() == "computed_property_name"),
		"value":    tree.NodeOf(value),
		"kind":     str(kind),
		"static":   flag(hasToken(n, "static")),
	})
}

func (c *converter) params(n *sitter.Node) tree.Value {
	if n == nil {
		return tree.ListOf()
	}
	return c.list(namedChildren(n))
}

func (c *converter) arguments(n *sitter.Node) tree.Value {
	if n == nil {
		return tree.ListOf()
	}
	return c.list(namedChildren(n))
}

// flattenSequence turns the right-nested sequence_expression of older
// grammars into one list.
func (c *converter) flattenSequence(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range namedChildren(n) {
		if child.Type() == "sequence_expression" {
			out = append(out, c.flattenSequence(child)...)
			continue
		}
		out = append(out, child)
	}
	return out
}

func (c *converter) template(n *sitter.Node) *tree.Node {
	var quasis []*tree.Node
	var exprs []*sitter.Node
	start := n.StartByte() + 1
	emit := func(end uint32, tail bool) {
		raw := ""
		if end > start {
			raw = string(c.source[start:end])
		}
		quasis = append(quasis, tree.New(tree.TemplateElement, fields{
			"value": tree.NodeOf(tree.New("", fields{"raw": str(raw), "cooked": str(stringValue(raw))})),
			"tail":  flag(tail),
		}))
	}
	for _, child := range namedChildren(n) {
		if child.Type() != "template_substitution" {
			continue
		}
		emit(child.StartByte(), false)
		exprs = append(exprs, c.sole(child))
		start = child.EndByte()
	}
	emit(n.EndByte()-1, true)

	return c.mk(n, tree.TemplateLiteral, fields{
		"quasis":      tree.ListOf(quasis...),
		"expressions": c.list(exprs),
	})
}

// generic keeps grammar nodes without an ESTree counterpart: the kind is the
// tree-sitter type and the named children are kept in order.
func (c *converter) generic(n *sitter.Node) *tree.Node {
	f := fields{"children": c.list(namedChildren(n))}
	if n.NamedChildCount() == 0 {
		f["text"] = str(c.text(n))
	}
	return c.mk(n, n.Type(), f)
}
