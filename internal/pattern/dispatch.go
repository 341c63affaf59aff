package pattern

import (
	"fmt"

	"mbsearch/internal/tree"
)

// arrayMethods get the array-specific method description.
var arrayMethods = map[string]bool{
	"forEach": true,
	"push":    true,
	"concat":  true,
	"splice":  true,
	"slice":   true,
	"map":     true,
	"filter":  true,
	"reduce":  true,
}

// primaryCondition derives the structural condition for n together with the
// pattern name seed and an optional description. It returns a nil condition
// for kinds that describe nothing matchable.
func primaryCondition(id string, n *tree.Node) (*Condition, string, string) {
	switch n.Kind {
	case tree.NewExpression:
		return constructorCondition(id, n)
	case tree.CallExpression:
		if callee := n.Child("callee"); callee.Is(tree.MemberExpression) {
			return methodCondition(id, callee)
		}
		return functionCondition(id, n)
	case tree.Literal:
		return literalCondition(id, n)
	case tree.Identifier:
		return identifierCondition(id, n)
	default:
		return nil, "", ""
	}
}

func constructorCondition(id string, n *tree.Node) (*Condition, string, string) {
	name := n.Child("callee").Str("name")
	if name == "" {
		return nil, "", ""
	}
	c := &Condition{Kind: ConstructorCall, Parameters: map[string]interface{}{
		ParamConstructorName: name,
		ParamPath:            []string{"callee", "name"},
	}}
	return c, fmt.Sprintf("pattern_%s_%s_constructor", id, name), ""
}

func methodCondition(id string, callee *tree.Node) (*Condition, string, string) {
	method := memberName(callee)
	if method == "" {
		return nil, "", ""
	}
	params := map[string]interface{}{
		ParamMethodName: method,
		ParamPath:       []string{"callee", "property", "name"},
	}
	if obj := callee.Child("object"); obj.Is(tree.Identifier) {
		if name := obj.Str("name"); name != "" {
			params[ParamObjectName] = name
		}
	}

	description := fmt.Sprintf("Detects %s method calls that may have performance implications.", method)
	if arrayMethods[method] {
		description = fmt.Sprintf("Detects %s method calls that may have performance implications for arrays.", method)
	}
	return &Condition{Kind: MethodCall, Parameters: params},
		fmt.Sprintf("pattern_%s_%s_method", id, method), description
}

// memberName returns the statically known property name of a member access:
// obj.name or obj["name"].
func memberName(member *tree.Node) string {
	prop := member.Child("property")
	computed, _ := member.Scalar("computed")
	if computed == true {
		if prop.Is(tree.Literal) {
			return prop.Str("value")
		}
		return ""
	}
	if prop.Is(tree.Identifier) {
		return prop.Str("name")
	}
	return ""
}

func functionCondition(id string, n *tree.Node) (*Condition, string, string) {
	callee := n.Child("callee")
	if !callee.Is(tree.Identifier) {
		return nil, "", ""
	}
	name := callee.Str("name")
	if name == "" {
		return nil, "", ""
	}
	c := &Condition{Kind: FunctionCall, Parameters: map[string]interface{}{
		ParamFunctionName: name,
		ParamPath:         []string{"callee", "name"},
	}}
	return c, fmt.Sprintf("pattern_%s_%s_function", id, name), ""
}

func literalCondition(id string, n *tree.Node) (*Condition, string, string) {
	raw := n.Str("raw")
	var value interface{}
	var category string

	if re := n.Child("regex"); re != nil {
		value = "/" + re.Str("pattern") + "/" + re.Str("flags")
		category = CategoryRegex
	} else {
		v, ok := n.Scalar("value")
		if !ok || v == nil {
			return nil, "", ""
		}
		value = v
		switch v.(type) {
		case string:
			category = CategoryString
		case int64:
			category = CategoryInt
		case float64:
			category = CategoryFloat
		case bool:
			category = CategoryBool
		default:
			return nil, "", ""
		}
	}

	params := map[string]interface{}{
		ParamValue:     value,
		ParamValueType: category,
	}
	if raw != "" {
		params[ParamRaw] = raw
	}
	return &Condition{Kind: LiteralValue, Parameters: params},
		fmt.Sprintf("pattern_%s_literal_%s", id, category), ""
}

func identifierCondition(id string, n *tree.Node) (*Condition, string, string) {
	name := n.Str("name")
	if name == "" {
		return nil, "", ""
	}
	c := &Condition{Kind: IdentifierName, Parameters: map[string]interface{}{ParamName: name}}
	return c, fmt.Sprintf("pattern_%s_%s_identifier", id, name), ""
}
