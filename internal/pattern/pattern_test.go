package pattern

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"mbsearch/internal/classify"
	"mbsearch/internal/diff"
	"mbsearch/internal/testutil"
	"mbsearch/internal/tree"
)

func node(kind string, fields map[string]tree.Value) *tree.Node {
	return tree.New(kind, fields)
}

func ident(name string) *tree.Node {
	return node(tree.Identifier, map[string]tree.Value{"name": tree.ScalarOf(name)})
}

func member(obj *tree.Node, prop *tree.Node, computed bool) *tree.Node {
	return node(tree.MemberExpression, map[string]tree.Value{
		"object":   tree.NodeOf(obj),
		"property": tree.NodeOf(prop),
		"computed": tree.ScalarOf(computed),
	})
}

func call(callee *tree.Node) *tree.Node {
	return node(tree.CallExpression, map[string]tree.Value{
		"callee":    tree.NodeOf(callee),
		"arguments": tree.ListOf(),
	})
}

func literal(v interface{}, raw string) *tree.Node {
	return node(tree.Literal, map[string]tree.Value{"value": tree.ScalarOf(v), "raw": tree.ScalarOf(raw)})
}

func at(n *tree.Node) *diff.Divergence {
	return &diff.Divergence{Node: n}
}

func TestSynthesize_Scenarios(t *testing.T) {
	tests := []struct {
		fixture      string
		wantName     string
		wantTarget   string
		wantKinds    []ConditionKind
		wantDescPart string
	}{
		{
			fixture:    "new_string_in_loop",
			wantName:   "pattern_1_String_constructor_in_loop",
			wantTarget: tree.NewExpression,
			wantKinds:  []ConditionKind{ConstructorCall, InLoop},
		},
		{
			fixture:      "foreach_to_for_of",
			wantName:     "pattern_1_forEach_method",
			wantTarget:   tree.CallExpression,
			wantKinds:    []ConditionKind{MethodCall},
			wantDescPart: "performance implications for arrays",
		},
		{
			fixture:    "nested_contexts",
			wantName:   "pattern_1_compute_function_in_loop_in_function_in_conditional",
			wantTarget: tree.CallExpression,
			wantKinds:  []ConditionKind{FunctionCall, InLoop, InFunction, InConditional},
		},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			pair := testutil.LoadPair(t, tt.fixture)
			d := diff.Diff(pair.Slow, pair.Fast)
			p := Synthesize("1", d, classify.Classify(pair.Slow, d.Path))
			if p == nil {
				t.Fatal("Synthesize() = nil")
			}
			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
			if p.TargetNodeKind != tt.wantTarget {
				t.Errorf("TargetNodeKind = %q, want %q", p.TargetNodeKind, tt.wantTarget)
			}
			var kinds []ConditionKind
			for _, c := range p.Conditions {
				kinds = append(kinds, c.Kind)
			}
			if !reflect.DeepEqual(kinds, tt.wantKinds) {
				t.Errorf("condition kinds = %v, want %v", kinds, tt.wantKinds)
			}
			if tt.wantDescPart != "" && !strings.Contains(p.Description, tt.wantDescPart) {
				t.Errorf("Description = %q, want to contain %q", p.Description, tt.wantDescPart)
			}
		})
	}
}

func TestSynthesize_Primary(t *testing.T) {
	newString := node(tree.NewExpression, map[string]tree.Value{"callee": tree.NodeOf(ident("String"))})
	regex := node(tree.Literal, map[string]tree.Value{
		"value": tree.NodeOf(node("", nil)),
		"raw":   tree.ScalarOf("/ab+c/gi"),
		"regex": tree.NodeOf(node("", map[string]tree.Value{
			"pattern": tree.ScalarOf("ab+c"),
			"flags":   tree.ScalarOf("gi"),
		})),
	})

	tests := []struct {
		name       string
		node       *tree.Node
		wantName   string
		wantKind   ConditionKind
		wantParams map[string]interface{}
		wantDesc   string
	}{
		{
			name:     "constructor",
			node:     newString,
			wantName: "pattern_7_String_constructor",
			wantKind: ConstructorCall,
			wantParams: map[string]interface{}{
				ParamConstructorName: "String",
				ParamPath:            []string{"callee", "name"},
			},
			wantDesc: DefaultDescription,
		},
		{
			name:     "array method",
			node:     call(member(ident("items"), ident("push"), false)),
			wantName: "pattern_7_push_method",
			wantKind: MethodCall,
			wantParams: map[string]interface{}{
				ParamMethodName: "push",
				ParamObjectName: "items",
				ParamPath:       []string{"callee", "property", "name"},
			},
			wantDesc: "Detects push method calls that may have performance implications for arrays.",
		},
		{
			name:     "generic method on non-identifier base",
			node:     call(member(call(ident("getMap")), ident("get"), false)),
			wantName: "pattern_7_get_method",
			wantKind: MethodCall,
			wantParams: map[string]interface{}{
				ParamMethodName: "get",
				ParamPath:       []string{"callee", "property", "name"},
			},
			wantDesc: "Detects get method calls that may have performance implications.",
		},
		{
			name:     "computed string member",
			node:     call(member(ident("arr"), literal("map", `"map"`), true)),
			wantName: "pattern_7_map_method",
			wantKind: MethodCall,
			wantParams: map[string]interface{}{
				ParamMethodName: "map",
				ParamObjectName: "arr",
				ParamPath:       []string{"callee", "property", "name"},
			},
			wantDesc: "Detects map method calls that may have performance implications for arrays.",
		},
		{
			name:     "function call",
			node:     call(ident("parseInt")),
			wantName: "pattern_7_parseInt_function",
			wantKind: FunctionCall,
			wantParams: map[string]interface{}{
				ParamFunctionName: "parseInt",
				ParamPath:         []string{"callee", "name"},
			},
			wantDesc: DefaultDescription,
		},
		{
			name:     "string literal",
			node:     literal("hello", `"hello"`),
			wantName: "pattern_7_literal_str",
			wantKind: LiteralValue,
			wantParams: map[string]interface{}{
				ParamValue:     "hello",
				ParamRaw:       `"hello"`,
				ParamValueType: CategoryString,
			},
			wantDesc: DefaultDescription,
		},
		{
			name:     "int literal",
			node:     literal(int64(100), "100"),
			wantName: "pattern_7_literal_int",
			wantKind: LiteralValue,
			wantParams: map[string]interface{}{
				ParamValue:     int64(100),
				ParamRaw:       "100",
				ParamValueType: CategoryInt,
			},
			wantDesc: DefaultDescription,
		},
		{
			name:     "bool literal",
			node:     literal(true, "true"),
			wantName: "pattern_7_literal_bool",
			wantKind: LiteralValue,
			wantParams: map[string]interface{}{
				ParamValue:     true,
				ParamRaw:       "true",
				ParamValueType: CategoryBool,
			},
			wantDesc: DefaultDescription,
		},
		{
			name:     "regex literal",
			node:     regex,
			wantName: "pattern_7_literal_regex",
			wantKind: LiteralValue,
			wantParams: map[string]interface{}{
				ParamValue:     "/ab+c/gi",
				ParamRaw:       "/ab+c/gi",
				ParamValueType: CategoryRegex,
			},
			wantDesc: DefaultDescription,
		},
		{
			name:     "identifier",
			node:     ident("cache"),
			wantName: "pattern_7_cache_identifier",
			wantKind: IdentifierName,
			wantParams: map[string]interface{}{
				ParamName: "cache",
			},
			wantDesc: DefaultDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Synthesize("7", at(tt.node), classify.Flags{})
			if p == nil {
				t.Fatal("Synthesize() = nil")
			}
			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
			if len(p.Conditions) != 1 {
				t.Fatalf("len(Conditions) = %d, want 1", len(p.Conditions))
			}
			c := p.Conditions[0]
			if c.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", c.Kind, tt.wantKind)
			}
			if !reflect.DeepEqual(c.Parameters, tt.wantParams) {
				t.Errorf("Parameters = %#v, want %#v", c.Parameters, tt.wantParams)
			}
			if p.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", p.Description, tt.wantDesc)
			}
		})
	}
}

func TestSynthesize_NoPattern(t *testing.T) {
	tests := []struct {
		name  string
		node  *tree.Node
		flags classify.Flags
	}{
		{"unknown kind without context", node(tree.BinaryExpression, nil), classify.Flags{}},
		{"unknown kind with context", node(tree.BinaryExpression, nil), classify.Flags{InLoop: true}},
		{"constructor with member callee", node(tree.NewExpression, map[string]tree.Value{
			"callee": tree.NodeOf(member(ident("ns"), ident("Thing"), false)),
		}), classify.Flags{}},
		{"call with computed identifier property", call(member(ident("a"), ident("k"), true)), classify.Flags{}},
		{"call of call", call(call(ident("f"))), classify.Flags{}},
		{"null literal", literal(nil, "null"), classify.Flags{}},
		{"identifier without name", node(tree.Identifier, nil), classify.Flags{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if p := Synthesize("1", at(tt.node), tt.flags); p != nil {
				t.Errorf("Synthesize() = %+v, want nil", p)
			}
		})
	}

	if Synthesize("1", nil, classify.Flags{InLoop: true}) != nil {
		t.Error("Synthesize(nil divergence) should be nil")
	}
}

func TestSynthesize_ContextOnly(t *testing.T) {
	d := at(node(tree.BinaryExpression, nil))
	p := Synthesize("9", d, classify.Flags{InLoop: true, InConditional: true}, WithContextOnly(true))
	if p == nil {
		t.Fatal("Synthesize() = nil, want context-only pattern")
	}
	if p.Name != "pattern_9_context_in_loop_in_conditional" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Primary() != nil {
		t.Error("context-only pattern should have no primary condition")
	}
	if p.TargetNodeKind != tree.BinaryExpression {
		t.Errorf("TargetNodeKind = %q", p.TargetNodeKind)
	}

	if Synthesize("9", d, classify.Flags{}, WithContextOnly(true)) != nil {
		t.Error("context-only requires at least one flag")
	}
}

func TestSynthesize_ContextOrder(t *testing.T) {
	p := Synthesize("3", at(ident("x")), classify.Flags{InConditional: true, InFunction: true, InLoop: true})
	want := []ConditionKind{IdentifierName, InLoop, InFunction, InConditional}
	for i, c := range p.Conditions {
		if c.Kind != want[i] {
			t.Errorf("Conditions[%d] = %q, want %q", i, c.Kind, want[i])
		}
	}
	if got := p.Conditions[2].Param(ParamCheck); got != "is_in_function" {
		t.Errorf("check = %q, want is_in_function", got)
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	pair := testutil.LoadPair(t, "nested_contexts")
	d := diff.Diff(pair.Slow, pair.Fast)
	flags := classify.Classify(pair.Slow, d.Path)

	first, err := json.Marshal(Synthesize("42", d, flags))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := json.Marshal(Synthesize("42", d, flags))
		if string(again) != string(first) {
			t.Fatalf("run %d differs:\n%s\n%s", i, again, first)
		}
	}
}

func TestPatternJSONFieldNames(t *testing.T) {
	p := Synthesize("1", at(ident("x")), classify.Flags{})
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"name":"pattern_1_x_identifier","description":"Automatically generated pattern from code diff.","target_node_kind":"Identifier","conditions":[{"kind":"identifier_name","parameters":{"name":"x"}}]}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}
