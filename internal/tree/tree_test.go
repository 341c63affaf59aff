package tree

import (
	"encoding/json"
	"reflect"
	"testing"
)

const callJSON = `{
  "type": "Program",
  "sourceType": "script",
  "body": [
    {
      "type": "ExpressionStatement",
      "expression": {
        "type": "CallExpression",
        "callee": {
          "type": "MemberExpression",
          "computed": false,
          "object": {"type": "Identifier", "name": "arr", "loc": {"start": {"line": 1, "column": 0}, "end": {"line": 1, "column": 3}}},
          "property": {"type": "Identifier", "name": "forEach"}
        },
        "arguments": [{"type": "Literal", "value": 1.5, "raw": "1.5"}, null]
      },
      "range": [0, 20]
    }
  ]
}`

func TestDecodeJSON(t *testing.T) {
	root, err := DecodeJSON([]byte(callJSON))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if root.Kind != Program {
		t.Fatalf("root kind = %q, want Program", root.Kind)
	}

	stmt := root.Children("body")[0]
	if _, ok := stmt.Fields["range"]; ok {
		t.Error("range should be dropped as position metadata")
	}

	call := stmt.Child("expression")
	if !call.Is(CallExpression) {
		t.Fatalf("expression kind = %q", call.Kind)
	}
	args := call.Children("arguments")
	if len(args) != 2 || args[1] != nil {
		t.Fatalf("arguments = %v, want literal and hole", args)
	}
	if v, _ := args[0].Scalar("value"); v != 1.5 {
		t.Errorf("literal value = %v (%T), want 1.5", v, v)
	}

	obj := call.Child("callee").Child("object")
	if obj.Loc == nil || obj.Loc.End.Column != 3 {
		t.Errorf("object loc = %+v, want end column 3", obj.Loc)
	}
	if _, ok := obj.Fields[LocField]; ok {
		t.Error("loc must not appear among fields")
	}
	if v, _ := call.Child("callee").Scalar("computed"); v != false {
		t.Errorf("computed = %v, want false", v)
	}
}

func TestDecodeJSON_Integers(t *testing.T) {
	root, err := DecodeJSON([]byte(`{"type":"Literal","value":42,"raw":"42"}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v, _ := root.Scalar("value"); v != int64(42) {
		t.Errorf("value = %v (%T), want int64 42", v, v)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	for _, input := range []string{`[1,2]`, `{"type": 3}`, `not json`} {
		if _, err := DecodeJSON([]byte(input)); err == nil {
			t.Errorf("DecodeJSON(%q) expected error", input)
		}
	}
}

func TestGenericRoundTrip(t *testing.T) {
	root, err := DecodeJSON([]byte(callJSON))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	data, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON(again): %v", err)
	}
	if !reflect.DeepEqual(ToGeneric(root), ToGeneric(again)) {
		t.Error("tree changed across a JSON round trip")
	}
}

func TestFieldNamesSorted(t *testing.T) {
	n := New(CallExpression, map[string]Value{
		"optional":  ScalarOf(false),
		"callee":    NodeOf(New(Identifier, nil)),
		"arguments": ListOf(),
	})
	want := []string{"arguments", "callee", "optional"}
	if got := n.FieldNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestResolve(t *testing.T) {
	root, err := DecodeJSON([]byte(callJSON))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}

	tests := []struct {
		path     string
		wantKind string
		wantOK   bool
	}{
		{"", Program, true},
		{"body[0]", ExpressionStatement, true},
		{"body[0].expression.callee.property", Identifier, true},
		{"body[0].expression.arguments[0]", Literal, true},
		{"body[0].expression.arguments[1]", "", false},
		{"body[0].expression.arguments[2]", "", false},
		{"body[3]", "", false},
		{"body.expression", "", false},
		{"body[0].missing", "", false},
		{"body[0].expression.callee.computed", "", false},
		{"sourceType[0]", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p, err := ParsePath(tt.path)
			if err != nil {
				t.Fatalf("ParsePath: %v", err)
			}
			n, ok := Resolve(root, p)
			if ok != tt.wantOK {
				t.Fatalf("Resolve ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && n.Kind != tt.wantKind {
				t.Errorf("Resolve kind = %q, want %q", n.Kind, tt.wantKind)
			}
		})
	}
}

func TestResolveNilRoot(t *testing.T) {
	if _, ok := Resolve(nil, nil); ok {
		t.Error("Resolve(nil) should fail")
	}
}

func TestPathString(t *testing.T) {
	p := Path{FieldStep("body"), IndexStep(0), FieldStep("expression"), FieldStep("arguments"), IndexStep(2)}
	if got, want := p.String(), "body[0].expression.arguments[2]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	parsed, err := ParsePath(p.String())
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if !parsed.Equal(p) {
		t.Errorf("ParsePath(String()) = %v, want %v", parsed, p)
	}
	if _, err := ParsePath("body[x]"); err == nil {
		t.Error("expected error for non-numeric index")
	}
}

func TestPathJSON(t *testing.T) {
	p := Path{FieldStep("body"), IndexStep(1), FieldStep("right")}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["body",1,"right"]` {
		t.Errorf("Marshal = %s", data)
	}
	var back Path
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.Equal(p) {
		t.Errorf("Unmarshal = %v, want %v", back, p)
	}
}

func TestPathAppendDoesNotAlias(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = FieldStep("body")
	a := base.Append(IndexStep(0))
	b := base.Append(IndexStep(1))
	if a[1].Index() != 0 || b[1].Index() != 1 {
		t.Errorf("Append aliased: a=%v b=%v", a, b)
	}
}

func TestScalarEqual(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want bool
	}{
		{int64(1), int64(1), true},
		{int64(1), 1.0, true},
		{1.5, 1.5, true},
		{int64(1), "1", false},
		{"a", "a", true},
		{true, true, true},
		{true, false, false},
		{nil, nil, true},
		{nil, false, false},
		{nil, int64(0), false},
	}
	for _, tt := range tests {
		if got := ScalarEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("ScalarEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
