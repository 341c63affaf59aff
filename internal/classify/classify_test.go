package classify

import (
	"testing"

	"mbsearch/internal/diff"
	"mbsearch/internal/testutil"
	"mbsearch/internal/tree"
)

func mustPath(t *testing.T, s string) tree.Path {
	t.Helper()
	p, err := tree.ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", s, err)
	}
	return p
}

func TestClassify_Fixtures(t *testing.T) {
	tests := []struct {
		fixture string
		want    Flags
	}{
		{"new_string_in_loop", Flags{InLoop: true}},
		{"foreach_to_for_of", Flags{}},
		{"nested_contexts", Flags{InLoop: true, InFunction: true, InConditional: true}},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			pair := testutil.LoadPair(t, tt.fixture)
			d := diff.Diff(pair.Slow, pair.Fast)
			if d == nil {
				t.Fatal("expected a divergence")
			}
			if got := Classify(pair.Slow, d.Path); got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassify_Paths(t *testing.T) {
	root := testutil.LoadTree(t, "nested_contexts.slow")

	tests := []struct {
		name string
		path string
		want Flags
	}{
		{"root", "", Flags{}},
		{"function itself is not inside a function", "body[0]", Flags{}},
		{"loop itself is not in a loop", "body[0].body.body[0]", Flags{InFunction: true}},
		{"inside for and while", "body[0].body.body[0].body.body[0].body", Flags{InLoop: true, InFunction: true}},
		{"if test", "body[0].body.body[0].body.body[0].body.body[0].test", Flags{InLoop: true, InFunction: true, InConditional: true}},
		{"malformed tail still sees valid ancestors", "body[0].body.body[0].nope.deeper", Flags{InLoop: true, InFunction: true}},
		{"unresolvable from the start", "missing[4].x", Flags{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(root, mustPath(t, tt.path)); got != tt.want {
				t.Errorf("Classify(%s) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestClassify_NestedLoopDepth(t *testing.T) {
	// for (;;) { while (true) { x; } }
	x := tree.New(tree.Identifier, map[string]tree.Value{"name": tree.ScalarOf("x")})
	stmt := tree.New(tree.ExpressionStatement, map[string]tree.Value{"expression": tree.NodeOf(x)})
	while := tree.New(tree.WhileStatement, map[string]tree.Value{
		"test": tree.NodeOf(tree.New(tree.Literal, map[string]tree.Value{"value": tree.ScalarOf(true)})),
		"body": tree.NodeOf(tree.New(tree.BlockStatement, map[string]tree.Value{"body": tree.ListOf(stmt)})),
	})
	loop := tree.New(tree.ForStatement, map[string]tree.Value{
		"init": tree.Absent(),
		"body": tree.NodeOf(tree.New(tree.BlockStatement, map[string]tree.Value{"body": tree.ListOf(while)})),
	})
	root := tree.New(tree.Program, map[string]tree.Value{"body": tree.ListOf(loop)})

	path := mustPath(t, "body[0].body.body[0].body.body[0].expression")
	if n, ok := tree.Resolve(root, path); !ok || n != x {
		t.Fatal("test path does not resolve to x")
	}
	if got := Classify(root, path); !got.InLoop || got.InFunction || got.InConditional {
		t.Errorf("Classify() = %+v, want only InLoop", got)
	}
}

func TestClassify_NilRoot(t *testing.T) {
	if got := Classify(nil, mustPath(t, "body[0]")); got.Any() {
		t.Errorf("Classify(nil) = %+v, want no flags", got)
	}
}

func TestKindSets(t *testing.T) {
	for _, k := range []string{"ForStatement", "WhileStatement", "DoWhileStatement", "ForInStatement", "ForOfStatement"} {
		if !IsLoop(k) {
			t.Errorf("IsLoop(%s) = false", k)
		}
	}
	for _, k := range []string{"FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression"} {
		if !IsFunction(k) {
			t.Errorf("IsFunction(%s) = false", k)
		}
	}
	for _, k := range []string{"IfStatement", "ConditionalExpression", "SwitchStatement"} {
		if !IsConditional(k) {
			t.Errorf("IsConditional(%s) = false", k)
		}
	}
	if IsLoop("BlockStatement") || IsFunction("CallExpression") || IsConditional("LogicalExpression") {
		t.Error("unexpected kind membership")
	}
}
