package query

import (
	"encoding/json"
	"strings"
	"testing"

	"mbsearch/internal/classify"
	"mbsearch/internal/diff"
	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/pattern"
	"mbsearch/internal/testutil"
)

func TestGenerate_Golden(t *testing.T) {
	gen := NewGenerator(DefaultConfig())

	for _, name := range testutil.AvailablePairs(t) {
		t.Run(name, func(t *testing.T) {
			pair := testutil.LoadPair(t, name)
			d := diff.Diff(pair.Slow, pair.Fast)
			if d == nil {
				t.Fatal("expected a divergence")
			}
			p := pattern.Synthesize("1", d, classify.Classify(pair.Slow, d.Path))
			if p == nil {
				t.Fatal("expected a pattern")
			}
			got, err := gen.Generate(p)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			testutil.CompareGolden(t, name+".ql", []byte(got))
		})
	}
}

func TestGenerate_UnsupportedTargetKind(t *testing.T) {
	p := &pattern.Pattern{
		Name:           "pattern_1_tpl",
		Description:    pattern.DefaultDescription,
		TargetNodeKind: "TemplateLiteral",
		Conditions: []pattern.Condition{
			{Kind: pattern.InLoop, Parameters: map[string]interface{}{"check": "is_in_loop"}},
		},
	}
	out, err := NewGenerator(DefaultConfig()).Generate(p)
	if !mberrors.HasCode(err, mberrors.UnsupportedTargetKind) {
		t.Fatalf("Generate() error = %v, want UNSUPPORTED_TARGET_KIND", err)
	}
	if out != "" {
		t.Errorf("Generate() returned text alongside an error: %q", out)
	}
}

func TestGenerate_MethodCallForcesCallExpr(t *testing.T) {
	p := &pattern.Pattern{
		Name:           "pattern_2_push_method",
		Description:    "d",
		TargetNodeKind: "AssignmentExpression",
		Conditions: []pattern.Condition{
			{Kind: pattern.MethodCall, Parameters: map[string]interface{}{"method_name": "push"}},
		},
	}
	out, err := NewGenerator(DefaultConfig()).Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "from CallExpr callExpr\n") {
		t.Errorf("expected CallExpr rule class, got:\n%s", out)
	}
}

func TestGenerate_PlaceholderSuppression(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		cond      pattern.Condition
		flags     []pattern.Condition
		wantErr   mberrors.ErrorCode
		wantIn    []string
		wantNotIn []string
	}{
		{
			name:   "placeholder object keeps method clauses",
			target: "CallExpression",
			cond: pattern.Condition{Kind: pattern.MethodCall, Parameters: map[string]interface{}{
				"method_name": "concat", "object_name": "VAR_1",
			}},
			wantIn:    []string{"getPropertyName() = 'concat'", "instanceof PropAccess"},
			wantNotIn: []string{"VarAccess", "VAR_1"},
		},
		{
			name:   "placeholder identifier keeps context clause",
			target: "Identifier",
			cond:   pattern.Condition{Kind: pattern.IdentifierName, Parameters: map[string]interface{}{"name": "VAR_0"}},
			flags: []pattern.Condition{
				{Kind: pattern.InFunction, Parameters: map[string]interface{}{"check": "is_in_function"}},
			},
			wantIn:    []string{"where\n  exists(Function func | func.getBody().getAChildStmt*() = identifier.getEnclosingStmt())\nselect"},
			wantNotIn: []string{"getName()", "VAR_0"},
		},
		{
			name:    "placeholder function alone has nothing to translate",
			target:  "CallExpression",
			cond:    pattern.Condition{Kind: pattern.FunctionCall, Parameters: map[string]interface{}{"function_name": "FUNCTION_3"}},
			wantErr: mberrors.NoTranslatableConditions,
		},
		{
			name:    "placeholder identifier alone has nothing to translate",
			target:  "Identifier",
			cond:    pattern.Condition{Kind: pattern.IdentifierName, Parameters: map[string]interface{}{"name": "VAR_x"}},
			wantErr: mberrors.NoTranslatableConditions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &pattern.Pattern{
				Name:           "pattern_5_case",
				Description:    pattern.DefaultDescription,
				TargetNodeKind: tt.target,
				Conditions:     append([]pattern.Condition{tt.cond}, tt.flags...),
			}
			out, err := NewGenerator(DefaultConfig()).Generate(p)
			if tt.wantErr != "" {
				if !mberrors.HasCode(err, tt.wantErr) {
					t.Fatalf("Generate() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			for _, s := range tt.wantIn {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.wantNotIn {
				if strings.Contains(out, s) {
					t.Errorf("output unexpectedly contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestLiteralClauses(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		want   string
	}{
		{"string", map[string]interface{}{"value": "hello", "value_type": "str"}, "literal.getValue() = 'hello'"},
		{"quoted string", map[string]interface{}{"value": `it's \n`, "value_type": "str"}, `literal.getValue() = 'it\'s \\n'`},
		{"newline", map[string]interface{}{"value": "a\nb", "value_type": "str"}, `literal.getValue() = 'a\nb'`},
		{"carriage return", map[string]interface{}{"value": "a\r\nb\tc", "value_type": "str"}, `literal.getValue() = 'a\r\nb\tc'`},
		{"int", map[string]interface{}{"value": int64(100), "value_type": "int"}, "literal.getValue() = '100'"},
		{"int after json", map[string]interface{}{"value": float64(100), "value_type": "int"}, "literal.getValue() = '100'"},
		{"float", map[string]interface{}{"value": 1.5, "value_type": "float"}, "literal.getValue() = '1.5'"},
		{"bool", map[string]interface{}{"value": true, "value_type": "bool"}, "literal.getValue() = 'true'"},
		{"regex", map[string]interface{}{"value": "/a+/g", "raw": "/a+/g", "value_type": "regex"}, "literal.getRawValue() = '/a+/g'"},
	}

	gen := NewGenerator(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &pattern.Pattern{Conditions: []pattern.Condition{{Kind: pattern.LiteralValue, Parameters: tt.params}}}
			got := gen.Clauses(p, "literal")
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("Clauses() = %q, want [%q]", got, tt.want)
			}
		})
	}

	p := &pattern.Pattern{Conditions: []pattern.Condition{{Kind: pattern.LiteralValue, Parameters: map[string]interface{}{
		"value": "x", "value_type": "bigint",
	}}}}
	if got := gen.Clauses(p, "literal"); len(got) != 0 {
		t.Errorf("unknown category produced %q", got)
	}
}

func TestGenerate_HeaderStaysInComment(t *testing.T) {
	p := &pattern.Pattern{
		Name:           "pattern_*/_x",
		Description:    "closes */ early\nsecond line",
		TargetNodeKind: "Identifier",
		Conditions: []pattern.Condition{
			{Kind: pattern.IdentifierName, Parameters: map[string]interface{}{"name": "total"}},
		},
	}
	got, err := NewGenerator(DefaultConfig()).Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	header := got[:strings.Index(got, "\nimport ")]
	if n := strings.Count(header, "*/"); n != 1 || !strings.HasSuffix(header, " */\n") {
		t.Errorf("doc comment closed %d times:\n%s", n, got)
	}
	if !strings.Contains(got, " * @description closes *\\/ early second line\n") {
		t.Errorf("description not kept on one line:\n%s", got)
	}
	if !strings.Contains(got, `select identifier, "closes */ early\nsecond line"`) {
		t.Errorf("select message not escaped:\n%s", got)
	}
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "second") {
			t.Errorf("description leaked onto its own line:\n%s", got)
		}
	}
}

func TestGenerate_FromPersistedPattern(t *testing.T) {
	pair := testutil.LoadPair(t, "new_string_in_loop")
	d := diff.Diff(pair.Slow, pair.Fast)
	p := pattern.Synthesize("1", d, classify.Classify(pair.Slow, d.Path))

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back pattern.Pattern
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	gen := NewGenerator(DefaultConfig())
	want, _ := gen.Generate(p)
	got, err := gen.Generate(&back)
	if err != nil {
		t.Fatalf("Generate(persisted): %v", err)
	}
	if got != want {
		t.Errorf("persisted pattern renders differently:\n%s\nwant:\n%s", got, want)
	}
}

func TestGenerate_CustomConfig(t *testing.T) {
	gen := NewGenerator(Config{Namespace: "ts/perf", LanguageModule: "typescript"})
	p := &pattern.Pattern{
		Name:           "pattern_8_Map_constructor",
		Description:    `Uses "Map"`,
		TargetNodeKind: "NewExpression",
		Conditions: []pattern.Condition{
			{Kind: pattern.ConstructorCall, Parameters: map[string]interface{}{"constructor_name": "Map"}},
		},
	}
	out, err := gen.Generate(p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, s := range []string{
		" * @id ts/perf/pattern-8-map-constructor\n",
		"\nimport typescript\n",
		`select newExpr, "Uses \"Map\""`,
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
	if gen.Config().VariablePlaceholderPrefix != "VAR_" {
		t.Errorf("empty placeholder prefix should default to VAR_")
	}
}

func TestRuleClassTable(t *testing.T) {
	tests := map[string]string{
		"NewExpression":           "NewExpr",
		"CallExpression":          "CallExpr",
		"MemberExpression":        "PropAccess",
		"LogicalExpression":       "LogicalBinaryExpr",
		"ArrowFunctionExpression": "ArrowFunctionExpr",
	}
	for kind, want := range tests {
		got, ok := RuleClass(kind)
		if !ok || got != want {
			t.Errorf("RuleClass(%s) = %q, %v; want %q", kind, got, ok, want)
		}
	}
	if _, ok := RuleClass("TemplateLiteral"); ok {
		t.Error("TemplateLiteral should have no rule class")
	}
	if got := VariableName("ArrowFunctionExpr"); got != "arrowFunctionExpr" {
		t.Errorf("VariableName() = %q", got)
	}
	if got := RuleID("js/performance", "Pattern_1 Big_Name"); got != "js/performance/pattern-1-big-name" {
		t.Errorf("RuleID() = %q", got)
	}
}
