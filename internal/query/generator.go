// Package query renders mined patterns as CodeQL problem queries.
package query

import (
	"fmt"
	"strings"

	mberrors "mbsearch/internal/errors"
	"mbsearch/internal/pattern"
	"mbsearch/internal/tree"
)

// ruleClasses maps ESTree node kinds to the CodeQL class matching them.
var ruleClasses = map[string]string{
	tree.NewExpression:           "NewExpr",
	tree.CallExpression:          "CallExpr",
	tree.Literal:                 "Literal",
	tree.Identifier:              "Identifier",
	tree.MemberExpression:        "PropAccess",
	tree.BinaryExpression:        "BinaryExpr",
	tree.UnaryExpression:         "UnaryExpr",
	tree.AssignmentExpression:    "AssignExpr",
	tree.UpdateExpression:        "UpdateExpr",
	tree.LogicalExpression:       "LogicalBinaryExpr",
	tree.ConditionalExpression:   "ConditionalExpr",
	tree.ArrayExpression:         "ArrayExpr",
	tree.ObjectExpression:        "ObjectExpr",
	tree.FunctionExpression:      "FunctionExpr",
	tree.ArrowFunctionExpression: "ArrowFunctionExpr",
}

// RuleClass returns the CodeQL class for an ESTree kind.
func RuleClass(kind string) (string, bool) {
	class, ok := ruleClasses[kind]
	return class, ok
}

// VariableName derives the query variable from a rule class: NewExpr -> newExpr.
func VariableName(class string) string {
	if class == "" {
		return ""
	}
	return strings.ToLower(class[:1]) + class[1:]
}

// RuleID builds the @id of a query: namespace plus the hyphenated, lower-cased
// pattern name.
func RuleID(namespace, name string) string {
	slug := strings.ToLower(name)
	slug = strings.NewReplacer("_", "-", " ", "-").Replace(slug)
	return namespace + "/" + slug
}

// Config controls the text of generated queries.
type Config struct {
	// Namespace prefixes every rule id, e.g. "js/performance"
	Namespace string

	// LanguageModule is the CodeQL library imported by the query
	LanguageModule string

	// VariablePlaceholderPrefix marks synthetic variable names whose
	// name clauses are dropped
	VariablePlaceholderPrefix string

	// FunctionPlaceholderPrefix marks synthetic function names
	FunctionPlaceholderPrefix string
}

// DefaultConfig returns the JavaScript performance query settings.
func DefaultConfig() Config {
	return Config{
		Namespace:                 "js/performance",
		LanguageModule:            "javascript",
		VariablePlaceholderPrefix: "VAR_",
		FunctionPlaceholderPrefix: "FUNCTION_",
	}
}

// Generator renders patterns into query text. It holds no mutable state and
// is safe for concurrent use.
type Generator struct {
	cfg Config
}

// NewGenerator creates a generator; empty config fields take their defaults.
func NewGenerator(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.LanguageModule == "" {
		cfg.LanguageModule = def.LanguageModule
	}
	if cfg.VariablePlaceholderPrefix == "" {
		cfg.VariablePlaceholderPrefix = def.VariablePlaceholderPrefix
	}
	if cfg.FunctionPlaceholderPrefix == "" {
		cfg.FunctionPlaceholderPrefix = def.FunctionPlaceholderPrefix
	}
	return &Generator{cfg: cfg}
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate renders p. It fails with UNSUPPORTED_TARGET_KIND when the target
// kind has no rule class and with NO_TRANSLATABLE_CONDITIONS when no
// condition yields a clause.
func (g *Generator) Generate(p *pattern.Pattern) (string, error) {
	if p == nil {
		return "", mberrors.New(mberrors.InvalidInput, "nil pattern")
	}

	class, ok := RuleClass(p.TargetNodeKind)
	if p.HasCondition(pattern.MethodCall) {
		class, ok = "CallExpr", true
	}
	if !ok {
		return "", mberrors.Newf(mberrors.UnsupportedTargetKind,
			"no rule class for node kind %q", p.TargetNodeKind).WithDetails(map[string]string{"pattern": p.Name})
	}
	variable := VariableName(class)

	clauses := g.Clauses(p, variable)
	if len(clauses) == 0 {
		return "", mberrors.Newf(mberrors.NoTranslatableConditions,
			"pattern %s has no translatable conditions", p.Name)
	}

	var b strings.Builder
	b.WriteString("/**\n")
	fmt.Fprintf(&b, " * @name %s\n", headerLine(p.Name))
	fmt.Fprintf(&b, " * @description %s\n", headerLine(p.Description))
	b.WriteString(" * @kind problem\n")
	b.WriteString(" * @problem.severity warning\n")
	fmt.Fprintf(&b, " * @id %s\n", headerLine(RuleID(g.cfg.Namespace, p.Name)))
	b.WriteString(" * @tags performance\n")
	b.WriteString(" *       maintainability\n")
	b.WriteString(" */\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "import %s\n", g.cfg.LanguageModule)
	b.WriteString("\n")
	fmt.Fprintf(&b, "from %s %s\n", class, variable)
	b.WriteString("where\n")
	fmt.Fprintf(&b, "  %s\n", strings.Join(clauses, " and\n  "))
	fmt.Fprintf(&b, "select %s, \"%s\"\n", variable, escapeDouble(p.Description))
	return b.String(), nil
}
