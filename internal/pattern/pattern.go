// Package pattern turns a divergence and its context into a reusable
// structural pattern.
package pattern

import (
	"fmt"

	"mbsearch/internal/classify"
	"mbsearch/internal/diff"
)

// ConditionKind is the closed vocabulary of pattern conditions.
type ConditionKind string

const (
	ConstructorCall ConditionKind = "constructor_call"
	MethodCall      ConditionKind = "method_call"
	FunctionCall    ConditionKind = "function_call"
	LiteralValue    ConditionKind = "literal_value"
	IdentifierName  ConditionKind = "identifier_name"
	InLoop          ConditionKind = "in_loop"
	InFunction      ConditionKind = "in_function"
	InConditional   ConditionKind = "in_conditional"
)

// IsContext reports whether the kind describes an enclosing context rather
// than the target node itself.
func (k ConditionKind) IsContext() bool {
	return k == InLoop || k == InFunction || k == InConditional
}

// Parameter names used by the structural conditions.
const (
	ParamConstructorName = "constructor_name"
	ParamMethodName      = "method_name"
	ParamObjectName      = "object_name"
	ParamFunctionName    = "function_name"
	ParamValue           = "value"
	ParamRaw             = "raw"
	ParamValueType       = "value_type"
	ParamName            = "name"
	ParamPath            = "path"
	ParamCheck           = "check"
)

// Literal value categories.
const (
	CategoryString = "str"
	CategoryInt    = "int"
	CategoryFloat  = "float"
	CategoryBool   = "bool"
	CategoryRegex  = "regex"
)

// DefaultDescription is used when no condition supplies a better one.
const DefaultDescription = "Automatically generated pattern from code diff."

// Condition is one predicate a matching node must satisfy.
type Condition struct {
	Kind       ConditionKind          `json:"kind" yaml:"kind"`
	Parameters map[string]interface{} `json:"parameters" yaml:"parameters"`
}

// Param returns a parameter rendered as a string, or "" if it is missing.
func (c Condition) Param(name string) string {
	v, ok := c.Parameters[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Pattern is a mined structural rule. Conditions is never empty.
type Pattern struct {
	Name           string      `json:"name" yaml:"name"`
	Description    string      `json:"description" yaml:"description"`
	TargetNodeKind string      `json:"target_node_kind" yaml:"target_node_kind"`
	Conditions     []Condition `json:"conditions" yaml:"conditions"`
}

// HasCondition reports whether the pattern carries a condition of kind.
func (p *Pattern) HasCondition(kind ConditionKind) bool {
	for _, c := range p.Conditions {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// Primary returns the structural condition, or nil for a context-only pattern.
func (p *Pattern) Primary() *Condition {
	for i := range p.Conditions {
		if !p.Conditions[i].Kind.IsContext() {
			return &p.Conditions[i]
		}
	}
	return nil
}

// Option configures Synthesize.
type Option func(*options)

type options struct {
	allowContextOnly bool
}

// WithContextOnly lets a divergence with no structural condition still
// produce a pattern when at least one context flag is set.
func WithContextOnly(allow bool) Option {
	return func(o *options) {
		o.allowContextOnly = allow
	}
}

// Synthesize builds the pattern for one divergence of the pair identified by
// id. It returns nil when no condition can be derived.
func Synthesize(id string, d *diff.Divergence, flags classify.Flags, opts ...Option) *Pattern {
	if d == nil || d.Node == nil {
		return nil
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pattern{
		Description:    DefaultDescription,
		TargetNodeKind: d.Node.Kind,
	}

	primary, seed, description := primaryCondition(id, d.Node)
	if primary != nil {
		p.Conditions = append(p.Conditions, *primary)
		p.Name = seed
		if description != "" {
			p.Description = description
		}
	} else {
		if !o.allowContextOnly || !flags.Any() {
			return nil
		}
		p.Name = fmt.Sprintf("pattern_%s_context", id)
	}

	for _, ctx := range contextConditions(flags) {
		p.Conditions = append(p.Conditions, ctx)
		p.Name += "_" + string(ctx.Kind)
	}

	if len(p.Conditions) == 0 {
		return nil
	}
	return p
}

func contextConditions(flags classify.Flags) []Condition {
	var out []Condition
	if flags.InLoop {
		out = append(out, Condition{Kind: InLoop, Parameters: map[string]interface{}{ParamCheck: "is_in_loop"}})
	}
	if flags.InFunction {
		out = append(out, Condition{Kind: InFunction, Parameters: map[string]interface{}{ParamCheck: "is_in_function"}})
	}
	if flags.InConditional {
		out = append(out, Condition{Kind: InConditional, Parameters: map[string]interface{}{ParamCheck: "is_in_conditional"}})
	}
	return out
}
