package query

import (
	"encoding/json"
	"strconv"
	"strings"

	"mbsearch/internal/pattern"
)

// Clauses translates the pattern's conditions, in order, into where-clause
// fragments over variable. Conditions that translate to nothing are skipped.
func (g *Generator) Clauses(p *pattern.Pattern, variable string) []string {
	var clauses []string
	for _, c := range p.Conditions {
		clauses = append(clauses, g.clause(c, variable)...)
	}
	return clauses
}

func (g *Generator) clause(c pattern.Condition, v string) []string {
	switch c.Kind {
	case pattern.ConstructorCall:
		name := c.Param(pattern.ParamConstructorName)
		if name == "" {
			return nil
		}
		return []string{v + ".getCallee().(Identifier).getName() = " + quote(name)}

	case pattern.MethodCall:
		method := c.Param(pattern.ParamMethodName)
		if method == "" {
			return nil
		}
		out := []string{
			v + ".getCallee() instanceof PropAccess",
			v + ".getCallee().(PropAccess).getPropertyName() = " + quote(method),
		}
		if obj := c.Param(pattern.ParamObjectName); obj != "" && !g.isVariablePlaceholder(obj) {
			out = append(out, v+".getCallee().(PropAccess).getBase().(VarAccess).getName() = "+quote(obj))
		}
		return out

	case pattern.FunctionCall:
		name := c.Param(pattern.ParamFunctionName)
		if name == "" || strings.HasPrefix(name, g.cfg.FunctionPlaceholderPrefix) {
			return nil
		}
		return []string{v + ".getCallee().(Identifier).getName() = " + quote(name)}

	case pattern.LiteralValue:
		return literalClause(c, v)

	case pattern.IdentifierName:
		name := c.Param(pattern.ParamName)
		if name == "" || g.isVariablePlaceholder(name) {
			return nil
		}
		return []string{v + ".getName() = " + quote(name)}

	case pattern.InLoop:
		return []string{"exists(LoopStmt loop | loop.getBody().getAChildStmt*() = " + v + ".getEnclosingStmt())"}

	case pattern.InFunction:
		return []string{"exists(Function func | func.getBody().getAChildStmt*() = " + v + ".getEnclosingStmt())"}

	case pattern.InConditional:
		return []string{"exists(IfStmt ifstmt | ifstmt.getAChildStmt*() = " + v + ".getEnclosingStmt())"}
	}
	return nil
}

func (g *Generator) isVariablePlaceholder(name string) bool {
	return strings.HasPrefix(name, g.cfg.VariablePlaceholderPrefix)
}

func literalClause(c pattern.Condition, v string) []string {
	raw := c.Parameters[pattern.ParamValue]
	switch c.Param(pattern.ParamValueType) {
	case pattern.CategoryString:
		s, ok := raw.(string)
		if !ok {
			return nil
		}
		return []string{v + ".getValue() = " + quote(s)}
	case pattern.CategoryInt:
		s, ok := formatInt(raw)
		if !ok {
			return nil
		}
		return []string{v + ".getValue() = " + quote(s)}
	case pattern.CategoryFloat:
		s, ok := formatFloat(raw)
		if !ok {
			return nil
		}
		return []string{v + ".getValue() = " + quote(s)}
	case pattern.CategoryBool:
		b, ok := raw.(bool)
		if !ok {
			return nil
		}
		return []string{v + ".getValue() = " + quote(strconv.FormatBool(b))}
	case pattern.CategoryRegex:
		text := c.Param(pattern.ParamRaw)
		if text == "" {
			text = c.Param(pattern.ParamValue)
		}
		if text == "" {
			return nil
		}
		return []string{v + ".getRawValue() = " + quote(text)}
	}
	return nil
}

// formatInt accepts the int64 produced by synthesis as well as the float64
// or json.Number produced by decoding a persisted pattern.
func formatInt(raw interface{}) (string, bool) {
	switch x := raw.(type) {
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatInt(int64(x), 10), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

func formatFloat(raw interface{}) (string, bool) {
	switch x := raw.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

var (
	singleQuoted = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	doubleQuoted = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	headerText   = strings.NewReplacer("*/", "*\\/", "\r\n", " ", "\n", " ", "\r", " ")
)

// quote renders s as a single-quoted QL string literal.
func quote(s string) string {
	return "'" + singleQuoted.Replace(s) + "'"
}

func escapeDouble(s string) string {
	return doubleQuoted.Replace(s)
}

// headerLine keeps a value on one line of the query's doc comment and stops
// it from closing the comment.
func headerLine(s string) string {
	return headerText.Replace(s)
}
