package esfilter

import (
	"fmt"
	"strconv"
	"time"
)

// ScriptParam is one generated parameter of a script filter, bound to a
// runtime value (an aggregation output) the backend supplies per bucket.
type ScriptParam struct {
	Name string
	Expr Expr
	// Description is the rendered source expression, kept for diagnostics
	// and for callers wiring the binding to the matching aggregation.
	Description string
}

// ScriptSpec is a rendered boolean script and its ordered parameter pool.
type ScriptSpec struct {
	Source string
	Params []ScriptParam
}

// Param returns the parameter with the given generated name.
func (s ScriptSpec) Param(name string) (ScriptParam, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ScriptParam{}, false
}

// scriptBuilder accumulates the parameter pool for one translation call.
// It is owned exclusively by that call and never shared across calls.
//
// Names are assigned in bind order over a fixed left-to-right traversal, so
// a given tree yields identical names on every call.
type scriptBuilder struct {
	names  map[string]string
	params []ScriptParam
}

func newScriptBuilder() *scriptBuilder {
	return &scriptBuilder{names: make(map[string]string)}
}

// bind returns the parameter name for the expression, reusing the existing
// name when a structurally equal expression was bound before.
func (b *scriptBuilder) bind(e Expr) string {
	key := Render(e)
	if name, ok := b.names[key]; ok {
		return name
	}
	name := fmt.Sprintf("a%d", len(b.params))
	b.names[key] = name
	b.params = append(b.params, ScriptParam{Name: name, Expr: e, Description: key})
	return name
}

// render wraps the boolean body in the null-safety filter call: a row whose
// operand is absent is excluded instead of failing the script.
func (b *scriptBuilder) render(body string) ScriptSpec {
	params := make([]ScriptParam, len(b.params))
	copy(params, b.params)
	return ScriptSpec{
		Source: "InternalSqlScriptUtils.nullSafeFilter(" + body + ")",
		Params: params,
	}
}

// scriptValue renders a folded constant as a script literal.
func scriptValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case time.Time:
		return strconv.FormatInt(x.UnixMilli(), 10) + "L"
	default:
		return fmt.Sprintf("%v", x)
	}
}
