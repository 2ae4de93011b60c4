package esfilter

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// QueryTranslation pairs a structural query node with any residual script
// filter. For a single predicate exactly one side is populated; an AND of a
// structural part and a post-aggregation script part populates both, and the
// caller composes them at the statement level.
type QueryTranslation struct {
	Query  QueryNode
	Script *ScriptSpec
}

// ToQuery translates an analyzed boolean expression tree into the backend's
// executable form.
//
// The call is a pure function of its inputs: the tree and schema are read
// but never mutated, and no state survives the call, so concurrent calls
// need no synchronization. exact selects the match mode used to resolve
// pattern-match targets; equality, range and set-membership always resolve
// to an exact field representation.
func ToQuery(schema *Schema, e Expr, exact bool) (QueryTranslation, error) {
	t := &translator{schema: schema, exact: exact, scripts: newScriptBuilder()}
	res, err := t.translate(e)
	if err != nil {
		return QueryTranslation{}, err
	}
	qt := QueryTranslation{Query: res.query}
	if res.script != "" {
		spec := t.scripts.render(res.script)
		qt.Script = &spec
	}
	return qt, nil
}

type translator struct {
	schema *Schema
	exact  bool
	// scripts is owned by this call; threading one builder through the whole
	// traversal lets equal aggregate refs on both sides of AND/OR share a
	// parameter name.
	scripts *scriptBuilder
}

// result is a partial translation: a structural query, an unwrapped script
// body, or (for AND compositions) both.
type result struct {
	query  QueryNode
	script string
}

func (t *translator) translate(e Expr) (result, error) {
	switch v := e.(type) {
	case *And:
		left, err := t.translate(v.Left)
		if err != nil {
			return result{}, err
		}
		right, err := t.translate(v.Right)
		if err != nil {
			return result{}, err
		}
		return combineAnd(left, right), nil

	case *Or:
		left, err := t.translate(v.Left)
		if err != nil {
			return result{}, err
		}
		right, err := t.translate(v.Right)
		if err != nil {
			return result{}, err
		}
		switch {
		case left.script == "" && right.script == "":
			return result{query: &BoolQuery{Left: left.query, Right: right.query}}, nil
		case left.query == nil && right.query == nil:
			return result{script: "(" + left.script + ") || (" + right.script + ")"}, nil
		default:
			return result{}, &UnsupportedDisjunctionError{Expr: v}
		}

	case *Not:
		inner, err := t.translate(v.Inner)
		if err != nil {
			return result{}, err
		}
		if inner.query != nil && inner.script != "" {
			return result{}, fmt.Errorf("%scannot negate a combined index/script filter [%s]",
				v.Src.prefix(), Render(v.Inner))
		}
		if inner.script != "" {
			return result{script: "!(" + inner.script + ")"}, nil
		}
		return result{query: &NotQuery{Child: inner.query}}, nil

	case *Comparison:
		return t.comparison(v)
	case *In:
		return t.in(v)
	case *Like:
		return t.like(v)

	default:
		return result{}, fmt.Errorf("%sunsupported predicate [%s]", e.Pos().prefix(), Render(e))
	}
}

func combineAnd(left, right result) result {
	var out result
	switch {
	case left.query != nil && right.query != nil:
		out.query = &BoolQuery{And: true, Left: left.query, Right: right.query}
	case left.query != nil:
		out.query = left.query
	default:
		out.query = right.query
	}
	switch {
	case left.script != "" && right.script != "":
		out.script = "(" + left.script + ") && (" + right.script + ")"
	case left.script != "":
		out.script = left.script
	default:
		out.script = right.script
	}
	return out
}

func (t *translator) comparison(v *Comparison) (result, error) {
	lf, leftIsField := v.Left.(*FieldRef)
	rf, rightIsField := v.Right.(*FieldRef)
	if leftIsField && rightIsField {
		return result{}, &CorrelatedComparisonError{Expr: v}
	}

	// Aggregate outputs are not index fields; comparing one becomes a
	// script over a generated parameter.
	if agg, ok := v.Left.(*AggregateRef); ok {
		return t.aggComparison(agg, v.Right, v.Op)
	}
	if agg, ok := v.Right.(*AggregateRef); ok {
		return t.aggComparison(agg, v.Left, mirror(v.Op))
	}

	var field *FieldRef
	var other Expr
	op := v.Op
	switch {
	case leftIsField:
		field, other = lf, v.Right
	case rightIsField:
		field, other = rf, v.Left
		op = mirror(op)
	default:
		return result{}, fmt.Errorf("%sunsupported comparison [%s]", v.Src.prefix(), Render(v))
	}

	value, ok, err := fold(other)
	if err != nil {
		return result{}, err
	}
	if !ok {
		return result{}, &UnsupportedComparisonError{Offender: other, Context: string(v.Op)}
	}

	resolved, err := t.schema.ResolveExact(field.Name, true, field.Src)
	if err != nil {
		return result{}, err
	}

	switch op {
	case CompareEq:
		return result{query: &TermQuery{Field: resolved, Value: value}}, nil
	case CompareGt:
		return result{query: &RangeQuery{Field: resolved, Lower: value}}, nil
	case CompareGte:
		return result{query: &RangeQuery{Field: resolved, Lower: value, IncludeLower: true}}, nil
	case CompareLt:
		return result{query: &RangeQuery{Field: resolved, Upper: value}}, nil
	case CompareLte:
		return result{query: &RangeQuery{Field: resolved, Upper: value, IncludeUpper: true}}, nil
	default:
		return result{}, fmt.Errorf("unsupported comparison operator %q", v.Op)
	}
}

func (t *translator) aggComparison(agg *AggregateRef, other Expr, op CompareOp) (result, error) {
	value, ok, err := fold(other)
	if err != nil {
		return result{}, err
	}
	if !ok {
		return result{}, &UnsupportedComparisonError{Offender: other, Context: string(op)}
	}
	name := t.scripts.bind(agg)
	return result{script: fmt.Sprintf("params.%s%s%s", name, scriptOp(op), scriptValue(value))}, nil
}

func (t *translator) in(v *In) (result, error) {
	// Members must fold; nulls drop out and duplicates collapse so that two
	// lists differing only in order or repetition translate identically.
	values := make([]any, 0, len(v.List))
	seen := make(map[string]bool, len(v.List))
	for _, m := range v.List {
		value, ok, err := fold(m)
		if err != nil {
			return result{}, err
		}
		if !ok {
			return result{}, &UnsupportedComparisonError{Offender: m, Context: Render(v)}
		}
		if value == nil {
			continue
		}
		key := valueKey(value)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, value)
	}
	sortValues(values)

	switch target := v.Target.(type) {
	case *FieldRef:
		resolved, err := t.schema.ResolveExact(target.Name, true, target.Src)
		if err != nil {
			return result{}, err
		}
		return result{query: &TermsQuery{Field: resolved, Values: values}}, nil

	case *AggregateRef:
		name := t.scripts.bind(target)
		if len(values) == 0 {
			return result{script: "false"}, nil
		}
		parts := make([]string, 0, len(values))
		for _, value := range values {
			parts = append(parts, fmt.Sprintf("params.%s==%s", name, scriptValue(value)))
		}
		return result{script: strings.Join(parts, " || ")}, nil

	default:
		return result{}, fmt.Errorf("%sunsupported IN target [%s]", v.Src.prefix(), Render(v.Target))
	}
}

func (t *translator) like(v *Like) (result, error) {
	target, ok := v.Target.(*FieldRef)
	if !ok {
		return result{}, &UnsupportedPatternError{Target: v.Target}
	}
	value, foldable, err := fold(v.Pattern)
	if err != nil {
		return result{}, err
	}
	if !foldable {
		return result{}, &UnsupportedComparisonError{Offender: v.Pattern, Context: "LIKE"}
	}
	pattern, ok := value.(string)
	if !ok {
		return result{}, fmt.Errorf("%sLIKE pattern must be a string, got [%s]",
			v.Src.prefix(), Render(v.Pattern))
	}
	resolved, err := t.schema.ResolveExact(target.Name, t.exact, target.Src)
	if err != nil {
		return result{}, err
	}
	return result{query: &WildcardQuery{Field: resolved, Pattern: sqlToWildcard(pattern)}}, nil
}

func mirror(op CompareOp) CompareOp {
	switch op {
	case CompareLt:
		return CompareGt
	case CompareLte:
		return CompareGte
	case CompareGt:
		return CompareLt
	case CompareGte:
		return CompareLte
	default:
		return op
	}
}

func scriptOp(op CompareOp) string {
	if op == CompareEq {
		return "=="
	}
	return string(op)
}

// sqlToWildcard rewrites SQL pattern wildcards to the backend's, escaping
// characters that are literal in SQL but special to the backend.
func sqlToWildcard(pattern string) string {
	var sb strings.Builder
	sb.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '%':
			sb.WriteByte('*')
		case '_':
			sb.WriteByte('?')
		case '*', '?':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\\':
			if i+1 < len(pattern) {
				i++
				sb.WriteByte(pattern[i])
			} else {
				sb.WriteByte(c)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func valueKey(v any) string {
	switch x := v.(type) {
	case time.Time:
		return fmt.Sprintf("time|%d", x.UnixNano())
	default:
		return fmt.Sprintf("%T|%v", v, v)
	}
}

// sortValues orders folded values stably: numerics first (numeric order),
// then strings (lexicographic), booleans, timestamps.
func sortValues(values []any) {
	sort.SliceStable(values, func(i, j int) bool {
		a, b := values[i], values[j]
		ra, rb := valueRank(a), valueRank(b)
		if ra != rb {
			return ra < rb
		}
		switch ra {
		case 0:
			fa, _ := asFloat64(a)
			fb, _ := asFloat64(b)
			return fa < fb
		case 1:
			return a.(string) < b.(string)
		case 2:
			return !a.(bool) && b.(bool)
		case 3:
			return a.(time.Time).Before(b.(time.Time))
		default:
			return valueKey(a) < valueKey(b)
		}
	})
}

func valueRank(v any) int {
	if _, ok := asFloat64(v); ok {
		return 0
	}
	switch v.(type) {
	case string:
		return 1
	case bool:
		return 2
	case time.Time:
		return 3
	default:
		return 4
	}
}
