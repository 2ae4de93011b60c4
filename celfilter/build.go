package celfilter

import (
	"fmt"

	exprv1 "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/querylab/esfilter"
)

type builder struct {
	schema *esfilter.Schema
	info   *exprv1.SourceInfo
}

func prefix(s esfilter.Source) string {
	if s.Line <= 0 {
		return ""
	}
	return fmt.Sprintf("line %d:%d: ", s.Line, s.Col)
}

// pos recovers the 1-based line/column of a node from the parse source info.
func (b *builder) pos(e *exprv1.Expr) esfilter.Source {
	if b.info == nil {
		return esfilter.Source{}
	}
	off, ok := b.info.GetPositions()[e.GetId()]
	if !ok {
		return esfilter.Source{}
	}
	line, start := 1, int32(0)
	for _, lo := range b.info.GetLineOffsets() {
		if lo > off {
			break
		}
		line++
		start = lo
	}
	return esfilter.Source{Line: line, Col: int(off-start) + 1}
}

func (b *builder) buildCondition(e *exprv1.Expr) (esfilter.Expr, error) {
	switch v := e.ExprKind.(type) {
	case *exprv1.Expr_CallExpr:
		return b.buildCall(e, v.CallExpr)
	case *exprv1.Expr_IdentExpr, *exprv1.Expr_SelectExpr:
		// A bare boolean field is shorthand for `field == true`.
		name, err := identName(e)
		if err != nil {
			return nil, err
		}
		f, ok := b.schema.Field(name)
		if !ok {
			return nil, fmt.Errorf("%sunknown field %q", prefix(b.pos(e)), name)
		}
		if f.Type != esfilter.TypeBool {
			return nil, fmt.Errorf("%sfield %q is not boolean", prefix(b.pos(e)), name)
		}
		src := b.pos(e)
		return &esfilter.Comparison{
			Op:    esfilter.CompareEq,
			Left:  &esfilter.FieldRef{Name: name, Src: src},
			Right: &esfilter.Literal{Value: true, Type: esfilter.TypeBool, Src: src},
			Src:   src,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported filter expression")
	}
}

func (b *builder) buildCall(e *exprv1.Expr, call *exprv1.Expr_Call) (esfilter.Expr, error) {
	src := b.pos(e)
	switch call.Function {
	case "_&&_", "_||_":
		if len(call.Args) != 2 {
			return nil, fmt.Errorf("logical operator expects two arguments")
		}
		left, err := b.buildCondition(call.Args[0])
		if err != nil {
			return nil, err
		}
		right, err := b.buildCondition(call.Args[1])
		if err != nil {
			return nil, err
		}
		if call.Function == "_&&_" {
			return &esfilter.And{Left: left, Right: right, Src: src}, nil
		}
		return &esfilter.Or{Left: left, Right: right, Src: src}, nil

	case "!_":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("logical NOT expects one argument")
		}
		inner, err := b.buildCondition(call.Args[0])
		if err != nil {
			return nil, err
		}
		return &esfilter.Not{Inner: inner, Src: src}, nil

	case "_==_", "_!=_", "_<_", "_<=_", "_>_", "_>=_":
		return b.buildComparison(call, src)

	case "@in":
		return b.buildIn(call, src)

	case "like":
		if len(call.Args) != 2 {
			return nil, fmt.Errorf("like() expects two arguments")
		}
		target, err := b.buildValue(call.Args[0])
		if err != nil {
			return nil, err
		}
		pattern, err := b.buildValue(call.Args[1])
		if err != nil {
			return nil, err
		}
		return &esfilter.Like{Target: target, Pattern: pattern, Src: src}, nil

	default:
		return nil, fmt.Errorf("unsupported call expression %q", call.Function)
	}
}

func (b *builder) buildComparison(call *exprv1.Expr_Call, src esfilter.Source) (esfilter.Expr, error) {
	if len(call.Args) != 2 {
		return nil, fmt.Errorf("comparison expects two arguments")
	}
	left, err := b.buildValue(call.Args[0])
	if err != nil {
		return nil, err
	}
	right, err := b.buildValue(call.Args[1])
	if err != nil {
		return nil, err
	}

	var op esfilter.CompareOp
	negated := false
	switch call.Function {
	case "_==_":
		op = esfilter.CompareEq
	case "_!=_":
		op = esfilter.CompareEq
		negated = true
	case "_<_":
		op = esfilter.CompareLt
	case "_<=_":
		op = esfilter.CompareLte
	case "_>_":
		op = esfilter.CompareGt
	case "_>=_":
		op = esfilter.CompareGte
	}

	cmp := &esfilter.Comparison{Op: op, Left: left, Right: right, Src: src}
	if negated {
		return &esfilter.Not{Inner: cmp, Src: src}, nil
	}
	return cmp, nil
}

func (b *builder) buildIn(call *exprv1.Expr_Call, src esfilter.Source) (esfilter.Expr, error) {
	if len(call.Args) != 2 {
		return nil, fmt.Errorf("in operator expects two arguments")
	}
	target, err := b.buildValue(call.Args[0])
	if err != nil {
		return nil, err
	}
	listExpr := call.Args[1].GetListExpr()
	if listExpr == nil {
		return nil, fmt.Errorf("in operator requires a list literal")
	}
	members := make([]esfilter.Expr, 0, len(listExpr.Elements))
	for _, element := range listExpr.Elements {
		member, err := b.buildValue(element)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return &esfilter.In{Target: target, List: members, Src: src}, nil
}

func (b *builder) buildValue(e *exprv1.Expr) (esfilter.Expr, error) {
	src := b.pos(e)

	if name, err := identName(e); err == nil {
		if _, ok := b.schema.Field(name); !ok {
			return nil, fmt.Errorf("%sunknown field %q", prefix(src), name)
		}
		return &esfilter.FieldRef{Name: name, Src: src}, nil
	}

	if lit, ok, err := constLiteral(e, src); err != nil {
		return nil, err
	} else if ok {
		return lit, nil
	}

	call := e.GetCallExpr()
	if call == nil {
		return nil, fmt.Errorf("%sunsupported value expression", prefix(src))
	}

	scalarName := ""
	switch call.Function {
	case "concat", "ltrim", "rtrim", "upper", "lower":
		scalarName = call.Function
	case "_+_":
		scalarName = "add"
	case "_-_":
		scalarName = "sub"
	case "_*_":
		scalarName = "mul"
	case "_/_":
		scalarName = "div"
	case "-_":
		scalarName = "neg"
	}
	if scalarName != "" {
		args, err := b.buildValues(call.Args)
		if err != nil {
			return nil, err
		}
		return &esfilter.ScalarCall{Name: scalarName, Args: args, Src: src}, nil
	}

	switch call.Function {
	case "asDate":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("asDate() expects one argument")
		}
		inner, err := b.buildValue(call.Args[0])
		if err != nil {
			return nil, err
		}
		return &esfilter.Cast{Inner: inner, To: esfilter.TypeDate, Src: src}, nil

	case "max", "min", "sum", "avg", "count":
		args, err := b.buildValues(call.Args)
		if err != nil {
			return nil, err
		}
		agg := &esfilter.AggregateRef{Fn: call.Function, Args: args, Src: src}
		agg.ID = esfilter.Render(agg)
		return agg, nil
	}

	return nil, fmt.Errorf("%sunsupported value expression %q", prefix(src), call.Function)
}

func (b *builder) buildValues(exprs []*exprv1.Expr) ([]esfilter.Expr, error) {
	out := make([]esfilter.Expr, 0, len(exprs))
	for _, e := range exprs {
		v, err := b.buildValue(e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// identName flattens an identifier or a select chain (`some.string`) into
// its dotted name.
func identName(e *exprv1.Expr) (string, error) {
	switch v := e.ExprKind.(type) {
	case *exprv1.Expr_IdentExpr:
		return v.IdentExpr.GetName(), nil
	case *exprv1.Expr_SelectExpr:
		if v.SelectExpr.GetTestOnly() {
			return "", fmt.Errorf("expression is not an identifier")
		}
		base, err := identName(v.SelectExpr.GetOperand())
		if err != nil {
			return "", err
		}
		return base + "." + v.SelectExpr.GetField(), nil
	default:
		return "", fmt.Errorf("expression is not an identifier")
	}
}

func constLiteral(e *exprv1.Expr, src esfilter.Source) (*esfilter.Literal, bool, error) {
	v, ok := e.ExprKind.(*exprv1.Expr_ConstExpr)
	if !ok {
		return nil, false, nil
	}
	switch x := v.ConstExpr.ConstantKind.(type) {
	case *exprv1.Constant_StringValue:
		return &esfilter.Literal{Value: v.ConstExpr.GetStringValue(), Type: esfilter.TypeKeyword, Src: src}, true, nil
	case *exprv1.Constant_Int64Value:
		return &esfilter.Literal{Value: v.ConstExpr.GetInt64Value(), Type: esfilter.TypeLong, Src: src}, true, nil
	case *exprv1.Constant_Uint64Value:
		return &esfilter.Literal{Value: int64(v.ConstExpr.GetUint64Value()), Type: esfilter.TypeLong, Src: src}, true, nil
	case *exprv1.Constant_DoubleValue:
		return &esfilter.Literal{Value: v.ConstExpr.GetDoubleValue(), Type: esfilter.TypeDouble, Src: src}, true, nil
	case *exprv1.Constant_BoolValue:
		return &esfilter.Literal{Value: v.ConstExpr.GetBoolValue(), Type: esfilter.TypeBool, Src: src}, true, nil
	case *exprv1.Constant_NullValue:
		return &esfilter.Literal{Value: nil, Src: src}, true, nil
	default:
		return nil, false, fmt.Errorf("unsupported constant %T", x)
	}
}
