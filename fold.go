package esfilter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// fold evaluates a constant sub-tree to a concrete value at translation
// time. The boolean reports foldability; anything containing a field or
// aggregate reference is not foldable and returns false with a nil error.
// A non-nil error means the sub-tree was constant but could not be
// evaluated (invalid cast, bad function arguments).
func fold(e Expr) (any, bool, error) {
	switch v := e.(type) {
	case *Literal:
		return v.Value, true, nil
	case *Cast:
		inner, ok, err := fold(v.Inner)
		if err != nil || !ok {
			return nil, ok, err
		}
		converted, err := convert(inner, v.To, v.Src)
		if err != nil {
			return nil, true, err
		}
		return converted, true, nil
	case *ScalarCall:
		fn, ok := scalarFuncs[strings.ToLower(v.Name)]
		if !ok {
			return nil, false, nil
		}
		args := make([]any, 0, len(v.Args))
		for _, arg := range v.Args {
			value, ok, err := fold(arg)
			if err != nil || !ok {
				return nil, ok, err
			}
			args = append(args, value)
		}
		result, err := fn(args)
		if err != nil {
			return nil, true, fmt.Errorf("cannot evaluate [%s]: %w", Render(v), err)
		}
		return result, true, nil
	default:
		return nil, false, nil
	}
}

// convert applies a cast to an already-folded value. Null propagates.
func convert(value any, to DataType, src Source) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch {
	case to == TypeDate:
		switch x := value.(type) {
		case time.Time:
			return x, nil
		case string:
			return parseDate(x, src)
		}
	case to.numeric():
		return convertNumeric(value, to, src)
	case to == TypeKeyword || to == TypeText:
		return renderValue(value), nil
	case to == TypeBool:
		switch x := value.(type) {
		case bool:
			return x, nil
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b, nil
			}
		}
	}
	return nil, &TypeConversionError{Value: value, To: to, Src: src}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string, src Source) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, &TypeConversionError{Value: s, To: TypeDate, Src: src}
}

func convertNumeric(value any, to DataType, src Source) (any, error) {
	switch to {
	case TypeDouble, TypeFloat:
		if f, ok := asFloat64(value); ok {
			return f, nil
		}
		if s, ok := value.(string); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, nil
			}
		}
	default:
		if i, ok := asInt64(value); ok {
			return i, nil
		}
		if f, ok := value.(float64); ok {
			return int64(f), nil
		}
		if s, ok := value.(string); ok {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i, nil
			}
		}
	}
	return nil, &TypeConversionError{Value: value, To: to, Src: src}
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

func asFloat64(value any) (float64, bool) {
	if i, ok := asInt64(value); ok {
		return float64(i), true
	}
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// scalarFuncs registers the pure, deterministic scalar functions the folder
// may evaluate. Functions with runtime-dependent results do not belong here.
type scalarFn func(args []any) (any, error)

var scalarFuncs = map[string]scalarFn{
	"concat": func(args []any) (any, error) {
		var sb strings.Builder
		for _, a := range args {
			if a == nil {
				return nil, nil
			}
			s, ok := a.(string)
			if !ok {
				return nil, fmt.Errorf("CONCAT expects string arguments, got %T", a)
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	},
	"ltrim": stringFn(func(s string) string { return strings.TrimLeft(s, " ") }),
	"rtrim": stringFn(func(s string) string { return strings.TrimRight(s, " ") }),
	"upper": stringFn(strings.ToUpper),
	"lower": stringFn(strings.ToLower),
	"add": arithFn(func(a, b int64) (int64, error) { return a + b, nil },
		func(a, b float64) float64 { return a + b }),
	"sub": arithFn(func(a, b int64) (int64, error) { return a - b, nil },
		func(a, b float64) float64 { return a - b }),
	"mul": arithFn(func(a, b int64) (int64, error) { return a * b, nil },
		func(a, b float64) float64 { return a * b }),
	"div": arithFn(func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	}, func(a, b float64) float64 { return a / b }),
	"neg": func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("NEG expects one argument")
		}
		if args[0] == nil {
			return nil, nil
		}
		if i, ok := asInt64(args[0]); ok {
			return -i, nil
		}
		if f, ok := asFloat64(args[0]); ok {
			return -f, nil
		}
		return nil, fmt.Errorf("NEG expects a numeric argument, got %T", args[0])
	},
}

func stringFn(fn func(string) string) scalarFn {
	return func(args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected one argument")
		}
		if args[0] == nil {
			return nil, nil
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("expected a string argument, got %T", args[0])
		}
		return fn(s), nil
	}
}

func arithFn(intOp func(a, b int64) (int64, error), floatOp func(a, b float64) float64) scalarFn {
	return func(args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected two arguments")
		}
		if args[0] == nil || args[1] == nil {
			return nil, nil
		}
		if a, ok := asInt64(args[0]); ok {
			if b, ok := asInt64(args[1]); ok {
				return intOp(a, b)
			}
		}
		a, aok := asFloat64(args[0])
		b, bok := asFloat64(args[1])
		if !aok || !bok {
			return nil, fmt.Errorf("expected numeric arguments, got %T and %T", args[0], args[1])
		}
		return floatOp(a, b), nil
	}
}
