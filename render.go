package esfilter

import (
	"fmt"
	"strings"
	"time"
)

// Render produces a stable, human-readable form of an expression.
//
// It is used in error messages and as the structural-equality key for script
// parameter deduplication, so it must be deterministic for a given tree: no
// map iteration, no pointer formatting.
func Render(e Expr) string {
	switch v := e.(type) {
	case *FieldRef:
		return v.Name
	case *Literal:
		return renderValue(v.Value)
	case *Cast:
		return fmt.Sprintf("CAST(%s AS %s)", Render(v.Inner), strings.ToUpper(string(v.To)))
	case *Comparison:
		return fmt.Sprintf("%s %s %s", Render(v.Left), v.Op, Render(v.Right))
	case *In:
		members := make([]string, 0, len(v.List))
		for _, m := range v.List {
			members = append(members, Render(m))
		}
		return fmt.Sprintf("%s IN(%s)", Render(v.Target), strings.Join(members, ", "))
	case *Like:
		return fmt.Sprintf("%s LIKE %s", Render(v.Target), Render(v.Pattern))
	case *Not:
		return fmt.Sprintf("NOT(%s)", Render(v.Inner))
	case *And:
		return fmt.Sprintf("(%s AND %s)", Render(v.Left), Render(v.Right))
	case *Or:
		return fmt.Sprintf("(%s OR %s)", Render(v.Left), Render(v.Right))
	case *ScalarCall:
		return renderCall(v.Name, v.Args)
	case *AggregateRef:
		return renderCall(v.Fn, v.Args)
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func renderCall(name string, args []Expr) string {
	rendered := make([]string, 0, len(args))
	for _, a := range args {
		rendered = append(rendered, Render(a))
	}
	return fmt.Sprintf("%s(%s)", strings.ToUpper(name), strings.Join(rendered, ", "))
}

func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}
