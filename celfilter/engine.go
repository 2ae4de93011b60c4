// Package celfilter compiles CEL filter strings into analyzed expression
// trees the esfilter translator accepts. It plays the role of the SQL
// parser/analyzer in the surrounding system: identifiers are resolved
// against the schema, operators are normalized onto the closed IR set, and
// source positions are carried through for diagnostics.
package celfilter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/querylab/esfilter"
)

type engineConfig struct {
	envOptions []cel.EnvOption
}

// EngineOption customizes Engine construction.
type EngineOption func(*engineConfig)

// WithEnvOptions appends additional CEL environment options when creating
// the Engine. This is the extension hook for custom macros, functions and
// declarations.
func WithEnvOptions(opts ...cel.EnvOption) EngineOption {
	return func(cfg *engineConfig) {
		cfg.envOptions = append(cfg.envOptions, opts...)
	}
}

// WithMacros is a convenience helper for registering custom CEL macros.
func WithMacros(macros ...cel.Macro) EngineOption {
	if len(macros) == 0 {
		return func(*engineConfig) {}
	}
	return WithEnvOptions(cel.Macros(macros...))
}

// Engine parses CEL filters into esfilter expression trees.
type Engine struct {
	schema *esfilter.Schema
	env    *cel.Env
}

// NewEngine builds an Engine for the provided schema. Every leaf field of
// the schema is declared as a CEL variable under its full dotted name.
func NewEngine(schema *esfilter.Schema, opts ...EngineOption) (*Engine, error) {
	cfg := &engineConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	envOpts := fieldDeclarations(schema)
	envOpts = append(envOpts, builtinFunctions...)
	envOpts = append(envOpts, cfg.envOptions...)

	env, err := cel.NewEnv(envOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Engine{schema: schema, env: env}, nil
}

// Compile parses and type-checks the filter, then builds the analyzed
// expression tree.
func (e *Engine) Compile(filter string) (esfilter.Expr, error) {
	if strings.TrimSpace(filter) == "" {
		return nil, fmt.Errorf("filter expression is empty")
	}

	ast, issues := e.env.Compile(filter)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to convert AST: %w", err)
	}

	b := &builder{schema: e.schema, info: parsed.GetSourceInfo()}
	return b.buildCondition(parsed.GetExpr())
}

// ToQuery compiles the filter and translates it in a single step.
func (e *Engine) ToQuery(filter string, exact bool) (esfilter.QueryTranslation, error) {
	expr, err := e.Compile(filter)
	if err != nil {
		return esfilter.QueryTranslation{}, err
	}
	return esfilter.ToQuery(e.schema, expr, exact)
}

func fieldDeclarations(schema *esfilter.Schema) []cel.EnvOption {
	var opts []cel.EnvOption
	var walk func(fields map[string]*esfilter.Field)
	walk = func(fields map[string]*esfilter.Field) {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			f := fields[name]
			if f.Type == esfilter.TypeObject {
				walk(f.Properties)
				continue
			}
			opts = append(opts, cel.Variable(f.Path, celType(f.Type)))
		}
	}
	if schema != nil {
		walk(schema.Fields)
	}
	return opts
}

func celType(t esfilter.DataType) *cel.Type {
	switch t {
	case esfilter.TypeBool:
		return cel.BoolType
	case esfilter.TypeDouble, esfilter.TypeFloat:
		return cel.DoubleType
	case esfilter.TypeDate:
		return cel.TimestampType
	case esfilter.TypeKeyword, esfilter.TypeText:
		return cel.StringType
	default:
		return cel.IntType
	}
}

// builtinFunctions declares the filter vocabulary beyond CEL's operators.
// All declarations are parse/type-check only; nothing is ever evaluated by
// the CEL runtime.
var builtinFunctions = []cel.EnvOption{
	cel.Function("like",
		cel.Overload("like_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType)),
	cel.Function("asDate",
		cel.Overload("asdate_string", []*cel.Type{cel.StringType}, cel.TimestampType)),
	cel.Function("concat",
		cel.Overload("concat_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.StringType)),
	cel.Function("ltrim",
		cel.Overload("ltrim_string", []*cel.Type{cel.StringType}, cel.StringType)),
	cel.Function("rtrim",
		cel.Overload("rtrim_string", []*cel.Type{cel.StringType}, cel.StringType)),
	cel.Function("upper",
		cel.Overload("upper_string", []*cel.Type{cel.StringType}, cel.StringType)),
	cel.Function("lower",
		cel.Overload("lower_string", []*cel.Type{cel.StringType}, cel.StringType)),
	cel.Function("max",
		cel.Overload("max_dyn", []*cel.Type{cel.DynType}, cel.DynType)),
	cel.Function("min",
		cel.Overload("min_dyn", []*cel.Type{cel.DynType}, cel.DynType)),
	cel.Function("sum",
		cel.Overload("sum_dyn", []*cel.Type{cel.DynType}, cel.DynType)),
	cel.Function("avg",
		cel.Overload("avg_dyn", []*cel.Type{cel.DynType}, cel.DoubleType)),
	cel.Function("count",
		cel.Overload("count_dyn", []*cel.Type{cel.DynType}, cel.IntType)),
}
