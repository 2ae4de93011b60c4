package esfilter

// DataType is the declared type of a field or literal, named after the
// backend's mapping types.
type DataType string

const (
	TypeBool    DataType = "boolean"
	TypeInteger DataType = "integer"
	TypeLong    DataType = "long"
	TypeShort   DataType = "short"
	TypeByte    DataType = "byte"
	TypeDouble  DataType = "double"
	TypeFloat   DataType = "float"
	TypeKeyword DataType = "keyword"
	TypeText    DataType = "text"
	TypeDate    DataType = "date"
	TypeObject  DataType = "object"
)

func (t DataType) numeric() bool {
	switch t {
	case TypeInteger, TypeLong, TypeShort, TypeByte, TypeDouble, TypeFloat:
		return true
	}
	return false
}

// Source carries the original line/column of an expression node, when the
// front-end recorded one. The zero value means "unknown".
type Source struct {
	Line int
	Col  int
}

// Expr is an analyzed boolean or scalar expression node.
//
// The set of implementations is closed; the translator dispatches with an
// exhaustive type switch over it. Trees are built once by the front-end and
// never mutated afterwards.
type Expr interface {
	isExpr()
	Pos() Source
}

// FieldRef references a schema field by its full dotted name.
type FieldRef struct {
	Name string
	Src  Source
}

func (*FieldRef) isExpr()       {}
func (e *FieldRef) Pos() Source { return e.Src }

// Literal holds a concrete typed value. A nil Value is the null literal.
type Literal struct {
	Value any
	Type  DataType
	Src   Source
}

func (*Literal) isExpr()       {}
func (e *Literal) Pos() Source { return e.Src }

// Cast converts the inner expression to a target type.
type Cast struct {
	Inner Expr
	To    DataType
	Src   Source
}

func (*Cast) isExpr()       {}
func (e *Cast) Pos() Source { return e.Src }

// CompareOp enumerates the supported comparison operators.
type CompareOp string

const (
	CompareEq  CompareOp = "="
	CompareLt  CompareOp = "<"
	CompareLte CompareOp = "<="
	CompareGt  CompareOp = ">"
	CompareGte CompareOp = ">="
)

// Comparison is a binary comparison predicate.
type Comparison struct {
	Op    CompareOp
	Left  Expr
	Right Expr
	Src   Source
}

func (*Comparison) isExpr()       {}
func (e *Comparison) Pos() Source { return e.Src }

// In is a set-membership predicate over an ordered member list.
type In struct {
	Target Expr
	List   []Expr
	Src    Source
}

func (*In) isExpr()       {}
func (e *In) Pos() Source { return e.Src }

// Like is a pattern-match predicate. The pattern uses SQL wildcards
// (`%` and `_`).
type Like struct {
	Target  Expr
	Pattern Expr
	Src     Source
}

func (*Like) isExpr()       {}
func (e *Like) Pos() Source { return e.Src }

// Not negates a child predicate.
type Not struct {
	Inner Expr
	Src   Source
}

func (*Not) isExpr()       {}
func (e *Not) Pos() Source { return e.Src }

// And is the conjunction of two predicates.
type And struct {
	Left  Expr
	Right Expr
	Src   Source
}

func (*And) isExpr()       {}
func (e *And) Pos() Source { return e.Src }

// Or is the disjunction of two predicates.
type Or struct {
	Left  Expr
	Right Expr
	Src   Source
}

func (*Or) isExpr()       {}
func (e *Or) Pos() Source { return e.Src }

// ScalarCall is a named scalar function application.
type ScalarCall struct {
	Name string
	Args []Expr
	Src  Source
}

func (*ScalarCall) isExpr()       {}
func (e *ScalarCall) Pos() Source { return e.Src }

// AggregateRef references the output of an aggregation computed elsewhere in
// the statement (e.g. `MAX(int)` in a post-aggregation filter). ID is the
// analyzer-assigned identity; two refs with equal IDs denote the same
// aggregation.
type AggregateRef struct {
	ID   string
	Fn   string
	Args []Expr
	Src  Source
}

func (*AggregateRef) isExpr()       {}
func (e *AggregateRef) Pos() Source { return e.Src }
