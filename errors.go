package esfilter

import (
	"fmt"
	"strings"
)

// Translation errors are deterministic functions of the input: retrying a
// failed call without changing the expression or schema cannot succeed, so
// every error below is terminal for its call.

func (s Source) prefix() string {
	if s.Line <= 0 {
		return ""
	}
	return fmt.Sprintf("line %d:%d: ", s.Line, s.Col)
}

// MappingAmbiguityError reports a field with more than one equally valid
// exact representation.
type MappingAmbiguityError struct {
	Field      string
	Candidates []string
}

func (e *MappingAmbiguityError) Error() string {
	return fmt.Sprintf("multiple exact keyword fields found for [%s]: %s",
		e.Field, strings.Join(e.Candidates, ", "))
}

// MappingMissingError reports a field reference the schema does not contain.
type MappingMissingError struct {
	Field string
	Src   Source
}

func (e *MappingMissingError) Error() string {
	return fmt.Sprintf("%sunknown field [%s]", e.Src.prefix(), e.Field)
}

// UnsupportedComparisonError reports an operand that had to be constant but
// was not foldable, i.e. a comparison against another column value.
type UnsupportedComparisonError struct {
	Offender Expr
	Context  string
}

func (e *UnsupportedComparisonError) Error() string {
	return fmt.Sprintf("%scomparisons against variables are not supported; offender [%s] in [%s]",
		e.Offender.Pos().prefix(), Render(e.Offender), e.Context)
}

// UnsupportedPatternError reports a pattern-match predicate whose target is
// not a plain field reference.
type UnsupportedPatternError struct {
	Target Expr
}

func (e *UnsupportedPatternError) Error() string {
	return fmt.Sprintf("%s[%s] is not allowed as argument for LIKE",
		e.Target.Pos().prefix(), Render(e.Target))
}

// TypeConversionError reports a cast that cannot be applied to a folded
// literal.
type TypeConversionError struct {
	Value any
	To    DataType
	Src   Source
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("%scannot convert [%v] to %s", e.Src.prefix(), e.Value, e.To)
}

// CorrelatedComparisonError reports a comparison with field references on
// both sides. These span two independent column values the backend cannot
// correlate, so they are rejected outright rather than scripted.
type CorrelatedComparisonError struct {
	Expr Expr
}

func (e *CorrelatedComparisonError) Error() string {
	return fmt.Sprintf("%sfield-to-field comparison [%s] is not supported",
		e.Expr.Pos().prefix(), Render(e.Expr))
}

// UnsupportedDisjunctionError reports an OR whose sides translated to a
// structural query on one side and a script on the other; there is no legal
// composition of the two under disjunction.
type UnsupportedDisjunctionError struct {
	Expr Expr
}

func (e *UnsupportedDisjunctionError) Error() string {
	return fmt.Sprintf("%scannot combine an index query and a script filter with OR in [%s]",
		e.Expr.Pos().prefix(), Render(e.Expr))
}
