package celfilter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylab/esfilter"
)

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	schema, err := esfilter.LoadMapping("testdata/mapping.json")
	require.NoError(t, err)
	engine, err := NewEngine(schema, opts...)
	require.NoError(t, err)
	return engine
}

func TestCompileComparison(t *testing.T) {
	engine := newTestEngine(t)

	expr, err := engine.Compile(`age > 5`)
	require.NoError(t, err)
	require.IsType(t, &esfilter.Comparison{}, expr)

	cmp := expr.(*esfilter.Comparison)
	assert.Equal(t, esfilter.CompareGt, cmp.Op)
	assert.Equal(t, "age", cmp.Left.(*esfilter.FieldRef).Name)
	assert.Equal(t, int64(5), cmp.Right.(*esfilter.Literal).Value)
	assert.Equal(t, 1, cmp.Src.Line)
}

func TestCompileEmptyFilter(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Compile("   ")
	assert.Error(t, err)
}

func TestCompileUnknownField(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Compile(`missing == 1`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestToQueryTermEquality(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`age == 5`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.TermQuery{}, qt.Query)

	tq := qt.Query.(*esfilter.TermQuery)
	assert.Equal(t, "age", tq.Field)
	assert.Equal(t, int64(5), tq.Value)
}

func TestToQueryResolvesExactRepresentation(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`name == "value"`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.TermQuery{}, qt.Query)
	assert.Equal(t, "name.keyword", qt.Query.(*esfilter.TermQuery).Field)
}

func TestToQueryDottedField(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`user.handle == "alice"`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.TermQuery{}, qt.Query)
	assert.Equal(t, "user.handle.raw", qt.Query.(*esfilter.TermQuery).Field)
}

func TestToQueryBareBooleanField(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`active`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.TermQuery{}, qt.Query)

	tq := qt.Query.(*esfilter.TermQuery)
	assert.Equal(t, "active", tq.Field)
	assert.Equal(t, true, tq.Value)
}

func TestToQueryNotEqual(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`age != 5`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.NotQuery{}, qt.Query)
	assert.IsType(t, &esfilter.TermQuery{}, qt.Query.(*esfilter.NotQuery).Child)
}

func TestToQueryInList(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`label in ["foo", "bar", "lala", "foo", "lala"]`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.TermsQuery{}, qt.Query)

	tq := qt.Query.(*esfilter.TermsQuery)
	assert.Equal(t, "label", tq.Field)
	assert.Equal(t, []any{"bar", "foo", "lala"}, tq.Values)
}

func TestToQueryLike(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`like(label, "%a%")`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.WildcardQuery{}, qt.Query)

	wq := qt.Query.(*esfilter.WildcardQuery)
	assert.Equal(t, "label", wq.Field)
	assert.Equal(t, "*a*", wq.Pattern)
}

func TestToQueryDateRange(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`created > asDate("1969-05-13T12:34:56Z")`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.RangeQuery{}, qt.Query)

	rq := qt.Query.(*esfilter.RangeQuery)
	assert.Equal(t, "created", rq.Field)
	assert.Equal(t, time.Date(1969, 5, 13, 12, 34, 56, 0, time.UTC), rq.Lower)
	assert.False(t, rq.IncludeLower)
}

func TestToQueryConjunction(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`age > 5 && label == "foo"`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.BoolQuery{}, qt.Query)

	bq := qt.Query.(*esfilter.BoolQuery)
	assert.True(t, bq.And)
	assert.IsType(t, &esfilter.RangeQuery{}, bq.Left)
	assert.IsType(t, &esfilter.TermQuery{}, bq.Right)
}

func TestToQueryAggregateScript(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`max(age) in [10, 20, 30 - 10]`, false)
	require.NoError(t, err)
	assert.Nil(t, qt.Query)
	require.NotNil(t, qt.Script)

	assert.Equal(t, "InternalSqlScriptUtils.nullSafeFilter(params.a0==10 || params.a0==20)",
		qt.Script.Source)
	require.Len(t, qt.Script.Params, 1)
	assert.Equal(t, "a0", qt.Script.Params[0].Name)
	assert.Equal(t, "MAX(age)", qt.Script.Params[0].Description)
}

func TestToQueryAggregateSharedAcrossConjunction(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`max(age) > 10 && max(age) < 50`, false)
	require.NoError(t, err)
	require.NotNil(t, qt.Script)

	assert.Equal(t, "InternalSqlScriptUtils.nullSafeFilter((params.a0>10) && (params.a0<50))",
		qt.Script.Source)
	assert.Len(t, qt.Script.Params, 1)
}

func TestToQueryMixedConjunctionPopulatesBoth(t *testing.T) {
	engine := newTestEngine(t)

	qt, err := engine.ToQuery(`label == "foo" && max(age) > 10`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.TermQuery{}, qt.Query)
	require.NotNil(t, qt.Script)
	assert.Equal(t, "InternalSqlScriptUtils.nullSafeFilter(params.a0>10)", qt.Script.Source)
}

func TestToQueryMixedDisjunctionRejected(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ToQuery(`label == "foo" || max(age) > 10`, false)
	var disjunction *esfilter.UnsupportedDisjunctionError
	require.True(t, errors.As(err, &disjunction))
}

func TestToQueryComparisonAgainstVariable(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ToQuery(`age > 5 - age`, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comparisons against variables are not supported")
	assert.Contains(t, err.Error(), "[SUB(5, age)]")
	assert.Contains(t, err.Error(), "line 1:")
}

func TestToQueryFieldToFieldComparison(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ToQuery(`label == name`, false)
	var correlated *esfilter.CorrelatedComparisonError
	require.True(t, errors.As(err, &correlated))
}

func TestEngineWithEnvOptions(t *testing.T) {
	// Empty and nil options are accepted and change nothing.
	engine := newTestEngine(t, WithEnvOptions(), WithMacros(), nil)

	qt, err := engine.ToQuery(`!(age == 5)`, false)
	require.NoError(t, err)
	require.IsType(t, &esfilter.NotQuery{}, qt.Query)
}
