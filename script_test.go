package esfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maxIntRef() *AggregateRef {
	return &AggregateRef{ID: "MAX(int)", Fn: "max", Args: []Expr{&FieldRef{Name: "int"}}}
}

func TestScriptBuilderSequentialNames(t *testing.T) {
	b := newScriptBuilder()

	assert.Equal(t, "a0", b.bind(maxIntRef()))
	assert.Equal(t, "a1", b.bind(&AggregateRef{Fn: "min", Args: []Expr{&FieldRef{Name: "int"}}}))
	assert.Equal(t, "a2", b.bind(&AggregateRef{Fn: "count", Args: []Expr{&FieldRef{Name: "keyword"}}}))
}

func TestScriptBuilderDeduplicatesEqualExpressions(t *testing.T) {
	b := newScriptBuilder()

	first := b.bind(maxIntRef())
	// A structurally equal tree, not the same pointer.
	second := b.bind(maxIntRef())
	assert.Equal(t, first, second)
	assert.Len(t, b.params, 1)
}

func TestScriptBuilderDeterministicAcrossCalls(t *testing.T) {
	build := func() ScriptSpec {
		b := newScriptBuilder()
		b.bind(maxIntRef())
		b.bind(&AggregateRef{Fn: "min", Args: []Expr{&FieldRef{Name: "float"}}})
		return b.render("params.a0==10 || params.a1==20")
	}

	first := build()
	second := build()
	assert.Equal(t, first, second)
}

func TestScriptRenderWrapsNullSafety(t *testing.T) {
	b := newScriptBuilder()
	name := b.bind(maxIntRef())

	spec := b.render("params." + name + "==10")
	assert.Equal(t, "InternalSqlScriptUtils.nullSafeFilter(params.a0==10)", spec.Source)

	param, ok := spec.Param("a0")
	require.True(t, ok)
	assert.Equal(t, "MAX(int)", param.Description)

	_, ok = spec.Param("a1")
	assert.False(t, ok)
}

func TestScriptValueRendering(t *testing.T) {
	assert.Equal(t, "10", scriptValue(int64(10)))
	assert.Equal(t, "1.5", scriptValue(1.5))
	assert.Equal(t, `"foo"`, scriptValue("foo"))
	assert.Equal(t, "true", scriptValue(true))
}
