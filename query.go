package esfilter

// QueryNode is a predicate form the search backend evaluates natively
// against its index. Nodes are immutable and owned by the caller once a
// translation returns.
type QueryNode interface {
	isQueryNode()
}

// TermQuery matches documents whose field holds exactly the given value.
type TermQuery struct {
	Field string
	Value any
}

func (*TermQuery) isQueryNode() {}

// RangeQuery matches documents whose field falls inside the given bounds.
// A nil bound is unbounded on that side.
type RangeQuery struct {
	Field        string
	Lower        any
	Upper        any
	IncludeLower bool
	IncludeUpper bool
}

func (*RangeQuery) isQueryNode() {}

// TermsQuery matches documents whose field holds any of the values. Values
// are deduplicated and stably ordered by the translator.
type TermsQuery struct {
	Field  string
	Values []any
}

func (*TermsQuery) isQueryNode() {}

// WildcardQuery matches documents whose field matches the pattern, using
// the backend's `*`/`?` wildcards.
type WildcardQuery struct {
	Field   string
	Pattern string
}

func (*WildcardQuery) isQueryNode() {}

// BoolQuery composes two queries; And selects conjunction over disjunction.
type BoolQuery struct {
	And   bool
	Left  QueryNode
	Right QueryNode
}

func (*BoolQuery) isQueryNode() {}

// NotQuery inverts its child via the backend's must-not composition.
type NotQuery struct {
	Child QueryNode
}

func (*NotQuery) isQueryNode() {}
