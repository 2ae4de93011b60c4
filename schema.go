package esfilter

import (
	"sort"
	"strings"
)

// Field captures the mapping metadata for one indexed field.
//
// Properties holds the sub-fields of an object field; Fields holds the
// sibling representations of a multi-field (the same values indexed another
// way, e.g. an exact keyword copy of an analyzed text field).
type Field struct {
	Name       string
	Path       string
	Type       DataType
	Normalizer string
	Properties map[string]*Field
	Fields     map[string]*Field
}

// Schema is the read-only field mapping a translation call resolves against.
type Schema struct {
	Fields map[string]*Field
}

// Field looks up a full dotted path, walking object properties and, for the
// final segment, multi-field representations.
func (s *Schema) Field(path string) (*Field, bool) {
	if s == nil || path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	fields := s.Fields
	var cur *Field
	for i, part := range parts {
		f, ok := fields[part]
		if !ok {
			if cur == nil || i != len(parts)-1 {
				return nil, false
			}
			// Final segment may name a representation of the parent field.
			rep, ok := cur.Fields[part]
			if !ok {
				return nil, false
			}
			return rep, true
		}
		cur = f
		fields = f.Properties
	}
	if cur == nil || cur.Type == TypeObject {
		return nil, false
	}
	return cur, true
}

// exactDefault reports whether the declared representation is directly
// usable for exact-value comparison.
func (f *Field) exactDefault() bool {
	if f.Type.numeric() {
		return true
	}
	switch f.Type {
	case TypeBool, TypeDate:
		return true
	case TypeKeyword:
		return f.Normalizer == ""
	}
	return false
}

// ResolveExact maps a logical field reference to the concrete field name to
// use for the requested match mode.
//
// With exact=false the field resolves to its declared representation even
// when analyzed. With exact=true, an analyzed field resolves through its
// sibling representations: exactly one un-normalized keyword sibling wins;
// more than one is ambiguous and surfaced to the caller, never guessed at;
// none falls back to the declared field (some field kinds are exact by
// default and carry no siblings at all).
func (s *Schema) ResolveExact(name string, exact bool, src Source) (string, error) {
	f, ok := s.Field(name)
	if !ok {
		return "", &MappingMissingError{Field: name, Src: src}
	}
	if !exact || f.exactDefault() {
		return f.Path, nil
	}

	var candidates []string
	for _, rep := range sortedFields(f.Fields) {
		if rep.Type == TypeKeyword && rep.Normalizer == "" {
			candidates = append(candidates, rep.Path)
		}
	}
	switch len(candidates) {
	case 0:
		return f.Path, nil
	case 1:
		return candidates[0], nil
	default:
		return "", &MappingAmbiguityError{Field: f.Path, Candidates: candidates}
	}
}

func sortedFields(m map[string]*Field) []*Field {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Field, 0, len(names))
	for _, name := range names {
		out = append(out, m[name])
	}
	return out
}
