package esfilter

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// The loader accepts the backend's own mapping document shape:
//
//	{"properties": {"name": {"type": "text", "fields": {"raw": {"type": "keyword"}}}}}
//
// Object fields nest via "properties"; multi-field representations nest via
// "fields". A "normalizer" on a keyword representation disqualifies it as an
// exact-match candidate.

type mappingField struct {
	Type       string                  `json:"type"`
	Normalizer string                  `json:"normalizer"`
	Properties map[string]mappingField `json:"properties"`
	Fields     map[string]mappingField `json:"fields"`
}

type mappingDoc struct {
	Properties map[string]mappingField `json:"properties"`
}

var mappingTypes = map[string]DataType{
	"boolean": TypeBool,
	"integer": TypeInteger,
	"long":    TypeLong,
	"short":   TypeShort,
	"byte":    TypeByte,
	"double":  TypeDouble,
	"float":   TypeFloat,
	"keyword": TypeKeyword,
	"text":    TypeText,
	"date":    TypeDate,
	"object":  TypeObject,
}

// ParseMapping decodes a mapping document into a Schema.
func ParseMapping(data []byte) (*Schema, error) {
	var doc mappingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode mapping: %w", err)
	}
	if len(doc.Properties) == 0 {
		return nil, fmt.Errorf("mapping has no properties")
	}
	fields, err := buildFields(doc.Properties, "")
	if err != nil {
		return nil, err
	}
	return &Schema{Fields: fields}, nil
}

// LoadMapping reads and decodes a mapping document from disk.
func LoadMapping(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping: %w", err)
	}
	return ParseMapping(data)
}

func buildFields(props map[string]mappingField, parent string) (map[string]*Field, error) {
	out := make(map[string]*Field, len(props))
	for name, mf := range props {
		f, err := buildField(name, mf, parent)
		if err != nil {
			return nil, err
		}
		out[name] = f
	}
	return out, nil
}

func buildField(name string, mf mappingField, parent string) (*Field, error) {
	path := name
	if parent != "" {
		path = parent + "." + name
	}

	typ := mf.Type
	if typ == "" && len(mf.Properties) > 0 {
		typ = "object"
	}
	dt, ok := mappingTypes[typ]
	if !ok {
		return nil, fmt.Errorf("mapping field [%s] has unsupported type %q", path, mf.Type)
	}

	f := &Field{
		Name:       name,
		Path:       path,
		Type:       dt,
		Normalizer: mf.Normalizer,
	}

	if len(mf.Properties) > 0 {
		if dt != TypeObject {
			return nil, fmt.Errorf("mapping field [%s] mixes type %q with properties", path, mf.Type)
		}
		props, err := buildFields(mf.Properties, path)
		if err != nil {
			return nil, err
		}
		f.Properties = props
	}

	if len(mf.Fields) > 0 {
		if dt == TypeObject {
			return nil, fmt.Errorf("mapping field [%s] is an object and cannot carry multi-fields", path)
		}
		reps := make(map[string]*Field, len(mf.Fields))
		for repName, rep := range mf.Fields {
			if len(rep.Properties) > 0 || len(rep.Fields) > 0 {
				return nil, fmt.Errorf("mapping multi-field [%s.%s] must be a leaf", path, repName)
			}
			rf, err := buildField(repName, rep, path)
			if err != nil {
				return nil, err
			}
			reps[repName] = rf
		}
		f.Fields = reps
	}

	return f, nil
}
