// Package schema defines the target schema description that drives
// generation, coercion, and validation of provider output.
package schema

import "encoding/json"

// Kind enumerates the closed set of schema variants.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindEnum     Kind = "enum"
	KindSequence Kind = "sequence"
	KindRecord   Kind = "record"
	KindOptional Kind = "optional"
	KindDefault  Kind = "default"
)

// Schema is an immutable, recursively-structured description of the
// expected shape of a generated value. It drives both validation and
// best-effort coercion of malformed provider output.
type Schema struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"`

	// Enum option set, in declaration order. First match wins during
	// fuzzy coercion.
	Options []string `json:"options,omitempty"`

	// Elem is the inner schema of a sequence, optional, or default variant.
	Elem *Schema `json:"elem,omitempty"`

	// Fields of a record, in declaration order.
	Fields []Field `json:"fields,omitempty"`

	// DefaultValue applies to the default variant only.
	DefaultValue any `json:"default,omitempty"`
}

// Field is a named record member.
type Field struct {
	Name   string  `json:"name"`
	Schema *Schema `json:"schema"`
}

// String creates a string schema.
func String() *Schema { return &Schema{Kind: KindString} }

// Number creates a number schema.
func Number() *Schema { return &Schema{Kind: KindNumber} }

// Boolean creates a boolean schema.
func Boolean() *Schema { return &Schema{Kind: KindBoolean} }

// Enum creates an enumeration schema with a fixed option set.
func Enum(options ...string) *Schema {
	return &Schema{Kind: KindEnum, Options: options}
}

// Sequence creates an ordered sequence schema of elem.
func Sequence(elem *Schema) *Schema {
	return &Schema{Kind: KindSequence, Elem: elem}
}

// Record creates a keyed record schema of the given fields.
func Record(fields ...Field) *Schema {
	return &Schema{Kind: KindRecord, Fields: fields}
}

// F builds a record field.
func F(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

// Optional wraps a schema so that absence is permitted.
func Optional(inner *Schema) *Schema {
	return &Schema{Kind: KindOptional, Elem: inner}
}

// WithDefault wraps a schema with a value to substitute when absent.
func WithDefault(inner *Schema, def any) *Schema {
	return &Schema{Kind: KindDefault, Elem: inner, DefaultValue: def}
}

// Named sets the schema name used in audit records and returns the schema
// for chaining.
func (s *Schema) Named(name string) *Schema {
	s.Name = name
	return s
}

// Unwrap strips optional/default wrappers and returns the underlying
// schema.
func (s *Schema) Unwrap() *Schema {
	for s != nil && (s.Kind == KindOptional || s.Kind == KindDefault) {
		s = s.Elem
	}
	return s
}

// IsOptional reports whether absence is permitted at the top of s.
func (s *Schema) IsOptional() bool {
	return s != nil && s.Kind == KindOptional
}

// FieldByName returns the record field with the given name.
func (s *Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Clone creates a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	clone := &Schema{
		Kind:         s.Kind,
		Name:         s.Name,
		DefaultValue: s.DefaultValue,
		Elem:         s.Elem.Clone(),
	}
	if s.Options != nil {
		clone.Options = make([]string, len(s.Options))
		copy(clone.Options, s.Options)
	}
	if s.Fields != nil {
		clone.Fields = make([]Field, len(s.Fields))
		for i, f := range s.Fields {
			clone.Fields[i] = Field{Name: f.Name, Schema: f.Schema.Clone()}
		}
	}
	return clone
}

// ToJSON serializes the schema description.
func (s *Schema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// ToJSONIndent serializes the schema description with indentation, for
// embedding into prompts.
func (s *Schema) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
