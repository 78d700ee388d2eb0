package schema

import "fmt"

// Violation describes one schema violation found during validation.
type Violation struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Violation codes.
const (
	ViolationWrongType  = "wrong_type"
	ViolationNotInEnum  = "not_in_enum"
	ViolationMissing    = "missing_required"
	ViolationNilValue   = "nil_value"
	ViolationBadElement = "bad_element"
)

// Validate checks a value against the schema and returns all violations,
// nil when the value conforms. Coercion is advisory; this is the
// authoritative conformance check.
func Validate(v any, s *Schema) []Violation {
	var out []Violation
	validateValue(v, s, "$", &out)
	return out
}

func validateValue(v any, s *Schema, path string, out *[]Violation) {
	if s == nil {
		return
	}

	switch s.Kind {
	case KindOptional, KindDefault:
		if v == nil {
			return
		}
		validateValue(v, s.Elem, path, out)

	case KindString:
		if _, ok := v.(string); !ok {
			violate(out, path, ViolationWrongType, "expected string, got %T", v)
		}

	case KindNumber:
		switch v.(type) {
		case float64, float32, int, int64:
		default:
			violate(out, path, ViolationWrongType, "expected number, got %T", v)
		}

	case KindBoolean:
		if _, ok := v.(bool); !ok {
			violate(out, path, ViolationWrongType, "expected boolean, got %T", v)
		}

	case KindEnum:
		raw, ok := v.(string)
		if !ok {
			violate(out, path, ViolationWrongType, "expected enum string, got %T", v)
			return
		}
		for _, opt := range s.Options {
			if raw == opt {
				return
			}
		}
		violate(out, path, ViolationNotInEnum, "value %q not in option set %v", raw, s.Options)

	case KindSequence:
		if v == nil {
			violate(out, path, ViolationNilValue, "required sequence is null")
			return
		}
		arr, ok := v.([]any)
		if !ok {
			violate(out, path, ViolationWrongType, "expected sequence, got %T", v)
			return
		}
		for i, el := range arr {
			validateValue(el, s.Elem, fmt.Sprintf("%s[%d]", path, i), out)
		}

	case KindRecord:
		obj, ok := v.(map[string]any)
		if !ok {
			violate(out, path, ViolationWrongType, "expected record, got %T", v)
			return
		}
		for _, f := range s.Fields {
			fieldPath := path + "." + f.Name
			fv, present := obj[f.Name]
			if !present {
				if f.Schema.Kind == KindOptional || f.Schema.Kind == KindDefault {
					continue
				}
				violate(out, fieldPath, ViolationMissing, "required field absent")
				continue
			}
			validateValue(fv, f.Schema, fieldPath, out)
		}
	}
}

func violate(out *[]Violation, path, code, format string, args ...any) {
	*out = append(*out, Violation{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}
