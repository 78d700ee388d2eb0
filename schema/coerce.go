package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/3r453r/math-courses-sub001/textrepair"
)

// Diagnostic records one coercion decision for later audit. Diagnostics
// feed repair-heuristic tuning; they never affect control flow.
type Diagnostic struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Preview string `json:"preview,omitempty"`
}

// Diagnostic codes emitted by Coerce.
const (
	DiagStringified     = "stringified"
	DiagStringConverted = "string_converted"
	DiagNumberParsed    = "number_parsed"
	DiagBooleanMapped   = "boolean_mapped"
	DiagEnumNormalized  = "enum_normalized"
	DiagEnumSubstring   = "enum_substring"
	DiagSequenceParsed  = "sequence_parsed"
	DiagSequenceDefault = "sequence_defaulted"
	DiagRecordParsed    = "record_parsed"
	DiagDefaultApplied  = "default_applied"
	DiagUnknownKey      = "unknown_key_dropped"
)

const previewLimit = 80

// Coerce reshapes a raw candidate value toward the target schema on a
// best-effort basis. It never fails and never returns nil for required
// sequences; values no known coercion applies to pass through untouched.
// Coercion is advisory repair, not proof of validity; callers must still
// run Validate on the result.
func Coerce(v any, s *Schema) (any, []Diagnostic) {
	var diags []Diagnostic
	out := coerceValue(v, s, "$", &diags)
	return out, diags
}

func coerceValue(v any, s *Schema, path string, diags *[]Diagnostic) any {
	if s == nil {
		return v
	}

	switch s.Kind {
	case KindOptional:
		if v == nil {
			return nil
		}
		return coerceValue(v, s.Elem, path, diags)

	case KindDefault:
		if v == nil {
			record(diags, path, DiagDefaultApplied, "absent value replaced by schema default", s.DefaultValue)
			return s.DefaultValue
		}
		return coerceValue(v, s.Elem, path, diags)

	case KindString:
		return coerceString(v, path, diags)

	case KindNumber:
		return coerceNumber(v, path, diags)

	case KindBoolean:
		return coerceBoolean(v, path, diags)

	case KindEnum:
		return coerceEnum(v, s, path, diags)

	case KindSequence:
		return coerceSequence(v, s, path, diags)

	case KindRecord:
		return coerceRecord(v, s, path, diags)
	}

	return v
}

func coerceString(v any, path string, diags *[]Diagnostic) any {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any:
		if b, err := json.Marshal(t); err == nil {
			record(diags, path, DiagStringified, "object/array serialized into string field", string(b))
			return string(b)
		}
		return v
	case nil:
		return v
	default:
		out := fmt.Sprint(t)
		record(diags, path, DiagStringConverted, "scalar converted to string", out)
		return out
	}
}

func coerceNumber(v any, path string, diags *[]Diagnostic) any {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			record(diags, path, DiagNumberParsed, "numeric string parsed", t)
			return n
		}
		return v
	default:
		return v
	}
}

func coerceBoolean(v any, path string, diags *[]Diagnostic) any {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.TrimSpace(t) {
		case "true":
			record(diags, path, DiagBooleanMapped, "literal string mapped to boolean", t)
			return true
		case "false":
			record(diags, path, DiagBooleanMapped, "literal string mapped to boolean", t)
			return false
		}
		return v
	default:
		return v
	}
}

// coerceEnum matches exact first, then case/separator-normalized, then
// substring in either direction. First matching option wins; no match
// passes the value through for validation to reject.
func coerceEnum(v any, s *Schema, path string, diags *[]Diagnostic) any {
	raw, ok := v.(string)
	if !ok {
		return v
	}

	for _, opt := range s.Options {
		if raw == opt {
			return opt
		}
	}

	norm := normalizeEnum(raw)
	for _, opt := range s.Options {
		if norm == normalizeEnum(opt) {
			record(diags, path, DiagEnumNormalized, fmt.Sprintf("%q normalized to option %q", raw, opt), raw)
			return opt
		}
	}

	for _, opt := range s.Options {
		normOpt := normalizeEnum(opt)
		if norm != "" && (strings.Contains(normOpt, norm) || strings.Contains(norm, normOpt)) {
			record(diags, path, DiagEnumSubstring, fmt.Sprintf("%q substring-matched option %q", raw, opt), raw)
			return opt
		}
	}

	return v
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func coerceSequence(v any, s *Schema, path string, diags *[]Diagnostic) any {
	if raw, ok := v.(string); ok {
		if parsed, err := textrepair.LenientParse(raw); err == nil {
			record(diags, path, DiagSequenceParsed, "stringified sequence parsed", raw)
			v = parsed
		}
	}

	arr, ok := v.([]any)
	if !ok {
		// Required sequences must never be null downstream.
		record(diags, path, DiagSequenceDefault, "non-array value defaulted to empty sequence", "")
		return []any{}
	}

	out := make([]any, len(arr))
	for i, el := range arr {
		out[i] = coerceValue(el, s.Elem, fmt.Sprintf("%s[%d]", path, i), diags)
	}
	return out
}

func coerceRecord(v any, s *Schema, path string, diags *[]Diagnostic) any {
	if raw, ok := v.(string); ok {
		parsed, err := textrepair.LenientParse(raw)
		if err == nil {
			if _, isArr := parsed.([]any); !isArr {
				record(diags, path, DiagRecordParsed, "stringified record parsed", raw)
				v = parsed
			}
		}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}

	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		fieldPath := path + "." + f.Name
		rv, present := obj[f.Name]

		if (!present || rv == nil) && !f.Schema.IsOptional() && f.Schema.Unwrap() != nil && f.Schema.Unwrap().Kind == KindSequence {
			record(diags, fieldPath, DiagSequenceDefault, "absent required sequence defaulted to empty", "")
			out[f.Name] = []any{}
			continue
		}
		if !present {
			if f.Schema.Kind == KindDefault {
				record(diags, fieldPath, DiagDefaultApplied, "absent field replaced by schema default", f.Schema.DefaultValue)
				out[f.Name] = f.Schema.DefaultValue
				continue
			}
			if f.Schema.IsOptional() {
				continue
			}
		}
		out[f.Name] = coerceValue(rv, f.Schema, fieldPath, diags)
	}

	for k := range obj {
		if _, declared := s.FieldByName(k); !declared {
			record(diags, path+"."+k, DiagUnknownKey, "undeclared input key dropped", "")
		}
	}

	return out
}

func record(diags *[]Diagnostic, path, code, msg string, preview any) {
	p := ""
	if preview != nil {
		p = fmt.Sprint(preview)
		if len(p) > previewLimit {
			p = p[:previewLimit]
		}
	}
	*diags = append(*diags, Diagnostic{Path: path, Code: code, Message: msg, Preview: p})
}
