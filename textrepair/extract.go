package textrepair

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractFenced pulls the JSON payload out of a response that may wrap it
// in markdown code fences or surrounding prose.
func ExtractFenced(response string) string {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```") {
		if m := fenceRe.FindStringSubmatch(response); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}

	// Fall back to the outermost object or array bounds.
	if start, end := strings.Index(response, "{"), strings.LastIndex(response, "}"); start >= 0 && end > start {
		return response[start : end+1]
	}
	if start, end := strings.Index(response, "["), strings.LastIndex(response, "]"); start >= 0 && end > start {
		return response[start : end+1]
	}

	return response
}

// envelopeKeys is the fixed set of wrapper keys providers are known to
// nest the intended payload under.
var envelopeKeys = map[string]bool{
	"parameter":  true,
	"parameters": true,
	"properties": true,
	"response":   true,
	"result":     true,
	"data":       true,
	"output":     true,
}

// UnwrapEnvelope strips one unexpected outer object such as
// {"parameter": {...}} and returns the inner value together with the
// wrapper key. ok is false when v is not a recognized envelope.
func UnwrapEnvelope(v any) (inner any, kind string, ok bool) {
	obj, isObj := v.(map[string]any)
	if !isObj || len(obj) != 1 {
		return v, "", false
	}
	for k, val := range obj {
		if envelopeKeys[strings.ToLower(k)] {
			return val, k, true
		}
	}
	return v, "", false
}

// LenientParse parses provider text as JSON, escalating through fence
// extraction and quote repair before giving up. The returned error is the
// last parse failure.
func LenientParse(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v, nil
	}

	extracted := ExtractFenced(s)
	if err := json.Unmarshal([]byte(extracted), &v); err == nil {
		return v, nil
	}

	repaired := QuoteEscape(extracted)
	err := json.Unmarshal([]byte(repaired), &v)
	if err == nil {
		return v, nil
	}
	return nil, err
}
