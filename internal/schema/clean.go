package schema

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be located in the input.
var ErrNoJSON = errors.New("schema: no JSON object found in input")

// CleanJSON extracts the JSON object embedded in untrusted model output.
// Answers routinely arrive wrapped in markdown code fences, preceded by
// prose, or double-encoded as a quoted JSON string. This is the boundary
// of trust: everything past it is still unvalidated, but at least
// syntactically parseable.
func CleanJSON(text string) ([]byte, error) {
	s := strings.TrimSpace(text)

	// Strip markdown code fences, with or without a language tag.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{}") {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	// Unwrap a double-encoded JSON string ("{\"s\": 1, ...}").
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		if unquoted, err := strconv.Unquote(s); err == nil {
			s = strings.TrimSpace(unquoted)
		}
	}

	// Trim leading prose and trailing noise around the outermost object.
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}
	return []byte(s[start : end+1]), nil
}

// ParseUntrusted cleans and parses untrusted text into a generic value and
// renames compact field names to canonical ones when the document matches
// that convention exactly. The result is still unvalidated input for the
// inspector; a parse failure yields a nil value, not an error the caller
// must branch on, because "not JSON at all" is just the worst score.
func ParseUntrusted(text string) any {
	raw, err := CleanJSON(text)
	if err != nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return NormalizeStateMap(NormalizeActionMap(m))
	}
	return v
}
