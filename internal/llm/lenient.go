package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptyResponse = errors.New("empty response")
	ErrNoArray       = errors.New("response does not contain a JSON array")

	codeFenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")
)

// ParseJSONLenient returns the elements of the JSON array in text. Text that
// is itself valid JSON must be an array. Otherwise code fences are stripped
// and the first top-level bracketed array is parsed, which handles
// prose-wrapped output.
func ParseJSONLenient(text string) ([]json.RawMessage, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, ErrEmptyResponse
	}
	if arr, isJSON, err := asArray([]byte(t)); isJSON {
		return arr, err
	}

	if m := codeFenceRe.FindStringSubmatch(t); m != nil {
		if arr, isJSON, err := asArray([]byte(m[1])); isJSON {
			return arr, err
		}
		t = m[1]
	}

	if sub, ok := firstBracketedArray(t); ok {
		var arr []json.RawMessage
		if err := json.Unmarshal([]byte(sub), &arr); err == nil {
			return arr, nil
		}
	}
	return nil, ErrNoArray
}

// asArray reports whether b is a complete JSON value and, if so, returns its
// elements or ErrNoArray when the value is not an array.
func asArray(b []byte) (arr []json.RawMessage, isJSON bool, err error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || !json.Valid(b) {
		return nil, false, nil
	}
	if b[0] != '[' {
		return nil, true, ErrNoArray
	}
	if err := json.Unmarshal(b, &arr); err != nil {
		return nil, true, ErrNoArray
	}
	return arr, true, nil
}

// firstBracketedArray scans for the first '[' and returns the substring up to
// its balancing ']'. Brackets inside JSON strings are ignored.
func firstBracketedArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
