package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in model output")

// decodeModelJSON unmarshals the JSON object carried by a model completion.
// The completion may be wrapped in a fenced code block, surrounded by prose,
// or bare.
func decodeModelJSON(raw string, v any) error {
	s := stripFences(strings.TrimSpace(raw))
	if !strings.HasPrefix(s, "{") {
		obj, ok := firstBalancedObject(s)
		if !ok {
			return errNoJSONObject
		}
		s = obj
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decodeModelJSON: unmarshal: %w", err)
	}
	return nil
}

// stripFences returns the body of the first ``` block, if any.
func stripFences(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}
	body := s[start+3:]
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	end := strings.Index(body, "```")
	if end == -1 {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(body[:end])
}

// firstBalancedObject returns the first {...} span whose braces balance,
// ignoring braces inside JSON string literals.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// flexNumber accepts a JSON number or a numeric string such as "5,90".
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = flexNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("flexNumber: expected number or string, got %s", b)
	}
	f, err := parseLocalizedNumber(s)
	if err != nil {
		return err
	}
	*n = flexNumber(f)
	return nil
}

// parseLocalizedNumber parses "5.90", "5,90", "1.234,56" and "R$ 12,50".
func parseLocalizedNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parseLocalizedNumber: %q: %w", s, err)
	}
	return f, nil
}

// cleanOptional trims s and maps "", "null" and "none" to "".
func cleanOptional(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	switch strings.ToLower(v) {
	case "null", "none":
		return ""
	}
	return v
}
