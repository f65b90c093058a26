package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNoJSONObject = errors.New("no JSON object found")
	ErrInvalidJSON  = errors.New("no well-formed JSON object found")
)

var (
	leadingFence  = regexp.MustCompile("^```[a-zA-Z]*\\n?")
	trailingFence = regexp.MustCompile("\\n?```$")
)

// ExtractObject returns the first well-formed top-level JSON object embedded
// in text. Objects nested inside a rejected candidate are never returned.
// Markdown fences are stripped, string literals are honored while matching
// braces, and trailing commas before a closing bracket are dropped.
func ExtractObject(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = leadingFence.ReplaceAllString(text, "")
		text = trailingFence.ReplaceAllString(text, "")
	}

	var lastErr error
	found := false
	for start := strings.IndexByte(text, '{'); start >= 0; {
		end, ok := matchBrace(text, start)
		if !ok {
			// Nothing after an unclosed brace can be a complete object.
			break
		}
		found = true
		candidate := dropTrailingCommas(text[start : end+1])
		var probe map[string]json.RawMessage
		err := json.Unmarshal(candidate, &probe)
		if err == nil {
			return candidate, nil
		}
		lastErr = err
		next := strings.IndexByte(text[end+1:], '{')
		if next < 0 {
			break
		}
		start = end + 1 + next
	}
	if !found {
		return nil, ErrNoJSONObject
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, lastErr)
}

// matchBrace finds the index of the '}' closing the '{' at start.
func matchBrace(s string, start int) (int, bool) {
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
				return i, true
			}
		}
	}
	return 0, false
}

func dropTrailingCommas(s string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
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
			buf.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		buf.WriteByte(c)
	}
	return buf.Bytes()
}
