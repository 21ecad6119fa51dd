// Package jsonx pulls JSON objects out of free-form model output.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"

	"GrantChecker/internal/domain"
)

// ErrNoObject is returned when the text contains no valid JSON object.
var ErrNoObject = fmt.Errorf("no JSON object in text: %w", domain.ErrParse)

// ExtractObject returns the first balanced, valid JSON object embedded in
// text. Leading and trailing prose or code fences are ignored.
func ExtractObject(text string) (json.RawMessage, error) {
	offset := 0
	for {
		idx := strings.IndexByte(text[offset:], '{')
		if idx < 0 {
			return nil, ErrNoObject
		}
		start := offset + idx
		if end, ok := balancedEnd(text, start); ok {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return json.RawMessage(candidate), nil
			}
		}
		offset = start + 1
	}
}

// Decode extracts the first object from text and unmarshals it into v.
func Decode(text string, v any) error {
	raw, err := ExtractObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode object: %v: %w", err, domain.ErrParse)
	}
	return nil
}

func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
