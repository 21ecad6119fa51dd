package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Model output is free-form: numbers arrive as strings, booleans as words.
// The Flex types decode whatever shape arrives and never fail.

// FlexInt decodes numbers, numeric strings and null.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	*n = 0
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = FlexInt(math.Round(f))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = FlexInt(leadingInt(s))
	}
	return nil
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}

// FlexBool decodes booleans and their common textual spellings.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	*b = false
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = FlexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "y", "present", "found", "compliant":
			*b = true
		}
	}
	return nil
}

// FlexString decodes strings and renders scalars as text.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	*s = ""
	var v string
	if err := json.Unmarshal(data, &v); err == nil {
		*s = FlexString(v)
		return nil
	}
	raw := strings.TrimSpace(string(data))
	if raw == "null" || strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return nil
	}
	*s = FlexString(raw)
	return nil
}
