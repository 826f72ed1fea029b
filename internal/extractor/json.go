// Package extractor recovers plain text and JSON objects from noisy model output.
package extractor

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	reFenced        = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")
	reLeadingFence  = regexp.MustCompile("(?i)^\\s*```(?:json)?\\s*")
	reTrailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// StripFences removes one pair of ``` fences (optionally tagged json). When a
// complete fenced block exists its content wins; otherwise a dangling opening
// or closing fence is dropped.
func StripFences(s string) string {
	if s == "" {
		return s
	}
	if m := reFenced.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	s = reLeadingFence.ReplaceAllString(strings.TrimSpace(s), "")
	s = reTrailingFence.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}

// BalancedObject returns the first balanced {...} substring of s. Braces inside
// string literals are ignored and escaped quotes do not end a string.
func BalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	// no balanced found
	return "", false
}

// FirstObject recovers one JSON object from arbitrary text. Parsing to an
// array or scalar counts as not found.
func FirstObject(text string) (map[string]any, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, false
	}
	t = StripFences(t)

	var direct any
	if err := json.Unmarshal([]byte(t), &direct); err == nil {
		obj, ok := direct.(map[string]any)
		return obj, ok
	}

	candidate, ok := BalancedObject(t)
	if !ok {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
