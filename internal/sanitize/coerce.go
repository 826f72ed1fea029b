// Package sanitize turns loosely shaped model JSON into the strict result
// contracts the UI renders. Every field is cleaned on its own; nothing here
// returns an error.
package sanitize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// str stringifies v the way the UI expects: nil is "", strings pass through,
// everything else is rendered.
func str(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

func cleanStr(v any) string {
	return strings.TrimSpace(str(v))
}

// firstWords keeps at most n whitespace tokens, re-joined with single spaces.
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// runes cuts s to n runes and trims again so the result is stable under re-cleaning.
func runes(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > n {
		s = string(r[:n])
	}
	return strings.TrimSpace(s)
}

// score coerces a number or numeric string to an int in [0,100]; anything else is 0.
func score(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	f = math.Trunc(f)
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return int(f)
	}
}

// boolean reads a bool, a true/false-ish string or a number. ok is false when
// v carries no usable truth value.
func boolean(v any) (val, ok bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case float64:
		return x != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1", "pass", "passed":
			return true, true
		case "false", "no", "0", "fail", "failed":
			return false, true
		}
	}
	return false, false
}

// list stringifies, trims and drops empty entries of a JSON array, keeping at most limit.
func list(v any, limit int) []string {
	items, _ := v.([]any)
	out := make([]string, 0, min(len(items), limit))
	for _, it := range items {
		if len(out) == limit {
			break
		}
		if s := cleanStr(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// oneOf lower-cases v and returns it when allowed, def otherwise.
func oneOf(v any, allowed map[string]bool, def string) string {
	s := strings.ToLower(cleanStr(v))
	if allowed[s] {
		return s
	}
	return def
}
