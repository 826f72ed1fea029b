package extractor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstObject_FencedWithNoise(t *testing.T) {
	text := "here is your answer: ```json\n{\"a\": {\"b\": 1}}\n``` thanks"

	obj, ok := FirstObject(text)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": float64(1)}}, obj)
}

func TestFirstObject_BraceInsideString(t *testing.T) {
	text := `Sure! {"note": "use a closing brace }", "n": 2} hope that helps`

	obj, ok := FirstObject(text)
	require.True(t, ok)
	assert.Equal(t, "use a closing brace }", obj["note"])
	assert.Equal(t, float64(2), obj["n"])
}

func TestFirstObject_Cases(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		wantOK bool
		key    string
	}{
		{"empty", "", false, ""},
		{"whitespace", "   \n", false, ""},
		{"plain object", `{"tip":"slow down"}`, true, "tip"},
		{"upper-case fence tag", "```JSON\n{\"tip\":\"x\"}\n```", true, "tip"},
		{"unclosed leading fence", "```json\n{\"tip\":\"x\"}", true, "tip"},
		{"dangling trailing fence", "{\"tip\":\"x\"}\n```", true, "tip"},
		{"preamble and postamble", "Result:\n{\"tip\":\"x\"}\nDone.", true, "tip"},
		{"array is not an object", `[{"tip":"x"}]`, false, ""},
		{"scalar is not an object", `42`, false, ""},
		{"unbalanced", `{"tip": "x"`, false, ""},
		{"balanced but invalid", `noise {tip: x} noise`, false, ""},
		{"no braces", "I cannot help with that.", false, ""},
		{"escaped quote in string", `x {"q": "she said \"}\" ok", "k": 1} y`, true, "k"},
		{"first block wins", "```json\n{\"first\":1}\n```\n```json\n{\"second\":2}\n```", true, "first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := FirstObject(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Contains(t, obj, tt.key)
			} else {
				assert.Nil(t, obj)
			}
		})
	}
}

func TestBalancedObject_EscapedBackslashBeforeQuote(t *testing.T) {
	// `\\` is an escaped backslash, so the following quote closes the string
	got, ok := BalancedObject(`pre {"p": "C:\\", "x": "}"} post`)
	require.True(t, ok)
	assert.Equal(t, `{"p": "C:\\", "x": "}"}`, got)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("  ```json {\"a\":1}"))
	assert.Equal(t, "plain", StripFences("plain"))
}

type typedResponse struct {
	text string
	raw  string
}

func (r typedResponse) OutputText() string { return r.text }

func (r typedResponse) RawJSON() string { return r.raw }

type rawOnly struct{ raw string }

func (r rawOnly) RawJSON() string { return r.raw }

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"typed accessor", typedResponse{text: "  hello  "}, "hello"},
		{
			"typed accessor blank falls back to raw json",
			typedResponse{raw: `{"output":[{"content":[{"type":"output_text","text":"from raw"}]}]}`},
			"from raw",
		},
		{"map aggregated text", map[string]any{"output_text": " hi "}, "hi"},
		{
			"map output items with parts",
			map[string]any{"output": []any{
				map[string]any{"content": []any{
					map[string]any{"type": "output_text", "text": "line one"},
					map[string]any{"type": "output_text", "text": "   "},
					map[string]any{"type": "refusal"},
				}},
				nil,
				map[string]any{"content": "line two"},
			}},
			"line one\nline two",
		},
		{"raw json bytes", []byte(`{"output_text":"bytes"}`), "bytes"},
		{"raw message chat shape", json.RawMessage(`{"choices":[{"message":{"content":" chat "}}]}`), "chat"},
		{"raw json accessor", rawOnly{raw: `{"output_text":"wire"}`}, "wire"},
		{"plain string", "  just text ", "just text"},
		{"bare answer object string", `{"tip":"x"}`, `{"tip":"x"}`},
		{"envelope without text", `{"output":[]}`, ""},
		{"blank aggregated, empty items", map[string]any{"output_text": "  ", "output": []any{}}, ""},
		{"unknown type", 42, ""},
		{"output not a list", map[string]any{"output": "nope"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResponseText(tt.in))
		})
	}
}
