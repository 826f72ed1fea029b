package extractor

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// outputTexter is satisfied by SDK response types exposing the aggregated output text.
type outputTexter interface {
	OutputText() string
}

// rawJSONer is satisfied by SDK response types that keep their wire payload.
type rawJSONer interface {
	RawJSON() string
}

// strategy pulls text out of one response shape; "" means not found.
type strategy func(raw any) string

// strategies are tried in order until one yields text.
var strategies = []strategy{
	fromOutputTextAccessor,
	fromJSONView,
	fromPlainString,
}

// ResponseText returns the best-effort plain text of a model response whose
// concrete shape varies by backend and SDK version. It never panics; unknown
// shapes yield "".
func ResponseText(raw any) string {
	if raw == nil {
		return ""
	}
	for _, s := range strategies {
		if txt := safely(s, raw); txt != "" {
			return txt
		}
	}
	return ""
}

func safely(s strategy, raw any) (txt string) {
	defer func() {
		if recover() != nil {
			txt = ""
		}
	}()
	return s(raw)
}

func fromOutputTextAccessor(raw any) string {
	if ot, ok := raw.(outputTexter); ok {
		return strings.TrimSpace(ot.OutputText())
	}
	return ""
}

// jsonPaths are probed in order on the JSON view of a response.
var jsonPaths = []func(gjson.Result) string{
	aggregatedText,
	outputItemsText,
	chatChoiceText,
}

func fromJSONView(raw any) string {
	doc, ok := jsonView(raw)
	if !ok {
		return ""
	}
	root := gjson.Parse(doc)
	for _, probe := range jsonPaths {
		if txt := probe(root); txt != "" {
			return txt
		}
	}
	return ""
}

// jsonView renders raw as a JSON object document when it has (or is) one.
func jsonView(raw any) (string, bool) {
	var doc string
	switch v := raw.(type) {
	case rawJSONer:
		doc = v.RawJSON()
	case json.RawMessage:
		doc = string(v)
	case []byte:
		doc = string(v)
	case string:
		doc = v
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		doc = string(b)
	default:
		return "", false
	}
	doc = strings.TrimSpace(doc)
	if !strings.HasPrefix(doc, "{") || !gjson.Valid(doc) {
		return "", false
	}
	return doc, true
}

func aggregatedText(root gjson.Result) string {
	if v := root.Get("output_text"); v.Type == gjson.String {
		return strings.TrimSpace(v.String())
	}
	return ""
}

// outputItemsText joins every non-blank text part of output[].content[].
func outputItemsText(root gjson.Result) string {
	var chunks []string
	root.Get("output").ForEach(func(_, item gjson.Result) bool {
		content := item.Get("content")
		switch {
		case content.IsArray():
			content.ForEach(func(_, part gjson.Result) bool {
				if t := part.Get("text"); t.Type == gjson.String {
					if s := strings.TrimSpace(t.String()); s != "" {
						chunks = append(chunks, s)
					}
				}
				return true
			})
		case content.Type == gjson.String:
			if s := strings.TrimSpace(content.String()); s != "" {
				chunks = append(chunks, s)
			}
		}
		return true
	})
	return strings.TrimSpace(strings.Join(chunks, "\n"))
}

// chatChoiceText reads the OpenAI-style choices[0].message.content used by gateways.
func chatChoiceText(root gjson.Result) string {
	if v := root.Get("choices.0.message.content"); v.Type == gjson.String {
		return strings.TrimSpace(v.String())
	}
	return ""
}

func fromPlainString(raw any) string {
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case json.RawMessage:
		s = string(v)
	default:
		return ""
	}
	s = strings.TrimSpace(s)
	// a JSON envelope with no recognised text field is not the answer itself
	if strings.HasPrefix(s, "{") && gjson.Valid(s) && looksLikeEnvelope(gjson.Parse(s)) {
		return ""
	}
	return s
}

func looksLikeEnvelope(root gjson.Result) bool {
	return root.Get("output").Exists() || root.Get("choices").Exists() || root.Get("object").Exists()
}
