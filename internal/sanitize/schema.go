package sanitize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind names one of the result contracts.
type Kind string

const (
	KindCoach     Kind = "coach"
	KindChecklist Kind = "checklist"
	KindExam      Kind = "exam"
)

// The schemas describe what a well-behaved backend sends. They are advisory:
// sanitizers never reject on a mismatch.
const coachSchemaJSON = `{
  "type": "object",
  "required": ["should_intervene", "tip", "reason_tag", "urgency"],
  "properties": {
    "should_intervene": {"type": "boolean"},
    "tip": {"type": "string"},
    "reason_tag": {"enum": ["opening","identification","listening","empathy","clarify","restate","tone","expectations","close","feedback","other"]},
    "urgency": {"enum": ["low","medium","high"]}
  }
}`

const checklistSchemaJSON = `{
  "type": "object",
  "required": ["checklist_score", "items"],
  "properties": {
    "checklist_score": {"type": "number", "minimum": 0, "maximum": 100},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "status"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "status": {"enum": ["done","partial","missing"]},
          "evidence": {"type": "string"},
          "note": {"type": "string"}
        }
      }
    },
    "highlights": {"type": "array", "items": {"type": "string"}, "maxItems": 4},
    "improvements": {"type": "array", "items": {"type": "string"}, "maxItems": 6},
    "next_time_say": {"type": "array", "items": {"type": "string"}, "maxItems": 2}
  }
}`

const examSchemaJSON = `{
  "type": "object",
  "required": ["score", "summary"],
  "properties": {
    "score": {"type": "number", "minimum": 0, "maximum": 100},
    "pass": {"type": "boolean"},
    "summary": {"type": "string"},
    "strengths": {"type": "array", "items": {"type": "string"}, "maxItems": 5},
    "improvements": {"type": "array", "items": {"type": "string"}, "maxItems": 7}
  }
}`

var printer = message.NewPrinter(language.English)

var schemas = map[Kind]*jsonschema.Schema{
	KindCoach:     mustCompile(string(KindCoach)+".schema.json", coachSchemaJSON),
	KindChecklist: mustCompile(string(KindChecklist)+".schema.json", checklistSchemaJSON),
	KindExam:      mustCompile(string(KindExam)+".schema.json", examSchemaJSON),
}

func mustCompile(name, raw string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("parse %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add %s: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return sch
}

// Diagnose lists how obj deviates from the expected shape of kind. It is used
// for logging only and returns nil for a conforming object.
func Diagnose(kind Kind, obj map[string]any) []string {
	sch, ok := schemas[kind]
	if !ok {
		return []string{fmt.Sprintf("unknown result kind %q", kind)}
	}
	if obj == nil {
		return []string{"/: no JSON object recovered"}
	}
	err := sch.Validate(obj)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var out []string
	collect(ve, &out)
	sort.Strings(out)
	return out
}

func collect(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collect(c, out)
	}
}
