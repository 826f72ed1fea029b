package sanitize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roleplay-coach-go/internal/types"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var obj map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &obj))
	return obj
}

// roundTrip re-encodes a sanitized value the way a client would send it back.
func roundTrip(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return decode(t, string(b))
}

func TestCoachTip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want types.CoachDecision
	}{
		{
			name: "clean answer",
			in:   `{"should_intervene": true, "tip": "Ask one clear question about the charge.", "reason_tag": "clarify", "urgency": "medium"}`,
			want: types.CoachDecision{ShouldIntervene: true, Tip: "Ask one clear question about the charge.", ReasonTag: "clarify", Urgency: "medium"},
		},
		{
			name: "defaults and clamping",
			in:   `{"tip": "  Slow   down\nplease ", "reason_tag": "PACE", "urgency": "URGENT"}`,
			want: types.CoachDecision{ShouldIntervene: true, Tip: "Slow down please", ReasonTag: "other", Urgency: "low"},
		},
		{
			name: "upper-case enums",
			in:   `{"tip": "Say sorry.", "reason_tag": "EMPATHY", "urgency": "High"}`,
			want: types.CoachDecision{ShouldIntervene: true, Tip: "Say sorry.", ReasonTag: "empathy", Urgency: "high"},
		},
		{
			name: "empty tip never intervenes",
			in:   `{"should_intervene": true, "tip": "   ", "reason_tag": "tone"}`,
			want: types.CoachDecision{ShouldIntervene: false, Tip: "", ReasonTag: "tone", Urgency: "low"},
		},
		{
			name: "declined clears tip",
			in:   `{"should_intervene": false, "tip": "Nothing needed", "reason_tag": "other", "urgency": "low"}`,
			want: types.CoachDecision{ShouldIntervene: false, Tip: "", ReasonTag: "other", Urgency: "low"},
		},
		{
			name: "string boolean",
			in:   `{"should_intervene": "false", "tip": "x"}`,
			want: types.CoachDecision{ShouldIntervene: false, Tip: "", ReasonTag: "other", Urgency: "low"},
		},
		{
			name: "non-string tip is stringified",
			in:   `{"tip": 42}`,
			want: types.CoachDecision{ShouldIntervene: true, Tip: "42", ReasonTag: "other", Urgency: "low"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoachTip(decode(t, tt.in)))
		})
	}
}

func TestCoachTip_TruncatesTo16Words(t *testing.T) {
	long := strings.Repeat("word ", 30)
	d := CoachTip(map[string]any{"tip": long})
	assert.Len(t, strings.Fields(d.Tip), MaxTipWords)
	assert.True(t, d.ShouldIntervene)
}

func TestCoachTip_Nil(t *testing.T) {
	d := CoachTip(nil)
	assert.False(t, d.ShouldIntervene)
	assert.Empty(t, d.Tip)
	assert.Equal(t, TagParseError, d.ReasonTag)
}

func TestCoachTip_TipEmptyInvariant(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{},
		{"should_intervene": true},
		{"should_intervene": true, "tip": ""},
		{"should_intervene": false, "tip": "hello"},
		{"should_intervene": "yes", "tip": "hello"},
		{"should_intervene": 0, "tip": "hello"},
		{"tip": []any{"a", "b"}},
		{"tip": nil},
	}
	for _, in := range inputs {
		d := CoachTip(in)
		assert.Equal(t, d.Tip != "", d.ShouldIntervene, "input %v", in)
	}
}

func TestScoreClamping(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{float64(-5), 0},
		{float64(0), 0},
		{float64(55.9), 55},
		{float64(100), 100},
		{float64(250), 100},
		{"87", 87},
		{" 12.5 ", 12},
		{"n/a", 0},
		{true, 0},
		{nil, 0},
		{[]any{1}, 0},
	}
	for _, tt := range tests {
		got := score(tt.in)
		assert.Equal(t, tt.want, got, "score(%v)", tt.in)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)

		assert.Equal(t, tt.want, ExamGrade(map[string]any{"score": tt.in}).Score)
		assert.Equal(t, tt.want, Checklist(map[string]any{"checklist_score": tt.in}).ChecklistScore)
	}
	assert.Equal(t, 0, ExamGrade(map[string]any{}).Score, "missing score")
}

func TestChecklist(t *testing.T) {
	raw := `{
	  "checklist_score": 140,
	  "items": [
	    {"id": "opening", "title": "Opening", "status": "DONE", "evidence": "one two three four five six seven eight nine ten eleven twelve thirteen", "note": "fine"},
	    {"id": "", "title": "No id", "status": "done"},
	    {"id": "tone", "title": "", "status": "done"},
	    "not an object",
	    {"id": 7, "title": "Numeric id", "status": "weird"},
	    {"id": "` + strings.Repeat("x", 50) + `", "title": "` + strings.Repeat("t", 70) + `"}
	  ],
	  "highlights": ["a", " ", "b", "c", "d", "e"],
	  "improvements": ["1", "2", "3", "4", "5", "6", "7"],
	  "next_time_say": ["  first  ", "", "second", "third"]
	}`

	r := Checklist(decode(t, raw))

	assert.Equal(t, 100, r.ChecklistScore)
	require.Len(t, r.Items, 3)

	assert.Equal(t, types.ChecklistItem{
		ID:       "opening",
		Title:    "Opening",
		Status:   "done",
		Evidence: "one two three four five six seven eight nine ten eleven twelve",
		Note:     "fine",
	}, r.Items[0])

	assert.Equal(t, "7", r.Items[1].ID)
	assert.Equal(t, "missing", r.Items[1].Status)

	assert.Len(t, r.Items[2].ID, MaxItemIDRunes)
	assert.Len(t, r.Items[2].Title, MaxItemTitle)
	assert.Equal(t, "missing", r.Items[2].Status)

	assert.Equal(t, []string{"a", "b", "c", "d"}, r.Highlights)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, r.Improvements)
	assert.Equal(t, []string{"first", "second"}, r.NextTimeSay)
}

func TestChecklist_DropsItemWithEmptyID(t *testing.T) {
	r := Checklist(map[string]any{
		"items": []any{map[string]any{"id": "   ", "title": "Empathy", "status": "done"}},
	})
	assert.Empty(t, r.Items)
}

func TestChecklist_NoteWordLimit(t *testing.T) {
	r := Checklist(map[string]any{
		"items": []any{map[string]any{"id": "a", "title": "A", "note": strings.Repeat("n ", 40)}},
	})
	require.Len(t, r.Items, 1)
	assert.Len(t, strings.Fields(r.Items[0].Note), MaxNoteWords)
}

func TestChecklist_Idempotent(t *testing.T) {
	raw := `{
	  "checklist_score": "73.8",
	  "items": [
	    {"id": "  restate ", "title": " Restate  ", "status": "Partial", "evidence": "  so   you are saying ", "note": "good try"},
	    {"id": "` + strings.Repeat("y", 39) + ` trailing", "title": "Long", "status": "done"}
	  ],
	  "highlights": ["warm tone"],
	  "improvements": [],
	  "next_time_say": ["Just to confirm..."]
	}`
	once := Checklist(decode(t, raw))
	twice := Checklist(roundTrip(t, once))
	assert.Equal(t, once, twice)
	thrice := Checklist(roundTrip(t, twice))
	assert.Equal(t, twice, thrice)
}

func TestChecklist_NilAndMalformed(t *testing.T) {
	assert.Equal(t, ChecklistUnparsed(), Checklist(nil))

	r := Checklist(map[string]any{"items": "nope", "highlights": "also nope"})
	assert.Empty(t, r.Items)
	assert.Empty(t, r.Highlights)
	assert.NotNil(t, r.Items)
}

func TestExamGrade_DefaultPass(t *testing.T) {
	assert.True(t, ExamGrade(decode(t, `{"score": 75}`)).Pass)
	assert.False(t, ExamGrade(decode(t, `{"score": 65}`)).Pass)
	assert.True(t, ExamGrade(decode(t, `{"score": 70}`)).Pass)
	assert.False(t, ExamGrade(decode(t, `{"score": 90, "pass": false}`)).Pass)
	assert.True(t, ExamGrade(decode(t, `{"score": 10, "pass": "PASS"}`)).Pass)
	assert.True(t, ExamGrade(decode(t, `{"score": 80, "pass": null}`)).Pass)
}

func TestExamGrade_Lists(t *testing.T) {
	g := ExamGrade(decode(t, `{
	  "score": 81,
	  "summary": "  Solid call. ",
	  "strengths": ["a", "b", "c", "d", "e", "f"],
	  "improvements": ["1", "", "2", "3", "4", "5", "6", "7", "8"]
	}`))
	assert.Equal(t, "Solid call.", g.Summary)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, g.Strengths)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7"}, g.Improvements)
}

func TestExamGrade_Nil(t *testing.T) {
	g := ExamGrade(nil)
	assert.Equal(t, 0, g.Score)
	assert.False(t, g.Pass)
	assert.Equal(t, "Could not parse grader output.", g.Summary)
}

func TestDiagnose(t *testing.T) {
	assert.Nil(t, Diagnose(KindCoach, decode(t,
		`{"should_intervene": true, "tip": "x", "reason_tag": "tone", "urgency": "low"}`)))

	problems := Diagnose(KindCoach, decode(t, `{"tip": 3, "reason_tag": "pace", "urgency": "low"}`))
	assert.NotEmpty(t, problems)

	assert.NotEmpty(t, Diagnose(KindExam, decode(t, `{"score": 140, "summary": "x"}`)))
	assert.Nil(t, Diagnose(KindExam, decode(t, `{"score": 80, "summary": "x"}`)))
	assert.NotEmpty(t, Diagnose(KindChecklist, nil))
	assert.NotEmpty(t, Diagnose(Kind("bogus"), map[string]any{}))
}
