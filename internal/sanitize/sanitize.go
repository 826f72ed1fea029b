package sanitize

import (
	"roleplay-coach-go/internal/types"
)

// Limits of the UI-facing result contracts.
const (
	MaxTipWords      = 16
	MaxItemIDRunes   = 40
	MaxItemTitle     = 60
	MaxEvidenceWords = 12
	MaxNoteWords     = 18
	MaxHighlights    = 4
	MaxImprovements  = 6
	MaxNextTimeSay   = 2
	MaxStrengths     = 5
	MaxExamImprove   = 7
	PassThreshold    = 70
)

// Reason tags a coaching tip may carry.
const (
	TagOpening        = "opening"
	TagIdentification = "identification"
	TagListening      = "listening"
	TagEmpathy        = "empathy"
	TagClarify        = "clarify"
	TagRestate        = "restate"
	TagTone           = "tone"
	TagExpectations   = "expectations"
	TagClose          = "close"
	TagFeedback       = "feedback"
	TagOther          = "other"
)

// Non-firing reason tags.
const (
	TagCooldown   = "cooldown"
	TagTiming     = "timing"
	TagParseError = "parse_error"
	TagMissingKey = "missing_key"
	TagEmpty      = "empty"
	TagError      = "error"
	TagRepeat     = "repeat"
)

var reasonTags = map[string]bool{
	TagOpening: true, TagIdentification: true, TagListening: true, TagEmpathy: true,
	TagClarify: true, TagRestate: true, TagTone: true, TagExpectations: true,
	TagClose: true, TagFeedback: true, TagOther: true,
}

var urgencies = map[string]bool{
	types.UrgencyLow: true, types.UrgencyMedium: true, types.UrgencyHigh: true,
}

var statuses = map[string]bool{
	types.StatusDone: true, types.StatusPartial: true, types.StatusMissing: true,
}

// IsReasonTag reports whether tag is one of the checklist reason tags.
func IsReasonTag(tag string) bool {
	return reasonTags[tag]
}

// Tip collapses a tip to at most MaxTipWords words.
func Tip(s string) string {
	return firstWords(s, MaxTipWords)
}

// CoachTip cleans a coach answer. An empty tip never intervenes, and a
// declined intervention never carries a tip.
func CoachTip(obj map[string]any) types.CoachDecision {
	if obj == nil {
		return types.Suppressed(TagParseError)
	}
	d := types.CoachDecision{
		Tip:       Tip(cleanStr(obj["tip"])),
		ReasonTag: oneOf(obj["reason_tag"], reasonTags, TagOther),
		Urgency:   oneOf(obj["urgency"], urgencies, types.UrgencyLow),
	}
	intervene, ok := boolean(obj["should_intervene"])
	if !ok {
		intervene = true
	}
	d.ShouldIntervene = intervene && d.Tip != ""
	if !d.ShouldIntervene {
		d.Tip = ""
	}
	return d
}

// ChecklistUnparsed is returned when no checklist object could be recovered.
func ChecklistUnparsed() types.ChecklistReport {
	return types.ChecklistReport{
		Items:        []types.ChecklistItem{},
		Highlights:   []string{},
		Improvements: []string{"Could not parse checklist output."},
		NextTimeSay:  []string{},
	}
}

// Checklist cleans a checklist report. Items without an id or title are dropped.
func Checklist(obj map[string]any) types.ChecklistReport {
	if obj == nil {
		return ChecklistUnparsed()
	}
	rawItems, _ := obj["items"].([]any)
	items := make([]types.ChecklistItem, 0, len(rawItems))
	for _, it := range rawItems {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		item := types.ChecklistItem{
			ID:       runes(str(m["id"]), MaxItemIDRunes),
			Title:    runes(str(m["title"]), MaxItemTitle),
			Status:   oneOf(m["status"], statuses, types.StatusMissing),
			Evidence: firstWords(str(m["evidence"]), MaxEvidenceWords),
			Note:     firstWords(str(m["note"]), MaxNoteWords),
		}
		if item.ID == "" || item.Title == "" {
			continue
		}
		items = append(items, item)
	}
	return types.ChecklistReport{
		ChecklistScore: score(obj["checklist_score"]),
		Items:          items,
		Highlights:     list(obj["highlights"], MaxHighlights),
		Improvements:   list(obj["improvements"], MaxImprovements),
		NextTimeSay:    list(obj["next_time_say"], MaxNextTimeSay),
	}
}

// ExamGradeUnparsed is returned when no grade object could be recovered.
func ExamGradeUnparsed() types.ExamGrade {
	return types.ExamGrade{
		Summary:      "Could not parse grader output.",
		Strengths:    []string{},
		Improvements: []string{"Try again."},
	}
}

// ExamGrade cleans a grader answer. Pass falls back to the score threshold
// when the backend leaves it out.
func ExamGrade(obj map[string]any) types.ExamGrade {
	if obj == nil {
		return ExamGradeUnparsed()
	}
	s := score(obj["score"])
	pass, ok := boolean(obj["pass"])
	if !ok {
		pass = s >= PassThreshold
	}
	return types.ExamGrade{
		Score:        s,
		Pass:         pass,
		Summary:      cleanStr(obj["summary"]),
		Strengths:    list(obj["strengths"], MaxStrengths),
		Improvements: list(obj["improvements"], MaxExamImprove),
	}
}
