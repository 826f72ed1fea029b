package types

import "time"

// Speakers used in the transcript line protocol ("AGENT: ..." / "CUSTOMER: ...").
const (
	SpeakerAgent    = "AGENT"
	SpeakerCustomer = "CUSTOMER"
)

// Urgency levels carried by a coaching decision.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Checklist item statuses.
const (
	StatusDone    = "done"
	StatusPartial = "partial"
	StatusMissing = "missing"
)

// Attempt modes.
const (
	ModeTraining = "training"
	ModeExam     = "exam"
)

// Scenario levels.
const (
	LevelEasy   = "easy"
	LevelMedium = "medium"
	LevelHard   = "hard"
)

// LiveMeta is optional per-invocation data from the live call.
type LiveMeta struct {
	SilenceMs          int    `json:"silence_ms,omitempty"`
	AgentLastUtterance string `json:"agent_last_utterance,omitempty"`
}

// CoachDecision is the live coaching result. Tip is non-empty iff ShouldIntervene.
type CoachDecision struct {
	ShouldIntervene bool   `json:"should_intervene"`
	Tip             string `json:"tip"`
	ReasonTag       string `json:"reason_tag"`
	Urgency         string `json:"urgency"`
	Trigger         string `json:"trigger,omitempty"`
}

// Suppressed returns a non-firing decision tagged with reason.
func Suppressed(reason string) CoachDecision {
	return CoachDecision{ReasonTag: reason, Urgency: UrgencyLow}
}

type ChecklistItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Evidence string `json:"evidence"`
	Note     string `json:"note"`
}

type ChecklistReport struct {
	ChecklistScore int             `json:"checklist_score"`
	Items          []ChecklistItem `json:"items"`
	Highlights     []string        `json:"highlights"`
	Improvements   []string        `json:"improvements"`
	NextTimeSay    []string        `json:"next_time_say"`
}

type ExamGrade struct {
	Score        int      `json:"score"`
	Pass         bool     `json:"pass"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// Scenario is a static role-play situation for the simulated customer.
type Scenario struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Level  string `json:"level" yaml:"-"`
	Prompt string `json:"-" yaml:"prompt"`
}

// Attempt is one stored training or exam call. Pointer fields are nullable.
type Attempt struct {
	ID             int64            `json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	UserEmail      string           `json:"user_email"`
	Mode           string           `json:"mode"`
	Level          string           `json:"level"`
	Transcript     string           `json:"transcript,omitempty"`
	Score          *int             `json:"score"`
	Passed         *bool            `json:"passed"`
	Summary        string           `json:"summary,omitempty"`
	Strengths      []string         `json:"strengths,omitempty"`
	Improvements   []string         `json:"improvements,omitempty"`
	ChecklistScore *int             `json:"checklist_score"`
	Checklist      *ChecklistReport `json:"checklist,omitempty"`
	CustomerType   string           `json:"customer_type,omitempty"`
	EmotionLevel   *int             `json:"emotion_level,omitempty"`
}

// PracticeCall is one row of a practice workbook: a recorded call transcript
// plus the metadata trainers attach to it.
type PracticeCall struct {
	Row          int    `json:"row"`
	ID           string `json:"id"`
	Level        string `json:"level"`
	CustomerType string `json:"customer_type,omitempty"`
	EmotionLevel *int   `json:"emotion_level,omitempty"`
	Transcript   string `json:"transcript"`
}
