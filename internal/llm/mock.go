package llm

import (
	"context"
	"fmt"
)

// Mock returns fixed, well-formed answers so the app runs without a model.
type Mock struct{}

// NewMock returns the offline backend.
func NewMock() *Mock { return &Mock{} }

const mockCoach = `{"should_intervene": true, "tip": "Ask one clear question about what happened.", "reason_tag": "clarify", "urgency": "medium"}`

const mockChecklist = "```json\n" + `{
  "checklist_score": 62,
  "items": [
    {"id": "opening", "title": "Greeting and name", "status": "done", "evidence": "Hello, my name is", "note": ""},
    {"id": "empathy", "title": "Acknowledge the feeling", "status": "partial", "evidence": "", "note": "Name the emotion once."},
    {"id": "clarify", "title": "Clarifying question", "status": "done", "evidence": "", "note": ""},
    {"id": "restate", "title": "Restate the issue", "status": "missing", "evidence": "", "note": "Summarize before solving."},
    {"id": "close", "title": "Agree next step and close", "status": "missing", "evidence": "", "note": ""}
  ],
  "highlights": ["Friendly greeting"],
  "improvements": ["Restate the problem in your own words", "Confirm the next step before closing"],
  "next_time_say": ["Just to confirm, the issue is...", "Here is what happens next..."]
}` + "\n```"

const mockGrade = `Grade follows. {"score": 68, "pass": false, "summary": "Polite call, but the issue was never restated or closed.", "strengths": ["Polite tone"], "improvements": ["Restate the issue", "Close with a clear next step"]}`

// Generate implements Client.
func (m *Mock) Generate(ctx context.Context, req Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch req.Purpose {
	case PurposeCoach:
		return mockCoach, nil
	case PurposeChecklist:
		return mockChecklist, nil
	case PurposeGrade:
		return mockGrade, nil
	default:
		return nil, fmt.Errorf("mock: unknown purpose %q", req.Purpose)
	}
}
