// Package prompts holds the fixed system prompts and the scenario catalog used
// to brief the simulated customer.
package prompts

import (
	_ "embed"
	"strings"
)

var (
	//go:embed templates/coach_system.txt
	coachSystem string

	//go:embed templates/grader_rubric.txt
	graderRubric string

	//go:embed templates/checklist_system.txt
	checklistSystem string
)

// CoachSystem is the system prompt for live coaching tips.
func CoachSystem() string { return strings.TrimSpace(coachSystem) }

// GraderRubric is the system prompt for exam grading.
func GraderRubric() string { return strings.TrimSpace(graderRubric) }

// ChecklistSystem is the system prompt for the after-call checklist.
func ChecklistSystem() string { return strings.TrimSpace(checklistSystem) }
