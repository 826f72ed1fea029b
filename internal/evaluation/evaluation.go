// Package evaluation builds the after-call checklist report and the exam grade.
// Each is one backend call; failures degrade to a zero-score result.
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roleplay-coach-go/internal/config"
	"roleplay-coach-go/internal/extractor"
	"roleplay-coach-go/internal/llm"
	"roleplay-coach-go/internal/logger"
	"roleplay-coach-go/internal/prompts"
	"roleplay-coach-go/internal/sanitize"
	"roleplay-coach-go/internal/transcript"
	"roleplay-coach-go/internal/types"
)

const (
	gradeTailChars     = 4500
	checklistTailChars = 6500
	gradeMaxTokens     = 360
	checklistMaxTokens = 900
	emptyTranscript    = "(empty transcript)"
	setupHint          = "Set OPENAI_API_KEY and restart the server."
)

type Config struct {
	Model   string
	Timeout time.Duration
}

func ConfigFrom(c config.Config) Config {
	return Config{Model: c.GraderModel, Timeout: c.GradeTimeout}
}

// CallMeta is optional context appended to the checklist prompt.
type CallMeta struct {
	CustomerType string
	EmotionLevel *int
}

type Evaluator struct {
	client llm.Client
	cfg    Config
	log    *logger.Logger
}

// New returns an evaluator. A nil client yields the not-configured results.
func New(client llm.Client, cfg Config) *Evaluator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Evaluator{client: client, cfg: cfg, log: logger.Component("evaluation")}
}

// Configured reports whether a backend is wired.
func (e *Evaluator) Configured() bool { return e.client != nil }

// Grade scores an exam call.
func (e *Evaluator) Grade(ctx context.Context, t string) types.ExamGrade {
	if e.client == nil {
		return types.ExamGrade{
			Summary:      "Missing OPENAI_API_KEY",
			Strengths:    []string{},
			Improvements: []string{setupHint},
		}
	}

	text, err := e.generate(ctx, llm.Request{
		Purpose:         llm.PurposeGrade,
		System:          prompts.GraderRubric(),
		User:            payload(t, gradeTailChars),
		Model:           e.cfg.Model,
		MaxOutputTokens: gradeMaxTokens,
	})
	if err != nil {
		return sanitize.ExamGradeUnparsed()
	}
	obj, ok := extractor.FirstObject(text)
	if !ok {
		e.log.WithField("raw", logger.Clip(text, 800)).Warn("grader output had no JSON object")
		return sanitize.ExamGradeUnparsed()
	}
	e.diagnose(sanitize.KindExam, obj)
	return sanitize.ExamGrade(obj)
}

// Checklist evaluates a training call against the call-structure checklist.
func (e *Evaluator) Checklist(ctx context.Context, t string, meta CallMeta) types.ChecklistReport {
	if e.client == nil {
		return types.ChecklistReport{
			Items:        []types.ChecklistItem{},
			Highlights:   []string{},
			Improvements: []string{setupHint},
			NextTimeSay:  []string{},
		}
	}

	text, err := e.generate(ctx, llm.Request{
		Purpose:         llm.PurposeChecklist,
		System:          prompts.ChecklistSystem(),
		User:            payload(t, checklistTailChars) + meta.suffix(),
		Model:           e.cfg.Model,
		MaxOutputTokens: checklistMaxTokens,
	})
	if err != nil {
		return sanitize.ChecklistUnparsed()
	}
	obj, ok := extractor.FirstObject(text)
	if !ok {
		e.log.WithField("raw", logger.Clip(text, 1200)).Warn("checklist output had no JSON object")
		return sanitize.ChecklistUnparsed()
	}
	e.diagnose(sanitize.KindChecklist, obj)
	return sanitize.Checklist(obj)
}

func (e *Evaluator) generate(ctx context.Context, req llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	raw, err := e.client.Generate(ctx, req)
	if err != nil {
		e.log.WithError(err).WithField("purpose", req.Purpose).Error("backend call failed")
		return "", fmt.Errorf("%s: %w", req.Purpose, err)
	}
	return extractor.ResponseText(raw), nil
}

func (e *Evaluator) diagnose(kind sanitize.Kind, obj map[string]any) {
	if problems := sanitize.Diagnose(kind, obj); len(problems) > 0 {
		e.log.WithField("kind", string(kind)).WithField("problems", problems).Debug("output deviates from contract")
	}
}

func payload(t string, n int) string {
	p := strings.TrimSpace(transcript.Tail(t, n))
	if p == "" {
		return emptyTranscript
	}
	return p
}

func (m CallMeta) suffix() string {
	var parts []string
	if m.CustomerType != "" {
		parts = append(parts, "customer_type="+m.CustomerType)
	}
	if m.EmotionLevel != nil {
		parts = append(parts, fmt.Sprintf("emotion_level=%d", *m.EmotionLevel))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\nMeta: " + strings.Join(parts, ", ")
}
