// Package llm defines the text-generation backend the coach and graders call,
// plus the concrete backends: the OpenAI Responses API, an OpenAI-compatible
// HTTP gateway, and a deterministic mock for offline demos.
package llm

import (
	"context"
	"errors"

	"roleplay-coach-go/internal/config"
)

// Purposes let backends and logs tell calls apart.
const (
	PurposeCoach     = "coach"
	PurposeGrade     = "grade"
	PurposeChecklist = "checklist"
)

// ErrNotConfigured marks a missing backend credential.
var ErrNotConfigured = errors.New("llm backend not configured")

// Request is one system+user prompt pair.
type Request struct {
	Purpose         string
	System          string
	User            string
	Model           string
	MaxOutputTokens int
}

// Client sends a prompt pair and returns the backend's raw result. The shape
// of the result is backend specific; callers pass it to extractor.ResponseText.
type Client interface {
	Generate(ctx context.Context, req Request) (any, error)
}

// FromConfig picks the backend: mock, then gateway, then OpenAI. It returns
// ErrNotConfigured when no credential is present.
func FromConfig(cfg config.Config) (Client, error) {
	if !cfg.HasModelCredential() {
		return nil, ErrNotConfigured
	}
	switch {
	case cfg.UseMockLLM:
		return NewMock(), nil
	case cfg.LLMGatewayURL != "" && cfg.LLMAPIKey != "":
		g, err := NewGateway(cfg.LLMGatewayURL, cfg.LLMAPIKey)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		p, err := NewOpenAI(cfg.OpenAIAPIKey, openAIOptions(cfg)...)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// openAIOptions caps each HTTP request at the longest configured call timeout.
func openAIOptions(cfg config.Config) []Option {
	var opts []Option
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.OpenAIBaseURL))
	}
	if d := max(cfg.CoachTimeout, cfg.GradeTimeout); d > 0 {
		opts = append(opts, WithTimeout(d))
	}
	return opts
}
