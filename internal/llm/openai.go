package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAI calls the Responses API. No response_format is sent; the extraction
// layer copes with whatever text comes back.
type OpenAI struct {
	client oai.Client
}

type openAIConfig struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for OpenAI.
type Option func(*openAIConfig)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *openAIConfig) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout on top of the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *openAIConfig) {
		c.timeout = d
	}
}

// NewOpenAI constructs a Responses API client.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	cfg := &openAIConfig{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// one backend call per invocation
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	return &OpenAI{client: oai.NewClient(reqOpts...)}, nil
}

// Generate implements Client. The returned value is the SDK's *responses.Response.
func (p *OpenAI) Generate(ctx context.Context, req Request) (any, error) {
	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(req.Model),
		Instructions: oai.String(req.System),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: oai.String(req.User),
		},
	}
	if req.MaxOutputTokens > 0 {
		params.MaxOutputTokens = oai.Int(int64(req.MaxOutputTokens))
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: responses.create: %w", err)
	}
	return resp, nil
}
