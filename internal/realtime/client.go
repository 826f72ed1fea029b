// Package realtime relays a browser WebRTC SDP offer to the OpenAI Realtime
// calls endpoint and returns the SDP answer.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"roleplay-coach-go/internal/config"
	"roleplay-coach-go/internal/logger"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	callsPath      = "/v1/realtime/calls"
)

var (
	ErrNotConfigured = errors.New("realtime: missing OPENAI_API_KEY")
	ErrEmptyOffer    = errors.New("realtime: empty SDP offer")
	ErrBadOffer      = errors.New("realtime: SDP offer must start with v=0")
)

// StatusError is a non-success answer from the calls endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("realtime: status %d: %s", e.Code, e.Body)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	ASRModel    string
	ASRLanguage string
	Voice       string
	MaxElapsed  time.Duration
}

func ConfigFrom(c config.Config) Config {
	base := c.OpenAIBaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return Config{
		APIKey:      c.OpenAIAPIKey,
		BaseURL:     base,
		Model:       c.RealtimeModel,
		ASRModel:    c.ASRModel,
		ASRLanguage: c.ASRLanguage,
		Voice:       c.Voice,
	}
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	log        *logger.Logger
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 20 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger.Component("realtime"),
	}
	c.newBackOff = func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = c.cfg.MaxElapsed
		return bo
	}
	return c
}

type transcription struct {
	Model    string `json:"model"`
	Language string `json:"language,omitempty"`
}

type session struct {
	Type         string `json:"type"`
	Model        string `json:"model"`
	Instructions string `json:"instructions"`
	Audio        struct {
		Input struct {
			Transcription transcription `json:"transcription"`
		} `json:"input"`
		Output struct {
			Voice string `json:"voice"`
		} `json:"output"`
	} `json:"audio"`
}

func (c *Client) session(instructions string) session {
	var s session
	s.Type = "realtime"
	s.Model = c.cfg.Model
	s.Instructions = instructions
	s.Audio.Input.Transcription = transcription{Model: c.cfg.ASRModel, Language: c.cfg.ASRLanguage}
	s.Audio.Output.Voice = c.cfg.Voice
	return s
}

// AnswerSDP posts offer and the session config, returning the SDP answer.
// Server errors and network failures are retried with exponential backoff;
// client errors are returned at once.
func (c *Client) AnswerSDP(ctx context.Context, offer, instructions string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	if offer == "" {
		return "", ErrEmptyOffer
	}
	if !strings.HasPrefix(offer, "v=0") {
		return "", fmt.Errorf("%w: first 80 chars %q", ErrBadOffer, logger.Clip(offer, 80))
	}
	if !strings.HasSuffix(offer, "\n") {
		offer += "\n"
	}

	sessionJSON, err := json.Marshal(c.session(instructions))
	if err != nil {
		return "", fmt.Errorf("realtime: encode session: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + callsPath

	var answer string
	attempt := 0
	operation := func() error {
		attempt++
		body, contentType, err := multipartBody(offer, sessionJSON)
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("realtime: request: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("realtime: read body: %w", err)
		}
		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			answer = string(raw)
			return nil
		case resp.StatusCode >= 500:
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		default:
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))})
		}
	}

	notify := func(err error, wait time.Duration) {
		c.log.WithError(err).WithField("attempt", attempt).WithField("retry_in", wait.String()).
			Warn("realtime call failed, retrying")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return "", err
	}
	c.log.WithField("attempts", attempt).Info("realtime session answered")
	return answer, nil
}

func multipartBody(offer string, sessionJSON []byte) (io.Reader, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if err := writePart(w, "sdp", "application/sdp", []byte(offer)); err != nil {
		return nil, "", err
	}
	if err := writePart(w, "session", "application/json", sessionJSON); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("realtime: close multipart: %w", err)
	}
	return &b, w.FormDataContentType(), nil
}

func writePart(w *multipart.Writer, name, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, name))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("realtime: create %s part: %w", name, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("realtime: write %s part: %w", name, err)
	}
	return nil
}
