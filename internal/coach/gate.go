// Package coach decides, per polling tick, whether the live coach shows a tip.
package coach

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
	"roleplay-coach-go/internal/types"
)

const (
	maxOutputTokens = 120
	contextLines    = 14
	contextChars    = 2400
)

// Config tunes the gate.
type Config struct {
	Model      string
	Cooldown   time.Duration
	PerSession bool
	Timeout    time.Duration
}

// ConfigFrom maps service settings onto the gate.
func ConfigFrom(c config.Config) Config {
	return Config{
		Model:      c.CoachModel,
		Cooldown:   c.CoachCooldown,
		PerSession: c.CoachCooldownScope == config.ScopeSession,
		Timeout:    c.CoachTimeout,
	}
}

// Input is one coaching invocation.
type Input struct {
	SessionID  string
	Transcript string
	Meta       *types.LiveMeta
}

type Gate struct {
	client  llm.Client
	cfg     Config
	limiter Limiter
	now     func() time.Time
	log     *logger.Logger
}

type Option func(*Gate)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLimiter replaces the default cooldown limiter.
func WithLimiter(l Limiter) Option {
	return func(g *Gate) { g.limiter = l }
}

// New builds a gate. A nil client means no backend is configured; every
// decision then comes back suppressed with missing_key.
func New(client llm.Client, cfg Config, opts ...Option) *Gate {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 12 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	g := &Gate{
		client: client,
		cfg:    cfg,
		now:    time.Now,
		log:    logger.Component("coach"),
	}
	for _, o := range opts {
		o(g)
	}
	if g.limiter == nil {
		g.limiter = NewCooldown(cfg.Cooldown)
	}
	return g
}

func (g *Gate) key(sessionID string) string {
	if g.cfg.PerSession {
		return sessionID
	}
	return ""
}

// Decide runs one coaching tick. It never returns an error; the reason tag of
// a suppressed decision says why nothing fired.
func (g *Gate) Decide(ctx context.Context, in Input) types.CoachDecision {
	now := g.now()
	key := g.key(in.SessionID)
	if !g.limiter.TryAcquire(key, now) {
		return types.Suppressed(sanitize.TagCooldown)
	}

	sig := readSignals(in)
	trg := pickTrigger(sig)
	if trg.suppress != "" {
		return types.Suppressed(trg.suppress)
	}
	if g.client == nil {
		return types.Suppressed(sanitize.TagMissingKey)
	}

	log := g.log.WithField("trigger", trg.name)
	if in.SessionID != "" {
		log = log.WithField("session_id", in.SessionID)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	raw, err := g.client.Generate(callCtx, llm.Request{
		Purpose:         llm.PurposeCoach,
		System:          prompts.CoachSystem(),
		User:            userPrompt(trg, sig),
		Model:           g.cfg.Model,
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		log.WithError(err).Warn("coach backend call failed")
		return types.Suppressed(sanitize.TagError)
	}

	text := extractor.ResponseText(raw)
	obj, ok := extractor.FirstObject(text)
	if !ok {
		log.WithField("raw", logger.Clip(text, 400)).Debug("coach output had no JSON object")
		return types.Suppressed(sanitize.TagParseError)
	}
	if problems := sanitize.Diagnose(sanitize.KindCoach, obj); len(problems) > 0 {
		log.WithField("problems", problems).Debug("coach output deviates from contract")
	}

	d := sanitize.CoachTip(obj)
	if d.Tip == "" {
		return types.Suppressed(sanitize.TagEmpty)
	}

	g.limiter.RecordFired(key, now)

	d.Urgency = trg.urgency
	d.Trigger = trg.name
	if trg.step != "" && d.ReasonTag == sanitize.TagOther {
		d.ReasonTag = string(trg.step)
	}
	log.WithField("reason_tag", d.ReasonTag).Info("coach tip fired")
	return d
}

func userPrompt(trg trigger, sig signals) string {
	var b strings.Builder
	b.WriteString("Return STRICT JSON only.\n\n")
	fmt.Fprintf(&b, "Trigger: %s\n", trg.name)
	b.WriteString("Write ONE short coaching tip (max 16 words).\n\n")
	b.WriteString("Rules:\n")
	if r, ok := triggerRules[trg.name]; ok {
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("- The tip must match the last 1-2 turns.\n\n")
	b.WriteString("Recent context:\n")
	b.WriteString(sig.recentContext)
	b.WriteString("\n\nAgent last utterance:\n")
	b.WriteString(strings.TrimSpace(sig.agentLast))
	b.WriteString("\n")
	return b.String()
}
