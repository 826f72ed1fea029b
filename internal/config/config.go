// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cooldown scopes for the live coach.
const (
	ScopeGlobal  = "global"
	ScopeSession = "session"
)

// Config holds every setting the binaries read at startup.
type Config struct {
	Environment string
	Port        string
	DBPath      string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMGatewayURL string
	LLMAPIKey     string
	UseMockLLM    bool

	CoachModel    string
	GraderModel   string
	RealtimeModel string
	ASRModel      string
	ASRLanguage   string
	Voice         string

	CoachCooldown      time.Duration
	CoachCooldownScope string
	CoachTimeout       time.Duration
	GradeTimeout       time.Duration

	ScenariosPath string
}

// HasModelCredential reports whether any text-generation backend can be reached.
func (c Config) HasModelCredential() bool {
	if c.UseMockLLM {
		return true
	}
	if c.LLMGatewayURL != "" && c.LLMAPIKey != "" {
		return true
	}
	return c.OpenAIAPIKey != ""
}

// Load reads .env (if present, overriding the process env like the tooling the
// trainers run locally) and then the environment.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		_ = godotenv.Overload()
	} else {
		_ = godotenv.Overload(envFiles...)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	scope := strings.ToLower(EnvStr("COACH_COOLDOWN_SCOPE", ScopeGlobal))
	if scope != ScopeSession {
		scope = ScopeGlobal
	}
	return Config{
		Environment: EnvStr("ENVIRONMENT", "local"),
		Port:        EnvStr("PORT", "8080"),
		DBPath:      EnvStr("APP_DB_PATH", "app.db"),

		OpenAIAPIKey:  EnvStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL: EnvStr("OPENAI_BASE_URL", ""),
		LLMGatewayURL: EnvStr("LLM_GATEWAY_URL", ""),
		LLMAPIKey:     EnvStr("LLM_API_KEY", ""),
		UseMockLLM:    EnvBool("USE_MOCK_LLM", false),

		CoachModel:    EnvStr("COACH_MODEL", "gpt-4o-mini"),
		GraderModel:   EnvStr("GRADER_MODEL", "gpt-4o-mini"),
		RealtimeModel: EnvStr("REALTIME_MODEL", "gpt-realtime-mini"),
		ASRModel:      EnvStr("ASR_MODEL", "gpt-4o-mini-transcribe"),
		ASRLanguage:   EnvStr("ASR_LANGUAGE", ""),
		Voice:         EnvStr("VOICE", "marin"),

		CoachCooldown:      EnvSeconds("COACH_COOLDOWN_SEC", 12),
		CoachCooldownScope: scope,
		CoachTimeout:       EnvSeconds("COACH_TIMEOUT_SEC", 10),
		GradeTimeout:       EnvSeconds("GRADE_TIMEOUT_SEC", 45),

		ScenariosPath: EnvStr("SCENARIOS_PATH", ""),
	}
}

// EnvStr returns the named variable with surrounding whitespace, quotes and a
// UTF-8 BOM removed, or def when unset or blank.
func EnvStr(name, def string) string {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	v = strings.TrimPrefix(strings.TrimSpace(v), "\ufeff")
	v = strings.TrimSpace(strings.Trim(strings.TrimSpace(v), `"'`))
	if v == "" {
		return def
	}
	return v
}

// EnvBool accepts 1/0, true/false, yes/no, on/off.
func EnvBool(name string, def bool) bool {
	switch strings.ToLower(EnvStr(name, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// EnvSeconds parses a whole or fractional number of seconds.
func EnvSeconds(name string, def float64) time.Duration {
	secs := def
	if v := EnvStr(name, ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			secs = f
		}
	}
	return time.Duration(secs * float64(time.Second))
}
