package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roleplay-coach-go/internal/types"
)

func TestSystemPrompts(t *testing.T) {
	assert.Contains(t, CoachSystem(), "max 16 words")
	assert.Contains(t, GraderRubric(), "PASS if score >= 70")
	assert.Contains(t, ChecklistSystem(), `"next_time_say"`)
	assert.Equal(t, strings.TrimSpace(CoachSystem()), CoachSystem())
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	easy := c.ForLevel("easy")
	require.Len(t, easy, 3)
	assert.Equal(t, "easy_invoice", easy[0].ID)
	assert.Equal(t, types.LevelEasy, easy[0].Level)

	assert.Len(t, c.ForLevel("MEDIUM"), 3)
	assert.Len(t, c.ForLevel("hard"), 2)
	assert.Equal(t, easy, c.ForLevel("bogus"), "unknown level falls back to easy")
}

func TestCatalog_ForLevelReturnsCopy(t *testing.T) {
	c := Default()
	list := c.ForLevel("easy")
	list[0].ID = "mutated"
	assert.Equal(t, "easy_invoice", c.ForLevel("easy")[0].ID)
}

func TestCatalog_GetFallsBackToPick(t *testing.T) {
	c := Default()
	c.intn = func(n int) int { return n - 1 }

	assert.Equal(t, "hard_unfair_charge", c.Get("hard", "hard_unfair_charge").ID)
	assert.Equal(t, "hard_bad_service", c.Get("hard", "missing").ID)
	// ids are looked up within the level only
	assert.Equal(t, "easy_password_reset", c.Get("easy", "hard_unfair_charge").ID)
}

func TestCatalog_CustomerInstructions(t *testing.T) {
	c := Default()
	got := c.CustomerInstructions("hard", "hard_bad_service")

	parts := strings.Split(got, "\n\n")
	require.GreaterOrEqual(t, len(parts), 3)
	assert.True(t, strings.HasPrefix(got, "STRICT ROLE LOCK"))
	assert.Contains(t, got, "TONE: HARD")
	assert.Contains(t, got, "SITUATION: Bad service")
	assert.NotContains(t, got, "TONE: EASY")

	c.intn = func(int) int { return 0 }
	assert.Contains(t, c.CustomerInstructions("nope", ""), "SITUATION: Invoice copy")
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	doc := `
customer_base: You are the customer.
tone:
  easy: Be calm.
levels:
  easy:
    - id: only
      title: Only one
      prompt: "SITUATION: test"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "You are the customer.\n\nBe calm.\n\nSITUATION: test", c.CustomerInstructions("medium", ""))
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"no base":      "levels:\n  easy:\n    - {id: a, title: A, prompt: p}\n",
		"no easy":      "customer_base: x\nlevels:\n  hard:\n    - {id: a, title: A, prompt: p}\n",
		"bad level":    "customer_base: x\nlevels:\n  extreme:\n    - {id: a, title: A, prompt: p}\n",
		"duplicate id": "customer_base: x\nlevels:\n  easy:\n    - {id: a, title: A, prompt: p}\n    - {id: a, title: B, prompt: q}\n",
		"no prompt":    "customer_base: x\nlevels:\n  easy:\n    - {id: a, title: A}\n",
		"not yaml":     "customer_base: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "medium", NormalizeLevel(" Medium "))
	assert.Equal(t, "easy", NormalizeLevel(""))
	assert.Equal(t, "easy", NormalizeLevel("expert"))
}
