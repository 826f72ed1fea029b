package prompts

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"roleplay-coach-go/internal/types"
)

//go:embed templates/scenarios.yaml
var defaultScenarios []byte

var levels = []string{types.LevelEasy, types.LevelMedium, types.LevelHard}

type catalogFile struct {
	CustomerBase string                      `yaml:"customer_base"`
	Tone         map[string]string           `yaml:"tone"`
	Levels       map[string][]types.Scenario `yaml:"levels"`
}

// Catalog is the immutable set of role-play scenarios, grouped by level.
type Catalog struct {
	base   string
	tone   map[string]string
	levels map[string][]types.Scenario
	intn   func(n int) int
}

// Load returns the embedded catalog, or the YAML file at path when path is set.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultScenarios)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios %s: %w", path, err)
	}
	return Parse(data)
}

// Default is the embedded catalog. It panics if the embedded file is broken.
func Default() *Catalog {
	c, err := Parse(defaultScenarios)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if strings.TrimSpace(f.CustomerBase) == "" {
		return nil, fmt.Errorf("parse scenarios: customer_base is empty")
	}

	c := &Catalog{
		base:   strings.TrimSpace(f.CustomerBase),
		tone:   map[string]string{},
		levels: map[string][]types.Scenario{},
		intn:   rand.IntN,
	}
	for lvl, t := range f.Tone {
		c.tone[strings.ToLower(lvl)] = strings.TrimSpace(t)
	}

	seen := map[string]bool{}
	for lvl, list := range f.Levels {
		lvl = strings.ToLower(strings.TrimSpace(lvl))
		if !isLevel(lvl) {
			return nil, fmt.Errorf("parse scenarios: unknown level %q", lvl)
		}
		for _, s := range list {
			if s.ID == "" || strings.TrimSpace(s.Prompt) == "" {
				return nil, fmt.Errorf("parse scenarios: %s scenario %q needs an id and a prompt", lvl, s.ID)
			}
			if seen[s.ID] {
				return nil, fmt.Errorf("parse scenarios: duplicate id %q", s.ID)
			}
			seen[s.ID] = true
			s.Level = lvl
			s.Prompt = strings.TrimSpace(s.Prompt)
			c.levels[lvl] = append(c.levels[lvl], s)
		}
	}
	if len(c.levels[types.LevelEasy]) == 0 {
		return nil, fmt.Errorf("parse scenarios: at least one easy scenario is required")
	}
	return c, nil
}

func isLevel(l string) bool {
	for _, v := range levels {
		if v == l {
			return true
		}
	}
	return false
}

// NormalizeLevel lower-cases level and falls back to easy when it is unknown.
func NormalizeLevel(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	if isLevel(l) {
		return l
	}
	return types.LevelEasy
}

func (c *Catalog) level(level string) string {
	l := NormalizeLevel(level)
	if len(c.levels[l]) == 0 {
		return types.LevelEasy
	}
	return l
}

// ForLevel lists the scenarios of level in catalog order.
func (c *Catalog) ForLevel(level string) []types.Scenario {
	src := c.levels[c.level(level)]
	out := make([]types.Scenario, len(src))
	copy(out, src)
	return out
}

// Pick returns a random scenario of level.
func (c *Catalog) Pick(level string) types.Scenario {
	list := c.levels[c.level(level)]
	return list[c.intn(len(list))]
}

// Get looks a scenario up by id within level and picks a random one when the
// id is unknown.
func (c *Catalog) Get(level, id string) types.Scenario {
	for _, s := range c.levels[c.level(level)] {
		if s.ID == id {
			return s
		}
	}
	return c.Pick(level)
}

// CustomerInstructions assembles the realtime instructions for the simulated
// customer: base rules, tone for the level, then the situation.
func (c *Catalog) CustomerInstructions(level, scenarioID string) string {
	lvl := c.level(level)
	var s types.Scenario
	if scenarioID != "" {
		s = c.Get(lvl, scenarioID)
	} else {
		s = c.Pick(lvl)
	}

	tone, ok := c.tone[lvl]
	if !ok {
		tone = c.tone[types.LevelEasy]
	}

	parts := []string{c.base}
	if tone != "" {
		parts = append(parts, tone)
	}
	parts = append(parts, s.Prompt)
	return strings.Join(parts, "\n\n")
}
