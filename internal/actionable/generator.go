package actionable

import (
	"fmt"
	"sort"

	"roleplay-coach-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

const (
	missedRateAlert = 0.35
	passRateAlert   = 0.5
	minSample       = 3
)

// Generate turns aggregated attempts into one recommendation for trainers.
// A frequently missed checklist step wins over a weak exam level.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.Checklists >= minSample && len(ins.Items) > 0 {
		worst := ins.Items[0]
		for _, it := range ins.Items[1:] {
			if it.MissedRate > worst.MissedRate {
				worst = it
			}
		}
		if worst.MissedRate >= missedRateAlert {
			title := worst.Title
			if title == "" {
				title = worst.ID
			}
			return ActionCard{
				Insight: fmt.Sprintf("%q is missed in %.0f%% of training calls", title, worst.MissedRate*100),
				Action:  fmt.Sprintf("Run a focused drill on %s; add it to the coach briefing before the next cohort", title),
				Impact:  "Fewer missed steps and higher checklist scores",
			}
		}
	}

	levels := make([]string, 0, len(ins.ByLevel))
	for lvl := range ins.ByLevel {
		levels = append(levels, lvl)
	}
	sort.Strings(levels)

	weakest := ""
	lowest := 1.0
	for _, lvl := range levels {
		st := ins.ByLevel[lvl]
		if st.Exams < minSample {
			continue
		}
		if st.PassRate < lowest {
			lowest = st.PassRate
			weakest = lvl
		}
	}
	if weakest != "" && lowest < passRateAlert {
		return ActionCard{
			Insight: fmt.Sprintf("Low exam pass rate on %s scenarios (%.0f%%)", weakest, lowest*100),
			Action:  fmt.Sprintf("Schedule more %s training calls before the next exam", weakest),
			Impact:  "Raise pass rate and trainee confidence",
		}
	}

	return ActionCard{
		Insight: "No strong weakness pattern detected",
		Action:  "Monitor and collect more attempts",
		Impact:  "Low immediate intervention",
	}
}
