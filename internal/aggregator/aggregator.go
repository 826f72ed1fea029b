package aggregator

import (
	"sort"

	"roleplay-coach-go/internal/types"
)

// LevelStats summarizes graded exams at one difficulty level.
type LevelStats struct {
	Exams    int     `json:"exams"`
	Passed   int     `json:"passed"`
	PassRate float64 `json:"pass_rate"`
	AvgScore float64 `json:"avg_score"`
}

// ItemStats counts how often a checklist item was missed or only partly done.
type ItemStats struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Missing    int     `json:"missing"`
	Partial    int     `json:"partial"`
	MissedRate float64 `json:"missed_rate"`
}

type Insight struct {
	TotalAttempts     int                   `json:"total_attempts"`
	ByMode            map[string]int        `json:"by_mode"`
	ByLevel           map[string]LevelStats `json:"by_level"`
	Checklists        int                   `json:"checklists"`
	AvgChecklistScore float64               `json:"avg_checklist_score"`
	Items             []ItemStats           `json:"items"`
}

func Aggregate(attempts []types.Attempt) Insight {
	modes := map[string]int{}
	exams := map[string]int{}
	passed := map[string]int{}
	scoreSum := map[string]int{}

	checklists := 0
	checklistSum := 0
	items := map[string]*ItemStats{}

	for _, a := range attempts {
		modes[a.Mode]++
		if a.Mode == types.ModeExam && a.Score != nil {
			exams[a.Level]++
			scoreSum[a.Level] += *a.Score
			if a.Passed != nil && *a.Passed {
				passed[a.Level]++
			}
		}
		if a.Checklist == nil {
			continue
		}
		checklists++
		checklistSum += a.Checklist.ChecklistScore
		for _, it := range a.Checklist.Items {
			st, ok := items[it.ID]
			if !ok {
				st = &ItemStats{ID: it.ID, Title: it.Title}
				items[it.ID] = st
			}
			switch it.Status {
			case types.StatusMissing:
				st.Missing++
			case types.StatusPartial:
				st.Partial++
			}
		}
	}

	byLevel := map[string]LevelStats{}
	for lvl, n := range exams {
		if n == 0 {
			continue
		}
		byLevel[lvl] = LevelStats{
			Exams:    n,
			Passed:   passed[lvl],
			PassRate: float64(passed[lvl]) / float64(n),
			AvgScore: float64(scoreSum[lvl]) / float64(n),
		}
	}

	ins := Insight{
		TotalAttempts: len(attempts),
		ByMode:        modes,
		ByLevel:       byLevel,
		Checklists:    checklists,
		Items:         make([]ItemStats, 0, len(items)),
	}
	if checklists > 0 {
		ins.AvgChecklistScore = float64(checklistSum) / float64(checklists)
	}
	for _, st := range items {
		if checklists > 0 {
			st.MissedRate = float64(st.Missing) / float64(checklists)
		}
		ins.Items = append(ins.Items, *st)
	}
	// most missed first, id as tie-break for stable output
	sort.Slice(ins.Items, func(i, j int) bool {
		if ins.Items[i].Missing != ins.Items[j].Missing {
			return ins.Items[i].Missing > ins.Items[j].Missing
		}
		return ins.Items[i].ID < ins.Items[j].ID
	})
	return ins
}
