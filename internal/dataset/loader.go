package dataset

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"roleplay-coach-go/internal/logger"
	"roleplay-coach-go/internal/types"
)

// Load reads practice calls from the first sheet of the workbook at path.
// Columns are found by header heuristics.
func Load(path string) ([]types.PracticeCall, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return readCalls(f)
}

// LoadReader is Load for an uploaded workbook.
func LoadReader(r io.Reader) ([]types.PracticeCall, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readCalls(f)
}

type columns struct {
	id, level, transcript, customerType, emotion int
}

func detectColumns(header []string) columns {
	c := columns{id: -1, level: -1, transcript: -1, customerType: -1, emotion: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || strings.Contains(l, "text") || strings.Contains(l, "conversation"):
			if c.transcript == -1 {
				c.transcript = i
			}
		case strings.Contains(l, "customer") && strings.Contains(l, "type") || l == "persona":
			if c.customerType == -1 {
				c.customerType = i
			}
		case strings.Contains(l, "emotion"):
			if c.emotion == -1 {
				c.emotion = i
			}
		case strings.Contains(l, "level") || strings.Contains(l, "difficulty"):
			if c.level == -1 {
				c.level = i
			}
		case l == "id" || strings.Contains(l, "call id") || strings.Contains(l, "callid"):
			if c.id == -1 {
				c.id = i
			}
		}
	}
	return c
}

func cell(r []string, idx int) string {
	if idx >= 0 && idx < len(r) {
		return strings.TrimSpace(r[idx])
	}
	return ""
}

func readCalls(f *excelize.File) ([]types.PracticeCall, error) {
	log := logger.Component("dataset.loader")

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.transcript == -1 {
		return nil, fmt.Errorf("no transcript column in header %q", rows[0])
	}
	log.WithField("columns", fmt.Sprintf("%+v", cols)).Debug("detected practice columns")

	var out []types.PracticeCall
	skipped := 0
	for i, r := range rows {
		if i == 0 {
			continue
		}
		call := types.PracticeCall{
			Row:          i + 1,
			ID:           cell(r, cols.id),
			Level:        strings.ToLower(cell(r, cols.level)),
			CustomerType: cell(r, cols.customerType),
			Transcript:   strings.ReplaceAll(cell(r, cols.transcript), "\r\n", "\n"),
		}
		if call.ID == "" {
			call.ID = strconv.Itoa(call.Row)
		}
		if call.Level == "" {
			call.Level = types.LevelEasy
		}
		if v := cell(r, cols.emotion); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				call.EmotionLevel = &n
			}
		}
		// rows without a transcript are skipped quietly
		if call.Transcript == "" {
			skipped++
			continue
		}
		out = append(out, call)
	}
	if skipped > 0 {
		log.WithField("skipped", skipped).Info("skipped rows without transcript")
	}
	return out, nil
}
