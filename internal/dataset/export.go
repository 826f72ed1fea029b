package dataset

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"roleplay-coach-go/internal/types"
)

const (
	attemptsSheet = "Attempts"
	resultsSheet  = "Results"
)

// GradedCall is one batch-graded practice call.
type GradedCall struct {
	Call      types.PracticeCall
	Grade     types.ExamGrade
	Checklist types.ChecklistReport
}

var attemptHeader = []any{
	"id", "created_at", "user_email", "mode", "level",
	"score", "passed", "checklist_score", "customer_type", "emotion_level",
	"summary", "improvements", "missed_items",
}

var resultHeader = []any{
	"row", "id", "level", "score", "pass", "summary",
	"strengths", "improvements", "checklist_score", "missed_items", "next_time_say",
}

// WriteAttempts renders attempts as a one-sheet workbook.
func WriteAttempts(w io.Writer, attempts []types.Attempt) error {
	rows := make([][]any, 0, len(attempts))
	for _, a := range attempts {
		var missed []string
		if a.Checklist != nil {
			missed = missedItems(*a.Checklist)
		}
		rows = append(rows, []any{
			a.ID, a.CreatedAt.UTC().Format(time.RFC3339), a.UserEmail, a.Mode, a.Level,
			optional(a.Score), optional(a.Passed), optional(a.ChecklistScore), a.CustomerType, optional(a.EmotionLevel),
			a.Summary, strings.Join(a.Improvements, "; "), strings.Join(missed, ", "),
		})
	}
	return writeSheet(w, attemptsSheet, attemptHeader, rows)
}

// WriteResults renders batch grading results.
func WriteResults(w io.Writer, results []GradedCall) error {
	rows := make([][]any, 0, len(results))
	for _, r := range results {
		rows = append(rows, []any{
			r.Call.Row, r.Call.ID, r.Call.Level, r.Grade.Score, r.Grade.Pass, r.Grade.Summary,
			strings.Join(r.Grade.Strengths, "; "), strings.Join(r.Grade.Improvements, "; "),
			r.Checklist.ChecklistScore, strings.Join(missedItems(r.Checklist), ", "),
			strings.Join(r.Checklist.NextTimeSay, " | "),
		})
	}
	return writeSheet(w, resultsSheet, resultHeader, rows)
}

func writeSheet(w io.Writer, sheet string, header []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func missedItems(r types.ChecklistReport) []string {
	var out []string
	for _, it := range r.Items {
		if it.Status == types.StatusMissing {
			out = append(out, it.ID)
		}
	}
	return out
}

// optional renders a nullable value as an empty cell.
func optional[T any](p *T) any {
	if p == nil {
		return ""
	}
	return *p
}
