package dataset

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"roleplay-coach-go/internal/logger"
	"roleplay-coach-go/internal/types"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &r))
	}
	path := filepath.Join(t.TempDir(), "practice.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Call ID", "Difficulty", "Customer Type", "Emotion Level", "Transcript"},
		{"c-1", "Hard", "angry", "4", "AGENT: hi\r\nCUSTOMER: you charged me"},
		{"", "", "", "x", "AGENT: hello"},
		{"c-3", "easy", "", "", ""},
	})

	calls, err := Load(path)
	require.NoError(t, err)
	require.Len(t, calls, 2)

	assert.Equal(t, "c-1", calls[0].ID)
	assert.Equal(t, "hard", calls[0].Level)
	assert.Equal(t, "angry", calls[0].CustomerType)
	require.NotNil(t, calls[0].EmotionLevel)
	assert.Equal(t, 4, *calls[0].EmotionLevel)
	assert.Equal(t, "AGENT: hi\nCUSTOMER: you charged me", calls[0].Transcript)
	assert.Equal(t, 2, calls[0].Row)

	assert.Equal(t, "3", calls[1].ID, "row number stands in for a missing id")
	assert.Equal(t, types.LevelEasy, calls[1].Level)
	assert.Nil(t, calls[1].EmotionLevel)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)

	_, err = Load(writeWorkbook(t, [][]any{{"Transcript"}}))
	assert.ErrorContains(t, err, "no data rows")

	_, err = Load(writeWorkbook(t, [][]any{{"id", "level"}, {"1", "easy"}}))
	assert.ErrorContains(t, err, "no transcript column")
}

func TestWriteAttempts_RoundTrip(t *testing.T) {
	score, passed := 82, true
	attempts := []types.Attempt{
		{
			ID: 7, CreatedAt: time.Date(2025, 12, 1, 9, 30, 0, 0, time.UTC),
			UserEmail: "a@example.com", Mode: types.ModeExam, Level: "medium",
			Score: &score, Passed: &passed, Summary: "Solid",
			Improvements: []string{"recap", "timeframe"},
			Checklist: &types.ChecklistReport{Items: []types.ChecklistItem{
				{ID: "close", Status: "missing"}, {ID: "opening", Status: "done"}, {ID: "feedback", Status: "missing"},
			}},
		},
		{ID: 8, UserEmail: "b@example.com", Mode: types.ModeTraining, Level: "easy"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAttempts(&buf, attempts))

	calls, err := LoadReader(bytes.NewReader(buf.Bytes()))
	assert.ErrorContains(t, err, "no transcript column", "attempt sheets carry no transcripts")
	assert.Nil(t, calls)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{attemptsSheet}, f.GetSheetList())

	rows, err := f.GetRows(attemptsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "user_email", rows[0][2])
	assert.Equal(t, "7", rows[1][0])
	assert.Equal(t, "2025-12-01T09:30:00Z", rows[1][1])
	assert.Equal(t, "82", rows[1][5])
	assert.Equal(t, "recap; timeframe", rows[1][11])
	assert.Equal(t, "close, feedback", rows[1][12])
	assert.Equal(t, "training", rows[2][3])
}

func TestWriteResults(t *testing.T) {
	results := []GradedCall{{
		Call:      types.PracticeCall{Row: 2, ID: "c-1", Level: "hard"},
		Grade:     types.ExamGrade{Score: 64, Summary: "Needs a plan", Improvements: []string{"timeframe"}},
		Checklist: types.ChecklistReport{ChecklistScore: 55, NextTimeSay: []string{"I will call you back today.", "Anything else?"}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c-1", rows[1][1])
	assert.Equal(t, "64", rows[1][3])
	assert.Equal(t, "55", rows[1][8])
	assert.Equal(t, "I will call you back today. | Anything else?", rows[1][10])
}
