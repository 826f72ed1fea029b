package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roleplay-coach-go/internal/types"
)

// ErrNotFound is returned when an attempt id does not exist.
var ErrNotFound = errors.New("attempt not found")

const timeLayout = "2006-01-02T15:04:05Z"

// DefaultListLimit caps admin listings when the caller passes no limit.
const DefaultListLimit = 300

// Save inserts a and returns its id. A zero CreatedAt is stamped with now (UTC).
func (s *Store) Save(ctx context.Context, a *types.Attempt) (int64, error) {
	if a.UserEmail == "" || a.Mode == "" {
		return 0, fmt.Errorf("save attempt: user_email and mode are required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if a.Level == "" {
		a.Level = types.LevelEasy
	}

	strengths, err := jsonText(a.Strengths)
	if err != nil {
		return 0, fmt.Errorf("save attempt: %w", err)
	}
	improvements, err := jsonText(a.Improvements)
	if err != nil {
		return 0, fmt.Errorf("save attempt: %w", err)
	}
	var checklist sql.NullString
	if a.Checklist != nil {
		b, err := json.Marshal(a.Checklist)
		if err != nil {
			return 0, fmt.Errorf("save attempt: encode checklist: %w", err)
		}
		checklist = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (
			created_at, user_email, mode, level, transcript,
			score, passed, summary, strengths, improvements,
			checklist_score, checklist_json, customer_type, emotion_level
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CreatedAt.UTC().Format(timeLayout), a.UserEmail, a.Mode, a.Level, a.Transcript,
		nullInt(a.Score), nullBool(a.Passed), a.Summary, strengths, improvements,
		nullInt(a.ChecklistScore), checklist, a.CustomerType, nullInt(a.EmotionLevel),
	)
	if err != nil {
		return 0, fmt.Errorf("save attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save attempt: %w", err)
	}
	a.ID = id
	return id, nil
}

// List returns the newest attempts without transcripts or checklist bodies.
func (s *Store) List(ctx context.Context, limit int) ([]types.Attempt, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, user_email, mode, level, score, passed, checklist_score
		FROM attempts
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := []types.Attempt{}
	for rows.Next() {
		var (
			a         types.Attempt
			createdAt string
			score     sql.NullInt64
			passed    sql.NullInt64
			checklist sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &createdAt, &a.UserEmail, &a.Mode, &a.Level, &score, &passed, &checklist); err != nil {
			return nil, fmt.Errorf("list attempts: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		a.Score = intPtr(score)
		a.Passed = boolPtr(passed)
		a.ChecklistScore = intPtr(checklist)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return out, nil
}

const fullColumns = `id, created_at, user_email, mode, level, transcript,
	score, passed, summary, strengths, improvements,
	checklist_score, checklist_json, customer_type, emotion_level`

// Get returns one attempt with every stored field.
func (s *Store) Get(ctx context.Context, id int64) (*types.Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fullColumns+` FROM attempts WHERE id = ?`, id)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt %d: %w", id, err)
	}
	return a, nil
}

// All returns every attempt, oldest first, for exports and insights.
func (s *Store) All(ctx context.Context) ([]types.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+fullColumns+` FROM attempts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("all attempts: %w", err)
	}
	defer rows.Close()

	out := []types.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("all attempts: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all attempts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row scanner) (*types.Attempt, error) {
	var (
		a            types.Attempt
		createdAt    string
		score        sql.NullInt64
		passed       sql.NullInt64
		summary      sql.NullString
		strengths    sql.NullString
		improvements sql.NullString
		checkScore   sql.NullInt64
		checkJSON    sql.NullString
		customerType sql.NullString
		emotion      sql.NullInt64
	)
	if err := row.Scan(&a.ID, &createdAt, &a.UserEmail, &a.Mode, &a.Level, &a.Transcript,
		&score, &passed, &summary, &strengths, &improvements,
		&checkScore, &checkJSON, &customerType, &emotion); err != nil {
		return nil, err
	}

	a.CreatedAt = parseTime(createdAt)
	a.Score = intPtr(score)
	a.Passed = boolPtr(passed)
	a.Summary = summary.String
	a.Strengths = stringList(strengths)
	a.Improvements = stringList(improvements)
	a.ChecklistScore = intPtr(checkScore)
	a.CustomerType = customerType.String
	a.EmotionLevel = intPtr(emotion)
	if checkJSON.Valid && checkJSON.String != "" {
		var r types.ChecklistReport
		// a corrupt report body is dropped rather than failing the whole row
		if json.Unmarshal([]byte(checkJSON.String), &r) == nil {
			a.Checklist = &r
		}
	}
	return &a, nil
}

func jsonText(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func stringList(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullBool(p *bool) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	if *p {
		return sql.NullInt64{Int64: 1, Valid: true}
	}
	return sql.NullInt64{Int64: 0, Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func boolPtr(n sql.NullInt64) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Int64 != 0
	return &v
}
