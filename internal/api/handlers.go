package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"roleplay-coach-go/internal/actionable"
	"roleplay-coach-go/internal/aggregator"
	"roleplay-coach-go/internal/coach"
	"roleplay-coach-go/internal/dataset"
	"roleplay-coach-go/internal/evaluation"
	"roleplay-coach-go/internal/prompts"
	"roleplay-coach-go/internal/realtime"
	"roleplay-coach-go/internal/storage"
	"roleplay-coach-go/internal/types"
)

const (
	maxBodyBytes     = 1 << 20
	anonymousTrainee = "trainee@local"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqLog(r, "healthz").Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	level := prompts.NormalizeLevel(r.URL.Query().Get("level"))
	writeJSON(w, http.StatusOK, map[string]any{
		"level": level,
		"items": s.catalog.ForLevel(level),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	log := reqLog(r, "session")
	if s.relay == nil {
		writeError(w, http.StatusServiceUnavailable, "Missing OPENAI_API_KEY")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	offer := strings.ToValidUTF8(string(body), "")
	if strings.TrimSpace(offer) == "" {
		writeError(w, http.StatusBadRequest, "Empty SDP offer")
		return
	}

	q := r.URL.Query()
	level := prompts.NormalizeLevel(q.Get("level"))
	scenarioID := strings.TrimSpace(q.Get("scenario_id"))
	log = log.WithField("level", level).WithField("scenario_id", scenarioID)

	start := time.Now()
	answer, err := s.relay.AnswerSDP(r.Context(), offer, s.catalog.CustomerInstructions(level, scenarioID))
	log = log.WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		log.WithError(err).Warn("sdp relay failed")
		var se *realtime.StatusError
		switch {
		case errors.Is(err, realtime.ErrEmptyOffer), errors.Is(err, realtime.ErrBadOffer):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, realtime.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.As(err, &se):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	log.Info("realtime session started")
	w.Header().Set("Content-Type", "application/sdp")
	_, _ = io.WriteString(w, answer)
}

type coachRequest struct {
	SessionID  string          `json:"session_id"`
	Transcript string          `json:"transcript"`
	Meta       *types.LiveMeta `json:"meta"`
}

func (s *Server) handleCoach(w http.ResponseWriter, r *http.Request) {
	log := reqLog(r, "coach")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	var req coachRequest
	if err := json.Unmarshal(body, &req); err != nil {
		// a non-JSON body is taken as the transcript itself
		log.WithError(err).Warn("coach body is not json, using raw text")
		req = coachRequest{Transcript: string(body)}
	}
	req.Transcript = strings.TrimSpace(req.Transcript)

	d := s.gate.Decide(r.Context(), coach.Input{
		SessionID:  req.SessionID,
		Transcript: req.Transcript,
		Meta:       req.Meta,
	})
	d = s.shown.Filter(req.SessionID, d)
	log.WithField("session_id", req.SessionID).
		WithField("fired", d.ShouldIntervene).
		WithField("reason_tag", d.ReasonTag).
		Debug("coach decision")
	writeJSON(w, http.StatusOK, d)
}

type callRequest struct {
	SessionID    string `json:"session_id"`
	UserEmail    string `json:"user_email"`
	Level        string `json:"level"`
	Transcript   string `json:"transcript"`
	CustomerType string `json:"customer_type"`
	EmotionLevel *int   `json:"emotion_level"`
}

func decodeCall(r *http.Request) (callRequest, error) {
	var req callRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return req, fmt.Errorf("decode body: %w", err)
	}
	req.Transcript = strings.TrimSpace(req.Transcript)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	if req.UserEmail == "" {
		req.UserEmail = anonymousTrainee
	}
	if req.Level == "" {
		req.Level = r.URL.Query().Get("level")
	}
	req.Level = prompts.NormalizeLevel(req.Level)
	return req, nil
}

func (req callRequest) attempt(mode string) *types.Attempt {
	return &types.Attempt{
		UserEmail:    req.UserEmail,
		Mode:         mode,
		Level:        req.Level,
		Transcript:   req.Transcript,
		CustomerType: req.CustomerType,
		EmotionLevel: req.EmotionLevel,
	}
}

func (req callRequest) meta() evaluation.CallMeta {
	return evaluation.CallMeta{CustomerType: req.CustomerType, EmotionLevel: req.EmotionLevel}
}

// handleAftercall stores a training attempt. Without a backend the attempt is
// saved bare and no checklist is returned.
func (s *Server) handleAftercall(w http.ResponseWriter, r *http.Request) {
	log := reqLog(r, "aftercall")
	req, err := decodeCall(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID != "" {
		s.shown.Reset(req.SessionID)
	}

	a := req.attempt(types.ModeTraining)
	var report *types.ChecklistReport
	if s.eval.Configured() {
		rep := s.eval.Checklist(r.Context(), req.Transcript, req.meta())
		report = &rep
		a.Checklist = report
		a.ChecklistScore = &rep.ChecklistScore
	}

	id, err := s.store.Save(r.Context(), a)
	if err != nil {
		log.WithError(err).Error("save training attempt")
		writeError(w, http.StatusInternalServerError, "could not save attempt")
		return
	}
	log.WithField("attempt_id", id).Info("training attempt saved")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "attempt_id": id, "checklist": report})
}

// handleGrade grades an exam call and scores its checklist in parallel.
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	log := reqLog(r, "grade")
	if !s.eval.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Missing OPENAI_API_KEY")
		return
	}
	req, err := decodeCall(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID != "" {
		s.shown.Reset(req.SessionID)
	}

	var (
		grade  types.ExamGrade
		report types.ChecklistReport
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		grade = s.eval.Grade(ctx, req.Transcript)
		return nil
	})
	g.Go(func() error {
		report = s.eval.Checklist(ctx, req.Transcript, req.meta())
		return nil
	})
	_ = g.Wait()

	a := req.attempt(types.ModeExam)
	a.Score = &grade.Score
	a.Passed = &grade.Pass
	a.Summary = grade.Summary
	a.Strengths = grade.Strengths
	a.Improvements = grade.Improvements
	a.Checklist = &report
	a.ChecklistScore = &report.ChecklistScore

	id, err := s.store.Save(r.Context(), a)
	if err != nil {
		log.WithError(err).Error("save exam attempt")
		writeError(w, http.StatusInternalServerError, "could not save attempt")
		return
	}
	log.WithField("attempt_id", id).WithField("score", grade.Score).WithField("pass", grade.Pass).
		Info("exam graded")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "attempt_id": id, "grade": grade, "checklist": report})
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	items, err := s.store.List(r.Context(), limit)
	if err != nil {
		reqLog(r, "attempts").WithError(err).Error("list attempts")
		writeError(w, http.StatusInternalServerError, "could not list attempts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "attempt id must be an integer")
		return
	}
	a, err := s.store.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		reqLog(r, "attempt").WithError(err).Error("get attempt")
		writeError(w, http.StatusInternalServerError, "could not load attempt")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.All(r.Context())
	if err != nil {
		reqLog(r, "insights").WithError(err).Error("load attempts")
		writeError(w, http.StatusInternalServerError, "could not load attempts")
		return
	}
	ins := aggregator.Aggregate(all)
	writeJSON(w, http.StatusOK, map[string]any{
		"insight": ins,
		"action":  actionable.Generate(ins),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	log := reqLog(r, "export")
	all, err := s.store.All(r.Context())
	if err != nil {
		log.WithError(err).Error("load attempts")
		writeError(w, http.StatusInternalServerError, "could not load attempts")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="attempts.xlsx"`)
	if err := dataset.WriteAttempts(w, all); err != nil {
		log.WithError(err).Error("write workbook")
		return
	}
	log.WithField("rows", len(all)).Info("attempts exported")
}
