// Package api is the HTTP host around the coaching and grading core.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"roleplay-coach-go/internal/coach"
	"roleplay-coach-go/internal/evaluation"
	"roleplay-coach-go/internal/logger"
	"roleplay-coach-go/internal/prompts"
	"roleplay-coach-go/internal/storage"
)

// SDPAnswerer relays a WebRTC offer to the realtime backend.
type SDPAnswerer interface {
	AnswerSDP(ctx context.Context, offer, instructions string) (string, error)
}

// Deps are the collaborators the handlers need. Relay may be nil when no
// OpenAI key is configured; /session then answers 503.
type Deps struct {
	Gate      *coach.Gate
	Evaluator *evaluation.Evaluator
	Store     *storage.Store
	Catalog   *prompts.Catalog
	Relay     SDPAnswerer
}

type Server struct {
	gate    *coach.Gate
	shown   *coach.Shown
	eval    *evaluation.Evaluator
	store   *storage.Store
	catalog *prompts.Catalog
	relay   SDPAnswerer
}

func New(d Deps) *Server {
	cat := d.Catalog
	if cat == nil {
		cat = prompts.Default()
	}
	return &Server{
		gate:    d.Gate,
		shown:   coach.NewShown(),
		eval:    d.Evaluator,
		store:   d.Store,
		catalog: cat,
		relay:   d.Relay,
	}
}

// Handler returns the routed mux wrapped with request-id handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/scenarios", s.handleScenarios)
	mux.HandleFunc("POST /session", s.handleSession)
	mux.HandleFunc("POST /coach", s.handleCoach)
	mux.HandleFunc("POST /aftercall", s.handleAftercall)
	mux.HandleFunc("POST /grade", s.handleGrade)

	mux.HandleFunc("GET /admin/api/attempts", s.handleAttempts)
	mux.HandleFunc("GET /admin/api/attempt/{id}", s.handleAttempt)
	mux.HandleFunc("GET /admin/api/insights", s.handleInsights)
	mux.HandleFunc("GET /admin/api/attempts.xlsx", s.handleExport)

	return withRequestID(mux)
}

type ctxKey struct{}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logger.RequestID(r)
		w.Header().Set(logger.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func reqLog(r *http.Request, handler string) *logrus.Entry {
	l := logger.New()
	id, _ := r.Context().Value(ctxKey{}).(string)
	if id == "" {
		return l.WithRequest(r).WithField("handler", handler)
	}
	return l.WithRequestID(r, id).WithField("handler", handler)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
