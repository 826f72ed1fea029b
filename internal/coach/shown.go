package coach

import (
	"sync"
	"time"

	"roleplay-coach-go/internal/sanitize"
	"roleplay-coach-go/internal/types"
)

// sessionTTL is how long an idle session's history is kept once the map
// passes pruneAt.
const sessionTTL = 30 * time.Minute

// Shown remembers, per session, which tips and checklist tags the trainee has
// already seen so the host can drop exact repeats.
type Shown struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]*seen
}

type seen struct {
	tips map[string]bool
	tags map[string]bool
	last time.Time
}

func NewShown() *Shown {
	return &Shown{now: time.Now, sessions: map[string]*seen{}}
}

// Filter passes a fired decision through once. A tip already shown, or a
// checklist tag already covered, comes back suppressed as repeat. Decisions
// that did not fire, and calls without a session id, are returned unchanged.
func (s *Shown) Filter(sessionID string, d types.CoachDecision) types.CoachDecision {
	if !d.ShouldIntervene || sessionID == "" {
		return d
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &seen{tips: map[string]bool{}, tags: map[string]bool{}}
		s.sessions[sessionID] = st
		s.prune(now)
	}
	st.last = now

	tagged := sanitize.IsReasonTag(d.ReasonTag)
	if st.tips[d.Tip] || (tagged && st.tags[d.ReasonTag]) {
		return types.Suppressed(sanitize.TagRepeat)
	}
	st.tips[d.Tip] = true
	if tagged {
		st.tags[d.ReasonTag] = true
	}
	return d
}

// prune drops sessions idle for sessionTTL. Caller holds mu.
func (s *Shown) prune(now time.Time) {
	if len(s.sessions) <= pruneAt {
		return
	}
	for id, st := range s.sessions {
		if !st.last.IsZero() && now.Sub(st.last) >= sessionTTL {
			delete(s.sessions, id)
		}
	}
}

// Reset forgets a session.
func (s *Shown) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
