package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/runner"
)

func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	source := domain.PatternSource(r.URL.Query().Get("source"))

	goals, err := h.svc.ListGoals(r.Context(), source)
	if err != nil {
		respondError(w, err)
		return
	}
	if goals == nil {
		goals = []domain.BreathingGoal{}
	}
	respondJSON(w, goals, http.StatusOK)
}

func (h *Handler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := domain.PatternSource(q.Get("source"))

	patterns, err := h.svc.ListPatterns(r.Context(), source, q.Get("goal"))
	if err != nil {
		respondError(w, err)
		return
	}
	if patterns == nil {
		patterns = []domain.BreathingPattern{}
	}
	respondJSON(w, patterns, http.StatusOK)
}

type startSessionRequest struct {
	Pattern domain.PatternRef `json:"pattern"`
	Step    int               `json:"step"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	sess, err := h.svc.StartBreathing(r.Context(), userID(r), req.Pattern, req.Step)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, sess, http.StatusCreated)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.BreathingSession(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, sess, http.StatusOK)
}

func (h *Handler) StopSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.StopBreathing(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, sess, http.StatusOK)
}

func phaseEventName(ev runner.PhaseEvent) string {
	return string(ev.Type)
}
