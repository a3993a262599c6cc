package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/notify"
	"github.com/hperssn/panicbutton/internal/runner"
)

func (h *Handler) BoltState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.svc.BoltState(userID(r)), http.StatusOK)
}

// BoltAction applies the named transition to the caller's BOLT flow.
func (h *Handler) BoltAction(w http.ResponseWriter, r *http.Request) {
	ops := map[string]func(string) (runner.BoltSnapshot, error){
		"begin":   h.svc.BeginBolt,
		"advance": h.svc.AdvanceBolt,
		"test":    h.svc.StartBoltTest,
		"stop":    h.svc.StopBolt,
		"retry":   h.svc.RetryBolt,
		"discard": h.svc.DiscardBolt,
	}

	op, ok := ops[chi.URLParam(r, "action")]
	if !ok {
		respondMessage(w, "unknown bolt action", http.StatusNotFound)
		return
	}

	snap, err := op(userID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, snap, http.StatusOK)
}

type saveBoltResponse struct {
	Score        *domain.BoltScore   `json:"score"`
	Notification notify.Notification `json:"notification"`
}

func (h *Handler) SaveBolt(w http.ResponseWriter, r *http.Request) {
	score, n, err := h.svc.SaveBolt(r.Context(), userID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, saveBoltResponse{Score: score, Notification: n}, http.StatusCreated)
}

func (h *Handler) BoltScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.svc.BoltScores(r.Context(), userID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	if scores == nil {
		scores = []domain.BoltScore{}
	}
	respondJSON(w, scores, http.StatusOK)
}

func boltEventName(s runner.BoltSnapshot) string {
	return string(s.Mode)
}
