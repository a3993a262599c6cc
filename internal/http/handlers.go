package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/hperssn/panicbutton/internal/app"
	"github.com/hperssn/panicbutton/internal/auth"
)

// Handler holds the dependencies of the JSON endpoints.
type Handler struct {
	svc    *app.Service
	auth   *auth.Service
	logger *slog.Logger

	maxUploadBytes int64
}

func NewHandler(svc *app.Service, authSvc *auth.Service, maxUploadBytes int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 2 << 20
	}
	return &Handler{svc: svc, auth: authSvc, logger: logger, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	db := "ok"
	if err := h.svc.Ping(r.Context()); err != nil {
		status, code, db = "degraded", http.StatusServiceUnavailable, err.Error()
	}
	respondJSON(w, map[string]string{"status": status, "db": db}, code)
}
