package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hperssn/panicbutton/internal/app"
	"github.com/hperssn/panicbutton/internal/auth"
	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/notify"
	"github.com/hperssn/panicbutton/internal/runner"
	"github.com/hperssn/panicbutton/internal/storage"
)

type errorBody struct {
	Error        string               `json:"error"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// respondError renders err with the notification it carries and a status
// derived from the sentinel it wraps.
func respondError(w http.ResponseWriter, err error) {
	n := app.NotificationFor(err)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		var ae *app.Error
		if !errors.As(err, &ae) {
			n = notify.Failure("Error", "Something went wrong.")
		}
	}
	respondJSON(w, errorBody{Error: err.Error(), Notification: &n}, status)
}

func respondMessage(w http.ResponseWriter, message string, status int) {
	respondJSON(w, errorBody{Error: message}, status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, runner.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrAvatarTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrEmptyPattern),
		errors.Is(err, domain.ErrInvalidStep),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, storage.ErrDuplicate),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &app.Error{
			Err:          errors.Join(domain.ErrInvalidInput, err),
			Notification: notify.Failure("Error", "Invalid request body."),
		}
	}
	return nil
}

func userID(r *http.Request) string {
	id, _ := auth.UserFromContext(r.Context())
	return id
}
