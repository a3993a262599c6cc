package httpapi

import (
	"errors"
	"net/http"

	"github.com/hperssn/panicbutton/internal/auth"
	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/notify"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User         *domain.User        `json:"user"`
	Notification notify.Notification `json:"notification"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	u, err := h.auth.SignUp(w, r, req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}
	respondJSON(w, authResponse{
		User:         u,
		Notification: notify.Success("Account created!", "You are now signed in."),
	}, http.StatusCreated)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	u, err := h.auth.SignIn(w, r, req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}
	respondJSON(w, authResponse{
		User:         u,
		Notification: notify.Success("Welcome back!", "You have been successfully logged in."),
	}, http.StatusOK)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(w, r); err != nil {
		h.logger.Error("sign out failed", "error", err)
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrEmailTaken):
	default:
		h.logger.Error("authentication failed", "error", err)
	}
	respondError(w, err)
}
