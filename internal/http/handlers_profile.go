package httpapi

import (
	"net/http"

	"github.com/hperssn/panicbutton/internal/app"
	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/notify"
)

type profileResponse struct {
	Profile      *domain.Profile     `json:"profile"`
	Notification notify.Notification `json:"notification"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), userID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, p, http.StatusOK)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdate
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	// the avatar only changes through an upload
	req.AvatarURL = nil

	p, n, err := h.svc.UpdateProfile(r.Context(), userID(r), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, profileResponse{Profile: p, Notification: n}, http.StatusOK)
}

func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, &app.Error{Err: app.ErrAvatarTooLarge, Notification: notify.Failure("Error", "That image is too large.")})
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondMessage(w, "missing avatar file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	p, n, err := h.svc.UploadAvatar(r.Context(), userID(r), header.Filename, header.Size, file)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, profileResponse{Profile: p, Notification: n}, http.StatusOK)
}

type accountRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type accountResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Email == nil && req.Password == nil {
		respondMessage(w, "nothing to update", http.StatusBadRequest)
		return
	}

	var resp accountResponse
	if req.Email != nil {
		n, err := h.svc.UpdateEmail(r.Context(), userID(r), *req.Email)
		if err != nil {
			respondError(w, err)
			return
		}
		resp.Notifications = append(resp.Notifications, n)
	}
	if req.Password != nil {
		n, err := h.svc.UpdatePassword(r.Context(), userID(r), *req.Password)
		if err != nil {
			respondError(w, err)
			return
		}
		resp.Notifications = append(resp.Notifications, n)
	}
	respondJSON(w, resp, http.StatusOK)
}

func (h *Handler) Journey(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Journey(r.Context(), userID(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, entries, http.StatusOK)
}
