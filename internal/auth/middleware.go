package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const userContextKey contextKey = "userId"

// proxyHeaders are checked in order when proxy identity is trusted.
var proxyHeaders = []string{"X-Auth-User", "X-Forwarded-User", "Remote-User"}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userContextKey).(string)
	return userID, ok && userID != ""
}

// Identify resolves the caller from the session cookie, falling back to
// proxy headers when trusted. Anonymous requests pass through unchanged.
func (s *Service) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := s.sessionUser(r)

		if userID == "" && s.trustProxy {
			for _, h := range proxyHeaders {
				if userID = r.Header.Get(h); userID != "" {
					break
				}
			}
		}

		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		s.logger.Debug("authenticated request", "user_id", userID, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
	})
}

func (s *Service) sessionUser(r *http.Request) string {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	userID, _ := session.Values[userIDKey].(string)
	return userID
}

// Guard lets identified requests through. Anonymous API calls get a 401,
// anonymous screen requests are redirected to the sign-in page.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}

		http.Redirect(w, r, "/auth", http.StatusSeeOther)
	})
}
