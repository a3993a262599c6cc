package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/panicbutton/internal/app"
	"github.com/hperssn/panicbutton/internal/auth"
	"github.com/hperssn/panicbutton/internal/catalog"
	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/runner"
	"github.com/hperssn/panicbutton/internal/storage"
)

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "http.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	c := catalog.Default()
	if err := repo.SeedCatalog(context.Background(), c.Goals, c.Patterns); err != nil {
		t.Fatalf("seed: %v", err)
	}

	opts := runner.Options{NewTicker: func(time.Duration) runner.Ticker { return idleTicker{} }}
	sessions := runner.NewSessionManager(opts)
	bolt := runner.NewBoltManager(nil, opts)
	t.Cleanup(sessions.Close)
	t.Cleanup(bolt.Close)

	staticDir := t.TempDir()
	os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>panic</h1>"), 0o644)
	os.WriteFile(filepath.Join(staticDir, "auth.html"), []byte("<h1>sign in</h1>"), 0o644)

	svc := app.New(app.Deps{Repo: repo, Catalog: c, Sessions: sessions, Bolt: bolt})
	t.Cleanup(svc.Close)

	authSvc := auth.New(repo, []byte("0123456789abcdef0123456789abcdef"), auth.Options{TrustProxy: true})
	return NewRouter(svc, authSvc, RouterOptions{StaticDir: staticDir})
}

func do(t *testing.T, h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-Auth-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestGuard(t *testing.T) {
	h := newTestRouter(t)

	for _, screen := range Screens {
		rec := do(t, h, http.MethodGet, screen, "", nil)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth" {
			t.Fatalf("%s: code=%d location=%q", screen, rec.Code, rec.Header().Get("Location"))
		}
	}

	if rec := do(t, h, http.MethodGet, "/api/journey", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("api status = %d, want 401", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/auth", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("auth page status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/breathwork", "user-1", nil); rec.Code != http.StatusOK {
		t.Fatalf("signed-in screen status = %d", rec.Code)
	}
}

func TestSignUpCookieSession(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/auth/signup", "", credentials{Email: "me@example.com", Password: "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d body=%s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/auth/signin", "", credentials{Email: "me@example.com", Password: "wrong!!"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad signin status = %d", rec.Code)
	}
	body := decodeBody[errorBody](t, rec)
	if body.Notification == nil || !body.Notification.Destructive() {
		t.Fatalf("expected destructive notification, got %+v", body)
	}
}

func TestBreathingSessionLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/patterns?source=static&goal=calm", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("patterns status = %d", rec.Code)
	}
	patterns := decodeBody[[]domain.BreathingPattern](t, rec)
	if len(patterns) == 0 {
		t.Fatalf("expected calm patterns")
	}

	rec = do(t, h, http.MethodPost, "/api/sessions", "user-1", startSessionRequest{
		Pattern: domain.PatternRef{Source: domain.SourceStatic, ID: "panic-relief"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d body=%s", rec.Code, rec.Body.String())
	}
	sess := decodeBody[domain.Session](t, rec)
	if sess.Phase.Action != domain.ActionInhale || sess.Phase.SecondsRemaining != 4 {
		t.Fatalf("unexpected first phase: %+v", sess.Phase)
	}

	if rec := do(t, h, http.MethodGet, "/api/sessions/"+sess.ID, "user-2", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("other user status = %d, want 404", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/sessions/"+sess.ID+"/stop", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d", rec.Code)
	}
	stopped := decodeBody[domain.Session](t, rec)
	if stopped.State != domain.StateIdle || stopped.Reason != domain.ReasonStopped {
		t.Fatalf("unexpected stopped session: %+v", stopped)
	}

	// a finished session streams its final snapshot and closes
	rec = do(t, h, http.MethodGet, "/api/sessions/"+sess.ID+"/events", "user-1", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("events status = %d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "event: tick\ndata: {") {
		t.Fatalf("unexpected stream: %q", rec.Body.String())
	}
}

func TestStartSessionErrors(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"bad body", "not an object", http.StatusBadRequest},
		{"unknown pattern", startSessionRequest{Pattern: domain.PatternRef{Source: domain.SourceStatic, ID: "nope"}}, http.StatusNotFound},
		{"bad step", startSessionRequest{Pattern: domain.PatternRef{Source: domain.SourceStatic, ID: "box"}, Step: 5}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/sessions", "user-1", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
			body := decodeBody[errorBody](t, rec)
			if body.Notification == nil || body.Notification.Title != "Error" {
				t.Fatalf("expected notification, got %+v", body)
			}
		})
	}
}

func TestBoltFlowOverHTTP(t *testing.T) {
	h := newTestRouter(t)

	for _, action := range []string{"begin", "test", "stop"} {
		rec := do(t, h, http.MethodPost, "/api/bolt/"+action, "user-1", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d body=%s", action, rec.Code, rec.Body.String())
		}
	}

	if rec := do(t, h, http.MethodPost, "/api/bolt/begin", "user-1", nil); rec.Code != http.StatusConflict {
		t.Fatalf("begin from results status = %d, want 409", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/bolt/jump", "user-1", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown action status = %d, want 404", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/bolt/save", "user-1", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d body=%s", rec.Code, rec.Body.String())
	}
	saved := decodeBody[saveBoltResponse](t, rec)
	if saved.Notification.Title != "Success!" {
		t.Fatalf("unexpected notification: %+v", saved.Notification)
	}

	rec = do(t, h, http.MethodGet, "/api/bolt/scores", "user-1", nil)
	scores := decodeBody[[]domain.BoltScore](t, rec)
	if len(scores) != 1 {
		t.Fatalf("scores = %d, want 1", len(scores))
	}

	rec = do(t, h, http.MethodGet, "/api/bolt", "user-1", nil)
	if snap := decodeBody[runner.BoltSnapshot](t, rec); snap.Mode != domain.BoltInstructions {
		t.Fatalf("mode after save = %s", snap.Mode)
	}
}

func TestProfileAndAccount(t *testing.T) {
	h := newTestRouter(t)

	name := "calm_one"
	rec := do(t, h, http.MethodPatch, "/api/profile", "user-1", domain.ProfileUpdate{Username: &name})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[profileResponse](t, rec)
	if resp.Profile.Username != name || resp.Notification.Title != "Profile updated" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = do(t, h, http.MethodPatch, "/api/account", "user-1", map[string]string{"password": "123"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/journey", "user-1", nil)
	entries := decodeBody[[]domain.JourneyEntry](t, rec)
	if len(entries) == 0 || entries[0].Locked {
		t.Fatalf("unexpected journey: %+v", entries)
	}
}
