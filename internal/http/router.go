package httpapi

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hperssn/panicbutton/internal/app"
	"github.com/hperssn/panicbutton/internal/auth"
)

type RouterOptions struct {
	StaticDir      string
	AvatarDir      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Screens are the pages that need a signed-in user.
var Screens = []string{"/", "/breathwork", "/bolt", "/profile", "/journey"}

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(svc *app.Service, authSvc *auth.Service, opts RouterOptions) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandler(svc, authSvc, opts.MaxUploadBytes, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))
	r.Use(authSvc.Identify)

	// Unauthenticated routes
	r.Get("/health", h.Health)
	r.Get("/auth", servePage(opts.StaticDir, "auth.html"))
	r.Post("/api/auth/signup", h.SignUp)
	r.Post("/api/auth/signin", h.SignIn)
	r.Post("/api/auth/signout", h.SignOut)
	if opts.StaticDir != "" {
		fs := http.FileServer(http.Dir(opts.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Guard)

		index := servePage(opts.StaticDir, "index.html")
		for _, screen := range Screens {
			r.Get(screen, index)
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/goals", h.ListGoals)
			r.Get("/patterns", h.ListPatterns)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", h.StartSession)
				r.Get("/{id}", h.GetSession)
				r.Post("/{id}/stop", h.StopSession)
				r.Get("/{id}/events", StreamSessionEvents(svc))
			})

			r.Route("/bolt", func(r chi.Router) {
				r.Get("/", h.BoltState)
				r.Get("/events", StreamBoltEvents(svc))
				r.Get("/scores", h.BoltScores)
				r.Post("/save", h.SaveBolt)
				r.Post("/{action}", h.BoltAction)
			})

			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)
			r.Post("/profile/avatar", h.UploadAvatar)
			r.Patch("/account", h.UpdateAccount)
			r.Get("/journey", h.Journey)
		})

		if opts.AvatarDir != "" {
			avatars := http.FileServer(http.Dir(opts.AvatarDir))
			r.Handle("/avatars/*", http.StripPrefix("/avatars/", avatars))
		}
	})

	return r
}

func servePage(dir, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(dir, name))
	}
}
