package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hperssn/panicbutton/internal/app"
	"github.com/hperssn/panicbutton/internal/auth"
	"github.com/hperssn/panicbutton/internal/catalog"
	"github.com/hperssn/panicbutton/internal/config"
	httpapi "github.com/hperssn/panicbutton/internal/http"
	"github.com/hperssn/panicbutton/internal/runner"
	"github.com/hperssn/panicbutton/internal/storage"
	"github.com/hperssn/panicbutton/internal/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var catalogPath string

	root := &cobra.Command{
		Use:           "panicbutton",
		Short:         "Guided breathing sessions and BOLT measurements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "pattern catalog YAML (defaults to the built-in one)")

	root.AddCommand(newServeCmd(&catalogPath))
	root.AddCommand(newSeedCmd(&catalogPath))
	root.AddCommand(newTUICmd(&catalogPath))
	return root
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func newSeedCmd(catalogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the pattern catalog to the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)

			c, err := loadCatalog(*catalogPath)
			if err != nil {
				return err
			}
			repo, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.SeedCatalog(cmd.Context(), c.Goals, c.Patterns); err != nil {
				return err
			}
			logger.Info("catalog seeded", "goals", len(c.Goals), "patterns", len(c.Patterns))
			return nil
		},
	}
}

func newTUICmd(catalogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run breathing patterns in the terminal",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadLocal()
			if err != nil {
				return err
			}
			c, err := loadCatalog(*catalogPath)
			if err != nil {
				return err
			}
			return tui.Run(c.List(""), tui.Options{
				Interval:     cfg.TickInterval(),
				DisplayDelay: cfg.CompletionDelay(),
			})
		},
	}
}

func newServeCmd(catalogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cfg, *catalogPath, newLogger(cfg.LogLevel))
		},
	}
}

func serve(cfg *config.Config, catalogPath string, logger *slog.Logger) error {
	c, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	repo, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	defer repo.Close()

	if cfg.SeedOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := repo.SeedCatalog(ctx, c.Goals, c.Patterns)
		cancel()
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	avatars, err := storage.NewAvatarStore(cfg.AvatarDir, cfg.AvatarBaseURL)
	if err != nil {
		return err
	}

	runnerOpts := runner.Options{
		Interval:     cfg.TickInterval(),
		DisplayDelay: cfg.CompletionDelay(),
		Logger:       logger,
	}
	sessions := runner.NewSessionManager(runnerOpts)
	defer sessions.Close()
	bolt := runner.NewBoltManager(nil, runnerOpts)
	defer bolt.Close()

	svc := app.New(app.Deps{
		Repo:          repo,
		Catalog:       c,
		Sessions:      sessions,
		Bolt:          bolt,
		Avatars:       avatars,
		Logger:        logger,
		MaxAvatarSize: cfg.MaxAvatarSize,
	})
	defer svc.Close()

	authSvc := auth.New(repo, []byte(cfg.SessionSecret), auth.Options{
		TrustProxy: cfg.TrustProxyAuth,
		Logger:     logger,
	})

	router := httpapi.NewRouter(svc, authSvc, httpapi.RouterOptions{
		StaticDir:      cfg.StaticDir,
		AvatarDir:      avatars.Dir(),
		MaxUploadBytes: cfg.MaxAvatarSize,
		Logger:         logger,
	})

	// event streams stay open for a whole session, so no write timeout
	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info("panicbutton server starting", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-done:
	}
	logger.Info("shutting down...")

	// stop runners first so open event streams close
	sessions.Close()
	bolt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
