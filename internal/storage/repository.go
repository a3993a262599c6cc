package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hperssn/panicbutton/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// PatternStore is read-only reference data: goals, patterns and their
// ordered steps.
type PatternStore interface {
	ListGoals(ctx context.Context) ([]domain.BreathingGoal, error)
	ListPatterns(ctx context.Context) ([]domain.BreathingPattern, error)
	ListPatternsByGoal(ctx context.Context, goalSlug string) ([]domain.BreathingPattern, error)
	FetchPattern(ctx context.Context, id string) (*domain.BreathingPattern, error)
}

// ProgressStore holds what users have done: BOLT scores are insert-only,
// pattern status is upserted per (user, pattern).
type ProgressStore interface {
	FetchScores(ctx context.Context, userID string) ([]domain.BoltScore, error)
	InsertScore(ctx context.Context, userID string, seconds int) (*domain.BoltScore, error)
	UpsertPatternStatus(ctx context.Context, userID, patternID string, at time.Time) (*domain.PatternStatus, error)
	ListPatternStatus(ctx context.Context, userID string) ([]domain.PatternStatus, error)
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, userID string) (*domain.Profile, error)
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, u domain.ProfileUpdate) (*domain.Profile, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	UpdateUserEmail(ctx context.Context, id, email string) error
	UpdateUserPassword(ctx context.Context, id, hash string) error
}

type Repository interface {
	PatternStore
	ProgressStore
	ProfileStore
	UserStore

	SeedCatalog(ctx context.Context, goals []domain.BreathingGoal, patterns []domain.BreathingPattern) error
	Ping(ctx context.Context) error
	Close() error
}

// Open picks a repository implementation by driver name.
func Open(driver, dsn string) (Repository, error) {
	switch driver {
	case "sqlite", "sqlite3":
		repo, err := NewSQLiteRepository(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres", "postgresql":
		repo, err := NewPostgresRepository(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
