package app

import (
	"context"
	"errors"
	"time"

	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/runner"
	"github.com/hperssn/panicbutton/internal/storage"
)

const logRunTimeout = 5 * time.Second

func (s *Service) ListGoals(ctx context.Context, source domain.PatternSource) ([]domain.BreathingGoal, error) {
	if source == domain.SourceStatic {
		return s.catalog.Goals, nil
	}

	goals, err := s.repo.ListGoals(ctx)
	if err != nil {
		s.logger.Error("failed to list goals", "error", err)
		return nil, fail(err, "Error", "Could not load breathing goals.")
	}
	return goals, nil
}

// ListPatterns returns the patterns of a source, optionally filtered by goal
// slug. An unknown goal is a not-found failure for both sources.
func (s *Service) ListPatterns(ctx context.Context, source domain.PatternSource, goalSlug string) ([]domain.BreathingPattern, error) {
	switch source {
	case "", domain.SourceRemote:
	case domain.SourceStatic:
		if goalSlug != "" && !s.hasStaticGoal(goalSlug) {
			return nil, fail(storage.ErrNotFound, "Error", "Breathing goal not found.")
		}
		return s.catalog.List(goalSlug), nil
	default:
		return nil, fail(domain.ErrInvalidInput, "Error", "Unknown pattern source.")
	}

	var (
		patterns []domain.BreathingPattern
		err      error
	)
	if goalSlug == "" {
		patterns, err = s.repo.ListPatterns(ctx)
	} else {
		patterns, err = s.repo.ListPatternsByGoal(ctx, goalSlug)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fail(err, "Error", "Breathing goal not found.")
	}
	if err != nil {
		s.logger.Error("failed to list patterns", "goal", goalSlug, "error", err)
		return nil, fail(err, "Error", "Could not load breathing patterns.")
	}
	return patterns, nil
}

func (s *Service) hasStaticGoal(slug string) bool {
	for _, g := range s.catalog.Goals {
		if g.Slug == slug {
			return true
		}
	}
	return false
}

func (s *Service) resolvePattern(ctx context.Context, ref domain.PatternRef) (*domain.BreathingPattern, error) {
	if ref.Source == domain.SourceStatic {
		p, ok := s.catalog.Pattern(ref.ID)
		if !ok {
			return nil, storage.ErrNotFound
		}
		return p, nil
	}
	p, err := s.repo.FetchPattern(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	p.SortSteps()
	return p, nil
}

// StartBreathing runs the referenced pattern for userID, replacing whatever
// session the user had running. The run is recorded in the background.
func (s *Service) StartBreathing(ctx context.Context, userID string, ref domain.PatternRef, stepIdx int) (*domain.Session, error) {
	if err := ref.Validate(); err != nil {
		return nil, fail(err, "Error", "Choose a breathing pattern first.")
	}

	p, err := s.resolvePattern(ctx, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fail(err, "Error", "Breathing pattern not found.")
	}
	if err != nil {
		s.logger.Error("failed to fetch pattern", "pattern_id", ref.ID, "error", err)
		return nil, fail(err, "Error", "Could not load the breathing pattern.")
	}

	sess, err := s.sessions.StartSession(domain.NewSession("", userID, ref, p), p, stepIdx)
	switch {
	case errors.Is(err, domain.ErrEmptyPattern):
		return nil, fail(err, "Error", "This pattern has no steps.")
	case errors.Is(err, domain.ErrInvalidStep):
		return nil, fail(err, "Error", "This pattern has an invalid step.")
	case err != nil:
		return nil, fail(err, "Error", "Could not start the session.")
	}

	s.logger.Info("breathing session started",
		"session_id", sess.ID,
		"user_id", userID,
		"pattern_id", p.ID,
	)

	if userID != "" {
		s.logRun(ctx, userID, p.ID)
	}
	return sess, nil
}

// logRun upserts the pattern status without blocking the caller. Failures
// are logged and otherwise ignored.
func (s *Service) logRun(ctx context.Context, userID, patternID string) {
	at := s.now()
	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logRunTimeout)
		defer cancel()

		if _, err := s.repo.UpsertPatternStatus(ctx, userID, patternID, at); err != nil {
			s.logger.Warn("failed to log pattern run",
				"user_id", userID,
				"pattern_id", patternID,
				"error", err,
			)
		}
	}()
}

func (s *Service) owned(userID, sessionID string) (*domain.Session, error) {
	sess, ok := s.sessions.GetSession(sessionID)
	if !ok || sess.UserID != userID {
		return nil, fail(runner.ErrSessionNotFound, "Error", "Session not found.")
	}
	return sess, nil
}

func (s *Service) BreathingSession(userID, sessionID string) (*domain.Session, error) {
	return s.owned(userID, sessionID)
}

// StopBreathing ends the session. Stopping a session that already ended is
// not an error.
func (s *Service) StopBreathing(userID, sessionID string) (*domain.Session, error) {
	if _, err := s.owned(userID, sessionID); err != nil {
		return nil, err
	}
	if err := s.sessions.StopSession(sessionID); err != nil {
		return nil, fail(err, "Error", "Session not found.")
	}
	sess, _ := s.sessions.GetSession(sessionID)
	return sess, nil
}

// ActiveBreathing returns the user's running session, if any.
func (s *Service) ActiveBreathing(userID string) (*domain.Session, bool) {
	return s.sessions.ActiveSession(userID)
}

func (s *Service) SubscribeBreathing(userID, sessionID string) (<-chan runner.PhaseEvent, func(), error) {
	if _, err := s.owned(userID, sessionID); err != nil {
		return nil, nil, err
	}
	ch, cancel, ok := s.sessions.Events(sessionID)
	if !ok {
		return nil, nil, fail(runner.ErrSessionNotFound, "Error", "Session not found.")
	}
	return ch, cancel, nil
}
