package app

import (
	"context"
	"fmt"

	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/notify"
	"github.com/hperssn/panicbutton/internal/runner"
)

func (s *Service) BoltState(userID string) runner.BoltSnapshot {
	return s.bolt.Runner(userID).Snapshot()
}

func (s *Service) boltDo(userID string, op func(f *domain.BoltFlow) error) (runner.BoltSnapshot, error) {
	snap, err := s.bolt.Runner(userID).Do(op)
	if err != nil {
		return snap, fail(err, "Error", "That step is not available right now.")
	}
	return snap, nil
}

func (s *Service) BeginBolt(userID string) (runner.BoltSnapshot, error) {
	return s.boltDo(userID, (*domain.BoltFlow).Begin)
}

func (s *Service) AdvanceBolt(userID string) (runner.BoltSnapshot, error) {
	return s.boltDo(userID, (*domain.BoltFlow).Advance)
}

func (s *Service) StartBoltTest(userID string) (runner.BoltSnapshot, error) {
	return s.boltDo(userID, (*domain.BoltFlow).StartTest)
}

func (s *Service) StopBolt(userID string) (runner.BoltSnapshot, error) {
	return s.boltDo(userID, func(f *domain.BoltFlow) error {
		_, err := f.Stop()
		return err
	})
}

func (s *Service) RetryBolt(userID string) (runner.BoltSnapshot, error) {
	return s.boltDo(userID, (*domain.BoltFlow).Retry)
}

func (s *Service) DiscardBolt(userID string) (runner.BoltSnapshot, error) {
	return s.boltDo(userID, (*domain.BoltFlow).Discard)
}

// SaveBolt persists the pending result and returns the flow to the
// instructions. Without a signed-in user nothing is written.
func (s *Service) SaveBolt(ctx context.Context, userID string) (*domain.BoltScore, notify.Notification, error) {
	if userID == "" {
		return nil, notify.Notification{}, fail(ErrUnauthenticated, "Error", "Sign in to save your BOLT score.")
	}

	r := s.bolt.Runner(userID)
	var seconds int
	if _, err := r.Do(func(f *domain.BoltFlow) (err error) {
		seconds, err = f.Claim()
		return err
	}); err != nil {
		return nil, notify.Notification{}, fail(err, "Error", "There is no measurement to save.")
	}

	score, err := s.repo.InsertScore(ctx, userID, seconds)
	if err != nil {
		s.logger.Error("failed to save bolt score", "user_id", userID, "error", err)
		if _, uerr := r.Do((*domain.BoltFlow).Unclaim); uerr != nil {
			s.logger.Warn("bolt flow changed while saving", "user_id", userID, "error", uerr)
		}
		return nil, notify.Notification{}, fail(err, "Error", "Could not save your measurement.")
	}

	if _, err := r.Do((*domain.BoltFlow).Saved); err != nil {
		// the score is stored; the flow was reset while saving
		s.logger.Warn("bolt flow changed while saving", "user_id", userID, "error", err)
	}

	s.logger.Info("bolt score saved", "user_id", userID, "score_seconds", score.ScoreSeconds)
	return score, notify.Success("Success!", fmt.Sprintf("Your BOLT score is %d seconds.", score.ScoreSeconds)), nil
}

func (s *Service) BoltScores(ctx context.Context, userID string) ([]domain.BoltScore, error) {
	scores, err := s.repo.FetchScores(ctx, userID)
	if err != nil {
		s.logger.Error("failed to fetch bolt scores", "user_id", userID, "error", err)
		return nil, fail(err, "Error", "Could not load your previous measurements.")
	}
	return scores, nil
}

func (s *Service) SubscribeBolt(userID string) (<-chan runner.BoltSnapshot, func()) {
	return s.bolt.Runner(userID).Subscribe()
}
