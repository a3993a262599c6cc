package app

import (
	"context"

	"github.com/hperssn/panicbutton/internal/domain"
)

// Journey lays the catalog out in order with the user's progress.
func (s *Service) Journey(ctx context.Context, userID string) ([]domain.JourneyEntry, error) {
	statuses, err := s.repo.ListPatternStatus(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load pattern status", "user_id", userID, "error", err)
		return nil, fail(err, "Error", "Could not load your journey.")
	}
	return domain.BuildJourney(s.catalog.Patterns, statuses), nil
}
