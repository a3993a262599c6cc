package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the snapshot of one run of a pattern as exposed to clients.
type Session struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Pattern     PatternRef   `json:"pattern"`
	PatternName string       `json:"patternName"`
	StartStep   int          `json:"startStep"`
	StartedAt   time.Time    `json:"startedAt"`
	EndedAt     time.Time    `json:"endedAt,omitzero"`
	State       State        `json:"state"`
	Reason      EndReason    `json:"reason,omitempty"`
	Phase       SessionPhase `json:"phase"`
	ElapsedSec  int          `json:"elapsedSec"`
	TotalSec    int          `json:"totalSec"`
}

func NewSession(id string, userID string, ref PatternRef, p *BreathingPattern) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	name := ""
	if p != nil {
		name = p.Name
	}

	return &Session{
		ID:          id,
		UserID:      userID,
		Pattern:     ref,
		PatternName: name,
		StartedAt:   time.Now(),
		State:       StateIdle,
		TotalSec:    p.TotalSeconds(),
	}
}

// Finished reports whether the run has ended for any reason.
func (s *Session) Finished() bool {
	return !s.EndedAt.IsZero()
}
