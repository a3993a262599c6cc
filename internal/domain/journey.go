package domain

import "time"

// JourneyEntry is one stage of the guided programme.
type JourneyEntry struct {
	Number      int       `json:"number"`
	PatternID   string    `json:"patternId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Locked      bool      `json:"locked"`
	TotalRuns   int       `json:"totalRuns"`
	LastRun     time.Time `json:"lastRun,omitempty"`
}

// BuildJourney lays patterns out in order. A stage is completed once the
// user has run its pattern, and locked until the stage before it is
// completed. The first stage is never locked.
func BuildJourney(patterns []BreathingPattern, statuses []PatternStatus) []JourneyEntry {
	byPattern := make(map[string]PatternStatus, len(statuses))
	for _, st := range statuses {
		byPattern[st.PatternID] = st
	}

	entries := make([]JourneyEntry, 0, len(patterns))
	prevCompleted := true
	for i, p := range patterns {
		st := byPattern[p.ID]
		e := JourneyEntry{
			Number:      i + 1,
			PatternID:   p.ID,
			Title:       p.Name,
			Description: p.Description,
			Completed:   st.TotalRuns > 0,
			Locked:      !prevCompleted,
			TotalRuns:   st.TotalRuns,
			LastRun:     st.LastRun,
		}
		entries = append(entries, e)
		prevCompleted = e.Completed
	}
	return entries
}
