package domain

import (
	"fmt"
	"sort"
	"time"
)

// BreathStep is one inhale/hold/exhale/hold-out timing unit. Durations are in
// whole seconds; a zero hold or hold-out is skipped.
type BreathStep struct {
	ID             string `json:"id" yaml:"id"`
	InhaleMethod   string `json:"inhaleMethod" yaml:"inhale_method"`
	InhaleSeconds  int    `json:"inhaleSeconds" yaml:"inhale"`
	HoldInSeconds  int    `json:"holdInSeconds" yaml:"hold_in"`
	ExhaleMethod   string `json:"exhaleMethod" yaml:"exhale_method"`
	ExhaleSeconds  int    `json:"exhaleSeconds" yaml:"exhale"`
	HoldOutSeconds int    `json:"holdOutSeconds" yaml:"hold_out"`
	CueText        string `json:"cueText,omitempty" yaml:"cue"`
}

func (s BreathStep) Validate() error {
	if s.InhaleSeconds <= 0 || s.ExhaleSeconds <= 0 {
		return fmt.Errorf("%w: inhale and exhale must be positive", ErrInvalidStep)
	}
	if s.HoldInSeconds < 0 || s.HoldOutSeconds < 0 {
		return fmt.Errorf("%w: negative hold duration", ErrInvalidStep)
	}
	return nil
}

// CycleSeconds is the length of one traversal of the step.
func (s BreathStep) CycleSeconds() int {
	return s.InhaleSeconds + s.HoldInSeconds + s.ExhaleSeconds + s.HoldOutSeconds
}

// PatternStep places a BreathStep at a position within a pattern. Step is nil
// when the referenced step row is missing.
type PatternStep struct {
	PatternID   string      `json:"patternId"`
	StepID      string      `json:"stepId,omitempty"`
	Position    int         `json:"position"`
	Repetitions int         `json:"repetitions"`
	Step        *BreathStep `json:"step,omitempty"`
}

func (ps PatternStep) Reps() int {
	if ps.Repetitions < 1 {
		return 1
	}
	return ps.Repetitions
}

type BreathingPattern struct {
	ID                 string        `json:"id"`
	Slug               string        `json:"slug,omitempty"`
	Name               string        `json:"name"`
	Description        string        `json:"description,omitempty"`
	GoalID             string        `json:"goalId,omitempty"`
	RecommendedMinutes int           `json:"recommendedMinutes,omitempty"`
	CycleSeconds       int           `json:"cycleSeconds,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	Steps              []PatternStep `json:"steps"`
}

func (p *BreathingPattern) Validate() error {
	if p == nil || len(p.Steps) == 0 {
		return ErrEmptyPattern
	}
	return nil
}

func (p *BreathingPattern) SortSteps() {
	sort.SliceStable(p.Steps, func(i, j int) bool {
		return p.Steps[i].Position < p.Steps[j].Position
	})
}

// TotalSeconds estimates the full session length for progress rendering.
// Steps without data contribute nothing.
func (p *BreathingPattern) TotalSeconds() int {
	if p == nil {
		return 0
	}
	total := 0
	for _, ps := range p.Steps {
		if ps.Step == nil {
			continue
		}
		total += ps.Step.CycleSeconds() * ps.Reps()
	}
	return total
}

type BreathingGoal struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
}

type PatternStatus struct {
	UserID    string    `json:"userId"`
	PatternID string    `json:"patternId"`
	LastRun   time.Time `json:"lastRun"`
	TotalRuns int       `json:"totalRuns"`
}

// PatternSource says where a pattern definition comes from.
type PatternSource string

const (
	SourceStatic PatternSource = "static"
	SourceRemote PatternSource = "remote"
)

// PatternRef identifies a pattern within its source: a catalog slug for
// static patterns, a row id for remote ones.
type PatternRef struct {
	Source PatternSource `json:"source"`
	ID     string        `json:"id"`
}

func (r PatternRef) Validate() error {
	switch r.Source {
	case SourceStatic, SourceRemote:
	default:
		return fmt.Errorf("%w: unknown pattern source %q", ErrInvalidInput, r.Source)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: pattern id is required", ErrInvalidInput)
	}
	return nil
}
