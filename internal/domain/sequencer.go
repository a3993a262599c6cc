package domain

import "fmt"

// Sequencer turns a BreathingPattern into a second-granular stream of
// SessionPhase values. It holds no timers; callers drive it with Tick once
// per elapsed second. A Sequencer is not safe for concurrent use.
type Sequencer struct {
	pattern *BreathingPattern

	state   State
	reason  EndReason
	stepIdx int
	phase   SessionPhase
	elapsed int
	total   int
}

// NewSequencer accepts a nil pattern so a session view can exist while the
// pattern is still loading; Start fails on a nil or empty pattern.
func NewSequencer(p *BreathingPattern) *Sequencer {
	return &Sequencer{state: StateIdle, pattern: p, total: p.TotalSeconds()}
}

// Start begins a run at stepIdx and returns the first phase, always an
// inhale of that step. A running session is restarted.
func (s *Sequencer) Start(stepIdx int) (SessionPhase, error) {
	if err := s.pattern.Validate(); err != nil {
		return SessionPhase{}, err
	}
	if stepIdx < 0 || stepIdx >= len(s.pattern.Steps) {
		return SessionPhase{}, fmt.Errorf("%w: step index %d out of range", ErrInvalidStep, stepIdx)
	}
	step := s.pattern.Steps[stepIdx].Step
	if step == nil {
		return SessionPhase{}, fmt.Errorf("%w: step %d has no data", ErrInvalidStep, stepIdx)
	}
	if err := step.Validate(); err != nil {
		return SessionPhase{}, err
	}

	s.state = StateRunning
	s.reason = ReasonNone
	s.stepIdx = stepIdx
	s.elapsed = 0
	s.phase = newPhase(ActionInhale, step, stepIdx)
	return s.phase, nil
}

// Tick advances the session by one second. The boolean is true on the tick
// that ends the session, whether by completion or by a defensive halt.
// Ticks outside the running state change nothing.
func (s *Sequencer) Tick() (SessionPhase, bool) {
	if s.state != StateRunning {
		return s.phase, false
	}
	s.elapsed++
	if s.phase.SecondsRemaining > 1 {
		s.phase.SecondsRemaining--
		return s.phase, false
	}
	return s.advance()
}

func (s *Sequencer) advance() (SessionPhase, bool) {
	step := s.pattern.Steps[s.stepIdx].Step
	if step == nil {
		return s.halt()
	}

	switch s.phase.Action {
	case ActionInhale:
		if step.HoldInSeconds > 0 {
			s.phase = newPhase(ActionHold, step, s.stepIdx)
		} else {
			s.phase = newPhase(ActionExhale, step, s.stepIdx)
		}
		return s.phase, false
	case ActionHold:
		s.phase = newPhase(ActionExhale, step, s.stepIdx)
		return s.phase, false
	case ActionExhale:
		if step.HoldOutSeconds > 0 {
			s.phase = newPhase(ActionHoldOut, step, s.stepIdx)
			return s.phase, false
		}
		return s.nextStep()
	case ActionHoldOut:
		return s.nextStep()
	}
	return s.halt()
}

// nextStep moves to the following array position once a step's cycle is
// done. Repetitions are not replayed; they only feed the total estimate.
func (s *Sequencer) nextStep() (SessionPhase, bool) {
	next := s.stepIdx + 1
	if next >= len(s.pattern.Steps) {
		s.state = StateCompleted
		s.reason = ReasonCompleted
		s.phase.SecondsRemaining = 0
		return s.phase, true
	}

	step := s.pattern.Steps[next].Step
	if step == nil || step.Validate() != nil {
		return s.halt()
	}
	s.stepIdx = next
	s.phase = newPhase(ActionInhale, step, s.stepIdx)
	return s.phase, false
}

func (s *Sequencer) halt() (SessionPhase, bool) {
	s.state = StateIdle
	s.reason = ReasonInvalidStep
	s.phase = SessionPhase{}
	return s.phase, true
}

// Stop ends the run immediately. Nothing about the partial phase is kept.
func (s *Sequencer) Stop() {
	if s.state == StateRunning {
		s.reason = ReasonStopped
	}
	s.state = StateIdle
	s.phase = SessionPhase{}
}

// Dismiss moves a completed session back to idle once its completion
// screen has been shown.
func (s *Sequencer) Dismiss() {
	if s.state == StateCompleted {
		s.state = StateIdle
	}
}

func (s *Sequencer) State() State               { return s.state }
func (s *Sequencer) Reason() EndReason          { return s.reason }
func (s *Sequencer) Phase() SessionPhase        { return s.phase }
func (s *Sequencer) StepIndex() int             { return s.stepIdx }
func (s *Sequencer) ElapsedSeconds() int        { return s.elapsed }
func (s *Sequencer) TotalSeconds() int          { return s.total }
func (s *Sequencer) Pattern() *BreathingPattern { return s.pattern }

// Progress is elapsed/total clamped to [0, 1].
func (s *Sequencer) Progress() float64 {
	if s.total <= 0 {
		return 0
	}
	p := float64(s.elapsed) / float64(s.total)
	if p > 1 {
		return 1
	}
	return p
}
