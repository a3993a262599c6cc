package domain

type Action string

const (
	ActionInhale  Action = "inhale"
	ActionHold    Action = "hold"
	ActionExhale  Action = "exhale"
	ActionHoldOut Action = "hold-out"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// EndReason records why a session left the running state.
type EndReason string

const (
	ReasonNone        EndReason = ""
	ReasonStopped     EndReason = "stopped"
	ReasonCompleted   EndReason = "completed"
	ReasonInvalidStep EndReason = "invalid-step"
)

// SessionPhase is the sequencer's current output. It is recomputed on every
// tick and never persisted.
type SessionPhase struct {
	Action           Action `json:"action"`
	Seconds          int    `json:"seconds"`
	SecondsRemaining int    `json:"secondsRemaining"`
	Method           string `json:"method,omitempty"`
	Cue              string `json:"cue,omitempty"`
	StepIndex        int    `json:"stepIndex"`
}

func newPhase(action Action, step *BreathStep, stepIdx int) SessionPhase {
	p := SessionPhase{
		Action:    action,
		Cue:       step.CueText,
		StepIndex: stepIdx,
	}
	switch action {
	case ActionInhale:
		p.Seconds = step.InhaleSeconds
		p.Method = step.InhaleMethod
	case ActionHold:
		p.Seconds = step.HoldInSeconds
	case ActionExhale:
		p.Seconds = step.ExhaleSeconds
		p.Method = step.ExhaleMethod
	case ActionHoldOut:
		p.Seconds = step.HoldOutSeconds
	}
	p.SecondsRemaining = p.Seconds
	return p
}
