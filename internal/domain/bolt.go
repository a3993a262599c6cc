package domain

import (
	"fmt"
	"time"
)

// BoltScore is one saved breath-hold measurement. Scores are append-only.
type BoltScore struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ScoreSeconds int       `json:"scoreSeconds"`
	CreatedAt    time.Time `json:"createdAt"`
}

type BoltMode string

const (
	BoltInstructions BoltMode = "instructions"
	BoltTutorial     BoltMode = "tutorial"
	BoltMeasuring    BoltMode = "measuring"
	BoltResults      BoltMode = "results"
	BoltSaving       BoltMode = "saving"
)

// TutorialPrompt is one guided instruction before the measurement. Prompts
// with zero Seconds wait for the user to advance.
type TutorialPrompt struct {
	Title   string `json:"title"`
	Action  Action `json:"action,omitempty"`
	Seconds int    `json:"seconds"`
}

var DefaultTutorial = []TutorialPrompt{
	{Title: "Calm down and breathe normally through your nose"},
	{Title: "Inhale normally", Action: ActionInhale, Seconds: 5},
	{Title: "Exhale normally", Action: ActionExhale, Seconds: 5},
	{Title: "Pinch your nose or hold your breath", Action: ActionHoldOut, Seconds: 3},
}

// BoltFlow is the linear BOLT measurement sequencer:
// instructions -> tutorial -> measuring -> results, with a retry loop back to
// the tutorial. It holds no timers and is not safe for concurrent use.
type BoltFlow struct {
	Mode      BoltMode `json:"mode"`
	Prompt    int      `json:"prompt"`
	Countdown int      `json:"countdown"`
	Elapsed   int      `json:"elapsed"`
	Running   bool     `json:"running"`

	prompts []TutorialPrompt
}

func NewBoltFlow(prompts []TutorialPrompt) *BoltFlow {
	if len(prompts) == 0 {
		prompts = DefaultTutorial
	}
	return &BoltFlow{Mode: BoltInstructions, prompts: prompts}
}

func (f *BoltFlow) Prompts() []TutorialPrompt { return f.prompts }

// CurrentPrompt is only meaningful in tutorial mode.
func (f *BoltFlow) CurrentPrompt() (TutorialPrompt, bool) {
	if f.Mode != BoltTutorial || f.Prompt >= len(f.prompts) {
		return TutorialPrompt{}, false
	}
	return f.prompts[f.Prompt], true
}

// Timed reports whether the flow needs a ticker right now.
func (f *BoltFlow) Timed() bool {
	switch f.Mode {
	case BoltMeasuring:
		return f.Running
	case BoltTutorial:
		p, ok := f.CurrentPrompt()
		return ok && p.Seconds > 0
	}
	return false
}

func (f *BoltFlow) Begin() error {
	if f.Mode != BoltInstructions {
		return f.invalid("begin")
	}
	f.enterTutorial()
	return nil
}

// Advance moves past an untimed tutorial prompt.
func (f *BoltFlow) Advance() error {
	p, ok := f.CurrentPrompt()
	if !ok || p.Seconds > 0 {
		return f.invalid("advance")
	}
	f.nextPrompt()
	return nil
}

// StartTest skips whatever is left of the tutorial and starts the stopwatch
// at zero.
func (f *BoltFlow) StartTest() error {
	if f.Mode != BoltTutorial && f.Mode != BoltInstructions {
		return f.invalid("start test")
	}
	f.startMeasuring()
	return nil
}

// Tick advances one second: a tutorial countdown or the stopwatch. It
// reports whether the mode changed.
func (f *BoltFlow) Tick() bool {
	switch f.Mode {
	case BoltMeasuring:
		if f.Running {
			f.Elapsed++
		}
		return false
	case BoltTutorial:
		p, ok := f.CurrentPrompt()
		if !ok || p.Seconds == 0 {
			return false
		}
		if f.Countdown > 1 {
			f.Countdown--
			return false
		}
		before := f.Mode
		f.nextPrompt()
		return f.Mode != before
	}
	return false
}

// Stop freezes the stopwatch and shows the result.
func (f *BoltFlow) Stop() (int, error) {
	if f.Mode != BoltMeasuring || !f.Running {
		return 0, f.invalid("stop")
	}
	f.Running = false
	f.Mode = BoltResults
	return f.Elapsed, nil
}

// Result is the stopwatch value awaiting a save-or-discard choice.
func (f *BoltFlow) Result() (int, bool) {
	if f.Mode != BoltResults {
		return 0, false
	}
	return f.Elapsed, true
}

func (f *BoltFlow) Retry() error {
	if f.Mode != BoltResults {
		return f.invalid("retry")
	}
	f.enterTutorial()
	return nil
}

// Discard drops the pending result.
func (f *BoltFlow) Discard() error {
	if f.Mode != BoltResults {
		return f.invalid("discard")
	}
	f.reset()
	return nil
}

// Claim takes the pending result for saving. Only one caller can claim a
// given result; it must follow up with Saved or Unclaim.
func (f *BoltFlow) Claim() (int, error) {
	if f.Mode != BoltResults {
		return 0, f.invalid("save")
	}
	f.Mode = BoltSaving
	return f.Elapsed, nil
}

// Unclaim puts a claimed result back after a failed save.
func (f *BoltFlow) Unclaim() error {
	if f.Mode != BoltSaving {
		return f.invalid("unclaim")
	}
	f.Mode = BoltResults
	return nil
}

func (f *BoltFlow) Saved() error {
	if f.Mode != BoltSaving {
		return f.invalid("finish saving")
	}
	f.reset()
	return nil
}

// Cancel returns to instructions from any mode.
func (f *BoltFlow) Cancel() { f.reset() }

func (f *BoltFlow) enterTutorial() {
	f.Mode = BoltTutorial
	f.Elapsed = 0
	f.Running = false
	f.Prompt = -1
	f.nextPrompt()
}

func (f *BoltFlow) nextPrompt() {
	f.Prompt++
	if f.Prompt >= len(f.prompts) {
		f.startMeasuring()
		return
	}
	f.Countdown = f.prompts[f.Prompt].Seconds
}

func (f *BoltFlow) startMeasuring() {
	f.Mode = BoltMeasuring
	f.Prompt = 0
	f.Countdown = 0
	f.Elapsed = 0
	f.Running = true
}

func (f *BoltFlow) reset() {
	f.Mode = BoltInstructions
	f.Prompt = 0
	f.Countdown = 0
	f.Elapsed = 0
	f.Running = false
}

func (f *BoltFlow) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s in %s mode", ErrInvalidTransition, op, f.Mode)
}
