package domain

import (
	"errors"
	"testing"
)

func TestBoltStopwatchScore(t *testing.T) {
	f := NewBoltFlow(nil)
	if err := f.StartTest(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Elapsed != 0 || !f.Running {
		t.Fatalf("stopwatch should start at zero and run: %+v", f)
	}

	for i := 0; i < 7; i++ {
		f.Tick()
	}

	score, err := f.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 7 {
		t.Fatalf("score = %d, want 7", score)
	}
	if f.Mode != BoltResults {
		t.Fatalf("mode = %s, want results", f.Mode)
	}
	if f.Tick(); f.Elapsed != 7 {
		t.Fatalf("stopwatch moved after stop: %d", f.Elapsed)
	}
}

func TestBoltTutorialFlow(t *testing.T) {
	f := NewBoltFlow(nil)
	if err := f.Begin(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Mode != BoltTutorial || f.Prompt != 0 {
		t.Fatalf("unexpected state after begin: %+v", f)
	}
	if f.Timed() {
		t.Fatalf("calm prompt waits for the user")
	}
	if changed := f.Tick(); changed || f.Prompt != 0 {
		t.Fatalf("tick should not advance an untimed prompt")
	}

	if err := f.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p, _ := f.CurrentPrompt(); p.Action != ActionInhale || f.Countdown != 5 {
		t.Fatalf("expected 5s inhale prompt, got %+v countdown %d", p, f.Countdown)
	}
	if err := f.Advance(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Advance() on timed prompt error = %v", err)
	}

	// 5 inhale + 5 exhale + 3 hold
	for i := 0; i < 12; i++ {
		if f.Tick() {
			t.Fatalf("tick %d left the tutorial early", i+1)
		}
	}
	if !f.Tick() {
		t.Fatalf("expected tutorial to hand over to measuring")
	}
	if f.Mode != BoltMeasuring || f.Elapsed != 0 || !f.Running {
		t.Fatalf("unexpected state after tutorial: %+v", f)
	}
}

func TestBoltRetryAndDiscard(t *testing.T) {
	f := NewBoltFlow(nil)
	_ = f.StartTest()
	f.Tick()
	if _, err := f.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := f.Result(); !ok || got != 1 {
		t.Fatalf("Result() = %d,%v want 1,true", got, ok)
	}

	if err := f.Retry(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Mode != BoltTutorial || f.Elapsed != 0 {
		t.Fatalf("retry should restart the tutorial: %+v", f)
	}

	_ = f.StartTest()
	_, _ = f.Stop()
	if err := f.Discard(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Mode != BoltInstructions {
		t.Fatalf("mode = %s, want instructions", f.Mode)
	}
}

func TestBoltClaim(t *testing.T) {
	f := NewBoltFlow(nil)
	_ = f.StartTest()
	f.Tick()
	f.Tick()
	_, _ = f.Stop()

	got, err := f.Claim()
	if err != nil || got != 2 {
		t.Fatalf("Claim() = %d, %v want 2, nil", got, err)
	}
	if f.Mode != BoltSaving {
		t.Fatalf("mode = %s, want saving", f.Mode)
	}
	if _, err := f.Claim(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Claim() error = %v", err)
	}
	if err := f.Discard(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Discard() while saving error = %v", err)
	}

	if err := f.Unclaim(); err != nil {
		t.Fatalf("Unclaim(): %v", err)
	}
	if got, ok := f.Result(); !ok || got != 2 {
		t.Fatalf("Result() after unclaim = %d,%v want 2,true", got, ok)
	}

	if err := f.Saved(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Saved() without claim error = %v", err)
	}
	_, _ = f.Claim()
	if err := f.Saved(); err != nil {
		t.Fatalf("Saved(): %v", err)
	}
	if f.Mode != BoltInstructions || f.Elapsed != 0 {
		t.Fatalf("unexpected state after save: %+v", f)
	}
}

func TestBoltInvalidTransitions(t *testing.T) {
	f := NewBoltFlow(nil)

	if _, err := f.Stop(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Stop() in instructions error = %v", err)
	}
	if err := f.Retry(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Retry() in instructions error = %v", err)
	}
	if err := f.Discard(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Discard() in instructions error = %v", err)
	}
	_ = f.Begin()
	if err := f.Begin(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Begin() twice error = %v", err)
	}
	f.Cancel()
	if f.Mode != BoltInstructions {
		t.Errorf("mode after cancel = %s", f.Mode)
	}
}
