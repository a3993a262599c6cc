package runner_test

import (
	"errors"
	"testing"

	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/runner"
)

func TestBoltRunner_StopwatchScore(t *testing.T) {
	clk := newManualClock()
	b := runner.NewBoltRunner(nil, runner.Options{NewTicker: clk.NewTicker})
	defer b.Stop()

	snaps, cancel := b.Subscribe()
	defer cancel()
	recv(t, snaps)

	if _, err := b.Do((*domain.BoltFlow).StartTest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, _ := recv(t, snaps); s.Mode != domain.BoltMeasuring || s.Elapsed != 0 {
		t.Fatalf("unexpected snapshot after start: %+v", s)
	}

	for i := 1; i <= 7; i++ {
		clk.Tick(t)
		s, _ := recv(t, snaps)
		if s.Elapsed != i {
			t.Fatalf("tick %d elapsed = %d", i, s.Elapsed)
		}
	}

	var score int
	snap, err := b.Do(func(f *domain.BoltFlow) error {
		var err error
		score, err = f.Stop()
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 7 || snap.Mode != domain.BoltResults {
		t.Fatalf("score = %d mode = %s, want 7 results", score, snap.Mode)
	}
	recv(t, snaps)

	clk.TryTick()
	if got := b.Snapshot().Elapsed; got != 7 {
		t.Fatalf("stopwatch moved after stop: %d", got)
	}
}

func TestBoltRunner_TutorialHandsOverToMeasuring(t *testing.T) {
	clk := newManualClock()
	prompts := []domain.TutorialPrompt{
		{Title: "calm"},
		{Title: "inhale", Action: domain.ActionInhale, Seconds: 2},
	}
	b := runner.NewBoltRunner(prompts, runner.Options{NewTicker: clk.NewTicker})
	defer b.Stop()

	if _, err := b.Do((*domain.BoltFlow).Begin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clk.TryTick() {
		t.Fatalf("untimed prompt should not tick")
	}

	snap, err := b.Do((*domain.BoltFlow).Advance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Prompt == nil || snap.Prompt.Action != domain.ActionInhale || len(snap.Haptic) == 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	clk.Tick(t)
	clk.Tick(t)
	waitFor(t, func() bool { return b.Snapshot().Mode == domain.BoltMeasuring })

	clk.Tick(t)
	waitFor(t, func() bool { return b.Snapshot().Elapsed == 1 })
}

func TestBoltRunner_InvalidTransition(t *testing.T) {
	b := runner.NewBoltRunner(nil, runner.Options{NewTicker: newManualClock().NewTicker})
	defer b.Stop()

	_, err := b.Do(func(f *domain.BoltFlow) error {
		_, err := f.Stop()
		return err
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBoltManager_PerUser(t *testing.T) {
	m := runner.NewBoltManager(nil, runner.Options{NewTicker: newManualClock().NewTicker})
	defer m.Close()

	a := m.Runner("a")
	if m.Runner("a") != a {
		t.Fatalf("expected the same runner for the same user")
	}
	if m.Runner("b") == a {
		t.Fatalf("expected distinct runners per user")
	}
}
