package runner_test

import (
	"testing"
	"time"

	"github.com/hperssn/panicbutton/internal/domain"
	"github.com/hperssn/panicbutton/internal/runner"
)

func singleStepPattern() *domain.BreathingPattern {
	return &domain.BreathingPattern{
		ID:   "p1",
		Name: "scenario",
		Steps: []domain.PatternStep{{
			Position:    0,
			Repetitions: 1,
			Step:        &domain.BreathStep{InhaleSeconds: 4, HoldInSeconds: 2, ExhaleSeconds: 6},
		}},
	}
}

func newSession(id string) *domain.Session {
	return domain.NewSession(id, "user-1", domain.PatternRef{Source: domain.SourceStatic, ID: "scenario"}, singleStepPattern())
}

func TestSessionRunner_Completes(t *testing.T) {
	clk := newManualClock()
	r := runner.NewSessionRunner(newSession("s1"), singleStepPattern(), runner.Options{
		NewTicker:    clk.NewTicker,
		DisplayDelay: time.Millisecond,
	})
	if err := r.Start(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, _ := r.Subscribe()
	first, _ := recv(t, events)
	if first.Phase.Action != domain.ActionInhale || first.Phase.SecondsRemaining != 4 {
		t.Fatalf("first event = %+v, want inhale 4", first.Phase)
	}

	var phases []domain.Action
	for i := 1; i <= 12; i++ {
		clk.Tick(t)
		ev, ok := recv(t, events)
		if !ok {
			t.Fatalf("events closed at tick %d", i)
		}
		if ev.Type == runner.EventPhase {
			phases = append(phases, ev.Phase.Action)
			if len(ev.Haptic) == 0 {
				t.Errorf("phase event without haptic pattern: %+v", ev)
			}
		}
		if i < 12 && ev.Type == runner.EventCompleted {
			t.Fatalf("completed early at tick %d", i)
		}
		if i == 12 {
			if ev.Type != runner.EventCompleted || ev.State != domain.StateCompleted {
				t.Fatalf("tick 12 event = %+v, want completed", ev)
			}
			if ev.Fade == nil || ev.Progress != 1 {
				t.Fatalf("completion event missing fade or progress: %+v", ev)
			}
		}
	}
	if len(phases) != 2 || phases[0] != domain.ActionHold || phases[1] != domain.ActionExhale {
		t.Fatalf("phase transitions = %v, want [hold exhale]", phases)
	}

	idle, ok := recv(t, events)
	if !ok || idle.Type != runner.EventIdle || idle.State != domain.StateIdle {
		t.Fatalf("expected idle event after display delay, got %+v ok=%v", idle, ok)
	}
	if _, ok := recv(t, events); ok {
		t.Fatalf("expected events to be closed")
	}

	sess := r.Session()
	if sess.Reason != domain.ReasonCompleted || !sess.Finished() {
		t.Fatalf("unexpected final session: %+v", sess)
	}
	if clk.TryTick() {
		t.Fatalf("runner still ticking after completion")
	}
}

func TestSessionRunner_Stop(t *testing.T) {
	clk := newManualClock()
	r := runner.NewSessionRunner(newSession("s2"), singleStepPattern(), runner.Options{NewTicker: clk.NewTicker})
	if err := r.Start(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, _ := r.Subscribe()
	recv(t, events)

	clk.Tick(t)
	recv(t, events)
	r.Stop()

	ev, ok := recv(t, events)
	if !ok || ev.Type != runner.EventStopped {
		t.Fatalf("expected stopped event, got %+v ok=%v", ev, ok)
	}
	if _, ok := recv(t, events); ok {
		t.Fatalf("expected events to be closed after stop")
	}

	clk.TryTick()
	sess := r.Session()
	if sess.State != domain.StateIdle || sess.Reason != domain.ReasonStopped {
		t.Fatalf("state/reason = %s/%s, want idle/stopped", sess.State, sess.Reason)
	}
	if sess.ElapsedSec != 1 {
		t.Fatalf("elapsed = %d, want 1", sess.ElapsedSec)
	}
	select {
	case <-r.Done():
	default:
		t.Fatalf("runner should be done after stop")
	}
}

func TestSessionRunner_StartInvalid(t *testing.T) {
	r := runner.NewSessionRunner(newSession("s3"), &domain.BreathingPattern{}, runner.Options{})
	if err := r.Start(0); err == nil {
		t.Fatalf("expected error for empty pattern")
	}
}

func TestSessionRunner_LateSubscriber(t *testing.T) {
	r := runner.NewSessionRunner(newSession("s4"), singleStepPattern(), runner.Options{NewTicker: newManualClock().NewTicker})
	if err := r.Start(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Stop()

	events, cancel := r.Subscribe()
	defer cancel()
	ev, ok := recv(t, events)
	if !ok || ev.State != domain.StateIdle {
		t.Fatalf("late subscriber should get final snapshot, got %+v", ev)
	}
	if _, ok := recv(t, events); ok {
		t.Fatalf("late subscriber channel should be closed")
	}
}
