package runner

import (
	"context"
	"sync"
	"time"

	"github.com/hperssn/panicbutton/internal/domain"
)

type EventType string

const (
	EventPhase     EventType = "phase"
	EventTick      EventType = "tick"
	EventCompleted EventType = "completed"
	EventStopped   EventType = "stopped"
	EventHalted    EventType = "halted"
	EventIdle      EventType = "idle"
)

// PhaseEvent is one emission of a breathing session. Haptic is set when a
// new phase starts, Fade when the session completes.
type PhaseEvent struct {
	SessionID  string              `json:"sessionId"`
	Type       EventType           `json:"type"`
	State      domain.State        `json:"state"`
	Phase      domain.SessionPhase `json:"phase"`
	ElapsedSec int                 `json:"elapsedSec"`
	TotalSec   int                 `json:"totalSec"`
	Progress   float64             `json:"progress"`
	Haptic     []int               `json:"haptic,omitempty"`
	Fade       *domain.AudioFade   `json:"fade,omitempty"`
}

// SessionRunner owns the timer of one breathing session. Every emission
// happens under mu after checking stopped, so nothing is published once
// Stop has returned.
type SessionRunner struct {
	mu sync.Mutex

	session *domain.Session
	seq     *domain.Sequencer
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	stopped  bool
	finished bool
	subs     map[int]chan PhaseEvent
	nextSub  int
}

func NewSessionRunner(s *domain.Session, p *domain.BreathingPattern, opts Options) *SessionRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionRunner{
		session: s,
		seq:     domain.NewSequencer(p),
		opts:    opts.withDefaults(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		subs:    make(map[int]chan PhaseEvent),
	}
}

// Start emits the first phase and starts ticking. A runner is started once.
func (r *SessionRunner) Start(stepIdx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ph, err := r.seq.Start(stepIdx)
	if err != nil {
		return err
	}

	r.session.StartStep = stepIdx
	r.session.StartedAt = time.Now()
	r.sync()
	r.publish(r.event(EventPhase, domain.HapticPattern(ph.Action)))

	go r.loop()
	return nil
}

func (r *SessionRunner) loop() {
	ticker := r.opts.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			completed, ended := r.tick()
			if !ended {
				continue
			}
			if completed {
				r.awaitDismiss()
			}
			return

		case <-r.ctx.Done():
			return
		}
	}
}

func (r *SessionRunner) tick() (completed, ended bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false, true
	}

	before := r.seq.Phase()
	ph, done := r.seq.Tick()
	r.sync()

	if !done {
		if ph.Action != before.Action || ph.StepIndex != before.StepIndex {
			r.publish(r.event(EventPhase, domain.HapticPattern(ph.Action)))
		} else {
			r.publish(r.event(EventTick, nil))
		}
		return false, false
	}

	r.session.EndedAt = time.Now()
	if r.seq.State() == domain.StateCompleted {
		ev := r.event(EventCompleted, nil)
		fade := domain.DefaultAudioFade
		ev.Fade = &fade
		r.publish(ev)
		return true, true
	}

	r.opts.Logger.Warn("breathing session halted on invalid step",
		"session_id", r.session.ID,
		"step", r.seq.StepIndex(),
	)
	r.publish(r.event(EventHalted, nil))
	r.finish()
	return false, true
}

func (r *SessionRunner) awaitDismiss() {
	timer := time.NewTimer(r.opts.DisplayDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-r.ctx.Done():
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.seq.Dismiss()
	r.sync()
	r.publish(r.event(EventIdle, nil))
	r.finish()
}

// Stop halts ticking synchronously. Stopping a finished runner only
// releases its resources.
func (r *SessionRunner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.stopped = true
	r.cancel()

	if r.finished {
		return
	}
	wasRunning := r.seq.State() == domain.StateRunning
	r.seq.Stop()
	if wasRunning {
		r.session.EndedAt = time.Now()
	}
	r.sync()
	r.publish(r.event(EventStopped, nil))
	r.finish()
}

// Subscribe returns a channel of events and a function that releases it.
// Slow subscribers miss events rather than block the timer. The first value
// is always the current snapshot.
func (r *SessionRunner) Subscribe() (<-chan PhaseEvent, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan PhaseEvent, subscriberBuffer)
	ch <- r.event(EventTick, nil)
	if r.finished {
		close(ch)
		return ch, func() {}
	}

	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
	}
}

// Session returns a snapshot of the session.
func (r *SessionRunner) Session() *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *r.session
	return &copy
}

// Done is closed once the runner will publish nothing more.
func (r *SessionRunner) Done() <-chan struct{} {
	return r.done
}

func (r *SessionRunner) sync() {
	r.session.State = r.seq.State()
	r.session.Reason = r.seq.Reason()
	r.session.Phase = r.seq.Phase()
	r.session.ElapsedSec = r.seq.ElapsedSeconds()
	r.session.TotalSec = r.seq.TotalSeconds()
}

func (r *SessionRunner) event(t EventType, haptic []int) PhaseEvent {
	return PhaseEvent{
		SessionID:  r.session.ID,
		Type:       t,
		State:      r.seq.State(),
		Phase:      r.seq.Phase(),
		ElapsedSec: r.seq.ElapsedSeconds(),
		TotalSec:   r.seq.TotalSeconds(),
		Progress:   r.seq.Progress(),
		Haptic:     haptic,
	}
}

func (r *SessionRunner) publish(ev PhaseEvent) {
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// finish closes every subscriber; callers hold mu.
func (r *SessionRunner) finish() {
	if r.finished {
		return
	}
	r.finished = true
	r.cancel()
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	close(r.done)
}
