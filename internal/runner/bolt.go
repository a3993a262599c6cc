package runner

import (
	"context"
	"sync"

	"github.com/hperssn/panicbutton/internal/domain"
)

// BoltSnapshot is the externally visible state of a BOLT measurement.
type BoltSnapshot struct {
	Mode      domain.BoltMode        `json:"mode"`
	Prompt    *domain.TutorialPrompt `json:"prompt,omitempty"`
	Countdown int                    `json:"countdown"`
	Elapsed   int                    `json:"elapsed"`
	Running   bool                   `json:"running"`
	Haptic    []int                  `json:"haptic,omitempty"`
}

// BoltRunner drives one user's BOLT flow. The ticker only runs while the
// flow is in a timed mode; each ticker carries a generation number so a
// tick that races a cancellation is dropped.
type BoltRunner struct {
	mu   sync.Mutex
	flow *domain.BoltFlow
	opts Options

	cancel context.CancelFunc
	gen    int

	subs    map[int]chan BoltSnapshot
	nextSub int
}

func NewBoltRunner(prompts []domain.TutorialPrompt, opts Options) *BoltRunner {
	return &BoltRunner{
		flow: domain.NewBoltFlow(prompts),
		opts: opts.withDefaults(),
		subs: make(map[int]chan BoltSnapshot),
	}
}

// Do applies op to the flow and starts or stops the ticker to match the
// resulting mode.
func (b *BoltRunner) Do(op func(f *domain.BoltFlow) error) (BoltSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := b.flow.Mode
	beforePrompt := b.flow.Prompt
	if err := op(b.flow); err != nil {
		return b.snapshot(nil), err
	}
	b.syncTicker()

	snap := b.snapshot(b.promptHaptic(before, beforePrompt))
	b.publish(snap)
	return snap, nil
}

func (b *BoltRunner) Snapshot() BoltSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot(nil)
}

// Stop cancels the ticker and resets the flow.
func (b *BoltRunner) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTicker()
	b.flow.Cancel()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *BoltRunner) Subscribe() (<-chan BoltSnapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan BoltSnapshot, subscriberBuffer)
	ch <- b.snapshot(nil)

	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

func (b *BoltRunner) syncTicker() {
	timed := b.flow.Timed()
	switch {
	case timed && b.cancel == nil:
		b.gen++
		ctx, cancel := context.WithCancel(context.Background())
		b.cancel = cancel
		go b.loop(ctx, b.gen)
	case !timed && b.cancel != nil:
		b.stopTicker()
	}
}

func (b *BoltRunner) stopTicker() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.gen++
}

func (b *BoltRunner) loop(ctx context.Context, gen int) {
	ticker := b.opts.NewTicker(b.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			if !b.tick(gen) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *BoltRunner) tick(gen int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen {
		return false
	}

	before := b.flow.Mode
	beforePrompt := b.flow.Prompt
	b.flow.Tick()
	b.publish(b.snapshot(b.promptHaptic(before, beforePrompt)))

	if !b.flow.Timed() {
		b.stopTicker()
		return false
	}
	return true
}

// promptHaptic signals the start of a new tutorial prompt.
func (b *BoltRunner) promptHaptic(mode domain.BoltMode, prompt int) []int {
	p, ok := b.flow.CurrentPrompt()
	if !ok || (mode == b.flow.Mode && prompt == b.flow.Prompt) {
		return nil
	}
	return domain.HapticPattern(p.Action)
}

func (b *BoltRunner) snapshot(haptic []int) BoltSnapshot {
	s := BoltSnapshot{
		Mode:      b.flow.Mode,
		Countdown: b.flow.Countdown,
		Elapsed:   b.flow.Elapsed,
		Running:   b.flow.Running,
		Haptic:    haptic,
	}
	if p, ok := b.flow.CurrentPrompt(); ok {
		s.Prompt = &p
	}
	return s
}

func (b *BoltRunner) publish(s BoltSnapshot) {
	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// BoltManager keeps one BoltRunner per user.
type BoltManager struct {
	mu      sync.Mutex
	runners map[string]*BoltRunner
	prompts []domain.TutorialPrompt
	opts    Options
}

func NewBoltManager(prompts []domain.TutorialPrompt, opts Options) *BoltManager {
	return &BoltManager{
		runners: make(map[string]*BoltRunner),
		prompts: prompts,
		opts:    opts,
	}
}

func (m *BoltManager) Runner(userID string) *BoltRunner {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runners[userID]
	if !ok {
		r = NewBoltRunner(m.prompts, m.opts)
		m.runners[userID] = r
	}
	return r
}

func (m *BoltManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.runners {
		r.Stop()
		delete(m.runners, id)
	}
}
