package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hperssn/panicbutton/internal/domain"
)

func testPatterns() []domain.BreathingPattern {
	return []domain.BreathingPattern{
		{
			ID:   "short",
			Name: "Short",
			Steps: []domain.PatternStep{
				{Position: 0, Repetitions: 1, Step: &domain.BreathStep{InhaleSeconds: 1, ExhaleSeconds: 2}},
			},
		},
		{
			ID:    "empty",
			Name:  "Empty",
			Steps: nil,
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return nm, cmd
}

func TestModel_RunsToCompletion(t *testing.T) {
	m := New(testPatterns(), Options{})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != screenSession || cmd == nil {
		t.Fatalf("expected session to start")
	}
	if m.seq.Phase().Action != domain.ActionInhale {
		t.Fatalf("first phase = %s", m.seq.Phase().Action)
	}
	if !strings.Contains(m.View(), "Inhale") {
		t.Fatalf("view missing phase label: %q", m.View())
	}

	// inhale 1s + exhale 2s
	for i := 0; i < 3; i++ {
		m, _ = update(t, m, tickMsg{gen: m.gen})
	}
	if m.screen != screenDone || m.seq.State() != domain.StateCompleted {
		t.Fatalf("expected completion screen, got screen=%d state=%s", m.screen, m.seq.State())
	}

	m, _ = update(t, m, dismissMsg{gen: m.gen})
	if m.screen != screenList || m.seq.State() != domain.StateIdle {
		t.Fatalf("expected list after dismiss")
	}
}

func TestModel_StopIgnoresStaleTicks(t *testing.T) {
	m := New(testPatterns(), Options{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	gen := m.gen

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if m.screen != screenList || m.seq.State() != domain.StateIdle {
		t.Fatalf("expected stop to return to list")
	}

	m, cmd := update(t, m, tickMsg{gen: gen})
	if cmd != nil || m.seq.ElapsedSeconds() != 0 {
		t.Fatalf("stale tick should be ignored")
	}
}

func TestModel_EmptyPatternShowsNotice(t *testing.T) {
	m := New(testPatterns(), Options{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.screen != screenList {
		t.Fatalf("empty pattern should not start")
	}
	if !strings.Contains(m.View(), domain.ErrEmptyPattern.Error()) {
		t.Fatalf("view missing notice: %q", m.View())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		sec  int
		want string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{180, "3:00"},
		{605, "10:05"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.sec); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}
