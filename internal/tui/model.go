// Package tui is a terminal client that runs breathing patterns from the
// embedded catalog locally.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hperssn/panicbutton/internal/domain"
)

type screen int

const (
	screenList screen = iota
	screenSession
	screenDone
)

// tickMsg and dismissMsg carry the run generation so messages scheduled by
// a stopped run are ignored.
type tickMsg struct{ gen int }
type dismissMsg struct{ gen int }

type Options struct {
	Interval     time.Duration
	DisplayDelay time.Duration
}

type Model struct {
	patterns []domain.BreathingPattern
	cursor   int

	seq    *domain.Sequencer
	screen screen
	gen    int
	notice string

	keys KeyMap
	bar  progress.Model
	opts Options
}

func New(patterns []domain.BreathingPattern, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.DisplayDelay < 0 {
		opts.DisplayDelay = 0
	}
	return Model{
		patterns: patterns,
		keys:     DefaultKeyMap(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		opts:     opts,
	}
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(patterns []domain.BreathingPattern, opts Options) error {
	_, err := tea.NewProgram(New(patterns, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := msg.Width - 10
		if w > 60 {
			w = 60
		}
		if w > 10 {
			m.bar.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if msg.gen != m.gen || m.screen != screenSession {
			return m, nil
		}
		return m.tick()

	case dismissMsg:
		if msg.gen != m.gen || m.screen != screenDone {
			return m, nil
		}
		m.seq.Dismiss()
		m.screen = screenList
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.screen {
	case screenList:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.patterns)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Start):
			return m.start()
		}

	case screenSession, screenDone:
		if key.Matches(msg, m.keys.Stop) {
			m.seq.Stop()
			m.gen++
			m.screen = screenList
			m.notice = ""
		}
	}
	return m, nil
}

func (m Model) start() (tea.Model, tea.Cmd) {
	if len(m.patterns) == 0 {
		return m, nil
	}
	p := m.patterns[m.cursor]
	seq := domain.NewSequencer(&p)
	if _, err := seq.Start(0); err != nil {
		m.notice = err.Error()
		return m, nil
	}

	m.seq = seq
	m.gen++
	m.screen = screenSession
	m.notice = ""
	return m, m.scheduleTick()
}

func (m Model) tick() (tea.Model, tea.Cmd) {
	_, ended := m.seq.Tick()
	if !ended {
		return m, m.scheduleTick()
	}

	if m.seq.State() == domain.StateCompleted {
		m.screen = screenDone
		gen := m.gen
		return m, tea.Tick(m.opts.DisplayDelay, func(time.Time) tea.Msg { return dismissMsg{gen: gen} })
	}

	m.screen = screenList
	m.notice = "Session stopped: the pattern has an invalid step."
	return m, nil
}

func (m Model) scheduleTick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m Model) View() string {
	switch m.screen {
	case screenSession:
		return m.sessionView()
	case screenDone:
		return PanelStyle.Render(
			TitleStyle.Render("Well done") + "\n" +
				m.bar.ViewAs(1) + "\n\n" +
				MutedStyle.Render(fmt.Sprintf("%s complete", m.seq.Pattern().Name)),
		)
	}
	return m.listView()
}

func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("PanicButton"))
	b.WriteString("\n")

	if len(m.patterns) == 0 {
		b.WriteString(MutedStyle.Render("No patterns available."))
	}
	for i, p := range m.patterns {
		line := fmt.Sprintf("%s  %s", p.Name, MutedStyle.Render(formatDuration(p.TotalSeconds())))
		if i == m.cursor {
			b.WriteString(SelectedItemStyle.Render(line))
		} else {
			b.WriteString(ItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + ErrorStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + MutedStyle.Render("↑/↓ choose • enter start • q quit"))
	return b.String()
}

func (m Model) sessionView() string {
	ph := m.seq.Phase()

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.seq.Pattern().Name))
	b.WriteString("\n")
	b.WriteString(actionStyle(ph.Action).Render(actionLabel(ph)))
	b.WriteString("  ")
	b.WriteString(CountdownStyle.Render(fmt.Sprintf("%d", ph.SecondsRemaining)))
	b.WriteString("\n")
	if ph.Cue != "" {
		b.WriteString(MutedStyle.Render(ph.Cue) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.seq.Progress()))
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("%s / %s • s stop",
		formatDuration(m.seq.ElapsedSeconds()), formatDuration(m.seq.TotalSeconds()))))

	return PanelStyle.Render(b.String())
}

func actionLabel(ph domain.SessionPhase) string {
	label := map[domain.Action]string{
		domain.ActionInhale:  "Inhale",
		domain.ActionHold:    "Hold",
		domain.ActionExhale:  "Exhale",
		domain.ActionHoldOut: "Hold",
	}[ph.Action]
	if ph.Method != "" {
		label += " through the " + ph.Method
	}
	return label
}

func formatDuration(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
