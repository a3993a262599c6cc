package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hperssn/panicbutton/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if len(c.Goals) != 3 {
		t.Fatalf("goals = %d, want 3", len(c.Goals))
	}
	p, ok := c.Pattern("panic-relief")
	if !ok {
		t.Fatalf("expected panic-relief pattern")
	}
	if p.Steps[0].Reps() != 1 {
		t.Fatalf("panic-relief repetitions = %d, want 1", p.Steps[0].Reps())
	}
	if p.TotalSeconds() != 10 || p.CycleSeconds != 10 {
		t.Fatalf("panic-relief total/cycle = %d/%d, want 10/10", p.TotalSeconds(), p.CycleSeconds)
	}

	coherent, _ := c.Pattern("coherent")
	if len(coherent.Steps) != 2 || coherent.Steps[1].Repetitions != 30 {
		t.Fatalf("unexpected coherent pattern: %+v", coherent.Steps)
	}
}

func TestPanicReliefRunsOneCycle(t *testing.T) {
	p, _ := Default().Pattern("panic-relief")
	seq := domain.NewSequencer(p)
	if _, err := seq.Start(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inhales, ticks := 1, 0
	for {
		ticks++
		if ticks > 1000 {
			t.Fatalf("session did not finish")
		}
		ph, done := seq.Tick()
		if done {
			break
		}
		if ph.Action == domain.ActionInhale && ph.SecondsRemaining == ph.Seconds {
			inhales++
		}
	}
	if inhales != 1 || ticks != 10 {
		t.Fatalf("inhales/ticks = %d/%d, want 1/10", inhales, ticks)
	}
}

func TestCatalogIDsAreStable(t *testing.T) {
	a, _ := Default().Pattern("box")
	b, _ := Default().Pattern("box")
	if a.ID != b.ID || a.Steps[0].StepID != b.Steps[0].StepID {
		t.Fatalf("ids differ between loads: %s vs %s", a.ID, b.ID)
	}
}

func TestCatalogPatternIsCopy(t *testing.T) {
	c := Default()
	p, _ := c.Pattern("box")
	p.Steps[0].Step.InhaleSeconds = 99

	again, _ := c.Pattern("box")
	if again.Steps[0].Step.InhaleSeconds != 4 {
		t.Fatalf("catalog was mutated through a returned pattern")
	}
}

func TestCatalogListByGoal(t *testing.T) {
	c := Default()

	focus := c.List("focus")
	if len(focus) != 2 {
		t.Fatalf("focus patterns = %d, want 2", len(focus))
	}
	if focus[0].Name != "Box breathing" {
		t.Fatalf("expected name ordering, got %s first", focus[0].Name)
	}
	if got := c.List("missing"); got != nil {
		t.Fatalf("unknown goal should return nil, got %d", len(got))
	}
	if all := c.List(""); len(all) != 4 {
		t.Fatalf("all patterns = %d, want 4", len(all))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown goal", "patterns:\n  - slug: x\n    goal: nope\n    steps:\n      - {inhale: 1, exhale: 1}\n"},
		{"no steps", "patterns:\n  - slug: x\n"},
		{"bad step", "patterns:\n  - slug: x\n    steps:\n      - {inhale: 0, exhale: 1}\n"},
		{"duplicate", "patterns:\n  - slug: x\n    steps: [{inhale: 1, exhale: 1}]\n  - slug: x\n    steps: [{inhale: 1, exhale: 1}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	_, err := Parse([]byte("patterns:\n  - slug: x\n"))
	if !errors.Is(err, domain.ErrEmptyPattern) {
		t.Fatalf("error = %v, want ErrEmptyPattern", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	data := "patterns:\n  - slug: quick\n    name: Quick\n    steps:\n      - {inhale: 2, exhale: 2, repetitions: 2}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := c.Pattern("quick")
	if !ok || p.TotalSeconds() != 8 {
		t.Fatalf("unexpected pattern: %+v", p)
	}
}
