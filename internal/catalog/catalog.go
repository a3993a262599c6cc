// Package catalog holds the built-in breathing patterns. They back the
// static pattern source and seed the relational store.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hperssn/panicbutton/internal/domain"
)

//go:embed patterns.yaml
var defaultYAML []byte

// namespace for deterministic ids so seeding the same catalog twice
// produces the same rows.
var namespace = uuid.MustParse("6f0d3c1e-8a4b-4f7e-9c2d-5b1a0e9f3d77")

type fileGoal struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type fileStep struct {
	domain.BreathStep `yaml:",inline"`
	Repetitions       int `yaml:"repetitions"`
}

type filePattern struct {
	Slug               string     `yaml:"slug"`
	Name               string     `yaml:"name"`
	Goal               string     `yaml:"goal"`
	Description        string     `yaml:"description"`
	RecommendedMinutes int        `yaml:"recommended_minutes"`
	Steps              []fileStep `yaml:"steps"`
}

type file struct {
	Goals    []fileGoal    `yaml:"goals"`
	Patterns []filePattern `yaml:"patterns"`
}

// Catalog is an immutable set of goals and fully expanded patterns.
type Catalog struct {
	Goals    []domain.BreathingGoal
	Patterns []domain.BreathingPattern

	bySlug map[string]int
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a YAML file, or the embedded one when path is
// empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var raw file
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{bySlug: make(map[string]int)}
	goalIDs := make(map[string]string)
	for _, g := range raw.Goals {
		if g.Slug == "" {
			return nil, fmt.Errorf("%w: goal without slug", domain.ErrInvalidInput)
		}
		id := stableID("goal", g.Slug)
		goalIDs[g.Slug] = id
		c.Goals = append(c.Goals, domain.BreathingGoal{
			ID:          id,
			Slug:        g.Slug,
			DisplayName: g.Name,
			Description: g.Description,
		})
	}

	for _, fp := range raw.Patterns {
		if fp.Slug == "" {
			return nil, fmt.Errorf("%w: pattern without slug", domain.ErrInvalidInput)
		}
		if _, dup := c.bySlug[fp.Slug]; dup {
			return nil, fmt.Errorf("%w: duplicate pattern %q", domain.ErrInvalidInput, fp.Slug)
		}
		goalID := ""
		if fp.Goal != "" {
			var ok bool
			if goalID, ok = goalIDs[fp.Goal]; !ok {
				return nil, fmt.Errorf("%w: pattern %q references unknown goal %q", domain.ErrInvalidInput, fp.Slug, fp.Goal)
			}
		}

		p := domain.BreathingPattern{
			ID:                 stableID("pattern", fp.Slug),
			Slug:               fp.Slug,
			Name:               fp.Name,
			Description:        fp.Description,
			GoalID:             goalID,
			RecommendedMinutes: fp.RecommendedMinutes,
		}
		for i, fs := range fp.Steps {
			st := fs.BreathStep
			if err := st.Validate(); err != nil {
				return nil, fmt.Errorf("pattern %q step %d: %w", fp.Slug, i, err)
			}
			st.ID = stableID("step", fmt.Sprintf("%s/%d", fp.Slug, i))
			p.Steps = append(p.Steps, domain.PatternStep{
				PatternID:   p.ID,
				StepID:      st.ID,
				Position:    i,
				Repetitions: fs.Repetitions,
				Step:        &st,
			})
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", fp.Slug, err)
		}
		if p.CycleSeconds == 0 && len(p.Steps) == 1 {
			p.CycleSeconds = p.Steps[0].Step.CycleSeconds()
		}

		c.bySlug[fp.Slug] = len(c.Patterns)
		c.Patterns = append(c.Patterns, p)
	}

	return c, nil
}

// Pattern returns a copy of the pattern with the given slug so callers can
// never mutate the catalog.
func (c *Catalog) Pattern(slug string) (*domain.BreathingPattern, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return nil, false
	}
	return clonePattern(c.Patterns[i]), true
}

// List returns patterns sorted by name, optionally restricted to a goal slug.
func (c *Catalog) List(goalSlug string) []domain.BreathingPattern {
	goalID := ""
	if goalSlug != "" {
		for _, g := range c.Goals {
			if g.Slug == goalSlug {
				goalID = g.ID
			}
		}
		if goalID == "" {
			return nil
		}
	}

	var out []domain.BreathingPattern
	for _, p := range c.Patterns {
		if goalID != "" && p.GoalID != goalID {
			continue
		}
		out = append(out, *clonePattern(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func clonePattern(p domain.BreathingPattern) *domain.BreathingPattern {
	cp := p
	cp.Steps = make([]domain.PatternStep, len(p.Steps))
	for i, ps := range p.Steps {
		cp.Steps[i] = ps
		if ps.Step != nil {
			st := *ps.Step
			cp.Steps[i].Step = &st
		}
	}
	return &cp
}

func stableID(kind, key string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key)).String()
}
