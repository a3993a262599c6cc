package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hperssn/panicbutton/internal/domain"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	name        string
	schema      string
	placeholder func(n int) string
	isUnique    func(err error) bool
}

// sqlRepository implements Repository on database/sql. Queries are written
// with ? placeholders and rebound per dialect.
type sqlRepository struct {
	db *sql.DB
	d  dialect
}

func newSQLRepository(db *sql.DB, d dialect) (*sqlRepository, error) {
	repo := &sqlRepository{db: db, d: d}
	if err := repo.createTables(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *sqlRepository) createTables() error {
	_, err := r.db.Exec(r.d.schema)
	if err != nil {
		return fmt.Errorf("create %s schema: %w", r.d.name, err)
	}
	return nil
}

func (r *sqlRepository) rebind(query string) string {
	if r.d.placeholder == nil {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString(r.d.placeholder(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *sqlRepository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.rebind(query), args...)
}

func (r *sqlRepository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.rebind(query), args...)
}

func (r *sqlRepository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.rebind(query), args...)
}

func (r *sqlRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}

// --- patterns ---

func (r *sqlRepository) ListGoals(ctx context.Context) ([]domain.BreathingGoal, error) {
	rows, err := r.query(ctx, `
		SELECT id, slug, display_name, description
		FROM breathing_goals
		ORDER BY display_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.BreathingGoal
	for rows.Next() {
		var g domain.BreathingGoal
		if err := rows.Scan(&g.ID, &g.Slug, &g.DisplayName, &g.Description); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

const patternColumns = `id, slug, name, description, goal_id, recommended_minutes, cycle_secs, created_at`

func (r *sqlRepository) ListPatterns(ctx context.Context) ([]domain.BreathingPattern, error) {
	rows, err := r.query(ctx, `SELECT `+patternColumns+` FROM breathing_patterns ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	return r.expandPatterns(ctx, rows)
}

func (r *sqlRepository) ListPatternsByGoal(ctx context.Context, goalSlug string) ([]domain.BreathingPattern, error) {
	var goalID string
	err := r.queryRow(ctx, `SELECT id FROM breathing_goals WHERE slug = ?`, goalSlug).Scan(&goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal %q: %w", goalSlug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch goal %q: %w", goalSlug, err)
	}

	rows, err := r.query(ctx, `SELECT `+patternColumns+` FROM breathing_patterns WHERE goal_id = ? ORDER BY name`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list patterns for goal %q: %w", goalSlug, err)
	}
	return r.expandPatterns(ctx, rows)
}

func (r *sqlRepository) FetchPattern(ctx context.Context, id string) (*domain.BreathingPattern, error) {
	row := r.queryRow(ctx, `SELECT `+patternColumns+` FROM breathing_patterns WHERE id = ?`, id)
	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pattern %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch pattern %s: %w", id, err)
	}

	steps, err := r.patternSteps(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Steps = steps
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPattern(s scanner) (*domain.BreathingPattern, error) {
	var p domain.BreathingPattern
	var goalID sql.NullString
	err := s.Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Description,
		&goalID,
		&p.RecommendedMinutes,
		&p.CycleSeconds,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.GoalID = goalID.String
	return &p, nil
}

// expandPatterns consumes rows and loads every pattern's steps.
func (r *sqlRepository) expandPatterns(ctx context.Context, rows *sql.Rows) ([]domain.BreathingPattern, error) {
	var patterns []domain.BreathingPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		patterns = append(patterns, *p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range patterns {
		steps, err := r.patternSteps(ctx, patterns[i].ID)
		if err != nil {
			return nil, err
		}
		patterns[i].Steps = steps
	}
	return patterns, nil
}

func (r *sqlRepository) patternSteps(ctx context.Context, patternID string) ([]domain.PatternStep, error) {
	rows, err := r.query(ctx, `
		SELECT ps.pattern_id, ps.step_id, ps.position, ps.repetitions,
			s.id, s.inhale_method, s.inhale_secs, s.hold_in_secs,
			s.exhale_method, s.exhale_secs, s.hold_out_secs, s.cue_text
		FROM breathing_pattern_steps ps
		LEFT JOIN breathing_steps s ON s.id = ps.step_id
		WHERE ps.pattern_id = ?
		ORDER BY ps.position
	`, patternID)
	if err != nil {
		return nil, fmt.Errorf("fetch steps for pattern %s: %w", patternID, err)
	}
	defer rows.Close()

	var steps []domain.PatternStep
	for rows.Next() {
		var ps domain.PatternStep
		var stepRef, id, inMethod, exMethod, cue sql.NullString
		var reps, in, holdIn, ex, holdOut sql.NullInt64

		err := rows.Scan(
			&ps.PatternID, &stepRef, &ps.Position, &reps,
			&id, &inMethod, &in, &holdIn,
			&exMethod, &ex, &holdOut, &cue,
		)
		if err != nil {
			return nil, err
		}

		ps.StepID = stepRef.String
		ps.Repetitions = 1
		if reps.Valid && reps.Int64 > 0 {
			ps.Repetitions = int(reps.Int64)
		}
		if id.Valid {
			ps.Step = &domain.BreathStep{
				ID:             id.String,
				InhaleMethod:   inMethod.String,
				InhaleSeconds:  int(in.Int64),
				HoldInSeconds:  int(holdIn.Int64),
				ExhaleMethod:   exMethod.String,
				ExhaleSeconds:  int(ex.Int64),
				HoldOutSeconds: int(holdOut.Int64),
				CueText:        cue.String,
			}
		}
		steps = append(steps, ps)
	}
	return steps, rows.Err()
}

// SeedCatalog inserts reference data, leaving existing rows untouched.
func (r *sqlRepository) SeedCatalog(ctx context.Context, goals []domain.BreathingGoal, patterns []domain.BreathingPattern) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, r.rebind(query), args...)
		return err
	}

	for _, g := range goals {
		err := exec(`
			INSERT INTO breathing_goals (id, slug, display_name, description)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`, g.ID, g.Slug, g.DisplayName, g.Description)
		if err != nil {
			return fmt.Errorf("seed goal %s: %w", g.Slug, err)
		}
	}

	now := time.Now().UTC()
	for _, p := range patterns {
		var goalID any
		if p.GoalID != "" {
			goalID = p.GoalID
		}
		created := p.CreatedAt
		if created.IsZero() {
			created = now
		}
		err := exec(`
			INSERT INTO breathing_patterns (`+patternColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`, p.ID, p.Slug, p.Name, p.Description, goalID, p.RecommendedMinutes, p.CycleSeconds, created)
		if err != nil {
			return fmt.Errorf("seed pattern %s: %w", p.Name, err)
		}

		for _, ps := range p.Steps {
			if ps.Step == nil {
				continue
			}
			st := ps.Step
			err := exec(`
				INSERT INTO breathing_steps (id, inhale_method, inhale_secs, hold_in_secs,
					exhale_method, exhale_secs, hold_out_secs, cue_text)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO NOTHING
			`, st.ID, st.InhaleMethod, st.InhaleSeconds, st.HoldInSeconds,
				st.ExhaleMethod, st.ExhaleSeconds, st.HoldOutSeconds, st.CueText)
			if err != nil {
				return fmt.Errorf("seed step %s: %w", st.ID, err)
			}
			err = exec(`
				INSERT INTO breathing_pattern_steps (pattern_id, step_id, position, repetitions)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (pattern_id, position) DO NOTHING
			`, p.ID, st.ID, ps.Position, ps.Reps())
			if err != nil {
				return fmt.Errorf("seed pattern step %s/%d: %w", p.Name, ps.Position, err)
			}
		}
	}

	return tx.Commit()
}

// --- progress ---

func (r *sqlRepository) FetchScores(ctx context.Context, userID string) ([]domain.BoltScore, error) {
	rows, err := r.query(ctx, `
		SELECT id, user_id, score_seconds, created_at
		FROM bolt_scores
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch scores: %w", err)
	}
	defer rows.Close()

	var scores []domain.BoltScore
	for rows.Next() {
		var s domain.BoltScore
		if err := rows.Scan(&s.ID, &s.UserID, &s.ScoreSeconds, &s.CreatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *sqlRepository) InsertScore(ctx context.Context, userID string, seconds int) (*domain.BoltScore, error) {
	s := &domain.BoltScore{
		ID:           uuid.New().String(),
		UserID:       userID,
		ScoreSeconds: seconds,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := r.exec(ctx, `
		INSERT INTO bolt_scores (id, user_id, score_seconds, created_at)
		VALUES (?, ?, ?, ?)
	`, s.ID, s.UserID, s.ScoreSeconds, s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert score: %w", err)
	}
	return s, nil
}

func (r *sqlRepository) UpsertPatternStatus(ctx context.Context, userID, patternID string, at time.Time) (*domain.PatternStatus, error) {
	_, err := r.exec(ctx, `
		INSERT INTO breathing_pattern_status (user_id, pattern_id, last_run, total_runs)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (user_id, pattern_id) DO UPDATE SET
			last_run = excluded.last_run,
			total_runs = breathing_pattern_status.total_runs + 1
	`, userID, patternID, at.UTC())
	if err != nil {
		return nil, fmt.Errorf("upsert pattern status: %w", err)
	}

	st := &domain.PatternStatus{UserID: userID, PatternID: patternID}
	err = r.queryRow(ctx, `
		SELECT last_run, total_runs FROM breathing_pattern_status
		WHERE user_id = ? AND pattern_id = ?
	`, userID, patternID).Scan(&st.LastRun, &st.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("read pattern status: %w", err)
	}
	return st, nil
}

func (r *sqlRepository) ListPatternStatus(ctx context.Context, userID string) ([]domain.PatternStatus, error) {
	rows, err := r.query(ctx, `
		SELECT user_id, pattern_id, last_run, total_runs
		FROM breathing_pattern_status
		WHERE user_id = ?
		ORDER BY last_run DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list pattern status: %w", err)
	}
	defer rows.Close()

	var out []domain.PatternStatus
	for rows.Next() {
		var st domain.PatternStatus
		if err := rows.Scan(&st.UserID, &st.PatternID, &st.LastRun, &st.TotalRuns); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// --- profiles ---

const profileColumns = `id, username, first_name, last_name, date_of_birth, avatar_url, updated_at`

func (r *sqlRepository) CreateProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	p := &domain.Profile{ID: userID, UpdatedAt: time.Now().UTC()}
	_, err := r.exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, '', '', '', '', '', ?)
	`, p.ID, p.UpdatedAt)
	if err != nil {
		if r.d.isUnique(err) {
			return nil, fmt.Errorf("profile %s: %w", userID, ErrDuplicate)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (r *sqlRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.queryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, userID).Scan(
		&p.ID,
		&p.Username,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.AvatarURL,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return &p, nil
}

func (r *sqlRepository) UpdateProfile(ctx context.Context, userID string, u domain.ProfileUpdate) (*domain.Profile, error) {
	var sets []string
	var args []any
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("username", u.Username)
	add("first_name", u.FirstName)
	add("last_name", u.LastName)
	add("date_of_birth", u.DateOfBirth)
	add("avatar_url", u.AvatarURL)

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC(), userID)

		res, err := r.exec(ctx, `UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			if r.d.isUnique(err) {
				return nil, fmt.Errorf("username: %w", ErrDuplicate)
			}
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
		}
	}

	return r.GetProfile(ctx, userID)
}

// --- users ---

func (r *sqlRepository) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if r.d.isUnique(err) {
			return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *sqlRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, `email = ?`, email)
}

func (r *sqlRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, `id = ?`, id)
}

func (r *sqlRepository) getUser(ctx context.Context, where string, arg string) (*domain.User, error) {
	var u domain.User
	err := r.queryRow(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return &u, nil
}

func (r *sqlRepository) UpdateUserEmail(ctx context.Context, id, email string) error {
	return r.updateUser(ctx, "email", email, id)
}

func (r *sqlRepository) UpdateUserPassword(ctx context.Context, id, hash string) error {
	return r.updateUser(ctx, "password_hash", hash, id)
}

func (r *sqlRepository) updateUser(ctx context.Context, col, value, id string) error {
	res, err := r.exec(ctx, `UPDATE users SET `+col+` = ? WHERE id = ?`, value, id)
	if err != nil {
		if r.d.isUnique(err) {
			return fmt.Errorf("%s: %w", col, ErrDuplicate)
		}
		return fmt.Errorf("update user %s: %w", col, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

func dollarPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}
