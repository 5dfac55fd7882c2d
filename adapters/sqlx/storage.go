// Package sqlx is a SQL-backed PersistenceGateway built on jmoiron/sqlx.
// Postgres is the supported driver; day-valued columns are stored as
// ISO YYYY-MM-DD text so they survive round-trips without timezone
// drift.
package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"progresskit/achievement"
	"progresskit/core"
)

// Driver identifies the SQL dialect.
type Driver string

const DriverPostgres Driver = "postgres"

// Config holds SQL connection configuration.
type Config struct {
	Driver          Driver
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "postgres://localhost:5432/progresskit?sslmode=disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements engine.PersistenceGateway on a SQL database.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a connection pool and verifies it.
func New(cfg Config) (*Store, error) {
	if cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB wraps an existing database handle (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS progression_states (
		user_id            TEXT PRIMARY KEY,
		total_xp           BIGINT NOT NULL DEFAULT 0,
		level              INTEGER NOT NULL DEFAULT 1,
		current_xp         BIGINT NOT NULL DEFAULT 0,
		prestige_level     INTEGER NOT NULL DEFAULT 0,
		title              TEXT NOT NULL DEFAULT '',
		habits_completed   BIGINT NOT NULL DEFAULT 0,
		tasks_completed    BIGINT NOT NULL DEFAULT 0,
		goals_achieved     BIGINT NOT NULL DEFAULT 0,
		days_active        BIGINT NOT NULL DEFAULT 0,
		amount_accumulated DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_active_day    TEXT NOT NULL DEFAULT '',
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS streaks (
		user_id       TEXT NOT NULL,
		entity_id     TEXT NOT NULL,
		kind          TEXT NOT NULL,
		current       INTEGER NOT NULL DEFAULT 0,
		longest       INTEGER NOT NULL DEFAULT 0,
		last_activity TEXT NOT NULL DEFAULT '',
		streak_start  TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, entity_id, kind)
	)`,
	`CREATE TABLE IF NOT EXISTS achievement_progress (
		user_id           TEXT NOT NULL,
		achievement_id    TEXT NOT NULL,
		current           DOUBLE PRECISION NOT NULL DEFAULT 0,
		target            DOUBLE PRECISION NOT NULL DEFAULT 0,
		unlocked          BOOLEAN NOT NULL DEFAULT FALSE,
		unlocked_at       TIMESTAMPTZ,
		notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (user_id, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS points_ledger (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		source     TEXT NOT NULL,
		amount     BIGINT NOT NULL,
		multiplier DOUBLE PRECISION NOT NULL,
		bonus      BIGINT NOT NULL,
		entity_id  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_points_ledger_user ON points_ledger (user_id, created_at DESC)`,
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func dayString(d core.Day) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func parseDay(s string) core.Day {
	if s == "" {
		return core.Day{}
	}
	d, err := core.ParseDay(s)
	if err != nil {
		return core.Day{}
	}
	return d
}

type stateRow struct {
	UserID            string    `db:"user_id"`
	TotalXP           int64     `db:"total_xp"`
	Level             int       `db:"level"`
	CurrentXP         int64     `db:"current_xp"`
	PrestigeLevel     int       `db:"prestige_level"`
	Title             string    `db:"title"`
	HabitsCompleted   int64     `db:"habits_completed"`
	TasksCompleted    int64     `db:"tasks_completed"`
	GoalsAchieved     int64     `db:"goals_achieved"`
	DaysActive        int64     `db:"days_active"`
	AmountAccumulated float64   `db:"amount_accumulated"`
	LastActiveDay     string    `db:"last_active_day"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (s *Store) LoadState(ctx context.Context, user core.UserID) (core.ProgressionState, bool, error) {
	var row stateRow
	err := s.db.GetContext(ctx, &row,
		`SELECT user_id, total_xp, level, current_xp, prestige_level, title,
		        habits_completed, tasks_completed, goals_achieved, days_active,
		        amount_accumulated, last_active_day, updated_at
		 FROM progression_states WHERE user_id = $1`, user)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ProgressionState{}, false, nil
	}
	if err != nil {
		return core.ProgressionState{}, false, fmt.Errorf("failed to load state: %w", err)
	}

	return core.ProgressionState{
		UserID:            core.UserID(row.UserID),
		TotalXP:           row.TotalXP,
		Level:             row.Level,
		CurrentXP:         row.CurrentXP,
		PrestigeLevel:     row.PrestigeLevel,
		Title:             row.Title,
		HabitsCompleted:   row.HabitsCompleted,
		TasksCompleted:    row.TasksCompleted,
		GoalsAchieved:     row.GoalsAchieved,
		DaysActive:        row.DaysActive,
		AmountAccumulated: row.AmountAccumulated,
		LastActiveDay:     parseDay(row.LastActiveDay),
		Updated:           row.UpdatedAt,
	}, true, nil
}

func (s *Store) SaveState(ctx context.Context, state core.ProgressionState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progression_states
		   (user_id, total_xp, level, current_xp, prestige_level, title,
		    habits_completed, tasks_completed, goals_achieved, days_active,
		    amount_accumulated, last_active_day, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (user_id) DO UPDATE SET
		   total_xp = EXCLUDED.total_xp,
		   level = EXCLUDED.level,
		   current_xp = EXCLUDED.current_xp,
		   prestige_level = EXCLUDED.prestige_level,
		   title = EXCLUDED.title,
		   habits_completed = EXCLUDED.habits_completed,
		   tasks_completed = EXCLUDED.tasks_completed,
		   goals_achieved = EXCLUDED.goals_achieved,
		   days_active = EXCLUDED.days_active,
		   amount_accumulated = EXCLUDED.amount_accumulated,
		   last_active_day = EXCLUDED.last_active_day,
		   updated_at = EXCLUDED.updated_at`,
		state.UserID, state.TotalXP, state.Level, state.CurrentXP, state.PrestigeLevel,
		state.Title, state.HabitsCompleted, state.TasksCompleted, state.GoalsAchieved,
		state.DaysActive, state.AmountAccumulated, dayString(state.LastActiveDay), state.Updated)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

type streakRow struct {
	UserID       string `db:"user_id"`
	EntityID     string `db:"entity_id"`
	Kind         string `db:"kind"`
	Current      int    `db:"current"`
	Longest      int    `db:"longest"`
	LastActivity string `db:"last_activity"`
	StreakStart  string `db:"streak_start"`
}

func (r streakRow) toState() core.StreakState {
	return core.StreakState{
		Key: core.StreakKey{
			UserID:   core.UserID(r.UserID),
			EntityID: core.EntityID(r.EntityID),
			Kind:     core.EntityKind(r.Kind),
		},
		Current:      r.Current,
		Longest:      r.Longest,
		LastActivity: parseDay(r.LastActivity),
		StreakStart:  parseDay(r.StreakStart),
	}
}

func (s *Store) LoadStreak(ctx context.Context, key core.StreakKey) (core.StreakState, bool, error) {
	var row streakRow
	err := s.db.GetContext(ctx, &row,
		`SELECT user_id, entity_id, kind, current, longest, last_activity, streak_start
		 FROM streaks WHERE user_id = $1 AND entity_id = $2 AND kind = $3`,
		key.UserID, key.EntityID, key.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StreakState{}, false, nil
	}
	if err != nil {
		return core.StreakState{}, false, fmt.Errorf("failed to load streak: %w", err)
	}
	return row.toState(), true, nil
}

func (s *Store) SaveStreak(ctx context.Context, state core.StreakState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO streaks (user_id, entity_id, kind, current, longest, last_activity, streak_start)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, entity_id, kind) DO UPDATE SET
		   current = EXCLUDED.current,
		   longest = EXCLUDED.longest,
		   last_activity = EXCLUDED.last_activity,
		   streak_start = EXCLUDED.streak_start`,
		state.Key.UserID, state.Key.EntityID, state.Key.Kind,
		state.Current, state.Longest, dayString(state.LastActivity), dayString(state.StreakStart))
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}

func (s *Store) ListStreaks(ctx context.Context, user core.UserID) ([]core.StreakState, error) {
	var rows []streakRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, entity_id, kind, current, longest, last_activity, streak_start
		 FROM streaks WHERE user_id = $1`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}
	out := make([]core.StreakState, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toState())
	}
	return out, nil
}

type progressRow struct {
	UserID           string       `db:"user_id"`
	AchievementID    string       `db:"achievement_id"`
	Current          float64      `db:"current"`
	Target           float64      `db:"target"`
	Unlocked         bool         `db:"unlocked"`
	UnlockedAt       sql.NullTime `db:"unlocked_at"`
	NotificationSent bool         `db:"notification_sent"`
}

func (s *Store) LoadAchievementProgress(ctx context.Context, user core.UserID) (map[string]achievement.Progress, error) {
	var rows []progressRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, achievement_id, current, target, unlocked, unlocked_at, notification_sent
		 FROM achievement_progress WHERE user_id = $1`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement progress: %w", err)
	}

	out := make(map[string]achievement.Progress, len(rows))
	for _, r := range rows {
		p := achievement.Progress{
			UserID:           core.UserID(r.UserID),
			AchievementID:    r.AchievementID,
			Current:          r.Current,
			Target:           r.Target,
			Unlocked:         r.Unlocked,
			NotificationSent: r.NotificationSent,
		}
		if r.UnlockedAt.Valid {
			p.UnlockedAt = r.UnlockedAt.Time
		}
		out[r.AchievementID] = p
	}
	return out, nil
}

func (s *Store) SaveAchievementProgress(ctx context.Context, progress achievement.Progress) error {
	var unlockedAt sql.NullTime
	if !progress.UnlockedAt.IsZero() {
		unlockedAt = sql.NullTime{Time: progress.UnlockedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO achievement_progress
		   (user_id, achievement_id, current, target, unlocked, unlocked_at, notification_sent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, achievement_id) DO UPDATE SET
		   current = EXCLUDED.current,
		   target = EXCLUDED.target,
		   unlocked = EXCLUDED.unlocked,
		   unlocked_at = EXCLUDED.unlocked_at,
		   notification_sent = EXCLUDED.notification_sent`,
		progress.UserID, progress.AchievementID, progress.Current, progress.Target,
		progress.Unlocked, unlockedAt, progress.NotificationSent)
	if err != nil {
		return fmt.Errorf("failed to save achievement progress: %w", err)
	}
	return nil
}

func (s *Store) AppendLedger(ctx context.Context, entry core.LedgerEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO points_ledger (id, user_id, source, amount, multiplier, bonus, entity_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.UserID, entry.Source, entry.Amount, entry.Multiplier,
		entry.Bonus, entry.EntityID, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append ledger: %w", err)
	}
	return nil
}

type ledgerRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Source     string    `db:"source"`
	Amount     int64     `db:"amount"`
	Multiplier float64   `db:"multiplier"`
	Bonus      int64     `db:"bonus"`
	EntityID   string    `db:"entity_id"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *Store) ListLedger(ctx context.Context, user core.UserID, limit int) ([]core.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []ledgerRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, user_id, source, amount, multiplier, bonus, entity_id, created_at
		 FROM points_ledger WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`, user, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}

	out := make([]core.LedgerEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.LedgerEntry{
			ID:         r.ID,
			UserID:     core.UserID(r.UserID),
			Source:     core.ActionSource(r.Source),
			Amount:     r.Amount,
			Multiplier: r.Multiplier,
			Bonus:      r.Bonus,
			EntityID:   core.EntityID(r.EntityID),
			Timestamp:  r.CreatedAt,
		})
	}
	return out, nil
}
