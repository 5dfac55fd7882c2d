// Package redis is a Redis-backed PersistenceGateway. Progression
// records are stored as JSON documents, streaks and achievement
// progress as per-user hashes, and the points ledger as a capped list.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"progresskit/achievement"
	"progresskit/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// LedgerCap bounds the per-user ledger list; 0 keeps everything.
	LedgerCap int64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		LedgerCap:    1000,
	}
}

// Store implements engine.PersistenceGateway on Redis.
// Data structure:
// - user:{user_id}:state -> JSON ProgressionState
// - user:{user_id}:streaks -> hash of {entity_id}|{kind} -> JSON StreakState
// - user:{user_id}:achievements -> hash of achievement id -> JSON Progress
// - user:{user_id}:ledger -> list of JSON LedgerEntry, most recent first
// - user:{user_id}:xp -> int64 running XP total, for leaderboards
type Store struct {
	client    *redis.Client
	ledgerCap int64
}

// New creates a Redis-backed store with the provided configuration.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, ledgerCap: config.LedgerCap}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client, ledgerCap: DefaultConfig().LedgerCap}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func stateKey(user core.UserID) string { return fmt.Sprintf("user:%s:state", user) }

func streaksKey(user core.UserID) string { return fmt.Sprintf("user:%s:streaks", user) }

func achievementsKey(user core.UserID) string { return fmt.Sprintf("user:%s:achievements", user) }

func ledgerKey(user core.UserID) string { return fmt.Sprintf("user:%s:ledger", user) }

func xpKey(user core.UserID) string { return fmt.Sprintf("user:%s:xp", user) }

// streakField addresses one streak inside the user's streak hash.
func streakField(key core.StreakKey) string {
	return fmt.Sprintf("%s|%s", key.EntityID, key.Kind)
}

// Lua script for atomic ledger append: pushes the entry, bumps the
// running XP total with overflow protection, and trims the list.
var appendLedgerScript = redis.NewScript(`
	local ledger_key = KEYS[1]
	local xp_key = KEYS[2]
	local entry = ARGV[1]
	local amount = tonumber(ARGV[2])
	local cap = tonumber(ARGV[3])

	local current = tonumber(redis.call('GET', xp_key) or '0')
	local next_val = current + amount
	if next_val > 9223372036854775807 or next_val < -9223372036854775808 then
		return redis.error_reply('integer overflow')
	end

	redis.call('LPUSH', ledger_key, entry)
	if cap > 0 then
		redis.call('LTRIM', ledger_key, 0, cap - 1)
	end
	redis.call('SET', xp_key, next_val)
	return next_val
`)

func (s *Store) LoadState(ctx context.Context, user core.UserID) (core.ProgressionState, bool, error) {
	data, err := s.client.Get(ctx, stateKey(user)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.ProgressionState{}, false, nil
	}
	if err != nil {
		return core.ProgressionState{}, false, fmt.Errorf("failed to load state: %w", err)
	}

	var state core.ProgressionState
	if err := json.Unmarshal(data, &state); err != nil {
		return core.ProgressionState{}, false, fmt.Errorf("corrupt state for %s: %w", user, err)
	}
	return state, true, nil
}

func (s *Store) SaveState(ctx context.Context, state core.ProgressionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, stateKey(state.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *Store) LoadStreak(ctx context.Context, key core.StreakKey) (core.StreakState, bool, error) {
	data, err := s.client.HGet(ctx, streaksKey(key.UserID), streakField(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.StreakState{}, false, nil
	}
	if err != nil {
		return core.StreakState{}, false, fmt.Errorf("failed to load streak: %w", err)
	}

	var state core.StreakState
	if err := json.Unmarshal(data, &state); err != nil {
		return core.StreakState{}, false, fmt.Errorf("corrupt streak for %s: %w", key.UserID, err)
	}
	return state, true, nil
}

func (s *Store) SaveStreak(ctx context.Context, state core.StreakState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, streaksKey(state.Key.UserID), streakField(state.Key), data).Err(); err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}

func (s *Store) ListStreaks(ctx context.Context, user core.UserID) ([]core.StreakState, error) {
	fields, err := s.client.HGetAll(ctx, streaksKey(user)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}

	out := make([]core.StreakState, 0, len(fields))
	for _, raw := range fields {
		var state core.StreakState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			continue // skip corrupt entries
		}
		out = append(out, state)
	}
	return out, nil
}

func (s *Store) LoadAchievementProgress(ctx context.Context, user core.UserID) (map[string]achievement.Progress, error) {
	fields, err := s.client.HGetAll(ctx, achievementsKey(user)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement progress: %w", err)
	}

	out := make(map[string]achievement.Progress, len(fields))
	for id, raw := range fields {
		var p achievement.Progress
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		out[id] = p
	}
	return out, nil
}

func (s *Store) SaveAchievementProgress(ctx context.Context, progress achievement.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	key := achievementsKey(progress.UserID)
	if err := s.client.HSet(ctx, key, progress.AchievementID, data).Err(); err != nil {
		return fmt.Errorf("failed to save achievement progress: %w", err)
	}
	return nil
}

func (s *Store) AppendLedger(ctx context.Context, entry core.LedgerEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	keys := []string{ledgerKey(entry.UserID), xpKey(entry.UserID)}
	if err := appendLedgerScript.Run(ctx, s.client, keys, data, entry.Amount, s.ledgerCap).Err(); err != nil {
		return fmt.Errorf("failed to append ledger: %w", err)
	}
	return nil
}

func (s *Store) ListLedger(ctx context.Context, user core.UserID, limit int) ([]core.LedgerEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raws, err := s.client.LRange(ctx, ledgerKey(user), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", err)
	}

	out := make([]core.LedgerEntry, 0, len(raws))
	for _, raw := range raws {
		var entry core.LedgerEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// XPTotal returns the running XP counter maintained by AppendLedger,
// used by leaderboard rebuilds.
func (s *Store) XPTotal(ctx context.Context, user core.UserID) (int64, error) {
	total, err := s.client.Get(ctx, xpKey(user)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return total, err
}
