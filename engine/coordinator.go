package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"progresskit/achievement"
	"progresskit/clock"
	"progresskit/core"
	"progresskit/level"
	"progresskit/points"
	"progresskit/streak"
)

// lockStripes bounds the number of per-user mutexes. Users hashing to
// the same stripe serialize against each other, which is harmless.
const lockStripes = 128

// Result describes every state delta produced by one processed action,
// for UI and notification consumption.
type Result struct {
	Entry         core.LedgerEntry      `json:"entry"`
	State         core.ProgressionState `json:"state"`
	EntityStreak  *core.StreakState     `json:"entity_streak,omitempty"`
	OverallStreak core.StreakState      `json:"overall_streak"`
	LevelUps      []level.LevelUpEvent  `json:"level_ups,omitempty"`
	Unlocks       []achievement.Unlock  `json:"unlocks,omitempty"`
	Events        []core.Event          `json:"events"`
}

// Coordinator receives user actions and drives the progression
// engines in a fixed order: points, streaks, level, achievements.
// Actions for one user are serialized; different users proceed in
// parallel. Nothing is published until every record has been saved.
type Coordinator struct {
	gateway  PersistenceGateway
	notifier NotificationGateway
	bus      *EventBus
	points   *points.Engine
	achiev   *achievement.Engine
	clk      clock.Clock
	logger   *slog.Logger

	locks [lockStripes]sync.Mutex
}

// NewCoordinator wires the engines together. gateway, bus and clk are
// required; notifier may be nil when no notification channel exists.
func NewCoordinator(
	gateway PersistenceGateway,
	bus *EventBus,
	pointsEngine *points.Engine,
	achievEngine *achievement.Engine,
	clk clock.Clock,
	notifier NotificationGateway,
	logger *slog.Logger,
) *Coordinator {
	if gateway == nil || bus == nil || pointsEngine == nil || achievEngine == nil || clk == nil {
		panic("NewCoordinator requires non-nil gateway, bus, engines, and clock")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		gateway:  gateway,
		notifier: notifier,
		bus:      bus,
		points:   pointsEngine,
		achiev:   achievEngine,
		clk:      clk,
		logger:   logger,
	}
}

func (c *Coordinator) lockFor(user core.UserID) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(user))
	return &c.locks[h.Sum32()%lockStripes]
}

// Process applies one action end to end and returns the consolidated
// deltas. On a persistence failure nothing is published or notified
// and loaded state is discarded, so storage and memory cannot diverge.
// Re-processing a structurally identical action is safe: the same-day
// streak guard and the unlocked-achievement guard absorb replays.
func (c *Coordinator) Process(ctx context.Context, action core.Action) (Result, error) {
	user, err := core.NormalizeUserID(action.UserID)
	if err != nil {
		return Result{}, err
	}
	if err := core.ValidateSource(action.Source); err != nil {
		return Result{}, err
	}
	action.UserID = user

	mu := c.lockFor(user)
	mu.Lock()
	defer mu.Unlock()

	now := c.clk.Now()
	occurred := action.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	day := c.clk.Day(occurred)

	// Load everything up front; all mutations below act on copies.
	state, found, err := c.gateway.LoadState(ctx, user)
	if err != nil {
		return Result{}, fmt.Errorf("load state: %w", err)
	}
	if !found {
		state = core.NewProgressionState(user)
	}

	overall, _, err := c.gateway.LoadStreak(ctx, core.OverallStreakKey(user))
	if err != nil {
		return Result{}, fmt.Errorf("load overall streak: %w", err)
	}
	overall.Key = core.OverallStreakKey(user)

	var entity *core.StreakState
	if action.EntityID != "" {
		key := core.StreakKey{UserID: user, EntityID: action.EntityID, Kind: action.Kind}
		es, _, err := c.gateway.LoadStreak(ctx, key)
		if err != nil {
			return Result{}, fmt.Errorf("load streak: %w", err)
		}
		es.Key = key
		entity = &es
	}

	progress, err := c.gateway.LoadAchievementProgress(ctx, user)
	if err != nil {
		return Result{}, fmt.Errorf("load achievement progress: %w", err)
	}

	// Points first, against the streak as it stood before this action.
	streakBefore := overall.Current
	if entity != nil {
		streakBefore = entity.Current
	}
	entry := c.points.Award(action, points.Context{
		Level:            state.Level,
		Streak:           streakBefore,
		OnTime:           action.OnTime,
		ConsistencyRatio: action.ConsistencyRatio,
	}, now)

	// Streaks second.
	var events []core.Event
	if entity != nil {
		updated, counted := streak.Record(*entity, day)
		*entity = updated
		if counted {
			events = append(events, core.NewStreakExtended(now, updated))
		}
	}
	overall, overallCounted := streak.Record(overall, day)
	if overallCounted {
		events = append(events, core.NewStreakExtended(now, overall))
	}

	// Level third.
	state, levelUps := level.AddXP(state, entry.Amount)

	// Lifetime totals.
	switch action.Source {
	case core.SourceHabitCompleted:
		state.HabitsCompleted++
	case core.SourceTaskCompleted:
		state.TasksCompleted++
	case core.SourceGoalAchieved:
		state.GoalsAchieved++
		state.AmountAccumulated += action.Amount
	}
	if overallCounted {
		state.DaysActive++
		state.LastActiveDay = day
	}
	state.Updated = now

	// Achievements last, over the fully updated snapshot.
	snap := achievement.Snapshot{
		State:         state,
		CurrentStreak: maxStreak(entity, overall),
		LongestStreak: maxLongest(entity, overall),
	}
	progress, unlocks := c.achiev.Evaluate(snap, progress, now)

	// Achievement rewards feed back into XP exactly once, this pass.
	var rewardXP int64
	for _, u := range unlocks {
		rewardXP += u.Definition.RewardXP
	}
	if rewardXP > 0 {
		var more []level.LevelUpEvent
		state, more = level.AddXP(state, rewardXP)
		levelUps = append(levelUps, more...)
	}

	// Persist before anything observable happens.
	if err := c.gateway.SaveState(ctx, state); err != nil {
		return Result{}, fmt.Errorf("save state: %w", err)
	}
	if entity != nil {
		if err := c.gateway.SaveStreak(ctx, *entity); err != nil {
			return Result{}, fmt.Errorf("save streak: %w", err)
		}
	}
	if err := c.gateway.SaveStreak(ctx, overall); err != nil {
		return Result{}, fmt.Errorf("save overall streak: %w", err)
	}
	for _, p := range progress {
		if err := c.gateway.SaveAchievementProgress(ctx, p); err != nil {
			return Result{}, fmt.Errorf("save achievement progress: %w", err)
		}
	}
	if err := c.gateway.AppendLedger(ctx, entry); err != nil {
		return Result{}, fmt.Errorf("append ledger: %w", err)
	}

	events = append([]core.Event{core.NewPointsAwarded(now, entry, state.TotalXP)}, events...)
	for _, lu := range levelUps {
		events = append(events, core.NewLevelUp(now, user, lu.Level, lu.Title))
	}
	for _, u := range unlocks {
		events = append(events, core.NewAchievementUnlocked(now, user, u.Definition.ID, string(u.Definition.Rarity)))
	}
	for _, ev := range events {
		c.bus.Publish(ctx, ev)
	}

	c.notify(ctx, user, events, progress)

	return Result{
		Entry:         entry,
		State:         state,
		EntityStreak:  entity,
		OverallStreak: overall,
		LevelUps:      levelUps,
		Unlocks:       unlocks,
		Events:        events,
	}, nil
}

// notify delivers level-up and unlock notifications. Failures are
// logged and never surface to the caller; the notification-sent flag
// is a best-effort write.
func (c *Coordinator) notify(ctx context.Context, user core.UserID, events []core.Event, progress map[string]achievement.Progress) {
	if c.notifier == nil {
		return
	}
	for _, ev := range events {
		switch ev.Type {
		case core.EventLevelUp:
			if err := c.notifier.NotifyLevelUp(ctx, ev); err != nil {
				c.logger.Warn("level-up notification failed", "user_id", string(user), "error", err)
			}
		case core.EventAchievementUnlocked:
			if err := c.notifier.NotifyAchievementUnlocked(ctx, ev); err != nil {
				c.logger.Warn("achievement notification failed",
					"user_id", string(user), "achievement_id", ev.AchievementID, "error", err)
				continue
			}
			if p, ok := progress[ev.AchievementID]; ok && !p.NotificationSent {
				p.NotificationSent = true
				if err := c.gateway.SaveAchievementProgress(ctx, p); err != nil {
					c.logger.Warn("notification flag save failed",
						"user_id", string(user), "achievement_id", ev.AchievementID, "error", err)
				}
			}
		}
	}
}

// Prestige resets the user's level counter once past the threshold.
func (c *Coordinator) Prestige(ctx context.Context, user core.UserID) (core.ProgressionState, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return core.ProgressionState{}, err
	}

	mu := c.lockFor(user)
	mu.Lock()
	defer mu.Unlock()

	state, found, err := c.gateway.LoadState(ctx, user)
	if err != nil {
		return core.ProgressionState{}, fmt.Errorf("load state: %w", err)
	}
	if !found {
		return core.ProgressionState{}, level.ErrPrestigeUnavailable
	}

	state, err = level.Prestige(state)
	if err != nil {
		return core.ProgressionState{}, err
	}
	state.Updated = c.clk.Now()

	if err := c.gateway.SaveState(ctx, state); err != nil {
		return core.ProgressionState{}, fmt.Errorf("save state: %w", err)
	}
	c.bus.Publish(ctx, core.NewPrestige(c.clk.Now(), user, state.PrestigeLevel))
	return state, nil
}

// State returns the user's progression snapshot.
func (c *Coordinator) State(ctx context.Context, user core.UserID) (core.ProgressionState, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return core.ProgressionState{}, err
	}
	state, found, err := c.gateway.LoadState(ctx, user)
	if err != nil {
		return core.ProgressionState{}, err
	}
	if !found {
		return core.NewProgressionState(user), nil
	}
	return state, nil
}

// Achievements returns the user's progress records alongside the
// catalog definitions visible to them.
func (c *Coordinator) Achievements(ctx context.Context, user core.UserID) ([]achievement.Definition, map[string]achievement.Progress, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, nil, err
	}
	progress, err := c.gateway.LoadAchievementProgress(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	unlocked := make(map[string]bool, len(progress))
	for id, p := range progress {
		unlocked[id] = p.Unlocked
	}
	return c.achiev.Catalog().Visible(unlocked), progress, nil
}

// Streaks returns every streak recorded for the user.
func (c *Coordinator) Streaks(ctx context.Context, user core.UserID) ([]core.StreakState, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	return c.gateway.ListStreaks(ctx, user)
}

// Ledger returns the most recent award entries for the user.
func (c *Coordinator) Ledger(ctx context.Context, user core.UserID, limit int) ([]core.LedgerEntry, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	return c.gateway.ListLedger(ctx, user, limit)
}

// SweepContinuity breaks every streak of the user that missed a day as
// of the clock's current day, publishing a streak-broken event for
// each. Intended for a scheduled job.
func (c *Coordinator) SweepContinuity(ctx context.Context, user core.UserID) (int, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return 0, err
	}

	mu := c.lockFor(user)
	mu.Lock()
	defer mu.Unlock()

	today := c.clk.Day(c.clk.Now())
	streaks, err := c.gateway.ListStreaks(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("list streaks: %w", err)
	}

	broken := 0
	for _, s := range streaks {
		if s.Current == 0 || streak.Continuity(s, today) {
			continue
		}
		s = streak.Reset(s, today)
		if err := c.gateway.SaveStreak(ctx, s); err != nil {
			return broken, fmt.Errorf("save streak: %w", err)
		}
		c.bus.Publish(ctx, core.NewStreakBroken(c.clk.Now(), s))
		broken++
	}
	return broken, nil
}

func maxStreak(entity *core.StreakState, overall core.StreakState) int {
	cur := overall.Current
	if entity != nil && entity.Current > cur {
		cur = entity.Current
	}
	return cur
}

func maxLongest(entity *core.StreakState, overall core.StreakState) int {
	longest := overall.Longest
	if entity != nil && entity.Longest > longest {
		longest = entity.Longest
	}
	return longest
}
