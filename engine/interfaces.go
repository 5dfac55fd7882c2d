package engine

import (
	"context"
	"time"

	"progresskit/achievement"
	"progresskit/core"
)

// PersistenceGateway abstracts storage of progression records. Load
// methods return ok=false when the record does not exist yet. Save
// calls must be idempotent given identical state; failures surface as
// errors the coordinator propagates without partial application.
type PersistenceGateway interface {
	LoadState(ctx context.Context, user core.UserID) (core.ProgressionState, bool, error)
	SaveState(ctx context.Context, state core.ProgressionState) error

	LoadStreak(ctx context.Context, key core.StreakKey) (core.StreakState, bool, error)
	SaveStreak(ctx context.Context, state core.StreakState) error
	ListStreaks(ctx context.Context, user core.UserID) ([]core.StreakState, error)

	LoadAchievementProgress(ctx context.Context, user core.UserID) (map[string]achievement.Progress, error)
	SaveAchievementProgress(ctx context.Context, progress achievement.Progress) error

	AppendLedger(ctx context.Context, entry core.LedgerEntry) error
	ListLedger(ctx context.Context, user core.UserID, limit int) ([]core.LedgerEntry, error)
}

// NotificationGateway delivers user-facing notifications. Calls are
// fire-and-forget from the coordinator's perspective: failures are
// logged, never block state commit.
type NotificationGateway interface {
	NotifyLevelUp(ctx context.Context, ev core.Event) error
	NotifyAchievementUnlocked(ctx context.Context, ev core.Event) error
}

// HealthDataProvider supplies external metric series for analytics
// correlation. It is an input only; the engines never write to it.
type HealthDataProvider interface {
	Series(ctx context.Context, metric string, from, to time.Time) ([]core.MetricSample, error)
}
