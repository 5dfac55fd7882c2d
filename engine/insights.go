package engine

import (
	"context"
	"fmt"

	"progresskit/analytics"
	"progresskit/clock"
	"progresskit/core"
)

// Insights answers read-only analytics questions over a user's ledger
// and external health metrics. It never mutates progression state and
// can run concurrently with action processing.
type Insights struct {
	gateway PersistenceGateway
	health  HealthDataProvider
	clk     clock.Clock
}

// NewInsights builds an insights reader. health may be nil when no
// external metric source is connected.
func NewInsights(gateway PersistenceGateway, health HealthDataProvider, clk clock.Clock) *Insights {
	if gateway == nil || clk == nil {
		panic("NewInsights requires a gateway and a clock")
	}
	return &Insights{gateway: gateway, health: health, clk: clk}
}

// ledgerScan caps how many entries one series build reads.
const ledgerScan = 5000

// ActivitySeries returns one value per day in [from, to], counting the
// user's ledger entries on that day. Days without activity are zero.
func (i *Insights) ActivitySeries(ctx context.Context, user core.UserID, from, to core.Day) ([]float64, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		from, to = to, from
	}

	entries, err := i.gateway.ListLedger(ctx, user, ledgerScan)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	counts := make(map[core.Day]int)
	for _, e := range entries {
		counts[i.clk.Day(e.Timestamp)]++
	}

	days := to.Sub(from) + 1
	out := make([]float64, days)
	d := from
	for idx := 0; idx < days; idx++ {
		out[idx] = float64(counts[d])
		d = d.Next()
	}
	return out, nil
}

// HealthSeries returns the daily mean of an external metric over
// [from, to], aligned with ActivitySeries. Days without samples are
// zero.
func (i *Insights) HealthSeries(ctx context.Context, metric string, from, to core.Day) ([]float64, error) {
	if i.health == nil {
		return nil, fmt.Errorf("no health data provider connected")
	}
	if to.Before(from) {
		from, to = to, from
	}

	// Query bounds follow the clock's location so samples land in the
	// same days that i.clk.Day assigns them to.
	loc := i.clk.Loc()
	samples, err := i.health.Series(ctx, metric, from.Midnight(loc), to.Next().Midnight(loc))
	if err != nil {
		return nil, fmt.Errorf("health series %s: %w", metric, err)
	}

	sums := make(map[core.Day]float64)
	ns := make(map[core.Day]int)
	for _, s := range samples {
		d := i.clk.Day(s.Time)
		sums[d] += s.Value
		ns[d]++
	}

	days := to.Sub(from) + 1
	out := make([]float64, days)
	d := from
	for idx := 0; idx < days; idx++ {
		if n := ns[d]; n > 0 {
			out[idx] = sums[d] / float64(n)
		}
		d = d.Next()
	}
	return out, nil
}

// HealthCorrelations correlates the user's daily activity against each
// named health metric over [from, to]. The computation honors ctx
// cancellation between metrics.
func (i *Insights) HealthCorrelations(ctx context.Context, user core.UserID, metrics []string, from, to core.Day) (map[string]analytics.Correlation, error) {
	activity, err := i.ActivitySeries(ctx, user, from, to)
	if err != nil {
		return nil, err
	}

	out := make(map[string]analytics.Correlation, len(metrics))
	for _, metric := range metrics {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		series, err := i.HealthSeries(ctx, metric, from, to)
		if err != nil {
			return out, err
		}
		out[metric] = analytics.Correlate(activity, series)
	}
	return out, nil
}
