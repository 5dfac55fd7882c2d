// Package progress is the composition root for embedding the
// progression engine in an application. It wires the coordinator,
// event bus and optional realtime hub from functional options.
package progress

import (
	"context"
	"log/slog"
	"time"

	"progresskit/achievement"
	"progresskit/adapters/memory"
	"progresskit/clock"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/points"
	"progresskit/realtime"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	gateway  engine.PersistenceGateway
	mode     engine.DispatchMode
	catalog  *achievement.Catalog
	clk      clock.Clock
	notifier engine.NotificationGateway
	hub      *realtime.Hub
	logger   *slog.Logger
	points   points.Config
	health   engine.HealthDataProvider
}

// WithGateway sets the persistence adapter.
func WithGateway(g engine.PersistenceGateway) Option { return func(c *config) { c.gateway = g } }

// WithCatalog replaces the built-in achievement catalog.
func WithCatalog(cat *achievement.Catalog) Option { return func(c *config) { c.catalog = cat } }

// WithClock overrides the wall clock, used for day-boundary control in
// tests and for serving users in their own timezone.
func WithClock(clk clock.Clock) Option { return func(c *config) { c.clk = clk } }

// WithNotifier sets the notification gateway.
func WithNotifier(n engine.NotificationGateway) Option { return func(c *config) { c.notifier = n } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all engine events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithPointsConfig overrides the award table.
func WithPointsConfig(cfg points.Config) Option { return func(c *config) { c.points = cfg } }

// WithHealthData connects an external metric source for activity
// correlation insights.
func WithHealthData(p engine.HealthDataProvider) Option {
	return func(c *config) { c.health = p }
}

// Service bundles the coordinator with its event bus and insights
// reader.
type Service struct {
	*engine.Coordinator
	Bus      *engine.EventBus
	Insights *engine.Insights
}

// Close stops the event bus workers.
func (s *Service) Close() { s.Bus.Close() }

// New builds a configured service. Defaults: in-memory storage, the
// built-in catalog, the system clock in UTC, async dispatch, no
// notifications.
func New(opts ...Option) *Service {
	cfg := &config{
		mode:   engine.DispatchAsync,
		points: points.DefaultConfig(),
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.gateway == nil {
		cfg.gateway = memory.New()
	}
	if cfg.catalog == nil {
		cfg.catalog = achievement.DefaultCatalog()
	}
	if cfg.clk == nil {
		cfg.clk = clock.NewSystem(time.UTC)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	bus := engine.NewEventBus(cfg.mode)
	coord := engine.NewCoordinator(
		cfg.gateway,
		bus,
		points.New(cfg.points),
		achievement.NewEngine(cfg.catalog, cfg.logger),
		cfg.clk,
		cfg.notifier,
		cfg.logger,
	)

	if cfg.hub != nil {
		bus.SubscribeAll(func(ctx context.Context, e core.Event) { cfg.hub.Broadcast(ctx, e) })
	}
	return &Service{
		Coordinator: coord,
		Bus:         bus,
		Insights:    engine.NewInsights(cfg.gateway, cfg.health, cfg.clk),
	}
}
