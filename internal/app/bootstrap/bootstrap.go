package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	sessionengine "nodandknow/contexts/live-session/session-engine"
	catalogadapter "nodandknow/contexts/live-session/session-engine/adapters/catalog"
	"nodandknow/contexts/live-session/session-engine/adapters/eventbus"
	"nodandknow/contexts/live-session/session-engine/adapters/memory"
	postgresadapter "nodandknow/contexts/live-session/session-engine/adapters/postgres"
	redisadapter "nodandknow/contexts/live-session/session-engine/adapters/redis"
	sqliteadapter "nodandknow/contexts/live-session/session-engine/adapters/sqlite"
	"nodandknow/contexts/live-session/session-engine/application/commands"
	"nodandknow/contexts/live-session/session-engine/application/workers"
	"nodandknow/contexts/live-session/session-engine/domain/entities"
	"nodandknow/contexts/live-session/session-engine/ports"
	"nodandknow/internal/platform/config"
	"nodandknow/internal/platform/db"
	"nodandknow/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// SessionApp is the composition root of one session process: the session
// loop, the persistence relay and the notification forwarder.
type SessionApp struct {
	module    sessionengine.Module
	bus       *messaging.Bus
	forwarder workers.NotificationForwarder
	closers   []func() error
	logger    *slog.Logger
}

// StoreHandle is an opened vote store plus its release function.
type StoreHandle struct {
	Store ports.VoteStore
	IDGen ports.IDGenerator
	close func() error
}

func (h StoreHandle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// OpenStore opens the vote store selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (StoreHandle, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pg, err := db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return StoreHandle{}, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return StoreHandle{}, err
		}
		return StoreHandle{Store: repo, IDGen: repo, close: pg.Close}, nil
	case config.StoreDriverSQLite:
		store, err := sqliteadapter.Open(cfg.SQLitePath)
		if err != nil {
			return StoreHandle{}, err
		}
		return StoreHandle{Store: store, close: store.Close}, nil
	default:
		store := memory.NewStore(nil)
		return StoreHandle{Store: store, IDGen: store}, nil
	}
}

// SessionConfig turns process configuration into session setup.
func SessionConfig(cfg config.Config) (commands.Config, error) {
	catalog, err := catalogadapter.Load(cfg.CatalogPath)
	if err != nil {
		return commands.Config{}, err
	}
	return commands.Config{
		Catalog: catalog,
		Durations: entities.Durations{
			Info:             cfg.InfoDuration(),
			Question:         cfg.QuestionDuration(),
			Results:          cfg.ResultsDuration(),
			RotationInterval: cfg.RotationInterval(),
		},
		MinorityThreshold: cfg.MinorityThreshold,
		MinorityMinVotes:  cfg.MinorityMinVotes,
		CommandBuffer:     cfg.CommandBuffer,
	}, nil
}

func BuildSession(ctx context.Context, cfg config.Config, logger *slog.Logger) (*SessionApp, error) {
	if logger == nil {
		logger = cfg.NewLogger()
	}
	logger = logger.With("process", "session")

	sessionCfg, err := SessionConfig(cfg)
	if err != nil {
		return nil, err
	}

	app := &SessionApp{
		bus:    messaging.NewBus(0, logger),
		logger: logger,
	}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		// The session runs from memory when the store cannot be reached.
		logger.Warn("vote store unavailable; running in memory",
			"event", "bootstrap_store_unavailable",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"store_driver", cfg.StoreDriver,
			"error", err.Error(),
		)
		store = StoreHandle{}
	}
	app.closers = append(app.closers, store.Close)

	module, err := sessionengine.NewModule(sessionengine.Dependencies{
		Config: sessionCfg,
		Store:  store.Store,
		Notifications: eventbus.NotificationPublisher{
			Publisher:     app.bus,
			SourceService: cfg.ServiceName,
		},
		IDGen:            store.IDGen,
		PersistQueueSize: cfg.PersistQueue,
		Logger:           logger,
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.module = module

	if cfg.EnableForwards && cfg.RedisURL != "" {
		publisher, err := redisadapter.NewPublisher(ctx, cfg.RedisURL, cfg.RedisPrefix, logger)
		if err != nil {
			logger.Warn("redis unavailable; notifications stay in process",
				"event", "bootstrap_redis_unavailable",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		} else {
			app.closers = append(app.closers, publisher.Close)
			app.forwarder = workers.NotificationForwarder{
				Subscriber: app.bus,
				Publisher:  publisher,
				Topics:     eventbus.NotificationTopics,
				Logger:     logger,
			}
		}
	}
	return app, nil
}

func (a *SessionApp) Module() sessionengine.Module {
	return a.module
}

// Bus exposes the in-process notification bus for local consumers.
func (a *SessionApp) Bus() *messaging.Bus {
	return a.bus
}

// Run blocks until ctx is cancelled or a component fails.
func (a *SessionApp) Run(ctx context.Context) error {
	if a.forwarder.Publisher != nil {
		if err := a.forwarder.Start(ctx); err != nil {
			return err
		}
	}
	if stats, err := a.module.Reporting.LoadStats(ctx); err == nil {
		a.logger.Info("stored session stats loaded",
			"event", "bootstrap_stats_loaded",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"total_votes", stats.TotalVotes,
			"unique_participants", stats.UniqueParticipants,
		)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.module.Session.Run(groupCtx)
	})
	group.Go(func() error {
		return a.module.Persistence.Run(groupCtx)
	})

	a.logger.Info("session app started",
		"event", "bootstrap_session_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"fallback_mode", a.module.Persistence.FallbackMode(),
	)
	if err := group.Wait(); err != nil {
		return fmt.Errorf("session app stopped: %w", err)
	}
	return nil
}

func (a *SessionApp) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
