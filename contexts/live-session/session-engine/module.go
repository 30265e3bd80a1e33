package sessionengine

import (
	"log/slog"

	"nodandknow/contexts/live-session/session-engine/adapters/memory"
	"nodandknow/contexts/live-session/session-engine/adapters/system"
	"nodandknow/contexts/live-session/session-engine/application/commands"
	"nodandknow/contexts/live-session/session-engine/application/queries"
	"nodandknow/contexts/live-session/session-engine/application/workers"
	"nodandknow/contexts/live-session/session-engine/ports"
)

type Module struct {
	Session     *commands.SessionOrchestrator
	Reporting   queries.ReportingUseCase
	Persistence *workers.PersistenceRelay
	Store       ports.VoteStore
}

type Dependencies struct {
	Config           commands.Config
	Store            ports.VoteStore
	Notifications    ports.NotificationSink
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	PersistQueueSize int
	Logger           *slog.Logger
}

// NewModule wires one session. A nil Store runs the session from memory
// only; a nil Clock uses the wall clock and a nil IDGen random UUIDs.
func NewModule(deps Dependencies) (Module, error) {
	if deps.Clock == nil {
		deps.Clock = system.Clock{}
	}
	if deps.IDGen == nil {
		deps.IDGen = system.UUIDGenerator{}
	}
	relay := workers.NewPersistenceRelay(deps.Store, deps.PersistQueueSize, deps.Logger)

	var (
		persistence ports.PersistenceQueue
		fallback    queries.FallbackState
	)
	if deps.Store != nil {
		persistence = relay
		fallback = relay
	}
	session, err := commands.NewSessionOrchestrator(deps.Config, commands.Dependencies{
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		Notifications: deps.Notifications,
		Persistence:   persistence,
		Logger:        deps.Logger,
	})
	if err != nil {
		return Module{}, err
	}
	return Module{
		Session: session,
		Reporting: queries.ReportingUseCase{
			Store:    deps.Store,
			Live:     session,
			Fallback: fallback,
			Catalog:  session.Catalog(),
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
		Persistence: relay,
		Store:       deps.Store,
	}, nil
}

func NewInMemoryModule(cfg commands.Config, logger *slog.Logger) (Module, error) {
	store := memory.NewStore(nil)
	return NewModule(Dependencies{
		Config: cfg,
		Store:  store,
		IDGen:  store,
		Logger: logger,
	})
}
