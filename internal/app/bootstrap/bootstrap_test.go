package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
	"nodandknow/internal/platform/config"
	"nodandknow/internal/shared/events"
)

func testConfig() config.Config {
	return config.Config{
		ServiceName:             "nodandknow-test",
		StoreDriver:             config.StoreDriverMemory,
		InfoDurationSeconds:     5,
		QuestionDurationSeconds: 5,
		ResultsDurationSeconds:  5,
		MinorityThreshold:       0.25,
		MinorityMinVotes:        3,
		PersistQueue:            16,
	}
}

func TestBuildSessionRunsAndPublishes(t *testing.T) {
	app, err := BuildSession(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("build session failed: %v", err)
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan events.Envelope, 4)
	if err := app.Bus().Subscribe(ctx, string(entities.NotificationVoteRecorded), "test", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- app.Run(ctx) }()

	result, err := app.Module().Session.RecordGesture(ctx, 42, entities.ChoiceNo)
	if err != nil || !result.Admitted {
		t.Fatalf("record gesture failed: %+v %v", result, err)
	}
	select {
	case event := <-received:
		if event.EventType != "vote.recorded" || event.SourceService != "nodandknow-test" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for vote notification")
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg := testConfig()
	cfg.StoreDriver = config.StoreDriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "votes.db")

	handle, err := OpenStore(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("open store failed: %v", err)
	}
	defer handle.Close()
	if err := handle.Store.PersistVote(context.Background(), entities.Vote{QuestionIndex: 0, Identity: 1, Choice: entities.ChoiceYes}); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
}

func TestSessionConfigUsesBuiltInCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.RotationIntervalSeconds = 30
	sessionCfg, err := SessionConfig(cfg)
	if err != nil {
		t.Fatalf("session config failed: %v", err)
	}
	if len(sessionCfg.Catalog.Questions) != 8 || sessionCfg.Durations.RotationInterval != 30*time.Second {
		t.Fatalf("unexpected session config %+v", sessionCfg)
	}
}
