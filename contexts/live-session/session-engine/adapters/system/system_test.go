package system

import (
	"context"
	"testing"
	"time"
)

func TestClockAfterFuncFiresAndStops(t *testing.T) {
	fired := make(chan struct{})
	Clock{}.AfterFunc(time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("timer did not fire")
	}

	stopped := Clock{}.AfterFunc(time.Hour, func() { t.Errorf("stopped timer fired") })
	if !stopped.Stop() {
		t.Fatalf("expected pending timer to stop")
	}
}

func TestUUIDGeneratorUnique(t *testing.T) {
	a, err := UUIDGenerator{}.NewID(context.Background())
	if err != nil {
		t.Fatalf("new id failed: %v", err)
	}
	b, _ := UUIDGenerator{}.NewID(context.Background())
	if a == "" || a == b {
		t.Fatalf("expected distinct ids, got %q and %q", a, b)
	}
}
