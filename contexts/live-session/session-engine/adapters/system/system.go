package system

import (
	"context"
	"time"

	"nodandknow/contexts/live-session/session-engine/ports"

	"github.com/google/uuid"
)

// Clock reads the wall clock and schedules callbacks with time.AfterFunc.
type Clock struct{}

func (Clock) Now() time.Time {
	return time.Now()
}

func (Clock) AfterFunc(d time.Duration, fn func()) ports.Timer {
	return time.AfterFunc(d, fn)
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.Clock       = Clock{}
	_ ports.IDGenerator = UUIDGenerator{}
)
