package errors

import "errors"

var (
	ErrInvalidQuestion  = errors.New("invalid question")
	ErrInvalidChoice    = errors.New("invalid vote choice")
	ErrInvalidCatalog   = errors.New("catalog must not be empty")
	ErrInvalidDuration  = errors.New("phase duration must be positive")
	ErrInvalidThreshold = errors.New("invalid minority signal settings")
	ErrSessionClosed    = errors.New("session is closed")
	ErrSessionRunning   = errors.New("session loop is already running")
	ErrStoreUnavailable = errors.New("vote store unavailable")
)
