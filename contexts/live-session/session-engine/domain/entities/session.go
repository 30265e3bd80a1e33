package entities

import (
	"math/rand/v2"
	"strconv"
	"time"
)

type Phase string

const (
	PhaseInfo     Phase = "info"
	PhaseQuestion Phase = "question"
	PhaseResults  Phase = "results"
)

// Next returns the phase that follows p in the session cycle.
func (p Phase) Next() Phase {
	switch p {
	case PhaseInfo:
		return PhaseQuestion
	case PhaseQuestion:
		return PhaseResults
	default:
		return PhaseInfo
	}
}

func (p Phase) Valid() bool {
	return p == PhaseInfo || p == PhaseQuestion || p == PhaseResults
}

// Identity is an opaque voter token supplied by the sensing layer. Sensor
// assigned identities are non-negative; negative values are reserved for
// synthetic and test voters.
type Identity int64

func (i Identity) IsSynthetic() bool {
	return i < 0
}

func (i Identity) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// NewSyntheticIdentity returns a random identity from the synthetic range.
func NewSyntheticIdentity() Identity {
	return Identity(-1 - rand.Int64N(1_000_000))
}

type Choice string

const (
	ChoiceYes Choice = "yes"
	ChoiceNo  Choice = "no"
)

func (c Choice) Valid() bool {
	return c == ChoiceYes || c == ChoiceNo
}

// Catalog holds the ordered question and info texts the session cycles
// through.
type Catalog struct {
	Questions []string
	Infos     []string
}

func (c Catalog) Question(index int) string {
	if index < 0 || index >= len(c.Questions) {
		return ""
	}
	return c.Questions[index]
}

func (c Catalog) Info(index int) string {
	if index < 0 || index >= len(c.Infos) {
		return ""
	}
	return c.Infos[index]
}

// Durations configures how long each phase stays active. RotationInterval
// is optional; zero disables the independent question rotation.
type Durations struct {
	Info             time.Duration
	Question         time.Duration
	Results          time.Duration
	RotationInterval time.Duration
}

func (d Durations) For(phase Phase) time.Duration {
	switch phase {
	case PhaseInfo:
		return d.Info
	case PhaseQuestion:
		return d.Question
	case PhaseResults:
		return d.Results
	default:
		return 0
	}
}

// FaceDetection is one face reported by the sensing layer.
type FaceDetection struct {
	Identity   Identity
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Confidence float64
}

// SensingTelemetry is the latest liveness snapshot from the sensing layer.
type SensingTelemetry struct {
	Faces      []FaceDetection
	FPS        float64
	ObservedAt time.Time
}

// SessionState is the read model exposed to UI, logging and persistence
// consumers.
type SessionState struct {
	Phase         Phase
	QuestionIndex int
	InfoIndex     int
	Question      string
	Info          string
	PhaseStarted  time.Time
	TimeRemaining int
	PhaseDuration time.Duration
	Tally         VoteTally
	Stats         SessionStats
	Telemetry     SensingTelemetry
	FallbackMode  bool
}
