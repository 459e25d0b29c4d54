package sessions

import (
	"errors"
	"time"

	"github.com/2beens/formcheck/internal/formcheck"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSummaryNotFound = errors.New("session summary not found")
	ErrInvalidExercise = errors.New("invalid exercise")
)

// StoredSummary is a finished session as persisted, with the optional coaching message.
type StoredSummary struct {
	formcheck.Summary
	Coaching string `json:"coaching,omitempty"`
}

type StartedSession struct {
	ID        string                 `json:"sessionId"`
	Token     string                 `json:"token"`
	Exercise  formcheck.ExerciseType `json:"exercise"`
	StartedAt time.Time              `json:"startedAt"`
}

type FinishResult struct {
	Summary  formcheck.Summary `json:"summary"`
	Coaching string            `json:"coaching,omitempty"`
}
