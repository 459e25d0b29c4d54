// Package workout runs a single local form check session on the client
// device: frames pulled from a pose source, final summary kept in SQLite.
package workout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/2beens/formcheck/internal/coach"
	"github.com/2beens/formcheck/internal/formcheck"
	"github.com/2beens/formcheck/internal/poller"
	"github.com/2beens/formcheck/internal/posesource"
	"github.com/2beens/formcheck/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type frameSource interface {
	Next(ctx context.Context) (formcheck.Frame, error)
}

type coachClient interface {
	Coach(ctx context.Context, req coach.Request) (coach.Response, error)
}

type summaryStore interface {
	Save(ctx context.Context, summary formcheck.Summary, coaching string) error
}

type Params struct {
	Engine   *formcheck.Engine
	Exercise formcheck.ExerciseType
	Source   frameSource
	Coach    coachClient
	Store    summaryStore
	// OnResult receives every processed frame; defaults to logging the feedback
	OnResult func(formcheck.FrameResult)
	Now      func() time.Time
}

type Result struct {
	Summary  formcheck.Summary `json:"summary"`
	Coaching string            `json:"coaching,omitempty"`
}

type Workout struct {
	session  *formcheck.Session
	source   frameSource
	coach    coachClient
	store    summaryStore
	onResult func(formcheck.FrameResult)
	now      func() time.Time

	processed atomic.Int64
}

func New(params Params) *Workout {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	coachCl := params.Coach
	if coachCl == nil {
		coachCl = coach.NoopClient{}
	}
	onResult := params.OnResult
	if onResult == nil {
		onResult = logResult
	}

	session := params.Engine.NewSession(uuid.NewString(), params.Exercise, now().UTC())
	if !params.Exercise.HasRules() {
		log.Warnf("exercise %s has no form rules, frames will be scored %d", params.Exercise, formcheck.MaxFormScore)
	}

	return &Workout{
		session:  session,
		source:   params.Source,
		coach:    coachCl,
		store:    params.Store,
		onResult: onResult,
		now:      now,
	}
}

func (w *Workout) SessionID() string {
	return w.session.ID()
}

// Processed returns how many frames reached the session.
func (w *Workout) Processed() int64 {
	return w.processed.Load()
}

// Step pulls one frame from the source and runs it through the session.
// It is meant to be used as a poller.Task: the end of the source stops the
// poller, and a provider without a new frame is not an error.
func (w *Workout) Step(ctx context.Context) error {
	frame, err := w.source.Next(ctx)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return poller.ErrStop
	case errors.Is(err, posesource.ErrNoNewFrame):
		log.Trace("no new frame")
		return nil
	default:
		return fmt.Errorf("next frame: %w", err)
	}

	if frame.Timestamp.IsZero() {
		frame.Timestamp = w.now().UTC()
	}
	frame.Sanitize()

	res, err := w.session.Process(frame, w.now())
	if err != nil {
		return fmt.Errorf("process frame %s: %w", frame.Timestamp, err)
	}
	w.processed.Add(1)
	w.onResult(res)

	return nil
}

// Finish finalizes the session, asks the coach for a message and stores the
// summary locally. A failing coach is logged; a failing store is returned
// together with the result.
func (w *Workout) Finish(ctx context.Context, abandoned bool) (_ Result, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workout.finish")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	res := Result{
		Summary: w.session.Finish(w.now().UTC(), abandoned),
	}

	if !abandoned && res.Summary.TotalFrames > 0 {
		coachResp, err := w.coach.Coach(ctx, coach.NewRequest(res.Summary))
		if err != nil {
			log.Warnf("coach: %s", err)
		} else {
			res.Coaching = coachResp.Message
		}
	}

	if w.store != nil {
		if err := w.store.Save(ctx, res.Summary, res.Coaching); err != nil {
			return res, fmt.Errorf("store summary: %w", err)
		}
	}

	return res, nil
}

func logResult(res formcheck.FrameResult) {
	if !res.Analyzed {
		log.Debugf("%s: not analyzed: %s", res.Timestamp.Format(time.TimeOnly), res.Reason)
		return
	}
	entry := log.WithFields(log.Fields{
		"phase": res.Phase,
		"score": res.FormScore,
		"reps":  res.RepNumber,
	})
	if res.RepCompleted {
		entry.Infof("rep %d done", res.RepNumber)
	}
	for i, feedback := range res.Feedback {
		if i < len(res.Corrections) {
			entry.Infof("%s: %s", feedback, res.Corrections[i])
			continue
		}
		entry.Info(feedback)
	}
}
