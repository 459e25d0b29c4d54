package formcheck

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionBusy     = errors.New("session busy: previous frame still being analyzed")
	ErrFrameOutOfOrder = errors.New("frame out of order")
	ErrSessionFinished = errors.New("session already finished")
)

// FrameResult is the per-frame output handed back to callers.
type FrameResult struct {
	Timestamp    time.Time `json:"timestamp"`
	Analyzed     bool      `json:"analyzed"`
	Reason       string    `json:"reason,omitempty"`
	RepNumber    int       `json:"repNumber"`
	RepCompleted bool      `json:"repCompleted"`
	Angles       AngleSet  `json:"angles"`
	Phase        Phase     `json:"phase"`
	Feedback     []string  `json:"feedback"`
	Corrections  []string  `json:"corrections"`
	FormScore    int       `json:"formScore"`
	IsGoodForm   bool      `json:"isGoodForm"`
	Unsupported  bool      `json:"unsupported,omitempty"`
}

// Session carries the phase tracker and accumulator of one workout.
// Frames must be fed in order; a call made while another one is still
// running returns ErrSessionBusy instead of waiting.
type Session struct {
	mu sync.Mutex

	id        string
	exercise  ExerciseType
	engine    *Engine
	tracker   *PhaseTracker
	acc       *Accumulator
	startedAt time.Time
	lastFrame time.Time
	lastSeen  time.Time
	finished  *Summary
}

func (e *Engine) NewSession(id string, et ExerciseType, startedAt time.Time) *Session {
	return &Session{
		id:        id,
		exercise:  et,
		engine:    e,
		tracker:   NewPhaseTracker(et, e.cfg.HysteresisFrames, e.cfg.RepCooldown),
		acc:       NewAccumulator(),
		startedAt: startedAt,
		lastSeen:  startedAt,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Exercise() ExerciseType {
	return s.exercise
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Process runs one frame through the whole pipeline:
// validate -> angles -> rules -> phase -> aggregation.
func (s *Session) Process(f Frame, receivedAt time.Time) (FrameResult, error) {
	if !s.mu.TryLock() {
		return FrameResult{}, ErrSessionBusy
	}
	defer s.mu.Unlock()

	if s.finished != nil {
		return FrameResult{}, ErrSessionFinished
	}
	if !s.lastFrame.IsZero() && f.Timestamp.Before(s.lastFrame) {
		return FrameResult{}, ErrFrameOutOfOrder
	}
	s.lastFrame = f.Timestamp
	s.lastSeen = receivedAt

	analysis := s.engine.Analyze(f, s.exercise)
	s.acc.Add(analysis)

	res := FrameResult{
		Timestamp:   f.Timestamp,
		Analyzed:    analysis.Analyzed,
		Angles:      analysis.Angles,
		Feedback:    []string{},
		Corrections: []string{},
		FormScore:   analysis.FormScore,
		IsGoodForm:  analysis.IsGoodForm,
		Unsupported: analysis.Unsupported,
	}

	if !analysis.Analyzed {
		res.Reason = analysis.Validation.Reason
		res.Phase = s.tracker.Phase()
		res.RepNumber = s.tracker.Reps()
		return res, nil
	}

	step := s.tracker.Observe(analysis.Angles, f.Timestamp)
	s.acc.AddPhaseStep(step)

	res.Phase = step.Phase
	res.RepCompleted = step.RepCompleted
	res.RepNumber = s.tracker.Reps()

	for _, v := range analysis.Violations {
		res.Feedback = append(res.Feedback, v.Message)
		res.Corrections = append(res.Corrections, v.Correction)
	}
	if len(analysis.Violations) == 0 && !analysis.Unsupported {
		res.Feedback = append(res.Feedback, "Good form")
	}

	return res, nil
}

// IdleSince returns the time the last frame was received (or the start time).
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Finish finalizes the session. It is idempotent: later calls return the same summary.
func (s *Session) Finish(endedAt time.Time, abandoned bool) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished != nil {
		return *s.finished
	}

	s.tracker.Complete()
	summary := s.acc.Summary()
	summary.SessionID = s.id
	summary.Exercise = s.exercise
	summary.StartedAt = s.startedAt
	summary.EndedAt = endedAt
	summary.Abandoned = abandoned

	s.finished = &summary
	return summary
}

// Phase returns the current settled phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Phase()
}
