package formcheck

import "time"

// Phase can be one of:
//   - starting
//   - descending
//   - bottom
//   - ascending
//   - completed
//   - unknown
type Phase string

const (
	PhaseStarting   Phase = "starting"
	PhaseDescending Phase = "descending"
	PhaseBottom     Phase = "bottom"
	PhaseAscending  Phase = "ascending"
	PhaseCompleted  Phase = "completed"
	PhaseUnknown    Phase = "unknown"
)

func (p Phase) String() string {
	return string(p)
}

// PhaseProfile holds the exercise specific thresholds for the driving joint.
type PhaseProfile struct {
	Driver          Joint
	StartAbove      float64
	BottomAtOrBelow float64
}

// Pushup is driven by the elbows; the knees stay locked through the whole rep.
var phaseProfiles = map[ExerciseType]PhaseProfile{
	ExerciseSquat:     {Driver: JointKnee, StartAbove: 160, BottomAtOrBelow: 120},
	ExerciseLunge:     {Driver: JointKnee, StartAbove: 160, BottomAtOrBelow: 120},
	ExercisePushup:    {Driver: JointElbow, StartAbove: 160, BottomAtOrBelow: 100},
	ExerciseDeadlift:  {Driver: JointHip, StartAbove: 160, BottomAtOrBelow: 110},
	ExerciseBicepCurl: {Driver: JointElbow, StartAbove: 150, BottomAtOrBelow: 70},
}

func ProfileFor(et ExerciseType) (PhaseProfile, bool) {
	p, ok := phaseProfiles[et]
	return p, ok
}

// Classify maps the driving angle to a phase, given the previous settled phase.
// The middle band is ascending when coming out of the bottom, descending otherwise.
func (p PhaseProfile) Classify(prev Phase, angle float64) Phase {
	switch {
	case angle > p.StartAbove:
		return PhaseStarting
	case angle <= p.BottomAtOrBelow:
		return PhaseBottom
	case prev == PhaseBottom || prev == PhaseAscending:
		return PhaseAscending
	default:
		return PhaseDescending
	}
}

// RepCompleted is the single rep completion rule: the settled phase moves
// from bottom straight into ascending.
func RepCompleted(prev, next Phase) bool {
	return prev == PhaseBottom && next == PhaseAscending
}

type PhaseChange struct {
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// PhaseTracker carries the phase state machine across consecutive frames of
// one session. It is not safe for concurrent use and assumes frames arrive in order.
type PhaseTracker struct {
	profile     PhaseProfile
	supported   bool
	window      int
	repCooldown time.Duration

	current   Phase
	candidate Phase
	seen      int
	lastRepAt time.Time
	reps      int
	// armed is set once the lifter is back up (starting or descending)
	// after the last counted rep; a rep is only counted while armed.
	armed bool
}

func NewPhaseTracker(et ExerciseType, hysteresisFrames int, repCooldown time.Duration) *PhaseTracker {
	profile, ok := phaseProfiles[et]
	if hysteresisFrames < 1 {
		hysteresisFrames = 1
	}
	t := &PhaseTracker{
		profile:     profile,
		supported:   ok,
		window:      hysteresisFrames,
		repCooldown: repCooldown,
		current:     PhaseStarting,
		armed:       true,
	}
	if !ok {
		t.current = PhaseUnknown
	}
	return t
}

func (t *PhaseTracker) Phase() Phase {
	return t.current
}

func (t *PhaseTracker) Reps() int {
	return t.reps
}

type PhaseStep struct {
	Phase        Phase
	Changed      *PhaseChange
	RepCompleted bool
}

// Observe feeds the angle set of the next frame. A phase change is accepted
// only after the new phase was seen for the hysteresis window in a row.
func (t *PhaseTracker) Observe(angles AngleSet, ts time.Time) PhaseStep {
	if !t.supported {
		return PhaseStep{Phase: PhaseUnknown}
	}

	driver := angles.Average(t.profile.Driver)
	if driver == nil {
		// unknown signal, hold
		return PhaseStep{Phase: t.current}
	}

	observed := t.profile.Classify(t.current, *driver)
	if observed == t.current {
		t.candidate = ""
		t.seen = 0
		return PhaseStep{Phase: t.current}
	}

	if observed == t.candidate {
		t.seen++
	} else {
		t.candidate = observed
		t.seen = 1
	}
	if t.seen < t.window {
		return PhaseStep{Phase: t.current}
	}

	step := PhaseStep{
		Phase: observed,
		Changed: &PhaseChange{
			From:      t.current,
			To:        observed,
			Timestamp: ts,
		},
	}

	if observed == PhaseStarting || observed == PhaseDescending {
		t.armed = true
	}
	if t.armed && RepCompleted(t.current, observed) && t.cooledDown(ts) {
		t.reps++
		t.lastRepAt = ts
		t.armed = false
		step.RepCompleted = true
	}

	t.current = observed
	t.candidate = ""
	t.seen = 0
	return step
}

func (t *PhaseTracker) cooledDown(ts time.Time) bool {
	return t.lastRepAt.IsZero() || ts.Sub(t.lastRepAt) >= t.repCooldown
}

// Complete marks the tracker as finished.
func (t *PhaseTracker) Complete() {
	if t.supported {
		t.current = PhaseCompleted
	}
}
