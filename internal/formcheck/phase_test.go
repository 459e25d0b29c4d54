package formcheck

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kneeAngles(deg float64) AngleSet {
	return AngleSet{LeftKnee: ptr(deg), RightKnee: ptr(deg)}
}

func TestPhaseProfile_Classify(t *testing.T) {
	squat, ok := ProfileFor(ExerciseSquat)
	require.True(t, ok)

	testCases := []struct {
		prev     Phase
		angle    float64
		expected Phase
	}{
		{PhaseStarting, 170, PhaseStarting},
		{PhaseStarting, 160, PhaseDescending},
		{PhaseStarting, 140, PhaseDescending},
		{PhaseDescending, 121, PhaseDescending},
		{PhaseDescending, 120, PhaseBottom},
		{PhaseBottom, 90, PhaseBottom},
		{PhaseBottom, 130, PhaseAscending},
		{PhaseAscending, 150, PhaseAscending},
		{PhaseAscending, 165, PhaseStarting},
		{PhaseAscending, 110, PhaseBottom},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, squat.Classify(tc.prev, tc.angle), "%s @ %.0f", tc.prev, tc.angle)
	}
}

func TestRepCompleted(t *testing.T) {
	assert.True(t, RepCompleted(PhaseBottom, PhaseAscending))
	assert.False(t, RepCompleted(PhaseDescending, PhaseBottom))
	assert.False(t, RepCompleted(PhaseAscending, PhaseStarting))
	assert.False(t, RepCompleted(PhaseBottom, PhaseStarting))
}

func TestPhaseTracker_OneRep(t *testing.T) {
	tracker := NewPhaseTracker(ExerciseSquat, 1, time.Second)
	assert.Equal(t, PhaseStarting, tracker.Phase())

	seq := []float64{170, 150, 110, 90, 130, 170}
	expected := []Phase{PhaseStarting, PhaseDescending, PhaseBottom, PhaseBottom, PhaseAscending, PhaseStarting}
	repAt := 4

	for i, deg := range seq {
		step := tracker.Observe(kneeAngles(deg), t0.Add(time.Duration(i)*300*time.Millisecond))
		assert.Equal(t, expected[i], step.Phase, "frame %d", i)
		assert.Equal(t, i == repAt, step.RepCompleted, "frame %d", i)
	}
	assert.Equal(t, 1, tracker.Reps())
}

func TestPhaseTracker_Hysteresis(t *testing.T) {
	tracker := NewPhaseTracker(ExerciseSquat, 3, time.Second)

	step := tracker.Observe(kneeAngles(150), t0)
	assert.Equal(t, PhaseStarting, step.Phase)
	assert.Nil(t, step.Changed)

	step = tracker.Observe(kneeAngles(150), t0.Add(100*time.Millisecond))
	assert.Equal(t, PhaseStarting, step.Phase)

	step = tracker.Observe(kneeAngles(150), t0.Add(200*time.Millisecond))
	assert.Equal(t, PhaseDescending, step.Phase)
	require.NotNil(t, step.Changed)
	assert.Equal(t, PhaseStarting, step.Changed.From)
	assert.Equal(t, PhaseDescending, step.Changed.To)
	assert.Equal(t, t0.Add(200*time.Millisecond), step.Changed.Timestamp)
}

func TestPhaseTracker_HysteresisFiltersJitter(t *testing.T) {
	tracker := NewPhaseTracker(ExerciseSquat, 3, time.Second)

	// single noisy frames around the start threshold never settle
	for i, deg := range []float64{170, 155, 170, 155, 170, 158, 175} {
		step := tracker.Observe(kneeAngles(deg), t0.Add(time.Duration(i)*33*time.Millisecond))
		assert.Equal(t, PhaseStarting, step.Phase)
		assert.Nil(t, step.Changed)
	}
}

func TestPhaseTracker_RepCooldown(t *testing.T) {
	tracker := NewPhaseTracker(ExerciseSquat, 1, time.Second)

	frames := []struct {
		deg float64
		at  time.Duration
	}{
		{110, 0},
		{150, 200 * time.Millisecond},  // first rep
		{170, 300 * time.Millisecond},  // standing
		{110, 400 * time.Millisecond},  // back to bottom
		{150, 600 * time.Millisecond},  // within cooldown, not counted
		{170, 800 * time.Millisecond},  // standing
		{110, 1000 * time.Millisecond}, // bottom again
		{150, 1300 * time.Millisecond}, // 1.1s after the first rep, counted
	}

	var counted []bool
	for _, f := range frames {
		step := tracker.Observe(kneeAngles(f.deg), t0.Add(f.at))
		counted = append(counted, step.RepCompleted)
	}

	assert.Equal(t, []bool{false, true, false, false, false, false, false, true}, counted)
	assert.Equal(t, 2, tracker.Reps())
}

func TestPhaseTracker_NoisyHoldAtBottom(t *testing.T) {
	tracker := NewPhaseTracker(ExerciseSquat, 1, time.Second)

	tracker.Observe(kneeAngles(170), t0)
	tracker.Observe(kneeAngles(150), t0.Add(300*time.Millisecond))

	// one descent, then the knee angle flickers around the bottom threshold
	for i := 0; i < 20; i++ {
		deg := 118.5
		if i%2 == 1 {
			deg = 121.5
		}
		tracker.Observe(kneeAngles(deg), t0.Add(time.Duration(i+2)*300*time.Millisecond))
	}
	assert.LessOrEqual(t, tracker.Reps(), 1)

	// standing up re-arms the counter for the next rep
	for i, deg := range []float64{170, 150, 110, 140} {
		tracker.Observe(kneeAngles(deg), t0.Add(10*time.Second+time.Duration(i)*300*time.Millisecond))
	}
	assert.Equal(t, 2, tracker.Reps())
}

func TestPhaseTracker_RepNeedsFullCycle(t *testing.T) {
	tracker := NewPhaseTracker(ExerciseSquat, 1, time.Second)

	// bottom and ascending without ever standing up in between
	seq := []float64{170, 110, 140, 110, 140, 110, 140}
	for i, deg := range seq {
		tracker.Observe(kneeAngles(deg), t0.Add(time.Duration(i)*2*time.Second))
	}
	assert.Equal(t, 1, tracker.Reps())
}

func TestPhaseTracker_AbsentDriverHoldsPhase(t *testing.T) {
	tracker := NewPhaseTracker(ExerciseSquat, 1, time.Second)
	tracker.Observe(kneeAngles(110), t0)
	require.Equal(t, PhaseBottom, tracker.Phase())

	step := tracker.Observe(AngleSet{Back: ptr(10)}, t0.Add(time.Second))
	assert.Equal(t, PhaseBottom, step.Phase)
	assert.Nil(t, step.Changed)
	assert.False(t, step.RepCompleted)
}

func TestPhaseTracker_UnknownExercise(t *testing.T) {
	for _, et := range []ExerciseType{ExercisePlank, ExercisePullup, ExerciseShoulderPress, ExerciseType("burpee")} {
		tracker := NewPhaseTracker(et, 1, time.Second)
		assert.Equal(t, PhaseUnknown, tracker.Phase())

		step := tracker.Observe(AngleSet{LeftElbow: ptr(60), LeftKnee: ptr(90)}, t0)
		assert.Equal(t, PhaseUnknown, step.Phase)
		assert.False(t, step.RepCompleted)

		tracker.Complete()
		assert.Equal(t, PhaseUnknown, tracker.Phase())
		assert.Equal(t, 0, tracker.Reps())
	}
}

func TestPhaseTracker_PushupDrivenByElbow(t *testing.T) {
	tracker := NewPhaseTracker(ExercisePushup, 1, time.Second)

	elbows := []float64{170, 130, 90, 130, 170}
	for i, deg := range elbows {
		// knees stay straight the whole time
		angles := AngleSet{LeftElbow: ptr(deg), RightElbow: ptr(deg), LeftKnee: ptr(175)}
		tracker.Observe(angles, t0.Add(time.Duration(i)*500*time.Millisecond))
	}
	assert.Equal(t, 1, tracker.Reps())
}

func TestPhaseTracker_Complete(t *testing.T) {
	tracker := NewPhaseTracker(ExerciseDeadlift, 1, time.Second)
	tracker.Complete()
	assert.Equal(t, PhaseCompleted, tracker.Phase())
}
