package formcheck

import (
	"fmt"
	"strings"
)

// ExerciseType can be one of:
//   - squat
//   - deadlift
//   - pushup
//   - pullup
//   - lunge
//   - plank
//   - bicep_curl
//   - shoulder_press
type ExerciseType string

const (
	ExerciseSquat         ExerciseType = "squat"
	ExerciseDeadlift      ExerciseType = "deadlift"
	ExercisePushup        ExerciseType = "pushup"
	ExercisePullup        ExerciseType = "pullup"
	ExerciseLunge         ExerciseType = "lunge"
	ExercisePlank         ExerciseType = "plank"
	ExerciseBicepCurl     ExerciseType = "bicep_curl"
	ExerciseShoulderPress ExerciseType = "shoulder_press"
)

var AllExerciseTypes = []ExerciseType{
	ExerciseSquat,
	ExerciseDeadlift,
	ExercisePushup,
	ExercisePullup,
	ExerciseLunge,
	ExercisePlank,
	ExerciseBicepCurl,
	ExerciseShoulderPress,
}

func (et ExerciseType) String() string {
	return string(et)
}

func (et ExerciseType) IsValid() bool {
	switch et {
	case ExerciseSquat,
		ExerciseDeadlift,
		ExercisePushup,
		ExercisePullup,
		ExerciseLunge,
		ExercisePlank,
		ExerciseBicepCurl,
		ExerciseShoulderPress:
		return true
	default:
		return false
	}
}

// HasRules reports whether a concrete rule set is configured for the exercise.
func (et ExerciseType) HasRules() bool {
	_, ok := ruleSets[et]
	return ok
}

// HasPhases reports whether the exercise has a phase profile (and can count reps).
func (et ExerciseType) HasPhases() bool {
	_, ok := phaseProfiles[et]
	return ok
}

func ParseExerciseType(s string) (ExerciseType, error) {
	et := ExerciseType(strings.ToLower(strings.TrimSpace(s)))
	if !et.IsValid() {
		return "", fmt.Errorf("unknown exercise type: %q", s)
	}
	return et, nil
}
