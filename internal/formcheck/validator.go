package formcheck

import (
	"fmt"
	"strings"
)

var (
	torsoAndLegs = []LandmarkName{
		LeftShoulder, RightShoulder,
		LeftHip, RightHip,
		LeftKnee, RightKnee,
		LeftAnkle, RightAnkle,
	}
	upperBodyAndHips = []LandmarkName{
		LeftShoulder, RightShoulder,
		LeftElbow, RightElbow,
		LeftWrist, RightWrist,
		LeftHip, RightHip,
	}
	arms = []LandmarkName{
		LeftShoulder, RightShoulder,
		LeftElbow, RightElbow,
		LeftWrist, RightWrist,
	}
	bodyLine = []LandmarkName{
		LeftShoulder, RightShoulder,
		LeftHip, RightHip,
		LeftAnkle, RightAnkle,
	}
)

var requiredLandmarks = map[ExerciseType][]LandmarkName{
	ExerciseSquat:         torsoAndLegs,
	ExerciseDeadlift:      torsoAndLegs,
	ExerciseLunge:         torsoAndLegs,
	ExercisePushup:        upperBodyAndHips,
	ExerciseBicepCurl:     arms,
	ExerciseShoulderPress: arms,
	ExercisePullup:        arms,
	ExercisePlank:         bodyLine,
}

// RequiredLandmarks returns the landmarks a frame must show for the exercise.
func RequiredLandmarks(et ExerciseType) []LandmarkName {
	if req, ok := requiredLandmarks[et]; ok {
		return req
	}
	return torsoAndLegs
}

type ValidationResult struct {
	IsValid  bool   `json:"isValid"`
	Reason   string `json:"reason,omitempty"`
	Visible  int    `json:"visible"`
	Required int    `json:"required"`
}

// Validate gates a frame before analysis. A frame is valid when enough of the
// required landmarks are visible and, for exercises that count reps, the joint
// chain driving the phase classifier is fully visible on at least one side.
func (e *Engine) Validate(f Frame, et ExerciseType) ValidationResult {
	required := RequiredLandmarks(et)

	var missing []string
	visible := 0
	for _, name := range required {
		if f.isVisible(name, e.cfg.VisibilityThreshold) {
			visible++
		} else {
			missing = append(missing, name.String())
		}
	}

	res := ValidationResult{
		Visible:  visible,
		Required: len(required),
	}

	fraction := float64(visible) / float64(len(required))
	if fraction < e.cfg.MinVisibleFraction {
		res.Reason = fmt.Sprintf(
			"insufficient visible keypoints: %d/%d required visible (missing: %s)",
			visible, len(required), strings.Join(missing, ", "),
		)
		return res
	}

	if profile, ok := phaseProfiles[et]; ok && !e.chainVisible(f, profile.Driver) {
		res.Reason = fmt.Sprintf(
			"insufficient visible keypoints: %d/%d required visible (missing: %s); %s chain not visible on either side",
			visible, len(required), strings.Join(missing, ", "), profile.Driver,
		)
		return res
	}

	res.IsValid = true
	return res
}

func (e *Engine) chainVisible(f Frame, j Joint) bool {
	for _, t := range jointTriples[j] {
		if f.isVisible(t.a, e.cfg.VisibilityThreshold) &&
			f.isVisible(t.b, e.cfg.VisibilityThreshold) &&
			f.isVisible(t.c, e.cfg.VisibilityThreshold) {
			return true
		}
	}
	return false
}
