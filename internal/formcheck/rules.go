package formcheck

import "math"

const (
	MaxFormScore = 100
	// GoodFormScore is the pass/fail line used for session accuracy accounting.
	GoodFormScore = 70
)

type Violation struct {
	Rule       string `json:"rule"`
	Message    string `json:"message"`
	Correction string `json:"correction"`
	ErrorType  string `json:"errorType"`
	Penalty    int    `json:"penalty"`
}

type RuleOutcome int

const (
	RulePassed RuleOutcome = iota
	RuleFailed
	// RuleSkipped - an input angle was absent, the rule says nothing about the frame
	RuleSkipped
)

// Rule is a pure predicate over an AngleSet.
type Rule struct {
	Name       string
	ErrorType  string
	Message    string
	Correction string
	Penalty    int
	Check      func(AngleSet) RuleOutcome
}

func (r Rule) violation() Violation {
	return Violation{
		Rule:       r.Name,
		Message:    r.Message,
		Correction: r.Correction,
		ErrorType:  r.ErrorType,
		Penalty:    r.Penalty,
	}
}

type RuleResult struct {
	Violations []Violation `json:"violations"`
	FormScore  int         `json:"formScore"`
	Evaluated  int         `json:"evaluated"`
	Skipped    int         `json:"skipped"`
	// Unsupported is set when the exercise has no rule set at all
	Unsupported bool `json:"unsupported,omitempty"`
}

func IsGoodForm(score int) bool {
	return score >= GoodFormScore
}

// EvaluateRules runs every rule configured for the exercise. Each failed rule
// takes its penalty off the score, floored at 0.
func EvaluateRules(angles AngleSet, et ExerciseType) RuleResult {
	res := RuleResult{
		Violations: []Violation{},
		FormScore:  MaxFormScore,
	}

	rules, ok := ruleSets[et]
	if !ok {
		res.Unsupported = true
		return res
	}

	for _, rule := range rules {
		switch rule.Check(angles) {
		case RuleSkipped:
			res.Skipped++
		case RuleFailed:
			res.Evaluated++
			res.Violations = append(res.Violations, rule.violation())
			res.FormScore -= rule.Penalty
		default:
			res.Evaluated++
		}
	}

	if res.FormScore < 0 {
		res.FormScore = 0
	}

	return res
}

// Rules returns the rule set configured for the exercise (nil if none).
func Rules(et ExerciseType) []Rule {
	return ruleSets[et]
}

func failIf(cond bool) RuleOutcome {
	if cond {
		return RuleFailed
	}
	return RulePassed
}

// inBand reports lo < v <= hi
func inBand(v, lo, hi float64) bool {
	return v > lo && v <= hi
}

var ruleSets = map[ExerciseType][]Rule{
	ExerciseSquat: {
		{
			Name:       "squat_depth",
			ErrorType:  "insufficient_depth",
			Message:    "Squat is not reaching depth",
			Correction: "Sit your hips back and down until your thighs are at least parallel to the floor",
			Penalty:    25,
			Check: func(a AngleSet) RuleOutcome {
				knee := a.Average(JointKnee)
				if knee == nil {
					return RuleSkipped
				}
				return failIf(inBand(*knee, 100, 160))
			},
		},
		{
			Name:       "squat_back_posture",
			ErrorType:  "excessive_forward_lean",
			Message:    "Torso is leaning too far forward",
			Correction: "Keep your chest up and your back straight",
			Penalty:    30,
			Check: func(a AngleSet) RuleOutcome {
				if a.Back == nil {
					return RuleSkipped
				}
				return failIf(*a.Back > 45)
			},
		},
		{
			Name:       "squat_knee_symmetry",
			ErrorType:  "knee_asymmetry",
			Message:    "Knees are bending unevenly",
			Correction: "Distribute your weight evenly across both legs",
			Penalty:    15,
			Check: func(a AngleSet) RuleOutcome {
				if a.LeftKnee == nil || a.RightKnee == nil {
					return RuleSkipped
				}
				return failIf(math.Abs(*a.LeftKnee-*a.RightKnee) > 15)
			},
		},
	},
	ExercisePushup: {
		{
			Name:       "pushup_elbow_depth",
			ErrorType:  "insufficient_depth",
			Message:    "Push-up is not deep enough",
			Correction: "Lower your chest until your elbows reach 90 degrees",
			Penalty:    25,
			Check: func(a AngleSet) RuleOutcome {
				elbow := a.Average(JointElbow)
				if elbow == nil {
					return RuleSkipped
				}
				return failIf(inBand(*elbow, 90, 160))
			},
		},
		{
			Name:       "pushup_back_straightness",
			ErrorType:  "hip_sag",
			Message:    "Body is not in a straight line",
			Correction: "Brace your core and keep your hips in line with your shoulders and knees",
			Penalty:    30,
			Check: func(a AngleSet) RuleOutcome {
				hip := a.Average(JointHip)
				if hip == nil {
					return RuleSkipped
				}
				return failIf(*hip < 160)
			},
		},
	},
	ExerciseDeadlift: {
		{
			Name:       "deadlift_back_neutrality",
			ErrorType:  "rounded_back",
			Message:    "Back is not neutral",
			Correction: "Keep your spine neutral and your chest proud through the lift",
			Penalty:    30,
			Check: func(a AngleSet) RuleOutcome {
				if a.Back == nil {
					return RuleSkipped
				}
				return failIf(*a.Back > 70)
			},
		},
		{
			Name:       "deadlift_hip_hinge",
			ErrorType:  "insufficient_hinge",
			Message:    "Knees are bending instead of hips hinging",
			Correction: "Push your hips back and keep your shins close to vertical",
			Penalty:    20,
			Check: func(a AngleSet) RuleOutcome {
				hip := a.Average(JointHip)
				knee := a.Average(JointKnee)
				if hip == nil || knee == nil {
					return RuleSkipped
				}
				return failIf(inBand(*hip, 120, 160) && *knee <= 140)
			},
		},
	},
}
