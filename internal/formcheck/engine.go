// Package formcheck turns streams of body keypoint frames into joint angles,
// movement phases, rep counts and a form score with corrective feedback.
// It does no I/O; every failure degrades to "signal absent".
package formcheck

import "time"

type Config struct {
	// VisibilityThreshold - a landmark counts as visible above this confidence
	VisibilityThreshold float64 `toml:"visibility_threshold"`
	// MinVisibleFraction - share of required landmarks that must be visible
	MinVisibleFraction float64 `toml:"min_visible_fraction"`
	// HysteresisFrames - consecutive frames a new phase must be seen before it is accepted
	HysteresisFrames int `toml:"hysteresis_frames"`
	// RepCooldown - minimum time between two counted reps
	RepCooldown time.Duration `toml:"rep_cooldown"`
}

// DefaultConfig is tuned for clients polling keypoints every 200-500ms.
// Sources streaming at camera frame rate should raise HysteresisFrames to ~5.
func DefaultConfig() Config {
	return Config{
		VisibilityThreshold: 0.5,
		MinVisibleFraction:  0.7,
		HysteresisFrames:    1,
		RepCooldown:         time.Second,
	}
}

// withDefaults fills zero values, so a partially filled config stays usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.VisibilityThreshold <= 0 {
		c.VisibilityThreshold = d.VisibilityThreshold
	}
	if c.MinVisibleFraction <= 0 {
		c.MinVisibleFraction = d.MinVisibleFraction
	}
	if c.HysteresisFrames < 1 {
		c.HysteresisFrames = d.HysteresisFrames
	}
	if c.RepCooldown <= 0 {
		c.RepCooldown = d.RepCooldown
	}
	return c
}

// Engine is stateless and safe for concurrent use; per session state lives in Session.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg: cfg.withDefaults(),
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// FrameAnalysis is the stateless part of a frame result: validation, angles and rules.
type FrameAnalysis struct {
	Timestamp   time.Time        `json:"timestamp"`
	Analyzed    bool             `json:"analyzed"`
	Validation  ValidationResult `json:"validation"`
	Angles      AngleSet         `json:"angles"`
	Violations  []Violation      `json:"violations"`
	FormScore   int              `json:"formScore"`
	IsGoodForm  bool             `json:"isGoodForm"`
	Unsupported bool             `json:"unsupported,omitempty"`
}

// Analyze validates the frame and, if valid, extracts angles and evaluates rules.
// Invalid frames are returned with Analyzed=false and no score.
func (e *Engine) Analyze(f Frame, et ExerciseType) FrameAnalysis {
	res := FrameAnalysis{
		Timestamp:  f.Timestamp,
		Validation: e.Validate(f, et),
		Violations: []Violation{},
	}
	if !res.Validation.IsValid {
		return res
	}

	res.Analyzed = true
	res.Angles = ExtractAngles(f)

	rules := EvaluateRules(res.Angles, et)
	res.Violations = rules.Violations
	res.FormScore = rules.FormScore
	res.IsGoodForm = IsGoodForm(rules.FormScore)
	res.Unsupported = rules.Unsupported

	return res
}
