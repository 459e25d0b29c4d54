package formcheck

import (
	"math"
	"sort"
	"time"
)

const topErrorsCount = 3

type CommonError struct {
	ErrorType  string  `json:"errorType"`
	Count      int     `json:"count"`
	// Percentage of analyzed frames with this violation, on the same 0-100
	// scale as FormAccuracy.
	Percentage float64 `json:"percentage"`
}

type Summary struct {
	SessionID     string        `json:"sessionId"`
	Exercise      ExerciseType  `json:"exercise"`
	StartedAt     time.Time     `json:"startedAt"`
	EndedAt       time.Time     `json:"endedAt"`
	TotalReps     int           `json:"totalReps"`
	FormAccuracy  int           `json:"formAccuracy"`
	AverageScore  float64       `json:"averageScore"`
	CommonErrors  []CommonError `json:"commonErrors"`
	TotalFrames   int           `json:"totalFrames"`
	SkippedFrames int           `json:"skippedFrames"`
	PhaseChanges  int           `json:"phaseChanges"`
	Abandoned     bool          `json:"abandoned"`
}

// Accumulator collects per-frame analyses over one workout session.
// Frames rejected by the validator are only counted as skipped.
type Accumulator struct {
	RepCount         int
	PhaseHistory     []PhaseChange
	FormScoreSamples []int
	ViolationCounts  map[string]int
	GoodFrames       int
	TotalFrames      int
	SkippedFrames    int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		PhaseHistory:     []PhaseChange{},
		FormScoreSamples: []int{},
		ViolationCounts:  make(map[string]int),
	}
}

func (a *Accumulator) Add(analysis FrameAnalysis) {
	if !analysis.Analyzed {
		a.Skip()
		return
	}
	a.TotalFrames++
	if analysis.IsGoodForm {
		a.GoodFrames++
	}
	a.FormScoreSamples = append(a.FormScoreSamples, analysis.FormScore)
	for _, v := range analysis.Violations {
		a.ViolationCounts[v.ErrorType]++
	}
}

func (a *Accumulator) Skip() {
	a.SkippedFrames++
}

func (a *Accumulator) AddPhaseStep(step PhaseStep) {
	if step.Changed != nil {
		a.PhaseHistory = append(a.PhaseHistory, *step.Changed)
	}
	if step.RepCompleted {
		a.RepCount++
	}
}

// FormAccuracy is round(100 * good / total), 0 for an empty session.
func (a *Accumulator) FormAccuracy() int {
	if a.TotalFrames == 0 {
		return 0
	}
	return int(math.Round(100 * float64(a.GoodFrames) / float64(a.TotalFrames)))
}

func (a *Accumulator) AverageScore() float64 {
	if len(a.FormScoreSamples) == 0 {
		return 0
	}
	sum := 0
	for _, s := range a.FormScoreSamples {
		sum += s
	}
	return round2(float64(sum) / float64(len(a.FormScoreSamples)))
}

// CommonErrors returns the most frequent violation types, most frequent first.
func (a *Accumulator) CommonErrors() []CommonError {
	errs := make([]CommonError, 0, len(a.ViolationCounts))
	for errType, count := range a.ViolationCounts {
		ce := CommonError{
			ErrorType: errType,
			Count:     count,
		}
		if a.TotalFrames > 0 {
			ce.Percentage = round2(100 * float64(count) / float64(a.TotalFrames))
		}
		errs = append(errs, ce)
	}

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Count != errs[j].Count {
			return errs[i].Count > errs[j].Count
		}
		return errs[i].ErrorType < errs[j].ErrorType
	})

	if len(errs) > topErrorsCount {
		errs = errs[:topErrorsCount]
	}
	return errs
}

func (a *Accumulator) Summary() Summary {
	return Summary{
		TotalReps:     a.RepCount,
		FormAccuracy:  a.FormAccuracy(),
		AverageScore:  a.AverageScore(),
		CommonErrors:  a.CommonErrors(),
		TotalFrames:   a.TotalFrames,
		SkippedFrames: a.SkippedFrames,
		PhaseChanges:  len(a.PhaseHistory),
	}
}

// leave only 2 decimals
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
