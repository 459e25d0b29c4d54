package formcheck

import (
	"math"
	"time"
)

type LandmarkName string

const (
	Nose          LandmarkName = "nose"
	LeftEye       LandmarkName = "left_eye"
	RightEye      LandmarkName = "right_eye"
	LeftEar       LandmarkName = "left_ear"
	RightEar      LandmarkName = "right_ear"
	LeftShoulder  LandmarkName = "left_shoulder"
	RightShoulder LandmarkName = "right_shoulder"
	LeftElbow     LandmarkName = "left_elbow"
	RightElbow    LandmarkName = "right_elbow"
	LeftWrist     LandmarkName = "left_wrist"
	RightWrist    LandmarkName = "right_wrist"
	LeftHip       LandmarkName = "left_hip"
	RightHip      LandmarkName = "right_hip"
	LeftKnee      LandmarkName = "left_knee"
	RightKnee     LandmarkName = "right_knee"
	LeftAnkle     LandmarkName = "left_ankle"
	RightAnkle    LandmarkName = "right_ankle"
)

var landmarkVocabulary = map[LandmarkName]bool{
	Nose: true, LeftEye: true, RightEye: true, LeftEar: true, RightEar: true,
	LeftShoulder: true, RightShoulder: true,
	LeftElbow: true, RightElbow: true,
	LeftWrist: true, RightWrist: true,
	LeftHip: true, RightHip: true,
	LeftKnee: true, RightKnee: true,
	LeftAnkle: true, RightAnkle: true,
}

func (n LandmarkName) String() string {
	return string(n)
}

func (n LandmarkName) IsValid() bool {
	return landmarkVocabulary[n]
}

// Landmark is a single body point as reported by the pose provider.
// X and Y are normalized image coordinates, Y grows downwards.
type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          *float64 `json:"z,omitempty"`
	Visibility float64  `json:"visibility"`
}

func (l Landmark) point() Point {
	return Point{X: l.X, Y: l.Y}
}

// usable reports whether the coordinates can take part in angle math.
func (l Landmark) usable() bool {
	return !math.IsNaN(l.X) && !math.IsNaN(l.Y) && !math.IsInf(l.X, 0) && !math.IsInf(l.Y, 0)
}

type Frame struct {
	Timestamp time.Time                 `json:"timestamp"`
	Landmarks map[LandmarkName]Landmark `json:"landmarks"`
}

// Sanitize drops landmarks outside the known vocabulary and returns how many were dropped.
func (f *Frame) Sanitize() int {
	dropped := 0
	for name := range f.Landmarks {
		if !name.IsValid() {
			delete(f.Landmarks, name)
			dropped++
		}
	}
	return dropped
}

func (f Frame) landmark(name LandmarkName) (Landmark, bool) {
	l, ok := f.Landmarks[name]
	if !ok || !l.usable() {
		return Landmark{}, false
	}
	return l, true
}

func (f Frame) isVisible(name LandmarkName, threshold float64) bool {
	l, ok := f.landmark(name)
	return ok && l.Visibility > threshold
}
