package formcheck

import "math"

type Point struct {
	X float64
	Y float64
}

func midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Joint names a joint angle pair driving the phase classifier.
type Joint string

const (
	JointKnee  Joint = "knee"
	JointHip   Joint = "hip"
	JointElbow Joint = "elbow"
)

// AngleSet holds interior joint angles in degrees, [0, 180], 180 = fully extended.
// A nil value means the angle could not be computed for the frame.
type AngleSet struct {
	LeftKnee   *float64 `json:"leftKneeAngle,omitempty"`
	RightKnee  *float64 `json:"rightKneeAngle,omitempty"`
	LeftHip    *float64 `json:"leftHipAngle,omitempty"`
	RightHip   *float64 `json:"rightHipAngle,omitempty"`
	Back       *float64 `json:"backAngle,omitempty"`
	LeftElbow  *float64 `json:"leftElbowAngle,omitempty"`
	RightElbow *float64 `json:"rightElbowAngle,omitempty"`
}

// Average returns the mean of the left/right pair for the joint, using
// whichever sides are present.
func (s AngleSet) Average(j Joint) *float64 {
	switch j {
	case JointKnee:
		return meanOf(s.LeftKnee, s.RightKnee)
	case JointHip:
		return meanOf(s.LeftHip, s.RightHip)
	case JointElbow:
		return meanOf(s.LeftElbow, s.RightElbow)
	default:
		return nil
	}
}

func meanOf(a, b *float64) *float64 {
	switch {
	case a != nil && b != nil:
		m := (*a + *b) / 2
		return &m
	case a != nil:
		v := *a
		return &v
	case b != nil:
		v := *b
		return &v
	default:
		return nil
	}
}

// JointAngle returns the angle at vertex b formed by a-b-c, in degrees.
// The second return value is false when either segment has zero length.
func JointAngle(a, b, c Point) (float64, bool) {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	magBA := math.Hypot(bax, bay)
	magBC := math.Hypot(bcx, bcy)
	if magBA == 0 || magBC == 0 {
		return 0, false
	}

	cos := (bax*bcx + bay*bcy) / (magBA * magBC)
	// float error can push it slightly outside [-1, 1]
	cos = math.Max(-1, math.Min(1, cos))

	deg := math.Acos(cos) * 180 / math.Pi
	if math.IsNaN(deg) {
		return 0, false
	}
	return deg, true
}

// TorsoLean returns the deviation of the hip->shoulder vector from true vertical
// in degrees: 0 is upright, 90 is horizontal.
func TorsoLean(shoulderMid, hipMid Point) (float64, bool) {
	// y axis points down, so "up" is (0, -1)
	above := Point{X: hipMid.X, Y: hipMid.Y - 1}
	return JointAngle(shoulderMid, hipMid, above)
}

type angleTriple struct {
	a, b, c LandmarkName
}

var (
	leftKneeTriple   = angleTriple{LeftHip, LeftKnee, LeftAnkle}
	rightKneeTriple  = angleTriple{RightHip, RightKnee, RightAnkle}
	leftHipTriple    = angleTriple{LeftShoulder, LeftHip, LeftKnee}
	rightHipTriple   = angleTriple{RightShoulder, RightHip, RightKnee}
	leftElbowTriple  = angleTriple{LeftShoulder, LeftElbow, LeftWrist}
	rightElbowTriple = angleTriple{RightShoulder, RightElbow, RightWrist}
)

var jointTriples = map[Joint][2]angleTriple{
	JointKnee:  {leftKneeTriple, rightKneeTriple},
	JointHip:   {leftHipTriple, rightHipTriple},
	JointElbow: {leftElbowTriple, rightElbowTriple},
}

func (f Frame) angleAt(t angleTriple) *float64 {
	a, okA := f.landmark(t.a)
	b, okB := f.landmark(t.b)
	c, okC := f.landmark(t.c)
	if !okA || !okB || !okC {
		return nil
	}
	deg, ok := JointAngle(a.point(), b.point(), c.point())
	if !ok {
		return nil
	}
	return &deg
}

func (f Frame) backAngle() *float64 {
	ls, ok1 := f.landmark(LeftShoulder)
	rs, ok2 := f.landmark(RightShoulder)
	lh, ok3 := f.landmark(LeftHip)
	rh, ok4 := f.landmark(RightHip)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}
	deg, ok := TorsoLean(midpoint(ls.point(), rs.point()), midpoint(lh.point(), rh.point()))
	if !ok {
		return nil
	}
	return &deg
}

// ExtractAngles computes every named joint angle available in the frame.
func ExtractAngles(f Frame) AngleSet {
	return AngleSet{
		LeftKnee:   f.angleAt(leftKneeTriple),
		RightKnee:  f.angleAt(rightKneeTriple),
		LeftHip:    f.angleAt(leftHipTriple),
		RightHip:   f.angleAt(rightHipTriple),
		Back:       f.backAngle(),
		LeftElbow:  f.angleAt(leftElbowTriple),
		RightElbow: f.angleAt(rightElbowTriple),
	}
}
