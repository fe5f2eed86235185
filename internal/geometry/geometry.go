// Package geometry computes angles, distances and finger predicates from
// hand landmarks.
//
// All predicates expect a hand that passed detector.HandLandmarks.Validate.
package geometry

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// ExtendedAngle is returned by Angle when either ray has zero length.
const ExtendedAngle = 180.0

// Dims selects planar or spatial distance.
type Dims int

const (
	// Dims2D uses x and y only.
	Dims2D Dims = 2
	// Dims3D includes the relative depth.
	Dims3D Dims = 3
)

// Finger names the four landmark indices of one digit, palm to tip.
type Finger struct {
	Name string
	MCP  int
	PIP  int
	DIP  int
	Tip  int
}

// The five digits. For the thumb the joints are CMC, MCP, IP and tip.
var (
	Thumb  = Finger{"thumb", detector.ThumbCMC, detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip}
	Index  = Finger{"index", detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip}
	Middle = Finger{"middle", detector.MiddleMCP, detector.MiddlePIP, detector.MiddleDIP, detector.MiddleTip}
	Ring   = Finger{"ring", detector.RingMCP, detector.RingPIP, detector.RingDIP, detector.RingTip}
	Pinky  = Finger{"pinky", detector.PinkyMCP, detector.PinkyPIP, detector.PinkyDIP, detector.PinkyTip}
)

// Angle returns the angle at vertex b between rays b->a and b->c in degrees,
// measured in the image plane.
func Angle(a, b, c detector.Point3D) float64 {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	magBA := math.Hypot(bax, bay)
	magBC := math.Hypot(bcx, bcy)
	if magBA == 0 || magBC == 0 {
		return ExtendedAngle
	}

	cos := (bax*bcx + bay*bcy) / (magBA * magBC)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q detector.Point3D, dims Dims) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	if dims == Dims3D {
		dz := p.Z - q.Z
		return math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return math.Hypot(dx, dy)
}

// JointAngles returns the angles at the finger's PIP and DIP joints.
func JointAngles(hand *detector.HandLandmarks, f Finger) (pip, dip float64) {
	pts := hand.Points
	pip = Angle(pts[f.MCP], pts[f.PIP], pts[f.DIP])
	dip = Angle(pts[f.PIP], pts[f.DIP], pts[f.Tip])
	return pip, dip
}

// IsExtended reports whether the fingertip sits above its PIP joint by more
// than the strictness-scaled margin. Image y grows downward.
func IsExtended(hand *detector.HandLandmarks, f Finger, s Strictness) bool {
	pts := hand.Points
	return pts[f.PIP].Y-pts[f.Tip].Y > ExtensionMargin.At(s)
}

// IsCurled reports whether the PIP or DIP angle falls below the curl angle, or
// the tip is pulled in toward the wrist relative to the MCP. Either suffices.
func IsCurled(hand *detector.HandLandmarks, f Finger, s Strictness) bool {
	pip, dip := JointAngles(hand, f)
	maxAngle := CurlAngle.At(s)
	if pip < maxAngle || dip < maxAngle {
		return true
	}

	pts := hand.Points
	base := Distance(pts[f.MCP], pts[detector.Wrist], Dims2D)
	if base == 0 {
		return false
	}
	ratio := Distance(pts[f.Tip], pts[detector.Wrist], Dims2D) / base
	return ratio < CurlRatio.At(s)
}

// BoundingBoxHeight is max(y) - min(y) over all landmarks.
func BoundingBoxHeight(hand *detector.HandLandmarks) float64 {
	if hand == nil || len(hand.Points) == 0 {
		return 0
	}
	minY, maxY := hand.Points[0].Y, hand.Points[0].Y
	for _, p := range hand.Points[1:] {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return maxY - minY
}

// PalmCenter is the midpoint of the wrist and the middle finger MCP.
func PalmCenter(hand *detector.HandLandmarks) detector.Point3D {
	w := hand.Points[detector.Wrist]
	m := hand.Points[detector.MiddleMCP]
	return detector.Point3D{
		X: (w.X + m.X) / 2,
		Y: (w.Y + m.Y) / 2,
		Z: (w.Z + m.Z) / 2,
	}
}

// PalmLength is the planar wrist to middle MCP distance.
func PalmLength(hand *detector.HandLandmarks) float64 {
	return Distance(hand.Points[detector.Wrist], hand.Points[detector.MiddleMCP], Dims2D)
}

// PalmWidth is the planar index MCP to pinky MCP distance.
func PalmWidth(hand *detector.HandLandmarks) float64 {
	return Distance(hand.Points[detector.IndexMCP], hand.Points[detector.PinkyMCP], Dims2D)
}
