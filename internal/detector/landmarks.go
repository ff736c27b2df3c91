// Package detector defines the landmark provider boundary: hand landmark types,
// frame detectors and the providers the tracker polls once per detection tick.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the landmark model.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// Point3D is a landmark position. X and Y are normalized to [0,1] of the
// source frame, Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Centroid averages the landmarks at the given indices.
// Indices outside the landmark range are skipped; ok is false when none remain
// or when the averaged point is not finite.
func (h *HandLandmarks) Centroid(indices []int) (Point3D, bool) {
	if h == nil {
		return Point3D{}, false
	}

	var sum Point3D
	n := 0
	for _, idx := range indices {
		if idx < 0 || idx >= NumLandmarks {
			continue
		}
		p := h.Points[idx]
		sum.X += p.X
		sum.Y += p.Y
		sum.Z += p.Z
		n++
	}
	if n == 0 {
		return Point3D{}, false
	}

	c := Point3D{X: sum.X / float64(n), Y: sum.Y / float64(n), Z: sum.Z / float64(n)}
	if !finite(c.X) || !finite(c.Y) || !finite(c.Z) {
		return Point3D{}, false
	}
	return c, true
}

// KnownHandedness reports whether the label is one the tracker can follow.
func (h *HandLandmarks) KnownHandedness() bool {
	return h != nil && (h.Handedness == HandLeft || h.Handedness == HandRight)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
