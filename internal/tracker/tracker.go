// Package tracker turns per-frame hand landmarks into smoothed blade points and
// bounded, time-decaying trails that the collision engine can test.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/slicecam/internal/detector"
)

// ErrInvalidInterval is returned when a detection interval is not positive.
var ErrInvalidInterval = errors.New("detection interval must be positive")

// Hand identifies the source of a trail.
type Hand int

const (
	HandLeft Hand = iota
	HandRight
	HandMouse
)

func (h Hand) String() string {
	switch h {
	case HandLeft:
		return "left"
	case HandRight:
		return "right"
	case HandMouse:
		return "mouse"
	default:
		return fmt.Sprintf("hand(%d)", int(h))
	}
}

// MarshalText encodes the hand by name.
func (h Hand) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// Point is a screen-space position in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position is a smoothed blade point. Z is the landmark model's relative depth.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TrailPoint is a blade point stamped with the frame time it was recorded at.
type TrailPoint struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	TimestampMs int64   `json:"t"`
}

// CuttingPath is the hit-testable view of one trail, oldest point first.
type CuttingPath struct {
	Hand   Hand    `json:"hand"`
	Points []Point `json:"points"`
}

// HandState is the current smoothed position of a visible hand.
type HandState struct {
	Hand       Hand     `json:"hand"`
	Position   Position `json:"position"`
	Confidence float64  `json:"confidence"`
}

// Result is what one detection produced. Between detections the tracker
// hands back the same Result.
type Result struct {
	Hands       []HandState `json:"hands"`
	TimestampMs int64       `json:"timestampMs"`
}

// Canvas is the size of the drawing surface in CSS pixels. Blade points are
// scaled by these dimensions, never by the device-pixel buffer size.
type Canvas struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Valid reports whether both dimensions are positive.
func (c Canvas) Valid() bool {
	return c.Width > 0 && c.Height > 0
}

// Tracker is the gesture tracking capability the game depends on.
type Tracker interface {
	// Update polls the landmark provider when the detection interval has
	// elapsed and prunes trails on every call.
	Update(ctx context.Context, canvas Canvas, nowMs int64) Result
	// ProcessFrame ingests one set of detections directly.
	ProcessFrame(hands []detector.HandLandmarks, canvas Canvas, nowMs int64) Result
	SetDetectionInterval(ms int64) error
	CuttingPaths() []CuttingPath
	IsHandInArea(x, y, w, h float64) bool
	AddPointerPoint(x, y float64, nowMs int64)
	ClearPointer()
	Reset()
}

// Config holds the tracker tuning.
type Config struct {
	// DetectionIntervalMs is the minimum time between provider calls.
	DetectionIntervalMs int64 `yaml:"detectionIntervalMs"`
	// SmoothingWindow is the number of raw blade points averaged per hand.
	SmoothingWindow int `yaml:"smoothingWindow"`
	// MaxTrailLength caps the points kept per trail; the oldest is dropped first.
	MaxTrailLength int `yaml:"maxTrailLength"`
	// RetentionWindowMs is how long a trail point survives.
	RetentionWindowMs int64 `yaml:"retentionWindowMs"`
	// MinConfidence drops hands the model is unsure about.
	MinConfidence float64 `yaml:"minConfidence"`
	// Fingertips are the landmark indices averaged into the blade point.
	Fingertips []int `yaml:"fingertips"`
	// MirrorX flips the normalized x axis before scaling.
	MirrorX bool `yaml:"mirrorX"`
	// PointerHoldMs is how long a resting pointer still counts for
	// IsHandInArea. Zero keeps it until the next pointer event or
	// ClearPointer.
	PointerHoldMs int64 `yaml:"pointerHoldMs"`
}

// DefaultConfig returns the tracker defaults.
func DefaultConfig() Config {
	return Config{
		DetectionIntervalMs: 33,
		SmoothingWindow:     3,
		MaxTrailLength:      12,
		RetentionWindowMs:   250,
		MinConfidence:       0.5,
		Fingertips:          []int{detector.IndexTip, detector.MiddleTip},
		MirrorX:             false,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.DetectionIntervalMs <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, c.DetectionIntervalMs)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing window must be at least 1, got %d", c.SmoothingWindow)
	}
	if c.MaxTrailLength < 2 {
		return fmt.Errorf("max trail length must be at least 2, got %d", c.MaxTrailLength)
	}
	if c.RetentionWindowMs <= 0 {
		return fmt.Errorf("retention window must be positive, got %d", c.RetentionWindowMs)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0,1], got %f", c.MinConfidence)
	}
	if c.PointerHoldMs < 0 {
		return fmt.Errorf("pointer hold must not be negative, got %d", c.PointerHoldMs)
	}
	if len(c.Fingertips) == 0 {
		return errors.New("at least one fingertip landmark is required")
	}
	for _, idx := range c.Fingertips {
		if idx < 0 || idx >= detector.NumLandmarks {
			return fmt.Errorf("fingertip landmark %d out of range", idx)
		}
	}
	return nil
}
