package detector

import (
	"context"

	"gocv.io/x/gocv"
)

// Detector defines the interface for frame-based hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Provider is the landmark source polled by the gesture tracker once per
// detection tick. A nil or empty result means no hands this tick.
type Provider interface {
	Detect(ctx context.Context, timestampMs int64) ([]HandLandmarks, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, timestampMs int64) ([]HandLandmarks, error)

// Detect calls f.
func (f ProviderFunc) Detect(ctx context.Context, timestampMs int64) ([]HandLandmarks, error) {
	return f(ctx, timestampMs)
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int `yaml:"maxHands"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"minConfidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"minTrackingConf"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
