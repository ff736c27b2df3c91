package game

import (
	"errors"
	"fmt"

	"github.com/ayusman/slicecam/internal/tracker"
)

// Rect is an axis-aligned screen rectangle in CSS pixels.
type Rect struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

// Config holds the orchestrator settings.
type Config struct {
	Canvas        tracker.Canvas `yaml:"canvas"`
	StartButton   Rect           `yaml:"startButton"`
	RestartButton Rect           `yaml:"restartButton"`
	// CountdownSteps is how many ticks a hover must last to confirm.
	CountdownSteps      int   `yaml:"countdownSteps"`
	CountdownIntervalMs int64 `yaml:"countdownIntervalMs"`
	// MaxDeltaMs caps the frame delta so a stalled host cannot teleport
	// objects or drain the clock in one step.
	MaxDeltaMs int64 `yaml:"maxDeltaMs"`
	// FPS is the rate the host drives Update at.
	FPS int `yaml:"fps"`
}

// DefaultConfig returns a 1280x720 canvas with a centred start button, a
// restart button below it and a three-second countdown. The buttons do not
// overlap, so a hand left on Restart does not start the next game.
func DefaultConfig() Config {
	return Config{
		Canvas:              tracker.Canvas{Width: 1280, Height: 720},
		StartButton:         Rect{X: 540, Y: 310, W: 200, H: 100},
		RestartButton:       Rect{X: 540, Y: 480, W: 200, H: 100},
		CountdownSteps:      3,
		CountdownIntervalMs: 1000,
		MaxDeltaMs:          100,
		FPS:                 60,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if !c.Canvas.Valid() {
		return fmt.Errorf("canvas must have positive size, got %.0fx%.0f", c.Canvas.Width, c.Canvas.Height)
	}
	if c.StartButton.W <= 0 || c.StartButton.H <= 0 || c.RestartButton.W <= 0 || c.RestartButton.H <= 0 {
		return errors.New("buttons must have positive size")
	}
	if c.CountdownSteps < 1 {
		return fmt.Errorf("countdown steps must be at least 1, got %d", c.CountdownSteps)
	}
	if c.CountdownIntervalMs <= 0 {
		return fmt.Errorf("countdown interval must be positive, got %d", c.CountdownIntervalMs)
	}
	if c.MaxDeltaMs <= 0 {
		return fmt.Errorf("max delta must be positive, got %d", c.MaxDeltaMs)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	return nil
}
