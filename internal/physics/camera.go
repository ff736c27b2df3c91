package physics

import (
	"fmt"
	"math"

	"github.com/ayusman/slicecam/internal/tracker"
)

// CameraConfig describes the perspective camera the renderer draws with. The
// camera looks down -Z with Y up.
type CameraConfig struct {
	Position Vec3    `yaml:"position"`
	FovYDeg  float64 `yaml:"fovYDeg"`
}

// DefaultCameraConfig places the camera ten units in front of the play plane.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position: Vec3{Z: 10},
		FovYDeg:  75,
	}
}

// Validate checks the field of view is usable.
func (c CameraConfig) Validate() error {
	if c.FovYDeg <= 0 || c.FovYDeg >= 180 {
		return fmt.Errorf("camera fov must be within (0,180), got %f", c.FovYDeg)
	}
	return nil
}

// Camera projects world positions to CSS pixel coordinates on the canvas.
type Camera struct {
	config   CameraConfig
	focal    float64
	viewport tracker.Canvas
}

// NewCamera creates a camera for the given viewport.
func NewCamera(config CameraConfig, viewport tracker.Canvas) *Camera {
	c := &Camera{config: config, viewport: viewport}
	c.focal = 1 / math.Tan(config.FovYDeg*math.Pi/360)
	return c
}

// SetViewport updates the canvas the camera projects onto.
func (c *Camera) SetViewport(viewport tracker.Canvas) {
	c.viewport = viewport
}

// Viewport returns the current canvas size.
func (c *Camera) Viewport() tracker.Canvas {
	return c.viewport
}

// Project maps p to screen pixels, origin top-left. It reports false for
// points at or behind the camera plane or when the viewport is empty.
func (c *Camera) Project(p Vec3) (tracker.Point, bool) {
	if !c.viewport.Valid() {
		return tracker.Point{}, false
	}
	rel := p.Sub(c.config.Position)
	if rel.Z >= 0 {
		return tracker.Point{}, false
	}
	aspect := c.viewport.Width / c.viewport.Height
	ndcX := rel.X / -rel.Z * c.focal / aspect
	ndcY := rel.Y / -rel.Z * c.focal
	return tracker.Point{
		X: (ndcX + 1) / 2 * c.viewport.Width,
		Y: (1 - ndcY) / 2 * c.viewport.Height,
	}, true
}

// VisibleHalfHeight returns half the world height visible at depth z.
func (c *Camera) VisibleHalfHeight(z float64) float64 {
	return math.Abs(c.config.Position.Z-z) / c.focal
}
