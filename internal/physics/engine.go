// Package physics simulates falling fruit and bombs under constant gravity and
// resolves cuts against the tracker's cutting paths.
package physics

import (
	"fmt"
	"math"
	"slices"

	"github.com/ayusman/slicecam/internal/tracker"
)

// Config holds the engine tuning.
type Config struct {
	// HitThresholdPx is the pixel radius around a projected object centre
	// that a path segment must enter to cut it.
	HitThresholdPx float64 `yaml:"hitThresholdPx"`
	// RecentPointsCount is how many of a path's newest points are tested.
	RecentPointsCount int `yaml:"recentPointsCount"`
	// OffscreenY removes objects that fall below this world height.
	OffscreenY float64 `yaml:"offscreenY"`
	// FruitParticles and BombParticles size the explosion effects.
	FruitParticles int          `yaml:"fruitParticles"`
	BombParticles  int          `yaml:"bombParticles"`
	Camera         CameraConfig `yaml:"camera"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		HitThresholdPx:    25,
		RecentPointsCount: 6,
		OffscreenY:        -12,
		FruitParticles:    24,
		BombParticles:     48,
		Camera:            DefaultCameraConfig(),
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.HitThresholdPx <= 0 {
		return fmt.Errorf("hit threshold must be positive, got %f", c.HitThresholdPx)
	}
	if c.RecentPointsCount < 2 {
		return fmt.Errorf("recent points count must be at least 2, got %d", c.RecentPointsCount)
	}
	if c.FruitParticles < 0 || c.BombParticles < 0 {
		return fmt.Errorf("particle counts must not be negative")
	}
	return c.Camera.Validate()
}

// Engine owns the live object list. It is not safe for concurrent use.
type Engine struct {
	config  Config
	camera  *Camera
	objects []*Object

	onFruitCut func(Fruit)
	onBombCut  func()
}

// NewEngine creates an engine projecting onto viewport.
func NewEngine(config Config, viewport tracker.Canvas) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid physics config: %w", err)
	}
	return &Engine{
		config: config,
		camera: NewCamera(config.Camera, viewport),
	}, nil
}

// OnFruitCut registers the callback fired once per cut fruit.
func (e *Engine) OnFruitCut(fn func(Fruit)) {
	e.onFruitCut = fn
}

// OnBombCut registers the callback fired once per cut bomb.
func (e *Engine) OnBombCut(fn func()) {
	e.onBombCut = fn
}

// Camera returns the projection used for hit testing.
func (e *Engine) Camera() *Camera {
	return e.camera
}

// Add puts an object into the live list.
func (e *Engine) Add(obj *Object) {
	if obj == nil || obj.Cut {
		return
	}
	e.objects = append(e.objects, obj)
}

// Objects returns the live objects. The pointers stay owned by the engine.
func (e *Engine) Objects() []*Object {
	return slices.Clone(e.objects)
}

// Len returns the number of live objects.
func (e *Engine) Len() int {
	return len(e.objects)
}

// Clear drops every live object without firing callbacks.
func (e *Engine) Clear() {
	clear(e.objects)
	e.objects = e.objects[:0]
}

// Tick advances every live object by dt seconds, cuts those the paths pass
// through and removes the ones that fell off screen. It returns the
// explosions produced this tick.
func (e *Engine) Tick(dt float64, paths []tracker.CuttingPath) []Explosion {
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}
	for _, o := range e.objects {
		o.step(dt)
	}

	var explosions []Explosion
	if len(paths) > 0 {
		for _, o := range slices.Clone(e.objects) {
			if !e.hit(o, paths) {
				continue
			}
			if ex, ok := e.Cut(o); ok {
				explosions = append(explosions, ex)
			}
		}
	}

	e.objects = slices.DeleteFunc(e.objects, func(o *Object) bool {
		return o.Position.Y < e.config.OffscreenY
	})
	return explosions
}

// Cut resolves a cut on obj: it marks the object, removes it from the live
// list and fires exactly one callback. Cutting an object that is already cut
// returns false and does nothing.
func (e *Engine) Cut(obj *Object) (Explosion, bool) {
	if obj == nil || obj.Cut {
		return Explosion{}, false
	}
	obj.Cut = true
	e.objects = slices.DeleteFunc(e.objects, func(o *Object) bool { return o == obj })

	ex := Explosion{
		ObjectID: obj.ID,
		Position: obj.Position,
		Kind:     obj.Kind,
		Fruit:    obj.Fruit,
	}
	switch obj.Kind {
	case KindBomb:
		ex.ParticleCount = e.config.BombParticles
		ex.Color = bombColor
		if e.onBombCut != nil {
			e.onBombCut()
		}
	default:
		ex.ParticleCount = e.config.FruitParticles
		ex.Color = obj.Fruit.Color()
		if e.onFruitCut != nil {
			e.onFruitCut(obj.Fruit)
		}
	}
	return ex, true
}

// hit tests the newest points of each path against the projected centre.
func (e *Engine) hit(o *Object, paths []tracker.CuttingPath) bool {
	p, ok := e.camera.Project(o.Position)
	if !ok {
		return false
	}
	for _, path := range paths {
		if minSegmentDistance(p, recent(path.Points, e.config.RecentPointsCount)) < e.config.HitThresholdPx {
			return true
		}
	}
	return false
}

func recent(points []tracker.Point, n int) []tracker.Point {
	if len(points) > n {
		return points[len(points)-n:]
	}
	return points
}

func minSegmentDistance(p tracker.Point, points []tracker.Point) float64 {
	best := math.Inf(1)
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		best = min(best, PointToSegmentDistance(p.X, p.Y, a.X, a.Y, b.X, b.Y))
	}
	return best
}
