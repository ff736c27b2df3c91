package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ayusman/slicecam/internal/detector"
)

var trackedHands = [...]Hand{HandLeft, HandRight}

// HandTracker polls a landmark provider, smooths one blade point per hand and
// keeps a trail for each hand plus the mouse pointer. It is not safe for
// concurrent use; the game loop owns it.
type HandTracker struct {
	config   Config
	provider detector.Provider

	smoothers map[Hand]*smoother
	trails    map[Hand]*Trail
	current   map[Hand]HandState

	// pointer is the last mouse or touch position. It outlives the pointer
	// trail so a resting cursor can hold a hover-confirm.
	pointer    TrailPoint
	hasPointer bool

	cached       Result
	lastDetectMs int64
	detected     bool
}

var _ Tracker = (*HandTracker)(nil)

// New creates a HandTracker. provider may be nil when detections are fed
// through ProcessFrame.
func New(config Config, provider detector.Provider) (*HandTracker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracker config: %w", err)
	}

	t := &HandTracker{
		config:    config,
		provider:  provider,
		smoothers: make(map[Hand]*smoother),
		trails:    make(map[Hand]*Trail),
		current:   make(map[Hand]HandState),
	}
	for _, h := range []Hand{HandLeft, HandRight, HandMouse} {
		t.trails[h] = NewTrail(config.MaxTrailLength, config.RetentionWindowMs)
	}
	for _, h := range trackedHands {
		t.smoothers[h] = newSmoother(config.SmoothingWindow)
	}
	return t, nil
}

// SetDetectionInterval changes the minimum time between provider calls.
func (t *HandTracker) SetDetectionInterval(ms int64) error {
	if ms <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, ms)
	}
	t.config.DetectionIntervalMs = ms
	return nil
}

// DetectionInterval returns the current detection interval in milliseconds.
func (t *HandTracker) DetectionInterval() int64 {
	return t.config.DetectionIntervalMs
}

// Update calls the provider if the detection interval has elapsed since the
// previous call and ingests its hands; otherwise it returns the cached result.
// A failing provider leaves the cached result in place. Trails are pruned on
// every call so they fade even while no hand is seen.
func (t *HandTracker) Update(ctx context.Context, canvas Canvas, nowMs int64) Result {
	if t.provider != nil && (!t.detected || nowMs-t.lastDetectMs >= t.config.DetectionIntervalMs) {
		t.lastDetectMs = nowMs
		t.detected = true

		hands, err := t.detect(ctx, nowMs)
		switch {
		case errors.Is(err, detector.ErrPending), errors.Is(err, detector.ErrNoMotion):
		case err != nil:
			log.Printf("Hand detection failed, keeping previous result: %v", err)
		default:
			t.ProcessFrame(hands, canvas, nowMs)
		}
	}

	t.prune(nowMs)
	return t.cached
}

// detect shields the loop from a provider that panics.
func (t *HandTracker) detect(ctx context.Context, nowMs int64) (hands []detector.HandLandmarks, err error) {
	defer func() {
		if r := recover(); r != nil {
			hands = nil
			err = fmt.Errorf("landmark provider panic: %v", r)
		}
	}()
	return t.provider.Detect(ctx, nowMs)
}

// ProcessFrame ingests one set of detections. Hands below the confidence
// threshold or with an unknown label are ignored; if the model reports the
// same label twice the more confident one wins.
func (t *HandTracker) ProcessFrame(hands []detector.HandLandmarks, canvas Canvas, nowMs int64) Result {
	best := make(map[Hand]*detector.HandLandmarks, len(trackedHands))
	if canvas.Valid() {
		for i := range hands {
			h := &hands[i]
			if !h.KnownHandedness() || h.Score < t.config.MinConfidence {
				continue
			}
			label := HandRight
			if h.Handedness == detector.HandLeft {
				label = HandLeft
			}
			if prev, ok := best[label]; !ok || h.Score > prev.Score {
				best[label] = h
			}
		}
	}

	states := make([]HandState, 0, len(best))
	for _, label := range trackedHands {
		h, ok := best[label]
		var c detector.Point3D
		if ok {
			c, ok = h.Centroid(t.config.Fingertips)
		}
		if !ok {
			t.smoothers[label].reset()
			delete(t.current, label)
			continue
		}

		x := c.X
		if t.config.MirrorX {
			x = 1 - x
		}
		raw := Position{X: x * canvas.Width, Y: c.Y * canvas.Height, Z: c.Z}
		pos := t.smoothers[label].add(raw)

		t.trails[label].Append(TrailPoint{X: pos.X, Y: pos.Y, TimestampMs: nowMs})

		state := HandState{Hand: label, Position: pos, Confidence: h.Score}
		t.current[label] = state
		states = append(states, state)
	}

	t.cached = Result{Hands: states, TimestampMs: nowMs}
	t.prune(nowMs)
	return t.cached
}

// AddPointerPoint appends a mouse or touch position to the pointer trail and
// moves the held pointer there.
func (t *HandTracker) AddPointerPoint(x, y float64, nowMs int64) {
	p := TrailPoint{X: x, Y: y, TimestampMs: nowMs}
	t.trails[HandMouse].Append(p)
	t.pointer = p
	t.hasPointer = true
}

// ClearPointer forgets the held pointer, for example when the cursor leaves
// the canvas. The pointer trail decays on its own.
func (t *HandTracker) ClearPointer() {
	t.hasPointer = false
}

// CuttingPaths returns one path per trail holding at least two points,
// ordered left, right, mouse.
func (t *HandTracker) CuttingPaths() []CuttingPath {
	var paths []CuttingPath
	for _, h := range []Hand{HandLeft, HandRight, HandMouse} {
		if pts := t.trails[h].Path(); pts != nil {
			paths = append(paths, CuttingPath{Hand: h, Points: pts})
		}
	}
	return paths
}

// Trail returns a copy of the given hand's trail.
func (t *HandTracker) Trail(h Hand) []TrailPoint {
	trail, ok := t.trails[h]
	if !ok {
		return nil
	}
	return trail.Points()
}

// IsHandInArea reports whether any visible hand, or the held pointer, lies
// inside the rectangle (edges inclusive).
func (t *HandTracker) IsHandInArea(x, y, w, h float64) bool {
	inside := func(px, py float64) bool {
		return px >= x && px <= x+w && py >= y && py <= y+h
	}
	for _, label := range trackedHands {
		if s, ok := t.current[label]; ok && inside(s.Position.X, s.Position.Y) {
			return true
		}
	}
	return t.hasPointer && inside(t.pointer.X, t.pointer.Y)
}

// Reset clears all trails, smoothing history and the cached result, and makes
// the next Update poll the provider immediately.
func (t *HandTracker) Reset() {
	for _, trail := range t.trails {
		trail.Clear()
	}
	for _, s := range t.smoothers {
		s.reset()
	}
	clear(t.current)
	t.hasPointer = false
	t.cached = Result{}
	t.detected = false
	t.lastDetectMs = 0
}

func (t *HandTracker) prune(nowMs int64) {
	for _, trail := range t.trails {
		trail.Prune(nowMs)
	}
	if t.hasPointer && t.config.PointerHoldMs > 0 && nowMs-t.pointer.TimestampMs > t.config.PointerHoldMs {
		t.hasPointer = false
	}
}
