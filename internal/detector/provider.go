package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/slicecam/internal/capture"
)

// ErrPending is returned by AsyncProvider when no new detection has completed
// since the previous call. Callers keep their cached result.
var ErrPending = errors.New("detection pending")

// ErrNoMotion is returned by CameraProvider when the motion gate skipped
// detection. Nothing moved, so callers keep their cached result.
var ErrNoMotion = errors.New("no motion since last detection")

// CameraProvider reads frames from a camera and runs a frame detector on them.
// When a motion gate is set, frames without recent motion skip detection and
// report ErrNoMotion.
type CameraProvider struct {
	camera   capture.Camera
	detector Detector
	gate     *capture.MotionGate
}

// NewCameraProvider creates a provider over the given camera and detector.
// gate may be nil to run detection on every frame.
func NewCameraProvider(camera capture.Camera, d Detector, gate *capture.MotionGate) *CameraProvider {
	return &CameraProvider{
		camera:   camera,
		detector: d,
		gate:     gate,
	}
}

// Detect grabs the current frame and returns the hands found in it.
func (p *CameraProvider) Detect(ctx context.Context, timestampMs int64) ([]HandLandmarks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := p.camera.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	if p.gate != nil && !p.gate.Active(frame, timestampMs) {
		return nil, ErrNoMotion
	}

	hands, err := p.detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("detect hands: %w", err)
	}
	return hands, nil
}

// Close releases the detector. The camera is owned by the caller.
func (p *CameraProvider) Close() error {
	return p.detector.Close()
}

// DefaultStreamStaleness is how long a pushed landmark set stays current.
const DefaultStreamStaleness = 250 * time.Millisecond

// StreamProvider is fed landmark sets from an external stream (for example a
// browser running the landmark model and pushing results over a websocket).
// Detect returns the most recent push until it goes stale.
type StreamProvider struct {
	mu        sync.Mutex
	hands     []HandLandmarks
	pushedAt  time.Time
	staleness time.Duration
	now       func() time.Time
}

// NewStreamProvider creates a StreamProvider. A non-positive staleness uses
// DefaultStreamStaleness.
func NewStreamProvider(staleness time.Duration) *StreamProvider {
	if staleness <= 0 {
		staleness = DefaultStreamStaleness
	}
	return &StreamProvider{
		staleness: staleness,
		now:       time.Now,
	}
}

// Push replaces the current landmark set.
func (p *StreamProvider) Push(hands []HandLandmarks) {
	cp := make([]HandLandmarks, len(hands))
	copy(cp, hands)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.hands = cp
	p.pushedAt = p.now()
}

// Detect returns the latest pushed hands, or nil once they are stale.
func (p *StreamProvider) Detect(ctx context.Context, timestampMs int64) ([]HandLandmarks, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pushedAt.IsZero() || p.now().Sub(p.pushedAt) > p.staleness {
		return nil, nil
	}
	out := make([]HandLandmarks, len(p.hands))
	copy(out, p.hands)
	return out, nil
}

type asyncResult struct {
	hands []HandLandmarks
	err   error
}

// AsyncProvider wraps a Provider so Detect never blocks. Each call collects a
// finished background detection if there is one and starts the next when none
// is in flight. A result may therefore surface several calls after it was
// requested. Detect must be called from a single goroutine.
type AsyncProvider struct {
	inner    Provider
	results  chan asyncResult
	inFlight bool
}

// NewAsyncProvider wraps inner.
func NewAsyncProvider(inner Provider) *AsyncProvider {
	return &AsyncProvider{
		inner:   inner,
		results: make(chan asyncResult, 1),
	}
}

// Detect returns the newest completed result, or ErrPending if nothing has
// completed since the previous call.
func (a *AsyncProvider) Detect(ctx context.Context, timestampMs int64) ([]HandLandmarks, error) {
	var (
		res   asyncResult
		ready bool
	)
	select {
	case res = <-a.results:
		a.inFlight = false
		ready = true
	default:
	}

	if !a.inFlight && ctx.Err() == nil {
		a.inFlight = true
		go func() {
			hands, err := a.inner.Detect(ctx, timestampMs)
			a.results <- asyncResult{hands: hands, err: err}
		}()
	}

	if !ready {
		return nil, ErrPending
	}
	return res.hands, res.err
}
