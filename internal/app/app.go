// Package app hosts the game: it picks a landmark source, drives the game at a
// fixed frame rate, persists finished sessions and fans frames out to
// subscribers.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/slicecam/internal/capture"
	"github.com/ayusman/slicecam/internal/config"
	"github.com/ayusman/slicecam/internal/detector"
	"github.com/ayusman/slicecam/internal/game"
	"github.com/ayusman/slicecam/internal/physics"
	"github.com/ayusman/slicecam/internal/session"
	"github.com/ayusman/slicecam/internal/spawner"
	"github.com/ayusman/slicecam/internal/store"
	"github.com/ayusman/slicecam/internal/tracker"
)

// InboxSize bounds the queue of commands waiting for the loop.
const InboxSize = 256

// subscriberBuffer is how many frames a slow subscriber may fall behind
// before frames are dropped for it.
const subscriberBuffer = 8

// Config holds configuration options for the application.
type Config struct {
	Settings config.Config
	// Store persists finished sessions. It may be nil.
	Store *store.Store
	// Provider overrides the landmark source chosen from Settings.Provider.
	Provider detector.Provider
}

// App owns the game and runs it on a single goroutine. Other goroutines talk
// to it through the inbox.
type App struct {
	config  Config
	game    *game.Game
	tracker *tracker.HandTracker
	stream  *detector.StreamProvider
	camera  capture.Camera
	source  *detector.CameraProvider
	gate    *capture.MotionGate

	inbox   chan any
	started time.Time

	mu      sync.RWMutex
	latest  game.Frame
	subs    map[int]chan game.Frame
	nextSub int
	stopCh  chan struct{}
	done    chan struct{}

	listenerMu sync.RWMutex
	onGameOver []func(store.Result)
}

// New builds the game from the settings and selects the landmark provider.
func New(cfg Config) (*App, error) {
	s := cfg.Settings
	if err := s.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config:  cfg,
		stream:  detector.NewStreamProvider(time.Duration(s.Provider.StreamStalenessMs) * time.Millisecond),
		inbox:   make(chan any, InboxSize),
		subs:    make(map[int]chan game.Frame),
		started: time.Now(),
	}

	provider := cfg.Provider
	if provider == nil {
		p, err := a.selectProvider()
		if err != nil {
			return nil, err
		}
		provider = p
	}

	t, err := tracker.New(s.Tracker, provider)
	if err != nil {
		return nil, err
	}
	engine, err := physics.NewEngine(s.Physics, s.Game.Canvas)
	if err != nil {
		return nil, err
	}
	scheduler, err := spawner.New(s.Spawner, nil)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(s.Session)
	if err != nil {
		return nil, err
	}
	g, err := game.New(s.Game, t, engine, scheduler, sess)
	if err != nil {
		return nil, err
	}
	sess.OnGameOver(a.handleGameOver)

	a.tracker = t
	a.game = g
	a.latest = game.Frame{Phase: sess.Phase(), TimeRemaining: sess.TimeRemaining()}
	return a, nil
}

// selectProvider returns the MediaPipe camera pipeline when it is available
// and allowed, and the browser stream otherwise.
func (a *App) selectProvider() (detector.Provider, error) {
	s := a.config.Settings
	if s.Provider.Mode == config.ProviderStream {
		log.Println("Using streamed hand landmarks")
		return a.stream, nil
	}

	mp, err := detector.NewMediaPipeDetector(s.Detector)
	if err != nil {
		if s.Provider.Mode == config.ProviderCamera {
			return nil, fmt.Errorf("camera provider unavailable: %w", err)
		}
		log.Printf("MediaPipe not available (%v), using streamed hand landmarks", err)
		return a.stream, nil
	}

	a.camera = capture.NewCamera(s.Camera)
	if s.Camera.MotionThreshold > 0 {
		a.gate = capture.NewMotionGate(s.Camera.MotionThreshold, s.Camera.MotionHoldMs)
	}
	a.source = detector.NewCameraProvider(a.camera, mp, a.gate)
	log.Println("Using MediaPipe hand detection")
	return detector.NewAsyncProvider(a.source), nil
}

// Start opens the camera, if any, and begins the frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if a.camera != nil {
		if err := a.camera.Open(); err != nil {
			return err
		}
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)

	log.Printf("Game loop started at %d fps", a.config.Settings.Game.FPS)
	return nil
}

// Stop halts the frame loop and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}
	if a.gate != nil {
		a.gate.Close()
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	a.mu.Lock()
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.mu.Unlock()

	log.Println("Game loop stopped")
}

// IsRunning reports whether the frame loop is running.
func (a *App) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Camera returns the capture device feeding the detector, or nil when hands
// come from the landmark stream.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Frame returns the most recent frame.
func (a *App) Frame() game.Frame {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Subscribe returns a channel receiving every published frame and a function
// that cancels the subscription. Frames are dropped for a subscriber that
// falls behind.
func (a *App) Subscribe() (<-chan game.Frame, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSub
	a.nextSub++
	ch := make(chan game.Frame, subscriberBuffer)
	a.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			if c, ok := a.subs[id]; ok {
				close(c)
				delete(a.subs, id)
			}
		})
	}
}

// OnGameOver registers a listener called with each stored result. It runs on
// the loop goroutine.
func (a *App) OnGameOver(fn func(store.Result)) {
	a.listenerMu.Lock()
	defer a.listenerMu.Unlock()
	a.onGameOver = append(a.onGameOver, fn)
}

// PushLandmarks feeds hands from an external landmark stream.
func (a *App) PushLandmarks(hands []detector.HandLandmarks) {
	a.stream.Push(hands)
}

// handleGameOver persists the session. Store failures are logged and never
// stop the loop.
func (a *App) handleGameOver(r session.Result) {
	res := store.Result{
		Score:         r.Score,
		TimeRemaining: r.TimeRemaining,
		Duration:      r.DurationSec,
		FruitsCut:     r.FruitsCut,
		BombsCut:      r.BombsCut,
	}
	if len(r.Fruits) > 0 {
		res.Fruits = make(map[string]int, len(r.Fruits))
		for f, n := range r.Fruits {
			res.Fruits[string(f)] = n
		}
	}
	log.Printf("Session over: score %d (%d fruit, %d bombs)", r.Score, r.FruitsCut, r.BombsCut)

	if a.config.Store != nil {
		if err := a.config.Store.Results().Create(&res); err != nil {
			log.Printf("Failed to save result: %v", err)
		}
	}

	a.listenerMu.RLock()
	listeners := a.onGameOver
	a.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(res)
	}
}

// nowMs is the loop clock: milliseconds since the app was created.
func (a *App) nowMs() int64 {
	return time.Since(a.started).Milliseconds()
}

// step runs one game frame and publishes it.
func (a *App) step(ctx context.Context, nowMs int64) game.Frame {
	frame := a.game.Update(ctx, nowMs)

	a.mu.Lock()
	a.latest = frame
	for _, ch := range a.subs {
		select {
		case ch <- frame:
		default:
		}
	}
	a.mu.Unlock()

	return frame
}
