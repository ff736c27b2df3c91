package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/slicecam/internal/config"
	"github.com/ayusman/slicecam/internal/detector"
	"github.com/ayusman/slicecam/internal/session"
	"github.com/ayusman/slicecam/internal/store"
)

func testSettings() config.Config {
	cfg := config.Default()
	cfg.Provider.Mode = config.ProviderStream
	cfg.Spawner.Seed = 3
	cfg.Game.CountdownIntervalMs = 5
	return cfg
}

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(a.Stop)
	return a
}

// hoverStart returns a hand over the centre of the default start button.
func hoverStart() detector.HandLandmarks {
	return detector.SlicingHand(0.5, 0.5)
}

// stepUntil drives the loop by hand until phase is reached.
func stepUntil(t *testing.T, a *App, nowMs *int64, stepMs int64, phase session.Phase) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		*nowMs += stepMs
		if f := a.step(context.Background(), *nowMs); f.Phase == phase {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("phase %s not reached, last frame %+v", phase, a.Frame())
}

func TestNew_InvalidSettings(t *testing.T) {
	cfg := testSettings()
	cfg.Tracker.DetectionIntervalMs = 0
	if _, err := New(Config{Settings: cfg}); err == nil {
		t.Error("expected an error for invalid settings")
	}
}

func TestNew_StreamMode(t *testing.T) {
	a := newTestApp(t, Config{Settings: testSettings()})
	if a.camera != nil || a.source != nil {
		t.Error("stream mode should not open a camera")
	}
	if a.Frame().Phase != session.PhaseIdle {
		t.Errorf("initial phase = %s, want idle", a.Frame().Phase)
	}
}

func TestApp_PushLandmarksReachesTracker(t *testing.T) {
	a := newTestApp(t, Config{Settings: testSettings()})

	a.PushLandmarks([]detector.HandLandmarks{detector.SlicingHand(0.25, 0.25)})
	f := a.step(context.Background(), 10)

	if len(f.Hands) != 1 {
		t.Fatalf("expected the pushed hand in the frame, got %d", len(f.Hands))
	}
	if f.Hands[0].Position.X < 300 || f.Hands[0].Position.X > 340 {
		t.Errorf("hand X = %f, want about 320", f.Hands[0].Position.X)
	}
}

func TestApp_SessionIsPersisted(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	settings := testSettings()
	settings.Session.DurationSec = 1
	provider := detector.NewMockProvider()
	provider.SetHands(hoverStart())

	a := newTestApp(t, Config{Settings: settings, Store: st, Provider: provider})
	var results []store.Result
	a.OnGameOver(func(r store.Result) { results = append(results, r) })

	var now int64
	stepUntil(t, a, &now, 16, session.PhasePlaying)
	stepUntil(t, a, &now, 100, session.PhaseGameOver)

	if len(results) != 1 {
		t.Fatalf("expected one game over, got %d", len(results))
	}
	if results[0].ID == "" {
		t.Error("listener should receive the stored result")
	}

	n, err := st.Results().Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("stored results = %d, want 1", n)
	}
	got, err := st.Results().GetByID(results[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Duration != 1 {
		t.Errorf("stored duration = %f, want 1", got.Duration)
	}
}

func TestApp_TogglePauseNeedsRunningLoop(t *testing.T) {
	a := newTestApp(t, Config{Settings: testSettings()})
	if a.TogglePause() {
		t.Error("toggle should fail while the loop is stopped")
	}
}

func TestApp_StartStop(t *testing.T) {
	a := newTestApp(t, Config{Settings: testSettings(), Provider: detector.NewMockProvider()})

	frames, cancel := a.Subscribe()
	defer cancel()

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if !a.IsRunning() {
		t.Fatal("app should be running")
	}

	select {
	case f := <-frames:
		if f.Phase != session.PhaseIdle {
			t.Errorf("phase = %s, want idle", f.Phase)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame published")
	}

	if a.TogglePause() {
		t.Error("pause should not apply on the start screen")
	}

	a.Stop()
	a.Stop()
	if a.IsRunning() {
		t.Error("app should be stopped")
	}

	// Drain and confirm the subscription was closed.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription not closed on stop")
		}
	}
}

func TestApp_PauseThroughInbox(t *testing.T) {
	provider := detector.NewMockProvider()
	provider.SetHands(hoverStart())
	a := newTestApp(t, Config{Settings: testSettings(), Provider: provider})

	var now int64
	stepUntil(t, a, &now, 16, session.PhasePlaying)

	a.handleCommand(pointerPoint{x: 1, y: 2})
	reply := make(chan bool, 1)
	a.handleCommand(togglePause{reply: reply})
	if !<-reply {
		t.Fatal("toggle should pause a running session")
	}
	if f := a.step(context.Background(), now+16); f.Phase != session.PhasePaused {
		t.Errorf("phase = %s, want paused", f.Phase)
	}

	a.handleCommand(resize{})
	a.handleCommand(togglePause{reply: reply})
	if !<-reply {
		t.Fatal("toggle should resume")
	}
}

func TestApp_Unsubscribe(t *testing.T) {
	a := newTestApp(t, Config{Settings: testSettings()})
	frames, cancel := a.Subscribe()
	cancel()
	cancel()

	if _, ok := <-frames; ok {
		t.Error("cancelled subscription should be closed")
	}
	a.step(context.Background(), 1)
}

func TestApp_RestingPointerHoldsStartButton(t *testing.T) {
	a := newTestApp(t, Config{Settings: testSettings()})

	a.handleCommand(pointerPoint{x: 640, y: 360})
	var now int64
	stepUntil(t, a, &now, 16, session.PhaseStarting)

	// Well past the trail retention window the pointer still rests there.
	now += 2000
	if f := a.step(context.Background(), now); f.Phase != session.PhaseStarting {
		t.Fatalf("phase = %s, want the countdown to survive a still pointer", f.Phase)
	}

	a.handleCommand(pointerLeave{})
	if f := a.step(context.Background(), now+16); f.Phase != session.PhaseIdle {
		t.Errorf("phase = %s, want idle once the pointer leaves", f.Phase)
	}
}
