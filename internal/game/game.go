// Package game ties the tracker, the physics engine, the spawner and the
// session together and runs them once per host frame.
package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/slicecam/internal/physics"
	"github.com/ayusman/slicecam/internal/session"
	"github.com/ayusman/slicecam/internal/spawner"
	"github.com/ayusman/slicecam/internal/tracker"
)

// Button names the hover-confirm target currently highlighted.
type Button string

const (
	ButtonNone    Button = ""
	ButtonStart   Button = "start"
	ButtonRestart Button = "restart"
)

// Frame is everything the renderer needs for one host frame.
type Frame struct {
	TimestampMs   int64                 `json:"timestampMs"`
	Phase         session.Phase         `json:"phase"`
	Score         int                   `json:"score"`
	TimeRemaining float64               `json:"timeRemaining"`
	Countdown     int                   `json:"countdown,omitempty"`
	Highlight     Button                `json:"highlight,omitempty"`
	Difficulty    float64               `json:"difficulty"`
	Objects       []physics.Object      `json:"objects"`
	Explosions    []physics.Explosion   `json:"explosions,omitempty"`
	Paths         []tracker.CuttingPath `json:"paths,omitempty"`
	Hands         []tracker.HandState   `json:"hands,omitempty"`
}

// Game is the per-frame orchestrator. It is not safe for concurrent use; the
// host calls Update, TogglePause and AddPointerPoint from one goroutine.
type Game struct {
	config    Config
	tracker   tracker.Tracker
	engine    *physics.Engine
	scheduler *spawner.Scheduler
	session   *session.Session

	newTicker TickerFactory
	confirm   Ticker
	countdown int
	highlight Button

	lastMs   int64
	haveLast bool
}

// New wires the components together. Cuts reported by the engine are scored
// by the session.
func New(config Config, t tracker.Tracker, engine *physics.Engine, scheduler *spawner.Scheduler, sess *session.Session) (*Game, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	g := &Game{
		config:    config,
		tracker:   t,
		engine:    engine,
		scheduler: scheduler,
		session:   sess,
		newTicker: NewTicker,
	}
	engine.Camera().SetViewport(config.Canvas)
	engine.OnFruitCut(sess.CutFruit)
	engine.OnBombCut(sess.CutBomb)
	return g, nil
}

// SetTickerFactory replaces the countdown timer source.
func (g *Game) SetTickerFactory(f TickerFactory) {
	g.newTicker = f
}

// Session returns the session state machine.
func (g *Game) Session() *session.Session {
	return g.session
}

// Phase returns the current phase.
func (g *Game) Phase() session.Phase {
	return g.session.Phase()
}

// Canvas returns the current canvas size.
func (g *Game) Canvas() tracker.Canvas {
	return g.config.Canvas
}

// Resize updates the canvas the tracker scales into and the engine projects
// onto. Invalid sizes are ignored.
func (g *Game) Resize(canvas tracker.Canvas) {
	if !canvas.Valid() {
		return
	}
	g.config.Canvas = canvas
	g.engine.Camera().SetViewport(canvas)
}

// AddPointerPoint feeds a mouse or touch position into the pointer trail.
func (g *Game) AddPointerPoint(x, y float64, nowMs int64) {
	g.tracker.AddPointerPoint(x, y, nowMs)
}

// ClearPointer drops the resting pointer, for example when the cursor leaves
// the canvas.
func (g *Game) ClearPointer() {
	g.tracker.ClearPointer()
}

// TogglePause flips Playing and Paused and reports whether the phase changed.
// Resuming drops the previous frame time so the paused span is never counted.
func (g *Game) TogglePause() bool {
	switch g.session.Phase() {
	case session.PhasePlaying:
		if !g.session.Pause() {
			return false
		}
		g.scheduler.Pause()
		log.Println("Game paused")
		return true
	case session.PhasePaused:
		if !g.session.Resume() {
			return false
		}
		g.scheduler.Resume()
		g.haveLast = false
		log.Println("Game resumed")
		return true
	default:
		return false
	}
}

// Update runs one host frame at nowMs and returns the frame to draw.
func (g *Game) Update(ctx context.Context, nowMs int64) Frame {
	dt := g.delta(nowMs)
	res := g.tracker.Update(ctx, g.config.Canvas, nowMs)

	var explosions []physics.Explosion
	switch g.session.Phase() {
	case session.PhaseIdle:
		if g.hovering(g.config.StartButton) {
			g.beginConfirm(session.PhaseStarting, ButtonStart)
		}
	case session.PhaseStarting:
		g.stepConfirm(g.config.StartButton, g.completeStart)
	case session.PhasePlaying:
		for _, obj := range g.scheduler.Update(dt) {
			g.engine.Add(obj)
		}
		explosions = g.engine.Tick(dt, g.tracker.CuttingPaths())
		g.session.Update(dt)
	case session.PhaseGameOver:
		if g.hovering(g.config.RestartButton) {
			g.beginConfirm(session.PhaseRestarting, ButtonRestart)
		}
	case session.PhaseRestarting:
		g.stepConfirm(g.config.RestartButton, g.completeRestart)
	}

	return g.frame(nowMs, res, explosions)
}

// delta returns the clamped seconds since the previous frame.
func (g *Game) delta(nowMs int64) float64 {
	if !g.haveLast || nowMs < g.lastMs {
		g.lastMs = nowMs
		g.haveLast = true
		return 0
	}
	ms := min(nowMs-g.lastMs, g.config.MaxDeltaMs)
	g.lastMs = nowMs
	return float64(ms) / 1000
}

func (g *Game) hovering(r Rect) bool {
	return g.tracker.IsHandInArea(r.X, r.Y, r.W, r.H)
}

func (g *Game) beginConfirm(to session.Phase, button Button) {
	if err := g.session.Transition(to); err != nil {
		log.Printf("Cannot begin %s confirmation: %v", button, err)
		return
	}
	g.stopConfirm()
	g.countdown = g.config.CountdownSteps
	g.highlight = button
	g.confirm = g.newTicker(time.Duration(g.config.CountdownIntervalMs) * time.Millisecond)
}

// stepConfirm advances a running countdown by at most one step per frame and
// aborts it when the hand leaves the button.
func (g *Game) stepConfirm(r Rect, complete func()) {
	if !g.hovering(r) {
		g.abortConfirm()
		return
	}
	if g.confirm == nil {
		return
	}
	select {
	case <-g.confirm.C():
		g.countdown--
		if g.countdown <= 0 {
			g.stopConfirm()
			complete()
		}
	default:
	}
}

// abortConfirm cancels a hover-confirm countdown and returns to the phase it
// started from. Calling it with no countdown running only clears the
// highlight.
func (g *Game) abortConfirm() {
	g.stopConfirm()
	var back session.Phase
	switch g.session.Phase() {
	case session.PhaseStarting:
		back = session.PhaseIdle
	case session.PhaseRestarting:
		back = session.PhaseGameOver
	default:
		return
	}
	if err := g.session.Transition(back); err != nil {
		log.Printf("Cannot abort confirmation: %v", err)
	}
}

// stopConfirm stops the timer and clears the countdown state.
func (g *Game) stopConfirm() {
	if g.confirm != nil {
		g.confirm.Stop()
		g.confirm = nil
	}
	g.countdown = 0
	g.highlight = ButtonNone
}

func (g *Game) completeStart() {
	g.scheduler.Reset()
	g.engine.Clear()
	g.haveLast = false
	g.session.Start()
	log.Println("Session started")
}

func (g *Game) completeRestart() {
	g.scheduler.Reset()
	g.engine.Clear()
	g.tracker.Reset()
	g.session.Reset()
	if err := g.session.Transition(session.PhaseIdle); err != nil {
		log.Printf("Cannot return to start screen: %v", err)
	}
}

func (g *Game) frame(nowMs int64, res tracker.Result, explosions []physics.Explosion) Frame {
	live := g.engine.Objects()
	objects := make([]physics.Object, len(live))
	for i, o := range live {
		objects[i] = *o
	}
	return Frame{
		TimestampMs:   nowMs,
		Phase:         g.session.Phase(),
		Score:         g.session.Score(),
		TimeRemaining: g.session.TimeRemaining(),
		Countdown:     g.countdown,
		Highlight:     g.highlight,
		Difficulty:    g.scheduler.Difficulty(),
		Objects:       objects,
		Explosions:    explosions,
		Paths:         g.tracker.CuttingPaths(),
		Hands:         res.Hands,
	}
}
