package app

import (
	"context"
	"time"

	"github.com/ayusman/slicecam/internal/tracker"
)

// Commands accepted by the loop.
type (
	togglePause struct {
		reply chan bool
	}
	pointerPoint struct {
		x, y float64
	}
	pointerLeave struct{}
	resize       struct {
		canvas tracker.Canvas
	}
)

// run drives the game until stopCh closes. All game state is touched only
// here.
func (a *App) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.Settings.Game.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case cmd := <-a.inbox:
			a.handleCommand(cmd)
		case <-ticker.C:
			a.step(ctx, a.nowMs())
		}
	}
}

func (a *App) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case togglePause:
		c.reply <- a.game.TogglePause()
	case pointerPoint:
		a.game.AddPointerPoint(c.x, c.y, a.nowMs())
	case pointerLeave:
		a.game.ClearPointer()
	case resize:
		a.game.Resize(c.canvas)
	}
}

// send queues a command. It reports false when the loop is not running or
// the inbox is full.
func (a *App) send(cmd any) bool {
	a.mu.RLock()
	running := a.stopCh != nil
	a.mu.RUnlock()
	if !running {
		return false
	}

	select {
	case a.inbox <- cmd:
		return true
	default:
		return false
	}
}

// TogglePause flips between playing and paused. It reports whether the phase
// changed.
func (a *App) TogglePause() bool {
	reply := make(chan bool, 1)
	if !a.send(togglePause{reply: reply}) {
		return false
	}

	select {
	case changed := <-reply:
		return changed
	case <-time.After(time.Second):
		return false
	}
}

// AddPointerPoint queues a mouse or touch position for the pointer trail.
func (a *App) AddPointerPoint(x, y float64) {
	a.send(pointerPoint{x: x, y: y})
}

// ClearPointer queues the pointer leaving the canvas.
func (a *App) ClearPointer() {
	a.send(pointerLeave{})
}

// Resize queues a canvas size change.
func (a *App) Resize(width, height float64) {
	a.send(resize{canvas: tracker.Canvas{Width: width, Height: height}})
}
