// Package tray provides the system tray menu: pause/resume, the last score,
// a shortcut to the game page and quit.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onTogglePause func() bool
	onOpen        func()
	onQuit        func()
	paused        bool
	lastScore     *int
	mu            sync.RWMutex

	// Menu items stored for later updates
	menuPause     *systray.MenuItem
	menuLastScore *systray.MenuItem
}

// New creates a new Tray.
func New() *Tray {
	return &Tray{}
}

// OnTogglePause sets the callback run when Pause/Resume is clicked. It
// reports whether the game actually changed phase.
func (t *Tray) OnTogglePause(fn func() bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTogglePause = fn
}

// OnOpen sets the callback run when the open item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("SliceCam")
	systray.SetTooltip("SliceCam fruit slicing")

	t.mu.Lock()
	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume the running game")
	systray.AddSeparator()
	t.menuLastScore = systray.AddMenuItem(scoreTitle(t.lastScore), "Score of the last finished game")
	t.menuLastScore.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Game...", "Open the game in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit SliceCam")

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handleTogglePause()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleTogglePause flips the label only when the game accepted the toggle.
func (t *Tray) handleTogglePause() {
	t.mu.RLock()
	callback := t.onTogglePause
	t.mu.RUnlock()

	if callback == nil || !callback() {
		return
	}

	t.mu.Lock()
	t.paused = !t.paused
	t.updatePause()
	t.mu.Unlock()
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetPaused syncs the menu with a pause state changed elsewhere, such as the
// HTTP API or a finished game.
func (t *Tray) SetPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = paused
	t.updatePause()
}

// SetLastScore updates the last score display in the menu.
func (t *Tray) SetLastScore(score int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastScore = &score
	if t.menuLastScore != nil {
		t.menuLastScore.SetTitle(scoreTitle(t.lastScore))
	}
}

// IsPaused returns the pause state shown in the menu.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// LastScore returns the score shown in the menu and whether one was set.
func (t *Tray) LastScore() (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastScore == nil {
		return 0, false
	}
	return *t.lastScore, true
}

// updatePause must be called with mu held.
func (t *Tray) updatePause() {
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(t.paused))
	}
}

func pauseTitle(paused bool) string {
	if paused {
		return "▶ Resume"
	}
	return "❚❚ Pause"
}

func scoreTitle(score *int) string {
	if score == nil {
		return "Last score: none"
	}
	return fmt.Sprintf("Last score: %d", *score)
}
