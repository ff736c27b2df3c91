// Package session keeps the score, the countdown clock and the phase of one
// play-through, and notifies listeners when they change.
package session

import (
	"errors"
	"fmt"

	"github.com/ayusman/slicecam/internal/physics"
)

// ErrInvalidTransition is returned when a phase change is not allowed.
var ErrInvalidTransition = errors.New("invalid phase transition")

// Phase is the session phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStarting
	PhasePlaying
	PhasePaused
	PhaseGameOver
	PhaseRestarting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseStarting:
		return "starting"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseGameOver:
		return "game_over"
	case PhaseRestarting:
		return "restarting"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for q := PhaseIdle; q <= PhaseRestarting; q++ {
		if q.String() == string(text) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// transitions lists the phase changes Transition accepts. GameOver is entered
// only when the clock runs out or the score goes negative, and Playing is
// entered from Starting only through Start.
var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseStarting},
	PhaseStarting:   {PhaseIdle},
	PhasePlaying:    {PhasePaused},
	PhasePaused:     {PhasePlaying},
	PhaseGameOver:   {PhaseRestarting},
	PhaseRestarting: {PhaseGameOver, PhaseIdle},
}

// Config holds the session rules.
type Config struct {
	DurationSec float64 `yaml:"durationSec"`
	FruitPoints int     `yaml:"fruitPoints"`
	BombPoints  int     `yaml:"bombPoints"`
}

// DefaultConfig returns a one-minute session scoring +10 per fruit and -20
// per bomb.
func DefaultConfig() Config {
	return Config{
		DurationSec: 60,
		FruitPoints: 10,
		BombPoints:  -20,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.DurationSec <= 0 {
		return fmt.Errorf("session duration must be positive, got %f", c.DurationSec)
	}
	return nil
}

// Result is the final tally of a session.
type Result struct {
	Score         int     `json:"score"`
	TimeRemaining float64 `json:"timeRemaining"`
	DurationSec   float64 `json:"duration"`
	FruitsCut     int     `json:"fruitsCut"`
	BombsCut      int     `json:"bombsCut"`
	// Fruits counts cuts per fruit type.
	Fruits map[physics.Fruit]int `json:"fruits,omitempty"`
}

// Session owns the score, the remaining time and the phase. It is not safe
// for concurrent use.
type Session struct {
	config Config

	score         int
	timeRemaining float64
	phase         Phase
	gameOver      bool
	fruitsCut     int
	bombsCut      int
	fruits        map[physics.Fruit]int

	onScore    []func(int)
	onTime     []func(float64)
	onGameOver []func(Result)
	onPhase    []func(from, to Phase)
}

// New creates a session in the Idle phase.
func New(config Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	return &Session{
		config:        config,
		timeRemaining: config.DurationSec,
		phase:         PhaseIdle,
	}, nil
}

// OnScoreChange registers a score listener.
func (s *Session) OnScoreChange(fn func(score int)) {
	s.onScore = append(s.onScore, fn)
}

// OnTimeChange registers a remaining-time listener.
func (s *Session) OnTimeChange(fn func(secondsRemaining float64)) {
	s.onTime = append(s.onTime, fn)
}

// OnGameOver registers a listener fired once per session.
func (s *Session) OnGameOver(fn func(Result)) {
	s.onGameOver = append(s.onGameOver, fn)
}

// OnPhaseChange registers a phase listener.
func (s *Session) OnPhaseChange(fn func(from, to Phase)) {
	s.onPhase = append(s.onPhase, fn)
}

func (s *Session) Score() int             { return s.score }
func (s *Session) TimeRemaining() float64 { return s.timeRemaining }
func (s *Session) Phase() Phase           { return s.phase }
func (s *Session) IsGameOver() bool       { return s.gameOver }

// Result returns the current tally.
func (s *Session) Result() Result {
	r := Result{
		Score:         s.score,
		TimeRemaining: s.timeRemaining,
		DurationSec:   s.config.DurationSec,
		FruitsCut:     s.fruitsCut,
		BombsCut:      s.bombsCut,
	}
	if len(s.fruits) > 0 {
		r.Fruits = make(map[physics.Fruit]int, len(s.fruits))
		for f, n := range s.fruits {
			r.Fruits[f] = n
		}
	}
	return r
}

// Start begins a session: the score is zeroed, the clock is set to the full
// duration and the phase becomes Playing.
func (s *Session) Start() {
	s.Reset()
	s.setPhase(PhasePlaying)
	s.emitScore()
	s.emitTime()
}

// Update runs the clock down by dt seconds. It does nothing unless the phase
// is Playing. Reaching zero ends the session.
func (s *Session) Update(dt float64) {
	if s.gameOver || s.phase != PhasePlaying || dt <= 0 {
		return
	}
	s.timeRemaining = max(0, s.timeRemaining-dt)
	s.emitTime()
	if s.timeRemaining == 0 {
		s.end()
	}
}

// CutFruit scores a sliced fruit.
func (s *Session) CutFruit(fruit physics.Fruit) {
	if s.gameOver {
		return
	}
	s.fruitsCut++
	if s.fruits == nil {
		s.fruits = make(map[physics.Fruit]int)
	}
	s.fruits[fruit]++
	s.addScore(s.config.FruitPoints)
}

// CutBomb applies the bomb penalty.
func (s *Session) CutBomb() {
	if s.gameOver {
		return
	}
	s.bombsCut++
	s.addScore(s.config.BombPoints)
}

func (s *Session) addScore(points int) {
	s.score += points
	s.emitScore()
	if s.score < 0 {
		s.end()
	}
}

// Reset returns the counters to their initial values and clears the game-over
// latch. The phase is left to the caller.
func (s *Session) Reset() {
	s.score = 0
	s.timeRemaining = s.config.DurationSec
	s.gameOver = false
	s.fruitsCut = 0
	s.bombsCut = 0
	clear(s.fruits)
}

// Pause moves Playing to Paused and reports whether it did.
func (s *Session) Pause() bool {
	return s.Transition(PhasePaused) == nil
}

// Resume moves Paused back to Playing and reports whether it did.
func (s *Session) Resume() bool {
	return s.Transition(PhasePlaying) == nil
}

// Transition changes the phase if the move is allowed.
func (s *Session) Transition(to Phase) error {
	for _, allowed := range transitions[s.phase] {
		if allowed == to {
			s.setPhase(to)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, to)
}

func (s *Session) end() {
	s.gameOver = true
	s.setPhase(PhaseGameOver)
	result := s.Result()
	for _, fn := range s.onGameOver {
		fn(result)
	}
}

func (s *Session) setPhase(to Phase) {
	from := s.phase
	s.phase = to
	if from == to {
		return
	}
	for _, fn := range s.onPhase {
		fn(from, to)
	}
}

func (s *Session) emitScore() {
	for _, fn := range s.onScore {
		fn(s.score)
	}
}

func (s *Session) emitTime() {
	for _, fn := range s.onTime {
		fn(s.timeRemaining)
	}
}
