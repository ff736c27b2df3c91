// Package spawner decides when and what to launch, driven only by accumulated
// session time so a fixed sequence of deltas always produces the same schedule.
package spawner

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/ayusman/slicecam/internal/physics"
)

// Step sets the spawn interval from FromSec of game time onwards.
type Step struct {
	FromSec     float64 `yaml:"fromSec"`
	IntervalSec float64 `yaml:"intervalSec"`
}

// Config holds the scheduler tuning.
type Config struct {
	// Steps is the interval table, ordered by FromSec and starting at 0.
	Steps           []Step  `yaml:"steps"`
	BombProbability float64 `yaml:"bombProbability"`
	// BaseSpeed and SpeedPerSecond give the launch speed at a game time.
	BaseSpeed      float64 `yaml:"baseSpeed"`
	SpeedPerSecond float64 `yaml:"speedPerSecond"`
	// DifficultyPerSecond grows the cosmetic difficulty multiplier.
	DifficultyPerSecond float64 `yaml:"difficultyPerSecond"`
	Gravity             float64 `yaml:"gravity"`
	FruitRadius         float64 `yaml:"fruitRadius"`
	BombRadius          float64 `yaml:"bombRadius"`
	MaxAngularSpeed     float64 `yaml:"maxAngularSpeed"`
	// SpawnY is the launch height of the centre pattern; the corner patterns
	// start at (±SideX, SideY).
	SpawnY float64 `yaml:"spawnY"`
	SideX  float64 `yaml:"sideX"`
	SideY  float64 `yaml:"sideY"`
	// Seed makes the launch sequence reproducible. Zero picks a random seed.
	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		Steps: []Step{
			{FromSec: 0, IntervalSec: 2.5},
			{FromSec: 20, IntervalSec: 1.5},
			{FromSec: 40, IntervalSec: 1.0},
		},
		BombProbability:     0.2,
		BaseSpeed:           4,
		SpeedPerSecond:      0.05,
		DifficultyPerSecond: 0.02,
		Gravity:             6,
		FruitRadius:         0.6,
		BombRadius:          0.5,
		MaxAngularSpeed:     3,
		SpawnY:              7,
		SideX:               9,
		SideY:               6,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if len(c.Steps) == 0 {
		return errors.New("interval table is empty")
	}
	if c.Steps[0].FromSec != 0 {
		return fmt.Errorf("interval table must start at 0s, starts at %f", c.Steps[0].FromSec)
	}
	for i, s := range c.Steps {
		if s.IntervalSec <= 0 {
			return fmt.Errorf("interval step %d: interval must be positive, got %f", i, s.IntervalSec)
		}
		if i > 0 && s.FromSec <= c.Steps[i-1].FromSec {
			return fmt.Errorf("interval step %d: steps must be in increasing order", i)
		}
	}
	if c.BombProbability < 0 || c.BombProbability > 1 {
		return fmt.Errorf("bomb probability must be within [0,1], got %f", c.BombProbability)
	}
	if c.BaseSpeed < 0 || c.SpeedPerSecond < 0 {
		return errors.New("launch speed must not be negative")
	}
	if c.Gravity < 0 {
		return fmt.Errorf("gravity must not be negative, got %f", c.Gravity)
	}
	return nil
}

// Pattern is a launch geometry.
type Pattern int

const (
	// PatternCenter drops from the top middle, mostly vertically.
	PatternCenter Pattern = iota
	// PatternLeftArc launches from the top-left corner, right and up.
	PatternLeftArc
	// PatternRightArc mirrors PatternLeftArc.
	PatternRightArc

	numPatterns = 3
)

func (p Pattern) String() string {
	switch p {
	case PatternCenter:
		return "center"
	case PatternLeftArc:
		return "left-arc"
	case PatternRightArc:
		return "right-arc"
	default:
		return fmt.Sprintf("pattern(%d)", int(p))
	}
}

// Scheduler accumulates unpaused game time and launches objects when the
// current interval has passed since the previous launch.
type Scheduler struct {
	config Config
	rng    *rand.Rand

	gameTime  float64
	lastSpawn float64
	paused    bool
}

// New creates a Scheduler. rng may be nil, in which case one is seeded from
// config.Seed (or randomly when the seed is zero).
func New(config Config, rng *rand.Rand) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spawner config: %w", err)
	}
	if rng == nil {
		seed := config.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return &Scheduler{config: config, rng: rng}, nil
}

// Update advances game time by dt seconds and returns the objects launched on
// this tick, if any. Nothing accumulates while paused.
func (s *Scheduler) Update(dt float64) []*physics.Object {
	if s.paused || dt <= 0 {
		return nil
	}
	s.gameTime += dt

	if s.gameTime-s.lastSpawn < s.Interval() {
		return nil
	}
	s.lastSpawn = s.gameTime
	return []*physics.Object{s.spawn()}
}

// Interval returns the spawn interval for the current game time.
func (s *Scheduler) Interval() float64 {
	return s.intervalAt(s.gameTime)
}

func (s *Scheduler) intervalAt(t float64) float64 {
	interval := s.config.Steps[0].IntervalSec
	for _, step := range s.config.Steps {
		if t < step.FromSec {
			break
		}
		interval = step.IntervalSec
	}
	return interval
}

// Difficulty returns the cosmetic multiplier, 1 at the start of a session.
func (s *Scheduler) Difficulty() float64 {
	return 1 + s.config.DifficultyPerSecond*s.gameTime
}

// Speed returns the launch speed for the current game time.
func (s *Scheduler) Speed() float64 {
	return s.config.BaseSpeed + s.config.SpeedPerSecond*s.gameTime
}

// GameTime returns the accumulated unpaused time in seconds.
func (s *Scheduler) GameTime() float64 {
	return s.gameTime
}

// Paused reports whether the scheduler is paused.
func (s *Scheduler) Paused() bool {
	return s.paused
}

// Pause stops game time from accumulating.
func (s *Scheduler) Pause() {
	s.paused = true
}

// Resume restarts the clock. The last launch is rebased to now so the paused
// span never produces a burst of launches.
func (s *Scheduler) Resume() {
	s.paused = false
	s.lastSpawn = s.gameTime
}

// Reset returns the scheduler to the start of a session.
func (s *Scheduler) Reset() {
	s.gameTime = 0
	s.lastSpawn = 0
	s.paused = false
}

func (s *Scheduler) spawn() *physics.Object {
	obj := &physics.Object{
		ID:      uuid.New(),
		Kind:    physics.KindFruit,
		Gravity: s.config.Gravity,
		Radius:  s.config.FruitRadius,
	}
	if s.rng.Float64() < s.config.BombProbability {
		obj.Kind = physics.KindBomb
		obj.Radius = s.config.BombRadius
	} else {
		obj.Fruit = physics.Fruits[s.rng.IntN(len(physics.Fruits))]
	}

	obj.Position, obj.Velocity = s.launch(Pattern(s.rng.IntN(numPatterns)))

	w := s.uniform(-s.config.MaxAngularSpeed, s.config.MaxAngularSpeed)
	obj.AngularVelocity = physics.Vec3{X: w, Y: w, Z: w}
	return obj
}

// launch returns the start position and velocity for a pattern.
func (s *Scheduler) launch(p Pattern) (pos, vel physics.Vec3) {
	speed := s.Speed()
	switch p {
	case PatternLeftArc:
		pos = physics.Vec3{X: -s.config.SideX, Y: s.config.SideY}
		vel = physics.Vec3{X: 0.6 * speed, Y: 0.5 * speed}
	case PatternRightArc:
		pos = physics.Vec3{X: s.config.SideX, Y: s.config.SideY}
		vel = physics.Vec3{X: -0.6 * speed, Y: 0.5 * speed}
	default:
		pos = physics.Vec3{X: s.uniform(-2, 2), Y: s.config.SpawnY}
		vel = physics.Vec3{X: s.uniform(-0.15, 0.15) * speed, Y: -0.2 * speed}
	}
	return pos, vel
}

func (s *Scheduler) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
