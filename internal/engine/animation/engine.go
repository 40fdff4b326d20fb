package animation

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/logger"
)

// State is the lifecycle stage of an Engine.
type State int

const (
	Idle State = iota
	Running
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Engine ticks a list of animations from a shared clock. It is started once
// and never returns to Idle.
type Engine struct {
	Name string

	animations []Animation
	finished   []bool
	state      State
	elapsed    float32
}

// NewEngine creates an idle engine.
func NewEngine(name string) *Engine {
	return &Engine{Name: name}
}

// Add appends an animation. Animations added after Start are ticked from the
// next Tick on.
func (e *Engine) Add(a Animation) {
	if a == nil {
		panic("animation: nil animation")
	}
	e.animations = append(e.animations, a)
	e.finished = append(e.finished, false)
	if e.state == Complete {
		e.state = Running
	}
}

// Start moves the engine from Idle to Running and resets its clock.
func (e *Engine) Start() {
	if e.state != Idle {
		panic("animation: engine " + e.Name + " started twice")
	}
	e.state = Running
	e.elapsed = 0
	logger.Debug("animation engine started", zap.String("engine", e.Name), zap.Int("animations", len(e.animations)))
}

// Tick advances every unfinished animation by dt seconds. Ticking a complete
// engine does nothing.
func (e *Engine) Tick(dt float32) {
	switch e.state {
	case Idle:
		panic("animation: engine " + e.Name + " ticked before Start")
	case Complete:
		return
	}

	e.elapsed += dt
	remaining := 0
	for i, a := range e.animations {
		if e.finished[i] {
			continue
		}
		if a.Advance(dt) {
			e.finished[i] = true
			continue
		}
		remaining++
	}

	if remaining == 0 {
		e.state = Complete
		logger.Debug("animation engine complete", zap.String("engine", e.Name), zap.Float32("elapsed", e.elapsed))
	}
}

// State returns the current lifecycle stage.
func (e *Engine) State() State { return e.state }

// Elapsed returns seconds ticked since Start.
func (e *Engine) Elapsed() float32 { return e.elapsed }

// Len returns the number of animations, finished ones included.
func (e *Engine) Len() int { return len(e.animations) }
