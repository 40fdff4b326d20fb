// Package animation drives time-based changes to scene nodes.
//
// Animations hold non-owning references to their targets. The scene that
// owns a target node must outlive every engine animating it.
package animation

import (
	"fmt"

	"github.com/Faultbox/scenery/pkg/math"
)

// Target is the part of a scene node that animations mutate. Both methods
// apply relative deltas.
type Target interface {
	Rotate(delta math.Vec3)
	Move(delta math.Vec3)
}

// Animation advances by dt seconds and reports whether it has finished.
// Once it reports true it is not advanced again.
type Animation interface {
	Advance(dt float32) bool
}

// tween spreads a total vector change over a duration and hands out the
// increment for each step, clamped so the sum never passes total.
type tween struct {
	duration float32
	total    math.Vec3
	elapsed  float32
	applied  math.Vec3
}

func newTween(duration float32, total math.Vec3) tween {
	if duration < 0 {
		panic(fmt.Sprintf("animation: negative duration %v", duration))
	}
	return tween{duration: duration, total: total}
}

func (t *tween) step(dt float32) (delta math.Vec3, done bool) {
	t.elapsed += dt
	progress := float32(1)
	if t.duration > 0 && t.elapsed < t.duration {
		progress = t.elapsed / t.duration
	}
	want := t.total.Scale(progress)
	delta = want.Sub(t.applied)
	t.applied = want
	return delta, t.elapsed >= t.duration
}

// Rotation turns its target by total radians over duration seconds.
type Rotation struct {
	target Target
	tween
}

// NewRotation creates a rotation animation.
func NewRotation(target Target, duration float32, total math.Vec3) *Rotation {
	if target == nil {
		panic("animation: nil rotation target")
	}
	return &Rotation{target: target, tween: newTween(duration, total)}
}

// Advance rotates the target by this step's share of the total.
func (r *Rotation) Advance(dt float32) bool {
	delta, done := r.step(dt)
	r.target.Rotate(delta)
	return done
}

// Translation moves its target by total units over duration seconds.
type Translation struct {
	target Target
	tween
}

// NewTranslation creates a translation animation.
func NewTranslation(target Target, duration float32, total math.Vec3) *Translation {
	if target == nil {
		panic("animation: nil translation target")
	}
	return &Translation{target: target, tween: newTween(duration, total)}
}

// Advance moves the target by this step's share of the total.
func (t *Translation) Advance(dt float32) bool {
	delta, done := t.step(dt)
	t.target.Move(delta)
	return done
}

// Sequence runs animations one after another. Time left over when a step
// finishes is not carried into the next one; the next step starts on the
// following tick.
type Sequence struct {
	steps   []Animation
	current int
}

// NewSequence creates a sequence of steps.
func NewSequence(steps ...Animation) *Sequence {
	return &Sequence{steps: steps}
}

// Advance advances the current step.
func (s *Sequence) Advance(dt float32) bool {
	if s.current >= len(s.steps) {
		return true
	}
	if s.steps[s.current].Advance(dt) {
		s.current++
	}
	return s.current >= len(s.steps)
}
