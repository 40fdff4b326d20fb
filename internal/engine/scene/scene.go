// Package scene is the scene graph: nodes with per-node transforms, the
// geometry they own, and the animation engines that move them.
package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/engine/animation"
	"github.com/Faultbox/scenery/internal/engine/lighting"
	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/internal/logger"
	"github.com/Faultbox/scenery/pkg/math"
)

// Program is a shader program a scene renders with. *shader.Program
// implements it.
type Program interface {
	shader.Uniforms
	Activate()
	Destroy()
}

// Scene owns a program, its root nodes and its animation engines.
type Scene struct {
	Name      string
	Program   Program
	Objects   []*Node
	Animators []*animation.Engine

	// Light, when set, is uploaded with the camera each frame.
	Light *lighting.Directional
}

// New creates an empty scene rendered with program.
func New(name string, program Program) *Scene {
	return &Scene{Name: name, Program: program}
}

// Add appends root nodes.
func (s *Scene) Add(nodes ...*Node) {
	s.Objects = append(s.Objects, nodes...)
}

// AddEngine appends an animation engine.
func (s *Scene) AddEngine(e *animation.Engine) {
	s.Animators = append(s.Animators, e)
}

// Start starts every animation engine.
func (s *Scene) Start() {
	for _, e := range s.Animators {
		e.Start()
	}
	logger.Info("scene started",
		zap.String("scene", s.Name),
		zap.Int("objects", len(s.Objects)),
		zap.Int("engines", len(s.Animators)))
}

// SetCamera uploads the per-frame view uniforms. It must be called before
// Render each frame.
func (s *Scene) SetCamera(view, projection math.Mat4, eye math.Vec3) {
	s.Program.Activate()
	s.Program.SetMat4("view", view)
	s.Program.SetMat4("projection", projection)
	s.Program.SetVec3("cameraPos", eye)
	if s.Light != nil {
		s.Light.Apply(s.Program)
	}
}

// Tick advances every engine by dt seconds.
func (s *Scene) Tick(dt float32) {
	for _, e := range s.Animators {
		e.Tick(dt)
	}
}

// Render draws every root node in order.
func (s *Scene) Render() {
	s.Program.Activate()
	for _, o := range s.Objects {
		o.Render(s.Program)
	}
}

// Find returns the first node with the given name across all roots.
func (s *Scene) Find(name string) *Node {
	for _, o := range s.Objects {
		if n := o.Find(name); n != nil {
			return n
		}
	}
	return nil
}

// Destroy frees every node and the program. Engines are dropped first
// since they reference nodes.
func (s *Scene) Destroy() {
	s.Animators = nil
	for _, o := range s.Objects {
		o.Destroy()
	}
	s.Objects = nil
	if s.Program != nil {
		s.Program.Destroy()
	}
	logger.Debug("scene destroyed", zap.String("scene", s.Name))
}
