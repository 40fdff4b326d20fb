// Package camera provides the viewer's orbit camera.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/scenery/pkg/math"
)

// OrbitCamera orbits around a target point.
type OrbitCamera struct {
	Target math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from target
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Projection
	FOVY float32 // Vertical field of view, radians
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a camera at (0,0,5) looking at the origin with a
// 45 degree field of view and a 0.1 to 100 depth range.
func NewOrbitCamera() *OrbitCamera {
	c := &OrbitCamera{
		FOVY:            45 * math32.Pi / 180,
		Near:            0.1,
		Far:             100,
		MinDistance:     0.5,
		MaxDistance:     50,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
	c.LookAt(math.Vec3{Z: 5}, math.Vec3{})
	return c
}

// LookAt places the camera at eye, facing target.
func (c *OrbitCamera) LookAt(eye, target math.Vec3) {
	c.Target = target
	offset := eye.Sub(target)
	c.Distance = offset.Length()
	if c.Distance == 0 {
		c.RotationX, c.RotationY = 0, 0
		return
	}
	c.RotationX = math32.Asin(offset.Y / c.Distance)
	c.RotationY = math32.Atan2(offset.X, offset.Z)
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	sx, cx := math32.Sincos(c.RotationX)
	sy, cy := math32.Sincos(c.RotationY)
	return c.Target.Add(math.Vec3{
		X: c.Distance * cx * sy,
		Y: c.Distance * sx,
		Z: c.Distance * cx * cy,
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Target, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for a viewport of
// the given width/height ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	return math.Perspective(c.FOVY, aspect, c.Near, c.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	// Clamp pitch
	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}
