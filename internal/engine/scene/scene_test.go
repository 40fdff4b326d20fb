package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenery/internal/engine/animation"
	"github.com/Faultbox/scenery/internal/engine/lighting"
	"github.com/Faultbox/scenery/pkg/math"
)

func TestSceneFrame(t *testing.T) {
	rec := newRecorder()
	s := New("test", rec)

	node := NewNode([]Drawable{&fakeMesh{rec: rec}})
	node.Name = "spinner"
	s.Add(node)

	e := animation.NewEngine("spin")
	e.Add(animation.NewRotation(node, 2, math.Vec3{Y: 1}))
	s.AddEngine(e)
	s.Start()

	view := math.Translate(0, 0, -5)
	proj := math.Perspective(0.78, 1.5, 0.1, 100)
	s.SetCamera(view, proj, math.Vec3{Z: 5})
	s.Tick(1)
	s.Render()

	assert.Equal(t, view, rec.mat4s["view"])
	assert.Equal(t, proj, rec.mat4s["projection"])
	assert.Equal(t, math.Vec3{Z: 5}, rec.vec3s["cameraPos"])
	assert.InDelta(t, 0.5, node.Orientation().Y, eps)
	require.Len(t, rec.models, 1)
	assertMat(t, math.RotateY(0.5), rec.models[0])
	assert.Equal(t, 2, rec.activated)

	assert.Same(t, node, s.Find("spinner"))
	assert.Nil(t, s.Find("nothing"))
	_, lit := rec.vec3s["directionalLight"]
	assert.False(t, lit, "no light uploaded without one set")
}

func TestSceneLight(t *testing.T) {
	rec := newRecorder()
	s := New("lit", rec)
	light := lighting.FromSun(45, 30, math.One, math.Vec3{X: 0.3, Y: 0.3, Z: 0.3})
	s.Light = &light

	s.SetCamera(math.Identity(), math.Identity(), math.Vec3{})
	assert.Equal(t, light.Direction, rec.vec3s["directionalLight"])
	assert.Equal(t, math.One, rec.vec3s["directionalColor"])
	assert.Equal(t, math.Vec3{X: 0.3, Y: 0.3, Z: 0.3}, rec.vec3s["ambientColor"])
}

func TestSceneDestroy(t *testing.T) {
	rec := newRecorder()
	s := New("test", rec)
	m := &fakeMesh{rec: rec}
	s.Add(NewNode([]Drawable{m}))
	s.AddEngine(animation.NewEngine("idle"))

	s.Destroy()
	assert.Equal(t, 1, m.destroyed)
	assert.True(t, rec.destroyed)
	assert.Empty(t, s.Objects)
	assert.Empty(t, s.Animators)
}
