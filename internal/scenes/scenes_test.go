package scenes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenery/internal/engine/animation"
	"github.com/Faultbox/scenery/internal/engine/scene"
	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/pkg/math"
)

const eps = 1e-4

type fakeProgram struct {
	kind      string
	destroyed bool
}

func (p *fakeProgram) SetInt(string, int32)      {}
func (p *fakeProgram) SetFloat(string, float32)  {}
func (p *fakeProgram) SetVec3(string, math.Vec3) {}
func (p *fakeProgram) SetVec4(string, math.Vec4) {}
func (p *fakeProgram) SetMat4(string, math.Mat4) {}
func (p *fakeProgram) Activate()                 {}
func (p *fakeProgram) Destroy()                  { p.destroyed = true }

type fakeDrawable struct {
	destroyed bool
}

func (d *fakeDrawable) Render(shader.Uniforms) {}
func (d *fakeDrawable) Destroy()               { d.destroyed = true }

// fakeAssets builds every model as a node with one mesh and one unnamed
// child, the way imported files usually carry an inner node.
type fakeAssets struct {
	program  *fakeProgram
	models   []string
	squares  [][]TextureRef
	meshes   []*fakeDrawable
	failOn   string
	programs int
	files    []string
}

func (a *fakeAssets) Program(kind string) (scene.Program, error) {
	a.programs++
	a.program = &fakeProgram{kind: kind}
	return a.program, nil
}

func (a *fakeAssets) ProgramFiles(vertexPath, fragmentPath string) (scene.Program, error) {
	a.programs++
	a.files = []string{vertexPath, fragmentPath}
	a.program = &fakeProgram{kind: "files"}
	return a.program, nil
}

func (a *fakeAssets) Model(path string, flipUVs bool) (*scene.Node, error) {
	if path == a.failOn {
		return nil, errors.New("cannot open " + path)
	}
	a.models = append(a.models, path)
	d := &fakeDrawable{}
	a.meshes = append(a.meshes, d)
	n := scene.NewNode([]scene.Drawable{d})
	n.Name = filepath.Base(path)
	n.AddChild(scene.NewNode(nil))
	return n, nil
}

func (a *fakeAssets) Square(textures []TextureRef) (scene.Drawable, error) {
	a.squares = append(a.squares, textures)
	d := &fakeDrawable{}
	a.meshes = append(a.meshes, d)
	return d, nil
}

func buildDemo(t *testing.T, name string) (*scene.Scene, *fakeAssets) {
	t.Helper()
	d, err := Demo(name)
	require.NoError(t, err)
	assets := &fakeAssets{}
	s, err := Build(d, assets)
	require.NoError(t, err)
	return s, assets
}

func TestDemos(t *testing.T) {
	assert.Equal(t, []string{"bunny", "cube", "lifeofpi", "marble"}, Demos())
	for _, name := range Demos() {
		t.Run(name, func(t *testing.T) {
			s, assets := buildDemo(t, name)
			assert.Equal(t, name, s.Name)
			assert.Equal(t, ShaderTexturing, assets.program.kind)
			assert.NotEmpty(t, s.Objects)
		})
	}

	_, err := Demo("nope")
	assert.ErrorIs(t, err, ErrInvalidScene)
}

func TestBunnyDemo(t *testing.T) {
	s, assets := buildDemo(t, "bunny")
	assert.Equal(t, []string{"models/bunny_textured.obj"}, assets.models)

	bunny := s.Objects[0]
	assert.Equal(t, "bunny", bunny.Name)
	assert.Equal(t, math.Vec3{X: 9, Y: 9, Z: 9}, bunny.Scale())
	assert.Equal(t, math.Vec3{X: 0.2, Y: -1}, bunny.Position())

	require.Len(t, s.Animators, 1)
	s.Start()
	s.Tick(5)
	assert.InDelta(t, math32.Pi, bunny.Orientation().Y, eps)
	s.Tick(5)
	assert.InDelta(t, 2*math32.Pi, bunny.Orientation().Y, eps)
	assert.Equal(t, animation.Complete, s.Animators[0].State())
}

func TestMarbleDemo(t *testing.T) {
	s, assets := buildDemo(t, "marble")
	require.Len(t, assets.squares, 1)
	assert.Equal(t, "baseTexture", assets.squares[0][0].Sampler)
	assert.Contains(t, assets.squares[0][0].Path, "white_marble_03_2k_baseColor.tga")

	floor := s.Objects[0]
	assert.InDelta(t, -math32.Pi/2, floor.Orientation().X, eps)
	assert.Equal(t, math.Vec3{Y: -1.5}, floor.Position())
	assert.Equal(t, math.Vec3{X: 5, Y: 5, Z: 5}, floor.Scale())
	assert.Empty(t, s.Animators)
}

func TestCubeDemoRunsStepsInOrder(t *testing.T) {
	s, _ := buildDemo(t, "cube")
	cube := s.Objects[0]
	s.Start()

	s.Tick(10)
	assert.InDelta(t, 2*math32.Pi, cube.Orientation().Y, eps)
	assert.InDelta(t, 0, cube.Orientation().X, eps)

	s.Tick(5)
	assert.InDelta(t, math32.Pi, cube.Orientation().X, eps)
	s.Tick(5)
	assert.InDelta(t, 2*math32.Pi, cube.Orientation().X, eps)
	assert.Equal(t, animation.Complete, s.Animators[0].State())
}

func TestLifeOfPiDemo(t *testing.T) {
	s, assets := buildDemo(t, "lifeofpi")
	assert.Equal(t, []string{"models/boat/boat.gltf", "models/tiger/scene.gltf"}, assets.models)

	boat := s.Objects[0]
	require.Equal(t, 2, boat.ChildCount())
	tiger := boat.Child(1)
	assert.Equal(t, "tiger", tiger.Name)
	assert.Equal(t, math.Vec3{Y: -5, Z: 10}, tiger.Position())

	s.Start()
	s.Tick(2.5)
	assert.InDelta(t, math32.Pi/2, boat.Orientation().Y, eps)
	assert.InDelta(t, math32.Pi/2, tiger.Orientation().Z, eps)
	assert.InDelta(t, 0, tiger.Orientation().Y, eps, "the boat's spin reaches the tiger through its transform only")
}

func TestResolve(t *testing.T) {
	s, _ := buildDemo(t, "lifeofpi")
	boat := s.Objects[0]

	tests := []struct {
		target string
		want   *scene.Node
	}{
		{"0", boat},
		{"0/1", boat.Child(1)},
		{"0/0", boat.Child(0)},
		{"tiger", boat.Child(1)},
		{"boat", boat},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			n, err := Resolve(s, tt.target)
			require.NoError(t, err)
			assert.Same(t, tt.want, n)
		})
	}

	for _, bad := range []string{"1", "0/2", "0/1/5", "-1", "ghost"} {
		_, err := Resolve(s, bad)
		assert.ErrorIs(t, err, ErrInvalidScene, bad)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
	}{
		{"unknown yaml field", "yaml", "name: x\ncolour: red\n"},
		{"unknown toml field", "toml", "name = \"x\"\ncolour = \"red\"\n"},
		{"unknown shader", "yaml", "shader: toon\n"},
		{"model and square", "yaml", "objects:\n  - model: a.obj\n    square: {}\n"},
		{"unknown animation", "yaml", "animators:\n  - animations:\n      - type: wobble\n        target: \"0\"\n"},
		{"missing target", "yaml", "animators:\n  - animations:\n      - type: rotation\n        duration: 1\n"},
		{"negative duration", "yaml", "animators:\n  - animations:\n      - type: translation\n        target: a\n        duration: -1\n"},
		{"empty sequence", "yaml", "animators:\n  - animations:\n      - type: sequence\n        target: a\n"},
		{"wrong vector length", "yaml", "objects:\n  - move: [1, 2]\n"},
		{"light without phong", "yaml", "light: {latitude: 45}\n"},
		{"shader files without fragment", "yaml", "shader_files: {vertex: a.vert}\n"},
		{"unknown format", "json", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			assert.ErrorIs(t, err, ErrInvalidScene)
		})
	}
}

func TestParseDefaultsShader(t *testing.T) {
	d, err := Parse([]byte("name: plain\n"), "yaml")
	require.NoError(t, err)
	assert.Equal(t, ShaderTexturing, d.Shader)
}

func TestBuildUnknownTarget(t *testing.T) {
	d, err := Parse([]byte(`
objects:
  - name: a
    model: a.obj
animators:
  - animations:
      - type: rotation
        target: b
        duration: 1
        delta: [0, 90, 0]
`), "yaml")
	require.NoError(t, err)

	assets := &fakeAssets{}
	s, err := Build(d, assets)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrInvalidScene)
	assert.True(t, assets.program.destroyed)
	assert.True(t, assets.meshes[0].destroyed)
}

func TestBuildModelFailure(t *testing.T) {
	d := &Description{Objects: []Object{
		{Model: "good.obj"},
		{Model: "bad.obj"},
	}}
	assets := &fakeAssets{failOn: "bad.obj"}

	_, err := Build(d, assets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open bad.obj")
	assert.True(t, assets.meshes[0].destroyed)
	assert.True(t, assets.program.destroyed)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "s.yaml")
	tomlPath := filepath.Join(dir, "s.toml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
name: group
shader: phong
light:
  longitude: 0
  latitude: 90
  ambient: [0.2, 0.2, 0.2]
objects:
  - name: parent
    position: [1, 2, 3]
    orientation: [0, 90, 0]
    material: [0.2, 0.8, 0.5, 16]
    children:
      - name: kid
        center: [0, 1, 0]
        scale: [2, 2, 2]
`), 0644))
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
name = "group"
shader = "phong"

[light]
longitude = 0.0
latitude = 90.0
ambient = [0.2, 0.2, 0.2]

[[objects]]
name = "parent"
position = [1.0, 2.0, 3.0]
orientation = [0.0, 90.0, 0.0]
material = [0.2, 0.8, 0.5, 16.0]

[[objects.children]]
name = "kid"
center = [0.0, 1.0, 0.0]
scale = [2.0, 2.0, 2.0]
`), 0644))

	fromYAML, err := LoadFile(yamlPath)
	require.NoError(t, err)
	fromTOML, err := LoadFile(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, fromYAML, fromTOML)

	assets := &fakeAssets{}
	s, err := Build(fromTOML, assets)
	require.NoError(t, err)
	assert.Equal(t, ShaderPhong, assets.program.kind)
	require.NotNil(t, s.Light)
	assert.InDelta(t, -1, s.Light.Direction.Y, eps)
	assert.Equal(t, math.One, s.Light.Color)
	assert.Equal(t, math.Vec3{X: 0.2, Y: 0.2, Z: 0.2}, s.Light.Ambient)

	parent := s.Objects[0]
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 3}, parent.Position())
	assert.InDelta(t, math32.Pi/2, parent.Orientation().Y, eps)
	assert.Equal(t, math.Vec4{0.2, 0.8, 0.5, 16}, parent.Material())
	assert.Empty(t, parent.Meshes(), "an object with neither model nor square only groups")

	kid := parent.Child(0)
	assert.Equal(t, math.Vec3{Y: 1}, kid.Center())
	assert.Equal(t, math.Vec3{X: 2, Y: 2, Z: 2}, kid.Scale())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidScene)
}

func TestBuildShaderFiles(t *testing.T) {
	d, err := Parse([]byte(`
name: custom
shader: phong
shader_files:
  vertex: shaders/toon.vert
  fragment: shaders/toon.frag
light: {latitude: 60}
`), "yaml")
	require.NoError(t, err)

	assets := &fakeAssets{}
	s, err := Build(d, assets)
	require.NoError(t, err)
	assert.Equal(t, []string{"shaders/toon.vert", "shaders/toon.frag"}, assets.files)
	assert.Equal(t, 1, assets.programs)
	assert.Same(t, assets.program, s.Program)
	assert.NotNil(t, s.Light)
}

func TestGLAssetsMissingShaderFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.vert"), []byte("#version 410 core\n"), 0644))

	a := NewGLAssets(dir)
	p, err := a.ProgramFiles("a.vert", "missing.frag")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, shader.ErrShader)
	assert.Contains(t, err.Error(), filepath.Join(dir, "missing.frag"))
}
