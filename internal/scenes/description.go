// Package scenes describes scenes in YAML or TOML files and builds them
// into renderable scene graphs.
package scenes

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScene reports a scene description that cannot be built.
var ErrInvalidScene = errors.New("invalid scene")

// Shader kinds.
const (
	ShaderTexturing = "texturing"
	ShaderPhong     = "phong"
)

// Animation kinds.
const (
	AnimRotation    = "rotation"
	AnimTranslation = "translation"
	AnimSequence    = "sequence"
)

// Description is a scene file. Angles are in degrees.
type Description struct {
	Name      string     `yaml:"name" toml:"name"`
	Shader    string     `yaml:"shader" toml:"shader"`
	Sources   *Sources   `yaml:"shader_files" toml:"shader_files"`
	Light     *Light     `yaml:"light" toml:"light"`
	Objects   []Object   `yaml:"objects" toml:"objects"`
	Animators []Animator `yaml:"animators" toml:"animators"`
}

// Sources replaces the built-in program with GLSL files, resolved like
// model paths. Shader still names which uniforms the files expect.
type Sources struct {
	Vertex   string `yaml:"vertex" toml:"vertex"`
	Fragment string `yaml:"fragment" toml:"fragment"`
}

// Light places the sun for the phong shader. Longitude turns around Y and
// latitude is the elevation above the horizon.
type Light struct {
	Longitude float32     `yaml:"longitude" toml:"longitude"`
	Latitude  float32     `yaml:"latitude" toml:"latitude"`
	Color     *[3]float32 `yaml:"color" toml:"color"`
	Ambient   *[3]float32 `yaml:"ambient" toml:"ambient"`
}

// Object is a root or child node. Exactly one of Model and Square is set,
// unless the object only groups its children.
type Object struct {
	Name    string  `yaml:"name" toml:"name"`
	Model   string  `yaml:"model" toml:"model"`
	FlipUVs bool    `yaml:"flip_uvs" toml:"flip_uvs"`
	Square  *Square `yaml:"square" toml:"square"`

	Position    *[3]float32 `yaml:"position" toml:"position"`
	Orientation *[3]float32 `yaml:"orientation" toml:"orientation"`
	Scale       *[3]float32 `yaml:"scale" toml:"scale"`
	Center      *[3]float32 `yaml:"center" toml:"center"`
	Material    *[4]float32 `yaml:"material" toml:"material"`

	// Relative changes applied after the absolute values above.
	Move   *[3]float32 `yaml:"move" toml:"move"`
	Rotate *[3]float32 `yaml:"rotate" toml:"rotate"`
	Grow   *[3]float32 `yaml:"grow" toml:"grow"`

	Children []Object `yaml:"children" toml:"children"`
}

// Square is a textured unit quad.
type Square struct {
	Textures []TextureRef `yaml:"textures" toml:"textures"`
}

// TextureRef names an image file and the sampler it binds to.
type TextureRef struct {
	Path    string `yaml:"path" toml:"path"`
	Sampler string `yaml:"sampler" toml:"sampler"`
}

// Animator is one animation engine.
type Animator struct {
	Name       string      `yaml:"name" toml:"name"`
	Animations []Animation `yaml:"animations" toml:"animations"`
}

// Animation targets a node by index path ("0/1" is the second child of the
// first root object) or by name. Sequence steps without a target inherit
// the sequence's.
type Animation struct {
	Type     string      `yaml:"type" toml:"type"`
	Target   string      `yaml:"target" toml:"target"`
	Duration float32     `yaml:"duration" toml:"duration"`
	Delta    [3]float32  `yaml:"delta" toml:"delta"`
	Steps    []Animation `yaml:"steps" toml:"steps"`
}

// Parse decodes a description. format is "yaml" or "toml".
func Parse(data []byte, format string) (*Description, error) {
	var d Description
	switch format {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidScene, format)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile reads a description, choosing the format by extension.
func LoadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	d, err := Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

//go:embed demos
var demoFS embed.FS

// Demos lists the built-in scene names.
func Demos() []string {
	entries, _ := demoFS.ReadDir("demos")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Demo returns a built-in scene description.
func Demo(name string) (*Description, error) {
	entries, _ := demoFS.ReadDir("demos")
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if strings.TrimSuffix(e.Name(), ext) != name {
			continue
		}
		data, err := demoFS.ReadFile(path.Join("demos", e.Name()))
		if err != nil {
			return nil, err
		}
		return Parse(data, strings.TrimPrefix(ext, "."))
	}
	return nil, fmt.Errorf("%w: no demo %q (have %s)", ErrInvalidScene, name, strings.Join(Demos(), ", "))
}

// Validate checks the description without loading anything.
func (d *Description) Validate() error {
	switch d.Shader {
	case ShaderTexturing, ShaderPhong:
	case "":
		d.Shader = ShaderTexturing
	default:
		return fmt.Errorf("%w: unknown shader %q", ErrInvalidScene, d.Shader)
	}
	if d.Sources != nil && (d.Sources.Vertex == "" || d.Sources.Fragment == "") {
		return fmt.Errorf("%w: shader_files needs both vertex and fragment", ErrInvalidScene)
	}
	if d.Light != nil && d.Shader != ShaderPhong {
		return fmt.Errorf("%w: light needs the %s shader", ErrInvalidScene, ShaderPhong)
	}
	for i := range d.Objects {
		if err := d.Objects[i].validate(fmt.Sprint(i)); err != nil {
			return err
		}
	}
	for i, a := range d.Animators {
		for j, anim := range a.Animations {
			if err := anim.validate(""); err != nil {
				return fmt.Errorf("animator %d animation %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func (o *Object) validate(where string) error {
	if o.Model != "" && o.Square != nil {
		return fmt.Errorf("%w: object %s has both model and square", ErrInvalidScene, where)
	}
	if o.Square != nil {
		for _, t := range o.Square.Textures {
			if t.Path == "" {
				return fmt.Errorf("%w: object %s square texture without path", ErrInvalidScene, where)
			}
		}
	}
	for i := range o.Children {
		if err := o.Children[i].validate(fmt.Sprintf("%s/%d", where, i)); err != nil {
			return err
		}
	}
	return nil
}

func (a Animation) validate(inherited string) error {
	target := a.Target
	if target == "" {
		target = inherited
	}
	if a.Duration < 0 {
		return fmt.Errorf("%w: negative duration %v", ErrInvalidScene, a.Duration)
	}
	switch a.Type {
	case AnimRotation, AnimTranslation:
		if target == "" {
			return fmt.Errorf("%w: %s without target", ErrInvalidScene, a.Type)
		}
	case AnimSequence:
		if len(a.Steps) == 0 {
			return fmt.Errorf("%w: empty sequence", ErrInvalidScene)
		}
		for i, s := range a.Steps {
			if err := s.validate(target); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("%w: unknown animation type %q", ErrInvalidScene, a.Type)
	}
	return nil
}
