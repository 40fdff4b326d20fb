package scenes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/engine/animation"
	"github.com/Faultbox/scenery/internal/engine/lighting"
	"github.com/Faultbox/scenery/internal/engine/scene"
	"github.com/Faultbox/scenery/internal/logger"
	"github.com/Faultbox/scenery/pkg/math"
)

// Assets loads the GPU resources a description refers to.
type Assets interface {
	Program(kind string) (scene.Program, error)
	ProgramFiles(vertexPath, fragmentPath string) (scene.Program, error)
	Model(path string, flipUVs bool) (*scene.Node, error)
	Square(textures []TextureRef) (scene.Drawable, error)
}

const degToRad = math32.Pi / 180

// Build loads everything d refers to and assembles the scene. Nothing is
// started; call Start on the result before ticking it.
func Build(d *Description, assets Assets) (s *scene.Scene, err error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var program scene.Program
	if d.Sources != nil {
		program, err = assets.ProgramFiles(d.Sources.Vertex, d.Sources.Fragment)
	} else {
		program, err = assets.Program(d.Shader)
	}
	if err != nil {
		return nil, err
	}
	s = scene.New(d.Name, program)
	if d.Light != nil {
		light := buildLight(d.Light)
		s.Light = &light
	}
	defer func() {
		if err != nil {
			s.Destroy()
			s = nil
		}
	}()

	for i := range d.Objects {
		n, err := buildObject(&d.Objects[i], assets)
		if err != nil {
			return s, fmt.Errorf("object %d: %w", i, err)
		}
		s.Add(n)
	}

	for i, a := range d.Animators {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", d.Name, i)
		}
		e := animation.NewEngine(name)
		for j, desc := range a.Animations {
			anim, err := buildAnimation(s, desc, "")
			if err != nil {
				return s, fmt.Errorf("animator %q animation %d: %w", name, j, err)
			}
			e.Add(anim)
		}
		s.AddEngine(e)
	}

	logger.Info("scene built",
		zap.String("scene", d.Name),
		zap.String("shader", d.Shader),
		zap.Int("objects", len(s.Objects)),
		zap.Int("animators", len(s.Animators)))
	return s, nil
}

func buildLight(l *Light) lighting.Directional {
	color, ambient := math.One, math.One
	if l.Color != nil {
		color = vec(*l.Color)
	}
	if l.Ambient != nil {
		ambient = vec(*l.Ambient)
	}
	return lighting.FromSun(l.Longitude, l.Latitude, color, ambient)
}

func buildObject(o *Object, assets Assets) (*scene.Node, error) {
	var n *scene.Node
	switch {
	case o.Model != "":
		var err error
		if n, err = assets.Model(o.Model, o.FlipUVs); err != nil {
			return nil, err
		}
	case o.Square != nil:
		m, err := assets.Square(o.Square.Textures)
		if err != nil {
			return nil, err
		}
		n = scene.NewNode([]scene.Drawable{m})
	default:
		n = scene.NewNode(nil)
	}
	if o.Name != "" {
		n.Name = o.Name
	}

	if o.Position != nil {
		n.SetPosition(vec(*o.Position))
	}
	if o.Orientation != nil {
		n.SetOrientation(vec(*o.Orientation).Scale(degToRad))
	}
	if o.Scale != nil {
		n.SetScale(vec(*o.Scale))
	}
	if o.Center != nil {
		n.SetCenter(vec(*o.Center))
	}
	if o.Material != nil {
		n.SetMaterial(math.Vec4(*o.Material))
	}
	if o.Move != nil {
		n.Move(vec(*o.Move))
	}
	if o.Rotate != nil {
		n.Rotate(vec(*o.Rotate).Scale(degToRad))
	}
	if o.Grow != nil {
		n.Grow(vec(*o.Grow))
	}

	for i := range o.Children {
		c, err := buildObject(&o.Children[i], assets)
		if err != nil {
			n.Destroy()
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		n.AddChild(c)
	}
	return n, nil
}

func buildAnimation(s *scene.Scene, a Animation, inherited string) (animation.Animation, error) {
	target := a.Target
	if target == "" {
		target = inherited
	}

	switch a.Type {
	case AnimSequence:
		steps := make([]animation.Animation, 0, len(a.Steps))
		for i, step := range a.Steps {
			anim, err := buildAnimation(s, step, target)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			steps = append(steps, anim)
		}
		return animation.NewSequence(steps...), nil
	case AnimRotation:
		n, err := Resolve(s, target)
		if err != nil {
			return nil, err
		}
		return animation.NewRotation(n, a.Duration, vec(a.Delta).Scale(degToRad)), nil
	case AnimTranslation:
		n, err := Resolve(s, target)
		if err != nil {
			return nil, err
		}
		return animation.NewTranslation(n, a.Duration, vec(a.Delta)), nil
	default:
		return nil, fmt.Errorf("%w: unknown animation type %q", ErrInvalidScene, a.Type)
	}
}

// Resolve finds a node by index path ("0", "0/1") or, failing that, by name.
func Resolve(s *scene.Scene, target string) (*scene.Node, error) {
	if n, ok := resolvePath(s, target); ok {
		return n, nil
	}
	if n := s.Find(target); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("%w: no node %q", ErrInvalidScene, target)
}

func resolvePath(s *scene.Scene, target string) (*scene.Node, bool) {
	parts := strings.Split(target, "/")
	var n *scene.Node
	for depth, p := range parts {
		i, err := strconv.Atoi(p)
		if err != nil || i < 0 {
			return nil, false
		}
		if depth == 0 {
			if i >= len(s.Objects) {
				return nil, false
			}
			n = s.Objects[i]
			continue
		}
		if i >= n.ChildCount() {
			return nil, false
		}
		n = n.Child(i)
	}
	return n, n != nil
}

func vec(a [3]float32) math.Vec3 {
	return math.V3(a)
}
