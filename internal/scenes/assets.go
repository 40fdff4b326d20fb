package scenes

import (
	"fmt"
	"path/filepath"

	"github.com/Faultbox/scenery/internal/engine/mesh"
	"github.com/Faultbox/scenery/internal/engine/scene"
	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/internal/engine/shader/sources"
	"github.com/Faultbox/scenery/internal/engine/texture"
	"github.com/Faultbox/scenery/internal/importer"
)

// GLAssets loads resources into the current GL context. Relative paths are
// resolved against Dir.
type GLAssets struct {
	Dir      string
	Importer *importer.Importer
}

// NewGLAssets creates loaders rooted at dir.
func NewGLAssets(dir string) *GLAssets {
	return &GLAssets{Dir: dir, Importer: importer.New()}
}

var _ Assets = (*GLAssets)(nil)

// Program compiles one of the built-in shader programs.
func (a *GLAssets) Program(kind string) (scene.Program, error) {
	var vs, fs string
	switch kind {
	case ShaderTexturing:
		vs, fs = sources.TexturingVertexShader, sources.TexturingFragmentShader
	case ShaderPhong:
		vs, fs = sources.LightingVertexShader, sources.LightingFragmentShader
	default:
		return nil, fmt.Errorf("%w: unknown shader %q", ErrInvalidScene, kind)
	}
	p, err := shader.New(vs, fs)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ProgramFiles compiles a program from GLSL files on disk.
func (a *GLAssets) ProgramFiles(vertexPath, fragmentPath string) (scene.Program, error) {
	p, err := shader.Load(a.resolve(vertexPath), a.resolve(fragmentPath))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Model imports a model file.
func (a *GLAssets) Model(path string, flipUVs bool) (*scene.Node, error) {
	return a.Importer.Load(a.resolve(path), flipUVs)
}

// Square builds a textured quad. Each texture is loaded on its own; squares
// do not share textures.
func (a *GLAssets) Square(refs []TextureRef) (scene.Drawable, error) {
	textures := make([]*texture.Texture, 0, len(refs))
	for _, r := range refs {
		sampler := r.Sampler
		if sampler == "" {
			sampler = "baseTexture"
		}
		t, err := texture.LoadFile(a.resolve(r.Path), sampler)
		if err != nil {
			for _, loaded := range textures {
				loaded.Discard()
			}
			return nil, err
		}
		textures = append(textures, t)
	}
	return mesh.Square(textures...), nil
}

func (a *GLAssets) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.Dir, filepath.FromSlash(path))
}
