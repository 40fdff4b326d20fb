// Package importer turns model files into scene node hierarchies.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/asset"
	"github.com/Faultbox/scenery/internal/engine/mesh"
	"github.com/Faultbox/scenery/internal/engine/scene"
	"github.com/Faultbox/scenery/internal/engine/texture"
	"github.com/Faultbox/scenery/internal/logger"
	"github.com/Faultbox/scenery/pkg/math"
)

// ErrImport reports a model that could not be loaded. The wrapped error
// carries the parser's message.
var ErrImport = errors.New("import error")

// Sampler uniform names per texture type.
var samplers = map[asset.TextureType]string{
	asset.Diffuse:  "baseTexture",
	asset.Specular: "specMap",
	asset.Height:   "normalMap",
	asset.Normals:  "normalMap",
}

// Importer builds scene nodes from model files. The function fields are
// the GPU-facing collaborators; New wires the real ones.
type Importer struct {
	Source      func(path string, opts asset.Options) (*asset.Scene, error)
	NewMesh     func(vertices []mesh.Vertex, faces []uint32, textures []*texture.Texture) scene.Drawable
	LoadTexture func(path, samplerName string) (*texture.Texture, error)
}

// New returns an importer that parses with asset.Open and uploads to GL.
func New() *Importer {
	return &Importer{
		Source: asset.Open,
		NewMesh: func(vertices []mesh.Vertex, faces []uint32, textures []*texture.Texture) scene.Drawable {
			return mesh.New(vertices, faces, textures...)
		},
		LoadTexture: texture.LoadFile,
	}
}

// load is the state of one Load call. Textures are shared between meshes
// of the same import only.
type load struct {
	im    *Importer
	dir   string
	src   *asset.Scene
	cache map[string]*texture.Texture
}

// Load imports the model at path. flipUVs flips the v texture coordinate
// for files authored with a bottom-left texture origin.
func (im *Importer) Load(path string, flipUVs bool) (*scene.Node, error) {
	opts := asset.MaxQuality()
	opts.FlipUVs = flipUVs

	src, err := im.Source(path, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImport, err)
	}

	l := &load{
		im:    im,
		dir:   filepath.Dir(path),
		src:   src,
		cache: make(map[string]*texture.Texture),
	}
	root, err := l.node(src.Root)
	if err != nil {
		l.discardUnused()
		return nil, fmt.Errorf("%w: %s: %w", ErrImport, path, err)
	}

	logger.Info("model imported",
		zap.String("path", path),
		zap.Int("meshes", len(src.Meshes)),
		zap.Int("textures", len(l.cache)))
	return root, nil
}

// node builds n and its subtree. On error the partial subtree is destroyed.
func (l *load) node(n *asset.Node) (*scene.Node, error) {
	meshes := make([]scene.Drawable, 0, len(n.Meshes))
	for _, mi := range n.Meshes {
		m, err := l.mesh(l.src.Meshes[mi])
		if err != nil {
			for _, built := range meshes {
				built.Destroy()
			}
			return nil, err
		}
		if m != nil {
			meshes = append(meshes, m)
		}
	}

	out := scene.NewNodeWithBase(meshes, math.FromRowMajor(n.Transform))
	out.Name = n.Name
	for _, c := range n.Children {
		child, err := l.node(c)
		if err != nil {
			out.Destroy()
			return nil, err
		}
		out.AddChild(child)
	}
	return out, nil
}

func (l *load) mesh(m *asset.Mesh) (scene.Drawable, error) {
	vertices := make([]mesh.Vertex, len(m.Positions))
	for i, p := range m.Positions {
		vertices[i].Position = p
		if i < len(m.Normals) {
			vertices[i].Normal = m.Normals[i]
		}
		if i < len(m.TexCoords) {
			vertices[i].TexCoord = m.TexCoords[i]
		}
	}

	faces := make([]uint32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		if len(f) == 3 {
			faces = append(faces, f...)
		}
	}
	if len(faces) == 0 {
		logger.Warn("skipping mesh without triangles", zap.String("mesh", m.Name))
		return nil, nil
	}

	var textures []*texture.Texture
	if m.MaterialIndex >= 0 {
		var err error
		if textures, err = l.textures(l.src.Materials[m.MaterialIndex]); err != nil {
			return nil, err
		}
	}
	return l.im.NewMesh(vertices, faces, textures), nil
}

// textures loads a material's textures in diffuse, specular, height,
// normals order, reusing any already loaded by this import.
func (l *load) textures(mat *asset.Material) ([]*texture.Texture, error) {
	var out []*texture.Texture
	for _, tt := range asset.TextureTypes {
		for _, rel := range mat.Textures[tt] {
			path := filepath.Clean(filepath.Join(l.dir, filepath.FromSlash(rel)))
			if t, ok := l.cache[path]; ok {
				out = append(out, t)
				continue
			}
			t, err := l.im.LoadTexture(path, samplers[tt])
			if err != nil {
				return nil, fmt.Errorf("material %q: %w", mat.Name, err)
			}
			l.cache[path] = t
			out = append(out, t)
		}
	}
	return out, nil
}

// discardUnused frees textures loaded for meshes that were never built.
func (l *load) discardUnused() {
	for _, t := range l.cache {
		if t.Refs() == 0 {
			t.Discard()
		}
	}
}
