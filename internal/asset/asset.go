// Package asset reads 3D model files into a format-neutral tree of nodes,
// meshes and materials. It does no GPU work; internal/importer turns the
// tree into scene nodes.
package asset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/logger"
)

var (
	// ErrUnsupportedFormat reports a file extension no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported model format")
	// ErrMalformed reports a file that could not be parsed.
	ErrMalformed = errors.New("malformed model")
)

// TextureType classifies a material's texture reference.
type TextureType int

const (
	Diffuse TextureType = iota
	Specular
	Height
	Normals
)

// TextureTypes lists every texture type in load order.
var TextureTypes = []TextureType{Diffuse, Specular, Height, Normals}

func (t TextureType) String() string {
	switch t {
	case Diffuse:
		return "diffuse"
	case Specular:
		return "specular"
	case Height:
		return "height"
	case Normals:
		return "normals"
	default:
		return fmt.Sprintf("TextureType(%d)", int(t))
	}
}

// Scene is a parsed model file.
type Scene struct {
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
}

// Node is one transform in the file's hierarchy.
type Node struct {
	Name string
	// Transform is the node's local transform, laid out row by row.
	Transform [16]float32
	// Meshes indexes Scene.Meshes.
	Meshes   []int
	Children []*Node
}

// Mesh is geometry with one material.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	// TexCoords is the first UV channel, nil if the mesh has none.
	TexCoords [][2]float32
	Faces     [][]uint32
	// MaterialIndex indexes Scene.Materials, -1 for none.
	MaterialIndex int
}

// Material holds texture paths relative to the model file's directory.
type Material struct {
	Name     string
	Textures map[TextureType][]string
}

// AddTexture records a texture path of type t.
func (m *Material) AddTexture(t TextureType, path string) {
	if m.Textures == nil {
		m.Textures = make(map[TextureType][]string)
	}
	m.Textures[t] = append(m.Textures[t], path)
}

// IdentityTransform is the row-major identity.
var IdentityTransform = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Options is the post-processing applied after parsing.
type Options struct {
	// Triangulate splits polygons into triangle fans and drops points and lines.
	Triangulate bool
	// GenSmoothNormals fills in normals for meshes that have none.
	GenSmoothNormals bool
	// Validate rejects out of range indices.
	Validate bool
	// FlipUVs replaces v with 1-v.
	FlipUVs bool
}

// MaxQuality is the real-time quality profile used by the importer.
func MaxQuality() Options {
	return Options{Triangulate: true, GenSmoothNormals: true, Validate: true}
}

// Reader parses one file format.
type Reader func(path string) (*Scene, error)

var readers = map[string]Reader{
	".obj":  ReadOBJ,
	".gltf": ReadGLTF,
	".glb":  ReadGLTF,
}

// Open parses the file at path, choosing a reader by extension, and applies
// opts.
func Open(path string, opts Options) (*Scene, error) {
	ext := strings.ToLower(filepath.Ext(path))
	read, ok := readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	s, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := PostProcess(s, opts); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("model parsed",
		zap.String("path", path),
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("materials", len(s.Materials)))
	return s, nil
}

// Walk visits every node depth-first, parents first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
