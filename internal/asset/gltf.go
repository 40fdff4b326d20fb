package asset

import (
	"fmt"
	"net/url"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/logger"
	"github.com/Faultbox/scenery/pkg/math"
)

type gltfReader struct {
	path string
	doc  *gltf.Document

	scene *Scene
	// primitives maps a glTF mesh to the asset meshes of its primitives.
	primitives map[uint32][]int
	// materials maps a glTF material to its asset material.
	materials map[uint32]int
}

// ReadGLTF parses a .gltf or .glb file. Images stored inside the file are
// not supported and are skipped with a warning.
func ReadGLTF(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}

	r := &gltfReader{
		path:       path,
		doc:        doc,
		scene:      &Scene{},
		primitives: make(map[uint32][]int),
		materials:  make(map[uint32]int),
	}
	root, err := r.root()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}
	r.scene.Root = root
	return r.scene, nil
}

// root gathers the default scene's root nodes under one synthetic node.
func (r *gltfReader) root() (*Node, error) {
	var sceneIdx uint32
	if r.doc.Scene != nil {
		sceneIdx = *r.doc.Scene
	}
	root := &Node{Name: "root", Transform: IdentityTransform}
	if len(r.doc.Scenes) == 0 {
		return root, nil
	}
	if int(sceneIdx) >= len(r.doc.Scenes) {
		return nil, fmt.Errorf("default scene %d out of range", sceneIdx)
	}
	sc := r.doc.Scenes[sceneIdx]
	if sc.Name != "" {
		root.Name = sc.Name
	}
	for _, ni := range sc.Nodes {
		child, err := r.node(ni, 0)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	return root, nil
}

// maxDepth bounds recursion on files whose node graph contains a cycle.
const maxDepth = 256

func (r *gltfReader) node(idx uint32, depth int) (*Node, error) {
	if int(idx) >= len(r.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", idx)
	}
	if depth > maxDepth {
		return nil, fmt.Errorf("node hierarchy deeper than %d", maxDepth)
	}
	gn := r.doc.Nodes[idx]
	n := &Node{
		Name:      gn.Name,
		Transform: nodeTransform(gn).RowMajor(),
	}
	if gn.Mesh != nil {
		meshes, err := r.mesh(*gn.Mesh)
		if err != nil {
			return nil, err
		}
		n.Meshes = meshes
	}
	for _, ci := range gn.Children {
		c, err := r.node(ci, depth+1)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// nodeTransform returns the node's matrix, or T*R*S when it has none. A
// decoded node without a matrix holds gltf.DefaultMatrix, not zeros.
func nodeTransform(n *gltf.Node) math.Mat4 {
	if n.Matrix != gltf.DefaultMatrix && n.Matrix != ([16]float64{}) {
		var m math.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return m
	}
	t := n.Translation
	q := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := math.Quat{X: float32(q[0]), Y: float32(q[1]), Z: float32(q[2]), W: float32(q[3])}
	return math.Translate(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul(rot.ToMat4()).
		Mul(math.Scale(float32(s[0]), float32(s[1]), float32(s[2])))
}

// mesh converts each primitive of a glTF mesh once, however many nodes
// instance it.
func (r *gltfReader) mesh(idx uint32) ([]int, error) {
	if out, ok := r.primitives[idx]; ok {
		return out, nil
	}
	if int(idx) >= len(r.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", idx)
	}
	gm := r.doc.Meshes[idx]
	var out []int
	for pi, prim := range gm.Primitives {
		m, err := r.primitive(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
		}
		if m == nil {
			continue
		}
		m.Name = gm.Name
		if len(gm.Primitives) > 1 {
			m.Name = fmt.Sprintf("%s.%d", gm.Name, pi)
		}
		out = append(out, len(r.scene.Meshes))
		r.scene.Meshes = append(r.scene.Meshes, m)
	}
	r.primitives[idx] = out
	return out, nil
}

func (r *gltfReader) primitive(prim *gltf.Primitive) (*Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	acr, err := r.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(r.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	m := &Mesh{Positions: positions, MaterialIndex: -1}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acr, err = r.accessor(idx); err != nil {
			return nil, err
		}
		if m.Normals, err = modeler.ReadNormal(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = r.accessor(idx); err != nil {
			return nil, err
		}
		if m.TexCoords, err = modeler.ReadTextureCoord(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read texcoords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if acr, err = r.accessor(*prim.Indices); err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	switch prim.Mode {
	case gltf.PrimitiveTriangles:
		for i := 0; i+2 < len(indices); i += 3 {
			m.Faces = append(m.Faces, []uint32{indices[i], indices[i+1], indices[i+2]})
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				m.Faces = append(m.Faces, []uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				m.Faces = append(m.Faces, []uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		m.Faces = append(m.Faces, indices)
	default:
		logger.Debug("gltf: skipping non-triangle primitive", zap.String("path", r.path))
		return nil, nil
	}

	if prim.Material != nil {
		if m.MaterialIndex, err = r.material(*prim.Material); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r *gltfReader) accessor(idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(r.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return r.doc.Accessors[idx], nil
}

func (r *gltfReader) material(idx uint32) (int, error) {
	if out, ok := r.materials[idx]; ok {
		return out, nil
	}
	if int(idx) >= len(r.doc.Materials) {
		return 0, fmt.Errorf("material %d out of range", idx)
	}
	gm := r.doc.Materials[idx]
	mat := &Material{Name: gm.Name}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			r.addTexture(mat, Diffuse, pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			r.addTexture(mat, Specular, pbr.MetallicRoughnessTexture.Index)
		}
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		r.addTexture(mat, Normals, *gm.NormalTexture.Index)
	}

	out := len(r.scene.Materials)
	r.scene.Materials = append(r.scene.Materials, mat)
	r.materials[idx] = out
	return out, nil
}

func (r *gltfReader) addTexture(mat *Material, tt TextureType, texIdx uint32) {
	if int(texIdx) >= len(r.doc.Textures) {
		logger.Warn("gltf: texture out of range", zap.String("path", r.path), zap.Uint32("texture", texIdx))
		return
	}
	src := r.doc.Textures[texIdx].Source
	if src == nil || int(*src) >= len(r.doc.Images) {
		return
	}
	img := r.doc.Images[*src]
	if img.URI == "" || img.IsEmbeddedResource() {
		logger.Warn("gltf: skipping embedded image",
			zap.String("path", r.path),
			zap.String("material", mat.Name),
			zap.Stringer("type", tt))
		return
	}
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		uri = img.URI
	}
	mat.AddTexture(tt, uri)
}
