package asset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/logger"
)

// objIndex identifies a face corner by position, uv and normal index.
// Missing components are -1.
type objIndex struct {
	v, vt, vn int
}

// objGroup collects the meshes of one "o" or "g" statement.
type objGroup struct {
	name   string
	meshes []int
}

type objReader struct {
	path string
	dir  string

	positions [][3]float32
	texCoords [][2]float32
	normals   [][3]float32

	scene     *Scene
	materials map[string]int

	groups  []*objGroup
	group   *objGroup
	mesh    *Mesh
	corners map[objIndex]uint32
	mtl     int

	noNormals map[*Mesh]bool
}

// ReadOBJ parses a Wavefront OBJ file and the MTL libraries it references.
func ReadOBJ(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	defer f.Close()

	r := &objReader{
		path:      path,
		dir:       filepath.Dir(path),
		scene:     &Scene{},
		materials: make(map[string]int),
		mtl:       -1,
		noNormals: make(map[*Mesh]bool),
	}
	if err := r.parse(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r.build(), nil
}

func (r *objReader) parse(src io.Reader) error {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(stripComment(sc.Text()))
		if len(fields) == 0 {
			continue
		}
		if err := r.statement(fields); err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

func (r *objReader) statement(fields []string) error {
	args := fields[1:]
	switch fields[0] {
	case "v":
		v, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		r.positions = append(r.positions, [3]float32{v[0], v[1], v[2]})
	case "vt":
		v, err := parseFloats(args, 2)
		if err != nil {
			return err
		}
		r.texCoords = append(r.texCoords, [2]float32{v[0], v[1]})
	case "vn":
		v, err := parseFloats(args, 3)
		if err != nil {
			return err
		}
		r.normals = append(r.normals, [3]float32{v[0], v[1], v[2]})
	case "f":
		return r.face(args)
	case "o", "g":
		name := strings.Join(args, " ")
		r.group = &objGroup{name: name}
		r.groups = append(r.groups, r.group)
		r.mesh = nil
	case "usemtl":
		if len(args) == 0 {
			return fmt.Errorf("usemtl without a name")
		}
		idx, ok := r.materials[args[0]]
		if !ok {
			logger.Warn("obj: unknown material", zap.String("path", r.path), zap.String("material", args[0]))
			idx = -1
		}
		if idx != r.mtl {
			r.mtl = idx
			r.mesh = nil
		}
	case "mtllib":
		for _, lib := range args {
			if err := r.loadMTL(lib); err != nil {
				return err
			}
		}
	case "s", "l", "p":
		// Smoothing groups, lines and points carry nothing we render.
	default:
		logger.Debug("obj: ignoring statement", zap.String("keyword", fields[0]))
	}
	return nil
}

func (r *objReader) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("face with %d vertices", len(args))
	}
	m := r.currentMesh()
	face := make([]uint32, 0, len(args))
	for _, a := range args {
		key, err := r.corner(a)
		if err != nil {
			return err
		}
		idx, ok := r.corners[key]
		if !ok {
			idx = uint32(len(m.Positions))
			r.corners[key] = idx
			m.Positions = append(m.Positions, r.positions[key.v])
			if key.vt >= 0 {
				m.TexCoords = append(m.TexCoords, r.texCoords[key.vt])
			} else {
				m.TexCoords = append(m.TexCoords, [2]float32{})
			}
			if key.vn >= 0 {
				m.Normals = append(m.Normals, r.normals[key.vn])
			} else {
				m.Normals = append(m.Normals, [3]float32{})
			}
			if key.vn < 0 {
				r.noNormals[m] = true
			}
		}
		face = append(face, idx)
	}
	m.Faces = append(m.Faces, face)
	return nil
}

// corner parses "v", "v/vt", "v//vn" or "v/vt/vn".
func (r *objReader) corner(s string) (objIndex, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return objIndex{}, fmt.Errorf("bad face vertex %q", s)
	}
	key := objIndex{v: -1, vt: -1, vn: -1}
	var err error
	if key.v, err = resolveIndex(parts[0], len(r.positions)); err != nil {
		return key, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if key.vt, err = resolveIndex(parts[1], len(r.texCoords)); err != nil {
			return key, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if key.vn, err = resolveIndex(parts[2], len(r.normals)); err != nil {
			return key, err
		}
	}
	return key, nil
}

// resolveIndex converts a 1-based or negative relative OBJ index to 0-based.
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", s)
	}
	if i < 0 {
		i += count
	} else {
		i--
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("index %s out of range (%d defined)", s, count)
	}
	return i, nil
}

func (r *objReader) currentMesh() *Mesh {
	if r.mesh != nil {
		return r.mesh
	}
	if r.group == nil {
		r.group = &objGroup{name: strings.TrimSuffix(filepath.Base(r.path), filepath.Ext(r.path))}
		r.groups = append(r.groups, r.group)
	}
	name := r.group.name
	if r.mtl >= 0 {
		name += "-" + r.scene.Materials[r.mtl].Name
	}
	r.mesh = &Mesh{Name: name, MaterialIndex: r.mtl}
	r.corners = make(map[objIndex]uint32)
	r.group.meshes = append(r.group.meshes, len(r.scene.Meshes))
	r.scene.Meshes = append(r.scene.Meshes, r.mesh)
	return r.mesh
}

func (r *objReader) build() *Scene {
	root := &Node{
		Name:      filepath.Base(r.path),
		Transform: IdentityTransform,
	}
	for _, g := range r.groups {
		if len(g.meshes) == 0 {
			continue
		}
		root.Children = append(root.Children, &Node{
			Name:      g.name,
			Transform: IdentityTransform,
			Meshes:    g.meshes,
		})
	}
	for _, m := range r.scene.Meshes {
		// Post-processing regenerates normals for the whole mesh.
		if r.noNormals[m] {
			m.Normals = nil
		}
		if len(r.texCoords) == 0 {
			m.TexCoords = nil
		}
	}
	r.scene.Root = root
	return r.scene
}

// loadMTL reads a material library named relative to the OBJ file. A
// missing library is logged and skipped, leaving the affected meshes
// untextured. Texture paths are recorded relative to the OBJ file.
func (r *objReader) loadMTL(lib string) error {
	path := lib
	if !filepath.IsAbs(lib) {
		path = filepath.Join(r.dir, lib)
	}
	libDir := filepath.Dir(lib)
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("obj: material library not found", zap.String("path", path), zap.Error(err))
		return nil
	}
	defer f.Close()

	var cur *Material
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := stripComment(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return fmt.Errorf("%s: newmtl without a name", path)
			}
			cur = &Material{Name: fields[1]}
			r.materials[cur.Name] = len(r.scene.Materials)
			r.scene.Materials = append(r.scene.Materials, cur)
			continue
		}
		if cur == nil {
			continue
		}
		var tt TextureType
		switch strings.ToLower(fields[0]) {
		case "map_kd":
			tt = Diffuse
		case "map_ks":
			tt = Specular
		case "map_bump", "bump":
			tt = Height
		case "norm", "map_kn":
			tt = Normals
		default:
			continue
		}
		name := mapFile(line)
		if name == "" {
			return fmt.Errorf("%s: %s without a file", path, fields[0])
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(libDir, name)
		}
		cur.AddTexture(tt, filepath.ToSlash(name))
	}
	return sc.Err()
}

// mapOptionArgs is how many values each texture map option takes. The
// offset, scale and turbulence options take up to three.
var mapOptionArgs = map[string]int{
	"-blendu": 1, "-blendv": 1, "-bm": 1, "-boost": 1, "-cc": 1, "-clamp": 1,
	"-imfchan": 1, "-texres": 1, "-type": 1, "-mm": 2, "-o": 3, "-s": 3, "-t": 3,
}

// mapFile returns the file name of a texture map statement: everything
// after the keyword and its options, spaces included.
func mapFile(line string) string {
	rest := strings.TrimSpace(line)
	keyword := strings.Fields(rest)[0]
	rest = strings.TrimSpace(rest[len(keyword):])
	for strings.HasPrefix(rest, "-") {
		opt := strings.Fields(rest)[0]
		rest = strings.TrimSpace(rest[len(opt):])
		n, ok := mapOptionArgs[strings.ToLower(opt)]
		if !ok {
			continue
		}
		for i := 0; i < n && rest != ""; i++ {
			arg := strings.Fields(rest)[0]
			if n == 3 && i > 0 {
				if _, err := strconv.ParseFloat(arg, 32); err != nil {
					break
				}
			}
			rest = strings.TrimSpace(rest[len(arg):])
		}
	}
	return rest
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}

func parseFloats(args []string, n int) ([]float32, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(args))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", args[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}
