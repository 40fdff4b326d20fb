package asset

import (
	"fmt"

	"github.com/chewxy/math32"
)

// PostProcess applies opts to every mesh in s.
func PostProcess(s *Scene, opts Options) error {
	if s.Root == nil {
		return fmt.Errorf("%w: scene has no root node", ErrMalformed)
	}
	for _, m := range s.Meshes {
		if opts.Triangulate {
			m.Faces = triangulate(m.Faces)
		}
		if opts.GenSmoothNormals && len(m.Normals) == 0 {
			m.Normals = faceNormals(m.Positions, m.Faces)
			SmoothNormals(m.Positions, m.Normals)
		}
		if opts.FlipUVs {
			for i := range m.TexCoords {
				m.TexCoords[i][1] = 1 - m.TexCoords[i][1]
			}
		}
	}
	if opts.Validate {
		return validate(s)
	}
	return nil
}

// triangulate fans polygons into triangles and drops point and line faces.
func triangulate(faces [][]uint32) [][]uint32 {
	out := make([][]uint32, 0, len(faces))
	for _, f := range faces {
		if len(f) < 3 {
			continue
		}
		for i := 1; i+1 < len(f); i++ {
			out = append(out, []uint32{f[0], f[i], f[i+1]})
		}
	}
	return out
}

// faceNormals accumulates area-weighted face normals onto each vertex.
func faceNormals(positions [][3]float32, faces [][]uint32) [][3]float32 {
	normals := make([][3]float32, len(positions))
	for _, f := range faces {
		if len(f) < 3 || !inRange(f, len(positions)) {
			continue
		}
		a, b, c := positions[f[0]], positions[f[1]], positions[f[2]]
		n := cross(sub(b, a), sub(c, a))
		for _, idx := range f {
			normals[idx][0] += n[0]
			normals[idx][1] += n[1]
			normals[idx][2] += n[2]
		}
	}
	for i := range normals {
		normals[i] = normalize(normals[i])
	}
	return normals
}

// SmoothNormals averages normals of vertices sharing a position, so seams
// split for UVs do not show as creases.
func SmoothNormals(positions, normals [][3]float32) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i, p := range positions {
		key := [3]int32{
			int32(p[0] / epsilon),
			int32(p[1] / epsilon),
			int32(p[2] / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		if len(idxs) < 2 {
			continue
		}
		var sum [3]float32
		for _, idx := range idxs {
			sum[0] += normals[idx][0]
			sum[1] += normals[idx][1]
			sum[2] += normals[idx][2]
		}
		avg := normalize(sum)
		for _, idx := range idxs {
			normals[idx] = avg
		}
	}
}

func validate(s *Scene) error {
	for i, m := range s.Meshes {
		n := uint32(len(m.Positions))
		if n == 0 {
			return fmt.Errorf("%w: mesh %d (%s) has no vertices", ErrMalformed, i, m.Name)
		}
		if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
			return fmt.Errorf("%w: mesh %d (%s) has %d normals for %d vertices", ErrMalformed, i, m.Name, len(m.Normals), n)
		}
		if len(m.TexCoords) != 0 && len(m.TexCoords) != len(m.Positions) {
			return fmt.Errorf("%w: mesh %d (%s) has %d uvs for %d vertices", ErrMalformed, i, m.Name, len(m.TexCoords), n)
		}
		for _, f := range m.Faces {
			for _, idx := range f {
				if idx >= n {
					return fmt.Errorf("%w: mesh %d (%s) index %d out of range", ErrMalformed, i, m.Name, idx)
				}
			}
		}
		if m.MaterialIndex >= len(s.Materials) {
			return fmt.Errorf("%w: mesh %d (%s) material %d out of range", ErrMalformed, i, m.Name, m.MaterialIndex)
		}
	}

	var err error
	s.Root.Walk(func(node *Node) {
		for _, mi := range node.Meshes {
			if err == nil && (mi < 0 || mi >= len(s.Meshes)) {
				err = fmt.Errorf("%w: node %q references mesh %d of %d", ErrMalformed, node.Name, mi, len(s.Meshes))
			}
		}
	})
	return err
}

func inRange(face []uint32, n int) bool {
	for _, idx := range face {
		if int(idx) >= n {
			return false
		}
	}
	return true
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// normalize returns a unit vector, or +Y for degenerate input.
func normalize(v [3]float32) [3]float32 {
	length := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if length < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / length, v[1] / length, v[2] / length}
}
