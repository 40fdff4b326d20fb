package mesh

import "github.com/Faultbox/scenery/internal/engine/texture"

// SquareVertices and SquareFaces describe a unit quad centred on the origin
// in the XY plane, facing +Z, wound counter-clockwise.
var (
	SquareVertices = []Vertex{
		{Position: [3]float32{0.5, 0.5, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{0.5, -0.5, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{-0.5, -0.5, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{-0.5, 0.5, 0}, Normal: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 0}},
	}
	SquareFaces = []uint32{
		2, 1, 3,
		3, 1, 0,
	}
)

// Square builds a textured unit quad.
func Square(textures ...*texture.Texture) *Mesh {
	return New(SquareVertices, SquareFaces, textures...)
}
