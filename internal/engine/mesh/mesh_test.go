package mesh

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenery/pkg/math"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, 8*4, int(unsafe.Sizeof(Vertex{})))
	assert.Equal(t, uintptr(3*4), unsafe.Offsetof(Vertex{}.Normal))
	assert.Equal(t, uintptr(6*4), unsafe.Offsetof(Vertex{}.TexCoord))
}

func TestValidate(t *testing.T) {
	tri := []Vertex{{}, {}, {}}

	tests := []struct {
		name     string
		vertices []Vertex
		faces    []uint32
		wantErr  bool
	}{
		{"valid", tri, []uint32{0, 1, 2}, false},
		{"no vertices", nil, []uint32{0, 1, 2}, true},
		{"no faces", tri, nil, true},
		{"partial face", tri, []uint32{0, 1, 2, 0}, true},
		{"index out of range", tri, []uint32{0, 1, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.vertices, tt.faces)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPanicsOnInvalidGeometry(t *testing.T) {
	// Validation runs before any GL call.
	assert.Panics(t, func() { New(nil, nil) })
	assert.Panics(t, func() { New([]Vertex{{}}, []uint32{0, 0}) })
}

func TestSquareGeometry(t *testing.T) {
	require.NoError(t, Validate(SquareVertices, SquareFaces))
	require.Len(t, SquareVertices, 4)
	require.Len(t, SquareFaces, 6)

	for _, v := range SquareVertices {
		assert.Equal(t, float32(0), v.Position[2], "square lies in the XY plane")
		assert.Equal(t, [3]float32{0, 0, 1}, v.Normal)
	}

	// Every triangle winds counter-clockwise when seen from +Z.
	for i := 0; i < len(SquareFaces); i += 3 {
		a := math.V3(SquareVertices[SquareFaces[i]].Position)
		b := math.V3(SquareVertices[SquareFaces[i+1]].Position)
		c := math.V3(SquareVertices[SquareFaces[i+2]].Position)
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, n.Z, float32(0), "triangle %d", i/3)
	}
}
