// Package mesh holds GPU-resident geometry: one vertex buffer, one index
// buffer and the textures bound while drawing it.
package mesh

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/internal/engine/texture"
)

// Vertex is the interleaved attribute layout: position at location 0,
// normal at 1, texture coordinate at 2.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

const vertexSize = int(unsafe.Sizeof(Vertex{}))

// Mesh is an indexed triangle list uploaded once at construction.
type Mesh struct {
	vao, vbo, ebo uint32
	vertexCount   int32
	indexCount    int32
	textures      []*texture.Texture
}

// Validate checks the construction preconditions of New.
func Validate(vertices []Vertex, faces []uint32) error {
	if len(vertices) == 0 {
		return fmt.Errorf("mesh: empty vertex list")
	}
	if len(faces) == 0 {
		return fmt.Errorf("mesh: empty face list")
	}
	if len(faces)%3 != 0 {
		return fmt.Errorf("mesh: face index count %d is not a multiple of 3", len(faces))
	}
	for i, idx := range faces {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("mesh: face index %d at %d out of range (%d vertices)", idx, i, len(vertices))
		}
	}
	return nil
}

// New uploads vertices and faces to the GPU. Invalid geometry is a
// programming error and panics.
func New(vertices []Vertex, faces []uint32, textures ...*texture.Texture) *Mesh {
	if err := Validate(vertices, faces); err != nil {
		panic(err)
	}

	m := &Mesh{
		vertexCount: int32(len(vertices)),
		indexCount:  int32(len(faces)),
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*vertexSize, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)
	// TexCoord
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, int32(vertexSize), 6*4)
	gl.EnableVertexAttribArray(2)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(faces)*4, unsafe.Pointer(&faces[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	m.AddTextures(textures...)
	return m
}

// AddTexture appends a texture binding and takes a reference on it.
func (m *Mesh) AddTexture(t *texture.Texture) {
	if t == nil {
		panic("mesh: nil texture")
	}
	t.Retain()
	m.textures = append(m.textures, t)
}

// AddTextures appends several texture bindings in order.
func (m *Mesh) AddTextures(ts ...*texture.Texture) {
	for _, t := range ts {
		m.AddTexture(t)
	}
}

// Textures returns the bound textures in unit order.
func (m *Mesh) Textures() []*texture.Texture {
	return m.textures
}

// VertexCount returns the number of uploaded vertices.
func (m *Mesh) VertexCount() int { return int(m.vertexCount) }

// IndexCount returns the number of uploaded face indices.
func (m *Mesh) IndexCount() int { return int(m.indexCount) }

// Render draws the mesh with the active program. Texture i is bound to unit
// i and its sampler uniform set to i. VAO and texture bindings are reset
// before returning.
func (m *Mesh) Render(u shader.Uniforms) {
	gl.BindVertexArray(m.vao)
	for i, t := range m.textures {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, t.ID)
		u.SetInt(t.SamplerName, int32(i))
	}

	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)

	gl.BindVertexArray(0)
	for i := range m.textures {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

// Destroy frees the GPU buffers and releases every texture reference.
func (m *Mesh) Destroy() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
	for _, t := range m.textures {
		t.Release()
	}
	m.textures = nil
}
