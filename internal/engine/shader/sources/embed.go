// Package sources provides the embedded GLSL programs used by the built-in scenes.
package sources

import _ "embed"

// TexturingVertexShader transforms vertices by projection * view * model.
//
//go:embed texturing.vert
var TexturingVertexShader string

// TexturingFragmentShader samples baseTexture without lighting.
//
//go:embed texturing.frag
var TexturingFragmentShader string

// LightingVertexShader additionally forwards world-space position and normal.
//
//go:embed lighting.vert
var LightingVertexShader string

// LightingFragmentShader applies Phong reflection using the object's material.
//
//go:embed lighting.frag
var LightingFragmentShader string
