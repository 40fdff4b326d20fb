// Package shader provides OpenGL shader compilation and uniform upload.
package shader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/scenery/internal/logger"
	"github.com/Faultbox/scenery/pkg/math"
)

// ErrShader reports a missing shader source or a compile/link failure.
var ErrShader = errors.New("shader error")

// Uniforms is the subset of a shader program that scene objects write to.
type Uniforms interface {
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec3(name string, v math.Vec3)
	SetVec4(name string, v math.Vec4)
	SetMat4(name string, m math.Mat4)
}

// Program is a linked GL program with a uniform location cache.
type Program struct {
	id        uint32
	locations map[string]int32
}

var _ Uniforms = (*Program)(nil)

// Load reads and compiles a vertex/fragment shader pair from disk.
func Load(vertexPath, fragmentPath string) (*Program, error) {
	vertexSrc, err := os.ReadFile(vertexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShader, err)
	}
	fragmentSrc, err := os.ReadFile(fragmentPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShader, err)
	}
	p, err := New(string(vertexSrc), string(fragmentSrc))
	if err != nil {
		return nil, fmt.Errorf("%s, %s: %w", vertexPath, fragmentPath, err)
	}
	return p, nil
}

// New compiles and links a program from in-memory sources.
func New(vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShader, err)
	}
	logger.Debug("shader program linked", zap.Uint32("program", id))
	return &Program{id: id, locations: make(map[string]int32)}, nil
}

// Activate makes this the current program.
func (p *Program) Activate() {
	gl.UseProgram(p.id)
}

// Destroy deletes the GL program.
func (p *Program) Destroy() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

// location looks up and caches a uniform location. Inactive uniforms
// resolve to -1, which GL ignores on upload.
func (p *Program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := GetUniform(p.id, name)
	if loc < 0 {
		logger.Debug("uniform not active", zap.String("name", name), zap.Uint32("program", p.id))
	}
	p.locations[name] = loc
	return loc
}

// SetInt uploads an int (or sampler unit) uniform.
func (p *Program) SetInt(name string, v int32) {
	gl.Uniform1i(p.location(name), v)
}

// SetFloat uploads a float uniform.
func (p *Program) SetFloat(name string, v float32) {
	gl.Uniform1f(p.location(name), v)
}

// SetVec3 uploads a vec3 uniform.
func (p *Program) SetVec3(name string, v math.Vec3) {
	gl.Uniform3f(p.location(name), v.X, v.Y, v.Z)
}

// SetVec4 uploads a vec4 uniform.
func (p *Program) SetVec4(name string, v math.Vec4) {
	gl.Uniform4f(p.location(name), v[0], v[1], v[2], v[3])
}

// SetMat4 uploads a column-major mat4 uniform.
func (p *Program) SetMat4(name string, m math.Mat4) {
	gl.UniformMatrix4fv(p.location(name), 1, false, m.Ptr())
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(string(log), "\x00\n"))
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, strings.TrimRight(string(log), "\x00\n"))
	}

	return shader, nil
}

// GetUniform returns the uniform location for the given name, or -1 if the
// uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
