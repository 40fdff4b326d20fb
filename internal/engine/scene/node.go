package scene

import (
	"fmt"

	"github.com/Faultbox/scenery/internal/engine/shader"
	"github.com/Faultbox/scenery/pkg/math"
)

// Drawable is geometry a node renders with its model matrix bound.
// *mesh.Mesh implements it.
type Drawable interface {
	Render(u shader.Uniforms)
	Destroy()
}

// DefaultMaterial is ambient, diffuse, specular and shininess.
var DefaultMaterial = math.Vec4{0.1, 1.0, 0.3, 4}

// Node is a transform in the scene graph. It exclusively owns its meshes
// and children; destroying a node destroys its whole subtree.
type Node struct {
	Name string

	position    math.Vec3
	orientation math.Vec3
	scale       math.Vec3
	center      math.Vec3
	material    math.Vec4
	base        math.Mat4

	meshes   []Drawable
	children []*Node
}

// NewNode creates a node with an identity base transform. meshes may be
// empty for a grouping node.
func NewNode(meshes []Drawable) *Node {
	return NewNodeWithBase(meshes, math.Identity())
}

// NewNodeWithBase creates a node whose local transform is post-multiplied
// by base. The base transform is fixed for the node's lifetime.
func NewNodeWithBase(meshes []Drawable, base math.Mat4) *Node {
	for i, m := range meshes {
		if m == nil {
			panic(fmt.Sprintf("scene: nil mesh at %d", i))
		}
	}
	return &Node{
		scale:    math.One,
		material: DefaultMaterial,
		base:     base,
		meshes:   meshes,
	}
}

func (n *Node) Position() math.Vec3    { return n.position }
func (n *Node) Orientation() math.Vec3 { return n.orientation }
func (n *Node) Scale() math.Vec3       { return n.scale }
func (n *Node) Center() math.Vec3      { return n.center }
func (n *Node) Material() math.Vec4    { return n.material }
func (n *Node) Base() math.Mat4        { return n.base }

func (n *Node) SetPosition(p math.Vec3)    { n.position = p }
func (n *Node) SetOrientation(o math.Vec3) { n.orientation = o }
func (n *Node) SetScale(s math.Vec3)       { n.scale = s }
func (n *Node) SetCenter(c math.Vec3)      { n.center = c }
func (n *Node) SetMaterial(m math.Vec4)    { n.material = m }

// Move offsets the position by delta.
func (n *Node) Move(delta math.Vec3) {
	n.position = n.position.Add(delta)
}

// Rotate adds delta radians to the orientation.
func (n *Node) Rotate(delta math.Vec3) {
	n.orientation = n.orientation.Add(delta)
}

// Grow multiplies the scale component-wise by factor.
func (n *Node) Grow(factor math.Vec3) {
	n.scale = n.scale.Mul(factor)
}

// Meshes returns the node's own geometry.
func (n *Node) Meshes() []Drawable {
	return n.meshes
}

// AddMesh appends geometry rendered with this node's transform.
func (n *Node) AddMesh(m Drawable) {
	if m == nil {
		panic("scene: nil mesh")
	}
	n.meshes = append(n.meshes, m)
}

// AddChild transfers ownership of child to n.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("scene: nil child")
	}
	if child == n {
		panic("scene: node cannot be its own child")
	}
	n.children = append(n.children, child)
}

// Child returns the i-th child. An out of range index panics.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		panic(fmt.Sprintf("scene: child index %d out of range [0,%d)", i, len(n.children)))
	}
	return n.children[i]
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// LocalTransform is the node's transform relative to its parent. Rotation
// and scale pivot around the rotation centre; the base transform applies
// first.
func (n *Node) LocalTransform() math.Mat4 {
	pivot := n.center.Mul(n.scale)
	return math.TranslateV(n.position).
		Mul(math.TranslateV(pivot)).
		Mul(math.RotateZ(n.orientation.Z)).
		Mul(math.RotateX(n.orientation.X)).
		Mul(math.RotateY(n.orientation.Y)).
		Mul(math.ScaleV(n.scale)).
		Mul(math.TranslateV(n.center.Neg())).
		Mul(n.base)
}

// WorldTransform composes parent with the node's local transform.
func (n *Node) WorldTransform(parent math.Mat4) math.Mat4 {
	return parent.Mul(n.LocalTransform())
}

// Render draws the subtree rooted at n as a root.
func (n *Node) Render(u shader.Uniforms) {
	n.RenderWithParent(u, math.Identity())
}

// RenderWithParent draws n under the given parent transform, then each child
// under n's world transform.
func (n *Node) RenderWithParent(u shader.Uniforms, parent math.Mat4) {
	world := n.WorldTransform(parent)
	u.SetMat4("model", world)
	u.SetVec4("material", n.material)
	for _, m := range n.meshes {
		m.Render(u)
	}
	for _, c := range n.children {
		c.RenderWithParent(u, world)
	}
}

// Walk visits the subtree depth-first, parents before children, siblings
// in insertion order. Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		c.walk(fn, depth+1)
	}
}

// Find returns the first node in the subtree with the given name, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.Name == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// Destroy frees the node's meshes and, recursively, its children.
func (n *Node) Destroy() {
	for _, c := range n.children {
		c.Destroy()
	}
	for _, m := range n.meshes {
		m.Destroy()
	}
	n.children = nil
	n.meshes = nil
}
