package geometry

import (
	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

// Mesh is a triangle soup with builder helpers for the primitive
// shapes radar test scenes are made of
type Mesh struct {
	Triangles []*Triangle
}

// NewMesh creates an empty mesh
func NewMesh() *Mesh {
	return &Mesh{}
}

// AddTriangle appends a single triangle
func (m *Mesh) AddTriangle(v0, v1, v2 core.Vec3) {
	m.Triangles = append(m.Triangles, NewTriangle(v0, v1, v2))
}

// AddQuad appends a planar quad split into two triangles. Vertices are
// given in winding order.
func (m *Mesh) AddQuad(v0, v1, v2, v3 core.Vec3) {
	m.AddTriangle(v0, v1, v2)
	m.AddTriangle(v0, v2, v3)
}

// AddBox appends the six faces of an axis-aligned cuboid spanning
// [min, max]
func (m *Mesh) AddBox(min, max core.Vec3) {
	v000 := core.NewVec3(min.X, min.Y, min.Z)
	v100 := core.NewVec3(max.X, min.Y, min.Z)
	v010 := core.NewVec3(min.X, max.Y, min.Z)
	v110 := core.NewVec3(max.X, max.Y, min.Z)
	v001 := core.NewVec3(min.X, min.Y, max.Z)
	v101 := core.NewVec3(max.X, min.Y, max.Z)
	v011 := core.NewVec3(min.X, max.Y, max.Z)
	v111 := core.NewVec3(max.X, max.Y, max.Z)

	m.AddQuad(v000, v010, v110, v100) // -z
	m.AddQuad(v001, v101, v111, v011) // +z
	m.AddQuad(v000, v001, v011, v010) // -x
	m.AddQuad(v100, v110, v111, v101) // +x
	m.AddQuad(v000, v100, v101, v001) // -y
	m.AddQuad(v010, v011, v111, v110) // +y
}

// Build constructs the acceleration structure over the current triangles
func (m *Mesh) Build() *BVH {
	return NewBVH(m.Triangles)
}
