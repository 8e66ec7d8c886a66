package geometry

import (
	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

// Triangle represents a single triangle defined by three vertices.
// All surfaces are perfect electric conductors, so no per-triangle
// material state is needed.
type Triangle struct {
	V0, V1, V2 core.Vec3 // The three vertices
	normal     core.Vec3 // Cached geometric normal
	bbox       AABB      // Cached bounding box
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2}

	// Precompute normal and bounding box for efficiency
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)
	t.normal = edge1.Cross(edge2).Normalize()
	t.bbox = NewAABBFromPoints(v0, v1, v2)

	return t
}

// Hit tests if a ray intersects the triangle using the Möller-Trumbore
// algorithm. The hit normal faces the incoming ray.
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64, hit *core.Hit) bool {
	const epsilon = 1e-9

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	// Determinant near zero means the ray lies in the triangle plane
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return false
	}

	tParam := f * edge2.Dot(q)
	if tParam < tMin || tParam > tMax {
		return false
	}

	hit.T = tParam
	hit.Point = ray.At(tParam)
	hit.Normal = faceForward(t.normal, ray.Direction)

	return true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() AABB {
	return t.bbox
}

// Normal returns the triangle's geometric normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// faceForward flips a normal so it opposes the incoming direction
func faceForward(n, incoming core.Vec3) core.Vec3 {
	if n.Dot(incoming) > 0 {
		return n.Negate()
	}
	return n
}
