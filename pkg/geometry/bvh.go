package geometry

import (
	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Triangles   []*Triangle // Leaf payload (nil for internal nodes)
}

// BVH is a Bounding Volume Hierarchy over a triangle soup. It is
// immutable after construction and borrowed read-only by all workers.
type BVH struct {
	Root *BVHNode
}

// Leaf threshold: if we have this many or fewer triangles, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of triangles
func NewBVH(triangles []*Triangle) *BVH {
	if len(triangles) == 0 {
		return &BVH{}
	}

	// Copy so concurrent builders never mutate the caller's slice
	soup := make([]*Triangle, len(triangles))
	copy(soup, triangles)

	return &BVH{Root: buildBVH(soup)}
}

// buildBVH recursively builds the BVH by splitting at the midpoint of
// the bounding box along its longest axis. Avoids the sorting
// bottleneck of classic builders while keeping traversal fast for the
// mesh sizes radar scenes use.
func buildBVH(triangles []*Triangle) *BVHNode {
	boundingBox := triangles[0].BoundingBox()
	for _, t := range triangles[1:] {
		boundingBox = boundingBox.Union(t.BoundingBox())
	}

	if len(triangles) <= leafThreshold {
		return &BVHNode{BoundingBox: boundingBox, Triangles: triangles}
	}

	axis := boundingBox.LongestAxis()
	splitPos := axisValue(boundingBox.Center(), axis)

	var left, right []*Triangle
	for _, t := range triangles {
		if axisValue(t.BoundingBox().Center(), axis) < splitPos {
			left = append(left, t)
		} else {
			right = append(right, t)
		}
	}

	// Degenerate split, keep everything in one leaf
	if len(left) == 0 || len(right) == 0 {
		return &BVHNode{BoundingBox: boundingBox, Triangles: triangles}
	}

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(left),
		Right:       buildBVH(right),
	}
}

func axisValue(v core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Intersect returns the nearest hit before tMax, starting just past the
// surface epsilon to avoid self-intersection
func (bvh *BVH) Intersect(ray core.Ray, tMax float64) (core.Hit, bool) {
	var hit core.Hit
	if bvh.Root == nil {
		return hit, false
	}
	ok := hitNode(bvh.Root, ray, core.Epsilon, tMax, &hit)
	return hit, ok
}

// Occluded reports whether any surface blocks the ray before tMax
func (bvh *BVH) Occluded(ray core.Ray, tMax float64) bool {
	if bvh.Root == nil {
		return false
	}
	var hit core.Hit
	return hitNode(bvh.Root, ray, core.Epsilon, tMax-core.Epsilon, &hit)
}

// hitNode recursively tests ray intersection with BVH nodes
func hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64, hit *core.Hit) bool {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return false
	}

	// Leaf: linear search over the triangles
	if node.Triangles != nil {
		hitAnything := false
		closestSoFar := tMax
		for _, t := range node.Triangles {
			if t.Hit(ray, tMin, closestSoFar, hit) {
				hitAnything = true
				closestSoFar = hit.T
			}
		}
		return hitAnything
	}

	hitAnything := false
	closestSoFar := tMax
	if node.Left != nil && hitNode(node.Left, ray, tMin, closestSoFar, hit) {
		hitAnything = true
		closestSoFar = hit.T
	}
	if node.Right != nil && hitNode(node.Right, ray, tMin, closestSoFar, hit) {
		hitAnything = true
	}
	return hitAnything
}
