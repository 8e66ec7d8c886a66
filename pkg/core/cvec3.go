package core

import (
	"math"
	"math/cmplx"
)

// CVec3 represents a 3D vector with complex components, used for
// phasor-valued electromagnetic fields
type CVec3 struct {
	X, Y, Z complex128
}

// NewCVec3 creates a new CVec3
func NewCVec3(x, y, z complex128) CVec3 {
	return CVec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two complex vectors
func (v CVec3) Add(other CVec3) CVec3 {
	return CVec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two complex vectors
func (v CVec3) Subtract(other CVec3) CVec3 {
	return CVec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns the vector scaled by a complex scalar
func (v CVec3) Scale(s complex128) CVec3 {
	return CVec3{v.X * s, v.Y * s, v.Z * s}
}

// ScaleReal returns the vector scaled by a real scalar
func (v CVec3) ScaleReal(s float64) CVec3 {
	c := complex(s, 0)
	return CVec3{v.X * c, v.Y * c, v.Z * c}
}

// Dot returns the unconjugated dot product of two complex vectors
func (v CVec3) Dot(other CVec3) complex128 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// DotVec returns the dot product with a real vector
func (v CVec3) DotVec(other Vec3) complex128 {
	return v.X*complex(other.X, 0) + v.Y*complex(other.Y, 0) + v.Z*complex(other.Z, 0)
}

// Cross returns the cross product of two complex vectors
func (v CVec3) Cross(other CVec3) CVec3 {
	return CVec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the Euclidean magnitude sqrt(|x|^2 + |y|^2 + |z|^2)
func (v CVec3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// LengthSquared returns |x|^2 + |y|^2 + |z|^2
func (v CVec3) LengthSquared() float64 {
	ax, ay, az := cmplx.Abs(v.X), cmplx.Abs(v.Y), cmplx.Abs(v.Z)
	return ax*ax + ay*ay + az*az
}

// IsZero reports whether the vector magnitude is negligible
func (v CVec3) IsZero() bool {
	return v.LengthSquared() < 1e-30
}

// CrossRealComplex returns the cross product of a real vector with a complex vector
func CrossRealComplex(a Vec3, b CVec3) CVec3 {
	ac := a.Complex()
	return ac.Cross(b)
}
