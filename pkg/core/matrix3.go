package core

import "math"

// Matrix3 represents a 3x3 matrix stored as rows, used for antenna
// orientation. Rotation matrices are orthonormal with det = ±1.
type Matrix3 struct {
	R0, R1, R2 Vec3
}

// NewMatrix3 creates a matrix from three row vectors
func NewMatrix3(r0, r1, r2 Vec3) Matrix3 {
	return Matrix3{R0: r0, R1: r1, R2: r2}
}

// IdentityMatrix3 returns the identity matrix
func IdentityMatrix3() Matrix3 {
	return Matrix3{
		R0: Vec3{1, 0, 0},
		R1: Vec3{0, 1, 0},
		R2: Vec3{0, 0, 1},
	}
}

// RotationY returns the rotation matrix for an angle (radians) around the y axis
func RotationY(angle float64) Matrix3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix3{
		R0: Vec3{c, 0, s},
		R1: Vec3{0, 1, 0},
		R2: Vec3{-s, 0, c},
	}
}

// MulVec returns M·v
func (m Matrix3) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m.R0.Dot(v),
		Y: m.R1.Dot(v),
		Z: m.R2.Dot(v),
	}
}

// MulCVec returns M·v for a complex vector, applying the real matrix
// to real and imaginary parts independently
func (m Matrix3) MulCVec(v CVec3) CVec3 {
	re := m.MulVec(Vec3{real(v.X), real(v.Y), real(v.Z)})
	im := m.MulVec(Vec3{imag(v.X), imag(v.Y), imag(v.Z)})
	return CVec3{
		X: complex(re.X, im.X),
		Y: complex(re.Y, im.Y),
		Z: complex(re.Z, im.Z),
	}
}

// Transpose returns the transposed matrix. For orthonormal rotations
// this is the inverse.
func (m Matrix3) Transpose() Matrix3 {
	return Matrix3{
		R0: Vec3{m.R0.X, m.R1.X, m.R2.X},
		R1: Vec3{m.R0.Y, m.R1.Y, m.R2.Y},
		R2: Vec3{m.R0.Z, m.R1.Z, m.R2.Z},
	}
}

// Mul returns the matrix product M·other
func (m Matrix3) Mul(other Matrix3) Matrix3 {
	t := other.Transpose()
	return Matrix3{
		R0: Vec3{m.R0.Dot(t.R0), m.R0.Dot(t.R1), m.R0.Dot(t.R2)},
		R1: Vec3{m.R1.Dot(t.R0), m.R1.Dot(t.R1), m.R1.Dot(t.R2)},
		R2: Vec3{m.R2.Dot(t.R0), m.R2.Dot(t.R1), m.R2.Dot(t.R2)},
	}
}

// Det returns the determinant
func (m Matrix3) Det() float64 {
	return m.R0.Dot(m.R1.Cross(m.R2))
}

// IsOrthonormal reports whether the matrix is a rotation (|det| ≈ 1,
// rows mutually orthogonal unit vectors) within tolerance
func (m Matrix3) IsOrthonormal(tol float64) bool {
	if math.Abs(math.Abs(m.Det())-1) > tol {
		return false
	}
	rows := []Vec3{m.R0, m.R1, m.R2}
	for i, r := range rows {
		if math.Abs(r.Length()-1) > tol {
			return false
		}
		for j := i + 1; j < 3; j++ {
			if math.Abs(r.Dot(rows[j])) > tol {
				return false
			}
		}
	}
	return true
}
