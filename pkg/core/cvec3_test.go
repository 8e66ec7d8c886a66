package core

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestCVec3_CrossMatchesRealCross(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(-4, 5, 0.5)
	cc := a.Complex().Cross(b.Complex())
	rc := a.Cross(b)

	const tolerance = 1e-12
	if cmplx.Abs(cc.X-complex(rc.X, 0)) > tolerance ||
		cmplx.Abs(cc.Y-complex(rc.Y, 0)) > tolerance ||
		cmplx.Abs(cc.Z-complex(rc.Z, 0)) > tolerance {
		t.Errorf("Complex cross %v does not match real cross %v", cc, rc)
	}
}

func TestCVec3_LengthSquared(t *testing.T) {
	v := NewCVec3(complex(3, 4), 0, 0)
	if math.Abs(v.LengthSquared()-25) > 1e-12 {
		t.Errorf("Expected 25, got %v", v.LengthSquared())
	}
	if math.Abs(v.Length()-5) > 1e-12 {
		t.Errorf("Expected 5, got %v", v.Length())
	}
}

func TestCVec3_ScalePhase(t *testing.T) {
	v := NewCVec3(1, 0, 0)
	rotated := v.Scale(cmplx.Exp(complex(0, math.Pi/2)))
	if cmplx.Abs(rotated.X-complex(0, 1)) > 1e-12 {
		t.Errorf("Expected i, got %v", rotated.X)
	}
	if v.IsZero() {
		t.Error("Unit vector reported as zero")
	}
	if !(CVec3{}).IsZero() {
		t.Error("Zero vector not reported as zero")
	}
}

func TestMatrix3_RotationRoundTrip(t *testing.T) {
	m := RotationY(math.Pi / 3)
	if !m.IsOrthonormal(1e-12) {
		t.Fatal("Rotation matrix not orthonormal")
	}
	v := NewVec3(0.3, -1.2, 2.5)
	back := m.Transpose().MulVec(m.MulVec(v))
	if back.Subtract(v).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", v, back)
	}
}

func TestMatrix3_MulCVec(t *testing.T) {
	m := RotationY(math.Pi / 2)
	v := NewCVec3(complex(1, 1), 0, 0)
	result := m.MulCVec(v)
	// (1+i, 0, 0) rotated 90° around y lands on -z
	if cmplx.Abs(result.Z-complex(-1, -1)) > 1e-12 || cmplx.Abs(result.X) > 1e-12 {
		t.Errorf("Unexpected rotated vector %v", result)
	}
}
