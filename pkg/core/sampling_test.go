package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestSampleOnUnitSphere(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(42)))

	var mean Vec3
	const n = 10000
	for i := 0; i < n; i++ {
		dir := SampleOnUnitSphere(sampler.Get2D())
		if math.Abs(dir.Length()-1.0) > 1e-9 {
			t.Fatalf("Direction not unit length: %v", dir)
		}
		mean = mean.Add(dir)
	}

	// Uniform directions average out near the origin
	mean = mean.Multiply(1.0 / n)
	if mean.Length() > 0.05 {
		t.Errorf("Mean direction too far from origin: %v", mean)
	}
}

func TestRandomSampler_Range(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(7)))
	for i := 0; i < 1000; i++ {
		u := sampler.Get1D()
		if u < 0 || u >= 1 {
			t.Fatalf("Sample out of range: %v", u)
		}
		uv := sampler.Get2D()
		if uv.X < 0 || uv.X >= 1 || uv.Y < 0 || uv.Y >= 1 {
			t.Fatalf("Sample out of range: %v", uv)
		}
	}
}
