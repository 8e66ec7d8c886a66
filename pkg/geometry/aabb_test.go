package geometry

import (
	"testing"

	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

func TestAABBHit(t *testing.T) {
	box := NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))

	tests := []struct {
		name   string
		origin core.Vec3
		dir    core.Vec3
		want   bool
	}{
		{"straight through", core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1), true},
		{"pointing away", core.NewVec3(0, 0, -5), core.NewVec3(0, 0, -1), false},
		{"off to the side", core.NewVec3(3, 0, -5), core.NewVec3(0, 0, 1), false},
		{"diagonal through", core.NewVec3(-3, -3, -3), core.NewVec3(1, 1, 1), true},
		{"origin inside", core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), true},
		{"parallel outside slab", core.NewVec3(0, 2, -5), core.NewVec3(0, 0, 1), false},
		{"parallel inside slab", core.NewVec3(0, 0.5, -5), core.NewVec3(0, 0, 1), true},
		{"grazing corner", core.NewVec3(-5, 1, 1), core.NewVec3(1, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.origin, tt.dir.Normalize())
			if got := box.Hit(ray, 0.001, 1000); got != tt.want {
				t.Errorf("Hit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABBUnion(t *testing.T) {
	a := NewAABB(core.NewVec3(-1, 0, 0), core.NewVec3(1, 1, 1))
	b := NewAABB(core.NewVec3(0, -2, 0), core.NewVec3(3, 0.5, 2))

	u := a.Union(b)
	wantMin := core.NewVec3(-1, -2, 0)
	wantMax := core.NewVec3(3, 1, 2)
	if u.Min != wantMin || u.Max != wantMax {
		t.Errorf("Union = [%v, %v], want [%v, %v]", u.Min, u.Max, wantMin, wantMax)
	}
}

func TestAABBFromPoints(t *testing.T) {
	box := NewAABBFromPoints(
		core.NewVec3(1, 5, -2),
		core.NewVec3(-3, 0, 4),
		core.NewVec3(2, -1, 1),
	)
	wantMin := core.NewVec3(-3, -1, -2)
	wantMax := core.NewVec3(2, 5, 4)
	if box.Min != wantMin || box.Max != wantMax {
		t.Errorf("bounds = [%v, %v], want [%v, %v]", box.Min, box.Max, wantMin, wantMax)
	}
}

func TestAABBLongestAxis(t *testing.T) {
	tests := []struct {
		name string
		max  core.Vec3
		want int
	}{
		{"x longest", core.NewVec3(10, 1, 1), 0},
		{"y longest", core.NewVec3(1, 10, 1), 1},
		{"z longest", core.NewVec3(1, 1, 10), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := NewAABB(core.NewVec3(0, 0, 0), tt.max)
			if got := box.LongestAxis(); got != tt.want {
				t.Errorf("LongestAxis() = %d, want %d", got, tt.want)
			}
		})
	}
}
