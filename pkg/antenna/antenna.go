package antenna

import (
	"math"

	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

// Emitter is a transmit antenna model
type Emitter interface {
	// Sample draws a ray from the antenna. The ray's H field is
	// already divided by the sampling density.
	Sample(u core.Vec2) core.Ray
	// Evaluate sets the H field the antenna radiates along a world direction
	Evaluate(dir core.Vec3) core.CVec3
}

// NearField is a point antenna with an orthonormal local frame and a
// closed-form angular gain pattern
type NearField struct {
	Pos      core.Vec3
	Rotation core.Matrix3 // world-from-local, rows are the local axes
}

// NewNearField creates a point antenna at a position with an orientation
func NewNearField(pos core.Vec3, rotation core.Matrix3) *NearField {
	return &NearField{Pos: pos, Rotation: rotation}
}

// Position returns the antenna location
func (a *NearField) Position() core.Vec3 { return a.Pos }

// pattern evaluates the angular gain in the antenna's local frame.
// The lobe narrows in both the H-plane and the E-plane.
func pattern(d core.Vec3) core.Vec3 {
	h0 := core.NewVec3(0, 1, 0).Cross(d)
	cosH := math.Sqrt(math.Max(0, 1-d.X*d.X))
	cosE := math.Sqrt(math.Max(0, 1-d.Y*d.Y))
	gh := 2.622 / math.Pow(cosH-1.8, 6)
	ge := 0.625 / math.Pow(cosE-1.5, 4)
	return h0.Multiply(gh * ge)
}

// Sample draws a uniform sphere direction and weights the emitted H
// field by the inverse density 4π
func (a *NearField) Sample(u core.Vec2) core.Ray {
	local := core.SampleOnUnitSphere(u)
	dir := a.Rotation.MulVec(local)
	h := a.Rotation.MulVec(pattern(local)).Multiply(1 / core.UniformSpherePDF)
	ray := core.NewRay(a.Pos, dir)
	ray.H = h.Complex()
	return ray
}

// Evaluate returns the H field radiated along a world direction
func (a *NearField) Evaluate(dir core.Vec3) core.CVec3 {
	local := a.Rotation.Transpose().MulVec(dir)
	return a.Rotation.MulVec(pattern(local)).Complex()
}

// ConnectNEE builds the deterministic connection from a scene point back
// to this antenna: the unit direction toward the antenna, the distance,
// and the antenna's receive sensitivity along that direction. The caller
// applies the spherical-wave kernel 1/(4πr) along the connection.
func (a *NearField) ConnectNEE(from core.Vec3) (dir core.Vec3, dist float64, h core.CVec3) {
	delta := a.Pos.Subtract(from)
	dist = delta.Length()
	dir = delta.Multiply(1 / dist)
	h = a.Evaluate(dir.Negate())
	return
}

// FarField models an incoming plane wave over a circular aperture. Used
// as a transmit stand-in when the source is effectively at infinity.
type FarField struct {
	Dir    core.Vec3 // propagation direction, unit
	H      core.CVec3
	Center core.Vec3
	Radius float64
}

// NewFarField creates a plane-wave emitter covering a disc of the given
// radius around center
func NewFarField(dir core.Vec3, h core.CVec3, center core.Vec3, radius float64) *FarField {
	return &FarField{Dir: dir.Normalize(), H: h, Center: center, Radius: radius}
}

// Sample draws a ray on the aperture disc, offset back along the
// propagation direction so the wavefront sweeps the whole scene
func (a *FarField) Sample(u core.Vec2) core.Ray {
	// Concentric square-to-disc mapping
	ox, oy := 2*u.X-1, 2*u.Y-1
	var r, theta float64
	if ox != 0 || oy != 0 {
		if math.Abs(ox) > math.Abs(oy) {
			r = ox
			theta = math.Pi / 4 * (oy / ox)
		} else {
			r = oy
			theta = math.Pi/2 - math.Pi/4*(ox/oy)
		}
	}
	px, py := r*math.Cos(theta), r*math.Sin(theta)

	// Orthonormal basis around the propagation direction
	var up core.Vec3
	if math.Abs(a.Dir.X) > 0.1 {
		up = core.NewVec3(0, 1, 0)
	} else {
		up = core.NewVec3(1, 0, 0)
	}
	t := up.Cross(a.Dir).Normalize()
	b := a.Dir.Cross(t)

	offset := t.Multiply(px * a.Radius).Add(b.Multiply(py * a.Radius))
	origin := a.Center.Add(offset).Subtract(a.Dir.Multiply(a.Radius))

	ray := core.NewRay(origin, a.Dir)
	// Area-uniform density over the disc
	ray.H = a.H.ScaleReal(math.Pi * a.Radius * a.Radius)
	return ray
}

// Evaluate returns the plane-wave field for directions aligned with the
// wavefront and zero otherwise
func (a *FarField) Evaluate(dir core.Vec3) core.CVec3 {
	if dir.Dot(a.Dir) < 1-1e-6 {
		return core.CVec3{}
	}
	return a.H
}
