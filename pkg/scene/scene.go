package scene

import (
	"github.com/df07/go-fmcw-raytracer/pkg/antenna"
	"github.com/df07/go-fmcw-raytracer/pkg/core"
	"github.com/df07/go-fmcw-raytracer/pkg/geometry"
	"github.com/df07/go-fmcw-raytracer/pkg/radar"
)

// Scene bundles the radar configuration with the transmit and receive
// antennas. Geometry is carried separately as a Raycaster so the same
// scene description can be swept across antenna placements without
// rebuilding acceleration structures.
type Scene struct {
	RF radar.RFConfig
	TX antenna.Emitter
	RX *antenna.NearField
}

// Facing returns the local frame of a sensor module mounted looking
// down the -x axis with its board flipped
func Facing() core.Matrix3 {
	return core.NewMatrix3(
		core.NewVec3(0, 0, -1),
		core.NewVec3(0, -1, 0),
		core.NewVec3(-1, 0, 0),
	)
}

// Dihedral builds a corner reflector from two plates of the given edge
// length meeting at the origin, one spanning +y/+z and one spanning
// +x/+y. Plates are 2 mm thick boxes.
func Dihedral(size float64) *geometry.Mesh {
	const thickness = 2 * radar.Millimeter
	mesh := geometry.NewMesh()
	mesh.AddBox(
		core.NewVec3(-thickness, 0, 0),
		core.NewVec3(0, size, size),
	)
	mesh.AddBox(
		core.NewVec3(0, 0, -thickness),
		core.NewVec3(size, size, 0),
	)
	return mesh
}

// SimpleBox builds a single axis-aligned cuboid centered at the origin
// with the given half extents
func SimpleBox(halfExtent core.Vec3) *geometry.Mesh {
	mesh := geometry.NewMesh()
	mesh.AddBox(halfExtent.Negate(), halfExtent)
	return mesh
}

// Empty returns a mesh with no geometry
func Empty() *geometry.Mesh {
	return geometry.NewMesh()
}
