package sampler

import "github.com/df07/go-fmcw-raytracer/pkg/core"

// primes are the radical-inverse bases, one per sample dimension.
// Dimensions beyond the table fall back to the scrambled counter.
var primes = []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53}

// Halton produces low-discrepancy samples keyed by a global sample
// index. Every call to Get1D consumes the next dimension, so one path
// sees mutually stratified values while successive indices fill the
// domain evenly.
type Halton struct {
	index     uint64
	dimension int
}

// NewHalton creates a sampler positioned at a sample index
func NewHalton(index uint64) *Halton {
	return &Halton{index: index}
}

// Seed repositions the sampler at a sample index and resets the dimension
func (h *Halton) Seed(index uint64) {
	h.index = index
	h.dimension = 0
}

// Get1D returns the next dimension's radical inverse in [0, 1)
func (h *Halton) Get1D() float64 {
	var u float64
	if h.dimension < len(primes) {
		u = radicalInverse(primes[h.dimension], h.index)
	} else {
		u = hashToUnit(h.index, uint64(h.dimension))
	}
	h.dimension++
	return u
}

// Get2D returns the next two dimensions
func (h *Halton) Get2D() core.Vec2 {
	return core.NewVec2(h.Get1D(), h.Get1D())
}

// radicalInverse mirrors the digits of i in the given base about the
// radix point
func radicalInverse(base, i uint64) float64 {
	invBase := 1.0 / float64(base)
	var reversed uint64
	invBaseN := 1.0
	for i > 0 {
		next := i / base
		digit := i - next*base
		reversed = reversed*base + digit
		invBaseN *= invBase
		i = next
	}
	u := float64(reversed) * invBaseN
	if u >= 1 {
		u = oneMinusEpsilon
	}
	return u
}

const oneMinusEpsilon = 1 - 1e-16

// hashToUnit decorrelates overflow dimensions with the block cipher hash
func hashToUnit(index, dimension uint64) float64 {
	v0, _ := teaEncrypt(uint32(index), uint32(dimension)^uint32(index>>32), 8)
	return float64(v0) * (1.0 / 4294967296.0)
}
