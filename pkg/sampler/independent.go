package sampler

import "github.com/df07/go-fmcw-raytracer/pkg/core"

// teaEncrypt runs the TEA block cipher over a pair of words. Used as a
// stateless hash so every (seed, index) pair yields an independent
// stream.
func teaEncrypt(v0, v1 uint32, rounds int) (uint32, uint32) {
	const delta = 0x9e3779b9
	var sum uint32
	for i := 0; i < rounds; i++ {
		sum += delta
		v0 += ((v1 << 4) + 0xa341316c) ^ (v1 + sum) ^ ((v1 >> 5) + 0xc8013ea4)
		v1 += ((v0 << 4) + 0xad90777d) ^ (v0 + sum) ^ ((v0 >> 5) + 0x7e95761e)
	}
	return v0, v1
}

// Independent is a pseudo-random sampler whose stream is determined
// entirely by (seed, sample index), so results do not depend on which
// worker consumes which index
type Independent struct {
	seed   uint32
	v0, v1 uint32
}

// NewIndependent creates a sampler with a fixed stream seed
func NewIndependent(seed uint32) *Independent {
	s := &Independent{seed: seed}
	s.Seed(0)
	return s
}

// Seed repositions the sampler at a sample index
func (s *Independent) Seed(index uint64) {
	s.v0, s.v1 = teaEncrypt(s.seed, uint32(index)^uint32(index>>32), 16)
}

// Get1D returns the next value in [0, 1)
func (s *Independent) Get1D() float64 {
	s.v0, s.v1 = teaEncrypt(s.v0, s.v1, 4)
	return float64(s.v0) * (1.0 / 4294967296.0)
}

// Get2D returns the next two values
func (s *Independent) Get2D() core.Vec2 {
	return core.NewVec2(s.Get1D(), s.Get1D())
}
