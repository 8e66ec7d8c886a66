package radar

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

// Space tracks which domain the cube currently holds
type Space int

const (
	Spatial Space = iota
	Fourier
)

func (s Space) String() string {
	switch s {
	case Spatial:
		return "spatial"
	case Fourier:
		return "fourier"
	default:
		return "unknown"
	}
}

// Sentinel errors for frame misuse
var (
	ErrNotConfigured = errors.New("frame: not configured")
)

// deltaCutoff is the residual below which a splat or interpolation
// treats the fractional index as landing exactly on a bin
const deltaCutoff = 1e-4

// DefaultSplatWidth is the half-width of the leakage window in bins
const DefaultSplatWidth = 16

// PIndex is a fractional position in the radar cube
type PIndex struct {
	Chirp   float64
	Sample  float64
	Channel float64
}

// Frame is the radar cube: a dense complex tensor indexed by chirp,
// intra-chirp sample, and receive channel. Element buckets are stored
// as float64 bit patterns so workers can splat concurrently with
// compare-and-swap adds.
type Frame struct {
	rf    RFConfig
	cfg   FrameConfig
	space Space
	bits  []uint64 // interleaved real/imag bits, 2 per element

	fftChirp   *fourier.CmplxFFT
	fftSample  *fourier.CmplxFFT
	fftChannel *fourier.CmplxFFT
}

// NewFrame creates an unconfigured frame bound to an RF configuration
func NewFrame(rf RFConfig) *Frame {
	return &Frame{rf: rf}
}

// RF returns the RF configuration
func (f *Frame) RF() RFConfig { return f.rf }

// Config returns the frame dimensions
func (f *Frame) Config() FrameConfig { return f.cfg }

// Space returns the current domain of the cube contents
func (f *Frame) Space() Space { return f.space }

// Configure allocates cube storage. Previous contents are lost.
func (f *Frame) Configure(cfg FrameConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := f.rf.Validate(); err != nil {
		return err
	}
	f.cfg = cfg
	f.bits = make([]uint64, 2*cfg.Len())
	f.space = Spatial
	f.fftChirp = fourier.NewCmplxFFT(cfg.ChirpCount)
	f.fftSample = fourier.NewCmplxFFT(cfg.SamplesPerChirp)
	f.fftChannel = fourier.NewCmplxFFT(cfg.ChannelCount)
	return nil
}

// Configured reports whether storage has been allocated
func (f *Frame) Configured() bool { return f.bits != nil }

// Clear zeroes the cube in place
func (f *Frame) Clear() {
	for i := range f.bits {
		f.bits[i] = 0
	}
	f.space = Spatial
}

// LinearIndex maps (chirp, sample, channel) to the canonical row-major index
func (f *Frame) LinearIndex(chirp, sample, channel int) int {
	return (chirp*f.cfg.SamplesPerChirp+sample)*f.cfg.ChannelCount + channel
}

// IndexFromLinear inverts LinearIndex
func (f *Frame) IndexFromLinear(i int) (chirp, sample, channel int) {
	channel = i % f.cfg.ChannelCount
	i /= f.cfg.ChannelCount
	sample = i % f.cfg.SamplesPerChirp
	chirp = i / f.cfg.SamplesPerChirp
	return
}

// AtLinear returns the element at a linear index
func (f *Frame) AtLinear(i int) complex128 {
	return complex(core.LoadFloat64(&f.bits[2*i]), core.LoadFloat64(&f.bits[2*i+1]))
}

// At returns the element at integer cube coordinates
func (f *Frame) At(chirp, sample, channel int) complex128 {
	return f.AtLinear(f.LinearIndex(chirp, sample, channel))
}

// AddLinear atomically accumulates into the element at a linear index
func (f *Frame) AddLinear(i int, v complex128) {
	core.AddFloat64(&f.bits[2*i], real(v))
	core.AddFloat64(&f.bits[2*i+1], imag(v))
}

// Add accumulates another frame element-wise. Dimensions must match.
func (f *Frame) Add(other *Frame) error {
	if f.cfg != other.cfg {
		return fmt.Errorf("frame: dimension mismatch %v vs %v", f.cfg, other.cfg)
	}
	for i := 0; i < f.cfg.Len(); i++ {
		v := f.AtLinear(i) + other.AtLinear(i)
		core.StoreFloat64(&f.bits[2*i], real(v))
		core.StoreFloat64(&f.bits[2*i+1], imag(v))
	}
	return nil
}

// Scale multiplies every element by a real factor
func (f *Frame) Scale(s float64) {
	for i := 0; i < f.cfg.Len(); i++ {
		v := f.AtLinear(i) * complex(s, 0)
		core.StoreFloat64(&f.bits[2*i], real(v))
		core.StoreFloat64(&f.bits[2*i+1], imag(v))
	}
}

// Clone returns a deep copy of the frame
func (f *Frame) Clone() *Frame {
	c := &Frame{rf: f.rf, cfg: f.cfg, space: f.space}
	if f.bits != nil {
		c.bits = make([]uint64, len(f.bits))
		copy(c.bits, f.bits)
		c.fftChirp = fourier.NewCmplxFFT(f.cfg.ChirpCount)
		c.fftSample = fourier.NewCmplxFFT(f.cfg.SamplesPerChirp)
		c.fftChannel = fourier.NewCmplxFFT(f.cfg.ChannelCount)
	}
	return c
}

// PIndexFromTime maps a path delay to a fractional sample index via the
// beat frequency slope*dt. Aliased onto [0, S). CW mode collapses to
// sample zero.
func (f *Frame) PIndexFromTime(dt float64) PIndex {
	var p PIndex
	if f.rf.FreqSlope == 0 {
		p.Sample = 0
		return p
	}
	beat := dt * f.rf.FreqSlope / f.rf.ADCRate
	p.Sample = float64(f.cfg.SamplesPerChirp) * frac(beat)
	return p
}

// PIndexFromVelocity maps a radial velocity to a fractional chirp index
// via the Doppler shift of the carrier, aliased onto [0, C)
func (f *Frame) PIndexFromVelocity(dv, speed float64) PIndex {
	var p PIndex
	doppler := 2 * f.rf.StartFreq * dv / speed
	p.Chirp = float64(f.cfg.ChirpCount) * frac(doppler/f.rf.ChirpFrequency())
	return p
}

// Distance inverts PIndexFromTime to the full round-trip path length
// in meters, subtracting the fixed antenna delay. For a monostatic
// echo this is twice the target range. Zero in CW mode.
func (f *Frame) Distance(p PIndex, speed float64) float64 {
	if f.rf.FreqSlope == 0 {
		return 0
	}
	dt := p.Sample / float64(f.cfg.SamplesPerChirp) * f.rf.ADCRate / f.rf.FreqSlope
	return (dt - f.rf.AntennaDelay) * speed
}

// Velocity inverts PIndexFromVelocity with Nyquist backfold: chirp bins
// above C/2 map to negative velocities
func (f *Frame) Velocity(p PIndex, speed float64) float64 {
	c := float64(f.cfg.ChirpCount)
	i := p.Chirp
	if i > c/2 {
		i -= c
	}
	return i / c * f.rf.ChirpFrequency() * speed / (2 * f.rf.StartFreq)
}

// axisSpread describes the leakage pattern of a splat along one axis
type axisSpread struct {
	center int
	shift  float64 // residual p - center, zero when treated as delta
	delta  bool
}

func spreadAxis(p float64, size int) axisSpread {
	c := math.Round(p)
	s := p - c
	a := axisSpread{center: wrap(int(c), size), shift: s}
	if math.Abs(s) < deltaCutoff {
		a.delta = true
	}
	return a
}

// Splat scatter-adds a complex contribution at a fractional index,
// spreading leakage over ±w bins per non-integer axis to reproduce the
// spectral footprint of a rectangular-window DFT. Safe for concurrent
// callers.
func (f *Frame) Splat(p PIndex, v complex128, w int) {
	axes := [3]axisSpread{
		spreadAxis(p.Chirp, f.cfg.ChirpCount),
		spreadAxis(p.Sample, f.cfg.SamplesPerChirp),
		spreadAxis(p.Channel, f.cfg.ChannelCount),
	}
	sizes := [3]int{f.cfg.ChirpCount, f.cfg.SamplesPerChirp, f.cfg.ChannelCount}

	// Per-axis carrier phase and window weight for non-delta axes
	for _, a := range axes {
		if a.delta {
			continue
		}
		v *= cmplx.Exp(complex(0, math.Pi*a.shift))
		v *= complex(math.Sin(math.Pi*a.shift)/math.Pi, 0)
	}

	type bin struct {
		index  int
		weight float64
	}
	var lines [3][]bin
	for d, a := range axes {
		if a.delta {
			lines[d] = []bin{{index: a.center, weight: 1}}
			continue
		}
		line := make([]bin, 0, 2*w+1)
		for shift := -w; shift <= w; shift++ {
			line = append(line, bin{
				index:  wrap(a.center+shift, sizes[d]),
				weight: 1 / (a.shift - float64(shift)),
			})
		}
		lines[d] = line
	}

	for _, bc := range lines[0] {
		for _, bs := range lines[1] {
			for _, bk := range lines[2] {
				weight := bc.weight * bs.weight * bk.weight
				i := f.LinearIndex(bc.index, bs.index, bk.index)
				f.AddLinear(i, v*complex(weight, 0))
			}
		}
	}
}

// Interpolate reads the cube at a fractional index, inverting the
// rectangular-window leakage kernel along each non-integer axis
func (f *Frame) Interpolate(p PIndex) complex128 {
	axes := [3]axisSpread{
		spreadAxis(p.Chirp, f.cfg.ChirpCount),
		spreadAxis(p.Sample, f.cfg.SamplesPerChirp),
		spreadAxis(p.Channel, f.cfg.ChannelCount),
	}
	v := f.At(axes[0].center, axes[1].center, axes[2].center)
	for _, a := range axes {
		if a.delta {
			continue
		}
		z := complex(0, 2*math.Pi*a.shift)
		v *= z / (cmplx.Exp(z) - 1)
	}
	return v
}

// FFT runs the in-place 3-D forward DFT and flips the space tag
func (f *Frame) FFT() error {
	if !f.Configured() {
		return ErrNotConfigured
	}
	f.fftAxis(f.fftChirp, 0)
	f.fftAxis(f.fftSample, 1)
	f.fftAxis(f.fftChannel, 2)
	if f.space == Spatial {
		f.space = Fourier
	} else {
		f.space = Spatial
	}
	return nil
}

// fftAxis transforms every line of the cube along one axis
func (f *Frame) fftAxis(plan *fourier.CmplxFFT, axis int) {
	c, s, k := f.cfg.ChirpCount, f.cfg.SamplesPerChirp, f.cfg.ChannelCount
	n := plan.Len()
	if n == 1 {
		return
	}
	line := make([]complex128, n)

	var outerA, outerB, stride int
	switch axis {
	case 0:
		outerA, outerB, stride = s, k, s*k
	case 1:
		outerA, outerB, stride = c, k, k
	default:
		outerA, outerB, stride = c, s, 1
	}

	for a := 0; a < outerA; a++ {
		for b := 0; b < outerB; b++ {
			base := f.lineBase(axis, a, b)
			for i := 0; i < n; i++ {
				line[i] = f.AtLinear(base + i*stride)
			}
			out := plan.Coefficients(nil, line)
			for i := 0; i < n; i++ {
				idx := base + i*stride
				core.StoreFloat64(&f.bits[2*idx], real(out[i]))
				core.StoreFloat64(&f.bits[2*idx+1], imag(out[i]))
			}
		}
	}
}

// lineBase returns the linear index of element 0 of a line along an axis
func (f *Frame) lineBase(axis, a, b int) int {
	switch axis {
	case 0: // line over chirps at (sample=a, channel=b)
		return f.LinearIndex(0, a, b)
	case 1: // line over samples at (chirp=a, channel=b)
		return f.LinearIndex(a, 0, b)
	default: // line over channels at (chirp=a, sample=b)
		return f.LinearIndex(a, b, 0)
	}
}

// ArgMax returns the integer index of the element with the greatest magnitude
func (f *Frame) ArgMax() PIndex {
	best := -1.0
	bestIdx := 0
	for i := 0; i < f.cfg.Len(); i++ {
		m := cmplx.Abs(f.AtLinear(i))
		if m > best {
			best = m
			bestIdx = i
		}
	}
	c, s, k := f.IndexFromLinear(bestIdx)
	return PIndex{Chirp: float64(c), Sample: float64(s), Channel: float64(k)}
}

// FrequencyEstimation refines an integer peak index to sub-bin accuracy
// per axis using three-point estimation over ring-wrapped neighbors
func (f *Frame) FrequencyEstimation(p PIndex) PIndex {
	ci, si, ki := int(p.Chirp), int(p.Sample), int(p.Channel)

	mag := func(c, s, k int) float64 {
		return cmplx.Abs(f.At(
			wrap(c, f.cfg.ChirpCount),
			wrap(s, f.cfg.SamplesPerChirp),
			wrap(k, f.cfg.ChannelCount)))
	}

	refine := func(i int, l, m, r float64) float64 {
		b := float64(i)
		if l+m+r == 0 {
			return b
		}
		if l >= r {
			return b - l/(l+m)
		}
		return b + r/(r+m)
	}

	return PIndex{
		Chirp:   refine(ci, mag(ci-1, si, ki), mag(ci, si, ki), mag(ci+1, si, ki)),
		Sample:  refine(si, mag(ci, si-1, ki), mag(ci, si, ki), mag(ci, si+1, ki)),
		Channel: refine(ki, mag(ci, si, ki-1), mag(ci, si, ki), mag(ci, si, ki+1)),
	}
}

// frac returns the fractional part of x mapped onto [0, 1)
func frac(x float64) float64 {
	return x - math.Floor(x)
}

// wrap maps an index onto [0, n) with ring semantics
func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
