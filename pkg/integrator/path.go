package integrator

import (
	"math"
	"math/cmplx"

	"github.com/df07/go-fmcw-raytracer/pkg/core"
	"github.com/df07/go-fmcw-raytracer/pkg/guiding"
	"github.com/df07/go-fmcw-raytracer/pkg/radar"
	"github.com/df07/go-fmcw-raytracer/pkg/sampler"
	"github.com/df07/go-fmcw-raytracer/pkg/scene"
)

// FilterShape selects how contributions are attenuated by their phase
// sensitivity before being splatted
type FilterShape int

const (
	// FilterSphere rejects paths whose continuation misses a sphere of
	// FilterRadius wavelengths around the receiver, with a soft edge
	FilterSphere FilterShape = iota
	// FilterDifferential windows on the geometric phase derivative
	// between FilterMin and FilterMax wavelengths
	FilterDifferential
	// FilterOff disables phase filtering
	FilterOff
)

// Config controls the path sampling strategy
type Config struct {
	MaxDepth     int  // maximum number of specular bounces
	OnlyIndirect bool // skip the direct TX to RX path
	Diffraction  bool // ignore visibility during next event estimation

	Guiding              bool // adaptive importance sampling of primary directions
	ClearBeforeIteration bool // restart accumulation after each guiding refinement
	GuideConfig          guiding.Config

	Filter        FilterShape
	FilterRadius  float64 // in wavelengths, for FilterSphere
	FilterMin     float64 // in wavelengths, for FilterDifferential
	FilterMax     float64 // in wavelengths, for FilterDifferential
	FilterGuiding bool    // keep feeding filtered-out paths to the guide

	DebugImage            bool
	DebugWidth, DebugHeight int
}

// DefaultConfig returns the settings used for radar scene simulation
func DefaultConfig() Config {
	return Config{
		MaxDepth:             10,
		OnlyIndirect:         true,
		Guiding:              true,
		ClearBeforeIteration: true,
		GuideConfig:          guiding.DefaultConfig(),
		Filter:               FilterSphere,
		FilterRadius:         160,
		FilterMin:            600,
		FilterMax:            900,
		FilterGuiding:        true,
		DebugWidth:           1536,
		DebugHeight:          512,
	}
}

// PathIntegrator traces specular radar paths from the transmit antenna
// and accumulates next-event-estimation contributions into a radar
// cube. Sample is safe for concurrent callers; the iteration controls
// (Reset, NextIteration, AdvanceOffset) must run with all workers
// quiesced.
type PathIntegrator struct {
	cfg   Config
	frame *radar.Frame
	debug *DebugImage
	guide *guiding.Guide

	sampleOffset   uint64
	sampleWeight   float64
	finalIteration bool
	totalWeight    core.AtomicFloat64
}

// New creates an integrator for the given RF configuration
func New(rf radar.RFConfig, cfg Config) *PathIntegrator {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	pi := &PathIntegrator{
		cfg:          cfg,
		frame:        radar.NewFrame(rf),
		guide:        guiding.New(cfg.GuideConfig),
		sampleWeight: 1,
	}
	if cfg.DebugImage {
		pi.debug = NewDebugImage(cfg.DebugWidth, cfg.DebugHeight)
	}
	return pi
}

// Configure allocates the radar cube
func (pi *PathIntegrator) Configure(cfg radar.FrameConfig) error {
	return pi.frame.Configure(cfg)
}

// Frame returns the raw accumulation cube
func (pi *PathIntegrator) Frame() *radar.Frame { return pi.frame }

// Debug returns the debug accumulator, nil unless enabled
func (pi *PathIntegrator) Debug() *DebugImage { return pi.debug }

// Guide returns the primary-direction importance sampler
func (pi *PathIntegrator) Guide() *guiding.Guide { return pi.guide }

// GuidingEnabled reports whether adaptive sampling is active
func (pi *PathIntegrator) GuidingEnabled() bool { return pi.cfg.Guiding }

// ClearBeforeIteration reports whether each guiding iteration restarts
// accumulation from an empty cube
func (pi *PathIntegrator) ClearBeforeIteration() bool { return pi.cfg.ClearBeforeIteration }

// TotalWeight returns the accumulated sample weight
func (pi *PathIntegrator) TotalWeight() float64 { return pi.totalWeight.Load() }

// SampleOffset returns the base index of the current iteration
func (pi *PathIntegrator) SampleOffset() uint64 { return pi.sampleOffset }

// Reset clears all accumulators and restarts the guiding distribution
func (pi *PathIntegrator) Reset() {
	pi.frame.Clear()
	if pi.debug != nil {
		pi.debug.Clear()
	}
	pi.guide = guiding.New(pi.cfg.GuideConfig)
	pi.totalWeight.Store(0)
	pi.sampleOffset = 0
	pi.sampleWeight = 1
	pi.finalIteration = false
}

// AdvanceOffset moves the sample index base past a completed milestone
func (pi *PathIntegrator) AdvanceOffset(n uint64) {
	pi.sampleOffset += n
}

// NextIteration refines the guiding distribution between milestones.
// Either the accumulators restart empty or later samples receive a
// higher weight, reflecting their lower variance under the refined
// distribution.
func (pi *PathIntegrator) NextIteration(final bool) {
	pi.finalIteration = final
	if pi.cfg.ClearBeforeIteration {
		pi.frame.Clear()
		if pi.debug != nil {
			pi.debug.Clear()
		}
		pi.totalWeight.Store(0)
		pi.sampleOffset = 0
	} else {
		pi.sampleWeight *= 10
	}
	pi.guide.Step()
}

// FetchFrame returns a copy of the cube normalized by the total weight
func (pi *PathIntegrator) FetchFrame() *radar.Frame {
	out := pi.frame.Clone()
	if w := pi.totalWeight.Load(); w > 0 {
		out.Scale(1 / w)
	}
	return out
}

// Sample traces one full path and splats its contributions. The path is
// fully determined by sampleOffset+index, so results do not depend on
// which worker executes it.
func (pi *PathIntegrator) Sample(sc *scene.Scene, rt core.Raycaster, index uint64) {
	smp := sampler.NewHalton(pi.sampleOffset + index)

	rf := pi.frame.RF()
	maxRange := rf.MaxRange(core.SpeedOfLight)
	weight := pi.sampleWeight

	// The carrier is jittered across the ramp bandwidth so the
	// ensemble of paths covers the full chirp
	freq := rf.StartFreq + smp.Get1D()*rf.Bandwidth()

	var primary core.Vec2
	primaryPdf := 1.0
	var guideAccum complex128

	u := smp.Get2D()
	if pi.cfg.Guiding {
		primary, primaryPdf = pi.guide.Sample(u)
	} else {
		primary = u
	}

	ray := sc.TX.Sample(primary)
	ray.Frequency = freq
	ray.H = ray.H.ScaleReal(1 / primaryPdf)

	// State of the most recent surface interaction
	var surfH core.CVec3  // incoming field at the surface
	var surfN core.Vec3   // surface normal, facing the incoming ray
	var prevDir core.Vec3 // incoming direction before reflection

	r := 0.0        // cumulative path length
	cosTheta := 1.0 // cosine at the last surface

	for {
		if ray.Depth > 0 || !pi.cfg.OnlyIndirect {
			v, dphase, neeTime, ok := pi.connectRx(sc, rt, ray, surfH, surfN, prevDir, r, cosTheta, &guideAccum)
			if ok {
				txPdf := 0.0
				if ray.Depth > 0 {
					guideAccum += v
					txPdf = primaryPdf
				}
				pi.splat(primary, txPdf, 0, neeTime, dphase, v, weight)
			}
		}

		if ray.Depth >= pi.cfg.MaxDepth || r >= maxRange {
			break
		}
		if ray.H.IsZero() {
			break
		}

		hit, found := rt.Intersect(ray, math.Inf(1))
		if !found {
			break
		}
		cosTheta = -ray.Direction.Dot(hit.Normal)
		if cosTheta < core.GrazingCos {
			// Grazing angles would divide by a tiny cosine in the
			// density correction, so these outliers are dropped
			break
		}

		r += hit.T
		ray.Time += hit.T / ray.Speed

		surfH = ray.H
		surfN = hit.Normal
		prevDir = ray.Direction

		// Specular bounce: mirror the direction and the tangential
		// field components
		wi := ray.Direction.Negate()
		ray.Direction = wi.Reflect(hit.Normal)
		nDotH := ray.H.DotVec(hit.Normal)
		ray.H = hit.Normal.Complex().Scale(2 * nDotH).Subtract(ray.H)
		ray.Origin = hit.Point
		ray.Depth++
	}

	pi.totalWeight.Add(weight)
	if pi.debug != nil {
		pi.debug.Splat(primary, DebugElement{
			InvPdfs: weight / primaryPdf,
			Weight:  weight,
		})
	}
	if pi.cfg.Guiding && !pi.finalIteration && primaryPdf > 0 {
		pi.guide.Splat(primary, cmplx.Abs(guideAccum)*primaryPdf, 1/primaryPdf)
	}
}

// connectRx evaluates next event estimation from the ray's current
// vertex to the receive antenna. Returns the complex measurement, the
// phase-filter argument, the total time of flight at the receiver, and
// whether the connection carries energy.
func (pi *PathIntegrator) connectRx(
	sc *scene.Scene, rt core.Raycaster, ray core.Ray,
	surfH core.CVec3, surfN, prevDir core.Vec3,
	r, cosTheta float64, guideAccum *complex128,
) (complex128, float64, float64, bool) {
	dir, dist, hrx := sc.RX.ConnectNEE(ray.Origin)
	neeTime := ray.Time + dist/ray.Speed

	if !pi.cfg.Diffraction {
		shadow := core.NewRay(ray.Origin, dir)
		if rt.Occluded(shadow, dist) {
			return 0, 0, 0, false
		}
	}

	var h core.CVec3
	if ray.Depth == 0 {
		h = sc.TX.Evaluate(dir).ScaleReal(1 / (4 * math.Pi * dist))
		return h.Dot(hrx), 0, neeTime, true
	}

	// The surface re-radiates through its induced current. The cross
	// product with the connection direction carries the cosine term.
	j := core.CrossRealComplex(surfN, surfH).ScaleReal(2)
	h = core.CrossRealComplex(dir, j)
	if dir.Dot(surfN) < 0 {
		return 0, 0, 0, false
	}
	k0 := ray.Wavenumber()
	green := (1 - complex(0, 1)/complex(math.Max(k0*dist, 1e-3), 0)) / complex(4*math.Pi*dist, 0)
	h = h.Scale(green)

	v := h.Dot(hrx)

	// The bounce vertex was sampled with a hemisphere density of
	// cos/r^2 but the field transport wants 1/(4*pi*r)
	if cosTheta < core.GrazingCos {
		return 0, 0, 0, false
	}
	v *= complex(r/cosTheta/(4*math.Pi), 0)

	dphase := 0.0
	switch pi.cfg.Filter {
	case FilterSphere:
		// Distance from the continuing specular ray to the receiver,
		// in wavelengths
		rxPos := sc.RX.Pos
		lambda := math.Max(0, ray.Direction.Dot(rxPos.Subtract(ray.Origin)))
		dphase = ray.At(lambda).Subtract(rxPos).Length() / ray.Wavelength()
		if dphase > pi.cfg.FilterRadius {
			v *= complex(math.Max(1-0.20*(dphase/pi.cfg.FilterRadius-1), 0), 0)
		}
	case FilterDifferential:
		cos := dir.Subtract(prevDir).Normalize().Dot(surfN)
		dphase = r * math.Sqrt(math.Max(0, 1-cos*cos)) / cos / ray.Wavelength()
		if dphase > pi.cfg.FilterMax {
			if pi.cfg.FilterGuiding {
				*guideAccum += v / complex(math.Pow(dphase/pi.cfg.FilterMax, 2)+1, 0)
			}
			v = 0
		} else if dphase > pi.cfg.FilterMin {
			v *= complex((pi.cfg.FilterMax-dphase)/(pi.cfg.FilterMax-pi.cfg.FilterMin), 0)
		}
	}

	return v, dphase, neeTime, true
}

// splat records one connection into the radar cube, applying the phase
// shift produced by down-mixing the delayed signal against the
// transmit chirp
func (pi *PathIntegrator) splat(txDir core.Vec2, txPdf float64, channel int, pathTime, dphase float64, v complex128, weight float64) {
	if pi.debug == nil && (weight == 0 || v == 0) {
		return
	}

	rf := pi.frame.RF()
	dt := pathTime + rf.AntennaDelay

	p := pi.frame.PIndexFromTime(dt)
	p.Channel = float64(channel)

	mix := cmplx.Exp(complex(0, 2*math.Pi*(rf.StartFreq-dt*rf.FreqSlope/2)*dt))
	contribution := v * mix

	pi.frame.Splat(p, complex(weight, 0)*contribution, radar.DefaultSplatWidth)

	if pi.debug != nil && txPdf > 0 {
		pi.debug.Splat(txDir, DebugElement{
			Distance:     weight * core.SpeedOfLight * dt / txPdf,
			Contribution: complex(weight, 0) * contribution,
			DPhase:       weight * dphase / txPdf,
		})
	}
}
