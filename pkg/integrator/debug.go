package integrator

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"math/cmplx"

	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

// DebugElement aggregates per-direction diagnostics: the mean path
// distance, the complex contribution, the phase-filter argument and the
// sampling weights that normalize them
type DebugElement struct {
	Distance     float64
	Contribution complex128
	DPhase       float64
	InvPdfs      float64
	Weight       float64
}

const debugFields = 6 // distance, re, im, dphase, invPdfs, weight

// DebugImage is a 2-D accumulator over the primary sample square.
// Buckets use the same lock-free float adds as the radar cube so
// workers can splat concurrently.
type DebugImage struct {
	width, height int
	bits          []uint64
}

// NewDebugImage allocates a debug accumulator of the given dimensions
func NewDebugImage(width, height int) *DebugImage {
	return &DebugImage{
		width:  width,
		height: height,
		bits:   make([]uint64, width*height*debugFields),
	}
}

// Width returns the horizontal resolution
func (im *DebugImage) Width() int { return im.width }

// Height returns the vertical resolution
func (im *DebugImage) Height() int { return im.height }

// Clear zeroes all buckets. Not safe against concurrent splats.
func (im *DebugImage) Clear() {
	for i := range im.bits {
		im.bits[i] = 0
	}
}

func (im *DebugImage) base(x, y int) int {
	return (y*im.width + x) * debugFields
}

// Splat accumulates an element at a point in the unit square
func (im *DebugImage) Splat(p core.Vec2, e DebugElement) {
	x := int(p.X * float64(im.width)) % im.width
	y := int(p.Y * float64(im.height)) % im.height
	if x < 0 {
		x += im.width
	}
	if y < 0 {
		y += im.height
	}
	b := im.base(x, y)
	core.AddFloat64(&im.bits[b], e.Distance)
	core.AddFloat64(&im.bits[b+1], real(e.Contribution))
	core.AddFloat64(&im.bits[b+2], imag(e.Contribution))
	core.AddFloat64(&im.bits[b+3], e.DPhase)
	core.AddFloat64(&im.bits[b+4], e.InvPdfs)
	core.AddFloat64(&im.bits[b+5], e.Weight)
}

// At reads a raw accumulated element
func (im *DebugImage) At(x, y int) DebugElement {
	b := im.base(x, y)
	return DebugElement{
		Distance:     core.LoadFloat64(&im.bits[b]),
		Contribution: complex(core.LoadFloat64(&im.bits[b+1]), core.LoadFloat64(&im.bits[b+2])),
		DPhase:       core.LoadFloat64(&im.bits[b+3]),
		InvPdfs:      core.LoadFloat64(&im.bits[b+4]),
		Weight:       core.LoadFloat64(&im.bits[b+5]),
	}
}

// Normalized returns a copy with each bucket divided by its accumulated
// inverse pdf so the diagnostics become per-direction means
func (im *DebugImage) Normalized() []DebugElement {
	out := make([]DebugElement, im.width*im.height)
	for y := 0; y < im.height; y++ {
		for x := 0; x < im.width; x++ {
			e := im.At(x, y)
			e.Contribution *= 1e-5
			if e.InvPdfs > core.Epsilon {
				e.Contribution /= complex(e.InvPdfs, 0)
				e.DPhase /= e.InvPdfs
				e.Distance /= e.InvPdfs
				e.InvPdfs = 1
			}
			out[y*im.width+x] = e
		}
	}
	return out
}

// WritePNG renders the normalized contribution magnitudes to a
// log-scaled grayscale PNG for quick visual inspection
func (im *DebugImage) WritePNG(w io.Writer) error {
	elems := im.Normalized()

	maxMag := 0.0
	for _, e := range elems {
		if m := cmplx.Abs(e.Contribution); m > maxMag {
			maxMag = m
		}
	}

	img := image.NewGray16(image.Rect(0, 0, im.width, im.height))
	if maxMag > 0 {
		logMax := math.Log1p(maxMag)
		for y := 0; y < im.height; y++ {
			for x := 0; x < im.width; x++ {
				m := cmplx.Abs(elems[y*im.width+x].Contribution)
				v := math.Log1p(m) / logMax
				img.SetGray16(x, y, color.Gray16{Y: uint16(v * math.MaxUint16)})
			}
		}
	}
	return png.Encode(w, img)
}
