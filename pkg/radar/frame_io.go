package radar

import (
	"encoding/binary"
	"io"
	"math"
)

func floatBits32(v float64) uint32 {
	return math.Float32bits(float32(v))
}

func floatFrom32(bits uint32) float64 {
	return float64(math.Float32frombits(bits))
}

// WriteTo serializes the cube as consecutive little-endian float32
// pairs (real then imaginary) in canonical row-major order. Frames are
// concatenated head-to-tail by callers with no framing bytes.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	if !f.Configured() {
		return 0, ErrNotConfigured
	}
	buf := make([]byte, 8*f.cfg.Len())
	for i := 0; i < f.cfg.Len(); i++ {
		v := f.AtLinear(i)
		binary.LittleEndian.PutUint32(buf[8*i:], floatBits32(real(v)))
		binary.LittleEndian.PutUint32(buf[8*i+4:], floatBits32(imag(v)))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom fills the cube from the serialized format. The frame must
// already be configured to the matching dimensions.
func (f *Frame) ReadFrom(r io.Reader) (int64, error) {
	if !f.Configured() {
		return 0, ErrNotConfigured
	}
	buf := make([]byte, 8*f.cfg.Len())
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(n), err
	}
	for i := 0; i < f.cfg.Len(); i++ {
		re := floatFrom32(binary.LittleEndian.Uint32(buf[8*i:]))
		im := floatFrom32(binary.LittleEndian.Uint32(buf[8*i+4:]))
		f.bits[2*i] = 0
		f.bits[2*i+1] = 0
		f.AddLinear(i, complex(re, im))
	}
	return int64(n), nil
}
