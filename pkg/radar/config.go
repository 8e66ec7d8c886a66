package radar

import (
	"fmt"
	"math"
)

var inf = math.Inf(1)

// Unit multipliers for SI quantities used in radar configurations
const (
	GHz = 1e9
	MHz = 1e6
	KHz = 1e3

	Microsecond = 1e-6
	Nanosecond  = 1e-9

	Millimeter = 1e-3
)

// RFConfig describes one chirp of the transmitted FMCW waveform.
// FreqSlope of zero selects continuous-wave mode.
type RFConfig struct {
	StartFreq    float64 // Hz
	FreqSlope    float64 // Hz/s
	ADCRate      float64 // samples/s
	IdleTime     float64 // s between chirps
	RampTime     float64 // s of active ramp
	AntennaDelay float64 // s of fixed path delay through the frontend
}

// Validate reports configuration errors. Raised at configure time.
func (c RFConfig) Validate() error {
	if c.StartFreq <= 0 {
		return fmt.Errorf("rf config: start frequency must be positive, got %g", c.StartFreq)
	}
	if c.RampTime <= 0 {
		return fmt.Errorf("rf config: ramp time must be positive, got %g", c.RampTime)
	}
	if c.ADCRate <= 0 {
		return fmt.Errorf("rf config: adc rate must be positive, got %g", c.ADCRate)
	}
	if c.IdleTime < 0 {
		return fmt.Errorf("rf config: idle time must not be negative, got %g", c.IdleTime)
	}
	if c.FreqSlope < 0 {
		return fmt.Errorf("rf config: frequency slope must not be negative, got %g", c.FreqSlope)
	}
	if c.AntennaDelay < 0 {
		return fmt.Errorf("rf config: antenna delay must not be negative, got %g", c.AntennaDelay)
	}
	return nil
}

// Bandwidth returns the swept bandwidth slope*ramp
func (c RFConfig) Bandwidth() float64 {
	return c.FreqSlope * c.RampTime
}

// ChirpFrequency returns the chirp repetition rate 1/(idle+ramp)
func (c RFConfig) ChirpFrequency() float64 {
	return 1.0 / (c.IdleTime + c.RampTime)
}

// MaxRange returns the unambiguous path length for a wave at the given
// propagation speed. Infinite in CW mode.
func (c RFConfig) MaxRange(speed float64) float64 {
	if c.FreqSlope == 0 {
		return inf
	}
	return c.ADCRate / c.FreqSlope * speed
}

// FrameConfig fixes the dimensions of the radar cube
type FrameConfig struct {
	ChirpCount      int
	SamplesPerChirp int
	ChannelCount    int
}

// Validate reports configuration errors
func (c FrameConfig) Validate() error {
	if c.ChirpCount < 1 || c.SamplesPerChirp < 1 || c.ChannelCount < 1 {
		return fmt.Errorf("frame config: all dimensions must be at least 1, got %dx%dx%d",
			c.ChirpCount, c.SamplesPerChirp, c.ChannelCount)
	}
	return nil
}

// Len returns the number of complex elements in the cube
func (c FrameConfig) Len() int {
	return c.ChirpCount * c.SamplesPerChirp * c.ChannelCount
}
