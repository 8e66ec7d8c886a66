package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-fmcw-raytracer/pkg/radar"
)

// RFSection holds the chirp parameters of a scenario file. Frequencies
// are in Hz, the slope in Hz per microsecond, the idle and ramp times in
// microseconds and the antenna delay in nanoseconds; RFConfig converts
// them to SI units.
type RFSection struct {
	StartFreqHz    float64 `yaml:"start_freq_hz"`
	FreqSlopeHzUs  float64 `yaml:"freq_slope_hz_per_us"`
	ADCRateHz      float64 `yaml:"adc_rate_hz"`
	IdleTimeUs     float64 `yaml:"idle_time_us"`
	RampTimeUs     float64 `yaml:"ramp_time_us"`
	AntennaDelayNs float64 `yaml:"antenna_delay_ns"`
}

// FrameSection holds the radar cube dimensions
type FrameSection struct {
	ChirpCount      int `yaml:"chirp_count"`
	SamplesPerChirp int `yaml:"samples_per_chirp"`
	ChannelCount    int `yaml:"channel_count"`
}

// SweepSection describes the antenna rotation sweep around the y axis
type SweepSection struct {
	StartDeg float64 `yaml:"start_deg"`
	EndDeg   float64 `yaml:"end_deg"`
	StepDeg  float64 `yaml:"step_deg"`
}

// SamplingSection holds the Monte Carlo budget and guiding options
type SamplingSection struct {
	Samples  uint64 `yaml:"samples"`
	Workers  int    `yaml:"workers"`
	MaxDepth int    `yaml:"max_depth"`
	Guiding  *bool  `yaml:"guiding"` // nil means enabled
}

// OutputSection controls where results are written
type OutputSection struct {
	FramePath  string `yaml:"frame_path"`
	DebugImage string `yaml:"debug_image"`
}

// Scenario is the top-level structure of a scenario YAML file
type Scenario struct {
	RF       RFSection       `yaml:"rf"`
	Frame    FrameSection    `yaml:"frame"`
	Sweep    SweepSection    `yaml:"sweep"`
	Sampling SamplingSection `yaml:"sampling"`
	Output   OutputSection   `yaml:"output"`
}

// Load reads and parses a scenario file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario config: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario config: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario against the radar configuration rules
func (s *Scenario) Validate() error {
	if err := s.RFConfig().Validate(); err != nil {
		return fmt.Errorf("rf section: %w", err)
	}
	if err := s.FrameConfig().Validate(); err != nil {
		return fmt.Errorf("frame section: %w", err)
	}
	if s.Sampling.Samples == 0 {
		return fmt.Errorf("sampling section: samples must be positive")
	}
	if s.Sweep.StepDeg <= 0 && s.Sweep.StartDeg != s.Sweep.EndDeg {
		return fmt.Errorf("sweep section: step_deg must be positive")
	}
	return nil
}

// RFConfig converts the RF section to SI units
func (s *Scenario) RFConfig() radar.RFConfig {
	// Scaling by the exact reciprocals (1e6, 1e9) keeps the results
	// correctly rounded; 1e-6 and 1e-9 are not exact in binary
	return radar.RFConfig{
		StartFreq:    s.RF.StartFreqHz,
		FreqSlope:    s.RF.FreqSlopeHzUs * (1 / radar.Microsecond),
		ADCRate:      s.RF.ADCRateHz,
		IdleTime:     s.RF.IdleTimeUs / (1 / radar.Microsecond),
		RampTime:     s.RF.RampTimeUs / (1 / radar.Microsecond),
		AntennaDelay: s.RF.AntennaDelayNs / (1 / radar.Nanosecond),
	}
}

// FrameConfig converts the frame section
func (s *Scenario) FrameConfig() radar.FrameConfig {
	return radar.FrameConfig{
		ChirpCount:      s.Frame.ChirpCount,
		SamplesPerChirp: s.Frame.SamplesPerChirp,
		ChannelCount:    s.Frame.ChannelCount,
	}
}

// GuidingEnabled reports whether adaptive sampling was requested,
// defaulting to on
func (s *Scenario) GuidingEnabled() bool {
	return s.Sampling.Guiding == nil || *s.Sampling.Guiding
}

// Angles expands the sweep section into the list of sweep angles in
// degrees, inclusive of both endpoints
func (s *Scenario) Angles() []float64 {
	if s.Sweep.StepDeg <= 0 {
		return []float64{s.Sweep.StartDeg}
	}
	var out []float64
	for a := s.Sweep.StartDeg; a <= s.Sweep.EndDeg+1e-9; a += s.Sweep.StepDeg {
		out = append(out, a)
	}
	return out
}
