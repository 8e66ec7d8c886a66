package radar

import (
	"bytes"
	"math"
	"math/cmplx"
	"testing"
)

func testRF() RFConfig {
	return RFConfig{
		StartFreq:    77 * GHz,
		FreqSlope:    60 * MHz / Microsecond,
		ADCRate:      5 * MHz,
		IdleTime:     100 * Microsecond,
		RampTime:     60 * Microsecond,
		AntennaDelay: 0.43 * Nanosecond,
	}
}

func configuredFrame(t *testing.T, cfg FrameConfig) *Frame {
	t.Helper()
	f := NewFrame(testRF())
	if err := f.Configure(cfg); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	return f
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RFConfig)
		wantErr bool
	}{
		{"valid", func(c *RFConfig) {}, false},
		{"cw mode allowed", func(c *RFConfig) { c.FreqSlope = 0 }, false},
		{"zero ramp", func(c *RFConfig) { c.RampTime = 0 }, true},
		{"negative idle", func(c *RFConfig) { c.IdleTime = -1 }, true},
		{"zero start freq", func(c *RFConfig) { c.StartFreq = 0 }, true},
		{"zero adc rate", func(c *RFConfig) { c.ADCRate = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf := testRF()
			tt.mutate(&rf)
			err := rf.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := (FrameConfig{ChirpCount: 0, SamplesPerChirp: 4, ChannelCount: 1}).Validate(); err == nil {
		t.Error("Expected error for zero chirp count")
	}
}

func TestLinearIndexBijection(t *testing.T) {
	f := configuredFrame(t, FrameConfig{ChirpCount: 3, SamplesPerChirp: 5, ChannelCount: 4})

	seen := make(map[int]bool)
	for c := 0; c < 3; c++ {
		for s := 0; s < 5; s++ {
			for k := 0; k < 4; k++ {
				i := f.LinearIndex(c, s, k)
				if seen[i] {
					t.Fatalf("Duplicate linear index %d", i)
				}
				seen[i] = true
				gc, gs, gk := f.IndexFromLinear(i)
				if gc != c || gs != s || gk != k {
					t.Fatalf("Round trip (%d,%d,%d) -> %d -> (%d,%d,%d)", c, s, k, i, gc, gs, gk)
				}
			}
		}
	}
	if len(seen) != 60 {
		t.Fatalf("Expected 60 distinct indices, got %d", len(seen))
	}
}

func TestSplatInterpolateDuality(t *testing.T) {
	tests := []struct {
		name string
		p    PIndex
	}{
		{"on-bin", PIndex{Chirp: 0, Sample: 12, Channel: 0}},
		{"fractional sample", PIndex{Chirp: 0, Sample: 12.37, Channel: 0}},
		{"fractional two axes", PIndex{Chirp: 5.21, Sample: 30.84, Channel: 0}},
		{"near wrap", PIndex{Chirp: 0, Sample: 63.49, Channel: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := configuredFrame(t, FrameConfig{ChirpCount: 16, SamplesPerChirp: 64, ChannelCount: 2})
			z := cmplx.Exp(complex(0, 1.1)) // unit magnitude
			f.Splat(tt.p, z, DefaultSplatWidth)
			got := f.Interpolate(tt.p)
			if cmplx.Abs(got-z) > 1e-3 {
				t.Errorf("Interpolate after splat: got %v, want %v (err %g)", got, z, cmplx.Abs(got-z))
			}
		})
	}
}

func TestSplatDeltaHitsSingleBin(t *testing.T) {
	f := configuredFrame(t, FrameConfig{ChirpCount: 4, SamplesPerChirp: 8, ChannelCount: 2})
	f.Splat(PIndex{Chirp: 2, Sample: 5, Channel: 1}, 3+4i, DefaultSplatWidth)

	for i := 0; i < f.Config().Len(); i++ {
		v := f.AtLinear(i)
		c, s, k := f.IndexFromLinear(i)
		if c == 2 && s == 5 && k == 1 {
			if cmplx.Abs(v-(3+4i)) > 1e-12 {
				t.Errorf("Target bin got %v", v)
			}
		} else if cmplx.Abs(v) > 1e-12 {
			t.Errorf("Unexpected energy at (%d,%d,%d): %v", c, s, k, v)
		}
	}
}

func TestPIndexFromTime(t *testing.T) {
	f := configuredFrame(t, FrameConfig{ChirpCount: 1, SamplesPerChirp: 256, ChannelCount: 1})
	rf := testRF()

	// A target 2m away delays the echo by the 4m round trip
	dt := 4.0 / 299792458.0
	p := f.PIndexFromTime(dt)
	expected := 256 * math.Mod(dt*rf.FreqSlope/rf.ADCRate, 1.0)
	if math.Abs(p.Sample-expected) > 1e-9 {
		t.Errorf("Expected sample %v, got %v", expected, p.Sample)
	}

	// Distance recovers the round-trip path length up to the antenna delay
	d := f.Distance(p, 299792458.0)
	if math.Abs(d-(4.0-rf.AntennaDelay*299792458.0)) > 1e-6 {
		t.Errorf("Distance = %v", d)
	}
}

func TestPIndexFromTimeCW(t *testing.T) {
	rf := testRF()
	rf.FreqSlope = 0
	f := NewFrame(rf)
	if err := f.Configure(FrameConfig{ChirpCount: 1, SamplesPerChirp: 16, ChannelCount: 1}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	p := f.PIndexFromTime(1e-6)
	if p.Sample != 0 {
		t.Errorf("CW mode must collapse to sample 0, got %v", p.Sample)
	}
	if f.Distance(p, 299792458.0) != 0 {
		t.Errorf("CW distance must be 0")
	}
}

func TestVelocityBackfold(t *testing.T) {
	f := configuredFrame(t, FrameConfig{ChirpCount: 128, SamplesPerChirp: 4, ChannelCount: 1})
	const c0 = 299792458.0

	tests := []struct {
		name string
		v    float64
	}{
		{"positive", 2.5},
		{"negative", -2.5},
		{"zero", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.PIndexFromVelocity(tt.v, c0)
			if p.Chirp < 0 || p.Chirp >= 128 {
				t.Fatalf("Chirp index out of range: %v", p.Chirp)
			}
			got := f.Velocity(p, c0)
			if math.Abs(got-tt.v) > 1e-6 {
				t.Errorf("Velocity round trip: want %v, got %v", tt.v, got)
			}
		})
	}
}

func TestFFTParseval(t *testing.T) {
	f := configuredFrame(t, FrameConfig{ChirpCount: 4, SamplesPerChirp: 16, ChannelCount: 2})

	// Deterministic pseudo-signal
	var spatialEnergy float64
	for i := 0; i < f.Config().Len(); i++ {
		v := cmplx.Exp(complex(0, float64(i)*0.7)) * complex(1+math.Sin(float64(i)), 0)
		f.AddLinear(i, v)
		spatialEnergy += real(v)*real(v) + imag(v)*imag(v)
	}

	if err := f.FFT(); err != nil {
		t.Fatalf("FFT failed: %v", err)
	}
	if f.Space() != Fourier {
		t.Errorf("Space should flip to fourier, got %v", f.Space())
	}

	var fourierEnergy float64
	for i := 0; i < f.Config().Len(); i++ {
		v := f.AtLinear(i)
		fourierEnergy += real(v)*real(v) + imag(v)*imag(v)
	}
	n := float64(f.Config().Len())
	if rel := math.Abs(fourierEnergy/n-spatialEnergy) / spatialEnergy; rel > 1e-4 {
		t.Errorf("Parseval violated: spatial %v, fourier/N %v (rel %g)", spatialEnergy, fourierEnergy/n, rel)
	}
}

func TestFFTNotConfigured(t *testing.T) {
	f := NewFrame(testRF())
	if err := f.FFT(); err != ErrNotConfigured {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestFFTSingleToneAndEstimation(t *testing.T) {
	f := configuredFrame(t, FrameConfig{ChirpCount: 1, SamplesPerChirp: 64, ChannelCount: 1})

	// Complex exponential at fractional bin 20.3 over the sample axis
	const bin = 20.3
	for s := 0; s < 64; s++ {
		phase := 2 * math.Pi * bin * float64(s) / 64
		f.AddLinear(f.LinearIndex(0, s, 0), cmplx.Exp(complex(0, phase)))
	}
	if err := f.FFT(); err != nil {
		t.Fatalf("FFT failed: %v", err)
	}

	peak := f.ArgMax()
	if peak.Sample != 20 {
		t.Fatalf("Expected peak at bin 20, got %v", peak.Sample)
	}
	refined := f.FrequencyEstimation(peak)
	if math.Abs(refined.Sample-bin) > 0.1 {
		t.Errorf("Refined peak %v, want %v", refined.Sample, bin)
	}
}

func TestFrequencyEstimationEmpty(t *testing.T) {
	f := configuredFrame(t, FrameConfig{ChirpCount: 2, SamplesPerChirp: 2, ChannelCount: 1})
	p := f.FrequencyEstimation(PIndex{Chirp: 1, Sample: 1})
	if p.Chirp != 1 || p.Sample != 1 {
		t.Errorf("Empty frame estimation must return the input index, got %v", p)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	f := configuredFrame(t, FrameConfig{ChirpCount: 2, SamplesPerChirp: 4, ChannelCount: 2})
	for i := 0; i < f.Config().Len(); i++ {
		f.AddLinear(i, complex(float64(i)+0.5, -float64(i)))
	}

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(8*f.Config().Len()) {
		t.Fatalf("Expected %d bytes, wrote %d", 8*f.Config().Len(), n)
	}

	g := configuredFrame(t, f.Config())
	if _, err := g.ReadFrom(&buf); err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	for i := 0; i < f.Config().Len(); i++ {
		if cmplx.Abs(f.AtLinear(i)-g.AtLinear(i)) > 1e-6 {
			t.Fatalf("Mismatch at %d: %v vs %v", i, f.AtLinear(i), g.AtLinear(i))
		}
	}
}

func TestAddAndScale(t *testing.T) {
	a := configuredFrame(t, FrameConfig{ChirpCount: 1, SamplesPerChirp: 4, ChannelCount: 1})
	b := configuredFrame(t, FrameConfig{ChirpCount: 1, SamplesPerChirp: 4, ChannelCount: 1})
	a.AddLinear(0, 1+2i)
	b.AddLinear(0, 3)
	if err := a.Add(b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	a.Scale(0.5)
	if got := a.AtLinear(0); cmplx.Abs(got-(2+1i)) > 1e-12 {
		t.Errorf("Expected 2+1i, got %v", got)
	}

	mismatched := configuredFrame(t, FrameConfig{ChirpCount: 2, SamplesPerChirp: 4, ChannelCount: 1})
	if err := a.Add(mismatched); err == nil {
		t.Error("Expected dimension mismatch error")
	}
}
