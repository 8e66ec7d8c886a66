package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/df07/go-fmcw-raytracer/pkg/antenna"
	"github.com/df07/go-fmcw-raytracer/pkg/config"
	"github.com/df07/go-fmcw-raytracer/pkg/core"
	"github.com/df07/go-fmcw-raytracer/pkg/integrator"
	"github.com/df07/go-fmcw-raytracer/pkg/loaders"
	"github.com/df07/go-fmcw-raytracer/pkg/logging"
	"github.com/df07/go-fmcw-raytracer/pkg/radar"
	"github.com/df07/go-fmcw-raytracer/pkg/runner"
	"github.com/df07/go-fmcw-raytracer/pkg/scene"
)

// defaultScenario is the dihedral retroreflector measurement: a corner
// of two 100 mm plates swept by the sensor from -55 to +55 degrees
func defaultScenario() *config.Scenario {
	return &config.Scenario{
		RF: config.RFSection{
			StartFreqHz:    77 * radar.GHz,
			FreqSlopeHzUs:  60 * radar.MHz,
			ADCRateHz:      5 * radar.MHz,
			IdleTimeUs:     100,
			RampTimeUs:     60,
			AntennaDelayNs: 0.43,
		},
		Frame: config.FrameSection{
			ChirpCount:      128,
			SamplesPerChirp: 256,
			ChannelCount:    4,
		},
		Sweep: config.SweepSection{StartDeg: -55, EndDeg: 55, StepDeg: 0.25},
		Sampling: config.SamplingSection{
			Samples:  200_000,
			MaxDepth: 10,
		},
		Output: config.OutputSection{FramePath: "dihedral.SIM"},
	}
}

func main() {
	configPath := flag.String("config", "", "Scenario YAML file (optional)")
	out := flag.String("out", "", "Output .SIM path (overrides scenario)")
	samples := flag.Uint64("samples", 0, "Samples per angle (overrides scenario)")
	workers := flag.Int("workers", 0, "Worker count (0 = all CPUs)")
	meshPath := flag.String("mesh", "", "Replace the built-in reflector with a Wavefront OBJ mesh")
	debugPath := flag.String("debug", "", "Write a debug PNG to this path")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(level, logging.Text, os.Stderr).With(
		logging.Field{Key: "scenario", Value: "dihedral"},
	)

	sc := defaultScenario()
	if *configPath != "" {
		sc, err = config.Load(*configPath)
		if err != nil {
			log.Error("loading scenario", logging.Field{Key: "err", Value: err})
			os.Exit(1)
		}
	}
	if *out != "" {
		sc.Output.FramePath = *out
	}
	if *samples > 0 {
		sc.Sampling.Samples = *samples
	}
	if *debugPath != "" {
		sc.Output.DebugImage = *debugPath
	}

	mesh := scene.Dihedral(100 * radar.Millimeter)
	if *meshPath != "" {
		mesh, err = loaders.LoadOBJ(*meshPath)
		if err != nil {
			log.Error("loading mesh", logging.Field{Key: "err", Value: err})
			os.Exit(1)
		}
	}
	bvh := mesh.Build()

	icfg := integrator.DefaultConfig()
	icfg.Guiding = sc.GuidingEnabled()
	icfg.DebugImage = sc.Output.DebugImage != ""
	if sc.Sampling.MaxDepth > 0 {
		icfg.MaxDepth = sc.Sampling.MaxDepth
	}

	pi := integrator.New(sc.RFConfig(), icfg)
	if err := pi.Configure(sc.FrameConfig()); err != nil {
		log.Error("configuring frame", logging.Field{Key: "err", Value: err})
		os.Exit(1)
	}

	run := runner.New(pi)
	run.Log = log
	if *workers > 0 {
		run.Workers = *workers
	}

	file, err := os.Create(sc.Output.FramePath)
	if err != nil {
		log.Error("creating output", logging.Field{Key: "err", Value: err})
		os.Exit(1)
	}
	defer file.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	angles := sc.Angles()
	log.Info("starting sweep",
		logging.Field{Key: "angles", Value: len(angles)},
		logging.Field{Key: "samples", Value: sc.Sampling.Samples},
		logging.Field{Key: "workers", Value: run.Workers},
	)
	start := time.Now()

	for i, angleDeg := range angles {
		// The sensor orbits the reflector around the y axis, keeping
		// the corner bisector centered at angle zero
		rotation := core.RotationY((angleDeg - 45) / 180 * math.Pi)
		facing := rotation.Mul(scene.Facing())

		world := &scene.Scene{
			RF: sc.RFConfig(),
			TX: antenna.NewNearField(
				rotation.MulVec(core.NewVec3(896, 67, -5).Multiply(radar.Millimeter)), facing),
			RX: antenna.NewNearField(
				rotation.MulVec(core.NewVec3(896, 67, -5).Multiply(radar.Millimeter)), facing),
		}

		if err := run.Run(ctx, world, bvh, sc.Sampling.Samples); err != nil {
			log.Error("simulation aborted",
				logging.Field{Key: "angle", Value: angleDeg},
				logging.Field{Key: "err", Value: err},
			)
			os.Exit(1)
		}

		if _, err := pi.FetchFrame().WriteTo(file); err != nil {
			log.Error("writing frame", logging.Field{Key: "err", Value: err})
			os.Exit(1)
		}

		if (i+1)%40 == 0 {
			log.Info("sweep progress",
				logging.Field{Key: "angle", Value: angleDeg},
				logging.Field{Key: "done", Value: i + 1},
				logging.Field{Key: "elapsed", Value: time.Since(start).Round(time.Second)},
			)
		}
	}

	if sc.Output.DebugImage != "" {
		if err := writeDebugImage(pi, sc.Output.DebugImage); err != nil {
			log.Warn("writing debug image", logging.Field{Key: "err", Value: err})
		}
	}

	reportPeak(log, pi.FetchFrame())

	log.Info("sweep complete", logging.Field{Key: "elapsed", Value: time.Since(start).Round(time.Second)})
}

// reportPeak logs the strongest return of the last frame in range and
// velocity terms
func reportPeak(log logging.Logger, frame *radar.Frame) {
	if err := frame.FFT(); err != nil {
		log.Warn("transforming frame", logging.Field{Key: "err", Value: err})
		return
	}
	peak := frame.FrequencyEstimation(frame.ArgMax())
	// Distance reports the round trip; the monostatic range is half of it
	log.Info("strongest return",
		logging.Field{Key: "range_m", Value: frame.Distance(peak, core.SpeedOfLight) / 2},
		logging.Field{Key: "velocity_mps", Value: frame.Velocity(peak, core.SpeedOfLight)},
	)
}

func writeDebugImage(pi *integrator.PathIntegrator, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pi.Debug().WritePNG(f)
}
