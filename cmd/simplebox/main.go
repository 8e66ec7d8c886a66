package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"os/signal"
	"time"

	"github.com/df07/go-fmcw-raytracer/pkg/antenna"
	"github.com/df07/go-fmcw-raytracer/pkg/config"
	"github.com/df07/go-fmcw-raytracer/pkg/core"
	"github.com/df07/go-fmcw-raytracer/pkg/integrator"
	"github.com/df07/go-fmcw-raytracer/pkg/logging"
	"github.com/df07/go-fmcw-raytracer/pkg/radar"
	"github.com/df07/go-fmcw-raytracer/pkg/runner"
	"github.com/df07/go-fmcw-raytracer/pkg/scene"
)

// defaultScenario measures the monostatic response of a small box in
// continuous-wave mode, sweeping the sensor through 240 degrees
func defaultScenario() *config.Scenario {
	return &config.Scenario{
		RF: config.RFSection{
			StartFreqHz: 78 * radar.GHz,
			// CW mode: no frequency modulation
			FreqSlopeHzUs: 0,
			ADCRateHz:     5 * radar.MHz,
			IdleTimeUs:    100,
			RampTimeUs:    60,
		},
		Frame: config.FrameSection{
			ChirpCount:      1,
			SamplesPerChirp: 1,
			ChannelCount:    1,
		},
		Sweep: config.SweepSection{StartDeg: -120, EndDeg: 120, StepDeg: 0.25},
		Sampling: config.SamplingSection{
			Samples:  200_000,
			MaxDepth: 10,
		},
		Output: config.OutputSection{FramePath: "simplebox.SIM"},
	}
}

func main() {
	configPath := flag.String("config", "", "Scenario YAML file (optional)")
	out := flag.String("out", "", "Output .SIM path (overrides scenario)")
	samples := flag.Uint64("samples", 0, "Samples per angle (overrides scenario)")
	workers := flag.Int("workers", 0, "Worker count (0 = all CPUs)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(level, logging.Text, os.Stderr).With(
		logging.Field{Key: "scenario", Value: "simplebox"},
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

	mesh := scene.SimpleBox(core.NewVec3(8, 28, 40).Multiply(radar.Millimeter))
	bvh := mesh.Build()

	icfg := integrator.DefaultConfig()
	icfg.Guiding = sc.GuidingEnabled()
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

	peakMag := 0.0
	peakAngle := 0.0

	for i, angleDeg := range angles {
		rotation := core.RotationY(angleDeg / 180 * math.Pi)
		facing := rotation.Mul(scene.Facing())
		pos := rotation.MulVec(core.NewVec3(380, 0, 0).Multiply(radar.Millimeter))

		world := &scene.Scene{
			RF: sc.RFConfig(),
			TX: antenna.NewNearField(pos, facing),
			RX: antenna.NewNearField(pos, facing),
		}

		if err := run.Run(ctx, world, bvh, sc.Sampling.Samples); err != nil {
			log.Error("simulation aborted",
				logging.Field{Key: "angle", Value: angleDeg},
				logging.Field{Key: "err", Value: err},
			)
			os.Exit(1)
		}

		frame := pi.FetchFrame()
		if mag := cmplx.Abs(frame.At(0, 0, 0)); mag > peakMag {
			peakMag = mag
			peakAngle = angleDeg
		}

		if _, err := frame.WriteTo(file); err != nil {
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

	log.Info("sweep complete",
		logging.Field{Key: "peak_angle", Value: peakAngle},
		logging.Field{Key: "peak_magnitude", Value: peakMag},
		logging.Field{Key: "elapsed", Value: time.Since(start).Round(time.Second)},
	)
}
