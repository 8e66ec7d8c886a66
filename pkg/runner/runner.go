package runner

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/df07/go-fmcw-raytracer/pkg/core"
	"github.com/df07/go-fmcw-raytracer/pkg/integrator"
	"github.com/df07/go-fmcw-raytracer/pkg/logging"
	"github.com/df07/go-fmcw-raytracer/pkg/scene"
)

// ErrAlreadyRunning is returned when Run is entered while a previous
// invocation on the same runner has not finished
var ErrAlreadyRunning = errors.New("runner: simulation already in progress")

// batchSize is how many consecutive sample indices a worker claims at
// once from the shared counter
const batchSize = 256

// initialMilestone is the size of the first guiding iteration; each
// subsequent iteration doubles
const initialMilestone = 16384

// Runner drives the integrator across a pool of workers, pausing
// between milestones to refine the guiding distribution
type Runner struct {
	Integrator *integrator.PathIntegrator
	Workers    int
	Log        logging.Logger

	running atomic.Bool
}

// New creates a runner with one worker per CPU
func New(pi *integrator.PathIntegrator) *Runner {
	return &Runner{
		Integrator: pi,
		Workers:    runtime.NumCPU(),
		Log:        logging.Nop(),
	}
}

// Run simulates totalSamples paths through the scene. Returns early
// with ctx.Err() on cancellation; workers finish their claimed batch
// first so the frame stays internally consistent.
func (r *Runner) Run(ctx context.Context, sc *scene.Scene, rt core.Raycaster, totalSamples uint64) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	pi := r.Integrator
	pi.Reset()

	if !pi.GuidingEnabled() {
		return r.dispatch(ctx, sc, rt, totalSamples)
	}

	milestone := uint64(initialMilestone)
	remaining := totalSamples
	final := false

	for {
		if milestone > remaining {
			milestone = remaining
		}
		r.Log.Debug("iteration",
			logging.Field{Key: "samples", Value: milestone},
			logging.Field{Key: "leaves", Value: pi.Guide().Leaves()},
		)

		if err := r.dispatch(ctx, sc, rt, milestone); err != nil {
			return err
		}
		pi.AdvanceOffset(milestone)

		remaining -= milestone
		if remaining == 0 {
			return nil
		}

		milestone *= 2
		if remaining < 2*milestone {
			final = true
			milestone = remaining
		}

		pi.NextIteration(final)
	}
}

// dispatch fans n sample indices out to the worker pool and waits for
// all of them to complete
func (r *Runner) dispatch(ctx context.Context, sc *scene.Scene, rt core.Raycaster, n uint64) error {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	var next atomic.Uint64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				// Cancellation is polled at batch boundaries only;
				// a claimed batch always runs to completion
				if ctx.Err() != nil {
					return
				}
				start := next.Add(batchSize) - batchSize
				if start >= n {
					return
				}
				end := start + batchSize
				if end > n {
					end = n
				}
				for i := start; i < end; i++ {
					r.Integrator.Sample(sc, rt, i)
				}
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}
