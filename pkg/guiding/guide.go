package guiding

import (
	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

// Config controls the adaptive importance sampler
type Config struct {
	Dimensions     int     // 1 or 2
	UniformProb    float64 // mixture weight of the uniform component
	SplitThreshold float64 // leaf weight fraction above which a leaf splits
	MergeThreshold float64 // sibling weight fraction below which leaves merge
}

// DefaultConfig returns the settings used for hemisphere guiding
func DefaultConfig() Config {
	return Config{
		Dimensions:     2,
		UniformProb:    0.1,
		SplitThreshold: 0.005,
		MergeThreshold: 0.0005,
	}
}

// Guide learns where in the unit hypercube high contributions
// originate and focuses future samples there. Two snapshots are kept:
// the sampling tree is immutable during a checkpoint while the
// training tree receives concurrent splats. Step promotes training to
// sampling and refines.
type Guide struct {
	cfg      Config
	sampling *tree
	training *tree
}

// New creates a guide with a single-leaf (uniform) initial distribution
func New(cfg Config) *Guide {
	if cfg.Dimensions < 1 || cfg.Dimensions > 2 {
		cfg.Dimensions = 2
	}
	return &Guide{
		cfg:      cfg,
		sampling: newTree(cfg.Dimensions),
		training: newTree(cfg.Dimensions),
	}
}

// Sample draws a point in the unit hypercube. The first coordinate
// doubles as the mixture selector: values below UniformProb are
// rescaled and the point stays uniform, the rest are remapped into
// the guided branch and descend the sampling tree proportionally to
// learned weights. Returns the point and the mixture pdf at it.
func (g *Guide) Sample(u core.Vec2) (core.Vec2, float64) {
	t := g.sampling
	if t.rootWeight() <= 0 {
		return u, 1
	}
	if u.X < g.cfg.UniformProb {
		u.X /= g.cfg.UniformProb
		return u, g.Pdf(u)
	}
	u.X = (u.X - g.cfg.UniformProb) / (1 - g.cfg.UniformProb)

	p := point(u)
	i := 0
	for !t.nodes[i].isLeaf() {
		n := &t.nodes[i]
		wl := t.nodes[n.left].weight.Load()
		wr := t.nodes[n.right].weight.Load()
		pl := 0.5
		if wl+wr > 0 {
			pl = wl / (wl + wr)
		}
		if pl > 0 && (p[n.axis] < pl || pl >= 1) {
			p[n.axis] /= pl
			i = n.left
		} else {
			p[n.axis] = (p[n.axis] - pl) / (1 - pl)
			i = n.right
		}
	}

	leaf := &t.nodes[i]
	var x [2]float64
	for d := 0; d < 2; d++ {
		size := leaf.hi[d] - leaf.lo[d]
		x[d] = leaf.lo[d] + p[d]*size
		// Keep the jittered point strictly inside the leaf so pdf
		// lookups resolve to the same region
		if x[d] >= leaf.hi[d] {
			x[d] = leaf.hi[d] - size*1e-12
		}
	}
	pt := core.NewVec2(clampUnit(x[0]), clampUnit(x[1]))
	return pt, g.pdfAtLeaf(leaf)
}

// Pdf evaluates the mixture density at a point
func (g *Guide) Pdf(x core.Vec2) float64 {
	t := g.sampling
	if t.rootWeight() <= 0 {
		return 1
	}
	return g.pdfAtLeaf(&t.nodes[t.leafAt(x)])
}

func (g *Guide) pdfAtLeaf(leaf *node) float64 {
	total := g.sampling.rootWeight()
	if total <= 0 {
		return 1
	}
	up := g.cfg.UniformProb
	return up + (1-up)*(leaf.weight.Load()/total)/leaf.volume()
}

// Splat records a path contribution into the training tree. Safe for
// concurrent callers; only the leaf-path accumulators are touched.
func (g *Guide) Splat(x core.Vec2, density, weight float64) {
	g.training.splat(x, weight*density, weight)
}

// Step promotes the training tree to the sampling snapshot and refines
// the training topology. Must run with all workers quiesced.
func (g *Guide) Step() {
	g.sampling = g.training.clone()
	g.training.refine(g.cfg.SplitThreshold, g.cfg.MergeThreshold)
}

// Leaves reports the number of leaves in the sampling snapshot
func (g *Guide) Leaves() int {
	n := 0
	g.sampling.leaves(func(int) { n++ })
	return n
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x >= 1 {
		return 1 - 1e-12
	}
	return x
}
