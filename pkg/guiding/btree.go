package guiding

import (
	"github.com/df07/go-fmcw-raytracer/pkg/core"
)

// node is one region of the binary space partition. Internal nodes
// split their region at the mid-point of a fixed axis. Leaves hold
// atomic accumulators updated concurrently by workers.
type node struct {
	left, right int // -1 for leaves
	axis        int
	depth       int
	lo, hi      [2]float64
	weight      core.AtomicFloat64
	count       core.AtomicFloat64
}

func (n *node) isLeaf() bool { return n.left < 0 }

func (n *node) volume() float64 {
	v := 1.0
	for d := 0; d < 2; d++ {
		v *= n.hi[d] - n.lo[d]
	}
	return v
}

func (n *node) mid() float64 {
	return 0.5 * (n.lo[n.axis] + n.hi[n.axis])
}

// tree is a D-dimensional BSP over the unit hypercube. Topology is
// mutated only between checkpoints; the accumulators tolerate
// concurrent adds.
type tree struct {
	dims  int
	nodes []node
}

func newTree(dims int) *tree {
	t := &tree{dims: dims}
	t.nodes = append(t.nodes, node{
		left: -1, right: -1,
		hi: [2]float64{1, 1},
	})
	return t
}

func point(x core.Vec2) [2]float64 { return [2]float64{x.X, x.Y} }

// leafAt returns the index of the leaf whose region contains x
func (t *tree) leafAt(x core.Vec2) int {
	p := point(x)
	i := 0
	for !t.nodes[i].isLeaf() {
		n := &t.nodes[i]
		if p[n.axis] < n.mid() {
			i = n.left
		} else {
			i = n.right
		}
	}
	return i
}

// splat adds a weighted contribution to every node on the path from
// the root to the leaf containing x, so internal nodes carry the sum
// of their subtrees
func (t *tree) splat(x core.Vec2, amount, count float64) {
	p := point(x)
	i := 0
	for {
		n := &t.nodes[i]
		n.weight.Add(amount)
		n.count.Add(count)
		if n.isLeaf() {
			return
		}
		if p[n.axis] < n.mid() {
			i = n.left
		} else {
			i = n.right
		}
	}
}

func (t *tree) rootWeight() float64 {
	return t.nodes[0].weight.Load()
}

// clone returns a deep snapshot of the tree
func (t *tree) clone() *tree {
	c := &tree{dims: t.dims, nodes: make([]node, len(t.nodes))}
	for i := range t.nodes {
		src := &t.nodes[i]
		dst := &c.nodes[i]
		dst.left, dst.right = src.left, src.right
		dst.axis, dst.depth = src.axis, src.depth
		dst.lo, dst.hi = src.lo, src.hi
		dst.weight.Store(src.weight.Load())
		dst.count.Store(src.count.Load())
	}
	return c
}

// split turns a leaf into an internal node with two children, each
// inheriting half the parent's accumulators
func (t *tree) split(i int) {
	parent := t.nodes[i]
	w, c := parent.weight.Load()/2, parent.count.Load()/2
	mid := parent.mid()

	makeChild := func(lo, hi [2]float64) node {
		child := node{
			left: -1, right: -1,
			axis:  (parent.depth + 1) % t.dims,
			depth: parent.depth + 1,
			lo:    lo, hi: hi,
		}
		child.weight.Store(w)
		child.count.Store(c)
		return child
	}

	leftHi := parent.hi
	leftHi[parent.axis] = mid
	rightLo := parent.lo
	rightLo[parent.axis] = mid

	t.nodes = append(t.nodes, makeChild(parent.lo, leftHi))
	t.nodes[i].left = len(t.nodes) - 1
	t.nodes = append(t.nodes, makeChild(rightLo, parent.hi))
	t.nodes[i].right = len(t.nodes) - 1
}

// merge collapses an internal node whose children are both leaves back
// into a leaf. The parent already carries the summed accumulators.
func (t *tree) merge(i int) {
	t.nodes[i].left = -1
	t.nodes[i].right = -1
}

// refine splits hot leaves and merges cold sibling pairs against the
// root weight. Runs until no leaf is above the split threshold.
func (t *tree) refine(splitThreshold, mergeThreshold float64) {
	total := t.rootWeight()
	if total <= 0 {
		return
	}

	work := []int{0}
	for len(work) > 0 {
		i := work[len(work)-1]
		work = work[:len(work)-1]
		n := &t.nodes[i]

		if n.isLeaf() {
			if n.weight.Load()/total > splitThreshold {
				t.split(i)
				work = append(work, t.nodes[i].left, t.nodes[i].right)
			}
			continue
		}

		left, right := &t.nodes[n.left], &t.nodes[n.right]
		if left.isLeaf() && right.isLeaf() &&
			left.weight.Load()/total < mergeThreshold &&
			right.weight.Load()/total < mergeThreshold {
			t.merge(i)
			continue
		}
		work = append(work, n.left, n.right)
	}
}

// leaves calls fn for every leaf index
func (t *tree) leaves(fn func(i int)) {
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.nodes[i].isLeaf() {
			fn(i)
			continue
		}
		stack = append(stack, t.nodes[i].left, t.nodes[i].right)
	}
}
