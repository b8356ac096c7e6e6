package solver

import (
	"sort"
	"sync"

	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/transform"
	"gonum.org/v1/gonum/mat"
)

// constraint is one logical edge as seen by the solver: source, target,
// the relative transform and its covariance.
type constraint struct {
	src, dst measurement.ID
	t        transform.Pose
	cov      *mat.SymDense
}

// Reference is a small, dependency-light pose-graph relaxation solver: not
// a production nonlinear least-squares engine, but a Port implementation
// good enough to drive the mapper's own tests and the CLI's demo mode.
// It iteratively nudges every non-fixed node toward the average of what
// its incident constraints predict, weighted by the inverse trace of each
// constraint's covariance — higher-confidence edges pull harder. It
// guards its state with a mutex since a solver may be swapped or queried
// from outside the mapper's single-writer thread.
type Reference struct {
	mu          sync.Mutex
	nodes       map[measurement.ID]transform.Pose
	fixed       map[measurement.ID]bool
	constraints []constraint
	corrections []Correction

	// Iterations bounds the relaxation passes; zero uses a sane default.
	Iterations int
}

// NewReference creates an empty reference solver.
func NewReference() *Reference {
	return &Reference{
		nodes: make(map[measurement.ID]transform.Pose),
		fixed: make(map[measurement.ID]bool),
	}
}

func (r *Reference) AddNode(id measurement.ID, initial transform.Pose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[id] = initial
}

func (r *Reference) AddConstraint(src, dst measurement.ID, t transform.Pose, cov *mat.SymDense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constraints = append(r.constraints, constraint{src: src, dst: dst, t: t, cov: transform.CloneCovariance(cov)})
}

func (r *Reference) SetFixed(id measurement.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixed[id] = true
}

func (r *Reference) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = make(map[measurement.ID]transform.Pose)
	r.fixed = make(map[measurement.ID]bool)
	r.constraints = nil
	r.corrections = nil
}

func weightOf(cov *mat.SymDense) float64 {
	if cov == nil {
		return 1
	}
	n := cov.SymmetricDim()
	var trace float64
	for i := 0; i < n; i++ {
		trace += cov.At(i, i)
	}
	if trace <= 0 {
		return 1
	}
	return 1 / trace
}

// Compute runs a bounded number of relaxation passes over the stored
// constraints, then snapshots the result into Corrections().
func (r *Reference) Compute() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	iterations := r.Iterations
	if iterations <= 0 {
		iterations = 20
	}

	for iter := 0; iter < iterations; iter++ {
		type accum struct {
			translation transform.Vector3
			rotation    transform.Quaternion
			weight      float64
		}
		accumulated := make(map[measurement.ID]*accum)

		add := func(id measurement.ID, p transform.Pose, w float64) {
			if r.fixed[id] {
				return
			}
			a, ok := accumulated[id]
			if !ok {
				a = &accum{}
				accumulated[id] = a
			}
			a.translation = a.translation.Add(p.Translation.Scale(w))
			a.rotation[0] += p.Rotation[0] * w
			a.rotation[1] += p.Rotation[1] * w
			a.rotation[2] += p.Rotation[2] * w
			a.rotation[3] += p.Rotation[3] * w
			a.weight += w
		}

		for _, c := range r.constraints {
			srcPose, okSrc := r.nodes[c.src]
			dstPose, okDst := r.nodes[c.dst]
			if !okSrc || !okDst {
				continue
			}
			w := weightOf(c.cov)
			add(c.dst, srcPose.Compose(c.t), w)
			add(c.src, dstPose.Compose(c.t.Inverse()), w)
		}

		for id, a := range accumulated {
			if a.weight == 0 {
				continue
			}
			p := transform.Pose{
				Translation: a.translation.Scale(1 / a.weight),
				Rotation:    transform.Quaternion{a.rotation[0] / a.weight, a.rotation[1] / a.weight, a.rotation[2] / a.weight, a.rotation[3] / a.weight},
			}
			r.nodes[id] = p.Orthogonalize()
		}
	}

	ids := make([]measurement.ID, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	r.corrections = r.corrections[:0]
	for _, id := range ids {
		r.corrections = append(r.corrections, Correction{ID: id, Pose: r.nodes[id]})
	}
	return nil
}

func (r *Reference) Corrections() []Correction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Correction, len(r.corrections))
	copy(out, r.corrections)
	return out
}

var _ Port = (*Reference)(nil)
