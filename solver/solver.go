// Package solver defines the narrow contract to an external nonlinear
// pose-graph optimizer. The core drives a solver incrementally —
// add_node/add_constraint during insertion, compute/get_corrections on
// demand — and never reaches into its internals.
package solver

import (
	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/transform"
	"gonum.org/v1/gonum/mat"
)

// Correction is one entry of get_corrections(): the solver's updated
// estimate for a single vertex id.
type Correction struct {
	ID   measurement.ID
	Pose transform.Pose
}

// Port is the solver capability set the mapper relies on.
type Port interface {
	AddNode(id measurement.ID, initial transform.Pose)
	AddConstraint(src, dst measurement.ID, t transform.Pose, cov *mat.SymDense)
	SetFixed(id measurement.ID)
	Clear()
	Compute() error
	Corrections() []Correction
}
