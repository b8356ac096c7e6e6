// Package odometry defines the narrow contract to an optional dead-
// reckoning source. When no Port is attached, the mapper operates
// "odometry-free" and admission decisions fall back to the scan-match
// result.
package odometry

import (
	"context"
	"errors"
	"time"

	"github.com/itohio/slam3d/transform"
	"gonum.org/v1/gonum/mat"
)

// Port is the odometry capability set the mapper relies on.
type Port interface {
	// Pose returns the odometric pose estimate for the given timestamp.
	Pose(ctx context.Context, at time.Time) (transform.Pose, error)
	// Covariance estimates the uncertainty of a relative motion.
	Covariance(rel transform.Pose) *mat.SymDense
}

// ErrNoData is returned by Pose when no odometry sample covers the
// requested timestamp.
var ErrNoData = errors.New("odometry: no data for requested timestamp")
