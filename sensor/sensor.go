// Package sensor defines the narrow contract the mapper uses to talk to a
// sensor-specific scan matcher. Concrete sensors — point cloud matchers,
// line-scan matchers, etc — are external collaborators; the core only
// ever sees this interface.
package sensor

import (
	"context"
	"errors"
	"fmt"

	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/transform"
)

// Port is the sensor capability set the mapper relies on.
type Port interface {
	// Name returns the sensor's unique name, used to tag measurements and edges.
	Name() string
	// SensorPose returns the sensor's fixed extrinsic pose in the robot frame.
	SensorPose() transform.Pose
	// CalculateTransform estimates the transform aligning source to target.
	// coarse requests a fast, lower-quality estimate (used for the first
	// pass of a loop-closure link, before a full scan match confirms it).
	CalculateTransform(ctx context.Context, source, target measurement.Measurement, guess transform.WithCovariance, coarse bool) (transform.WithCovariance, error)
	// CreateCombinedMeasurement builds a virtual measurement aggregating
	// the vertices' readings, expressed in origin's frame.
	CreateCombinedMeasurement(ctx context.Context, vertices []Vertex, origin transform.Pose) (measurement.Measurement, error)
	// MinPoseDistance returns the admission thresholds for this sensor.
	MinPoseDistance() (translation, rotation float64)
}

// Vertex is the minimal view of a posegraph.Vertex a sensor needs to build
// a combined measurement, avoiding an import cycle with package posegraph.
type Vertex struct {
	ID            measurement.ID
	CorrectedPose transform.Pose
	Measurement   measurement.Measurement
}

// ErrBadMeasurementType is raised when a measurement from a different
// sensor is supplied to CalculateTransform or CreateCombinedMeasurement.
var ErrBadMeasurementType = errors.New("sensor: measurement type does not match sensor")

// NoMatchError reports that two measurements could not be aligned within
// the sensor's internal tolerances. It is recovered locally by the
// mapper, not fatal on its own.
type NoMatchError struct {
	Reason string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("sensor: no match: %s", e.Reason)
}

// IsNoMatch reports whether err is (or wraps) a NoMatchError.
func IsNoMatch(err error) bool {
	var nm *NoMatchError
	return errors.As(err, &nm)
}
