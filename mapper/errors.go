package mapper

import (
	"errors"
	"fmt"

	"github.com/itohio/slam3d/measurement"
)

// Sentinel errors for the propagating error kinds. A failed scan match or
// a missing odometry sample are recovered locally inside AddReading (they
// surface as added=false, err=nil) and so have no exported sentinel here.
var (
	// ErrUnknownSensor is returned when a reading names a sensor that was
	// never registered with RegisterSensor.
	ErrUnknownSensor = errors.New("mapper: sensor not registered")
	// ErrSensorExists is returned by RegisterSensor for a duplicate name.
	ErrSensorExists = errors.New("mapper: sensor already registered")
	// ErrNoSolver is returned by optimize() when no solver is attached.
	ErrNoSolver = errors.New("mapper: no solver attached")
	// ErrOdometryConfig flags add_odometry_edges=true with no odometry
	// attached, treated as a configuration error rather than a panic.
	ErrOdometryConfig = errors.New("mapper: add_odometry_edges requires an attached odometry source")
	// ErrDuplicateMeasurement is returned by AddExternalReading when the
	// measurement's UUID already exists in the graph.
	ErrDuplicateMeasurement = errors.New("mapper: measurement UUID already exists")
	// ErrDuplicateEdge is returned by AddExternalConstraint when an edge
	// of the same sensor already connects the two vertices.
	ErrDuplicateEdge = errors.New("mapper: edge already exists for this sensor")
	// ErrInvalidEdge is returned when a queried edge, or a UUID used to
	// look one up, does not exist.
	ErrInvalidEdge = errors.New("mapper: edge or vertex does not exist")
)

// UnknownVertexError reports a solver-side id with no matching graph
// vertex — logged, not fatal.
type UnknownVertexError struct {
	ID measurement.ID
}

func (e *UnknownVertexError) Error() string {
	return fmt.Sprintf("mapper: vertex %d does not exist", e.ID)
}
