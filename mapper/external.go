package mapper

import (
	"fmt"

	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/transform"
	"gonum.org/v1/gonum/mat"
)

// AddExternalReading inserts a new vertex referenced from an existing
// vertex known by UUID, with an "ext"-labeled edge. Fails with
// ErrDuplicateMeasurement if reading's UUID already exists in the graph.
func (m *Mapper) AddExternalReading(reading measurement.Measurement, sourceUUID measurement.UUID, t transform.Pose, cov *mat.SymDense, sensorName string) error {
	if _, exists := m.graph.VertexByUUID(reading.UUID()); exists {
		return ErrDuplicateMeasurement
	}
	source, ok := m.graph.VertexByUUID(sourceUUID)
	if !ok {
		return fmt.Errorf("%w: source uuid %s", ErrInvalidEdge, sourceUUID)
	}

	pose := source.CorrectedPose.Compose(t).Orthogonalize()
	target := m.addVertexInternal(reading, pose)
	m.addEdgeInternal(source.ID, target.ID, t, cov, sensorName, "ext")
	return nil
}

// AddExternalConstraint inserts an "ext" edge between two already-known
// vertices. Fails with ErrDuplicateEdge if an edge of the same sensor
// already connects them, or ErrInvalidEdge if either UUID is unknown.
func (m *Mapper) AddExternalConstraint(sourceUUID, targetUUID measurement.UUID, t transform.Pose, cov *mat.SymDense, sensorName string) error {
	source, ok := m.graph.VertexByUUID(sourceUUID)
	if !ok {
		return fmt.Errorf("%w: source uuid %s", ErrInvalidEdge, sourceUUID)
	}
	target, ok := m.graph.VertexByUUID(targetUUID)
	if !ok {
		return fmt.Errorf("%w: target uuid %s", ErrInvalidEdge, targetUUID)
	}

	if _, exists := m.graph.Edge(source.ID, target.ID, sensorName); exists {
		return fmt.Errorf("%w: %d -> %d (%s)", ErrDuplicateEdge, source.ID, target.ID, sensorName)
	}

	m.addEdgeInternal(source.ID, target.ID, t, cov, sensorName, "ext")
	return nil
}
