package mapper

import (
	"context"
	"fmt"

	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/sensor"
	"github.com/itohio/slam3d/transform"
)

// link builds a loop-closure edge between source and target for sensor s:
// patches on both endpoints (if patch building is enabled), a coarse
// match to seed the guess, then a fine match, and finally a "loop"-tagged
// edge carrying the fine result.
func (m *Mapper) link(source, target measurement.ID, s sensor.Port) (transform.WithCovariance, error) {
	targetVertex, ok := m.graph.VertexByID(target)
	if !ok {
		return transform.WithCovariance{}, fmt.Errorf("%w: vertex %d", ErrInvalidEdge, target)
	}
	if targetVertex.Measurement.SensorName() != s.Name() {
		return transform.WithCovariance{}, fmt.Errorf("%w: vertex %d is not sensor %s", ErrInvalidEdge, target, s.Name())
	}
	sourceVertex, ok := m.graph.VertexByID(source)
	if !ok {
		return transform.WithCovariance{}, fmt.Errorf("%w: vertex %d", ErrInvalidEdge, source)
	}

	sourceM := sourceVertex.Measurement
	targetM := targetVertex.Measurement
	if m.cfg.PatchBuildingRange > 0 {
		var err error
		sourceM, err = m.buildPatch(source, s)
		if err != nil {
			return transform.WithCovariance{}, err
		}
		targetM, err = m.buildPatch(target, s)
		if err != nil {
			return transform.WithCovariance{}, err
		}
	}

	guess := sourceVertex.CorrectedPose.Inverse().Compose(targetVertex.CorrectedPose)
	ctx := context.Background()
	coarse, err := s.CalculateTransform(ctx, sourceM, targetM, transform.WithCovariance{Transform: guess}, true)
	if err != nil {
		return transform.WithCovariance{}, err
	}
	fine, err := s.CalculateTransform(ctx, sourceM, targetM, coarse, false)
	if err != nil {
		return transform.WithCovariance{}, err
	}

	m.addEdgeInternal(source, target, fine.Transform, fine.Covariance, s.Name(), "loop")
	return fine, nil
}
