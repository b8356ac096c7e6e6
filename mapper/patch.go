package mapper

import (
	"context"

	"github.com/itohio/slam3d/graphquery"
	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/posegraph"
	"github.com/itohio/slam3d/sensor"
)

// buildPatch assembles a virtual measurement summarizing a local region
// of the graph: collect the local subgraph for sensor s around source via
// filtered BFS, relax it through the (optional) patch solver against
// local copies of the vertex objects only, then hand the result to the
// sensor's CreateCombinedMeasurement. The main graph is never mutated
// here.
func (m *Mapper) buildPatch(source measurement.ID, s sensor.Port) (measurement.Measurement, error) {
	ids := graphquery.FilteredBFS(m.graph, source, s.Name(), m.cfg.PatchBuildingRange)

	inRange := make(map[measurement.ID]bool, len(ids))
	for _, id := range ids {
		inRange[id] = true
	}

	vertices := make([]posegraph.Vertex, 0, len(ids))
	for _, id := range ids {
		v, ok := m.graph.VertexByID(id)
		if !ok {
			continue
		}
		vertices = append(vertices, v)
	}

	if m.patch != nil {
		m.patch.Clear()
		for _, v := range vertices {
			m.patch.AddNode(v.ID, v.CorrectedPose)
		}
		for _, v := range vertices {
			for _, e := range m.graph.OutEdges(v.ID) {
				if inRange[e.Target] {
					m.patch.AddConstraint(v.ID, e.Target, e.Transform, e.Covariance)
				}
			}
		}
		m.patch.SetFixed(source)
		if err := m.patch.Compute(); err != nil {
			m.log.Error().Err(err).Msg("patch solver failed to compute")
		} else {
			for i, c := range m.patch.Corrections() {
				applied := false
				for j, v := range vertices {
					if v.ID == c.ID {
						vertices[j].CorrectedPose = c.Pose
						applied = true
						break
					}
				}
				if !applied {
					m.log.Error().Int("index", i).Uint64("vertex", uint64(c.ID)).Msg("could not apply patch-solver result, this is a bug")
				}
			}
		}
	}

	sourceVertex, _ := m.graph.VertexByID(source)
	converted := make([]sensor.Vertex, len(vertices))
	for i, v := range vertices {
		converted[i] = sensor.Vertex{ID: v.ID, CorrectedPose: v.CorrectedPose, Measurement: v.Measurement}
	}
	return s.CreateCombinedMeasurement(context.Background(), converted, sourceVertex.CorrectedPose)
}
