// Package mapper implements the incremental pose-graph mapper: admission
// policy, edge construction, loop-closure search, patch building, and
// optimizer orchestration. It is the core this whole module exists to
// serve; everything else — posegraph, spatialindex, graphquery, sensor,
// odometry, solver — is a supporting collaborator reached only through
// the narrow interfaces those packages define.
package mapper

import (
	"context"
	"fmt"

	"github.com/itohio/slam3d/graphquery"
	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/odometry"
	"github.com/itohio/slam3d/posegraph"
	"github.com/itohio/slam3d/sensor"
	"github.com/itohio/slam3d/solver"
	"github.com/itohio/slam3d/spatialindex"
	"github.com/itohio/slam3d/transform"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Mapper owns the pose graph, the per-sensor spatial indexes, and the
// handles to the external collaborators (sensors, solver, patch solver,
// odometry) for its entire lifetime. It offers no internal locking:
// callers serialize their own access.
type Mapper struct {
	graph   *posegraph.Graph
	sensors map[string]sensor.Port
	solver  solver.Port
	patch   solver.Port
	odom    odometry.Port
	log     zerolog.Logger
	clock   Clock
	cfg     Config

	indexes map[string]*spatialindex.Index

	haveLast     bool
	lastVertexID measurement.ID
	lastOdomPose transform.Pose
	currentPose  transform.Pose
	optimized    bool
}

// New creates a mapper with its root vertex already inserted: id 0,
// identity pose, existing from construction onward.
func New(log zerolog.Logger, cfg Config) *Mapper {
	m := &Mapper{
		graph:       posegraph.New(),
		sensors:     make(map[string]sensor.Port),
		log:         log,
		clock:       systemClock{},
		cfg:         cfg,
		indexes:     make(map[string]*spatialindex.Index),
		currentPose: transform.Identity(),
	}
	root := m.graph.AddVertex(posegraph.Vertex{
		ID:            m.graph.NextID(),
		Label:         "root",
		CorrectedPose: transform.Identity(),
		Measurement:   measurement.NewOrigin(m.clock.Now()),
	})
	m.log.Debug().Uint64("vertex", uint64(root.ID)).Msg("created root vertex")
	return m
}

// SetClock overrides the mapper's time source. The root vertex is created
// in New with the system clock, so a clock set here does not change the
// root measurement's timestamp, and no later mapper operation reads it.
func (m *Mapper) SetClock(c Clock) { m.clock = c }

// SetSolver attaches the main optimizer driven incrementally during insertion.
func (m *Mapper) SetSolver(s solver.Port) {
	m.solver = s
	if s != nil {
		root, _ := m.graph.VertexByID(measurement.RootID)
		s.AddNode(root.ID, root.CorrectedPose)
		s.SetFixed(root.ID)
	}
}

// SetPatchSolver attaches the scratch solver used for local patch relaxation.
func (m *Mapper) SetPatchSolver(s solver.Port) { m.patch = s }

// SetOdometry attaches the dead-reckoning source; nil means "odometry-free".
func (m *Mapper) SetOdometry(o odometry.Port) { m.odom = o }

// RegisterSensor adds s to the mapper's sensor registry, keyed by its
// Name(), rejecting a duplicate name with ErrSensorExists. No mutex
// guards the registry since all mapper operations are caller-serialized.
func (m *Mapper) RegisterSensor(s sensor.Port) error {
	if _, exists := m.sensors[s.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrSensorExists, s.Name())
	}
	m.sensors[s.Name()] = s
	return nil
}

// Graph exposes the underlying pose graph for read-only queries.
func (m *Mapper) Graph() *posegraph.Graph { return m.graph }

// Vertex looks up a vertex by id.
func (m *Mapper) Vertex(id measurement.ID) (posegraph.Vertex, bool) { return m.graph.VertexByID(id) }

// VertexByUUID looks up a vertex by its measurement's UUID.
func (m *Mapper) VertexByUUID(u measurement.UUID) (posegraph.Vertex, bool) {
	return m.graph.VertexByUUID(u)
}

// VerticesFromSensor returns every vertex whose measurement names sensor.
func (m *Mapper) VerticesFromSensor(sensorName string) []posegraph.Vertex {
	return m.graph.VerticesBySensor(sensorName)
}

// EdgesFromSensor returns every edge tagged with sensorName.
func (m *Mapper) EdgesFromSensor(sensorName string) []posegraph.Edge {
	var out []posegraph.Edge
	for _, e := range m.graph.Edges() {
		if e.Sensor == sensorName {
			out = append(out, e)
		}
	}
	return out
}

// Edge looks up the out-edge from source to target tagged with sensorName.
func (m *Mapper) Edge(source, target measurement.ID, sensorName string) (posegraph.Edge, bool) {
	return m.graph.Edge(source, target, sensorName)
}

// OutEdges returns every edge leaving id.
func (m *Mapper) OutEdges(id measurement.ID) []posegraph.Edge {
	return m.graph.OutEdges(id)
}

// CurrentPose composes the last admitted vertex's corrected pose with the
// pose estimated since, or returns that running estimate alone before any
// reading has been admitted.
func (m *Mapper) CurrentPose() transform.Pose {
	if !m.haveLast {
		return m.currentPose
	}
	last, _ := m.graph.VertexByID(m.lastVertexID)
	return last.CorrectedPose.Compose(m.currentPose)
}

// Optimized reports whether optimize() has ever completed successfully.
func (m *Mapper) Optimized() bool { return m.optimized }

func belowThreshold(rel transform.Pose, minTranslation, minRotation float64) bool {
	return rel.Translation.Norm() < minTranslation && rel.Rotation.Angle() < minRotation
}

func (m *Mapper) addVertexInternal(reading measurement.Measurement, corrected transform.Pose) posegraph.Vertex {
	id := m.graph.NextID()
	label := fmt.Sprintf("%s:%s(%d)", reading.RobotName(), reading.SensorName(), id)
	v := m.graph.AddVertex(posegraph.Vertex{ID: id, Label: label, CorrectedPose: corrected, Measurement: reading})
	if m.solver != nil {
		m.solver.AddNode(id, corrected)
	}
	m.log.Info().Uint64("vertex", uint64(id)).Str("robot", reading.RobotName()).Str("sensor", reading.SensorName()).Msg("created vertex")
	return v
}

func (m *Mapper) addEdgeInternal(source, target measurement.ID, t transform.Pose, cov *mat.SymDense, sensorName, label string) {
	if err := m.graph.AddEdge(source, target, t, cov, sensorName, label); err != nil {
		m.log.Error().Err(err).Msg("failed to insert edge, this is a bug")
		return
	}
	if m.solver != nil {
		m.solver.AddConstraint(source, target, t, cov)
	}
	m.log.Info().Uint64("source", uint64(source)).Uint64("target", uint64(target)).Str("label", label).Msg("created edge")
}

// rebuildIndex rebuilds the spatial index for sensorName from every
// vertex currently tagged with it, rebuilt lazily per insert rather than
// maintained incrementally.
func (m *Mapper) rebuildIndex(sensorName string) {
	vertices := m.graph.VerticesBySensor(sensorName)
	points := make([]spatialindex.Point, 0, len(vertices))
	for _, v := range vertices {
		points = append(points, spatialindex.Point{ID: v.ID, Position: v.CorrectedPose.Translation})
	}
	idx, ok := m.indexes[sensorName]
	if !ok {
		idx = spatialindex.New()
		m.indexes[sensorName] = idx
	}
	idx.Build(points)
}

// AddReading runs a single reading through the admission policy: fetch
// odometry, check motion thresholds, scan-match against the previous
// vertex (or a built patch), and admit a new vertex and edge on success.
// added is false with err == nil for a locally-recovered rejection
// (no-match, odometry unavailable, below-threshold motion); err is
// non-nil only for a propagating failure (unknown sensor,
// add_odometry_edges without odometry, a sensor error other than
// no-match, a patch-building error).
func (m *Mapper) AddReading(ctx context.Context, reading measurement.Measurement, force bool) (added bool, err error) {
	sensorName := reading.SensorName()
	s, ok := m.sensors[sensorName]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSensor, sensorName)
	}

	haveOdom := m.odom != nil
	var odomNow transform.Pose
	if haveOdom {
		odomNow, err = m.odom.Pose(ctx, reading.Timestamp())
		if err != nil {
			m.log.Warn().Err(err).Msg("could not get odometry data")
			return false, nil
		}
	}

	if !m.haveLast {
		corrected := transform.Identity()
		if m.cfg.UseOdometryHeading && haveOdom {
			corrected = transform.Pose{Translation: transform.Vector3{}, Rotation: odomNow.Rotation}
		}
		v := m.addVertexInternal(reading, corrected)
		m.haveLast = true
		m.lastVertexID = v.ID
		if haveOdom {
			m.lastOdomPose = odomNow
		}
		m.addEdgeInternal(measurement.RootID, v.ID, corrected, transform.IdentityCovariance(100), "none", "root-link")
		m.log.Info().Msg("added first node to the graph")

		m.rebuildIndex(sensorName)
		m.linkToNeighbors(v.ID, s)
		m.currentPose = transform.Identity()
		return true, nil
	}

	last, _ := m.graph.VertexByID(m.lastVertexID)

	odomDist := transform.Identity()
	if haveOdom {
		odomDist = m.lastOdomPose.Inverse().Compose(odomNow).Orthogonalize()
		m.currentPose = odomDist
		minT, minR := m.cfg.minPoseDistance(s)
		if !force && belowThreshold(odomDist, minT, minR) {
			return false, nil
		}
	}

	var newVertexID measurement.ID
	haveNewVertex := false
	if m.cfg.AddOdometryEdges {
		if !haveOdom {
			return false, ErrOdometryConfig
		}
		corrected := last.CorrectedPose.Compose(m.currentPose).Orthogonalize()
		v := m.addVertexInternal(reading, corrected)
		newVertexID = v.ID
		haveNewVertex = true
		odomCov := m.odom.Covariance(odomDist)
		m.addEdgeInternal(m.lastVertexID, newVertexID, odomDist, odomCov, "Odometry", "odom")
	}

	targetMeasurement := last.Measurement
	if m.cfg.PatchBuildingRange > 0 {
		patched, perr := m.buildPatch(m.lastVertexID, s)
		if perr != nil {
			return false, perr
		}
		targetMeasurement = patched
	}

	twc, matchErr := s.CalculateTransform(ctx, targetMeasurement, reading, transform.WithCovariance{Transform: m.currentPose}, false)
	if matchErr != nil {
		if !sensor.IsNoMatch(matchErr) {
			return false, matchErr
		}
		if !haveNewVertex {
			m.log.Warn().Err(matchErr).Msg("measurement could not be matched and no odometry was available")
			return false, nil
		}
		m.log.Warn().Err(matchErr).Uint64("vertex", uint64(newVertexID)).Msg("failed to match new vertex to previous")
	} else {
		m.currentPose = twc.Transform
		if haveNewVertex {
			m.graph.SetCorrectedPose(newVertexID, last.CorrectedPose.Compose(twc.Transform).Orthogonalize())
		} else {
			minT, minR := m.cfg.minPoseDistance(s)
			if !force && belowThreshold(twc.Transform, minT, minR) {
				return false, nil
			}
			v := m.addVertexInternal(reading, last.CorrectedPose.Compose(twc.Transform).Orthogonalize())
			newVertexID = v.ID
			haveNewVertex = true
		}
		m.addEdgeInternal(m.lastVertexID, newVertexID, twc.Transform, twc.Covariance, sensorName, "seq")
	}

	m.rebuildIndex(sensorName)
	m.linkToNeighbors(newVertexID, s)

	m.lastVertexID = newVertexID
	if haveOdom {
		m.lastOdomPose = odomNow
	}
	m.currentPose = transform.Identity()
	return true, nil
}

// linkToNeighbors searches the spatial index for nearby vertices from the
// same sensor and attempts a loop-closure link to each graph-distant
// candidate, up to the configured per-insertion cap.
func (m *Mapper) linkToNeighbors(vertexID measurement.ID, s sensor.Port) {
	excluded := map[measurement.ID]bool{vertexID: true}
	for _, e := range m.graph.OutEdges(vertexID) {
		if e.Sensor == s.Name() {
			excluded[e.Target] = true
		}
	}

	v, _ := m.graph.VertexByID(vertexID)
	idx := m.indexes[s.Name()]
	if idx == nil {
		return
	}
	candidates := idx.RadiusSearch(v.CorrectedPose.Translation, m.cfg.NeighborRadius)

	count := 0
	for _, c := range candidates {
		if count >= m.cfg.MaxNeighborLinks {
			break
		}
		if excluded[c.ID] {
			continue
		}
		d := graphquery.Distance(m.graph, c.ID, vertexID)
		m.log.Debug().Uint64("candidate", uint64(c.ID)).Uint64("vertex", uint64(vertexID)).Float64("distance", d).Msg("graph distance to loop-closure candidate")
		if d < float64(2*m.cfg.PatchBuildingRange) {
			continue
		}
		count++
		if _, linkErr := m.link(c.ID, vertexID, s); linkErr != nil {
			if sensor.IsNoMatch(linkErr) {
				m.log.Warn().Err(linkErr).Uint64("source", uint64(c.ID)).Uint64("target", uint64(vertexID)).Msg("failed to match loop-closure candidate")
				continue
			}
			m.log.Error().Err(linkErr).Msg("loop closure link failed")
		}
	}
}
