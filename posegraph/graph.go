// Package posegraph implements the typed directed multi-graph of pose
// vertices and transform edges: O(1) amortized insertion and id/UUID
// lookup, O(deg) out-edge iteration, symmetric forward/inverse edge
// pairs.
//
// The graph itself holds no lock: all mapper operations are serialized
// by the caller.
package posegraph

import (
	"fmt"

	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/transform"
	"gonum.org/v1/gonum/mat"
)

// Vertex is a pose-graph vertex: a corrected pose anchored by the
// measurement that created it.
type Vertex struct {
	ID            measurement.ID
	Label         string
	CorrectedPose transform.Pose
	Measurement   measurement.Measurement
}

// Edge is one directed half of a symmetric transform-constraint pair.
type Edge struct {
	Source     measurement.ID
	Target     measurement.ID
	Transform  transform.Pose
	Covariance *mat.SymDense
	Sensor     string
	Label      string
}

// Graph is the pose graph: vertices keyed by id, with a secondary UUID
// index, and an adjacency list of out-edges per vertex.
type Graph struct {
	vertices map[measurement.ID]Vertex
	byUUID   map[measurement.UUID]measurement.ID
	outEdges map[measurement.ID][]Edge
	nextID   measurement.ID
}

// New creates an empty graph. The root vertex (id 0) is not added here —
// the mapper is responsible for creating it, since it owns the root's
// measurement and initial covariance.
func New() *Graph {
	return &Graph{
		vertices: make(map[measurement.ID]Vertex),
		byUUID:   make(map[measurement.UUID]measurement.ID),
		outEdges: make(map[measurement.ID][]Edge),
	}
}

// NextID allocates and returns the next vertex id without inserting anything.
func (g *Graph) NextID() measurement.ID {
	id := g.nextID
	g.nextID++
	return id
}

// AddVertex inserts v into the graph. The caller is expected to have
// allocated v.ID via NextID (or used RootID exactly once).
func (g *Graph) AddVertex(v Vertex) Vertex {
	g.vertices[v.ID] = v
	g.byUUID[v.Measurement.UUID()] = v.ID
	if _, ok := g.outEdges[v.ID]; !ok {
		g.outEdges[v.ID] = nil
	}
	return v
}

// AddEdge inserts the forward edge (source->target) and its symmetric
// inverse (target->source) with the inverted transform, same covariance,
// sensor and label.
func (g *Graph) AddEdge(source, target measurement.ID, t transform.Pose, cov *mat.SymDense, sensor, label string) error {
	if _, ok := g.vertices[source]; !ok {
		return fmt.Errorf("posegraph: unknown source vertex %d", source)
	}
	if _, ok := g.vertices[target]; !ok {
		return fmt.Errorf("posegraph: unknown target vertex %d", target)
	}
	forward := Edge{Source: source, Target: target, Transform: t, Covariance: cov, Sensor: sensor, Label: label}
	inverse := Edge{Source: target, Target: source, Transform: t.Inverse(), Covariance: cov, Sensor: sensor, Label: label}
	g.outEdges[source] = append(g.outEdges[source], forward)
	g.outEdges[target] = append(g.outEdges[target], inverse)
	return nil
}

// VertexByID looks up a vertex by id.
func (g *Graph) VertexByID(id measurement.ID) (Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// VertexByUUID looks up a vertex by its measurement's UUID.
func (g *Graph) VertexByUUID(u measurement.UUID) (Vertex, bool) {
	id, ok := g.byUUID[u]
	if !ok {
		return Vertex{}, false
	}
	return g.VertexByID(id)
}

// SetCorrectedPose overwrites a vertex's corrected pose in place, as done
// by the mapper when applying solver corrections.
func (g *Graph) SetCorrectedPose(id measurement.ID, p transform.Pose) bool {
	v, ok := g.vertices[id]
	if !ok {
		return false
	}
	v.CorrectedPose = p
	g.vertices[id] = v
	return true
}

// OutEdges returns all edges leaving id, in insertion order.
func (g *Graph) OutEdges(id measurement.ID) []Edge {
	return g.outEdges[id]
}

// Edge returns the out-edge from source to target tagged with sensor, if any.
func (g *Graph) Edge(source, target measurement.ID, sensor string) (Edge, bool) {
	for _, e := range g.outEdges[source] {
		if e.Target == target && e.Sensor == sensor {
			return e, true
		}
	}
	return Edge{}, false
}

// Vertices returns every vertex in the graph, order unspecified.
func (g *Graph) Vertices() []Vertex {
	out := make([]Vertex, 0, len(g.vertices))
	for _, v := range g.vertices {
		out = append(out, v)
	}
	return out
}

// VerticesBySensor returns every vertex whose measurement's sensor name
// matches sensor.
func (g *Graph) VerticesBySensor(sensor string) []Vertex {
	var out []Vertex
	for _, v := range g.vertices {
		if v.Measurement.SensorName() == sensor {
			out = append(out, v)
		}
	}
	return out
}

// Edges returns every directed edge (both halves of every symmetric pair).
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, es := range g.outEdges {
		out = append(out, es...)
	}
	return out
}

// Len returns the number of vertices in the graph.
func (g *Graph) Len() int {
	return len(g.vertices)
}
