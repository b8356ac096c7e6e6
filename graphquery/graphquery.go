// Package graphquery implements the two traversal primitives the mapper
// runs over a posegraph.Graph: a depth- and sensor-filtered breadth-first
// search used to gather a loop-closure patch's local subgraph, and a
// weighted shortest path used to decide whether a candidate loop closure
// is already cheaply reachable through existing edges.
//
// The shortest path is computed by adapting posegraph.Graph to the
// generic graph.Graph/graph.Dijkstra machinery in pkg/core/math/graph
// rather than reimplementing a priority-queue search.
package graphquery

import (
	"math"

	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/pkg/core/math/graph"
	"github.com/itohio/slam3d/posegraph"
)

// odometryWeight is the edge weight assigned to edges tagged with the
// root's "none" sensor (the mapper's root-link): steep enough that a
// Dijkstra search strongly prefers a path through other edges over a
// detour through the root. Every other edge, including the mapper's
// "Odometry"-tagged edges, costs defaultWeight.
const odometryWeight = 100.0
const defaultWeight = 1.0

// vertexNode adapts a measurement.ID to graph.Node.
type vertexNode measurement.ID

func (n vertexNode) Equal(other graph.Node) bool {
	o, ok := other.(vertexNode)
	return ok && o == n
}

// adapter presents a posegraph.Graph as a graph.Graph for the generic
// Dijkstra search, assigning weight by originating sensor.
type adapter struct {
	g *posegraph.Graph
}

func (a adapter) Neighbors(n graph.Node) []graph.Node {
	id := measurement.ID(n.(vertexNode))
	edges := a.g.OutEdges(id)
	out := make([]graph.Node, 0, len(edges))
	for _, e := range edges {
		out = append(out, vertexNode(e.Target))
	}
	return out
}

func (a adapter) Cost(from, to graph.Node) float32 {
	source := measurement.ID(from.(vertexNode))
	target := measurement.ID(to.(vertexNode))
	for _, e := range a.g.OutEdges(source) {
		if e.Target == target {
			if e.Sensor == "none" {
				return odometryWeight
			}
			return defaultWeight
		}
	}
	return defaultWeight
}

// Dijkstra finds the lowest-weight path from start to goal. ok is false
// if no path exists. The returned path includes both endpoints.
func Dijkstra(g *posegraph.Graph, start, goal measurement.ID) (path []measurement.ID, ok bool) {
	d := graph.NewDijkstra(adapter{g: g})
	found := d.Search(vertexNode(start), vertexNode(goal))
	if found == nil {
		return nil, false
	}
	path = make([]measurement.ID, len(found))
	for i, n := range found {
		path[i] = measurement.ID(n.(vertexNode))
	}
	return path, true
}

// Distance returns the weighted shortest-path length from start to goal
// (sum of Cost along the Dijkstra path), or +Inf if goal is unreachable.
func Distance(g *posegraph.Graph, start, goal measurement.ID) float64 {
	if start == goal {
		return 0
	}
	a := adapter{g: g}
	path, ok := Dijkstra(g, start, goal)
	if !ok {
		return math.Inf(1)
	}
	var total float64
	for i := 0; i+1 < len(path); i++ {
		total += float64(a.Cost(vertexNode(path[i]), vertexNode(path[i+1])))
	}
	return total
}

// FilteredBFS collects every vertex reachable from start within maxDepth
// hops, following only edges whose Sensor matches sensorFilter (or every
// edge, when sensorFilter is empty) — the local-subgraph gathering step of
// patch building.
func FilteredBFS(g *posegraph.Graph, start measurement.ID, sensorFilter string, maxDepth int) []measurement.ID {
	visited := map[measurement.ID]int{start: 0}
	order := []measurement.ID{start}
	queue := []measurement.ID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		depth := visited[current]
		if depth >= maxDepth {
			continue
		}
		for _, e := range g.OutEdges(current) {
			if sensorFilter != "" && e.Sensor != sensorFilter {
				continue
			}
			if _, seen := visited[e.Target]; seen {
				continue
			}
			visited[e.Target] = depth + 1
			order = append(order, e.Target)
			queue = append(queue, e.Target)
		}
	}

	return order
}
