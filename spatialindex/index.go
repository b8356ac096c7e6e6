// Package spatialindex provides the radius-search-over-translations index
// used by loop-closure candidate search: a static k-d tree, float64
// throughout, fixed to 3 dimensions (translation only, no orientation),
// with a vertex id payload on every point so a query returns graph ids
// rather than bare coordinates. Its subtree-pruning rule generalizes the
// usual nearest-neighbor pruning ("prune if farther than the current
// best") to "prune if the splitting plane is farther than the query
// radius".
package spatialindex

import (
	"math"
	"sort"

	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/transform"
)

const dims = 3

// Point is one indexed location: a vertex id at a 3-D translation.
type Point struct {
	ID       measurement.ID
	Position transform.Vector3
}

type node struct {
	point     Point
	dimension int
	left      *node
	right     *node
}

// Index is a static k-d tree over vertex translations. It is immutable
// once built; the mapper rebuilds it (via Build) whenever a sensor gains
// new vertices, rather than paying for incremental rebalancing.
type Index struct {
	root  *node
	count int
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Build replaces the index's contents with the given points.
func (idx *Index) Build(points []Point) {
	idx.root = buildTree(points, 0)
	idx.count = len(points)
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	return idx.count
}

func buildTree(points []Point, depth int) *node {
	if len(points) == 0 {
		return nil
	}
	dimension := depth % dims
	medianIdx := findMedian(points, dimension)
	median := points[medianIdx]

	var left, right []Point
	for i, p := range points {
		if i == medianIdx {
			continue
		}
		if p.Position[dimension] <= median.Position[dimension] {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}

	return &node{
		point:     median,
		dimension: dimension,
		left:      buildTree(left, depth+1),
		right:     buildTree(right, depth+1),
	}
}

func findMedian(points []Point, dimension int) int {
	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(i, j int) bool {
		return points[indices[i]].Position[dimension] < points[indices[j]].Position[dimension]
	})
	return indices[len(indices)/2]
}

// RadiusSearch returns every indexed point within radius of query,
// ordered by ascending distance — the "nearby vertices" query used to
// seed loop-closure candidates.
func (idx *Index) RadiusSearch(query transform.Vector3, radius float64) []Point {
	if idx.root == nil || radius < 0 {
		return nil
	}
	var out []Point
	radiusSearchRecursive(idx.root, query, radius, &out)
	sort.Slice(out, func(i, j int) bool {
		return query.Distance(out[i].Position) < query.Distance(out[j].Position)
	})
	return out
}

func radiusSearchRecursive(n *node, query transform.Vector3, radius float64, out *[]Point) {
	if n == nil {
		return
	}

	if query.Distance(n.point.Position) <= radius {
		*out = append(*out, n.point)
	}

	dim := n.dimension
	diff := query[dim] - n.point.Position[dim]

	var near, far *node
	if diff <= 0 {
		near, far = n.left, n.right
	} else {
		near, far = n.right, n.left
	}

	radiusSearchRecursive(near, query, radius, out)
	if math.Abs(diff) <= radius {
		radiusSearchRecursive(far, query, radius, out)
	}
}
