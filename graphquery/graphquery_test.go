package graphquery

import (
	"math"
	"testing"
	"time"

	"github.com/itohio/slam3d/internal/testutil"
	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/posegraph"
	"github.com/itohio/slam3d/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toInts(ids []measurement.ID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func buildChain(t *testing.T) *posegraph.Graph {
	t.Helper()
	g := posegraph.New()
	now := time.Now()
	step := transform.Pose{Translation: transform.Vector3{1, 0, 0}, Rotation: transform.IdentityQuaternion()}
	cov := transform.IdentityCovariance(1e-3)

	prev := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("lidar", now, transform.Identity())})
	for i := 0; i < 3; i++ {
		next := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("lidar", now, transform.Identity())})
		require.NoError(t, g.AddEdge(prev.ID, next.ID, step, cov, "lidar", "odom"))
		prev = next
	}
	return g
}

func TestDijkstraFindsPath(t *testing.T) {
	g := buildChain(t)
	path, ok := Dijkstra(g, 0, 3)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2, 3}, toInts(path))
}

func TestDijkstraNoPath(t *testing.T) {
	g := buildChain(t)
	extra := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("lidar", time.Now(), transform.Identity())})
	_, ok := Dijkstra(g, 0, extra.ID)
	assert.False(t, ok)
}

func TestDijkstraPrefersSensorEdgesOverOdometry(t *testing.T) {
	g := posegraph.New()
	now := time.Now()
	step := transform.Pose{Translation: transform.Vector3{1, 0, 0}, Rotation: transform.IdentityQuaternion()}
	cov := transform.IdentityCovariance(1e-3)

	a := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("none", now, transform.Identity())})
	b := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("none", now, transform.Identity())})
	c := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("none", now, transform.Identity())})

	require.NoError(t, g.AddEdge(a.ID, b.ID, step, cov, "none", "odom"))
	require.NoError(t, g.AddEdge(a.ID, c.ID, step, cov, "lidar", "loop"))
	require.NoError(t, g.AddEdge(c.ID, b.ID, step, cov, "lidar", "loop"))

	path, ok := Dijkstra(g, a.ID, b.ID)
	require.True(t, ok)
	assert.Equal(t, []int{int(a.ID), int(c.ID), int(b.ID)}, toInts(path))
}

func TestFilteredBFS(t *testing.T) {
	g := buildChain(t)
	reached := FilteredBFS(g, 0, "lidar", 2)
	assert.ElementsMatch(t, []int{0, 1, 2}, toInts(reached))
}

func TestFilteredBFSUnfiltered(t *testing.T) {
	g := buildChain(t)
	reached := FilteredBFS(g, 0, "", 10)
	assert.Len(t, reached, 4)
}

// TestDistancePrefersSensorEdgesOverRootLink checks that a root-link
// (weight 100) plus two sensor edges (weight 1) between v1 and v2 gives
// d(v1,v2)=1; with the sensor edges removed the only path is via root,
// giving d(v1,v2)=200 (100 each way).
func TestDistancePrefersSensorEdgesOverRootLink(t *testing.T) {
	now := time.Now()
	cov := transform.IdentityCovariance(1e-3)

	g := posegraph.New()
	root := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("none", now, transform.Identity())})
	v1 := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("lidar", now, transform.Identity())})
	v2 := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("lidar", now, transform.Identity())})

	require.NoError(t, g.AddEdge(root.ID, v1.ID, transform.Identity(), cov, "none", "root-link"))
	require.NoError(t, g.AddEdge(root.ID, v2.ID, transform.Identity(), cov, "none", "root-link"))
	require.NoError(t, g.AddEdge(v1.ID, v2.ID, transform.Identity(), cov, "lidar", "seq"))

	assert.Equal(t, 1.0, Distance(g, v1.ID, v2.ID))

	g2 := posegraph.New()
	root2 := g2.AddVertex(posegraph.Vertex{ID: g2.NextID(), Measurement: testutil.NewFake("none", now, transform.Identity())})
	w1 := g2.AddVertex(posegraph.Vertex{ID: g2.NextID(), Measurement: testutil.NewFake("lidar", now, transform.Identity())})
	w2 := g2.AddVertex(posegraph.Vertex{ID: g2.NextID(), Measurement: testutil.NewFake("lidar", now, transform.Identity())})
	require.NoError(t, g2.AddEdge(root2.ID, w1.ID, transform.Identity(), cov, "none", "root-link"))
	require.NoError(t, g2.AddEdge(root2.ID, w2.ID, transform.Identity(), cov, "none", "root-link"))

	assert.Equal(t, 200.0, Distance(g2, w1.ID, w2.ID))
}

func TestDistanceUnreachable(t *testing.T) {
	g := posegraph.New()
	a := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("lidar", time.Now(), transform.Identity())})
	b := g.AddVertex(posegraph.Vertex{ID: g.NextID(), Measurement: testutil.NewFake("lidar", time.Now(), transform.Identity())})
	assert.True(t, math.IsInf(Distance(g, a.ID, b.ID), 1))
}
