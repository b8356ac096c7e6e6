package spatialindex

import (
	"testing"

	"github.com/itohio/slam3d/transform"
	"github.com/stretchr/testify/assert"
)

func TestRadiusSearch(t *testing.T) {
	idx := New()
	idx.Build([]Point{
		{ID: 1, Position: transform.Vector3{0, 0, 0}},
		{ID: 2, Position: transform.Vector3{1, 0, 0}},
		{ID: 3, Position: transform.Vector3{5, 0, 0}},
		{ID: 4, Position: transform.Vector3{0, 3, 0}},
	})

	assert.Equal(t, 4, idx.Len())

	got := idx.RadiusSearch(transform.Vector3{0, 0, 0}, 1.5)
	ids := make([]int, 0, len(got))
	for _, p := range got {
		ids = append(ids, int(p.ID))
	}
	assert.ElementsMatch(t, []int{1, 2}, ids)

	none := idx.RadiusSearch(transform.Vector3{100, 100, 100}, 0.5)
	assert.Empty(t, none)
}

func TestRadiusSearchOrdering(t *testing.T) {
	idx := New()
	idx.Build([]Point{
		{ID: 1, Position: transform.Vector3{2, 0, 0}},
		{ID: 2, Position: transform.Vector3{1, 0, 0}},
		{ID: 3, Position: transform.Vector3{3, 0, 0}},
	})

	got := idx.RadiusSearch(transform.Vector3{0, 0, 0}, 10)
	if assert.Len(t, got, 3) {
		assert.Equal(t, 2, int(got[0].ID))
		assert.Equal(t, 1, int(got[1].ID))
		assert.Equal(t, 3, int(got[2].ID))
	}
}

func TestEmptyIndex(t *testing.T) {
	idx := New()
	assert.Empty(t, idx.RadiusSearch(transform.Vector3{0, 0, 0}, 1))
}
