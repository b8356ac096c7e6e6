package mapper

import "github.com/itohio/slam3d/sensor"

// Config is the mapper's runtime configuration surface. All fields are
// plain runtime values rather than setters, meant to be loaded and saved
// as a whole struct rather than mutated field by field.
type Config struct {
	// UseOdometryHeading adopts odometry's rotation as the initial
	// orientation on the very first insert.
	UseOdometryHeading bool `yaml:"use_odometry_heading"`
	// AddOdometryEdges creates an odometry-predicted vertex ahead of the
	// scan-match vertex on every non-first insert.
	AddOdometryEdges bool `yaml:"add_odometry_edges"`
	// MaxNeighborLinks caps loop-closure attempts per insertion.
	MaxNeighborLinks int `yaml:"max_neighbor_links"`
	// NeighborRadius is the spatial query radius, in meters, for
	// loop-closure candidates.
	NeighborRadius float64 `yaml:"neighbor_radius"`
	// PatchBuildingRange is the BFS hop radius for virtual-measurement
	// construction; 0 disables patch building.
	PatchBuildingRange int `yaml:"patch_building_range"`
	// MinTranslation and MinRotation override a sensor's own
	// MinPoseDistance() per sensor name; a sensor not present here falls
	// back to its own Port.MinPoseDistance().
	MinTranslation map[string]float64 `yaml:"min_translation,omitempty"`
	MinRotation    map[string]float64 `yaml:"min_rotation,omitempty"`
}

// DefaultConfig returns conservative seed defaults: patch building off,
// one loop-closure attempt per insertion, a 1 meter neighbor radius.
func DefaultConfig() Config {
	return Config{
		MaxNeighborLinks:   1,
		NeighborRadius:     1.0,
		PatchBuildingRange: 0,
	}
}

func (c Config) minPoseDistance(s sensor.Port) (translation, rotation float64) {
	translation, rotation = s.MinPoseDistance()
	if v, ok := c.MinTranslation[s.Name()]; ok {
		translation = v
	}
	if v, ok := c.MinRotation[s.Name()]; ok {
		rotation = v
	}
	return translation, rotation
}
