// Command slam3d-mapper is a flag-based smoke-test harness for the
// mapper package: it drives a synthetic odometry + sensor pair through a
// configurable number of steps and writes the resulting graph out as a
// .dot file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/itohio/slam3d/config"
	"github.com/itohio/slam3d/mapper"
	"github.com/itohio/slam3d/measurement"
	slam3dlog "github.com/itohio/slam3d/pkg/logger"
	"github.com/itohio/slam3d/sensor"
	"github.com/itohio/slam3d/solver"
	"github.com/itohio/slam3d/transform"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

var (
	verbose    = flag.Int("v", 0, "Set log verbosity level (0=ERROR, 1=WARN, 2=INFO, 3=DEBUG, 4=TRACE)")
	vv         = flag.Bool("vv", false, "Shortcut for -v=4 (TRACE level, maximum verbosity)")
	steps      = flag.Int("steps", 16, "Number of synthetic readings to feed the mapper")
	turnRadius = flag.Float64("turn-radius", 2.0, "Radius, in meters, of the synthetic circular walk")
	outFile    = flag.String("out", "slam3d-demo", ".dot file basename written on exit (without extension)")
	configPath = flag.String("config", "", "Optional YAML mapper.Config to load instead of the defaults")
)

func main() {
	// Count -v/-vv flags before flag.Parse() consumes them, since flag
	// only ever keeps the last value of a repeated flag.
	verboseCount := 0
	hasVV := false
	for _, arg := range os.Args {
		switch arg {
		case "-v":
			verboseCount++
		case "-vv":
			hasVV = true
		}
	}

	flag.Parse()

	logLevel := *verbose
	if hasVV || *vv {
		logLevel = 4
	} else if *verbose == 0 && verboseCount > 0 {
		logLevel = verboseCount
	}
	log := slam3dlog.New(logLevel)

	if err := run(log); err != nil {
		log.Error().Err(err).Msg("slam3d-mapper failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger) error {
	cfg := mapper.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.NewLoader("").Load(*configPath)
		if err != nil {
			return fmt.Errorf("slam3d-mapper: %w", err)
		}
		cfg = loaded
	}

	m := mapper.New(log, cfg)
	m.SetSolver(solver.NewReference())
	odom := newWalkOdometry()
	m.SetOdometry(odom)

	s := &walkSensor{name: "lidar"}
	if err := m.RegisterSensor(s); err != nil {
		return fmt.Errorf("slam3d-mapper: %w", err)
	}

	ctx := context.Background()
	start := time.Now()
	angleStep := 2 * math.Pi / float64(*steps)

	for i := 0; i < *steps; i++ {
		at := start.Add(time.Duration(i) * time.Second)
		pose := circlePose(*turnRadius, angleStep*float64(i))
		odom.Set(at, pose)

		reading := walkMeasurement{id: uuid.New(), at: at, sensor: s.name}
		added, err := m.AddReading(ctx, reading, false)
		if err != nil {
			return fmt.Errorf("slam3d-mapper: step %d: %w", i, err)
		}
		log.Info().Int("step", i).Bool("added", added).Msg("fed synthetic reading")
	}

	if err := m.Optimize(); err != nil && !errors.Is(err, mapper.ErrNoSolver) {
		return fmt.Errorf("slam3d-mapper: optimize: %w", err)
	}

	if err := m.WriteGraphToFile(*outFile); err != nil {
		return fmt.Errorf("slam3d-mapper: %w", err)
	}
	log.Info().Str("file", *outFile+".dot").Int("vertices", m.Graph().Len()).Msg("wrote demo graph")
	return nil
}

// circlePose returns the pose on a circle of the given radius at angle
// theta, with yaw theta (heading radially outward) — the synthetic ground truth the
// demo's sensor and odometry both report exactly, so the run always
// closes its own loop.
func circlePose(radius, theta float64) transform.Pose {
	return transform.Pose{
		Translation: transform.Vector3{radius * math.Cos(theta), radius * math.Sin(theta), 0},
		Rotation:    transform.Quaternion{0, 0, math.Sin(theta / 2), math.Cos(theta / 2)},
	}
}

// walkMeasurement is the demo's Measurement: it carries no payload since
// walkOdometry looks poses up by timestamp alone and walkSensor only
// confirms the guess the mapper hands it.
type walkMeasurement struct {
	id     measurement.UUID
	at     time.Time
	sensor string
}

func (w walkMeasurement) UUID() measurement.UUID  { return w.id }
func (w walkMeasurement) Timestamp() time.Time    { return w.at }
func (w walkMeasurement) RobotName() string       { return "demo" }
func (w walkMeasurement) SensorName() string      { return w.sensor }

// walkOdometry replays the exact circlePose ground truth keyed by
// timestamp, standing in for a real dead-reckoning source.
type walkOdometry struct {
	samples map[int64]transform.Pose
}

func newWalkOdometry() *walkOdometry {
	return &walkOdometry{samples: make(map[int64]transform.Pose)}
}

func (o *walkOdometry) Set(at time.Time, p transform.Pose) { o.samples[at.UnixNano()] = p }

func (o *walkOdometry) Pose(ctx context.Context, at time.Time) (transform.Pose, error) {
	p, ok := o.samples[at.UnixNano()]
	if !ok {
		return transform.Pose{}, fmt.Errorf("slam3d-mapper: no odometry sample for %s", at)
	}
	return p, nil
}

func (o *walkOdometry) Covariance(rel transform.Pose) *mat.SymDense {
	return transform.IdentityCovariance(1e-3)
}

// walkSensor trusts the odometry-predicted guess outright, standing in
// for a real scan matcher: it always confirms whatever relative
// transform the mapper already computed from the odometry trajectory.
type walkSensor struct {
	name string
}

func (s *walkSensor) Name() string                        { return s.name }
func (s *walkSensor) SensorPose() transform.Pose           { return transform.Identity() }
func (s *walkSensor) MinPoseDistance() (float64, float64) { return 0.1, 0.05 }

func (s *walkSensor) CalculateTransform(ctx context.Context, source, target measurement.Measurement, guess transform.WithCovariance, coarse bool) (transform.WithCovariance, error) {
	return transform.WithCovariance{Transform: guess.Transform, Covariance: transform.IdentityCovariance(1e-4)}, nil
}

func (s *walkSensor) CreateCombinedMeasurement(ctx context.Context, vertices []sensor.Vertex, origin transform.Pose) (measurement.Measurement, error) {
	if len(vertices) == 0 {
		return nil, sensor.ErrBadMeasurementType
	}
	return walkMeasurement{id: uuid.New(), at: vertices[0].Measurement.Timestamp(), sensor: s.name}, nil
}

var _ sensor.Port = (*walkSensor)(nil)
