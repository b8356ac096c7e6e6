// Package testutil holds fixtures shared by several packages' tests: a fake
// Measurement and fake sensor/odometry ports with deterministic, ground-
// truth-driven behaviour. It is a plain (non-_test.go) package so that
// its fixtures can be imported from _test.go files in multiple other
// packages, which a _test.go file itself cannot be.
package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/itohio/slam3d/measurement"
	"github.com/itohio/slam3d/sensor"
	"github.com/itohio/slam3d/transform"
	"gonum.org/v1/gonum/mat"
)

// Fake is a Measurement carrying its ground-truth pose, so FakeSensor can
// compute exact relative transforms without any real scan-matching.
type Fake struct {
	id     measurement.UUID
	at     time.Time
	robot  string
	sensor string
	Truth  transform.Pose
}

// NewFake creates a Fake measurement with a fresh UUID.
func NewFake(sensorName string, at time.Time, truth transform.Pose) Fake {
	return Fake{id: uuid.New(), at: at, robot: "robot0", sensor: sensorName, Truth: truth}
}

func (f Fake) UUID() measurement.UUID { return f.id }
func (f Fake) Timestamp() time.Time   { return f.at }
func (f Fake) RobotName() string      { return f.robot }
func (f Fake) SensorName() string     { return f.sensor }

// FakeSensor is a deterministic sensor.Port: CalculateTransform returns the
// exact relative pose between two Fake measurements' embedded ground
// truth, rather than matching any real payload. NoMatchOn, if set, names a
// target UUID that always fails with sensor.NoMatchError — used to
// exercise the mapper's admission-rejection path.
type FakeSensor struct {
	NameValue   string
	MinTrans    float64
	MinRot      float64
	Extrinsic   transform.Pose
	NoMatchOn   map[measurement.UUID]bool
	coarseNoise transform.Pose
}

// NewFakeSensor creates a FakeSensor with the given name and admission thresholds.
func NewFakeSensor(name string, minTranslation, minRotation float64) *FakeSensor {
	return &FakeSensor{
		NameValue: name,
		MinTrans:  minTranslation,
		MinRot:    minRotation,
		Extrinsic: transform.Identity(),
		NoMatchOn: make(map[measurement.UUID]bool),
	}
}

func (s *FakeSensor) Name() string                { return s.NameValue }
func (s *FakeSensor) SensorPose() transform.Pose   { return s.Extrinsic }
func (s *FakeSensor) MinPoseDistance() (float64, float64) { return s.MinTrans, s.MinRot }

// CalculateTransform returns target.Truth relative to source.Truth:
// source.Truth.Compose(result) == target.Truth.
func (s *FakeSensor) CalculateTransform(ctx context.Context, source, target measurement.Measurement, guess transform.WithCovariance, coarse bool) (transform.WithCovariance, error) {
	srcFake, okSrc := source.(Fake)
	dstFake, okDst := target.(Fake)
	if !okSrc || !okDst {
		return transform.WithCovariance{}, sensor.ErrBadMeasurementType
	}
	if s.NoMatchOn[dstFake.UUID()] {
		return transform.WithCovariance{}, &sensor.NoMatchError{Reason: "fixture forced no-match"}
	}
	rel := srcFake.Truth.Inverse().Compose(dstFake.Truth)
	return transform.WithCovariance{
		Transform:  rel,
		Covariance: transform.IdentityCovariance(1e-4),
	}, nil
}

// CreateCombinedMeasurement averages the corrected-pose translations of the
// supplied vertices (expressed relative to origin) into a single Fake.
func (s *FakeSensor) CreateCombinedMeasurement(ctx context.Context, vertices []sensor.Vertex, origin transform.Pose) (measurement.Measurement, error) {
	if len(vertices) == 0 {
		return nil, sensor.ErrBadMeasurementType
	}
	var sum transform.Vector3
	for _, v := range vertices {
		rel := origin.Inverse().Compose(v.CorrectedPose)
		sum = sum.Add(rel.Translation)
	}
	avg := sum.Scale(1 / float64(len(vertices)))
	return NewFake(s.NameValue, vertices[0].Measurement.Timestamp(), transform.Pose{Translation: avg, Rotation: transform.IdentityQuaternion()}), nil
}

var _ sensor.Port = (*FakeSensor)(nil)

// FakeOdometry is a deterministic odometry.Port backed by a fixed sample list.
type FakeOdometry struct {
	samples map[int64]transform.Pose
}

// NewFakeOdometry creates an empty FakeOdometry.
func NewFakeOdometry() *FakeOdometry {
	return &FakeOdometry{samples: make(map[int64]transform.Pose)}
}

// Set records the odometric pose for the given timestamp.
func (o *FakeOdometry) Set(at time.Time, p transform.Pose) {
	o.samples[at.UnixNano()] = p
}

func (o *FakeOdometry) Pose(ctx context.Context, at time.Time) (transform.Pose, error) {
	p, ok := o.samples[at.UnixNano()]
	if !ok {
		return transform.Pose{}, errNoSample
	}
	return p, nil
}

func (o *FakeOdometry) Covariance(rel transform.Pose) *mat.SymDense {
	return transform.IdentityCovariance(1e-3)
}

var errNoSample = &noSampleError{}

type noSampleError struct{}

func (e *noSampleError) Error() string { return "testutil: no odometry sample for timestamp" }
