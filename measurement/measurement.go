// Package measurement defines the opaque sensor-reading contract the core
// consumes: Measurement only exposes the attributes the mapper needs
// (uuid, timestamp, robot/sensor name) — everything else about a
// reading's payload belongs to the sensor that produced it.
package measurement

import (
	"time"

	"github.com/google/uuid"
)

// ID is the monotonically increasing, never-reused vertex id. 0 is the
// implicit root (origin).
type ID uint64

// RootID is the id of the root vertex, created at mapper construction.
const RootID ID = 0

// UUID is the 128-bit identifier carried by every Measurement, used for
// cross-robot references (external readings/constraints).
type UUID = uuid.UUID

// Measurement is the opaque sensor reading the core operates on.
type Measurement interface {
	UUID() UUID
	Timestamp() time.Time
	RobotName() string
	SensorName() string
}

// originSensorName is the reserved sensor name for the synthetic root reading.
const originSensorName = "none"

// Origin is the synthetic measurement assigned to the root vertex.
type Origin struct {
	uuid UUID
	at   time.Time
}

// NewOrigin creates the MapOrigin measurement assigned to the root vertex.
func NewOrigin(at time.Time) Origin {
	return Origin{uuid: uuid.New(), at: at}
}

func (o Origin) UUID() UUID          { return o.uuid }
func (o Origin) Timestamp() time.Time { return o.at }
func (o Origin) RobotName() string    { return "" }
func (o Origin) SensorName() string   { return originSensorName }
