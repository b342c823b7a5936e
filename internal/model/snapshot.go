package model

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable, timestamped set of sensor readings representing
// one sampling cycle. It is replaced as a whole and never mutated in place.
type Snapshot struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Readings  []SensorReading `json:"readings"`
}

func NewSnapshot(readings []SensorReading) Snapshot {
	return Snapshot{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Readings:  readings,
	}
}

// EmptySnapshot is the placeholder served before the first successful sample.
func EmptySnapshot() Snapshot {
	return NewSnapshot([]SensorReading{})
}
