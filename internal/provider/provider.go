package provider

import (
	"context"

	"github.com/speedwagon-io/hwmon/internal/model"
)

// Provider produces the current set of hardware sensor readings on demand.
// Implementations may fail or return a partial set; ordering is the
// provider's own and is preserved downstream.
type Provider interface {
	Read(ctx context.Context) ([]model.SensorReading, error)
	Name() string
	Close() error
}
