package adapters

import (
	"context"

	"github.com/speedwagon-io/hwmon/internal/model"
)

// FixedProvider serves a static set of readings. Used for dry-run mode and
// tests, where real hardware access is unavailable or undesirable.
type FixedProvider struct {
	readings []model.SensorReading
}

func NewFixedProvider(readings []model.SensorReading) *FixedProvider {
	return &FixedProvider{readings: readings}
}

func (p *FixedProvider) Name() string {
	return "fixed"
}

func (p *FixedProvider) Close() error {
	return nil
}

func (p *FixedProvider) Read(ctx context.Context) ([]model.SensorReading, error) {
	out := make([]model.SensorReading, len(p.readings))
	copy(out, p.readings)
	return out, nil
}

// DemoReadings is the reading set served in dry-run mode.
func DemoReadings() []model.SensorReading {
	return []model.SensorReading{
		{Path: "cpu.temp", Label: "CPU Package", Value: 52.5, Unit: "°C", Category: model.CategoryTemperature},
		{Path: "cpu.load", Label: "CPU Total", Value: 17.3, Unit: "%", Category: model.CategoryLoad},
		{Path: "cpu.power", Label: "CPU Package Power", Value: 38.2, Unit: "W", Category: model.CategoryPower},
		{Path: "gpu.temp", Label: "GPU Core", Value: 44.0, Unit: "°C", Category: model.CategoryTemperature},
		{Path: "gpu.load", Label: "GPU Core", Value: 4.0, Unit: "%", Category: model.CategoryLoad},
		{Path: "fan.cpu", Label: "CPU Fan", Value: 820, Unit: "RPM", Category: model.CategoryFan},
		{Path: "ram.load", Label: "Memory", Value: 41.7, Unit: "%", Category: model.CategoryLoad},
	}
}
