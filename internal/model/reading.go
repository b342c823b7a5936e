package model

// Category classifies a sensor reading for display grouping and colorization.
type Category string

const (
	CategoryTemperature Category = "temperature"
	CategoryLoad        Category = "load"
	CategoryFan         Category = "fan"
	CategoryPower       Category = "power"
	CategoryVoltage     Category = "voltage"
	CategoryOther       Category = "other"
)

// SensorReading is one sampled hardware value. Readings are immutable once
// produced and identified by Path, a provider-stable sensor identifier.
type SensorReading struct {
	Path     string   `json:"path"`
	Label    string   `json:"label"`
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
	Category Category `json:"category"`
}

// CategoryForUnit maps a provider unit string to a display category. Used by
// adapters whose wire format does not carry an explicit sensor type.
func CategoryForUnit(unit string) Category {
	switch unit {
	case "°C", "°F":
		return CategoryTemperature
	case "%":
		return CategoryLoad
	case "RPM":
		return CategoryFan
	case "W":
		return CategoryPower
	case "V", "mV":
		return CategoryVoltage
	default:
		return CategoryOther
	}
}
