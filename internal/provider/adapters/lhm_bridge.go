package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/speedwagon-io/hwmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/hwmon/internal/model"
)

// LHMBridge reads sensors from a LibreHardwareMonitor-compatible web endpoint.
// The endpoint exposes the hardware tree as nested JSON at /data.json; the
// bridge flattens it into a list of readings in tree traversal order.
type LHMBridge struct {
	log     *slog.Logger
	baseURL string
	client  *http.Client
}

func NewLHMBridge(log *slog.Logger, baseURL string, timeout time.Duration) *LHMBridge {
	return &LHMBridge{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (b *LHMBridge) Name() string {
	return "lhm"
}

func (b *LHMBridge) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

// node mirrors one entry of the LibreHardwareMonitor JSON tree. Branch nodes
// carry Children; leaf sensor nodes carry SensorId, Type and a formatted Value.
type node struct {
	Text     string `json:"Text"`
	SensorID string `json:"SensorId"`
	Type     string `json:"Type"`
	Value    string `json:"Value"`
	Children []node `json:"Children"`
}

func (b *LHMBridge) Read(ctx context.Context) ([]model.SensorReading, error) {
	url := b.baseURL + "/data.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var root node
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sensor tree: %w", err)
	}

	readings := make([]model.SensorReading, 0, 64)
	b.flatten(&root, &readings)
	return readings, nil
}

func (b *LHMBridge) flatten(n *node, out *[]model.SensorReading) {
	if n.SensorID != "" && len(n.Children) == 0 {
		if r, ok := b.toReading(n); ok {
			*out = append(*out, r)
		}
		return
	}
	for i := range n.Children {
		b.flatten(&n.Children[i], out)
	}
}

func (b *LHMBridge) toReading(n *node) (model.SensorReading, bool) {
	value, unit, err := parseValue(n.Value)
	if err != nil {
		b.log.Debug("skipping unparsable sensor value",
			slog.String("sensor_id", n.SensorID),
			slog.String("value", n.Value),
			sl.Err(err),
		)
		return model.SensorReading{}, false
	}

	return model.SensorReading{
		Path:     n.SensorID,
		Label:    n.Text,
		Value:    value,
		Unit:     unit,
		Category: categoryForType(n.Type, unit),
	}, true
}

// parseValue splits a formatted sensor value like "46.0 °C" or "1,320 RPM"
// into a number and its unit. Some locales format decimals with a comma.
func parseValue(raw string) (float64, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return 0, "", fmt.Errorf("empty value")
	}

	numPart := raw
	unit := ""
	if idx := strings.IndexByte(raw, ' '); idx >= 0 {
		numPart = raw[:idx]
		unit = strings.TrimSpace(raw[idx+1:])
	}

	numPart = strings.ReplaceAll(numPart, ",", ".")
	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse number %q: %w", numPart, err)
	}

	return value, unit, nil
}

func categoryForType(sensorType, unit string) model.Category {
	switch sensorType {
	case "Temperature":
		return model.CategoryTemperature
	case "Load":
		return model.CategoryLoad
	case "Fan":
		return model.CategoryFan
	case "Power":
		return model.CategoryPower
	case "Voltage":
		return model.CategoryVoltage
	case "":
		return model.CategoryForUnit(unit)
	default:
		return model.CategoryOther
	}
}
