package adapters

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/speedwagon-io/hwmon/internal/model"
)

const testTree = `{
  "id": 0, "Text": "Sensor",
  "Children": [
    {
      "id": 1, "Text": "DESKTOP",
      "Children": [
        {
          "id": 2, "Text": "Intel Core i7",
          "Children": [
            {
              "id": 3, "Text": "Temperatures",
              "Children": [
                {"id": 4, "Text": "CPU Package", "SensorId": "/intelcpu/0/temperature/8", "Type": "Temperature", "Value": "52.0 °C", "Children": []},
                {"id": 5, "Text": "Core #1", "SensorId": "/intelcpu/0/temperature/0", "Type": "Temperature", "Value": "49.5 °C", "Children": []}
              ]
            },
            {
              "id": 6, "Text": "Load",
              "Children": [
                {"id": 7, "Text": "CPU Total", "SensorId": "/intelcpu/0/load/0", "Type": "Load", "Value": "12.3 %", "Children": []}
              ]
            }
          ]
        },
        {
          "id": 8, "Text": "Motherboard",
          "Children": [
            {"id": 9, "Text": "Fan #1", "SensorId": "/lpc/fan/0", "Type": "Fan", "Value": "1180 RPM", "Children": []},
            {"id": 10, "Text": "VBat", "SensorId": "/lpc/voltage/0", "Type": "Voltage", "Value": "3.06 V", "Children": []},
            {"id": 11, "Text": "Broken", "SensorId": "/lpc/broken/0", "Type": "Voltage", "Value": "-", "Children": []}
          ]
        }
      ]
    }
  ]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadFlattensSensorTree(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testTree))
	}))
	defer ts.Close()

	b := NewLHMBridge(testLogger(), ts.URL, 2*time.Second)
	readings, err := b.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// The unparsable "-" value is skipped.
	if len(readings) != 5 {
		t.Fatalf("expected 5 readings, got %d: %+v", len(readings), readings)
	}

	first := readings[0]
	if first.Path != "/intelcpu/0/temperature/8" {
		t.Errorf("first path: got %q", first.Path)
	}
	if first.Label != "CPU Package" {
		t.Errorf("first label: got %q", first.Label)
	}
	if first.Value != 52.0 {
		t.Errorf("first value: got %v", first.Value)
	}
	if first.Unit != "°C" {
		t.Errorf("first unit: got %q", first.Unit)
	}
	if first.Category != model.CategoryTemperature {
		t.Errorf("first category: got %q", first.Category)
	}

	fan := readings[3]
	if fan.Path != "/lpc/fan/0" || fan.Value != 1180 || fan.Unit != "RPM" {
		t.Errorf("unexpected fan reading: %+v", fan)
	}
	if fan.Category != model.CategoryFan {
		t.Errorf("fan category: got %q", fan.Category)
	}
}

func TestReadPropagatesHTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	b := NewLHMBridge(testLogger(), ts.URL, 2*time.Second)
	if _, err := b.Read(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestReadHonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer ts.Close()
	defer close(block)

	b := NewLHMBridge(testLogger(), ts.URL, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := b.Read(ctx); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		raw     string
		value   float64
		unit    string
		wantErr bool
	}{
		{"46.0 °C", 46.0, "°C", false},
		{"12.3 %", 12.3, "%", false},
		{"3.06 V", 3.06, "V", false},
		{"820 RPM", 820, "RPM", false},
		{"4,5 V", 4.5, "V", false},
		{"100", 100, "", false},
		{"-", 0, "", true},
		{"", 0, "", true},
		{"n/a W", 0, "", true},
	}

	for _, tc := range cases {
		value, unit, err := parseValue(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseValue(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseValue(%q): %v", tc.raw, err)
			continue
		}
		if value != tc.value || unit != tc.unit {
			t.Errorf("parseValue(%q): got (%v, %q), want (%v, %q)", tc.raw, value, unit, tc.value, tc.unit)
		}
	}
}
