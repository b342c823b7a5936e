package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/speedwagon-io/hwmon/internal/model"
)

func TestLatestBeforeFirstPublish(t *testing.T) {
	s := New()

	snap := s.Latest()
	if snap.ID == "" {
		t.Error("startup snapshot must have an ID")
	}
	if snap.Timestamp.IsZero() {
		t.Error("startup snapshot must have a timestamp")
	}
	if snap.Readings == nil {
		t.Error("startup snapshot readings must be non-nil")
	}
	if len(snap.Readings) != 0 {
		t.Errorf("startup snapshot must be empty, got %d readings", len(snap.Readings))
	}
	if len(s.Discovered()) != 0 {
		t.Error("no paths should be discovered before the first publish")
	}
}

func TestPublishReplacesSnapshotAndDiscovery(t *testing.T) {
	s := New()

	readings := []model.SensorReading{
		{Path: "cpu.temp", Label: "CPU", Value: 50, Unit: "°C", Category: model.CategoryTemperature},
	}
	s.Publish(model.NewSnapshot(readings), []string{"cpu.temp", "gpu.temp"})

	snap := s.Latest()
	if len(snap.Readings) != 1 || snap.Readings[0].Path != "cpu.temp" {
		t.Fatalf("unexpected snapshot readings: %+v", snap.Readings)
	}

	discovered := s.Discovered()
	if len(discovered) != 2 || discovered[0] != "cpu.temp" || discovered[1] != "gpu.temp" {
		t.Fatalf("unexpected discovery set: %v", discovered)
	}
}

// Every reading within a generation carries the same value, so a reader that
// observes mixed values has seen a torn snapshot.
func TestConcurrentReadersNeverObserveTornSnapshot(t *testing.T) {
	s := New()

	makeSnapshot := func(gen int) model.Snapshot {
		readings := make([]model.SensorReading, 8)
		for i := range readings {
			readings[i] = model.SensorReading{
				Path:  fmt.Sprintf("sensor.%d", i),
				Value: float64(gen),
			}
		}
		return model.NewSnapshot(readings)
	}

	s.Publish(makeSnapshot(0), nil)

	const generations = 500
	const readers = 8

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errCh := make(chan error, readers)

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Latest()
				if len(snap.Readings) != 8 {
					errCh <- fmt.Errorf("short snapshot: %d readings", len(snap.Readings))
					return
				}
				want := snap.Readings[0].Value
				for _, rd := range snap.Readings {
					if rd.Value != want {
						errCh <- fmt.Errorf("torn snapshot: saw values %v and %v", want, rd.Value)
						return
					}
				}
			}
		}()
	}

	for gen := 1; gen <= generations; gen++ {
		s.Publish(makeSnapshot(gen), nil)
	}
	close(stop)
	wg.Wait()

	select {
	case err := <-errCh:
		t.Fatal(err)
	default:
	}
}

func TestDiscoveredReturnsCopy(t *testing.T) {
	s := New()
	s.Publish(model.EmptySnapshot(), []string{"a", "b"})

	d := s.Discovered()
	d[0] = "mutated"

	if got := s.Discovered()[0]; got != "a" {
		t.Errorf("store discovery mutated through returned slice: %q", got)
	}
}
