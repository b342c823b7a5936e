package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/speedwagon-io/hwmon/internal/display"
	"github.com/speedwagon-io/hwmon/internal/store"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

type Checker interface {
	Name() string
	Check(ctx context.Context) (Status, string)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:     StatusHealthy,
		Components: make([]ComponentHealth, 0, len(s.checkers)),
		Timestamp:  time.Now().UTC(),
	}

	for _, checker := range s.checkers {
		status, message := checker.Check(ctx)
		response.Components = append(response.Components, ComponentHealth{
			Name:    checker.Name(),
			Status:  status,
			Message: message,
		})

		if status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	s.writeJSON(w, statusCode, response)
}

// SamplerHealthChecker reports degraded when the published snapshot is stale
// relative to the configured refresh interval.
type SamplerHealthChecker struct {
	store   *store.Store
	display *display.Manager
}

func NewSamplerHealthChecker(st *store.Store, disp *display.Manager) *SamplerHealthChecker {
	return &SamplerHealthChecker{store: st, display: disp}
}

func (c *SamplerHealthChecker) Name() string {
	return "sampler"
}

func (c *SamplerHealthChecker) Check(ctx context.Context) (Status, string) {
	if len(c.store.Discovered()) == 0 {
		return StatusDegraded, "no successful sample yet"
	}

	age := time.Since(c.store.Latest().Timestamp)
	if age > 3*c.display.Interval() {
		return StatusDegraded, fmt.Sprintf("snapshot stale for %s", age.Round(time.Millisecond))
	}

	return StatusHealthy, ""
}

// JournalHealthChecker reports degraded when the provider has been failing
// frequently in the recent past.
type JournalHealthChecker struct {
	countSince func(ctx context.Context, since time.Time) (int64, error)
}

func NewJournalHealthChecker(countSince func(ctx context.Context, since time.Time) (int64, error)) *JournalHealthChecker {
	return &JournalHealthChecker{countSince: countSince}
}

func (c *JournalHealthChecker) Name() string {
	return "journal"
}

func (c *JournalHealthChecker) Check(ctx context.Context) (Status, string) {
	count, err := c.countSince(ctx, time.Now().Add(-15*time.Minute))
	if err != nil {
		return StatusUnhealthy, err.Error()
	}

	if count > 10 {
		return StatusDegraded, fmt.Sprintf("%d provider failures in the last 15m", count)
	}

	return StatusHealthy, ""
}
