package sampler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/speedwagon-io/hwmon/internal/display"
	"github.com/speedwagon-io/hwmon/internal/journal"
	"github.com/speedwagon-io/hwmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/hwmon/internal/model"
	"github.com/speedwagon-io/hwmon/internal/provider"
	"github.com/speedwagon-io/hwmon/internal/store"
)

// Sampler runs the recurring sampling cycle: query the provider, filter and
// reorder readings per the display config, and publish a new snapshot. On a
// provider failure the previous snapshot stays published unchanged.
type Sampler struct {
	log           *slog.Logger
	provider      provider.Provider
	store         *store.Store
	display       *display.Manager
	journal       *journal.Journal
	readTimeout   time.Duration
	journalMaxAge time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// New creates a sampler. journal may be nil, in which case failures are only
// logged.
func New(
	log *slog.Logger,
	prov provider.Provider,
	st *store.Store,
	disp *display.Manager,
	jr *journal.Journal,
	readTimeout time.Duration,
	journalMaxAge time.Duration,
) *Sampler {
	return &Sampler{
		log:           log,
		provider:      prov,
		store:         st,
		display:       disp,
		journal:       jr,
		readTimeout:   readTimeout,
		journalMaxAge: journalMaxAge,
		stopCh:        make(chan struct{}),
	}
}

func (s *Sampler) Start(ctx context.Context) {
	s.log.Info("starting sampler",
		slog.String("provider", s.provider.Name()),
		slog.Duration("interval", s.display.Interval()),
	)

	s.wg.Add(1)
	go s.run(ctx)

	if s.journal != nil {
		s.wg.Add(1)
		go s.maintainJournal(ctx)
	}
}

func (s *Sampler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	if err := s.provider.Close(); err != nil {
		s.log.Error("failed to close provider", sl.Err(err))
	}
}

func (s *Sampler) run(ctx context.Context) {
	defer s.wg.Done()

	s.sample(ctx)

	// A Timer rather than a Ticker: the interval is re-read from the display
	// config on every cycle, and a config change re-arms a pending wait so a
	// shortened interval takes effect without sitting out the old one.
	timer := time.NewTimer(s.display.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("context cancelled, stopping sampler")
			return
		case <-s.stopCh:
			s.log.Info("stop signal received, stopping sampler")
			return
		case <-s.display.Changes():
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.display.Interval())
		case <-timer.C:
			s.sample(ctx)
			timer.Reset(s.display.Interval())
		}
	}
}

func (s *Sampler) sample(ctx context.Context) {
	readCtx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	readings, err := s.provider.Read(readCtx)
	if err != nil {
		s.log.Error("sensor read failed, keeping previous snapshot",
			slog.String("provider", s.provider.Name()),
			sl.Err(err),
		)
		s.recordFailure(ctx, err)
		return
	}

	discovered := make([]string, 0, len(readings))
	for _, r := range readings {
		discovered = append(discovered, r.Path)
	}

	selected := selectReadings(readings, s.display.Current().Order)
	s.store.Publish(model.NewSnapshot(selected), discovered)

	s.log.Debug("published snapshot",
		slog.Int("discovered", len(readings)),
		slog.Int("selected", len(selected)),
	)
}

func (s *Sampler) recordFailure(ctx context.Context, readErr error) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, s.provider.Name(), readErr.Error()); err != nil {
		s.log.Error("failed to journal provider failure", sl.Err(err))
	}
}

// selectReadings filters and reorders readings by the configured order. An
// empty order keeps every reading in provider order; listed-but-missing paths
// are omitted silently.
func selectReadings(readings []model.SensorReading, order []string) []model.SensorReading {
	if len(order) == 0 {
		return readings
	}

	byPath := make(map[string]model.SensorReading, len(readings))
	for _, r := range readings {
		byPath[r.Path] = r
	}

	out := make([]model.SensorReading, 0, len(order))
	for _, path := range order {
		if r, ok := byPath[path]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *Sampler) maintainJournal(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.journal.Cleanup(ctx, s.journalMaxAge); err != nil {
				s.log.Error("failed to cleanup journal", sl.Err(err))
			}
		}
	}
}
