package display

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/speedwagon-io/hwmon/internal/lib/logger/sl"
)

const (
	DefaultInterval = 1000 * time.Millisecond
	MinInterval     = 100 * time.Millisecond
	MaxInterval     = 60000 * time.Millisecond
)

var (
	ErrInvalidInterval = errors.New("refresh interval out of range")
	ErrPersist         = errors.New("failed to persist display config")
)

// Config is the user-controllable display configuration: refresh cadence and
// which sensors appear, in what order. An empty order means every discovered
// sensor in provider order.
type Config struct {
	RefreshInterval time.Duration
	Order           []string
}

// fileConfig is the on-disk YAML shape. The interval is stored in
// milliseconds to match the wire protocol.
type fileConfig struct {
	RefreshIntervalMS int      `yaml:"refresh_interval_ms"`
	Order             []string `yaml:"order,omitempty"`
}

// Update is a partial patch; nil fields leave the current value untouched.
type Update struct {
	RefreshIntervalMS *int
	Order             *[]string
}

// Manager is the sole writer of the persisted display configuration. Updates
// are serialized, validated, and persisted before they are acknowledged; on a
// persistence failure the in-memory copy rolls back so it never diverges from
// disk.
type Manager struct {
	log        *slog.Logger
	path       string
	discovered func() []string
	changes    chan struct{}

	mu  sync.Mutex
	cfg Config
}

// NewManager creates a manager persisting to path. discovered supplies the
// currently known sensor paths for lenient-merge validation; it may return an
// empty slice before the provider has produced a sample.
func NewManager(log *slog.Logger, path string, discovered func() []string) *Manager {
	return &Manager{
		log:        log,
		path:       path,
		discovered: discovered,
		changes:    make(chan struct{}, 1),
		cfg:        Config{RefreshInterval: DefaultInterval},
	}
}

// Changes delivers a signal after every successful Apply. The channel carries
// no payload; a receiver re-reads the current values through Interval or
// Current. Signals coalesce while nobody is receiving.
func (m *Manager) Changes() <-chan struct{} {
	return m.changes
}

// Load reads the persisted configuration. An absent or malformed file is
// recoverable: defaults are used and a warning is logged.
func (m *Manager) Load() Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg = Config{RefreshInterval: DefaultInterval}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.Warn("failed to read display config, using defaults",
				slog.String("path", m.path), sl.Err(err))
		}
		return m.copyLocked()
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		m.log.Warn("malformed display config, using defaults",
			slog.String("path", m.path), sl.Err(err))
		return m.copyLocked()
	}

	interval := time.Duration(fc.RefreshIntervalMS) * time.Millisecond
	if interval < MinInterval || interval > MaxInterval {
		if fc.RefreshIntervalMS != 0 {
			m.log.Warn("persisted refresh interval out of range, using default",
				slog.Int("refresh_interval_ms", fc.RefreshIntervalMS))
		}
		interval = DefaultInterval
	}

	m.cfg = Config{
		RefreshInterval: interval,
		Order:           m.normalizeOrder(fc.Order),
	}
	return m.copyLocked()
}

// Current returns a copy of the in-memory configuration.
func (m *Manager) Current() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked()
}

// Interval returns the current refresh interval. The sampler re-reads this
// every cycle so interval changes take effect without a restart.
func (m *Manager) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.RefreshInterval
}

// Apply validates and applies a partial update, persisting the result before
// returning it. At most one Apply runs at a time; conflicting updates resolve
// last-write-wins at whole-update granularity.
func (m *Manager) Apply(u Update) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate := m.copyLocked()

	if u.RefreshIntervalMS != nil {
		interval := time.Duration(*u.RefreshIntervalMS) * time.Millisecond
		if interval < MinInterval || interval > MaxInterval {
			return Config{}, fmt.Errorf("%w: %dms", ErrInvalidInterval, *u.RefreshIntervalMS)
		}
		candidate.RefreshInterval = interval
	}

	if u.Order != nil {
		candidate.Order = m.normalizeOrder(*u.Order)
	}

	previous := m.cfg
	m.cfg = candidate

	if err := m.saveLocked(); err != nil {
		m.cfg = previous
		return Config{}, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	select {
	case m.changes <- struct{}{}:
	default:
	}

	return m.copyLocked(), nil
}

// normalizeOrder applies the lenient-merge policy: the first occurrence of a
// duplicate path wins, unknown paths are dropped with a warning, and the
// relative order of surviving entries is preserved. If discovery has not yet
// produced any paths the order is accepted as submitted (deduplicated).
func (m *Manager) normalizeOrder(order []string) []string {
	known := m.discovered()
	knownSet := make(map[string]struct{}, len(known))
	for _, p := range known {
		knownSet[p] = struct{}{}
	}

	seen := make(map[string]struct{}, len(order))
	out := make([]string, 0, len(order))
	for _, p := range order {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if len(knownSet) > 0 {
			if _, ok := knownSet[p]; !ok {
				m.log.Warn("dropping unknown sensor path from order",
					slog.String("path", p))
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// saveLocked writes the configuration via a temp file and rename so a crash
// mid-write cannot leave a truncated file behind.
func (m *Manager) saveLocked() error {
	data, err := yaml.Marshal(fileConfig{
		RefreshIntervalMS: int(m.cfg.RefreshInterval / time.Millisecond),
		Order:             m.cfg.Order,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal display config: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".display-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}

func (m *Manager) copyLocked() Config {
	order := make([]string, len(m.cfg.Order))
	copy(order, m.cfg.Order)
	return Config{
		RefreshInterval: m.cfg.RefreshInterval,
		Order:           order,
	}
}
