package store

import (
	"sync/atomic"

	"github.com/speedwagon-io/hwmon/internal/model"
)

// Store holds the most recent published snapshot together with the full set
// of sensor paths the provider discovered on that sample. Replacement is
// atomic: readers always see a complete snapshot and never block the sampler.
type Store struct {
	current atomic.Pointer[state]
}

type state struct {
	snapshot   model.Snapshot
	discovered []string
}

func New() *Store {
	s := &Store{}
	s.current.Store(&state{snapshot: model.EmptySnapshot()})
	return s
}

// Latest returns the most recent completed snapshot, or the empty startup
// snapshot before the first successful sample. Callers must treat the
// readings slice as read-only.
func (s *Store) Latest() model.Snapshot {
	return s.current.Load().snapshot
}

// Publish replaces the current snapshot and discovery set. Called only by
// the sampler.
func (s *Store) Publish(snap model.Snapshot, discovered []string) {
	s.current.Store(&state{snapshot: snap, discovered: discovered})
}

// Discovered returns every sensor path the provider reported on the last
// successful sample, in provider order. Empty until the first success.
func (s *Store) Discovered() []string {
	d := s.current.Load().discovered
	out := make([]string, len(d))
	copy(out, d)
	return out
}
