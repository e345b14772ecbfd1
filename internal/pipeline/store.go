package pipeline

// Store holds the current board snapshot. All access happens on the program's
// event loop, so the store carries no locks; concurrency safety comes from
// the snapshots themselves being immutable values.
type Store struct {
	current Pipeline
	version uint64
}

// NewStore returns a store seeded with an initial snapshot.
func NewStore(initial Pipeline) *Store {
	return &Store{current: initial}
}

// Current returns the live snapshot. The returned value is immutable and safe
// to hold across later Apply calls.
func (s *Store) Current() Pipeline {
	return s.current
}

// Version counts how many snapshots the store has held. Useful in tests to
// assert that a patch really replaced the snapshot (or deliberately did not).
func (s *Store) Version() uint64 {
	return s.version
}

// Apply advances the store to the snapshot produced by patch and returns it.
func (s *Store) Apply(patch Patch) Pipeline {
	s.current = s.current.Apply(patch)
	s.version++
	return s.current
}

// Restore rolls the store back to a previously captured snapshot.
func (s *Store) Restore(snapshot Pipeline) {
	s.current = snapshot
	s.version++
}
