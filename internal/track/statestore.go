package track

// StateStore maps canonical instant text to the telemetry snapshot
// recorded at that instant. Lookups are exact-match only: no interpolation
// of auxiliary state is performed between known instants.
//
// The store is built once per loaded track and is read-only afterwards, so
// concurrent reads (the scrubbing collaborator) need no locking.
type StateStore struct {
	states map[string]AuxState
}

// NewStateStore returns an empty store.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]AuxState)}
}

// Add records the state observed at the given instant. The first state
// recorded for an instant wins; later duplicates are ignored.
func (s *StateStore) Add(at Instant, aux AuxState) {
	key := at.Canonical()
	if _, exists := s.states[key]; exists {
		return
	}
	s.states[key] = aux
}

// Lookup returns the state recorded at exactly the queried instant. The
// query is converted to the same canonical text used at build time; any
// instant not present, including instants between two known samples,
// returns ok=false.
func (s *StateStore) Lookup(at Instant) (AuxState, bool) {
	aux, ok := s.states[at.Canonical()]
	return aux, ok
}

// Len returns the number of distinct instants in the store.
func (s *StateStore) Len() int { return len(s.states) }
