package tracking

import (
	"sync"
	"time"
)

// TrailEntry is one recorded position for a vehicle.
type TrailEntry struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// TrailStore holds a ring buffer of recent positions per vehicle. Appends
// beyond the cap evict the oldest entry. The store is owned by the vehicle
// cache refresh path; all other components read only.
type TrailStore struct {
	mu     sync.Mutex
	cap    int
	trails map[string][]TrailEntry
}

// NewTrailStore creates a store capped at maxEntries positions per vehicle.
func NewTrailStore(maxEntries int) *TrailStore {
	if maxEntries <= 0 {
		maxEntries = 20
	}
	return &TrailStore{
		cap:    maxEntries,
		trails: make(map[string][]TrailEntry),
	}
}

// Append records a position for a vehicle, evicting the oldest entry once
// the cap is reached.
func (s *TrailStore) Append(vehicleID string, lat, lon float64, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := append(s.trails[vehicleID], TrailEntry{Latitude: lat, Longitude: lon, Timestamp: ts})
	if len(trail) > s.cap {
		trail = trail[len(trail)-s.cap:]
	}
	s.trails[vehicleID] = trail
}

// Get returns the trail for a vehicle ordered oldest to newest. Unknown
// vehicles yield an empty slice.
func (s *TrailStore) Get(vehicleID string) []TrailEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := s.trails[vehicleID]
	out := make([]TrailEntry, len(trail))
	copy(out, trail)
	return out
}

// Len reports the number of vehicles with at least one trail entry.
func (s *TrailStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trails)
}
