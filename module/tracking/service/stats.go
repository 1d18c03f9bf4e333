package service

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
)

// Broadcaster fans truck state changes out to every connected client.
// Implemented by the websocket hub.
type Broadcaster interface {
	BroadcastStatus(status domain.TruckStatus)
	BroadcastFull(full domain.TruckFull)
	BroadcastRoundTrip(trip domain.RoundTrip)
}

// StatsService maintains per-truck operational state from driver
// events: tracking on/off, fill percentage and completed round trips.
// State is keyed by truck id, not connection identity, so it survives
// client reconnects.
type StatsService struct {
	broadcast Broadcaster
	now       func() time.Time

	mu    sync.Mutex
	stats map[string]*domain.TruckStats
}

func NewStatsService(broadcast Broadcaster) *StatsService {
	return &StatsService{
		broadcast: broadcast,
		now:       time.Now,
		stats:     make(map[string]*domain.TruckStats),
	}
}

func (s *StatsService) TrackingStarted(truckID string) {
	s.mu.Lock()
	st := s.ensure(truckID)
	st.TrackingActive = true
	st.TripStartedAt = s.now()
	snapshot := *st
	s.mu.Unlock()

	log.Printf("[stats] truck %s started tracking", truckID)
	s.broadcast.BroadcastStatus(domain.TruckStatus{
		TruckID:     truckID,
		StatusText:  "Active",
		PercentFull: snapshot.PercentFull,
	})
	if snapshot.RoundTrips > 0 {
		s.broadcast.BroadcastRoundTrip(domain.RoundTrip{TruckID: truckID, Count: snapshot.RoundTrips})
	}
}

func (s *StatsService) TrackingStopped(truckID string) {
	s.mu.Lock()
	st := s.ensure(truckID)
	st.TrackingActive = false
	st.TripStartedAt = time.Time{}
	snapshot := *st
	s.mu.Unlock()

	log.Printf("[stats] truck %s stopped tracking", truckID)
	s.broadcast.BroadcastStatus(domain.TruckStatus{
		TruckID:     truckID,
		StatusText:  "Inactive",
		PercentFull: snapshot.PercentFull,
	})
}

// LoadUpdate records a new fill percentage. A round trip is counted
// only on the full-to-empty edge: the previous value was at least 100
// and the new one is exactly 0. Repeated zeros cannot double-count
// because the previous value is already 0 after the first reset.
func (s *StatsService) LoadUpdate(truckID string, percent int, at time.Time) {
	if percent < 0 || percent > 100 {
		log.Printf("[stats] clamping out-of-range load %d%% for truck %s", percent, truckID)
		percent = clampPercent(percent)
	}
	if at.IsZero() {
		at = s.now()
	}

	s.mu.Lock()
	st := s.ensure(truckID)
	old := st.PercentFull
	st.PercentFull = percent
	st.LastLoadUpdate = at

	full := percent >= 100
	tripDone := false
	trips := st.RoundTrips
	if !full && percent == 0 {
		if old >= 100 {
			st.RoundTrips++
			trips = st.RoundTrips
			tripDone = true
		}
		st.TripStartedAt = s.now()
	}
	s.mu.Unlock()

	s.broadcast.BroadcastStatus(domain.TruckStatus{TruckID: truckID, PercentFull: percent})
	if full {
		s.broadcast.BroadcastFull(domain.TruckFull{TruckID: truckID, PercentFull: 100})
	}
	if tripDone {
		log.Printf("[stats] truck %s completed round trip %d", truckID, trips)
		s.broadcast.BroadcastRoundTrip(domain.RoundTrip{TruckID: truckID, Count: trips})
	}
}

func (s *StatsService) Stats(truckID string) (domain.TruckStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[truckID]
	if !ok {
		return domain.TruckStats{}, false
	}
	return *st, true
}

// All returns a snapshot of every truck's stats, ordered by truck id.
func (s *StatsService) All() []domain.TruckStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.TruckStats, 0, len(s.stats))
	for _, st := range s.stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TruckID < out[j].TruckID })
	return out
}

func (s *StatsService) TotalRoundTrips() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, st := range s.stats {
		total += st.RoundTrips
	}
	return total
}

// LatestPercentFull reports the fill level of the most recently
// updated truck.
func (s *StatsService) LatestPercentFull() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.TruckStats
	for _, st := range s.stats {
		if st.LastLoadUpdate.IsZero() {
			continue
		}
		if latest == nil || st.LastLoadUpdate.After(latest.LastLoadUpdate) {
			latest = st
		}
	}
	if latest == nil {
		return 0, false
	}
	return latest.PercentFull, true
}

func (s *StatsService) ensure(truckID string) *domain.TruckStats {
	st, ok := s.stats[truckID]
	if !ok {
		st = &domain.TruckStats{TruckID: truckID}
		s.stats[truckID] = st
	}
	return st
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
