package service

import (
	"context"
	"sync"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/geo"
)

// DefaultArrivalThresholdMeters is how close a truck must be to a
// street marker to be considered "at" it.
const DefaultArrivalThresholdMeters = 15

type eventDispatcher interface {
	Dispatch(ctx context.Context, ev domain.ProximityEvent)
}

// ProximityService turns position reports into barangay-entry and
// street-arrival events. Both are edge-triggered: it remembers each
// truck's last barangay and last nearby street so steady-state reports
// (a truck parked at a marker, or circling inside one barangay) fire
// nothing.
type ProximityService struct {
	index      *geo.Index
	dispatcher eventDispatcher
	threshold  float64

	mu           sync.Mutex
	lastBarangay map[string]string
	lastStreet   map[string]string
}

// NewProximityService builds the engine. A zero threshold selects
// DefaultArrivalThresholdMeters.
func NewProximityService(index *geo.Index, dispatcher eventDispatcher, thresholdMeters float64) *ProximityService {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultArrivalThresholdMeters
	}
	return &ProximityService{
		index:        index,
		dispatcher:   dispatcher,
		threshold:    thresholdMeters,
		lastBarangay: make(map[string]string),
		lastStreet:   make(map[string]string),
	}
}

// Check evaluates one position report. A missing index match for
// either query is a silent no-op for that event type, never an error.
func (s *ProximityService) Check(ctx context.Context, truckID string, lat, lon float64) {
	barangay, inBarangay := s.index.ContainingBarangay(lat, lon)
	street, dist, hasStreet := s.index.NearestStreet(lat, lon)

	var events []domain.ProximityEvent

	s.mu.Lock()
	current := ""
	if inBarangay {
		current = barangay
	}
	if current != s.lastBarangay[truckID] {
		s.lastBarangay[truckID] = current
		// leaving into unzoned territory updates memory but
		// notifies nobody
		if current != "" {
			events = append(events, domain.ProximityEvent{
				Type:     domain.BarangayEntry,
				TruckID:  truckID,
				Barangay: current,
				Lat:      lat,
				Lon:      lon,
			})
		}
	}

	if hasStreet && dist <= s.threshold {
		key := street.Barangay + "/" + street.Name
		if s.lastStreet[truckID] != key {
			s.lastStreet[truckID] = key
			events = append(events, domain.ProximityEvent{
				Type:     domain.StreetArrival,
				TruckID:  truckID,
				Barangay: street.Barangay,
				Street:   street.Name,
				Lat:      lat,
				Lon:      lon,
			})
		}
	} else {
		// re-arm so coming back within the threshold fires again
		delete(s.lastStreet, truckID)
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.dispatcher.Dispatch(ctx, ev)
	}
}
