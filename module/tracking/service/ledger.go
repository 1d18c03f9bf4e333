package service

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
)

// Ledger is the authoritative last-known-position store. One entry per
// truck, last write wins; entries live until process restart.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]domain.TruckPosition
	now       func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		positions: make(map[string]domain.TruckPosition),
		now:       time.Now,
	}
}

// Record overwrites the stored position for a truck. Reports with a
// missing id or non-finite/out-of-range coordinates are rejected;
// callers log and drop them.
func (l *Ledger) Record(truckID string, lat, lon float64, source domain.Source) error {
	if truckID == "" {
		return fmt.Errorf("truck id: required")
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[truckID] = domain.TruckPosition{
		TruckID:   truckID,
		Lat:       lat,
		Lon:       lon,
		Source:    source,
		Timestamp: l.now(),
	}
	return nil
}

func (l *Ledger) Latest(truckID string) (domain.TruckPosition, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[truckID]
	return pos, ok
}

// All returns every stored position, ordered by truck id.
func (l *Ledger) All() []domain.TruckPosition {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.TruckPosition, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TruckID < out[j].TruckID })
	return out
}
