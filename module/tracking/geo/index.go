package geo

import (
	"log"
	"math"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
)

const earthRadiusMeters = 6371000

// Index is a read-only spatial lookup over street markers and barangay
// polygons. Built once at startup; safe for concurrent readers.
type Index struct {
	streets   []domain.Street
	barangays []domain.Barangay
}

// NewIndex builds an index from loaded map data. Barangay rings are
// closed if the data provider left them open; rings with fewer than
// three distinct vertices are dropped with a warning rather than
// failing startup.
func NewIndex(streets []domain.Street, barangays []domain.Barangay) *Index {
	ix := &Index{streets: streets}
	for _, b := range barangays {
		ring := closeRing(b.Ring)
		if distinctPoints(ring) < 3 {
			log.Printf("[geo] dropping barangay %q: degenerate boundary (%d distinct points)", b.Name, distinctPoints(ring))
			continue
		}
		b.Ring = ring
		ix.barangays = append(ix.barangays, b)
	}
	return ix
}

// Empty reports whether the index holds no street markers and no
// barangay polygons, the degraded mode after a failed data load.
func (ix *Index) Empty() bool {
	return len(ix.streets) == 0 && len(ix.barangays) == 0
}

// NearestStreet returns the street marker closest to the given point
// and its great-circle distance in meters. The first marker in load
// order wins ties. Returns false when no markers are loaded.
func (ix *Index) NearestStreet(lat, lon float64) (domain.Street, float64, bool) {
	if len(ix.streets) == 0 {
		return domain.Street{}, 0, false
	}
	best := ix.streets[0]
	bestDist := Distance(lat, lon, best.Point.Lat, best.Point.Lon)
	for _, st := range ix.streets[1:] {
		if d := Distance(lat, lon, st.Point.Lat, st.Point.Lon); d < bestDist {
			best, bestDist = st, d
		}
	}
	return best, bestDist, true
}

// ContainingBarangay returns the name of the first barangay (in load
// order) whose polygon contains the point. Barangays are assumed
// non-overlapping by the data provider; first match wins if they do.
func (ix *Index) ContainingBarangay(lat, lon float64) (string, bool) {
	for _, b := range ix.barangays {
		if pointInRing(lat, lon, b.Ring) {
			return b.Name, true
		}
	}
	return "", false
}

// Distance computes the haversine great-circle distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// pointInRing is a ray-casting test against a closed ring.
func pointInRing(lat, lon float64, ring []domain.Point) bool {
	inside := false
	for i := 0; i < len(ring)-1; i++ {
		a, b := ring[i], ring[i+1]
		if (a.Lat > lat) != (b.Lat > lat) &&
			lon < (b.Lon-a.Lon)*(lat-a.Lat)/(b.Lat-a.Lat)+a.Lon {
			inside = !inside
		}
	}
	return inside
}

func closeRing(ring []domain.Point) []domain.Point {
	if len(ring) == 0 {
		return ring
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(append([]domain.Point{}, ring...), ring[0])
	}
	return ring
}

func distinctPoints(ring []domain.Point) int {
	seen := make(map[domain.Point]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}
