package domain

type ProximityEventType string

const (
	BarangayEntry ProximityEventType = "barangay_entry"
	StreetArrival ProximityEventType = "street_arrival"
)

// ProximityEvent is produced by the proximity engine when a truck
// crosses into a barangay or arrives at a street marker.
type ProximityEvent struct {
	Type     ProximityEventType
	TruckID  string
	Barangay string
	Street   string // empty for barangay entry
	Lat      float64
	Lon      float64
}

// ProximityAlert is the structured form of a dispatched notification,
// published for downstream consumers.
type ProximityAlert struct {
	TruckID   string             `json:"truck_id"`
	Event     ProximityEventType `json:"event"`
	Barangay  string             `json:"barangay"`
	Street    string             `json:"street,omitempty"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Timestamp int64              `json:"timestamp"`
}

// TruckStatus is broadcast to every connected client when a truck's
// tracking state or fill level changes.
type TruckStatus struct {
	TruckID     string `json:"truckId"`
	StatusText  string `json:"statusText,omitempty"`
	PercentFull int    `json:"percentFull"`
}

// RoundTrip announces a completed full-to-empty cycle.
type RoundTrip struct {
	TruckID string `json:"truckId"`
	Count   int    `json:"count"`
}

// TruckFull announces that a truck reported a full load.
type TruckFull struct {
	TruckID     string `json:"truckId"`
	PercentFull int    `json:"percentFull"`
}
