package domain

import "time"

// Source identifies where a position report originated.
type Source string

const (
	SourceDevice      Source = "device"
	SourceSimulator   Source = "simulator"
	SourceDrag        Source = "drag"
	SourceGeolocation Source = "geolocation"
)

// TruckPosition is the last known position of a truck. One entry per
// truck, overwritten on every report.
type TruckPosition struct {
	TruckID   string    `json:"truckId"`
	Lat       float64   `json:"latitude"`
	Lon       float64   `json:"longitude"`
	Source    Source    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TruckStats is the operational state derived from driver events,
// independent of position.
type TruckStats struct {
	TruckID        string    `json:"truckId"`
	TrackingActive bool      `json:"trackingActive"`
	PercentFull    int       `json:"percentFull"`
	RoundTrips     int       `json:"roundTrips"`
	LastLoadUpdate time.Time `json:"lastLoadUpdate"`
	TripStartedAt  time.Time `json:"tripStartedAt"`
}
