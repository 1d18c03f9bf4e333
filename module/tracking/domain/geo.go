package domain

// Point is a geographic coordinate (WGS 84).
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Street is a fixed collection-point marker inside a barangay.
type Street struct {
	Name     string `json:"name"`
	Barangay string `json:"barangay"`
	Point    Point  `json:"point"`
}

// Barangay is a named service area bounded by a polygon ring.
type Barangay struct {
	Name  string  `json:"name"`
	Color string  `json:"color,omitempty"`
	Ring  []Point `json:"ring"`
}
