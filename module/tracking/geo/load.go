package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
)

// LoadStreets parses the street marker file, a JSON object mapping
// barangay name to its street list:
//
//	{"Acacia": [{"name": "Basilio St", "coords": [14.667, 120.967]}, ...]}
//
// Entries with missing or non-numeric coordinates are skipped.
func LoadStreets(path string) ([]domain.Street, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read streets: %w", err)
	}

	var groups map[string][]struct {
		Name   string    `json:"name"`
		Coords []float64 `json:"coords"`
	}
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("parse streets: %w", err)
	}

	barangays := make([]string, 0, len(groups))
	for name := range groups {
		barangays = append(barangays, name)
	}
	sort.Strings(barangays)

	var streets []domain.Street
	for _, barangay := range barangays {
		for _, e := range groups[barangay] {
			if len(e.Coords) != 2 || math.IsNaN(e.Coords[0]) || math.IsNaN(e.Coords[1]) {
				continue
			}
			streets = append(streets, domain.Street{
				Name:     e.Name,
				Barangay: barangay,
				Point:    domain.Point{Lat: e.Coords[0], Lon: e.Coords[1]},
			})
		}
	}
	return streets, nil
}

// LoadBarangays parses the polygon file, a JSON array of named rings:
//
//	[{"name": "Acacia", "color": "#2e7d32", "coords": [[14.66, 120.96], ...]}]
func LoadBarangays(path string) ([]domain.Barangay, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read barangays: %w", err)
	}

	var polys []struct {
		Name   string      `json:"name"`
		Color  string      `json:"color"`
		Coords [][]float64 `json:"coords"`
	}
	if err := json.Unmarshal(raw, &polys); err != nil {
		return nil, fmt.Errorf("parse barangays: %w", err)
	}

	var barangays []domain.Barangay
	for _, p := range polys {
		ring := make([]domain.Point, 0, len(p.Coords))
		for _, c := range p.Coords {
			if len(c) != 2 || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
				continue
			}
			ring = append(ring, domain.Point{Lat: c[0], Lon: c[1]})
		}
		barangays = append(barangays, domain.Barangay{Name: p.Name, Color: p.Color, Ring: ring})
	}
	return barangays, nil
}
