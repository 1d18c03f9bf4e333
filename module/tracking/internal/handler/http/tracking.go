package http

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/domain"
	"github.com/IPT1-RAFAEL/TrashTracktify/module/tracking/geo"
)

// etaMetersPerMinute is the assumed collection pace of a truck working
// its route, stops included.
const etaMetersPerMinute = 11.1

// arrivedMeters is the distance under which a truck counts as already
// at its next stop.
const arrivedMeters = 15.0

type ledgerReader interface {
	Latest(truckID string) (domain.TruckPosition, bool)
	All() []domain.TruckPosition
}

type statsReader interface {
	All() []domain.TruckStats
	TotalRoundTrips() int
}

type TrackingHandler struct {
	ledger ledgerReader
	stats  statsReader
	index  *geo.Index
}

func NewTrackingHandler(ledger ledgerReader, stats statsReader, index *geo.Index) *TrackingHandler {
	return &TrackingHandler{ledger: ledger, stats: stats, index: index}
}

func (h *TrackingHandler) Register(r *gin.RouterGroup) {
	r.GET("/trucks", h.GetAllTrucks)
	r.GET("/trucks/:truck_id/location", h.GetLatestLocation)
	r.GET("/eta/:truck_id", h.GetETA)
	r.GET("/stats/roundtrips", h.GetRoundTrips)
}

func (h *TrackingHandler) GetAllTrucks(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.All())
}

func (h *TrackingHandler) GetLatestLocation(c *gin.Context) {
	pos, ok := h.ledger.Latest(c.Param("truck_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "truck not found"})
		return
	}
	c.JSON(http.StatusOK, pos)
}

// GetETA estimates minutes until the truck reaches its next stop, the
// nearest street marker to its last known position.
func (h *TrackingHandler) GetETA(c *gin.Context) {
	truckID := c.Param("truck_id")

	pos, ok := h.ledger.Latest(truckID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"etaMinutes": -1, "nextStop": "Unknown", "error": "no location data"})
		return
	}

	street, dist, found := h.index.NearestStreet(pos.Lat, pos.Lon)
	if !found {
		c.JSON(http.StatusInternalServerError, gin.H{"etaMinutes": -1, "nextStop": "Unknown", "error": "street markers not loaded"})
		return
	}

	etaMinutes := 0
	if dist > arrivedMeters {
		etaMinutes = int(math.Round(dist / etaMetersPerMinute))
	}
	c.JSON(http.StatusOK, gin.H{"etaMinutes": etaMinutes, "nextStop": street.Name})
}

func (h *TrackingHandler) GetRoundTrips(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"total":  h.stats.TotalRoundTrips(),
		"trucks": h.stats.All(),
	})
}
