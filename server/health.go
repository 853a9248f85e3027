package server

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status             string `json:"status"`
	Timestamp          string `json:"timestamp"`
	ModelConfigured    bool   `json:"model_configured"`
	PersistenceEnabled bool   `json:"persistence_enabled"`
	StopsConfigured    int    `json:"stops_configured"`
	RoutesConfigured   int    `json:"routes_configured"`
	VehiclesWithTrails int    `json:"vehicles_with_trails"`
	LatestFeedEpoch    int64  `json:"latest_feed_epoch"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	var latest int64
	if t := h.deps.Vehicles.LastFetched(); !t.IsZero() {
		latest = t.Unix()
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:             "ok",
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		ModelConfigured:    h.deps.Predictor.Configured(),
		PersistenceEnabled: h.deps.Store != nil,
		StopsConfigured:    h.deps.Directory.StopCount(),
		RoutesConfigured:   h.deps.Directory.RouteCount(),
		VehiclesWithTrails: h.deps.Trails.Len(),
		LatestFeedEpoch:    latest,
	})
}
