package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/theoremus-urban-solutions/transight/association"
	"github.com/theoremus-urban-solutions/transight/feed"
	"github.com/theoremus-urban-solutions/transight/fusion"
	"github.com/theoremus-urban-solutions/transight/geo"
	"github.com/theoremus-urban-solutions/transight/stops"
	"github.com/theoremus-urban-solutions/transight/store"
)

const (
	defaultNearbyRadiusKM = 1.0
	defaultBusesRadiusKM  = 5.0
	// stopFeedRadiusKM scopes the feed query when listing buses for a stop:
	// wide enough to catch anything the association proximity rule or an
	// explicit next-stop reference could pull in.
	stopFeedRadiusKM = 10.0
)

type handlers struct {
	deps Deps
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryFloat(r *http.Request, key string) (float64, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// sensorUpdate runs one fusion invocation for a pushed crowd observation.
func (h *handlers) sensorUpdate(w http.ResponseWriter, r *http.Request) {
	var obs fusion.Observation
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		writeError(w, http.StatusBadRequest, "malformed sensor payload")
		return
	}
	if obs.StopID == "" {
		writeError(w, http.StatusBadRequest, "stop_id is required")
		return
	}
	if obs.CrowdCount < 0 {
		writeError(w, http.StatusBadRequest, "crowd_count must be non-negative")
		return
	}

	res, err := h.deps.Fusion.Fuse(r.Context(), obs)
	if err != nil {
		if errors.Is(err, stops.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no such stop: "+obs.StopID)
			return
		}
		h.deps.Log.Errorw("fusion failed", "stop_id", obs.StopID, "error", err)
		writeError(w, http.StatusInternalServerError, "fusion failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// listStops returns all stops, or those near a point when lat/lon are given.
func (h *handlers) listStops(w http.ResponseWriter, r *http.Request) {
	lat, okLat := queryFloat(r, "lat")
	lon, okLon := queryFloat(r, "lon")
	if okLat && okLon {
		radius := defaultNearbyRadiusKM
		if v, ok := queryFloat(r, "radius"); ok && v > 0 {
			radius = v
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"stops": h.deps.Directory.Near(lat, lon, radius),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stops": h.deps.Directory.All()})
}

func (h *handlers) stopDetail(w http.ResponseWriter, r *http.Request) {
	stop, err := h.deps.Directory.ByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no such stop")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stop":       stop,
		"prediction": h.latestOrDefault(r, stop),
	})
}

// busesForStop lists the vehicles associated with a stop, ranked by ETA.
// Feed failures fall back to cached or empty data; the status stays 200.
func (h *handlers) busesForStop(w http.ResponseWriter, r *http.Request) {
	stop, err := h.deps.Directory.ByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no such stop")
		return
	}

	bbox := geo.ExpandBBox(stop.Latitude, stop.Longitude, stopFeedRadiusKM)
	vehicles := h.deps.Vehicles.Get(r.Context(), bbox)
	relevant := h.deps.Assoc.VehiclesForStop(stop, vehicles)

	writeJSON(w, http.StatusOK, map[string]any{
		"stop":  stop,
		"buses": relevant,
	})
}

type annotatedVehicle struct {
	Vehicle    feed.VehicleRecord `json:"vehicle"`
	DistanceKM float64            `json:"distance_km"`
}

// allBuses lists every vehicle in the expanded bbox around a point.
func (h *handlers) allBuses(w http.ResponseWriter, r *http.Request) {
	lat, okLat := queryFloat(r, "lat")
	lon, okLon := queryFloat(r, "lon")
	if !okLat || !okLon {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	radius := defaultBusesRadiusKM
	if v, ok := queryFloat(r, "radius"); ok && v > 0 {
		radius = v
	}

	bbox := geo.ExpandBBox(lat, lon, radius)
	vehicles := h.deps.Vehicles.Get(r.Context(), bbox)

	out := make([]annotatedVehicle, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, annotatedVehicle{
			Vehicle:    v,
			DistanceKM: geo.DistanceKM(lon, lat, v.Longitude, v.Latitude),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"buses":     out,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) listRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"routes": h.deps.Directory.Routes()})
}

func (h *handlers) routeDetail(w http.ResponseWriter, r *http.Request) {
	route, err := h.deps.Directory.RouteByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no such route")
		return
	}

	type routeStop struct {
		Stop       stops.Stop              `json:"stop"`
		Prediction *store.PredictionRecord `json:"prediction,omitempty"`
	}
	stopsOut := make([]routeStop, 0, len(route.StopIDs))
	for _, id := range route.StopIDs {
		stop, err := h.deps.Directory.ByID(id)
		if err != nil {
			continue
		}
		rs := routeStop{Stop: stop}
		if rec := h.latestOrDefault(r, stop); rec != nil {
			rs.Prediction = rec
		}
		stopsOut = append(stopsOut, rs)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"route": route,
		"stops": stopsOut,
	})
}

// busesForRoute reports nearest-waypoint progress for every vehicle on a
// route.
func (h *handlers) busesForRoute(w http.ResponseWriter, r *http.Request) {
	route, err := h.deps.Directory.RouteByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no such route")
		return
	}

	bbox, ok := h.routeBBox(route)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"route_id": route.ID, "buses": []association.RouteProgress{}})
		return
	}
	vehicles := h.deps.Vehicles.Get(r.Context(), bbox)
	progress := h.deps.Assoc.ProgressForRoute(route, vehicles)
	if progress == nil {
		progress = []association.RouteProgress{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"route_id": route.ID,
		"buses":    progress,
	})
}

func (h *handlers) routeGeometry(w http.ResponseWriter, r *http.Request) {
	route, err := h.deps.Directory.RouteByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no such route")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"route_id":  route.ID,
		"name":      route.Name,
		"waypoints": route.Waypoints,
	})
}

// routeBBox covers a route's waypoints (or its stops when no waypoints are
// registered) with a margin for vehicles slightly off the path.
func (h *handlers) routeBBox(route stops.Route) (geo.BBox, bool) {
	points := make([][2]float64, 0, len(route.Waypoints)+len(route.StopIDs))
	for _, wp := range route.Waypoints {
		points = append(points, [2]float64{wp.Latitude, wp.Longitude})
	}
	for _, id := range route.StopIDs {
		if stop, err := h.deps.Directory.ByID(id); err == nil {
			points = append(points, [2]float64{stop.Latitude, stop.Longitude})
		}
	}
	if len(points) == 0 {
		return geo.BBox{}, false
	}

	bbox := geo.BBox{MinLat: 90, MaxLat: -90, MinLon: 180, MaxLon: -180}
	for _, p := range points {
		if p[0] < bbox.MinLat {
			bbox.MinLat = p[0]
		}
		if p[0] > bbox.MaxLat {
			bbox.MaxLat = p[0]
		}
		if p[1] < bbox.MinLon {
			bbox.MinLon = p[1]
		}
		if p[1] > bbox.MaxLon {
			bbox.MaxLon = p[1]
		}
	}
	const marginDeg = 2.0 / 111.0
	bbox.MinLat -= marginDeg
	bbox.MaxLat += marginDeg
	bbox.MinLon -= marginDeg
	bbox.MaxLon += marginDeg
	return bbox, true
}

// latestPrediction returns the newest persisted record for a stop, or the
// deterministic default when none exists.
func (h *handlers) latestPrediction(w http.ResponseWriter, r *http.Request) {
	stop, err := h.deps.Directory.ByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no such stop")
		return
	}
	rec := h.latestOrDefault(r, stop)
	writeJSON(w, http.StatusOK, map[string]any{
		"stop_id":    stop.ID,
		"stop_name":  stop.Name,
		"prediction": rec,
	})
}

// latestOrDefault never fails: store errors and missing rows both yield the
// default payload (zero delays, base confidence, Unknown traffic).
func (h *handlers) latestOrDefault(r *http.Request, stop stops.Stop) *store.PredictionRecord {
	def := &store.PredictionRecord{
		StopID:        stop.ID,
		Confidence:    0.85,
		TrafficStatus: "Unknown",
		VehicleLat:    stop.Latitude,
		VehicleLon:    stop.Longitude,
	}
	if h.deps.Store == nil {
		return def
	}
	rec, err := h.deps.Store.Latest(r.Context(), stop.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNoRows) {
			h.deps.Log.Warnw("prediction lookup failed, serving default", "stop_id", stop.ID, "error", err)
		}
		return def
	}
	return &rec
}

// analytics summarizes a stop's prediction history over a window.
func (h *handlers) analytics(w http.ResponseWriter, r *http.Request) {
	stop, err := h.deps.Directory.ByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no such stop")
		return
	}
	hours := 24
	if s := r.URL.Query().Get("hours"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			hours = v
		}
	}

	if h.deps.Store == nil {
		writeJSON(w, http.StatusOK, store.Aggregates{StopID: stop.ID, PeriodHours: hours})
		return
	}
	agg, err := h.deps.Store.AggregatesFor(r.Context(), stop.ID, hours)
	if err != nil {
		h.deps.Log.Warnw("analytics query failed, serving empty window", "stop_id", stop.ID, "error", err)
		agg = store.Aggregates{StopID: stop.ID, PeriodHours: hours}
	}
	writeJSON(w, http.StatusOK, agg)
}
