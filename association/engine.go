package association

import (
	"sort"
	"strings"

	"github.com/theoremus-urban-solutions/transight/config"
	"github.com/theoremus-urban-solutions/transight/feed"
	"github.com/theoremus-urban-solutions/transight/geo"
	"github.com/theoremus-urban-solutions/transight/stops"
	"github.com/theoremus-urban-solutions/transight/tracking"
)

// Match records why a vehicle was considered relevant to a stop.
type Match string

const (
	MatchNextStop  Match = "next_stop"
	MatchProximity Match = "proximity"
)

// RelevantVehicle is one vehicle associated with a stop, ranked for display.
type RelevantVehicle struct {
	Vehicle    feed.VehicleRecord    `json:"vehicle"`
	DistanceKM float64               `json:"distance_km"`
	ETAMinutes float64               `json:"eta_minutes"`
	MatchedBy  Match                 `json:"matched_by"`
	Trail      []tracking.TrailEntry `json:"trail"`
}

// Engine applies the stop/route association heuristics.
type Engine struct {
	cfg    config.AssociationConfig
	trails *tracking.TrailStore
}

// NewEngine builds an association engine with the configured thresholds.
func NewEngine(cfg config.AssociationConfig, trails *tracking.TrailStore) *Engine {
	return &Engine{cfg: cfg, trails: trails}
}

// VehiclesForStop filters and ranks a vehicle set against one stop. Only
// vehicles on one of the stop's registered routes are considered; of those,
// a vehicle is kept when its next-stop reference names this stop or when it
// is within the proximity threshold. Results are sorted by ascending ETA.
func (e *Engine) VehiclesForStop(stop stops.Stop, vehicles map[string]feed.VehicleRecord) []RelevantVehicle {
	out := make([]RelevantVehicle, 0)
	for _, v := range vehicles {
		if !e.onRegisteredRoute(v.LineRef, stop.RouteIDs) {
			continue
		}
		dist := geo.DistanceKM(v.Longitude, v.Latitude, stop.Longitude, stop.Latitude)

		var matched Match
		switch {
		case stop.Ref != "" && v.NextStopRef == stop.Ref:
			matched = MatchNextStop
		case dist <= e.cfg.ProximityKM:
			matched = MatchProximity
		default:
			continue
		}

		out = append(out, RelevantVehicle{
			Vehicle:    v,
			DistanceKM: dist,
			ETAMinutes: e.etaMinutes(dist, v),
			MatchedBy:  matched,
			Trail:      e.trails.Get(v.VehicleID),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ETAMinutes != out[j].ETAMinutes {
			return out[i].ETAMinutes < out[j].ETAMinutes
		}
		return out[i].DistanceKM < out[j].DistanceKM
	})
	return out
}

// etaMinutes estimates arrival time from distance, reported speed and known
// delay. The speed floor keeps a stationary or speed-less vehicle from
// producing an unbounded ETA.
func (e *Engine) etaMinutes(distKM float64, v feed.VehicleRecord) float64 {
	speed := v.SpeedKMH
	if speed < e.cfg.MinSpeedKMH {
		speed = e.cfg.MinSpeedKMH
	}
	return distKM/speed*60 + float64(v.DelayMinutes)
}

// onRegisteredRoute reports whether a vehicle's line ref matches any of the
// stop's routes. In prefix mode "72" matches "72", "72A" and "72-X" but not
// "720": a digit immediately after the route id means a different line.
func (e *Engine) onRegisteredRoute(lineRef string, routeIDs []string) bool {
	for _, r := range routeIDs {
		if lineRef == r {
			return true
		}
		if e.cfg.RouteMatchPrefix && routeLabelMatches(lineRef, r) {
			return true
		}
	}
	return false
}

func routeLabelMatches(lineRef, routeID string) bool {
	if !strings.HasPrefix(lineRef, routeID) || len(lineRef) == len(routeID) {
		return false
	}
	next := lineRef[len(routeID)]
	return next < '0' || next > '9'
}
