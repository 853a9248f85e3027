package association

import (
	"math"

	"github.com/theoremus-urban-solutions/transight/feed"
	"github.com/theoremus-urban-solutions/transight/geo"
	"github.com/theoremus-urban-solutions/transight/stops"
)

// RouteProgress snaps one vehicle onto a route's waypoint sequence.
type RouteProgress struct {
	Vehicle              feed.VehicleRecord `json:"vehicle"`
	NearestWaypointIndex int                `json:"nearest_waypoint_index"`
	NearestWaypoint      stops.Waypoint     `json:"nearest_waypoint"`
	DistanceFromRouteKM  float64            `json:"distance_from_route_km"`
	OnRoute              bool               `json:"on_route"`
}

// ProgressForRoute reports the nearest-waypoint position of every vehicle on
// a route. Vehicles whose line ref does not match the route are skipped, as
// are routes with no registered waypoints.
func (e *Engine) ProgressForRoute(route stops.Route, vehicles map[string]feed.VehicleRecord) []RouteProgress {
	if len(route.Waypoints) == 0 {
		return nil
	}
	out := make([]RouteProgress, 0)
	for _, v := range vehicles {
		if !e.onRegisteredRoute(v.LineRef, []string{route.ID}) {
			continue
		}
		idx, dist := nearestWaypoint(route.Waypoints, v.Latitude, v.Longitude)
		out = append(out, RouteProgress{
			Vehicle:              v,
			NearestWaypointIndex: idx,
			NearestWaypoint:      route.Waypoints[idx],
			DistanceFromRouteKM:  dist,
			OnRoute:              dist < e.cfg.OnRouteKM,
		})
	}
	return out
}

func nearestWaypoint(waypoints []stops.Waypoint, lat, lon float64) (int, float64) {
	minDist := math.MaxFloat64
	minIdx := 0
	for i, wp := range waypoints {
		dist := geo.DistanceKM(lon, lat, wp.Longitude, wp.Latitude)
		if dist < minDist {
			minDist = dist
			minIdx = i
		}
	}
	return minIdx, minDist
}
