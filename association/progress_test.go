package association

import (
	"testing"
	"time"

	"github.com/theoremus-urban-solutions/transight/feed"
	"github.com/theoremus-urban-solutions/transight/stops"
)

func timeAt(sec int) time.Time {
	return time.Date(2025, 3, 1, 10, 0, sec, 0, time.UTC)
}

func route72() stops.Route {
	return stops.Route{
		ID:   "72",
		Name: "Route 72",
		Waypoints: []stops.Waypoint{
			{Name: "Frenchay Campus", Latitude: 51.5046, Longitude: -2.5623},
			{Name: "Fishponds", Latitude: 51.4950, Longitude: -2.5700},
			{Name: "Eastville", Latitude: 51.4850, Longitude: -2.5750},
			{Name: "Temple Meads", Latitude: 51.4496, Longitude: -2.5811},
		},
	}
}

func TestProgressForRoute(t *testing.T) {
	e := testEngine()
	vehicles := map[string]feed.VehicleRecord{
		"BUS-1": {VehicleID: "BUS-1", LineRef: "72", Latitude: 51.4950, Longitude: -2.5700},
		"BUS-2": {VehicleID: "BUS-2", LineRef: "10", Latitude: 51.4950, Longitude: -2.5700},
	}

	got := e.ProgressForRoute(route72(), vehicles)
	if len(got) != 1 {
		t.Fatalf("progress entries = %d, want 1 (wrong-line vehicle skipped)", len(got))
	}
	p := got[0]
	if p.NearestWaypointIndex != 1 || p.NearestWaypoint.Name != "Fishponds" {
		t.Errorf("nearest waypoint = %d %q, want 1 Fishponds", p.NearestWaypointIndex, p.NearestWaypoint.Name)
	}
	if !p.OnRoute {
		t.Errorf("vehicle at a waypoint reported off-route (dist %v)", p.DistanceFromRouteKM)
	}
}

func TestProgressForRouteOffRoute(t *testing.T) {
	e := testEngine()
	vehicles := map[string]feed.VehicleRecord{
		// ~2km west of the Eastville waypoint.
		"BUS-1": {VehicleID: "BUS-1", LineRef: "72", Latitude: 51.4850, Longitude: -2.6040},
	}

	got := e.ProgressForRoute(route72(), vehicles)
	if len(got) != 1 {
		t.Fatalf("progress entries = %d, want 1", len(got))
	}
	if got[0].OnRoute {
		t.Errorf("vehicle %vkm from the path reported on-route", got[0].DistanceFromRouteKM)
	}
}

func TestProgressForRouteNoWaypoints(t *testing.T) {
	e := testEngine()
	route := stops.Route{ID: "10", Name: "Route 10"}
	vehicles := map[string]feed.VehicleRecord{
		"BUS-1": {VehicleID: "BUS-1", LineRef: "10", Latitude: 51.45, Longitude: -2.58},
	}
	if got := e.ProgressForRoute(route, vehicles); got != nil {
		t.Errorf("ProgressForRoute(no waypoints) = %+v, want nil", got)
	}
}
