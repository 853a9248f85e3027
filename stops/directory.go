package stops

import (
	"errors"
	"sort"

	"github.com/theoremus-urban-solutions/transight/geo"
)

// ErrNotFound reports a stop or route id that is not in the registry. It is
// the only caller-input error in the system; everything else degrades to a
// documented fallback.
var ErrNotFound = errors.New("not found in registry")

// Stop is one monitored stop. Immutable after registry load.
type Stop struct {
	ID            string   `yaml:"id" json:"stop_id"`
	Ref           string   `yaml:"ref" json:"ref,omitempty"` // external stop point reference (ATCO code)
	Name          string   `yaml:"name" json:"name"`
	Latitude      float64  `yaml:"lat" json:"latitude"`
	Longitude     float64  `yaml:"lon" json:"longitude"`
	RouteIDs      []string `yaml:"routes" json:"routes"`
	SequenceOrder int      `yaml:"sequence" json:"sequence,omitempty"`
}

// Waypoint is one named point on a route's expected path.
type Waypoint struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"lat" json:"latitude"`
	Longitude float64 `yaml:"lon" json:"longitude"`
}

// Route is one registered line with its ordered stops and path waypoints.
type Route struct {
	ID        string     `yaml:"id" json:"route_id"`
	Name      string     `yaml:"name" json:"name"`
	StopIDs   []string   `yaml:"stops" json:"stops"`
	Waypoints []Waypoint `yaml:"waypoints" json:"waypoints,omitempty"`
}

// NearbyStop pairs a stop with its distance from a query point.
type NearbyStop struct {
	Stop       Stop    `json:"stop"`
	DistanceKM float64 `json:"distance_km"`
}

// Directory is the read-only registry of stops and routes.
type Directory struct {
	stops  map[string]Stop
	routes map[string]Route
	order  []string
}

// NewDirectory builds a directory from loaded registry entries.
func NewDirectory(stopList []Stop, routeList []Route) *Directory {
	d := &Directory{
		stops:  make(map[string]Stop, len(stopList)),
		routes: make(map[string]Route, len(routeList)),
		order:  make([]string, 0, len(stopList)),
	}
	for _, s := range stopList {
		d.stops[s.ID] = s
		d.order = append(d.order, s.ID)
	}
	for _, r := range routeList {
		d.routes[r.ID] = r
	}
	return d
}

// All returns every registered stop in registry order.
func (d *Directory) All() []Stop {
	out := make([]Stop, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.stops[id])
	}
	return out
}

// ByID resolves one stop, or ErrNotFound.
func (d *Directory) ByID(id string) (Stop, error) {
	s, ok := d.stops[id]
	if !ok {
		return Stop{}, ErrNotFound
	}
	return s, nil
}

// Near returns stops within radiusKM of a point, sorted by ascending
// distance.
func (d *Directory) Near(lat, lon, radiusKM float64) []NearbyStop {
	out := make([]NearbyStop, 0)
	for _, id := range d.order {
		s := d.stops[id]
		dist := geo.DistanceKM(lon, lat, s.Longitude, s.Latitude)
		if dist <= radiusKM {
			out = append(out, NearbyStop{Stop: s, DistanceKM: dist})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKM < out[j].DistanceKM })
	return out
}

// Routes returns every registered route.
func (d *Directory) Routes() []Route {
	out := make([]Route, 0, len(d.routes))
	for _, r := range d.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RouteByID resolves one route, or ErrNotFound.
func (d *Directory) RouteByID(id string) (Route, error) {
	r, ok := d.routes[id]
	if !ok {
		return Route{}, ErrNotFound
	}
	return r, nil
}

// StopCount reports the number of registered stops.
func (d *Directory) StopCount() int { return len(d.stops) }

// RouteCount reports the number of registered routes.
func (d *Directory) RouteCount() int { return len(d.routes) }
