package server

import (
	"context"

	"github.com/theoremus-urban-solutions/transight/association"
	"github.com/theoremus-urban-solutions/transight/cache"
	"github.com/theoremus-urban-solutions/transight/geo"
	"github.com/theoremus-urban-solutions/transight/stops"
)

// VehicleLocator resolves the position of the top-ranked vehicle heading to
// a stop, so persisted fusion records carry a live bus position when one is
// known. It satisfies fusion.VehicleLocator.
type VehicleLocator struct {
	Vehicles *cache.VehicleCache
	Assoc    *association.Engine
}

// NearestVehiclePosition returns the best-ETA relevant vehicle's position
// for a stop. ok is false when no relevant vehicle is live.
func (l *VehicleLocator) NearestVehiclePosition(ctx context.Context, stop stops.Stop) (float64, float64, bool) {
	bbox := geo.ExpandBBox(stop.Latitude, stop.Longitude, stopFeedRadiusKM)
	vehicles := l.Vehicles.Get(ctx, bbox)
	relevant := l.Assoc.VehiclesForStop(stop, vehicles)
	if len(relevant) == 0 {
		return 0, 0, false
	}
	best := relevant[0].Vehicle
	return best.Latitude, best.Longitude, true
}
