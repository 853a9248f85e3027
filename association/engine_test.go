package association

import (
	"math"
	"testing"

	"github.com/theoremus-urban-solutions/transight/config"
	"github.com/theoremus-urban-solutions/transight/feed"
	"github.com/theoremus-urban-solutions/transight/stops"
	"github.com/theoremus-urban-solutions/transight/tracking"
)

func testEngine() *Engine {
	return NewEngine(config.AssociationConfig{
		ProximityKM:      2.5,
		MinSpeedKMH:      15,
		OnRouteKM:        0.5,
		RouteMatchPrefix: true,
	}, tracking.NewTrailStore(20))
}

func templeMeads() stops.Stop {
	return stops.Stop{
		ID:        "BST-001",
		Ref:       "0100BRP90340",
		Name:      "Temple Meads Station",
		Latitude:  51.4496,
		Longitude: -2.5811,
		RouteIDs:  []string{"72", "10"},
	}
}

func TestVehiclesForStop(t *testing.T) {
	stop := templeMeads()
	tests := []struct {
		name        string
		vehicle     feed.VehicleRecord
		wantKept    bool
		wantMatched Match
	}{
		{
			name: "next stop ref beyond proximity",
			vehicle: feed.VehicleRecord{
				VehicleID: "BUS-1", LineRef: "72",
				Latitude: 51.5046, Longitude: -2.5623, // Frenchay, ~6km out
				NextStopRef: "0100BRP90340",
			},
			wantKept:    true,
			wantMatched: MatchNextStop,
		},
		{
			name: "nearby without next stop ref",
			vehicle: feed.VehicleRecord{
				VehicleID: "BUS-2", LineRef: "72",
				Latitude: 51.4545, Longitude: -2.5879, // ~0.7km
			},
			wantKept:    true,
			wantMatched: MatchProximity,
		},
		{
			name: "far with no next stop ref",
			vehicle: feed.VehicleRecord{
				VehicleID: "BUS-3", LineRef: "72",
				Latitude: 51.5046, Longitude: -2.5623,
			},
			wantKept: false,
		},
		{
			name: "wrong route excluded even when close",
			vehicle: feed.VehicleRecord{
				VehicleID: "BUS-4", LineRef: "99",
				Latitude: 51.4496, Longitude: -2.5811,
			},
			wantKept: false,
		},
		{
			name: "lettered variant of registered route",
			vehicle: feed.VehicleRecord{
				VehicleID: "BUS-5", LineRef: "72A",
				Latitude: 51.4545, Longitude: -2.5879,
			},
			wantKept:    true,
			wantMatched: MatchProximity,
		},
		{
			name: "numeric extension is a different line",
			vehicle: feed.VehicleRecord{
				VehicleID: "BUS-6", LineRef: "720",
				Latitude: 51.4496, Longitude: -2.5811,
			},
			wantKept: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine()
			got := e.VehiclesForStop(stop, map[string]feed.VehicleRecord{
				tt.vehicle.VehicleID: tt.vehicle,
			})
			if tt.wantKept != (len(got) == 1) {
				t.Fatalf("kept = %v, want %v (result %+v)", len(got) == 1, tt.wantKept, got)
			}
			if tt.wantKept && got[0].MatchedBy != tt.wantMatched {
				t.Errorf("MatchedBy = %q, want %q", got[0].MatchedBy, tt.wantMatched)
			}
		})
	}
}

func TestVehiclesForStopRanking(t *testing.T) {
	e := testEngine()
	stop := templeMeads()

	vehicles := map[string]feed.VehicleRecord{
		"BUS-FAR": {
			VehicleID: "BUS-FAR", LineRef: "72",
			Latitude: 51.4650, Longitude: -2.5850, // ~1.7km
			SpeedKMH: 30,
		},
		"BUS-NEAR": {
			VehicleID: "BUS-NEAR", LineRef: "72",
			Latitude: 51.4510, Longitude: -2.5880, // ~0.5km
			SpeedKMH: 30,
		},
	}
	got := e.VehiclesForStop(stop, vehicles)
	if len(got) != 2 {
		t.Fatalf("kept %d vehicles, want 2", len(got))
	}
	if got[0].Vehicle.VehicleID != "BUS-NEAR" {
		t.Errorf("first ranked = %s, want BUS-NEAR", got[0].Vehicle.VehicleID)
	}
	if got[0].ETAMinutes >= got[1].ETAMinutes {
		t.Errorf("ETAs not ascending: %v then %v", got[0].ETAMinutes, got[1].ETAMinutes)
	}
}

func TestETAMinutes(t *testing.T) {
	e := testEngine()
	tests := []struct {
		name    string
		distKM  float64
		vehicle feed.VehicleRecord
		want    float64
	}{
		{"speed floor applied", 5, feed.VehicleRecord{SpeedKMH: 0}, 20},
		{"reported speed used", 5, feed.VehicleRecord{SpeedKMH: 30}, 10},
		{"crawling vehicle floored", 5, feed.VehicleRecord{SpeedKMH: 3}, 20},
		{"delay added", 5, feed.VehicleRecord{SpeedKMH: 30, DelayMinutes: 4}, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.etaMinutes(tt.distKM, tt.vehicle)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("etaMinutes(%v) = %v, want %v", tt.distKM, got, tt.want)
			}
		})
	}
}

func TestVehiclesForStopIncludesTrail(t *testing.T) {
	trails := tracking.NewTrailStore(20)
	e := NewEngine(config.AssociationConfig{ProximityKM: 2.5, MinSpeedKMH: 15}, trails)
	trails.Append("BUS-1", 51.4500, -2.5820, timeAt(0))
	trails.Append("BUS-1", 51.4498, -2.5815, timeAt(30))

	stop := templeMeads()
	got := e.VehiclesForStop(stop, map[string]feed.VehicleRecord{
		"BUS-1": {VehicleID: "BUS-1", LineRef: "72", Latitude: 51.4496, Longitude: -2.5811},
	})
	if len(got) != 1 {
		t.Fatalf("kept %d vehicles, want 1", len(got))
	}
	if len(got[0].Trail) != 2 {
		t.Errorf("trail length = %d, want 2", len(got[0].Trail))
	}
}
