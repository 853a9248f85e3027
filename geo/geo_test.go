package geo

import (
	"math"
	"testing"
)

func TestDistanceKM(t *testing.T) {
	tests := []struct {
		name             string
		lon1, lat1       float64
		lon2, lat2       float64
		wantMin, wantMax float64
	}{
		{"identical points", -2.5811, 51.4496, -2.5811, 51.4496, 0, 0},
		{"temple meads to cabot circus", -2.5811, 51.4496, -2.5879, 51.4545, 0.6, 0.85},
		{"one degree of latitude", 0, 0, 0, 1, 111.0, 111.4},
		{"across the equator", 0, -0.5, 0, 0.5, 111.0, 111.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKM(tt.lon1, tt.lat1, tt.lon2, tt.lat2)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("DistanceKM() = %v, want in [%v, %v]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestDistanceKMSymmetry(t *testing.T) {
	a := DistanceKM(-2.5811, 51.4496, -2.5623, 51.5046)
	b := DistanceKM(-2.5623, 51.5046, -2.5811, 51.4496)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance is not symmetric: %v vs %v", a, b)
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		want       float64
	}{
		{"due north", 0, 0, 1, 0, 0},
		{"due east", 0, 0, 0, 1, 90},
		{"due south", 1, 0, 0, 0, 180},
		{"due west", 0, 1, 0, 0, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Bearing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandBBox(t *testing.T) {
	b := ExpandBBox(51.45, -2.59, 2.5)

	if !b.Contains(51.45, -2.59) {
		t.Fatalf("box %+v does not contain its own center", b)
	}
	// A point 1km north must be inside, 5km north must not.
	if !b.Contains(51.45+1.0/111.0, -2.59) {
		t.Errorf("box %+v excludes a point 1km north of center", b)
	}
	if b.Contains(51.45+5.0/111.0, -2.59) {
		t.Errorf("box %+v includes a point 5km north of center", b)
	}

	wantLatDelta := 2.5 / 111.0
	if got := b.MaxLat - 51.45; math.Abs(got-wantLatDelta) > 1e-9 {
		t.Errorf("lat half-span = %v, want %v", got, wantLatDelta)
	}
	// Longitude span widens with latitude.
	if (b.MaxLon - b.MinLon) <= (b.MaxLat - b.MinLat) {
		t.Errorf("expected lon span > lat span at 51.45N, got %+v", b)
	}
}

func TestExpandBBoxPoleClamp(t *testing.T) {
	b := ExpandBBox(90, 0, 1)
	if b.MaxLat != 90 {
		t.Errorf("MaxLat = %v, want clamped to 90", b.MaxLat)
	}
	if b.MinLon != -180 || b.MaxLon != 180 {
		t.Errorf("lon span = [%v, %v], want full range at the pole", b.MinLon, b.MaxLon)
	}
}

func TestBBoxEncloses(t *testing.T) {
	outer := ExpandBBox(51.45, -2.59, 10)
	inner := ExpandBBox(51.45, -2.59, 2)
	if !outer.Encloses(inner) {
		t.Errorf("10km box should enclose 2km box at same center")
	}
	if inner.Encloses(outer) {
		t.Errorf("2km box should not enclose 10km box")
	}
}

func TestValidWGS84(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"bristol", 51.4496, -2.5811, true},
		{"boundary", 90, 180, true},
		{"lat too high", 90.1, 0, false},
		{"lon too low", 0, -180.5, false},
		{"nan lat", math.NaN(), 0, false},
		{"nan lon", 0, math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidWGS84(tt.lat, tt.lon); got != tt.want {
				t.Errorf("ValidWGS84(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}
