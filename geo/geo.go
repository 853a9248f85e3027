package geo

import "math"

const earthRadiusKM = 6371.0

// kmPerDegreeLat is the usual flat-earth approximation for one degree of
// latitude. Longitude degrees shrink with cos(lat).
const kmPerDegreeLat = 111.0

// BBox is a geographic bounding box in degrees: MinLon,MinLat,MaxLon,MaxLat.
type BBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Contains reports whether the point lies inside the box.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Encloses reports whether b fully covers other.
func (b BBox) Encloses(other BBox) bool {
	return b.MinLon <= other.MinLon && b.MinLat <= other.MinLat &&
		b.MaxLon >= other.MaxLon && b.MaxLat >= other.MaxLat
}

// DistanceKM returns the haversine great-circle distance between two points
// in kilometers. Identical points yield 0.
func DistanceKM(lon1, lat1, lon2, lat2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// Bearing returns the initial bearing from point 1 to point 2 in degrees,
// normalized to [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	x := math.Sin(deltaLambda) * math.Cos(phi2)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)

	bearing := math.Atan2(x, y) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// ExpandBBox approximates a square box of radiusKM around a center point.
// The longitude span uses radius/(111*cos(lat)), which degrades near the
// poles; there the box widens toward the full longitude range. This is a
// known approximation, acceptable for city-scale feed queries.
func ExpandBBox(lat, lon, radiusKM float64) BBox {
	latDelta := radiusKM / kmPerDegreeLat

	cosLat := math.Cos(lat * math.Pi / 180)
	lonDelta := 180.0
	if cosLat > 1e-6 {
		lonDelta = radiusKM / (kmPerDegreeLat * cosLat)
	}

	b := BBox{
		MinLon: lon - lonDelta,
		MinLat: lat - latDelta,
		MaxLon: lon + lonDelta,
		MaxLat: lat + latDelta,
	}
	if b.MinLat < -90 {
		b.MinLat = -90
	}
	if b.MaxLat > 90 {
		b.MaxLat = 90
	}
	if b.MinLon < -180 {
		b.MinLon = -180
	}
	if b.MaxLon > 180 {
		b.MaxLon = 180
	}
	return b
}

// ValidWGS84 reports whether a coordinate pair is inside valid WGS84 ranges.
// Records failing this never leave the feed parser.
func ValidWGS84(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
