package geo

import "math"

const earthRadiusMeters = 6_371_000.0

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = math.Pi / 180 * earthRadiusMeters

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// EquirectangularDist returns an approximate distance in meters.
// Accurate to well under 1% for distances of a few kilometers; use it to rank
// candidates, not to compute edge weights.
func EquirectangularDist(lat1, lon1, lat2, lon2 float64) float64 {
	x := (lon2 - lon1) * math.Cos((lat1+lat2)/2*math.Pi/180) * math.Pi / 180
	y := (lat2 - lat1) * math.Pi / 180
	return math.Sqrt(x*x+y*y) * earthRadiusMeters
}

// BoundingBox returns a lat/lon box that contains every point within
// meters of (lat, lon). Longitude span is widened near the poles.
func BoundingBox(lat, lon, meters float64) (minLat, minLon, maxLat, maxLon float64) {
	dLat := meters / metersPerDegree
	cosLat := math.Cos(lat * math.Pi / 180)
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = min(dLat/cosLat, 180)
	}
	return lat - dLat, lon - dLon, lat + dLat, lon + dLon
}
