package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantMeters       float64
		tolerancePercent float64
	}{
		{"same point", 1.3521, 103.8198, 1.3521, 103.8198, 0, 0},
		{"Singapore CBD to Changi", 1.2830, 103.8513, 1.3644, 103.9915, 18_000, 5},
		{"one degree of latitude", 0, 0, 1, 0, 111_195, 0.1},
		{"London to Paris", 51.5074, -0.1278, 48.8566, 2.3522, 343_500, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.wantMeters == 0 {
				assert.Zero(t, got)
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			assert.LessOrEqual(t, diff, tt.tolerancePercent, "Haversine = %f m", got)
		})
	}
}

func TestEquirectangularDist(t *testing.T) {
	// At Singapore latitude, equirectangular should be very close to Haversine.
	lat1, lon1 := 1.3521, 103.8198
	lat2, lon2 := 1.3600, 103.8300

	h := Haversine(lat1, lon1, lat2, lon2)
	e := EquirectangularDist(lat1, lon1, lat2, lon2)
	assert.InEpsilon(t, h, e, 0.005)
}

func TestBoundingBox(t *testing.T) {
	lat, lon := 1.3521, 103.8198
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, 500)

	// Every box edge is at least 500 m from the center.
	assert.GreaterOrEqual(t, Haversine(lat, lon, maxLat, lon), 499.0)
	assert.GreaterOrEqual(t, Haversine(lat, lon, minLat, lon), 499.0)
	assert.GreaterOrEqual(t, Haversine(lat, lon, lat, maxLon), 499.0)
	assert.GreaterOrEqual(t, Haversine(lat, lon, lat, minLon), 499.0)

	// Near the pole the longitude span is clamped.
	_, minLon, _, maxLon = BoundingBox(90, 0, 1000)
	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
}

func BenchmarkHaversine(b *testing.B) {
	for b.Loop() {
		Haversine(1.3521, 103.8198, 1.2905, 103.8520)
	}
}

func BenchmarkEquirectangularDist(b *testing.B) {
	for b.Loop() {
		EquirectangularDist(1.3521, 103.8198, 1.2905, 103.8520)
	}
}
