package geospatial

import (
	"math"
	"testing"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

func TestDistanceMeters_ZeroForSamePoint(t *testing.T) {
	points := []domain.GeoPoint{
		{Lat: 0, Lon: 0},
		{Lat: 48.8584, Lon: 2.2945},
		{Lat: -90, Lon: 180},
		{Lat: 43.263, Lon: -2.935},
	}
	for _, p := range points {
		if d := DistanceMeters(p, p); d != 0 {
			t.Errorf("DistanceMeters(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	pairs := [][2]domain.GeoPoint{
		{{Lat: 48.8584, Lon: 2.2945}, {Lat: 43.263, Lon: -2.935}},
		{{Lat: -33.86, Lon: 151.21}, {Lat: 51.5, Lon: -0.12}},
		{{Lat: 0, Lon: 179.9}, {Lat: 0, Lon: -179.9}},
	}
	for _, pr := range pairs {
		ab := DistanceMeters(pr[0], pr[1])
		ba := DistanceMeters(pr[1], pr[0])
		if ab != ba {
			t.Errorf("asymmetric distance: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceMeters_KnownValues(t *testing.T) {
	tests := []struct {
		name      string
		a, b      domain.GeoPoint
		want, tol float64
	}{
		{"ten thousandth of a degree of latitude", domain.GeoPoint{Lat: 48.8585, Lon: 2.2945}, domain.GeoPoint{Lat: 48.8584, Lon: 2.2945}, 11.12, 0.05},
		{"one degree on the equator", domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 0, Lon: 1}, 111194.9, 1},
		{"antimeridian", domain.GeoPoint{Lat: 0, Lon: 179.5}, domain.GeoPoint{Lat: 0, Lon: -179.5}, 111194.9, 1},
		{"antipodal", domain.GeoPoint{Lat: 0, Lon: 0}, domain.GeoPoint{Lat: 0, Lon: 180}, math.Pi * EarthRadiusMeters, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("DistanceMeters = %v, want %v ± %v", got, tt.want, tt.tol)
			}
		})
	}
}

func TestDistanceMeters_Monotonic(t *testing.T) {
	origin := domain.GeoPoint{Lat: 10, Lon: 10}
	prev := 0.0
	for i := 1; i <= 170; i++ {
		d := DistanceMeters(origin, domain.GeoPoint{Lat: 10, Lon: 10 + float64(i)/10})
		if d <= prev {
			t.Fatalf("distance not increasing at step %d: %v <= %v", i, d, prev)
		}
		prev = d
	}
}

func TestBoundingBox(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(43.263, -2.935, 500)
	if !(minLat < 43.263 && maxLat > 43.263 && minLon < -2.935 && maxLon > -2.935) {
		t.Fatalf("bounding box does not contain its center: %v %v %v %v", minLat, minLon, maxLat, maxLon)
	}
	// the box edge sits at roughly the requested radius
	if d := Haversine(43.263, -2.935, maxLat, -2.935); math.Abs(d-500) > 5 {
		t.Errorf("north edge at %v m, want ~500", d)
	}
}
