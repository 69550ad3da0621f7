package main

import (
	"errors"
	"testing"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/pkg/geospatial"
)

const offices = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"key": "bilbao", "name": "Bilbao HQ"},
     "geometry": {"type": "Polygon", "coordinates": [[[-2.94,43.26],[-2.93,43.26],[-2.93,43.27],[-2.94,43.27],[-2.94,43.26]]]}},
    {"type": "Feature", "id": "paris", "properties": {"radius_meters": 12},
     "geometry": {"type": "Point", "coordinates": [2.2945,48.8584]}},
    {"type": "Feature", "properties": {"key": "route"},
     "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}},
    {"type": "Feature", "properties": {"key": "islands"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[0,0],[1,0],[1,1],[0,0]]],
       [[[5,5],[6,5],[6,6],[5,5]]]
     ]}},
    {"type": "Feature", "properties": {"radius_meters": -4},
     "geometry": {"type": "Point", "coordinates": [1,1]}}
  ]
}`

func TestZonesFromFeatures(t *testing.T) {
	fc, err := geojson.UnmarshalFeatureCollection([]byte(offices))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	zones, rejected := zonesFromFeatures(fc)

	wantKeys := []string{"bilbao", "paris", "islands-1", "islands-2"}
	if len(zones) != len(wantKeys) {
		t.Fatalf("expected %d zones, got %d: %+v", len(wantKeys), len(zones), zones)
	}
	for i, k := range wantKeys {
		if zones[i].Key != k {
			t.Errorf("zone %d key = %q, want %q", i, zones[i].Key, k)
		}
	}
	if zones[0].Name != "Bilbao HQ" {
		t.Errorf("expected name from properties, got %q", zones[0].Name)
	}
	if zones[1].RadiusMeters == nil || *zones[1].RadiusMeters != 12 {
		t.Errorf("expected radius 12 on paris, got %v", zones[1].RadiusMeters)
	}

	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejected features, got %+v", rejected)
	}
	if rejected[0].Key != "route" || !errors.Is(rejected[0].Reason, domain.ErrInvalidGeometry) {
		t.Errorf("unexpected rejection %+v", rejected[0])
	}
	if rejected[1].Key != "feature-4" || !errors.Is(rejected[1].Reason, domain.ErrInvalidRadius) {
		t.Errorf("unexpected rejection %+v", rejected[1])
	}
}

func TestZonesFromFeatures_GeometryRoundTrip(t *testing.T) {
	fc, err := geojson.UnmarshalFeatureCollection([]byte(offices))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	zones, _ := zonesFromFeatures(fc)

	place, ok := geospatial.BuildPlace([]byte(zones[0].Geometry))
	if !ok {
		t.Fatalf("stored geometry does not decode: %s", zones[0].Geometry)
	}
	if !geospatial.PlaceContains(place, domain.GeoPoint{Lat: 43.265, Lon: -2.935}, 0) {
		t.Error("expected the imported polygon to contain a point in Bilbao")
	}
}
