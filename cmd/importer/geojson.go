package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoguard/internal/core/domain"
	"github.com/samirrijal/geoguard/internal/core/usecases"
)

// rejectedFeature describes a feature that could not become a zone.
type rejectedFeature struct {
	Index  int
	Key    string
	Reason error
}

// zonesFromFeatures converts a FeatureCollection into zones. Points and
// polygons map one to one; a multipolygon yields one zone per member with
// "-N" appended to its key. Features without a usable geometry or key are
// returned as rejected.
func zonesFromFeatures(fc *geojson.FeatureCollection) ([]domain.Zone, []rejectedFeature) {
	var zones []domain.Zone
	var rejected []rejectedFeature

	for i, f := range fc.Features {
		key := featureKey(f, i)
		name := stringProp(f.Properties, "name")
		radius := radiusProp(f.Properties)

		var geoms []orb.Geometry
		switch g := f.Geometry.(type) {
		case orb.Point, orb.Polygon:
			geoms = []orb.Geometry{g}
		case orb.MultiPolygon:
			for _, p := range g {
				geoms = append(geoms, p)
			}
		default:
			rejected = append(rejected, rejectedFeature{Index: i, Key: key, Reason: fmt.Errorf("%w: unsupported type %T", domain.ErrInvalidGeometry, f.Geometry)})
			continue
		}

		for n, g := range geoms {
			raw, err := json.Marshal(geojson.NewGeometry(g))
			if err != nil {
				rejected = append(rejected, rejectedFeature{Index: i, Key: key, Reason: err})
				continue
			}
			z := domain.Zone{
				Key:          key,
				Name:         name,
				Geometry:     raw,
				RadiusMeters: radius,
			}
			if len(geoms) > 1 {
				z.Key = key + "-" + strconv.Itoa(n+1)
			}
			if err := usecases.ValidateZone(&z); err != nil {
				rejected = append(rejected, rejectedFeature{Index: i, Key: z.Key, Reason: err})
				continue
			}
			zones = append(zones, z)
		}
	}
	return zones, rejected
}

// featureKey prefers the "key" property, then the feature id, then the
// position in the collection.
func featureKey(f *geojson.Feature, index int) string {
	if k := stringProp(f.Properties, "key"); k != "" {
		return k
	}
	switch id := f.ID.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return "feature-" + strconv.Itoa(index)
}

func stringProp(props geojson.Properties, key string) string {
	if v, ok := props[key]; ok {
		switch s := v.(type) {
		case string:
			return s
		case json.Number:
			return string(s)
		}
	}
	return ""
}

func radiusProp(props geojson.Properties) *float64 {
	v, ok := props["radius_meters"]
	if !ok {
		return nil
	}
	var r float64
	switch n := v.(type) {
	case float64:
		r = n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		r = f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil
		}
		r = f
	default:
		return nil
	}
	return &r
}
