package geospatial

import "github.com/samirrijal/geoguard/internal/core/domain"

// Verdict is the detailed result of evaluating a point against places.
type Verdict struct {
	Inside bool
	// MatchedIndex is the index of the first matching place, -1 if none.
	MatchedIndex int
	// Evaluated counts places that decoded and were tested.
	Evaluated int
	// Skipped lists the indexes of places that could not be decoded.
	Skipped []int
}

// PlaceInput pairs a geometry payload with an optional radius override used
// when the payload is a point.
type PlaceInput struct {
	Geometry     any
	RadiusMeters *float64
}

// BuildPlace decodes a geometry payload into a Place.
func BuildPlace(payload any) (domain.Place, bool) {
	g, ok := DecodeGeometry(payload)
	if !ok {
		return domain.Place{}, false
	}
	if center, ok := pointFromGeometry(g); ok {
		return domain.Place{Kind: domain.PlaceKindPoint, Center: center}, true
	}
	if poly, ok := polygonFromGeometry(g); ok {
		return domain.Place{Kind: domain.PlaceKindPolygon, Polygon: poly}, true
	}
	return domain.Place{}, false
}

// PlaceContains reports whether point matches place. Point places match when
// the point is within radiusMeters; a zero radius requires an exact match.
func PlaceContains(place domain.Place, point domain.GeoPoint, radiusMeters float64) bool {
	switch place.Kind {
	case domain.PlaceKindPoint:
		return DistanceMeters(point, place.Center) <= radiusMeters
	case domain.PlaceKindPolygon:
		return IsPointInPolygon(point, place.Polygon)
	default:
		return false
	}
}

// IsPointInsidePlaces reports whether point falls inside any of the places.
// Places that cannot be decoded are ignored.
func IsPointInsidePlaces(point domain.GeoPoint, places []any, radiusMeters float64) bool {
	inputs := make([]PlaceInput, len(places))
	for i, p := range places {
		inputs[i] = PlaceInput{Geometry: p}
	}
	return EvaluatePlaces(point, inputs, radiusMeters).Inside
}

// EvaluatePlaces tests point against places in order and stops at the first
// match.
func EvaluatePlaces(point domain.GeoPoint, places []PlaceInput, radiusMeters float64) Verdict {
	v := Verdict{MatchedIndex: -1}
	for i, in := range places {
		place, ok := BuildPlace(in.Geometry)
		if !ok {
			v.Skipped = append(v.Skipped, i)
			continue
		}
		v.Evaluated++

		radius := radiusMeters
		if in.RadiusMeters != nil {
			radius = *in.RadiusMeters
		}
		if PlaceContains(place, point, radius) {
			v.Inside = true
			v.MatchedIndex = i
			return v
		}
	}
	return v
}
