package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Ring is a closed boundary of a polygon. The closing edge from the last
// vertex back to the first is implicit; a ring needs at least three points.
type Ring []GeoPoint

// Polygon is an outer ring followed by zero or more hole rings.
type Polygon []Ring

// Outer returns the outer boundary, or nil for an empty polygon.
func (p Polygon) Outer() Ring {
	if len(p) == 0 {
		return nil
	}
	return p[0]
}

// Holes returns the hole rings.
func (p Polygon) Holes() []Ring {
	if len(p) < 2 {
		return nil
	}
	return p[1:]
}

// PlaceKind tags a Place.
type PlaceKind int

const (
	PlaceKindPoint PlaceKind = iota + 1
	PlaceKindPolygon
)

func (k PlaceKind) String() string {
	switch k {
	case PlaceKindPoint:
		return "point"
	case PlaceKindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Place is an authorized place: either a center point matched within a
// tolerance radius, or a polygon.
type Place struct {
	Kind    PlaceKind
	Center  GeoPoint
	Polygon Polygon
}

// GeometryPayload is the external GeoJSON-style geometry. Coordinates are
// nested arrays in [longitude, latitude] order.
type GeometryPayload struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
