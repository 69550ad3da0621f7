package geospatial

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

const (
	geometryTypePoint   = "point"
	geometryTypePolygon = "polygon"
)

// DecodeGeometry turns an external geometry into a GeometryPayload. Input may
// be JSON text, a decoded map, a protobuf Struct or a GeometryPayload. It
// returns false for invalid JSON, non-object input or a missing type.
func DecodeGeometry(input any) (*domain.GeometryPayload, bool) {
	switch v := input.(type) {
	case nil:
		return nil, false
	case domain.GeometryPayload:
		if v.Type == "" {
			return nil, false
		}
		return &v, true
	case *domain.GeometryPayload:
		if v == nil || v.Type == "" {
			return nil, false
		}
		cp := *v
		return &cp, true
	case string:
		return decodeGeometryJSON([]byte(v))
	case []byte:
		return decodeGeometryJSON(v)
	case json.RawMessage:
		return decodeGeometryJSON(v)
	case *structpb.Struct:
		if v == nil {
			return nil, false
		}
		return geometryFromObject(v.AsMap())
	case map[string]any:
		return geometryFromObject(v)
	default:
		return nil, false
	}
}

// ToPoint normalizes a Point geometry into an internal (lat, lon) point.
func ToPoint(input any) (domain.GeoPoint, bool) {
	g, ok := DecodeGeometry(input)
	if !ok {
		return domain.GeoPoint{}, false
	}
	return pointFromGeometry(g)
}

// ToPolygon normalizes a Polygon geometry. Any malformed ring or position
// rejects the whole polygon.
func ToPolygon(input any) (domain.Polygon, bool) {
	g, ok := DecodeGeometry(input)
	if !ok {
		return nil, false
	}
	return polygonFromGeometry(g)
}

func pointFromGeometry(g *domain.GeometryPayload) (domain.GeoPoint, bool) {
	if !strings.EqualFold(g.Type, geometryTypePoint) {
		return domain.GeoPoint{}, false
	}
	return toPosition(g.Coordinates)
}

func polygonFromGeometry(g *domain.GeometryPayload) (domain.Polygon, bool) {
	if !strings.EqualFold(g.Type, geometryTypePolygon) {
		return nil, false
	}

	rings, ok := toList(g.Coordinates)
	if !ok || len(rings) == 0 {
		return nil, false
	}

	poly := make(domain.Polygon, 0, len(rings))
	for _, r := range rings {
		positions, ok := toList(r)
		if !ok || len(positions) < 3 {
			return nil, false
		}
		ring := make(domain.Ring, 0, len(positions))
		for _, pos := range positions {
			p, ok := toPosition(pos)
			if !ok {
				return nil, false
			}
			ring = append(ring, p)
		}
		poly = append(poly, ring)
	}
	return poly, true
}

func decodeGeometryJSON(data []byte) (*domain.GeometryPayload, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// trailing garbage after the object
	if dec.More() {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return geometryFromObject(obj)
}

func geometryFromObject(obj map[string]any) (*domain.GeometryPayload, bool) {
	t, ok := obj["type"].(string)
	if !ok || t == "" {
		return nil, false
	}
	return &domain.GeometryPayload{Type: t, Coordinates: obj["coordinates"]}, true
}

// toPosition swaps an external [lon, lat] pair into the internal order.
func toPosition(v any) (domain.GeoPoint, bool) {
	pair, ok := toList(v)
	if !ok || len(pair) != 2 {
		return domain.GeoPoint{}, false
	}
	lon, ok := toFloat(pair[0])
	if !ok {
		return domain.GeoPoint{}, false
	}
	lat, ok := toFloat(pair[1])
	if !ok {
		return domain.GeoPoint{}, false
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return domain.GeoPoint{}, false
	}
	return p, true
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil:
		return nil, false
	case []any:
		return l, true
	case *structpb.ListValue:
		if l == nil {
			return nil, false
		}
		return l.AsSlice(), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		return parseDecimal(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
