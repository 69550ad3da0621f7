package geospatial

import (
	"encoding/json"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

func TestDecodeGeometry(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		wantOK   bool
		wantType string
	}{
		{"json string", `{"type":"Point","coordinates":[2.2945,48.8584]}`, true, "Point"},
		{"json bytes", []byte(`{"type":"polygon","coordinates":[]}`), true, "polygon"},
		{"raw message", json.RawMessage(`{"type":"POINT"}`), true, "POINT"},
		{"decoded map", map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}}, true, "Point"},
		{"payload value", domain.GeometryPayload{Type: "Point"}, true, "Point"},
		{"payload pointer", &domain.GeometryPayload{Type: "Polygon"}, true, "Polygon"},
		{"invalid json", `{"type":`, false, ""},
		{"json array", `[1,2]`, false, ""},
		{"json scalar", `"Point"`, false, ""},
		{"trailing garbage", `{"type":"Point"} xyz`, false, ""},
		{"missing type", `{"coordinates":[1,2]}`, false, ""},
		{"non-string type", `{"type":7}`, false, ""},
		{"nil", nil, false, ""},
		{"nil payload pointer", (*domain.GeometryPayload)(nil), false, ""},
		{"unsupported value", 42, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := DecodeGeometry(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("DecodeGeometry ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && g.Type != tt.wantType {
				t.Errorf("type = %q, want %q", g.Type, tt.wantType)
			}
		})
	}
}

func TestToPoint_SwapsAxes(t *testing.T) {
	p, ok := ToPoint(`{"type":"Point","coordinates":[2.2945,48.8584]}`)
	if !ok {
		t.Fatal("expected point to normalize")
	}
	if p.Lat != 48.8584 || p.Lon != 2.2945 {
		t.Errorf("got (%v, %v), want (48.8584, 2.2945)", p.Lat, p.Lon)
	}
}

func TestToPoint(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		wantOK bool
	}{
		{"lowercase type", `{"type":"point","coordinates":[2.2945,48.8584]}`, true},
		{"numeric strings", `{"type":"Point","coordinates":["2.2945","48.8584"]}`, true},
		{"typed slice", domain.GeometryPayload{Type: "Point", Coordinates: []float64{2.2945, 48.8584}}, true},
		{"missing coordinates", `{"type":"Point"}`, false},
		{"short coordinates", `{"type":"Point","coordinates":[2.2945]}`, false},
		{"three coordinates", `{"type":"Point","coordinates":[2.2945,48.8584,35]}`, false},
		{"non-numeric entry", `{"type":"Point","coordinates":["east",48.8584]}`, false},
		{"null entry", `{"type":"Point","coordinates":[null,48.8584]}`, false},
		{"boolean entry", `{"type":"Point","coordinates":[true,48.8584]}`, false},
		{"coordinates not an array", `{"type":"Point","coordinates":"2.2945,48.8584"}`, false},
		{"latitude out of range", `{"type":"Point","coordinates":[2.2945,98.8584]}`, false},
		{"polygon type", `{"type":"Polygon","coordinates":[2.2945,48.8584]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ToPoint(tt.input)
			if ok != tt.wantOK {
				t.Errorf("ToPoint ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestToPoint_ProtobufStruct(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"type":        "Point",
		"coordinates": []any{-2.935, 43.263},
	})
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	p, ok := ToPoint(s)
	if !ok {
		t.Fatal("expected protobuf struct to normalize")
	}
	if p.Lat != 43.263 || p.Lon != -2.935 {
		t.Errorf("got (%v, %v), want (43.263, -2.935)", p.Lat, p.Lon)
	}
}

func TestToPolygon(t *testing.T) {
	poly, ok := ToPolygon(`{"type":"Polygon","coordinates":[
		[[0,0],[0,1],[1,1],[1,0],[0,0]],
		[[0.4,0.4],[0.4,0.6],[0.6,0.6],[0.6,0.4],[0.4,0.4]]
	]}`)
	if !ok {
		t.Fatal("expected polygon to normalize")
	}
	if len(poly) != 2 {
		t.Fatalf("expected 2 rings, got %d", len(poly))
	}
	if len(poly.Outer()) != 5 || len(poly.Holes()) != 1 {
		t.Fatalf("unexpected ring sizes: outer=%d holes=%d", len(poly.Outer()), len(poly.Holes()))
	}
	// [lon, lat] = [0, 1] becomes (lat 1, lon 0)
	if got := poly[0][1]; got.Lat != 1 || got.Lon != 0 {
		t.Errorf("second outer vertex = %+v, want lat 1 lon 0", got)
	}
	if got := poly[1][2]; got.Lat != 0.6 || got.Lon != 0.6 {
		t.Errorf("third hole vertex = %+v, want lat 0.6 lon 0.6", got)
	}
}

func TestToPolygon_AtomicFailure(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing coordinates", `{"type":"Polygon"}`},
		{"no rings", `{"type":"Polygon","coordinates":[]}`},
		{"outer ring too short", `{"type":"Polygon","coordinates":[[[0,0],[1,1]]]}`},
		{"hole too short", `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1]],[[0.2,0.2],[0.3,0.3]]]}`},
		{"position not a pair", `{"type":"Polygon","coordinates":[[[0,0],[0,1,2],[1,1]]]}`},
		{"non-numeric position", `{"type":"Polygon","coordinates":[[[0,0],["a",1],[1,1]]]}`},
		{"ring not an array", `{"type":"Polygon","coordinates":[{"a":1}]}`},
		{"out of range in hole", `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1]],[[0,0],[0,1],[200,1]]]}`},
		{"point type", `{"type":"Point","coordinates":[[[0,0],[0,1],[1,1]]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poly, ok := ToPolygon(tt.input)
			if ok {
				t.Errorf("expected failure, got polygon %v", poly)
			}
			if poly != nil {
				t.Errorf("expected no partial polygon, got %v", poly)
			}
		})
	}
}

func TestToPolygon_CaseInsensitiveType(t *testing.T) {
	for _, typ := range []string{"polygon", "POLYGON", "PoLyGoN"} {
		input := map[string]any{
			"type":        typ,
			"coordinates": [][][]float64{{{0, 0}, {0, 1}, {1, 1}}},
		}
		if _, ok := ToPolygon(input); !ok {
			t.Errorf("type %q was not accepted", typ)
		}
	}
}
