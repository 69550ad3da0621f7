package geospatial

import (
	"testing"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

func pt(lat, lon float64) domain.GeoPoint { return domain.GeoPoint{Lat: lat, Lon: lon} }

func mustPolygon(t *testing.T, geojson string) domain.Polygon {
	t.Helper()
	poly, ok := ToPolygon(geojson)
	if !ok {
		t.Fatalf("invalid test polygon: %s", geojson)
	}
	return poly
}

const (
	unitSquare         = `{"type":"Polygon","coordinates":[[[0,0],[0,1],[1,1],[1,0],[0,0]]]}`
	unitSquareWithHole = `{"type":"Polygon","coordinates":[
		[[0,0],[0,1],[1,1],[1,0],[0,0]],
		[[0.4,0.4],[0.4,0.6],[0.6,0.6],[0.6,0.4],[0.4,0.4]]
	]}`
)

func TestIsPointOnSegment(t *testing.T) {
	a, b := pt(0, 0), pt(1, 1)
	tests := []struct {
		name string
		p    domain.GeoPoint
		want bool
	}{
		{"midpoint", pt(0.5, 0.5), true},
		{"start vertex", a, true},
		{"end vertex", b, true},
		{"collinear beyond end", pt(1.5, 1.5), false},
		{"collinear before start", pt(-0.1, -0.1), false},
		{"off the line", pt(0.5, 0.6), false},
		{"just off the line", pt(0.5, 0.5000001), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPointOnSegment(tt.p, a, b); got != tt.want {
				t.Errorf("IsPointOnSegment(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestIsPointOnSegment_Degenerate(t *testing.T) {
	a := pt(2, 3)
	if !IsPointOnSegment(a, a, a) {
		t.Error("a point lies on a zero-length segment at itself")
	}
	if IsPointOnSegment(pt(2, 3.1), a, a) {
		t.Error("a different point does not lie on a zero-length segment")
	}
}

func TestIsPointOnSegment_FloatingPointNoise(t *testing.T) {
	// 0.1 + 0.2 style error must not push a real on-edge point off the edge
	a, b := pt(0.1, 0.1), pt(0.3, 0.7)
	p := pt(0.1+0.2/2, 0.1+0.6/2)
	if !IsPointOnSegment(p, a, b) {
		t.Errorf("expected %v on segment %v-%v", p, a, b)
	}
}

// Unit square with no holes; edges and vertices count as inside.
func TestIsPointInPolygon_Square(t *testing.T) {
	square := mustPolygon(t, unitSquare)
	tests := []struct {
		name string
		p    domain.GeoPoint
		want bool
	}{
		{"center", pt(0.5, 0.5), true},
		{"outside east", pt(1.5, 0.5), false},
		{"on edge", pt(0, 0.5), true},
		{"on vertex", pt(1, 1), true},
		{"far away", pt(45, 90), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPointInPolygon(tt.p, square); got != tt.want {
				t.Errorf("IsPointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

// The outer boundary is included but a hole's boundary is excluded. This
// asymmetry is intentional; changing it changes authorization outcomes.
func TestIsPointInPolygon_HoleBoundaryIsExcluded(t *testing.T) {
	poly := mustPolygon(t, unitSquareWithHole)
	tests := []struct {
		name string
		p    domain.GeoPoint
		want bool
	}{
		{"between shell and hole", pt(0.2, 0.2), true},
		{"inside hole", pt(0.5, 0.5), false},
		{"on hole boundary", pt(0.4, 0.5), false},
		{"on hole vertex", pt(0.6, 0.6), false},
		{"on outer boundary", pt(0, 0.5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPointInPolygon(tt.p, poly); got != tt.want {
				t.Errorf("IsPointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestIsPointInPolygon_MultipleHoles(t *testing.T) {
	poly := mustPolygon(t, `{"type":"Polygon","coordinates":[
		[[0,0],[10,0],[10,10],[0,10]],
		[[1,1],[3,1],[3,3],[1,3]],
		[[6,6],[8,6],[8,8],[6,8]]
	]}`)

	if IsPointInPolygon(pt(2, 2), poly) {
		t.Error("point inside first hole should be excluded")
	}
	if IsPointInPolygon(pt(7, 7), poly) {
		t.Error("point inside second hole should be excluded")
	}
	if !IsPointInPolygon(pt(5, 5), poly) {
		t.Error("point between holes should be included")
	}
}

func TestIsPointInPolygon_Empty(t *testing.T) {
	if IsPointInPolygon(pt(0, 0), nil) {
		t.Error("empty polygon contains nothing")
	}
}

func TestIsPointInRing_ImplicitClosure(t *testing.T) {
	open := domain.Ring{pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 1)}
	closed := append(append(domain.Ring{}, open...), open[0])

	probes := []domain.GeoPoint{pt(0.5, 0.5), pt(0.5, 0), pt(0, 0.5), pt(1.2, 0.5), pt(-0.1, 0.5), pt(0.25, 0.75)}
	for _, p := range probes {
		if IsPointInRing(p, open) != IsPointInRing(p, closed) {
			t.Errorf("open and closed rings disagree at %v", p)
		}
	}
	// the closing edge (0,1)-(0,0) lies on lat=0 and must count as boundary
	if !IsPointInRing(pt(0, 0.5), open) {
		t.Error("point on implicit closing edge should be inside")
	}
}

func TestIsPointInRing_TooShort(t *testing.T) {
	if IsPointInRing(pt(0, 0), domain.Ring{pt(0, 0), pt(1, 1)}) {
		t.Error("a two-point ring contains nothing")
	}
}

func TestIsPointInRing_OrientationIndependent(t *testing.T) {
	// concave "C" shape
	ring := domain.Ring{
		pt(0, 0), pt(0, 4), pt(1, 4), pt(1, 1), pt(3, 1),
		pt(3, 4), pt(4, 4), pt(4, 0),
	}
	reversed := make(domain.Ring, len(ring))
	for i := range ring {
		reversed[i] = ring[len(ring)-1-i]
	}

	for lat := -0.5; lat <= 4.5; lat += 0.25 {
		for lon := -0.5; lon <= 4.5; lon += 0.25 {
			p := pt(lat, lon)
			if IsPointInRing(p, ring) != IsPointInRing(p, reversed) {
				t.Errorf("orientation changes result at %v", p)
			}
		}
	}
}

func TestIsPointInRing_Concave(t *testing.T) {
	ring := domain.Ring{
		pt(0, 0), pt(0, 4), pt(1, 4), pt(1, 1), pt(3, 1),
		pt(3, 4), pt(4, 4), pt(4, 0),
	}
	if IsPointInRing(pt(2, 2.5), ring) {
		t.Error("point in the notch of the C should be outside")
	}
	if !IsPointInRing(pt(0.5, 2), ring) {
		t.Error("point in the base of the C should be inside")
	}
}

func TestIsPointInRing_FarOutsideBounds(t *testing.T) {
	ring := domain.Ring{pt(43.25, -2.95), pt(43.27, -2.95), pt(43.27, -2.92), pt(43.25, -2.92)}
	far := []domain.GeoPoint{pt(-43.26, -2.93), pt(43.26, 177.07), pt(89, 0), pt(43.26, -2.5)}
	for _, p := range far {
		if IsPointInRing(p, ring) {
			t.Errorf("point %v far outside the bounds classified inside", p)
		}
	}
}

func TestPolygonBounds(t *testing.T) {
	b := PolygonBounds(mustPolygon(t, unitSquareWithHole))
	if b.MinLat != 0 || b.MinLon != 0 || b.MaxLat != 1 || b.MaxLon != 1 {
		t.Errorf("unexpected bounds %+v", b)
	}
	if (PolygonBounds(nil) != domain.Bounds{}) {
		t.Error("empty polygon has zero bounds")
	}
}
