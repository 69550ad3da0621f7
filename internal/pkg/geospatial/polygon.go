package geospatial

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

// CollinearityEpsilon bounds the sine of the angle between a segment and the
// direction to a tested point for the point to count as lying on the segment.
const CollinearityEpsilon = 1e-9

// IsPointOnSegment reports whether p lies on segment a-b, endpoints included.
func IsPointOnSegment(p, a, b domain.GeoPoint) bool {
	abx, aby := b.Lon-a.Lon, b.Lat-a.Lat
	apx, apy := p.Lon-a.Lon, p.Lat-a.Lat

	cross := abx*apy - aby*apx
	if math.Abs(cross) > CollinearityEpsilon*math.Hypot(abx, aby)*math.Hypot(apx, apy) {
		return false
	}

	return p.Lon >= math.Min(a.Lon, b.Lon) && p.Lon <= math.Max(a.Lon, b.Lon) &&
		p.Lat >= math.Min(a.Lat, b.Lat) && p.Lat <= math.Max(a.Lat, b.Lat)
}

// IsPointInRing reports whether p is inside ring or on its boundary.
// Boundary points are always inside, regardless of ray-casting parity.
func IsPointInRing(p domain.GeoPoint, ring domain.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	if !ringBound(ring).Contains(orb.Point{p.Lon, p.Lat}) {
		return false
	}

	j := n - 1
	for i := 0; i < n; i++ {
		if IsPointOnSegment(p, ring[j], ring[i]) {
			return true
		}
		j = i
	}

	// Ray casting: count crossings of a horizontal ray towards +lon.
	inside := false
	j = n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat

		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lon < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}

	return inside
}

// IsPointInPolygon reports whether p is inside the outer ring and outside
// every hole. A point on a hole's boundary counts as inside that hole and is
// therefore excluded, while the outer boundary is included.
func IsPointInPolygon(p domain.GeoPoint, poly domain.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	if !IsPointInRing(p, poly.Outer()) {
		return false
	}
	for _, hole := range poly.Holes() {
		if IsPointInRing(p, hole) {
			return false
		}
	}
	return true
}

// PolygonBounds returns the bounding box of the outer ring.
func PolygonBounds(poly domain.Polygon) domain.Bounds {
	if len(poly) == 0 {
		return domain.Bounds{}
	}
	b := ringBound(poly.Outer())
	return domain.Bounds{
		MinLat: b.Min.Lat(),
		MinLon: b.Min.Lon(),
		MaxLat: b.Max.Lat(),
		MaxLon: b.Max.Lon(),
	}
}

func ringBound(ring domain.Ring) orb.Bound {
	r := make(orb.Ring, len(ring))
	for i, pt := range ring {
		r[i] = orb.Point{pt.Lon, pt.Lat}
	}
	return r.Bound()
}
