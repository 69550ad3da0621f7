package geospatial

import (
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/geoguard/internal/core/domain"
)

// ParseCoordinate parses a "lat,lon" or "lat;lon" string. A semicolon, when
// present, is the separator. It returns false for anything that is not two
// finite decimal numbers within latitude/longitude bounds.
func ParseCoordinate(raw string) (domain.GeoPoint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.GeoPoint{}, false
	}

	sep := ","
	if strings.Contains(raw, ";") {
		sep = ";"
	}

	fields := strings.Split(raw, sep)
	if len(fields) != 2 {
		return domain.GeoPoint{}, false
	}

	lat, ok := parseDecimal(fields[0])
	if !ok {
		return domain.GeoPoint{}, false
	}
	lon, ok := parseDecimal(fields[1])
	if !ok {
		return domain.GeoPoint{}, false
	}

	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return domain.GeoPoint{}, false
	}
	return p, true
}

// FormatCoordinate renders "lat,lon" with a fixed number of decimals, rounding
// half away from zero. Precision 0 yields integers without a decimal point.
func FormatCoordinate(lat, lon float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return formatDecimal(lat, precision) + "," + formatDecimal(lon, precision)
}

func formatDecimal(v float64, precision int) string {
	scale := math.Pow(10, float64(precision))
	rounded := math.Round(v*scale) / scale
	if rounded == 0 {
		rounded = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(rounded, 'f', precision, 64)
}

// parseDecimal accepts plain decimal notation with an optional exponent.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '-', r == '+', r == 'e', r == 'E':
		default:
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
