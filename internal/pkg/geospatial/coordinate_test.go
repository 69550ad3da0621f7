package geospatial

import (
	"math"
	"testing"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLat float64
		wantLon float64
		wantOK  bool
	}{
		{"comma", "48.8584,2.2945", 48.8584, 2.2945, true},
		{"semicolon with spaces", "  48.8584 ; 2.2945  ", 48.8584, 2.2945, true},
		{"space around comma", "43.263 , -2.935", 43.263, -2.935, true},
		{"explicit signs", "+45.5,-73.2", 45.5, -73.2, true},
		{"exponent", "1e1,0", 10, 0, true},
		{"bounds inclusive", "-90,-180", -90, -180, true},
		{"upper bounds", "90,180", 90, 180, true},
		{"integer fields", "12,34", 12, 34, true},
		{"empty", "", 0, 0, false},
		{"blank", "   ", 0, 0, false},
		{"single field", "48.8584", 0, 0, false},
		{"missing second field", "48.8584,", 0, 0, false},
		{"three fields", "1,2,3", 0, 0, false},
		{"decimal comma with semicolon", "48,85;2,29", 0, 0, false},
		{"nan", "NaN,2", 0, 0, false},
		{"inf", "Inf,0", 0, 0, false},
		{"hex float", "0x1p-2,0", 0, 0, false},
		{"word", "abc,1", 0, 0, false},
		{"latitude out of range", "91,0", 0, 0, false},
		{"longitude out of range", "0,181", 0, 0, false},
		{"exponent out of range", "1e2,0", 0, 0, false},
		{"thousands separator", "1 000,2", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := ParseCoordinate(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ParseCoordinate(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if p.Lat != tt.wantLat || p.Lon != tt.wantLon {
				t.Errorf("ParseCoordinate(%q) = (%v, %v), want (%v, %v)", tt.raw, p.Lat, p.Lon, tt.wantLat, tt.wantLon)
			}
		})
	}
}

func TestFormatCoordinate(t *testing.T) {
	tests := []struct {
		name      string
		lat, lon  float64
		precision int
		want      string
	}{
		{"six decimals", 48.8584, 2.2945, 6, "48.858400,2.294500"},
		{"integer precision has no point", 2.5, -2.5, 0, "3,-3"},
		{"half up", 0.125, -0.125, 2, "0.13,-0.13"},
		{"no thousands separator", 1234567.891, 0, 1, "1234567.9,0.0"},
		{"negative zero dropped", -0.0001, 0.0001, 2, "0.00,0.00"},
		{"negative precision", 1.4, 1.6, -3, "1,2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCoordinate(tt.lat, tt.lon, tt.precision)
			if got != tt.want {
				t.Errorf("FormatCoordinate(%v, %v, %d) = %q, want %q", tt.lat, tt.lon, tt.precision, got, tt.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	inputs := []string{
		"48.8584,2.2945",
		"-33.8688197;151.2092955",
		"0.0000004,-0.0000004",
		"89.9999999,-179.9999999",
		"43.2630126, -2.9349852",
	}

	for _, raw := range inputs {
		p, ok := ParseCoordinate(raw)
		if !ok {
			t.Fatalf("ParseCoordinate(%q) failed", raw)
		}
		formatted := FormatCoordinate(p.Lat, p.Lon, 6)
		back, ok := ParseCoordinate(formatted)
		if !ok {
			t.Fatalf("ParseCoordinate(%q) failed after format", formatted)
		}
		if math.Abs(back.Lat-p.Lat) > 1e-6 || math.Abs(back.Lon-p.Lon) > 1e-6 {
			t.Errorf("round trip of %q = %q, drifted to (%v, %v)", raw, formatted, back.Lat, back.Lon)
		}
	}
}
