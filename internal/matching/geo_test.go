package matching

import (
	"math"
	"testing"
)

func TestHaversineZeroDistance(t *testing.T) {
	if d := HaversineKM(40.7128, -74.0060, 40.7128, -74.0060); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := HaversineKM(40.7128, -74.0060, 51.5074, -0.1278)
	b := HaversineKM(51.5074, -0.1278, 40.7128, -74.0060)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("asymmetric distance: %v vs %v", a, b)
	}
}

func TestHaversineMonotonicWithDelta(t *testing.T) {
	base := HaversineKM(40.7128, -74.0060, 40.7228, -74.0060)
	if base <= 0 || base > 2 {
		t.Fatalf("0.01 degree latitude delta = %v km, expected ~1.1", base)
	}
	prev := 0.0
	for _, delta := range []float64{0.01, 0.02, 0.05, 0.1, 0.5} {
		d := HaversineKM(40.7128, -74.0060, 40.7128+delta, -74.0060)
		if d <= prev {
			t.Fatalf("distance not increasing at delta %v: %v <= %v", delta, d, prev)
		}
		prev = d
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// NYC to LA is roughly 3936 km.
	d := HaversineKM(40.7128, -74.0060, 34.0522, -118.2437)
	if d < 3900 || d > 3975 {
		t.Fatalf("NYC-LA distance = %v km, expected ~3936", d)
	}
}
