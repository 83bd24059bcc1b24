package geo

import (
	"math"
	"testing"
)

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"pi stays", math.Pi, math.Pi},
		{"negative pi wraps up", -math.Pi, math.Pi},
		{"just over pi", math.Pi + 0.1, -math.Pi + 0.1},
		{"full turn", 2 * math.Pi, 0},
		{"many turns", 7 * math.Pi, math.Pi},
		{"negative many turns", -5.5 * math.Pi, 0.5 * math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAngle(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got > math.Pi || got <= -math.Pi {
				t.Errorf("NormalizeAngle(%v) = %v outside (-pi, pi]", tt.in, got)
			}
		})
	}
}

func TestAngleDiffWrap(t *testing.T) {
	// Rotating from just below +pi to just above -pi is a small positive step,
	// not a near-full negative turn.
	d := AngleDiff(math.Pi-0.05, -math.Pi+0.05)
	if math.Abs(d-0.1) > 1e-9 {
		t.Errorf("AngleDiff across the wrap = %v, want 0.1", d)
	}
}

func TestGreatCircleKm(t *testing.T) {
	// One degree of latitude at the equator is ~111.2 km.
	d := GreatCircleKm(Point{0, 0}, Point{1, 0})
	if math.Abs(d-111.2) > 1.0 {
		t.Errorf("1 degree latitude = %v km, want ~111.2", d)
	}

	// Zero distance.
	if d := GreatCircleKm(Point{32.5, -16.5}, Point{32.5, -16.5}); d != 0 {
		t.Errorf("same point distance = %v, want 0", d)
	}

	// Longitude degrees shrink with latitude.
	atEquator := GreatCircleKm(Point{0, 0}, Point{0, 1})
	at60 := GreatCircleKm(Point{60, 0}, Point{60, 1})
	if at60 >= atEquator {
		t.Errorf("longitude distance at 60N (%v) should be less than at equator (%v)", at60, atEquator)
	}
}

func TestKmDegreeRoundtrip(t *testing.T) {
	for _, km := range []float64{0, 1, 12, 111, 500} {
		back := DegreesToKm(KmToDegrees(km))
		if math.Abs(back-km) > 1e-9 {
			t.Errorf("roundtrip %v km -> %v", km, back)
		}
	}
}
