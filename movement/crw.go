// Package movement implements the single-step correlated random walk that
// every locomotive behavior builds on: a von Mises turn applied to the
// current heading, an optional pull toward a target, and a fixed-length
// advance in degrees.
package movement

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/selkie/geo"
)

// Options tunes one walk step.
type Options struct {
	// SpeedDeg is the step length in degrees per tick (~0.05 deg = 5.5 km/h).
	SpeedDeg float64
	// Tortuosity in [0, 1]: 1 walks nearly straight, 0 turns uniformly.
	// Von Mises concentration is Tortuosity * KappaScale.
	Tortuosity float64
	// KappaScale maps tortuosity to concentration.
	KappaScale float64
	// Bias, when HasBias is set, pulls the post-turn heading toward a target
	// position by BiasStrength in [0, 1].
	HasBias      bool
	Bias         geo.Point
	BiasStrength float64
}

// DefaultOptions returns the calibrated walk parameters.
func DefaultOptions() Options {
	return Options{SpeedDeg: 0.05, Tortuosity: 0.8, KappaScale: 10}
}

// Step advances one correlated-random-walk step from pos with the given
// heading and returns the new position and heading. The returned heading is
// always wrapped into (-pi, pi].
func Step(rng *rand.Rand, pos geo.Point, heading float64, opts Options) (geo.Point, float64) {
	turn := SampleVonMises(rng, opts.Tortuosity*opts.KappaScale)
	newHeading := geo.NormalizeAngle(heading + turn)

	if opts.HasBias && opts.BiasStrength > 0 {
		target := geo.HeadingTo(pos, opts.Bias)
		diff := geo.AngleDiff(newHeading, target)
		newHeading = geo.NormalizeAngle(newHeading + diff*opts.BiasStrength)
	}

	next := geo.Point{
		Lat: pos.Lat + opts.SpeedDeg*math.Sin(newHeading),
		Lon: pos.Lon + opts.SpeedDeg*math.Cos(newHeading),
	}
	return next, newHeading
}

// SampleVonMises draws a turn angle from a von Mises distribution centered at
// zero with concentration kappa, using the Best-Fisher rejection method.
// kappa <= 0 degenerates to a uniform draw over (-pi, pi].
func SampleVonMises(rng *rand.Rand, kappa float64) float64 {
	if kappa <= 0 {
		return rng.Float64()*2*math.Pi - math.Pi
	}

	// Best & Fisher (1979) wrapped-Cauchy envelope.
	a := 1 + math.Sqrt(1+4*kappa*kappa)
	b := (a - math.Sqrt(2*a)) / (2 * kappa)
	r := (1 + b*b) / (2 * b)

	for {
		u1 := rng.Float64()
		z := math.Cos(math.Pi * u1)
		f := (1 + r*z) / (r + z)
		c := kappa * (r - f)

		u2 := rng.Float64()
		if c*(2-c)-u2 > 0 || math.Log(c/u2)+1-c >= 0 {
			theta := math.Acos(f)
			if rng.Float64() < 0.5 {
				theta = -theta
			}
			return theta
		}
	}
}
