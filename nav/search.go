package nav

import (
	"math"

	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/geo"
)

// searchCircles is the number of concentric sampling circles between the
// origin and the maximum search radius.
const searchCircles = 10

// FindNearest samples points on concentric circles of increasing radius
// around from and returns the closest point satisfying cond, with its
// great-circle distance in km. ok is false when the radius is exhausted
// without a hit; that is an expected outcome, not an error.
func FindNearest(e Env, from geo.Point, cond func(env.Result) bool, maxRadiusKm float64, numSamples int) (geo.Point, float64, bool) {
	if maxRadiusKm <= 0 || numSamples <= 0 {
		return geo.Point{}, 0, false
	}

	for i := 1; i <= searchCircles; i++ {
		radiusKm := maxRadiusKm * float64(i) / searchCircles
		radiusDeg := geo.KmToDegrees(radiusKm)

		best := geo.Point{}
		bestDist := math.Inf(1)
		for s := 0; s < numSamples; s++ {
			angle := 2 * math.Pi * float64(s) / float64(numSamples)
			p := geo.Point{
				Lat: from.Lat + radiusDeg*math.Sin(angle),
				Lon: from.Lon + radiusDeg*math.Cos(angle),
			}
			if !cond(e.At(p)) {
				continue
			}
			if d := geo.GreatCircleKm(from, p); d < bestDist {
				best, bestDist = p, d
			}
		}
		if !math.IsInf(bestDist, 1) {
			return best, bestDist, true
		}
	}
	return geo.Point{}, 0, false
}

// FindNearestLand locates the closest land cell within maxRadiusKm.
func FindNearestLand(e Env, from geo.Point, maxRadiusKm float64, numSamples int) (geo.Point, float64, bool) {
	return FindNearest(e, from, func(r env.Result) bool { return r.IsLand }, maxRadiusKm, numSamples)
}

// FindNearestWater locates the closest open-water cell within maxRadiusKm.
func FindNearestWater(e Env, from geo.Point, maxRadiusKm float64, numSamples int) (geo.Point, float64, bool) {
	return FindNearest(e, from, func(r env.Result) bool { return !r.IsLand }, maxRadiusKm, numSamples)
}
