package nav

import "github.com/pthm-cable/selkie/geo"

// PathIntersectsLand reports whether the straight line from a to b crosses
// land. Only the steps-1 interior samples are tested: both endpoints are
// excluded, so a single-step move from water onto land (or off it) is always
// permitted while cutting across a landmass is not.
func PathIntersectsLand(e Env, a, b geo.Point, steps int) bool {
	if steps < 2 {
		return false
	}
	for i := 1; i < steps; i++ {
		f := float64(i) / float64(steps)
		p := geo.Point{
			Lat: a.Lat + (b.Lat-a.Lat)*f,
			Lon: a.Lon + (b.Lon-a.Lon)*f,
		}
		if e.At(p).IsLand {
			return true
		}
	}
	return false
}
