package env

import (
	"math"
	"time"
)

// TideLevel returns the deterministic tide level in [0, 1] at a wall-clock
// time: a half-amplitude sine centered at 0.5 with a semidiurnal period
// (~12.4 h by default). It is a function of time only, not of any buffer, so
// every agent in a tick sees the same level.
func TideLevel(t time.Time, periodHours float64) float64 {
	if periodHours <= 0 {
		periodHours = 12.4
	}
	hours := float64(t.UnixNano()) / float64(time.Hour)
	phase := 2 * math.Pi * math.Mod(hours, periodHours) / periodHours
	return 0.5 + 0.5*math.Sin(phase)
}
