// Package nav provides the navigation utilities shared by all locomotive
// behaviors: expanding-circle nearest-land/nearest-water search, straight-line
// land intersection tests, and the candidate-based smart-move step.
package nav

import (
	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/geo"
)

// Env bundles a buffer snapshot with query parameters so navigation code can
// probe arbitrary positions.
type Env struct {
	Set    *env.BufferSet
	Params env.Params
}

// At queries the environment at a point.
func (e Env) At(p geo.Point) env.Result {
	return env.Query(p.Lat, p.Lon, e.Set, e.Params)
}
