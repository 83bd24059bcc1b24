package env

import (
	"math"
)

// Params holds the tunable constants of the point query. The coastline
// fraction and HSI threshold are calibration choices, not structural ones,
// so they stay overridable.
type Params struct {
	// DefaultWaveHeight and DefaultTemperature stand in when a variable is
	// missing or out of range. Chlorophyll and depth have no default; they
	// stay unset so "no data" is distinguishable from zero.
	DefaultWaveHeight  float64
	DefaultTemperature float64

	// CoastlineNaNFraction: a NaN depth cell whose in-bounds 3x3 neighborhood
	// is less than this fraction NaN is reclassified as coastline/water
	// rather than interior land.
	CoastlineNaNFraction float64

	// GapFillRadius is the maximum ring radius (in cells) searched for a
	// non-NaN depth around a NaN cell.
	GapFillRadius int

	// HSIChlThreshold is the chlorophyll concentration (mg/m3) at which the
	// habitat suitability index saturates at 1.0.
	HSIChlThreshold float64

	// Tide shape and thresholds.
	TidePeriodHours   float64
	HighTideThreshold float64
	LowTideThreshold  float64
}

// DefaultParams returns the calibrated defaults.
func DefaultParams() Params {
	return Params{
		DefaultWaveHeight:    0.0,
		DefaultTemperature:   18.0,
		CoastlineNaNFraction: 0.5,
		GapFillRadius:        3,
		HSIChlThreshold:      0.5,
		TidePeriodHours:      12.4,
		HighTideThreshold:    0.7,
		LowTideThreshold:     0.3,
	}
}

// Result is the fixed-shape outcome of a point query. Optional variables
// carry a Has flag; a false flag means the value field is meaningless.
type Result struct {
	WaveHeight     float64
	Chlorophyll    float64
	HasChlorophyll bool
	Temperature    float64
	Depth          float64
	HasDepth       bool
	CurrentU       float64
	CurrentV       float64
	IsLand         bool
	IsCoastline    bool
	Tide           float64
	HSI            float64
}

// Query extracts all variables at (lat, lon) from the buffer set. It never
// panics for missing or malformed data: any failure in a single-variable
// lookup leaves that variable at its default.
func Query(lat, lon float64, set *BufferSet, p Params) Result {
	res := Result{
		WaveHeight:  p.DefaultWaveHeight,
		Temperature: p.DefaultTemperature,
	}
	if set != nil {
		res.Tide = TideLevel(set.Time, p.TidePeriodHours)
	}
	if set == nil || len(set.Buffers) == 0 {
		return res
	}

	for name, buf := range set.Buffers {
		if name == VarDepth {
			continue // depth has its own path below
		}
		queryScalar(lat, lon, buf, name, &res)
	}

	queryDepth(lat, lon, set.Get(VarDepth), p, &res)

	if res.HasChlorophyll {
		res.HSI = math.Min(res.Chlorophyll/p.HSIChlThreshold, 1.0)
	}

	return res
}

// queryScalar reads one non-depth variable with skip-on-out-of-bounds
// semantics. A panic from a malformed buffer is swallowed and the default
// stands.
func queryScalar(lat, lon float64, buf *Buffer, name string, res *Result) {
	defer func() { _ = recover() }()

	if buf == nil {
		return
	}
	r, c := buf.Index(lat, lon)
	if !buf.InBounds(r, c) {
		return
	}
	v := buf.At(r, c)
	if math.IsNaN(v) {
		return
	}

	switch name {
	case VarWaveHeight:
		res.WaveHeight = v
	case VarChlorophyll:
		res.Chlorophyll = v
		res.HasChlorophyll = true
	case VarTemperature:
		res.Temperature = v
	case VarCurrentU:
		res.CurrentU = v
	case VarCurrentV:
		res.CurrentV = v
	}
}

// queryDepth handles the depth layer: land classification from the raw
// (unclamped) cell, NaN-neighborhood coastline disambiguation, and ring-search
// gap filling. Depth indices are clamped so an estimate is always attempted.
func queryDepth(lat, lon float64, buf *Buffer, p Params, res *Result) {
	defer func() { _ = recover() }()

	if buf == nil {
		return
	}
	rawR, rawC := buf.Index(lat, lon)
	r, c := buf.Clamp(rawR, rawC)

	v := buf.At(r, c)
	if !math.IsNaN(v) {
		if buf.InBounds(rawR, rawC) {
			// Finite original depth: open water, full confidence.
			res.Depth = v
			res.HasDepth = true
		} else {
			// Off-grid position clamped to the edge. Use the estimate but do
			// not classify land from it.
			res.Depth = v
			res.HasDepth = true
		}
		return
	}

	if !buf.InBounds(rawR, rawC) {
		// Off grid and the nearest edge cell is NaN: nothing to report.
		return
	}

	// The queried cell is NaN. Majority-NaN neighborhood means interior land;
	// a mostly-finite neighborhood means a narrow coastal fringe that should
	// stay navigable.
	res.IsLand = nanFraction(buf, rawR, rawC) >= p.CoastlineNaNFraction

	// Gap-fill: nearest non-NaN depth on concentric square rings. The inferred
	// value feeds navigation cost only, never the land decision.
	if d, ok := nearestDepth(buf, rawR, rawC, p.GapFillRadius); ok {
		res.Depth = d
		res.HasDepth = true
		// Land by the strict NaN test but with plausible adjacent water:
		// a risky edge cell.
		res.IsCoastline = true
	}
}

// nanFraction returns the NaN fraction among the in-bounds cells of the 3x3
// neighborhood, excluding the center.
func nanFraction(buf *Buffer, row, col int) float64 {
	var nan, total int
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if !buf.InBounds(r, c) {
				continue
			}
			total++
			if math.IsNaN(buf.At(r, c)) {
				nan++
			}
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(nan) / float64(total)
}

// nearestDepth searches square rings of radius 1..maxRadius for the closest
// non-NaN depth value.
func nearestDepth(buf *Buffer, row, col, maxRadius int) (float64, bool) {
	for radius := 1; radius <= maxRadius; radius++ {
		for dr := -radius; dr <= radius; dr++ {
			for dc := -radius; dc <= radius; dc++ {
				if max(abs(dr), abs(dc)) != radius {
					continue // interior of the ring, already visited
				}
				r, c := row+dr, col+dc
				if !buf.InBounds(r, c) {
					continue
				}
				if v := buf.At(r, c); !math.IsNaN(v) {
					return v, true
				}
			}
		}
	}
	return 0, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
