package env

import "math"

// BuildBathymetry derives the static seafloor-depth raster from a stack of
// reference-variable levels (typically temperature): for each cell, the
// deepest level at which the reference has valid data. Cells with no valid
// level at all stay NaN, which is what the land classification keys on.
//
// levels[i] is the reference raster at depthAxis[i] metres; all levels must
// share the same grid. This runs once at data-load time, never per tick.
func BuildBathymetry(levels []*Buffer, depthAxis []float64) *Buffer {
	if len(levels) == 0 || len(levels) != len(depthAxis) {
		return nil
	}
	ref := levels[0]
	out := NewBuffer(ref.LatMin, ref.LonMin, ref.LatStep, ref.LonStep, ref.Rows, ref.Cols)

	for r := 0; r < ref.Rows; r++ {
		for c := 0; c < ref.Cols; c++ {
			maxDepth := math.NaN()
			for i, lvl := range levels {
				if lvl.Rows != ref.Rows || lvl.Cols != ref.Cols {
					continue
				}
				if !math.IsNaN(lvl.At(r, c)) {
					if math.IsNaN(maxDepth) || depthAxis[i] > maxDepth {
						maxDepth = depthAxis[i]
					}
				}
			}
			out.Set(r, c, maxDepth)
		}
	}
	return out
}
