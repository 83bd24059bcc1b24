package env

import (
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// SyntheticConfig describes the generated test region: a noisy shelf around a
// central island inside a lat/lon bounding box.
type SyntheticConfig struct {
	Seed    int64
	LatMin  float64
	LonMin  float64
	LatStep float64
	LonStep float64
	Rows    int
	Cols    int

	// IslandRadiusDeg is the nominal radius of the central landmass.
	IslandRadiusDeg float64
	// ShelfDepthM is the typical depth just off the coast; depth grows with
	// distance from the island up to AbyssDepthM.
	ShelfDepthM float64
	AbyssDepthM float64

	// Start and SpanDays declare the temporal coverage. Requests outside
	// [Start, Start+SpanDays) wrap when the source runs behind WrapLooping.
	Start    time.Time
	SpanDays int
}

// DefaultSyntheticConfig covers a 1x1 degree box at 0.01 deg resolution
// around a small island, roughly the scale of the Desertas islets.
func DefaultSyntheticConfig(seed int64) SyntheticConfig {
	return SyntheticConfig{
		Seed:            seed,
		LatMin:          32.0,
		LonMin:          -17.0,
		LatStep:         0.01,
		LonStep:         0.01,
		Rows:            100,
		Cols:            100,
		IslandRadiusDeg: 0.08,
		ShelfDepthM:     30,
		AbyssDepthM:     2000,
		Start:           time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		SpanDays:        365,
	}
}

// SyntheticSource generates plausible environmental rasters from layered
// simplex noise. Depth (with a NaN landmass), chlorophyll, and temperature
// are static per seed; wave height drifts with the timestamp so storm logic
// is exercised. Used by tests and by the explicit void mode; real data comes
// from an external loader.
type SyntheticSource struct {
	cfg   SyntheticConfig
	depth *Buffer
	chl   *Buffer
	temp  *Buffer
	curU  *Buffer
	curV  *Buffer

	waveNoise opensimplex.Noise
	cached    *BufferSet
}

// NewSyntheticSource builds the static layers once.
func NewSyntheticSource(cfg SyntheticConfig) *SyntheticSource {
	s := &SyntheticSource{
		cfg:       cfg,
		waveNoise: opensimplex.NewNormalized(cfg.Seed + 3),
	}

	depthNoise := opensimplex.NewNormalized(cfg.Seed)
	chlNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	tempNoise := opensimplex.NewNormalized(cfg.Seed + 2)

	s.depth = NewBuffer(cfg.LatMin, cfg.LonMin, cfg.LatStep, cfg.LonStep, cfg.Rows, cfg.Cols)
	s.chl = NewBuffer(cfg.LatMin, cfg.LonMin, cfg.LatStep, cfg.LonStep, cfg.Rows, cfg.Cols)
	s.temp = NewBuffer(cfg.LatMin, cfg.LonMin, cfg.LatStep, cfg.LonStep, cfg.Rows, cfg.Cols)
	s.curU = NewBuffer(cfg.LatMin, cfg.LonMin, cfg.LatStep, cfg.LonStep, cfg.Rows, cfg.Cols)
	s.curV = NewBuffer(cfg.LatMin, cfg.LonMin, cfg.LatStep, cfg.LonStep, cfg.Rows, cfg.Cols)

	cLat := cfg.LatMin + float64(cfg.Rows)*cfg.LatStep/2
	cLon := cfg.LonMin + float64(cfg.Cols)*cfg.LonStep/2

	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			lat, lon := s.depth.CellCenter(r, c)
			x, y := float64(c), float64(r)

			// Radial island with a noisy coastline.
			dist := math.Hypot(lat-cLat, lon-cLon)
			edge := cfg.IslandRadiusDeg * (0.7 + 0.6*octaveNoise(depthNoise, x, y, 3, 0.05, 0.5))
			if dist < edge {
				// Land: depth stays NaN.
				continue
			}

			// Depth deepens away from the coast, perturbed by noise.
			t := math.Min((dist-edge)/(6*cfg.IslandRadiusDeg), 1.0)
			d := cfg.ShelfDepthM + t*t*(cfg.AbyssDepthM-cfg.ShelfDepthM)
			d *= 0.8 + 0.4*octaveNoise(depthNoise, x+500, y+500, 4, 0.08, 0.5)
			s.depth.Set(r, c, d)

			// Productivity concentrates on the shelf.
			chl := 0.1 + 0.9*octaveNoise(chlNoise, x, y, 3, 0.06, 0.5)*(1.0-0.7*t)
			s.chl.Set(r, c, chl)

			s.temp.Set(r, c, 17.0+3.0*octaveNoise(tempNoise, x, y, 2, 0.04, 0.5))
			s.curU.Set(r, c, 0.4*(octaveNoise(tempNoise, x+100, y, 2, 0.05, 0.5)-0.5))
			s.curV.Set(r, c, 0.4*(octaveNoise(tempNoise, x, y+100, 2, 0.05, 0.5)-0.5))
		}
	}

	return s
}

// BuffersAt assembles the buffer set for a timestamp. Static layers are
// shared; wave height is regenerated when the hour changes.
func (s *SyntheticSource) BuffersAt(t time.Time) (*BufferSet, error) {
	if s.cached != nil && s.cached.Time.Equal(t) {
		return s.cached, nil
	}

	cfg := s.cfg
	waves := NewBuffer(cfg.LatMin, cfg.LonMin, cfg.LatStep, cfg.LonStep, cfg.Rows, cfg.Cols)
	z := float64(t.Unix()) / 3600.0 * 0.15
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			if math.IsNaN(s.depth.At(r, c)) {
				continue // keep the land mask consistent across layers
			}
			w := 4.5 * math.Pow(s.waveNoise.Eval3(float64(c)*0.03, float64(r)*0.03, z), 2)
			waves.Set(r, c, w)
		}
	}

	set := NewBufferSet(t)
	set.Buffers[VarDepth] = s.depth
	set.Buffers[VarChlorophyll] = s.chl
	set.Buffers[VarTemperature] = s.temp
	set.Buffers[VarCurrentU] = s.curU
	set.Buffers[VarCurrentV] = s.curV
	set.Buffers[VarWaveHeight] = waves
	s.cached = set
	return set, nil
}

// TimeRange reports the declared temporal coverage.
func (s *SyntheticSource) TimeRange() (start, end time.Time) {
	return s.cfg.Start, s.cfg.Start.AddDate(0, 0, s.cfg.SpanDays)
}

// octaveNoise layers multiple noise frequencies for natural-looking fields.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
