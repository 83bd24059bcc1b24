package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DailyStats holds aggregated population statistics for one simulation day.
type DailyStats struct {
	Date  string `csv:"date"`
	Tick  int    `csv:"tick"`
	Alive int    `csv:"alive"`
	Dead  int    `csv:"dead"`

	// Events during the day
	Starvations      int `csv:"starvations"`
	BackgroundDeaths int `csv:"background_deaths"`
	TideEvictions    int `csv:"tide_evictions"`
	StormShelters    int `csv:"storm_shelters"`
	LandingsAborted  int `csv:"landings_aborted"`
	HaulOutSuccesses int `csv:"haul_out_successes"`
	HaulOutTimeouts  int `csv:"haul_out_timeouts"`
	RelaxedMoves     int `csv:"relaxed_moves"`
	UnsafeMoves      int `csv:"unsafe_moves"`
	DeepPanics       int `csv:"deep_panics"`

	// Energy distribution at day end
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Stomach distribution at day end
	StomachMean float64 `csv:"stomach_mean"`

	// Behavioral state occupancy at day end
	Foraging   int `csv:"foraging"`
	Resting    int `csv:"resting"`
	Sleeping   int `csv:"sleeping"`
	HaulingOut int `csv:"hauling_out"`
	Transiting int `csv:"transiting"`
}

// ComputeDistribution calculates mean, standard deviation, and percentiles
// of a sample. Empty input yields zeros.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std = stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer so the daily summary logs as one group.
func (s DailyStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("date", s.Date),
		slog.Int("tick", s.Tick),
		slog.Int("alive", s.Alive),
		slog.Int("dead", s.Dead),
		slog.Int("starvations", s.Starvations),
		slog.Int("background_deaths", s.BackgroundDeaths),
		slog.Int("tide_evictions", s.TideEvictions),
		slog.Int("storm_shelters", s.StormShelters),
		slog.Int("landings_aborted", s.LandingsAborted),
		slog.Int("haul_out_successes", s.HaulOutSuccesses),
		slog.Int("haul_out_timeouts", s.HaulOutTimeouts),
		slog.Int("relaxed_moves", s.RelaxedMoves),
		slog.Int("unsafe_moves", s.UnsafeMoves),
		slog.Int("deep_panics", s.DeepPanics),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("stomach_mean", s.StomachMean),
		slog.Int("foraging", s.Foraging),
		slog.Int("resting", s.Resting),
		slog.Int("sleeping", s.Sleeping),
		slog.Int("hauling_out", s.HaulingOut),
		slog.Int("transiting", s.Transiting),
	)
}
