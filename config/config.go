// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/selkie/agent"
	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/nav"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation  SimulationConfig  `yaml:"simulation"`
	Environment EnvironmentConfig `yaml:"environment"`
	Agent       AgentConfig       `yaml:"agent"`
	Movement    MovementConfig    `yaml:"movement"`
	Navigation  NavigationConfig  `yaml:"navigation"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Persistence PersistenceConfig `yaml:"persistence"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds run-level parameters.
type SimulationConfig struct {
	Start           string  `yaml:"start"` // RFC3339 simulation start time
	Days            int     `yaml:"days"`
	Agents          int     `yaml:"agents"`
	Workers         int     `yaml:"workers"` // 0 = GOMAXPROCS
	Seed            int64   `yaml:"seed"`
	OriginLat       float64 `yaml:"origin_lat"`
	OriginLon       float64 `yaml:"origin_lon"`
	SpawnRadiusDeg  float64 `yaml:"spawn_radius_deg"`
	LoopEnvironment bool    `yaml:"loop_environment"` // wrap past the data's time range
}

// EnvironmentConfig holds query-layer parameters.
type EnvironmentConfig struct {
	DefaultWaveHeight    float64 `yaml:"default_wave_height"`
	DefaultTemperature   float64 `yaml:"default_temperature"`
	CoastlineNaNFraction float64 `yaml:"coastline_nan_fraction"`
	GapFillRadius        int     `yaml:"gap_fill_radius"`
	HSIChlThreshold      float64 `yaml:"hsi_chl_threshold"`
	TidePeriodHours      float64 `yaml:"tide_period_hours"`
	HighTideThreshold    float64 `yaml:"high_tide_threshold"`
	LowTideThreshold     float64 `yaml:"low_tide_threshold"`
}

// AgentConfig holds physiology and behavior parameters.
type AgentConfig struct {
	MassKg            float64 `yaml:"mass_kg"`
	MaxEnergy         float64 `yaml:"max_energy"`
	InitialEnergyFrac float64 `yaml:"initial_energy_frac"`
	StomachCapacity   float64 `yaml:"stomach_capacity"`
	RMR               float64 `yaml:"rmr"`
	AMRMultiplier     float64 `yaml:"amr_multiplier"`

	StarvationFrac float64 `yaml:"starvation_frac"`
	CriticalFrac   float64 `yaml:"critical_frac"`
	ExhaustedFrac  float64 `yaml:"exhausted_frac"`
	SleepWakeFrac  float64 `yaml:"sleep_wake_frac"`
	RestWakeFrac   float64 `yaml:"rest_wake_frac"`
	EnergyLowFrac  float64 `yaml:"energy_low_frac"`

	StomachFullFrac     float64 `yaml:"stomach_full_frac"`
	StomachModerateFrac float64 `yaml:"stomach_moderate_frac"`
	StomachEmptyFrac    float64 `yaml:"stomach_empty_frac"`

	SeekShelterSWH float64 `yaml:"seek_shelter_swh"`
	MaxLandingSWH  float64 `yaml:"max_landing_swh"`

	DigestionRateKg float64 `yaml:"digestion_rate_kg"`
	EnergyPerKgFood float64 `yaml:"energy_per_kg_food"`
	RestFlatGain    float64 `yaml:"rest_flat_gain"`
	SleepFlatGain   float64 `yaml:"sleep_flat_gain"`

	MatureAgeYears     int     `yaml:"mature_age_years"`
	ShallowDepthM      float64 `yaml:"shallow_depth_m"`
	MediumDepthM       float64 `yaml:"medium_depth_m"`
	ShallowRateKg      float64 `yaml:"shallow_rate_kg"`
	MediumRateKg       float64 `yaml:"medium_rate_kg"`
	HSIFloor           float64 `yaml:"hsi_floor"`
	SpotStayBaseProb   float64 `yaml:"spot_stay_base_prob"`
	SpotStayDecay      float64 `yaml:"spot_stay_decay"`
	MaxShoreDistanceKm float64 `yaml:"max_shore_distance_km"`

	LandRefreshTicks int     `yaml:"land_refresh_ticks"`
	SearchRadiusKm   float64 `yaml:"search_radius_km"`
	SearchSamples    int     `yaml:"search_samples"`
	HaulOutTimeout   int     `yaml:"haul_out_timeout"`

	MemorySites        int     `yaml:"memory_sites"`
	MemoryProximityDeg float64 `yaml:"memory_proximity_deg"`

	NightStartHour int `yaml:"night_start_hour"`
	NightEndHour   int `yaml:"night_end_hour"`

	MaleMortalityAge  int     `yaml:"male_mortality_age"`
	MaleMortalityProb float64 `yaml:"male_mortality_prob"`

	InitialAgeMin int `yaml:"initial_age_min"`
	InitialAgeMax int `yaml:"initial_age_max"`
}

// MovementConfig holds correlated random walk parameters.
type MovementConfig struct {
	SpeedDeg   float64 `yaml:"speed_deg"`
	Tortuosity float64 `yaml:"tortuosity"`
	KappaScale float64 `yaml:"kappa_scale"`
}

// NavigationConfig holds smart-move parameters.
type NavigationConfig struct {
	CandidateCount  int     `yaml:"candidate_count"`
	PathSteps       int     `yaml:"path_steps"`
	DeepPanicDepthM float64 `yaml:"deep_panic_depth_m"`
	ShelfDepthM     float64 `yaml:"shelf_depth_m"`
	PanicSearchKm   float64 `yaml:"panic_search_km"`
	PanicSamples    int     `yaml:"panic_samples"`
	ShallowTopK     int     `yaml:"shallow_top_k"`
}

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	OutputDir       string `yaml:"output_dir"`
	TrackEveryTicks int    `yaml:"track_every_ticks"`
	PerfWindow      int    `yaml:"perf_window"`
}

// PersistenceConfig holds checkpoint database parameters.
type PersistenceConfig struct {
	DBPath               string `yaml:"db_path"`
	CheckpointEveryHours int    `yaml:"checkpoint_every_hours"`
	ArchiveTracks        bool   `yaml:"archive_tracks"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	StartTime  time.Time // parsed Simulation.Start
	TotalTicks int       // Days * 24, one tick per hour
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	start, err := time.Parse(time.RFC3339, c.Simulation.Start)
	if err != nil {
		return fmt.Errorf("parsing simulation.start: %w", err)
	}
	c.Derived.StartTime = start
	c.Derived.TotalTicks = c.Simulation.Days * 24
	return nil
}

// EnvParams bridges the environment section into the query layer.
func (c *Config) EnvParams() env.Params {
	return env.Params{
		DefaultWaveHeight:    c.Environment.DefaultWaveHeight,
		DefaultTemperature:   c.Environment.DefaultTemperature,
		CoastlineNaNFraction: c.Environment.CoastlineNaNFraction,
		GapFillRadius:        c.Environment.GapFillRadius,
		HSIChlThreshold:      c.Environment.HSIChlThreshold,
		TidePeriodHours:      c.Environment.TidePeriodHours,
		HighTideThreshold:    c.Environment.HighTideThreshold,
		LowTideThreshold:     c.Environment.LowTideThreshold,
	}
}

// NavConfig bridges the movement and navigation sections.
func (c *Config) NavConfig() nav.Config {
	return nav.Config{
		SpeedDeg:        c.Movement.SpeedDeg,
		Tortuosity:      c.Movement.Tortuosity,
		KappaScale:      c.Movement.KappaScale,
		CandidateCount:  c.Navigation.CandidateCount,
		PathSteps:       c.Navigation.PathSteps,
		DeepPanicDepthM: c.Navigation.DeepPanicDepthM,
		ShelfDepthM:     c.Navigation.ShelfDepthM,
		PanicSearchKm:   c.Navigation.PanicSearchKm,
		PanicSamples:    c.Navigation.PanicSamples,
		ShallowTopK:     c.Navigation.ShallowTopK,
	}
}

// AgentParams bridges the agent section into the behavioral model.
func (c *Config) AgentParams() agent.Params {
	a := c.Agent
	return agent.Params{
		MassKg:            a.MassKg,
		MaxEnergy:         a.MaxEnergy,
		InitialEnergyFrac: a.InitialEnergyFrac,
		StomachCapacity:   a.StomachCapacity,
		RMR:               a.RMR,
		AMRMultiplier:     a.AMRMultiplier,

		StarvationFrac: a.StarvationFrac,
		CriticalFrac:   a.CriticalFrac,
		ExhaustedFrac:  a.ExhaustedFrac,
		SleepWakeFrac:  a.SleepWakeFrac,
		RestWakeFrac:   a.RestWakeFrac,
		EnergyLowFrac:  a.EnergyLowFrac,

		StomachFullFrac:     a.StomachFullFrac,
		StomachModerateFrac: a.StomachModerateFrac,
		StomachEmptyFrac:    a.StomachEmptyFrac,

		SeekShelterSWH: a.SeekShelterSWH,
		MaxLandingSWH:  a.MaxLandingSWH,

		DigestionRateKg: a.DigestionRateKg,
		EnergyPerKgFood: a.EnergyPerKgFood,
		RestFlatGain:    a.RestFlatGain,
		SleepFlatGain:   a.SleepFlatGain,

		MatureAgeYears:     a.MatureAgeYears,
		ShallowDepthM:      a.ShallowDepthM,
		MediumDepthM:       a.MediumDepthM,
		ShallowRateKg:      a.ShallowRateKg,
		MediumRateKg:       a.MediumRateKg,
		HSIFloor:           a.HSIFloor,
		SpotStayBaseProb:   a.SpotStayBaseProb,
		SpotStayDecay:      a.SpotStayDecay,
		MaxShoreDistanceKm: a.MaxShoreDistanceKm,

		LandRefreshTicks: a.LandRefreshTicks,
		SearchRadiusKm:   a.SearchRadiusKm,
		SearchSamples:    a.SearchSamples,
		HaulOutTimeout:   a.HaulOutTimeout,

		MemorySites:        a.MemorySites,
		MemoryProximityDeg: a.MemoryProximityDeg,

		NightStartHour: a.NightStartHour,
		NightEndHour:   a.NightEndHour,

		MaleMortalityAge:  a.MaleMortalityAge,
		MaleMortalityProb: a.MaleMortalityProb,

		Move: c.NavConfig(),
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
