// Package agent implements the per-individual behavioral state machine:
// physiological state, the hourly sense/decide/act update, and the memory of
// haul-out sites. Agents mutate only themselves; the driver owns the
// population.
package agent

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/pthm-cable/selkie/geo"
	"github.com/pthm-cable/selkie/nav"
)

// Sex is the agent's demographic sex.
type Sex uint8

const (
	SexMale Sex = iota
	SexFemale
)

func (s Sex) String() string {
	if s == SexMale {
		return "M"
	}
	return "F"
}

// State is the behavioral state. Dead is a proper terminal variant, never a
// string sentinel.
type State uint8

const (
	StateForaging State = iota
	StateResting        // short naps, sea or land
	StateSleeping       // deep sleep on land, or bottling in water
	StateHaulingOut     // moving toward land to sleep
	StateTransiting     // relocating / escaping
	StateDead           // terminal
)

func (s State) String() string {
	switch s {
	case StateForaging:
		return "FORAGING"
	case StateResting:
		return "RESTING"
	case StateSleeping:
		return "SLEEPING"
	case StateHaulingOut:
		return "HAULING_OUT"
	case StateTransiting:
		return "TRANSITING"
	case StateDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// active reports whether the state carries the elevated metabolic multiplier.
func (s State) active() bool {
	return s == StateForaging || s == StateTransiting || s == StateHaulingOut
}

// Params holds every behavioral and physiological tunable. Thresholds that
// are calibration choices rather than structural ones (coastline fraction,
// shore boundary) live here or in env.Params so runs can override them.
type Params struct {
	// Physiology
	MassKg            float64
	MaxEnergy         float64
	InitialEnergyFrac float64
	StomachCapacity   float64
	RMR               float64 // resting metabolic rate, kJ per tick
	AMRMultiplier     float64 // applied during FORAGING, TRANSITING, HAULING_OUT

	// Energy thresholds (fractions of MaxEnergy)
	StarvationFrac   float64 // at or below: death
	CriticalFrac     float64 // desperate foraging override
	ExhaustedFrac    float64 // too weak to leave sleep in water
	SleepWakeFrac    float64 // sleeping wakes hungry below this
	RestWakeFrac     float64 // resting resumes foraging above this
	EnergyLowFrac    float64 // foraging winds down below this

	// Stomach thresholds (fractions of StomachCapacity)
	StomachFullFrac     float64
	StomachModerateFrac float64
	StomachEmptyFrac    float64

	// Storm thresholds (significant wave height, metres)
	SeekShelterSWH  float64
	MaxLandingSWH   float64

	// Digestion
	DigestionRateKg  float64 // stomach emptied per tick while resting/sleeping
	EnergyPerKgFood  float64
	RestFlatGain     float64
	SleepFlatGain    float64

	// Foraging
	MatureAgeYears     int
	ShallowDepthM      float64
	MediumDepthM       float64
	ShallowRateKg      float64
	MediumRateKg       float64
	HSIFloor           float64
	SpotStayBaseProb   float64
	SpotStayDecay      float64
	MaxShoreDistanceKm float64

	// Navigation and search
	LandRefreshTicks  int
	SearchRadiusKm    float64
	SearchSamples     int
	HaulOutTimeout    int

	// Memory
	MemorySites        int
	MemoryProximityDeg float64

	// Night window (hours, wrap across midnight)
	NightStartHour int
	NightEndHour   int

	// Stochastic background mortality for mature males, per tick.
	MaleMortalityAge  int
	MaleMortalityProb float64

	// Movement
	Move nav.Config
}

// DefaultParams returns the calibrated defaults for an oligotrophic site.
func DefaultParams() Params {
	return Params{
		MassKg:            300,
		MaxEnergy:         100000,
		InitialEnergyFrac: 0.9,
		StomachCapacity:   15,
		RMR:               500,
		AMRMultiplier:     1.5,

		StarvationFrac: 0.10,
		CriticalFrac:   0.15,
		ExhaustedFrac:  0.20,
		SleepWakeFrac:  0.95,
		RestWakeFrac:   0.90,
		EnergyLowFrac:  0.30,

		StomachFullFrac:     0.80,
		StomachModerateFrac: 0.50,
		StomachEmptyFrac:    0.05,

		SeekShelterSWH: 2.5,
		MaxLandingSWH:  4.0,

		DigestionRateKg: 1.0,
		EnergyPerKgFood: 3500,
		RestFlatGain:    20,
		SleepFlatGain:   100,

		MatureAgeYears:     4,
		ShallowDepthM:      50,
		MediumDepthM:       100,
		ShallowRateKg:      3.0,
		MediumRateKg:       1.0,
		HSIFloor:           0.5,
		SpotStayBaseProb:   0.9,
		SpotStayDecay:      0.85,
		MaxShoreDistanceKm: 12,

		LandRefreshTicks: 6,
		SearchRadiusKm:   15,
		SearchSamples:    12,
		HaulOutTimeout:   5,

		MemorySites:        5,
		MemoryProximityDeg: 0.05,

		NightStartHour: 20,
		NightEndHour:   6,

		MaleMortalityAge:  8,
		MaleMortalityProb: 1e-5,

		Move: nav.DefaultConfig(),
	}
}

// Agent is one simulated individual. All mutation happens inside its own
// Update; the driver treats agents as snapshot-in, snapshot-out values.
type Agent struct {
	ID       string
	Sex      Sex
	AgeYears int
	AgeTicks int

	Pos     geo.Point
	Heading float64

	Energy      float64
	StomachLoad float64

	State          State
	StateDuration  int
	PatchResidence int
	HaulOutTicks   int

	// DistToLandKm is refreshed every LandRefreshTicks, not every tick.
	DistToLandKm  float64
	HasDistToLand bool

	LastDeathCause DeathCause

	// Flags from the most recent move, surfaced for event accounting.
	LastMoveRelaxed bool
	LastMoveUnsafe  bool
	LastDeepPanic   bool

	Memory Memory

	params Params
	rng    *rand.Rand
	log    *slog.Logger

	// Tide thresholds cached from the environment params each tick so the
	// transition guards stay argument-free.
	tideHigh, tideLow float64
}

// New creates an agent at a position. The logger is injected so tests can
// capture behavior deterministically; pass slog.Default() when in doubt. The
// RNG seed should differ per agent to decorrelate the population.
func New(id string, pos geo.Point, age int, sex Sex, p Params, seed int64, log *slog.Logger) *Agent {
	rng := rand.New(rand.NewSource(seed))
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		ID:       id,
		Sex:      sex,
		AgeYears: age,
		Pos:      pos,
		Heading:  rng.Float64()*2*math.Pi - math.Pi,
		Energy:   p.MaxEnergy * p.InitialEnergyFrac,
		State:    StateForaging,
		params:   p,
		rng:      rng,
		log:      log.With("agent", id),
	}
}

// Params exposes the agent's parameter set (read-only by convention).
func (a *Agent) Params() Params { return a.params }

// Alive reports whether the agent still participates in the simulation.
func (a *Agent) Alive() bool { return a.State != StateDead }

// MaxEnergy returns the energy ceiling.
func (a *Agent) MaxEnergy() float64 { return a.params.MaxEnergy }

// StomachCapacity returns the stomach ceiling.
func (a *Agent) StomachCapacity() float64 { return a.params.StomachCapacity }

// clone returns a deep copy used to restore state when an update faults.
func (a *Agent) clone() *Agent {
	cp := *a
	cp.Memory = a.Memory.clone()
	return &cp
}

// restore overwrites the agent with a previously cloned snapshot.
func (a *Agent) restore(from *Agent) {
	rng, log := a.rng, a.log
	*a = *from
	a.rng, a.log = rng, log
}

// clampEnergy enforces 0 <= Energy <= MaxEnergy.
func (a *Agent) clampEnergy() {
	if a.Energy < 0 {
		a.Energy = 0
	}
	if a.Energy > a.params.MaxEnergy {
		a.Energy = a.params.MaxEnergy
	}
}

// clampStomach enforces 0 <= StomachLoad <= StomachCapacity.
func (a *Agent) clampStomach() {
	if a.StomachLoad < 0 {
		a.StomachLoad = 0
	}
	if a.StomachLoad > a.params.StomachCapacity {
		a.StomachLoad = a.params.StomachCapacity
	}
}
