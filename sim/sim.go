// Package sim drives the simulation: it owns the population, fetches
// environment snapshots, advances all agents in parallel, and emits
// telemetry and checkpoints.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selkie/agent"
	"github.com/pthm-cable/selkie/config"
	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/geo"
	"github.com/pthm-cable/selkie/nav"
	"github.com/pthm-cable/selkie/persistence"
	"github.com/pthm-cable/selkie/telemetry"
)

// Sim is the simulation driver.
type Sim struct {
	cfg *config.Config

	world     *ecs.World
	mapper    *ecs.Map2[Seal, Sensed]
	filter    *ecs.Filter2[Seal, Sensed]
	sensedMap *ecs.Map1[Sensed]

	source    env.Source
	envParams env.Params

	parallel  *parallelState
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	perf      *telemetry.PerfCollector
	db        *persistence.DB

	rng *rand.Rand
	log *slog.Logger

	tick      int
	simTime   time.Time
	agentSeq  int
	totalDead int
}

// New creates a simulation. Output and db may be nil to disable CSV output
// and checkpointing respectively.
func New(cfg *config.Config, source env.Source, output *telemetry.OutputManager, db *persistence.DB, log *slog.Logger) *Sim {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Simulation.LoopEnvironment {
		source = env.WrapLooping(source)
	}
	world := ecs.NewWorld()

	return &Sim{
		cfg:       cfg,
		world:     world,
		mapper:    ecs.NewMap2[Seal, Sensed](world),
		filter:    ecs.NewFilter2[Seal, Sensed](world),
		sensedMap: ecs.NewMap1[Sensed](world),
		source:    source,
		envParams: cfg.EnvParams(),
		parallel:  newParallelState(cfg.Simulation.Workers),
		collector: telemetry.NewCollector(),
		output:    output,
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		db:        db,
		rng:       rand.New(rand.NewSource(cfg.Simulation.Seed)),
		log:       log,
		simTime:   cfg.Derived.StartTime,
	}
}

// Tick returns the current tick counter.
func (s *Sim) Tick() int { return s.tick }

// SimTime returns the simulation clock.
func (s *Sim) SimTime() time.Time { return s.simTime }

// Agents returns the live population, in iteration order.
func (s *Sim) Agents() []*agent.Agent {
	var out []*agent.Agent
	query := s.filter.Query()
	for query.Next() {
		seal, _ := query.Get()
		out = append(out, seal.Agent)
	}
	return out
}

// CreateAgent adds one animal at the given position.
func (s *Sim) CreateAgent(pos geo.Point, age int, sex agent.Sex) *agent.Agent {
	s.agentSeq++
	a := agent.New(uuid.NewString(), pos, age, sex,
		s.cfg.AgentParams(), s.cfg.Simulation.Seed+int64(s.agentSeq), s.log)
	s.mapper.NewEntity(&Seal{Agent: a}, &Sensed{})
	return a
}

// AdoptAgents installs a previously checkpointed population.
func (s *Sim) AdoptAgents(agents []*agent.Agent, tick int, simTime time.Time) {
	for _, a := range agents {
		if !a.Alive() {
			s.totalDead++
			continue
		}
		s.agentSeq++
		s.mapper.NewEntity(&Seal{Agent: a}, &Sensed{})
	}
	s.tick = tick
	s.simTime = simTime
}

// SpawnInitial places the configured population in open water near the
// origin. Sampled positions that land on the grid's NaN cells are retried.
func (s *Sim) SpawnInitial() error {
	set, err := s.source.BuffersAt(s.simTime)
	if err != nil {
		return fmt.Errorf("fetching initial environment: %w", err)
	}
	e := nav.Env{Set: set, Params: s.envParams}

	sc := s.cfg.Simulation
	ac := s.cfg.Agent
	for i := 0; i < sc.Agents; i++ {
		pos := s.sampleWaterPosition(e, sc.OriginLat, sc.OriginLon, sc.SpawnRadiusDeg)
		age := ac.InitialAgeMin
		if ac.InitialAgeMax > ac.InitialAgeMin {
			age += s.rng.Intn(ac.InitialAgeMax - ac.InitialAgeMin + 1)
		}
		sex := agent.SexFemale
		if s.rng.Float64() < 0.5 {
			sex = agent.SexMale
		}
		s.CreateAgent(pos, age, sex)
	}
	s.log.Info("population spawned", "agents", sc.Agents,
		"origin_lat", sc.OriginLat, "origin_lon", sc.OriginLon)
	return nil
}

func (s *Sim) sampleWaterPosition(e nav.Env, lat, lon, radiusDeg float64) geo.Point {
	var p geo.Point
	for try := 0; try < 100; try++ {
		ang := s.rng.Float64() * 2 * math.Pi
		r := radiusDeg * math.Sqrt(s.rng.Float64())
		p = geo.Point{Lat: lat + r*math.Sin(ang), Lon: lon + r*math.Cos(ang)}
		if !e.At(p).IsLand {
			return p
		}
	}
	return p
}

// Run advances the simulation until the configured end or ctx cancellation.
func (s *Sim) Run(ctx context.Context) error {
	defer s.parallel.stopWorkers()

	for s.tick < s.cfg.Derived.TotalTicks {
		select {
		case <-ctx.Done():
			s.log.Info("run interrupted", "tick", s.tick)
			return ctx.Err()
		default:
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the simulation by one hourly tick.
func (s *Sim) Step() error {
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseEnvironment)
	set, err := s.source.BuffersAt(s.simTime)
	if err != nil {
		// Missing environment data means every agent would act blind.
		// Fail the run rather than silently drifting.
		return fmt.Errorf("fetching environment at %s: %w", s.simTime.Format(time.RFC3339), err)
	}
	e := nav.Env{Set: set, Params: s.envParams}

	s.perf.StartPhase(telemetry.PhaseAgents)
	s.buildSnapshots()
	s.parallel.run(e)

	s.perf.StartPhase(telemetry.PhaseApply)
	s.apply()

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	if err := s.emitTelemetry(); err != nil {
		return err
	}

	s.perf.StartPhase(telemetry.PhaseCheckpoint)
	if err := s.maybeCheckpoint(); err != nil {
		return err
	}

	s.perf.EndTick()
	s.tick++
	s.simTime = s.simTime.Add(time.Hour)
	return nil
}

// buildSnapshots collects the live population for the parallel phase.
func (s *Sim) buildSnapshots() {
	s.parallel.snapshots = s.parallel.snapshots[:0]
	query := s.filter.Query()
	for query.Next() {
		seal, sensed := query.Get()
		s.parallel.snapshots = append(s.parallel.snapshots, agentSnapshot{
			Entity:    query.Entity(),
			Agent:     seal.Agent,
			PrevState: seal.Agent.State,
			PrevLand:  sensed.Result.IsLand,
		})
	}
}

// apply writes back sensed results, derives events from state transitions,
// and removes this tick's dead from the world.
func (s *Sim) apply() {
	var dead []ecs.Entity

	for i := range s.parallel.snapshots {
		snap := &s.parallel.snapshots[i]
		a := snap.Agent
		res := s.parallel.results[i]

		if sensed := s.sensedMap.Get(snap.Entity); sensed != nil {
			sensed.Result = res
		}

		s.recordEvents(snap, res)

		if !a.Alive() {
			s.totalDead++
			dead = append(dead, snap.Entity)
		}
	}

	for _, entity := range dead {
		s.mapper.Remove(entity)
	}
}

func (s *Sim) recordEvents(snap *agentSnapshot, res env.Result) {
	a := snap.Agent
	prev := snap.PrevState

	if !a.Alive() {
		s.collector.Record(telemetry.NewDeathEvent(s.tick, a.ID, string(a.LastDeathCause)))
		return
	}

	switch {
	case prev == agent.StateHaulingOut && a.State == agent.StateTransiting &&
		res.WaveHeight > s.cfg.Agent.MaxLandingSWH:
		s.collector.Record(telemetry.Event{Type: telemetry.EventLandingAborted, Tick: s.tick, AgentID: a.ID})
	case prev != agent.StateHaulingOut && a.State == agent.StateHaulingOut &&
		res.WaveHeight > s.cfg.Agent.SeekShelterSWH:
		s.collector.Record(telemetry.Event{Type: telemetry.EventStormShelter, Tick: s.tick, AgentID: a.ID})
	case snap.PrevLand && a.State == agent.StateTransiting &&
		(prev == agent.StateSleeping || prev == agent.StateResting):
		s.collector.Record(telemetry.Event{Type: telemetry.EventTideEviction, Tick: s.tick, AgentID: a.ID})
	case prev == agent.StateHaulingOut && a.State == agent.StateSleeping:
		t := telemetry.EventHaulOutSuccess
		if !res.IsLand {
			t = telemetry.EventHaulOutTimeout
		}
		s.collector.Record(telemetry.Event{Type: t, Tick: s.tick, AgentID: a.ID})
	}

	if a.LastDeepPanic {
		s.collector.Record(telemetry.Event{Type: telemetry.EventDeepPanic, Tick: s.tick, AgentID: a.ID})
	}
	if a.LastMoveUnsafe {
		s.collector.Record(telemetry.Event{Type: telemetry.EventUnsafeMove, Tick: s.tick, AgentID: a.ID})
	} else if a.LastMoveRelaxed {
		s.collector.Record(telemetry.Event{Type: telemetry.EventRelaxedMove, Tick: s.tick, AgentID: a.ID})
	}
}

func (s *Sim) emitTelemetry() error {
	every := s.cfg.Telemetry.TrackEveryTicks
	if every < 1 {
		every = 1
	}
	if s.tick%every == 0 {
		records := make([]telemetry.TrackRecord, 0, len(s.parallel.snapshots))
		for i := range s.parallel.snapshots {
			records = append(records, telemetry.NewTrackRecord(
				s.simTime, s.parallel.snapshots[i].Agent, s.parallel.results[i]))
		}
		if err := s.output.WriteTracks(records); err != nil {
			return err
		}
		if s.db != nil && s.cfg.Persistence.ArchiveTracks {
			if err := s.db.ArchiveTracks(records); err != nil {
				return err
			}
		}
	}

	// Day boundary: flush daily stats and the event ledger.
	if (s.tick+1)%24 == 0 {
		stats := s.collector.Flush(s.simTime, s.tick, s.Agents())
		stats.Dead = s.totalDead
		s.log.Info("daily summary", "stats", stats)
		if err := s.output.WriteDaily(stats); err != nil {
			return err
		}
		if s.db != nil {
			if err := s.db.SaveDailyStats(stats); err != nil {
				return err
			}
		}
		events := s.collector.DrainEvents()
		if err := s.output.WriteEvents(events); err != nil {
			return err
		}
		if s.db != nil {
			if err := s.db.SaveEvents(events); err != nil {
				return err
			}
		}
		if err := s.output.WritePerf(s.perf.Stats(), s.tick); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sim) maybeCheckpoint() error {
	if s.db == nil {
		return nil
	}
	every := s.cfg.Persistence.CheckpointEveryHours
	if every < 1 || (s.tick+1)%every != 0 {
		return nil
	}
	return s.db.SaveCheckpoint(s.tick+1, s.simTime.Add(time.Hour), s.Agents())
}
