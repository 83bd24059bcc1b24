package sim

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/selkie/agent"
	"github.com/pthm-cable/selkie/config"
	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/geo"
	"github.com/pthm-cable/selkie/persistence"
	"github.com/pthm-cable/selkie/telemetry"
)

func testConfig(t *testing.T, days, agents int) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Simulation.Days = days
	cfg.Simulation.Agents = agents
	cfg.Simulation.Seed = 7
	// Spawn on the synthetic island's eastern shelf.
	cfg.Simulation.OriginLat = 32.5
	cfg.Simulation.OriginLon = -16.3
	cfg.Derived.TotalTicks = days * 24
	return cfg
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func testSource() env.Source {
	return env.NewSyntheticSource(env.DefaultSyntheticConfig(7))
}

func TestNewHonorsLoopEnvironment(t *testing.T) {
	cfg := testConfig(t, 1, 4)

	cfg.Simulation.LoopEnvironment = true
	s := New(cfg, testSource(), nil, nil, discard())
	if _, ok := s.source.(*env.LoopingSource); !ok {
		t.Errorf("looping enabled but source is %T", s.source)
	}

	cfg.Simulation.LoopEnvironment = false
	s = New(cfg, testSource(), nil, nil, discard())
	if _, ok := s.source.(*env.SyntheticSource); !ok {
		t.Errorf("looping disabled but source is %T", s.source)
	}
}

func TestRunAdvancesClockAndKeepsPopulation(t *testing.T) {
	cfg := testConfig(t, 2, 20)
	s := New(cfg, testSource(), nil, nil, discard())

	if err := s.SpawnInitial(); err != nil {
		t.Fatalf("SpawnInitial: %v", err)
	}
	if got := len(s.Agents()); got != 20 {
		t.Fatalf("spawned %d agents, want 20", got)
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if s.Tick() != 48 {
		t.Errorf("tick = %d, want 48", s.Tick())
	}
	wantTime := cfg.Derived.StartTime.Add(48 * time.Hour)
	if !s.SimTime().Equal(wantTime) {
		t.Errorf("sim time = %v, want %v", s.SimTime(), wantTime)
	}

	for _, a := range s.Agents() {
		if !a.Alive() {
			t.Errorf("dead agent %s still in world", a.ID)
		}
		if a.Energy < 0 || a.Energy > a.MaxEnergy() {
			t.Errorf("agent %s energy %v out of bounds", a.ID, a.Energy)
		}
		if a.AgeTicks != 48 {
			t.Errorf("agent %s age ticks = %d, want 48", a.ID, a.AgeTicks)
		}
	}
}

func TestSpawnInitialAvoidsLand(t *testing.T) {
	cfg := testConfig(t, 1, 15)
	// Spawn radius overlapping the island so rejection sampling matters.
	cfg.Simulation.OriginLat = 32.5
	cfg.Simulation.OriginLon = -16.40
	cfg.Simulation.SpawnRadiusDeg = 0.1

	src := testSource()
	s := New(cfg, src, nil, nil, discard())
	if err := s.SpawnInitial(); err != nil {
		t.Fatal(err)
	}

	set, err := src.BuffersAt(cfg.Derived.StartTime)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range s.Agents() {
		res := env.Query(a.Pos.Lat, a.Pos.Lon, set, cfg.EnvParams())
		if res.IsLand {
			t.Errorf("agent %s spawned on land at %v", a.ID, a.Pos)
		}
	}
}

func TestDeadAgentsAreRemoved(t *testing.T) {
	cfg := testConfig(t, 1, 5)
	s := New(cfg, testSource(), nil, nil, discard())
	if err := s.SpawnInitial(); err != nil {
		t.Fatal(err)
	}

	// Starve one agent so the next tick kills it.
	victim := s.Agents()[0]
	victim.Energy = victim.MaxEnergy() * 0.05

	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	s.parallel.stopWorkers()

	agents := s.Agents()
	if len(agents) != 4 {
		t.Fatalf("population = %d, want 4", len(agents))
	}
	for _, a := range agents {
		if a.ID == victim.ID {
			t.Error("starved agent still present")
		}
	}
}

func TestRunWritesOutputs(t *testing.T) {
	cfg := testConfig(t, 1, 6)
	dir := t.TempDir()

	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := New(cfg, testSource(), out, nil, discard())
	if err := s.SpawnInitial(); err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"tracks.csv", "daily.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestCheckpointResume(t *testing.T) {
	cfg := testConfig(t, 2, 6)
	cfg.Persistence.CheckpointEveryHours = 24
	dbPath := filepath.Join(t.TempDir(), "run.db")

	db, err := persistence.Open(dbPath, discard())
	if err != nil {
		t.Fatal(err)
	}
	s := New(cfg, testSource(), nil, db, discard())
	if err := s.SpawnInitial(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 24; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	s.parallel.stopWorkers()
	if !db.HasCheckpoint() {
		t.Fatal("no checkpoint after 24 ticks")
	}
	db.Close()

	db2, err := persistence.Open(dbPath, discard())
	if err != nil {
		t.Fatal(err)
	}
	defer db2.Close()

	agents, tick, simTime, err := db2.LoadCheckpoint(cfg.AgentParams(), cfg.Simulation.Seed, discard())
	if err != nil {
		t.Fatal(err)
	}
	if tick != 24 {
		t.Errorf("tick = %d, want 24", tick)
	}

	resumed := New(cfg, testSource(), nil, db2, discard())
	resumed.AdoptAgents(agents, tick, simTime)
	if resumed.Tick() != 24 {
		t.Fatalf("resumed tick = %d", resumed.Tick())
	}
	if err := resumed.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if resumed.Tick() != 48 {
		t.Errorf("final tick = %d, want 48", resumed.Tick())
	}
}

func TestAdoptSkipsDeadAgents(t *testing.T) {
	cfg := testConfig(t, 1, 0)
	s := New(cfg, testSource(), nil, nil, discard())

	p := cfg.AgentParams()
	alive := agent.New("alive", geo.Point{Lat: 32.5, Lon: -16.3}, 5, agent.SexFemale, p, 1, discard())
	dead := agent.New("dead", geo.Point{Lat: 32.5, Lon: -16.3}, 5, agent.SexFemale, p, 2, discard())
	dead.State = agent.StateDead

	s.AdoptAgents([]*agent.Agent{alive, dead}, 10, cfg.Derived.StartTime.Add(10*time.Hour))
	if got := len(s.Agents()); got != 1 {
		t.Errorf("adopted %d agents, want 1", got)
	}
}
