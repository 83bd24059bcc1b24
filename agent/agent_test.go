package agent

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/geo"
	"github.com/pthm-cable/selkie/nav"
)

var nan = math.NaN()

// Tide phase is a pure function of the snapshot timestamp (12.4 h period),
// so fixed wall times pin the tide level for a test.
var (
	midTide  = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)  // tide = 0.5
	highTide = time.Date(1970, 1, 1, 3, 6, 0, 0, time.UTC)  // tide = 1.0
	lowTide  = time.Date(1970, 1, 1, 9, 18, 0, 0, time.UTC) // tide = 0.0
)

// islandEnv builds a 40x40 grid at 0.01 degree resolution from (32, -17)
// with a solid NaN island spanning rows and cols 15..25 and 30 m water
// elsewhere.
func islandEnv(t time.Time) nav.Env {
	set := env.NewBufferSet(t)
	buf := env.NewBuffer(32.0, -17.0, 0.01, 0.01, 40, 40)
	for r := 0; r < 40; r++ {
		for c := 0; c < 40; c++ {
			if r >= 15 && r <= 25 && c >= 15 && c <= 25 {
				buf.Set(r, c, nan)
			} else {
				buf.Set(r, c, 30)
			}
		}
	}
	set.Buffers[env.VarDepth] = buf
	return nav.Env{Set: set, Params: env.DefaultParams()}
}

// waterEnv is the same grid with no land at all.
func waterEnv(t time.Time) nav.Env {
	set := env.NewBufferSet(t)
	buf := env.NewBuffer(32.0, -17.0, 0.01, 0.01, 40, 40)
	for r := 0; r < 40; r++ {
		for c := 0; c < 40; c++ {
			buf.Set(r, c, 30)
		}
	}
	set.Buffers[env.VarDepth] = buf
	return nav.Env{Set: set, Params: env.DefaultParams()}
}

func withWaves(e nav.Env, swh float64) nav.Env {
	buf := env.NewBuffer(32.0, -17.0, 0.01, 0.01, 40, 40)
	for i := range buf.Data {
		buf.Data[i] = swh
	}
	e.Set.Buffers[env.VarWaveHeight] = buf
	return e
}

func testAgent(pos geo.Point, age int, sex Sex, seed int64) *Agent {
	return New("test", pos, age, sex, DefaultParams(), seed, slog.New(slog.DiscardHandler))
}

func TestUpdateKeepsEnergyAndStomachBounded(t *testing.T) {
	e := islandEnv(midTide)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 1)
	p := a.Params()
	for i := 0; i < 300; i++ {
		a.Update(e)
		if a.Energy < 0 || a.Energy > p.MaxEnergy {
			t.Fatalf("tick %d: energy %.2f out of [0, %.2f]", i, a.Energy, p.MaxEnergy)
		}
		if a.StomachLoad < 0 || a.StomachLoad > p.StomachCapacity {
			t.Fatalf("tick %d: stomach %.2f out of [0, %.2f]", i, a.StomachLoad, p.StomachCapacity)
		}
	}
}

func TestStarvationDeathIsTerminal(t *testing.T) {
	e := waterEnv(midTide)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 2)
	p := a.Params()
	// Just above the threshold so one active tick tips it over.
	a.Energy = p.StarvationFrac*p.MaxEnergy + 1
	a.Update(e)
	if a.State != StateDead {
		t.Fatalf("state = %s, want DEAD", a.State)
	}
	if a.LastDeathCause != DeathStarvation {
		t.Fatalf("cause = %q, want starvation", a.LastDeathCause)
	}
	pos, energy := a.Pos, a.Energy
	for i := 0; i < 10; i++ {
		a.Update(e)
	}
	if a.State != StateDead || a.Pos != pos || a.Energy != energy {
		t.Fatalf("dead agent mutated: state=%s pos=%v energy=%.2f", a.State, a.Pos, a.Energy)
	}
}

func TestFullStomachAtLowTideTriggersHaulOut(t *testing.T) {
	e := islandEnv(lowTide)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 3)
	a.StomachLoad = a.Params().StomachCapacity
	a.Update(e)
	if a.State != StateHaulingOut {
		t.Fatalf("state = %s, want HAULING_OUT", a.State)
	}
}

func TestDesperateAgentKeepsForaging(t *testing.T) {
	e := islandEnv(lowTide)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 4)
	p := a.Params()
	a.Energy = p.CriticalFrac*p.MaxEnergy - 500
	a.StomachLoad = 0
	a.Update(e)
	if a.State != StateForaging {
		t.Fatalf("state = %s, want FORAGING", a.State)
	}
}

func TestHaulOutTimeoutFallsBackToSleep(t *testing.T) {
	e := waterEnv(midTide)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 5)
	a.State = StateHaulingOut
	timeout := a.Params().HaulOutTimeout
	for i := 0; i <= timeout+1; i++ {
		a.Update(e)
		if a.State == StateSleeping {
			return
		}
		if a.State != StateHaulingOut {
			t.Fatalf("tick %d: unexpected state %s", i, a.State)
		}
	}
	t.Fatalf("never gave up after %d ticks, state = %s", timeout+2, a.State)
}

func TestStormForcesShelterSeeking(t *testing.T) {
	e := withWaves(islandEnv(midTide), 3.0)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 6)
	a.Update(e)
	if a.State != StateHaulingOut {
		t.Fatalf("state = %s, want HAULING_OUT in %0.1f m seas", a.State, 3.0)
	}
}

func TestExtremeSurfAbortsLanding(t *testing.T) {
	e := withWaves(islandEnv(midTide), 5.0)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 7)
	a.State = StateHaulingOut
	a.Update(e)
	if a.State != StateTransiting {
		t.Fatalf("state = %s, want TRANSITING in %0.1f m seas", a.State, 5.0)
	}
}

func TestHighTideEvictsFromLand(t *testing.T) {
	e := islandEnv(highTide)
	a := testAgent(geo.Point{Lat: 32.20, Lon: -16.80}, 6, SexFemale, 8)
	a.State = StateSleeping
	a.Update(e)
	if a.State != StateTransiting {
		t.Fatalf("state = %s, want TRANSITING", a.State)
	}
}

func TestHighTideWakesRestersAtSea(t *testing.T) {
	e := islandEnv(highTide)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 9)
	a.State = StateResting
	a.StomachLoad = a.Params().StomachCapacity / 2
	a.Update(e)
	if a.State != StateForaging {
		t.Fatalf("state = %s, want FORAGING", a.State)
	}
}

func TestLandingStoresMemoryAndSleeps(t *testing.T) {
	e := islandEnv(midTide)
	a := testAgent(geo.Point{Lat: 32.20, Lon: -16.80}, 6, SexFemale, 10)
	a.State = StateHaulingOut
	a.Update(e)
	if a.State != StateSleeping {
		t.Fatalf("state = %s, want SLEEPING", a.State)
	}
	if len(a.Memory.HaulOutSites) != 1 {
		t.Fatalf("memory sites = %d, want 1", len(a.Memory.HaulOutSites))
	}
}

func TestImmatureAgentMovesEveryForagingTick(t *testing.T) {
	e := waterEnv(midTide)
	a := testAgent(geo.Point{Lat: 32.10, Lon: -16.90}, 2, SexFemale, 11)
	p := a.Params()
	p.StomachFullFrac = 2 // keep it foraging
	a.params = p
	for i := 0; i < 10; i++ {
		before := a.Pos
		a.Update(e)
		if a.State != StateForaging {
			t.Fatalf("tick %d: state = %s", i, a.State)
		}
		if a.Pos == before {
			t.Fatalf("tick %d: immature forager did not move", i)
		}
	}
}

func TestMatureSpotFeederStaysOnGoodPatch(t *testing.T) {
	e := waterEnv(midTide)
	a := testAgent(geo.Point{Lat: 32.10, Lon: -16.90}, 6, SexFemale, 12)
	p := a.Params()
	p.StomachFullFrac = 2
	p.SpotStayBaseProb = 1
	p.SpotStayDecay = 1
	a.params = p
	start := a.Pos
	for i := 0; i < 5; i++ {
		a.Update(e)
	}
	if a.Pos != start {
		t.Fatalf("spot feeder relocated from %v to %v", start, a.Pos)
	}
	if a.PatchResidence != 5 {
		t.Fatalf("patch residence = %d, want 5", a.PatchResidence)
	}
}

func TestDigestionConvertsStomachToEnergy(t *testing.T) {
	e := islandEnv(midTide)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 6, SexFemale, 13)
	p := a.Params()
	a.State = StateResting
	a.Energy = 0.5 * p.MaxEnergy
	a.StomachLoad = 5
	a.Update(e)
	if a.StomachLoad >= 5 {
		t.Fatalf("stomach did not shrink: %.2f", a.StomachLoad)
	}
	if a.Energy <= 0.5*p.MaxEnergy {
		t.Fatalf("energy did not grow: %.2f", a.Energy)
	}
}

func TestMemoryDedupAndEviction(t *testing.T) {
	var m Memory
	for i := 0; i < 10; i++ {
		m.RememberHaulOut(geo.Point{Lat: 32 + float64(i)*0.2, Lon: -17}, 0.05, 5)
	}
	if len(m.HaulOutSites) != 5 {
		t.Fatalf("sites = %d, want 5 after eviction", len(m.HaulOutSites))
	}
	before := len(m.HaulOutSites)
	// Within the proximity radius of an existing site: refresh, not append.
	m.RememberHaulOut(geo.Point{Lat: 33.81, Lon: -17.01}, 0.05, 5)
	if len(m.HaulOutSites) != before {
		t.Fatalf("nearby site duplicated: %d sites", len(m.HaulOutSites))
	}
	p, ok := m.NearestHaulOut(geo.Point{Lat: 33.0, Lon: -17})
	if !ok || math.Abs(p.Lat-33.0) > 0.11 {
		t.Fatalf("nearest = %v, ok = %v", p, ok)
	}
}

func TestAgeIncrementsAnnually(t *testing.T) {
	e := islandEnv(midTide)
	a := testAgent(geo.Point{Lat: 32.05, Lon: -16.95}, 3, SexFemale, 14)
	a.AgeTicks = 24*365 - 1
	a.Energy = a.Params().MaxEnergy
	a.Update(e)
	if a.AgeYears != 4 {
		t.Fatalf("age = %d, want 4", a.AgeYears)
	}
}
