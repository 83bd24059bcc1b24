package agent

import (
	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/nav"
)

// DeathCause labels why an agent died, for event accounting.
type DeathCause string

const (
	DeathStarvation DeathCause = "starvation"
	DeathBackground DeathCause = "background"
)

// Update advances the agent by one tick against the given environment
// snapshot. It never panics: a fault inside the pipeline is logged and the
// agent is returned unchanged for the tick. Dead agents are inert.
func (a *Agent) Update(e nav.Env) (res env.Result) {
	if a.State == StateDead {
		return a.sense(e)
	}

	snap := a.clone()
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("agent update fault, tick skipped", "panic", r, "state", snap.State.String())
			a.restore(snap)
			res = env.Result{}
		}
	}()

	// Move flags describe this tick only.
	a.LastMoveRelaxed, a.LastMoveUnsafe, a.LastDeepPanic = false, false, false

	a.AgeTicks++
	if a.AgeTicks%(24*365) == 0 {
		a.AgeYears++
	}
	hour := e.Set.Time.Hour()
	night := a.isNight(hour)
	a.tideHigh, a.tideLow = e.Params.HighTideThreshold, e.Params.LowTideThreshold

	res = a.sense(e)

	if a.params.LandRefreshTicks > 0 && a.AgeTicks%a.params.LandRefreshTicks == 0 {
		a.refreshLandDistance(e, res)
	}

	forced := a.applyStormOverrides(res)

	if a.backgroundMortality() {
		a.die(DeathBackground)
		return res
	}

	a.burnEnergy()
	if a.isStarving() {
		a.die(DeathStarvation)
		return res
	}

	// A storm override holds for the whole tick; normal transitions resume
	// next tick.
	if !forced {
		a.setState(a.decide(res, night))
	}
	a.act(e, res)

	a.clampEnergy()
	a.clampStomach()
	a.StateDuration++
	return res
}

// sense queries the environment at the agent's position.
func (a *Agent) sense(e nav.Env) env.Result {
	return a.At(e)
}

// At evaluates the environment at the agent's current position.
func (a *Agent) At(e nav.Env) env.Result {
	return env.Query(a.Pos.Lat, a.Pos.Lon, e.Set, e.Params)
}

// refreshLandDistance recomputes the cached distance to the nearest land
// cell. On land the distance is zero by definition.
func (a *Agent) refreshLandDistance(e nav.Env, res env.Result) {
	if res.IsLand {
		a.DistToLandKm, a.HasDistToLand = 0, true
		return
	}
	_, d, ok := nav.FindNearestLand(e, a.Pos, a.params.SearchRadiusKm, a.params.SearchSamples)
	if ok {
		a.DistToLandKm, a.HasDistToLand = d, true
	} else {
		a.HasDistToLand = false
	}
}

// applyStormOverrides forces shelter-seeking behavior in heavy seas and
// reports whether it changed the state. Above the landing limit the surf
// makes hauling out lethal, so agents already attempting to land divert
// offshore instead.
func (a *Agent) applyStormOverrides(res env.Result) bool {
	if res.WaveHeight > a.params.MaxLandingSWH {
		if a.State == StateHaulingOut {
			a.setState(StateTransiting)
			return true
		}
		return false
	}
	if res.WaveHeight > a.params.SeekShelterSWH && !res.IsLand {
		if a.State != StateHaulingOut && a.State != StateSleeping {
			a.setState(StateHaulingOut)
			return true
		}
	}
	return false
}

// backgroundMortality draws the stochastic hazard applied to mature males.
func (a *Agent) backgroundMortality() bool {
	if a.Sex != SexMale || a.AgeYears < a.params.MaleMortalityAge {
		return false
	}
	return a.rng.Float64() < a.params.MaleMortalityProb
}

// burnEnergy applies the metabolic cost for the tick. Active states pay the
// field multiplier over resting rate.
func (a *Agent) burnEnergy() {
	cost := a.params.RMR
	if a.State.active() {
		cost *= a.params.AMRMultiplier
	}
	a.Energy -= cost
	if a.Energy < 0 {
		a.Energy = 0
	}
}

func (a *Agent) die(cause DeathCause) {
	a.log.Info("agent died", "cause", string(cause), "age_years", a.AgeYears, "energy", a.Energy)
	a.State = StateDead
	a.LastDeathCause = cause
}

// setState transitions with bookkeeping: duration and patch residence reset
// on change, and entering HAULING_OUT restarts the landing attempt counter.
func (a *Agent) setState(next State) {
	if next == a.State {
		return
	}
	a.State = next
	a.StateDuration = 0
	a.PatchResidence = 0
	if next == StateHaulingOut {
		a.HaulOutTicks = 0
	}
}

func (a *Agent) isNight(hour int) bool {
	s, e := a.params.NightStartHour, a.params.NightEndHour
	if s <= e {
		return hour >= s && hour < e
	}
	return hour >= s || hour < e
}
