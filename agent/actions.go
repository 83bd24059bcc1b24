package agent

import (
	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/geo"
	"github.com/pthm-cable/selkie/nav"
)

// act dispatches on the (already decided) state for the tick.
func (a *Agent) act(e nav.Env, res env.Result) {
	switch a.State {
	case StateForaging:
		a.forage(e, res)
	case StateResting:
		a.digest(a.params.RestFlatGain)
	case StateSleeping:
		a.digest(a.params.SleepFlatGain)
	case StateHaulingOut:
		a.haulOut(e, res)
	case StateTransiting:
		a.transit(e, res)
	}
}

// forage moves (or stays, for spot feeders) and ingests prey scaled by depth
// band and habitat suitability.
func (a *Agent) forage(e nav.Env, res env.Result) {
	if a.beyondShoreBoundary() {
		a.returnToShore(e)
	} else if a.shouldRelocate(res) {
		a.PatchResidence = 0
		mv := nav.SmartMove(a.rng, e, a.moveState(), nav.IntentOpenWater, nil, a.params.Move)
		a.applyMove(mv)
	} else {
		a.PatchResidence++
	}
	a.feed(res)
}

// beyondShoreBoundary reports whether the agent has drifted past the
// offshore limit of its home range.
func (a *Agent) beyondShoreBoundary() bool {
	return a.HasDistToLand && a.DistToLandKm > a.params.MaxShoreDistanceKm
}

// returnToShore steers back toward remembered haul-out sites, or failing
// memory, toward shallower water.
func (a *Agent) returnToShore(e nav.Env) {
	if site, ok := a.Memory.NearestHaulOut(a.Pos); ok {
		mv := nav.SmartMove(a.rng, e, a.moveState(), nav.IntentOpenWater, &site, a.params.Move)
		a.applyMove(mv)
		return
	}
	mv := nav.SmartMove(a.rng, e, a.moveState(), nav.IntentSeekShelf, nil, a.params.Move)
	a.applyMove(mv)
}

// shouldRelocate is the stay/move draw. Immature animals transit-feed and
// always move; mature animals spot-feed, staying with probability that decays
// with residence time and degrades with patch depth quality.
func (a *Agent) shouldRelocate(res env.Result) bool {
	if a.AgeYears < a.params.MatureAgeYears {
		return true
	}
	stay := a.params.SpotStayBaseProb * a.depthQuality(res)
	for i := 0; i < a.PatchResidence; i++ {
		stay *= a.params.SpotStayDecay
	}
	return a.rng.Float64() >= stay
}

// depthQuality weights the stay probability by how fishable the patch is.
func (a *Agent) depthQuality(res env.Result) float64 {
	if !res.HasDepth || res.IsLand {
		return 0.1
	}
	switch {
	case res.Depth <= a.params.ShallowDepthM:
		return 1.0
	case res.Depth <= a.params.MediumDepthM:
		return 0.5
	default:
		return 0.1
	}
}

// feed ingests prey. Intake drops off with depth, is scaled by habitat
// suitability with a floor so sparse chlorophyll never zeroes the catch, and
// is jittered per tick.
func (a *Agent) feed(res env.Result) {
	if res.IsLand || !res.HasDepth {
		return
	}
	var rate float64
	switch {
	case res.Depth <= a.params.ShallowDepthM:
		rate = a.params.ShallowRateKg
	case res.Depth <= a.params.MediumDepthM:
		rate = a.params.MediumRateKg
	default:
		return
	}
	hsi := a.params.HSIFloor
	if res.HSI > hsi {
		hsi = res.HSI
	}
	jitter := 0.5 + a.rng.Float64()
	intake := rate * hsi * jitter
	space := a.params.StomachCapacity - a.StomachLoad
	if intake > space {
		intake = space
	}
	if intake > 0 {
		a.StomachLoad += intake
	}
}

// digest converts stomach contents to energy plus a flat recovery gain.
func (a *Agent) digest(flatGain float64) {
	amount := a.params.DigestionRateKg
	if amount > a.StomachLoad {
		amount = a.StomachLoad
	}
	a.StomachLoad -= amount
	a.Energy += amount*a.params.EnergyPerKgFood + flatGain
	a.clampEnergy()
}

// haulOut moves toward land to sleep, preferring a live search and falling
// back to remembered sites.
func (a *Agent) haulOut(e nav.Env, res env.Result) {
	a.HaulOutTicks++
	if res.IsLand {
		return
	}
	var target *geo.Point
	if p, _, ok := nav.FindNearestLand(e, a.Pos, a.params.SearchRadiusKm, a.params.SearchSamples); ok {
		target = &p
	} else if site, ok := a.Memory.NearestHaulOut(a.Pos); ok {
		target = &site
	}
	mv := nav.SmartMove(a.rng, e, a.moveState(), nav.IntentSeekLand, target, a.params.Move)
	a.applyMove(mv)
}

// transit escapes land or relocates through open water.
func (a *Agent) transit(e nav.Env, res env.Result) {
	var target *geo.Point
	if res.IsLand {
		if p, _, ok := nav.FindNearestWater(e, a.Pos, a.params.SearchRadiusKm, a.params.SearchSamples); ok {
			target = &p
		}
	}
	mv := nav.SmartMove(a.rng, e, a.moveState(), nav.IntentOpenWater, target, a.params.Move)
	a.applyMove(mv)
}

func (a *Agent) moveState() nav.State {
	st := nav.State{Pos: a.Pos, Heading: a.Heading}
	if site, ok := a.Memory.NearestHaulOut(a.Pos); ok {
		st.Home, st.HasHome = site, true
	}
	return st
}

func (a *Agent) applyMove(mv nav.Move) {
	a.Pos = mv.Pos
	a.Heading = mv.Heading
	a.LastMoveRelaxed = mv.Relaxed
	a.LastMoveUnsafe = mv.Unsafe
	a.LastDeepPanic = mv.DeepPanic
}
