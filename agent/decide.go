package agent

import "github.com/pthm-cable/selkie/env"

// Guard predicates. Each reads one threshold so the transition table below
// stays legible.

func (a *Agent) isHighTide(res env.Result) bool { return res.Tide > a.tideHigh }
func (a *Agent) isLowTide(res env.Result) bool  { return res.Tide < a.tideLow }

func (a *Agent) isStarving() bool { return a.Energy <= a.params.StarvationFrac*a.params.MaxEnergy }
func (a *Agent) isDesperate() bool {
	return a.Energy <= a.params.CriticalFrac*a.params.MaxEnergy &&
		a.StomachLoad <= a.params.StomachEmptyFrac*a.params.StomachCapacity
}
func (a *Agent) isExhausted() bool { return a.Energy <= a.params.ExhaustedFrac*a.params.MaxEnergy }
func (a *Agent) isEnergyLow() bool { return a.Energy <= a.params.EnergyLowFrac*a.params.MaxEnergy }

func (a *Agent) isSatiated() bool {
	return a.StomachLoad >= a.params.StomachFullFrac*a.params.StomachCapacity
}
func (a *Agent) isModeratelyFull() bool {
	return a.StomachLoad >= a.params.StomachModerateFrac*a.params.StomachCapacity
}
func (a *Agent) isStomachEmpty() bool {
	return a.StomachLoad <= a.params.StomachEmptyFrac*a.params.StomachCapacity
}

// decide picks the next state. Tide forcing outranks everything: rising water
// floods haul-out sites, so agents on land at high tide must leave, and
// resting at sea under high tide wastes the productive window.
func (a *Agent) decide(res env.Result, night bool) State {
	if a.isHighTide(res) {
		if res.IsLand {
			return StateTransiting
		}
		switch a.State {
		case StateResting, StateHaulingOut:
			return StateForaging
		case StateSleeping:
			if !a.isExhausted() {
				return StateForaging
			}
		}
	}

	switch a.State {
	case StateForaging:
		return a.decideForaging(res)
	case StateResting:
		return a.decideResting(res)
	case StateSleeping:
		return a.decideSleeping(res, night)
	case StateHaulingOut:
		return a.decideHaulingOut(res)
	case StateTransiting:
		return a.decideTransiting(res)
	}
	return a.State
}

func (a *Agent) decideForaging(res env.Result) State {
	// Desperation: keep hunting no matter what.
	if a.isDesperate() {
		return StateForaging
	}
	if a.isSatiated() || a.isEnergyLow() {
		if a.isLowTide(res) {
			return StateHaulingOut
		}
		return StateResting
	}
	// Opportunistic haul-out: the window is short, take it half full.
	if a.isLowTide(res) && a.isModeratelyFull() {
		return StateHaulingOut
	}
	return StateForaging
}

func (a *Agent) decideResting(res env.Result) State {
	if a.isLowTide(res) {
		return StateHaulingOut
	}
	if a.isStomachEmpty() && a.Energy >= a.params.RestWakeFrac*a.params.MaxEnergy {
		return StateForaging
	}
	return StateResting
}

func (a *Agent) decideSleeping(res env.Result, night bool) State {
	if !res.IsLand {
		// Bottling. Too weak to do anything but drift; otherwise try to
		// reach land when the tide allows.
		if a.isExhausted() {
			return StateSleeping
		}
		if a.isLowTide(res) {
			return StateHaulingOut
		}
		return StateSleeping
	}
	if !night && a.isStomachEmpty() && a.Energy < a.params.SleepWakeFrac*a.params.MaxEnergy {
		return StateForaging
	}
	return StateSleeping
}

func (a *Agent) decideHaulingOut(res env.Result) State {
	if res.IsLand {
		a.Memory.RememberHaulOut(a.Pos, a.params.MemoryProximityDeg, a.params.MemorySites)
		return StateSleeping
	}
	if a.HaulOutTicks >= a.params.HaulOutTimeout {
		// Give up and sleep at the surface.
		return StateSleeping
	}
	return StateHaulingOut
}

func (a *Agent) decideTransiting(res env.Result) State {
	if !res.IsLand {
		return StateForaging
	}
	return StateTransiting
}
