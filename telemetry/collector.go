package telemetry

import (
	"time"

	"github.com/pthm-cable/selkie/agent"
)

// Collector accumulates events between daily flushes and produces DailyStats.
type Collector struct {
	starvations      int
	backgroundDeaths int
	tideEvictions    int
	stormShelters    int
	landingsAborted  int
	haulOutSuccesses int
	haulOutTimeouts  int
	relaxedMoves     int
	unsafeMoves      int
	deepPanics       int

	events []Event
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record accumulates one event.
func (c *Collector) Record(e Event) {
	switch e.Type {
	case EventDeath:
		if e.Detail == string(agent.DeathBackground) {
			c.backgroundDeaths++
		} else {
			c.starvations++
		}
	case EventTideEviction:
		c.tideEvictions++
	case EventStormShelter:
		c.stormShelters++
	case EventLandingAborted:
		c.landingsAborted++
	case EventHaulOutSuccess:
		c.haulOutSuccesses++
	case EventHaulOutTimeout:
		c.haulOutTimeouts++
	case EventRelaxedMove:
		c.relaxedMoves++
	case EventUnsafeMove:
		c.unsafeMoves++
	case EventDeepPanic:
		c.deepPanics++
	}
	c.events = append(c.events, e)
}

// DrainEvents returns and clears the buffered event log.
func (c *Collector) DrainEvents() []Event {
	out := c.events
	c.events = nil
	return out
}

// Flush produces a DailyStats snapshot from the current population and
// resets the counters for the next day.
func (c *Collector) Flush(t time.Time, tick int, agents []*agent.Agent) DailyStats {
	stats := DailyStats{
		Date: t.UTC().Format("2006-01-02"),
		Tick: tick,

		Starvations:      c.starvations,
		BackgroundDeaths: c.backgroundDeaths,
		TideEvictions:    c.tideEvictions,
		StormShelters:    c.stormShelters,
		LandingsAborted:  c.landingsAborted,
		HaulOutSuccesses: c.haulOutSuccesses,
		HaulOutTimeouts:  c.haulOutTimeouts,
		RelaxedMoves:     c.relaxedMoves,
		UnsafeMoves:      c.unsafeMoves,
		DeepPanics:       c.deepPanics,
	}

	var energies, stomachs []float64
	for _, a := range agents {
		if !a.Alive() {
			stats.Dead++
			continue
		}
		stats.Alive++
		energies = append(energies, a.Energy)
		stomachs = append(stomachs, a.StomachLoad)
		switch a.State {
		case agent.StateForaging:
			stats.Foraging++
		case agent.StateResting:
			stats.Resting++
		case agent.StateSleeping:
			stats.Sleeping++
		case agent.StateHaulingOut:
			stats.HaulingOut++
		case agent.StateTransiting:
			stats.Transiting++
		}
	}

	stats.EnergyMean, stats.EnergyStd, stats.EnergyP10, stats.EnergyP50, stats.EnergyP90 = ComputeDistribution(energies)
	stats.StomachMean, _, _, _, _ = ComputeDistribution(stomachs)

	*c = Collector{events: c.events}
	return stats
}
