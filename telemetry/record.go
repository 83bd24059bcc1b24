// Package telemetry provides movement track logging, daily population
// statistics, event accounting, and tick timing.
package telemetry

import (
	"time"

	"github.com/pthm-cable/selkie/agent"
	"github.com/pthm-cable/selkie/env"
)

// TrackRecord is one agent-tick row in tracks.csv. The column set is part of
// the output contract; downstream analysis keys on these names.
type TrackRecord struct {
	Time        string  `csv:"time"`
	AgentID     string  `csv:"agent_id"`
	Lat         float64 `csv:"lat"`
	Lon         float64 `csv:"lon"`
	State       string  `csv:"state"`
	Energy      float64 `csv:"energy"`
	Stomach     float64 `csv:"stomach"`
	WaveHeight  float64 `csv:"wave_height"`
	Chlorophyll float64 `csv:"chlorophyll"`
	Temperature float64 `csv:"temperature"`
	Depth       float64 `csv:"depth"`
	IsLand      bool    `csv:"is_land"`
	IsCoastline bool    `csv:"is_coastline"`
	Tide        float64 `csv:"tide"`
	HSI         float64 `csv:"hsi"`
}

// NewTrackRecord builds a row from an agent and its sensed environment.
// Unknown depth and unset chlorophyll are written as -1 so they stay
// distinguishable from real zeros.
func NewTrackRecord(t time.Time, a *agent.Agent, res env.Result) TrackRecord {
	r := TrackRecord{
		Time:        t.UTC().Format(time.RFC3339),
		AgentID:     a.ID,
		Lat:         a.Pos.Lat,
		Lon:         a.Pos.Lon,
		State:       a.State.String(),
		Energy:      a.Energy,
		Stomach:     a.StomachLoad,
		WaveHeight:  res.WaveHeight,
		Temperature: res.Temperature,
		IsLand:      res.IsLand,
		IsCoastline: res.IsCoastline,
		Tide:        res.Tide,
		HSI:         res.HSI,
		Depth:       -1,
		Chlorophyll: -1,
	}
	if res.HasDepth {
		r.Depth = res.Depth
	}
	if res.HasChlorophyll {
		r.Chlorophyll = res.Chlorophyll
	}
	return r
}
