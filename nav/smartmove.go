package nav

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/geo"
	"github.com/pthm-cable/selkie/movement"
)

// Intent selects the candidate filter and selection rule for a move.
type Intent uint8

const (
	// IntentOpenWater keeps the agent in navigable water, biased toward the
	// shelf when no explicit target is set.
	IntentOpenWater Intent = iota
	// IntentSeekShelf prefers shallow water under the shelf depth.
	IntentSeekShelf
	// IntentSeekLand accepts land destinations outright (landing is the goal).
	IntentSeekLand
)

func (i Intent) String() string {
	switch i {
	case IntentOpenWater:
		return "open_water"
	case IntentSeekShelf:
		return "seek_shelf"
	case IntentSeekLand:
		return "seek_land"
	default:
		return "unknown"
	}
}

// Config holds the smart-move tunables.
type Config struct {
	SpeedDeg   float64 // step length in degrees per tick
	Tortuosity float64 // CRW persistence for in-water candidates
	KappaScale float64

	CandidateCount int // in-water candidates; on land twice this many
	PathSteps      int // interior samples for the land-crossing test

	DeepPanicDepthM float64 // beyond this (or unknown) depth, head for the shelf
	ShelfDepthM     float64 // "shallow" cutoff for shelf preference
	PanicSearchKm   float64 // radius of the shallow-cell search when panicking
	PanicSamples    int

	ShallowTopK int // random pick among the k shallowest open-water candidates
}

// DefaultConfig returns the calibrated smart-move parameters.
func DefaultConfig() Config {
	return Config{
		SpeedDeg:        0.05,
		Tortuosity:      0.8,
		KappaScale:      10,
		CandidateCount:  10,
		PathSteps:       4,
		DeepPanicDepthM: 1000,
		ShelfDepthM:     100,
		PanicSearchKm:   30,
		PanicSamples:    12,
		ShallowTopK:     3,
	}
}

// State is the mover's view of the agent: where it is, which way it points,
// and the remembered fallback site for deep-water panic.
type State struct {
	Pos     geo.Point
	Heading float64
	Home    geo.Point
	HasHome bool
}

// Move is the committed outcome of a smart-move step.
type Move struct {
	Pos     geo.Point
	Heading float64

	// Relaxed: coastline cells had to be admitted to find any candidate.
	Relaxed bool
	// Unsafe: every filter failed and an unfiltered candidate was taken.
	// Forward progress is guaranteed; safety is not.
	Unsafe bool
	// DeepPanic: the abyssal override redirected the move toward the shelf.
	DeepPanic bool
}

type candidate struct {
	pos         geo.Point
	heading     float64
	res         env.Result
	crossesLand bool
}

// SmartMove picks the next single-step position for an agent. It always
// returns some move: when filtering eliminates every candidate the
// constraints are progressively relaxed rather than deadlocking.
func SmartMove(rng *rand.Rand, e Env, st State, intent Intent, target *geo.Point, cfg Config) Move {
	here := e.At(st.Pos)

	// Deep-water panic: over the abyss (or with no depth estimate at all)
	// the priority is regaining the shelf, overriding any caller target.
	deepPanic := false
	if !here.IsLand && (!here.HasDepth || here.Depth > cfg.DeepPanicDepthM) {
		cond := func(r env.Result) bool { return !r.IsLand && r.HasDepth && r.Depth < cfg.ShelfDepthM }
		if p, _, ok := FindNearest(e, st.Pos, cond, cfg.PanicSearchKm, cfg.PanicSamples); ok {
			target = &p
			deepPanic = true
		} else if st.HasHome {
			home := st.Home
			target = &home
			deepPanic = true
		}
	}

	heading := st.Heading
	if target != nil {
		// Hard override: no blending with momentum.
		heading = geo.HeadingTo(st.Pos, *target)
	}

	cands := generateCandidates(rng, e, st.Pos, heading, here.IsLand, intent, cfg)
	if len(cands) == 0 {
		return Move{Pos: st.Pos, Heading: heading, Unsafe: true, DeepPanic: deepPanic}
	}

	selected, relaxed, unsafe := filterCandidates(cands, intent)
	chosen := selectCandidate(rng, selected, intent, target, cfg)

	return Move{
		Pos:       chosen.pos,
		Heading:   chosen.heading,
		Relaxed:   relaxed,
		Unsafe:    unsafe,
		DeepPanic: deepPanic,
	}
}

// generateCandidates produces the candidate moves. On land momentum is
// ignored (the agent is escaping) and headings cover the full circle at twice
// the usual count; in water the CRW primitive preserves tortuosity.
func generateCandidates(rng *rand.Rand, e Env, pos geo.Point, heading float64, onLand bool, intent Intent, cfg Config) []candidate {
	opts := movement.Options{
		SpeedDeg:   cfg.SpeedDeg,
		Tortuosity: cfg.Tortuosity,
		KappaScale: cfg.KappaScale,
	}

	var cands []candidate
	if onLand {
		n := cfg.CandidateCount * 2
		for i := 0; i < n; i++ {
			h := geo.NormalizeAngle(rng.Float64()*2*math.Pi - math.Pi)
			p := geo.Point{
				Lat: pos.Lat + cfg.SpeedDeg*math.Sin(h),
				Lon: pos.Lon + cfg.SpeedDeg*math.Cos(h),
			}
			cands = append(cands, newCandidate(e, pos, p, h, onLand, intent, cfg))
		}
		return cands
	}

	for i := 0; i < cfg.CandidateCount; i++ {
		p, h := movement.Step(rng, pos, heading, opts)
		cands = append(cands, newCandidate(e, pos, p, h, onLand, intent, cfg))
	}
	return cands
}

func newCandidate(e Env, from, to geo.Point, heading float64, onLand bool, intent Intent, cfg Config) candidate {
	c := candidate{pos: to, heading: heading, res: e.At(to)}
	// The crossing test binds water-to-water moves; from land every path
	// starts on land by definition, and landing moves cross land on purpose.
	if intent != IntentSeekLand && !onLand {
		c.crossesLand = PathIntersectsLand(e, from, to, cfg.PathSteps)
	}
	return c
}

// filterCandidates applies the intent's rejection rules with progressive
// relaxation: strict first, then admitting coastline cells, finally the raw
// candidate set (unsafe fallback).
func filterCandidates(cands []candidate, intent Intent) (kept []candidate, relaxed, unsafe bool) {
	if intent == IntentSeekLand {
		// Landing is the goal; nothing to reject.
		return cands, false, false
	}

	strict := filter(cands, func(c candidate) bool {
		return !c.res.IsLand && !c.res.IsCoastline && !c.crossesLand
	})
	if len(strict) > 0 {
		return strict, false, false
	}

	coastal := filter(cands, func(c candidate) bool {
		return !c.res.IsLand && !c.crossesLand
	})
	if len(coastal) > 0 {
		return coastal, true, false
	}

	return cands, true, true
}

func minBy(cands []candidate, key func(candidate) float64) candidate {
	best := cands[0]
	bestKey := key(best)
	for _, c := range cands[1:] {
		if k := key(c); k < bestKey {
			best, bestKey = c, k
		}
	}
	return best
}

func filter(cands []candidate, keep func(candidate) bool) []candidate {
	var out []candidate
	for _, c := range cands {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// selectCandidate applies the intent's selection rule to the surviving set.
func selectCandidate(rng *rand.Rand, cands []candidate, intent Intent, target *geo.Point, cfg Config) candidate {
	if len(cands) == 1 {
		return cands[0]
	}

	switch intent {
	case IntentSeekLand:
		// Prefer an actual land hit; otherwise close the distance to the
		// target through water.
		for _, c := range cands {
			if c.res.IsLand {
				return c
			}
		}
		if target != nil {
			return minBy(cands, func(c candidate) float64 {
				return geo.GreatCircleKm(c.pos, *target)
			})
		}
		return cands[rng.Intn(len(cands))]

	case IntentSeekShelf:
		sortByDepth(cands)
		if best := cands[0]; best.res.HasDepth && best.res.Depth < cfg.ShelfDepthM {
			return best
		}
		if target != nil {
			return minBy(cands, func(c candidate) float64 {
				return geo.GreatCircleKm(c.pos, *target)
			})
		}
		return cands[0]

	default: // IntentOpenWater
		if target != nil {
			return minBy(cands, func(c candidate) float64 {
				return geo.GreatCircleKm(c.pos, *target)
			})
		}
		// No target: bias toward the shelf while keeping stochasticity by
		// picking randomly among the k shallowest candidates.
		sortByDepth(cands)
		k := cfg.ShallowTopK
		if k < 1 {
			k = 1
		}
		if k > len(cands) {
			k = len(cands)
		}
		return cands[rng.Intn(k)]
	}
}

// sortByDepth orders candidates shallow-first; unknown depth sorts last.
func sortByDepth(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return depthOf(cands[i]) < depthOf(cands[j])
	})
}

func depthOf(c candidate) float64 {
	if !c.res.HasDepth {
		return math.Inf(1)
	}
	return c.res.Depth
}
