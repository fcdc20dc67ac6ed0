package morph

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pthm-cable/sprout/grid"
)

// GrowOptions tunes GrowPlannedModules.
type GrowOptions struct {
	Targets  []Bias // Active feeding/attraction targets
	MaxGrows int    // Cell budget for the call; 0 = growth.max_grows
	Shuffle  bool   // Random module order instead of round-robin

	// GrownModules, when non-nil, receives every module that grew.
	GrownModules map[*Module]bool
}

// GrowPlannedModules extends modules that are still short of GrowTo by at
// most one cell each, until the budget runs out. It returns the number of
// cells added. A module with no open direction simply waits.
func (e *Engine) GrowPlannedModules(o *Organism, r *rand.Rand, opts GrowOptions) int {
	n := len(o.Modules)
	if n == 0 {
		return 0
	}
	budget := opts.MaxGrows
	if budget <= 0 {
		budget = e.cfg.Growth.MaxGrows
	}
	penalty := 1 - e.cfg.Growth.UnorientedPenalty

	grown := 0
	for _, idx := range e.growthOrder(o, r, opts) {
		m := o.Modules[idx]
		if !e.wantsGrowth(m) {
			continue
		}
		chance := m.GrowthChance
		if len(opts.Targets) > 0 && !orientedToward(m, opts.Targets) {
			chance *= penalty
		}
		if r.Float64() >= chance {
			continue
		}
		cell, ok := shapeFor(m.Kind).step(&stepCtx{e: e, o: o, m: m, r: r})
		if !ok {
			continue
		}
		m.appendCell(cell, o.MutationTicks)
		grown++
		if opts.GrownModules != nil {
			opts.GrownModules[m] = true
		}
		if grown >= budget {
			o.GrowCursor = (idx + 1) % n
			break
		}
	}
	if grown > 0 {
		e.emit(o, Event{Kind: EventModulesGrown, Count: grown})
	}
	return grown
}

// wantsGrowth reports whether m is below both its target and its type cap.
func (e *Engine) wantsGrowth(m *Module) bool {
	if m.Len() >= m.GrowTo {
		return false
	}
	if limit := e.reg.MaxLen(m.Type); limit > 0 && m.Len() >= limit {
		return false
	}
	return true
}

// orientedToward reports whether m's heading points at any target.
func orientedToward(m *Module, targets []Bias) bool {
	head := m.Head()
	u := m.Heading.Unit()
	for _, t := range targets {
		v := grid.VecOf(t.Point.Sub(head))
		if u.Dot(v) > 0 {
			return true
		}
	}
	return false
}

// growthOrder returns module indices in the order they get a chance to
// grow: shuffled, blended toward targets, or round-robin from the cursor.
func (e *Engine) growthOrder(o *Organism, r *rand.Rand, opts GrowOptions) []int {
	n := len(o.Modules)
	if opts.Shuffle {
		return r.Perm(n)
	}
	cursor := o.GrowCursor % n
	order := make([]int, n)
	for i := range order {
		order[i] = (cursor + i) % n
	}
	if len(opts.Targets) == 0 {
		return order
	}

	// Rank by distance to the nearest target, then blend with the
	// round-robin rank. Far targets fade back to plain round-robin.
	dist := make([]float64, n)
	for i, m := range o.Modules {
		dist[i] = math.Inf(1)
		head := m.Head()
		for _, t := range opts.Targets {
			if d := grid.Dist(head, t.Point); d < dist[i] {
				dist[i] = d
			}
		}
	}
	byDist := append([]int(nil), order...)
	sort.SliceStable(byDist, func(a, b int) bool { return dist[byDist[a]] < dist[byDist[b]] })
	distRank := make([]int, n)
	for rank, idx := range byDist {
		distRank[idx] = rank
	}

	taper := e.cfg.Growth.TargetTaper
	key := make([]float64, n)
	for rank, idx := range order {
		w := 1.0
		if taper > 0 {
			w = math.Max(0, 1-dist[idx]/taper)
		}
		key[idx] = w*float64(distRank[idx]) + (1-w)*float64(rank)
	}
	sort.SliceStable(order, func(a, b int) bool { return key[order[a]] < key[order[b]] })
	return order
}
