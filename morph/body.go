package morph

import (
	"math/rand"
	"sort"

	"github.com/pthm-cable/sprout/grid"
)

// Bias pulls body growth toward Point. Weight multiplies the Euclidean
// distance added to each candidate's score.
type Bias struct {
	Point  grid.Cell `json:"point"`
	Weight float64   `json:"weight"`
}

// TargetBias returns a bias toward p with the configured default weight.
func (e *Engine) TargetBias(p grid.Cell) Bias {
	return Bias{Point: p, Weight: e.cfg.Body.TargetWeight}
}

type candidate struct {
	cell  grid.Cell
	score float64
}

// GrowBody adds n cells to the body. Each step scores every free 8-neighbor
// of the body (not body, not module) and picks uniformly among the best
// candidate_pool of them. It returns false as soon as a step finds no
// candidate; cells added before that stay.
func (e *Engine) GrowBody(o *Organism, n int, r *rand.Rand, biases ...Bias) bool {
	occ := o.ModuleCells()
	pool := e.cfg.Body.CandidatePool
	added := 0
	for step := 0; step < n; step++ {
		cands := e.bodyCandidates(o, occ, biases)
		if len(cands) == 0 {
			e.emit(o, Event{Kind: EventBodyStalled, Count: added})
			return false
		}
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].score < cands[j].score
		})
		k := pool
		if k > len(cands) {
			k = len(cands)
		}
		pick := cands[r.Intn(k)].cell
		o.Body.Cells.Add(pick)
		added++
	}
	if added > 0 {
		e.emit(o, Event{Kind: EventBodyGrown, Count: added})
	}
	return true
}

// bodyCandidates lists free 8-neighbors of the body in deterministic order,
// scored against the wave field and biases.
func (e *Engine) bodyCandidates(o *Organism, occ *grid.Set, biases []Bias) []candidate {
	body := o.Body.Cells
	seen := make(map[grid.Key]bool)
	var out []candidate
	for i := 0; i < body.Len(); i++ {
		c := body.At(i)
		for _, d := range grid.Dirs8 {
			n := c.Add(d)
			k := n.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			if body.Has(n) || occ.Has(n) {
				continue
			}
			s := e.scoreCell(o, n)
			for _, b := range biases {
				s += b.Weight * grid.Dist(n, b.Point)
			}
			out = append(out, candidate{cell: n, score: s})
		}
	}
	return out
}

// ShrinkBody removes up to n non-core body cells, most-protruding first,
// never disconnecting the body. Modules left floating are the caller's to
// repair. It returns the number of removed cells.
func (e *Engine) ShrinkBody(o *Organism, n int) int {
	removed := 0
	for removed < n && o.Body.Cells.Len() > 1 {
		if !e.shrinkOne(o) {
			break
		}
		removed++
	}
	if removed > 0 {
		e.emit(o, Event{Kind: EventBodyShrunk, Count: removed})
	}
	return removed
}

func (e *Engine) shrinkOne(o *Organism) bool {
	body := o.Body.Cells
	var cands []candidate
	for i := 0; i < body.Len(); i++ {
		c := body.At(i)
		if c == o.Body.Core || !o.hasFreeNeighbor(c, nil) {
			continue
		}
		cands = append(cands, candidate{cell: c, score: e.scoreCell(o, c)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
	for _, c := range cands {
		body.Remove(c.cell)
		if grid.Connected(body, o.Body.Core) {
			return true
		}
		body.Add(c.cell)
	}
	return false
}
