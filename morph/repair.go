package morph

import (
	"math"

	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/organs"
)

// nudges are tried around each integer shift toward the body.
var nudges = [...]grid.Cell{{}, {X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

// RepairDetachedModules restores the attachment invariant after mutations
// that moved geometry out from under the modules. Per module it strips cells
// that overlap the body, prunes fragments unreachable from the body, and
// shifts a fully detached module back against the body. Modules that cannot
// be saved are dropped. It returns the number of modules touched.
func (e *Engine) RepairDetachedModules(o *Organism) int {
	body := o.Body.Cells
	fixed := 0
	kept := make([]*Module, 0, len(o.Modules))
	for i, m := range o.Modules {
		changed := m.Cells.Filter(func(c grid.Cell) bool {
			if body.Has(c) {
				delete(m.Anim, c.Key())
				return false
			}
			return true
		}) > 0

		attached, pruned := pruneFragments(m, body)
		changed = changed || pruned

		if m.Len() == 0 {
			fixed++
			e.emit(o, Event{Kind: EventModuleDropped, Module: m.Type, Cell: m.Anchor})
			continue
		}
		if !attached {
			fixed++
			if !e.reattach(o, m, kept, o.Modules[i+1:]) {
				e.emit(o, Event{Kind: EventModuleDropped, Module: m.Type, Cell: m.Anchor})
				continue
			}
			// The shift only guarantees one touching cell; pieces that were
			// apart before the shift are still apart after it.
			pruneFragments(m, body)
			m.resyncHead()
			e.emit(o, Event{Kind: EventModuleReattached, Module: m.Type, Cell: m.Anchor, Count: m.Len()})
		} else if changed {
			fixed++
			m.resyncHead()
			e.emit(o, Event{Kind: EventModulePruned, Module: m.Type, Cell: m.Anchor, Count: m.Len()})
		}
		kept = append(kept, m)
	}
	o.Modules = kept
	if o.GrowCursor >= len(kept) {
		o.GrowCursor = 0
	}
	return fixed
}

// pruneFragments drops cells of m not connected to a body-adjacent cell.
// It reports whether any cell touches the body and whether cells were
// removed. A module touching nothing is left as is.
func pruneFragments(m *Module, body *grid.Set) (attached, pruned bool) {
	var seeds []grid.Cell
	for i := 0; i < m.Cells.Len(); i++ {
		if c := m.Cells.At(i); body.Touches(c) {
			seeds = append(seeds, c)
		}
	}
	if len(seeds) == 0 {
		return false, false
	}
	reach := grid.Reach(m.Cells, seeds...)
	pruned = m.Cells.Filter(func(c grid.Cell) bool {
		if reach[c.Key()] {
			return true
		}
		delete(m.Anim, c.Key())
		return false
	}) > 0
	return true, pruned
}

// reattach shifts m toward the nearest body cell until it touches the body
// without colliding with the body or a surviving module.
func (e *Engine) reattach(o *Organism, m *Module, groups ...[]*Module) bool {
	body := o.Body.Cells
	if body.Len() == 0 {
		return false
	}
	others := grid.NewSet()
	for _, g := range groups {
		for _, other := range g {
			for i := 0; i < other.Cells.Len(); i++ {
				others.Add(other.Cells.At(i))
			}
		}
	}

	best := math.MaxInt
	var mc, bc grid.Cell
	for i := 0; i < m.Cells.Len(); i++ {
		a := m.Cells.At(i)
		for j := 0; j < body.Len(); j++ {
			b := body.At(j)
			if d := grid.Manhattan(a, b); d < best {
				best, mc, bc = d, a, b
			}
		}
	}
	gap := bc.Sub(mc)
	sx, sy := grid.Sign(gap.X), grid.Sign(gap.Y)
	gx, gy := absInt(gap.X), absInt(gap.Y)

	for k := 1; k <= e.cfg.Repair.MaxShift; k++ {
		base := grid.Cell{X: sx * minInt(k, gx), Y: sy * minInt(k, gy)}
		for _, nd := range nudges {
			shift := base.Add(nd)
			if shift == (grid.Cell{}) {
				continue
			}
			if fits(o, m.Cells, shift, others) {
				m.shift(shift)
				m.resyncHead()
				return true
			}
		}
	}
	return false
}

// fits reports whether cells shifted by d avoid body and others and touch
// the body.
func fits(o *Organism, cells *grid.Set, d grid.Cell, others *grid.Set) bool {
	touches := false
	for i := 0; i < cells.Len(); i++ {
		c := cells.At(i).Add(d)
		if o.Body.Cells.Has(c) || others.Has(c) {
			return false
		}
		if !touches && o.Body.Cells.Touches(c) {
			touches = true
		}
	}
	return touches
}

// NormalizeEyes is the migration-time cleanup for radial organs: any radial
// module within normalize_radius (Chebyshev) of an earlier one of the same
// type is dropped. The radius is wider than the placement rule on purpose;
// legacy layouts packed eyes tighter than placement now allows.
func (e *Engine) NormalizeEyes(o *Organism) int {
	radius := e.cfg.Placement.NormalizeRadius
	removed := 0
	kept := make([]*Module, 0, len(o.Modules))
	for _, m := range o.Modules {
		if m.Kind == organs.KindRadial {
			probe := &Organism{Modules: kept}
			if tooCloseToType(probe, m.Type, m.Cells.Cells(), radius, nil) {
				removed++
				e.emit(o, Event{Kind: EventEyeNormalized, Module: m.Type, Cell: m.Anchor, Count: m.Len()})
				continue
			}
		}
		kept = append(kept, m)
	}
	o.Modules = kept
	if o.GrowCursor >= len(kept) {
		o.GrowCursor = 0
	}
	return removed
}

// DetachModule removes module i (budding or organ loss) and returns it.
func (e *Engine) DetachModule(o *Organism, i int) *Module {
	if i < 0 || i >= len(o.Modules) {
		return nil
	}
	m := o.Modules[i]
	o.Modules = append(o.Modules[:i], o.Modules[i+1:]...)
	if o.GrowCursor >= len(o.Modules) {
		o.GrowCursor = 0
	}
	e.emit(o, Event{Kind: EventModuleDetached, Module: m.Type, Cell: m.Anchor, Count: m.Len()})
	return m
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
