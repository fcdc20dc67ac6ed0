package morph

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/organs"
)

// Placement is the outcome of AddModule.
type Placement struct {
	OK     bool
	Reason Reason
	Module *Module
	Twin   *Module // mirrored twin, if one was placed
}

// PlaceOptions tunes AddModuleWith.
type PlaceOptions struct {
	Target   *grid.Cell // bias anchor and heading toward this point
	NoMirror bool       // never spawn a mirrored twin
}

// AddModule places a new organ of type typ. Only the first cell is
// materialized; the rest of the planned geometry becomes GrowTo and is grown
// by GrowPlannedModules.
func (e *Engine) AddModule(o *Organism, typ string, r *rand.Rand, target *grid.Cell) Placement {
	return e.AddModuleWith(o, typ, r, PlaceOptions{Target: target})
}

// AddModuleWith is AddModule with options.
func (e *Engine) AddModuleWith(o *Organism, typ string, r *rand.Rand, opts PlaceOptions) Placement {
	spec, ok := e.reg.Lookup(typ)
	if !ok {
		return e.fail(o, typ, ReasonUnknownType)
	}
	if spec.SpawnMinBody > 0 && o.BodySize() < spec.SpawnMinBody {
		return e.fail(o, typ, ReasonMinBody)
	}

	occ := o.ModuleCells()
	anchors := e.pickAnchors(o, occ, r, opts.Target)
	if len(anchors) == 0 {
		return e.fail(o, typ, ReasonNoAnchor)
	}

	sh := shapeFor(spec.Kind)
	reason := ReasonBlocked
	attempts := e.cfg.Placement.AnchorAttempts
	for i, a := range anchors {
		if i >= attempts {
			break
		}
		pc := &planCtx{e: e, o: o, spec: spec, typ: typ, anchor: a, occ: occ, r: r, target: opts.Target}
		m, why := sh.plan(pc)
		if why != ReasonNone {
			reason = why
			continue
		}
		o.Modules = append(o.Modules, m)
		e.emit(o, Event{Kind: EventModulePlaced, Module: typ, Cell: a, Count: m.GrowTo})

		var twin *Module
		if !opts.NoMirror {
			twin = e.tryMirror(o, pc, m)
		}
		return Placement{OK: true, Module: m, Twin: twin}
	}
	return e.fail(o, typ, reason)
}

func (e *Engine) fail(o *Organism, typ string, why Reason) Placement {
	e.emit(o, Event{Kind: EventPlacementFailed, Module: typ, Reason: why})
	return Placement{Reason: why}
}

// pickAnchors samples perimeter body cells, falling back to an exhaustive
// scan. With a target the closest candidates come first, shuffled among the
// top anchor_top_k; otherwise the order is random.
func (e *Engine) pickAnchors(o *Organism, occ *grid.Set, r *rand.Rand, target *grid.Cell) []grid.Cell {
	body := o.Body.Cells
	seen := make(map[grid.Key]bool)
	var cands []grid.Cell
	for i := 0; i < e.cfg.Placement.AnchorSamples; i++ {
		c := body.At(r.Intn(body.Len()))
		if seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		if o.hasFreeNeighbor(c, occ) {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		for i := 0; i < body.Len(); i++ {
			if c := body.At(i); o.hasFreeNeighbor(c, occ) {
				cands = append(cands, c)
			}
		}
	}
	if len(cands) == 0 {
		return nil
	}

	if target == nil {
		r.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
		return cands
	}
	t := *target
	sort.SliceStable(cands, func(i, j int) bool {
		return grid.Manhattan(cands[i], t) < grid.Manhattan(cands[j], t)
	})
	k := e.cfg.Placement.AnchorTopK
	if k > len(cands) {
		k = len(cands)
	}
	r.Shuffle(k, func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
	return cands
}

// planCtx carries one placement attempt.
type planCtx struct {
	e      *Engine
	o      *Organism
	spec   organs.Spec
	typ    string
	anchor grid.Cell
	occ    *grid.Set
	r      *rand.Rand
	target *grid.Cell
}

func (c *planCtx) free(cell grid.Cell) bool {
	return c.o.free(cell, c.occ)
}

// desiredAngle points at the target, or radially out from the core, or
// along the plan axis when the anchor is the core itself.
func (c *planCtx) desiredAngle() float64 {
	if c.target != nil && *c.target != c.anchor {
		return math.Atan2(float64(c.target.Y-c.anchor.Y), float64(c.target.X-c.anchor.X))
	}
	core := c.o.Body.Core
	if c.anchor != core {
		return math.Atan2(float64(c.anchor.Y-core.Y), float64(c.anchor.X-core.X))
	}
	return grid.Heading{Index: c.o.Plan.AxisDir, Arity: 8}.Angle()
}

// heading quantizes the desired angle to the organ's arity. When the first
// step is blocked, neighboring fine buckets are scanned outward for a
// heading whose first step is free.
func (c *planCtx) heading() (grid.Heading, bool) {
	arity := c.spec.GrowthDir
	center := grid.FineBucket(c.desiredAngle())
	first := grid.Quantize(center, arity)
	if c.free(c.anchor.Add(first.Step().Cell())) {
		return first, true
	}
	tried := map[int]bool{first.Index: true}
	for _, b := range grid.BucketScan(center)[1:] {
		h := grid.Quantize(b, arity)
		if tried[h.Index] {
			continue
		}
		tried[h.Index] = true
		if c.free(c.anchor.Add(h.Step().Cell())) {
			return h, true
		}
	}
	return first, false
}

// trace walks from start along h for up to n cells, stopping at the first
// body or module collision.
func (c *planCtx) trace(start grid.Cell, h grid.Heading, n int) []grid.Cell {
	var out []grid.Cell
	pos := grid.VecOf(start)
	for i := 0; i < n; i++ {
		pos = pos.Add(h.Step())
		cell := pos.Cell()
		if !c.free(cell) {
			break
		}
		out = append(out, cell)
	}
	return out
}

// tooClose reports whether any cell lies within radius (Chebyshev) of a
// cell of an existing module of the same type.
func (c *planCtx) tooClose(cells []grid.Cell, radius int) bool {
	return tooCloseToType(c.o, c.typ, cells, radius, nil)
}

func tooCloseToType(o *Organism, typ string, cells []grid.Cell, radius int, skip *Module) bool {
	same := grid.NewSet()
	for _, m := range o.Modules {
		if m.Type != typ || m == skip {
			continue
		}
		for i := 0; i < m.Cells.Len(); i++ {
			same.Add(m.Cells.At(i))
		}
	}
	if same.Len() == 0 {
		return false
	}
	for _, cell := range cells {
		for dx := -radius; dx <= radius; dx++ {
			for dy := -radius; dy <= radius; dy++ {
				if same.HasXY(cell.X+dx, cell.Y+dy) {
					return true
				}
			}
		}
	}
	return false
}

// newModule fills the fields every shape shares and materializes first.
func (c *planCtx) newModule(h grid.Heading, first grid.Cell, growTo int) *Module {
	pigment := 0
	if n := len(c.o.Palette); n > 0 {
		pigment = c.r.Intn(n)
	}
	sign := func() int {
		if c.r.Intn(2) == 0 {
			return -1
		}
		return 1
	}
	m := &Module{
		Type:         c.typ,
		Kind:         c.spec.Kind,
		Movable:      c.spec.Movable,
		Cells:        grid.NewSet(),
		Anchor:       c.anchor,
		GrowTo:       c.spec.ClampLen(growTo),
		Heading:      h,
		Width:        c.spec.Width,
		Shape:        c.spec.PickShape(c.r),
		GrowthChance: c.spec.GrowthChance,
		Pigment:      pigment,
		State:        StyleState{ZigSign: sign(), CurveSign: sign()},
	}
	m.appendCell(first, c.o.MutationTicks)
	m.GrowPos = grid.VecOf(first)
	return m
}

// tryMirror places an x-mirrored twin of a linear module when the plan is
// symmetric enough and an independent draw passes.
func (e *Engine) tryMirror(o *Organism, pc *planCtx, m *Module) *Module {
	if m.Kind != organs.KindLinear || o.Plan.Symmetry <= e.cfg.Placement.MirrorSymmetry {
		return nil
	}
	if pc.r.Float64() >= e.cfg.Placement.MirrorChance {
		return nil
	}
	core := o.Body.Core
	anchor := grid.Cell{X: 2*core.X - m.Anchor.X, Y: m.Anchor.Y}
	if anchor == m.Anchor || !o.Body.Cells.Has(anchor) {
		return nil
	}
	h := m.Heading.MirrorX()
	mc := *pc
	mc.anchor = anchor
	mc.occ = o.ModuleCells()
	cells := mc.trace(anchor, h, m.GrowTo)
	if len(cells) < pc.spec.MinLen {
		return nil
	}
	if mc.tooClose(cells, e.cfg.Placement.TooCloseRadius) {
		return nil
	}

	twin := *m
	twin.Cells = grid.NewSet()
	twin.Anim = nil
	twin.Anchor = anchor
	twin.Heading = h
	twin.GrowTo = len(cells)
	twin.State = StyleState{ZigSign: -m.State.ZigSign, CurveSign: -m.State.CurveSign}
	twin.appendCell(cells[0], o.MutationTicks)
	twin.GrowPos = grid.VecOf(anchor).Add(h.Step())
	o.Modules = append(o.Modules, &twin)
	e.emit(o, Event{Kind: EventMirrorPlaced, Module: m.Type, Cell: anchor, Count: twin.GrowTo})
	return &twin
}
