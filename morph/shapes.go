package morph

import (
	"math"
	"math/rand"
	"slices"
	"sort"

	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/organs"
)

// shape is the construction and growth-step behavior of one organ kind.
// The set of kinds is closed; numeric parameters come from the registry.
type shape interface {
	// plan builds the initial geometry at pc.anchor and returns a module
	// with its first cell materialized, or a failure reason.
	plan(pc *planCtx) (*Module, Reason)
	// step picks the next cell for a growing module, or false to stall.
	step(sc *stepCtx) (grid.Cell, bool)
}

func shapeFor(k organs.Kind) shape {
	switch k {
	case organs.KindJointed:
		return jointedShape{}
	case organs.KindPatch:
		return patchShape{}
	case organs.KindRadial:
		return radialShape{}
	}
	return linearShape{}
}

// stepCtx carries one growth step.
type stepCtx struct {
	e *Engine
	o *Organism
	m *Module
	r *rand.Rand
}

// open reports whether the module may grow into cell. Body cells and the
// module's own cells are refused. Other modules are deliberately not
// checked: appendages may cross each other once grown.
func (sc *stepCtx) open(cell grid.Cell) bool {
	return !sc.o.Body.Cells.Has(cell) && !sc.m.Cells.Has(cell)
}

// advance moves the float growth position along h and returns the new
// position and the cell it lands on. If the position drifted off the head
// (after a repair shift or prune) it restarts from the head cell.
func (sc *stepCtx) advance(h grid.Heading) (grid.Vec, grid.Cell) {
	head := sc.m.Head()
	next := sc.m.GrowPos.Add(h.Step())
	cell := next.Cell()
	if !grid.Adjacent8(head, cell) {
		next = grid.VecOf(head).Add(h.Step())
		cell = next.Cell()
	}
	return next, cell
}

// linearShape: tail, tentacle, worm, antenna, spike, teeth, claw.
type linearShape struct{}

func (linearShape) plan(pc *planCtx) (*Module, Reason) {
	h, ok := pc.heading()
	if !ok {
		return nil, ReasonBlocked
	}
	cells := pc.trace(pc.anchor, h, pc.spec.TargetLen(pc.r))
	if len(cells) == 0 || len(cells) < pc.spec.MinLen {
		return nil, ReasonBlocked
	}
	if pc.tooClose(cells, pc.e.cfg.Placement.TooCloseRadius) {
		return nil, ReasonTooClose
	}
	m := pc.newModule(h, cells[0], len(cells))
	m.Style = pc.spec.PickStyle(pc.r, pc.o.Plan.Wiggle)
	m.GrowPos = grid.VecOf(pc.anchor).Add(h.Step())
	return m, ReasonNone
}

func (linearShape) step(sc *stepCtx) (grid.Cell, bool) {
	m := sc.m
	cfg := sc.e.cfg.Growth
	h := m.Heading
	switch m.Style {
	case StyleZigzag:
		seg := m.Len() / cfg.ZigzagPeriod
		if seg%2 == 1 {
			side := m.State.ZigSign
			if (seg/2)%2 == 1 {
				side = -side
			}
			h = m.Heading.Perp(side)
		}
	case StyleCurve:
		if sc.r.Float64() < cfg.CurveChance*sc.o.Plan.Wiggle {
			m.Heading = m.Heading.Rotate(m.State.CurveSign)
			m.State.Turns++
			if sc.r.Float64() < 0.25 {
				m.State.CurveSign = -m.State.CurveSign
			}
		}
		h = m.Heading
	}
	next, cell := sc.advance(h)
	if !sc.open(cell) {
		return grid.Cell{}, false
	}
	m.GrowPos = next
	return cell, true
}

// jointedShape: limbs built from pre-planned phalanx segments.
type jointedShape struct{}

func (jointedShape) plan(pc *planCtx) (*Module, Reason) {
	h, ok := pc.heading()
	if !ok {
		return nil, ReasonBlocked
	}
	ph := pc.spec.Phalanges
	count := ph[0] + pc.r.Intn(ph[1]-ph[0]+1)
	bend := 1
	if pc.r.Intn(2) == 0 {
		bend = -1
	}
	segs := make([]Segment, count)
	for i := range segs {
		segs[i] = Segment{
			Heading: h.Rotate(bend * (i % 2)),
			Len:     pc.spec.SegmentLens[i%len(pc.spec.SegmentLens)],
		}
	}

	var cells []grid.Cell
	pos := grid.VecOf(pc.anchor)
walk:
	for _, s := range segs {
		for j := 0; j < s.Len; j++ {
			if len(cells) >= pc.spec.MaxLen {
				break walk
			}
			pos = pos.Add(s.Heading.Step())
			cell := pos.Cell()
			if !pc.free(cell) {
				break walk
			}
			cells = append(cells, cell)
		}
	}
	if len(cells) == 0 || len(cells) < pc.spec.MinLen {
		return nil, ReasonBlocked
	}
	if pc.tooClose(cells, pc.e.cfg.Placement.TooCloseRadius) {
		return nil, ReasonTooClose
	}
	m := pc.newModule(h, cells[0], len(cells))
	m.Style = StyleJointed
	m.Segments = segs
	m.GrowPos = grid.VecOf(pc.anchor).Add(segs[0].Heading.Step())
	return m, ReasonNone
}

// segmentAt returns the segment index that cell number idx belongs to.
func segmentAt(segs []Segment, idx int) int {
	for i, s := range segs {
		if idx < s.Len {
			return i
		}
		idx -= s.Len
	}
	return len(segs) - 1
}

func (jointedShape) step(sc *stepCtx) (grid.Cell, bool) {
	m := sc.m
	if len(m.Segments) == 0 {
		return linearShape{}.step(sc)
	}
	seg := segmentAt(m.Segments, m.Len())
	base := m.Segments[seg].Heading
	// On 16-way headings the first rotation often lands on the same cell as
	// the straight step, so the turn widens until it reaches a new cell.
	var rejected []grid.Cell
	for _, delta := range redirects(base.Arity / 4) {
		next, cell := sc.advance(base.Rotate(delta))
		if slices.Contains(rejected, cell) {
			continue
		}
		if !sc.open(cell) {
			rejected = append(rejected, cell)
			continue
		}
		if delta != 0 {
			// A redirected joint carries the rest of the limb with it.
			for j := seg; j < len(m.Segments); j++ {
				m.Segments[j].Heading = m.Segments[j].Heading.Rotate(delta)
			}
		}
		m.GrowPos = next
		return cell, true
	}
	return grid.Cell{}, false
}

// redirects lists joint rotations in the order they are tried: straight,
// then alternating sides out to limit sectors.
func redirects(limit int) []int {
	out := make([]int, 0, 2*limit+1)
	out = append(out, 0)
	for d := 1; d <= limit; d++ {
		out = append(out, d, -d)
	}
	return out
}

// patchShape: shell, mouth, fin. Stamps a fixed offset pattern.
type patchShape struct{}

// rotateQuarter rotates a local offset by q quarter turns.
func rotateQuarter(off [2]int, q int) grid.Cell {
	x, y := off[0], off[1]
	switch q & 3 {
	case 1:
		return grid.Cell{X: -y, Y: x}
	case 2:
		return grid.Cell{X: -x, Y: -y}
	case 3:
		return grid.Cell{X: y, Y: -x}
	}
	return grid.Cell{X: x, Y: y}
}

func (patchShape) plan(pc *planCtx) (*Module, Reason) {
	h, ok := pc.heading()
	if !ok {
		return nil, ReasonBlocked
	}
	q := grid.Round(h.Angle() / (math.Pi / 2))
	stamp := grid.NewSet()
	for _, off := range pc.spec.Offsets {
		cell := pc.anchor.Add(rotateQuarter(off, q))
		if pc.free(cell) {
			stamp.Add(cell)
		}
	}
	// Keep what connects back to the anchor so incremental growth never
	// produces a floating piece.
	var seeds []grid.Cell
	for i := 0; i < stamp.Len(); i++ {
		if c := stamp.At(i); grid.Adjacent8(c, pc.anchor) {
			seeds = append(seeds, c)
		}
	}
	reach := grid.Reach(stamp, seeds...)
	var cells []grid.Cell
	for i := 0; i < stamp.Len(); i++ {
		if c := stamp.At(i); reach[c.Key()] {
			cells = append(cells, c)
		}
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return grid.Chebyshev(cells[i], pc.anchor) < grid.Chebyshev(cells[j], pc.anchor)
	})
	if len(cells) > pc.spec.MaxLen {
		cells = cells[:pc.spec.MaxLen]
	}
	if len(cells) == 0 || len(cells) < pc.spec.MinLen {
		return nil, ReasonBlocked
	}
	if pc.tooClose(cells, pc.e.cfg.Placement.TooCloseRadius) {
		return nil, ReasonTooClose
	}
	m := pc.newModule(h, cells[0], len(cells))
	m.Style = StyleStraight
	m.Planned = cells
	return m, ReasonNone
}

// stepPlanned materializes the next planned cell that touches the module.
func stepPlanned(sc *stepCtx) (grid.Cell, bool) {
	m := sc.m
	for _, c := range m.Planned {
		if sc.open(c) && m.Cells.Touches(c) {
			return c, true
		}
	}
	return grid.Cell{}, false
}

func (patchShape) step(sc *stepCtx) (grid.Cell, bool) {
	return stepPlanned(sc)
}

// radialShape: eyes. A diamond or sphere mask sized by body size.
type radialShape struct{}

// eyeMask returns the mask offsets for radius r, center first.
func eyeMask(r int, shape string) []grid.Cell {
	var out []grid.Cell
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			in := false
			switch shape {
			case "sphere":
				in = dx*dx+dy*dy <= r*(r+1)
			default:
				in = absInt(dx)+absInt(dy) <= r
			}
			if in {
				out = append(out, grid.Cell{X: dx, Y: dy})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return grid.Chebyshev(out[i], grid.Cell{}) < grid.Chebyshev(out[j], grid.Cell{})
	})
	return out
}

func (radialShape) plan(pc *planCtx) (*Module, Reason) {
	o := pc.o
	radius := pc.spec.EyeRadius(o.BodySize())
	eyeShape := pc.spec.PickEyeShape(pc.r)
	mask := eyeMask(radius, eyeShape)
	reason := ReasonBlocked

	for _, di := range pc.r.Perm(len(grid.Dirs8)) {
		d := grid.Dirs8[di]
		center := pc.anchor.Add(grid.Cell{X: d.X * (radius + 1), Y: d.Y * (radius + 1)})
		cells := make([]grid.Cell, 0, len(mask))
		ok, touches := true, false
		for _, off := range mask {
			c := center.Add(off)
			if c == o.Body.Core || !pc.free(c) || o.Face.Excludes(c) {
				ok = false
				break
			}
			if o.Body.Cells.Touches(c) {
				touches = true
			}
			cells = append(cells, c)
		}
		if !ok || !touches {
			continue
		}
		if pc.tooClose(cells, pc.e.cfg.Placement.TooCloseRadius) {
			reason = ReasonTooClose
			continue
		}
		// Grow in from the body side.
		sort.SliceStable(cells, func(i, j int) bool {
			ti, tj := o.Body.Cells.Touches(cells[i]), o.Body.Cells.Touches(cells[j])
			if ti != tj {
				return ti
			}
			return grid.Chebyshev(cells[i], pc.anchor) < grid.Chebyshev(cells[j], pc.anchor)
		})
		if len(cells) > pc.spec.MaxLen {
			cells = cells[:pc.spec.MaxLen]
		}
		if len(cells) < pc.spec.MinLen {
			continue
		}
		h := grid.HeadingToward(pc.anchor, center, pc.spec.GrowthDir, grid.Heading{Arity: pc.spec.GrowthDir})
		m := pc.newModule(h, cells[0], len(cells))
		m.Style = StyleStraight
		m.Shape = eyeShape
		m.EyeRadius = radius
		m.Planned = cells
		return m, ReasonNone
	}
	return nil, reason
}

func (radialShape) step(sc *stepCtx) (grid.Cell, bool) {
	return stepPlanned(sc)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
