package morph

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/organs"
	"github.com/pthm-cable/sprout/rng"
)

// organismNamespace roots the deterministic organism ids.
var organismNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("sprout.organism"))

// Ecotypes are the body-plan families an organism can be born into.
var Ecotypes = []string{"reef", "pelagic", "burrow", "drift"}

// Plan is the per-organism body plan. It is drawn once from the seed and
// never changes.
type Plan struct {
	AxisDir  int     `json:"axisDir"`  // 8-way heading index of the main axis
	Symmetry float64 `json:"symmetry"` // 0..1, > mirror_symmetry enables twins
	Wiggle   float64 `json:"wiggle"`   // 0..1, curve/zigzag bias and wave amplitude
	Ecotype  string  `json:"ecotype"`
}

// NewPlan draws a plan from r.
func NewPlan(r *rand.Rand) Plan {
	return Plan{
		AxisDir:  r.Intn(8),
		Symmetry: r.Float64(),
		Wiggle:   r.Float64(),
		Ecotype:  Ecotypes[r.Intn(len(Ecotypes))],
	}
}

// Body is the connected core mass. Core is never removed.
type Body struct {
	Core  grid.Cell `json:"core"`
	Cells *grid.Set `json:"cells"`
}

// Face describes the painted face eye, which is not a module but excludes
// eye organs from its surroundings.
type Face struct {
	Anchor    grid.Cell `json:"anchor"`
	EyeShape  string    `json:"eyeShape"`
	EyeRadius int       `json:"eyeRadius"`
}

// Excludes reports whether c lies in the face-eye exclusion zone.
func (f Face) Excludes(c grid.Cell) bool {
	return grid.Chebyshev(c, f.Anchor) <= f.EyeRadius+1
}

// Growth styles.
const (
	StyleStraight = "straight"
	StyleZigzag   = "zigzag"
	StyleCurve    = "curve"
	StyleJointed  = "jointed"
)

// StyleState is the mutable per-style growth state.
type StyleState struct {
	ZigSign   int `json:"zigSign"`   // side of the first zigzag turn
	CurveSign int `json:"curveSign"` // rotation direction of curve turns
	Turns     int `json:"turns"`     // curve turns taken
}

// Segment is one phalanx of a jointed organ.
type Segment struct {
	Heading grid.Heading `json:"heading"`
	Len     int          `json:"len"`
}

// Module is an organ attached to the body.
type Module struct {
	Type         string       `json:"type"`
	Kind         organs.Kind  `json:"kind"`
	Movable      bool         `json:"movable"`
	Cells        *grid.Set    `json:"cells"`
	Anchor       grid.Cell    `json:"anchor"`
	GrowTo       int          `json:"growTo"`
	Heading      grid.Heading `json:"heading"`
	GrowPos      grid.Vec     `json:"growPos"`
	Width        int          `json:"width"`
	Shape        string       `json:"shape"`
	GrowthChance float64      `json:"growthChance"`
	Pigment      int          `json:"pigment"`
	Style        string       `json:"style"`
	State        StyleState   `json:"state"`
	Planned      []grid.Cell  `json:"planned,omitempty"`  // patch and radial geometry
	Segments     []Segment    `json:"segments,omitempty"` // jointed geometry
	EyeRadius    int          `json:"eyeRadius,omitempty"`

	// Anim records the mutation tick at which each cell appeared; renderers
	// use it for grow-in animation.
	Anim map[grid.Key]uint64 `json:"-"`
}

// Len returns the number of materialized cells.
func (m *Module) Len() int { return m.Cells.Len() }

// Head returns the most recently grown cell.
func (m *Module) Head() grid.Cell {
	c, _ := m.Cells.Last()
	return c
}

func (m *Module) appendCell(c grid.Cell, tick uint64) {
	m.Cells.Add(c)
	if m.Anim == nil {
		m.Anim = make(map[grid.Key]uint64)
	}
	m.Anim[c.Key()] = tick
}

// resyncHead moves the float growth position back onto the head cell.
func (m *Module) resyncHead() {
	if m.Cells.Len() > 0 {
		m.GrowPos = grid.VecOf(m.Head())
	}
}

func (m *Module) shift(d grid.Cell) {
	m.Cells = m.Cells.Translate(d)
	m.Anchor = m.Anchor.Add(d)
	m.GrowPos = m.GrowPos.Add(grid.VecOf(d))
	for i := range m.Planned {
		m.Planned[i] = m.Planned[i].Add(d)
	}
	if len(m.Anim) > 0 {
		anim := make(map[grid.Key]uint64, len(m.Anim))
		for k, t := range m.Anim {
			anim[k.Cell().Add(d).Key()] = t
		}
		m.Anim = anim
	}
}

// Organism is one creature: plan, body, modules and face.
type Organism struct {
	ID            uuid.UUID  `json:"id"`
	Seed          uint32     `json:"seed"`
	Plan          Plan       `json:"plan"`
	Body          Body       `json:"body"`
	Modules       []*Module  `json:"modules"`
	Face          Face       `json:"face"`
	Palette       []string   `json:"palette"`
	Wave          *WaveField `json:"wave,omitempty"`
	MutationTicks uint64     `json:"mutationTicks"`
	GrowCursor    int        `json:"growCursor"`
}

// Options configures NewOrganism.
type Options struct {
	TargetBodySize int       // 0 = body.initial_size
	Plan           *Plan     // nil = drawn from the seed
	Palette        []string  // nil = drawn from the seed
	ID             uuid.UUID // zero = derived from the seed
}

// NewID derives a deterministic organism id from a seed and lineage labels.
func NewID(seed uint32, lineage ...string) uuid.UUID {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], seed)
	name := append([]byte{}, buf[:]...)
	for _, l := range lineage {
		name = append(name, '/')
		name = append(name, l...)
	}
	return uuid.NewSHA1(organismNamespace, name)
}

// NewOrganism creates an organism from seed and grows its initial body.
func (e *Engine) NewOrganism(seed uint32, opts Options) *Organism {
	traits := rng.Stream(seed, 0, "plan")
	plan := NewPlan(traits)
	if opts.Plan != nil {
		plan = *opts.Plan
	}
	palette := NewPalette(traits)
	if opts.Palette != nil {
		palette = append([]string(nil), opts.Palette...)
	}
	id := opts.ID
	if id == uuid.Nil {
		id = NewID(seed)
	}

	core := grid.Cell{}
	o := &Organism{
		ID:      id,
		Seed:    seed,
		Plan:    plan,
		Body:    Body{Core: core, Cells: grid.NewSet(core)},
		Palette: palette,
		Face:    Face{Anchor: core, EyeShape: faceShapes[traits.Intn(len(faceShapes))]},
	}

	size := opts.TargetBodySize
	if size <= 0 {
		size = e.cfg.Body.InitialSize
	}
	if size > 1 {
		e.GrowBody(o, size-1, rng.Stream(seed, 0, "body"))
	}
	e.placeFace(o)
	return o
}

var faceShapes = []string{"dot", "slit", "ring"}

// placeFace puts the face eye on the plan axis, inside the body.
func (e *Engine) placeFace(o *Organism) {
	h := grid.Heading{Index: o.Plan.AxisDir, Arity: 8}
	pos := grid.VecOf(o.Body.Core)
	path := []grid.Cell{o.Body.Core}
	for {
		pos = pos.Add(h.Step())
		c := pos.Cell()
		if !o.Body.Cells.Has(c) {
			break
		}
		path = append(path, c)
	}
	// Halfway out along the axis reads as a face rather than a rim mark.
	o.Face.Anchor = path[len(path)/2]
	o.Face.EyeRadius = e.faceEyeRadius(o.Body.Cells.Len())
}

// faceEyeRadius sizes the face eye with the same body-size thresholds as
// the configured eye organ, capped at face_eye_radius_max.
func (e *Engine) faceEyeRadius(bodySize int) int {
	spec, ok := e.reg.Lookup(e.cfg.Placement.FaceEyeOrgan)
	if !ok || spec.Kind != organs.KindRadial {
		return 0
	}
	return max(0, min(spec.EyeRadius(bodySize), e.cfg.Placement.FaceEyeRadiusMax))
}

// BodySize returns the number of body cells.
func (o *Organism) BodySize() int { return o.Body.Cells.Len() }

// WaveField returns the organism's wave field, creating it on first use.
func (o *Organism) WaveField(e *Engine) *WaveField {
	if o.Wave == nil {
		o.Wave = NewWaveField(o.Seed, o.Plan.Wiggle, e.cfg.Body)
	}
	return o.Wave
}

// ModuleCells returns the union of all module cells.
func (o *Organism) ModuleCells() *grid.Set {
	s := grid.NewSet()
	for _, m := range o.Modules {
		for i := 0; i < m.Cells.Len(); i++ {
			s.Add(m.Cells.At(i))
		}
	}
	return s
}

// ModuleCount returns how many modules of type typ the organism has.
func (o *Organism) ModuleCount(typ string) int {
	n := 0
	for _, m := range o.Modules {
		if m.Type == typ {
			n++
		}
	}
	return n
}

// free reports whether c is neither body nor in occ.
func (o *Organism) free(c grid.Cell, occ *grid.Set) bool {
	return !o.Body.Cells.Has(c) && !occ.Has(c)
}

func (o *Organism) hasFreeNeighbor(c grid.Cell, occ *grid.Set) bool {
	for _, d := range grid.Dirs8 {
		if o.free(c.Add(d), occ) {
			return true
		}
	}
	return false
}

// NewPalette draws four related colors.
func NewPalette(r *rand.Rand) []string {
	hue := r.Float64() * 360
	sat := 0.45 + 0.4*r.Float64()
	out := make([]string, 4)
	for i := range out {
		h := math.Mod(hue+float64(i)*(25+20*r.Float64()), 360)
		l := 0.35 + 0.12*float64(i)
		out[i] = hslHex(h, sat, l)
	}
	return out
}

func hslHex(h, s, l float64) string {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	to := func(v float64) int { return int(math.Round((v + m) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", to(r), to(g), to(b))
}
