package morph

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/organs"
	"github.com/pthm-cable/sprout/rng"
)

// starburst builds a one-cell body with a one-cell spike in each of the
// eight directions, module i pointing along grid.Dirs8[i].
func starburst() *Organism {
	o := handBuilt(grid.Cell{})
	for i, d := range grid.Dirs8 {
		m := spikeAt(d)
		m.Anchor = grid.Cell{}
		m.Heading = grid.Heading{Index: i, Arity: 8}
		o.Modules = append(o.Modules, m)
	}
	return o
}

func TestGrowPlannedModulesBudgetAndCursor(t *testing.T) {
	eng, rec := newTestEngine(t)
	o := starburst()
	r := rng.New(1)

	grown := map[*Module]bool{}
	n := eng.GrowPlannedModules(o, r, GrowOptions{MaxGrows: 3, GrownModules: grown})
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, o.GrowCursor)
	for i := 0; i < 3; i++ {
		assert.True(t, grown[o.Modules[i]], "module %d", i)
		assert.Equal(t, 2, o.Modules[i].Len())
		assert.Equal(t, grid.Dirs8[i].Add(grid.Dirs8[i]), o.Modules[i].Head())
	}

	grown = map[*Module]bool{}
	n = eng.GrowPlannedModules(o, r, GrowOptions{MaxGrows: 3, GrownModules: grown})
	assert.Equal(t, 3, n)
	assert.Equal(t, 6, o.GrowCursor)
	assert.True(t, grown[o.Modules[3]])
	assert.True(t, grown[o.Modules[5]])
	assert.False(t, grown[o.Modules[0]])

	// Under budget: everyone gets a turn and the cursor stays put.
	n = eng.GrowPlannedModules(o, r, GrowOptions{MaxGrows: 100})
	assert.Equal(t, 8, n)
	assert.Equal(t, 6, o.GrowCursor)
	assert.Equal(t, 3, rec.count(EventModulesGrown))
}

func TestGrowPlannedModulesStopsAtGrowTo(t *testing.T) {
	eng, _ := newTestEngine(t)
	o := starburst()
	r := rng.New(2)
	for i := 0; i < 20; i++ {
		eng.GrowPlannedModules(o, r, GrowOptions{MaxGrows: 100})
	}
	for _, m := range o.Modules {
		assert.Equal(t, m.GrowTo, m.Len())
	}
	assert.Zero(t, eng.GrowPlannedModules(o, r, GrowOptions{MaxGrows: 100}))
	require.NoError(t, eng.Validate(o))
}

func TestGrowPlannedModulesRespectsTypeCap(t *testing.T) {
	eng, _ := newTestEngine(t)
	o := starburst()
	for _, m := range o.Modules {
		m.GrowTo = 50
	}
	r := rng.New(3)
	for i := 0; i < 40; i++ {
		eng.GrowPlannedModules(o, r, GrowOptions{MaxGrows: 100})
	}
	for _, m := range o.Modules {
		assert.Equal(t, eng.Registry().MaxLen("spike"), m.Len())
	}
}

func TestGrowthOrderFollowsTargets(t *testing.T) {
	eng, _ := newTestEngine(t)
	o := starburst()
	o.GrowCursor = 4
	grown := map[*Module]bool{}
	targets := []Bias{{Point: grid.Cell{X: 3}, Weight: 1}}
	n := eng.GrowPlannedModules(o, rng.New(4), GrowOptions{Targets: targets, MaxGrows: 1, GrownModules: grown})
	require.Equal(t, 1, n)
	assert.True(t, grown[o.Modules[0]])
	assert.Equal(t, 1, o.GrowCursor)
}

func TestGrowPlannedModulesBlockedModuleWaits(t *testing.T) {
	eng, _ := newTestEngine(t)
	o := handBuilt(grid.Cell{}, grid.Cell{X: 2})
	m := spikeAt(grid.Cell{X: 1})
	o.Modules = []*Module{m}
	assert.Zero(t, eng.GrowPlannedModules(o, rng.New(5), GrowOptions{}))
	assert.Equal(t, 1, m.Len())

	o.Body.Cells.Remove(grid.Cell{X: 2})
	assert.Equal(t, 1, eng.GrowPlannedModules(o, rng.New(5), GrowOptions{}))
	assert.Equal(t, grid.Cell{X: 2}, m.Head())
}

func TestGrowPlannedModulesShuffle(t *testing.T) {
	eng, _ := newTestEngine(t)
	a, b := starburst(), starburst()
	eng.GrowPlannedModules(a, rng.New(6), GrowOptions{MaxGrows: 2, Shuffle: true})
	eng.GrowPlannedModules(b, rng.New(6), GrowOptions{MaxGrows: 2, Shuffle: true})
	total := 0
	for i := range a.Modules {
		assert.Equal(t, a.Modules[i].Len(), b.Modules[i].Len())
		total += a.Modules[i].Len() - 1
	}
	assert.Equal(t, 2, total)
}

// stepModule runs n growth steps of m's shape, appending every cell the
// shape accepts. Stalled steps are skipped, not retried.
func stepModule(eng *Engine, o *Organism, m *Module, r *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		cell, ok := shapeFor(m.Kind).step(&stepCtx{e: eng, o: o, m: m, r: r})
		if ok {
			m.appendCell(cell, uint64(i))
		}
	}
}

func TestZigzagStepSequence(t *testing.T) {
	eng, _ := newTestEngine(t)
	require.Equal(t, 3, eng.Config().Growth.ZigzagPeriod)

	// Runs of three: out, to the first side, out, to the other side, out.
	up := []grid.Cell{
		{X: 1}, {X: 2}, {X: 3},
		{X: 3, Y: 1}, {X: 3, Y: 2}, {X: 3, Y: 3},
		{X: 4, Y: 3}, {X: 5, Y: 3}, {X: 6, Y: 3},
		{X: 6, Y: 2}, {X: 6, Y: 1}, {X: 6},
		{X: 7},
	}
	down := make([]grid.Cell, len(up))
	for i, c := range up {
		down[i] = grid.Cell{X: c.X, Y: -c.Y}
	}

	tests := []struct {
		name string
		sign int
		want []grid.Cell
	}{
		{"first turn positive", 1, up},
		{"first turn negative", -1, down},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := handBuilt(grid.Cell{})
			m := spikeAt(grid.Cell{X: 1})
			m.Style = StyleZigzag
			m.State.ZigSign = tt.sign
			m.GrowTo = 20
			o.Modules = []*Module{m}

			stepModule(eng, o, m, rng.New(1), len(tt.want)-1)
			if diff := cmp.Diff(tt.want, m.Cells.Cells()); diff != "" {
				t.Errorf("zigzag cells (-want +got):\n%s", diff)
			}
			assert.Equal(t, grid.Heading{Index: 0, Arity: 8}, m.Heading)
		})
	}
}

func TestCurveNeverTurnsWithoutWiggle(t *testing.T) {
	eng, _ := newTestEngine(t)
	o := handBuilt(grid.Cell{})
	o.Plan.Wiggle = 0
	m := spikeAt(grid.Cell{X: 1})
	m.Style = StyleCurve
	m.State.CurveSign = 1
	m.GrowTo = 40
	o.Modules = []*Module{m}

	stepModule(eng, o, m, rng.New(3), 30)
	assert.Zero(t, m.State.Turns)
	assert.Equal(t, 31, m.Len())
	assert.Equal(t, grid.Cell{X: 31}, m.Head())
}

func TestCurveTurnsFollowCurveSign(t *testing.T) {
	eng, _ := newTestEngineWith(t, "growth:\n  curve_chance: 1\n")
	o := handBuilt(grid.Cell{})
	o.Plan.Wiggle = 1
	m := spikeAt(grid.Cell{X: 1})
	m.Style = StyleCurve
	m.State.CurveSign = 1
	o.Modules = []*Module{m}

	stepModule(eng, o, m, rng.New(3), 1)
	assert.Equal(t, 1, m.State.Turns)
	assert.Equal(t, grid.Heading{Index: 1, Arity: 8}, m.Heading)
	assert.Equal(t, grid.Cell{X: 2, Y: 1}, m.Head())
}

func TestCurveTurnRateScalesWithWiggle(t *testing.T) {
	eng, _ := newTestEngine(t)
	turns := func(wiggle float64) int {
		total := 0
		for seed := uint32(1); seed <= 20; seed++ {
			o := handBuilt(grid.Cell{})
			o.Plan.Wiggle = wiggle
			m := spikeAt(grid.Cell{X: 1})
			m.Style = StyleCurve
			m.State.CurveSign = 1
			m.GrowTo = 100
			o.Modules = []*Module{m}

			stepModule(eng, o, m, rng.New(seed), 30)
			cells := m.Cells.Cells()
			for i := 1; i < len(cells); i++ {
				require.True(t, grid.Adjacent8(cells[i-1], cells[i]), "seed %d: gap at %d", seed, i)
			}
			total += m.State.Turns
		}
		return total
	}
	low, high := turns(0.25), turns(1)
	assert.Positive(t, low)
	assert.Greater(t, high, low)
}

// limbAt builds a jointed limb on 16-way headings whose remaining segments
// follow segs.
func limbAt(segs []Segment, cells ...grid.Cell) *Module {
	total := 0
	for _, s := range segs {
		total += s.Len
	}
	return &Module{
		Type:         "limb",
		Kind:         organs.KindJointed,
		Cells:        grid.NewSet(cells...),
		GrowTo:       total,
		Heading:      segs[0].Heading,
		GrowPos:      grid.VecOf(cells[len(cells)-1]),
		GrowthChance: 1,
		Style:        StyleJointed,
		Segments:     segs,
	}
}

func TestJointedRedirectWidensAndCarriesLaterSegments(t *testing.T) {
	eng, _ := newTestEngine(t)
	// (3,0) blocks the straight step; the one-sector turns round back onto it.
	o := handBuilt(grid.Cell{}, grid.Cell{X: 1, Y: -1}, grid.Cell{X: 2, Y: -1}, grid.Cell{X: 3})
	m := limbAt([]Segment{
		{Heading: grid.Heading{Index: 0, Arity: 16}, Len: 2},
		{Heading: grid.Heading{Index: 0, Arity: 16}, Len: 2},
		{Heading: grid.Heading{Index: 1, Arity: 16}, Len: 3},
	}, grid.Cell{X: 1}, grid.Cell{X: 2})
	o.Modules = []*Module{m}

	r := rng.New(8)
	for i := 0; i < 100; i++ {
		eng.GrowPlannedModules(o, r, GrowOptions{})
	}

	want := []grid.Cell{
		{X: 1}, {X: 2},
		{X: 3, Y: 1}, {X: 4, Y: 2},
		{X: 4, Y: 3}, {X: 5, Y: 4}, {X: 5, Y: 5},
	}
	if diff := cmp.Diff(want, m.Cells.Cells()); diff != "" {
		t.Errorf("limb cells (-want +got):\n%s", diff)
	}
	headings := make([]int, len(m.Segments))
	for i, s := range m.Segments {
		headings[i] = s.Heading.Index
	}
	assert.Equal(t, []int{0, 2, 3}, headings)
	require.NoError(t, eng.Validate(o))
}

func TestJointedStallsWhenBoxedIn(t *testing.T) {
	eng, _ := newTestEngine(t)
	o := handBuilt(grid.Cell{},
		grid.Cell{X: 3, Y: -1}, grid.Cell{X: 3}, grid.Cell{X: 3, Y: 1},
		grid.Cell{X: 2, Y: 1}, grid.Cell{X: 2, Y: -1},
		grid.Cell{X: 1, Y: -1})
	m := limbAt([]Segment{{Heading: grid.Heading{Index: 0, Arity: 16}, Len: 5}}, grid.Cell{X: 1}, grid.Cell{X: 2})
	o.Modules = []*Module{m}

	stepModule(eng, o, m, rng.New(1), 10)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 0, m.Segments[0].Heading.Index)
}
