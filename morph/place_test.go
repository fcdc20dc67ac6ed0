package morph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/rng"
)

const straightAntenna = `
organs:
  antenna:
    kind: linear
    min_len: 2
    max_extra: 25
    max_len: 27
    growth_chance: 0.7
    width: 1
    spawn_weight: 0.7
    growth_dir: 16
    styles: [straight]
`

func TestAntennaGrowsToPlannedLength(t *testing.T) {
	eng, _ := newTestEngineWith(t, straightAntenna)
	for seed := uint32(1); seed <= 8; seed++ {
		o := eng.NewOrganism(seed, Options{TargetBodySize: 40})
		require.Equal(t, 40, o.BodySize())

		r := rng.New(seed)
		p := eng.AddModule(o, "antenna", r, nil)
		require.True(t, p.OK, "seed %d: %s", seed, p.Reason)
		m := p.Module
		require.Equal(t, 1, m.Len())
		require.GreaterOrEqual(t, m.GrowTo, 2)
		require.LessOrEqual(t, m.GrowTo, 27)

		for i := 0; i < 200; i++ {
			eng.GrowPlannedModules(o, r, GrowOptions{})
			require.LessOrEqual(t, m.Len(), m.GrowTo)
		}
		require.Equal(t, m.GrowTo, m.Len(), "seed %d", seed)
		assert.GreaterOrEqual(t, m.Len(), 2)
		assert.LessOrEqual(t, m.Len(), 27)

		done := m.Len()
		for i := 0; i < 20; i++ {
			eng.GrowPlannedModules(o, r, GrowOptions{})
		}
		assert.Equal(t, done, m.Len(), "seed %d: grew past its target", seed)
		require.NoError(t, eng.Validate(o))
	}
}

func TestSmallBodyEyeIsSingleCell(t *testing.T) {
	eng, _ := newTestEngine(t)
	placed := 0
	for seed := uint32(1); seed <= 20; seed++ {
		o := eng.NewOrganism(seed, Options{TargetBodySize: 20})
		p := eng.AddModule(o, "eye", rng.New(seed), nil)
		if !p.OK {
			continue
		}
		placed++
		assert.Equal(t, 0, p.Module.EyeRadius)
		assert.Equal(t, 1, p.Module.GrowTo)
		assert.Len(t, p.Module.Planned, 1)
		assert.False(t, o.Face.Excludes(p.Module.Head()))
	}
	require.Positive(t, placed)
}

func TestPlacementReasons(t *testing.T) {
	eng, rec := newTestEngine(t)

	o := eng.NewOrganism(3, Options{TargetBodySize: 10})
	p := eng.AddModule(o, "horn", rng.New(1), nil)
	assert.False(t, p.OK)
	assert.Equal(t, ReasonUnknownType, p.Reason)

	p = eng.AddModule(o, "limb", rng.New(1), nil)
	assert.False(t, p.OK)
	assert.Equal(t, ReasonMinBody, p.Reason)
	assert.Empty(t, o.Modules)

	// A one-cell body offers a single anchor, so a second spike must sit
	// next to the first.
	tiny := eng.NewOrganism(3, Options{TargetBodySize: 1})
	first := eng.AddModuleWith(tiny, "spike", rng.New(2), PlaceOptions{NoMirror: true})
	require.True(t, first.OK)
	second := eng.AddModuleWith(tiny, "spike", rng.New(3), PlaceOptions{NoMirror: true})
	assert.False(t, second.OK)
	assert.Equal(t, ReasonTooClose, second.Reason)
	assert.Len(t, tiny.Modules, 1)

	assert.Equal(t, 3, rec.count(EventPlacementFailed))
	assert.Equal(t, 1, rec.count(EventModulePlaced))
}

func TestPlacementNeverOverlapsBody(t *testing.T) {
	eng, _ := newTestEngine(t)
	types := eng.Registry().Names()
	for seed := uint32(1); seed <= 12; seed++ {
		o := eng.NewOrganism(seed, Options{TargetBodySize: 60})
		r := rng.New(seed)
		for i := 0; i < 10; i++ {
			eng.AddModule(o, types[r.Intn(len(types))], r, nil)
			eng.GrowPlannedModules(o, r, GrowOptions{})
			for _, m := range o.Modules {
				for _, c := range m.Cells.Cells() {
					require.False(t, o.Body.Cells.Has(c), "seed %d: %s cell %v on body", seed, m.Type, c)
				}
				require.LessOrEqual(t, m.Len(), m.GrowTo)
				require.LessOrEqual(t, m.Len(), eng.Registry().MaxLen(m.Type))
			}
		}
		require.NoError(t, eng.Validate(o))
	}
}

func TestTargetedPlacementFavorsTarget(t *testing.T) {
	eng, _ := newTestEngine(t)
	o := eng.NewOrganism(8, Options{TargetBodySize: 40})
	target := grid.Cell{X: 30, Y: 0}
	p := eng.AddModuleWith(o, "spike", rng.New(4), PlaceOptions{Target: &target, NoMirror: true})
	require.True(t, p.OK)

	// The chosen anchor is among the closest perimeter cells.
	farthest := 0
	for _, c := range o.Body.Cells.Cells() {
		if d := grid.Manhattan(c, target); d > farthest {
			farthest = d
		}
	}
	assert.Less(t, grid.Manhattan(p.Module.Anchor, target), farthest)
	assert.GreaterOrEqual(t, p.Module.Heading.Unit().X, 0.0)
}

func TestMirrorTwin(t *testing.T) {
	eng, rec := newTestEngine(t)
	plan := Plan{AxisDir: 0, Symmetry: 1, Wiggle: 0.5, Ecotype: "reef"}
	twins := 0
	for seed := uint32(1); seed <= 60; seed++ {
		o := eng.NewOrganism(seed, Options{TargetBodySize: 40, Plan: &plan})
		p := eng.AddModule(o, "antenna", rng.New(seed), nil)
		if !p.OK || p.Twin == nil {
			continue
		}
		twins++
		m, tw := p.Module, p.Twin
		core := o.Body.Core
		assert.Equal(t, 2*core.X-m.Anchor.X, tw.Anchor.X)
		assert.Equal(t, m.Anchor.Y, tw.Anchor.Y)
		assert.Equal(t, m.Heading.MirrorX(), tw.Heading)
		assert.Equal(t, -m.State.ZigSign, tw.State.ZigSign)
		assert.Equal(t, -m.State.CurveSign, tw.State.CurveSign)
		assert.Equal(t, 1, tw.Len())
		assert.Len(t, o.Modules, 2)
		assert.NoError(t, eng.Validate(o))
	}
	assert.Positive(t, twins)
	assert.Equal(t, twins, rec.count(EventMirrorPlaced))
}

func TestNoMirrorOption(t *testing.T) {
	eng, _ := newTestEngine(t)
	plan := Plan{Symmetry: 1}
	for seed := uint32(1); seed <= 20; seed++ {
		o := eng.NewOrganism(seed, Options{TargetBodySize: 40, Plan: &plan})
		p := eng.AddModuleWith(o, "antenna", rng.New(seed), PlaceOptions{NoMirror: true})
		assert.Nil(t, p.Twin)
		assert.LessOrEqual(t, len(o.Modules), 1)
	}
}

func TestJointedAndPatchPlans(t *testing.T) {
	eng, _ := newTestEngine(t)
	limbs, fins := 0, 0
	for seed := uint32(1); seed <= 10; seed++ {
		o := eng.NewOrganism(seed, Options{TargetBodySize: 50})
		r := rng.New(seed)
		if p := eng.AddModule(o, "limb", r, nil); p.OK {
			limbs++
			assert.Equal(t, StyleJointed, p.Module.Style)
			assert.NotEmpty(t, p.Module.Segments)
			assert.LessOrEqual(t, p.Module.GrowTo, 12)
		}
		if p := eng.AddModule(o, "fin", r, nil); p.OK {
			fins++
			assert.Len(t, p.Module.Planned, p.Module.GrowTo)
			assert.Equal(t, p.Module.Planned[0], p.Module.Head())
		}
		for i := 0; i < 60; i++ {
			eng.GrowPlannedModules(o, r, GrowOptions{})
		}
		require.NoError(t, eng.Validate(o))
	}
	assert.Positive(t, limbs)
	assert.Positive(t, fins)
}
