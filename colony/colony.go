// Package colony is the external tick scheduler: it holds a root organism,
// its buds and symbiosis offspring as entities in an ECS world and drives
// each of them through body growth, organ spawning, organ growth and repair
// once per tick.
package colony

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/sprout/components"
	"github.com/pthm-cable/sprout/config"
	"github.com/pthm-cable/sprout/genome"
	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/morph"
	"github.com/pthm-cable/sprout/rng"
	"github.com/pthm-cable/sprout/telemetry"
)

var (
	// ErrGone is returned for entities that are no longer in the colony.
	ErrGone = errors.New("colony: entity not alive")
	// ErrTooFewModules is returned by Bud when the parent has nothing to spare.
	ErrTooFewModules = errors.New("colony: not enough modules to bud")
)

// RNG stream salts, one per tick phase.
const (
	saltBody   = "body"
	saltSpawn  = "spawn"
	saltOrgans = "organs"
	saltBud    = "bud"
)

// Colony owns the ECS world and the engine used to mutate its organisms.
type Colony struct {
	world *ecs.World
	eng   *morph.Engine
	cfg   *config.Config
	perf  *telemetry.PerfCollector

	mapper  *ecs.Map3[components.Specimen, components.Clock, components.Lineage]
	filter  *ecs.Filter3[components.Specimen, components.Clock, components.Lineage]
	specMap *ecs.Map1[components.Specimen]

	tick uint64
}

// New creates an empty colony. Engine events go to sink; perf may be nil.
func New(eng *morph.Engine, sink morph.Sink, perf *telemetry.PerfCollector) *Colony {
	world := ecs.NewWorld()
	return &Colony{
		world:   world,
		eng:     eng.WithSink(sink),
		cfg:     eng.Config(),
		perf:    perf,
		mapper:  ecs.NewMap3[components.Specimen, components.Clock, components.Lineage](world),
		filter:  ecs.NewFilter3[components.Specimen, components.Clock, components.Lineage](world),
		specMap: ecs.NewMap1[components.Specimen](world),
	}
}

// Engine returns the engine the colony mutates organisms with.
func (c *Colony) Engine() *morph.Engine { return c.eng }

// Tick returns the number of completed colony ticks.
func (c *Colony) Tick() uint64 { return c.tick }

// Seed grows a fresh root organism and adds it.
func (c *Colony) Seed(seed uint32, opts morph.Options) ecs.Entity {
	o := c.eng.NewOrganism(seed, opts)
	return c.Add(o, components.Lineage{Origin: components.OriginRoot})
}

// Add puts an existing organism into the colony.
func (c *Colony) Add(o *morph.Organism, lin components.Lineage) ecs.Entity {
	spec := components.Specimen{Org: o}
	clock := components.Clock{Born: c.tick}
	return c.mapper.NewEntity(&spec, &clock, &lin)
}

// Organism returns the organism of e, or nil if e is gone.
func (c *Colony) Organism(e ecs.Entity) *morph.Organism {
	if !c.world.Alive(e) {
		return nil
	}
	return c.specMap.Get(e).Org
}

// Lineage returns the lineage of e.
func (c *Colony) Lineage(e ecs.Entity) (components.Lineage, bool) {
	if !c.world.Alive(e) {
		return components.Lineage{}, false
	}
	_, _, lin := c.mapper.Get(e)
	return *lin, true
}

// Entities returns all entities in iteration order.
func (c *Colony) Entities() []ecs.Entity {
	var out []ecs.Entity
	query := c.filter.Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	return out
}

// Organisms returns all organisms in iteration order.
func (c *Colony) Organisms() []*morph.Organism {
	var out []*morph.Organism
	query := c.filter.Query()
	for query.Next() {
		spec, _, _ := query.Get()
		out = append(out, spec.Org)
	}
	return out
}

// Len returns the number of organisms.
func (c *Colony) Len() int {
	n := 0
	query := c.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Step runs one tick for every organism: body growth toward the biases,
// a rare organ spawn, planned organ growth, a wave field advance and a
// repair pass. Each organism draws from its own streams keyed by
// (seed, mutation tick, phase), so the outcome does not depend on how many
// other organisms share the colony.
func (c *Colony) Step(biases ...morph.Bias) {
	c.perf.StartTick()
	query := c.filter.Query()
	for query.Next() {
		spec, clock, _ := query.Get()
		c.stepOrganism(spec.Org, biases)
		clock.Age++
	}
	c.tick++
	c.perf.EndTick()
}

func (c *Colony) stepOrganism(o *morph.Organism, biases []morph.Bias) {
	cfg := c.cfg.Colony
	o.MutationTicks++
	t := o.MutationTicks

	c.perf.StartPhase(telemetry.PhaseBody)
	if cfg.MaxBody <= 0 || o.BodySize() < cfg.MaxBody {
		c.eng.GrowBody(o, cfg.BodyCellsPerTick, rng.Stream(o.Seed, t, saltBody), biases...)
	}

	c.perf.StartPhase(telemetry.PhaseSpawn)
	sr := rng.Stream(o.Seed, t, saltSpawn)
	if sr.Float64() < cfg.SpawnChance {
		if typ := c.eng.Registry().PickWeighted(sr, o.BodySize()); typ != "" {
			var target *grid.Cell
			if len(biases) > 0 {
				target = &biases[0].Point
			}
			c.eng.AddModule(o, typ, sr, target)
		}
	}

	c.perf.StartPhase(telemetry.PhaseOrgans)
	c.eng.GrowPlannedModules(o, rng.Stream(o.Seed, t, saltOrgans), morph.GrowOptions{Targets: biases})
	o.WaveField(c.eng).Advance(cfg.WaveStep)

	c.perf.StartPhase(telemetry.PhaseRepair)
	c.eng.RepairDetachedModules(o)
}

// Bud detaches the longest module of e and grows a new organism from a
// one-gene genome holding it. The parent is repaired afterwards.
func (c *Colony) Bud(e ecs.Entity) (ecs.Entity, error) {
	parent := c.Organism(e)
	if parent == nil {
		return ecs.Entity{}, ErrGone
	}
	need := c.cfg.Colony.BudMinModules
	if need < 1 {
		need = 1
	}
	if len(parent.Modules) < need {
		return ecs.Entity{}, fmt.Errorf("%w: have %d, need %d", ErrTooFewModules, len(parent.Modules), need)
	}
	_, _, plin := c.mapper.Get(e)
	lin := *plin

	longest := 0
	for i, m := range parent.Modules {
		if m.Len() > parent.Modules[longest].Len() {
			longest = i
		}
	}
	m := c.eng.DetachModule(parent, longest)
	c.eng.RepairDetachedModules(parent)

	g := genome.Genome{
		Version: genome.Version,
		Seed:    rng.Derive(parent.Seed, parent.MutationTicks, saltBud+":"+strconv.Itoa(len(parent.Modules))),
		Plan:    parent.Plan,
		Palette: parent.Palette,
		Modules: []genome.Gene{{Type: m.Type, Len: m.Len()}},
	}
	res, err := genome.Instantiate(c.eng, g, parent.ID.String(), "bud", strconv.FormatUint(parent.MutationTicks, 10))
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("growing bud: %w", err)
	}
	return c.Add(res.Organism, components.Lineage{
		Origin:     components.OriginBud,
		Parent:     parent.ID,
		Generation: lin.Generation + 1,
	}), nil
}

// Symbiosis merges the genomes of a and b and adds the two offspring. The
// parents are left untouched.
func (c *Colony) Symbiosis(a, b ecs.Entity) (ecs.Entity, ecs.Entity, error) {
	oa, ob := c.Organism(a), c.Organism(b)
	if oa == nil || ob == nil {
		return ecs.Entity{}, ecs.Entity{}, ErrGone
	}
	la, _ := c.Lineage(a)
	lb, _ := c.Lineage(b)
	gen := max(la.Generation, lb.Generation) + 1

	x, y := genome.Merge(genome.Extract(oa), genome.Extract(ob))
	var out [2]ecs.Entity
	for i, g := range []genome.Genome{x, y} {
		res, err := genome.Instantiate(c.eng, g, oa.ID.String(), ob.ID.String(), strconv.Itoa(i))
		if err != nil {
			return ecs.Entity{}, ecs.Entity{}, fmt.Errorf("growing offspring %d: %w", i, err)
		}
		out[i] = c.Add(res.Organism, components.Lineage{
			Origin:     components.OriginSymbiosis,
			Parent:     oa.ID,
			Mate:       ob.ID,
			Generation: gen,
		})
	}
	return out[0], out[1], nil
}

// Decay shrinks the body of e by up to n cells and repairs the modules it
// left behind. It returns the number of removed body cells.
func (c *Colony) Decay(e ecs.Entity, n int) (int, error) {
	o := c.Organism(e)
	if o == nil {
		return 0, ErrGone
	}
	removed := c.eng.ShrinkBody(o, n)
	if removed > 0 {
		c.eng.RepairDetachedModules(o)
	}
	return removed, nil
}

// Remove takes e out of the colony.
func (c *Colony) Remove(e ecs.Entity) {
	if c.world.Alive(e) {
		c.world.RemoveEntity(e)
	}
}

// Cull removes every organism for which drop returns true and returns how
// many were removed.
func (c *Colony) Cull(drop func(*morph.Organism) bool) int {
	c.perf.StartPhase(telemetry.PhaseCleanup)

	// First pass: collect (the query must finish before the world changes)
	var toRemove []ecs.Entity
	query := c.filter.Query()
	for query.Next() {
		spec, _, _ := query.Get()
		if drop(spec.Org) {
			toRemove = append(toRemove, query.Entity())
		}
	}

	// Second pass: remove
	for _, e := range toRemove {
		c.world.RemoveEntity(e)
	}
	return len(toRemove)
}
