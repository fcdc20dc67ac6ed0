package genome

import (
	"fmt"

	"github.com/pthm-cable/sprout/morph"
	"github.com/pthm-cable/sprout/rng"
)

// Result reports how faithfully a genome was regrown.
type Result struct {
	Organism *morph.Organism
	Placed   int // genes that became modules
	Skipped  int // genes whose placement failed
	Drained  int // growth iterations spent
}

// BodySize returns the body size used to regrow a genome with n genes.
func BodySize(eng *morph.Engine, n int) int {
	cfg := eng.Config().Genome
	size := cfg.BodyBase + cfg.BodyPerModule*n
	if cfg.MaxBody > 0 && size > cfg.MaxBody {
		size = cfg.MaxBody
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Instantiate regrows an organism from g. The body is sized from the gene
// count, every gene is replayed through placement with its growth target
// forced to the inherited length, and growth is drained synchronously for
// a bounded number of iterations. Genes that cannot be placed are skipped.
// The organism id is derived from the seed and lineage.
func Instantiate(eng *morph.Engine, g Genome, lineage ...string) (Result, error) {
	if g.Version != Version {
		return Result{}, fmt.Errorf("%w: %d", ErrVersion, g.Version)
	}
	g = Canonical(g)
	o := eng.NewOrganism(g.Seed, morph.Options{
		TargetBodySize: BodySize(eng, len(g.Modules)),
		Plan:           &g.Plan,
		Palette:        g.Palette,
		ID:             morph.NewID(g.Seed, lineage...),
	})

	res := Result{Organism: o}
	reg := eng.Registry()
	r := rng.Stream(g.Seed, 0, "instantiate")
	for _, gene := range g.Modules {
		p := eng.AddModuleWith(o, gene.Type, r, morph.PlaceOptions{NoMirror: true})
		if !p.OK {
			res.Skipped++
			continue
		}
		res.Placed++
		growTo := gene.Len
		if limit := reg.MaxLen(gene.Type); growTo > limit {
			growTo = limit
		}
		p.Module.GrowTo = growTo
	}

	limit := eng.Config().Genome.DrainIterations
	for res.Drained < limit && pending(eng, o) {
		eng.GrowPlannedModules(o, r, morph.GrowOptions{MaxGrows: len(o.Modules)})
		res.Drained++
	}

	eng.RepairDetachedModules(o)
	eng.NormalizeEyes(o)
	return res, nil
}

// pending reports whether any module is still short of its target.
func pending(eng *morph.Engine, o *morph.Organism) bool {
	reg := eng.Registry()
	for _, m := range o.Modules {
		if m.Len() < m.GrowTo && m.Len() < reg.MaxLen(m.Type) {
			return true
		}
	}
	return false
}
