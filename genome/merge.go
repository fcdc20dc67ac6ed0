package genome

import (
	"math/rand"

	"github.com/pthm-cable/sprout/morph"
	"github.com/pthm-cable/sprout/rng"
)

// Salts separating the crossover streams.
const (
	saltShuffle uint32 = 0x5EED
	saltBlend   uint32 = 0xB1E4D
)

// Merge crosses two genomes into two offspring. The module lists are
// concatenated, shuffled with a seed shared by both parents, and split at
// the midpoint: the first child receives floor(n/2) genes and the second
// ceil(n/2). Each child gets its own blend of the parents' plans and
// palettes. Merge is deterministic in its inputs.
func Merge(a, b Genome) (Genome, Genome) {
	a, b = Canonical(a), Canonical(b)
	shared := rng.Hash32(a.Seed ^ b.Seed)

	pool := make([]Gene, 0, len(a.Modules)+len(b.Modules))
	pool = append(pool, a.Modules...)
	pool = append(pool, b.Modules...)
	r := rng.New(rng.Hash32(shared, saltShuffle))
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	half := len(pool) / 2
	left := append([]Gene(nil), pool[:half]...)
	right := append([]Gene(nil), pool[half:]...)
	return child(a, b, shared, 1, left), child(a, b, shared, 2, right)
}

func child(a, b Genome, shared, n uint32, genes []Gene) Genome {
	r := rng.New(rng.Hash32(shared, saltBlend, n))
	return Canonical(Genome{
		Version: Version,
		Seed:    rng.Hash32(shared, n),
		Plan:    BlendPlan(a.Plan, b.Plan, r),
		Palette: BlendPalette(a.Palette, b.Palette, r),
		Modules: genes,
	})
}

// BlendPlan mixes two plans. Continuous traits are interpolated with an
// independent random weight each; the axis and ecotype are coin flips.
func BlendPlan(a, b morph.Plan, r *rand.Rand) morph.Plan {
	lerp := func(x, y float64) float64 {
		w := r.Float64()
		return x + (y-x)*w
	}
	out := morph.Plan{
		Symmetry: lerp(a.Symmetry, b.Symmetry),
		Wiggle:   lerp(a.Wiggle, b.Wiggle),
		AxisDir:  a.AxisDir,
		Ecotype:  a.Ecotype,
	}
	if r.Intn(2) == 1 {
		out.AxisDir = b.AxisDir
	}
	if r.Intn(2) == 1 {
		out.Ecotype = b.Ecotype
	}
	return out
}

// BlendPalette picks each color slot from either parent. A slot only one
// parent has is inherited from that parent.
func BlendPalette(a, b []string, r *rand.Rand) []string {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		switch {
		case i >= len(a):
			out[i] = b[i]
		case i >= len(b):
			out[i] = a[i]
		case r.Intn(2) == 0:
			out[i] = a[i]
		default:
			out[i] = b[i]
		}
	}
	return out
}
