// Package genome projects organisms onto a compact, shareable genome string
// and back: extraction, the text codec, two-parent crossover and regrowth of
// a full organism from a genome.
package genome

import (
	"github.com/pthm-cable/sprout/morph"
)

// Version is the only genome layout this package reads and writes.
const Version = 1

// Gene is one inherited organ: its type and length in cells.
type Gene struct {
	Type string `json:"t"`
	Len  int    `json:"n"`
}

// Genome is the lossy projection of an organism needed to regrow an
// equivalent one. Exact cell geometry is not kept.
type Genome struct {
	Version int        `json:"v"`
	Seed    uint32     `json:"seed"`
	Plan    morph.Plan `json:"plan"`
	Palette []string   `json:"palette,omitempty"`
	Modules []Gene     `json:"modules"`
}

// Extract reads the genome of o.
func Extract(o *morph.Organism) Genome {
	g := Genome{
		Version: Version,
		Seed:    o.Seed,
		Plan:    o.Plan,
		Palette: append([]string(nil), o.Palette...),
		Modules: make([]Gene, 0, len(o.Modules)),
	}
	for _, m := range o.Modules {
		g.Modules = append(g.Modules, Gene{Type: m.Type, Len: m.Len()})
	}
	return Canonical(g)
}

// Canonical returns the normalized form of g: current version, genes with
// an empty type removed, lengths at least one, an empty palette as nil and
// an empty module list as a non-nil slice.
func Canonical(g Genome) Genome {
	out := Genome{
		Version: Version,
		Seed:    g.Seed,
		Plan:    g.Plan,
		Modules: make([]Gene, 0, len(g.Modules)),
	}
	if len(g.Palette) > 0 {
		out.Palette = append([]string(nil), g.Palette...)
	}
	for _, gene := range g.Modules {
		if gene.Type == "" {
			continue
		}
		if gene.Len < 1 {
			gene.Len = 1
		}
		out.Modules = append(out.Modules, Gene{Type: gene.Type, Len: gene.Len})
	}
	return out
}

// Counts returns the number of genes per organ type.
func (g Genome) Counts() map[string]int {
	out := make(map[string]int, len(g.Modules))
	for _, gene := range g.Modules {
		out[gene.Type]++
	}
	return out
}
