package morph

import (
	"math"

	"github.com/pthm-cable/sprout/config"
	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/rng"
)

// WaveField is a slowly drifting angular noise that gives each body an
// organic silhouette. It is a pure function of its fields; only Advance
// changes it.
type WaveField struct {
	Seed       uint32  `json:"seed"`
	AmpBlocks  float64 `json:"ampBlocks"`  // Radius swing in cells
	Lobes      int     `json:"lobes"`      // Low-frequency bulges around the body
	Phase      float64 `json:"phase"`      // Offset in bins
	PhaseSpeed float64 `json:"phaseSpeed"` // Bins per Advance step
	Bins       int     `json:"bins"`
}

// NewWaveField derives a field from an organism seed and wiggle trait.
func NewWaveField(seed uint32, wiggle float64, cfg config.BodyConfig) *WaveField {
	h := rng.Hash32(seed, 0x57A7E)
	bins := cfg.WaveBins
	if bins <= 0 {
		bins = 24
	}
	return &WaveField{
		Seed:       h,
		AmpBlocks:  cfg.WaveAmpBase + cfg.WaveAmpWiggle*wiggle,
		Lobes:      2 + int(h%4),
		Phase:      rng.Unit(h, 1) * float64(bins),
		PhaseSpeed: 0.15 + 0.35*wiggle,
		Bins:       bins,
	}
}

// Advance drifts the field by steps mutation ticks.
func (w *WaveField) Advance(steps int) {
	w.Phase = math.Mod(w.Phase+w.PhaseSpeed*float64(steps), float64(w.Bins))
}

// Noise returns the field value in [-1, 1] at angle (radians).
func (w *WaveField) Noise(angle float64) float64 {
	t := angle/(2*math.Pi)*float64(w.Bins) + w.Phase
	i0 := math.Floor(t)
	f := t - i0
	f = f * f * (3 - 2*f)
	v0 := w.bin(int(i0))
	v1 := w.bin(int(i0) + 1)
	value := v0 + (v1-v0)*f
	lobe := math.Sin(float64(w.Lobes)*angle + w.Phase*2*math.Pi/float64(w.Bins))
	return 0.7*value + 0.3*lobe
}

func (w *WaveField) bin(i int) float64 {
	i %= w.Bins
	if i < 0 {
		i += w.Bins
	}
	return rng.Unit(w.Seed, uint32(i))*2 - 1
}

// DesiredRadius returns the target radius at angle for a body of area cells.
func (w *WaveField) DesiredRadius(area int, angle float64) float64 {
	base := math.Sqrt(float64(area) / math.Pi)
	return base + w.AmpBlocks*w.Noise(angle)
}

// Score rates (x, y) as a body growth candidate; lower is better. It is the
// distance from the core minus the desired radius in that direction, plus a
// small hashed jitter that breaks ties without consuming randomness.
func (e *Engine) Score(o *Organism, x, y int) float64 {
	w := o.WaveField(e)
	dx := float64(x - o.Body.Core.X)
	dy := float64(y - o.Body.Core.Y)
	angle := math.Atan2(dy, dx)
	dist := math.Hypot(dx, dy)
	jitter := (rng.Unit(o.Seed, rng.Coord(x), rng.Coord(y)) - 0.5) * e.cfg.Body.Jitter
	return dist - w.DesiredRadius(o.Body.Cells.Len(), angle) + jitter
}

// scoreCell is Score for a cell.
func (e *Engine) scoreCell(o *Organism, c grid.Cell) float64 {
	return e.Score(o, c.X, c.Y)
}
