// Package organs holds the organ-type table the growth engine consumes: length
// limits, growth chances, spawn gates and the per-kind shape parameters.
package organs

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Kind is the closed set of organ shape kinds.
type Kind uint8

const (
	KindLinear  Kind = iota // single-width line (tail, tentacle, antenna, ...)
	KindJointed             // pre-planned phalanx chain (limb)
	KindPatch               // fixed offset stamp (shell, mouth, fin)
	KindRadial              // diamond/sphere mask (eye)
)

var kindNames = [...]string{"linear", "jointed", "patch", "radial"}

// String returns the config name of k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind parses a config name.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(s, n) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown organ kind %q", s)
}

// UnmarshalYAML decodes a kind from its name.
func (k *Kind) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalYAML encodes a kind as its name.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Spec describes one organ type.
type Spec struct {
	Kind         Kind      `yaml:"kind"`
	MinLen       int       `yaml:"min_len"`
	MaxExtra     int       `yaml:"max_extra,omitempty"`
	MaxLen       int       `yaml:"max_len"`
	GrowthChance float64   `yaml:"growth_chance"`
	Width        int       `yaml:"width,omitempty"`
	SpawnWeight  float64   `yaml:"spawn_weight,omitempty"`
	SpawnMinBody int       `yaml:"spawn_min_body,omitempty"` // 0 = no gate
	GrowthDir    int       `yaml:"growth_dir"`               // direction arity, 8 or 16
	Movable      bool      `yaml:"movable,omitempty"`
	Shapes       []string  `yaml:"shapes,omitempty"`
	ShapeWeights []float64 `yaml:"shape_weights,omitempty"`
	Styles       []string  `yaml:"styles,omitempty"` // growth styles: straight, zigzag, curve
	StyleWeights []float64 `yaml:"style_weights,omitempty"`

	// Jointed
	Phalanges   [2]int `yaml:"phalanges"`              // [min, max] segment count
	SegmentLens []int  `yaml:"segment_lens,omitempty"` // per-segment length, cycled

	// Patch
	Offsets [][2]int `yaml:"offsets,omitempty"` // local frame, +x points away from the body

	// Radial
	SmallBodyThreshold int      `yaml:"small_body_threshold,omitempty"` // below: radius 0
	BigBodyThreshold   int      `yaml:"big_body_threshold,omitempty"`   // at or above: radius 2
	EyeShapes          []string `yaml:"eye_shapes,omitempty"`
}

// Registry is a validated, read-only organ table.
type Registry struct {
	specs map[string]Spec
	names []string
}

// NewRegistry validates specs and builds a registry.
func NewRegistry(specs map[string]Spec) (*Registry, error) {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for name, s := range specs {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("organ %q: %w", name, err)
		}
		r.specs[name] = s
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

func (s Spec) validate() error {
	if s.MinLen < 1 {
		return fmt.Errorf("min_len must be >= 1, got %d", s.MinLen)
	}
	if s.MaxLen < s.MinLen {
		return fmt.Errorf("max_len %d < min_len %d", s.MaxLen, s.MinLen)
	}
	if s.GrowthDir != 8 && s.GrowthDir != 16 {
		return fmt.Errorf("growth_dir must be 8 or 16, got %d", s.GrowthDir)
	}
	if s.GrowthChance < 0 || s.GrowthChance > 1 {
		return fmt.Errorf("growth_chance out of [0,1]: %v", s.GrowthChance)
	}
	if len(s.ShapeWeights) > 0 && len(s.ShapeWeights) != len(s.Shapes) {
		return fmt.Errorf("shape_weights has %d entries for %d shapes", len(s.ShapeWeights), len(s.Shapes))
	}
	if len(s.StyleWeights) > 0 && len(s.StyleWeights) != len(s.Styles) {
		return fmt.Errorf("style_weights has %d entries for %d styles", len(s.StyleWeights), len(s.Styles))
	}
	switch s.Kind {
	case KindJointed:
		if len(s.SegmentLens) == 0 || s.Phalanges[0] < 1 || s.Phalanges[1] < s.Phalanges[0] {
			return fmt.Errorf("jointed organ needs segment_lens and phalanges [min,max]")
		}
	case KindPatch:
		if len(s.Offsets) == 0 {
			return fmt.Errorf("patch organ needs offsets")
		}
	}
	return nil
}

// Lookup returns the spec for name.
func (r *Registry) Lookup(name string) (Spec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// Names returns the organ types in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// MaxLen returns the length cap of name, or 0 if unknown.
func (r *Registry) MaxLen(name string) int {
	return r.specs[name].MaxLen
}

// PickWeighted draws an organ type by spawn weight among the types whose
// spawn gate admits bodySize. It returns "" when nothing qualifies.
func (r *Registry) PickWeighted(rng *rand.Rand, bodySize int) string {
	total := 0.0
	for _, n := range r.names {
		s := r.specs[n]
		if s.SpawnWeight > 0 && bodySize >= s.SpawnMinBody {
			total += s.SpawnWeight
		}
	}
	if total <= 0 {
		return ""
	}
	x := rng.Float64() * total
	last := ""
	for _, n := range r.names {
		s := r.specs[n]
		if s.SpawnWeight <= 0 || bodySize < s.SpawnMinBody {
			continue
		}
		last = n
		x -= s.SpawnWeight
		if x < 0 {
			return n
		}
	}
	return last
}

// TargetLen draws a target length near the configured maximum with ±10%
// jitter, clamped to [MinLen, MaxLen].
func (s Spec) TargetLen(rng *rand.Rand) int {
	base := s.MinLen + s.MaxExtra
	if base > s.MaxLen {
		base = s.MaxLen
	}
	jitter := 0.9 + 0.2*rng.Float64()
	n := int(math.Round(float64(base) * jitter))
	return s.ClampLen(n)
}

// ClampLen clamps n to [MinLen, MaxLen].
func (s Spec) ClampLen(n int) int {
	if n < s.MinLen {
		n = s.MinLen
	}
	if n > s.MaxLen {
		n = s.MaxLen
	}
	return n
}

// PickShape draws a cosmetic shape option.
func (s Spec) PickShape(rng *rand.Rand) string {
	return pick(rng, s.Shapes, s.ShapeWeights, nil)
}

// PickStyle draws a growth style. Wiggly organisms favor curve and zigzag.
func (s Spec) PickStyle(rng *rand.Rand, wiggle float64) string {
	if len(s.Styles) == 0 {
		return "straight"
	}
	return pick(rng, s.Styles, s.StyleWeights, func(opt string, w float64) float64 {
		switch opt {
		case "curve":
			return w * (0.5 + wiggle)
		case "zigzag":
			return w * (0.5 + 0.5*wiggle)
		}
		return w
	})
}

// PickEyeShape draws a mask shape for radial organs.
func (s Spec) PickEyeShape(rng *rand.Rand) string {
	if len(s.EyeShapes) == 0 {
		return "diamond"
	}
	return s.EyeShapes[rng.Intn(len(s.EyeShapes))]
}

// EyeRadius returns the mask radius admitted by bodySize.
func (s Spec) EyeRadius(bodySize int) int {
	switch {
	case bodySize < s.SmallBodyThreshold:
		return 0
	case s.BigBodyThreshold > 0 && bodySize >= s.BigBodyThreshold:
		return 2
	}
	return 1
}

func pick(rng *rand.Rand, opts []string, weights []float64, adjust func(string, float64) float64) string {
	if len(opts) == 0 {
		return ""
	}
	ws := make([]float64, len(opts))
	total := 0.0
	for i, o := range opts {
		w := 1.0
		if len(weights) == len(opts) {
			w = weights[i]
		}
		if adjust != nil {
			w = adjust(o, w)
		}
		if w < 0 {
			w = 0
		}
		ws[i] = w
		total += w
	}
	if total <= 0 {
		return opts[0]
	}
	x := rng.Float64() * total
	for i, w := range ws {
		x -= w
		if x < 0 {
			return opts[i]
		}
	}
	return opts[len(opts)-1]
}
