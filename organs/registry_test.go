package organs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sprout/rng"
)

func testSpecs() map[string]Spec {
	return map[string]Spec{
		"antenna": {Kind: KindLinear, MinLen: 2, MaxExtra: 25, MaxLen: 27, GrowthChance: 0.7, GrowthDir: 16, SpawnWeight: 1},
		"shell":   {Kind: KindPatch, MinLen: 1, MaxLen: 8, GrowthChance: 0.4, GrowthDir: 8, SpawnWeight: 1, SpawnMinBody: 30, Offsets: [][2]int{{1, 0}}},
		"eye":     {Kind: KindRadial, MinLen: 1, MaxLen: 21, GrowthChance: 0.8, GrowthDir: 8, SmallBodyThreshold: 30, BigBodyThreshold: 90},
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r, err := NewRegistry(testSpecs())
	require.NoError(t, err)
	assert.Equal(t, []string{"antenna", "eye", "shell"}, r.Names())
	assert.Equal(t, 27, r.MaxLen("antenna"))
	assert.Equal(t, 0, r.MaxLen("missing"))
}

func TestRegistryValidation(t *testing.T) {
	cases := map[string]Spec{
		"zero min":     {Kind: KindLinear, MinLen: 0, MaxLen: 2, GrowthDir: 8},
		"max below":    {Kind: KindLinear, MinLen: 3, MaxLen: 2, GrowthDir: 8},
		"bad arity":    {Kind: KindLinear, MinLen: 1, MaxLen: 2, GrowthDir: 12},
		"no segments":  {Kind: KindJointed, MinLen: 1, MaxLen: 2, GrowthDir: 16},
		"no offsets":   {Kind: KindPatch, MinLen: 1, MaxLen: 2, GrowthDir: 8},
		"weights":      {Kind: KindLinear, MinLen: 1, MaxLen: 2, GrowthDir: 8, Shapes: []string{"a"}, ShapeWeights: []float64{1, 2}},
		"growth range": {Kind: KindLinear, MinLen: 1, MaxLen: 2, GrowthDir: 8, GrowthChance: 1.5},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(map[string]Spec{"x": spec})
			assert.Error(t, err)
		})
	}
}

func TestPickWeightedHonorsSpawnGate(t *testing.T) {
	r, err := NewRegistry(testSpecs())
	require.NoError(t, err)
	g := rng.New(3)
	for i := 0; i < 200; i++ {
		name := r.PickWeighted(g, 10)
		assert.NotEqual(t, "shell", name, "shell requires a 30-cell body")
		assert.NotEqual(t, "eye", name, "eye has no spawn weight")
	}
	seenShell := false
	for i := 0; i < 200; i++ {
		if r.PickWeighted(g, 40) == "shell" {
			seenShell = true
		}
	}
	assert.True(t, seenShell)
}

func TestTargetLenWithinBounds(t *testing.T) {
	s := testSpecs()["antenna"]
	g := rng.New(11)
	for i := 0; i < 500; i++ {
		n := s.TargetLen(g)
		require.GreaterOrEqual(t, n, s.MinLen)
		require.LessOrEqual(t, n, s.MaxLen)
		// Near the maximum: within 10% of 27.
		require.GreaterOrEqual(t, n, 24)
	}
}

func TestEyeRadiusGates(t *testing.T) {
	s := testSpecs()["eye"]
	assert.Equal(t, 0, s.EyeRadius(10))
	assert.Equal(t, 0, s.EyeRadius(29))
	assert.Equal(t, 1, s.EyeRadius(30))
	assert.Equal(t, 1, s.EyeRadius(89))
	assert.Equal(t, 2, s.EyeRadius(90))
}

func TestPickStyleDefaults(t *testing.T) {
	s := Spec{}
	assert.Equal(t, "straight", s.PickStyle(rng.New(1), 0.5))
	s.Styles = []string{"curve"}
	assert.Equal(t, "curve", s.PickStyle(rng.New(1), 0))
}

func TestKindYAML(t *testing.T) {
	var out struct {
		Kind Kind `yaml:"kind"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("kind: Jointed"), &out))
	assert.Equal(t, KindJointed, out.Kind)

	data, err := yaml.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "jointed")

	assert.Error(t, yaml.Unmarshal([]byte("kind: blob"), &out))
}
