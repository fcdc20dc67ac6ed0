package morph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/sprout/config"
	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/organs"
)

// recorder collects events for assertions.
type recorder struct {
	events []Event
}

func (r *recorder) Record(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func newTestEngine(t *testing.T) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewEngine(config.Default(), rec), rec
}

// newTestEngineWith loads defaults with a YAML override.
func newTestEngineWith(t *testing.T, override string) (*Engine, *recorder) {
	t.Helper()
	cfg, err := config.Parse([]byte(override))
	require.NoError(t, err)
	rec := &recorder{}
	return NewEngine(cfg, rec), rec
}

// handBuilt returns an organism whose body is exactly cells; the first cell
// is the core.
func handBuilt(cells ...grid.Cell) *Organism {
	return &Organism{
		ID:   NewID(1, "hand"),
		Seed: 1,
		Body: Body{Core: cells[0], Cells: grid.NewSet(cells...)},
	}
}

func spikeAt(cells ...grid.Cell) *Module {
	return &Module{
		Type:         "spike",
		Kind:         organs.KindLinear,
		Cells:        grid.NewSet(cells...),
		Anchor:       grid.Cell{},
		GrowTo:       6,
		Heading:      grid.Heading{Index: 0, Arity: 8},
		GrowPos:      grid.VecOf(cells[len(cells)-1]),
		GrowthChance: 1,
		Style:        StyleStraight,
	}
}

func TestNewEnginePanicsWithoutRegistry(t *testing.T) {
	require.Panics(t, func() { NewEngine(&config.Config{}, nil) })
}

func TestEventsCarryOrganismAndTick(t *testing.T) {
	eng, rec := newTestEngine(t)
	o := eng.NewOrganism(9, Options{TargetBodySize: 12})
	o.MutationTicks = 7
	eng.AddModule(o, "nope", nil, nil)

	require.NotEmpty(t, rec.events)
	last := rec.events[len(rec.events)-1]
	require.Equal(t, EventPlacementFailed, last.Kind)
	require.Equal(t, o.ID, last.Organism)
	require.Equal(t, uint64(7), last.Tick)
	require.Equal(t, "placement_failed", last.Kind.String())
}
