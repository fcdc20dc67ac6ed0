package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/sprout/config"
	"github.com/pthm-cable/sprout/grid"
	"github.com/pthm-cable/sprout/morph"
)

func TestLogSinkWritesStructuredEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewLogSink(logger)

	id := morph.NewID(5)
	sink.Record(morph.Event{Tick: 3, Organism: id, Kind: morph.EventPlacementFailed, Module: "eye", Reason: morph.ReasonTooClose})
	sink.Record(morph.Event{Tick: 4, Organism: id, Kind: morph.EventModuleDropped, Module: "tail", Count: 2})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "placement_failed", first["msg"])
	assert.Equal(t, "DEBUG", first["level"])
	assert.Equal(t, id.String(), first["organism"])
	assert.Equal(t, "too_close", first["reason"])
	assert.Equal(t, float64(3), first["tick"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "INFO", second["level"])
	assert.Equal(t, float64(2), second["count"])
	assert.NotContains(t, second, "reason")
}

func TestTeeAndBuffer(t *testing.T) {
	a, b := &Buffer{}, &Buffer{}
	sink := Tee(a, nil, b)
	sink.Record(morph.Event{Kind: morph.EventBodyGrown, Count: 1})
	sink.Record(morph.Event{Kind: morph.EventBodyGrown, Count: 2})
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())

	got := a.Drain()
	assert.Len(t, got, 2)
	assert.Zero(t, a.Len())
	assert.Same(t, a, Tee(a))
}

func TestCollectorCountsAndFlush(t *testing.T) {
	c := NewCollector(10)
	for _, ev := range []morph.Event{
		{Kind: morph.EventBodyGrown, Count: 4},
		{Kind: morph.EventModulePlaced},
		{Kind: morph.EventModulePlaced},
		{Kind: morph.EventMirrorPlaced},
		{Kind: morph.EventModulesGrown, Count: 6},
		{Kind: morph.EventPlacementFailed, Reason: morph.ReasonTooClose},
		{Kind: morph.EventPlacementFailed, Reason: morph.ReasonMinBody},
		{Kind: morph.EventPlacementFailed, Reason: morph.ReasonUnknownType},
		{Kind: morph.EventModuleDropped},
		{Kind: morph.EventEyeNormalized},
	} {
		c.Record(ev)
	}
	assert.False(t, c.ShouldFlush(9))
	assert.True(t, c.ShouldFlush(10))

	o := &morph.Organism{
		Body: morph.Body{Cells: grid.NewSet(grid.Cell{}, grid.Cell{X: 1}, grid.Cell{X: 2})},
		Modules: []*morph.Module{
			{Type: "tail", Cells: grid.NewSet(grid.Cell{X: 3}, grid.Cell{X: 4})},
			{Type: "eye", Cells: grid.NewSet(grid.Cell{Y: 1})},
		},
	}
	s := c.Flush(10, []*morph.Organism{o})
	assert.Equal(t, uint64(10), s.WindowEndTick)
	assert.Equal(t, 4, s.BodyCellsGrown)
	assert.Equal(t, 2, s.Placed)
	assert.Equal(t, 1, s.Mirrored)
	assert.Equal(t, 6, s.CellsGrown)
	assert.Equal(t, 3, s.Failed())
	assert.Equal(t, 1, s.FailTooClose)
	assert.Equal(t, 2, s.Dropped)
	assert.Equal(t, 1, s.Organisms)
	assert.Equal(t, 3, s.BodyCells)
	assert.Equal(t, 2, s.Modules)
	assert.Equal(t, 3, s.ModuleCells)
	assert.InDelta(t, 1.5, s.LenMean, 1e-9)

	next := c.Flush(20, nil)
	assert.Equal(t, uint64(10), next.WindowStartTick)
	assert.Zero(t, next.Placed)
	assert.Zero(t, next.LenMean)
}

func TestOutputManager(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)
	require.Equal(t, dir, om.Dir())

	require.NoError(t, om.WriteConfig(config.Default()))
	require.NoError(t, om.WriteStats(TickStats{WindowEndTick: 10, Organisms: 2}))
	require.NoError(t, om.WriteStats(TickStats{WindowEndTick: 20, Organisms: 3}))
	id := morph.NewID(1)
	require.NoError(t, om.WriteEvents([]morph.Event{
		{Tick: 1, Organism: id, Kind: morph.EventModulePlaced, Module: "tail", Cell: grid.Cell{X: 2, Y: -1}},
	}))
	require.NoError(t, om.WriteEvents([]morph.Event{
		{Tick: 2, Organism: id, Kind: morph.EventPlacementFailed, Module: "eye", Reason: morph.ReasonBlocked},
	}))
	require.NoError(t, om.WriteGenome(GenomeRecord{Tick: 2, Organism: id.String(), Seed: 1, Genome: "j1.e30"}))
	require.NoError(t, om.Close())

	var stats []TickStats
	data, err := os.ReadFile(filepath.Join(dir, "growth.csv"))
	require.NoError(t, err)
	require.NoError(t, gocsv.UnmarshalBytes(data, &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, uint64(20), stats[1].WindowEndTick)
	assert.Equal(t, 3, stats[1].Organisms)

	var events []EventRecord
	data, err = os.ReadFile(filepath.Join(dir, "events.csv"))
	require.NoError(t, err)
	require.NoError(t, gocsv.UnmarshalBytes(data, &events))
	require.Len(t, events, 2)
	assert.Equal(t, "module_placed", events[0].Kind)
	assert.Equal(t, -1, events[0].Y)
	assert.Equal(t, "blocked", events[1].Reason)

	_, err = config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
}

func TestNilOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	require.Nil(t, om)
	assert.NoError(t, om.WriteStats(TickStats{}))
	assert.NoError(t, om.WriteEvents([]morph.Event{{}}))
	assert.NoError(t, om.Close())
	assert.Empty(t, om.Dir())
}

func TestPerfCollector(t *testing.T) {
	p := NewPerfCollector(4)
	for i := 0; i < 6; i++ {
		p.StartTick()
		p.StartPhase(PhaseBody)
		p.StartPhase(PhaseOrgans)
		p.EndTick()
	}
	s := p.Stats()
	assert.Equal(t, 4, s.Samples)
	assert.Contains(t, s.PhaseAvg, PhaseBody)
	assert.Contains(t, s.PhaseAvg, PhaseOrgans)

	var nilPerf *PerfCollector
	nilPerf.StartTick()
	nilPerf.StartPhase(PhaseBody)
	nilPerf.EndTick()
	assert.Zero(t, nilPerf.Stats().Samples)
}
