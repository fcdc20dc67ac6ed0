package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TickStats holds aggregated growth statistics for a window of ticks.
type TickStats struct {
	WindowStartTick uint64 `csv:"-"`
	WindowEndTick   uint64 `csv:"window_end"`

	// Population at window end
	Organisms   int `csv:"organisms"`
	BodyCells   int `csv:"body_cells"`
	Modules     int `csv:"modules"`
	ModuleCells int `csv:"module_cells"`

	// Body size distribution
	BodyMean float64 `csv:"body_mean"`
	BodyStd  float64 `csv:"body_std"`

	// Module length distribution
	LenMean float64 `csv:"len_mean"`
	LenStd  float64 `csv:"len_std"`
	LenP10  float64 `csv:"len_p10"`
	LenP50  float64 `csv:"len_p50"`
	LenP90  float64 `csv:"len_p90"`

	// Events during window
	BodyCellsGrown int `csv:"body_grown"`
	BodyStalls     int `csv:"body_stalls"`
	Placed         int `csv:"placed"`
	Mirrored       int `csv:"mirrored"`
	CellsGrown     int `csv:"cells_grown"`
	FailMinBody    int `csv:"fail_min_body"`
	FailNoAnchor   int `csv:"fail_no_anchor"`
	FailBlocked    int `csv:"fail_blocked"`
	FailTooClose   int `csv:"fail_too_close"`
	FailUnknown    int `csv:"fail_unknown"`
	Pruned         int `csv:"pruned"`
	Reattached     int `csv:"reattached"`
	Dropped        int `csv:"dropped"`
	Detached       int `csv:"detached"`
}

// Failed returns the total placement failures in the window.
func (s TickStats) Failed() int {
	return s.FailMinBody + s.FailNoAnchor + s.FailBlocked + s.FailTooClose + s.FailUnknown
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeDistribution returns mean, sample standard deviation and empirical
// quantiles of values. An empty sample yields zeros.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var d Distribution
	if len(sorted) == 1 {
		d.Mean = sorted[0]
	} else {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	}
	d.P10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	d.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (s TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Int("organisms", s.Organisms),
		slog.Int("body_cells", s.BodyCells),
		slog.Int("modules", s.Modules),
		slog.Int("module_cells", s.ModuleCells),
		slog.Float64("body_mean", s.BodyMean),
		slog.Float64("len_mean", s.LenMean),
		slog.Float64("len_std", s.LenStd),
		slog.Float64("len_p50", s.LenP50),
		slog.Int("placed", s.Placed),
		slog.Int("mirrored", s.Mirrored),
		slog.Int("failed", s.Failed()),
		slog.Int("cells_grown", s.CellsGrown),
		slog.Int("pruned", s.Pruned),
		slog.Int("reattached", s.Reattached),
		slog.Int("dropped", s.Dropped),
	)
}

// LogStats logs the window stats using slog.
func (s TickStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"organisms", s.Organisms,
		"modules", s.Modules,
		"len_mean", s.LenMean,
		"placed", s.Placed,
		"failed", s.Failed(),
		"cells_grown", s.CellsGrown,
	)
}
