package telemetry

import "github.com/pthm-cable/sprout/morph"

// Collector accumulates engine events within tick windows and produces
// TickStats. It is a morph.Sink.
type Collector struct {
	windowTicks     uint64
	windowStartTick uint64

	// Event counters for current window
	counts TickStats
}

// NewCollector creates a collector flushing every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: uint64(windowTicks)}
}

// Record implements morph.Sink.
func (c *Collector) Record(ev morph.Event) {
	s := &c.counts
	switch ev.Kind {
	case morph.EventBodyGrown:
		s.BodyCellsGrown += ev.Count
	case morph.EventBodyStalled:
		s.BodyStalls++
	case morph.EventModulePlaced:
		s.Placed++
	case morph.EventMirrorPlaced:
		s.Mirrored++
	case morph.EventModulesGrown:
		s.CellsGrown += ev.Count
	case morph.EventModulePruned:
		s.Pruned++
	case morph.EventModuleReattached:
		s.Reattached++
	case morph.EventModuleDropped, morph.EventEyeNormalized:
		s.Dropped++
	case morph.EventModuleDetached:
		s.Detached++
	case morph.EventPlacementFailed:
		switch ev.Reason {
		case morph.ReasonMinBody:
			s.FailMinBody++
		case morph.ReasonNoAnchor:
			s.FailNoAnchor++
		case morph.ReasonBlocked:
			s.FailBlocked++
		case morph.ReasonTooClose:
			s.FailTooClose++
		default:
			s.FailUnknown++
		}
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces the stats for the window ending at currentTick, sampling
// population figures from organisms, and resets the counters.
func (c *Collector) Flush(currentTick uint64, organisms []*morph.Organism) TickStats {
	s := c.counts
	s.WindowStartTick = c.windowStartTick
	s.WindowEndTick = currentTick
	s.Organisms = len(organisms)

	bodies := make([]float64, 0, len(organisms))
	var lens []float64
	for _, o := range organisms {
		s.BodyCells += o.BodySize()
		bodies = append(bodies, float64(o.BodySize()))
		for _, m := range o.Modules {
			s.Modules++
			s.ModuleCells += m.Len()
			lens = append(lens, float64(m.Len()))
		}
	}
	body := ComputeDistribution(bodies)
	s.BodyMean, s.BodyStd = body.Mean, body.Std
	l := ComputeDistribution(lens)
	s.LenMean, s.LenStd = l.Mean, l.Std
	s.LenP10, s.LenP50, s.LenP90 = l.P10, l.P50, l.P90

	c.counts = TickStats{}
	c.windowStartTick = currentTick
	return s
}
